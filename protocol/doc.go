// Package protocol drives the ESP efuse controller through its registers.
//
// The controller exposes a small register window: a write window of
// ProgramWords PGM_DATA registers followed by CheckWords CHECK_VALUE
// registers, a CONF register that takes an opcode, and a CMD register that
// starts a program or read command and clears itself when done.
//
// # Transport
//
// Everything goes through a Transport that reads and writes one 32-bit
// register at a time. Optional capabilities are discovered by interface
// assertion:
//
//   - RegisterUpdater: masked update in one operation
//   - CrystalFreqReader: crystal frequency check before a burn
//   - Reconnector: re-establish the link after a burn disabled download mode
//
// # Command Sequences
//
// A Controller wraps a Transport and the chip's Registers:
//
//	c := protocol.NewController(transport, regs, 0)
//	if err := c.Setup(ctx); err != nil {
//	    return err
//	}
//	if err := c.WriteWords(ctx, regs.PgmData0, words); err != nil {
//	    return err
//	}
//	if err := c.Program(ctx, block); err != nil {
//	    return err
//	}
//	if err := c.Read(ctx); err != nil {
//	    return err
//	}
//
// Program writes the opcode WriteOpCode to CONF, then PgmCmd with the block
// number in bits 2 and up to CMD. Read does the same with ReadOpCode and
// ReadCmd. Both wait for CMD to clear first.
//
// # Error Registers
//
// ReadErrors returns the block 0 repeat-error registers and the decoded
// per-block error counters of the RS blocks:
//
//	report, err := c.ReadErrors(ctx, 11)
//	if report.Failed() {
//	    // at least one block could not be decoded
//	}
//
// # Error Handling
//
// WaitIdle returns a *TimeoutError when the controller stays busy past the
// burn timeout (DefaultBurnTimeout unless configured). It matches
// ErrControllerTimeout with errors.Is.
package protocol
