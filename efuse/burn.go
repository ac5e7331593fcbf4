package efuse

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/moffa90/go-espefuse/protocol"
)

// BurnAll burns the pending data of every block, highest block first, then
// reads the chip again. It returns false without burning when
// checkBatchMode is set inside a batch, and true when the burn ran or
// nothing was pending.
//
// The pending data is checked before anything is written: a check that
// fails aborts the whole burn. The confirmation callback is only asked
// when at least one block has pending data.
//
// Example:
//
//	f, _ := efuses.Field("DIS_USB_JTAG")
//	bits, _ := efuses.ParseValue(f, "")
//	if err := efuses.Save(f, bits); err != nil {
//	    return err
//	}
//	_, err := efuses.BurnAll(ctx, false)
func (e *Efuses) BurnAll(ctx context.Context, checkBatchMode bool) (bool, error) {
	if checkBatchMode && e.batchDepth != 0 {
		e.logInfo("Batch mode is enabled, the burn will be done at the end of the command.")
		return false, nil
	}

	startTime := time.Now()
	total := len(e.blocks)
	e.reportProgress(Progress{Phase: PhaseChecking, TotalBlocks: total})

	e.logInfo("Check all blocks for burn...")
	e.logInfo("idx, BLOCK_NAME,          Conclusion")
	var have bool
	for _, b := range e.blocks {
		if err := e.checkPendingData(b); err != nil {
			return false, err
		}
		have = have || b.Pending()
	}
	if !have {
		e.logInfo("Nothing to burn, see messages above.")
		e.reportProgress(Progress{Phase: PhaseComplete, TotalBlocks: total, Percentage: 100, ElapsedTime: time.Since(startTime)})
		return true, nil
	}

	if err := e.confirm(ctx, ""); err != nil {
		return false, err
	}

	done := 0
	for i := len(e.blocks) - 1; i >= 0; i-- {
		if err := ctx.Err(); err != nil {
			return false, err
		}
		b := e.blocks[i]
		oldErrors, oldFail := b.numErrors, b.fail
		e.reportProgress(Progress{
			Phase:       PhaseBurning,
			Block:       b.ID,
			BlocksDone:  done,
			TotalBlocks: total,
			Percentage:  float64(done) / float64(total) * 100,
			ElapsedTime: time.Since(startTime),
		})
		if err := e.burnBlock(ctx, b); err != nil {
			if errors.Is(err, errSessionEnded) {
				e.closed = true
				e.reportProgress(Progress{Phase: PhaseComplete, BlocksDone: done + 1, TotalBlocks: total, Percentage: 100, ElapsedTime: time.Since(startTime)})
				return true, nil
			}
			return false, err
		}
		if (b.fail && b.fail != oldFail) || (b.numErrors != 0 && b.numErrors > oldErrors) {
			e.logError("Error(s) were detected in eFuses", "block", b.Name, "errors", b.numErrors, "fail", b.fail)
			return false, fmt.Errorf("%s: %w", b.Name, ErrBlockErrors)
		}
		done++
	}

	e.logInfo("Reading updated efuses...")
	e.reportProgress(Progress{Phase: PhaseReading, BlocksDone: done, TotalBlocks: total, Percentage: 100, ElapsedTime: time.Since(startTime)})
	if err := e.Refresh(ctx); err != nil {
		return false, err
	}

	e.reportProgress(Progress{Phase: PhaseComplete, BlocksDone: done, TotalBlocks: total, Percentage: 100, ElapsedTime: time.Since(startTime)})
	return true, nil
}

// confirm asks the confirmation callback unless DoNotConfirm is set.
func (e *Efuses) confirm(ctx context.Context, action string) error {
	prompt := "This is an irreversible operation!"
	if action != "" {
		prompt = action + ". " + prompt
	}
	e.logInfo(prompt)
	if e.config.DoNotConfirm {
		return nil
	}
	if e.config.Confirm == nil {
		return fmt.Errorf("no confirmation callback configured: %w", ErrAborted)
	}
	ok, err := e.config.Confirm(ctx, prompt)
	if err != nil {
		return err
	}
	if !ok {
		e.logInfo("Aborting.")
		return ErrAborted
	}
	return nil
}

// checkPendingData decides what to do with the pending data of b. Data that
// is already burned is dropped; data that needs to clear bits is refused
// under RS and logged under NONE.
func (e *Efuses) checkPendingData(b *Block) error {
	label := fmt.Sprintf("[%2d] %-20s", b.ID, b.Name)
	if !b.Pending() {
		e.logDebug(label + " (nothing to burn)")
		return nil
	}
	if b.pending.Len() != b.read.Len() {
		return &ValueError{
			Name:   b.Name,
			Reason: fmt.Sprintf("Data does not fit: the block%d size is %d bytes, data is %d bytes", b.ID, b.read.Len()/8, b.pending.Len()/8),
		}
	}
	if err := e.checkWriteReadProtect(b); err != nil {
		return err
	}

	switch {
	case b.read.All(false):
		e.logInfo(label + " is empty, will burn the new value")
	case b.read.Equal(b.pending):
		e.logInfo(label + " is already written the same value, continue with EMPTY_BLOCK")
		b.clearPending()
	default:
		e.logInfo(label + " is not empty")
		e.logInfo(fmt.Sprintf("\t(written ): %s", b.read))
		e.logInfo(fmt.Sprintf("\t(to write): %s", b.pending))
		if b.read.And(b.pending).Equal(b.pending) {
			e.logInfo("\tAll wr_data bits are set in the block, continue with EMPTY_BLOCK.")
			b.clearPending()
			return nil
		}
		switch b.scheme {
		case protocol.CodingSchemeNone:
			e.logInfo("\t(coding scheme = NONE)")
		case protocol.CodingSchemeRS:
			e.logInfo("\t(coding scheme = RS)")
			err := &ProtectionError{
				Name:   b.Name,
				Reason: "burn is forbidden (RS coding scheme does not allow this).",
			}
			if rerr := e.reportError(err); rerr != nil {
				return rerr
			}
		default:
			return &CodingSchemeError{Block: b.Name, Scheme: b.scheme}
		}
	}
	return nil
}

// burnBlock burns the pending data of b and verifies the read back. The
// pending buffer is empty afterwards whatever the outcome.
func (e *Efuses) burnBlock(ctx context.Context, b *Block) error {
	if !b.Pending() {
		return nil
	}
	defer b.clearPending()

	before := b.read.Clone()
	e.printBlock(b, b.pending, "to_write")
	words, err := b.EncodedWords()
	if err != nil {
		return err
	}
	if err := e.burnWords(ctx, b, words); err != nil {
		return err
	}
	if err := e.readBlock(ctx, b); err != nil {
		return err
	}

	if !e.IsReadable(b, -1) {
		e.logInfo(fmt.Sprintf("%s is read-protected. Read back the burn value is not possible.", b.Name))
		if b.read.All(false) {
			e.logInfo("Read all '0'")
			return nil
		}
		return &VerificationError{Block: b.Name, Reason: "read-protected block does not read as all '0'"}
	}

	switch {
	case b.pending.Equal(b.read):
		e.logInfo(fmt.Sprintf("BURN BLOCK%-2d - OK (write block == read block)", b.ID))
	case b.pending.And(b.read).Equal(b.pending) && b.read.And(before).Equal(before):
		e.logInfo(fmt.Sprintf("BURN BLOCK%-2d - OK (all write block bits are set)", b.ID))
	default:
		e.logInfo(fmt.Sprintf("BURN BLOCK%-2d - ERROR", b.ID), "expected", b.pending.String(), "real", b.read.String())
		if b.ID != 0 {
			return &VerificationError{Block: b.Name, Reason: "read data does not match the written data"}
		}
	}
	return nil
}

// burnWords programs words into b. The program command is repeated while
// the error registers report errors after a read back.
func (e *Efuses) burnWords(ctx context.Context, b *Block, words []uint32) error {
	for attempt := 0; attempt < e.config.BurnAttempts; attempt++ {
		if err := e.ctrl.Setup(ctx); err != nil {
			return err
		}
		e.logDebug(fmt.Sprintf("BLOCK%d burn attempt %d", b.ID, attempt+1), "words", len(words))
		for i, w := range words {
			e.logDebug(fmt.Sprintf("Addr 0x%08x, data=0x%08x", b.WrAddr+uint32(i*4), w))
		}
		if err := e.ctrl.WriteWords(ctx, b.WrAddr, words); err != nil {
			return err
		}
		if err := e.ctrl.Program(ctx, b.ID); err != nil {
			return err
		}
		if err := e.efuseRead(ctx); err != nil {
			return err
		}
		if _, err := e.CodingSchemeWarnings(ctx, true); err != nil {
			return err
		}

		for i := 0; i < e.config.ReadChecks; i++ {
			if err := e.efuseRead(ctx); err != nil {
				return err
			}
			if _, err := e.CodingSchemeWarnings(ctx, true); err != nil {
				return err
			}
			if b.fail || b.numErrors != 0 {
				e.logError(fmt.Sprintf("Error in BLOCK%d, re-burn it again (#%d), to fix it. fail_bit=%d, num_errors=%d",
					b.ID, attempt, boolToInt(b.fail), b.numErrors))
				break
			}
		}
		if !b.fail && b.numErrors == 0 {
			break
		}
	}
	return nil
}

// errSessionEnded reports a burn that succeeded by cutting the link to the
// chip.
var errSessionEnded = errors.New("session ended by the burn")

// efuseRead reloads the read registers. When the read fails because the
// burn just disabled the download mode, the failure is the expected
// outcome and errSessionEnded is returned.
func (e *Efuses) efuseRead(ctx context.Context) error {
	readErr := e.ctrl.Read(ctx)
	if readErr == nil {
		return nil
	}
	e.logError(fmt.Sprintf("FATAL! %v", readErr))

	reconnected := false
	if r, ok := e.ctrl.Transport().(protocol.Reconnector); ok {
		if err := r.Reconnect(ctx); err != nil {
			e.logError("Can not re-connect to the chip", "error", err)
		} else {
			reconnected = true
			e.logInfo("Established a connection with the chip")
		}
	}

	if !reconnected {
		if e.burningBit("DIS_DOWNLOAD_MODE") {
			e.logInfo("This is the correct behavior as we are actually burning DIS_DOWNLOAD_MODE which disables the connection to the chip")
			e.logInfo("DIS_DOWNLOAD_MODE is enabled")
			e.logInfo("Successful")
			return errSessionEnded
		}
		return readErr
	}

	if e.burningBit("ENABLE_SECURITY_DOWNLOAD") {
		e.logInfo("Secure download mode is enabled")
		e.logInfo("espefuse tool cannot continue to work in Secure download mode")
		e.logInfo("Successful")
		return errSessionEnded
	}
	return readErr
}

// burningBit reports whether the named field reads 0 and has 1 pending.
func (e *Efuses) burningBit(name string) bool {
	f, err := e.Field(name)
	if err != nil {
		return false
	}
	return e.bitsOf(f, true).Uint() == 0 && e.bitsOf(f, false).Uint() == 1
}

// Recover burns the read data of every non-empty block reporting coding
// errors again, highest block first, then reads the chip back. It reports
// whether any block was burned. Call CodingSchemeWarnings first to get the
// current error state.
func (e *Efuses) Recover(ctx context.Context) (bool, error) {
	var confirmed bool
	for i := len(e.blocks) - 1; i >= 0; i-- {
		b := e.blocks[i]
		if (!b.fail && b.numErrors == 0) || b.read.All(false) {
			continue
		}
		if !confirmed {
			if err := e.confirm(ctx, "Recovery of block coding errors"); err != nil {
				return false, err
			}
			confirmed = true
		}
		b.pending = b.read.Clone()
		if err := e.burnBlock(ctx, b); err != nil {
			if errors.Is(err, errSessionEnded) {
				e.closed = true
				return true, nil
			}
			return false, err
		}
	}
	if !confirmed {
		return false, nil
	}
	return true, e.Refresh(ctx)
}
