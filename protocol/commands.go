package protocol

import (
	"context"
	"fmt"
	"math/bits"
	"time"
)

// Controller issues efuse controller command sequences over a Transport.
type Controller struct {
	transport Transport
	regs      Registers
	timeout   time.Duration
}

// NewController creates a controller for the given register map.
// A non-positive timeout selects DefaultBurnTimeout.
//
// Panics if transport is nil.
func NewController(transport Transport, regs Registers, timeout time.Duration) *Controller {
	if transport == nil {
		panic("protocol: transport cannot be nil")
	}
	if timeout <= 0 {
		timeout = DefaultBurnTimeout
	}
	return &Controller{transport: transport, regs: regs, timeout: timeout}
}

// Registers returns the register map.
func (c *Controller) Registers() Registers {
	return c.regs
}

// Transport returns the underlying transport.
func (c *Controller) Transport() Transport {
	return c.transport
}

// ReadReg reads one register.
func (c *Controller) ReadReg(ctx context.Context, addr uint32) (uint32, error) {
	v, err := c.transport.ReadReg(ctx, addr)
	if err != nil {
		return 0, fmt.Errorf("read register 0x%08X: %w", addr, err)
	}
	return v, nil
}

// WriteReg writes one register.
func (c *Controller) WriteReg(ctx context.Context, addr, value uint32) error {
	if err := c.transport.WriteReg(ctx, addr, value); err != nil {
		return fmt.Errorf("write register 0x%08X: %w", addr, err)
	}
	return nil
}

// ReadWords reads n consecutive registers starting at addr.
func (c *Controller) ReadWords(ctx context.Context, addr uint32, n int) ([]uint32, error) {
	words := make([]uint32, n)
	for i := range words {
		v, err := c.ReadReg(ctx, addr+uint32(i)*4)
		if err != nil {
			return nil, err
		}
		words[i] = v
	}
	return words, nil
}

// WriteWords writes words to consecutive registers starting at addr.
func (c *Controller) WriteWords(ctx context.Context, addr uint32, words []uint32) error {
	for i, w := range words {
		if err := c.WriteReg(ctx, addr+uint32(i)*4, w); err != nil {
			return err
		}
	}
	return nil
}

// MaskToShift returns the position of the lowest set bit of mask.
func MaskToShift(mask uint32) uint {
	if mask == 0 {
		return 0
	}
	return uint(bits.TrailingZeros32(mask))
}

// UpdateReg replaces the bits selected by mask with value shifted into place
// and returns the new register value. Transports implementing
// RegisterUpdater do this themselves.
func (c *Controller) UpdateReg(ctx context.Context, addr, mask, value uint32) (uint32, error) {
	if u, ok := c.transport.(RegisterUpdater); ok {
		v, err := u.UpdateReg(ctx, addr, mask, value)
		if err != nil {
			return 0, fmt.Errorf("update register 0x%08X: %w", addr, err)
		}
		return v, nil
	}

	old, err := c.ReadReg(ctx, addr)
	if err != nil {
		return 0, err
	}
	v := (old &^ mask) | ((value << MaskToShift(mask)) & mask)
	if err := c.WriteReg(ctx, addr, v); err != nil {
		return 0, err
	}
	return v, nil
}

// WaitIdle polls the command register until no command is running.
// Returns a TimeoutError after the burn timeout.
func (c *Controller) WaitIdle(ctx context.Context) error {
	deadline := time.Now().Add(c.timeout)
	for time.Now().Before(deadline) {
		if err := ctx.Err(); err != nil {
			return err
		}
		busy, err := c.busy(ctx)
		if err != nil {
			return err
		}
		if busy {
			continue
		}
		// READ_CMD must be seen clear twice before the efuse clock is stable.
		busy, err = c.busy(ctx)
		if err != nil {
			return err
		}
		if !busy {
			return nil
		}
	}
	return &TimeoutError{Operation: "wait idle", Timeout: c.timeout}
}

func (c *Controller) busy(ctx context.Context) (bool, error) {
	v, err := c.ReadReg(ctx, c.regs.Cmd)
	if err != nil {
		return false, err
	}
	return v&(PgmCmd|ReadCmd) != 0, nil
}

// ClearProgramRegisters zeroes the PGM_DATA write window.
func (c *Controller) ClearProgramRegisters(ctx context.Context) error {
	if err := c.WaitIdle(ctx); err != nil {
		return err
	}
	return c.WriteWords(ctx, c.regs.PgmData0, make([]uint32, ProgramWords))
}

// SetTiming programs the burn timing registers. The crystal frequency is
// checked when the transport can report it.
func (c *Controller) SetTiming(ctx context.Context) error {
	if r, ok := c.transport.(CrystalFreqReader); ok {
		mhz, err := r.CrystalFreq(ctx)
		if err != nil {
			return fmt.Errorf("get crystal frequency: %w", err)
		}
		if mhz != RequiredCrystalMHz {
			return &CrystalError{MHz: mhz}
		}
	}

	t := c.regs.Timing
	updates := []struct {
		addr, mask, value uint32
	}{
		{c.regs.DacConf, t.DacNumMask, t.DacNum},
		{c.regs.DacConf, t.DacClkDivMask, t.DacClkDiv},
		{c.regs.WrTimConf1, t.PwrOnNumMask, t.PwrOnNum},
		{c.regs.WrTimConf2, t.PwrOffNumMask, t.PwrOffNum},
	}
	for _, u := range updates {
		if _, err := c.UpdateReg(ctx, u.addr, u.mask, u.value); err != nil {
			return err
		}
	}
	return nil
}

// Setup prepares the controller for a burn: timing, a clean write window,
// and an idle command register.
func (c *Controller) Setup(ctx context.Context) error {
	if err := c.SetTiming(ctx); err != nil {
		return err
	}
	if err := c.ClearProgramRegisters(ctx); err != nil {
		return err
	}
	return c.WaitIdle(ctx)
}

// Program burns the write window into block and clears the window.
// Callers follow it with Read to reload the read registers.
func (c *Controller) Program(ctx context.Context, block int) error {
	if err := c.WaitIdle(ctx); err != nil {
		return err
	}
	if err := c.WriteReg(ctx, c.regs.Conf, WriteOpCode); err != nil {
		return err
	}
	if err := c.WriteReg(ctx, c.regs.Cmd, PgmCmd|uint32(block)<<2); err != nil {
		return err
	}
	if err := c.WaitIdle(ctx); err != nil {
		return err
	}
	return c.ClearProgramRegisters(ctx)
}

// Read reloads the read registers from the efuse array.
func (c *Controller) Read(ctx context.Context) error {
	if err := c.WaitIdle(ctx); err != nil {
		return err
	}
	if err := c.WriteReg(ctx, c.regs.Conf, ReadOpCode); err != nil {
		return err
	}
	if err := c.WriteReg(ctx, c.regs.Cmd, ReadCmd); err != nil {
		return err
	}
	return c.WaitIdle(ctx)
}

// ReadErrors reads the repeat-error registers and the RS error registers
// for nblocks blocks.
func (c *Controller) ReadErrors(ctx context.Context, nblocks int) (*ErrorReport, error) {
	repeat, err := c.ReadWords(ctx, c.regs.RdRepeatErr0, RepeatErrRegs)
	if err != nil {
		return nil, err
	}

	report := &ErrorReport{Repeat: repeat, Blocks: make([]BlockStatus, nblocks)}
	if nblocks > 0 {
		report.Blocks[0] = RepeatStatus(repeat)
	}

	cache := make(map[uint32]uint32)
	for id := 1; id < nblocks && id < len(c.regs.BlockErrors); id++ {
		e := c.regs.BlockErrors[id]
		if e.NumMask == 0 {
			continue
		}
		v, ok := cache[e.Reg]
		if !ok {
			if v, err = c.ReadReg(ctx, e.Reg); err != nil {
				return nil, err
			}
			cache[e.Reg] = v
		}
		report.Blocks[id] = DecodeBlockStatus(v, e)
	}
	return report, nil
}
