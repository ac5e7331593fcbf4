package efuse

import (
	"context"
	"fmt"
	"strings"

	"github.com/moffa90/go-espefuse/bitarray"
	"github.com/moffa90/go-espefuse/chipdef"
	"github.com/moffa90/go-espefuse/protocol"
)

// Efuses is an efuse session: the blocks and fields of one chip, their read
// mirrors and the data staged for burning.
//
// Efuses is not safe for concurrent use.
type Efuses struct {
	chip   *chipdef.Chip
	ctrl   *protocol.Controller
	config Config

	codingScheme protocol.CodingScheme
	blocks       []*Block
	fields       []*Field

	calibrationLoaded bool
	batchDepth        int

	// closed is set once a burn has cut the link to the chip
	closed bool
}

// New creates a session for chip on the given transport. Setup must be
// called before use.
//
// Example:
//
//	chip, _ := chipdef.Load("esp32s3")
//	efuses := efuse.New(transport, chip,
//	    efuse.WithLogger(logger),
//	    efuse.WithConfirm(askUser),
//	)
//	if err := efuses.Setup(ctx); err != nil {
//	    return err
//	}
func New(transport protocol.Transport, chip *chipdef.Chip, opts ...Option) *Efuses {
	if transport == nil {
		panic("transport cannot be nil")
	}
	if chip == nil {
		panic("chip cannot be nil")
	}

	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	return &Efuses{
		chip:   chip,
		ctrl:   protocol.NewController(transport, chip.Registers, cfg.IdleTimeout),
		config: cfg,
	}
}

// Open is New followed by Setup.
func Open(ctx context.Context, transport protocol.Transport, chip *chipdef.Chip, opts ...Option) (*Efuses, error) {
	e := New(transport, chip, opts...)
	if err := e.Setup(ctx); err != nil {
		return nil, err
	}
	return e, nil
}

// Setup builds the blocks, reads them from the chip and builds the fields.
// Calibration fields are added when BLK_VERSION_MAJOR is 1; with
// WithSkipConnect nothing is read and every field is added.
func (e *Efuses) Setup(ctx context.Context) error {
	e.codingScheme = e.chip.CodingScheme
	e.blocks = e.blocks[:0]
	e.fields = e.fields[:0]
	e.calibrationLoaded = false

	for _, def := range e.chip.Blocks {
		b, err := newBlock(def, e.codingScheme)
		if err != nil {
			return err
		}
		e.blocks = append(e.blocks, b)
	}

	if !e.config.SkipConnect {
		if err := e.readBlocks(ctx); err != nil {
			return err
		}
		if _, err := e.CodingSchemeWarnings(ctx, false); err != nil {
			return err
		}
	}

	if err := e.addFields(e.chip.Fields); err != nil {
		return err
	}
	if e.config.SkipConnect {
		if err := e.loadCalibration(); err != nil {
			return err
		}
	} else if f, err := e.Field("BLK_VERSION_MAJOR"); err == nil && e.bitsOf(f, true).Uint() == 1 {
		if err := e.loadCalibration(); err != nil {
			return err
		}
	}
	return e.addFields(e.chip.Calc)
}

func (e *Efuses) addFields(defs []chipdef.Field) error {
	for _, def := range defs {
		f, err := newField(def)
		if err != nil {
			return err
		}
		if f.Block < 0 || f.Block >= len(e.blocks) {
			return fmt.Errorf("efuse %s: block %d does not exist", f.Name, f.Block)
		}
		e.fields = append(e.fields, f)
		if err := e.updateField(f); err != nil {
			return err
		}
	}
	return nil
}

func (e *Efuses) loadCalibration() error {
	if e.calibrationLoaded {
		return nil
	}
	e.calibrationLoaded = true
	return e.addFields(e.chip.Calibration)
}

// Chip returns the chip description of the session.
func (e *Efuses) Chip() *chipdef.Chip { return e.chip }

// Controller returns the controller driving the chip.
func (e *Efuses) Controller() *protocol.Controller { return e.ctrl }

// CodingScheme returns the coding scheme of the non-zero blocks.
func (e *Efuses) CodingScheme() protocol.CodingScheme { return e.codingScheme }

// Closed reports whether a burn disabled the connection to the chip. The
// session cannot talk to the chip afterwards.
func (e *Efuses) Closed() bool { return e.closed }

// Config returns the session configuration.
func (e *Efuses) Config() Config { return e.config }

// Blocks returns the blocks ordered by id.
func (e *Efuses) Blocks() []*Block {
	return append([]*Block(nil), e.blocks...)
}

// Fields returns the fields in display order.
func (e *Efuses) Fields() []*Field {
	return append([]*Field(nil), e.fields...)
}

// Field returns the field with the given name or alternative name.
// Calibration fields are loaded on first use.
func (e *Efuses) Field(name string) (*Field, error) {
	if f := e.findField(name); f != nil {
		return f, nil
	}
	if !e.calibrationLoaded {
		for _, def := range e.chip.Calibration {
			if def.Name == name || contains(def.AltNames, name) {
				if err := e.loadCalibration(); err != nil {
					return nil, err
				}
				if f := e.findField(name); f != nil {
					return f, nil
				}
			}
		}
	}
	return nil, &NameError{Name: name}
}

func (e *Efuses) findField(name string) *Field {
	for _, f := range e.fields {
		if f.Name == name || contains(f.AltNames, name) {
			return f
		}
	}
	return nil
}

// Block returns the block with the given id.
func (e *Efuses) Block(id int) (*Block, error) {
	if id < 0 || id >= len(e.blocks) {
		return nil, &NameError{Name: fmt.Sprintf("BLOCK%d", id)}
	}
	return e.blocks[id], nil
}

// BlockByName returns the block with the given name or alias.
func (e *Efuses) BlockByName(name string) (*Block, error) {
	for _, b := range e.blocks {
		if b.Name == name || contains(b.Alias, name) {
			return b, nil
		}
	}
	return nil, &NameError{Name: name}
}

// BlockErrors returns the error counter and fail flag of a block.
func (e *Efuses) BlockErrors(id int) (int, bool) {
	if id < 0 || id >= len(e.blocks) {
		return 0, false
	}
	return e.blocks[id].Errors()
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func (e *Efuses) readBlocks(ctx context.Context) error {
	for _, b := range e.blocks {
		if err := e.readBlock(ctx, b); err != nil {
			return err
		}
	}
	return nil
}

func (e *Efuses) readBlock(ctx context.Context, b *Block) error {
	words, err := e.ctrl.ReadWords(ctx, b.RdAddr, b.read.Len()/32)
	if err != nil {
		return fmt.Errorf("read %s: %w", b.Name, err)
	}
	b.setWords(words)
	e.printBlock(b, b.read, "")
	return nil
}

func (e *Efuses) updateFields() error {
	for _, f := range e.fields {
		if err := e.updateField(f); err != nil {
			return err
		}
	}
	return nil
}

// Refresh reads every block and error register again.
func (e *Efuses) Refresh(ctx context.Context) error {
	e.codingScheme = e.chip.CodingScheme
	if err := e.readBlocks(ctx); err != nil {
		return err
	}
	if _, err := e.CodingSchemeWarnings(ctx, true); err != nil {
		return err
	}
	return e.updateFields()
}

func (e *Efuses) printBlock(b *Block, bits *bitarray.Bits, comment string) {
	if !e.config.Debug {
		return
	}
	name := b.Name
	if comment != "" {
		name += " (" + comment + ")"
	}
	e.logDebug(fmt.Sprintf("BLOCK%d %s: %s", b.ID, name, bits.Hex(" ")))
}

// CodingSchemeWarnings reads the error registers into the blocks and
// reports whether any block has its fail flag set. Unless silent, blocks
// with errors are logged.
func (e *Efuses) CodingSchemeWarnings(ctx context.Context, silent bool) (bool, error) {
	report, err := e.ctrl.ReadErrors(ctx, len(e.blocks))
	if err != nil {
		return false, err
	}

	var failed bool
	for _, b := range e.blocks {
		if b.ID == 0 {
			repeat := append([]uint32(nil), report.Repeat...)
			reverseWords(repeat)
			b.errs.SetAll(false)
			if err := b.errs.OverwriteAt(bitarray.FromWords(repeat), 0); err != nil {
				return false, err
			}
			b.numErrors = b.errs.Count()
			b.fail = b.numErrors != 0
		} else if b.ID < len(report.Blocks) {
			b.numErrors = report.Blocks[b.ID].Errors
			b.fail = report.Blocks[b.ID].Fail
		}
		failed = failed || b.fail
		if !silent && (b.fail || b.numErrors != 0) {
			e.logError(fmt.Sprintf("Error(s) in BLOCK%d [ERRORS:%d FAIL:%d]", b.ID, b.numErrors, boolToInt(b.fail)))
		}
	}
	if !silent && (e.config.Debug || failed) {
		if err := e.PrintStatusRegs(ctx); err != nil {
			return failed, err
		}
	}
	return failed, nil
}

// PrintStatusRegs logs the block 0 error mirror and the RS error registers.
func (e *Efuses) PrintStatusRegs(ctx context.Context) error {
	if len(e.blocks) > 0 && e.blocks[0].errs != nil {
		e.logInfo(fmt.Sprintf("%-15s: %s", "err__regs", e.blocks[0].errs.Hex(" ")))
	}
	regs := e.ctrl.Registers()
	for _, r := range []struct {
		name string
		addr uint32
	}{{"EFUSE_RD_RS_ERR0_REG", regs.RdRsErr0}, {"EFUSE_RD_RS_ERR1_REG", regs.RdRsErr1}} {
		v, err := e.ctrl.ReadReg(ctx, r.addr)
		if err != nil {
			return err
		}
		e.logInfo(fmt.Sprintf("%-27s 0x%08x", r.name, v))
	}
	return nil
}

// VoltageSummary describes how the flash voltage (VDD_SPI) is selected.
func (e *Efuses) VoltageSummary() string {
	value := func(name string) uint64 {
		f, err := e.Field(name)
		if err != nil {
			return 0
		}
		return e.bitsOf(f, true).Uint()
	}
	switch {
	case value("VDD_SPI_FORCE") == 0:
		return strings.Join([]string{
			"Flash voltage (VDD_SPI) determined by GPIO45 on reset (GPIO45=High: VDD_SPI pin is powered from internal 1.8V LDO",
			"GPIO45=Low or NC: VDD_SPI pin is powered directly from VDD3P3_RTC_IO via resistor Rspi. Typically this voltage is 3.3 V).",
		}, "\n")
	case value("VDD_SPI_XPD") == 0:
		return "Flash voltage (VDD_SPI) internal regulator disabled by efuse."
	case value("VDD_SPI_TIEH") == 0:
		return "Flash voltage (VDD_SPI) set to 1.8V by efuse."
	default:
		return "Flash voltage (VDD_SPI) set to 3.3V by efuse."
	}
}

// BatchBegin enters batch mode: BurnAll with checkBatchMode set only logs
// until the matching BatchEnd. Calls nest.
func (e *Efuses) BatchBegin() { e.batchDepth++ }

// BatchEnd leaves one level of batch mode and returns the remaining depth.
func (e *Efuses) BatchEnd() int {
	if e.batchDepth > 0 {
		e.batchDepth--
	}
	return e.batchDepth
}

func (e *Efuses) reportProgress(progress Progress) {
	if e.config.ProgressCallback != nil {
		e.config.ProgressCallback(progress)
	}
}

// logDebug logs a debug message if debug output is enabled.
func (e *Efuses) logDebug(msg string, keysAndValues ...interface{}) {
	if e.config.Debug && e.config.Logger != nil {
		e.config.Logger.Debug(msg, keysAndValues...)
	}
}

// logInfo logs an info message if a logger is configured.
func (e *Efuses) logInfo(msg string, keysAndValues ...interface{}) {
	if e.config.Logger != nil {
		e.config.Logger.Info(msg, keysAndValues...)
	}
}

// logError logs an error message if a logger is configured.
func (e *Efuses) logError(msg string, keysAndValues ...interface{}) {
	if e.config.Logger != nil {
		e.config.Logger.Error(msg, keysAndValues...)
	}
}
