package protocol

import "context"

// Transport reads and writes 32-bit registers on the target.
// Calls are issued strictly one at a time.
type Transport interface {
	ReadReg(ctx context.Context, addr uint32) (uint32, error)
	WriteReg(ctx context.Context, addr, value uint32) error
}

// RegisterUpdater is implemented by transports that can modify a masked
// register field in one operation. value is given unshifted.
type RegisterUpdater interface {
	UpdateReg(ctx context.Context, addr, mask, value uint32) (uint32, error)
}

// CrystalFreqReader is implemented by transports that know the target's
// crystal frequency in MHz.
type CrystalFreqReader interface {
	CrystalFreq(ctx context.Context) (int, error)
}

// Reconnector is implemented by transports that can re-establish the link
// after a burn has reset the download mode of the target.
type Reconnector interface {
	Reconnect(ctx context.Context) error
}

// Registers is the controller register map of one chip.
type Registers struct {
	// PgmData0 is the first of the ProgramWords write window registers
	PgmData0 uint32 `yaml:"pgm_data0"`

	// CheckValue0 is the first of the CheckWords parity registers
	CheckValue0 uint32 `yaml:"check_value0"`

	Clk    uint32 `yaml:"clk"`
	Conf   uint32 `yaml:"conf"`
	Status uint32 `yaml:"status"`
	Cmd    uint32 `yaml:"cmd"`
	Date   uint32 `yaml:"date"`

	RdRsErr0     uint32 `yaml:"rd_rs_err0"`
	RdRsErr1     uint32 `yaml:"rd_rs_err1"`
	RdRepeatErr0 uint32 `yaml:"rd_repeat_err0"`

	DacConf    uint32 `yaml:"dac_conf"`
	RdTimConf  uint32 `yaml:"rd_tim_conf"`
	WrTimConf1 uint32 `yaml:"wr_tim_conf1"`
	WrTimConf2 uint32 `yaml:"wr_tim_conf2"`

	// MemSize is the size of the register window starting at PgmData0
	MemSize uint32 `yaml:"mem_size"`

	Timing Timing `yaml:"timing"`

	// BlockErrors is indexed by block id. Block 0 uses the repeat-error
	// registers and its entry is ignored.
	BlockErrors []BlockErrorReg `yaml:"block_errors"`
}

// Timing holds the burn timing register fields and their values.
type Timing struct {
	DacNumMask    uint32 `yaml:"dac_num_mask"`
	DacNum        uint32 `yaml:"dac_num"`
	DacClkDivMask uint32 `yaml:"dac_clk_div_mask"`
	DacClkDiv     uint32 `yaml:"dac_clk_div"`
	PwrOnNumMask  uint32 `yaml:"pwr_on_num_mask"`
	PwrOnNum      uint32 `yaml:"pwr_on_num"`
	PwrOffNumMask uint32 `yaml:"pwr_off_num_mask"`
	PwrOffNum     uint32 `yaml:"pwr_off_num"`
}

// BlockErrorReg locates the error counter and fail flag of one RS block.
type BlockErrorReg struct {
	Reg     uint32 `yaml:"reg"`
	NumMask uint32 `yaml:"mask"`
	NumOffs uint   `yaml:"offset"`
	FailBit uint   `yaml:"fail_bit"`
}

// BlockStatus is the decode state reported by the controller for one block.
type BlockStatus struct {
	// Errors is the number of corrected (or, for block 0, mismatched) bits
	Errors int

	// Fail is set when the block could not be decoded
	Fail bool
}

// ErrorReport is a snapshot of every error register.
type ErrorReport struct {
	// Repeat holds the block 0 repeat-error registers in address order
	Repeat []uint32

	// Blocks is indexed by block id
	Blocks []BlockStatus
}
