package emulator

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/moffa90/go-espefuse/chipdef"
	"github.com/moffa90/go-espefuse/protocol"
	"github.com/moffa90/go-espefuse/reedsolomon"
)

// ErrDisconnected is returned by every call once the emulated chip has left
// download mode.
var ErrDisconnected = errors.New("emulator: chip is not in download mode")

// ProgramHook may rewrite the words about to be ORed into a block, e.g. to
// drop bits and provoke a verification failure.
type ProgramHook func(block int, words []uint32) []uint32

// Option configures a Device.
type Option func(*Device)

// WithCrystalMHz sets the crystal frequency reported to the controller.
func WithCrystalMHz(mhz int) Option {
	return func(d *Device) {
		d.mhz = mhz
	}
}

// WithProgramHook installs a hook run on every program command.
func WithProgramHook(hook ProgramHook) Option {
	return func(d *Device) {
		d.hook = hook
	}
}

// WithFile loads the efuse array from path when it exists and writes it
// back after every program command.
func WithFile(path string) Option {
	return func(d *Device) {
		d.path = path
	}
}

// Device is an emulated efuse controller. It is safe for concurrent use.
type Device struct {
	mu   sync.Mutex
	chip *chipdef.Chip
	regs map[uint32]uint32

	// mem holds the burned words of every block
	mem [][]uint32

	mhz      int
	hook     ProgramHook
	path     string
	offline  bool
	failNext map[int]int
}

// New returns a blank chip, or the chip stored in the file given with
// WithFile.
func New(chip *chipdef.Chip, opts ...Option) (*Device, error) {
	if chip == nil {
		panic("chip cannot be nil")
	}
	d := &Device{
		chip: chip,
		regs: make(map[uint32]uint32),
		mem:  make([][]uint32, len(chip.Blocks)),
		mhz:  protocol.RequiredCrystalMHz,

		failNext: make(map[int]int),
	}
	for i, b := range chip.Blocks {
		d.mem[i] = make([]uint32, b.Len)
	}
	for _, opt := range opts {
		opt(d)
	}

	if d.path != "" {
		if err := d.load(); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
	}
	d.reload()
	return d, nil
}

// ReadReg implements protocol.Transport.
func (d *Device) ReadReg(ctx context.Context, addr uint32) (uint32, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.offline {
		return 0, ErrDisconnected
	}
	return d.regs[addr], nil
}

// WriteReg implements protocol.Transport. Writing the command register
// runs the command at once, so the register reads back as idle.
func (d *Device) WriteReg(ctx context.Context, addr, value uint32) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.offline {
		return ErrDisconnected
	}
	regs := d.chip.Registers
	if addr != regs.Cmd {
		d.regs[addr] = value
		return nil
	}

	d.regs[addr] = 0
	switch {
	case value&protocol.CmdMask == protocol.PgmCmd && d.regs[regs.Conf] == protocol.WriteOpCode:
		return d.program(int(value >> 2))
	case value&protocol.CmdMask == protocol.ReadCmd && d.regs[regs.Conf] == protocol.ReadOpCode:
		if d.downloadDisabled() {
			d.offline = true
			return ErrDisconnected
		}
		d.reload()
	}
	return nil
}

// UpdateReg implements protocol.RegisterUpdater.
func (d *Device) UpdateReg(ctx context.Context, addr, mask, value uint32) (uint32, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.offline {
		return 0, ErrDisconnected
	}
	v := (d.regs[addr] &^ mask) | ((value << protocol.MaskToShift(mask)) & mask)
	d.regs[addr] = v
	return v, nil
}

// CrystalFreq implements protocol.CrystalFreqReader.
func (d *Device) CrystalFreq(context.Context) (int, error) {
	return d.mhz, nil
}

// Reconnect implements protocol.Reconnector. It fails once download mode
// is disabled.
func (d *Device) Reconnect(context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.offline {
		return ErrDisconnected
	}
	return nil
}

// Words returns a copy of the burned words of a block.
func (d *Device) Words(block int) []uint32 {
	d.mu.Lock()
	defer d.mu.Unlock()

	return append([]uint32(nil), d.mem[block]...)
}

// SetWords overwrites the burned words of a block and reloads the read
// registers.
func (d *Device) SetWords(block int, words []uint32) {
	d.mu.Lock()
	defer d.mu.Unlock()

	copy(d.mem[block], words)
	d.reload()
}

// InjectErrors sets the error counter and fail flag reported for a block.
// For block 0 the counter is spread over the repeat-error registers.
func (d *Device) InjectErrors(block, count int, fail bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	regs := d.chip.Registers
	if block == 0 {
		for i := 0; i < protocol.RepeatErrRegs; i++ {
			d.regs[regs.RdRepeatErr0+uint32(i*4)] = 0
		}
		for i := 0; i < count && i < protocol.RepeatErrRegs*32; i++ {
			d.regs[regs.RdRepeatErr0+uint32(i/32*4)] |= 1 << uint(i%32)
		}
		return
	}
	if block >= len(regs.BlockErrors) {
		return
	}
	e := regs.BlockErrors[block]
	v := d.regs[e.Reg]
	v &^= e.NumMask<<e.NumOffs | 1<<e.FailBit
	v |= (uint32(count) & e.NumMask) << e.NumOffs
	if fail {
		v |= 1 << e.FailBit
	}
	d.regs[e.Reg] = v
}

// FailNext makes the next n program commands of block set its fail flag.
func (d *Device) FailNext(block, n int) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.failNext[block] = n
}

// program ORs the write window into block, honoring WR_DIS.
func (d *Device) program(block int) error {
	if block < 0 || block >= len(d.mem) {
		return fmt.Errorf("emulator: program of unknown block %d", block)
	}
	regs := d.chip.Registers
	n := len(d.mem[block])

	// a clean program rewrites the redundancy, so stale errors go away
	d.clearErrors(block)
	var words []uint32
	if block == 0 {
		words = d.window(regs.PgmData0, n)
	} else {
		data := d.window(regs.PgmData0, protocol.ProgramWords)
		code := wordsToBytes(append(data, d.window(regs.CheckValue0, protocol.CheckWords)...))
		if !reedsolomon.Default().Check(code, protocol.RSParityBytes) {
			d.setFail(block)
		}
		words = data[:n]
	}
	if d.failNext[block] > 0 {
		d.failNext[block]--
		d.setFail(block)
	}
	if d.hook != nil {
		words = d.hook(block, append([]uint32(nil), words...))
	}

	mask := d.writableMask(block)
	for i := 0; i < n && i < len(words); i++ {
		d.mem[block][i] |= words[i] & mask[i]
	}
	d.clearWindow()
	if d.path != "" {
		return d.save()
	}
	return nil
}

func (d *Device) clearWindow() {
	regs := d.chip.Registers
	for i := 0; i < protocol.ProgramWords; i++ {
		d.regs[regs.PgmData0+uint32(i*4)] = 0
	}
	for i := 0; i < protocol.CheckWords; i++ {
		d.regs[regs.CheckValue0+uint32(i*4)] = 0
	}
}

func (d *Device) window(addr uint32, n int) []uint32 {
	out := make([]uint32, n)
	for i := range out {
		out[i] = d.regs[addr+uint32(i*4)]
	}
	return out
}

func (d *Device) clearErrors(block int) {
	regs := d.chip.Registers
	if block == 0 {
		for i := 0; i < protocol.RepeatErrRegs; i++ {
			d.regs[regs.RdRepeatErr0+uint32(i*4)] = 0
		}
		return
	}
	if block < len(regs.BlockErrors) {
		e := regs.BlockErrors[block]
		d.regs[e.Reg] &^= e.NumMask<<e.NumOffs | 1<<e.FailBit
	}
}

func (d *Device) setFail(block int) {
	regs := d.chip.Registers
	if block < len(regs.BlockErrors) {
		e := regs.BlockErrors[block]
		d.regs[e.Reg] |= 1 << e.FailBit
	}
}

// writableMask returns the bits of block that no burned WR_DIS bit guards.
func (d *Device) writableMask(block int) []uint32 {
	n := len(d.mem[block])
	mask := make([]uint32, n)
	for i := range mask {
		mask[i] = 0xFFFFFFFF
	}
	wrDis := d.mem[0][0]
	if b := d.chip.Blocks[block]; b.WriteDisableBit != nil && wrDis&(1<<uint(*b.WriteDisableBit)) != 0 {
		return make([]uint32, n)
	}
	for _, f := range d.chip.Fields {
		if f.Block != block || f.WriteDisableBit == nil || f.Calculated() {
			continue
		}
		if wrDis&(1<<uint(*f.WriteDisableBit)) == 0 {
			continue
		}
		for i := 0; i < f.BitLen; i++ {
			bit := f.BitOffset() + i
			mask[bit/32] &^= 1 << uint(bit%32)
		}
	}
	return mask
}

// reload copies the efuse array into the read registers.
func (d *Device) reload() {
	rdDis := d.fieldValue("RD_DIS")
	for i, b := range d.chip.Blocks {
		hidden := false
		for _, bit := range b.ReadDisableBits {
			if rdDis&(1<<uint(bit)) != 0 {
				hidden = true
			}
		}
		for j, w := range d.mem[i] {
			if hidden {
				w = 0
			}
			d.regs[b.RdAddr+uint32(j*4)] = w
		}
	}
}

func (d *Device) downloadDisabled() bool {
	return d.fieldValue("DIS_DOWNLOAD_MODE") != 0
}

// fieldValue decodes a field of the chip description from the efuse array.
func (d *Device) fieldValue(name string) uint64 {
	for _, f := range d.chip.Fields {
		if f.Name != name || f.Calculated() || f.BitLen > 64 {
			continue
		}
		var v uint64
		for i := 0; i < f.BitLen; i++ {
			bit := f.BitOffset() + i
			if d.mem[f.Block][bit/32]&(1<<uint(bit%32)) != 0 {
				v |= 1 << uint(i)
			}
		}
		return v
	}
	return 0
}

func wordsToBytes(words []uint32) []byte {
	out := make([]byte, len(words)*4)
	for i, w := range words {
		binary.LittleEndian.PutUint32(out[i*4:], w)
	}
	return out
}

type state struct {
	Chip   string     `yaml:"chip"`
	Blocks [][]uint32 `yaml:"blocks,flow"`
}

func (d *Device) load() error {
	data, err := os.ReadFile(d.path)
	if err != nil {
		return err
	}
	var s state
	if err := yaml.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("emulator: decode %s: %w", d.path, err)
	}
	if s.Chip != d.chip.Name {
		return fmt.Errorf("emulator: %s holds a %s, not a %s", d.path, s.Chip, d.chip.Name)
	}
	for i := range d.mem {
		if i < len(s.Blocks) {
			copy(d.mem[i], s.Blocks[i])
		}
	}
	return nil
}

func (d *Device) save() error {
	data, err := yaml.Marshal(state{Chip: d.chip.Name, Blocks: d.mem})
	if err != nil {
		return err
	}
	return os.WriteFile(d.path, data, 0o644)
}
