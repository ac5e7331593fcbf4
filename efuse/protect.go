package efuse

import (
	"fmt"
	"strconv"

	"github.com/moffa90/go-espefuse/chipdef"
)

// Control field names.
const (
	WriteDisableField = "WR_DIS"
	ReadDisableField  = "RD_DIS"
)

// Protectable is a block or a field, the two things a write-disable bit
// and read-disable bits can guard.
type Protectable interface {
	ProtectName() string
	prot() *protection
}

type protection struct {
	name     string
	wrDisBit *int
	rdDisBit chipdef.BitList
}

func (p *protection) ProtectName() string { return p.name }
func (p *protection) prot() *protection   { return p }

// WriteDisableBit returns the WR_DIS bit guarding the target.
func (p *protection) WriteDisableBit() (int, bool) {
	if p.wrDisBit == nil {
		return 0, false
	}
	return *p.wrDisBit, true
}

// ReadDisableBits returns the RD_DIS bits guarding the target.
func (p *protection) ReadDisableBits() []int {
	return append([]int(nil), p.rdDisBit...)
}

// readDisableMask returns the RD_DIS bits of the target. A part index
// selects a single bit of a multi-bit target; part < 0 selects them all.
func (p *protection) readDisableMask(part int) uint64 {
	var mask uint64
	for i, bit := range p.rdDisBit {
		if part < 0 || part == i {
			mask |= 1 << uint(bit)
		}
	}
	return mask
}

func (e *Efuses) controlValue(name string) uint64 {
	f, err := e.Field(name)
	if err != nil {
		return 0
	}
	return e.bitsOf(f, true).Uint()
}

// IsReadable reports whether the target's RD_DIS bits are not burned.
// part selects one bit of a target guarded by several bits; pass -1 for
// all of them. A part past the last bit checks all of them.
func (e *Efuses) IsReadable(t Protectable, part int) bool {
	p := t.prot()
	if len(p.rdDisBit) == 0 {
		return true
	}
	if part >= len(p.rdDisBit) {
		part = -1
	}
	return e.controlValue(ReadDisableField)&p.readDisableMask(part) == 0
}

// IsWriteable reports whether the target's WR_DIS bit is not burned.
func (e *Efuses) IsWriteable(t Protectable) bool {
	bit, ok := t.prot().WriteDisableBit()
	if !ok {
		return true
	}
	return e.controlValue(WriteDisableField)&(1<<uint(bit)) == 0
}

// DisableRead stages the RD_DIS bits of the target. part selects one bit
// of a target guarded by several bits; pass -1 for all of them.
func (e *Efuses) DisableRead(t Protectable, part int) error {
	p := t.prot()
	if len(p.rdDisBit) == 0 {
		return &ProtectionError{Name: p.name, Reason: "cannot be read-disabled"}
	}
	if part >= len(p.rdDisBit) {
		return &ValueError{
			Name:   p.name,
			Value:  strconv.Itoa(part),
			Reason: fmt.Sprintf("has %d read-disable bit(s), no part with this index", len(p.rdDisBit)),
		}
	}
	rd, err := e.Field(ReadDisableField)
	if err != nil {
		return err
	}
	if !e.IsWriteable(rd) {
		return &ProtectionError{
			Name:   p.name,
			Reason: "cannot be read-disabled due to the RD_DIS field is already write-disabled",
		}
	}
	return e.Save(rd, uintBits(p.readDisableMask(part), rd.BitLen))
}

// DisableWrite stages the WR_DIS bit of the target. A target without a
// WR_DIS bit is left alone.
func (e *Efuses) DisableWrite(t Protectable) error {
	p := t.prot()
	bit, ok := p.WriteDisableBit()
	if !ok {
		return nil
	}
	wr, err := e.Field(WriteDisableField)
	if err != nil {
		return err
	}
	if !e.IsWriteable(wr) {
		return &ProtectionError{
			Name:   p.name,
			Reason: "cannot be write-disabled due to the WR_DIS field is already write-disabled",
		}
	}
	return e.Save(wr, uintBits(1<<uint(bit), wr.BitLen))
}

// checkWriteReadProtect refuses to stage data into a target that cannot be
// read back or written.
func (e *Efuses) checkWriteReadProtect(t Protectable) error {
	p := t.prot()
	if !e.IsReadable(t, -1) {
		err := &ProtectionError{
			Name: p.name,
			Reason: "is read-protected. The written value cannot be read; the efuse/block looks as all 0. " +
				"Burn in this case may damage an already written value.",
		}
		if rerr := e.reportError(err); rerr != nil {
			return rerr
		}
	}
	if !e.IsWriteable(t) {
		err := &ProtectionError{Name: p.name, Reason: "is write-protected. Burn is not possible."}
		if rerr := e.reportError(err); rerr != nil {
			return rerr
		}
	}
	return nil
}
