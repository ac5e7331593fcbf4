package efuse

import (
	"fmt"

	"github.com/moffa90/go-espefuse/bitarray"
	"github.com/moffa90/go-espefuse/chipdef"
)

// Kind selects how a field's value is parsed and shown.
type Kind int

const (
	// KindGeneric fields are plain bool, numeric or byte values
	KindGeneric Kind = iota
	// KindMAC fields hold a MAC address
	KindMAC
	// KindKeyPurpose fields hold a named key purpose
	KindKeyPurpose
	// KindTempSensor fields hold a sign-magnitude value in 0.1 degree steps
	KindTempSensor
	// KindADC fields hold a sign-magnitude value in steps of 4
	KindADC
	// KindWafer fields are computed from the two wafer version halves
	KindWafer
)

func (k Kind) String() string {
	switch k {
	case KindGeneric:
		return "generic"
	case KindMAC:
		return "mac"
	case KindKeyPurpose:
		return "keypurpose"
	case KindTempSensor:
		return "t_sensor"
	case KindADC:
		return "adc_tp"
	case KindWafer:
		return "wafer"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

func kindOf(class string) Kind {
	switch class {
	case chipdef.ClassMAC:
		return KindMAC
	case chipdef.ClassKeyPurpose:
		return KindKeyPurpose
	case chipdef.ClassTempSensor:
		return KindTempSensor
	case chipdef.ClassADC:
		return KindADC
	case chipdef.ClassWafer:
		return KindWafer
	default:
		return KindGeneric
	}
}

// Field is a named bit range of a block.
type Field struct {
	protection

	Name     string
	AltNames []string

	// Block is the id of the block holding the field
	Block int

	BitLen      int
	Type        string
	Category    string
	Class       string
	Description string
	Kind        Kind

	// Dict maps raw values to their meaning
	Dict map[int]string

	spec       bitarray.Spec
	offset     int
	calculated bool

	bits      *bitarray.Bits
	numErrors int
	fail      bool
}

func newField(def chipdef.Field) (*Field, error) {
	spec, err := bitarray.ParseSpec(def.Type)
	if err != nil {
		return nil, fmt.Errorf("efuse %s: %w", def.Name, err)
	}
	if spec.Bits != def.BitLen {
		return nil, fmt.Errorf("efuse %s: type %s does not match length %d", def.Name, def.Type, def.BitLen)
	}
	return &Field{
		protection: protection{
			name:     def.Name,
			wrDisBit: def.WriteDisableBit,
			rdDisBit: def.ReadDisableBits,
		},
		Name:        def.Name,
		AltNames:    def.AltNames,
		Block:       def.Block,
		BitLen:      def.BitLen,
		Type:        def.Type,
		Category:    def.Category,
		Class:       def.Class,
		Description: def.Description,
		Kind:        kindOf(def.Class),
		Dict:        def.Dict,
		spec:        spec,
		offset:      def.BitOffset(),
		calculated:  def.Calculated(),
		bits:        bitarray.New(def.BitLen),
	}, nil
}

// Names returns the name followed by the alternative names.
func (f *Field) Names() []string {
	return append([]string{f.Name}, f.AltNames...)
}

// Calculated reports whether the field is derived from other fields.
func (f *Field) Calculated() bool { return f.calculated }

// BitOffset returns the bit position of the field inside its block.
func (f *Field) BitOffset() int { return f.offset }

// ValueType returns "bool", "uint", "int" or "bytes".
func (f *Field) ValueType() string { return f.spec.Type }

// Errors returns the error counter and fail flag of the last read.
func (f *Field) Errors() (numErrors int, fail bool) {
	return f.numErrors, f.fail
}

// Bits returns a copy of the field's read mirror.
func (f *Field) Bits() *bitarray.Bits { return f.bits.Clone() }

// position returns the index of the field's first bit in its block buffer,
// whose index 0 is the most significant bit of the last word.
func (f *Field) position(blockBits int) int {
	return blockBits - (f.offset + f.BitLen)
}

// updateField refreshes the read mirror and error state of f from its block.
func (e *Efuses) updateField(f *Field) error {
	b := e.blocks[f.Block]
	if f.calculated {
		v, err := e.rawUint(f, true)
		if err != nil {
			return err
		}
		f.bits = bitarray.FromUint(v, f.BitLen)
	} else {
		bits, err := b.read.Sub(f.position(b.read.Len()), f.BitLen)
		if err != nil {
			return fmt.Errorf("efuse %s: %w", f.Name, err)
		}
		f.bits = bits
	}

	if f.Block == 0 {
		f.fail = false
		if !f.calculated {
			errs, err := b.errs.Sub(f.position(b.errs.Len()), f.BitLen)
			if err != nil {
				return fmt.Errorf("efuse %s: %w", f.Name, err)
			}
			f.fail = errs.Any(true)
		}
		return nil
	}
	f.numErrors, f.fail = b.numErrors, b.fail
	return nil
}

// bitsOf returns the read mirror of f, or the slice of its block's pending
// buffer when fromRead is false.
func (e *Efuses) bitsOf(f *Field, fromRead bool) *bitarray.Bits {
	if fromRead {
		return f.bits.Clone()
	}
	if f.calculated {
		return bitarray.New(f.BitLen)
	}
	b := e.blocks[f.Block]
	bits, err := b.pending.Sub(f.position(b.pending.Len()), f.BitLen)
	if err != nil {
		return bitarray.New(f.BitLen)
	}
	return bits
}

// saveToBlock ORs bits into the pending buffer of the field's block.
func (e *Efuses) saveToBlock(f *Field, bits *bitarray.Bits) error {
	b := e.blocks[f.Block]
	staged := bitarray.New(b.pending.Len())
	if err := staged.OverwriteAt(bits, f.position(staged.Len())); err != nil {
		return fmt.Errorf("efuse %s: %w", f.Name, err)
	}
	b.pending = b.pending.Or(staged)
	return nil
}

// Info returns the field name, its block and, for key blocks, the
// purpose of the key.
func (e *Efuses) Info(f *Field) string {
	out := fmt.Sprintf("%s (BLOCK%d)", f.Name, f.Block)
	var bad bool
	if f.Block == 0 {
		bad = f.fail
	} else {
		n, fail := e.blocks[f.Block].Errors()
		bad = n != 0 || fail
	}
	if bad {
		out += "[error]"
	}
	if f.Class == chipdef.ClassKeyBlock {
		if name := e.blocks[f.Block].KeyPurpose; name != "" {
			if kp, err := e.Field(name); err == nil {
				if v, err := e.Get(kp, true); err == nil {
					out += fmt.Sprintf("\n  Purpose: %v\n ", v)
				}
			}
		}
	}
	return out
}
