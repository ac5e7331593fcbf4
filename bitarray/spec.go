package bitarray

import (
	"fmt"
	"strconv"
	"strings"
)

// Value types understood by ParseSpec.
const (
	TypeBool  = "bool"
	TypeUint  = "uint"
	TypeInt   = "int"
	TypeBytes = "bytes"
)

// Spec is a parsed type spec. Bits is always the width in bits, also for
// "bytes:N" where N counts bytes.
type Spec struct {
	Type string
	Bits int
}

// ParseSpec parses "bool", "uint:N", "int:N" or "bytes:N".
func ParseSpec(spec string) (Spec, error) {
	if spec == TypeBool {
		return Spec{Type: TypeBool, Bits: 1}, nil
	}
	typ, width, ok := strings.Cut(spec, ":")
	if !ok {
		return Spec{}, fmt.Errorf("bitarray: invalid type spec %q, expected type:len", spec)
	}
	n, err := strconv.Atoi(width)
	if err != nil || n <= 0 {
		return Spec{}, fmt.Errorf("bitarray: invalid length in type spec %q", spec)
	}
	switch typ {
	case TypeUint, TypeInt:
		return Spec{Type: typ, Bits: n}, nil
	case TypeBytes:
		return Spec{Type: typ, Bits: n * 8}, nil
	case TypeBool:
		return Spec{Type: typ, Bits: n}, nil
	default:
		return Spec{}, fmt.Errorf("bitarray: unknown type %q in spec %q", typ, spec)
	}
}

// String renders the spec back to its textual form.
func (s Spec) String() string {
	switch s.Type {
	case TypeBool:
		if s.Bits == 1 {
			return TypeBool
		}
	case TypeBytes:
		return fmt.Sprintf("%s:%d", s.Type, s.Bits/8)
	}
	return fmt.Sprintf("%s:%d", s.Type, s.Bits)
}
