package reedsolomon

import "sync"

// Field constants.
const (
	// PrimitivePoly is the primitive polynomial of the efuse RS code
	PrimitivePoly = 0x11D

	// FieldSize is the number of elements in GF(2^8)
	FieldSize = 256

	// fieldOrder is the size of the multiplicative group
	fieldOrder = FieldSize - 1
)

// Field holds the log/antilog tables of GF(2^8) for one primitive polynomial.
type Field struct {
	prim int
	exp  [2 * FieldSize]byte
	log  [FieldSize]byte
}

var (
	defaultOnce  sync.Once
	defaultField *Field
)

// Default returns the shared field for PrimitivePoly, building it on first use.
func Default() *Field {
	defaultOnce.Do(func() {
		defaultField = NewField(PrimitivePoly)
	})
	return defaultField
}

// NewField precomputes the tables for prim.
func NewField(prim int) *Field {
	f := &Field{prim: prim}
	x := 1
	for i := 0; i < fieldOrder; i++ {
		f.exp[i] = byte(x)
		f.log[x] = byte(i)
		x = mulNoLUT(x, 2, prim)
	}
	// doubled so Mul never has to reduce log sums mod 255
	for i := fieldOrder; i < len(f.exp); i++ {
		f.exp[i] = f.exp[i-fieldOrder]
	}
	return f
}

// mulNoLUT multiplies with carry-less Russian peasant arithmetic and
// reduces by prim.
func mulNoLUT(x, y, prim int) int {
	r := 0
	for y > 0 {
		if y&1 != 0 {
			r ^= x
		}
		y >>= 1
		x <<= 1
		if x&FieldSize != 0 {
			x ^= prim
		}
	}
	return r
}

// Mul multiplies two field elements.
func (f *Field) Mul(x, y byte) byte {
	if x == 0 || y == 0 {
		return 0
	}
	return f.exp[int(f.log[x])+int(f.log[y])]
}

// Pow raises x to power.
func (f *Field) Pow(x byte, power int) byte {
	if x == 0 {
		return 0
	}
	e := (int(f.log[x]) * power) % fieldOrder
	if e < 0 {
		e += fieldOrder
	}
	return f.exp[e]
}

// Exp returns 2^i.
func (f *Field) Exp(i int) byte {
	return f.exp[i%fieldOrder]
}
