package bitarray

import (
	"fmt"
	"strings"

	"github.com/bits-and-blooms/bitset"
)

// Bits is a fixed-length sequence of bits with a position cursor.
//
// Bits is not safe for concurrent use.
type Bits struct {
	set *bitset.BitSet
	n   int
	pos int
}

// New returns a zeroed buffer of n bits.
func New(n int) *Bits {
	if n < 0 {
		panic(fmt.Sprintf("bitarray: negative length %d", n))
	}
	return &Bits{set: bitset.New(uint(n)), n: n}
}

// FromUint encodes the low n bits of v MSB-first.
func FromUint(v uint64, n int) *Bits {
	b := New(n)
	for i := 0; i < n && i < 64; i++ {
		if v&(1<<uint(i)) != 0 {
			b.set.Set(uint(n - 1 - i))
		}
	}
	return b
}

// FromBytes packs data byte 0 first, MSB-first within each byte.
func FromBytes(data []byte) *Bits {
	b := New(len(data) * 8)
	for i, v := range data {
		for j := 0; j < 8; j++ {
			if v&(0x80>>uint(j)) != 0 {
				b.set.Set(uint(i*8 + j))
			}
		}
	}
	return b
}

// FromWords concatenates 32-bit words in the given order, each MSB-first.
func FromWords(words []uint32) *Bits {
	b := New(len(words) * 32)
	for i, w := range words {
		for j := 0; j < 32; j++ {
			if w&(1<<uint(31-j)) != 0 {
				b.set.Set(uint(i*32 + j))
			}
		}
	}
	return b
}

// Len returns the number of bits in the buffer.
func (b *Bits) Len() int { return b.n }

// Pos returns the cursor position.
func (b *Bits) Pos() int { return b.pos }

// Seek moves the cursor. Position Len() is valid and means "at end".
func (b *Bits) Seek(pos int) error {
	if pos < 0 || pos > b.n {
		return &RangeError{Pos: pos, Count: 0, Len: b.n}
	}
	b.pos = pos
	return nil
}

// Get returns the bit at index i.
func (b *Bits) Get(i int) bool {
	b.mustIndex(i)
	return b.set.Test(uint(i))
}

// Set assigns the bit at index i.
func (b *Bits) Set(i int, v bool) {
	b.mustIndex(i)
	b.set.SetTo(uint(i), v)
}

// SetAll assigns every bit.
func (b *Bits) SetAll(v bool) {
	if !v {
		b.set.ClearAll()
		return
	}
	for i := 0; i < b.n; i++ {
		b.set.Set(uint(i))
	}
}

// Overwrite copies src into b at the cursor and advances the cursor past it.
func (b *Bits) Overwrite(src *Bits) error {
	return b.OverwriteAt(src, b.pos)
}

// OverwriteAt copies src into b starting at pos and leaves the cursor just
// past the copied region.
func (b *Bits) OverwriteAt(src *Bits, pos int) error {
	if pos < 0 || pos+src.n > b.n {
		return &RangeError{Pos: pos, Count: src.n, Len: b.n}
	}
	for i := 0; i < src.n; i++ {
		b.set.SetTo(uint(pos+i), src.set.Test(uint(i)))
	}
	b.pos = pos + src.n
	return nil
}

// Read returns a copy of the next n bits and advances the cursor.
func (b *Bits) Read(n int) (*Bits, error) {
	sub, err := b.Sub(b.pos, n)
	if err != nil {
		return nil, err
	}
	b.pos += n
	return sub, nil
}

// Sub returns a copy of n bits starting at start without moving the cursor.
func (b *Bits) Sub(start, n int) (*Bits, error) {
	if start < 0 || n < 0 || start+n > b.n {
		return nil, &RangeError{Pos: start, Count: n, Len: b.n}
	}
	out := New(n)
	for i := 0; i < n; i++ {
		if b.set.Test(uint(start + i)) {
			out.set.Set(uint(i))
		}
	}
	return out, nil
}

// ReadUint decodes the next n bits (n <= 64) as an unsigned MSB-first
// number and advances the cursor.
func (b *Bits) ReadUint(n int) (uint64, error) {
	if n > 64 {
		return 0, fmt.Errorf("bitarray: cannot decode %d bits into uint64", n)
	}
	sub, err := b.Read(n)
	if err != nil {
		return 0, err
	}
	return sub.Uint(), nil
}

// ReadBool reads a single bit.
func (b *Bits) ReadBool() (bool, error) {
	v, err := b.ReadUint(1)
	return v == 1, err
}

// ReadSpec reads a value described by a type spec such as "bool",
// "uint:12", "int:8" or "bytes:6". Numeric specs return uint64, "bytes"
// returns a *Bits of N*8 bits.
func (b *Bits) ReadSpec(spec string) (interface{}, error) {
	s, err := ParseSpec(spec)
	if err != nil {
		return nil, err
	}
	if s.Type == TypeBytes {
		return b.Read(s.Bits)
	}
	return b.ReadUint(s.Bits)
}

// Uint returns the whole buffer as an unsigned MSB-first number. Only the
// last 64 bits contribute for longer buffers.
func (b *Bits) Uint() uint64 {
	var v uint64
	for i := 0; i < b.n; i++ {
		v <<= 1
		if b.set.Test(uint(i)) {
			v |= 1
		}
	}
	return v
}

// Bytes packs the buffer MSB-first; a trailing partial byte is padded with
// zero bits on the right.
func (b *Bits) Bytes() []byte {
	out := make([]byte, (b.n+7)/8)
	for i := 0; i < b.n; i++ {
		if b.set.Test(uint(i)) {
			out[i/8] |= 0x80 >> uint(i%8)
		}
	}
	return out
}

// Words splits the buffer into 32-bit MSB-first groups. Len must be a
// multiple of 32.
func (b *Bits) Words() []uint32 {
	if b.n%32 != 0 {
		panic(fmt.Sprintf("bitarray: %d bits is not a whole number of words", b.n))
	}
	out := make([]uint32, b.n/32)
	for i := 0; i < b.n; i++ {
		if b.set.Test(uint(i)) {
			out[i/32] |= 1 << uint(31-i%32)
		}
	}
	return out
}

// All reports whether every bit equals v.
func (b *Bits) All(v bool) bool {
	if v {
		return int(b.set.Count()) == b.n
	}
	return b.set.Count() == 0
}

// Any reports whether at least one bit equals v.
func (b *Bits) Any(v bool) bool {
	if v {
		return b.set.Count() > 0
	}
	return int(b.set.Count()) < b.n
}

// Count returns the number of set bits.
func (b *Bits) Count() int { return int(b.set.Count()) }

// Equal compares length and content; the cursor is ignored.
func (b *Bits) Equal(o *Bits) bool {
	if o == nil {
		return false
	}
	return b.n == o.n && b.set.Equal(o.set)
}

// And returns b & o.
func (b *Bits) And(o *Bits) *Bits {
	b.mustMatch(o)
	return &Bits{set: b.set.Intersection(o.set), n: b.n}
}

// Or returns b | o.
func (b *Bits) Or(o *Bits) *Bits {
	b.mustMatch(o)
	return &Bits{set: b.set.Union(o.set), n: b.n}
}

// Xor returns b ^ o.
func (b *Bits) Xor(o *Bits) *Bits {
	b.mustMatch(o)
	return &Bits{set: b.set.SymmetricDifference(o.set), n: b.n}
}

// Not returns the complement of b.
func (b *Bits) Not() *Bits {
	return &Bits{set: b.set.Complement(), n: b.n}
}

// Clone returns an independent copy with the cursor reset.
func (b *Bits) Clone() *Bits {
	return &Bits{set: b.set.Clone(), n: b.n}
}

// Hex renders the buffer as hex bytes joined by sep.
func (b *Bits) Hex(sep string) string {
	data := b.Bytes()
	parts := make([]string, len(data))
	for i, v := range data {
		parts[i] = fmt.Sprintf("%02x", v)
	}
	return strings.Join(parts, sep)
}

// String renders the buffer as 0x-prefixed hex.
func (b *Bits) String() string {
	return "0x" + b.Hex("")
}

func (b *Bits) mustIndex(i int) {
	if i < 0 || i >= b.n {
		panic(fmt.Sprintf("bitarray: index %d out of range [0, %d)", i, b.n))
	}
}

func (b *Bits) mustMatch(o *Bits) {
	if b.n != o.n {
		panic(fmt.Sprintf("bitarray: length mismatch %d != %d", b.n, o.n))
	}
}
