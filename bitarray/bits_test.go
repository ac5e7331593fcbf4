package bitarray

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromUintReadUint(t *testing.T) {
	tests := []struct {
		name  string
		value uint64
		bits  int
		want  string
	}{
		{name: "single bit", value: 1, bits: 1, want: "0x80"},
		{name: "nibble", value: 0x5, bits: 4, want: "0x50"},
		{name: "byte", value: 0xA5, bits: 8, want: "0xa5"},
		{name: "word", value: 0xDEADBEEF, bits: 32, want: "0xdeadbeef"},
		{name: "truncated", value: 0x1FF, bits: 8, want: "0xff"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := FromUint(tt.value, tt.bits)
			assert.Equal(t, tt.bits, b.Len())
			assert.Equal(t, tt.want, b.String())

			v, err := b.ReadUint(tt.bits)
			require.NoError(t, err)
			mask := uint64(1)<<uint(tt.bits) - 1
			assert.Equal(t, tt.value&mask, v)
			assert.Equal(t, tt.bits, b.Pos())
		})
	}
}

func TestOverwriteReadRoundTrip(t *testing.T) {
	for _, n := range []int{1, 7, 32, 192, 256} {
		b := New(n)
		for i := 0; i < n; i += 3 {
			b.Set(i, true)
		}
		orig := b.Clone()

		require.NoError(t, b.Seek(0))
		all, err := b.Read(n)
		require.NoError(t, err)
		require.NoError(t, b.OverwriteAt(all, 0))

		assert.True(t, b.Equal(orig), "len %d", n)
		assert.Equal(t, n, b.Pos())
	}
}

func TestOverwriteAdvancesCursor(t *testing.T) {
	b := New(16)
	require.NoError(t, b.Overwrite(FromUint(0xF, 4)))
	require.NoError(t, b.Overwrite(FromUint(0x0, 4)))
	require.NoError(t, b.Overwrite(FromUint(0xA, 4)))
	assert.Equal(t, 12, b.Pos())
	assert.Equal(t, uint64(0xF0A0), b.Uint())
}

func TestAccessPastEnd(t *testing.T) {
	b := New(8)

	err := b.OverwriteAt(New(4), 6)
	var rangeErr *RangeError
	require.True(t, errors.As(err, &rangeErr))
	assert.Equal(t, 8, rangeErr.Len)

	_, err = b.Sub(5, 4)
	assert.Error(t, err)

	require.NoError(t, b.Seek(8))
	_, err = b.Read(1)
	assert.Error(t, err)

	assert.Error(t, b.Seek(9))
	assert.Panics(t, func() { b.Get(8) })
}

func TestReadSpec(t *testing.T) {
	b := FromBytes([]byte{0xC1, 0x02, 0xAB, 0xCD})

	v, err := b.ReadSpec("bool")
	require.NoError(t, err)
	assert.Equal(t, uint64(1), v)

	v, err = b.ReadSpec("uint:7")
	require.NoError(t, err)
	assert.Equal(t, uint64(0x41), v)

	v, err = b.ReadSpec("int:8")
	require.NoError(t, err)
	assert.Equal(t, uint64(0x02), v)

	v, err = b.ReadSpec("bytes:2")
	require.NoError(t, err)
	sub, ok := v.(*Bits)
	require.True(t, ok)
	assert.Equal(t, []byte{0xAB, 0xCD}, sub.Bytes())

	_, err = b.ReadSpec("float:3")
	assert.Error(t, err)
}

func TestAllAny(t *testing.T) {
	zero := New(12)
	assert.True(t, zero.All(false))
	assert.False(t, zero.Any(true))
	assert.True(t, zero.Any(false))

	zero.SetAll(true)
	assert.True(t, zero.All(true))
	assert.False(t, zero.Any(false))

	zero.Set(3, false)
	assert.False(t, zero.All(true))
	assert.True(t, zero.Any(false))
	assert.Equal(t, 11, zero.Count())
}

func TestLogicOps(t *testing.T) {
	a := FromUint(0b1100, 4)
	b := FromUint(0b1010, 4)

	assert.Equal(t, uint64(0b1000), a.And(b).Uint())
	assert.Equal(t, uint64(0b1110), a.Or(b).Uint())
	assert.Equal(t, uint64(0b0110), a.Xor(b).Uint())
	assert.Equal(t, uint64(0b0011), a.Not().Uint())

	// operands are untouched
	assert.Equal(t, uint64(0b1100), a.Uint())
	assert.Panics(t, func() { a.Or(New(5)) })
}

func TestEqual(t *testing.T) {
	a := FromUint(3, 8)
	assert.True(t, a.Equal(FromUint(3, 8)))
	assert.False(t, a.Equal(FromUint(3, 9)))
	assert.False(t, a.Equal(FromUint(2, 8)))
	assert.False(t, a.Equal(nil))
}

func TestWordsBytes(t *testing.T) {
	words := []uint32{0x01020304, 0xA0B0C0D0}
	b := FromWords(words)
	assert.Equal(t, words, b.Words())
	assert.Equal(t, []byte{1, 2, 3, 4, 0xA0, 0xB0, 0xC0, 0xD0}, b.Bytes())
	assert.Equal(t, "01 02 03 04 a0 b0 c0 d0", b.Hex(" "))
}

func TestParseSpec(t *testing.T) {
	tests := []struct {
		spec    string
		want    Spec
		wantErr bool
	}{
		{spec: "bool", want: Spec{Type: TypeBool, Bits: 1}},
		{spec: "uint:4", want: Spec{Type: TypeUint, Bits: 4}},
		{spec: "int:16", want: Spec{Type: TypeInt, Bits: 16}},
		{spec: "bytes:6", want: Spec{Type: TypeBytes, Bits: 48}},
		{spec: "uint", wantErr: true},
		{spec: "uint:0", wantErr: true},
		{spec: "str:4", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.spec, func(t *testing.T) {
			got, err := ParseSpec(tt.spec)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.spec, got.String())
		})
	}
}
