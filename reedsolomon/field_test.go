package reedsolomon

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTables(t *testing.T) {
	f := NewField(PrimitivePoly)

	assert.Equal(t, byte(1), f.Exp(0))
	assert.Equal(t, byte(2), f.Exp(1))
	assert.Equal(t, byte(0x1D), f.Exp(8), "2^8 reduces by 0x11D")
	assert.Equal(t, byte(1), f.Exp(255), "multiplicative group has order 255")

	for x := 1; x < FieldSize; x++ {
		assert.Equal(t, byte(x), f.Exp(int(f.log[x])), "exp(log(%d))", x)
	}
}

func TestMul(t *testing.T) {
	f := Default()

	tests := []struct {
		x, y byte
		want byte
	}{
		{x: 0, y: 0x53, want: 0},
		{x: 1, y: 0x53, want: 0x53},
		{x: 2, y: 0x80, want: 0x1D},
		{x: 3, y: 7, want: 9},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, f.Mul(tt.x, tt.y), "%#x * %#x", tt.x, tt.y)
		assert.Equal(t, tt.want, byte(mulNoLUT(int(tt.x), int(tt.y), PrimitivePoly)))
	}
}

func TestDefaultIsShared(t *testing.T) {
	assert.Same(t, Default(), Default())
}

func TestGeneratorPoly(t *testing.T) {
	assert.Equal(t, []byte{1, 0x0F, 0x36, 0x78, 0x40}, Default().GeneratorPoly(4))
	assert.Len(t, Default().GeneratorPoly(12), 13)
}

func TestEncodeKnownVector(t *testing.T) {
	msg := []byte{
		0x40, 0xd2, 0x75, 0x47, 0x76, 0x17, 0x32, 0x06,
		0x27, 0x26, 0x96, 0xc6, 0xc6, 0x96, 0x70, 0xec,
	}
	want := append(append([]byte{}, msg...),
		0xbc, 0x2a, 0x90, 0x13, 0x6b, 0xaf, 0xef, 0xfd, 0x4b, 0xe0)

	got := Encode(msg, 10)
	assert.Equal(t, want, got)
	assert.True(t, Default().Check(got, 10))
}

func TestEncodeIsSystematic(t *testing.T) {
	f := Default()
	for seed := 0; seed < 16; seed++ {
		msg := make([]byte, 32)
		for i := range msg {
			msg[i] = byte(seed*31 + i*7)
		}

		code := f.Encode(msg, 12)
		require.Len(t, code, 44)
		assert.Equal(t, msg, code[:32])
		assert.True(t, f.Check(code, 12))
	}
}

func TestCheckDetectsCorruption(t *testing.T) {
	f := Default()
	msg := []byte("efuse block payload 32 bytes....")
	code := f.Encode(msg, 12)

	code[5] ^= 0x01
	assert.False(t, f.Check(code, 12))
	assert.False(t, f.Check(code[:4], 12))
}

func TestPolyDiv(t *testing.T) {
	f := Default()
	gen := f.GeneratorPoly(3)
	product := f.PolyMul([]byte{7, 1, 9}, gen)

	q, r := f.PolyDiv(product, gen)
	assert.Equal(t, []byte{7, 1, 9}, q)
	assert.Equal(t, []byte{0, 0, 0}, r)
}
