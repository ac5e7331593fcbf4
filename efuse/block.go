package efuse

import (
	"encoding/binary"
	"fmt"

	"github.com/moffa90/go-espefuse/bitarray"
	"github.com/moffa90/go-espefuse/chipdef"
	"github.com/moffa90/go-espefuse/protocol"
	"github.com/moffa90/go-espefuse/reedsolomon"
)

// burnUnitBytes is the size of the write window in bytes.
const burnUnitBytes = protocol.ProgramWords * 4

// Block is one efuse block with its read mirror and pending write buffer.
type Block struct {
	protection

	Name  string
	Alias []string
	ID    int

	RdAddr uint32
	WrAddr uint32

	// Len is the number of 32-bit words of the block
	Len int

	// KeyPurpose names the KEY_PURPOSE_n field of a key block
	KeyPurpose string

	scheme  protocol.CodingScheme
	read    *bitarray.Bits
	pending *bitarray.Bits

	// errs mirrors the repeat-error registers (block 0 only)
	errs *bitarray.Bits

	numErrors int
	fail      bool
}

func newBlock(def chipdef.Block, scheme protocol.CodingScheme) (*Block, error) {
	b := &Block{
		protection: protection{
			name:     def.Name,
			wrDisBit: def.WriteDisableBit,
			rdDisBit: def.ReadDisableBits,
		},
		Name:       def.Name,
		Alias:      def.Alias,
		ID:         def.ID,
		RdAddr:     def.RdAddr,
		WrAddr:     def.WrAddr,
		Len:        def.Len,
		KeyPurpose: def.KeyPurpose,
		scheme:     scheme,
	}
	if def.ID == 0 {
		b.scheme = protocol.CodingSchemeNone
	}
	n, err := b.ByteLen()
	if err != nil {
		return nil, err
	}
	b.read = bitarray.New(n * 8)
	b.pending = bitarray.New(n * 8)
	if def.ID == 0 {
		b.errs = bitarray.New(n * 8)
	}
	return b, nil
}

// CodingScheme returns the scheme the block is burned with.
func (b *Block) CodingScheme() protocol.CodingScheme { return b.scheme }

// ByteLen returns the number of data bytes the block holds under its
// coding scheme.
func (b *Block) ByteLen() (int, error) {
	switch b.scheme {
	case protocol.CodingSchemeNone, protocol.CodingSchemeRS:
		return b.Len * 4, nil
	case protocol.CodingScheme34:
		return (b.Len * 3 / 4) * 4, nil
	default:
		return 0, &CodingSchemeError{Block: b.Name, Scheme: b.scheme}
	}
}

// Bits returns a copy of the read mirror, or of the pending buffer when
// fromRead is false.
func (b *Block) Bits(fromRead bool) *bitarray.Bits {
	if fromRead {
		return b.read.Clone()
	}
	return b.pending.Clone()
}

// Raw returns the block content with the byte at the lowest address first.
func (b *Block) Raw(fromRead bool) []byte {
	return reverseBytes(b.Bits(fromRead).Bytes())
}

// Words returns the read mirror in register order.
func (b *Block) Words() []uint32 {
	words := b.read.Words()
	reverseWords(words)
	return words
}

// Errors returns the error counter and fail flag of the last read.
func (b *Block) Errors() (numErrors int, fail bool) {
	return b.numErrors, b.fail
}

// Pending reports whether data is staged for burning.
func (b *Block) Pending() bool {
	return b.pending.Any(true)
}

// Names returns the name followed by the aliases.
func (b *Block) Names() []string {
	return append([]string{b.Name}, b.Alias...)
}

// Save ORs data into the pending buffer. data starts at the lowest address
// of the block; shorter data is zero padded.
func (b *Block) Save(data []byte) error {
	n := b.pending.Len() / 8
	if len(data) > n {
		return &ValueError{
			Name:   b.Name,
			Reason: fmt.Sprintf("data does not fit: the block holds %d bytes, got %d", n, len(data)),
		}
	}
	padded := make([]byte, n)
	copy(padded, data)
	b.pending = b.pending.Or(bitarray.FromBytes(reverseBytes(padded)))
	return nil
}

func (b *Block) clearPending() {
	b.pending.SetAll(false)
}

// setWords loads register words into the read mirror.
func (b *Block) setWords(words []uint32) {
	w := append([]uint32(nil), words...)
	reverseWords(w)
	b.read = bitarray.FromWords(w)
}

// EncodedWords returns the words to load into the write window for the
// pending data: eight data words for NONE, eleven data and parity words
// for RS.
func (b *Block) EncodedWords() ([]uint32, error) {
	data := make([]byte, burnUnitBytes)
	copy(data, b.Raw(false))

	switch b.scheme {
	case protocol.CodingSchemeRS:
		return bytesToWords(reedsolomon.Encode(data, protocol.RSParityBytes)), nil
	case protocol.CodingSchemeNone:
		return bytesToWords(data), nil
	default:
		return nil, &CodingSchemeError{Block: b.Name, Scheme: b.scheme}
	}
}

func bytesToWords(data []byte) []uint32 {
	words := make([]uint32, len(data)/4)
	for i := range words {
		words[i] = binary.LittleEndian.Uint32(data[i*4:])
	}
	return words
}

func reverseBytes(data []byte) []byte {
	out := make([]byte, len(data))
	for i, v := range data {
		out[len(data)-1-i] = v
	}
	return out
}

func reverseWords(w []uint32) {
	for i, j := 0, len(w)-1; i < j; i, j = i+1, j-1 {
		w[i], w[j] = w[j], w[i]
	}
}
