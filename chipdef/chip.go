package chipdef

import (
	"github.com/moffa90/go-espefuse/protocol"
)

// Chip is the complete efuse description of one chip family.
type Chip struct {
	// Name is the chip name, e.g. "ESP32-S3"
	Name string

	// CodingScheme is the scheme used by every block except block 0
	CodingScheme protocol.CodingScheme

	// Registers is the controller register map
	Registers protocol.Registers

	// Blocks is indexed by block id
	Blocks []Block

	// Fields are always present, in display order
	Fields []Field

	// Calibration fields are only meaningful on some block versions
	Calibration []Field

	// Calc fields are derived from other fields and have no storage
	Calc []Field

	// KeyPurposes lists the values of the KEY_PURPOSE_n fields
	KeyPurposes []KeyPurpose
}

// Block describes one efuse block.
type Block struct {
	Name  string   `yaml:"name"`
	Alias []string `yaml:"alias"`
	ID    int      `yaml:"id"`

	// RdAddr is the first read register of the block
	RdAddr uint32 `yaml:"rd_addr"`

	// WrAddr is the first write window register used to burn the block
	WrAddr uint32 `yaml:"wr_addr"`

	WriteDisableBit *int    `yaml:"wr_dis"`
	ReadDisableBits BitList `yaml:"rd_dis"`

	// Len is the number of 32-bit words of the block
	Len int `yaml:"len"`

	// KeyPurpose names the KEY_PURPOSE_n field of a key block
	KeyPurpose string `yaml:"key_purpose"`
}

// Names returns the name followed by the aliases.
func (b *Block) Names() []string {
	return append([]string{b.Name}, b.Alias...)
}

// Field describes one named bit range of a block.
type Field struct {
	Name  string
	Block int

	// Word and Pos are nil for calculated fields
	Word *int
	Pos  *int

	BitLen int

	// Type is a bit type spec such as "bool", "uint:4" or "bytes:32"
	Type string

	WriteDisableBit *int
	ReadDisableBits BitList

	Category    string
	Class       string
	Description string
	AltNames    []string

	// Dict maps raw values to their meaning
	Dict map[int]string
}

// Calculated reports whether the field has no storage of its own.
func (f Field) Calculated() bool {
	return f.Word == nil && f.Pos == nil
}

// BitOffset returns the position of the field's least significant bit
// counted from bit 0 of the block's first word.
func (f Field) BitOffset() int {
	if f.Calculated() {
		return 0
	}
	return *f.Word*32 + *f.Pos
}

// KeyPurpose is one named value of a KEY_PURPOSE_n field.
type KeyPurpose struct {
	Name  string `yaml:"name"`
	Value int    `yaml:"value"`

	// Digest marks secure boot digest purposes
	Digest bool `yaml:"digest"`

	// Virtual purposes expand to several real purposes and cannot be burned
	Virtual bool `yaml:"virtual"`

	// Reverse keys are burned in reversed byte order
	Reverse bool `yaml:"reverse"`

	// ReadProtect keys must be read protected after burning
	ReadProtect bool `yaml:"read_protect"`

	Description string `yaml:"desc"`
}

// Block returns the block with the given name or alias.
func (c *Chip) Block(name string) (*Block, bool) {
	for i := range c.Blocks {
		for _, n := range c.Blocks[i].Names() {
			if n == name {
				return &c.Blocks[i], true
			}
		}
	}
	return nil, false
}

// BlockNames returns every block name and alias.
func (c *Chip) BlockNames() []string {
	var names []string
	for i := range c.Blocks {
		names = append(names, c.Blocks[i].Names()...)
	}
	return names
}

// KeyPurpose returns the purpose with the given name.
func (c *Chip) KeyPurpose(name string) (KeyPurpose, bool) {
	for _, kp := range c.KeyPurposes {
		if kp.Name == name {
			return kp, true
		}
	}
	return KeyPurpose{}, false
}
