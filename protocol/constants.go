package protocol

import "time"

// Controller opcodes written to the CONF register before a command.
const (
	// WriteOpCode arms the controller for a program command
	WriteOpCode = 0x5A5A

	// ReadOpCode arms the controller for a read command
	ReadOpCode = 0x5AA5
)

// Command register bits.
const (
	// CmdMask covers both command bits
	CmdMask = 0x3

	// PgmCmd starts programming; the block number goes in bits 2 and up
	PgmCmd = 0x2

	// ReadCmd reloads the read registers from the efuse array
	ReadCmd = 0x1
)

// Write window geometry.
const (
	// ProgramWords is the number of PGM_DATA registers (one 32-byte burn unit)
	ProgramWords = 8

	// CheckWords is the number of CHECK_VALUE registers holding RS parity
	CheckWords = 3

	// RSWords is the number of words written for an RS coded block
	RSWords = ProgramWords + CheckWords

	// RSParityBytes is the number of parity symbols appended by the RS scheme
	RSParityBytes = CheckWords * 4

	// RepeatErrRegs is the number of block 0 repeat-error registers
	RepeatErrRegs = 5
)

// Timing constants.
const (
	// DefaultBurnTimeout bounds every idle wait
	DefaultBurnTimeout = 250 * time.Millisecond

	// RequiredCrystalMHz is the only crystal frequency the controller can burn with
	RequiredCrystalMHz = 40
)

// CodingScheme is the redundancy transform applied to a block before burning.
type CodingScheme int

// Coding schemes.
const (
	// CodingSchemeNone writes the raw bits
	CodingSchemeNone CodingScheme = 0

	// CodingScheme34 is the 3/4 repetition scheme. It is reserved and
	// rejected by every burn path.
	CodingScheme34 CodingScheme = 1

	CodingSchemeRepeat       CodingScheme = 2
	CodingSchemeNoneRecovery CodingScheme = 3

	// CodingSchemeRS is Reed-Solomon over GF(2^8) with RSParityBytes parity symbols
	CodingSchemeRS CodingScheme = 4
)

func (c CodingScheme) String() string {
	switch c {
	case CodingSchemeNone:
		return "NONE"
	case CodingScheme34:
		return "3/4"
	case CodingSchemeRepeat:
		return "REPEAT"
	case CodingSchemeNoneRecovery:
		return "NONE (recovery)"
	case CodingSchemeRS:
		return "RS"
	default:
		return "UNKNOWN"
	}
}
