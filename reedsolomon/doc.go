// Package reedsolomon implements the GF(2^8) arithmetic and the systematic
// Reed-Solomon encoder used by the "RS" efuse coding scheme.
//
// The field is built from the primitive polynomial 0x11D with generator 2.
// The generator polynomial for nsym parity symbols is the product of
// (x - 2^i) for i in [0, nsym). Encoding divides the zero-padded message by
// the generator and appends the remainder, so the first len(msg) symbols of
// a codeword are the message itself.
//
// A 32-byte efuse block encodes to 44 bytes (12 parity symbols), which the
// efuse controller receives as 11 little-endian 32-bit words:
//
//	code := reedsolomon.Default().Encode(block[:], 12)
//	ok := reedsolomon.Default().Check(code, 12)
//
// Tables are computed once by NewField and are read-only afterwards, so a
// *Field may be shared between goroutines.
package reedsolomon
