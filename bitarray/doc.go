// Package bitarray provides a fixed-length bit buffer with a read/write
// cursor, used to model efuse blocks and fields.
//
// # Bit Order
//
// Index 0 is the most significant (leftmost) bit. Numbers are encoded
// MSB-first within their declared width and byte strings are packed
// byte 0 first, MSB-first within each byte:
//
//	b := bitarray.FromUint(0x5, 4)   // 0101
//	v, _ := b.ReadUint(4)            // 5
//
// # Cursor
//
// Read and Overwrite operate at the cursor position and advance it past the
// region they touch. Any access past the end of the buffer is an error; the
// length of a buffer never changes after construction.
//
//	blk := bitarray.New(256)
//	_ = blk.OverwriteAt(field, 256-(word*32+pos+field.Len()))
//
// # Combining
//
// And, Or and Xor return a new buffer. Both operands must have the same
// length; a mismatch is a programming error and panics.
package bitarray
