package protocol

import "math/bits"

// DecodeBlockStatus extracts the error counter and fail flag of one block
// from the value of its error register.
func DecodeBlockStatus(reg uint32, e BlockErrorReg) BlockStatus {
	return BlockStatus{
		Errors: int((reg >> e.NumOffs) & e.NumMask),
		Fail:   reg&(1<<e.FailBit) != 0,
	}
}

// RepeatStatus counts the mismatched bits in the block 0 repeat-error
// registers. Any mismatch fails the block.
func RepeatStatus(words []uint32) BlockStatus {
	n := 0
	for _, w := range words {
		n += bits.OnesCount32(w)
	}
	return BlockStatus{Errors: n, Fail: n != 0}
}

// Failed reports whether any block in the report failed.
func (r *ErrorReport) Failed() bool {
	for _, b := range r.Blocks {
		if b.Fail {
			return true
		}
	}
	return false
}
