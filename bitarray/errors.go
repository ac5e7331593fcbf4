package bitarray

import "fmt"

// RangeError reports an access that would run past the end of a buffer.
type RangeError struct {
	Pos   int
	Count int
	Len   int
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("bit range [%d, %d) is outside buffer of %d bits",
		e.Pos, e.Pos+e.Count, e.Len)
}
