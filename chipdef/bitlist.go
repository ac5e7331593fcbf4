package chipdef

import (
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// BitList is a list of protection bit indexes. In YAML it is written as
// a single integer, a space separated string, or a sequence.
type BitList []int

// UnmarshalYAML implements yaml.Unmarshaler.
func (l *BitList) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		if value.Tag == "!!null" || value.Value == "" {
			*l = nil
			return nil
		}
		var out BitList
		for _, s := range strings.Fields(value.Value) {
			n, err := strconv.Atoi(s)
			if err != nil {
				return fmt.Errorf("line %d: invalid bit index %q", value.Line, s)
			}
			out = append(out, n)
		}
		*l = out
		return nil
	case yaml.SequenceNode:
		var ints []int
		if err := value.Decode(&ints); err != nil {
			return err
		}
		*l = ints
		return nil
	default:
		return fmt.Errorf("line %d: bit list must be a scalar or a sequence", value.Line)
	}
}
