package operations

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/moffa90/go-espefuse/bitarray"
	"github.com/moffa90/go-espefuse/efuse"
)

// Format selects the output of Summary.
type Format string

const (
	// FormatSummary is the human readable table
	FormatSummary Format = "summary"

	// FormatJSON is a JSON object keyed by efuse name
	FormatJSON Format = "json"
)

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case FormatSummary, FormatJSON:
		return Format(s), nil
	}
	return "", fmt.Errorf("unknown format %q: %w", s, ErrInvalidArgument)
}

// SummaryOptions configures Summary.
type SummaryOptions struct {
	Format Format

	// Width is the terminal width; 0 keeps the default layout
	Width int
}

const (
	nameColumn = 51
	descColumn = 50
	ruleWidth  = 88
)

// FieldSummary is the JSON record of one efuse.
type FieldSummary struct {
	Name        string      `json:"name"`
	Value       interface{} `json:"value"`
	Readable    bool        `json:"readable"`
	Writeable   bool        `json:"writeable"`
	Description string      `json:"description"`
	Category    string      `json:"category"`
	Block       int         `json:"block"`
	Word        *int        `json:"word"`
	Pos         *int        `json:"pos"`
	EfuseType   string      `json:"efuse_type"`
	BitLen      int         `json:"bit_len"`
}

// Summary prints every efuse grouped by category, or a JSON object with
// the same content. Values that cannot be read show their zeros as '?'.
func (r *Runner) Summary(ctx context.Context, opts SummaryOptions) error {
	if opts.Format == "" {
		opts.Format = FormatSummary
	}
	if _, err := ParseFormat(string(opts.Format)); err != nil {
		return err
	}
	human := opts.Format == FormatSummary

	desc := descColumn
	rule := ruleWidth
	if opts.Width > 0 {
		if w := opts.Width - nameColumn - 1; w < desc {
			desc = max(w, 10)
		}
		rule = min(rule, opts.Width)
	}

	if human {
		r.println(fmt.Sprintf("%-12s%-12s [Meaningful Value] [Readable/Writeable] (Hex Value)", "EFUSE_NAME (Block)", "Description"))
		r.println(strings.Repeat("-", rule))
	}

	records := make(map[string]FieldSummary)
	fields := r.efuses.Fields()
	for _, category := range categories(fields) {
		if human {
			r.printf("%s fuses:\n", titleCase(category))
		}
		for _, f := range fields {
			if f.Category != category {
				continue
			}
			rec, err := r.summarize(f)
			if err != nil {
				return err
			}
			if human {
				r.printField(f, rec, desc)
			} else {
				records[f.Name] = rec
			}
		}
		if human {
			r.println()
		}
	}

	if !human {
		data, err := json.MarshalIndent(records, "", "    ")
		if err != nil {
			return fmt.Errorf("encode summary: %w", err)
		}
		r.println(string(data))
		return nil
	}

	r.println(r.efuses.VoltageSummary())
	failed, err := r.efuses.CodingSchemeWarnings(ctx, true)
	if err != nil {
		return err
	}
	if failed {
		r.println("WARNING: Coding scheme has encoding bit error warnings")
	}
	return nil
}

func (r *Runner) summarize(f *efuse.Field) (FieldSummary, error) {
	meaning, err := r.efuses.Meaning(f)
	if err != nil {
		return FieldSummary{}, fmt.Errorf("efuse %s: %w", f.Name, err)
	}
	readable := r.efuses.IsReadable(f, -1)
	rec := FieldSummary{
		Name:        f.Name,
		Value:       meaning,
		Readable:    readable,
		Writeable:   r.efuses.IsWriteable(f),
		Description: f.Description,
		Category:    f.Category,
		Block:       f.Block,
		EfuseType:   f.Type,
		BitLen:      f.BitLen,
	}
	if !f.Calculated() {
		word, pos := f.BitOffset()/32, f.BitOffset()%32
		rec.Word, rec.Pos = &word, &pos
	}
	if !readable {
		rec.Value = r.mask(f, efuse.Format(meaning))
	}
	return rec, nil
}

// mask replaces the zeros of an unreadable value with '?'. A value guarded
// by two RD_DIS bits is masked per half.
func (r *Runner) mask(f *efuse.Field, value string) string {
	bits := f.ReadDisableBits()
	if len(bits) != 2 {
		return strings.ReplaceAll(value, "0", "?")
	}
	half := len(value) / 2
	parts := []string{value[:half], value[half:]}
	for i := range bits {
		if !r.efuses.IsReadable(f, i) {
			parts[i] = strings.ReplaceAll(parts[i], "0", "?")
		}
	}
	return parts[0] + parts[1]
}

func (r *Runner) printField(f *efuse.Field, rec FieldSummary, desc int) {
	value := efuse.Format(rec.Value)
	var raw string
	if f.ValueType() != bitarray.TypeBytes {
		raw = "(" + bitstring(f.Bits()) + ")"
	}
	var wrap string
	if len(value) >= 20 {
		wrap = "\n  "
	}
	r.printf("%-*s%-*s%s = %s %s %s\n",
		nameColumn, r.efuses.Info(f),
		desc+1, head(f.Description, desc),
		wrap, value, perms(rec.Readable, rec.Writeable), raw)
	for rest := tail(f.Description, desc); rest != ""; rest = tail(rest, desc) {
		r.printf("%-*s%s\n", nameColumn, "", head(rest, desc))
	}
}

func perms(readable, writeable bool) string {
	switch {
	case readable && writeable:
		return "R/W"
	case readable:
		return "R/-"
	case writeable:
		return "-/W"
	default:
		return "-/-"
	}
}

// bitstring renders bits as hex when they fill whole nibbles, else as
// binary.
func bitstring(bits *bitarray.Bits) string {
	n := bits.Len()
	if n%4 == 0 {
		return fmt.Sprintf("0x%0*x", n/4, bits.Uint())
	}
	return fmt.Sprintf("0b%0*b", n, bits.Uint())
}

func categories(fields []*efuse.Field) []string {
	seen := make(map[string]bool)
	var out []string
	for _, f := range fields {
		if !seen[f.Category] {
			seen[f.Category] = true
			out = append(out, f.Category)
		}
	}
	sort.Strings(out)
	return out
}

func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

func head(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

func tail(s string, n int) string {
	if len(s) <= n {
		return ""
	}
	return s[n:]
}
