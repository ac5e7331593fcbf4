package chipdef

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/moffa90/go-espefuse/bitarray"
	"github.com/moffa90/go-espefuse/protocol"
)

//go:embed esp32s3.yaml
var esp32s3YAML []byte

var builtin = map[string][]byte{
	"esp32s3": esp32s3YAML,
}

// Supported returns the names accepted by Load.
func Supported() []string {
	names := make([]string, 0, len(builtin))
	for n := range builtin {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Load returns the built-in description of the named chip. Case and
// dashes are ignored, so "ESP32-S3" and "esp32s3" are equivalent.
func Load(name string) (*Chip, error) {
	key := strings.ToLower(strings.ReplaceAll(name, "-", ""))
	data, ok := builtin[key]
	if !ok {
		return nil, fmt.Errorf("unsupported chip %q (supported: %s)", name, strings.Join(Supported(), ", "))
	}
	return ParseReader(bytes.NewReader(data))
}

// Parse parses a chip description from the given file path.
//
// Example:
//
//	chip, err := chipdef.Parse("esp32s3.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Printf("%s: %d blocks\n", chip.Name, len(chip.Blocks))
func Parse(path string) (*Chip, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer func() { _ = f.Close() }()

	return ParseReader(f)
}

// ParseReader parses a chip description from any io.Reader.
func ParseReader(r io.Reader) (*Chip, error) {
	var doc document
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to decode chip description: %w", err)
	}

	scheme, err := parseCodingScheme(doc.CodingScheme)
	if err != nil {
		return nil, err
	}

	chip := &Chip{
		Name:         doc.Name,
		CodingScheme: scheme,
		Registers:    doc.Registers,
		Blocks:       doc.Blocks,
		Calc:         doc.Calc,
		KeyPurposes:  doc.KeyPurposes,
	}
	for _, f := range doc.Efuses {
		if f.Category == CategoryCalibration {
			chip.Calibration = append(chip.Calibration, f)
		} else {
			chip.Fields = append(chip.Fields, f)
		}
	}

	if err := validate(chip); err != nil {
		return nil, err
	}
	return chip, nil
}

type document struct {
	Name         string             `yaml:"name"`
	CodingScheme string             `yaml:"coding_scheme"`
	Registers    protocol.Registers `yaml:"registers"`
	Blocks       []Block            `yaml:"blocks"`
	KeyPurposes  []KeyPurpose       `yaml:"key_purposes"`
	Efuses       fieldTable         `yaml:"efuses"`
	Calc         fieldTable         `yaml:"calc"`
}

type fieldEntry struct {
	Show     string         `yaml:"show"`
	Blk      int            `yaml:"blk"`
	Word     *int           `yaml:"word"`
	Pos      *int           `yaml:"pos"`
	Len      int            `yaml:"len"`
	Type     string         `yaml:"type"`
	WrDis    *int           `yaml:"wr_dis"`
	RdDis    BitList        `yaml:"rd_dis"`
	Alt      string         `yaml:"alt"`
	Dict     map[int]string `yaml:"dict"`
	Desc     string         `yaml:"desc"`
	Category string         `yaml:"category"`
	Class    string         `yaml:"class"`
}

// fieldTable decodes a mapping of field name to field entry, keeping the
// document order.
type fieldTable []Field

func (t *fieldTable) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: efuse table must be a mapping", value.Line)
	}
	for i := 0; i+1 < len(value.Content); i += 2 {
		name := value.Content[i].Value
		var e fieldEntry
		if err := value.Content[i+1].Decode(&e); err != nil {
			return fmt.Errorf("efuse %s: %w", name, err)
		}
		if e.Show == "n" {
			continue
		}

		category, class := Categorize(name)
		if e.Category != "" {
			category = e.Category
		}
		if e.Class != "" {
			class = e.Class
		}
		*t = append(*t, Field{
			Name:            name,
			Block:           e.Blk,
			Word:            e.Word,
			Pos:             e.Pos,
			BitLen:          e.Len,
			Type:            e.Type,
			WriteDisableBit: e.WrDis,
			ReadDisableBits: e.RdDis,
			Category:        category,
			Class:           class,
			Description:     e.Desc,
			AltNames:        strings.Fields(e.Alt),
			Dict:            e.Dict,
		})
	}
	return nil
}

func parseCodingScheme(s string) (protocol.CodingScheme, error) {
	switch strings.ToLower(s) {
	case "", "none":
		return protocol.CodingSchemeNone, nil
	case "3/4", "34":
		return protocol.CodingScheme34, nil
	case "repeat":
		return protocol.CodingSchemeRepeat, nil
	case "rs":
		return protocol.CodingSchemeRS, nil
	default:
		return 0, fmt.Errorf("unknown coding scheme %q", s)
	}
}

func validate(c *Chip) error {
	if len(c.Blocks) == 0 {
		return fmt.Errorf("chip %q has no blocks", c.Name)
	}
	for i, b := range c.Blocks {
		if b.ID != i {
			return fmt.Errorf("block %s: id %d out of order (expected %d)", b.Name, b.ID, i)
		}
		if b.Len <= 0 {
			return fmt.Errorf("block %s: invalid length %d", b.Name, b.Len)
		}
	}
	if n := len(c.Registers.BlockErrors); n != 0 && n != len(c.Blocks) {
		return fmt.Errorf("block_errors has %d entries for %d blocks", n, len(c.Blocks))
	}

	seen := make(map[string]bool)
	groups := [][]Field{c.Fields, c.Calibration, c.Calc}
	for _, group := range groups {
		for i := range group {
			f := &group[i]
			if err := validateField(c, f); err != nil {
				return fmt.Errorf("efuse %s: %w", f.Name, err)
			}
			for _, n := range append([]string{f.Name}, f.AltNames...) {
				if seen[n] {
					return fmt.Errorf("efuse %s: duplicate name %q", f.Name, n)
				}
				seen[n] = true
			}
		}
	}

	for _, b := range c.Blocks {
		if b.KeyPurpose != "" && !seen[b.KeyPurpose] {
			return fmt.Errorf("block %s: unknown key purpose field %s", b.Name, b.KeyPurpose)
		}
	}
	return nil
}

func validateField(c *Chip, f *Field) error {
	if f.Block < 0 || f.Block >= len(c.Blocks) {
		return fmt.Errorf("block %d does not exist", f.Block)
	}
	spec, err := bitarray.ParseSpec(f.Type)
	if err != nil {
		return err
	}
	if spec.Bits != f.BitLen {
		return fmt.Errorf("type %s does not match length %d", f.Type, f.BitLen)
	}
	if f.Calculated() {
		return nil
	}
	if f.Word == nil || f.Pos == nil {
		return fmt.Errorf("word and pos must both be set")
	}
	if end := f.BitOffset() + f.BitLen; *f.Pos < 0 || end > c.Blocks[f.Block].Len*32 {
		return fmt.Errorf("bits %d..%d outside block %s", f.BitOffset(), end-1, c.Blocks[f.Block].Name)
	}
	return nil
}
