package operations

import (
	"context"
	"fmt"
	"os"
	"strings"
)

// Dump prints the read registers of every block in register order.
func (r *Runner) Dump(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	for _, b := range r.efuses.Blocks() {
		words := b.Words()
		parts := make([]string, len(words))
		for i, w := range words {
			parts[i] = fmt.Sprintf("%08x", w)
		}
		r.printf("BLOCK%-2d (%-16s) [%-2d] read_regs: %s\n", b.ID, b.Name, b.ID, strings.Join(parts, " "))
	}
	return nil
}

// DumpFiles writes the content of every block, lowest address first, to
// prefix followed by the block id and ".bin".
func (r *Runner) DumpFiles(ctx context.Context, prefix string) error {
	for _, b := range r.efuses.Blocks() {
		if err := ctx.Err(); err != nil {
			return err
		}
		path := fmt.Sprintf("%s%d.bin", prefix, b.ID)
		if err := os.WriteFile(path, b.Raw(true), 0o644); err != nil {
			return fmt.Errorf("dump %s: %w", b.Name, err)
		}
		r.printf("Dump of BLOCK%d saved to %s\n", b.ID, path)
	}
	return nil
}

// ReadResult is the read back value of one efuse.
type ReadResult struct {
	Name     string
	Readable bool

	// Value is the hex rendering of the field bits, most significant byte
	// first; empty when the efuse is read-protected
	Value string
}

// ReadEfuse prints and returns the raw bits of the named efuses.
func (r *Runner) ReadEfuse(ctx context.Context, names []string) ([]ReadResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	fields, err := r.fields(names)
	if err != nil {
		return nil, err
	}
	results := make([]ReadResult, 0, len(fields))
	for _, f := range fields {
		res := ReadResult{Name: f.Name, Readable: r.efuses.IsReadable(f, -1)}
		if !res.Readable {
			r.printf("Efuse %s is read-protected. Read back the burn value is not possible.\n", f.Name)
		} else {
			res.Value = f.Bits().Hex(" ")
			r.printf("%s %s\n", f.Name, res.Value)
		}
		results = append(results, res)
	}
	return results, nil
}
