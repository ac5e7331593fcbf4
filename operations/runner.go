package operations

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/moffa90/go-espefuse/efuse"
)

// Runner executes commands against an efuse session.
//
// Runner is not safe for concurrent use.
type Runner struct {
	efuses *efuse.Efuses
	out    io.Writer
}

// New creates a Runner writing its output to out. A nil out discards the
// output.
func New(efuses *efuse.Efuses, out io.Writer) *Runner {
	if efuses == nil {
		panic("efuses cannot be nil")
	}
	if out == nil {
		out = io.Discard
	}
	return &Runner{efuses: efuses, out: out}
}

// Efuses returns the session the Runner works on.
func (r *Runner) Efuses() *efuse.Efuses { return r.efuses }

// Batch runs fn in batch mode and burns everything it staged afterwards.
// Batches nest; only the outermost one burns.
func (r *Runner) Batch(ctx context.Context, fn func(r *Runner) error) error {
	r.efuses.BatchBegin()
	err := fn(r)
	depth := r.efuses.BatchEnd()
	if err != nil {
		return err
	}
	if depth != 0 {
		return nil
	}
	done, err := r.efuses.BurnAll(ctx, true)
	if err != nil {
		return err
	}
	if done {
		r.println("Successful")
	}
	return nil
}

func (r *Runner) printf(format string, args ...interface{}) {
	fmt.Fprintf(r.out, format, args...)
}

func (r *Runner) println(args ...interface{}) {
	fmt.Fprintln(r.out, args...)
}

// fields resolves names to fields and rejects names that point at the same
// field twice.
func (r *Runner) fields(names []string) ([]*efuse.Field, error) {
	seen := make(map[*efuse.Field]bool, len(names))
	out := make([]*efuse.Field, 0, len(names))
	for _, name := range names {
		f, err := r.efuses.Field(name)
		if err != nil {
			return nil, err
		}
		if seen[f] {
			return nil, &efuse.NameError{Name: f.Name, Duplicate: true}
		}
		seen[f] = true
		out = append(out, f)
	}
	return out, nil
}

// blocks resolves block names and aliases, rejecting duplicates.
func (r *Runner) blocks(names []string) ([]*efuse.Block, error) {
	seen := make(map[*efuse.Block]bool, len(names))
	out := make([]*efuse.Block, 0, len(names))
	for _, name := range names {
		b, err := r.efuses.BlockByName(name)
		if err != nil {
			return nil, err
		}
		if seen[b] {
			return nil, &efuse.NameError{Name: b.Name, Duplicate: true}
		}
		seen[b] = true
		out = append(out, b)
	}
	return out, nil
}

// hexify renders data as hex bytes joined by sep.
func hexify(data []byte, sep string) string {
	parts := make([]string, len(data))
	for i, v := range data {
		parts[i] = fmt.Sprintf("%02x", v)
	}
	return strings.Join(parts, sep)
}
