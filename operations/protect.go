package operations

import (
	"context"
	"fmt"
	"strings"

	"github.com/moffa90/go-espefuse/efuse"
)

// WriteProtectEfuse burns the WR_DIS bits of the named efuses. Efuses
// sharing a WR_DIS bit are protected together.
func (r *Runner) WriteProtectEfuse(ctx context.Context, names []string) error {
	fields, err := r.fields(names)
	if err != nil {
		return err
	}
	for _, f := range fields {
		bit, ok := f.WriteDisableBit()
		if !ok {
			return &efuse.ProtectionError{Name: f.Name, Reason: "cannot be write-disabled"}
		}
		if !r.efuses.IsWriteable(f) {
			r.printf("Efuse %s is already write protected\n", f.Name)
			continue
		}
		shared := r.sharing(func(o *efuse.Field) bool {
			b, ok := o.WriteDisableBit()
			return ok && b == bit
		})
		r.printf("Permanently write-disabling efuse%s %s\n", plural(shared), strings.Join(shared, ", "))
		if err := r.efuses.DisableWrite(f); err != nil {
			return err
		}
	}

	done, err := r.efuses.BurnAll(ctx, true)
	if err != nil || !done {
		return err
	}
	r.println("Checking efuses...")
	var failed bool
	for _, f := range fields {
		if r.efuses.IsWriteable(f) {
			r.printf("Efuse %s is not write-protected.\n", f.Name)
			failed = true
		}
	}
	if failed {
		return ErrBurnFailed
	}
	r.println("Successful")
	return nil
}

// ReadProtectEfuse burns the RD_DIS bits of the named efuses. Efuses
// sharing RD_DIS bits are protected together. Key blocks holding a secure
// boot digest stay readable.
func (r *Runner) ReadProtectEfuse(ctx context.Context, names []string) error {
	fields, err := r.fields(names)
	if err != nil {
		return err
	}
	for _, f := range fields {
		bits := f.ReadDisableBits()
		if len(bits) == 0 {
			return &efuse.ProtectionError{Name: f.Name, Reason: "cannot be read-disabled"}
		}
		if !r.efuses.IsReadable(f, -1) {
			r.printf("Efuse %s is already read protected\n", f.Name)
			continue
		}
		if purpose, ok := r.digestPurpose(f); ok {
			return &efuse.ProtectionError{
				Name:   f.Name,
				Reason: fmt.Sprintf("holds a %s key and can not be read-protected", purpose),
			}
		}
		shared := r.sharing(func(o *efuse.Field) bool {
			return sameBits(o.ReadDisableBits(), bits)
		})
		r.printf("Permanently read-disabling efuse%s %s\n", plural(shared), strings.Join(shared, ", "))
		if err := r.efuses.DisableRead(f, -1); err != nil {
			return err
		}
	}

	done, err := r.efuses.BurnAll(ctx, true)
	if err != nil || !done {
		return err
	}
	r.println("Checking efuses...")
	var failed bool
	for _, f := range fields {
		if r.efuses.IsReadable(f, -1) {
			r.printf("Efuse %s is not read-protected.\n", f.Name)
			failed = true
		}
	}
	if failed {
		return ErrBurnFailed
	}
	r.println("Successful")
	return nil
}

// digestPurpose reports the purpose of the key block holding f when it is
// a secure boot digest.
func (r *Runner) digestPurpose(f *efuse.Field) (string, bool) {
	b, err := r.efuses.Block(f.Block)
	if err != nil || b.KeyPurpose == "" {
		return "", false
	}
	kp, err := r.efuses.Field(b.KeyPurpose)
	if err != nil {
		return "", false
	}
	v, err := r.efuses.Get(kp, true)
	if err != nil {
		return "", false
	}
	name := efuse.Format(v)
	purpose, ok := r.efuses.Chip().KeyPurpose(name)
	return name, ok && purpose.Digest
}

func (r *Runner) sharing(match func(*efuse.Field) bool) []string {
	var names []string
	for _, f := range r.efuses.Fields() {
		if !f.Calculated() && match(f) {
			names = append(names, f.Name)
		}
	}
	return names
}

func sameBits(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func plural(names []string) string {
	if len(names) > 1 {
		return "s"
	}
	return ""
}
