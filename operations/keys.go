package operations

import (
	"context"
	"fmt"
	"strings"

	"github.com/moffa90/go-espefuse/efuse"
)

// xts256 is the virtual purpose of a 512-bit XTS-AES key spread over two
// key blocks.
const xts256 = "XTS_AES_256_KEY"

// Key is raw key data for a key block, lowest address first.
type Key struct {
	Block   string
	Data    []byte
	Purpose string
}

// KeyOptions configures BurnKey.
type KeyOptions struct {
	// NoWriteProtect leaves the key blocks writeable
	NoWriteProtect bool

	// NoReadProtect leaves keys readable even when their purpose asks for
	// read protection
	NoReadProtect bool

	// ShowSensitiveInfo prints the key data instead of "??"
	ShowSensitiveInfo bool
}

// BurnKey burns keys into key blocks and sets their purposes. The purpose
// field is write-protected afterwards; the key block is write-protected
// and, when its purpose requires it, read-protected unless opts say
// otherwise. An XTS_AES_256_KEY is split over the given block and the
// next free key block.
func (r *Runner) BurnKey(ctx context.Context, keys []Key, opts KeyOptions) error {
	keys, err := r.splitXTS256(keys)
	if err != nil {
		return err
	}
	names := make([]string, len(keys))
	for i, k := range keys {
		names[i] = k.Block
	}
	blocks, err := r.blocks(names)
	if err != nil {
		return err
	}

	r.println("Burn keys to blocks:")
	for i, b := range blocks {
		if err := r.stageKey(b, keys[i], opts); err != nil {
			return err
		}
		r.println()
	}
	if opts.NoWriteProtect {
		r.println("Keys will remain writeable (due to --no-write-protect)")
	}
	if opts.NoReadProtect {
		r.println("Keys will remain readable (due to --no-read-protect)")
	}

	done, err := r.efuses.BurnAll(ctx, true)
	if err != nil || !done {
		return err
	}
	r.println("Successful")
	return nil
}

func (r *Runner) stageKey(b *efuse.Block, k Key, opts KeyOptions) error {
	e := r.efuses
	if b.KeyPurpose == "" {
		return fmt.Errorf("%s is not a key block: %w", b.Name, ErrInvalidArgument)
	}
	f, err := e.Field(b.Name)
	if err != nil {
		return err
	}
	kp, err := e.Field(b.KeyPurpose)
	if err != nil {
		return err
	}
	if _, ok := e.Chip().KeyPurpose(k.Purpose); !ok {
		return &efuse.ValueError{Name: kp.Name, Value: k.Purpose, Reason: fmt.Sprintf("'%s' unknown name", k.Purpose)}
	}

	r.printf(" - %s\n", f.Name)
	data := k.Data
	reversed := e.NeedReverse(k.Purpose)
	if reversed {
		data = reverse(data)
	}
	if opts.ShowSensitiveInfo {
		r.printf("-> [%s]\n", hexify(data, " "))
	} else {
		r.printf("-> [%s]\n", strings.TrimSpace(strings.Repeat("?? ", len(data))))
	}
	if reversed {
		r.println("\tReversing byte order for AES-XTS hardware peripheral")
	}
	if size := f.BitLen / 8; len(data) != size {
		return fmt.Errorf("incorrect key file size %d. Key file must be %d bytes (%d bits) of raw binary key data: %w",
			len(data), size, size*8, ErrInvalidArgument)
	}

	bits, err := e.BytesValue(f, data)
	if err != nil {
		return err
	}
	if err := e.Save(f, bits); err != nil {
		return err
	}

	current, err := e.Get(kp, true)
	if err != nil {
		return err
	}
	var protectPurpose bool
	if efuse.Format(current) != k.Purpose {
		if !e.IsWriteable(kp) {
			return &efuse.ProtectionError{
				Name:   kp.Name,
				Reason: fmt.Sprintf("can not be changed to '%s' because write protection bit is set.", k.Purpose),
			}
		}
		r.printf("\t'%s': '%v' -> '%s'.\n", kp.Name, current, k.Purpose)
		pbits, err := e.ParseValue(kp, k.Purpose)
		if err != nil {
			return err
		}
		if err := e.Save(kp, pbits); err != nil {
			return err
		}
		protectPurpose = true
	} else {
		r.printf("\t'%s' is already '%s'.\n", kp.Name, k.Purpose)
		protectPurpose = e.IsWriteable(kp)
	}

	if protectPurpose {
		r.printf("\tDisabling write to '%s'.\n", kp.Name)
		if err := e.DisableWrite(kp); err != nil {
			return err
		}
	}
	if e.NeedReadProtect(k.Purpose) && !opts.NoReadProtect {
		r.println("\tDisabling read to key block")
		if err := e.DisableRead(f, -1); err != nil {
			return err
		}
	}
	if !opts.NoWriteProtect {
		r.println("\tDisabling write to key block")
		if err := e.DisableWrite(f); err != nil {
			return err
		}
	}
	return nil
}

// splitXTS256 replaces an XTS_AES_256_KEY by its two halves: the first in
// the given block, the second in the next free key block.
func (r *Runner) splitXTS256(keys []Key) ([]Key, error) {
	taken := make(map[string]bool, len(keys))
	for _, k := range keys {
		if b, err := r.efuses.BlockByName(k.Block); err == nil {
			taken[b.Name] = true
		}
	}

	out := make([]Key, 0, len(keys)+1)
	for _, k := range keys {
		if k.Purpose != xts256 {
			out = append(out, k)
			continue
		}
		if len(k.Data) != 64 {
			return nil, fmt.Errorf("incorrect key file size %d, %s should be 64 bytes: %w", len(k.Data), xts256, ErrInvalidArgument)
		}
		b, err := r.efuses.BlockByName(k.Block)
		if err != nil {
			return nil, err
		}
		next, err := r.freeKeyBlock(b.ID+1, taken)
		if err != nil {
			return nil, err
		}
		taken[next.Name] = true
		out = append(out,
			Key{Block: b.Name, Data: k.Data[:32], Purpose: xts256 + "_1"},
			Key{Block: next.Name, Data: k.Data[32:], Purpose: xts256 + "_2"},
		)
	}
	return out, nil
}

// freeKeyBlock returns the first key block from id on that is blank, has
// the USER purpose and is not taken.
func (r *Runner) freeKeyBlock(id int, taken map[string]bool) (*efuse.Block, error) {
	e := r.efuses
	for _, b := range e.Blocks()[min(id, len(e.Blocks())):] {
		if b.KeyPurpose == "" || taken[b.Name] || !b.Bits(true).All(false) || !e.IsWriteable(b) {
			continue
		}
		kp, err := e.Field(b.KeyPurpose)
		if err != nil {
			return nil, err
		}
		if v, err := e.Get(kp, true); err == nil && efuse.Format(v) == "USER" {
			return b, nil
		}
	}
	return nil, fmt.Errorf("no free key block for the second half of %s: %w", xts256, ErrInvalidArgument)
}
