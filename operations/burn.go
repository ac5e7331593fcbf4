package operations

import (
	"context"
	"fmt"
	"strings"

	"github.com/moffa90/go-espefuse/bitarray"
	"github.com/moffa90/go-espefuse/efuse"
	"github.com/moffa90/go-espefuse/protocol"
)

// NameValue is an efuse name with the value to burn. An empty Value burns
// 1 into bool fields and the next bit of bit counters.
type NameValue struct {
	Name  string
	Value string
}

// BurnEfuse burns the given values. Every value is parsed before anything
// is staged, and the burned efuses are read back afterwards.
func (r *Runner) BurnEfuse(ctx context.Context, values []NameValue) error {
	names := make([]string, len(values))
	for i, v := range values {
		names[i] = v.Name
	}
	fields, err := r.fields(names)
	if err != nil {
		return err
	}
	bits := make([]*bitarray.Bits, len(fields))
	for i, f := range fields {
		if bits[i], err = r.efuses.ParseValue(f, values[i].Value); err != nil {
			return err
		}
	}

	var attention string
	r.println("The efuses to burn:")
	for _, b := range r.efuses.Blocks() {
		var inBlock []*efuse.Field
		for _, f := range fields {
			if f.Block == b.ID {
				inBlock = append(inBlock, f)
			}
		}
		if len(inBlock) == 0 {
			continue
		}
		r.printf("  from BLOCK%d\n", b.ID)
		for _, f := range inBlock {
			r.printf("     - %s\n", f.Name)
		}
		if b.CodingScheme() != protocol.CodingSchemeNone {
			attention = " (see 'ATTENTION!' above)"
			r.printAttention(b, inBlock)
		}
	}

	r.printf("\nBurning efuses%s:\n", attention)
	for i, f := range fields {
		r.printf("\n    - '%s' (%s) %s -> %s\n", f.Name, f.Description, f.Bits().Hex(" "), bits[i].Hex(" "))
	}
	if err := r.efuses.SaveAll(fields, bits); err != nil {
		return err
	}
	r.println()
	r.printDownloadWarnings(fields)

	done, err := r.efuses.BurnAll(ctx, true)
	if err != nil || !done || r.efuses.Closed() {
		return err
	}

	r.println("Checking efuses...")
	var failed bool
	for i, f := range fields {
		if !r.efuses.IsReadable(f, -1) {
			r.printf("Efuse %s is read-protected. Read back the burn value is not possible.\n", f.Name)
			continue
		}
		if got := f.Bits(); !got.Equal(bits[i]) {
			r.printf("%s -> %s Efuse %s failed to burn. Protected?\n", got, bits[i], f.Name)
			failed = true
		}
	}
	if failed {
		return ErrBurnFailed
	}
	r.println("Successful")
	return nil
}

// printAttention lists the efuses of an RS block that cannot be burned
// once the block is written.
func (r *Runner) printAttention(b *efuse.Block, writing []*efuse.Field) {
	skip := make(map[*efuse.Field]bool, len(writing))
	for _, f := range writing {
		skip[f] = true
	}
	var blocked []string
	for _, f := range r.efuses.Fields() {
		if f.Block == b.ID && !skip[f] && !f.Calculated() {
			blocked = append(blocked, f.Name)
		}
	}
	if len(blocked) == 0 {
		return
	}
	r.println("    ATTENTION! This BLOCK uses NOT the NONE coding scheme and after 'BURN', these efuses can not be burned in the future:")
	for i := 0; i < len(blocked); i += 5 {
		r.printf("              %s\n", strings.Join(blocked[i:min(i+5, len(blocked))], ", "))
	}
}

func (r *Runner) printDownloadWarnings(fields []*efuse.Field) {
	for _, f := range fields {
		switch f.Name {
		case "ENABLE_SECURITY_DOWNLOAD":
			r.println("ENABLE_SECURITY_DOWNLOAD -> 1: eFuses will not be read back for confirmation because this mode disables any SRAM and register operations.")
			r.println("                               espefuse will not work.")
			r.println("                               esptool can read/write only flash.")
		case "DIS_DOWNLOAD_MODE":
			r.println("DIS_DOWNLOAD_MODE -> 1: eFuses will not be read back for confirmation because this mode disables any communication with the chip.")
			r.println("                        espefuse/esptool will not work because they will not be able to connect to the chip.")
		}
	}
}

// BurnBit burns single bits of a block. Bit 0 is the lowest bit of the
// first word.
func (r *Runner) BurnBit(ctx context.Context, block string, bitNumbers []int) error {
	b, err := r.efuses.BlockByName(block)
	if err != nil {
		return err
	}
	size := b.Bits(true).Len()
	data := make([]byte, size/8)
	for _, n := range bitNumbers {
		if n < 0 || n >= size {
			return fmt.Errorf("%s has bit_number in [0..%d]: %w", block, size-1, ErrInvalidArgument)
		}
		data[n/8] |= 1 << uint(n%8)
	}

	staged := bitarray.FromBytes(reverse(data))
	r.printf("bit_number:   [%-3d]........................................................[0]\n", size-1)
	r.printf("BLOCK%-2d   : %s\n", b.ID, staged)
	if err := b.Save(data); err != nil {
		return err
	}

	done, err := r.efuses.BurnAll(ctx, true)
	if err != nil || !done {
		return err
	}
	r.println("Successful")
	return nil
}

// BlockData is raw data for a block, lowest address first.
type BlockData struct {
	Block string
	Data  []byte
}

// BurnBlockData burns raw data into blocks. A non-zero offset shifts the
// data inside the block and is only allowed with a single block.
func (r *Runner) BurnBlockData(ctx context.Context, data []BlockData, offset int) error {
	names := make([]string, len(data))
	for i, d := range data {
		names[i] = d.Block
	}
	blocks, err := r.blocks(names)
	if err != nil {
		return err
	}
	if offset < 0 {
		return fmt.Errorf("invalid offset %d: %w", offset, ErrInvalidArgument)
	}
	if offset != 0 && len(blocks) > 1 {
		return fmt.Errorf("the 'offset' option is not applicable when a few blocks are passed: %w", ErrInvalidArgument)
	}

	for i, b := range blocks {
		size, err := b.ByteLen()
		if err != nil {
			return err
		}
		if offset >= size && offset != 0 {
			return fmt.Errorf("invalid offset: the block%d only holds %d bytes: %w", b.ID, size, ErrInvalidArgument)
		}
		buf := data[i].Data
		if offset != 0 {
			buf = append(make([]byte, offset), buf...)
			if len(buf) < size {
				buf = append(buf, make([]byte, size-len(buf))...)
			}
		}
		if len(buf) != size {
			return fmt.Errorf("data does not fit: the block%d size is %d bytes, data is %d bytes, offset %d: %w",
				b.ID, size, len(buf), offset, ErrInvalidArgument)
		}
		r.printf("[%02d] %-20s size=%02d bytes, offset=%02d - > [%s]\n", b.ID, b.Name, len(buf), offset, hexify(buf, " "))
		if err := b.Save(buf); err != nil {
			return err
		}
	}

	done, err := r.efuses.BurnAll(ctx, true)
	if err != nil || !done {
		return err
	}
	r.println("Successful")
	return nil
}

// customMAC is the field holding the user MAC address.
const customMAC = "CUSTOM_MAC"

// BurnCustomMAC burns a unicast MAC address given as "aa:bb:cc:dd:ee:ff".
func (r *Runner) BurnCustomMAC(ctx context.Context, mac string) error {
	f, err := r.efuses.Field(customMAC)
	if err != nil {
		return err
	}
	bits, err := r.efuses.ParseValue(f, mac)
	if err != nil {
		return err
	}
	if err := r.efuses.Save(f, bits); err != nil {
		return err
	}

	done, err := r.efuses.BurnAll(ctx, true)
	if err != nil || !done {
		return err
	}
	if _, err := r.GetCustomMAC(ctx); err != nil {
		return err
	}
	r.println("Successful")
	return nil
}

// GetCustomMAC prints and returns the custom MAC address with its block
// check.
func (r *Runner) GetCustomMAC(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	f, err := r.efuses.Field(customMAC)
	if err != nil {
		return "", err
	}
	v, err := r.efuses.Get(f, true)
	if err != nil {
		return "", err
	}
	mac := efuse.Format(v)
	r.printf("Custom MAC Address: %s\n", mac)
	return mac, nil
}

func reverse(data []byte) []byte {
	out := make([]byte, len(data))
	for i, v := range data {
		out[len(data)-1-i] = v
	}
	return out
}
