package efuse

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"github.com/moffa90/go-espefuse/bitarray"
	"github.com/moffa90/go-espefuse/chipdef"
)

func uintBits(v uint64, n int) *bitarray.Bits {
	return bitarray.FromUint(v, n)
}

// Raw returns the undecoded value of f: bool for "bool" fields, uint64 for
// numeric fields and []byte in bit order for "bytes" fields.
func (e *Efuses) Raw(f *Field, fromRead bool) (interface{}, error) {
	if f.Kind == KindWafer {
		return e.rawUint(f, fromRead)
	}
	bits := e.bitsOf(f, fromRead)
	switch f.spec.Type {
	case bitarray.TypeBool:
		return bits.Any(true), nil
	case bitarray.TypeBytes:
		return bits.Bytes(), nil
	default:
		return bits.Uint(), nil
	}
}

func (e *Efuses) rawUint(f *Field, fromRead bool) (uint64, error) {
	if f.Kind != KindWafer {
		return e.bitsOf(f, fromRead).Uint(), nil
	}
	hi, err := e.Field("WAFER_VERSION_MINOR_HI")
	if err != nil {
		return 0, err
	}
	lo, err := e.Field("WAFER_VERSION_MINOR_LO")
	if err != nil {
		return 0, err
	}
	if hi.BitLen != 1 || lo.BitLen != 3 {
		return 0, fmt.Errorf("efuse %s: unexpected layout of WAFER_VERSION_MINOR_HI/LO", f.Name)
	}
	return e.bitsOf(hi, fromRead).Uint()<<3 + e.bitsOf(lo, fromRead).Uint(), nil
}

// Get returns the decoded value of f. Byte fields and MAC addresses are
// rendered as strings, sensor fields as numbers with their sign applied.
func (e *Efuses) Get(f *Field, fromRead bool) (interface{}, error) {
	switch f.Kind {
	case KindWafer:
		return e.rawUint(f, fromRead)
	case KindMAC:
		mac := e.bitsOf(f, fromRead).Bytes()
		if f.Name == "CUSTOM_MAC" {
			mac = reverseBytes(mac)
		}
		return fmt.Sprintf("%s (%s)", hexJoin(mac, ":"), e.macCheck(f)), nil
	case KindKeyPurpose:
		return e.KeyPurposeName(e.bitsOf(f, fromRead).Uint()), nil
	case KindTempSensor, KindADC:
		bits := e.bitsOf(f, fromRead)
		mag, err := bits.Sub(1, bits.Len()-1)
		if err != nil {
			return nil, err
		}
		sign := int64(1)
		if bits.Get(0) {
			sign = -1
		}
		if f.Kind == KindTempSensor {
			return float64(sign*int64(mag.Uint())) / 10, nil
		}
		return sign * int64(mag.Uint()) * 4, nil
	}

	if f.spec.Type == bitarray.TypeBytes {
		return hexJoin(reverseBytes(e.bitsOf(f, fromRead).Bytes()), " "), nil
	}
	return e.Raw(f, fromRead)
}

// Meaning returns the dictionary entry of the read value, or Get when the
// field has no entry for it.
func (e *Efuses) Meaning(f *Field) (interface{}, error) {
	if len(f.Dict) != 0 && f.spec.Type != bitarray.TypeBytes {
		if s, ok := f.Dict[int(e.bitsOf(f, true).Uint())]; ok {
			return s, nil
		}
	}
	return e.Get(f, true)
}

// Format renders a value returned by Get or Raw.
func Format(v interface{}) string {
	switch v := v.(type) {
	case bool:
		if v {
			return "True"
		}
		return "False"
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case []byte:
		return hexJoin(v, " ")
	default:
		return fmt.Sprint(v)
	}
}

func (e *Efuses) macCheck(f *Field) string {
	if f.numErrors != 0 || f.fail {
		return fmt.Sprintf("Block%d has ERRORS:%d FAIL:%d", f.Block, f.numErrors, boolToInt(f.fail))
	}
	return "OK"
}

func boolToInt(v bool) int {
	if v {
		return 1
	}
	return 0
}

func hexJoin(data []byte, sep string) string {
	parts := make([]string, len(data))
	for i, v := range data {
		parts[i] = fmt.Sprintf("%02x", v)
	}
	return strings.Join(parts, sep)
}

// ParseValue converts a user supplied value into the bits to stage for f.
// An empty value means no value was given, which is valid for bool fields
// (burn 1) and bit counters (set the next bit).
//
// Byte values are hex strings. A "0x" prefix reads the string as a number,
// so its last byte lands at the lowest address.
func (e *Efuses) ParseValue(f *Field, value string) (*bitarray.Bits, error) {
	if f.calculated {
		return nil, &ValueError{Name: f.Name, Reason: fmt.Sprintf("Burning %s is not supported", f.Name)}
	}
	switch f.Kind {
	case KindMAC:
		data, err := parseMAC(f, value)
		if err != nil {
			return nil, err
		}
		return e.BytesValue(f, data)
	case KindKeyPurpose:
		if value != "" {
			v, err := e.keyPurposeValue(f, value)
			if err != nil {
				return nil, err
			}
			value = v
		}
	}

	switch f.spec.Type {
	case bitarray.TypeBool:
		if value != "" {
			if n, err := strconv.ParseUint(value, 0, 64); err != nil || n != 1 {
				return nil, &ValueError{
					Name:   f.Name,
					Value:  value,
					Reason: fmt.Sprintf("New value is not accepted for efuse '%s' (will always burn 0->1)", f.Name),
				}
			}
		}
		return uintBits(1, 1), nil

	case bitarray.TypeUint, bitarray.TypeInt:
		if value == "" {
			if f.Class != chipdef.ClassBitCount {
				return nil, &ValueError{Name: f.Name, Reason: fmt.Sprintf("New value required for efuse '%s' (given None)", f.Name)}
			}
			return e.nextBitCount(f)
		}
		n, err := strconv.ParseUint(value, 0, 64)
		if err != nil {
			return nil, &ValueError{Name: f.Name, Value: value, Reason: fmt.Sprintf("New value '%s' is not suitable for %s (%s)", value, f.Name, f.Type)}
		}
		if n == 0 {
			return nil, &ValueError{Name: f.Name, Value: value, Reason: fmt.Sprintf("New value should not be 0 for '%s'", f.Name)}
		}
		if f.BitLen < 64 && n>>uint(f.BitLen) != 0 {
			return nil, &ValueError{Name: f.Name, Value: value, Reason: fmt.Sprintf("New value does not fit in %d bits", f.BitLen)}
		}
		return uintBits(n, f.BitLen), nil

	case bitarray.TypeBytes:
		if value == "" {
			return nil, &ValueError{Name: f.Name, Reason: fmt.Sprintf("New value required for efuse '%s' (given None)", f.Name)}
		}
		data, err := parseHexBytes(value)
		if err != nil {
			return nil, &ValueError{Name: f.Name, Value: value, Reason: err.Error()}
		}
		return e.BytesValue(f, data)
	}
	return nil, &ValueError{Name: f.Name, Reason: fmt.Sprintf("the efuse type '%s' is not supported", f.Type)}
}

// BytesValue converts data, lowest address first, into bits for f.
func (e *Efuses) BytesValue(f *Field, data []byte) (*bitarray.Bits, error) {
	if len(data)*8 != f.BitLen {
		return nil, &ValueError{
			Name:   f.Name,
			Reason: fmt.Sprintf("The length of efuse '%s' (%d bits) (given len of the new value= %d bits)", f.Name, f.BitLen, len(data)*8),
		}
	}
	return bitarray.FromBytes(reverseBytes(data)), nil
}

func (e *Efuses) nextBitCount(f *Field) (*bitarray.Bits, error) {
	old := e.bitsOf(f, true).Uint()
	for i := 0; i < f.BitLen && i < 64; i++ {
		if old&(1<<uint(i)) == 0 {
			return uintBits(old|1<<uint(i), f.BitLen), nil
		}
	}
	return nil, &ValueError{Name: f.Name, Reason: "all bits of the counter are already set"}
}

func parseHexBytes(value string) ([]byte, error) {
	if s, ok := cutPrefixFold(value, "0x"); ok {
		data, err := hex.DecodeString(s)
		if err != nil {
			return nil, err
		}
		return reverseBytes(data), nil
	}
	return hex.DecodeString(value)
}

func cutPrefixFold(s, prefix string) (string, bool) {
	if len(s) >= len(prefix) && strings.EqualFold(s[:len(prefix)], prefix) {
		return s[len(prefix):], true
	}
	return s, false
}

func parseMAC(f *Field, value string) ([]byte, error) {
	if value == "" {
		return nil, &ValueError{Name: f.Name, Reason: "Required MAC Address in AA:CD:EF:01:02:03 format!"}
	}
	groups := strings.Split(value, ":")
	if len(groups) != 6 {
		return nil, &ValueError{Name: f.Name, Value: value, Reason: "MAC Address needs to be a 6-byte hexadecimal format separated by colons (:)!"}
	}
	hexStr := strings.Join(groups, "")
	if len(hexStr) != 12 {
		return nil, &ValueError{Name: f.Name, Value: value, Reason: "MAC Address needs to be a 6-byte hexadecimal number (12 hexadecimal characters)!"}
	}
	data, err := hex.DecodeString(hexStr)
	if err != nil {
		return nil, &ValueError{Name: f.Name, Value: value, Reason: err.Error()}
	}
	if data[0]&0x01 != 0 {
		return nil, &ValueError{Name: f.Name, Value: value, Reason: "Custom MAC must be a unicast MAC!"}
	}
	return data, nil
}

// Save stages bits for f. The value is checked against what is already
// burned and pending, and against the protection of f.
func (e *Efuses) Save(f *Field, bits *bitarray.Bits) error {
	if f.calculated {
		return &ValueError{Name: f.Name, Reason: fmt.Sprintf("Burning %s is not supported", f.Name)}
	}
	if bits.Len() != f.BitLen {
		return &ValueError{
			Name:   f.Name,
			Reason: fmt.Sprintf("The length of efuse '%s' (%d bits) (given len of the new value= %d bits)", f.Name, f.BitLen, bits.Len()),
		}
	}
	switch f.Kind {
	case KindMAC:
		if f.Name != "CUSTOM_MAC" {
			return &ValueError{Name: f.Name, Reason: "Writing Factory MAC address is not supported"}
		}
	case KindKeyPurpose:
		if err := e.checkKeyPurpose(f, bits.Uint()); err != nil {
			return err
		}
	}

	staged, err := e.checkNewValue(f, bits)
	if err != nil {
		return err
	}
	if f.Kind == KindMAC {
		old, _ := e.Get(f, true)
		e.logInfo(fmt.Sprintf("    - '%s' (%s) %v -> %s", f.Name, f.Description, old, hexJoin(reverseBytes(staged.Bytes()), ":")))
	}
	return e.saveToBlock(f, staged)
}

// SaveAll stages every value or none of them. When a value is refused the
// pending data of every block is restored to its state before the call.
func (e *Efuses) SaveAll(fields []*Field, values []*bitarray.Bits) error {
	if len(fields) != len(values) {
		return fmt.Errorf("%d fields and %d values: %w", len(fields), len(values), ErrInvalidValue)
	}
	snapshot := make([]*bitarray.Bits, len(e.blocks))
	for i, b := range e.blocks {
		snapshot[i] = b.pending.Clone()
	}
	for i, f := range fields {
		if err := e.Save(f, values[i]); err != nil {
			for j, b := range e.blocks {
				b.pending = snapshot[j]
			}
			return err
		}
	}
	return nil
}

// checkNewValue compares a new value with the burned and pending state of
// f and returns the bits to stage. A value that is already burned or
// already pending is collapsed to zero, except for WR_DIS and RD_DIS.
func (e *Efuses) checkNewValue(f *Field, bits *bitarray.Bits) (*bitarray.Bits, error) {
	pending := e.bitsOf(f, false)
	old := e.bitsOf(f, true).Or(pending)
	if bits.All(false) && old.All(false) {
		return bits, nil
	}

	control := f.Name == WriteDisableField || f.Name == ReadDisableField
	if !control {
		if bits.Equal(old) {
			e.logInfo(fmt.Sprintf("\tThe same value for %s is already burned. Do not change the efuse.", f.Name))
			return bitarray.New(f.BitLen), nil
		}
		if bits.Equal(pending) {
			e.logInfo(fmt.Sprintf("\tThe same value for %s is already prepared for the burn operation.", f.Name))
			return bitarray.New(f.BitLen), nil
		}
		if merged := bits.Or(old); !merged.Equal(bits) {
			err := &ProtectionError{
				Name:   f.Name,
				Reason: fmt.Sprintf("New value contains some bits that cannot be cleared (value will be %s)", merged),
			}
			if rerr := e.reportError(err); rerr != nil {
				return nil, rerr
			}
		}
	}
	if err := e.checkWriteReadProtect(f); err != nil {
		return nil, err
	}
	return bits, nil
}
