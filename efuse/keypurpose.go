package efuse

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/moffa90/go-espefuse/chipdef"
)

// ForbiddenState is shown for a key purpose value without a name.
const ForbiddenState = "FORBIDDEN_STATE"

// KeyPurposes returns the key purposes of the chip.
func (e *Efuses) KeyPurposes() []chipdef.KeyPurpose {
	return append([]chipdef.KeyPurpose(nil), e.chip.KeyPurposes...)
}

// KeyPurposeName returns the name of a raw key purpose value.
func (e *Efuses) KeyPurposeName(v uint64) string {
	for _, kp := range e.chip.KeyPurposes {
		if !kp.Virtual && kp.Value >= 0 && uint64(kp.Value) == v {
			return kp.Name
		}
	}
	return ForbiddenState
}

// keyPurposeValue resolves a purpose name or number to the number to burn.
// USER cannot be burned since it is the blank state.
func (e *Efuses) keyPurposeValue(f *Field, value string) (string, error) {
	if kp, ok := e.chip.KeyPurpose(value); ok {
		if kp.Virtual {
			return "", &ValueError{Name: f.Name, Value: value, Reason: "virtual purpose can not be burned directly"}
		}
		return strconv.Itoa(kp.Value), nil
	}
	n, err := strconv.ParseInt(value, 0, 64)
	if err != nil {
		return "", &ValueError{Name: f.Name, Value: value, Reason: fmt.Sprintf("'%s' unknown name", value)}
	}
	for _, kp := range e.chip.KeyPurposes {
		if kp.Value > 0 && int64(kp.Value) == n {
			return value, nil
		}
	}
	return "", &ValueError{Name: f.Name, Value: value, Reason: fmt.Sprintf("'%s' can not be set (value out of range)", value)}
}

// checkKeyPurpose rejects purposes the hardware cannot use in the slot.
func (e *Efuses) checkKeyPurpose(f *Field, v uint64) error {
	name := e.KeyPurposeName(v)
	if f.Name == "KEY_PURPOSE_5" && strings.HasPrefix(name, "XTS_AES") {
		return &ValueError{
			Name:   f.Name,
			Reason: fmt.Sprintf("KEY_PURPOSE_5 can not have %s key due to a hardware bug (please see TRM for more details)", name),
		}
	}
	return nil
}

// NeedReverse reports whether keys of the purpose are burned byte-reversed.
func (e *Efuses) NeedReverse(purpose string) bool {
	kp, ok := e.chip.KeyPurpose(purpose)
	return ok && kp.Reverse
}

// NeedReadProtect reports whether keys of the purpose must be read-protected.
func (e *Efuses) NeedReadProtect(purpose string) bool {
	kp, ok := e.chip.KeyPurpose(purpose)
	return ok && kp.ReadProtect
}
