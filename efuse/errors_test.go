package efuse

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/moffa90/go-espefuse/protocol"
)

func TestErrorKinds(t *testing.T) {
	tests := []struct {
		name string
		err  error
		kind error
		msg  string
	}{
		{
			name: "value",
			err:  &ValueError{Name: "DIS_ICACHE", Value: "2", Reason: "bad"},
			kind: ErrInvalidValue,
			msg:  "DIS_ICACHE: bad (given value=2)",
		},
		{
			name: "protection",
			err:  &ProtectionError{Name: "BLOCK_KEY0", Reason: "is write-protected. Burn is not possible."},
			kind: ErrProtectionViolation,
			msg:  "BLOCK_KEY0 is write-protected. Burn is not possible.",
		},
		{
			name: "coding scheme",
			err:  &CodingSchemeError{Block: "BLOCK1", Scheme: protocol.CodingScheme34},
			kind: ErrUnsupportedCodingScheme,
		},
		{
			name: "verification",
			err:  &VerificationError{Block: "BLOCK3", Reason: "mismatch"},
			kind: ErrBurnVerificationFailed,
			msg:  "burn BLOCK3 was not successful: mismatch",
		},
		{
			name: "unknown name",
			err:  &NameError{Name: "FOO"},
			kind: ErrUnknownName,
			msg:  "invalid efuse name - FOO",
		},
		{
			name: "duplicate name",
			err:  &NameError{Name: "FOO", Duplicate: true},
			kind: ErrDuplicateName,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, errors.Is(tt.err, tt.kind))
			assert.True(t, errors.Is(fmt.Errorf("wrapped: %w", tt.err), tt.kind))
			assert.False(t, errors.Is(tt.err, ErrAborted))
			if tt.msg != "" {
				assert.Equal(t, tt.msg, tt.err.Error())
			}
		})
	}
}

func TestReportError(t *testing.T) {
	logger := &mockLogger{}
	err := &ProtectionError{Name: "X", Reason: "is write-protected."}

	e := &Efuses{config: defaultConfig()}
	e.config.Logger = logger
	assert.Equal(t, error(err), e.reportError(err))
	assert.True(t, logged(logger.errorMsgs, "(use '--force-write-always' option to ignore it)"))

	e.config.ForceWriteAlways = true
	assert.NoError(t, e.reportError(err))
	assert.True(t, logged(logger.infoMsgs, "Skipped because '--force-write-always' option."))
}
