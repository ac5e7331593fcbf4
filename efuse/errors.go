package efuse

import (
	"errors"
	"fmt"

	"github.com/moffa90/go-espefuse/protocol"
)

// Error kinds. Every error returned by this package that belongs to one of
// these kinds matches it with errors.Is.
var (
	ErrInvalidValue            = errors.New("invalid value")
	ErrProtectionViolation     = errors.New("protection violation")
	ErrUnsupportedCodingScheme = errors.New("unsupported coding scheme")
	ErrBurnVerificationFailed  = errors.New("burn verification failed")
	ErrUnknownName             = errors.New("unknown efuse name")
	ErrDuplicateName           = errors.New("duplicate efuse name")
	ErrAborted                 = errors.New("aborting")
	ErrBlockErrors             = errors.New("error(s) were detected in eFuses")
)

// ValueError indicates a value that cannot be staged for a field.
type ValueError struct {
	Name   string
	Value  string
	Reason string
}

func (e *ValueError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("%s: %s", e.Name, e.Reason)
	}
	return fmt.Sprintf("%s: %s (given value=%s)", e.Name, e.Reason, e.Value)
}

func (e *ValueError) Is(target error) bool { return target == ErrInvalidValue }

// ProtectionError indicates a read or write protected target, a bit that
// would have to be cleared, or a forbidden rewrite of an RS block.
type ProtectionError struct {
	Name   string
	Reason string
}

func (e *ProtectionError) Error() string {
	return fmt.Sprintf("%s %s", e.Name, e.Reason)
}

func (e *ProtectionError) Is(target error) bool { return target == ErrProtectionViolation }

// CodingSchemeError indicates a coding scheme this package cannot burn.
type CodingSchemeError struct {
	Block  string
	Scheme protocol.CodingScheme
}

func (e *CodingSchemeError) Error() string {
	return fmt.Sprintf("%s: coding scheme %s is not supported", e.Block, e.Scheme)
}

func (e *CodingSchemeError) Is(target error) bool { return target == ErrUnsupportedCodingScheme }

// VerificationError indicates that a block did not read back as burned.
type VerificationError struct {
	Block  string
	Reason string
}

func (e *VerificationError) Error() string {
	return fmt.Sprintf("burn %s was not successful: %s", e.Block, e.Reason)
}

func (e *VerificationError) Is(target error) bool { return target == ErrBurnVerificationFailed }

// NameError indicates an unknown name or a name given twice.
type NameError struct {
	Name      string
	Duplicate bool
}

func (e *NameError) Error() string {
	if e.Duplicate {
		return fmt.Sprintf("the same efuse name '%s' is repeated", e.Name)
	}
	return fmt.Sprintf("invalid efuse name - %s", e.Name)
}

func (e *NameError) Is(target error) bool {
	if e.Duplicate {
		return target == ErrDuplicateName
	}
	return target == ErrUnknownName
}

const forceHint = " (use '--force-write-always' option to ignore it)"

// reportError applies the force-write-always policy to err: logged and
// dropped when forcing, logged and returned otherwise.
func (e *Efuses) reportError(err error) error {
	if e.config.ForceWriteAlways {
		e.logInfo(err.Error() + " Skipped because '--force-write-always' option.")
		return nil
	}
	e.logError(err.Error() + forceHint)
	return err
}
