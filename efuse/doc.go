// Package efuse manages the one-time-programmable eFuse memory of ESP chips.
//
// # Overview
//
// An eFuse bit starts at 0 and can only ever be burned to 1. The package
// models the chip as a set of blocks and named fields and drives the
// controller through a burn:
//   - Reading every block into a read mirror
//   - Staging new values into a per-block pending buffer
//   - Checking pending data against what is burned and what is protected
//   - Encoding blocks with their coding scheme (NONE or Reed-Solomon)
//   - Programming the blocks, highest first, and verifying the read back
//
// # Basic Usage
//
//	chip, err := chipdef.Load("esp32s3")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	efuses, err := efuse.Open(ctx, transport, chip,
//	    efuse.WithConfirm(askUser),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	f, _ := efuses.Field("CUSTOM_MAC")
//	bits, err := efuses.ParseValue(f, "aa:cd:ef:01:02:03")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := efuses.Save(f, bits); err != nil {
//	    log.Fatal(err)
//	}
//	if _, err := efuses.BurnAll(ctx, false); err != nil {
//	    log.Fatal(err)
//	}
//
// # Monotonic Values
//
// A value that would clear an already burned bit is refused with
// ErrProtectionViolation. Staging a value that is already burned or already
// pending is a no-op. Under the RS coding scheme a block that holds data
// cannot be burned again unless every new bit is already set.
//
// WithForceWriteAlways turns these refusals, and the read and write
// protection checks, into logged warnings.
//
// # Batch Mode
//
// Several commands can stage their values before a single burn:
//
//	efuses.BatchBegin()
//	// ... stage values, BurnAll(ctx, true) only logs
//	if efuses.BatchEnd() == 0 {
//	    _, err = efuses.BurnAll(ctx, true)
//	}
//
// # Error Handling
//
// Every error belongs to one of the kinds below and matches it with
// errors.Is:
//   - ErrInvalidValue: a value does not fit the field (ValueError)
//   - ErrProtectionViolation: a protected target or a bit that cannot be cleared (ProtectionError)
//   - ErrUnsupportedCodingScheme: the block cannot be encoded (CodingSchemeError)
//   - ErrBurnVerificationFailed: the read back differs (VerificationError)
//   - ErrUnknownName, ErrDuplicateName: name lookups (NameError)
//   - ErrAborted: the confirmation was refused
//   - ErrBlockErrors: the error registers reported new errors after a burn
//
// Transport failures are returned wrapped as they come.
//
// # Hardware Independence
//
// The package talks to the chip only through protocol.Transport. The
// emulator package provides an in-memory chip for tests and dry runs.
package efuse
