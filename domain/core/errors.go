package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	// Sequence errors
	ErrUnparsableSequence = errors.New("unparsable sequence")
	ErrUnsupportedFormat  = fmt.Errorf("%w: unsupported notation", ErrUnparsableSequence)
	ErrInvalidResidue     = fmt.Errorf("%w: non-standard residue", ErrUnparsableSequence)
	ErrInvalidAcceptor    = fmt.Errorf("%w: central residue is not S, T or Y", ErrUnparsableSequence)
	ErrWindowTooShort     = fmt.Errorf("%w: window shorter than required width", ErrUnparsableSequence)

	// Reference data errors
	ErrSchemaMismatch  = errors.New("schema mismatch")
	ErrKinaseNotFound  = fmt.Errorf("%w: kinase missing from panel", ErrSchemaMismatch)
	ErrVariantMismatch = fmt.Errorf("%w: matrix variant does not match site variant", ErrSchemaMismatch)
	ErrEmptyBackground = fmt.Errorf("%w: empty background distribution", ErrSchemaMismatch)

	// Configuration errors
	ErrConfiguration = errors.New("invalid configuration")
)

// NewConfigurationError reports a bad option value, before any rows are processed.
func NewConfigurationError(field string, reason string) error {
	return fmt.Errorf("%w: %s %s", ErrConfiguration, field, reason)
}

// NewSequenceError attaches the offending input to an unparsable-sequence error.
func NewSequenceError(sequence string, cause error) error {
	return fmt.Errorf("%w: %q", cause, sequence)
}

// Error checking helpers
func IsUnparsableSequence(err error) bool {
	return errors.Is(err, ErrUnparsableSequence)
}

func IsSchemaMismatch(err error) bool {
	return errors.Is(err, ErrSchemaMismatch)
}

func IsConfiguration(err error) bool {
	return errors.Is(err, ErrConfiguration)
}
