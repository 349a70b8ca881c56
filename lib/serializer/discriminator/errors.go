package discriminator

import (
	"errors"
	"fmt"
)

var (
	// ErrFormat is matched by every decode failure of this package
	ErrFormat = errors.New("discriminator: format error")

	ErrMissingDiscriminator   = errors.New("missing type discriminator")
	ErrDiscriminatorNotFirst  = errors.New("type discriminator is not the first field")
	ErrDuplicateDiscriminator = errors.New("type discriminator appears twice")
	ErrUnknownDiscriminator   = errors.New("unknown type discriminator")
	ErrFieldType              = errors.New("unexpected field type")
	ErrMalformed              = errors.New("malformed object")
)

// FormatError describes why encoded bytes do not follow the protocol
type FormatError struct {
	// Field is the wire name of the offending field, empty if not field related
	Field string
	// Reason is one of the Err* sentinels of this package
	Reason error
	// Err is the underlying cause reported by the format reader, may be nil
	Err error
}

// NewFormatError creates a FormatError for the given field and reason
func NewFormatError(field string, reason, cause error) *FormatError {
	return &FormatError{Field: field, Reason: reason, Err: cause}
}

func (e *FormatError) Error() string {
	msg := "discriminator: " + e.Reason.Error()
	if e.Field != "" {
		msg = fmt.Sprintf("%s (field %q)", msg, e.Field)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Is makes every FormatError match ErrFormat
func (e *FormatError) Is(target error) bool {
	return target == ErrFormat
}

// Unwrap exposes the reason and the cause to errors.Is and errors.As
func (e *FormatError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Reason}
	}
	return []error{e.Reason, e.Err}
}
