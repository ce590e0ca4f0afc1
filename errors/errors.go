package errors

import (
	"errors"
	"fmt"
	"maps"
	"strconv"
	"strings"
)

const (
	UnknownCode   = 500
	UnknownReason = "internal-error"

	fieldSeparator = ", "
)

// Status carries the transport-facing parts of an error: the HTTP status code,
// a short machine-readable reason that clients switch on, and an optional
// human-readable message that is only ever logged.
type Status struct {
	Code     int               `json:"-"`
	Reason   string            `json:"error"`
	Message  string            `json:"-"`
	Metadata map[string]string `json:"-"`
}

// Error is a structured error with a status and an optional cause.
type Error struct {
	Status
	cause error
}

// Error renders code, reason, message, metadata and cause in one line.
func (e *Error) Error() string {
	var msg strings.Builder

	msg.WriteString("code=")
	msg.WriteString(strconv.Itoa(e.Code))
	msg.WriteString(fieldSeparator)
	msg.WriteString("reason=")
	msg.WriteString(e.Reason)

	if e.Message != "" {
		msg.WriteString(fieldSeparator)
		msg.WriteString("message=")
		msg.WriteString(e.Message)
	}

	if len(e.Metadata) > 0 {
		msg.WriteString(fieldSeparator)
		msg.WriteString("metadata={")
		first := true
		for k, v := range e.Metadata {
			if !first {
				msg.WriteString(fieldSeparator)
			}
			msg.WriteString(k)
			msg.WriteByte('=')
			msg.WriteString(v)
			first = false
		}
		msg.WriteByte('}')
	}

	if e.cause != nil {
		msg.WriteString(fieldSeparator)
		msg.WriteString("cause=")
		msg.WriteString(e.cause.Error())
	}

	return msg.String()
}

// Unwrap returns the cause of the error
func (e *Error) Unwrap() error {
	return e.cause
}

// Is reports whether err is an *Error with the same code and reason.
// Message, metadata and cause do not take part in the comparison.
func (e *Error) Is(err error) bool {
	var ge *Error
	if errors.As(err, &ge) {
		return e.Code == ge.Code && e.Reason == ge.Reason
	}
	return false
}

// WithMessage returns a copy carrying a formatted message.
func (e *Error) WithMessage(format string, args ...any) *Error {
	err := e.clone()
	err.Message = sprintf(format, args...)
	return err
}

// WithMetadata returns a copy with m merged into the metadata.
func (e *Error) WithMetadata(m map[string]string) *Error {
	if len(m) == 0 {
		return e
	}

	err := e.clone()
	if err.Metadata == nil {
		err.Metadata = make(map[string]string, len(m))
	}
	maps.Copy(err.Metadata, m)
	return err
}

// WithCause returns a copy wrapping cause.
func (e *Error) WithCause(cause error) *Error {
	if cause == nil {
		return e
	}

	err := e.clone()
	err.cause = cause
	return err
}

func (e *Error) clone() *Error {
	var metadata map[string]string
	if len(e.Metadata) > 0 {
		metadata = make(map[string]string, len(e.Metadata))
		maps.Copy(metadata, e.Metadata)
	}

	return &Error{
		Status: Status{
			Code:     e.Code,
			Reason:   e.Reason,
			Message:  e.Message,
			Metadata: metadata,
		},
		cause: e.cause,
	}
}

// GetCode returns the status code
func (e *Error) GetCode() int {
	return e.Code
}

// GetReason returns the machine-readable reason
func (e *Error) GetReason() string {
	return e.Reason
}

// GetCause returns the underlying cause of the error
func (e *Error) GetCause() error {
	return e.cause
}

// New creates an error with the given status code and reason.
func New(code int, reason string) *Error {
	return &Error{
		Status: Status{
			Code:   code,
			Reason: reason,
		},
	}
}

// Newf creates an error with a status code, a reason and a formatted message.
func Newf(code int, reason, format string, args ...any) *Error {
	err := New(code, reason)
	err.Message = sprintf(format, args...)
	return err
}

// FromError converts any error to *Error. Errors that are not already
// structured become 500 internal-error with the original error as cause.
func FromError(err error) *Error {
	if err == nil {
		return nil
	}

	var ge *Error
	if errors.As(err, &ge) {
		return ge
	}

	return New(UnknownCode, UnknownReason).WithCause(err)
}

// Wrap wraps err with a status code and reason. Returns nil for a nil err.
func Wrap(err error, code int, reason string) *Error {
	if err == nil {
		return nil
	}
	return New(code, reason).WithCause(err)
}

func sprintf(format string, args ...any) string {
	if len(args) == 0 {
		return format
	}
	return fmt.Sprintf(format, args...)
}
