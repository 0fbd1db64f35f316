package errclass

import (
	"errors"
	"fmt"
)

// PomdError is a stable, machine-readable error class.
type PomdError struct {
	Code    string
	Message string
}

func (e *PomdError) Error() string {
	if e.Message == "" {
		return e.Code
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *PomdError) Is(target error) bool {
	t, ok := target.(*PomdError)
	return ok && e.Code == t.Code
}

// WithMessage returns a new PomdError with the same Code but a specific message.
func (e *PomdError) WithMessage(msg string) *PomdError {
	return &PomdError{Code: e.Code, Message: msg}
}

// WithMessagef returns a new PomdError with a formatted message.
func (e *PomdError) WithMessagef(format string, args ...any) *PomdError {
	return &PomdError{Code: e.Code, Message: fmt.Sprintf(format, args...)}
}

// Code returns the stable class code carried by err, or empty when err
// has no class.
func Code(err error) string {
	var perr *PomdError
	if errors.As(err, &perr) {
		return perr.Code
	}
	return ""
}

// Is reports whether err carries the given class, regardless of the
// message attached to it.
func Is(err error, class *PomdError) bool {
	return errors.Is(err, class)
}

// All stable error classes for v0.x.
var (
	ErrProtoMalformed    = &PomdError{Code: "E_PROTO_MALFORMED"}
	ErrUnknownCommand    = &PomdError{Code: "E_UNKNOWN_COMMAND"}
	ErrInvalidArgument   = &PomdError{Code: "E_INVALID_ARGUMENT"}
	ErrUnreachable       = &PomdError{Code: "E_UNREACHABLE"}
	ErrTimeout           = &PomdError{Code: "E_TIMEOUT"}
	ErrAlreadyRunning    = &PomdError{Code: "E_ALREADY_RUNNING"}
	ErrNotRunning        = &PomdError{Code: "E_NOT_RUNNING"}
	ErrSocketUnavailable = &PomdError{Code: "E_SOCKET_UNAVAILABLE"}
	ErrSnapshotCorrupt   = &PomdError{Code: "E_SNAPSHOT_CORRUPT"}
	ErrSequenceUnknown   = &PomdError{Code: "E_SEQUENCE_UNKNOWN"}
	ErrSequenceInvalid   = &PomdError{Code: "E_SEQUENCE_INVALID"}
	ErrNameInvalid       = &PomdError{Code: "E_NAME_INVALID"}
	ErrQueueOverflow     = &PomdError{Code: "E_QUEUE_OVERFLOW"}
	ErrDisposed          = &PomdError{Code: "E_DISPOSED"}
	ErrHistoryCorrupt    = &PomdError{Code: "E_HISTORY_CORRUPT"}
	ErrConfigInvalid     = &PomdError{Code: "E_CONFIG_INVALID"}
)
