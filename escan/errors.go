package escan

import (
	"errors"
	"fmt"
)

// InvalidCommandError reports that the device returned NAK to a command
// header.
type InvalidCommandError struct {
	Command []byte
}

func (e *InvalidCommandError) Error() string {
	return fmt.Sprintf("command %#v rejected with NAK", e.Command)
}

// InvalidParameterError reports that the device returned NAK to a
// parameter block.
type InvalidParameterError struct {
	Command []byte
}

func (e *InvalidParameterError) Error() string {
	return fmt.Sprintf("parameters for command %#v rejected with NAK", e.Command)
}

// UnknownReplyError reports an undocumented reply byte; recovery is not
// possible once this is seen.
type UnknownReplyError struct {
	Command []byte
	Reply   byte
}

func (e *UnknownReplyError) Error() string {
	return fmt.Sprintf("command %#v got unexpected reply 0x%02x", e.Command, e.Reply)
}

// DeviceBusyError reports that exclusive access was refused (0x40 from
// capture-scanner).
type DeviceBusyError struct{}

func (e *DeviceBusyError) Error() string { return "device busy: exclusive access refused" }

// ProtocolError reports a structural violation, such as a bad
// info-block header.
type ProtocolError struct {
	Reason string
}

func (e *ProtocolError) Error() string { return "protocol error: " + e.Reason }

// SystemErrorCode enumerates the closed set of system-error sub-codes.
type SystemErrorCode int

const (
	SystemErrorUnknown SystemErrorCode = iota
	SystemErrorCoverOpen
	SystemErrorMediaOut
	SystemErrorMediaJam
	SystemErrorPermissionDenied
)

func (c SystemErrorCode) String() string {
	switch c {
	case SystemErrorCoverOpen:
		return "cover-open"
	case SystemErrorMediaOut:
		return "media-out"
	case SystemErrorMediaJam:
		return "media-jam"
	case SystemErrorPermissionDenied:
		return "permission-denied"
	default:
		return "unknown-error"
	}
}

// SystemError is a composite failure derived from scanner status,
// carrying a sub-code and a user-facing message.
type SystemError struct {
	Code    SystemErrorCode
	Message string
	cause   error
}

func (e *SystemError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("system error (%s): %s", e.Code, e.Message)
	}
	return fmt.Sprintf("system error (%s)", e.Code)
}

func (e *SystemError) Unwrap() error { return e.cause }

// NewSystemError builds a SystemError, optionally wrapping a cause.
func NewSystemError(code SystemErrorCode, message string, cause error) *SystemError {
	return &SystemError{Code: code, Message: message, cause: cause}
}

// ErrNoMoreMedia reports that an automatic document feeder ran out of
// media after at least one image was already produced; this ends
// acquisition cleanly rather than as a fault, unlike a media-out
// SystemError raised on the very first page.
var ErrNoMoreMedia = errors.New("escan: automatic document feeder has no more media")

// ConstraintViolationError reports an option-map validation failure.
type ConstraintViolationError struct {
	Option string
	Reason string
}

func (e *ConstraintViolationError) Error() string {
	return fmt.Sprintf("constraint violation on option %q: %s", e.Option, e.Reason)
}

// IsInvalidCommand reports whether err (or something it wraps) is an
// InvalidCommandError.
func IsInvalidCommand(err error) bool {
	var e *InvalidCommandError
	return errors.As(err, &e)
}

// IsInvalidParameter reports whether err (or something it wraps) is an
// InvalidParameterError.
func IsInvalidParameter(err error) bool {
	var e *InvalidParameterError
	return errors.As(err, &e)
}

// IsUnknownReply reports whether err (or something it wraps) is an
// UnknownReplyError.
func IsUnknownReply(err error) bool {
	var e *UnknownReplyError
	return errors.As(err, &e)
}

// IsDeviceBusy reports whether err (or something it wraps) is a
// DeviceBusyError.
func IsDeviceBusy(err error) bool {
	var e *DeviceBusyError
	return errors.As(err, &e)
}

// SystemErrorCodeOf extracts the SystemErrorCode from err, if it (or
// something it wraps) is a *SystemError.
func SystemErrorCodeOf(err error) (SystemErrorCode, bool) {
	var e *SystemError
	if errors.As(err, &e) {
		return e.Code, true
	}
	return 0, false
}
