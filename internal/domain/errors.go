package domain

import (
	"errors"
	"fmt"
)

// Category sentinels. Wrap them with NewDomainError or fmt.Errorf("%w") so that
// callers can match with errors.Is.
var (
	ErrInvalidInput       = fmt.Errorf("invalid input")
	ErrUnknownAction      = fmt.Errorf("unknown action")
	ErrUnsupportedVersion = fmt.Errorf("unsupported api version")
	ErrConfigLoad         = fmt.Errorf("failed to load configuration")
)

// Dispatch errors.
var (
	// ErrTransport covers network failures, non-200 statuses, missing responses
	// and undecodable bodies. Eligible for the auto-launch retry.
	ErrTransport = fmt.Errorf("transport failure")
	// ErrMalformedResponse means the body decoded but lacks the error or result
	// key. Never retried.
	ErrMalformedResponse = fmt.Errorf("malformed response envelope")
	// ErrActionFailed is the in-band error reported by the server.
	ErrActionFailed = fmt.Errorf("action failed")
	ErrCircuitOpen  = fmt.Errorf("circuit open")
)

// Launch errors.
var (
	ErrLaunchFailed      = fmt.Errorf("app launch failed")
	ErrLaunchUnavailable = fmt.Errorf("app launch unavailable on this platform")
)

// DomainError wraps a sentinel error with context.
type DomainError struct {
	Op     string // operation name (e.g., "ankiconnect.Invoke")
	Err    error  // underlying sentinel or wrapped error
	Detail string // human-readable detail
}

func (e *DomainError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s: %s: %s", e.Op, e.Detail, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Err)
}

func (e *DomainError) Unwrap() error { return e.Err }

// NewDomainError creates a new DomainError.
func NewDomainError(op string, err error, detail string) *DomainError {
	return &DomainError{Op: op, Err: err, Detail: detail}
}

// WrapOp adds operation context to an error using fmt.Errorf wrapping.
// Returns nil if err is nil, enabling idiomatic use: return domain.WrapOp("op", err)
func WrapOp(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", op, err)
}

// IsRetryableError reports whether err may succeed once the desktop app is up.
func IsRetryableError(err error) bool {
	return errors.Is(err, ErrTransport) || errors.Is(err, ErrCircuitOpen)
}

// ErrorCode is a machine-parseable error category for logs and CLI exit output.
type ErrorCode string

const (
	CodeUnknown            ErrorCode = "UNKNOWN"
	CodeInvalidInput       ErrorCode = "INVALID_INPUT"
	CodeUnknownAction      ErrorCode = "UNKNOWN_ACTION"
	CodeUnsupportedVersion ErrorCode = "UNSUPPORTED_VERSION"
	CodeConfigLoad         ErrorCode = "CONFIG_LOAD"
	CodeTransport          ErrorCode = "TRANSPORT"
	CodeMalformedResponse  ErrorCode = "MALFORMED_RESPONSE"
	CodeActionFailed       ErrorCode = "ACTION_FAILED"
	CodeCircuitOpen        ErrorCode = "CIRCUIT_OPEN"
	CodeLaunchFailed       ErrorCode = "LAUNCH_FAILED"
	CodeLaunchUnavailable  ErrorCode = "LAUNCH_UNAVAILABLE"
)

// errorCodes is ordered so that the most specific sentinel wins when an error
// chain carries several (a joined launch failure also carries ErrTransport).
var errorCodes = []struct {
	err  error
	code ErrorCode
}{
	{ErrMalformedResponse, CodeMalformedResponse},
	{ErrLaunchFailed, CodeLaunchFailed},
	{ErrLaunchUnavailable, CodeLaunchUnavailable},
	{ErrCircuitOpen, CodeCircuitOpen},
	{ErrTransport, CodeTransport},
	{ErrActionFailed, CodeActionFailed},
	{ErrUnsupportedVersion, CodeUnsupportedVersion},
	{ErrUnknownAction, CodeUnknownAction},
	{ErrInvalidInput, CodeInvalidInput},
	{ErrConfigLoad, CodeConfigLoad},
}

// ErrorCodeOf returns the machine-parseable error code for the given error.
// Returns CodeUnknown if no matching sentinel is found.
func ErrorCodeOf(err error) ErrorCode {
	if err == nil {
		return CodeUnknown
	}
	for _, ec := range errorCodes {
		if errors.Is(err, ec.err) {
			return ec.code
		}
	}
	return CodeUnknown
}

// Code returns the ErrorCode for this DomainError's underlying sentinel.
func (e *DomainError) Code() ErrorCode {
	return ErrorCodeOf(e.Err)
}
