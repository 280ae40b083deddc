package ankiconnect

import (
	"fmt"

	"yanki-connect/internal/domain"
)

// Sentinel errors, matchable with errors.Is.
var (
	ErrInvalidInput       = domain.ErrInvalidInput
	ErrUnknownAction      = domain.ErrUnknownAction
	ErrUnsupportedVersion = domain.ErrUnsupportedVersion
	ErrTransport          = domain.ErrTransport
	ErrMalformedResponse  = domain.ErrMalformedResponse
	ErrActionFailed       = domain.ErrActionFailed
	ErrCircuitOpen        = domain.ErrCircuitOpen
	ErrLaunchFailed       = domain.ErrLaunchFailed
	ErrLaunchUnavailable  = domain.ErrLaunchUnavailable
)

// ActionError is an in-band error reported by AnkiConnect in the envelope's
// error field.
type ActionError struct {
	Action  string
	Message string
}

func (e *ActionError) Error() string {
	return fmt.Sprintf("%s: %s", e.Action, e.Message)
}

// Unwrap makes errors.Is(err, ErrActionFailed) hold.
func (e *ActionError) Unwrap() error { return domain.ErrActionFailed }
