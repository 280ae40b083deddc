// Package uxerror translates raw errors into user-friendly messages with
// recovery hints for the CLI and the deck browser.
package uxerror

import (
	"errors"
	"fmt"
	"strings"

	"yanki-connect/internal/adapter/tui/theme"
	"yanki-connect/internal/domain"
)

// FriendlyError is a user-facing error with suggestions for recovery.
type FriendlyError struct {
	Title   string   // short heading, e.g. "Anki Not Reachable"
	Message string   // one-liner explanation
	Hints   []string // actionable recovery suggestions
	Raw     string   // original error text (for debug)
}

// Render formats the FriendlyError as plain indented text.
func (fe FriendlyError) Render() string {
	var sb strings.Builder
	sb.WriteString(fe.Title)
	if fe.Message != "" {
		sb.WriteString("\n  ")
		sb.WriteString(fe.Message)
	}
	if len(fe.Hints) > 0 {
		sb.WriteString("\n  Suggestions:")
		for _, h := range fe.Hints {
			sb.WriteString(fmt.Sprintf("\n    %s %s", theme.SymbolBullet, h))
		}
	}
	return sb.String()
}

type errorPattern struct {
	match   func(err error) bool
	produce func(err error) FriendlyError
}

// patterns are checked in order. Launch failures come before transport since a
// failed launch is joined with the transport error that triggered it.
var patterns = []errorPattern{
	{
		match: func(err error) bool { return errors.Is(err, domain.ErrLaunchFailed) },
		produce: constantError("Anki Did Not Start",
			"Anki was not reachable and starting it failed.",
			[]string{"Start Anki by hand", "Check launch.app_path in config"}),
	},
	{
		match: func(err error) bool { return errors.Is(err, domain.ErrCircuitOpen) },
		produce: constantError("Requests Paused",
			"Too many recent requests failed, so new ones are rejected for a while.",
			[]string{"Wait for breaker.timeout to pass", "Check that Anki is running"}),
	},
	{
		match: func(err error) bool { return errors.Is(err, domain.ErrMalformedResponse) },
		produce: constantError("Unexpected Response",
			"The service answered, but not with an AnkiConnect envelope.",
			[]string{"Check that anki.host and anki.port point at AnkiConnect", "Update the AnkiConnect add-on"}),
	},
	{
		match: func(err error) bool { return errors.Is(err, domain.ErrTransport) },
		produce: func(err error) FriendlyError {
			fe := FriendlyError{
				Title:   "Anki Not Reachable",
				Message: "Could not talk to AnkiConnect.",
				Hints:   []string{"Start Anki and check the AnkiConnect add-on is installed", "Set anki.auto_launch to on-demand"},
				Raw:     err.Error(),
			}
			if containsAny("deadline exceeded", "timeout")(err) {
				fe.Title = "Request Timed Out"
				fe.Message = "AnkiConnect did not answer in time."
				fe.Hints = []string{"Increase transport.resp_timeout in config", "Close any modal dialog open in Anki"}
			}
			return fe
		},
	},
	{
		match: func(err error) bool { return errors.Is(err, domain.ErrUnknownAction) },
		produce: constantError("Unknown Action",
			"The action is not in the catalog.",
			[]string{"Run 'yanki actions' to list the known actions"}),
	},
	{
		match: func(err error) bool { return errors.Is(err, domain.ErrUnsupportedVersion) },
		produce: constantError("Unsupported Version",
			"Only AnkiConnect API version 6 is supported.",
			[]string{"Set anki.version to 6"}),
	},
	{
		match: func(err error) bool { return errors.Is(err, domain.ErrConfigLoad) },
		produce: constantError("Config Error",
			"The config file could not be loaded.",
			[]string{"Run 'yanki doctor' to check the setup"}),
	},

	// In-band error texts reported by AnkiConnect.
	{
		match: containsAny("valid api key must be provided"),
		produce: constantError("API Key Rejected",
			"AnkiConnect requires an API key and the one sent was missing or wrong.",
			[]string{"Set anki.key or YANKI_KEY", "Run 'yanki doctor' to check the key"}),
	},
	{
		match: containsAny("collection is not available"),
		produce: constantError("Collection Not Loaded",
			"Anki is running but no profile is open yet.",
			[]string{"Open a profile in Anki", "Try again in a few seconds"}),
	},
	{
		match: func(err error) bool { return errors.Is(err, domain.ErrActionFailed) },
		produce: func(err error) FriendlyError {
			return FriendlyError{
				Title:   "Action Failed",
				Message: err.Error(),
				Hints:   []string{"Check the params against the AnkiConnect docs"},
				Raw:     err.Error(),
			}
		},
	},
}

// Humanize converts a raw error into a FriendlyError with recovery hints.
func Humanize(err error) FriendlyError {
	if err == nil {
		return FriendlyError{Title: "Unknown Error", Raw: "nil"}
	}

	for _, p := range patterns {
		if p.match(err) {
			return p.produce(err)
		}
	}

	return FriendlyError{
		Title:   "Unexpected Error",
		Message: err.Error(),
		Hints:   []string{"Try again", "Set YANKI_LOGGER_LEVEL=debug for more details"},
		Raw:     err.Error(),
	}
}

// containsAny returns a match func that checks if the error string contains
// any of the given substrings (case-insensitive).
func containsAny(substrs ...string) func(error) bool {
	return func(err error) bool {
		lower := strings.ToLower(err.Error())
		for _, s := range substrs {
			if strings.Contains(lower, s) {
				return true
			}
		}
		return false
	}
}

func constantError(title, message string, hints []string) func(error) FriendlyError {
	return func(err error) FriendlyError {
		return FriendlyError{
			Title:   title,
			Message: message,
			Hints:   hints,
			Raw:     err.Error(),
		}
	}
}
