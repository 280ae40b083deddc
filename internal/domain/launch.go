package domain

import (
	"fmt"
	"strings"
)

// AutoLaunch governs whether the client tries to start the desktop app when the
// service looks unreachable.
type AutoLaunch string

const (
	// AutoLaunchNever never starts the app; requests fail until it is running.
	AutoLaunchNever AutoLaunch = "never"
	// AutoLaunchOnDemand starts the app when a request finds it unavailable.
	AutoLaunchOnDemand AutoLaunch = "on-demand"
	// AutoLaunchImmediately behaves like on-demand and also makes one
	// fire-and-forget attempt when the client is constructed.
	AutoLaunchImmediately AutoLaunch = "immediately"
)

// Enabled reports whether the policy allows any launch attempt.
func (a AutoLaunch) Enabled() bool {
	return a == AutoLaunchOnDemand || a == AutoLaunchImmediately
}

// ParseAutoLaunch accepts the policy names plus the boolean spellings used by
// older configs ("true" means on-demand). Empty means never.
func ParseAutoLaunch(s string) (AutoLaunch, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "never", "false", "off":
		return AutoLaunchNever, nil
	case "on-demand", "ondemand", "true", "on":
		return AutoLaunchOnDemand, nil
	case "immediately":
		return AutoLaunchImmediately, nil
	default:
		return "", fmt.Errorf("%w: auto_launch %q (want never, on-demand or immediately)", ErrInvalidInput, s)
	}
}
