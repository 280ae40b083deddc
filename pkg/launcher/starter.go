// Package launcher starts the Anki desktop app on behalf of the AnkiConnect
// client and bounds how often that may happen.
//
// The client never inspects the host platform itself. It receives a Starter
// (the capability to start the app) and a Throttle (the budget for using it):
//
//	starter := launcher.Detect(launcher.DefaultAppPath)
//	throttle := launcher.NewThrottle(starter, launcher.ThrottleConfig{}, logger)
//	if err := throttle.Attempt(ctx); err != nil {
//		logger.Warn("launch failed", "error", err)
//	}
package launcher

import (
	"context"
	"fmt"
	"os/exec"
	"strings"

	"yanki-connect/internal/domain"
)

// DefaultAppPath is where the macOS installer puts Anki.
const DefaultAppPath = "/Applications/Anki.app"

// Starter is the capability to start the desktop app in the background.
// Start must not block until the app exits and must not create a second
// instance when one is already running.
type Starter interface {
	// Supported reports whether Start can work on this host.
	Supported() bool
	Start(ctx context.Context) error
}

// commandRunner runs an external command to completion.
type commandRunner func(ctx context.Context, name string, args ...string) error

func runCommand(ctx context.Context, name string, args ...string) error {
	out, err := exec.CommandContext(ctx, name, args...).CombinedOutput()
	if err != nil {
		if msg := strings.TrimSpace(string(out)); msg != "" {
			return fmt.Errorf("%s: %w: %s", name, err, msg)
		}
		return fmt.Errorf("%s: %w", name, err)
	}
	return nil
}

// AppStarter opens a macOS application bundle with open(1). The -g flag keeps
// the app in the background and, without -n, an already running instance is
// reused.
type AppStarter struct {
	AppPath string
	run     commandRunner
}

// NewAppStarter returns an AppStarter for the given bundle path.
// An empty path means DefaultAppPath.
func NewAppStarter(appPath string) *AppStarter {
	if strings.TrimSpace(appPath) == "" {
		appPath = DefaultAppPath
	}
	return &AppStarter{AppPath: appPath, run: runCommand}
}

// Supported implements Starter.
func (s *AppStarter) Supported() bool { return true }

// Start implements Starter.
func (s *AppStarter) Start(ctx context.Context) error {
	run := s.run
	if run == nil {
		run = runCommand
	}
	if err := run(ctx, "open", "-g", "-a", s.AppPath); err != nil {
		return domain.NewDomainError("launcher.Start", domain.ErrLaunchFailed, err.Error())
	}
	return nil
}

// Unsupported is the Starter for hosts where the app cannot be started.
type Unsupported struct {
	Reason string
}

// Supported implements Starter.
func (u Unsupported) Supported() bool { return false }

// Start implements Starter. It always fails.
func (u Unsupported) Start(context.Context) error {
	return domain.NewDomainError("launcher.Start", domain.ErrLaunchUnavailable, u.Reason)
}

// Compile-time interface checks.
var (
	_ Starter = (*AppStarter)(nil)
	_ Starter = Unsupported{}
)
