package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"yanki-connect/internal/domain"
	"yanki-connect/internal/infra/config"
	"yanki-connect/internal/infra/logger"
	"yanki-connect/pkg/ankiconnect"
	"yanki-connect/pkg/launcher"
)

// CheckStatus represents the result of a health check.
type CheckStatus string

const (
	StatusPass CheckStatus = "PASS"
	StatusWarn CheckStatus = "WARN"
	StatusFail CheckStatus = "FAIL"
)

// CheckResult holds the outcome of a single health check.
type CheckResult struct {
	Name    string
	Status  CheckStatus
	Message string
	Fix     string // optional fix suggestion
}

// Check is a named health check function.
type Check struct {
	Name string
	Fn   func(ctx context.Context, cfg *config.Config) CheckResult
}

const checkTimeout = 10 * time.Second

func runDoctor(ctx context.Context, out io.Writer) error {
	cfgPath := configPath()

	// Some checks work without a config.
	cfg, cfgErr := config.Load(cfgPath)

	return doctor(ctx, out, cfg, doctorChecks(cfgPath, cfgErr))
}

// doctorChecks lists the checks in display order. extra is appended to the
// options of the probe client.
func doctorChecks(cfgPath string, cfgErr error, extra ...ankiconnect.Option) []Check {
	return []Check{
		{Name: "Config file", Fn: checkConfigFile(cfgPath, cfgErr)},
		{Name: "Auto-launch", Fn: checkAutoLaunch},
		{Name: "AnkiConnect", Fn: checkConnectivity(extra...)},
		{Name: "API key", Fn: checkPermission(extra...)},
		{Name: "Key storage", Fn: checkKeyStorage},
	}
}

func doctor(ctx context.Context, out io.Writer, cfg *config.Config, checks []Check) error {
	fmt.Fprintln(out, "yanki doctor")
	fmt.Fprintln(out, strings.Repeat("=", 50))
	fmt.Fprintln(out)

	var pass, warn, fail int
	for _, check := range checks {
		result := check.Fn(ctx, cfg)
		result.Name = check.Name

		fmt.Fprintf(out, "  %s %s: %s\n", statusIcon(result.Status), result.Name, result.Message)
		if result.Fix != "" {
			fmt.Fprintf(out, "      Fix: %s\n", result.Fix)
		}

		switch result.Status {
		case StatusPass:
			pass++
		case StatusWarn:
			warn++
		case StatusFail:
			fail++
		}
	}

	fmt.Fprintln(out)
	fmt.Fprintln(out, strings.Repeat("-", 50))
	fmt.Fprintf(out, "Results: %d passed, %d warnings, %d failed\n", pass, warn, fail)

	if fail > 0 {
		fmt.Fprintln(out, "\nFix the FAIL issues above before using yanki.")
		return fmt.Errorf("%d check(s) failed", fail)
	}
	if warn > 0 {
		fmt.Fprintln(out, "\nyanki should work, but consider addressing the warnings.")
	} else {
		fmt.Fprintln(out, "\nAll checks passed.")
	}
	return nil
}

func statusIcon(s CheckStatus) string {
	switch s {
	case StatusPass:
		return "[PASS]"
	case StatusWarn:
		return "[WARN]"
	case StatusFail:
		return "[FAIL]"
	default:
		return "[????]"
	}
}

var noConfig = CheckResult{Status: StatusFail, Message: "cannot check, config not loaded"}

// checkConfigFile reports whether the config file exists and parses. A
// missing file only warns since the defaults are usable.
func checkConfigFile(cfgPath string, cfgErr error) func(context.Context, *config.Config) CheckResult {
	return func(context.Context, *config.Config) CheckResult {
		if cfgErr != nil {
			return CheckResult{
				Status:  StatusFail,
				Message: fmt.Sprintf("config error: %v", cfgErr),
				Fix:     fmt.Sprintf("Check the syntax and permissions of %s", cfgPath),
			}
		}
		if _, err := os.Stat(cfgPath); os.IsNotExist(err) {
			return CheckResult{
				Status:  StatusWarn,
				Message: fmt.Sprintf("no config at %s, using defaults", cfgPath),
			}
		}
		return CheckResult{
			Status:  StatusPass,
			Message: fmt.Sprintf("config loaded from %s", cfgPath),
		}
	}
}

func checkAutoLaunch(_ context.Context, cfg *config.Config) CheckResult {
	if cfg == nil {
		return noConfig
	}
	policy, err := domain.ParseAutoLaunch(cfg.Anki.AutoLaunch)
	if err != nil {
		return CheckResult{Status: StatusFail, Message: err.Error()}
	}
	if !policy.Enabled() {
		return CheckResult{Status: StatusPass, Message: "disabled; start Anki yourself"}
	}
	if starter := launcher.Detect(cfg.Launch.AppPath); !starter.Supported() {
		return CheckResult{
			Status:  StatusWarn,
			Message: fmt.Sprintf("policy %s is not supported on this platform", policy),
			Fix:     "Set anki.auto_launch to never",
		}
	}
	return CheckResult{
		Status:  StatusPass,
		Message: fmt.Sprintf("policy %s, at most %d launches per session", policy, cfg.Launch.SessionCap),
	}
}

// probeClient never launches the app so the checks observe the service as it is.
func probeClient(cfg *config.Config, extra ...ankiconnect.Option) (*ankiconnect.Client, error) {
	opts := append([]ankiconnect.Option{ankiconnect.WithAutoLaunch(domain.AutoLaunchNever)}, extra...)
	return buildClient(cfg, logger.Discard(), opts...)
}

func checkConnectivity(extra ...ankiconnect.Option) func(context.Context, *config.Config) CheckResult {
	return func(ctx context.Context, cfg *config.Config) CheckResult {
		if cfg == nil {
			return noConfig
		}
		client, err := probeClient(cfg, extra...)
		if err != nil {
			return CheckResult{Status: StatusFail, Message: err.Error()}
		}

		ctx, cancel := context.WithTimeout(ctx, checkTimeout)
		defer cancel()

		start := time.Now()
		version, err := client.Misc.Version(ctx)
		latency := time.Since(start)
		if err != nil {
			var actionErr *ankiconnect.ActionError
			if errors.As(err, &actionErr) {
				// The service answered, so it is reachable.
				return CheckResult{
					Status:  StatusWarn,
					Message: fmt.Sprintf("%s answered with an error: %s", client.Endpoint(), actionErr.Message),
				}
			}
			return CheckResult{
				Status:  StatusFail,
				Message: fmt.Sprintf("cannot reach %s: %v", client.Endpoint(), err),
				Fix:     "Start Anki and check that the AnkiConnect add-on is installed",
			}
		}
		if version < ankiconnect.SupportedVersion {
			return CheckResult{
				Status:  StatusWarn,
				Message: fmt.Sprintf("server speaks version %d, yanki expects %d", version, ankiconnect.SupportedVersion),
				Fix:     "Update the AnkiConnect add-on",
			}
		}
		return CheckResult{
			Status:  StatusPass,
			Message: fmt.Sprintf("version %d at %s (latency: %dms)", version, client.Endpoint(), latency.Milliseconds()),
		}
	}
}

func checkPermission(extra ...ankiconnect.Option) func(context.Context, *config.Config) CheckResult {
	return func(ctx context.Context, cfg *config.Config) CheckResult {
		if cfg == nil {
			return noConfig
		}
		client, err := probeClient(cfg, extra...)
		if err != nil {
			return CheckResult{Status: StatusFail, Message: err.Error()}
		}

		ctx, cancel := context.WithTimeout(ctx, checkTimeout)
		defer cancel()

		perm, err := client.Misc.RequestPermission(ctx)
		if err != nil {
			return CheckResult{Status: StatusWarn, Message: fmt.Sprintf("skipped: %v", err)}
		}
		if !perm.Granted() {
			return CheckResult{
				Status:  StatusFail,
				Message: "AnkiConnect denied this origin",
				Fix:     "Add the origin to webCorsOriginList in the AnkiConnect add-on config",
			}
		}
		if perm.RequireAPIKey && cfg.Anki.Key == "" {
			return CheckResult{
				Status:  StatusFail,
				Message: "the server requires an API key and none is configured",
				Fix:     "Set anki.key or YANKI_KEY",
			}
		}
		if perm.RequireAPIKey {
			return CheckResult{Status: StatusPass, Message: "API key required and configured"}
		}
		return CheckResult{Status: StatusPass, Message: "no API key required"}
	}
}

func checkKeyStorage(_ context.Context, cfg *config.Config) CheckResult {
	if cfg == nil {
		return noConfig
	}
	key := cfg.Anki.Key
	switch {
	case key == "":
		return CheckResult{Status: StatusPass, Message: "no key stored"}
	case strings.HasPrefix(key, "enc:"):
		return CheckResult{
			Status:  StatusFail,
			Message: "key is encrypted but YANKI_CONFIG_KEY is not set",
			Fix:     "Export YANKI_CONFIG_KEY with the passphrase used by 'yanki encrypt'",
		}
	case os.Getenv("YANKI_CONFIG_KEY") == "":
		return CheckResult{
			Status:  StatusWarn,
			Message: "key is stored in plain text",
			Fix:     "Run 'yanki encrypt KEY' and store the enc: value instead",
		}
	default:
		return CheckResult{Status: StatusPass, Message: "key decrypted"}
	}
}
