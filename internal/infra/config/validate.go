package config

import (
	"fmt"
	"net/url"
	"strings"

	"yanki-connect/internal/domain"
)

// ValidationError accumulates config validation errors.
type ValidationError struct {
	Errors []string
}

func (v *ValidationError) Error() string {
	return "config validation failed:\n  - " + strings.Join(v.Errors, "\n  - ")
}

// Unwrap lets errors.Is(err, domain.ErrConfigLoad) match validation failures.
func (v *ValidationError) Unwrap() error { return domain.ErrConfigLoad }

// HasErrors reports whether any validation errors have been recorded.
func (v *ValidationError) HasErrors() bool {
	return len(v.Errors) > 0
}

// Add records a formatted validation error.
func (v *ValidationError) Add(format string, args ...interface{}) {
	v.Errors = append(v.Errors, fmt.Sprintf(format, args...))
}

// Validate checks cfg for structural correctness. It returns a *ValidationError
// when one or more problems are found, allowing callers to inspect all issues.
func Validate(cfg *Config) error {
	ve := &ValidationError{}
	validateAnki(cfg, ve)
	validateLaunch(cfg, ve)
	validateTransport(cfg, ve)
	validateLogger(cfg, ve)
	validateTracer(cfg, ve)
	validateScheduler(cfg, ve)
	if ve.HasErrors() {
		return ve
	}
	return nil
}

func validateAnki(cfg *Config, ve *ValidationError) {
	a := cfg.Anki
	host := strings.TrimSpace(a.Host)
	if host == "" {
		ve.Add("anki.host is required")
	} else {
		if !strings.Contains(host, "://") {
			host = "http://" + host
		}
		if u, err := url.Parse(host); err != nil || u.Host == "" {
			ve.Add("anki.host %q is not a valid URL", a.Host)
		}
	}
	if a.Port <= 0 || a.Port > 65535 {
		ve.Add("anki.port must be between 1 and 65535, got %d", a.Port)
	}
	// Only AnkiConnect API version 6 is supported.
	if a.Version != 6 {
		ve.Add("anki.version must be 6, got %d", a.Version)
	}
	if _, err := domain.ParseAutoLaunch(a.AutoLaunch); err != nil {
		ve.Add("anki.auto_launch %q must be never, on-demand or immediately", a.AutoLaunch)
	}
	if a.RetryDelay < 0 {
		ve.Add("anki.retry_delay must not be negative")
	}
	if strings.HasPrefix(a.Key, "enc:") {
		ve.Add("anki.key is encrypted but YANKI_CONFIG_KEY is not set")
	}
}

func validateLaunch(cfg *Config, ve *ValidationError) {
	if cfg.Launch.Cooldown < 0 {
		ve.Add("launch.cooldown must not be negative")
	}
	if cfg.Launch.SessionCap < 0 {
		ve.Add("launch.session_cap must not be negative")
	}
}

func validateTransport(cfg *Config, ve *ValidationError) {
	if cfg.Transport.ConnTimeout < 0 {
		ve.Add("transport.conn_timeout must not be negative")
	}
	if cfg.Transport.RespTimeout < 0 {
		ve.Add("transport.resp_timeout must not be negative")
	}
}

func validateLogger(cfg *Config, ve *ValidationError) {
	switch strings.ToLower(cfg.Logger.Format) {
	case "", "text", "json":
	default:
		ve.Add("logger.format %q must be text or json", cfg.Logger.Format)
	}
}

func validateTracer(cfg *Config, ve *ValidationError) {
	if !cfg.Tracer.Enabled {
		return
	}
	switch cfg.Tracer.Exporter {
	case "", "noop", "stdout":
	default:
		ve.Add("tracer.exporter %q is not supported (want noop or stdout)", cfg.Tracer.Exporter)
	}
}

func validateScheduler(cfg *Config, ve *ValidationError) {
	if !cfg.Scheduler.Enabled {
		return
	}
	seen := make(map[string]bool, len(cfg.Scheduler.Tasks))
	for i, task := range cfg.Scheduler.Tasks {
		if task.Name == "" {
			ve.Add("scheduler.tasks[%d].name is required", i)
		} else if seen[task.Name] {
			ve.Add("scheduler.tasks[%d].name %q is duplicated", i, task.Name)
		}
		seen[task.Name] = true
		if task.Schedule == "" {
			ve.Add("scheduler.tasks[%d].schedule is required", i)
		}
		if task.Action == "" {
			ve.Add("scheduler.tasks[%d].action is required", i)
		}
	}
}
