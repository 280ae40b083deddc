package main

import (
	"bytes"
	"context"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"yanki-connect/internal/infra/config"
)

func TestCheckConfigFile_NotFound(t *testing.T) {
	fn := checkConfigFile("/nonexistent/path/config.yaml", nil)
	result := fn(context.Background(), nil)
	if result.Status != StatusWarn {
		t.Errorf("expected WARN for missing config, got %s", result.Status)
	}
}

func TestCheckConfigFile_LoadError(t *testing.T) {
	fn := checkConfigFile("config.yaml", &config.ValidationError{Errors: []string{"anki.port: must be 1-65535"}})
	result := fn(context.Background(), nil)
	if result.Status != StatusFail {
		t.Errorf("expected FAIL for load error, got %s", result.Status)
	}
	if result.Fix == "" {
		t.Error("expected fix suggestion for load error")
	}
}

func TestCheckConfigFile_Valid(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(cfgPath, []byte("anki:\n  port: 8765\n"), 0600); err != nil {
		t.Fatal(err)
	}

	result := checkConfigFile(cfgPath, nil)(context.Background(), nil)
	if result.Status != StatusPass {
		t.Errorf("expected PASS for valid config, got %s: %s", result.Status, result.Message)
	}
}

func TestCheckAutoLaunch(t *testing.T) {
	if r := checkAutoLaunch(context.Background(), nil); r.Status != StatusFail {
		t.Errorf("nil config: got %s", r.Status)
	}

	cfg := config.Defaults()
	if r := checkAutoLaunch(context.Background(), cfg); r.Status != StatusPass {
		t.Errorf("never: got %s: %s", r.Status, r.Message)
	}

	cfg.Anki.AutoLaunch = "sometimes"
	if r := checkAutoLaunch(context.Background(), cfg); r.Status != StatusFail {
		t.Errorf("bad policy: got %s", r.Status)
	}
}

func TestCheckConnectivity_Reachable(t *testing.T) {
	cfg, _ := newAnkiServer(t, func(req ankiRequest) string {
		if req.Action != "version" {
			t.Errorf("action = %q, want version", req.Action)
		}
		return `{"result":6,"error":null}`
	})

	result := checkConnectivity()(context.Background(), cfg)
	if result.Status != StatusPass {
		t.Errorf("expected PASS, got %s: %s", result.Status, result.Message)
	}
	if !strings.Contains(result.Message, "version 6") {
		t.Errorf("message = %q", result.Message)
	}
}

func TestCheckConnectivity_OldServer(t *testing.T) {
	cfg, _ := newAnkiServer(t, func(ankiRequest) string {
		return `{"result":5,"error":null}`
	})

	result := checkConnectivity()(context.Background(), cfg)
	if result.Status != StatusWarn {
		t.Errorf("expected WARN for old server, got %s: %s", result.Status, result.Message)
	}
}

func TestCheckConnectivity_InBandError(t *testing.T) {
	cfg, _ := newAnkiServer(t, func(ankiRequest) string {
		return `{"result":null,"error":"valid api key must be provided"}`
	})

	result := checkConnectivity()(context.Background(), cfg)
	if result.Status != StatusWarn {
		t.Errorf("expected WARN, got %s: %s", result.Status, result.Message)
	}
}

func TestCheckConnectivity_Unreachable(t *testing.T) {
	srv := httptest.NewServer(nil)
	cfg := serverConfig(t, srv.URL)
	srv.Close()

	result := checkConnectivity()(context.Background(), cfg)
	if result.Status != StatusFail {
		t.Errorf("expected FAIL, got %s: %s", result.Status, result.Message)
	}
	if result.Fix == "" {
		t.Error("expected fix suggestion")
	}
}

func TestCheckPermission(t *testing.T) {
	tests := []struct {
		name  string
		reply string
		key   string
		want  CheckStatus
	}{
		{"no key needed", `{"result":{"permission":"granted","requireApiKey":false,"version":6},"error":null}`, "", StatusPass},
		{"key configured", `{"result":{"permission":"granted","requireApiKey":true,"version":6},"error":null}`, "secret", StatusPass},
		{"key missing", `{"result":{"permission":"granted","requireApiKey":true,"version":6},"error":null}`, "", StatusFail},
		{"denied", `{"result":{"permission":"denied"},"error":null}`, "", StatusFail},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, _ := newAnkiServer(t, func(req ankiRequest) string {
				if req.Action != "requestPermission" {
					t.Errorf("action = %q", req.Action)
				}
				return tt.reply
			})
			cfg.Anki.Key = tt.key

			result := checkPermission()(context.Background(), cfg)
			if result.Status != tt.want {
				t.Errorf("got %s: %s, want %s", result.Status, result.Message, tt.want)
			}
		})
	}
}

func TestCheckKeyStorage(t *testing.T) {
	t.Setenv("YANKI_CONFIG_KEY", "")

	cfg := config.Defaults()
	if r := checkKeyStorage(context.Background(), cfg); r.Status != StatusPass {
		t.Errorf("no key: got %s", r.Status)
	}

	cfg.Anki.Key = "plain"
	if r := checkKeyStorage(context.Background(), cfg); r.Status != StatusWarn {
		t.Errorf("plain key: got %s", r.Status)
	}

	cfg.Anki.Key = "enc:abcdef"
	if r := checkKeyStorage(context.Background(), cfg); r.Status != StatusFail {
		t.Errorf("undecrypted key: got %s", r.Status)
	}

	t.Setenv("YANKI_CONFIG_KEY", "passphrase")
	cfg.Anki.Key = "decrypted"
	if r := checkKeyStorage(context.Background(), cfg); r.Status != StatusPass {
		t.Errorf("decrypted key: got %s", r.Status)
	}
}

func TestDoctorSummary(t *testing.T) {
	pass := Check{Name: "ok", Fn: func(context.Context, *config.Config) CheckResult {
		return CheckResult{Status: StatusPass, Message: "fine"}
	}}
	warn := Check{Name: "meh", Fn: func(context.Context, *config.Config) CheckResult {
		return CheckResult{Status: StatusWarn, Message: "hmm", Fix: "do something"}
	}}
	fail := Check{Name: "bad", Fn: func(context.Context, *config.Config) CheckResult {
		return CheckResult{Status: StatusFail, Message: "broken"}
	}}

	var out bytes.Buffer
	if err := doctor(context.Background(), &out, nil, []Check{pass}); err != nil {
		t.Fatalf("doctor: %v", err)
	}
	if !strings.Contains(out.String(), "All checks passed.") {
		t.Errorf("output = %q", out.String())
	}

	out.Reset()
	if err := doctor(context.Background(), &out, nil, []Check{pass, warn}); err != nil {
		t.Fatalf("doctor with warning: %v", err)
	}
	for _, want := range []string{"[WARN] meh: hmm", "Fix: do something", "1 passed, 1 warnings, 0 failed"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("output missing %q:\n%s", want, out.String())
		}
	}

	out.Reset()
	err := doctor(context.Background(), &out, nil, []Check{pass, warn, fail})
	if err == nil {
		t.Fatal("expected error when a check fails")
	}
	if !strings.Contains(out.String(), "[FAIL] bad: broken") {
		t.Errorf("output = %q", out.String())
	}
}

func TestDoctorChecksAgainstServer(t *testing.T) {
	cfg, _ := newAnkiServer(t, func(req ankiRequest) string {
		switch req.Action {
		case "version":
			return `{"result":6,"error":null}`
		case "requestPermission":
			return `{"result":{"permission":"granted","requireApiKey":false,"version":6},"error":null}`
		}
		return `{"result":null,"error":"unsupported action"}`
	})
	t.Setenv("YANKI_CONFIG_KEY", "")

	var out bytes.Buffer
	checks := doctorChecks(filepath.Join(t.TempDir(), "missing.yaml"), nil)
	if err := doctor(context.Background(), &out, cfg, checks); err != nil {
		t.Fatalf("doctor: %v\n%s", err, out.String())
	}
	if !strings.Contains(out.String(), "4 passed, 1 warnings, 0 failed") {
		t.Errorf("output = %s", out.String())
	}
}

func TestStatusIcon(t *testing.T) {
	if got := statusIcon(CheckStatus("?")); got != "[????]" {
		t.Errorf("statusIcon(?) = %q", got)
	}
	if got := statusIcon(StatusPass); got != "[PASS]" {
		t.Errorf("statusIcon(PASS) = %q", got)
	}
}
