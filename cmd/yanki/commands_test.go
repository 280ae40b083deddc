package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"yanki-connect/internal/domain"
	"yanki-connect/internal/infra/config"
	"yanki-connect/internal/infra/logger"
	"yanki-connect/pkg/ankiconnect"
)

// recorder keeps the requests seen by a fake AnkiConnect server.
type recorder struct {
	mu   sync.Mutex
	reqs []ankiRequest
}

func (r *recorder) add(req ankiRequest) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reqs = append(r.reqs, req)
}

func (r *recorder) last(t *testing.T) ankiRequest {
	t.Helper()
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.reqs) == 0 {
		t.Fatal("no requests recorded")
	}
	return r.reqs[len(r.reqs)-1]
}

func newTestClient(t *testing.T, reply string) (*ankiconnect.Client, *recorder) {
	t.Helper()
	rec := &recorder{}
	cfg, _ := newAnkiServer(t, func(req ankiRequest) string {
		rec.add(req)
		return reply
	})
	client, err := buildClient(cfg, logger.Discard())
	if err != nil {
		t.Fatalf("buildClient: %v", err)
	}
	return client, rec
}

func TestInvokeParameterless(t *testing.T) {
	client, rec := newTestClient(t, `{"result":["Default"],"error":null}`)

	var out bytes.Buffer
	if err := invoke(context.Background(), client, []string{"deckNames"}, nil, &out); err != nil {
		t.Fatalf("invoke: %v", err)
	}

	req := rec.last(t)
	if req.Action != "deckNames" || req.Version != 6 {
		t.Errorf("request = %+v", req)
	}
	if len(req.Params) != 0 {
		t.Errorf("params = %s, want none", req.Params)
	}

	var env ankiconnect.Envelope
	if err := json.Unmarshal(out.Bytes(), &env); err != nil {
		t.Fatalf("output is not an envelope: %v\n%s", err, out.String())
	}
	var names []string
	if err := json.Unmarshal(env.Result, &names); err != nil {
		t.Fatalf("result: %v", err)
	}
	if len(names) != 1 || names[0] != "Default" {
		t.Errorf("result = %v", names)
	}
}

func TestInvokeWithParams(t *testing.T) {
	client, rec := newTestClient(t, `{"result":[1498938915662],"error":null}`)

	var out bytes.Buffer
	err := invoke(context.Background(), client, []string{"findCards", `{"query":"deck:current"}`}, nil, &out)
	if err != nil {
		t.Fatalf("invoke: %v", err)
	}

	var params map[string]string
	if err := json.Unmarshal(rec.last(t).Params, &params); err != nil {
		t.Fatalf("params: %v", err)
	}
	if params["query"] != "deck:current" {
		t.Errorf("params = %v", params)
	}
}

func TestInvokeParamsFromStdin(t *testing.T) {
	client, rec := newTestClient(t, `{"result":true,"error":null}`)

	stdin := strings.NewReader("  {\"deck\":\"Spanish\"}\n")
	if err := invoke(context.Background(), client, []string{"changeDeck", "-"}, stdin, &bytes.Buffer{}); err != nil {
		t.Fatalf("invoke: %v", err)
	}
	if got := string(rec.last(t).Params); got != `{"deck":"Spanish"}` {
		t.Errorf("params = %s", got)
	}
}

func TestInvokeOptionalParams(t *testing.T) {
	client, rec := newTestClient(t, `{"result":{"scopes":[],"actions":[]},"error":null}`)

	if err := invoke(context.Background(), client, []string{"apiReflect"}, nil, &bytes.Buffer{}); err != nil {
		t.Fatalf("invoke: %v", err)
	}
	if got := string(rec.last(t).Params); got != "{}" {
		t.Errorf("params = %q, want {}", got)
	}
}

func TestInvokeInBandError(t *testing.T) {
	client, _ := newTestClient(t, `{"result":null,"error":"deck was not found"}`)

	var out bytes.Buffer
	err := invoke(context.Background(), client, []string{"getDeckConfig", `{"deck":"Nope"}`}, nil, &out)
	if !errors.Is(err, ankiconnect.ErrActionFailed) {
		t.Fatalf("error = %v, want ErrActionFailed", err)
	}
	if !strings.Contains(out.String(), "deck was not found") {
		t.Errorf("envelope not printed: %q", out.String())
	}
}

func TestInvokeBadArguments(t *testing.T) {
	client, _ := newTestClient(t, `{"result":null,"error":null}`)

	tests := []struct {
		name string
		args []string
		want error
	}{
		{"no action", nil, domain.ErrInvalidInput},
		{"too many", []string{"sync", "{}", "{}"}, domain.ErrInvalidInput},
		{"bad json", []string{"findCards", "{query"}, domain.ErrInvalidInput},
		{"unknown action", []string{"listNames"}, domain.ErrUnknownAction},
		{"params on bare action", []string{"sync", "{}"}, domain.ErrInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := invoke(context.Background(), client, tt.args, nil, &bytes.Buffer{})
			if !errors.Is(err, tt.want) {
				t.Errorf("error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestRunActions(t *testing.T) {
	var out bytes.Buffer
	if err := runActions(nil, &out); err != nil {
		t.Fatalf("runActions: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != len(ankiconnect.Actions())+1 {
		t.Errorf("got %d lines, want header plus %d actions", len(lines), len(ankiconnect.Actions()))
	}
	if fields := strings.Fields(lines[0]); strings.Join(fields, " ") != "ACTION GROUP PARAMS" {
		t.Errorf("header = %q", lines[0])
	}
}

func TestRunActionsGroup(t *testing.T) {
	var out bytes.Buffer
	if err := runActions([]string{"Model"}, &out); err != nil {
		t.Fatalf("runActions: %v", err)
	}
	got := out.String()
	if !strings.Contains(got, "modelNames") {
		t.Errorf("missing modelNames:\n%s", got)
	}
	if strings.Contains(got, "deckNames") {
		t.Errorf("deck action listed under model:\n%s", got)
	}
	for _, line := range strings.Split(strings.TrimSpace(got), "\n")[1:] {
		fields := strings.Fields(line)
		if fields[0] == "modelNames" && fields[2] != "-" {
			t.Errorf("modelNames params column = %q, want -", fields[2])
		}
	}

	err := runActions([]string{"cards"}, &bytes.Buffer{})
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("bad group error = %v", err)
	}
}

type fakeSource struct {
	names []string
	stats map[string]ankiconnect.DeckStats
	err   error
}

func (f *fakeSource) DeckNames(context.Context) ([]string, error) {
	return f.names, f.err
}

func (f *fakeSource) GetDeckStats(context.Context, ...string) (map[string]ankiconnect.DeckStats, error) {
	return f.stats, f.err
}

func TestPrintDecks(t *testing.T) {
	src := &fakeSource{
		names: []string{"Spanish", "Default"},
		stats: map[string]ankiconnect.DeckStats{
			"1": {DeckID: 1, Name: "Default", NewCount: 3, LearnCount: 1, ReviewCount: 7, TotalInDeck: 40},
			"2": {DeckID: 2, Name: "Spanish", NewCount: 20, TotalInDeck: 500},
		},
	}

	var out bytes.Buffer
	if err := printDecks(context.Background(), src, &out); err != nil {
		t.Fatalf("printDecks: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("got %d lines:\n%s", len(lines), out.String())
	}
	if got := strings.Join(strings.Fields(lines[1]), " "); got != "Default 3 1 7 40" {
		t.Errorf("first row = %q", got)
	}
	if got := strings.Join(strings.Fields(lines[2]), " "); got != "Spanish 20 0 0 500" {
		t.Errorf("second row = %q", got)
	}
}

func TestPrintDecksEmptyAndError(t *testing.T) {
	var out bytes.Buffer
	if err := printDecks(context.Background(), &fakeSource{}, &out); err != nil {
		t.Fatalf("printDecks: %v", err)
	}
	if !strings.Contains(out.String(), "no decks") {
		t.Errorf("output = %q", out.String())
	}

	err := printDecks(context.Background(), &fakeSource{err: domain.ErrTransport}, &bytes.Buffer{})
	if !errors.Is(err, domain.ErrTransport) {
		t.Errorf("error = %v", err)
	}
}

func TestRunEncrypt(t *testing.T) {
	t.Setenv("YANKI_CONFIG_KEY", "")
	if err := runEncrypt([]string{"secret"}, &bytes.Buffer{}); !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("missing passphrase error = %v", err)
	}
	if err := runEncrypt(nil, &bytes.Buffer{}); !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("missing value error = %v", err)
	}

	t.Setenv("YANKI_CONFIG_KEY", "correct horse")
	var out bytes.Buffer
	if err := runEncrypt([]string{"secret"}, &out); err != nil {
		t.Fatalf("runEncrypt: %v", err)
	}
	enc := strings.TrimSpace(out.String())
	if !strings.HasPrefix(enc, "enc:") {
		t.Fatalf("output = %q", enc)
	}
	plain, err := config.DecryptValue(strings.TrimPrefix(enc, "enc:"), "correct horse")
	if err != nil {
		t.Fatalf("DecryptValue: %v", err)
	}
	if plain != "secret" {
		t.Errorf("round trip = %q", plain)
	}
}

func TestStripGlobalFlags(t *testing.T) {
	t.Cleanup(func() { configFlag = "" })

	got := stripGlobalFlags([]string{"--config", "/tmp/a.yaml", "invoke", "version"})
	if strings.Join(got, " ") != "invoke version" || configFlag != "/tmp/a.yaml" {
		t.Errorf("got %v, configFlag %q", got, configFlag)
	}

	got = stripGlobalFlags([]string{"decks", "--config=/tmp/b.yaml"})
	if strings.Join(got, " ") != "decks" || configFlag != "/tmp/b.yaml" {
		t.Errorf("got %v, configFlag %q", got, configFlag)
	}
	if configPath() != "/tmp/b.yaml" {
		t.Errorf("configPath = %q", configPath())
	}
}

func TestConfigPathFromEnv(t *testing.T) {
	configFlag = ""
	t.Setenv("YANKI_CONFIG", "/etc/yanki.yaml")
	if got := configPath(); got != "/etc/yanki.yaml" {
		t.Errorf("configPath = %q", got)
	}
	t.Setenv("YANKI_CONFIG", "")
	if got := configPath(); got != config.DefaultPath() {
		t.Errorf("configPath = %q, want default", got)
	}
}

func TestClientOptions(t *testing.T) {
	cfg := config.Defaults()
	opts, err := clientOptions(cfg, logger.Discard())
	if err != nil {
		t.Fatalf("clientOptions: %v", err)
	}

	cfg.Breaker.Enabled = true
	withBreaker, err := clientOptions(cfg, logger.Discard())
	if err != nil {
		t.Fatalf("clientOptions with breaker: %v", err)
	}
	if len(withBreaker) != len(opts)+1 {
		t.Errorf("breaker option not added: %d vs %d", len(withBreaker), len(opts))
	}

	cfg.Anki.AutoLaunch = "sometimes"
	if _, err := clientOptions(cfg, logger.Discard()); !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("bad auto_launch error = %v", err)
	}
}

func TestBuildClientUsesConfig(t *testing.T) {
	cfg := config.Defaults()
	cfg.Anki.Host = "localhost"
	cfg.Anki.Port = 9999
	client, err := buildClient(cfg, logger.Discard())
	if err != nil {
		t.Fatalf("buildClient: %v", err)
	}
	if got := client.Endpoint(); got != "http://localhost:9999" {
		t.Errorf("Endpoint = %q", got)
	}
	if client.Throttle().Remaining() != cfg.Launch.SessionCap {
		t.Errorf("Remaining = %d", client.Throttle().Remaining())
	}

	cfg.Anki.Version = 5
	if _, err := buildClient(cfg, logger.Discard()); !errors.Is(err, domain.ErrUnsupportedVersion) {
		t.Errorf("version 5 error = %v", err)
	}
}

func TestNewSchedulerFromConfig(t *testing.T) {
	client, _ := newTestClient(t, `{"result":null,"error":null}`)
	cfg := config.SchedulerConfig{
		Enabled: true,
		Tasks: []config.ScheduledTaskConfig{
			{Name: "nightly-sync", Schedule: "0 3 * * *", Action: "sync"},
			{Name: "stats", Schedule: "1h", Action: "getDeckStats", Params: map[string]any{"decks": []any{"Default"}}},
		},
	}
	s, err := newScheduler(client, cfg, logger.Discard())
	if err != nil {
		t.Fatalf("newScheduler: %v", err)
	}
	if n := len(s.Tasks()); n != 2 {
		t.Errorf("Tasks = %d, want 2", n)
	}

	cfg.Tasks = append(cfg.Tasks, config.ScheduledTaskConfig{Name: "bad", Schedule: "1h", Action: "nope"})
	if _, err := newScheduler(client, cfg, logger.Discard()); !errors.Is(err, domain.ErrUnknownAction) {
		t.Errorf("unknown action error = %v", err)
	}
}

func TestReportError(t *testing.T) {
	var out bytes.Buffer
	err := fmt.Errorf("ankiconnect.Invoke deckNames: %w", domain.ErrTransport)
	reportError(&out, "decks", err)

	got := out.String()
	if !strings.HasPrefix(got, "decks: [TRANSPORT] ") {
		t.Errorf("first line = %q", got)
	}
	if !strings.Contains(got, "auto_launch") {
		t.Errorf("missing recovery hint:\n%s", got)
	}
}
