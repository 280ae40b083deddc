package main

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"testing"

	"yanki-connect/internal/infra/config"
)

type ankiRequest struct {
	Action  string          `json:"action"`
	Params  json.RawMessage `json:"params"`
	Version int             `json:"version"`
	Key     string          `json:"key"`
}

// newAnkiServer answers every request with reply(req) and returns a config
// pointing at it.
func newAnkiServer(t *testing.T, reply func(req ankiRequest) string) (*config.Config, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		if err != nil {
			t.Errorf("read body: %v", err)
			return
		}
		var req ankiRequest
		if err := json.Unmarshal(body, &req); err != nil {
			t.Errorf("decode request: %v", err)
			return
		}
		_, _ = io.WriteString(w, reply(req))
	}))
	t.Cleanup(srv.Close)
	return serverConfig(t, srv.URL), srv
}

func serverConfig(t *testing.T, rawURL string) *config.Config {
	t.Helper()
	u, err := url.Parse(rawURL)
	if err != nil {
		t.Fatal(err)
	}
	port, err := strconv.Atoi(u.Port())
	if err != nil {
		t.Fatal(err)
	}
	cfg := config.Defaults()
	cfg.Anki.Host = "http://" + u.Hostname()
	cfg.Anki.Port = port
	cfg.Anki.RetryDelay = 0
	return cfg
}
