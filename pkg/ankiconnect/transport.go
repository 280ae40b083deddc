package ankiconnect

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"
)

// maxResponseBody bounds how much of a response is read. Media actions return
// base64 payloads, so this is generous.
const maxResponseBody = 64 * 1024 * 1024

// TransportRequest is one POST to the AnkiConnect endpoint.
type TransportRequest struct {
	URL  string
	Body []byte
}

// TransportResponse is the raw reply. Status checking and envelope decoding
// are done by the Client so that every Transport is held to the same rules.
type TransportResponse struct {
	StatusCode int
	Body       []byte
}

// Transport performs the network exchange. Substitute it to test without a
// running Anki or to route requests elsewhere.
type Transport interface {
	Do(ctx context.Context, req *TransportRequest) (*TransportResponse, error)
}

// TransportFunc adapts a function to Transport.
type TransportFunc func(ctx context.Context, req *TransportRequest) (*TransportResponse, error)

// Do implements Transport.
func (f TransportFunc) Do(ctx context.Context, req *TransportRequest) (*TransportResponse, error) {
	return f(ctx, req)
}

// HTTPTransport posts requests with an *http.Client.
type HTTPTransport struct {
	client *http.Client
}

// NewHTTPTransport returns a Transport backed by client, or by a pooled
// client with default settings when client is nil.
func NewHTTPTransport(client *http.Client) *HTTPTransport {
	if client == nil {
		client = NewHTTPClient(HTTPConfig{})
	}
	return &HTTPTransport{client: client}
}

// Do implements Transport.
func (t *HTTPTransport) Do(ctx context.Context, req *TransportRequest) (*TransportResponse, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, req.URL, bytes.NewReader(req.Body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	httpResp, err := t.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer httpResp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(httpResp.Body, maxResponseBody))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	return &TransportResponse{StatusCode: httpResp.StatusCode, Body: body}, nil
}

// HTTPConfig configures the pooled client built by NewHTTPClient.
type HTTPConfig struct {
	ConnTimeout time.Duration
	RespTimeout time.Duration
	Pool        PoolConfig
}

// PoolConfig holds connection pool sizing.
type PoolConfig struct {
	MaxIdleConns        int
	MaxIdleConnsPerHost int
	MaxConnsPerHost     int
	IdleConnTimeout     time.Duration
}

// Defaults for a single local endpoint. The connect timeout is short because
// a refused or hanging connection means Anki is not up; the response timeout
// is long because actions like sync or exportPackage block until done.
const (
	defaultConnTimeout         = 5 * time.Second
	defaultRespTimeout         = 60 * time.Second
	defaultMaxIdleConns        = 4
	defaultMaxIdleConnsPerHost = 4
	defaultMaxConnsPerHost     = 8
	defaultIdleConnTimeout     = 90 * time.Second
)

// NewPooledTransport creates an http.Transport with connection pooling.
func NewPooledTransport(connTimeout, respTimeout time.Duration, pool PoolConfig) *http.Transport {
	if connTimeout <= 0 {
		connTimeout = defaultConnTimeout
	}
	if respTimeout <= 0 {
		respTimeout = defaultRespTimeout
	}
	maxIdle := pool.MaxIdleConns
	if maxIdle <= 0 {
		maxIdle = defaultMaxIdleConns
	}
	maxIdlePerHost := pool.MaxIdleConnsPerHost
	if maxIdlePerHost <= 0 {
		maxIdlePerHost = defaultMaxIdleConnsPerHost
	}
	maxConnsPerHost := pool.MaxConnsPerHost
	if maxConnsPerHost <= 0 {
		maxConnsPerHost = defaultMaxConnsPerHost
	}
	idleTimeout := pool.IdleConnTimeout
	if idleTimeout <= 0 {
		idleTimeout = defaultIdleConnTimeout
	}

	return &http.Transport{
		DialContext: (&net.Dialer{
			Timeout:   connTimeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		ResponseHeaderTimeout: respTimeout,
		MaxIdleConns:          maxIdle,
		MaxIdleConnsPerHost:   maxIdlePerHost,
		MaxConnsPerHost:       maxConnsPerHost,
		IdleConnTimeout:       idleTimeout,
	}
}

// NewHTTPClient creates an *http.Client with a pooled transport.
func NewHTTPClient(cfg HTTPConfig) *http.Client {
	connTimeout := cfg.ConnTimeout
	if connTimeout <= 0 {
		connTimeout = defaultConnTimeout
	}
	respTimeout := cfg.RespTimeout
	if respTimeout <= 0 {
		respTimeout = defaultRespTimeout
	}
	return &http.Client{
		Transport: NewPooledTransport(connTimeout, respTimeout, cfg.Pool),
		Timeout:   connTimeout + respTimeout,
	}
}

// Compile-time interface checks.
var (
	_ Transport = (*HTTPTransport)(nil)
	_ Transport = TransportFunc(nil)
)
