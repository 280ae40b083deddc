package ankiconnect

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"yanki-connect/pkg/launcher"
)

func newServerClient(t *testing.T, srv *httptest.Server, opts ...Option) *Client {
	t.Helper()
	u, err := url.Parse(srv.URL)
	require.NoError(t, err)
	port, err := strconv.Atoi(u.Port())
	require.NoError(t, err)

	base := []Option{
		WithHost("http://" + u.Hostname()),
		WithPort(port),
		WithHTTPClient(srv.Client()),
		WithStarter(launcher.Unsupported{}),
		WithLogger(discardLogger()),
	}
	c, err := New(append(base, opts...)...)
	require.NoError(t, err)
	return c
}

func TestHTTPTransportRoundTrip(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req map[string]any
		body, _ := io.ReadAll(r.Body)
		assert.NoError(t, json.Unmarshal(body, &req))
		assert.Equal(t, "deckNames", req["action"])
		assert.NotContains(t, req, "params")

		_, _ = w.Write([]byte(`{"result":["Default"],"error":null}`))
	}))
	defer srv.Close()

	c := newServerClient(t, srv)
	names, err := c.Deck.DeckNames(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"Default"}, names)
}

func TestHTTPTransportStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "forbidden", http.StatusForbidden)
	}))
	defer srv.Close()

	c := newServerClient(t, srv)
	_, err := c.Invoke(context.Background(), "version", nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTransport)
	assert.Contains(t, err.Error(), "403")
}

func TestHTTPTransportConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	c := newServerClient(t, srv)
	srv.Close()

	_, err := c.Invoke(context.Background(), "version", nil)
	assert.ErrorIs(t, err, ErrTransport)
}

func TestHTTPTransportContextCancel(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		<-release
	}))
	defer srv.Close()
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	tr := NewHTTPTransport(srv.Client())
	_, err := tr.Do(ctx, &TransportRequest{URL: srv.URL, Body: []byte(`{}`)})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestNewHTTPClientDefaults(t *testing.T) {
	c := NewHTTPClient(HTTPConfig{})
	assert.Equal(t, defaultConnTimeout+defaultRespTimeout, c.Timeout)

	tr, ok := c.Transport.(*http.Transport)
	require.True(t, ok)
	assert.Equal(t, defaultMaxIdleConns, tr.MaxIdleConns)
	assert.Equal(t, defaultMaxConnsPerHost, tr.MaxConnsPerHost)
	assert.Equal(t, defaultRespTimeout, tr.ResponseHeaderTimeout)

	custom := NewPooledTransport(time.Second, 2*time.Second, PoolConfig{MaxConnsPerHost: 1})
	assert.Equal(t, 1, custom.MaxConnsPerHost)
	assert.Equal(t, 2*time.Second, custom.ResponseHeaderTimeout)
}

func TestBreakerOpensAfterFailures(t *testing.T) {
	var calls atomic.Int32
	inner := TransportFunc(func(context.Context, *TransportRequest) (*TransportResponse, error) {
		calls.Add(1)
		return nil, errRefused
	})
	b := NewBreakerTransport(inner, BreakerConfig{MaxFailures: 2, Timeout: time.Minute}, discardLogger())

	for range 2 {
		_, err := b.Do(context.Background(), &TransportRequest{})
		assert.ErrorIs(t, err, errRefused)
	}
	assert.Equal(t, gobreaker.StateOpen, b.State())

	_, err := b.Do(context.Background(), &TransportRequest{})
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.EqualValues(t, 2, calls.Load(), "open circuit must not reach the transport")
}

func TestBreakerIgnoresCancellation(t *testing.T) {
	inner := TransportFunc(func(context.Context, *TransportRequest) (*TransportResponse, error) {
		return nil, context.Canceled
	})
	b := NewBreakerTransport(inner, BreakerConfig{MaxFailures: 1}, nil)

	for range 3 {
		_, err := b.Do(context.Background(), &TransportRequest{})
		assert.ErrorIs(t, err, context.Canceled)
	}
	assert.Equal(t, gobreaker.StateClosed, b.State())
	assert.Zero(t, b.Counts().ConsecutiveFailures)
}

func TestBreakerCountsBadStatus(t *testing.T) {
	var calls atomic.Int32
	inner := TransportFunc(func(context.Context, *TransportRequest) (*TransportResponse, error) {
		calls.Add(1)
		return &TransportResponse{StatusCode: http.StatusInternalServerError}, nil
	})
	c, err := New(
		WithTransport(inner),
		WithBreaker(BreakerConfig{MaxFailures: 2, Timeout: time.Minute}),
		WithStarter(launcher.Unsupported{}),
		WithLogger(discardLogger()),
	)
	require.NoError(t, err)

	for range 2 {
		_, err := c.Invoke(context.Background(), "version", nil)
		require.ErrorIs(t, err, ErrTransport)
		assert.Contains(t, err.Error(), "response status is 500")
	}

	_, err = c.Invoke(context.Background(), "version", nil)
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.EqualValues(t, 2, calls.Load(), "open circuit must not reach the transport")
}

func TestBreakerCountsMissingResponse(t *testing.T) {
	inner := TransportFunc(func(context.Context, *TransportRequest) (*TransportResponse, error) {
		return nil, nil
	})
	b := NewBreakerTransport(inner, BreakerConfig{MaxFailures: 1, Timeout: time.Minute}, discardLogger())

	_, err := b.Do(context.Background(), &TransportRequest{})
	assert.ErrorIs(t, err, ErrTransport)
	assert.Equal(t, gobreaker.StateOpen, b.State())
}

func TestBreakerIgnoresCallerDeadline(t *testing.T) {
	inner := TransportFunc(func(ctx context.Context, _ *TransportRequest) (*TransportResponse, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	})
	b := NewBreakerTransport(inner, BreakerConfig{MaxFailures: 1, Timeout: time.Minute}, discardLogger())

	for range 3 {
		ctx, cancel := context.WithTimeout(context.Background(), time.Millisecond)
		_, err := b.Do(ctx, &TransportRequest{})
		cancel()
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	}
	assert.Equal(t, gobreaker.StateClosed, b.State())
	assert.Zero(t, b.Counts().TotalFailures)
}

func TestClientBreakerFailsFastAsTransport(t *testing.T) {
	var calls atomic.Int32
	inner := TransportFunc(func(context.Context, *TransportRequest) (*TransportResponse, error) {
		calls.Add(1)
		return nil, errRefused
	})
	c, err := New(
		WithTransport(inner),
		WithBreaker(BreakerConfig{MaxFailures: 1, Timeout: time.Minute}),
		WithStarter(launcher.Unsupported{}),
		WithLogger(discardLogger()),
	)
	require.NoError(t, err)

	_, err = c.Invoke(context.Background(), "version", nil)
	require.ErrorIs(t, err, ErrTransport)

	_, err = c.Invoke(context.Background(), "version", nil)
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.ErrorIs(t, err, ErrTransport)
	assert.False(t, errors.Is(err, ErrMalformedResponse))
	assert.EqualValues(t, 1, calls.Load())
}
