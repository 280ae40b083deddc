package ankiconnect

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/sony/gobreaker/v2"

	"yanki-connect/internal/domain"
)

// Default circuit breaker settings.
const (
	defaultCBMaxFailures uint32        = 5
	defaultCBTimeout     time.Duration = 30 * time.Second
	defaultCBInterval    time.Duration = 60 * time.Second
)

// BreakerConfig configures the circuit breaker behavior.
type BreakerConfig struct {
	// MaxFailures is the number of consecutive failures before the circuit opens.
	MaxFailures uint32
	// Timeout is how long the circuit stays open before transitioning to half-open.
	Timeout time.Duration
	// Interval is the cyclic period of the closed state for clearing failure counts.
	Interval time.Duration
}

// BreakerTransport wraps a Transport with circuit breaker protection. While
// the circuit is open, requests fail fast without touching the network.
type BreakerTransport struct {
	inner   Transport
	breaker *gobreaker.CircuitBreaker[*TransportResponse]
}

// NewBreakerTransport wraps inner with a circuit breaker. Zero config fields
// select the defaults.
func NewBreakerTransport(inner Transport, cfg BreakerConfig, logger *slog.Logger) *BreakerTransport {
	maxFailures := cfg.MaxFailures
	if maxFailures == 0 {
		maxFailures = defaultCBMaxFailures
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = defaultCBTimeout
	}
	interval := cfg.Interval
	if interval == 0 {
		interval = defaultCBInterval
	}
	if logger == nil {
		logger = slog.Default()
	}

	cb := gobreaker.NewCircuitBreaker[*TransportResponse](gobreaker.Settings{
		Name:        "ankiconnect",
		MaxRequests: 1, // allow 1 probe in half-open state
		Interval:    interval,
		Timeout:     timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state change",
				"breaker", name,
				"from", from.String(),
				"to", to.String(),
			)
		},
		// A cancelled caller says nothing about the health of Anki.
		IsSuccessful: func(err error) bool {
			var gone *callerGone
			return err == nil || errors.Is(err, context.Canceled) || errors.As(err, &gone)
		},
	})

	return &BreakerTransport{inner: inner, breaker: cb}
}

// Do implements Transport. Calls are routed through the circuit breaker.
func (b *BreakerTransport) Do(ctx context.Context, req *TransportRequest) (*TransportResponse, error) {
	resp, err := b.breaker.Execute(func() (*TransportResponse, error) {
		resp, err := b.inner.Do(ctx, req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, &callerGone{err: err}
			}
			return nil, err
		}
		if resp == nil {
			return nil, domain.NewDomainError("ankiconnect.breaker", domain.ErrTransport, "response is undefined")
		}
		if resp.StatusCode != http.StatusOK {
			return nil, domain.NewDomainError("ankiconnect.breaker", domain.ErrTransport,
				fmt.Sprintf("response status is %d", resp.StatusCode))
		}
		return resp, nil
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("%w: %w", domain.ErrCircuitOpen, err)
		}
		return nil, err
	}
	return resp, nil
}

// callerGone marks a failure caused by the caller's own context ending, such
// as its deadline passing, so the breaker does not count it.
type callerGone struct{ err error }

func (e *callerGone) Error() string { return e.err.Error() }
func (e *callerGone) Unwrap() error { return e.err }

// State returns the current circuit breaker state for monitoring.
func (b *BreakerTransport) State() gobreaker.State {
	return b.breaker.State()
}

// Counts returns the current circuit breaker failure/success counts.
func (b *BreakerTransport) Counts() gobreaker.Counts {
	return b.breaker.Counts()
}

var _ Transport = (*BreakerTransport)(nil)
