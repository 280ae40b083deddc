package ankiconnect

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"go.opentelemetry.io/otel/trace"

	"yanki-connect/internal/domain"
	"yanki-connect/internal/infra/tracer"
	"yanki-connect/pkg/launcher"
)

// Config is the immutable configuration of a Client.
type Config struct {
	Host          string
	Port          int
	Version       int
	Key           string
	AutoLaunch    AutoLaunch
	RetryDelay    time.Duration
	NotReadyError string
}

// Client dispatches AnkiConnect actions. It is safe for concurrent use;
// concurrent calls are independent and share only the launch throttle.
type Client struct {
	cfg       Config
	endpoint  string
	transport Transport
	throttle  *launcher.Throttle
	logger    *slog.Logger
	sleep     func(ctx context.Context, d time.Duration) error

	Card      *CardService
	Deck      *DeckService
	Graphical *GraphicalService
	Media     *MediaService
	Misc      *MiscService
	Model     *ModelService
	Note      *NoteService
	Statistic *StatisticService
}

// New builds a Client. It fails on an unsupported protocol version, an
// invalid endpoint or an unknown auto-launch policy. When auto-launch is
// requested on a host that cannot launch the app, the policy is downgraded to
// never with a warning.
func New(opts ...Option) (*Client, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	cfg := o.cfg

	if cfg.Version != SupportedVersion {
		return nil, domain.NewDomainError("ankiconnect.New", domain.ErrUnsupportedVersion,
			fmt.Sprintf("version %d (want %d)", cfg.Version, SupportedVersion))
	}
	endpoint, err := endpointURL(cfg.Host, cfg.Port)
	if err != nil {
		return nil, domain.WrapOp("ankiconnect.New", err)
	}
	switch cfg.AutoLaunch {
	case AutoLaunchNever, AutoLaunchOnDemand, AutoLaunchImmediately:
	case "":
		cfg.AutoLaunch = AutoLaunchNever
	default:
		return nil, domain.NewDomainError("ankiconnect.New", domain.ErrInvalidInput,
			fmt.Sprintf("auto-launch policy %q", cfg.AutoLaunch))
	}
	if cfg.RetryDelay < 0 {
		cfg.RetryDelay = 0
	}
	if cfg.NotReadyError == "" {
		cfg.NotReadyError = DefaultNotReadyError
	}

	logger := o.logger
	if logger == nil {
		logger = slog.Default()
	}

	transport := o.transport
	if transport == nil {
		transport = NewHTTPTransport(o.httpClient)
	}
	if o.breaker != nil {
		transport = NewBreakerTransport(transport, *o.breaker, logger)
	}

	throttle := o.throttle
	if throttle == nil {
		starter := o.starter
		if starter == nil {
			starter = launcher.Detect(launcher.DefaultAppPath)
		}
		throttle = launcher.NewThrottle(starter, launcher.ThrottleConfig{}, logger)
	}
	if cfg.AutoLaunch.Enabled() && !throttle.Supported() {
		logger.Warn("automatic Anki launch is not supported on this platform, disabling auto-launch",
			"auto_launch", cfg.AutoLaunch)
		cfg.AutoLaunch = AutoLaunchNever
	}

	c := &Client{
		cfg:       cfg,
		endpoint:  endpoint,
		transport: transport,
		throttle:  throttle,
		logger:    logger,
		sleep:     sleepContext,
	}
	c.Card = &CardService{c: c}
	c.Deck = &DeckService{c: c}
	c.Graphical = &GraphicalService{c: c}
	c.Media = &MediaService{c: c}
	c.Misc = &MiscService{c: c}
	c.Model = &ModelService{c: c}
	c.Note = &NoteService{c: c}
	c.Statistic = &StatisticService{c: c}

	if cfg.AutoLaunch == AutoLaunchImmediately {
		go func() {
			if err := throttle.Attempt(context.Background()); err != nil {
				logger.Warn("launch at startup failed", "error", err)
			}
		}()
	}
	return c, nil
}

// endpointURL joins host and port into the single URL every request targets.
func endpointURL(host string, port int) (string, error) {
	host = strings.TrimSpace(host)
	if host == "" {
		host = DefaultHost
	}
	if !strings.Contains(host, "://") {
		host = "http://" + host
	}
	u, err := url.Parse(host)
	if err != nil || u.Hostname() == "" {
		return "", domain.NewDomainError("endpoint", domain.ErrInvalidInput, fmt.Sprintf("host %q", host))
	}
	if port <= 0 || port > 65535 {
		return "", domain.NewDomainError("endpoint", domain.ErrInvalidInput, fmt.Sprintf("port %d", port))
	}
	u.Host = net.JoinHostPort(u.Hostname(), strconv.Itoa(port))
	return u.String(), nil
}

// Config returns a copy of the client configuration.
func (c *Client) Config() Config { return c.cfg }

// Endpoint returns the URL requests are posted to.
func (c *Client) Endpoint() string { return c.endpoint }

// Launch makes one throttled attempt to start the desktop app, regardless of
// the auto-launch policy.
func (c *Client) Launch(ctx context.Context) error {
	return c.throttle.Attempt(ctx)
}

// Throttle returns the launch throttle used by the client.
func (c *Client) Throttle() *launcher.Throttle { return c.throttle }

// Invoke sends action with params and returns the response envelope as
// received. An in-band error is returned as data, not as an error; errors are
// returned only for invalid calls, transport failures and malformed envelopes.
// params must be nil exactly when the action is parameterless.
func (c *Client) Invoke(ctx context.Context, action string, params any) (*Envelope, error) {
	info, ok := catalog[action]
	if !ok {
		return nil, domain.NewDomainError("ankiconnect.Invoke", domain.ErrUnknownAction, action)
	}
	if info.bare && params != nil {
		return nil, domain.NewDomainError("ankiconnect.Invoke", domain.ErrInvalidInput,
			fmt.Sprintf("action %s takes no params", action))
	}
	if !info.bare && params == nil {
		return nil, domain.NewDomainError("ankiconnect.Invoke", domain.ErrInvalidInput,
			fmt.Sprintf("action %s requires params", action))
	}
	return c.dispatch(ctx, action, params)
}

// retryState tracks one call through the auto-launch retry.
type retryState int

const (
	stateIdle retryState = iota
	stateAttempting
	stateLaunchedRetry
	stateGaveUp
)

func (s retryState) String() string {
	switch s {
	case stateIdle:
		return "idle"
	case stateAttempting:
		return "attempting"
	case stateLaunchedRetry:
		return "launched-retry"
	case stateGaveUp:
		return "gave-up"
	default:
		return "unknown"
	}
}

// retryMachine allows at most one retry per call. retried never goes back to
// false, which is what bounds the dispatch loop.
type retryMachine struct {
	state   retryState
	retried bool
	enabled bool
}

// next is called after each attempt with whether it hit a retry trigger and
// reports whether to launch and retry.
func (m *retryMachine) next(triggered bool) bool {
	if !triggered {
		return false
	}
	if !m.enabled || m.retried {
		m.state = stateGaveUp
		return false
	}
	m.retried = true
	m.state = stateLaunchedRetry
	return true
}

func (c *Client) dispatch(ctx context.Context, action string, params any) (*Envelope, error) {
	body, err := json.Marshal(request{
		Action:  action,
		Params:  params,
		Version: c.cfg.Version,
		Key:     c.cfg.Key,
	})
	if err != nil {
		return nil, domain.NewDomainError("ankiconnect.Invoke", domain.ErrInvalidInput,
			fmt.Sprintf("encode %s params: %v", action, err))
	}

	requestID := ulid.Make().String()
	ctx, span := tracer.StartSpan(ctx, "ankiconnect.invoke",
		trace.WithAttributes(
			tracer.StringAttr("anki.action", action),
			tracer.StringAttr("anki.request_id", requestID),
		),
	)
	defer span.End()
	logger := c.logger.With("action", action, "request_id", requestID)

	m := retryMachine{state: stateIdle, enabled: c.cfg.AutoLaunch.Enabled()}
	for {
		if m.state == stateIdle {
			m.state = stateAttempting
		}
		logger.Debug("invoking action", "state", m.state)

		env, err := c.roundTrip(ctx, body)
		cause := c.retryCause(ctx, action, env, err)
		if !m.next(cause != nil) {
			span.SetAttributes(tracer.BoolAttr("anki.retry", m.retried))
			if err != nil {
				err = domain.WrapOp("ankiconnect.Invoke "+action, err)
				tracer.RecordError(span, err)
				return nil, err
			}
			tracer.SetOK(span)
			return env, nil
		}

		logger.Warn("can't connect to Anki app, launching and retrying", "cause", cause)
		if lerr := c.throttle.Attempt(ctx); lerr != nil {
			err := domain.WrapOp("ankiconnect.Invoke "+action, errors.Join(cause, lerr))
			tracer.RecordError(span, err)
			return nil, err
		}
		if serr := c.sleep(ctx, c.cfg.RetryDelay); serr != nil {
			err := domain.WrapOp("ankiconnect.Invoke "+action, errors.Join(cause, serr))
			tracer.RecordError(span, err)
			return nil, err
		}
	}
}

// retryCause returns the failure that should trigger the auto-launch retry, or
// nil. Triggers are transport failures and the configured not-ready error.
// Malformed envelopes never trigger, nor does anything after the caller's
// context is done.
func (c *Client) retryCause(ctx context.Context, action string, env *Envelope, err error) error {
	if ctx.Err() != nil {
		return nil
	}
	if err != nil {
		if errors.Is(err, domain.ErrTransport) {
			return err
		}
		return nil
	}
	if env.Error != nil && *env.Error == c.cfg.NotReadyError {
		return &ActionError{Action: action, Message: *env.Error}
	}
	return nil
}

// roundTrip performs one exchange and validates the response.
func (c *Client) roundTrip(ctx context.Context, body []byte) (*Envelope, error) {
	resp, err := c.transport.Do(ctx, &TransportRequest{URL: c.endpoint, Body: body})
	if err != nil {
		if errors.Is(err, domain.ErrTransport) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", domain.ErrTransport, err)
	}
	if resp == nil {
		return nil, domain.NewDomainError("ankiconnect.roundTrip", domain.ErrTransport, "response is undefined")
	}
	if resp.StatusCode != http.StatusOK {
		return nil, domain.NewDomainError("ankiconnect.roundTrip", domain.ErrTransport,
			fmt.Sprintf("response status is %d", resp.StatusCode))
	}
	return decodeEnvelope(resp.Body)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
