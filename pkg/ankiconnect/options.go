package ankiconnect

import (
	"log/slog"
	"net/http"
	"time"

	"yanki-connect/internal/domain"
	"yanki-connect/pkg/launcher"
)

// AutoLaunch is the policy for starting the desktop app when AnkiConnect is
// unreachable.
type AutoLaunch = domain.AutoLaunch

// Auto-launch policies.
const (
	AutoLaunchNever       = domain.AutoLaunchNever
	AutoLaunchOnDemand    = domain.AutoLaunchOnDemand
	AutoLaunchImmediately = domain.AutoLaunchImmediately
)

// Defaults.
const (
	DefaultHost          = "http://127.0.0.1"
	DefaultPort          = 8765
	SupportedVersion     = 6
	DefaultRetryDelay    = 500 * time.Millisecond
	DefaultNotReadyError = "collection is not available"
)

// Option configures a Client.
type Option func(*options)

type options struct {
	cfg        Config
	transport  Transport
	httpClient *http.Client
	starter    launcher.Starter
	throttle   *launcher.Throttle
	breaker    *BreakerConfig
	logger     *slog.Logger
}

func defaultOptions() options {
	return options{
		cfg: Config{
			Host:          DefaultHost,
			Port:          DefaultPort,
			Version:       SupportedVersion,
			AutoLaunch:    AutoLaunchNever,
			RetryDelay:    DefaultRetryDelay,
			NotReadyError: DefaultNotReadyError,
		},
	}
}

// WithHost sets the AnkiConnect host. A missing scheme means http.
func WithHost(host string) Option {
	return func(o *options) { o.cfg.Host = host }
}

// WithPort sets the AnkiConnect port.
func WithPort(port int) Option {
	return func(o *options) { o.cfg.Port = port }
}

// WithVersion sets the protocol version. Only SupportedVersion is accepted.
func WithVersion(version int) Option {
	return func(o *options) { o.cfg.Version = version }
}

// WithKey sets the credential sent with every request.
func WithKey(key string) Option {
	return func(o *options) { o.cfg.Key = key }
}

// WithAutoLaunch sets the auto-launch policy.
func WithAutoLaunch(policy AutoLaunch) Option {
	return func(o *options) { o.cfg.AutoLaunch = policy }
}

// WithRetryDelay sets how long to wait after a launch attempt before retrying.
func WithRetryDelay(d time.Duration) Option {
	return func(o *options) { o.cfg.RetryDelay = d }
}

// WithNotReadyError sets the in-band error text that means Anki is running
// but its collection is not loaded yet.
func WithNotReadyError(msg string) Option {
	return func(o *options) { o.cfg.NotReadyError = msg }
}

// WithTransport replaces the network layer.
func WithTransport(t Transport) Option {
	return func(o *options) { o.transport = t }
}

// WithHTTPClient sets the client used by the default HTTP transport. Ignored
// when WithTransport is given.
func WithHTTPClient(c *http.Client) Option {
	return func(o *options) { o.httpClient = c }
}

// WithStarter sets how the desktop app is launched. Defaults to the platform
// starter from launcher.Detect. Ignored when WithThrottle is given.
func WithStarter(s launcher.Starter) Option {
	return func(o *options) { o.starter = s }
}

// WithThrottle shares a launch throttle between clients.
func WithThrottle(t *launcher.Throttle) Option {
	return func(o *options) { o.throttle = t }
}

// WithBreaker wraps the transport in a circuit breaker.
func WithBreaker(cfg BreakerConfig) Option {
	return func(o *options) { o.breaker = &cfg }
}

// WithLogger sets a custom slog.Logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) { o.logger = logger }
}
