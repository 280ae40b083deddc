package launcher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"yanki-connect/internal/domain"
)

// Default throttle settings.
const (
	DefaultCooldown   = 5 * time.Second
	DefaultSessionCap = 100
)

// ThrottleConfig configures a Throttle. Zero values select the defaults.
type ThrottleConfig struct {
	// Cooldown is the minimum spacing between two launch attempts.
	Cooldown time.Duration `yaml:"cooldown"`
	// SessionCap bounds the attempts over the lifetime of the Throttle.
	SessionCap int `yaml:"session_cap"`
	// Now is the clock; tests substitute a fake one.
	Now func() time.Time `yaml:"-"`
}

// Throttle bounds use of a Starter: at most one attempt per cooldown window
// and at most SessionCap attempts in total. The counters are never reset.
// Attempt is safe to call speculatively and from many goroutines.
type Throttle struct {
	starter  Starter
	limiter  *rate.Limiter
	cooldown time.Duration
	cap      int
	now      func() time.Time
	logger   *slog.Logger

	mu       sync.Mutex
	attempts int
	last     time.Time
}

// NewThrottle wraps starter with cooldown and session-cap bookkeeping.
// A nil starter behaves like Unsupported.
func NewThrottle(starter Starter, cfg ThrottleConfig, logger *slog.Logger) *Throttle {
	if starter == nil {
		starter = Unsupported{Reason: "no starter configured"}
	}
	cooldown := cfg.Cooldown
	if cooldown <= 0 {
		cooldown = DefaultCooldown
	}
	sessionCap := cfg.SessionCap
	if sessionCap <= 0 {
		sessionCap = DefaultSessionCap
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Throttle{
		starter:  starter,
		// One token, refilled once per cooldown: the first attempt always
		// passes, later ones only after the window has elapsed.
		limiter:  rate.NewLimiter(rate.Every(cooldown), 1),
		cooldown: cooldown,
		cap:      sessionCap,
		now:      now,
		logger:   logger,
	}
}

// Supported reports whether the underlying starter can work on this host.
func (t *Throttle) Supported() bool { return t.starter.Supported() }

// Attempt starts the app unless the cooldown or the session cap forbids it,
// in which case it is a silent no-op. A failing start is still counted
// against the budget and its error is returned wrapped in ErrLaunchFailed.
// On hosts without launch support Attempt logs and returns nil.
func (t *Throttle) Attempt(ctx context.Context) error {
	if !t.starter.Supported() {
		t.logger.Warn("automatic Anki launch is not supported on this platform")
		return nil
	}

	attempt, ok := t.reserve()
	if !ok {
		return nil
	}

	t.logger.Warn("attempting to launch Anki app", "attempt", attempt, "session_cap", t.cap)
	if err := t.starter.Start(ctx); err != nil {
		if !errors.Is(err, domain.ErrLaunchFailed) {
			err = fmt.Errorf("%w: %w", domain.ErrLaunchFailed, err)
		}
		return domain.WrapOp("launcher.Attempt", err)
	}
	return nil
}

// reserve records an attempt if the budget allows one and returns its
// 1-based sequence number.
func (t *Throttle) reserve() (int, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.attempts >= t.cap {
		t.logger.Warn("too many Anki launch attempts this session, ignoring", "attempts", t.attempts)
		return 0, false
	}
	now := t.now()
	// The limiter refills exactly at last+cooldown; a retry must come strictly
	// after that. Check first so a rejected attempt does not spend the token.
	if t.attempts > 0 && !now.After(t.last.Add(t.cooldown)) {
		t.logger.Debug("launch attempt inside cooldown window, skipping", "last_attempt", t.last)
		return 0, false
	}
	if !t.limiter.AllowN(now, 1) {
		t.logger.Debug("launch attempt inside cooldown window, skipping", "last_attempt", t.last)
		return 0, false
	}
	t.attempts++
	t.last = now
	return t.attempts, true
}

// Attempts returns the number of launch attempts made so far.
func (t *Throttle) Attempts() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.attempts
}

// Remaining returns how many attempts the session cap still allows.
func (t *Throttle) Remaining() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.cap - t.attempts
}

// LastAttempt returns the time of the most recent attempt, or the zero time.
func (t *Throttle) LastAttempt() time.Time {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.last
}
