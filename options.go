package depsolve

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/albertocavalcante/go-depsolve/cache"
)

// Option configures resolution behavior.
type Option func(*resolverConfig) error

// resolverConfig holds all resolution configuration.
type resolverConfig struct {
	includeDevDeps   bool
	registries       []string
	httpClient       *http.Client
	cache            cache.Cache
	cacheTTL         time.Duration
	allowYanked      []string
	timeout          time.Duration
	deadline         time.Time
	iterationCeiling int
	prefetch         int
	minimize         bool
	onProgress       func(ProgressEvent)

	// rootName labels the root in the resolved graph. ResolveFile sets it
	// to the manifest's package name.
	rootName string

	// logger is the structured logger for debug output. If nil, logging is
	// disabled.
	logger *slog.Logger
}

// DefaultOptions returns options suited to interactive use: a 30 second
// deadline and speculative metadata prefetching.
func DefaultOptions() []Option {
	return []Option{
		WithTimeout(30 * time.Second),
		WithPrefetchConcurrency(8),
		WithConflictMinimization(true),
	}
}

// WithDevDeps includes the root manifest's dev dependencies. Dev
// dependencies of other packages are never included.
func WithDevDeps() Option {
	return func(c *resolverConfig) error {
		c.includeDevDeps = true
		return nil
	}
}

// WithRegistries sets the registry URLs used by ResolveFile and NewOracle,
// in priority order. Supported schemes are https://, http:// and file://.
func WithRegistries(urls ...string) Option {
	return func(c *resolverConfig) error {
		c.registries = append(c.registries, urls...)
		return nil
	}
}

// WithHTTPClient sets the HTTP client for remote registries.
func WithHTTPClient(client *http.Client) Option {
	return func(c *resolverConfig) error {
		c.httpClient = client
		return nil
	}
}

// WithCache persists registry answers in c across resolutions.
func WithCache(c cache.Cache) Option {
	return func(cfg *resolverConfig) error {
		cfg.cache = c
		return nil
	}
}

// WithCacheTTL bounds the lifetime of cached registry answers. Zero keeps
// them until evicted.
func WithCacheTTL(d time.Duration) Option {
	return func(c *resolverConfig) error {
		c.cacheTTL = d
		return nil
	}
}

// WithAllowedYankedVersions makes specific yanked versions ("name@version")
// selectable again. The keyword "all" allows every yanked version.
func WithAllowedYankedVersions(versions ...string) Option {
	return func(c *resolverConfig) error {
		c.allowYanked = append(c.allowYanked, versions...)
		return nil
	}
}

// WithTimeout bounds the whole resolution attempt. When it expires Resolve
// returns a *TimeoutError.
func WithTimeout(d time.Duration) Option {
	return func(c *resolverConfig) error {
		c.timeout = d
		return nil
	}
}

// WithDeadline is like WithTimeout with an absolute time.
func WithDeadline(t time.Time) Option {
	return func(c *resolverConfig) error {
		c.deadline = t
		return nil
	}
}

// WithIterationCeiling sets how many conflicts may pass without progress
// before the solver stops learning clauses and backtracks chronologically.
// Zero uses solver.DefaultIterationCeiling.
func WithIterationCeiling(n int) Option {
	return func(c *resolverConfig) error {
		c.iterationCeiling = n
		return nil
	}
}

// WithPrefetchConcurrency fetches the versions of newly required packages
// with up to n concurrent oracle calls before the solver needs them. Zero
// disables prefetching. The oracle must be safe for concurrent use.
func WithPrefetchConcurrency(n int) Option {
	return func(c *resolverConfig) error {
		c.prefetch = n
		return nil
	}
}

// WithConflictMinimization controls whether conflict reports are reduced to
// a minimal set of requirements. It is enabled by default.
func WithConflictMinimization(enabled bool) Option {
	return func(c *resolverConfig) error {
		c.minimize = enabled
		return nil
	}
}

// WithProgress sets a callback for search events. It is called
// synchronously from the solving goroutine.
func WithProgress(fn func(ProgressEvent)) Option {
	return func(c *resolverConfig) error {
		c.onProgress = fn
		return nil
	}
}

// WithLogger sets a structured logger for resolution diagnostics.
// If not set, logging is disabled (silent mode).
//
// Example:
//
//	logger := slog.New(slog.NewJSONHandler(os.Stderr, nil)).With("component", "depsolve")
//	Resolve(ctx, roots, oracle, WithLogger(logger))
func WithLogger(l *slog.Logger) Option {
	return func(c *resolverConfig) error {
		c.logger = l
		return nil
	}
}

// validate checks the configuration for logical consistency.
func (c *resolverConfig) validate() error {
	if c.timeout < 0 {
		return errors.New("timeout must be positive")
	}
	if c.iterationCeiling < 0 {
		return errors.New("iteration ceiling must not be negative")
	}
	if c.prefetch < 0 {
		return errors.New("prefetch concurrency must not be negative")
	}
	if c.cacheTTL < 0 {
		return errors.New("cache TTL must not be negative")
	}
	if c.cacheTTL > 0 && c.cache == nil {
		return errors.New("cache TTL requires a cache")
	}
	return nil
}

// log returns the configured logger, or a no-op logger if none was set.
// This allows internal code to call logging methods without nil checks.
func (c *resolverConfig) log() *slog.Logger {
	if c.logger != nil {
		return c.logger
	}
	return slog.New(discardHandler{})
}

// discardHandler is a slog.Handler that discards all log records.
type discardHandler struct{}

func (discardHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (discardHandler) Handle(context.Context, slog.Record) error { return nil }
func (d discardHandler) WithAttrs([]slog.Attr) slog.Handler      { return d }
func (d discardHandler) WithGroup(string) slog.Handler           { return d }

// newResolverConfig creates a new resolver configuration by applying
// the given options and validating the result.
func newResolverConfig(opts ...Option) (*resolverConfig, error) {
	c := &resolverConfig{minimize: true}

	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}

	if err := c.validate(); err != nil {
		return nil, err
	}

	return c, nil
}

// withDeadline applies the configured timeout and deadline to ctx.
func (c *resolverConfig) withDeadline(ctx context.Context) (context.Context, context.CancelFunc) {
	cancel := func() {}
	if !c.deadline.IsZero() {
		var cancelDeadline context.CancelFunc
		ctx, cancelDeadline = context.WithDeadline(ctx, c.deadline)
		cancel = cancelDeadline
	}
	if c.timeout > 0 {
		var cancelTimeout context.CancelFunc
		ctx, cancelTimeout = context.WithTimeout(ctx, c.timeout)
		outer := cancel
		cancel = func() {
			cancelTimeout()
			outer()
		}
	}
	return ctx, cancel
}
