package sdk

import (
	"net/http"
	"os"
	"time"

	"github.com/pterm/pterm"
)

const (
	// DefaultCacheTTL bounds how long a fetched user listing is served from cache.
	DefaultCacheTTL = 5 * time.Minute
	// DefaultRefreshInterval is the period of the background refresh schedule.
	DefaultRefreshInterval = 60 * time.Second
	// RefreshThreshold is the remaining validity below which a token is refreshed.
	RefreshThreshold = 10 * time.Minute
)

// Options configures the SDK components. Each constructor reads the fields it needs.
type Options struct {
	Clock           Clock
	Logger          *pterm.Logger
	KeyPrefix       string
	CacheTTL        time.Duration
	RefreshInterval time.Duration
	HTTPClient      *http.Client
	Metrics         *Metrics
	Lang            string
}

// Option mutates Options.
type Option func(*Options)

// WithClock overrides the time source.
func WithClock(clock Clock) Option {
	return func(o *Options) {
		o.Clock = clock
	}
}

// WithLogger overrides the structured logger.
func WithLogger(logger *pterm.Logger) Option {
	return func(o *Options) {
		o.Logger = logger
	}
}

// WithKeyPrefix namespaces the durable storage keys.
func WithKeyPrefix(prefix string) Option {
	return func(o *Options) {
		o.KeyPrefix = prefix
	}
}

// WithCacheTTL sets the user listing TTL.
func WithCacheTTL(ttl time.Duration) Option {
	return func(o *Options) {
		o.CacheTTL = ttl
	}
}

// WithRefreshInterval sets the period of the refresh schedule.
func WithRefreshInterval(interval time.Duration) Option {
	return func(o *Options) {
		o.RefreshInterval = interval
	}
}

// WithHTTPClient overrides the base HTTP client; its transport becomes the
// innermost stage of the gateway pipeline.
func WithHTTPClient(client *http.Client) Option {
	return func(o *Options) {
		o.HTTPClient = client
	}
}

// WithMetrics attaches prometheus collectors.
func WithMetrics(m *Metrics) Option {
	return func(o *Options) {
		o.Metrics = m
	}
}

// WithLang sets the language sent with password resets.
func WithLang(lang string) Option {
	return func(o *Options) {
		o.Lang = lang
	}
}

// NewOptions applies optFns over the defaults.
func NewOptions(optFns ...Option) Options {
	opts := Options{}
	for _, fn := range optFns {
		if fn != nil {
			fn(&opts)
		}
	}
	if opts.Clock == nil {
		opts.Clock = SystemClock()
	}
	if opts.Logger == nil {
		opts.Logger = DefaultLogger()
	}
	if opts.KeyPrefix == "" {
		opts.KeyPrefix = DefaultKeyPrefix
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = DefaultCacheTTL
	}
	if opts.RefreshInterval <= 0 {
		opts.RefreshInterval = DefaultRefreshInterval
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}
	if opts.Lang == "" {
		opts.Lang = "en"
	}
	return opts
}

// DefaultLogger writes warnings and errors to stderr.
func DefaultLogger() *pterm.Logger {
	return pterm.DefaultLogger.WithLevel(pterm.LogLevelWarn).WithWriter(os.Stderr)
}
