package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/manolisziCy/sports/cmd/sportsctl/internal/auth"
	"github.com/manolisziCy/sports/pkg/sdk"
	"github.com/pterm/pterm"
	"golang.org/x/oauth2"
)

// Storage backends.
const (
	StorageFile   = "file"
	StorageRedis  = "redis"
	StorageMemory = "memory"
)

// Settings configures the clients a Provider builds.
type Settings struct {
	APIURL          string
	Storage         string
	StorageDir      string
	RedisURL        string
	KeyPrefix       string
	Lang            string
	CacheTTL        time.Duration
	RefreshInterval time.Duration

	Logger    *pterm.Logger
	Metrics   *sdk.Metrics
	Navigator sdk.Navigator
	// Subscriber receives every notification of the SDK client.
	Subscriber sdk.Subscriber
}

// Provider lazily builds the storage backend and the SDK client shared by
// every command of one invocation.
type Provider struct {
	settings    Settings
	bearerToken string // ephemeral token that bypasses the durable store

	storageOnce sync.Once
	storage     sdk.Storage
	storageErr  error

	sdkOnce   sync.Once
	sdkClient *sdk.Client
	sdkErr    error

	mu      sync.Mutex
	closers []io.Closer
}

// NewProvider constructs a Provider.
func NewProvider(settings Settings) *Provider {
	return &Provider{settings: settings}
}

// SetBearerToken injects an ephemeral bearer token. The session then lives in
// memory only and nothing is written to the configured store.
func (p *Provider) SetBearerToken(token string) {
	p.bearerToken = token
}

// Settings returns the provider settings.
func (p *Provider) Settings() Settings {
	return p.settings
}

// Storage returns the durable storage backend.
func (p *Provider) Storage(ctx context.Context) (sdk.Storage, error) {
	p.storageOnce.Do(func() {
		if p.bearerToken != "" {
			p.storage = sdk.NewMemoryStorage()
			return
		}

		switch p.settings.Storage {
		case "", StorageFile:
			p.storage, p.storageErr = auth.NewFileStore(p.settings.StorageDir)
		case StorageRedis:
			if p.settings.RedisURL == "" {
				p.storageErr = errors.New("redis storage requires SPORTS_REDIS_URL or --redis-url")
				return
			}
			ctx, cancel := ensureTimeout(ctx, 5*time.Second)
			defer cancel()
			store, err := auth.NewRedisStore(ctx, p.settings.RedisURL)
			if err != nil {
				p.storageErr = err
				return
			}
			p.storage = store
			p.addCloser(store)
		case StorageMemory:
			p.storage = sdk.NewMemoryStorage()
		default:
			p.storageErr = fmt.Errorf("unknown storage backend %q (want file, redis or memory)", p.settings.Storage)
		}
	})
	if p.storageErr != nil {
		return nil, p.storageErr
	}
	return p.storage, nil
}

// SDKClient returns the SDK client, restoring any persisted session.
func (p *Provider) SDKClient(ctx context.Context) (*sdk.Client, error) {
	p.sdkOnce.Do(func() {
		storage, err := p.Storage(ctx)
		if err != nil {
			p.sdkErr = fmt.Errorf("failed to open session storage: %w", err)
			return
		}

		opts := []sdk.Option{
			sdk.WithLogger(p.settings.Logger),
			sdk.WithKeyPrefix(p.settings.KeyPrefix),
			sdk.WithCacheTTL(p.settings.CacheTTL),
			sdk.WithRefreshInterval(p.settings.RefreshInterval),
			sdk.WithLang(p.settings.Lang),
		}
		if p.settings.Metrics != nil {
			opts = append(opts, sdk.WithMetrics(p.settings.Metrics))
		}

		var gwOpts []sdk.GatewayOption
		if p.bearerToken != "" {
			gwOpts = append(gwOpts, sdk.WithTokenSource(oauth2.StaticTokenSource(&oauth2.Token{
				AccessToken: p.bearerToken,
				TokenType:   "Bearer",
			})))
		}

		c, err := sdk.NewClient(p.settings.APIURL, storage, p.settings.Navigator, opts, gwOpts...)
		if err != nil {
			p.sdkErr = err
			return
		}
		if p.settings.Subscriber != nil {
			c.Notifications.Subscribe(p.settings.Subscriber)
		}
		if p.bearerToken != "" {
			adoptToken(c, p.bearerToken)
		}
		p.sdkClient = c
	})

	if p.sdkErr != nil {
		return nil, p.sdkErr
	}
	return p.sdkClient, nil
}

// adoptToken seeds the in-memory session from the claims of an ephemeral token.
func adoptToken(c *sdk.Client, token string) {
	claims := sdk.NewTokenClock(c.Options.Clock).Decode(token)
	if claims == nil {
		c.Options.Logger.Warn("ephemeral token is not a JWT; the session stays logged out")
		return
	}
	c.Session.PersistUser(&sdk.Session{
		Authenticated:       true,
		Username:            claims.Upn,
		Token:               token,
		TokenExpirationTime: claims.Expiration(),
		ID:                  claims.UserID,
		Role:                claims.PrimaryRole(),
	})
}

func (p *Provider) addCloser(c io.Closer) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closers = append(p.closers, c)
}

// Close stops background work and releases storage connections.
func (p *Provider) Close() error {
	if p.sdkClient != nil {
		p.sdkClient.Close()
	}
	p.mu.Lock()
	closers := p.closers
	p.closers = nil
	p.mu.Unlock()

	var errs []error
	for _, c := range closers {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func ensureTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if ctx == nil {
		ctx = context.Background()
	}

	if _, ok := ctx.Deadline(); ok {
		return ctx, func() {}
	}

	ctxWithTimeout, cancel := context.WithTimeout(ctx, timeout)
	return ctxWithTimeout, cancel
}
