package config

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/manolisziCy/sports/cmd/sportsctl/internal/client"
	"github.com/manolisziCy/sports/cmd/sportsctl/internal/notify"
	"github.com/manolisziCy/sports/pkg/sdk"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

type contextKey string

const configKey contextKey = "sportsctl-config"

// GlobalConfig holds shared configuration for all sportsctl commands.
// This is injected into the cobra command context by the root command's
// PersistentPreRunE hook and consumed by all subcommands.
type GlobalConfig struct {
	// Base URL of the accounts API, including its path prefix
	APIURL string

	// Session storage backend: file, redis or memory
	Storage    string
	StorageDir string
	RedisURL   string
	KeyPrefix  string

	CacheTTL        time.Duration
	RefreshInterval time.Duration

	// Rotating JSON log file; empty logs warnings to stderr only
	LogFile string
	Debug   bool

	// Ephemeral bearer token that bypasses the session store
	Token string
	Lang  string
	Quiet bool

	Logger         *pterm.Logger
	Renderer       *notify.Renderer
	Registry       *prometheus.Registry
	Metrics        *sdk.Metrics
	ClientProvider *client.Provider
}

// SDKClient returns the shared SDK client of this invocation.
func (c *GlobalConfig) SDKClient(ctx context.Context) (*sdk.Client, error) {
	if c.ClientProvider == nil {
		return nil, fmt.Errorf("client provider not configured")
	}
	return c.ClientProvider.SDKClient(ctx)
}

// Outcome turns a visible error notification into the command error.
func (c *GlobalConfig) Outcome() error {
	if c.Renderer == nil {
		return nil
	}
	return c.Renderer.Err()
}

// Load reads the environment, applying defaults. Callers apply flag
// overrides and then Validate.
func Load() (*GlobalConfig, error) {
	cfg := &GlobalConfig{
		APIURL:     getEnv("SPORTS_API_URL", "http://localhost:8080/api"),
		Storage:    getEnv("SPORTS_STORAGE", client.StorageFile),
		StorageDir: getEnv("SPORTS_STORAGE_DIR", ""),
		RedisURL:   getEnv("SPORTS_REDIS_URL", ""),
		KeyPrefix:  getEnv("SPORTS_KEY_PREFIX", sdk.DefaultKeyPrefix),
		LogFile:    getEnv("SPORTS_LOG_FILE", ""),
		Debug:      getEnvBool("SPORTS_DEBUG", false),
		Token:      getEnv("SPORTS_TOKEN", ""),
		Lang:       getEnv("SPORTS_LANG", "en"),
		Quiet:      getEnvBool("SPORTS_QUIET", false),
	}

	var err error
	if cfg.CacheTTL, err = getDurationEnv("SPORTS_CACHE_TTL", sdk.DefaultCacheTTL); err != nil {
		return nil, err
	}
	if cfg.RefreshInterval, err = getDurationEnv("SPORTS_REFRESH_INTERVAL", sdk.DefaultRefreshInterval); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values that would otherwise fail deep inside a command.
func (c *GlobalConfig) Validate() error {
	switch c.Storage {
	case client.StorageFile, client.StorageMemory:
	case client.StorageRedis:
		if c.RedisURL == "" {
			return fmt.Errorf("SPORTS_REDIS_URL is required when SPORTS_STORAGE=redis")
		}
	default:
		return fmt.Errorf("invalid storage backend %q: want file, redis or memory", c.Storage)
	}
	if c.CacheTTL <= 0 {
		return fmt.Errorf("cache TTL must be positive, got %s", c.CacheTTL)
	}
	if c.RefreshInterval <= 0 {
		return fmt.Errorf("refresh interval must be positive, got %s", c.RefreshInterval)
	}
	return nil
}

// ProviderSettings maps the configuration onto client settings.
func (c *GlobalConfig) ProviderSettings() client.Settings {
	s := client.Settings{
		APIURL:          c.APIURL,
		Storage:         c.Storage,
		StorageDir:      c.StorageDir,
		RedisURL:        c.RedisURL,
		KeyPrefix:       c.KeyPrefix,
		Lang:            c.Lang,
		CacheTTL:        c.CacheTTL,
		RefreshInterval: c.RefreshInterval,
		Logger:          c.Logger,
		Metrics:         c.Metrics,
	}
	if c.Renderer != nil {
		s.Navigator = c.Renderer
		s.Subscriber = c.Renderer.Handle
	}
	return s
}

// InjectConfig adds config to the cobra command context.
// This should be called in the root command's PersistentPreRunE.
func InjectConfig(ctx context.Context, cfg *GlobalConfig) context.Context {
	return context.WithValue(ctx, configKey, cfg)
}

// FromContext retrieves config from the cobra command context.
// Returns (nil, false) if config is not present.
func FromContext(ctx context.Context) (*GlobalConfig, bool) {
	cfg, ok := ctx.Value(configKey).(*GlobalConfig)
	return cfg, ok
}

// MustFromContext retrieves config from context or panics.
// This should only be used in command RunE functions where we know
// the config has been injected by the root command.
func MustFromContext(ctx context.Context) *GlobalConfig {
	cfg, ok := FromContext(ctx)
	if !ok {
		panic("sportsctl: config not found in context - this is a bug in sportsctl")
	}
	return cfg
}

// Command annotations read by the root route guard.
const (
	AnnotationAuthRequired = "authRequired"
	// AnnotationAuthorize is a comma separated role list.
	AnnotationAuthorize = "authorize"
)

// RouteMeta derives the guard metadata of cmd from its annotations. The
// command path is the route path.
func RouteMeta(cmd *cobra.Command) sdk.RouteMeta {
	meta := sdk.RouteMeta{Path: cmd.CommandPath()}
	if cmd.Annotations == nil {
		return meta
	}
	meta.AuthRequired = cmd.Annotations[AnnotationAuthRequired] == "true"
	if roles := cmd.Annotations[AnnotationAuthorize]; roles != "" {
		for _, role := range strings.Split(roles, ",") {
			if role = strings.TrimSpace(role); role != "" {
				meta.Authorize = append(meta.Authorize, role)
			}
		}
	}
	return meta
}

// RouteTable collects the metadata of every command under root.
func RouteTable(root *cobra.Command) sdk.RouteTable {
	table := sdk.RouteTable{}
	var walk func(*cobra.Command)
	walk = func(cmd *cobra.Command) {
		table[cmd.CommandPath()] = RouteMeta(cmd)
		for _, child := range cmd.Commands() {
			walk(child)
		}
	}
	walk(root)
	return table
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return value == "true" || value == "1" || value == "yes"
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	return d, nil
}
