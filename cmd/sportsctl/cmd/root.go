package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/manolisziCy/sports/cmd/sportsctl/cmd/auth"
	"github.com/manolisziCy/sports/cmd/sportsctl/cmd/session"
	"github.com/manolisziCy/sports/cmd/sportsctl/cmd/stubserver"
	"github.com/manolisziCy/sports/cmd/sportsctl/cmd/users"
	"github.com/manolisziCy/sports/cmd/sportsctl/internal/client"
	"github.com/manolisziCy/sports/cmd/sportsctl/internal/config"
	"github.com/manolisziCy/sports/cmd/sportsctl/internal/logging"
	"github.com/manolisziCy/sports/cmd/sportsctl/internal/notify"
	"github.com/manolisziCy/sports/pkg/sdk"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
)

var (
	apiURL     string
	storage    string
	storageDir string
	redisURL   string
	keyPrefix  string
	logFile    string
	token      string
	lang       string
	debug      bool
	quiet      bool

	closers []io.Closer
)

var rootCmd = &cobra.Command{
	Use:   "sportsctl",
	Short: "Sports accounts CLI - session and user administration client",
	Long: `sportsctl is the command-line client of the sports accounts API. It keeps
an authenticated session between invocations, refreshes its token before it
expires, and administers user accounts.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
}

// Execute runs the root command
func Execute() {
	err := rootCmd.Execute()
	closeAll()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&apiURL, "api-url", "", "Accounts API base URL (env SPORTS_API_URL)")
	rootCmd.PersistentFlags().StringVar(&storage, "storage", "", "Session storage: file, redis or memory (env SPORTS_STORAGE)")
	rootCmd.PersistentFlags().StringVar(&storageDir, "storage-dir", "", "Directory of the file storage (env SPORTS_STORAGE_DIR, default ~/.sports)")
	rootCmd.PersistentFlags().StringVar(&redisURL, "redis-url", "", "Redis URL of the redis storage (env SPORTS_REDIS_URL)")
	rootCmd.PersistentFlags().StringVar(&keyPrefix, "key-prefix", "", "Storage key prefix (env SPORTS_KEY_PREFIX)")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "Write JSON logs to a rotating file (env SPORTS_LOG_FILE)")
	rootCmd.PersistentFlags().StringVar(&token, "token", "", "Ephemeral bearer token; bypasses the stored session (env SPORTS_TOKEN)")
	rootCmd.PersistentFlags().StringVar(&lang, "lang", "", "Message language (env SPORTS_LANG)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging (env SPORTS_DEBUG)")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Hide progress messages (env SPORTS_QUIET)")

	rootCmd.AddCommand(auth.AuthCmd)
	rootCmd.AddCommand(session.SessionCmd)
	rootCmd.AddCommand(users.UsersCmd)
	rootCmd.AddCommand(stubserver.StubServerCmd)
}

// setup builds the invocation's configuration and clients, then applies the
// route guard of the command about to run.
func setup(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	applyFlags(cmd, cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, closer, err := logging.New(logging.Options{File: cfg.LogFile, Debug: cfg.Debug})
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	closers = append(closers, closer)

	cfg.Logger = logger
	cfg.Renderer = notify.NewRenderer(os.Stderr, cfg.Lang, cfg.Quiet)
	cfg.Registry = prometheus.NewRegistry()
	cfg.Metrics = sdk.NewMetrics(cfg.Registry)
	cfg.ClientProvider = client.NewProvider(cfg.ProviderSettings())
	if cfg.Token != "" {
		cfg.ClientProvider.SetBearerToken(cfg.Token)
	}
	closers = append([]io.Closer{cfg.ClientProvider}, closers...)

	// Subcommands keep the context of their first execution; the root
	// carries the one of this execution.
	cmd.SetContext(config.InjectConfig(cmd.Root().Context(), cfg))
	return guard(cmd, cfg)
}

func applyFlags(cmd *cobra.Command, cfg *config.GlobalConfig) {
	flags := cmd.Flags()
	set := func(name string, dst *string, value string) {
		if flags.Changed(name) {
			*dst = value
		}
	}
	set("api-url", &cfg.APIURL, apiURL)
	set("storage", &cfg.Storage, storage)
	set("storage-dir", &cfg.StorageDir, storageDir)
	set("redis-url", &cfg.RedisURL, redisURL)
	set("key-prefix", &cfg.KeyPrefix, keyPrefix)
	set("log-file", &cfg.LogFile, logFile)
	set("token", &cfg.Token, token)
	set("lang", &cfg.Lang, lang)
	if flags.Changed("debug") {
		cfg.Debug = debug
	}
	if flags.Changed("quiet") {
		cfg.Quiet = quiet
	}
}

var errNotLoggedIn = errors.New("not logged in or session expired; run 'sportsctl auth login'")

// guard resolves the command's route against the session. Commands without
// guard annotations never open the session storage.
func guard(cmd *cobra.Command, cfg *config.GlobalConfig) error {
	meta := config.RouteTable(cmd.Root()).Lookup(cmd.CommandPath())
	if !meta.AuthRequired && len(meta.Authorize) == 0 {
		return nil
	}

	c, err := cfg.SDKClient(cmd.Context())
	if err != nil {
		return err
	}
	switch dest := c.Router.Resolve(meta); dest {
	case meta.Path:
		return nil
	case sdk.RouteLogout:
		c.Logout()
		return errNotLoggedIn
	default:
		return fmt.Errorf("role %q is not authorized to run %q", c.Session.Role(), cmd.CommandPath())
	}
}

func closeAll() {
	for _, c := range closers {
		_ = c.Close()
	}
	closers = nil
}
