package stubserver

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/manolisziCy/sports/cmd/sportsctl/internal/config"
	"github.com/manolisziCy/sports/pkg/sdk/sdktest"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var (
	addr          string
	basePath      string
	secret        string
	tokenLifetime time.Duration
	seeds         []string
)

// StubServerCmd serves an in-memory accounts API for local development.
var StubServerCmd = &cobra.Command{
	Use:   "stub-server",
	Short: "Run an in-memory accounts API",
	Long: `Serves an in-memory implementation of the accounts API. Emails are not
sent; their tokens are printed instead, ready for 'sportsctl auth verify-email'
and 'sportsctl auth reset-password'.

Seed accounts with --seed username:password[:role[:status]], e.g.

  sportsctl stub-server --seed admin@example.com:secret:admin`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.MustFromContext(cmd.Context())
		log := cfg.Logger

		stub := sdktest.NewServer(sdktest.Options{
			BasePath:      basePath,
			Secret:        []byte(secret),
			TokenLifetime: tokenLifetime,
			OnMail: func(m sdktest.Mail) {
				pterm.Info.Printf("mail to %s (%s): %s\n", m.To, m.Action, m.Token)
			},
		})
		for _, seed := range seeds {
			username, password, role, status, err := parseSeed(seed)
			if err != nil {
				return err
			}
			id := stub.AddUser(username, password, status, role)
			log.Info("seeded account", log.Args("id", id, "username", username, "role", role, "status", status))
		}

		ln, err := net.Listen("tcp", addr)
		if err != nil {
			return fmt.Errorf("failed to listen on %s: %w", addr, err)
		}
		srv := &http.Server{
			Handler:      stub,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
		}

		serverErrors := make(chan error, 1)
		go func() {
			serverErrors <- srv.Serve(ln)
		}()
		pterm.Success.Printf("Accounts API listening on http://%s%s\n", ln.Addr(), stub.BasePath())

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		select {
		case err := <-serverErrors:
			if !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("server error: %w", err)
			}
			return nil
		case <-ctx.Done():
			log.Info("shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				srv.Close()
				return fmt.Errorf("graceful shutdown failed: %w", err)
			}
			return nil
		}
	},
}

func init() {
	StubServerCmd.Flags().StringVar(&addr, "addr", "127.0.0.1:8080", "Listen address")
	StubServerCmd.Flags().StringVar(&basePath, "base-path", "/api", "Route prefix of the API")
	StubServerCmd.Flags().StringVar(&secret, "secret", "", "Token signing secret (a fixed development secret when empty)")
	StubServerCmd.Flags().DurationVar(&tokenLifetime, "token-lifetime", time.Hour, "Lifetime of issued tokens")
	StubServerCmd.Flags().StringArrayVar(&seeds, "seed", nil, "Seed account as username:password[:role[:status]] (repeatable)")
}

func parseSeed(seed string) (username, password, role, status string, err error) {
	parts := strings.Split(seed, ":")
	if len(parts) < 2 || len(parts) > 4 || parts[0] == "" || parts[1] == "" {
		return "", "", "", "", fmt.Errorf("invalid seed %q: want username:password[:role[:status]]", seed)
	}
	username, password, role, status = parts[0], parts[1], "user", sdktest.StatusActive
	if len(parts) > 2 && parts[2] != "" {
		role = parts[2]
	}
	if len(parts) > 3 && parts[3] != "" {
		status = parts[3]
	}
	switch status {
	case sdktest.StatusPending, sdktest.StatusActive, sdktest.StatusSuspended:
	default:
		return "", "", "", "", fmt.Errorf("invalid seed %q: unknown status %q", seed, status)
	}
	return username, password, role, status, nil
}
