package session

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/manolisziCy/sports/cmd/sportsctl/internal/config"
	"github.com/manolisziCy/sports/pkg/sdk"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var (
	metricsAddr  string
	metricsFile  string
	pollInterval time.Duration
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Refresh the session token until interrupted",
	Long: `Refreshes the session token once immediately and then on every refresh
interval (SPORTS_REFRESH_INTERVAL) until interrupted or the session ends.

Other sportsctl invocations sharing the same storage see the refreshed token.
With --metrics-addr the client metrics are served at /metrics; with
--metrics-file they are written in the node exporter textfile format on exit.`,
	Annotations: map[string]string{config.AnnotationAuthRequired: "true"},
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.MustFromContext(cmd.Context())
		c, err := cfg.SDKClient(cmd.Context())
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		if metricsAddr != "" {
			shutdown, err := serveMetrics(metricsAddr, cfg.Registry)
			if err != nil {
				return err
			}
			defer shutdown()
		}

		pterm.Info.Printf("Keeping session of %s alive (every %s)\n", c.Session.Username(), cfg.RefreshInterval)
		sched := c.ScheduleRefreshToken(ctx)
		ended := waitSessionEnd(ctx, c, sched, pollInterval)
		sched.Stop()

		if metricsFile != "" {
			if err := prometheus.WriteToTextfile(metricsFile, cfg.Registry); err != nil {
				return fmt.Errorf("failed to write metrics: %w", err)
			}
		}
		if ended {
			return errors.New("session ended; run 'sportsctl auth login'")
		}
		pterm.Info.Println("Stopped")
		return nil
	},
}

func init() {
	watchCmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address (e.g. :9102)")
	watchCmd.Flags().StringVar(&metricsFile, "metrics-file", "", "Write metrics to this file on exit")
	watchCmd.Flags().DurationVar(&pollInterval, "poll", time.Second, "How often to check whether the session is still valid")
}

// waitSessionEnd blocks until ctx is done or the session is gone. It reports
// whether the session ended.
func waitSessionEnd(ctx context.Context, c *sdk.Client, sched *sdk.RefreshSchedule, every time.Duration) bool {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return false
		case <-sched.Done():
			return !c.Session.IsLoggedIn()
		case <-ticker.C:
			if !c.Session.IsLoggedIn() {
				return true
			}
		}
	}
}

func serveMetrics(addr string, reg *prometheus.Registry) (func(), error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	r := chi.NewRouter()
	r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	srv := &http.Server{Handler: r, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			pterm.Error.Printf("metrics server: %v\n", err)
		}
	}()
	pterm.Info.Printf("Serving metrics at http://%s/metrics\n", ln.Addr())

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}, nil
}
