package cli

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/felixgeelhaar/slotwise/adapter/api"
	"github.com/spf13/cobra"
)

var (
	serveAddr      string
	serveRateLimit float64
	serveRateBurst int
	serveOutbox    bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Long: `Serve the availability and booking HTTP API.

Examples:
  slotwise serve
  slotwise serve --addr :9090 --rate-limit 50`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := Require()
		if err != nil {
			return err
		}
		c := app.Container
		ctx := cmd.Context()

		cfg := api.DefaultServerConfig()
		cfg.Addr = firstNonEmpty(serveAddr, app.Config.APIAddr, cfg.Addr)
		if cmd.Flags().Changed("rate-limit") {
			cfg.RateLimit = serveRateLimit
		} else if app.Config.APIRateLimit > 0 {
			cfg.RateLimit = app.Config.APIRateLimit
		}
		if cmd.Flags().Changed("rate-burst") {
			cfg.RateBurst = serveRateBurst
		} else if app.Config.APIRateBurst > 0 {
			cfg.RateBurst = app.Config.APIRateBurst
		}

		var metrics http.Handler
		if c.Prometheus != nil {
			metrics = c.Prometheus.Handler()
		}
		handler := api.NewSchedulingHandler(api.HandlerConfigFromContainer(c))
		server := api.NewServer(cfg, handler, c.Health.Handler(), metrics, Logger())

		if serveOutbox || app.Config.OutboxProcessorEnabled {
			if err := c.OutboxProcessor.Start(ctx); err != nil {
				return err
			}
			defer c.OutboxProcessor.Stop()
		}

		errCh := make(chan error, 1)
		go func() {
			if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- err
			}
			close(errCh)
		}()

		select {
		case err := <-errCh:
			return err
		case <-ctx.Done():
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	},
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default API_ADDR)")
	serveCmd.Flags().Float64Var(&serveRateLimit, "rate-limit", 0, "requests per second on /api routes, 0 disables")
	serveCmd.Flags().IntVar(&serveRateBurst, "rate-burst", 0, "burst size for the rate limiter")
	serveCmd.Flags().BoolVar(&serveOutbox, "outbox", false, "run the outbox processor in this process")
	rootCmd.AddCommand(serveCmd)
}
