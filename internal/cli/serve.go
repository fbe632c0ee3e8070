package cli

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"dgcreview/api/internal/app"

	"github.com/spf13/cobra"
)

func newServeCmd(flags *globalFlags) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the review HTTP server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := flags.config()
			if addr != "" {
				cfg.Addr = addr
			}
			log := newLogger(cmd, cfg)

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			rt, err := openRuntime(ctx, cfg, log)
			if err != nil {
				return runtimeErr(err)
			}
			defer rt.Close()

			maintainer := app.Maintainer{User: cfg.MaintainerUser, PasswordHash: cfg.MaintainerPasswordHash}
			if !maintainer.Enabled() {
				log.Warn(ctx, "maintainer auth disabled, listing and delete routes are open")
			}
			httpServer := app.NewHTTPServer(rt.reviews, log, app.Options{
				CORSOrigin: cfg.CORSOrigin,
				Maintainer: maintainer,
				Checks:     rt.checks,
			})
			server := &http.Server{
				Addr:              cfg.Addr,
				Handler:           httpServer.Handler(),
				ReadHeaderTimeout: 10 * time.Second,
				ReadTimeout:       15 * time.Second,
				WriteTimeout:      30 * time.Second,
				IdleTimeout:       60 * time.Second,
			}

			errCh := make(chan error, 1)
			go func() {
				log.Info(ctx, "dgcreview listening", "addr", cfg.Addr)
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
				close(errCh)
			}()

			select {
			case err := <-errCh:
				if err != nil {
					return runtimeErr(err)
				}
				return nil
			case <-ctx.Done():
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := server.Shutdown(shutdownCtx); err != nil {
				log.Error(shutdownCtx, "shutdown error", "err", err)
				return runtimeErr(err)
			}
			log.Info(shutdownCtx, "server stopped")
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides API_ADDR)")
	return cmd
}
