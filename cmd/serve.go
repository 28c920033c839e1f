package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/city-explorer/internal/api"
	"github.com/sells-group/city-explorer/internal/catalog"
	"github.com/sells-group/city-explorer/internal/config"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the city API",
	Long:  "Loads the configured datasets in the background and serves markers, queries and city details over HTTP. SIGHUP reloads the data.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if err := cfg.Validate("serve"); err != nil {
			return err
		}

		src, closeSrc, err := initSource(ctx)
		if err != nil {
			return err
		}
		defer closeSrc()

		c := catalog.New(src, catalog.NewResultCache(cfg.Cache.MaxEntries, cfg.Cache.TTL()))

		// Serve 503s until the first load lands.
		go func() {
			if err := c.Reload(ctx); err != nil {
				zap.L().Warn("initial load failed; waiting for reload", zap.Error(err))
			}
		}()
		go c.Watch(ctx, time.Duration(cfg.Server.ReloadIntervalMins)*time.Minute, hangups(ctx))

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}
		srv := newServer(c, port, cfg.Server)

		// Graceful shutdown
		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout(cfg.Server))
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				zap.L().Warn("server shutdown", zap.Error(err))
			}
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

func newServer(c *catalog.Catalog, port int, sc config.ServerConfig) *http.Server {
	return &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           api.NewRouter(c, api.Options{AllowedOrigins: sc.AllowedOrigins}),
		ReadHeaderTimeout: 10 * time.Second,
	}
}

func shutdownTimeout(sc config.ServerConfig) time.Duration {
	if sc.ShutdownTimeoutSec <= 0 {
		return 10 * time.Second
	}
	return time.Duration(sc.ShutdownTimeoutSec) * time.Second
}

// hangups forwards SIGHUP as reload triggers until ctx is done.
func hangups(ctx context.Context) <-chan struct{} {
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGHUP)
	trigger := make(chan struct{}, 1)
	go func() {
		defer signal.Stop(sig)
		for {
			select {
			case <-ctx.Done():
				return
			case <-sig:
				zap.L().Info("SIGHUP received; reloading")
				select {
				case trigger <- struct{}{}:
				default:
				}
			}
		}
	}()
	return trigger
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
