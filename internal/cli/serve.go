package cli

import (
	"context"
	"errors"
	"fmt"
	stdlog "log"
	"net/http"
	"time"

	"quickfuel-admin/internal/api"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
)

func newServeCommand(opts *rootOptions) *cobra.Command {
	var shutdownTimeout time.Duration

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the dashboard HTTP server",
		Long: `Start the dashboard HTTP server.

The server shuts down gracefully on SIGINT or SIGTERM, draining open
connections for up to --shutdown-timeout.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), opts, shutdownTimeout)
		},
	}
	cmd.Flags().DurationVar(&shutdownTimeout, "shutdown-timeout", 15*time.Second, "Maximum time to wait for connections to drain during shutdown")
	return cmd
}

func runServe(ctx context.Context, opts *rootOptions, shutdownTimeout time.Duration) error {
	cfg, log, err := opts.load()
	if err != nil {
		return err
	}
	defer log.Close()

	log.WithFields(map[string]interface{}{
		"config": cfg.SanitizeForLogging(),
	}).Debug("Configuration loaded")

	db, err := openDatabase(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer db.Close()

	services, err := api.NewServices(db, log, cfg)
	if err != nil {
		return err
	}
	defer services.Stop()

	if cfg.Server.Mode != "" {
		gin.SetMode(cfg.Server.Mode)
	}
	router := gin.New()
	if err := api.SetupRoutes(router, services); err != nil {
		return err
	}

	srv := &http.Server{
		Addr:         cfg.GetServerAddress(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
		ErrorLog:     stdlog.New(log.WithComponent("http").Writer(), "", 0),
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("Starting QuickFuel admin server on %s", srv.Addr)
		var err error
		if cfg.Server.TLS.Enabled {
			err = srv.ListenAndServeTLS(cfg.Server.TLS.CertFile, cfg.Server.TLS.KeyFile)
		} else {
			err = srv.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	log.Info("Server stopped")
	return nil
}
