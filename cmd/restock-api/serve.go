package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/JonnyWalker81/restock/backend/internal/handlers"
	"github.com/JonnyWalker81/restock/backend/internal/logger"
	"github.com/JonnyWalker81/restock/backend/internal/middleware"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the API server",
	Long:  `Start the HTTP API server and listen for requests.`,
	RunE:  runServe,
}

var (
	port string
)

func init() {
	serveCmd.Flags().StringVarP(&port, "port", "p", "", "Port to listen on (overrides config)")
}

func runServe(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	cfg := a.cfg

	// Override port from flag if provided
	if port != "" {
		cfg.Server.Port = port
	}

	a.log.Info("starting restock api server",
		logger.String("env", cfg.Server.Env),
		logger.String("database_driver", cfg.Database.Driver),
	)

	if cfg.Server.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	var limiter *middleware.RateLimiter
	if cfg.Server.RateLimitPerMinute > 0 {
		limiter = middleware.NewRateLimiter(cfg.Server.RateLimitPerMinute, time.Minute, "api")
		defer limiter.Stop()
	}

	router := handlers.NewRouter(handlers.RouterConfig{
		Env:            cfg.Server.Env,
		Production:     cfg.Server.IsProduction(),
		AllowedOrigins: cfg.Server.AllowedOrigins,
		RateLimiter:    limiter,
		Logger:         a.log,
		Metrics:        a.metrics,
		Ping:           a.ping,
		Purchases:      a.purchases,
		Predictions:    a.predictions,
		Analytics:      a.analytics,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		a.log.Info("server listening", logger.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("failed to start server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	a.log.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down server: %w", err)
	}
	return nil
}
