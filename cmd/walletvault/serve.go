package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/layer-3/walletvault/adapters/events"
	"github.com/layer-3/walletvault/adapters/storage"
	"github.com/layer-3/walletvault/adapters/tokenizer"
	"github.com/layer-3/walletvault/config"
	"github.com/layer-3/walletvault/ports"
	"github.com/layer-3/walletvault/service"
	transport "github.com/layer-3/walletvault/transport/http"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().Int("port", 8080, "HTTP server port (env: WALLETVAULT_SERVER_PORT)")
	serveCmd.Flags().String("redis-url", "", "Redis URL for storage events (env: WALLETVAULT_EVENTS_REDIS_URL)")

	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := configFromContext(cmd.Context())
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger := slog.Default()

	if err := os.MkdirAll(cfg.Storage.Path, 0o750); err != nil {
		return fmt.Errorf("create storage directory: %w", err)
	}

	root, err := os.OpenRoot(cfg.Storage.Path)
	if err != nil {
		return fmt.Errorf("open storage root: %w", err)
	}
	defer func() { _ = root.Close() }()

	tok, err := tokenizer.NewJWTTokenizer(tokenizer.Config{
		Secret:   []byte(cfg.Auth.Secret),
		Issuer:   cfg.Auth.Issuer,
		Audience: cfg.Auth.Audience,
	})
	if err != nil {
		return fmt.Errorf("create tokenizer: %w", err)
	}

	authService, err := service.NewAuthService(cfg.Auth.Challenge, tok, logger)
	if err != nil {
		return fmt.Errorf("create auth service: %w", err)
	}

	eventPub, closeEvents, err := setupEvents(ctx, cfg.Events, logger)
	if err != nil {
		return err
	}
	defer closeEvents()

	storageService := service.NewStorageService(
		storage.NewFileStore(root, logger),
		service.NewFileVerifier(logger),
		eventPub,
		logger,
	)

	gin.SetMode(cfg.Server.Mode)
	router := transport.SetupRouter(
		transport.RouterConfig{MaxUploadSize: cfg.Server.MaxUploadSize},
		authService,
		storageService,
		logger,
	)

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	server := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting server", "addr", addr, "storage", cfg.Storage.Path, "events", cfg.Events.Enabled)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	return nil
}

// setupEvents picks the event backend. The returned func releases it.
func setupEvents(ctx context.Context, cfg config.EventsConfig, logger *slog.Logger) (ports.EventPublisher, func(), error) {
	if !cfg.Enabled {
		return events.NopPublisher{}, func() {}, nil
	}

	publisher, client, err := events.NewRedisStreamPublisher(ctx, cfg.RedisURL, watermill.NewSlogLogger(logger))
	if err != nil {
		return nil, nil, fmt.Errorf("create event publisher: %w", err)
	}

	closeFn := func() {
		if err := publisher.Close(); err != nil {
			logger.Warn("failed to close event publisher", "err", err)
		}
		if err := client.Close(); err != nil {
			logger.Warn("failed to close redis client", "err", err)
		}
	}

	return events.NewWatermillPublisher(publisher), closeFn, nil
}
