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

	"api_pos/api"
	"api_pos/internal/auth"
	"api_pos/internal/config"
	"api_pos/internal/notify"
	"api_pos/internal/sales"
	"api_pos/internal/store"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var configPath string

func main() {
	root := &cobra.Command{
		Use:           "posd",
		Short:         "Point-of-sale sales backend",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "path to a TOML config file")
	root.AddCommand(serveCmd(), migrateCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			db, err := store.Open(cfg.Database.DSN, cfg.TxTimeout())
			if err != nil {
				return err
			}
			defer db.Close()
			return db.Migrate(cmd.Context())
		},
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			return serve(cfg)
		},
	}
}

func serve(cfg config.Config) error {
	logger, err := zap.NewProduction()
	if err != nil {
		return fmt.Errorf("error creating logger: %w", err)
	}
	defer logger.Sync()

	db, err := store.Open(cfg.Database.DSN, cfg.TxTimeout())
	if err != nil {
		return err
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := db.Migrate(ctx); err != nil {
		return err
	}

	var notifier sales.Notifier
	if cfg.Notify.URL != "" {
		dispatcher := notify.NewDispatcher(notify.Config{
			URL:       cfg.Notify.URL,
			Timeout:   cfg.NotifyTimeout(),
			QueueSize: cfg.Notify.QueueSize,
			Retries:   cfg.Notify.Retries,
		}, logger)
		defer func() {
			drainCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := dispatcher.Close(drainCtx); err != nil {
				logger.Warn("notification queue not drained", zap.Error(err))
			}
		}()
		notifier = dispatcher
	} else {
		logger.Warn("NOTIFY_URL not set, sale notifications disabled")
	}

	salesService := sales.NewService(db, auth.BcryptVerifier{}, notifier, logger)

	r := gin.New()
	api.InitRoutes(r, salesService, logger, cfg.Metrics.Enabled)

	srv := &http.Server{Addr: ":" + cfg.HTTP.Port, Handler: r}
	errCh := make(chan error, 1)
	go func() {
		logger.Info("POS server starting", zap.String("port", cfg.HTTP.Port))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("error trying to start server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
