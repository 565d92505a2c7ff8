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

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/m04kA/SMC-FacilityBookingService/internal/config"
	"github.com/m04kA/SMC-FacilityBookingService/internal/infra/storage/migrations"
	"github.com/m04kA/SMC-FacilityBookingService/pkg/logger"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "facility-booking",
		Short:         "Бронирование слотов на общих площадках",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "config.toml", "путь к TOML конфигу")

	run := func(fn func(ctx context.Context, cfg *config.Config, log *logger.Logger) error) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			log, err := logger.New(cfg.Logs.File, cfg.Logs.Level)
			if err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}
			defer log.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return fn(ctx, cfg, log)
		}
	}

	root.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "HTTP API и фоновое завершение прошедших броней",
			RunE:  run(serve),
		},
		&cobra.Command{
			Use:   "migrate",
			Short: "Применить миграции схемы PostgreSQL",
			RunE:  run(migrate),
		},
		&cobra.Command{
			Use:   "seed-slots",
			Short: "Создать стандартную сетку слотов (06-11 утро, 16-21 вечер)",
			RunE:  run(seedSlots),
		},
		&cobra.Command{
			Use:   "complete-past",
			Short: "Перевести active брони прошедших дней в completed",
			RunE:  run(completePast),
		},
	)

	return root
}

func serve(ctx context.Context, cfg *config.Config, log *logger.Logger) error {
	log.Info("Starting SMC-FacilityBookingService (storage=%s, timezone=%s)...", cfg.Storage.Driver, cfg.Booking.Timezone)

	app, err := newApp(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer app.Close()

	// В памяти каталог пуст после каждого старта
	if cfg.Storage.Driver == config.StorageMemory {
		if _, err := app.catalog.SeedSlots(ctx); err != nil {
			return err
		}
	}

	addr := fmt.Sprintf(":%d", cfg.Server.HTTPPort)
	srv := &http.Server{
		Addr:         addr,
		Handler:      app.router(),
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("Starting server on %s", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	})

	// Graceful shutdown
	g.Go(func() error {
		<-gctx.Done()
		log.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownTimeout)*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("Server forced to shutdown: %v", err)
		}
		return nil
	})

	// Завершение прошедших броней
	g.Go(func() error {
		ticker := time.NewTicker(cfg.Booking.CompletionInterval())
		defer ticker.Stop()

		for {
			if _, err := app.reservations.CompletePast(gctx); err != nil {
				log.Error("Background completion failed: %v", err)
			}
			select {
			case <-gctx.Done():
				return nil
			case <-ticker.C:
			}
		}
	})

	if err := g.Wait(); err != nil {
		return err
	}

	log.Info("Server stopped gracefully")
	return nil
}

func migrate(ctx context.Context, cfg *config.Config, log *logger.Logger) error {
	if cfg.Storage.Driver != config.StoragePostgres {
		return fmt.Errorf("migrate requires storage.driver=%q, got %q", config.StoragePostgres, cfg.Storage.Driver)
	}

	app := &App{cfg: cfg, log: log, stopMetricsCh: make(chan struct{})}
	if err := app.openDB(ctx); err != nil {
		return err
	}
	defer func() {
		close(app.stopMetricsCh)
		_ = app.db.Close()
	}()

	applied, err := migrations.Up(ctx, app.wrappedDB)
	if err != nil {
		return err
	}

	if len(applied) == 0 {
		log.Info("Schema is up to date")
	}
	for _, name := range applied {
		log.Info("Applied migration %s", name)
	}
	return nil
}

func seedSlots(ctx context.Context, cfg *config.Config, log *logger.Logger) error {
	app, err := newApp(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer app.Close()

	result, err := app.catalog.SeedSlots(ctx)
	if err != nil {
		return err
	}

	log.Info("Slot grid ready: %d inserted, %d already present", result.Inserted, result.Existing)
	return nil
}

func completePast(ctx context.Context, cfg *config.Config, log *logger.Logger) error {
	app, err := newApp(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer app.Close()

	n, err := app.reservations.CompletePast(ctx)
	if err != nil {
		return err
	}

	log.Info("Completed %d past reservations", n)
	return nil
}
