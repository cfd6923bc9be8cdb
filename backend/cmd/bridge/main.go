// Command bridge runs the relay sync service: it mirrors device state from
// the shared store, dispatches commands with acknowledgment correlation, and
// serves the HTTP API over the synchronized view.
package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/mattn/go-sqlite3"

	"relay-bridge/backend/internal/api"
	"relay-bridge/backend/internal/config"
	"relay-bridge/backend/internal/history"
	"relay-bridge/backend/internal/migrations"
	"relay-bridge/backend/internal/services"
	apicommon "relay-bridge/backend/internal/shared/api"
	"relay-bridge/backend/pkg/migrator"
	"relay-bridge/backend/pkg/store"
	"relay-bridge/backend/pkg/utils"
)

func main() {
	sigCtx, sigCancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer sigCancel()

	cfg, err := config.New()
	if err != nil {
		fatalIfErr(slog.Default(), fmt.Errorf("failed to create config: %w", err))
	}

	defer func() {
		if err := cfg.Close(); err != nil {
			slog.Default().Error("failed to close config", utils.ErrAttr(err))
		}
	}()

	logger := getLogger(cfg)

	if err := runMigrations(logger, cfg); err != nil {
		fatalIfErr(logger, fmt.Errorf("failed to run migrations: %w", err))
	}

	db, err := sql.Open("sqlite3", cfg.Database)
	fatalIfErr(logger, err)

	defer utils.LogOnError(logger, db.Close, "failed to close database")

	hist := history.NewStore(logger, db, cfg.DeviceID)

	st, err := store.New(logger, store.Options{
		BrokerURL: cfg.MQTTBroker,
		ClientID:  cfg.MQTTClientID,
		Username:  cfg.MQTTUsername,
		Password:  cfg.MQTTPassword,
	})
	fatalIfErr(logger, err)

	core := services.NewCoreService(logger, st, db, hist, services.CoreOptions{
		DeviceID: cfg.DeviceID,
	})
	st.OnSubscriptionError(core.OnStoreError)

	for _, spec := range core.Subscriptions() {
		fatalIfErr(logger, st.RegisterSubscribe(spec))
	}

	svc := services.NewServices(logger, core)
	handler := api.NewHandler(logger, svc)

	go core.Run(sigCtx)

	go func() {
		if err := st.Connect(); err != nil {
			logger.Error("initial store connection failed", utils.ErrAttr(err))
			// Hand the failure to the liveness monitor so it owns the retries
			core.OnStoreError(err)
		}
	}()

	httpServer := apicommon.NewHTTPServer(logger, fmt.Sprintf(":%d", cfg.Port), handler.Routes())
	httpServer.StartOnBackground(sigCancel)

	<-sigCtx.Done()
	logger.Info("received signal, shutting down...")

	if err := httpServer.ShutdownWithDefaultTimeout(); err != nil {
		logger.Error("http server shutdown failed", utils.ErrAttr(err))
	}

	st.Disconnect()

	logger.Info("server exited gracefully")
}

func getLogger(cfg *config.Config) *slog.Logger {
	logOptions := slog.HandlerOptions{
		Level:       cfg.LogLevel,
		ReplaceAttr: utils.SlogReplacer,
	}

	return slog.New(slog.NewJSONHandler(cfg.LogOutput, &logOptions)).
		With(slog.String("version", utils.GetVersionShort()))
}

func fatalIfErr(l *slog.Logger, err error) {
	if err == nil {
		return
	}

	l.Error("error", utils.ErrAttr(err))
	os.Exit(1)
}

func runMigrations(l *slog.Logger, cfg *config.Config) error {
	l.Info("Running database migrations")

	mig, err := migrator.New(l, migrations.GetFS(), cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to create migrator: %w", err)
	}

	if err := mig.Migrate(); err != nil {
		return fmt.Errorf("failed to migrate: %w", err)
	}

	l.Info("Database migrations completed successfully")

	return nil
}
