// Command broker runs an embedded MQTT broker backing the shared store, for
// local development and integration testing without external infrastructure.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	mqttbroker "github.com/mochi-mqtt/server/v2"
	"github.com/mochi-mqtt/server/v2/hooks/auth"
	"github.com/mochi-mqtt/server/v2/listeners"

	"relay-bridge/backend/internal/config"
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

	logOptions := slog.HandlerOptions{
		Level:       cfg.LogLevel,
		ReplaceAttr: utils.SlogReplacer,
	}
	logger := slog.New(slog.NewJSONHandler(cfg.LogOutput, &logOptions)).
		With(slog.String("version", utils.GetVersionShort()))

	addr := fmt.Sprintf(":%d", cfg.MQTTBrokerPort)

	server, err := getMQTTServer(logger, addr)
	fatalIfErr(logger, err)

	go func() {
		logger.Info("MQTT broker listening", slog.String("address", addr))

		if err := server.Serve(); err != nil {
			logger.Error("MQTT broker failed", utils.ErrAttr(err))
			sigCancel()
		}
	}()

	<-sigCtx.Done()
	logger.Info("received signal, shutting down...")

	if err := server.Close(); err != nil {
		logger.Error("mqtt broker shutdown failed", utils.ErrAttr(err))
	}

	logger.Info("broker exited gracefully")
}

func getMQTTServer(l *slog.Logger, addr string) (*mqttbroker.Server, error) {
	server := mqttbroker.New(&mqttbroker.Options{
		Logger: l.With(slog.String("component", "mqtt-broker")),
	})
	tcp := listeners.NewTCP(listeners.Config{ID: "tcp", Address: addr})

	if err := server.AddListener(tcp); err != nil {
		return nil, err
	}

	if err := server.AddHook(new(auth.AllowHook), nil); err != nil {
		return nil, err
	}

	return server, nil
}

func fatalIfErr(l *slog.Logger, err error) {
	if err == nil {
		return
	}

	l.Error("error", utils.ErrAttr(err))
	os.Exit(1)
}
