// Command simdevice emulates a power-monitoring relay on the shared store:
// it publishes telemetry on a fixed cadence, executes commands from the
// control slot, writes acknowledgment records, and raises overcurrent
// alerts. Useful for exercising the bridge without hardware.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"relay-bridge/backend/internal/config"
	"relay-bridge/backend/internal/relay"
	"relay-bridge/backend/pkg/store"
	"relay-bridge/backend/pkg/utils"
)

const telemetryInterval = 2 * time.Second

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

	st, err := store.New(logger, store.Options{
		BrokerURL: cfg.MQTTBroker,
		ClientID:  cfg.MQTTClientID + "-simdevice",
		Username:  cfg.MQTTUsername,
		Password:  cfg.MQTTPassword,
	})
	fatalIfErr(logger, err)

	dev := newDevice(logger, st, cfg.DeviceID)

	fatalIfErr(logger, st.RegisterSubscribe(store.SubscriptionSpec{
		Path:    dev.paths.Control(),
		QoS:     store.QoSAtLeastOnce,
		Handler: dev.handleControl,
	}))
	fatalIfErr(logger, st.Connect())

	logger.Info("simulated device running", slog.String("deviceID", cfg.DeviceID))

	dev.run(sigCtx)

	st.Disconnect()
	logger.Info("simulated device exited gracefully")
}

// device is the emulated relay state machine.
type device struct {
	l     *slog.Logger
	st    *store.Client
	paths relay.Paths

	mu              sync.Mutex
	relayOn         bool
	threshold       float64
	energy          float64
	lastCommandID   string
	lastCommandTime int64
	tripped         bool
	alerts          map[string]map[string]any
}

func newDevice(l *slog.Logger, st *store.Client, deviceID string) *device {
	return &device{
		l:         l.With(slog.String("component", "simdevice")),
		st:        st,
		paths:     relay.Paths{DeviceID: deviceID},
		threshold: relay.DefaultCurrentThreshold,
		alerts:    make(map[string]map[string]any),
	}
}

func (d *device) run(ctx context.Context) {
	ticker := time.NewTicker(telemetryInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			d.publishTelemetry()
		}
	}
}

// handleControl executes one command record from the control slot and writes
// its acknowledgment.
func (d *device) handleControl(path string, payload []byte) {
	if len(payload) == 0 {
		return
	}

	cmd, err := utils.FromJSON[map[string]any](payload)
	if err != nil {
		d.l.Warn("dropping malformed command", slog.String("path", path), utils.ErrAttr(err))

		return
	}

	commandID, _ := cmd["commandId"].(string)
	commandType, _ := cmd["command"].(string)

	if commandID == "" || commandType == "" {
		return
	}

	result := d.execute(commandType, cmd)

	d.mu.Lock()
	d.lastCommandID = commandID
	d.lastCommandTime = time.Now().Unix()
	d.mu.Unlock()

	ack := map[string]any{
		"commandId":  commandID,
		"type":       commandType,
		"result":     result,
		"processed":  true,
		"timestamp":  time.Now().Unix(),
		"deviceTime": time.Now().Unix(),
	}

	if err := d.st.Write(d.paths.Ack(commandID), ack); err != nil {
		d.l.Error("failed to write acknowledgment", utils.ErrAttr(err))

		return
	}

	d.l.Info("command executed",
		slog.String("commandId", commandID),
		slog.String("type", commandType),
		slog.String("result", result))
}

func (d *device) execute(commandType string, cmd map[string]any) string {
	d.mu.Lock()
	defer d.mu.Unlock()

	switch commandType {
	case "setRelay":
		want, _ := cmd["relayState"].(bool)
		if d.relayOn == want {
			return relay.AckResultNoChangeRequired
		}

		d.relayOn = want
		d.tripped = false

		return relay.AckResultSuccess

	case "setThreshold":
		amps, ok := cmd["threshold"].(float64)
		if !ok || amps <= 0 {
			return "INVALID_THRESHOLD"
		}

		d.threshold = amps

		return relay.AckResultSuccess

	case "setSchedule", "cancelSchedule":
		return relay.AckResultSuccess

	default:
		return "UNSUPPORTED_COMMAND"
	}
}

func (d *device) publishTelemetry() {
	now := time.Now()

	d.mu.Lock()

	var current float64
	if d.relayOn {
		current = 4.0 + rand.Float64()*2.0 //nolint:gosec // Simulated measurement noise
	}

	voltage := 228.0 + rand.Float64()*4.0 //nolint:gosec // Simulated measurement noise
	power := voltage * current
	d.energy += power * telemetryInterval.Hours() / 1000

	if d.relayOn && current > d.threshold {
		d.relayOn = false
		d.tripped = true
		d.raiseAlertLocked(now, current)
	}

	record := map[string]any{
		"relayState":         d.relayOn,
		"voltage":            voltage,
		"current":            current,
		"power":              power,
		"energy":             d.energy,
		"currentThreshold":   d.threshold,
		"deviceConnected":    true,
		"overcurrentTripped": d.tripped,
		"timestamp":          now.Unix(),
		"heartbeat":          now.Unix(),
		"lastCommandId":      d.lastCommandID,
		"lastCommandTime":    d.lastCommandTime,
	}
	d.mu.Unlock()

	if err := d.st.Write(d.paths.Telemetry(), record); err != nil {
		d.l.Error("failed to write telemetry", utils.ErrAttr(err))
	}
}

// raiseAlertLocked appends an overcurrent alert and republishes the alert
// record-set. Must be called with the mutex held.
func (d *device) raiseAlertLocked(now time.Time, current float64) {
	id := utils.NewUUID()
	d.alerts[id] = map[string]any{
		"type":      "OVERCURRENT",
		"message":   fmt.Sprintf("current %.1fA exceeded threshold %.1fA, relay tripped", current, d.threshold),
		"timestamp": now.Unix(),
	}

	if err := d.st.Write(d.paths.Alerts(), d.alerts); err != nil {
		d.l.Error("failed to write alerts", utils.ErrAttr(err))
	}
}

func fatalIfErr(l *slog.Logger, err error) {
	if err == nil {
		return
	}

	l.Error("error", utils.ErrAttr(err))
	os.Exit(1)
}
