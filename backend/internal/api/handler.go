package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"relay-bridge/backend/internal/services"
	apicommon "relay-bridge/backend/internal/shared/api"
)

// Handler serves the HTTP API over the device sync engine.
type Handler struct {
	l   *slog.Logger
	svc *services.Services
}

func NewHandler(l *slog.Logger, svc *services.Services) *Handler {
	return &Handler{
		l:   l.With(slog.String("component", "api")),
		svc: svc,
	}
}

// Routes builds the router with the shared middleware chain.
func (h *Handler) Routes() http.Handler {
	mw := apicommon.NewMiddlewareHandler(h.l)

	r := chi.NewRouter()
	r.Use(mw.RequestIDMiddleware)
	r.Use(mw.LoggerMiddleware)
	r.Use(mw.RecovererMiddleware)

	r.Get("/api/ping", apicommon.ErrorHandler(h.Ping))
	r.Get("/api/health", apicommon.ErrorHandler(h.Health))

	r.Get("/api/state", apicommon.ErrorHandler(h.GetState))
	r.Get("/api/alerts", apicommon.ErrorHandler(h.GetAlerts))
	r.Get("/api/history/telemetry", apicommon.ErrorHandler(h.GetTelemetryHistory))
	r.Get("/api/history/commands", apicommon.ErrorHandler(h.GetCommandHistory))

	r.Post("/api/relay", apicommon.ErrorHandler(h.SetRelay))
	r.Post("/api/threshold", apicommon.ErrorHandler(h.SetThreshold))
	r.Post("/api/schedule", apicommon.ErrorHandler(h.ApplySchedule))
	r.Post("/api/schedule/quick", apicommon.ErrorHandler(h.QuickSchedule))
	r.Delete("/api/schedule", apicommon.ErrorHandler(h.CancelSchedule))
	r.Post("/api/restart", apicommon.ErrorHandler(h.Restart))

	return r
}
