package api

import (
	"net/http"
	"strconv"

	apicommon "relay-bridge/backend/internal/shared/api"
)

const (
	defaultHistoryLimit = 100
	maxHistoryLimit     = 1000
)

func (h *Handler) GetState(w http.ResponseWriter, r *http.Request) error {
	apicommon.RespondJSON(w, r, http.StatusOK, h.svc.Core.Snapshot())

	return nil
}

func (h *Handler) GetAlerts(w http.ResponseWriter, r *http.Request) error {
	apicommon.RespondJSON(w, r, http.StatusOK, h.svc.Core.Snapshot().Alerts)

	return nil
}

func (h *Handler) GetTelemetryHistory(w http.ResponseWriter, r *http.Request) error {
	limit, err := historyLimit(r)
	if err != nil {
		return err
	}

	rows, err := h.svc.Core.RecentTelemetry(r.Context(), limit)
	if err != nil {
		return err
	}

	apicommon.RespondJSON(w, r, http.StatusOK, rows)

	return nil
}

func (h *Handler) GetCommandHistory(w http.ResponseWriter, r *http.Request) error {
	limit, err := historyLimit(r)
	if err != nil {
		return err
	}

	rows, err := h.svc.Core.RecentCommands(r.Context(), limit)
	if err != nil {
		return err
	}

	apicommon.RespondJSON(w, r, http.StatusOK, rows)

	return nil
}

func historyLimit(r *http.Request) (int, error) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return defaultHistoryLimit, nil
	}

	limit, err := strconv.Atoi(raw)
	if err != nil || limit <= 0 || limit > maxHistoryLimit {
		return 0, apicommon.NewError(http.StatusBadRequest,
			"limit must be an integer between 1 and "+strconv.Itoa(maxHistoryLimit))
	}

	return limit, nil
}
