package api

import (
	"net/http"

	apicommon "relay-bridge/backend/internal/shared/api"
	sharedtypes "relay-bridge/backend/internal/shared/types"
)

func (h *Handler) Ping(w http.ResponseWriter, r *http.Request) error {
	apicommon.RespondJSON(w, r, http.StatusOK, sharedtypes.PingResponse{
		Message: "Pong", Status: sharedtypes.PingStatusOK,
	})

	return nil
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) error {
	status := h.svc.Core.Health(r.Context())
	resp := HealthResponse{
		Database: status.Database,
		Store:    status.Store,
		Device:   status.Device,
	}

	code := http.StatusOK
	if !status.Database || !status.Store {
		code = http.StatusServiceUnavailable
	}

	apicommon.RespondJSON(w, r, code, resp)

	return nil
}
