package api

import (
	"errors"
	"net/http"

	"relay-bridge/backend/internal/relay"
	apicommon "relay-bridge/backend/internal/shared/api"
)

func (h *Handler) SetRelay(w http.ResponseWriter, r *http.Request) error {
	req, err := apicommon.DecodeJSON[SetRelayRequest](r)
	if err != nil {
		return err
	}

	if req.On == nil {
		return apicommon.NewValidationError(map[string]string{"on": "required"})
	}

	ack, err := h.svc.Core.SetRelay(r.Context(), *req.On)
	if err != nil {
		return commandError(err)
	}

	apicommon.RespondJSON(w, r, http.StatusOK, CommandResponse{CommandID: ack.CommandID, Result: ack.Result})

	return nil
}

func (h *Handler) SetThreshold(w http.ResponseWriter, r *http.Request) error {
	req, err := apicommon.DecodeJSON[SetThresholdRequest](r)
	if err != nil {
		return err
	}

	if req.Amps == nil {
		return apicommon.NewValidationError(map[string]string{"amps": "required"})
	}

	ack, err := h.svc.Core.SetThreshold(r.Context(), *req.Amps)
	if err != nil {
		return commandError(err)
	}

	apicommon.RespondJSON(w, r, http.StatusOK, CommandResponse{CommandID: ack.CommandID, Result: ack.Result})

	return nil
}

func (h *Handler) ApplySchedule(w http.ResponseWriter, r *http.Request) error {
	req, err := apicommon.DecodeJSON[ScheduleRequest](r)
	if err != nil {
		return err
	}

	sched, ack, err := h.svc.Core.ApplySchedule(r.Context(), req.StartTime, req.EndTime)
	if err != nil {
		return commandError(err)
	}

	apicommon.RespondJSON(w, r, http.StatusOK, ScheduleResponse{
		StartTime: sched.StartTime.Unix(),
		EndTime:   sched.EndTime.Unix(),
		CommandID: ack.CommandID,
		Result:    ack.Result,
	})

	return nil
}

func (h *Handler) QuickSchedule(w http.ResponseWriter, r *http.Request) error {
	req, err := apicommon.DecodeJSON[QuickScheduleRequest](r)
	if err != nil {
		return err
	}

	sched, ack, err := h.svc.Core.QuickSchedule(r.Context(), req.Minutes)
	if err != nil {
		return commandError(err)
	}

	apicommon.RespondJSON(w, r, http.StatusOK, ScheduleResponse{
		StartTime: sched.StartTime.Unix(),
		EndTime:   sched.EndTime.Unix(),
		CommandID: ack.CommandID,
		Result:    ack.Result,
	})

	return nil
}

func (h *Handler) CancelSchedule(w http.ResponseWriter, r *http.Request) error {
	ack, err := h.svc.Core.CancelSchedule(r.Context())
	if err != nil {
		return commandError(err)
	}

	apicommon.RespondJSON(w, r, http.StatusOK, CommandResponse{CommandID: ack.CommandID, Result: ack.Result})

	return nil
}

func (h *Handler) Restart(w http.ResponseWriter, r *http.Request) error {
	h.svc.Core.Restart()

	apicommon.RespondJSON(w, r, http.StatusAccepted, nil)

	return nil
}

// commandError maps engine errors onto HTTP statuses: validation failures
// are the client's fault, rejections are a device-side conflict, and
// timeouts mean the device never answered.
func commandError(err error) error {
	var (
		timeoutErr  *relay.CommandTimeoutError
		rejectedErr *relay.CommandRejectedError
	)

	switch {
	case errors.Is(err, relay.ErrInvalidTimeFormat),
		errors.Is(err, relay.ErrScheduleTooLong),
		errors.Is(err, relay.ErrInvalidDuration),
		errors.Is(err, relay.ErrInvalidThreshold):
		return apicommon.NewError(http.StatusBadRequest, err.Error())

	case errors.As(err, &timeoutErr):
		return apicommon.NewError(http.StatusGatewayTimeout, err.Error())

	case errors.As(err, &rejectedErr):
		return apicommon.NewError(http.StatusConflict, err.Error())

	case errors.Is(err, relay.ErrCommandWriteFailed):
		return apicommon.NewError(http.StatusBadGateway, err.Error())

	default:
		return err
	}
}
