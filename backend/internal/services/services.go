package services

import (
	"log/slog"
)

// Services aggregates the application services exposed to the API layer.
type Services struct {
	l    *slog.Logger
	Core *CoreService
}

func NewServices(l *slog.Logger, core *CoreService) *Services {
	return &Services{
		l:    l.With(slog.String("module", "services")),
		Core: core,
	}
}
