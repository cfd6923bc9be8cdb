package apicommon

import (
	"net/http"
	"runtime/debug"

	"relay-bridge/backend/internal/shared/types"
)

// RecovererMiddleware recovers from panics in handlers and returns a 500.
func (m *MiddlewareHandler) RecovererMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				l := GetLogger(r.Context())
				l.Error("panic recovered",
					"panic", rec,
					"stack", string(debug.Stack()),
				)

				RespondJSON(w, r, http.StatusInternalServerError, &types.ErrorResponse{
					RequestID: GetRequestID(r.Context()),
					Message:   "Internal Server Error",
				})
			}
		}()

		next.ServeHTTP(w, r)
	})
}
