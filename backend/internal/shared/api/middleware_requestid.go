package apicommon

import (
	"net/http"

	"relay-bridge/backend/pkg/utils"

	"github.com/google/uuid"
)

// RequestIDMiddleware generates or extracts request IDs.
func (m *MiddlewareHandler) RequestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(RequestIDHeader)
		if requestID == "" {
			requestID = utils.NewUUID()
		} else if _, err := uuid.Parse(requestID); err != nil {
			// Reject invalid client-supplied IDs and issue our own
			requestID = utils.NewUUID()
		}

		ctx := WithRequestID(r.Context(), requestID)
		w.Header().Set(RequestIDHeader, requestID)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
