package middleware

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/tomassolanoprieto/subprice/pkg/requestcontext"
)

const requestIDHeader = "X-Request-Id"

// RequestID tags every request with an ID, honoring one supplied by the
// caller so traces can span clients and server.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(requestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, requestID)
		ctx := requestcontext.WithRequestID(r.Context(), requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
