package middleware

import (
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/google/uuid"

	"github.com/frahmantamala/payable/pkg/logger"
)

const HeaderTraceID = "X-Trace-ID"

// RequestID echoes the caller's X-Trace-ID, or mints one, and puts it on
// the context logger next to chi's request id.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		traceID := r.Header.Get(HeaderTraceID)
		if traceID == "" {
			traceID = uuid.NewString()
		}

		fields := []any{"trace_id", traceID}
		if reqID := middleware.GetReqID(r.Context()); reqID != "" {
			fields = append(fields, "request_id", reqID)
		}
		ctx := logger.With(r.Context(), fields...)

		w.Header().Set(HeaderTraceID, traceID)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
