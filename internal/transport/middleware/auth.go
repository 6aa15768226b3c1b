package middleware

import (
	"net/http"
	"strings"

	"github.com/frahmantamala/payable/internal"
	"github.com/frahmantamala/payable/pkg/logger"
)

// HeaderUserID identifies the caller of an unauthenticated request, the
// way the web client names the acting user.
const HeaderUserID = "X-User-ID"

// UserContext falls back to the X-User-ID header when no bearer token put
// an actor on the request. The header actor carries no role, so it never
// passes an enforced role check.
func UserContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := internal.ActorFromContext(r.Context()); ok {
			next.ServeHTTP(w, r)
			return
		}

		userID := strings.TrimSpace(r.Header.Get(HeaderUserID))
		if userID == "" {
			next.ServeHTTP(w, r)
			return
		}

		ctx := internal.ContextWithActor(r.Context(), &internal.Actor{ID: userID})
		ctx = logger.With(ctx, "actor_id", userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
