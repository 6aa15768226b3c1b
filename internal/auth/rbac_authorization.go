package auth

import (
	"log/slog"
	"net/http"

	"github.com/frahmantamala/payable/internal"
	"github.com/frahmantamala/payable/internal/transport"
)

// RBACAuthorization guards routes by role. With enforcement off every guard
// lets requests through.
type RBACAuthorization struct {
	*transport.BaseHandler
	checker PermissionChecker
	enforce bool
}

func NewRBACAuthorization(checker PermissionChecker, enforce bool, logger *slog.Logger) *RBACAuthorization {
	return &RBACAuthorization{
		BaseHandler: transport.NewBaseHandler(logger),
		checker:     checker,
		enforce:     enforce,
	}
}

func (ra *RBACAuthorization) Check(next http.HandlerFunc, permission string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !ra.enforce {
			next.ServeHTTP(w, r)
			return
		}

		actor, ok := internal.ActorFromContext(r.Context())
		if !ok {
			ra.Logger.Warn("authorization check failed: no authenticated user", "permission", permission)
			ra.WriteAppError(w, internal.NewUnauthorizedError("Authentication required", internal.ErrCodeInvalidToken))
			return
		}

		if !ra.checker.HasPermission(actor.Role, permission) {
			ra.Logger.WarnContext(r.Context(), "access denied: insufficient role",
				"user_id", actor.ID,
				"role", actor.Role,
				"required_permission", permission)
			ra.WriteAppError(w, internal.ErrInsufficientRole)
			return
		}

		next.ServeHTTP(w, r)
	}
}

func (ra *RBACAuthorization) Middleware(permission string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return ra.Check(next.ServeHTTP, permission)
	}
}
