package user

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/frahmantamala/payable/internal/transport"
	"github.com/frahmantamala/payable/pkg/logger"
)

type ServiceAPI interface {
	List(ctx context.Context) ([]*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	Create(ctx context.Context, dto CreateUserDTO) (*User, error)
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(svc ServiceAPI) *Handler {
	lg := logger.LoggerWrapper()
	if lg == nil {
		lg = slog.Default()
	}
	return &Handler{
		BaseHandler: transport.NewBaseHandler(lg),
		Service:     svc,
	}
}

// ListUsers handles GET /users
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.Service.List(r.Context())
	if err != nil {
		h.Logger.Error("ListUsers: service error", "error", err)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, users)
}

// GetUser handles GET /users/{email}
func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	email := transport.URLParam(r, "email")

	u, err := h.Service.GetByEmail(r.Context(), email)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, u)
}

// CreateUser handles POST /users
func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var dto CreateUserDTO
	if appErr := h.DecodeJSON(r, &dto); appErr != nil {
		h.Logger.Error("CreateUser: invalid request body", "error", appErr)
		h.WriteAppError(w, appErr)
		return
	}

	u, err := h.Service.Create(r.Context(), dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.Logger.Info("CreateUser: user created", "user_id", u.ID, "role", u.Role)
	h.WriteJSON(w, http.StatusCreated, u)
}
