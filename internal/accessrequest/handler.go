package accessrequest

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/frahmantamala/payable/internal"
	"github.com/frahmantamala/payable/internal/transport"
	"github.com/frahmantamala/payable/internal/user"
	"github.com/frahmantamala/payable/pkg/logger"
)

type ServiceAPI interface {
	List(ctx context.Context) ([]*Request, error)
	Submit(ctx context.Context, dto SubmitRequestDTO) (*Request, error)
	Approve(ctx context.Context, id string, dto ApproveRequestDTO) (*user.User, error)
	Reject(ctx context.Context, id string) (*Request, error)
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

// ListRequests handles GET /user-requests
func (h *Handler) ListRequests(w http.ResponseWriter, r *http.Request) {
	requests, err := h.Service.List(r.Context())
	if err != nil {
		h.Logger.Error("ListRequests: service error", "error", err)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, requests)
}

// SubmitRequest handles POST /user-requests
func (h *Handler) SubmitRequest(w http.ResponseWriter, r *http.Request) {
	var dto SubmitRequestDTO
	if appErr := h.DecodeJSON(r, &dto); appErr != nil {
		h.Logger.Error("SubmitRequest: invalid request body", "error", appErr)
		h.WriteAppError(w, appErr)
		return
	}

	req, err := h.Service.Submit(r.Context(), dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusCreated, req)
}

// ApproveRequest handles PATCH /user-requests/{id}/approve
func (h *Handler) ApproveRequest(w http.ResponseWriter, r *http.Request) {
	id := transport.URLParam(r, "id")

	var dto ApproveRequestDTO
	if appErr := h.DecodeJSON(r, &dto); appErr != nil {
		h.Logger.Error("ApproveRequest: invalid request body", "error", appErr, "request_id", id)
		h.WriteAppError(w, appErr)
		return
	}
	dto.ApprovedBy = internal.ActorIDOr(r.Context(), dto.ApprovedBy)

	u, err := h.Service.Approve(r.Context(), id, dto)
	if err != nil {
		h.Logger.Warn("ApproveRequest: not approved", "error", err, "request_id", id)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, u)
}

// RejectRequest handles PATCH /user-requests/{id}/reject
func (h *Handler) RejectRequest(w http.ResponseWriter, r *http.Request) {
	id := transport.URLParam(r, "id")

	req, err := h.Service.Reject(r.Context(), id)
	if err != nil {
		h.Logger.Warn("RejectRequest: not rejected", "error", err, "request_id", id)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, req)
}
