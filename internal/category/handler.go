package category

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/frahmantamala/payable/internal/transport"
	"github.com/frahmantamala/payable/pkg/logger"
)

type ServiceAPI interface {
	List(ctx context.Context) ([]string, error)
	Add(ctx context.Context, name string) ([]string, error)
	Delete(ctx context.Context, name string) ([]string, error)
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(service ServiceAPI) *Handler {
	lg := logger.LoggerWrapper()
	if lg == nil {
		lg = slog.Default()
	}
	return &Handler{
		BaseHandler: transport.NewBaseHandler(lg),
		Service:     service,
	}
}

type AddCategoryRequest struct {
	Name string `json:"name"`
}

// ChangeResponse is returned by add and delete.
type ChangeResponse struct {
	Success    bool     `json:"success"`
	Categories []string `json:"categories"`
}

func (h *Handler) GetCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.Service.List(r.Context())
	if err != nil {
		h.Logger.Error("GetCategories: failed to get categories", "error", err)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, categories)
}

func (h *Handler) AddCategory(w http.ResponseWriter, r *http.Request) {
	var req AddCategoryRequest
	if appErr := h.DecodeJSON(r, &req); appErr != nil {
		h.WriteAppError(w, appErr)
		return
	}

	categories, err := h.Service.Add(r.Context(), req.Name)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, ChangeResponse{Success: true, Categories: categories})
}

func (h *Handler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	name := transport.URLParam(r, "name")

	categories, err := h.Service.Delete(r.Context(), name)
	if err != nil {
		h.Logger.Warn("DeleteCategory: not deleted", "name", name, "error", err)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, ChangeResponse{Success: true, Categories: categories})
}
