package expense

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/frahmantamala/payable/internal/transport"
	"github.com/frahmantamala/payable/pkg/logger"
)

type ServiceAPI interface {
	ListPeriod(ctx context.Context, period string) ([]*Expense, error)
	Create(ctx context.Context, dto CreateExpenseDTO) (*Expense, error)
	SetStatus(ctx context.Context, id string, dto UpdateStatusDTO) (*Expense, error)
	Statistics(ctx context.Context, period string) (*Statistics, error)
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

// GetExpenses handles GET /expenses with an optional ?period= view.
func (h *Handler) GetExpenses(w http.ResponseWriter, r *http.Request) {
	period := r.URL.Query().Get("period")

	expenses, err := h.Service.ListPeriod(r.Context(), period)
	if err != nil {
		h.Logger.Error("GetExpenses: service error", "error", err, "period", period)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, expenses)
}

func (h *Handler) CreateExpense(w http.ResponseWriter, r *http.Request) {
	var dto CreateExpenseDTO
	if appErr := h.DecodeJSON(r, &dto); appErr != nil {
		h.Logger.Error("CreateExpense: invalid request body", "error", appErr)
		h.WriteAppError(w, appErr)
		return
	}

	expense, err := h.Service.Create(r.Context(), dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.Logger.Info("CreateExpense: expense created successfully",
		"expense_id", expense.ID,
		"amount", expense.Amount,
		"status", expense.Status)

	h.WriteJSON(w, http.StatusCreated, expense)
}

func (h *Handler) UpdateExpenseStatus(w http.ResponseWriter, r *http.Request) {
	id := transport.URLParam(r, "id")

	var dto UpdateStatusDTO
	if appErr := h.DecodeJSON(r, &dto); appErr != nil {
		h.Logger.Error("UpdateExpenseStatus: invalid request body", "error", appErr, "expense_id", id)
		h.WriteAppError(w, appErr)
		return
	}

	expense, err := h.Service.SetStatus(r.Context(), id, dto)
	if err != nil {
		h.Logger.Warn("UpdateExpenseStatus: not updated", "error", err, "expense_id", id)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, expense)
}

func (h *Handler) GetStatistics(w http.ResponseWriter, r *http.Request) {
	stats, err := h.Service.Statistics(r.Context(), r.URL.Query().Get("period"))
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, stats)
}
