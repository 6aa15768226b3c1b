package expense

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/frahmantamala/payable/internal"
	"github.com/frahmantamala/payable/internal/core/common/validation"
	expenseDatamodel "github.com/frahmantamala/payable/internal/core/datamodel/expense"
	"github.com/frahmantamala/payable/internal/core/events"
	"github.com/frahmantamala/payable/internal/core/ids"
)

// Repository is the expense slice of the entity store. GetByID returns
// (nil, nil) for an unknown id; UpdatePayment reports whether a row matched.
type Repository interface {
	List(ctx context.Context) ([]*expenseDatamodel.Expense, error)
	GetByID(ctx context.Context, id string) (*expenseDatamodel.Expense, error)
	Create(ctx context.Context, e *expenseDatamodel.Expense) error
	UpdatePayment(ctx context.Context, id string, patch expenseDatamodel.PaymentPatch) (bool, error)
	CountByCategory(ctx context.Context, category string) (int64, error)
}

// Aggregator is implemented by stores that can total expenses without
// loading them.
type Aggregator interface {
	Aggregate(ctx context.Context, r expenseDatamodel.DateRange) ([]expenseDatamodel.Aggregate, error)
}

// CategoryChecker reports whether a category name is known.
type CategoryChecker interface {
	Exists(ctx context.Context, name string) (bool, error)
}

type Publisher interface {
	Publish(ctx context.Context, event events.Event) error
}

// Service handles expense business logic
type Service struct {
	repo       Repository
	categories CategoryChecker
	publisher  Publisher
	logger     *slog.Logger
	now        func() time.Time
}

// NewService creates a new expense service
func NewService(repo Repository, categories CategoryChecker, publisher Publisher, logger *slog.Logger) *Service {
	return &Service{
		repo:       repo,
		categories: categories,
		publisher:  publisher,
		logger:     logger,
		now:        time.Now,
	}
}

// List returns every expense, newest first. Records stored without a
// creation time get the instant embedded in their id.
func (s *Service) List(ctx context.Context) ([]*Expense, error) {
	rows, err := s.repo.List(ctx)
	if err != nil {
		s.logger.Error("failed to list expenses", "error", err)
		return nil, fmt.Errorf("list expenses: %w", err)
	}

	expenses := FromDataModelSlice(rows)
	for _, e := range expenses {
		if !e.CreatedAt.IsZero() {
			continue
		}
		if at, ok := ids.Instant(e.ID, ids.PrefixExpense); ok {
			e.CreatedAt = at
			continue
		}
		s.logger.Warn("expense has no creation time and an unparsable id", "expense_id", e.ID)
	}

	SortNewestFirst(expenses)
	return expenses, nil
}

// ListPeriod is List restricted to a period view.
func (s *Service) ListPeriod(ctx context.Context, period string) ([]*Expense, error) {
	r, err := PeriodRange(period, s.now())
	if err != nil {
		return nil, err
	}

	expenses, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	if period == PeriodAll {
		return expenses, nil
	}

	filtered := make([]*Expense, 0, len(expenses))
	for _, e := range expenses {
		if r.Contains(e.Date) {
			filtered = append(filtered, e)
		}
	}
	return filtered, nil
}

// Create records a new unpaid expense.
func (s *Service) Create(ctx context.Context, dto CreateExpenseDTO) (*Expense, error) {
	dto.Normalize()
	if appErr := dto.Validate(); appErr != nil {
		s.logger.Warn("expense validation failed", "error", appErr.GetDetailedMessage())
		return nil, appErr
	}

	known, err := s.categories.Exists(ctx, dto.Category)
	if err != nil {
		s.logger.Error("failed to check category", "error", err, "category", dto.Category)
		return nil, err
	}
	if !known {
		return nil, internal.NewValidationFieldError("category",
			fmt.Sprintf("category %q does not exist", dto.Category), internal.ErrCodeInvalidCategory)
	}

	now := s.now().UTC()
	e := &Expense{
		ID:          ids.New(ids.PrefixExpense, now),
		Description: dto.Description,
		Amount:      *dto.Amount,
		Category:    dto.Category,
		Date:        dto.Date,
		Status:      StatusNotPaid,
		CreatedBy:   internal.ActorIDOr(ctx, dto.CreatedBy),
		CreatedAt:   now,
	}

	if err := s.repo.Create(ctx, ToDataModel(e)); err != nil {
		s.logger.Error("failed to create expense", "error", err)
		return nil, fmt.Errorf("create expense: %w", err)
	}

	s.logger.Info("expense created successfully",
		"expense_id", e.ID,
		"amount", e.Amount,
		"category", e.Category,
		"created_by", e.CreatedBy)
	s.publish(ctx, events.ExpenseCreated, e.ID)

	return e, nil
}

// MarkPaid sets status paid with payer and today's date, overwriting any
// earlier payment.
func (s *Service) MarkPaid(ctx context.Context, id, payer string) (*Expense, error) {
	paidAt := s.now().Format(validation.DateLayout)
	patch := expenseDatamodel.PaymentPatch{Status: StatusPaid, PaidAt: &paidAt}
	// an anonymous payment leaves paidBy absent
	if payer != "" {
		patch.PaidBy = &payer
	}
	return s.applyPayment(ctx, id, patch)
}

// MarkUnpaid sets status not_paid and clears the payment fields.
func (s *Service) MarkUnpaid(ctx context.Context, id string) (*Expense, error) {
	return s.applyPayment(ctx, id, expenseDatamodel.PaymentPatch{Status: StatusNotPaid})
}

// SetStatus dispatches a wire status change to MarkPaid or MarkUnpaid.
func (s *Service) SetStatus(ctx context.Context, id string, dto UpdateStatusDTO) (*Expense, error) {
	if appErr := dto.Validate(); appErr != nil {
		return nil, appErr
	}

	if dto.Status == StatusPaid {
		return s.MarkPaid(ctx, id, internal.ActorIDOr(ctx, dto.UserID))
	}
	return s.MarkUnpaid(ctx, id)
}

// Statistics totals expenses for a period view. Stores that implement
// Aggregator compute it in one query.
func (s *Service) Statistics(ctx context.Context, period string) (*Statistics, error) {
	r, err := PeriodRange(period, s.now())
	if err != nil {
		return nil, err
	}

	var rows []expenseDatamodel.Aggregate
	if agg, ok := s.repo.(Aggregator); ok {
		rows, err = agg.Aggregate(ctx, r)
		if err != nil {
			s.logger.Error("failed to aggregate expenses", "error", err, "period", period)
			return nil, fmt.Errorf("aggregate expenses: %w", err)
		}
	} else {
		expenses, err := s.List(ctx)
		if err != nil {
			return nil, err
		}
		rows = Aggregate(expenses, r)
	}

	stats := FromAggregates(rows)
	stats.Period = period
	return &stats, nil
}

// CountByCategory counts expenses filed under category, matched exactly.
func (s *Service) CountByCategory(ctx context.Context, category string) (int64, error) {
	return s.repo.CountByCategory(ctx, category)
}

func (s *Service) applyPayment(ctx context.Context, id string, patch expenseDatamodel.PaymentPatch) (*Expense, error) {
	row, err := s.repo.GetByID(ctx, id)
	if err != nil {
		s.logger.Error("failed to get expense", "error", err, "expense_id", id)
		return nil, fmt.Errorf("get expense: %w", err)
	}
	if row == nil {
		return nil, internal.ErrExpenseNotFound
	}

	applied, err := s.repo.UpdatePayment(ctx, id, patch)
	if err != nil {
		s.logger.Error("failed to update expense status", "error", err, "expense_id", id, "status", patch.Status)
		return nil, fmt.Errorf("update expense status: %w", err)
	}
	if !applied {
		return nil, internal.ErrExpenseNotFound
	}

	row.Status = patch.Status
	row.PaidBy = patch.PaidBy
	row.PaidAt = patch.PaidAt

	s.logger.Info("expense status updated", "expense_id", id, "status", patch.Status)
	s.publish(ctx, events.ExpenseStatusChanged, id)

	e := FromDataModel(row)
	if e.CreatedAt.IsZero() {
		e.CreatedAt, _ = ids.Instant(e.ID, ids.PrefixExpense)
	}
	return e, nil
}

func (s *Service) publish(ctx context.Context, eventType, id string) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, events.NewEvent(eventType, map[string]interface{}{"id": id})); err != nil {
		s.logger.Warn("failed to publish event", "event_type", eventType, "error", err)
	}
}
