package accessrequest

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/frahmantamala/payable/internal"
	requestDatamodel "github.com/frahmantamala/payable/internal/core/datamodel/userrequest"
	"github.com/frahmantamala/payable/internal/core/events"
	"github.com/frahmantamala/payable/internal/core/ids"
	"github.com/frahmantamala/payable/internal/user"
)

// RepositoryAPI is the request slice of the entity store.
//
// TransitionStatus applies t only while the stored status still equals
// from, as one atomic write, and reports whether it applied. GetByID
// returns (nil, nil) for an unknown id.
type RepositoryAPI interface {
	List(ctx context.Context) ([]*requestDatamodel.UserRequest, error)
	GetByID(ctx context.Context, id string) (*requestDatamodel.UserRequest, error)
	Create(ctx context.Context, r *requestDatamodel.UserRequest) error
	TransitionStatus(ctx context.Context, id, from string, t requestDatamodel.Transition) (bool, error)
}

// UserRegistrar materializes the account of an approved request.
type UserRegistrar interface {
	Exists(ctx context.Context, email string) (bool, error)
	Create(ctx context.Context, dto user.CreateUserDTO) (*user.User, error)
}

type Publisher interface {
	Publish(ctx context.Context, event events.Event) error
}

type OutcomeRecorder interface {
	ObserveOutcome(operation, result string)
}

type Service struct {
	repo      RepositoryAPI
	users     UserRegistrar
	publisher Publisher
	recorder  OutcomeRecorder
	logger    *slog.Logger
	now       func() time.Time
}

func NewService(repo RepositoryAPI, users UserRegistrar, publisher Publisher, recorder OutcomeRecorder, logger *slog.Logger) *Service {
	return &Service{
		repo:      repo,
		users:     users,
		publisher: publisher,
		recorder:  recorder,
		logger:    logger,
		now:       time.Now,
	}
}

// List returns every request, newest first.
func (s *Service) List(ctx context.Context) ([]*Request, error) {
	rows, err := s.repo.List(ctx)
	if err != nil {
		s.logger.Error("failed to list user requests", "error", err)
		return nil, fmt.Errorf("list user requests: %w", err)
	}

	requests := FromDataModelSlice(rows)
	SortNewestFirst(requests)
	return requests, nil
}

// Submit records a pending request. The same email may apply repeatedly.
func (s *Service) Submit(ctx context.Context, dto SubmitRequestDTO) (*Request, error) {
	dto.Normalize()
	if appErr := dto.Validate(); appErr != nil {
		s.observe("submit", appErr)
		return nil, appErr
	}

	now := s.now().UTC()
	req := &Request{
		ID:          ids.New(ids.PrefixRequest, now),
		Name:        dto.Name,
		Email:       dto.Email,
		RequestedAt: now,
		Status:      StatusPending,
	}

	if err := s.repo.Create(ctx, ToDataModel(req)); err != nil {
		s.logger.Error("failed to create user request", "error", err, "email", req.Email)
		s.observe("submit", err)
		return nil, fmt.Errorf("create user request: %w", err)
	}

	s.logger.Info("user request submitted", "request_id", req.ID, "email", req.Email)
	s.publish(ctx, events.UserRequestSubmitted, req.ID)
	s.observe("submit", nil)

	return req, nil
}

// Approve moves a pending request to approved and creates the matching
// active user, which it returns. If the user cannot be created the request
// is put back to pending.
func (s *Service) Approve(ctx context.Context, id string, dto ApproveRequestDTO) (u *user.User, err error) {
	defer func() { s.observe("approve", err) }()

	req, err := s.pending(ctx, id)
	if err != nil {
		return nil, err
	}

	role := strings.TrimSpace(dto.Role)
	if role == "" {
		role = user.RoleViewer
	}
	if !user.IsValidRole(role) {
		return nil, internal.NewValidationFieldError("role",
			fmt.Sprintf("role must be one of: %s", strings.Join(user.Roles, ", ")),
			internal.ErrCodeInvalidRole)
	}

	taken, err := s.users.Exists(ctx, req.Email)
	if err != nil {
		s.logger.Error("failed to check existing user", "error", err, "request_id", id)
		return nil, err
	}
	if taken {
		s.logger.Warn("approval refused: email already registered", "request_id", id, "email", req.Email)
		return nil, internal.ErrDuplicateEmail
	}

	approvedAt := s.now().UTC()
	applied, err := s.repo.TransitionStatus(ctx, id, StatusPending, requestDatamodel.Transition{
		Status:     StatusApproved,
		Role:       &role,
		ApprovedBy: optional(dto.ApprovedBy),
		ApprovedAt: &approvedAt,
	})
	if err != nil {
		s.logger.Error("failed to approve user request", "error", err, "request_id", id)
		return nil, fmt.Errorf("approve user request: %w", err)
	}
	if !applied {
		s.logger.Warn("approval lost a race with another decision", "request_id", id)
		return nil, internal.ErrRequestProcessed
	}

	u, err = s.users.Create(ctx, user.CreateUserDTO{Name: req.Name, Email: req.Email, Role: role})
	if err != nil {
		s.logger.Error("user creation failed after approval, reverting request", "error", err, "request_id", id)
		s.revert(ctx, id)
		return nil, err
	}

	s.logger.Info("user request approved",
		"request_id", id,
		"user_id", u.ID,
		"role", role,
		"approved_by", dto.ApprovedBy)
	s.publish(ctx, events.UserRequestApproved, id)

	return u, nil
}

// Reject moves a pending request to rejected and returns it.
func (s *Service) Reject(ctx context.Context, id string) (r *Request, err error) {
	defer func() { s.observe("reject", err) }()

	req, err := s.pending(ctx, id)
	if err != nil {
		return nil, err
	}

	t := requestDatamodel.Transition{Status: StatusRejected}
	applied, err := s.repo.TransitionStatus(ctx, id, StatusPending, t)
	if err != nil {
		s.logger.Error("failed to reject user request", "error", err, "request_id", id)
		return nil, fmt.Errorf("reject user request: %w", err)
	}
	if !applied {
		return nil, internal.ErrRequestProcessed
	}

	row := ToDataModel(req)
	t.Apply(row)

	s.logger.Info("user request rejected", "request_id", id)
	s.publish(ctx, events.UserRequestRejected, id)

	return FromDataModel(row), nil
}

func (s *Service) pending(ctx context.Context, id string) (*Request, error) {
	row, err := s.repo.GetByID(ctx, id)
	if err != nil {
		s.logger.Error("failed to get user request", "error", err, "request_id", id)
		return nil, fmt.Errorf("get user request: %w", err)
	}
	if row == nil {
		return nil, internal.ErrRequestNotFound
	}

	req := FromDataModel(row)
	if !req.IsPending() {
		return nil, internal.ErrRequestProcessed
	}
	return req, nil
}

func (s *Service) revert(ctx context.Context, id string) {
	reverted, err := s.repo.TransitionStatus(ctx, id, StatusApproved, requestDatamodel.Transition{Status: StatusPending})
	if err != nil {
		s.logger.Error("failed to revert approved request", "error", err, "request_id", id)
		return
	}
	if !reverted {
		s.logger.Error("approved request changed before revert", "request_id", id)
	}
}

func (s *Service) publish(ctx context.Context, eventType, id string) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, events.NewEvent(eventType, map[string]interface{}{"id": id})); err != nil {
		s.logger.Warn("failed to publish event", "event_type", eventType, "error", err)
	}
}

func (s *Service) observe(operation string, err error) {
	if s.recorder == nil {
		return
	}
	s.recorder.ObserveOutcome(operation, outcome(err))
}

func outcome(err error) string {
	if err == nil {
		return "ok"
	}
	if appErr, ok := internal.IsAppError(err); ok {
		return strings.ToLower(string(appErr.Type))
	}
	return "error"
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
