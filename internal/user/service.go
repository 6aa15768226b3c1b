package user

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/frahmantamala/payable/internal"
	userDatamodel "github.com/frahmantamala/payable/internal/core/datamodel/user"
	"github.com/frahmantamala/payable/internal/core/events"
	"github.com/frahmantamala/payable/internal/core/ids"
)

// RepositoryAPI is the user slice of the entity store. GetByEmail returns
// (nil, nil) when no user matches; Create returns internal.ErrDuplicateEmail
// when the email is taken.
type RepositoryAPI interface {
	List(ctx context.Context) ([]*userDatamodel.User, error)
	GetByEmail(ctx context.Context, email string) (*userDatamodel.User, error)
	Create(ctx context.Context, u *userDatamodel.User) error
}

type Publisher interface {
	Publish(ctx context.Context, event events.Event) error
}

type Service struct {
	repo      RepositoryAPI
	publisher Publisher
	logger    *slog.Logger
	now       func() time.Time
}

func NewService(repo RepositoryAPI, publisher Publisher, logger *slog.Logger) *Service {
	return &Service{
		repo:      repo,
		publisher: publisher,
		logger:    logger,
		now:       time.Now,
	}
}

func (s *Service) List(ctx context.Context) ([]*User, error) {
	users, err := s.repo.List(ctx)
	if err != nil {
		s.logger.Error("failed to list users", "error", err)
		return nil, fmt.Errorf("list users: %w", err)
	}
	return FromDataModelSlice(users), nil
}

func (s *Service) GetByEmail(ctx context.Context, email string) (*User, error) {
	u, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		s.logger.Error("failed to get user by email", "error", err, "email", email)
		return nil, fmt.Errorf("get user by email: %w", err)
	}
	if u == nil {
		return nil, internal.ErrUserNotFound
	}
	return FromDataModel(u), nil
}

// Exists reports whether a user with email is already registered.
func (s *Service) Exists(ctx context.Context, email string) (bool, error) {
	u, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		return false, fmt.Errorf("get user by email: %w", err)
	}
	return u != nil, nil
}

// Create registers an active user. Emails are unique.
func (s *Service) Create(ctx context.Context, dto CreateUserDTO) (*User, error) {
	dto.Normalize()
	if appErr := dto.Validate(); appErr != nil {
		return nil, appErr
	}

	exists, err := s.Exists(ctx, dto.Email)
	if err != nil {
		s.logger.Error("failed to check existing user", "error", err, "email", dto.Email)
		return nil, err
	}
	if exists {
		return nil, internal.ErrDuplicateEmail
	}

	u := &User{
		ID:     ids.New(ids.PrefixUser, s.now()),
		Name:   dto.Name,
		Email:  dto.Email,
		Role:   dto.Role,
		Status: StatusActive,
	}

	if err := s.repo.Create(ctx, ToDataModel(u)); err != nil {
		s.logger.Error("failed to create user", "error", err, "email", u.Email)
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.logger.Info("user created", "user_id", u.ID, "email", u.Email, "role", u.Role)
	s.publish(ctx, events.UserCreated, map[string]interface{}{"id": u.ID, "email": u.Email, "role": u.Role})

	return u, nil
}

// EnsureDefaults seeds the default users when the collection is empty and
// returns how many were inserted.
func (s *Service) EnsureDefaults(ctx context.Context) (int, error) {
	existing, err := s.repo.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("list users: %w", err)
	}
	if len(existing) > 0 {
		return 0, nil
	}

	defaults := DefaultUsers()
	for _, u := range defaults {
		if err := s.repo.Create(ctx, ToDataModel(u)); err != nil {
			return 0, fmt.Errorf("seed user %s: %w", u.Email, err)
		}
	}

	s.logger.Info("seeded default users", "count", len(defaults))
	return len(defaults), nil
}

func (s *Service) publish(ctx context.Context, eventType string, data map[string]interface{}) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, events.NewEvent(eventType, data)); err != nil {
		s.logger.Warn("failed to publish event", "event_type", eventType, "error", err)
	}
}
