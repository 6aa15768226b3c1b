package category

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/frahmantamala/payable/internal"
	categoryDatamodel "github.com/frahmantamala/payable/internal/core/datamodel/category"
	"github.com/frahmantamala/payable/internal/core/events"
)

// RepositoryAPI is the category slice of the entity store. List returns rows
// in insertion order; GetByName returns (nil, nil) when absent and Delete
// reports whether a row was removed.
type RepositoryAPI interface {
	List(ctx context.Context) ([]*categoryDatamodel.Category, error)
	GetByName(ctx context.Context, name string) (*categoryDatamodel.Category, error)
	Create(ctx context.Context, c *categoryDatamodel.Category) error
	Delete(ctx context.Context, name string) (bool, error)
}

// UsageCounter counts the expenses filed under a category.
type UsageCounter interface {
	CountByCategory(ctx context.Context, name string) (int64, error)
}

type Publisher interface {
	Publish(ctx context.Context, event events.Event) error
}

type Service struct {
	repo      RepositoryAPI
	usage     UsageCounter
	publisher Publisher
	logger    *slog.Logger
}

func NewService(repo RepositoryAPI, usage UsageCounter, publisher Publisher, logger *slog.Logger) *Service {
	return &Service{
		repo:      repo,
		usage:     usage,
		publisher: publisher,
		logger:    logger,
	}
}

// List returns category names in insertion order.
func (s *Service) List(ctx context.Context) ([]string, error) {
	rows, err := s.repo.List(ctx)
	if err != nil {
		s.logger.Error("failed to get categories from repository", "error", err)
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return Names(rows), nil
}

// Exists reports whether name is a known category.
func (s *Service) Exists(ctx context.Context, name string) (bool, error) {
	c, err := s.repo.GetByName(ctx, name)
	if err != nil {
		return false, fmt.Errorf("get category: %w", err)
	}
	return c != nil, nil
}

// Add appends a category and returns the updated list.
func (s *Service) Add(ctx context.Context, name string) ([]string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, internal.NewValidationFieldError("name", "Category name is required", internal.ErrCodeInvalidCategory)
	}

	exists, err := s.Exists(ctx, name)
	if err != nil {
		s.logger.Error("failed to check category", "error", err, "name", name)
		return nil, err
	}
	if exists {
		return nil, internal.ErrCategoryExists
	}

	if err := s.repo.Create(ctx, ToDataModel(&Category{Name: name})); err != nil {
		s.logger.Error("failed to create category", "error", err, "name", name)
		return nil, fmt.Errorf("create category: %w", err)
	}

	s.logger.Info("category added", "name", name)
	s.publish(ctx, events.CategoryAdded, name)

	return s.List(ctx)
}

// Delete removes a category no expense refers to and returns the updated
// list.
func (s *Service) Delete(ctx context.Context, name string) ([]string, error) {
	inUse, err := s.usage.CountByCategory(ctx, name)
	if err != nil {
		s.logger.Error("failed to count category usage", "error", err, "name", name)
		return nil, fmt.Errorf("count category usage: %w", err)
	}
	if inUse > 0 {
		s.logger.Warn("category in use, not deleted", "name", name, "expenses", inUse)
		return nil, internal.ErrCategoryInUse
	}

	removed, err := s.repo.Delete(ctx, name)
	if err != nil {
		s.logger.Error("failed to delete category", "error", err, "name", name)
		return nil, fmt.Errorf("delete category: %w", err)
	}
	if !removed {
		return nil, internal.ErrCategoryNotFound
	}

	s.logger.Info("category deleted", "name", name)
	s.publish(ctx, events.CategoryDeleted, name)

	return s.List(ctx)
}

// EnsureDefaults seeds DefaultNames into an empty store and returns how many
// were inserted.
func (s *Service) EnsureDefaults(ctx context.Context) (int, error) {
	existing, err := s.repo.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("list categories: %w", err)
	}
	if len(existing) > 0 {
		return 0, nil
	}

	for _, name := range DefaultNames {
		if err := s.repo.Create(ctx, ToDataModel(&Category{Name: name})); err != nil {
			return 0, fmt.Errorf("seed category %s: %w", name, err)
		}
	}

	s.logger.Info("seeded default categories", "count", len(DefaultNames))
	return len(DefaultNames), nil
}

func (s *Service) publish(ctx context.Context, eventType, name string) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, events.NewEvent(eventType, map[string]interface{}{"name": name})); err != nil {
		s.logger.Warn("failed to publish event", "event_type", eventType, "error", err)
	}
}
