package menu

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mamadbah2/restopos/internal/clock"
	"github.com/mamadbah2/restopos/internal/domain/models"
	"github.com/mamadbah2/restopos/internal/repository"
)

// CreateInput describes a new menu item. Available defaults to true.
type CreateInput struct {
	Name      string  `json:"name" binding:"required"`
	Price     float64 `json:"price"`
	Category  string  `json:"category"`
	Available *bool   `json:"available"`
}

// Service is the menu catalog.
type Service struct {
	repo   repository.MenuRepository
	clock  clock.Clock
	logger *zap.Logger
	newID  func() string
}

// NewService wires a catalog over the menu repository.
func NewService(repo repository.MenuRepository, clk clock.Clock, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{repo: repo, clock: clk, logger: logger, newID: uuid.NewString}
}

// List returns the items passing filter.
func (s *Service) List(ctx context.Context, filter models.MenuFilter) ([]models.MenuItem, error) {
	return s.repo.ListMenuItems(ctx, filter)
}

// Lookup returns one item or models.ErrNotFound.
func (s *Service) Lookup(ctx context.Context, id string) (models.MenuItem, error) {
	return s.repo.GetMenuItem(ctx, id)
}

// Create adds an item to the catalog.
func (s *Service) Create(ctx context.Context, in CreateInput) (models.MenuItem, error) {
	now := s.clock.Now()
	item := models.MenuItem{
		ID:        s.newID(),
		Name:      strings.TrimSpace(in.Name),
		Price:     in.Price,
		Category:  strings.TrimSpace(in.Category),
		Available: in.Available == nil || *in.Available,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := item.Validate(); err != nil {
		return models.MenuItem{}, err
	}
	if err := s.repo.InsertMenuItem(ctx, item); err != nil {
		return models.MenuItem{}, err
	}

	s.logger.Info("menu item created", zap.String("id", item.ID), zap.String("name", item.Name), zap.Float64("price", item.Price))
	return item, nil
}

// Update edits price, availability or labels. Open orders keep their snapshots.
func (s *Service) Update(ctx context.Context, id string, patch models.MenuItemPatch) (models.MenuItem, error) {
	item, err := s.repo.GetMenuItem(ctx, id)
	if err != nil {
		return models.MenuItem{}, err
	}
	if err := item.Apply(patch, s.clock.Now()); err != nil {
		return models.MenuItem{}, err
	}
	if err := s.repo.UpdateMenuItem(ctx, item); err != nil {
		return models.MenuItem{}, err
	}

	s.logger.Info("menu item updated", zap.String("id", item.ID), zap.Bool("available", item.Available), zap.Float64("price", item.Price))
	return item, nil
}
