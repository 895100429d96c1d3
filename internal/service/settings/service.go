package settings

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/mamadbah2/restopos/internal/clock"
	"github.com/mamadbah2/restopos/internal/domain/models"
	"github.com/mamadbah2/restopos/internal/repository"
)

// Service owns the settings singleton.
type Service struct {
	repo   repository.SettingsRepository
	clock  clock.Clock
	logger *zap.Logger
	mu     sync.Mutex
}

// NewService wires a settings service.
func NewService(repo repository.SettingsRepository, clk clock.Clock, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{repo: repo, clock: clk, logger: logger}
}

// GetSettings returns the stored settings, creating the defaults on first use.
func (s *Service) GetSettings(ctx context.Context) (models.Settings, error) {
	current, err := s.repo.GetSettings(ctx)
	if err == nil {
		return current, nil
	}
	if !errors.Is(err, models.ErrNotFound) {
		return models.Settings{}, err
	}

	created, err := s.repo.CreateSettings(ctx, models.DefaultSettings(s.clock.Now()))
	if err != nil {
		return models.Settings{}, fmt.Errorf("create default settings: %w", err)
	}
	s.logger.Info("default settings created", zap.Float64("tax_rate", created.TaxRate))
	return created, nil
}

// UpdateSettings merges patch into the current settings and saves them.
func (s *Service) UpdateSettings(ctx context.Context, patch models.SettingsPatch) (models.Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := s.GetSettings(ctx)
	if err != nil {
		return models.Settings{}, err
	}
	if err := current.Apply(patch, s.clock.Now()); err != nil {
		return models.Settings{}, err
	}
	if err := s.repo.SaveSettings(ctx, current); err != nil {
		return models.Settings{}, err
	}

	s.logger.Info("settings updated", zap.Float64("tax_rate", current.TaxRate))
	return current, nil
}

// TaxRate returns the configured percentage.
func (s *Service) TaxRate(ctx context.Context) (float64, error) {
	current, err := s.GetSettings(ctx)
	if err != nil {
		return 0, err
	}
	return current.TaxRate, nil
}
