package orders

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/mamadbah2/restopos/internal/clock"
	"github.com/mamadbah2/restopos/internal/domain/models"
	"github.com/mamadbah2/restopos/internal/events"
	"github.com/mamadbah2/restopos/internal/observability/metrics"
	"github.com/mamadbah2/restopos/internal/repository"
	"github.com/mamadbah2/restopos/internal/service/tablestate"
)

// MenuCatalog resolves menu items for new order lines.
type MenuCatalog interface {
	Lookup(ctx context.Context, id string) (models.MenuItem, error)
}

// Params groups the collaborators of the order ledger.
type Params struct {
	Tables    repository.TableRepository
	Menu      MenuCatalog
	Guard     *tablestate.Guard
	Clock     clock.Clock
	Publisher events.Publisher
	Metrics   *metrics.Metrics
	Logger    *zap.Logger
}

// Service is the order ledger: a table's lines, totals and status.
type Service struct {
	tables    repository.TableRepository
	menu      MenuCatalog
	guard     *tablestate.Guard
	clock     clock.Clock
	publisher events.Publisher
	metrics   *metrics.Metrics
	logger    *zap.Logger
}

// NewService wires the order ledger.
func NewService(p Params) *Service {
	if p.Logger == nil {
		p.Logger = zap.NewNop()
	}
	if p.Publisher == nil {
		p.Publisher = events.Noop{}
	}
	return &Service{
		tables:    p.Tables,
		menu:      p.Menu,
		guard:     p.Guard,
		clock:     p.Clock,
		publisher: p.Publisher,
		metrics:   p.Metrics,
		logger:    p.Logger,
	}
}

// GetTable returns one table.
func (s *Service) GetTable(ctx context.Context, number int) (models.Table, error) {
	return s.tables.GetTable(ctx, number)
}

// ListTables returns the whole pool ordered by number.
func (s *Service) ListTables(ctx context.Context) ([]models.Table, error) {
	return s.tables.ListTables(ctx)
}

// AddItem adds quantity of a menu item to the table's order, merging with an
// existing line for the same item.
func (s *Service) AddItem(ctx context.Context, number int, menuItemID string, quantity int) (models.Table, error) {
	if quantity < 1 {
		return models.Table{}, fmt.Errorf("quantity must be at least 1, got %d: %w", quantity, models.ErrInvalidState)
	}

	item, err := s.menu.Lookup(ctx, menuItemID)
	if err != nil {
		return models.Table{}, err
	}

	table, err := s.guard.Update(ctx, number, "add_item", func(t *models.Table) error {
		return t.AddItem(item, quantity, s.clock.Now())
	})
	if err != nil {
		return models.Table{}, err
	}

	s.metrics.ItemAdded()
	s.logger.Debug("item added",
		zap.Int("table", number),
		zap.String("menu_item_id", menuItemID),
		zap.Int("quantity", quantity),
		zap.Float64("subtotal", table.Subtotal))
	return table, nil
}

// SetItemQuantity sets the quantity of the line for menuItemID. A quantity of
// zero or less removes the line; removing the last line frees the table.
func (s *Service) SetItemQuantity(ctx context.Context, number int, menuItemID string, quantity int) (models.Table, error) {
	table, err := s.guard.Update(ctx, number, "set_quantity", func(t *models.Table) error {
		return t.SetQuantity(menuItemID, quantity, s.clock.Now())
	})
	if err != nil {
		return models.Table{}, err
	}

	s.logger.Debug("item quantity set",
		zap.Int("table", number),
		zap.String("menu_item_id", menuItemID),
		zap.Int("quantity", quantity),
		zap.String("status", string(table.Status)))
	return table, nil
}

// RemoveItem drops the line for menuItemID.
func (s *Service) RemoveItem(ctx context.Context, number int, menuItemID string) (models.Table, error) {
	return s.SetItemQuantity(ctx, number, menuItemID, 0)
}

// ClearTable resets the table to available whatever its state.
func (s *Service) ClearTable(ctx context.Context, number int) (models.Table, error) {
	var previous models.TableStatus
	table, err := s.guard.Update(ctx, number, "clear", func(t *models.Table) error {
		previous = t.Status
		t.Clear(s.clock.Now())
		return nil
	})
	if err != nil {
		return models.Table{}, err
	}

	s.logger.Info("table cleared", zap.Int("table", number), zap.String("previous_status", string(previous)))
	s.publish(ctx, events.Event{
		Type:        events.TypeTableCleared,
		OccurredAt:  table.UpdatedAt,
		TableNumber: number,
	})
	return table, nil
}

func (s *Service) publish(ctx context.Context, event events.Event) {
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Warn("failed to publish event", zap.String("type", event.Type), zap.Error(err))
	}
}
