package tablestate

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/mamadbah2/restopos/internal/domain/models"
	"github.com/mamadbah2/restopos/internal/observability/metrics"
	"github.com/mamadbah2/restopos/internal/repository"
)

// DefaultMaxRetries bounds compare-and-update attempts per mutation.
const DefaultMaxRetries = 5

// ErrNoChange lets a mutation report that nothing needs to be written.
var ErrNoChange = errors.New("no change")

// Mutation edits a private copy of the table.
type Mutation func(table *models.Table) error

// Guard serializes writes per table inside the process and retries the
// read-modify-write when another process wins the version check.
type Guard struct {
	tables     repository.TableRepository
	maxRetries int
	metrics    *metrics.Metrics
	logger     *zap.Logger

	mu    sync.Mutex
	locks map[int]*tableLock
}

type tableLock struct {
	mu   sync.Mutex
	refs int
}

// NewGuard wires a guard over the table repository.
func NewGuard(tables repository.TableRepository, maxRetries int, m *metrics.Metrics, logger *zap.Logger) *Guard {
	if logger == nil {
		logger = zap.NewNop()
	}
	if maxRetries < 1 {
		maxRetries = DefaultMaxRetries
	}
	return &Guard{
		tables:     tables,
		maxRetries: maxRetries,
		metrics:    m,
		logger:     logger,
		locks:      make(map[int]*tableLock),
	}
}

// Lock takes the per-table mutex and returns its release func.
func (g *Guard) Lock(number int) func() {
	g.mu.Lock()
	l, ok := g.locks[number]
	if !ok {
		l = &tableLock{}
		g.locks[number] = l
	}
	l.refs++
	g.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()

		g.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(g.locks, number)
		}
		g.mu.Unlock()
	}
}

// Update locks the table and applies fn with retries.
func (g *Guard) Update(ctx context.Context, number int, operation string, fn Mutation) (models.Table, error) {
	unlock := g.Lock(number)
	defer unlock()
	return g.UpdateLocked(ctx, number, operation, fn)
}

// UpdateLocked is Update for callers already holding Lock(number).
// fn may run more than once; it must not keep state across attempts it
// does not expect to redo.
func (g *Guard) UpdateLocked(ctx context.Context, number int, operation string, fn Mutation) (models.Table, error) {
	for attempt := 1; attempt <= g.maxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return models.Table{}, err
		}

		current, err := g.tables.GetTable(ctx, number)
		if err != nil {
			return models.Table{}, err
		}

		next := current.Clone()
		if err := fn(&next); err != nil {
			if errors.Is(err, ErrNoChange) {
				return current, nil
			}
			return models.Table{}, err
		}

		saved, err := g.tables.UpdateTable(ctx, next)
		if errors.Is(err, repository.ErrVersionConflict) {
			g.metrics.TableConflict(operation)
			g.logger.Debug("table write conflict, retrying",
				zap.Int("table", number),
				zap.String("operation", operation),
				zap.Int("attempt", attempt))
			continue
		}
		if err != nil {
			return models.Table{}, err
		}
		return saved, nil
	}

	g.logger.Warn("table write conflicts exhausted retries",
		zap.Int("table", number),
		zap.String("operation", operation),
		zap.Int("attempts", g.maxRetries))
	return models.Table{}, fmt.Errorf("table %d %s after %d attempts: %w", number, operation, g.maxRetries, models.ErrConflict)
}
