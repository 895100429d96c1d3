package tablestate

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/restopos/internal/domain/models"
	"github.com/mamadbah2/restopos/internal/observability/metrics"
	"github.com/mamadbah2/restopos/internal/repository"
	"github.com/mamadbah2/restopos/internal/repository/memory"
)

var now = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

// racingStore simulates another process writing the table between our read
// and our compare-and-update.
type racingStore struct {
	*memory.Store
	mu     sync.Mutex
	steals int
}

func (r *racingStore) UpdateTable(ctx context.Context, table models.Table) (models.Table, error) {
	r.mu.Lock()
	steal := r.steals > 0
	if steal {
		r.steals--
	}
	r.mu.Unlock()

	if steal {
		current, err := r.Store.GetTable(ctx, table.Number)
		if err != nil {
			return models.Table{}, err
		}
		if _, err := r.Store.UpdateTable(ctx, current); err != nil {
			return models.Table{}, err
		}
	}
	return r.Store.UpdateTable(ctx, table)
}

func newRacingStore(t *testing.T, steals int) *racingStore {
	t.Helper()
	store := &racingStore{Store: memory.NewStore(), steals: steals}
	_, err := store.EnsureTables(context.Background(), models.ProvisionTables(2, 1, now))
	require.NoError(t, err)
	return store
}

func TestUpdateRetriesOnConflict(t *testing.T) {
	store := newRacingStore(t, 2)
	guard := NewGuard(store, 5, metrics.New(prometheus.NewRegistry()), nil)

	calls := 0
	table, err := guard.Update(context.Background(), 1, "test", func(tb *models.Table) error {
		calls++
		tb.Status = models.TableOccupied
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
	assert.Equal(t, models.TableOccupied, table.Status)
}

func TestUpdateSurfacesConflictAfterRetries(t *testing.T) {
	store := newRacingStore(t, 10)
	guard := NewGuard(store, 3, nil, nil)

	_, err := guard.Update(context.Background(), 1, "test", func(*models.Table) error { return nil })
	assert.ErrorIs(t, err, models.ErrConflict)
}

func TestUpdateNoChangeSkipsWrite(t *testing.T) {
	store := newRacingStore(t, 0)
	guard := NewGuard(store, 3, nil, nil)

	before, err := store.GetTable(context.Background(), 2)
	require.NoError(t, err)

	table, err := guard.Update(context.Background(), 2, "test", func(*models.Table) error { return ErrNoChange })
	require.NoError(t, err)
	assert.Equal(t, before.Version, table.Version)
}

func TestUpdatePropagatesMutationErrors(t *testing.T) {
	store := newRacingStore(t, 0)
	guard := NewGuard(store, 3, nil, nil)
	boom := errors.New("boom")

	_, err := guard.Update(context.Background(), 1, "test", func(*models.Table) error { return boom })
	assert.ErrorIs(t, err, boom)

	_, err = guard.Update(context.Background(), 77, "test", func(*models.Table) error { return nil })
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestLockReleasesEntries(t *testing.T) {
	guard := NewGuard(memory.NewStore(), 1, nil, nil)
	unlock := guard.Lock(4)
	unlock()

	guard.mu.Lock()
	defer guard.mu.Unlock()
	assert.Empty(t, guard.locks)
}

var _ repository.TableRepository = (*racingStore)(nil)
