package orders

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/restopos/internal/clock"
	"github.com/mamadbah2/restopos/internal/domain/models"
	"github.com/mamadbah2/restopos/internal/events"
	"github.com/mamadbah2/restopos/internal/repository/memory"
	"github.com/mamadbah2/restopos/internal/service/tablestate"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (r *recordingPublisher) Publish(_ context.Context, event events.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}

func (r *recordingPublisher) Close() error { return nil }

type fixture struct {
	svc       *Service
	store     *memory.Store
	publisher *recordingPublisher
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	ctx := context.Background()
	now := time.Date(2024, 5, 1, 13, 0, 0, 0, time.UTC)

	store := memory.NewStore()
	_, err := store.EnsureTables(ctx, models.ProvisionTables(40, 20, now))
	require.NoError(t, err)

	for _, item := range []models.MenuItem{
		{ID: "paneer", Name: "Paneer Tikka", Price: 100, Category: "Starters", Available: true},
		{ID: "naan", Name: "Butter Naan", Price: 35.5, Category: "Breads", Available: true},
		{ID: "kulfi", Name: "Kulfi", Price: 60, Category: "Desserts", Available: false},
	} {
		require.NoError(t, store.InsertMenuItem(ctx, item))
	}

	publisher := &recordingPublisher{}
	svc := NewService(Params{
		Tables:    store,
		Menu:      catalog{store},
		Guard:     tablestate.NewGuard(store, 5, nil, nil),
		Clock:     clock.NewFixed(now),
		Publisher: publisher,
	})
	return fixture{svc: svc, store: store, publisher: publisher}
}

type catalog struct{ store *memory.Store }

func (c catalog) Lookup(ctx context.Context, id string) (models.MenuItem, error) {
	return c.store.GetMenuItem(ctx, id)
}

func TestAddItemOccupiesTable(t *testing.T) {
	f := newFixture(t)

	table, err := f.svc.AddItem(context.Background(), 3, "paneer", 2)
	require.NoError(t, err)
	assert.Equal(t, models.TableOccupied, table.Status)
	assert.Equal(t, 200.0, table.Subtotal)
	require.NotNil(t, table.OrderStartedAt)

	stored, err := f.svc.GetTable(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, table, stored)
}

func TestAddSameItemTwiceMergesLine(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.AddItem(ctx, 5, "naan", 2)
	require.NoError(t, err)
	table, err := f.svc.AddItem(ctx, 5, "naan", 3)
	require.NoError(t, err)

	require.Len(t, table.Lines, 1)
	assert.Equal(t, 5, table.Lines[0].Quantity)
	assert.Equal(t, 177.5, table.Lines[0].Amount)
	assert.Equal(t, 177.5, table.Subtotal)
}

func TestAddItemErrors(t *testing.T) {
	cases := []struct {
		name    string
		table   int
		item    string
		qty     int
		wantErr error
	}{
		{name: "unknown table", table: 41, item: "paneer", qty: 1, wantErr: models.ErrNotFound},
		{name: "unknown item", table: 1, item: "biryani", qty: 1, wantErr: models.ErrNotFound},
		{name: "unavailable item", table: 1, item: "kulfi", qty: 1, wantErr: models.ErrNotFound},
		{name: "zero quantity", table: 1, item: "paneer", qty: 0, wantErr: models.ErrInvalidState},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)
			_, err := f.svc.AddItem(context.Background(), tc.table, tc.item, tc.qty)
			assert.ErrorIs(t, err, tc.wantErr)

			if tc.table <= 40 {
				table, err := f.svc.GetTable(context.Background(), tc.table)
				require.NoError(t, err)
				assert.Equal(t, models.TableAvailable, table.Status)
				assert.Empty(t, table.Lines)
			}
		})
	}
}

func TestSetItemQuantityToZeroFreesTable(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.AddItem(ctx, 7, "paneer", 1)
	require.NoError(t, err)
	_, err = f.svc.AddItem(ctx, 7, "naan", 2)
	require.NoError(t, err)

	table, err := f.svc.SetItemQuantity(ctx, 7, "naan", 0)
	require.NoError(t, err)
	assert.Len(t, table.Lines, 1)
	assert.Equal(t, models.TableOccupied, table.Status)
	assert.Equal(t, 100.0, table.Subtotal)

	table, err = f.svc.RemoveItem(ctx, 7, "paneer")
	require.NoError(t, err)
	assert.Empty(t, table.Lines)
	assert.Equal(t, models.TableAvailable, table.Status)
	assert.Zero(t, table.Subtotal)

	_, err = f.svc.SetItemQuantity(ctx, 7, "paneer", 3)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestConcurrentAddItemLosesNoUpdates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	const workers = 25
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.AddItem(ctx, 12, "paneer", 1)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	table, err := f.svc.GetTable(ctx, 12)
	require.NoError(t, err)
	require.Len(t, table.Lines, 1)
	assert.Equal(t, workers, table.Lines[0].Quantity)
	assert.Equal(t, float64(workers*100), table.Subtotal)
}

func TestClearTablePublishesEvent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.AddItem(ctx, 2, "paneer", 1)
	require.NoError(t, err)

	table, err := f.svc.ClearTable(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, models.TableAvailable, table.Status)
	assert.Empty(t, table.Lines)

	require.Len(t, f.publisher.events, 1)
	assert.Equal(t, events.TypeTableCleared, f.publisher.events[0].Type)
	assert.Equal(t, 2, f.publisher.events[0].TableNumber)
}

func TestListTables(t *testing.T) {
	f := newFixture(t)
	tables, err := f.svc.ListTables(context.Background())
	require.NoError(t, err)
	require.Len(t, tables, 40)
	assert.Equal(t, models.RoomAC, tables[0].RoomClass)
	assert.Equal(t, models.RoomNonAC, tables[39].RoomClass)
}
