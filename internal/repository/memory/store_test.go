package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/restopos/internal/domain/models"
	"github.com/mamadbah2/restopos/internal/repository"
)

var now = time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

func TestUpdateTableChecksVersion(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	created, err := store.EnsureTables(ctx, models.ProvisionTables(3, 2, now))
	require.NoError(t, err)
	assert.Equal(t, 3, created)

	created, err = store.EnsureTables(ctx, models.ProvisionTables(3, 2, now))
	require.NoError(t, err)
	assert.Zero(t, created)

	first, err := store.GetTable(ctx, 1)
	require.NoError(t, err)
	stale := first

	first.Status = models.TableOccupied
	updated, err := store.UpdateTable(ctx, first)
	require.NoError(t, err)
	assert.Equal(t, first.Version+1, updated.Version)

	_, err = store.UpdateTable(ctx, stale)
	assert.ErrorIs(t, err, repository.ErrVersionConflict)

	_, err = store.GetTable(ctx, 99)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestPostBillIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store := NewStore()

	posted, err := store.PostBill(ctx, "2024-05-01", "BILL-2024-05-01-0001", 23600, now)
	require.NoError(t, err)
	assert.True(t, posted)

	posted, err = store.PostBill(ctx, "2024-05-01", "BILL-2024-05-01-0001", 23600, now)
	require.NoError(t, err)
	assert.False(t, posted)

	record, err := store.GetRevenue(ctx, "2024-05-01")
	require.NoError(t, err)
	assert.Equal(t, 236.0, record.TotalRevenue)
	assert.Equal(t, 1, record.TotalOrders)
	assert.Equal(t, []string{"BILL-2024-05-01-0001"}, record.BillNumbers)
}

func TestNextSequenceConcurrent(t *testing.T) {
	ctx := context.Background()
	store := NewStore()

	const workers = 50
	seen := make(chan int64, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			seq, err := store.NextSequence(ctx, "bill:2024-05-01")
			assert.NoError(t, err)
			seen <- seq
		}()
	}
	wg.Wait()
	close(seen)

	unique := make(map[int64]bool)
	for seq := range seen {
		unique[seq] = true
	}
	assert.Len(t, unique, workers)

	other, err := store.NextSequence(ctx, "bill:2024-05-02")
	require.NoError(t, err)
	assert.Equal(t, int64(1), other)
}

func TestMarkBillPaidKeepsFirstTimestamp(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	require.NoError(t, store.InsertBill(ctx, models.Bill{Number: "B1", PaymentStatus: models.PaymentPending}))
	assert.ErrorIs(t, store.InsertBill(ctx, models.Bill{Number: "B1"}), repository.ErrDuplicate)

	paid, transitioned, err := store.MarkBillPaid(ctx, "B1", now)
	require.NoError(t, err)
	assert.True(t, transitioned)
	require.NotNil(t, paid.PaidAt)

	again, transitioned, err := store.MarkBillPaid(ctx, "B1", now.Add(time.Hour))
	require.NoError(t, err)
	assert.False(t, transitioned)
	assert.Equal(t, now, *again.PaidAt)

	_, _, err = store.MarkBillPaid(ctx, "missing", now)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestMarkBillPaidTransitionsOnce(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	require.NoError(t, store.InsertBill(ctx, models.Bill{Number: "B1", PaymentStatus: models.PaymentPending}))

	const workers = 16
	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		flips int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, transitioned, err := store.MarkBillPaid(ctx, "B1", now)
			assert.NoError(t, err)
			if transitioned {
				mu.Lock()
				flips++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, flips)
}

func TestListBillsOrdersBySequence(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	table := models.NewTable(1, models.RoomAC, now)
	for _, seq := range []int64{10000, 9999, 2, 10001} {
		require.NoError(t, store.InsertBill(ctx, models.NewBill("2024-05-01", seq, table, models.Totals{}, now)))
	}
	require.NoError(t, store.InsertBill(ctx, models.NewBill("2024-04-30", 12000, table, models.Totals{}, now)))

	byDate, err := store.ListBillsByDate(ctx, "2024-05-01")
	require.NoError(t, err)
	assert.Equal(t, []string{
		"BILL-2024-05-01-0002",
		"BILL-2024-05-01-9999",
		"BILL-2024-05-01-10000",
		"BILL-2024-05-01-10001",
	}, billNumbers(byDate))

	unposted, err := store.ListUnpostedBills(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"BILL-2024-04-30-12000",
		"BILL-2024-05-01-0002",
		"BILL-2024-05-01-9999",
		"BILL-2024-05-01-10000",
		"BILL-2024-05-01-10001",
	}, billNumbers(unposted))
}

func billNumbers(bills []models.Bill) []string {
	out := make([]string, 0, len(bills))
	for _, bill := range bills {
		out = append(out, bill.Number)
	}
	return out
}
