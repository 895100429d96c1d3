package models

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func menuItem(id string, price float64) MenuItem {
	return MenuItem{ID: id, Name: "item " + id, Price: price, Category: "mains", Available: true}
}

func TestTableAddItemMergesLines(t *testing.T) {
	table := NewTable(3, RoomAC, testNow)
	item := menuItem("a", 100)

	require.NoError(t, table.AddItem(item, 2, testNow))
	require.NoError(t, table.AddItem(item, 3, testNow))

	require.Len(t, table.Lines, 1)
	assert.Equal(t, 5, table.Lines[0].Quantity)
	assert.Equal(t, 500.0, table.Lines[0].Amount)
	assert.Equal(t, 500.0, table.Subtotal)
	assert.Equal(t, TableOccupied, table.Status)
	require.NotNil(t, table.OrderStartedAt)
}

func TestTableAddItemKeepsSnapshotPrice(t *testing.T) {
	table := NewTable(1, RoomAC, testNow)
	item := menuItem("a", 100)
	require.NoError(t, table.AddItem(item, 1, testNow))

	item.Price = 150
	item.Name = "renamed"
	require.NoError(t, table.AddItem(item, 1, testNow))

	assert.Equal(t, 100.0, table.Lines[0].UnitPrice)
	assert.Equal(t, "item a", table.Lines[0].Name)
	assert.Equal(t, 200.0, table.Subtotal)
}

func TestTableAddItemUnavailable(t *testing.T) {
	table := NewTable(1, RoomAC, testNow)
	item := menuItem("a", 40)
	item.Available = false

	err := table.AddItem(item, 1, testNow)
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.Equal(t, TableAvailable, table.Status)

	item.Available = true
	require.NoError(t, table.AddItem(item, 1, testNow))
	item.Available = false
	require.NoError(t, table.AddItem(item, 1, testNow), "existing lines stay orderable")
	assert.Equal(t, 2, table.Lines[0].Quantity)
}

func TestTableAddItemRejectsBadQuantity(t *testing.T) {
	table := NewTable(1, RoomAC, testNow)
	for _, qty := range []int{0, -2} {
		err := table.AddItem(menuItem("a", 10), qty, testNow)
		assert.ErrorIs(t, err, ErrInvalidState)
	}
	assert.Empty(t, table.Lines)
}

func TestTableSetQuantity(t *testing.T) {
	cases := []struct {
		name       string
		quantity   int
		wantLines  int
		wantStatus TableStatus
		wantTotal  float64
	}{
		{name: "update", quantity: 4, wantLines: 2, wantStatus: TableOccupied, wantTotal: 4*12.5 + 30},
		{name: "zero removes", quantity: 0, wantLines: 1, wantStatus: TableOccupied, wantTotal: 30},
		{name: "negative removes", quantity: -1, wantLines: 1, wantStatus: TableOccupied, wantTotal: 30},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			table := NewTable(2, RoomAC, testNow)
			require.NoError(t, table.AddItem(menuItem("a", 12.5), 1, testNow))
			require.NoError(t, table.AddItem(menuItem("b", 30), 1, testNow))

			require.NoError(t, table.SetQuantity("a", tc.quantity, testNow))
			assert.Len(t, table.Lines, tc.wantLines)
			assert.Equal(t, tc.wantStatus, table.Status)
			assert.Equal(t, tc.wantTotal, table.Subtotal)
			assert.Equal(t, table.LineSubtotal(), table.Subtotal)
		})
	}
}

func TestTableSetQuantityLastLineFreesTable(t *testing.T) {
	table := NewTable(2, RoomAC, testNow)
	require.NoError(t, table.AddItem(menuItem("a", 12.5), 1, testNow))

	require.NoError(t, table.SetQuantity("a", 0, testNow))
	assert.Empty(t, table.Lines)
	assert.Equal(t, TableAvailable, table.Status)
	assert.Zero(t, table.Subtotal)
	assert.Nil(t, table.OrderStartedAt)
}

func TestTableSetQuantityUnknownLine(t *testing.T) {
	table := NewTable(2, RoomAC, testNow)
	err := table.SetQuantity("missing", 1, testNow)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestTableSubtotalInvariant(t *testing.T) {
	table := NewTable(9, RoomNonAC, testNow)
	items := []MenuItem{menuItem("a", 19.99), menuItem("b", 0.1), menuItem("c", 250)}
	steps := []struct {
		add  bool
		item int
		qty  int
	}{
		{true, 0, 3}, {true, 1, 7}, {true, 0, 1}, {false, 1, 2},
		{true, 2, 1}, {false, 0, 0}, {true, 1, 5}, {false, 2, 9},
	}

	for _, step := range steps {
		if step.add {
			require.NoError(t, table.AddItem(items[step.item], step.qty, testNow))
		} else {
			require.NoError(t, table.SetQuantity(items[step.item].ID, step.qty, testNow))
		}

		var want int64
		for _, line := range table.Lines {
			assert.Equal(t, FromCents(ToCents(line.UnitPrice)*int64(line.Quantity)), line.Amount)
			want += ToCents(line.Amount)
		}
		assert.Equal(t, FromCents(want), table.Subtotal)
		assert.GreaterOrEqual(t, table.Subtotal, 0.0)
	}
}

func TestTableBilledIsFrozen(t *testing.T) {
	table := NewTable(4, RoomAC, testNow)
	require.NoError(t, table.AddItem(menuItem("a", 100), 2, testNow))
	require.NoError(t, table.MarkBilled("BILL-2024-05-01-0001", ComputeTotals(table.Lines, 18), testNow))

	assert.Equal(t, TableBilled, table.Status)
	assert.Equal(t, 236.0, table.TotalAmount)
	assert.ErrorIs(t, table.AddItem(menuItem("a", 100), 1, testNow), ErrInvalidState)
	assert.ErrorIs(t, table.SetQuantity("a", 1, testNow), ErrInvalidState)
	assert.ErrorIs(t, table.MarkBilled("BILL-2024-05-01-0002", Totals{}, testNow), ErrInvalidState)

	assert.False(t, table.MarkPaid("BILL-2024-05-01-0009", testNow))
	assert.True(t, table.MarkPaid("BILL-2024-05-01-0001", testNow))
	assert.Equal(t, TablePaid, table.Status)

	table.Clear(testNow)
	assert.Equal(t, TableAvailable, table.Status)
	assert.Empty(t, table.Lines)
	assert.Zero(t, table.Subtotal)
	assert.Zero(t, table.TaxAmount)
	assert.Zero(t, table.TotalAmount)
	assert.Empty(t, table.BillNumber)
}

func TestTableEmptyCannotBeBilled(t *testing.T) {
	table := NewTable(4, RoomAC, testNow)
	assert.ErrorIs(t, table.MarkBilled("BILL-2024-05-01-0001", Totals{}, testNow), ErrInvalidState)
}

func TestProvisionTables(t *testing.T) {
	tables := ProvisionTables(40, 20, testNow)
	require.Len(t, tables, 40)
	assert.Equal(t, 1, tables[0].Number)
	assert.Equal(t, RoomAC, tables[19].RoomClass)
	assert.Equal(t, RoomNonAC, tables[20].RoomClass)
	assert.Equal(t, 40, tables[39].Number)
}

func TestCloneDoesNotShareLines(t *testing.T) {
	table := NewTable(1, RoomAC, testNow)
	require.NoError(t, table.AddItem(menuItem("a", 10), 1, testNow))

	clone := table.Clone()
	require.NoError(t, clone.SetQuantity("a", 5, testNow))
	assert.Equal(t, 1, table.Lines[0].Quantity)
}

func TestTableQuantityLimits(t *testing.T) {
	cases := []struct {
		name  string
		apply func(table *Table) error
	}{
		{name: "add above max", apply: func(table *Table) error {
			return table.AddItem(menuItem("a", 100), MaxLineQuantity+1, testNow)
		}},
		{name: "add huge quantity", apply: func(table *Table) error {
			return table.AddItem(menuItem("a", 100), 1<<62, testNow)
		}},
		{name: "merge above max", apply: func(table *Table) error {
			return table.AddItem(menuItem("a", 100), MaxLineQuantity, testNow)
		}},
		{name: "new line above max", apply: func(table *Table) error {
			return table.AddItem(menuItem("b", 5), MaxLineQuantity+1, testNow)
		}},
		{name: "set above max", apply: func(table *Table) error {
			return table.SetQuantity("a", MaxLineQuantity+1, testNow)
		}},
		{name: "set huge quantity", apply: func(table *Table) error {
			return table.SetQuantity("a", 1e15, testNow)
		}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			table := NewTable(1, RoomAC, testNow)
			require.NoError(t, table.AddItem(menuItem("a", 100), 2, testNow))

			err := tc.apply(&table)
			assert.ErrorIs(t, err, ErrInvalidState)
			require.Len(t, table.Lines, 1)
			assert.Equal(t, 2, table.Lines[0].Quantity)
			assert.Equal(t, 200.0, table.Lines[0].Amount)
			assert.Equal(t, 200.0, table.Subtotal)
		})
	}
}

func TestTableQuantityAtMaxIsAccepted(t *testing.T) {
	table := NewTable(1, RoomAC, testNow)
	item := menuItem("a", MaxMenuPrice)

	require.NoError(t, table.AddItem(item, MaxLineQuantity-1, testNow))
	require.NoError(t, table.AddItem(item, 1, testNow))
	assert.Equal(t, MaxLineQuantity, table.Lines[0].Quantity)
	assert.Equal(t, float64(MaxMenuPrice)*MaxLineQuantity, table.Subtotal)
	assert.Positive(t, table.Subtotal)

	require.NoError(t, table.SetQuantity("a", MaxLineQuantity, testNow))
	assert.Equal(t, float64(MaxMenuPrice)*MaxLineQuantity, table.Lines[0].Amount)
}

func TestMenuItemValidatePrice(t *testing.T) {
	for _, price := range []float64{-1, MaxMenuPrice + 0.01, math.NaN()} {
		item := menuItem("a", price)
		assert.ErrorIs(t, item.Validate(), ErrInvalidState, "price %v", price)
	}
	assert.NoError(t, menuItem("a", 0).Validate())
	assert.NoError(t, menuItem("a", MaxMenuPrice).Validate())
}
