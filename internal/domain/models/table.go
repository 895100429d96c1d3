package models

import (
	"fmt"
	"time"
)

// TableStatus enumerates the lifecycle of a seating table.
type TableStatus string

const (
	TableAvailable TableStatus = "available"
	TableOccupied  TableStatus = "occupied"
	TableBilled    TableStatus = "billed"
	TablePaid      TableStatus = "paid"
)

// RoomClass partitions the table pool by numeric range.
type RoomClass string

const (
	RoomAC    RoomClass = "ac"
	RoomNonAC RoomClass = "non_ac"
)

// MaxLineQuantity caps the quantity of a single order line.
const MaxLineQuantity = 10000

// OrderLine is one distinct menu item within a table's order.
// Amount is derived from UnitPrice and Quantity and only set through setQuantity.
type OrderLine struct {
	MenuItemID string  `bson:"menu_item_id" json:"menu_item_id"`
	Name       string  `bson:"name" json:"name"`
	UnitPrice  float64 `bson:"unit_price" json:"unit_price"`
	Quantity   int     `bson:"quantity" json:"quantity"`
	Amount     float64 `bson:"amount" json:"amount"`
}

func newOrderLine(item MenuItem, quantity int) (OrderLine, error) {
	line := OrderLine{
		MenuItemID: item.ID,
		Name:       item.Name,
		UnitPrice:  item.Price,
	}
	if err := line.setQuantity(quantity); err != nil {
		return OrderLine{}, err
	}
	return line, nil
}

// setQuantity leaves the line untouched when the quantity is out of range.
func (l *OrderLine) setQuantity(quantity int) error {
	if quantity < 1 || quantity > MaxLineQuantity {
		return fmt.Errorf("quantity must be between 1 and %d, got %d: %w", MaxLineQuantity, quantity, ErrInvalidState)
	}
	amount, err := mulCents(ToCents(l.UnitPrice), int64(quantity))
	if err != nil {
		return fmt.Errorf("line %s: %v: %w", l.MenuItemID, err, ErrInvalidState)
	}
	l.Quantity = quantity
	l.Amount = FromCents(amount)
	return nil
}

// Table is a seating table together with its live order.
type Table struct {
	Number         int         `bson:"_id" json:"number"`
	RoomClass      RoomClass   `bson:"room_class" json:"room_class"`
	Status         TableStatus `bson:"status" json:"status"`
	Lines          []OrderLine `bson:"lines" json:"lines"`
	Subtotal       float64     `bson:"subtotal" json:"subtotal"`
	TaxAmount      float64     `bson:"tax_amount" json:"tax_amount"`
	TotalAmount    float64     `bson:"total_amount" json:"total_amount"`
	BillNumber     string      `bson:"bill_number,omitempty" json:"bill_number,omitempty"`
	OrderStartedAt *time.Time  `bson:"order_started_at,omitempty" json:"order_started_at,omitempty"`
	UpdatedAt      time.Time   `bson:"updated_at" json:"updated_at"`
	Version        int64       `bson:"version" json:"-"`
}

// NewTable returns an empty available table.
func NewTable(number int, class RoomClass, now time.Time) Table {
	return Table{
		Number:    number,
		RoomClass: class,
		Status:    TableAvailable,
		Lines:     []OrderLine{},
		UpdatedAt: now,
	}
}

// ProvisionTables builds the static pool: 1..split are AC, the rest non-AC.
func ProvisionTables(count, split int, now time.Time) []Table {
	tables := make([]Table, 0, count)
	for n := 1; n <= count; n++ {
		class := RoomNonAC
		if n <= split {
			class = RoomAC
		}
		tables = append(tables, NewTable(n, class, now))
	}
	return tables
}

// Clone returns a deep copy so callers never share the line slice.
func (t Table) Clone() Table {
	out := t
	out.Lines = make([]OrderLine, len(t.Lines))
	copy(out.Lines, t.Lines)
	if t.OrderStartedAt != nil {
		started := *t.OrderStartedAt
		out.OrderStartedAt = &started
	}
	return out
}

// Closed reports whether the order is frozen awaiting a clear.
func (t Table) Closed() bool {
	return t.Status == TableBilled || t.Status == TablePaid
}

// LineIndex returns the position of the line for menuItemID, or -1.
func (t Table) LineIndex(menuItemID string) int {
	for i, line := range t.Lines {
		if line.MenuItemID == menuItemID {
			return i
		}
	}
	return -1
}

// LineSubtotal recomputes the subtotal from the current lines.
func (t Table) LineSubtotal() float64 {
	return FromCents(sumLineCents(t.Lines))
}

// AddItem merges quantity of item into the order.
func (t *Table) AddItem(item MenuItem, quantity int, now time.Time) error {
	if quantity < 1 || quantity > MaxLineQuantity {
		return fmt.Errorf("quantity must be between 1 and %d, got %d: %w", MaxLineQuantity, quantity, ErrInvalidState)
	}
	if t.Closed() {
		return fmt.Errorf("table %d is %s: %w", t.Number, t.Status, ErrInvalidState)
	}

	next := t.Clone()
	if idx := next.LineIndex(item.ID); idx >= 0 {
		line := &next.Lines[idx]
		if err := line.setQuantity(line.Quantity + quantity); err != nil {
			return err
		}
	} else {
		if !item.Available {
			return fmt.Errorf("menu item %s is unavailable: %w", item.ID, ErrNotFound)
		}
		line, err := newOrderLine(item, quantity)
		if err != nil {
			return err
		}
		next.Lines = append(next.Lines, line)
	}
	if _, err := checkedLineCents(next.Lines); err != nil {
		return fmt.Errorf("table %d subtotal: %v: %w", t.Number, err, ErrInvalidState)
	}
	t.Lines = next.Lines

	if t.Status == TableAvailable {
		t.Status = TableOccupied
		started := now
		t.OrderStartedAt = &started
	}
	t.touch(now)
	return nil
}

// SetQuantity updates the line for menuItemID; quantity <= 0 removes it.
func (t *Table) SetQuantity(menuItemID string, quantity int, now time.Time) error {
	if t.Closed() {
		return fmt.Errorf("table %d is %s: %w", t.Number, t.Status, ErrInvalidState)
	}
	idx := t.LineIndex(menuItemID)
	if idx < 0 {
		return fmt.Errorf("no order line for menu item %s on table %d: %w", menuItemID, t.Number, ErrNotFound)
	}

	if quantity > MaxLineQuantity {
		return fmt.Errorf("quantity must be at most %d, got %d: %w", MaxLineQuantity, quantity, ErrInvalidState)
	}

	next := t.Clone()
	if quantity <= 0 {
		next.Lines = append(next.Lines[:idx], next.Lines[idx+1:]...)
	} else if err := next.Lines[idx].setQuantity(quantity); err != nil {
		return err
	}
	if _, err := checkedLineCents(next.Lines); err != nil {
		return fmt.Errorf("table %d subtotal: %v: %w", t.Number, err, ErrInvalidState)
	}
	t.Lines = next.Lines

	if len(t.Lines) == 0 {
		t.Status = TableAvailable
		t.OrderStartedAt = nil
	}
	t.touch(now)
	return nil
}

// MarkBilled freezes the order under billNumber, keeping the lines intact.
func (t *Table) MarkBilled(billNumber string, totals Totals, now time.Time) error {
	if t.Status != TableOccupied || len(t.Lines) == 0 {
		return fmt.Errorf("table %d cannot be billed from %s: %w", t.Number, t.Status, ErrInvalidState)
	}
	t.Status = TableBilled
	t.BillNumber = billNumber
	t.Subtotal = totals.Subtotal
	t.TaxAmount = totals.TaxAmount
	t.TotalAmount = totals.TotalAmount
	t.UpdatedAt = now
	return nil
}

// MarkPaid moves a billed table to paid if it still holds billNumber.
func (t *Table) MarkPaid(billNumber string, now time.Time) bool {
	if t.Status != TableBilled || t.BillNumber != billNumber {
		return false
	}
	t.Status = TablePaid
	t.UpdatedAt = now
	return true
}

// Reopen undoes MarkBilled for billNumber when its bill could not be stored.
func (t *Table) Reopen(billNumber string, now time.Time) bool {
	if t.Status != TableBilled || t.BillNumber != billNumber {
		return false
	}
	t.Status = TableOccupied
	t.BillNumber = ""
	t.touch(now)
	return true
}

// Clear resets the table to available regardless of its prior state.
func (t *Table) Clear(now time.Time) {
	t.Status = TableAvailable
	t.Lines = []OrderLine{}
	t.Subtotal = 0
	t.TaxAmount = 0
	t.TotalAmount = 0
	t.BillNumber = ""
	t.OrderStartedAt = nil
	t.UpdatedAt = now
}

func (t *Table) touch(now time.Time) {
	t.Subtotal = t.LineSubtotal()
	t.TaxAmount = 0
	t.TotalAmount = 0
	t.UpdatedAt = now
}
