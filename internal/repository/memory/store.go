package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/mamadbah2/restopos/internal/domain/models"
	"github.com/mamadbah2/restopos/internal/repository"
)

// Store is an in-process implementation of repository.Store. A single mutex
// makes every method atomic, which is what the Mongo store gets from
// single-document operations.
type Store struct {
	mu        sync.Mutex
	tables    map[int]models.Table
	bills     map[string]models.Bill
	revenue   map[string]models.RevenueRecord
	menu      map[string]models.MenuItem
	sequences map[string]int64
	settings  *models.Settings
}

var _ repository.Store = (*Store)(nil)

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{
		tables:    make(map[int]models.Table),
		bills:     make(map[string]models.Bill),
		revenue:   make(map[string]models.RevenueRecord),
		menu:      make(map[string]models.MenuItem),
		sequences: make(map[string]int64),
	}
}

func (s *Store) EnsureTables(_ context.Context, tables []models.Table) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	created := 0
	for _, table := range tables {
		if _, ok := s.tables[table.Number]; ok {
			continue
		}
		s.tables[table.Number] = table.Clone()
		created++
	}
	return created, nil
}

func (s *Store) GetTable(_ context.Context, number int) (models.Table, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	table, ok := s.tables[number]
	if !ok {
		return models.Table{}, fmt.Errorf("table %d: %w", number, models.ErrNotFound)
	}
	return table.Clone(), nil
}

func (s *Store) ListTables(_ context.Context) ([]models.Table, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]models.Table, 0, len(s.tables))
	for _, table := range s.tables {
		out = append(out, table.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Number < out[j].Number })
	return out, nil
}

func (s *Store) UpdateTable(_ context.Context, table models.Table) (models.Table, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.tables[table.Number]
	if !ok {
		return models.Table{}, fmt.Errorf("table %d: %w", table.Number, models.ErrNotFound)
	}
	if current.Version != table.Version {
		return models.Table{}, fmt.Errorf("table %d at version %d: %w", table.Number, table.Version, repository.ErrVersionConflict)
	}

	next := table.Clone()
	next.Version++
	s.tables[next.Number] = next
	return next.Clone(), nil
}

func (s *Store) InsertBill(_ context.Context, bill models.Bill) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.bills[bill.Number]; ok {
		return fmt.Errorf("bill %s: %w", bill.Number, repository.ErrDuplicate)
	}
	s.bills[bill.Number] = bill.Clone()
	return nil
}

func (s *Store) GetBill(_ context.Context, number string) (models.Bill, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	bill, ok := s.bills[number]
	if !ok {
		return models.Bill{}, fmt.Errorf("bill %s: %w", number, models.ErrNotFound)
	}
	return bill.Clone(), nil
}

func (s *Store) ListBillsByDate(_ context.Context, businessDate string) ([]models.Bill, error) {
	return s.filterBills(func(b models.Bill) bool { return b.BusinessDate == businessDate }), nil
}

func (s *Store) ListUnpostedBills(_ context.Context) ([]models.Bill, error) {
	return s.filterBills(func(b models.Bill) bool { return !b.RevenuePosted }), nil
}

func (s *Store) filterBills(keep func(models.Bill) bool) []models.Bill {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]models.Bill, 0)
	for _, bill := range s.bills {
		if keep(bill) {
			out = append(out, bill.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return models.BillBefore(out[i], out[j]) })
	return out
}

func (s *Store) MarkBillPosted(_ context.Context, number string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	bill, ok := s.bills[number]
	if !ok {
		return fmt.Errorf("bill %s: %w", number, models.ErrNotFound)
	}
	bill.RevenuePosted = true
	s.bills[number] = bill
	return nil
}

func (s *Store) MarkBillPaid(_ context.Context, number string, paidAt time.Time) (models.Bill, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	bill, ok := s.bills[number]
	if !ok {
		return models.Bill{}, false, fmt.Errorf("bill %s: %w", number, models.ErrNotFound)
	}
	if bill.PaymentStatus == models.PaymentPaid {
		return bill.Clone(), false, nil
	}
	bill.PaymentStatus = models.PaymentPaid
	paid := paidAt
	bill.PaidAt = &paid
	s.bills[number] = bill
	return bill.Clone(), true, nil
}

func (s *Store) PostBill(_ context.Context, businessDate, billNumber string, amountCents int64, now time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.revenue[businessDate]
	if !ok {
		record = models.EmptyRevenue(businessDate)
	}
	if record.HasBill(billNumber) {
		return false, nil
	}

	record.RevenueCents += amountCents
	record.TotalOrders++
	record.BillNumbers = append(append([]string{}, record.BillNumbers...), billNumber)
	record.UpdatedAt = now
	s.revenue[businessDate] = record
	return true, nil
}

func (s *Store) GetRevenue(_ context.Context, businessDate string) (models.RevenueRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.revenue[businessDate]
	if !ok {
		return models.RevenueRecord{}, fmt.Errorf("revenue %s: %w", businessDate, models.ErrNotFound)
	}
	return copyRevenue(record), nil
}

func (s *Store) ListRevenue(_ context.Context, from, to string) ([]models.RevenueRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]models.RevenueRecord, 0)
	for date, record := range s.revenue {
		if date >= from && date <= to {
			out = append(out, copyRevenue(record))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out, nil
}

func copyRevenue(record models.RevenueRecord) models.RevenueRecord {
	record.BillNumbers = append([]string{}, record.BillNumbers...)
	record.Normalize()
	return record
}

func (s *Store) GetSettings(_ context.Context) (models.Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.settings == nil {
		return models.Settings{}, fmt.Errorf("settings: %w", models.ErrNotFound)
	}
	return *s.settings, nil
}

func (s *Store) CreateSettings(_ context.Context, settings models.Settings) (models.Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.settings == nil {
		stored := settings
		s.settings = &stored
	}
	return *s.settings, nil
}

func (s *Store) SaveSettings(_ context.Context, settings models.Settings) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := settings
	s.settings = &stored
	return nil
}

func (s *Store) InsertMenuItem(_ context.Context, item models.MenuItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.menu[item.ID]; ok {
		return fmt.Errorf("menu item %s: %w", item.ID, repository.ErrDuplicate)
	}
	s.menu[item.ID] = item
	return nil
}

func (s *Store) GetMenuItem(_ context.Context, id string) (models.MenuItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, ok := s.menu[id]
	if !ok {
		return models.MenuItem{}, fmt.Errorf("menu item %s: %w", id, models.ErrNotFound)
	}
	return item, nil
}

func (s *Store) ListMenuItems(_ context.Context, filter models.MenuFilter) ([]models.MenuItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]models.MenuItem, 0, len(s.menu))
	for _, item := range s.menu {
		if filter.Matches(item) {
			out = append(out, item)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Category != out[j].Category {
			return out[i].Category < out[j].Category
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

func (s *Store) UpdateMenuItem(_ context.Context, item models.MenuItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.menu[item.ID]; !ok {
		return fmt.Errorf("menu item %s: %w", item.ID, models.ErrNotFound)
	}
	s.menu[item.ID] = item
	return nil
}

func (s *Store) NextSequence(_ context.Context, key string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sequences[key]++
	return s.sequences[key], nil
}

func (s *Store) Close(context.Context) error {
	return nil
}
