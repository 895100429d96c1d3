package repository

import (
	"context"
	"errors"
	"time"

	"github.com/mamadbah2/restopos/internal/domain/models"
)

var (
	// ErrVersionConflict signals a failed compare-and-update on a table.
	ErrVersionConflict = errors.New("version conflict")
	// ErrDuplicate signals an insert that collided with an existing key.
	ErrDuplicate = errors.New("duplicate key")
)

// TableRepository persists tables. UpdateTable only succeeds when the stored
// version equals table.Version; the returned table carries the bumped version.
type TableRepository interface {
	EnsureTables(ctx context.Context, tables []models.Table) (int, error)
	GetTable(ctx context.Context, number int) (models.Table, error)
	ListTables(ctx context.Context) ([]models.Table, error)
	UpdateTable(ctx context.Context, table models.Table) (models.Table, error)
}

// BillRepository persists immutable bills and their payment/posting flags.
type BillRepository interface {
	InsertBill(ctx context.Context, bill models.Bill) error
	GetBill(ctx context.Context, number string) (models.Bill, error)
	ListBillsByDate(ctx context.Context, businessDate string) ([]models.Bill, error)
	ListUnpostedBills(ctx context.Context) ([]models.Bill, error)
	MarkBillPosted(ctx context.Context, number string) error
	// MarkBillPaid reports true only for the call that moved the bill to paid.
	MarkBillPaid(ctx context.Context, number string, paidAt time.Time) (models.Bill, bool, error)
}

// RevenueRepository accumulates daily revenue. PostBill is an atomic,
// idempotent append keyed by bill number; it reports whether it counted.
type RevenueRepository interface {
	PostBill(ctx context.Context, businessDate, billNumber string, amountCents int64, now time.Time) (bool, error)
	GetRevenue(ctx context.Context, businessDate string) (models.RevenueRecord, error)
	ListRevenue(ctx context.Context, from, to string) ([]models.RevenueRecord, error)
}

// SettingsRepository stores the settings singleton.
type SettingsRepository interface {
	GetSettings(ctx context.Context) (models.Settings, error)
	CreateSettings(ctx context.Context, settings models.Settings) (models.Settings, error)
	SaveSettings(ctx context.Context, settings models.Settings) error
}

// MenuRepository stores the menu catalog.
type MenuRepository interface {
	InsertMenuItem(ctx context.Context, item models.MenuItem) error
	GetMenuItem(ctx context.Context, id string) (models.MenuItem, error)
	ListMenuItems(ctx context.Context, filter models.MenuFilter) ([]models.MenuItem, error)
	UpdateMenuItem(ctx context.Context, item models.MenuItem) error
}

// SequenceRepository hands out atomic counters starting at 1 per key.
type SequenceRepository interface {
	NextSequence(ctx context.Context, key string) (int64, error)
}

// Store is the full persistence provider consumed by the services.
type Store interface {
	TableRepository
	BillRepository
	RevenueRepository
	SettingsRepository
	MenuRepository
	SequenceRepository
	Close(ctx context.Context) error
}
