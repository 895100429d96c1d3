package events

import (
	"context"
	"time"
)

// Event types published on the POS exchange; they double as routing keys.
const (
	TypeBillCreated  = "bill.created"
	TypeBillPaid     = "bill.paid"
	TypeTableCleared = "table.cleared"
)

// Event is the JSON payload sent to downstream consumers (kitchen display,
// accounting, dashboards).
type Event struct {
	Type         string    `json:"type"`
	OccurredAt   time.Time `json:"occurred_at"`
	TableNumber  int       `json:"table_number"`
	BillNumber   string    `json:"bill_number,omitempty"`
	BusinessDate string    `json:"business_date,omitempty"`
	TotalAmount  float64   `json:"total_amount,omitempty"`
}

// Publisher delivers events. Callers treat failures as non-fatal.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}

// Noop drops every event; used when no broker is configured.
type Noop struct{}

func (Noop) Publish(context.Context, Event) error { return nil }

func (Noop) Close() error { return nil }
