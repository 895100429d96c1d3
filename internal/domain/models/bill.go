package models

import (
	"fmt"
	"time"
)

// PaymentStatus tracks whether a bill has been settled.
type PaymentStatus string

const (
	PaymentPending PaymentStatus = "pending"
	PaymentPaid    PaymentStatus = "paid"
)

const billNumberPrefix = "BILL"

// Bill is the immutable record produced at checkout. Only the payment fields
// and the internal posting flag change after creation.
type Bill struct {
	Number        string        `bson:"_id" json:"number"`
	BusinessDate  string        `bson:"business_date" json:"business_date"`
	Sequence      int64         `bson:"sequence" json:"-"`
	TableNumber   int           `bson:"table_number" json:"table_number"`
	Lines         []OrderLine   `bson:"lines" json:"lines"`
	Subtotal      float64       `bson:"subtotal" json:"subtotal"`
	TaxRate       float64       `bson:"tax_rate" json:"tax_rate"`
	TaxAmount     float64       `bson:"tax_amount" json:"tax_amount"`
	TotalAmount   float64       `bson:"total_amount" json:"total_amount"`
	PaymentStatus PaymentStatus `bson:"payment_status" json:"payment_status"`
	RevenuePosted bool          `bson:"revenue_posted" json:"revenue_posted"`
	CreatedAt     time.Time     `bson:"created_at" json:"created_at"`
	PaidAt        *time.Time    `bson:"paid_at,omitempty" json:"paid_at,omitempty"`
}

// FormatBillNumber renders BILL-<date>-<seq> with a four digit padded sequence.
func FormatBillNumber(businessDate string, seq int64) string {
	return fmt.Sprintf("%s-%s-%04d", billNumberPrefix, businessDate, seq)
}

// SequenceKey scopes the bill counter to a business date.
func SequenceKey(businessDate string) string {
	return "bill:" + businessDate
}

// NewBill snapshots the table's lines into a pending bill numbered seq
// within businessDate.
func NewBill(businessDate string, seq int64, table Table, totals Totals, now time.Time) Bill {
	lines := make([]OrderLine, len(table.Lines))
	copy(lines, table.Lines)

	return Bill{
		Number:        FormatBillNumber(businessDate, seq),
		BusinessDate:  businessDate,
		Sequence:      seq,
		TableNumber:   table.Number,
		Lines:         lines,
		Subtotal:      totals.Subtotal,
		TaxRate:       totals.TaxRate,
		TaxAmount:     totals.TaxAmount,
		TotalAmount:   totals.TotalAmount,
		PaymentStatus: PaymentPending,
		CreatedAt:     now,
	}
}

// BillBefore orders bills by business date, then numerically by sequence.
// The number string breaks ties for bills stored without a sequence.
func BillBefore(a, b Bill) bool {
	if a.BusinessDate != b.BusinessDate {
		return a.BusinessDate < b.BusinessDate
	}
	if a.Sequence != b.Sequence {
		return a.Sequence < b.Sequence
	}
	return a.Number < b.Number
}

// Clone returns a deep copy of the bill.
func (b Bill) Clone() Bill {
	out := b
	out.Lines = make([]OrderLine, len(b.Lines))
	copy(out.Lines, b.Lines)
	if b.PaidAt != nil {
		paid := *b.PaidAt
		out.PaidAt = &paid
	}
	return out
}
