package models

import (
	"slices"
	"time"
)

// RevenueRecord aggregates the bills of one business date.
// Revenue is accumulated in cents; TotalRevenue is derived on read.
type RevenueRecord struct {
	Date         string    `bson:"_id" json:"date"`
	RevenueCents int64     `bson:"revenue_cents" json:"-"`
	TotalRevenue float64   `bson:"-" json:"total_revenue"`
	TotalOrders  int       `bson:"total_orders" json:"total_orders"`
	BillNumbers  []string  `bson:"bill_numbers" json:"bill_numbers"`
	UpdatedAt    time.Time `bson:"updated_at" json:"updated_at"`
}

// EmptyRevenue is the zero-valued record returned for dates without bills.
func EmptyRevenue(date string) RevenueRecord {
	return RevenueRecord{Date: date, BillNumbers: []string{}}
}

// Normalize fills derived fields after a load.
func (r *RevenueRecord) Normalize() {
	r.TotalRevenue = FromCents(r.RevenueCents)
	if r.BillNumbers == nil {
		r.BillNumbers = []string{}
	}
}

// HasBill reports whether billNumber has already been posted.
func (r RevenueRecord) HasBill(billNumber string) bool {
	return slices.Contains(r.BillNumbers, billNumber)
}

// MonthlyRevenue sums the daily records of one calendar month.
type MonthlyRevenue struct {
	Year         int             `json:"year"`
	Month        int             `json:"month"`
	From         string          `json:"from"`
	To           string          `json:"to"`
	TotalRevenue float64         `json:"total_revenue"`
	TotalOrders  int             `json:"total_orders"`
	Days         []RevenueRecord `json:"days"`
}
