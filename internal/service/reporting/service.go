package reporting

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/mamadbah2/restopos/internal/domain/models"
)

const topItemsInReport = 3

// Summarizer renders the revenue line of the report.
type Summarizer interface {
	DailySummary(ctx context.Context, date string) (string, error)
}

// BillLister lists the bills of one business date.
type BillLister interface {
	ListBills(ctx context.Context, businessDate string) ([]models.Bill, error)
}

// Notifier delivers the report text to the manager.
type Notifier interface {
	Notify(ctx context.Context, body string) error
}

// Exporter mirrors bills into the accounting sheet.
type Exporter interface {
	ExportBills(ctx context.Context, bills []models.Bill) (int, error)
}

// Params groups the collaborators of the reporting service. Notifier and
// Exporter are optional.
type Params struct {
	Revenue  Summarizer
	Bills    BillLister
	Notifier Notifier
	Exporter Exporter
	Logger   *zap.Logger
}

// Report is the outcome of an end-of-day run.
type Report struct {
	Date     string `json:"date"`
	Message  string `json:"message"`
	Notified bool   `json:"notified"`
	Exported int    `json:"exported"`
}

// Service builds the end-of-day report and ships it to the configured sinks.
type Service struct {
	revenue  Summarizer
	bills    BillLister
	notifier Notifier
	exporter Exporter
	logger   *zap.Logger
}

// NewService wires a new reporting service instance.
func NewService(p Params) *Service {
	if p.Logger == nil {
		p.Logger = zap.NewNop()
	}
	return &Service{
		revenue:  p.Revenue,
		bills:    p.Bills,
		notifier: p.Notifier,
		exporter: p.Exporter,
		logger:   p.Logger,
	}
}

// EndOfDay summarizes date, notifies the manager and exports the day's bills.
// A failing sink does not stop the other one; their errors are joined.
func (s *Service) EndOfDay(ctx context.Context, date string) (Report, error) {
	summary, err := s.revenue.DailySummary(ctx, date)
	if err != nil {
		return Report{}, fmt.Errorf("summarize %s: %w", date, err)
	}

	bills, err := s.bills.ListBills(ctx, date)
	if err != nil {
		return Report{}, fmt.Errorf("list bills for %s: %w", date, err)
	}

	report := Report{Date: date, Message: summary}
	if top := TopItems(bills, topItemsInReport); len(top) > 0 {
		report.Message += "\nTop sellers: " + strings.Join(top, ", ") + "."
	}

	var errs []error
	if s.notifier != nil {
		if err := s.notifier.Notify(ctx, report.Message); err != nil {
			s.logger.Error("failed to send end-of-day report", zap.String("date", date), zap.Error(err))
			errs = append(errs, fmt.Errorf("notify: %w", err))
		} else {
			report.Notified = true
		}
	}

	if s.exporter != nil && len(bills) > 0 {
		written, err := s.exporter.ExportBills(ctx, bills)
		if err != nil {
			s.logger.Error("failed to export bills", zap.String("date", date), zap.Error(err))
			errs = append(errs, fmt.Errorf("export: %w", err))
		}
		report.Exported = written
	}

	s.logger.Info("end-of-day report done",
		zap.String("date", date),
		zap.Int("bills", len(bills)),
		zap.Bool("notified", report.Notified),
		zap.Int("exported", report.Exported))
	return report, errors.Join(errs...)
}

// TopItems returns up to n "Name xQty" entries for the best selling items,
// ties broken by name.
func TopItems(bills []models.Bill, n int) []string {
	type tally struct {
		name string
		qty  int
	}
	byItem := map[string]*tally{}
	for _, bill := range bills {
		for _, line := range bill.Lines {
			entry, ok := byItem[line.MenuItemID]
			if !ok {
				entry = &tally{name: line.Name}
				byItem[line.MenuItemID] = entry
			}
			entry.qty += line.Quantity
		}
	}

	ranked := make([]tally, 0, len(byItem))
	for _, entry := range byItem {
		ranked = append(ranked, *entry)
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].qty != ranked[j].qty {
			return ranked[i].qty > ranked[j].qty
		}
		return ranked[i].name < ranked[j].name
	})

	if len(ranked) > n {
		ranked = ranked[:n]
	}
	out := make([]string, 0, len(ranked))
	for _, entry := range ranked {
		out = append(out, fmt.Sprintf("%s x%d", entry.name, entry.qty))
	}
	return out
}
