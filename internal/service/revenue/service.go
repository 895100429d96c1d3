package revenue

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/restopos/internal/clock"
	"github.com/mamadbah2/restopos/internal/domain/models"
	"github.com/mamadbah2/restopos/internal/repository"
)

// SettingsReader supplies the currency printed in summaries.
type SettingsReader interface {
	GetSettings(ctx context.Context) (models.Settings, error)
}

// Service is the revenue ledger.
type Service struct {
	repo     repository.RevenueRepository
	settings SettingsReader
	clock    clock.Clock
	logger   *zap.Logger
}

// NewService wires a revenue ledger. settings may be nil.
func NewService(repo repository.RevenueRepository, settings SettingsReader, clk clock.Clock, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{repo: repo, settings: settings, clock: clk, logger: logger}
}

// RecordBill posts bill into the record for businessDate. Posting the same
// bill again is a no-op and reports false.
func (s *Service) RecordBill(ctx context.Context, businessDate string, bill models.Bill) (bool, error) {
	if bill.Number == "" {
		return false, fmt.Errorf("bill without number: %w", models.ErrInvalidState)
	}
	if _, err := clock.ParseDate(businessDate); err != nil {
		return false, fmt.Errorf("business date %q: %w", businessDate, models.ErrInvalidState)
	}

	posted, err := s.repo.PostBill(ctx, businessDate, bill.Number, models.ToCents(bill.TotalAmount), s.clock.Now())
	if err != nil {
		return false, err
	}

	if posted {
		s.logger.Debug("bill posted to revenue",
			zap.String("date", businessDate),
			zap.String("bill", bill.Number),
			zap.Float64("amount", bill.TotalAmount))
	} else {
		s.logger.Debug("bill already posted", zap.String("date", businessDate), zap.String("bill", bill.Number))
	}
	return posted, nil
}

// DailyRevenue returns the record for date, or a zero record when no bill was
// posted that day.
func (s *Service) DailyRevenue(ctx context.Context, date string) (models.RevenueRecord, error) {
	if _, err := clock.ParseDate(date); err != nil {
		return models.RevenueRecord{}, fmt.Errorf("date %q: %w", date, models.ErrInvalidState)
	}

	record, err := s.repo.GetRevenue(ctx, date)
	if errors.Is(err, models.ErrNotFound) {
		return models.EmptyRevenue(date), nil
	}
	if err != nil {
		return models.RevenueRecord{}, err
	}
	return record, nil
}

// MonthlyRevenue sums the daily records from the first to the last calendar
// day of the month.
func (s *Service) MonthlyRevenue(ctx context.Context, year int, month time.Month) (models.MonthlyRevenue, error) {
	if month < time.January || month > time.December {
		return models.MonthlyRevenue{}, fmt.Errorf("month %d: %w", month, models.ErrInvalidState)
	}

	first, last := clock.MonthBounds(year, month)
	from, to := first.Format(clock.DateLayout), last.Format(clock.DateLayout)

	days, err := s.repo.ListRevenue(ctx, from, to)
	if err != nil {
		return models.MonthlyRevenue{}, err
	}

	var cents int64
	var orders int
	for _, day := range days {
		cents += day.RevenueCents
		orders += day.TotalOrders
	}

	return models.MonthlyRevenue{
		Year:         year,
		Month:        int(month),
		From:         from,
		To:           to,
		TotalRevenue: models.FromCents(cents),
		TotalOrders:  orders,
		Days:         days,
	}, nil
}

// DailySummary renders the end-of-day message sent to the manager.
func (s *Service) DailySummary(ctx context.Context, date string) (string, error) {
	record, err := s.DailyRevenue(ctx, date)
	if err != nil {
		return "", err
	}

	name, currency := "", models.DefaultCurrency
	if s.settings != nil {
		if current, err := s.settings.GetSettings(ctx); err == nil {
			name, currency = current.RestaurantName, current.Currency
		} else {
			s.logger.Debug("settings unavailable for summary", zap.Error(err))
		}
	}

	header := "Daily revenue"
	if name != "" {
		header = name + " daily revenue"
	}

	if record.TotalOrders == 0 {
		return fmt.Sprintf("%s (%s): no bills recorded.", header, date), nil
	}

	average := models.FromCents(record.RevenueCents / int64(record.TotalOrders))
	return fmt.Sprintf("%s (%s): %d bills, total %.2f %s, average %.2f %s.",
		header, date, record.TotalOrders, record.TotalRevenue, currency, average, currency), nil
}
