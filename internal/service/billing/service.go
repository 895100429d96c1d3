package billing

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/mamadbah2/restopos/internal/clock"
	"github.com/mamadbah2/restopos/internal/domain/models"
	"github.com/mamadbah2/restopos/internal/events"
	"github.com/mamadbah2/restopos/internal/observability/metrics"
	"github.com/mamadbah2/restopos/internal/repository"
	"github.com/mamadbah2/restopos/internal/service/tablestate"
)

// TaxRateSource supplies the current tax percentage.
type TaxRateSource interface {
	TaxRate(ctx context.Context) (float64, error)
}

// RevenuePoster posts a bill into the day's revenue, idempotently.
type RevenuePoster interface {
	RecordBill(ctx context.Context, businessDate string, bill models.Bill) (bool, error)
}

// Store is the persistence the bill generator needs.
type Store interface {
	repository.BillRepository
	repository.SequenceRepository
}

// Params groups the collaborators of the bill generator.
type Params struct {
	Store     Store
	Guard     *tablestate.Guard
	Taxes     TaxRateSource
	Revenue   RevenuePoster
	Clock     clock.Clock
	Publisher events.Publisher
	Metrics   *metrics.Metrics
	Logger    *zap.Logger
}

// Result is the outcome of a checkout.
type Result struct {
	Bill  models.Bill  `json:"bill"`
	Table models.Table `json:"table"`
}

// Service turns a table's order into bills.
type Service struct {
	store     Store
	guard     *tablestate.Guard
	taxes     TaxRateSource
	revenue   RevenuePoster
	clock     clock.Clock
	publisher events.Publisher
	metrics   *metrics.Metrics
	logger    *zap.Logger
}

// NewService wires the bill generator.
func NewService(p Params) *Service {
	if p.Logger == nil {
		p.Logger = zap.NewNop()
	}
	if p.Publisher == nil {
		p.Publisher = events.Noop{}
	}
	return &Service{
		store:     p.Store,
		guard:     p.Guard,
		taxes:     p.Taxes,
		revenue:   p.Revenue,
		clock:     p.Clock,
		publisher: p.Publisher,
		metrics:   p.Metrics,
		logger:    p.Logger,
	}
}

// GenerateBill closes the table's order into an immutable bill and posts it
// to the day's revenue.
//
// When the bill is stored but the revenue posting fails, the populated Result
// is returned together with a *models.PostingError; Reconcile repairs it.
func (s *Service) GenerateBill(ctx context.Context, number int) (Result, error) {
	unlock := s.guard.Lock(number)
	defer unlock()

	rate, err := s.taxes.TaxRate(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("read tax rate: %w", err)
	}

	var bill models.Bill
	table, err := s.guard.UpdateLocked(ctx, number, "generate_bill", func(t *models.Table) error {
		if len(t.Lines) == 0 {
			return fmt.Errorf("table %d has no order to bill: %w", number, models.ErrInvalidState)
		}
		if t.Status != models.TableOccupied {
			return fmt.Errorf("table %d is already %s: %w", number, t.Status, models.ErrInvalidState)
		}

		now := s.clock.Now()
		date := s.clock.BusinessDate()
		seq, err := s.store.NextSequence(ctx, models.SequenceKey(date))
		if err != nil {
			return err
		}

		billNumber := models.FormatBillNumber(date, seq)
		totals := models.ComputeTotals(t.Lines, rate)
		if err := t.MarkBilled(billNumber, totals, now); err != nil {
			return err
		}
		bill = models.NewBill(date, seq, *t, totals, now)
		return nil
	})
	if err != nil {
		return Result{}, err
	}

	if err := s.store.InsertBill(ctx, bill); err != nil {
		s.logger.Error("failed to store bill, reopening table",
			zap.Int("table", number),
			zap.String("bill", bill.Number),
			zap.Error(err))
		s.reopen(ctx, number, bill.Number)
		return Result{}, fmt.Errorf("store bill %s: %w", bill.Number, err)
	}

	s.metrics.BillGenerated()
	s.logger.Info("bill generated",
		zap.Int("table", number),
		zap.String("bill", bill.Number),
		zap.Float64("subtotal", bill.Subtotal),
		zap.Float64("tax", bill.TaxAmount),
		zap.Float64("total", bill.TotalAmount))

	result := Result{Bill: bill, Table: table}
	if err := s.post(ctx, &result.Bill); err != nil {
		return result, err
	}

	s.publish(ctx, events.Event{
		Type:         events.TypeBillCreated,
		OccurredAt:   bill.CreatedAt,
		TableNumber:  number,
		BillNumber:   bill.Number,
		BusinessDate: bill.BusinessDate,
		TotalAmount:  bill.TotalAmount,
	})
	return result, nil
}

func (s *Service) reopen(ctx context.Context, number int, billNumber string) {
	_, err := s.guard.UpdateLocked(ctx, number, "reopen_bill", func(t *models.Table) error {
		if !t.Reopen(billNumber, s.clock.Now()) {
			return tablestate.ErrNoChange
		}
		return nil
	})
	if err != nil {
		s.logger.Error("failed to reopen table after bill store failure",
			zap.Int("table", number),
			zap.String("bill", billNumber),
			zap.Error(err))
	}
}

// post books the bill into revenue and flags it as posted. A failed flag
// update is harmless because posting is idempotent.
func (s *Service) post(ctx context.Context, bill *models.Bill) error {
	if _, err := s.revenue.RecordBill(ctx, bill.BusinessDate, *bill); err != nil {
		s.metrics.PostingFailed()
		s.logger.Error("revenue posting failed, bill awaits reconciliation",
			zap.String("bill", bill.Number),
			zap.String("date", bill.BusinessDate),
			zap.Error(err))
		return &models.PostingError{BillNumber: bill.Number, Err: err}
	}

	if err := s.store.MarkBillPosted(ctx, bill.Number); err != nil {
		s.logger.Warn("failed to flag bill as posted", zap.String("bill", bill.Number), zap.Error(err))
		return nil
	}
	bill.RevenuePosted = true
	return nil
}

// GetBill returns a bill by number.
func (s *Service) GetBill(ctx context.Context, number string) (models.Bill, error) {
	return s.store.GetBill(ctx, number)
}

// ListBills returns the bills of one business date in sequence order.
func (s *Service) ListBills(ctx context.Context, businessDate string) ([]models.Bill, error) {
	if _, err := clock.ParseDate(businessDate); err != nil {
		return nil, fmt.Errorf("business date %q: %w", businessDate, models.ErrInvalidState)
	}
	return s.store.ListBillsByDate(ctx, businessDate)
}

// MarkPaid settles a bill. Settling a paid bill returns it unchanged.
func (s *Service) MarkPaid(ctx context.Context, billNumber string) (models.Bill, error) {
	current, err := s.store.GetBill(ctx, billNumber)
	if err != nil {
		return models.Bill{}, err
	}
	if current.PaymentStatus == models.PaymentPaid {
		return current, nil
	}

	now := s.clock.Now()
	paid, transitioned, err := s.store.MarkBillPaid(ctx, billNumber, now)
	if err != nil {
		return models.Bill{}, err
	}
	if !transitioned {
		return paid, nil
	}

	_, err = s.guard.Update(ctx, paid.TableNumber, "mark_paid", func(t *models.Table) error {
		if !t.MarkPaid(billNumber, now) {
			return tablestate.ErrNoChange
		}
		return nil
	})
	if err != nil {
		s.logger.Warn("bill paid but table status not updated",
			zap.String("bill", billNumber),
			zap.Int("table", paid.TableNumber),
			zap.Error(err))
	}

	s.metrics.BillPaid()
	s.logger.Info("bill paid", zap.String("bill", billNumber), zap.Float64("total", paid.TotalAmount))
	s.publish(ctx, events.Event{
		Type:         events.TypeBillPaid,
		OccurredAt:   now,
		TableNumber:  paid.TableNumber,
		BillNumber:   paid.Number,
		BusinessDate: paid.BusinessDate,
		TotalAmount:  paid.TotalAmount,
	})
	return paid, nil
}

// Reconcile replays revenue posting for every bill not yet flagged as
// posted and returns how many were repaired.
func (s *Service) Reconcile(ctx context.Context) (int, error) {
	pending, err := s.store.ListUnpostedBills(ctx)
	if err != nil {
		return 0, fmt.Errorf("list unposted bills: %w", err)
	}

	repaired := 0
	var errs []error
	for _, bill := range pending {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}

		counted, err := s.revenue.RecordBill(ctx, bill.BusinessDate, bill)
		if err != nil {
			errs = append(errs, fmt.Errorf("post bill %s: %w", bill.Number, err))
			continue
		}
		if err := s.store.MarkBillPosted(ctx, bill.Number); err != nil {
			errs = append(errs, fmt.Errorf("flag bill %s: %w", bill.Number, err))
			continue
		}

		repaired++
		s.logger.Info("bill reconciled",
			zap.String("bill", bill.Number),
			zap.String("date", bill.BusinessDate),
			zap.Bool("newly_counted", counted))
	}

	s.metrics.BillsReconciled(repaired)
	return repaired, errors.Join(errs...)
}

func (s *Service) publish(ctx context.Context, event events.Event) {
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Warn("failed to publish event", zap.String("type", event.Type), zap.Error(err))
	}
}
