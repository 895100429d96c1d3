package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/mamadbah2/restopos/internal/clock"
	"github.com/mamadbah2/restopos/internal/config"
	"github.com/mamadbah2/restopos/internal/service/reporting"
)

const jobTimeout = 2 * time.Minute

// Reconciler replays revenue postings for unposted bills.
type Reconciler interface {
	Reconcile(ctx context.Context) (int, error)
}

// Reporter produces the end-of-day report for a business date.
type Reporter interface {
	EndOfDay(ctx context.Context, date string) (reporting.Report, error)
}

// Scheduler manages scheduled tasks.
type Scheduler struct {
	cron       *cron.Cron
	cfg        config.ReportingConfig
	reconciler Reconciler
	reporter   Reporter
	clock      clock.Clock
	logger     *zap.Logger
}

// NewScheduler creates a scheduler that evaluates cron expressions in loc.
func NewScheduler(cfg config.ReportingConfig, loc *time.Location, reconciler Reconciler, reporter Reporter, clk clock.Clock, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if loc == nil {
		loc = time.Local
	}

	// Jobs never overlap themselves; a slow reconcile skips the next tick.
	c := cron.New(
		cron.WithLocation(loc),
		cron.WithChain(cron.Recover(cron.DefaultLogger), cron.SkipIfStillRunning(cron.DefaultLogger)),
	)

	return &Scheduler{
		cron:       c,
		cfg:        cfg,
		reconciler: reconciler,
		reporter:   reporter,
		clock:      clk,
		logger:     logger,
	}
}

// Start registers the jobs and starts the scheduler.
func (s *Scheduler) Start() error {
	s.logger.Info("starting scheduler",
		zap.String("reconcile", s.cfg.ReconcileCronSchedule),
		zap.String("report", s.cfg.CronSchedule))

	if _, err := s.cron.AddFunc(s.cfg.ReconcileCronSchedule, s.reconcile); err != nil {
		return fmt.Errorf("schedule reconciliation %q: %w", s.cfg.ReconcileCronSchedule, err)
	}
	if s.reporter != nil {
		if _, err := s.cron.AddFunc(s.cfg.CronSchedule, s.endOfDay); err != nil {
			return fmt.Errorf("schedule end-of-day report %q: %w", s.cfg.CronSchedule, err)
		}
	}

	s.cron.Start()
	return nil
}

// Stop stops the scheduler and waits for running jobs.
func (s *Scheduler) Stop() {
	s.logger.Info("stopping scheduler")
	<-s.cron.Stop().Done()
}

func (s *Scheduler) reconcile() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	repaired, err := s.reconciler.Reconcile(ctx)
	if err != nil {
		s.logger.Error("reconciliation incomplete", zap.Int("repaired", repaired), zap.Error(err))
		return
	}
	if repaired > 0 {
		s.logger.Info("reconciliation repaired bills", zap.Int("repaired", repaired))
	}
}

func (s *Scheduler) endOfDay() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	// Catch stragglers before summarizing.
	s.reconcile()

	date := s.clock.BusinessDate()
	s.logger.Info("generating end-of-day report", zap.String("date", date))
	if _, err := s.reporter.EndOfDay(ctx, date); err != nil {
		s.logger.Error("end-of-day report failed", zap.String("date", date), zap.Error(err))
	}
}
