package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/restopos/internal/clock"
	"github.com/mamadbah2/restopos/internal/config"
	"github.com/mamadbah2/restopos/internal/service/reporting"
)

type fakeReconciler struct {
	calls int
	err   error
}

func (f *fakeReconciler) Reconcile(context.Context) (int, error) {
	f.calls++
	return 1, f.err
}

type fakeReporter struct {
	dates []string
}

func (f *fakeReporter) EndOfDay(_ context.Context, date string) (reporting.Report, error) {
	f.dates = append(f.dates, date)
	return reporting.Report{Date: date}, nil
}

func schedules() config.ReportingConfig {
	return config.ReportingConfig{CronSchedule: "0 23 * * *", ReconcileCronSchedule: "*/15 * * * *"}
}

func TestEndOfDayReconcilesThenReportsBusinessDate(t *testing.T) {
	reconciler := &fakeReconciler{}
	reporter := &fakeReporter{}
	clk := clock.NewFixed(time.Date(2024, 5, 1, 23, 0, 0, 0, time.UTC))
	s := NewScheduler(schedules(), time.UTC, reconciler, reporter, clk, nil)

	s.endOfDay()
	assert.Equal(t, 1, reconciler.calls)
	assert.Equal(t, []string{"2024-05-01"}, reporter.dates)
}

func TestReconcileErrorsAreLogged(t *testing.T) {
	reconciler := &fakeReconciler{err: errors.New("mongo down")}
	s := NewScheduler(schedules(), time.UTC, reconciler, nil, clock.NewFixed(time.Now()), nil)

	assert.NotPanics(t, s.reconcile)
	assert.Equal(t, 1, reconciler.calls)
}

func TestStartRegistersJobs(t *testing.T) {
	s := NewScheduler(schedules(), time.UTC, &fakeReconciler{}, &fakeReporter{}, clock.NewFixed(time.Now()), nil)
	require.NoError(t, s.Start())
	defer s.Stop()
	assert.Len(t, s.cron.Entries(), 2)
}

func TestStartRejectsBadSchedule(t *testing.T) {
	cfg := schedules()
	cfg.ReconcileCronSchedule = "every so often"
	s := NewScheduler(cfg, time.UTC, &fakeReconciler{}, nil, clock.NewFixed(time.Now()), nil)
	assert.Error(t, s.Start())
}
