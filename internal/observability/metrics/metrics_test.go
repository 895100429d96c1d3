package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestCountersRecord(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.BillGenerated()
	m.BillGenerated()
	m.TableConflict("add_item")
	m.BillsReconciled(3)
	m.BillsReconciled(0)

	if got := testutil.ToFloat64(m.billsGenerated); got != 2 {
		t.Fatalf("expected 2 bills generated, got %v", got)
	}
	if got := testutil.ToFloat64(m.tableConflicts.WithLabelValues("add_item")); got != 1 {
		t.Fatalf("expected 1 conflict, got %v", got)
	}
	if got := testutil.ToFloat64(m.billsReconciled); got != 3 {
		t.Fatalf("expected 3 reconciled, got %v", got)
	}
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	m.ItemAdded()
	m.BillGenerated()
	m.BillPaid()
	m.TableConflict("clear")
	m.PostingFailed()
	m.BillsReconciled(1)
}
