package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "restopos"

// Metrics exposes POS counters. A nil *Metrics is valid and records nothing.
type Metrics struct {
	itemsAdded      prometheus.Counter
	billsGenerated  prometheus.Counter
	billsPaid       prometheus.Counter
	tableConflicts  *prometheus.CounterVec
	postingFailures prometheus.Counter
	billsReconciled prometheus.Counter
}

// New registers the POS counters on reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		itemsAdded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "order_items_added_total",
			Help:      "Menu items added to table orders.",
		}),
		billsGenerated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bills_generated_total",
			Help:      "Bills generated at checkout.",
		}),
		billsPaid: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bills_paid_total",
			Help:      "Bills moved from pending to paid.",
		}),
		tableConflicts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "table_write_conflicts_total",
			Help:      "Table compare-and-update collisions, by operation.",
		}, []string{"operation"}),
		postingFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "revenue_posting_failures_total",
			Help:      "Bills persisted whose revenue posting failed.",
		}),
		billsReconciled: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bills_reconciled_total",
			Help:      "Un-posted bills repaired by the reconciliation pass.",
		}),
	}

	if reg != nil {
		reg.MustRegister(m.itemsAdded, m.billsGenerated, m.billsPaid, m.tableConflicts, m.postingFailures, m.billsReconciled)
	}
	return m
}

// Handler serves the registry in the Prometheus text format.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

func (m *Metrics) ItemAdded() {
	if m != nil {
		m.itemsAdded.Inc()
	}
}

func (m *Metrics) BillGenerated() {
	if m != nil {
		m.billsGenerated.Inc()
	}
}

func (m *Metrics) BillPaid() {
	if m != nil {
		m.billsPaid.Inc()
	}
}

func (m *Metrics) TableConflict(operation string) {
	if m != nil {
		m.tableConflicts.WithLabelValues(operation).Inc()
	}
}

func (m *Metrics) PostingFailed() {
	if m != nil {
		m.postingFailures.Inc()
	}
}

func (m *Metrics) BillsReconciled(n int) {
	if m != nil && n > 0 {
		m.billsReconciled.Add(float64(n))
	}
}
