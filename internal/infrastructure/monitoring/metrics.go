package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type DBMetrics struct {
	QueryDuration *prometheus.HistogramVec
}

type BusinessMetrics struct {
	EligibilityDecisionsTotal *prometheus.CounterVec
	LoansIssuedTotal          prometheus.Counter
	CustomersRegisteredTotal  prometheus.Counter
	ImportedRowsTotal         *prometheus.CounterVec
}

var (
	DB = DBMetrics{
		QueryDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "credit_engine_db_query_duration_seconds",
				Help:    "Histogram of database query latencies.",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
			},
			[]string{"query_name", "status"},
		),
	}

	Business = BusinessMetrics{
		EligibilityDecisionsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "credit_engine_eligibility_decisions_total",
				Help: "Total number of eligibility decisions, by outcome.",
			},
			[]string{"outcome"},
		),
		LoansIssuedTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "credit_engine_loans_issued_total",
				Help: "Total number of loans successfully issued.",
			},
		),
		CustomersRegisteredTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "credit_engine_customers_registered_total",
				Help: "Total number of customers successfully registered.",
			},
		),
		ImportedRowsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "credit_engine_imported_rows_total",
				Help: "Total number of rows processed by the bulk importer.",
			},
			[]string{"entity", "status"},
		),
	}
)

func RecordDBQuery(queryName, status string, duration time.Duration) {
	DB.QueryDuration.WithLabelValues(queryName, status).Observe(duration.Seconds())
}

func RecordDecision(outcome string) {
	Business.EligibilityDecisionsTotal.WithLabelValues(outcome).Inc()
}

func RecordLoanIssued() {
	Business.LoansIssuedTotal.Inc()
}

func RecordCustomerRegistered() {
	Business.CustomersRegisteredTotal.Inc()
}

func RecordImportedRow(entity, status string) {
	Business.ImportedRowsTotal.WithLabelValues(entity, status).Inc()
}
