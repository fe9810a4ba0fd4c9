package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// AuxiliaryDegraded counts lookups that fell back to zero/empty inputs.
	AuxiliaryDegraded = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "payroll",
		Name:      "auxiliary_degraded_total",
		Help:      "Auxiliary lookups that failed and were replaced by zero or empty values.",
	}, []string{"source"})

	SessionsOpened = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "payroll",
		Name:      "sessions_opened_total",
		Help:      "Payroll period sessions opened.",
	}, []string{"category"})

	DraftsSaved = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "payroll",
		Name:      "drafts_saved_total",
		Help:      "Draft records written, by outcome.",
	}, []string{"category", "outcome"})

	ReportsFinalized = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "payroll",
		Name:      "reports_finalized_total",
		Help:      "Payroll reports submitted.",
	}, []string{"category"})

	FinalizeClearFailures = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "payroll",
		Name:      "finalize_clear_failures_total",
		Help:      "Reports submitted whose drafts could not be cleared.",
	})

	OpenSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "payroll",
		Name:      "open_sessions",
		Help:      "Payroll period sessions held in memory after the last sweep.",
	})
)
