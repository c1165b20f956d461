// Package metrics exposes Prometheus counters for the ingestion cycle.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ObservationsAppended counts observations synced to the log.
	ObservationsAppended = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "pricesentinel",
		Subsystem: "store",
		Name:      "observations_appended_total",
		Help:      "Observations durably appended to the log",
	})

	// DuplicatesSkipped counts appends rejected for an already logged timestamp.
	DuplicatesSkipped = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "pricesentinel",
		Subsystem: "store",
		Name:      "duplicates_skipped_total",
		Help:      "Appends skipped because the timestamp was already logged",
	})

	// CorruptRecords is the skipped-record count of the latest full read.
	CorruptRecords = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "pricesentinel",
		Subsystem: "store",
		Name:      "corrupt_records",
		Help:      "Corrupt records skipped by the most recent full read",
	})

	// StoreErrors counts unavailable-store failures, labelled by op.
	StoreErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "pricesentinel",
		Subsystem: "store",
		Name:      "errors_total",
		Help:      "Store failures by operation",
	}, []string{"op"})

	// FetchTotal counts fetch attempts, labelled by source and status.
	FetchTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "pricesentinel",
		Subsystem: "collector",
		Name:      "fetch_total",
		Help:      "Price fetch attempts by source and status",
	}, []string{"source", "status"})

	// LastPrice is the most recently sampled price.
	LastPrice = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "pricesentinel",
		Subsystem: "collector",
		Name:      "last_price",
		Help:      "Most recently sampled price",
	})

	// ReportsSent counts daily reports, labelled bar or no_data.
	ReportsSent = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "pricesentinel",
		Subsystem: "scheduler",
		Name:      "daily_reports_total",
		Help:      "Daily reports produced, by outcome",
	}, []string{"outcome"})
)
