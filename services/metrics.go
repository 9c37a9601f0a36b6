package services

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	caseNumberAllocations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "law_case",
		Name:      "case_number_allocations_total",
		Help:      "Case number allocations by outcome (ok, conflict, error).",
	}, []string{"outcome"})

	caseNumberAllocationRetries = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "law_case",
		Name:      "case_number_allocation_retries_total",
		Help:      "Allocation attempts rolled back because of a write conflict.",
	})

	timelineBuildSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "law_case",
		Name:      "timeline_build_seconds",
		Help:      "Latency of case timeline builds, including the four source fetches.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"outcome"})
)
