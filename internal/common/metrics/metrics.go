// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ResearchRequests = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "research_requests_total",
			Help: "Total number of research requests processed",
		},
	)

	ResearchDegraded = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "research_degraded_total",
			Help: "Total number of research responses marked degraded",
		},
	)

	StageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "research_stage_duration_seconds",
			Help: "Duration of pipeline stage processing in seconds",
		},
		[]string{"stage"},
	)

	StageFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "research_stage_failures_total",
			Help: "Total number of recovered stage failures",
		},
		[]string{"stage", "error_code"},
	)

	ProviderFallbacks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "research_provider_fallbacks_total",
			Help: "Total number of provider fallthroughs in ordered resolver chains",
		},
		[]string{"kind", "provider"},
	)

	PagesScraped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "research_pages_scraped_total",
			Help: "Total number of scrape attempts by extraction method",
		},
		[]string{"method"},
	)
)
