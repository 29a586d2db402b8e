package worker

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	recordsScraped = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "mnsos",
		Name:      "records_scraped_total",
		Help:      "Business records persisted to a worker sink.",
	}, []string{"mode"})

	searchMisses = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "mnsos",
		Name:      "search_misses_total",
		Help:      "File-number probes that resolved to no business.",
	}, []string{"mode"})

	scrapeErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "mnsos",
		Name:      "scrape_errors_total",
		Help:      "Scrape attempts that failed after all retries.",
	}, []string{"mode"})

	patternsCompleted = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "mnsos",
		Name:      "patterns_completed_total",
		Help:      "Name-search patterns fully processed.",
	})
)
