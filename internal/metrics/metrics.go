// Package metrics bundles the Prometheus collectors for the analysis
// pipeline on a dedicated registry, so tests can build isolated instances
// without colliding with the default global registry.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

type Metrics struct {
	Registry *prometheus.Registry

	ScrapeRequests  *prometheus.CounterVec
	ScrapeErrors    *prometheus.CounterVec
	ListingsScraped prometheus.Counter

	VerdictsComputed  *prometheus.CounterVec
	VerdictCacheHits  prometheus.Counter
	VerdictCacheMiss  prometheus.Counter
	AnalysisDuration  prometheus.Histogram
	LiveTestActions   *prometheus.CounterVec
	MoneySavedDollars prometheus.Counter
}

// New constructs and registers all collectors on a fresh registry.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	scrapeRequests := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dropscout_scrape_requests_total",
			Help: "Search page requests issued, by platform.",
		},
		[]string{"platform"},
	)
	scrapeErrors := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dropscout_scrape_errors_total",
			Help: "Failed platform searches, by platform.",
		},
		[]string{"platform"},
	)
	listingsScraped := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "dropscout_listings_scraped_total",
			Help: "Listings handed to the verdict pipeline.",
		},
	)
	verdictsComputed := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dropscout_verdicts_computed_total",
			Help: "Verdicts produced, by classification.",
		},
		[]string{"classification"},
	)
	cacheHits := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "dropscout_verdict_cache_hits_total",
			Help: "Keyword analyses served from the verdict cache.",
		},
	)
	cacheMiss := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "dropscout_verdict_cache_misses_total",
			Help: "Keyword analyses that required a fresh scrape.",
		},
	)
	analysisDuration := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "dropscout_analysis_duration_seconds",
			Help:    "End to end keyword analysis latency.",
			Buckets: prometheus.DefBuckets,
		},
	)
	liveTestActions := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dropscout_live_test_actions_total",
			Help: "Live test recommendations applied, by action.",
		},
		[]string{"action"},
	)
	moneySaved := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "dropscout_money_saved_dollars_total",
			Help: "Test budget dollars not spent on skipped products.",
		},
	)

	registry.MustRegister(
		scrapeRequests, scrapeErrors, listingsScraped,
		verdictsComputed, cacheHits, cacheMiss,
		analysisDuration, liveTestActions, moneySaved,
	)

	return &Metrics{
		Registry:          registry,
		ScrapeRequests:    scrapeRequests,
		ScrapeErrors:      scrapeErrors,
		ListingsScraped:   listingsScraped,
		VerdictsComputed:  verdictsComputed,
		VerdictCacheHits:  cacheHits,
		VerdictCacheMiss:  cacheMiss,
		AnalysisDuration:  analysisDuration,
		LiveTestActions:   liveTestActions,
		MoneySavedDollars: moneySaved,
	}
}
