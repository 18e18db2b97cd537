package prometheus

import (
	"strconv"
	"time"

	"github.com/tupiana/lexipipe/internal/intelligence/llmclassifier"
)

// AppMetrics holds every pipeline metric.
type AppMetrics struct {
	// HTTP layer
	HTTPRequestsTotal   CounterVec
	HTTPRequestDuration HistogramVec
	HTTPActiveRequests  GaugeVec

	// Classification cascade
	ClassificationsTotal    CounterVec
	CascadeLevelHitsTotal   CounterVec
	ClassificationCacheHits CounterVec
	ClassificationCacheMiss CounterVec

	// LLM usage audit
	LLMCallsTotal     CounterVec
	LLMCallDuration   HistogramVec
	LLMWordsSubmitted CounterVec
	LLMWordsReturned  CounterVec
	LLMYieldPerCall   HistogramVec

	// Batch jobs
	JobsTotal          CounterVec
	JobChunksTotal     CounterVec
	JobWordsClassified CounterVec
	JobChunkDuration   HistogramVec
	JobsActive         GaugeVec

	// Synonym propagation
	PropagationWritesTotal CounterVec
	PropagationVisited     HistogramVec

	// Infrastructure
	DBPoolSize      GaugeVec
	DBQueryDuration HistogramVec
	ErrorsTotal     CounterVec
}

var (
	httpDurationBuckets  = []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10}
	llmDurationBuckets   = []float64{.5, 1, 2, 5, 10, 30, 60, 120}
	chunkDurationBuckets = []float64{1, 5, 10, 30, 60, 120, 300}
	yieldBuckets         = []float64{0, .25, .5, .75, .9, .95, 1}
	visitedBuckets       = []float64{1, 5, 10, 25, 50, 100, 250}
	dbDurationBuckets    = []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1}
)

// NewAppMetrics registers every metric on collector.
func NewAppMetrics(collector MetricsCollector) *AppMetrics {
	m := &AppMetrics{}

	m.HTTPRequestsTotal = collector.RegisterCounter("http_requests_total", "Total HTTP requests", "method", "path", "status_code")
	m.HTTPRequestDuration = collector.RegisterHistogram("http_request_duration_seconds", "HTTP request duration", httpDurationBuckets, "method", "path")
	m.HTTPActiveRequests = collector.RegisterGauge("http_active_requests", "In-flight HTTP requests", "method")

	m.ClassificationsTotal = collector.RegisterCounter("classifications_total", "Classification outcomes", "source", "status")
	m.CascadeLevelHitsTotal = collector.RegisterCounter("cascade_level_hits_total", "Resolutions per cascade level", "level")
	m.ClassificationCacheHits = collector.RegisterCounter("classification_cache_hits_total", "Classification cache hits", "key_type")
	m.ClassificationCacheMiss = collector.RegisterCounter("classification_cache_misses_total", "Classification cache misses", "key_type")

	m.LLMCallsTotal = collector.RegisterCounter("llm_calls_total", "Model calls", "operation", "status")
	m.LLMCallDuration = collector.RegisterHistogram("llm_call_duration_seconds", "Model call duration", llmDurationBuckets, "operation")
	m.LLMWordsSubmitted = collector.RegisterCounter("llm_words_submitted_total", "Words sent to the model", "operation")
	m.LLMWordsReturned = collector.RegisterCounter("llm_words_returned_total", "Usable answers received from the model", "operation")
	m.LLMYieldPerCall = collector.RegisterHistogram("llm_yield_per_call", "Usable answers per call as a fraction of the batch", yieldBuckets, "operation")

	m.JobsTotal = collector.RegisterCounter("seeding_jobs_total", "Seeding jobs by terminal status", "status")
	m.JobChunksTotal = collector.RegisterCounter("seeding_chunks_total", "Processed seeding chunks", "status")
	m.JobWordsClassified = collector.RegisterCounter("seeding_words_classified_total", "Words classified by seeding jobs")
	m.JobChunkDuration = collector.RegisterHistogram("seeding_chunk_duration_seconds", "Chunk processing duration", chunkDurationBuckets)
	m.JobsActive = collector.RegisterGauge("seeding_jobs_active", "Jobs currently processing")

	m.PropagationWritesTotal = collector.RegisterCounter("propagation_writes_total", "Classifications written by synonym propagation", "outcome")
	m.PropagationVisited = collector.RegisterHistogram("propagation_visited_words", "Words visited per propagation run", visitedBuckets)

	m.DBPoolSize = collector.RegisterGauge("db_pool_connections", "Database pool connections", "state")
	m.DBQueryDuration = collector.RegisterHistogram("db_query_duration_seconds", "Database query duration", dbDurationBuckets, "operation")
	m.ErrorsTotal = collector.RegisterCounter("errors_total", "Errors by code", "code")

	return m
}

// ObserveHTTPRequest records one finished request.
func (m *AppMetrics) ObserveHTTPRequest(method, path string, status int, elapsed time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, path).Observe(elapsed.Seconds())
}

// LLMCallObserver adapts the yield audit to the classifier's stats hook.
// Wire it as llmclassifier.Config.OnCall.
func (m *AppMetrics) LLMCallObserver(operation string) func(stats llmclassifier.CallStats) {
	return func(stats llmclassifier.CallStats) {
		status := "ok"
		if stats.Returned == 0 {
			status = "empty"
		}
		m.LLMCallsTotal.WithLabelValues(operation, status).Inc()
		m.LLMCallDuration.WithLabelValues(operation).Observe(stats.Elapsed.Seconds())
		m.LLMWordsSubmitted.WithLabelValues(operation).Add(float64(stats.Submitted))
		m.LLMWordsReturned.WithLabelValues(operation).Add(float64(stats.Returned))
		if stats.Submitted > 0 {
			yield := float64(stats.Returned) / float64(stats.Submitted)
			m.LLMYieldPerCall.WithLabelValues(operation).Observe(yield)
		}
	}
}
