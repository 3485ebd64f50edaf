package metrics

import (
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Event outcomes.
const (
	OutcomeApplied   = "applied"
	OutcomeDuplicate = "duplicate"
	OutcomeSkipped   = "skipped"
	OutcomeUnknown   = "unknown"
	OutcomeFailed    = "failed"
)

var (
	// Indexing metrics
	lastIndexedBlock = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "fundify_last_indexed_block",
			Help: "The last block number committed to the read model",
		},
	)

	chainHead = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "fundify_chain_head_block",
			Help: "The head block number the poll loop indexes up to",
		},
	)

	blocksProcessed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "fundify_blocks_processed_total",
			Help: "Total number of blocks processed",
		},
	)

	logsFetched = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "fundify_logs_fetched_total",
			Help: "Total number of contract logs fetched from the chain",
		},
	)

	eventsProjected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fundify_events_total",
			Help: "Total number of contract events by name and outcome",
		},
		[]string{"event", "outcome"},
	)

	batchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "fundify_batch_duration_seconds",
			Help:    "Time taken to project and checkpoint one chunk of blocks",
			Buckets: prometheus.DefBuckets,
		},
	)

	indexingRate = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "fundify_indexing_rate_blocks_per_second",
			Help: "Current indexing rate in blocks per second",
		},
	)

	// API metrics
	apiRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fundify_api_requests_total",
			Help: "Total number of read API requests",
		},
		[]string{"method", "route", "status"},
	)

	apiRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "fundify_api_request_duration_seconds",
			Help:    "Duration of read API requests",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route"},
	)

	// System metrics
	uptime = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "fundify_uptime_seconds",
			Help: "Application uptime in seconds",
		},
	)

	errorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fundify_errors_total",
			Help: "Total number of errors by component and severity",
		},
		[]string{"component", "severity"},
	)

	componentHealth = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "fundify_component_health",
			Help: "Component health status (1=healthy, 0=unhealthy)",
		},
		[]string{"component"},
	)

	goroutines = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "fundify_goroutines",
			Help: "Number of active goroutines",
		},
	)

	memoryUsage = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "fundify_memory_usage_bytes",
			Help: "Memory usage statistics",
		},
		[]string{"type"},
	)

	startTime = time.Now()
)

func LastIndexedBlockSet(blockNum uint64) {
	lastIndexedBlock.Set(float64(blockNum))
}

func ChainHeadSet(blockNum uint64) {
	chainHead.Set(float64(blockNum))
}

func BlocksProcessedInc(count uint64) {
	blocksProcessed.Add(float64(count))
}

func LogsFetchedInc(count int) {
	logsFetched.Add(float64(count))
}

func EventInc(event, outcome string) {
	eventsProjected.WithLabelValues(event, outcome).Inc()
}

func BatchDurationLog(duration time.Duration) {
	batchDuration.Observe(duration.Seconds())
}

func IndexingRateLog(rate float64) {
	indexingRate.Set(rate)
}

func APIRequestInc(method, route, status string) {
	apiRequests.WithLabelValues(method, route, status).Inc()
}

func APIRequestDurationLog(route string, duration time.Duration) {
	apiRequestDuration.WithLabelValues(route).Observe(duration.Seconds())
}

func ErrorInc(component, severity string) {
	errorsTotal.WithLabelValues(component, severity).Inc()
}

func ComponentHealthSet(component string, healthy bool) {
	boolAsFloat := float64(1)
	if !healthy {
		boolAsFloat = 0
	}

	componentHealth.WithLabelValues(component).Set(boolAsFloat)
}

// UpdateSystemMetrics updates runtime system metrics.
func UpdateSystemMetrics() {
	uptime.Set(time.Since(startTime).Seconds())
	goroutines.Set(float64(runtime.NumGoroutine()))

	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	memoryUsage.WithLabelValues("alloc").Set(float64(m.Alloc))
	memoryUsage.WithLabelValues("total_alloc").Set(float64(m.TotalAlloc))
	memoryUsage.WithLabelValues("sys").Set(float64(m.Sys))
	memoryUsage.WithLabelValues("heap_inuse").Set(float64(m.HeapInuse))
}
