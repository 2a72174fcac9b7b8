package monitoring

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// HTTP metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec

	// Registry metrics
	WrappersLive       prometheus.Gauge
	WrappersCreated    prometheus.Counter
	WrappersDisposed   prometheus.Counter
	Lookups            prometheus.Counter
	ContractViolations prometheus.Counter
	CreateRacesLost    prometheus.Counter

	// Host metrics
	PortsLive prometheus.Gauge

	// Messaging metrics
	Messages       *prometheus.CounterVec
	ReferencesSent prometheus.Counter

	// Worker metrics
	WorkerExecutions *prometheus.CounterVec
	WorkerDuration   prometheus.Histogram

	// System metrics
	Uptime    prometheus.Gauge
	startTime time.Time

	// Snapshot for JSON API - track current values
	snapshot MetricsSnapshot

	gatherer prometheus.Gatherer
	stop     chan struct{}
	stopOnce sync.Once
	mu       sync.RWMutex
}

// MetricsSnapshot holds current metric values for JSON API
type MetricsSnapshot struct {
	TotalRequests      int64 `json:"total_requests"`
	TotalErrors        int64 `json:"total_errors"`
	WrappersCreated    int64 `json:"wrappers_created"`
	WrappersDisposed   int64 `json:"wrappers_disposed"`
	ContractViolations int64 `json:"contract_violations"`
	MessagesPosted     int64 `json:"messages_posted"`
	MessagesReceived   int64 `json:"messages_received"`
}

// NewMetrics creates a metrics collector on a private registry.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	return NewMetricsWith(reg, reg)
}

// NewMetricsWith registers all collectors on reg. gatherer backs the /metrics endpoint.
func NewMetricsWith(reg prometheus.Registerer, gatherer prometheus.Gatherer) *Metrics {
	factory := promauto.With(reg)

	m := &Metrics{
		startTime: time.Now(),
		gatherer:  gatherer,
		stop:      make(chan struct{}),

		// HTTP metrics
		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "portbridge_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "portbridge_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),

		// Registry metrics
		WrappersLive: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "portbridge_registry_wrappers",
				Help: "Number of port wrappers currently registered",
			},
		),
		WrappersCreated: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "portbridge_registry_wrappers_created_total",
				Help: "Total number of port wrappers constructed",
			},
		),
		WrappersDisposed: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "portbridge_registry_wrappers_disposed_total",
				Help: "Total number of registry entries removed by dispose",
			},
		),
		Lookups: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "portbridge_registry_lookups_total",
				Help: "Total number of lookups by native handle",
			},
		),
		ContractViolations: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "portbridge_registry_contract_violations_total",
				Help: "Lookups issued for handles that were never registered",
			},
		),
		CreateRacesLost: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "portbridge_registry_create_races_lost_total",
				Help: "GetOrCreate calls that lost the install race and adopted the winner",
			},
		),

		// Host metrics
		PortsLive: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "portbridge_host_ports",
				Help: "Number of open native ports",
			},
		),

		// Messaging metrics
		Messages: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "portbridge_messages_total",
				Help: "Total number of messages by direction",
			},
			[]string{"direction"},
		),
		ReferencesSent: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "portbridge_managed_references_total",
				Help: "Managed references parked in port wrappers",
			},
		),

		// Worker metrics
		WorkerExecutions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "portbridge_worker_executions_total",
				Help: "Total number of worker script executions",
			},
			[]string{"status"},
		),
		WorkerDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "portbridge_worker_duration_seconds",
				Help:    "Worker script execution duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
			},
		),

		// System metrics
		Uptime: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "portbridge_uptime_seconds",
				Help: "Process uptime in seconds",
			},
		),
	}

	go m.updateUptime()

	return m
}

// Gatherer returns the gatherer holding these metrics.
func (m *Metrics) Gatherer() prometheus.Gatherer {
	return m.gatherer
}

// Close stops the uptime updater.
func (m *Metrics) Close() {
	m.stopOnce.Do(func() { close(m.stop) })
}

// updateUptime continuously updates the uptime metric
func (m *Metrics) updateUptime() {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.Uptime.Set(time.Since(m.startTime).Seconds())
		case <-m.stop:
			return
		}
	}
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(method, path, status string, duration time.Duration) {
	m.RequestsTotal.WithLabelValues(method, path, status).Inc()
	m.RequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())

	m.mu.Lock()
	m.snapshot.TotalRequests++
	if status[0] == '4' || status[0] == '5' {
		m.snapshot.TotalErrors++
	}
	m.mu.Unlock()
}

// RecordWrapperCreated records a wrapper installed in the registry
func (m *Metrics) RecordWrapperCreated() {
	m.WrappersCreated.Inc()
	m.WrappersLive.Inc()
	m.mu.Lock()
	m.snapshot.WrappersCreated++
	m.mu.Unlock()
}

// RecordWrapperDisposed records a registry entry removed by dispose
func (m *Metrics) RecordWrapperDisposed() {
	m.WrappersDisposed.Inc()
	m.WrappersLive.Dec()
	m.mu.Lock()
	m.snapshot.WrappersDisposed++
	m.mu.Unlock()
}

// RecordLookup records a lookup by handle
func (m *Metrics) RecordLookup() {
	m.Lookups.Inc()
}

// RecordContractViolation records a lookup for an unregistered handle
func (m *Metrics) RecordContractViolation() {
	m.ContractViolations.Inc()
	m.mu.Lock()
	m.snapshot.ContractViolations++
	m.mu.Unlock()
}

// RecordCreateRaceLost records a GetOrCreate that adopted another caller's wrapper
func (m *Metrics) RecordCreateRaceLost() {
	m.CreateRacesLost.Inc()
}

// SetPortsLive sets the number of open native ports
func (m *Metrics) SetPortsLive(count int) {
	m.PortsLive.Set(float64(count))
}

// RecordMessage records a message crossing a port
func (m *Metrics) RecordMessage(direction string, refs int) {
	m.Messages.WithLabelValues(direction).Inc()
	if refs > 0 && direction == "posted" {
		m.ReferencesSent.Add(float64(refs))
	}

	m.mu.Lock()
	switch direction {
	case "posted":
		m.snapshot.MessagesPosted++
	case "received":
		m.snapshot.MessagesReceived++
	}
	m.mu.Unlock()
}

// RecordWorkerExecution records a worker script run
func (m *Metrics) RecordWorkerExecution(status string, duration time.Duration) {
	m.WorkerExecutions.WithLabelValues(status).Inc()
	m.WorkerDuration.Observe(duration.Seconds())
}

// Snapshot returns current values for the JSON API
func (m *Metrics) Snapshot() MetricsSnapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.snapshot
}
