package prometheus

import (
	"fmt"
	"time"
)

// AppMetrics holds all application metrics.
type AppMetrics struct {
	// HTTP Layer
	HTTPRequestsTotal   CounterVec
	HTTPRequestDuration HistogramVec
	HTTPRequestSize     HistogramVec
	HTTPResponseSize    HistogramVec
	HTTPActiveRequests  GaugeVec

	// Auth Layer
	AuthAttemptsTotal       CounterVec
	AuthTokenVerifyDuration HistogramVec
	AuthActiveTokens        GaugeVec

	// Network/Evaluation Layer
	NetworkEvaluationsTotal      CounterVec
	NetworkEvaluationDuration    HistogramVec
	NetworkNodeCount             GaugeVec
	NetworkWireCount              GaugeVec
	NetworkValidationErrorsTotal  CounterVec
	NetworkEvalCacheHitsTotal     CounterVec

	// GeoTree/SDF Layer
	GeoTreeHashDuration   HistogramVec
	GeoTreeNodesTotal     GaugeVec
	SDFEvaluationDuration HistogramVec
	SDFEvaluationsTotal   CounterVec

	// AtomFill/AtomEdit Layer
	AtomFillJobsTotal       CounterVec
	AtomFillJobDuration     HistogramVec
	AtomFillJobQueueDepth   GaugeVec
	AtomFillActiveWorkers   GaugeVec
	AtomFillJobRetries      CounterVec
	AtomEditOperationsTotal CounterVec

	// Structure Layer
	StructureAtomCount     GaugeVec
	StructureBondCount     GaugeVec
	StructureBuildDuration HistogramVec

	// Storage Layer (Postgres projects, MinIO fill results)
	StorageUploadsTotal     CounterVec
	StorageUploadDuration   HistogramVec
	StorageDownloadDuration HistogramVec
	StorageBytesTransferred CounterVec

	// Infrastructure Layer
	DBConnectionPoolSize   GaugeVec
	DBConnectionPoolActive GaugeVec
	DBQueryDuration        HistogramVec
	CacheHitsTotal         CounterVec
	CacheMissesTotal       CounterVec
	MessageQueueDepth      GaugeVec
	MessageProcessDuration HistogramVec

	// System Health
	ServiceUptime     GaugeVec
	HealthCheckStatus GaugeVec
	ErrorsTotal       CounterVec
}

// Default Buckets
var (
	DefaultHTTPDurationBuckets    = []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10}
	DefaultFillJobDurationBuckets = []float64{.1, .5, 1, 5, 10, 30, 60, 120, 300, 600}
	DefaultGRPCDurationBuckets    = []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5}
	DefaultSizeBuckets            = []float64{100, 1000, 10000, 100000, 1000000, 10000000}
	DefaultDBDurationBuckets      = []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 5}
)

// NewAppMetrics registers all metrics and returns AppMetrics struct.
func NewAppMetrics(collector MetricsCollector) *AppMetrics {
	m := &AppMetrics{}

	// HTTP
	m.HTTPRequestsTotal = collector.RegisterCounter("http_requests_total", "Total HTTP requests", "method", "path", "status_code")
	m.HTTPRequestDuration = collector.RegisterHistogram("http_request_duration_seconds", "HTTP request duration", DefaultHTTPDurationBuckets, "method", "path")
	m.HTTPRequestSize = collector.RegisterHistogram("http_request_size_bytes", "HTTP request size", DefaultSizeBuckets, "method", "path")
	m.HTTPResponseSize = collector.RegisterHistogram("http_response_size_bytes", "HTTP response size", DefaultSizeBuckets, "method", "path")
	m.HTTPActiveRequests = collector.RegisterGauge("http_active_requests", "Active HTTP requests", "method", "path")

	// Auth
	m.AuthAttemptsTotal = collector.RegisterCounter("auth_attempts_total", "Authentication attempts", "result", "failure_reason")
	m.AuthTokenVerifyDuration = collector.RegisterHistogram("auth_token_verify_duration_seconds", "Token verification duration", DefaultHTTPDurationBuckets, "method")
	m.AuthActiveTokens = collector.RegisterGauge("auth_active_tokens", "Active tokens (introspected)", "token_type")

	// Network/Evaluation
	m.NetworkEvaluationsTotal = collector.RegisterCounter("network_evaluations_total", "Network evaluations", "network", "status")
	m.NetworkEvaluationDuration = collector.RegisterHistogram("network_evaluation_duration_seconds", "Network evaluation duration", DefaultHTTPDurationBuckets, "network")
	m.NetworkNodeCount = collector.RegisterGauge("network_node_count", "Node count per network", "network")
	m.NetworkWireCount = collector.RegisterGauge("network_wire_count", "Wire count per network", "network")
	m.NetworkValidationErrorsTotal = collector.RegisterCounter("network_validation_errors_total", "Network validation errors", "network", "node_type")
	m.NetworkEvalCacheHitsTotal = collector.RegisterCounter("network_eval_cache_hits_total", "Per-invocation evaluation cache hits", "network")

	// GeoTree/SDF
	m.GeoTreeHashDuration = collector.RegisterHistogram("geotree_hash_duration_seconds", "BLAKE3 content-hash duration for GeoTree nodes", DefaultDBDurationBuckets, "op")
	m.GeoTreeNodesTotal = collector.RegisterGauge("geotree_nodes_total", "Distinct content-addressed GeoTree nodes alive", "network")
	m.SDFEvaluationDuration = collector.RegisterHistogram("sdf_evaluation_duration_seconds", "Implicit-surface sample evaluation duration", DefaultDBDurationBuckets, "primitive")
	m.SDFEvaluationsTotal = collector.RegisterCounter("sdf_evaluations_total", "Implicit-surface samples evaluated", "primitive")

	// AtomFill/AtomEdit
	m.AtomFillJobsTotal = collector.RegisterCounter("atom_fill_jobs_total", "AtomFill jobs total", "status")
	m.AtomFillJobDuration = collector.RegisterHistogram("atom_fill_job_duration_seconds", "AtomFill job duration", DefaultFillJobDurationBuckets, "status")
	m.AtomFillJobQueueDepth = collector.RegisterGauge("atom_fill_job_queue_depth", "AtomFill job queue depth", "queue")
	m.AtomFillActiveWorkers = collector.RegisterGauge("atom_fill_active_workers", "Active kernelworker AtomFill consumers", "worker_id")
	m.AtomFillJobRetries = collector.RegisterCounter("atom_fill_job_retries_total", "AtomFill job retries", "reason")
	m.AtomEditOperationsTotal = collector.RegisterCounter("atom_edit_operations_total", "AtomEdit diff operations applied", "op_type")

	// Structure
	m.StructureAtomCount = collector.RegisterGauge("structure_atom_count", "Atom count in last-filled AtomicStructure", "network")
	m.StructureBondCount = collector.RegisterGauge("structure_bond_count", "Bond count in last-filled AtomicStructure", "network")
	m.StructureBuildDuration = collector.RegisterHistogram("structure_build_duration_seconds", "AtomicStructure assembly duration", DefaultFillJobDurationBuckets, "stage")

	// Storage
	m.StorageUploadsTotal = collector.RegisterCounter("storage_uploads_total", "Storage uploads total", "backend", "status")
	m.StorageUploadDuration = collector.RegisterHistogram("storage_upload_duration_seconds", "Storage upload duration", DefaultDBDurationBuckets, "backend")
	m.StorageDownloadDuration = collector.RegisterHistogram("storage_download_duration_seconds", "Storage download duration", DefaultDBDurationBuckets, "backend")
	m.StorageBytesTransferred = collector.RegisterCounter("storage_bytes_transferred_total", "Storage bytes transferred", "backend", "direction")

	// Infrastructure
	m.DBConnectionPoolSize = collector.RegisterGauge("db_pool_size", "Database connection pool size", "db")
	m.DBConnectionPoolActive = collector.RegisterGauge("db_pool_active", "Database active connections", "db")
	m.DBQueryDuration = collector.RegisterHistogram("db_query_duration_seconds", "Database query duration", DefaultDBDurationBuckets, "db", "operation")
	m.CacheHitsTotal = collector.RegisterCounter("cache_hits_total", "Cache hits", "cache")
	m.CacheMissesTotal = collector.RegisterCounter("cache_misses_total", "Cache misses", "cache")
	m.MessageQueueDepth = collector.RegisterGauge("mq_depth", "Message queue depth", "queue")
	m.MessageProcessDuration = collector.RegisterHistogram("mq_process_duration_seconds", "Message processing duration", DefaultHTTPDurationBuckets, "queue", "message_type")

	// System Health
	m.ServiceUptime = collector.RegisterGauge("service_uptime_seconds", "Service uptime", "service")
	m.HealthCheckStatus = collector.RegisterGauge("health_check_status", "Health check status (1=up, 0=down)", "component")
	m.ErrorsTotal = collector.RegisterCounter("errors_total", "Total errors", "component", "error_type", "severity")

	return m
}

// RegisterAppMetrics is an alias for NewAppMetrics.
func RegisterAppMetrics(collector MetricsCollector) *AppMetrics {
	return NewAppMetrics(collector)
}

// GRPCMetrics holds metrics for the node-graph gRPC surface (unary and
// streaming evaluation/edit RPCs), registered and scraped the same way as
// AppMetrics but kept as its own handle since a process may run the gRPC
// server without the HTTP bridge.
type GRPCMetrics struct {
	UnaryRequestsTotal    CounterVec
	UnaryRequestDuration  HistogramVec
	StreamRequestsTotal   CounterVec
	StreamRequestDuration HistogramVec
}

// NewGRPCMetrics registers the gRPC interceptor metrics.
func NewGRPCMetrics(collector MetricsCollector) *GRPCMetrics {
	m := &GRPCMetrics{}
	m.UnaryRequestsTotal = collector.RegisterCounter("grpc_unary_requests_total", "Total unary gRPC requests", "service", "method", "code")
	m.UnaryRequestDuration = collector.RegisterHistogram("grpc_unary_request_duration_seconds", "Unary gRPC request duration", DefaultGRPCDurationBuckets, "service", "method")
	m.StreamRequestsTotal = collector.RegisterCounter("grpc_stream_requests_total", "Total streaming gRPC requests", "service", "method", "code")
	m.StreamRequestDuration = collector.RegisterHistogram("grpc_stream_request_duration_seconds", "Streaming gRPC request duration", DefaultGRPCDurationBuckets, "service", "method")
	return m
}

// RecordUnaryRequest records the outcome and duration of a unary gRPC call,
// called from the interceptor chain in internal/interfaces/grpc.
func (m *GRPCMetrics) RecordUnaryRequest(service, method, code string, duration time.Duration) {
	m.UnaryRequestsTotal.WithLabelValues(service, method, code).Inc()
	m.UnaryRequestDuration.WithLabelValues(service, method).Observe(duration.Seconds())
}

// RecordStreamRequest records the outcome and duration of a streaming gRPC call.
func (m *GRPCMetrics) RecordStreamRequest(service, method, code string, duration time.Duration) {
	m.StreamRequestsTotal.WithLabelValues(service, method, code).Inc()
	m.StreamRequestDuration.WithLabelValues(service, method).Observe(duration.Seconds())
}

// Helpers

func RecordHTTPRequest(metrics *AppMetrics, method, path string, statusCode int, duration time.Duration, reqSize, respSize int64) {
	status := fmt.Sprintf("%d", statusCode)
	metrics.HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	metrics.HTTPRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
	metrics.HTTPRequestSize.WithLabelValues(method, path).Observe(float64(reqSize))
	metrics.HTTPResponseSize.WithLabelValues(method, path).Observe(float64(respSize))
}

func RecordAuthAttempt(metrics *AppMetrics, success bool, failureReason string, duration time.Duration) {
	result := "success"
	if !success {
		result = "failure"
	}
	metrics.AuthAttemptsTotal.WithLabelValues(result, failureReason).Inc()
	metrics.AuthTokenVerifyDuration.WithLabelValues("verify").Observe(duration.Seconds())
}

// RecordNetworkEvaluation records a node-graph network evaluation pass.
func RecordNetworkEvaluation(metrics *AppMetrics, network string, success bool, duration time.Duration) {
	status := "success"
	if !success {
		status = "failure"
	}
	metrics.NetworkEvaluationsTotal.WithLabelValues(network, status).Inc()
	metrics.NetworkEvaluationDuration.WithLabelValues(network).Observe(duration.Seconds())
}

// RecordAtomFillJob records the terminal outcome and wall time of an
// AtomFill job processed by kernelworker.
func RecordAtomFillJob(metrics *AppMetrics, status string, duration time.Duration) {
	metrics.AtomFillJobsTotal.WithLabelValues(status).Inc()
	metrics.AtomFillJobDuration.WithLabelValues(status).Observe(duration.Seconds())
}

// RecordStorageTransfer records an upload or download against a storage backend.
func RecordStorageTransfer(metrics *AppMetrics, backend, direction string, success bool, duration time.Duration, bytes int64) {
	status := "success"
	if !success {
		status = "failure"
	}
	if direction == "download" {
		metrics.StorageDownloadDuration.WithLabelValues(backend).Observe(duration.Seconds())
	} else {
		metrics.StorageUploadsTotal.WithLabelValues(backend, status).Inc()
		metrics.StorageUploadDuration.WithLabelValues(backend).Observe(duration.Seconds())
	}
	metrics.StorageBytesTransferred.WithLabelValues(backend, direction).Add(float64(bytes))
}

func RecordDBQuery(metrics *AppMetrics, db, operation string, duration time.Duration, err error) {
	metrics.DBQueryDuration.WithLabelValues(db, operation).Observe(duration.Seconds())
	if err != nil {
		metrics.ErrorsTotal.WithLabelValues(db, "query_error", "error").Inc()
	}
}

func RecordCacheAccess(metrics *AppMetrics, cache string, hit bool) {
	if hit {
		metrics.CacheHitsTotal.WithLabelValues(cache).Inc()
	} else {
		metrics.CacheMissesTotal.WithLabelValues(cache).Inc()
	}
}

func RecordError(metrics *AppMetrics, component, errorType, severity string) {
	metrics.ErrorsTotal.WithLabelValues(component, errorType, severity).Inc()
}
