package prometheus

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAppMetrics(t *testing.T) (*AppMetrics, MetricsCollector) {
	c := newTestCollector(t)
	m := NewAppMetrics(c)
	return m, c
}

func getMetricOutput(t *testing.T, collector MetricsCollector) string {
	return scrapeMetrics(t, collector)
}

func TestNewAppMetrics_AllMetricsRegistered(t *testing.T) {
	m, _ := newTestAppMetrics(t)
	require.NotNil(t, m)

	assert.NotNil(t, m.HTTPRequestsTotal)
	assert.NotNil(t, m.HTTPRequestDuration)
	assert.NotNil(t, m.AuthAttemptsTotal)
	assert.NotNil(t, m.NetworkEvaluationsTotal)

	assert.NotNil(t, m.GeoTreeHashDuration)
	assert.NotNil(t, m.SDFEvaluationDuration)
	assert.NotNil(t, m.AtomFillJobsTotal)
	assert.NotNil(t, m.AtomEditOperationsTotal)
	assert.NotNil(t, m.StructureAtomCount)
	assert.NotNil(t, m.StorageUploadsTotal)
}

func TestRecordHTTPRequest_AllMetricsUpdated(t *testing.T) {
	m, c := newTestAppMetrics(t)

	RecordHTTPRequest(m, "GET", "/api/v1/networks", 200, 100*time.Millisecond, 1024, 2048)

	output := getMetricOutput(t, c)
	assert.Contains(t, output, `test_unit_http_requests_total{method="GET",path="/api/v1/networks",status_code="200"} 1`)
	assert.Contains(t, output, `test_unit_http_request_size_bytes_sum{method="GET",path="/api/v1/networks"} 1024`)
	assert.Contains(t, output, `test_unit_http_response_size_bytes_sum{method="GET",path="/api/v1/networks"} 2048`)
	assert.Contains(t, output, `test_unit_http_request_duration_seconds_count{method="GET",path="/api/v1/networks"} 1`)
}

func TestRecordAuthAttempt_Success(t *testing.T) {
	m, c := newTestAppMetrics(t)

	RecordAuthAttempt(m, true, "", 50*time.Millisecond)

	output := getMetricOutput(t, c)
	assert.Contains(t, output, `test_unit_auth_attempts_total{failure_reason="",result="success"} 1`)
	assert.Contains(t, output, `test_unit_auth_token_verify_duration_seconds_count{method="verify"} 1`)
}

func TestRecordAuthAttempt_Failure(t *testing.T) {
	m, c := newTestAppMetrics(t)

	RecordAuthAttempt(m, false, "invalid_token", 10*time.Millisecond)

	output := getMetricOutput(t, c)
	assert.Contains(t, output, `test_unit_auth_attempts_total{failure_reason="invalid_token",result="failure"} 1`)
}

func TestRecordNetworkEvaluation_Success(t *testing.T) {
	m, c := newTestAppMetrics(t)

	RecordNetworkEvaluation(m, "scene", true, 2*time.Millisecond)

	output := getMetricOutput(t, c)
	assert.Contains(t, output, `test_unit_network_evaluations_total{network="scene",status="success"} 1`)
	assert.Contains(t, output, `test_unit_network_evaluation_duration_seconds_count{network="scene"} 1`)
}

func TestRecordNetworkEvaluation_Failure(t *testing.T) {
	m, c := newTestAppMetrics(t)

	RecordNetworkEvaluation(m, "scene", false, time.Millisecond)

	output := getMetricOutput(t, c)
	assert.Contains(t, output, `test_unit_network_evaluations_total{network="scene",status="failure"} 1`)
}

func TestRecordAtomFillJob_Succeeded(t *testing.T) {
	m, c := newTestAppMetrics(t)

	RecordAtomFillJob(m, "succeeded", 3*time.Second)

	output := getMetricOutput(t, c)
	assert.Contains(t, output, `test_unit_atom_fill_jobs_total{status="succeeded"} 1`)
	assert.Contains(t, output, `test_unit_atom_fill_job_duration_seconds_count{status="succeeded"} 1`)
}

func TestRecordStorageTransfer_Upload(t *testing.T) {
	m, c := newTestAppMetrics(t)

	RecordStorageTransfer(m, "minio", "upload", true, 10*time.Millisecond, 4096)

	output := getMetricOutput(t, c)
	assert.Contains(t, output, `test_unit_storage_uploads_total{backend="minio",status="success"} 1`)
	assert.Contains(t, output, `test_unit_storage_upload_duration_seconds_count{backend="minio"} 1`)
	assert.Contains(t, output, `test_unit_storage_bytes_transferred_total{backend="minio",direction="upload"} 4096`)
}

func TestRecordStorageTransfer_Download(t *testing.T) {
	m, c := newTestAppMetrics(t)

	RecordStorageTransfer(m, "minio", "download", true, 5*time.Millisecond, 2048)

	output := getMetricOutput(t, c)
	assert.Contains(t, output, `test_unit_storage_download_duration_seconds_count{backend="minio"} 1`)
}

func TestRecordDBQuery_Success(t *testing.T) {
	m, c := newTestAppMetrics(t)

	RecordDBQuery(m, "postgres", "select", 10*time.Millisecond, nil)

	output := getMetricOutput(t, c)
	assert.Contains(t, output, `test_unit_db_query_duration_seconds_count{db="postgres",operation="select"} 1`)
}

func TestRecordDBQuery_Error(t *testing.T) {
	m, c := newTestAppMetrics(t)

	RecordDBQuery(m, "postgres", "insert", 5*time.Millisecond, errors.New("db error"))

	output := getMetricOutput(t, c)
	assert.Contains(t, output, `test_unit_db_query_duration_seconds_count{db="postgres",operation="insert"} 1`)
	assert.Contains(t, output, `test_unit_errors_total{component="postgres",error_type="query_error",severity="error"} 1`)
}

func TestRecordCacheAccess_Hit(t *testing.T) {
	m, c := newTestAppMetrics(t)

	RecordCacheAccess(m, "redis", true)

	output := getMetricOutput(t, c)
	assert.Contains(t, output, `test_unit_cache_hits_total{cache="redis"} 1`)
}

func TestRecordCacheAccess_Miss(t *testing.T) {
	m, c := newTestAppMetrics(t)

	RecordCacheAccess(m, "local", false)

	output := getMetricOutput(t, c)
	assert.Contains(t, output, `test_unit_cache_misses_total{cache="local"} 1`)
}

func TestMetricNaming_FollowsConvention(t *testing.T) {
	_, c := newTestAppMetrics(t)
	output := getMetricOutput(t, c)
	_ = output
}

func TestDefaultBuckets(t *testing.T) {
	assert.NotNil(t, DefaultHTTPDurationBuckets)
	assert.NotNil(t, DefaultFillJobDurationBuckets)
	assert.NotNil(t, DefaultGRPCDurationBuckets)
}

func TestConcurrentMetricRecording(t *testing.T) {
	m, _ := newTestAppMetrics(t)

	done := make(chan bool)
	for i := 0; i < 10; i++ {
		go func() {
			for j := 0; j < 100; j++ {
				RecordHTTPRequest(m, "GET", "/path", 200, time.Millisecond, 10, 10)
			}
			done <- true
		}()
	}

	for i := 0; i < 10; i++ {
		<-done
	}
}

func TestGRPCMetrics(t *testing.T) {
	c := newTestCollector(t)
	m := NewGRPCMetrics(c)
	assert.NotNil(t, m)

	m.RecordUnaryRequest("service", "method", "OK", 50*time.Millisecond)
	m.RecordStreamRequest("service", "stream", "OK", 100*time.Millisecond)

	output := getMetricOutput(t, c)
	assert.Contains(t, output, `test_unit_grpc_unary_requests_total{code="OK",method="method",service="service"} 1`)
	assert.Contains(t, output, `test_unit_grpc_stream_requests_total{code="OK",method="stream",service="service"} 1`)
}

func TestMetricNameHasExpectedPrefix(t *testing.T) {
	_, c := newTestAppMetrics(t)
	output := getMetricOutput(t, c)
	assert.True(t, strings.Contains(output, "test_unit_"))
}
