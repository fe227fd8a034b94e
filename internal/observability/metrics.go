package observability

import (
	"context"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/yungbote/classroom-backend/internal/platform/envutil"
	"github.com/yungbote/classroom-backend/internal/platform/logger"
)

// Metrics holds the process-wide series. A nil *Metrics is valid and records nothing.
type Metrics struct {
	apiRequests *CounterVec
	apiLatency  *HistogramVec
	apiInflight *Gauge

	externalCalls   *CounterVec
	externalLatency *HistogramVec

	vectorOps     *CounterVec
	vectorLatency *HistogramVec

	ingestionRuns     *CounterVec
	ingestionDuration *HistogramVec

	teardownFailures *CounterVec
	presetLockWaits  *Counter

	providerBootstraps *CounterVec
}

var (
	initOnce sync.Once
	instance *Metrics
)

func Enabled() bool {
	v, ok := envutil.Bool("METRICS_ENABLED")
	return ok && v
}

func Current() *Metrics {
	return instance
}

// Init builds the singleton when METRICS_ENABLED is truthy and returns it, or nil.
func Init(log *logger.Logger) *Metrics {
	if !Enabled() {
		return nil
	}
	initOnce.Do(func() {
		instance = New()
		if log != nil {
			log.Info("metrics enabled")
		}
	})
	return instance
}

// New returns an unregistered Metrics value; Init is the normal entrypoint.
func New() *Metrics {
	latency := []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30}
	return &Metrics{
		apiRequests: NewCounterVec("classroom_api_requests_total", "Total API requests by method/route/status.", []string{"method", "route", "status"}),
		apiLatency:  NewHistogramVec("classroom_api_request_duration_seconds", "API request latency in seconds by method/route/status.", []string{"method", "route", "status"}, latency),
		apiInflight: NewGauge("classroom_api_inflight_requests", "In-flight API requests."),

		externalCalls:   NewCounterVec("classroom_external_calls_total", "Outbound calls by service/operation/status.", []string{"service", "operation", "status"}),
		externalLatency: NewHistogramVec("classroom_external_call_duration_seconds", "Outbound call latency by service/operation.", []string{"service", "operation"}, latency),

		vectorOps:     NewCounterVec("classroom_vector_store_operations_total", "Vector store operations by provider/operation/status.", []string{"provider", "operation", "status"}),
		vectorLatency: NewHistogramVec("classroom_vector_store_operation_duration_seconds", "Vector store latency by provider/operation.", []string{"provider", "operation"}, latency),

		ingestionRuns:     NewCounterVec("classroom_ingestion_runs_total", "Document ingestion runs by final status.", []string{"status"}),
		ingestionDuration: NewHistogramVec("classroom_ingestion_duration_seconds", "Document ingestion duration by final status.", []string{"status"}, []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120, 300}),

		teardownFailures: NewCounterVec("classroom_teardown_failures_total", "Suppressed best-effort teardown failures by target.", []string{"target"}),
		presetLockWaits:  NewCounter("classroom_preset_lock_contention_total", "Preset upserts rejected because another writer held the course lock."),

		providerBootstraps: NewCounterVec("classroom_provider_bootstrap_total", "Startup provider selection by kind/provider/status/error_code.", []string{"kind", "provider", "status", "error_code"}),
	}
}

func (m *Metrics) StartServer(ctx context.Context, log *logger.Logger, addr string) {
	if m == nil {
		return
	}
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           http.HandlerFunc(m.WriteHTTP),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		_ = srv.Shutdown(shutdownCtx)
		cancel()
	}()
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			if log != nil {
				log.Error("metrics server failed", "error", err, "addr", addr)
			}
		}
	}()
}

func (m *Metrics) WriteHTTP(w http.ResponseWriter, r *http.Request) {
	if m == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "text/plain; version=0.0.4")
	_ = m.WritePrometheus(w)
}

type promWriter interface {
	WritePrometheus(w io.Writer) error
}

func (m *Metrics) WritePrometheus(w io.Writer) error {
	if m == nil {
		return nil
	}
	for _, s := range []promWriter{
		m.apiRequests, m.apiLatency, m.apiInflight,
		m.externalCalls, m.externalLatency,
		m.vectorOps, m.vectorLatency,
		m.ingestionRuns, m.ingestionDuration,
		m.teardownFailures, m.presetLockWaits,
		m.providerBootstraps,
	} {
		if err := s.WritePrometheus(w); err != nil {
			return err
		}
	}
	return nil
}

func (m *Metrics) ObserveAPI(method, route, status string, dur time.Duration) {
	if m == nil {
		return
	}
	if method == "" {
		method = "UNKNOWN"
	}
	if route == "" {
		route = "unknown"
	}
	if status == "" {
		status = "0"
	}
	m.apiRequests.Inc(method, route, status)
	m.apiLatency.Observe(dur.Seconds(), method, route, status)
}

func (m *Metrics) ApiInflightInc() {
	if m == nil {
		return
	}
	m.apiInflight.Inc()
}

func (m *Metrics) ApiInflightDec() {
	if m == nil {
		return
	}
	m.apiInflight.Dec()
}

// ObserveExternalCall records one outbound HTTP call. status is the HTTP code or "error".
func (m *Metrics) ObserveExternalCall(service, operation, status string, dur time.Duration) {
	if m == nil {
		return
	}
	m.externalCalls.Inc(orUnknown(service), orUnknown(operation), orUnknown(status))
	m.externalLatency.Observe(dur.Seconds(), orUnknown(service), orUnknown(operation))
}

func (m *Metrics) ObserveVectorStoreOperation(provider, operation, status string, dur time.Duration) {
	if m == nil {
		return
	}
	m.vectorOps.Inc(orUnknown(provider), orUnknown(operation), orUnknown(status))
	m.vectorLatency.Observe(dur.Seconds(), orUnknown(provider), orUnknown(operation))
}

func (m *Metrics) ObserveIngestion(status string, dur time.Duration) {
	if m == nil {
		return
	}
	m.ingestionRuns.Inc(orUnknown(status))
	m.ingestionDuration.Observe(dur.Seconds(), orUnknown(status))
}

func (m *Metrics) IncTeardownFailure(target string) {
	if m == nil {
		return
	}
	m.teardownFailures.Inc(orUnknown(target))
}

func (m *Metrics) IncPresetLockContention() {
	if m == nil {
		return
	}
	m.presetLockWaits.Inc()
}

// ObserveProviderBootstrap records the outcome of selecting a backend at startup.
// kind is "object_storage" or "vector_store"; code is "none" on success.
func (m *Metrics) ObserveProviderBootstrap(kind, provider, status, code string) {
	if m == nil {
		return
	}
	m.providerBootstraps.Inc(orUnknown(kind), orUnknown(provider), orUnknown(status), orUnknown(code))
}

func orUnknown(v string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return "unknown"
	}
	return v
}
