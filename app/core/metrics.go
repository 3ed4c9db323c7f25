package core

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/insightpilot/insightpilot/pkg/metrics"
)

type Metrics struct {
	apiResponseTime     *prometheus.HistogramVec
	apiErrorCounter     *prometheus.CounterVec
	providerRequestTime *prometheus.HistogramVec
	providerError       *prometheus.CounterVec
	streamDuration      *prometheus.HistogramVec
	intentCounter       *prometheus.CounterVec
	budgetEviction      *prometheus.CounterVec
	contextCache        *prometheus.CounterVec
}

func NewMetrics(ns, system string) *Metrics {
	metrics.SetupMetricsManager(ns, system, prometheus.DefaultRegisterer.(*prometheus.Registry))

	m := &Metrics{
		apiResponseTime:     metrics.NewHistogramVec("api_response_time", []string{"api"}),
		apiErrorCounter:     metrics.NewCounterVec("api_error", []string{"method", "api", "status"}),
		providerRequestTime: metrics.NewHistogramVec("provider_request_time", []string{"method"}),
		providerError:       metrics.NewCounterVec("provider_error", []string{"type"}),
		streamDuration:      metrics.NewHistogramVec("stream_duration", []string{"intent"}),
		intentCounter:       metrics.NewCounterVec("intent_classified", []string{"intent"}),
		budgetEviction:      metrics.NewCounterVec("budget_eviction", []string{"kind"}),
		contextCache:        metrics.NewCounterVec("context_cache", []string{"result"}),
	}

	return m
}

func (m *Metrics) ApiResponseTimer(api string) *prometheus.Timer {
	return prometheus.NewTimer(m.apiResponseTime.WithLabelValues(api))
}

func (m *Metrics) ApiErrorInc(method, api string, status int) {
	m.apiErrorCounter.WithLabelValues(method, api, strconv.Itoa(status)).Inc()
}

func (m *Metrics) ProviderRequestTimer(method string) *prometheus.Timer {
	return prometheus.NewTimer(m.providerRequestTime.WithLabelValues(method))
}

func (m *Metrics) ProviderErrorInc(types string) {
	m.providerError.WithLabelValues(types).Inc()
}

func (m *Metrics) StreamTimer(intent string) *prometheus.Timer {
	return prometheus.NewTimer(m.streamDuration.WithLabelValues(intent))
}

func (m *Metrics) IntentInc(intent string) {
	m.intentCounter.WithLabelValues(intent).Inc()
}

func (m *Metrics) BudgetEvictionInc(kind string) {
	m.budgetEviction.WithLabelValues(kind).Inc()
}

func (m *Metrics) ContextCacheInc(result string) {
	m.contextCache.WithLabelValues(result).Inc()
}
