package observability

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/aretw0/ivrflow/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus collectors for validate, compile and save.
type Metrics struct {
	registry *prometheus.Registry

	validations *prometheus.CounterVec
	findings    *prometheus.CounterVec
	compiles    *prometheus.CounterVec
	saves       *prometheus.CounterVec
	duration    *prometheus.HistogramVec
}

// NewMetrics creates collectors on a private registry, which also carries the
// standard Go and process collectors.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		validations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ivrflow_validations_total",
				Help: "Total number of graph validations by outcome",
			},
			[]string{"result"},
		),
		findings: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ivrflow_findings_total",
				Help: "Total number of validation findings by severity",
			},
			[]string{"severity"},
		),
		compiles: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ivrflow_compiles_total",
				Help: "Total number of compile attempts by outcome",
			},
			[]string{"result"},
		),
		saves: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ivrflow_saves_total",
				Help: "Total number of flow saves by outcome",
			},
			[]string{"result"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "ivrflow_operation_duration_seconds",
				Help:    "Duration of validate, compile and save operations",
				Buckets: prometheus.ExponentialBuckets(0.0001, 4, 8),
			},
			[]string{"operation"},
		),
	}
	m.registry.MustRegister(
		m.validations, m.findings, m.compiles, m.saves, m.duration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry exposes the registry, e.g. for tests or extra collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Hooks records every lifecycle event.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnValidate: func(_ context.Context, e *domain.ValidateEvent) {
			result := "ok"
			if e.Errors > 0 {
				result = "invalid"
			}
			m.validations.WithLabelValues(result).Inc()
			m.findings.WithLabelValues(string(domain.SeverityError)).Add(float64(e.Errors))
			m.findings.WithLabelValues(string(domain.SeverityWarning)).Add(float64(e.Warnings))
			m.duration.WithLabelValues(string(e.Type)).Observe(e.Duration.Seconds())
		},
		OnCompile: func(_ context.Context, e *domain.CompileEvent) {
			m.compiles.WithLabelValues(outcome(e.Err)).Inc()
			m.duration.WithLabelValues(string(e.Type)).Observe(e.Duration.Seconds())
		},
		OnSave: func(_ context.Context, e *domain.SaveEvent) {
			m.saves.WithLabelValues(outcome(e.Err)).Inc()
			m.duration.WithLabelValues(string(e.Type)).Observe(e.Duration.Seconds())
		},
	}
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, domain.ErrStaleVersion):
		return "stale"
	case errors.Is(err, domain.ErrGraphNotCompilable):
		return "invalid"
	}
	return "error"
}

// LoggingHooks logs every lifecycle event at debug level, and failures at warn.
func LoggingHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnValidate: func(ctx context.Context, e *domain.ValidateEvent) {
			logger.DebugContext(ctx, "validate",
				"flow_id", e.FlowID,
				"errors", e.Errors,
				"warnings", e.Warnings,
				"duration", e.Duration,
			)
		},
		OnCompile: func(ctx context.Context, e *domain.CompileEvent) {
			if e.Err != nil {
				logger.WarnContext(ctx, "compile failed", "flow_id", e.FlowID, "err", e.Err)
				return
			}
			logger.DebugContext(ctx, "compile", "flow_id", e.FlowID, "units", e.Units, "duration", e.Duration)
		},
		OnSave: func(ctx context.Context, e *domain.SaveEvent) {
			if e.Err != nil {
				logger.WarnContext(ctx, "save failed", "flow_id", e.FlowID, "err", e.Err)
				return
			}
			logger.InfoContext(ctx, "flow saved", "flow_id", e.FlowID, "version", e.Version)
		},
	}
}
