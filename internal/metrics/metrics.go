// Package metrics exposes Prometheus metrics for the extraction pipeline.
package metrics

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "doccollate"

var (
	// FieldExtractions counts per-field extraction outcomes.
	// Labels: result (ok, service_error, schema_error, empty)
	FieldExtractions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "extract",
			Name:      "fields_total",
			Help:      "Per-field extraction outcomes",
		},
		[]string{"result"},
	)

	// CompletionDuration tracks completion call latency by purpose.
	CompletionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "llm",
			Name:      "completion_duration_seconds",
			Help:      "Duration of completion service calls in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"purpose"},
	)

	// AutoFixCalls counts completion calls made while repairing proposal tables.
	// Labels: table (resources, costs)
	AutoFixCalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "proposal",
			Name:      "autofix_calls_total",
			Help:      "Completion calls made by the proposal auto-fixer",
		},
		[]string{"table"},
	)

	// ProposalValidations counts validation outcomes.
	// Labels: stage (initial, final), result (valid, invalid)
	ProposalValidations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "proposal",
			Name:      "validations_total",
			Help:      "Proposal schema validation outcomes",
		},
		[]string{"stage", "result"},
	)

	// DocumentsProcessed counts documents through the pipeline.
	// Labels: target, status (ok, failed)
	DocumentsProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "documents_total",
			Help:      "Documents processed by target and status",
		},
		[]string{"target", "status"},
	)

	DocumentDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "document_duration_seconds",
			Help:      "End-to-end processing time per document",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 10),
		},
	)

	QueueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "queue",
			Name:      "depth",
			Help:      "Documents waiting in the batch queue",
		},
	)
)

// ObserveCompletion records the latency of one completion call.
func ObserveCompletion(purpose string, start time.Time) {
	CompletionDuration.WithLabelValues(purpose).Observe(time.Since(start).Seconds())
}

// RecordDocument records the outcome of one processed document.
func RecordDocument(target string, err error, elapsed time.Duration) {
	status := "ok"
	if err != nil {
		status = "failed"
	}
	DocumentsProcessed.WithLabelValues(target, status).Inc()
	DocumentDuration.Observe(elapsed.Seconds())
}

// Serve exposes /metrics on addr until ctx is cancelled. An empty addr is a no-op.
func Serve(ctx context.Context, addr string, logger *slog.Logger) error {
	if addr == "" {
		return nil
	}
	if logger == nil {
		logger = slog.Default()
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info("metrics.serve", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
