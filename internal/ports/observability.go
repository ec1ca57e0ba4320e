package ports

import "context"

// MetricsCollector records quantitative observability signals. The
// interface is intentionally generic so adapters can back onto Prometheus,
// StatsD, or vendor-specific SDKs. Standard metric names include:
//   - Counters:
//     confd_transactions_total{status="committed|aborted"}
//     confd_actions_total{phase="init|exit", status="success|failure"}
//     confd_translator_rejections_total{translator="..."}
//   - Gauges:
//     confd_pending_callbacks
//     confd_current_generation
//   - Histograms:
//     confd_transaction_duration_seconds
//     confd_action_duration_seconds{phase="init|exit"}
type MetricsCollector interface {
	IncCounter(ctx context.Context, name string, labels map[string]string)
	SetGauge(ctx context.Context, name string, value float64, labels map[string]string)
	ObserveHistogram(ctx context.Context, name string, value float64, labels map[string]string)
}

// Tracer manages distributed tracing spans. Span names follow the
// convention `<component>.<operation>` (e.g. `dagger.evolve`,
// `runner.run`, `transaction.dispatch`).
type Tracer interface {
	StartSpan(ctx context.Context, name string, attributes ...interface{}) (context.Context, Span)
	Inject(ctx context.Context, carrier interface{}) error
	Extract(ctx context.Context, carrier interface{}) (context.Context, error)
}

// Span represents an active tracing span.
type Span interface {
	SetAttribute(key string, value interface{})
	SetStatus(status SpanStatus, message string)
	End()
}

// SpanStatus provides strongly typed span result semantics.
type SpanStatus string

const (
	SpanStatusOK    SpanStatus = "ok"
	SpanStatusError SpanStatus = "error"
)
