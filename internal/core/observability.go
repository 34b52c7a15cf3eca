package core

import (
	"context"
	"time"
)

// AuditStatus is the outcome recorded for a mutating operation.
type AuditStatus string

// Audit outcomes.
const (
	AuditStatusSuccess AuditStatus = "success"
	AuditStatusError   AuditStatus = "error"
)

// AuditEntry describes one mutating service call.
type AuditEntry struct {
	Operation string        `json:"operation"`
	Status    AuditStatus   `json:"status"`
	Entity    EntityType    `json:"entity"`
	EntityID  int64         `json:"entity_id,omitempty"`
	Error     string        `json:"error,omitempty"`
	RequestID string        `json:"request_id,omitempty"`
	Duration  time.Duration `json:"duration_ns"`
	Timestamp time.Time     `json:"timestamp"`
}

// AuditRecorder receives audit entries for mutating operations.
type AuditRecorder interface {
	Record(ctx context.Context, entry AuditEntry)
}

// MetricsRecorder observes the outcome and latency of every service operation.
type MetricsRecorder interface {
	Observe(ctx context.Context, operation string, success bool, duration time.Duration)
}

// TraceSpan is ended exactly once with the operation error.
type TraceSpan interface {
	End(err error)
}

// Tracer opens a span per service operation.
type Tracer interface {
	Start(ctx context.Context, operation string) (context.Context, TraceSpan)
}

type noopAuditRecorder struct{}

func (noopAuditRecorder) Record(context.Context, AuditEntry) {}

type noopMetricsRecorder struct{}

func (noopMetricsRecorder) Observe(context.Context, string, bool, time.Duration) {}

type noopTracer struct{}

func (noopTracer) Start(ctx context.Context, _ string) (context.Context, TraceSpan) {
	return ctx, noopSpan{}
}

type noopSpan struct{}

func (noopSpan) End(error) {}

type requestIDKey struct{}

// WithRequestID attaches a caller request id that audit entries carry.
func WithRequestID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestIDFrom returns the request id stored by WithRequestID.
func RequestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}
