package core

import (
	"context"
	"expvar"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

var expvarSeq uint64

// ExpvarMetricsRecorder publishes per-operation call counts, error counts,
// and cumulative latency under a single expvar map.
type ExpvarMetricsRecorder struct {
	name string
	ops  *expvar.Map
}

// NewExpvarMetricsRecorder publishes a recorder under name. An empty name
// gets a unique generated one; expvar rejects duplicate names.
func NewExpvarMetricsRecorder(name string) *ExpvarMetricsRecorder {
	if name == "" {
		name = fmt.Sprintf("inventory_service_metrics_%d", atomic.AddUint64(&expvarSeq, 1))
	}
	rec := &ExpvarMetricsRecorder{name: name, ops: expvar.NewMap(name)}
	return rec
}

// Name returns the expvar export name associated with the recorder.
func (r *ExpvarMetricsRecorder) Name() string {
	return r.name
}

// Observe records a service operation outcome.
func (r *ExpvarMetricsRecorder) Observe(_ context.Context, operation string, success bool, duration time.Duration) {
	if operation == "" {
		return
	}
	r.ops.Add(operation+".calls", 1)
	if !success {
		r.ops.Add(operation+".errors", 1)
	}
	r.ops.AddFloat(operation+".duration_ms", float64(duration)/float64(time.Millisecond))
}

// Calls returns the recorded call and error counts for an operation.
func (r *ExpvarMetricsRecorder) Calls(operation string) (calls, errors int64) {
	if v, ok := r.ops.Get(operation + ".calls").(*expvar.Int); ok {
		calls = v.Value()
	}
	if v, ok := r.ops.Get(operation + ".errors").(*expvar.Int); ok {
		errors = v.Value()
	}
	return calls, errors
}

// SpanRecord is a finished span retained by LogTracer.
type SpanRecord struct {
	Operation string
	Err       error
	StartedAt time.Time
	Duration  time.Duration
}

// LogTracer emits every span as a zerolog event and keeps the last spans in memory.
type LogTracer struct {
	logger zerolog.Logger
	keep   int

	mu    sync.Mutex
	spans []SpanRecord
}

// NewLogTracer builds a tracer writing to logger and retaining up to keep spans.
func NewLogTracer(logger zerolog.Logger, keep int) *LogTracer {
	if keep <= 0 {
		keep = 256
	}
	return &LogTracer{logger: logger, keep: keep}
}

// Start implements Tracer.
func (t *LogTracer) Start(ctx context.Context, operation string) (context.Context, TraceSpan) {
	return ctx, &logSpan{tracer: t, requestID: RequestIDFrom(ctx), record: SpanRecord{Operation: operation, StartedAt: time.Now()}}
}

// Spans returns a copy of the retained spans, oldest first.
func (t *LogTracer) Spans() []SpanRecord {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]SpanRecord, len(t.spans))
	copy(out, t.spans)
	return out
}

type logSpan struct {
	tracer    *LogTracer
	requestID string
	record    SpanRecord
	once      sync.Once
}

func (s *logSpan) End(err error) {
	s.once.Do(func() {
		s.record.Err = err
		s.record.Duration = time.Since(s.record.StartedAt)

		event := s.tracer.logger.Debug()
		if err != nil {
			event = s.tracer.logger.Info().Err(err)
		}
		if s.requestID != "" {
			event = event.Str("request_id", s.requestID)
		}
		event.Str("span", s.record.Operation).Dur("duration", s.record.Duration).Msg("span ended")

		s.tracer.mu.Lock()
		s.tracer.spans = append(s.tracer.spans, s.record)
		if over := len(s.tracer.spans) - s.tracer.keep; over > 0 {
			s.tracer.spans = append([]SpanRecord(nil), s.tracer.spans[over:]...)
		}
		s.tracer.mu.Unlock()
	})
}
