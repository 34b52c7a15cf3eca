package core

import (
	"context"
	"time"

	"inventorycore/internal/infra/persistence/memory"

	"github.com/rs/zerolog"
)

// Service exposes the transactional inventory operations: catalog CRUD,
// feasibility and priority views, production, and integrity-guarded deletes.
type Service struct {
	store   PersistentStore
	logger  zerolog.Logger
	audit   AuditRecorder
	metrics MetricsRecorder
	tracer  Tracer
	now     func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the structured logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// WithAuditRecorder sets the audit sink for mutating operations.
func WithAuditRecorder(recorder AuditRecorder) Option {
	return func(s *Service) {
		if recorder != nil {
			s.audit = recorder
		}
	}
}

// WithMetricsRecorder sets the metrics sink.
func WithMetricsRecorder(recorder MetricsRecorder) Option {
	return func(s *Service) {
		if recorder != nil {
			s.metrics = recorder
		}
	}
}

// WithTracer sets the tracer.
func WithTracer(tracer Tracer) Option {
	return func(s *Service) {
		if tracer != nil {
			s.tracer = tracer
		}
	}
}

// WithClock overrides the time source used for audit timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// NewService constructs a service backed by the supplied store.
func NewService(store PersistentStore, opts ...Option) *Service {
	s := &Service{
		store:   store,
		logger:  zerolog.Nop(),
		audit:   noopAuditRecorder{},
		metrics: noopMetricsRecorder{},
		tracer:  noopTracer{},
		now:     func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewInMemoryService creates a service and in-memory store with the given rules engine.
func NewInMemoryService(engine *RulesEngine, opts ...Option) *Service {
	return NewService(memory.NewStore(engine), opts...)
}

// Store returns the underlying storage implementation.
func (s *Service) Store() PersistentStore {
	return s.store
}

type opInfo struct {
	name     string
	entity   EntityType
	mutating bool
}

// observe runs fn inside a span and reports metrics, audit, and logs for it.
// fn returns the id of the entity it touched, zero when none.
func (s *Service) observe(ctx context.Context, op opInfo, fn func(ctx context.Context) (int64, Result, error)) error {
	started := time.Now()
	ctx, span := s.tracer.Start(ctx, op.name)
	id, res, err := fn(ctx)
	elapsed := time.Since(started)
	span.End(err)
	s.metrics.Observe(ctx, op.name, err == nil, elapsed)

	if op.mutating {
		entry := AuditEntry{
			Operation: op.name,
			Status:    AuditStatusSuccess,
			Entity:    op.entity,
			EntityID:  id,
			RequestID: RequestIDFrom(ctx),
			Duration:  elapsed,
			Timestamp: s.now(),
		}
		if err != nil {
			entry.Status = AuditStatusError
			entry.Error = err.Error()
		}
		s.audit.Record(ctx, entry)
	}

	for _, v := range res.Warnings() {
		event := s.logger.Debug()
		if v.Severity == SeverityWarn {
			event = s.logger.Warn()
		}
		event.Str("op", op.name).Str("rule", v.Rule).Int64("entity_id", v.EntityID).Msg(v.Message)
	}
	event := s.logger.Debug()
	if err != nil {
		event = event.Err(err)
	}
	event.Str("op", op.name).Int64("entity_id", id).Dur("duration", elapsed).Msg("service operation")
	return err
}
