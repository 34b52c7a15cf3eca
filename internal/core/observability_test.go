package core

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

type captureAudit struct {
	mu      sync.Mutex
	entries []AuditEntry
}

func (c *captureAudit) Record(_ context.Context, entry AuditEntry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = append(c.entries, entry)
}

type captureMetrics struct {
	mu  sync.Mutex
	ops map[string][2]int
}

func (c *captureMetrics) Observe(_ context.Context, op string, success bool, _ time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.ops == nil {
		c.ops = make(map[string][2]int)
	}
	counts := c.ops[op]
	counts[0]++
	if !success {
		counts[1]++
	}
	c.ops[op] = counts
}

func TestServiceAuditsMutations(t *testing.T) {
	audit := &captureAudit{}
	metrics := &captureMetrics{}
	fixed := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	svc := newTestService(t, WithAuditRecorder(audit), WithMetricsRecorder(metrics), WithClock(func() time.Time { return fixed }))
	ctx := WithRequestID(context.Background(), "req-1")

	p := mustProduct(t, svc, "P1", "Chair", "10")
	if _, _, err := svc.CreateProduct(ctx, ProductInput{Code: "p1", Name: "Other", UnitPrice: price("1")}); err == nil {
		t.Fatalf("expected duplicate")
	}
	if _, err := svc.ListProducts(ctx); err != nil {
		t.Fatalf("list: %v", err)
	}

	if len(audit.entries) != 2 {
		t.Fatalf("expected audit for mutations only, got %+v", audit.entries)
	}
	ok, failed := audit.entries[0], audit.entries[1]
	if ok.Status != AuditStatusSuccess || ok.EntityID != p.ID || ok.Operation != "create_product" || !ok.Timestamp.Equal(fixed) {
		t.Fatalf("unexpected success entry %+v", ok)
	}
	if failed.Status != AuditStatusError || failed.Error == "" || failed.RequestID != "req-1" {
		t.Fatalf("unexpected error entry %+v", failed)
	}
	if got := metrics.ops["create_product"]; got != [2]int{2, 1} {
		t.Fatalf("expected 2 calls 1 error, got %v", got)
	}
	if got := metrics.ops["list_products"]; got[0] != 1 {
		t.Fatalf("expected list observed, got %v", got)
	}
}

func TestServiceLogsRuleNotes(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf).Level(zerolog.DebugLevel)
	svc := newTestService(t, WithLogger(logger))
	mustProduct(t, svc, "P1", "Chair", "10")

	var sawRule, sawOp bool
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		var event map[string]any
		if err := json.Unmarshal([]byte(line), &event); err != nil {
			t.Fatalf("decode log line %q: %v", line, err)
		}
		if event["rule"] == "bom_missing_recipe" && event["level"] == "debug" {
			sawRule = true
		}
		if event["op"] == "create_product" && event["message"] == "service operation" {
			sawOp = true
		}
	}
	if !sawRule || !sawOp {
		t.Fatalf("expected rule and operation logs, got %s", buf.String())
	}
}

func TestExpvarMetricsRecorder(t *testing.T) {
	rec := NewExpvarMetricsRecorder("")
	if !strings.HasPrefix(rec.Name(), "inventory_service_metrics_") {
		t.Fatalf("unexpected generated name %q", rec.Name())
	}
	svc := newTestService(t, WithMetricsRecorder(rec))
	mustProduct(t, svc, "P1", "Chair", "10")
	_, _ = svc.GetProduct(context.Background(), 99)

	calls, errs := rec.Calls("get_product")
	if calls != 1 || errs != 1 {
		t.Fatalf("expected 1 call 1 error, got %d %d", calls, errs)
	}
	calls, errs = rec.Calls("create_product")
	if calls != 1 || errs != 0 {
		t.Fatalf("expected 1 clean call, got %d %d", calls, errs)
	}
	rec.Observe(context.Background(), "", true, time.Millisecond)
}

func TestLogTracerRetainsSpans(t *testing.T) {
	tracer := NewLogTracer(zerolog.Nop(), 2)
	svc := newTestService(t, WithTracer(tracer))
	mustProduct(t, svc, "P1", "Chair", "10")
	_, _ = svc.GetProduct(context.Background(), 5)
	_, _ = svc.ListProducts(context.Background())

	spans := tracer.Spans()
	if len(spans) != 2 {
		t.Fatalf("expected 2 retained spans, got %d", len(spans))
	}
	if spans[0].Operation != "get_product" || spans[0].Err == nil {
		t.Fatalf("unexpected first span %+v", spans[0])
	}
	if spans[1].Operation != "list_products" || spans[1].Err != nil {
		t.Fatalf("unexpected second span %+v", spans[1])
	}

	_, span := tracer.Start(context.Background(), "manual")
	span.End(errors.New("boom"))
	span.End(nil)
	if last := tracer.Spans()[1]; last.Operation != "manual" || last.Err == nil {
		t.Fatalf("expected span ended once with error, got %+v", last)
	}
}
