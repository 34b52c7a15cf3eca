package metrics

import (
	"context"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecorderCountsOutcomes(t *testing.T) {
	r := NewRecorder()
	ctx := context.Background()
	r.Observe(ctx, "produce", true, 5*time.Millisecond)
	r.Observe(ctx, "produce", false, time.Millisecond)
	r.Observe(ctx, "produce", false, time.Millisecond)
	r.Observe(ctx, "", true, time.Millisecond)

	if got := testutil.ToFloat64(r.operations.WithLabelValues("produce", "success")); got != 1 {
		t.Fatalf("expected 1 success, got %v", got)
	}
	if got := testutil.ToFloat64(r.operations.WithLabelValues("produce", "error")); got != 2 {
		t.Fatalf("expected 2 errors, got %v", got)
	}
	if n := testutil.CollectAndCount(r.latency); n != 1 {
		t.Fatalf("expected one latency series, got %d", n)
	}
}

func TestRecorderHandlerExposesSeries(t *testing.T) {
	r := NewRecorder()
	r.Observe(context.Background(), "list_products", true, time.Millisecond)
	r.ObserveRequest("/products", "GET", 200)

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)
	text := string(body)
	for _, want := range []string{
		`inventory_service_operations_total{operation="list_products",outcome="success"} 1`,
		`inventory_http_requests_total{method="GET",route="/products",status="200"} 1`,
		"go_goroutines",
	} {
		if !strings.Contains(text, want) {
			t.Fatalf("expected %q in metrics output", want)
		}
	}
}
