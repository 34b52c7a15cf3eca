package integration

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"inventorycore/internal/adapters/reports"
	"inventorycore/internal/blob"
	core "inventorycore/internal/core"
)

// TestIntegrationSmoke runs a catalog, production, and report cycle against
// every in-process storage backend and every local blob backend.
func TestIntegrationSmoke(t *testing.T) {
	ctx := context.Background()

	blobVariants := []struct {
		name string
		open func(t *testing.T) blob.Store
	}{
		{
			name: "memory-blob",
			open: func(t *testing.T) blob.Store {
				bs, err := blob.Open(ctx, blob.Config{Driver: blob.DriverMemory})
				if err != nil {
					t.Fatalf("open memory blob: %v", err)
				}
				return bs
			},
		},
		{
			name: "filesystem-blob",
			open: func(t *testing.T) blob.Store {
				bs, err := blob.Open(ctx, blob.Config{Driver: blob.DriverFilesystem, FSRoot: t.TempDir()})
				if err != nil {
					t.Fatalf("open filesystem blob: %v", err)
				}
				return bs
			},
		},
	}

	for _, sv := range storeVariants() {
		for _, bv := range blobVariants {
			t.Run(sv.name+"/"+bv.name, func(t *testing.T) {
				metricsRecorder := core.NewExpvarMetricsRecorder("")
				tracer := core.NewLogTracer(zerolog.Nop(), 64)
				svc := core.NewService(sv.open(t),
					core.WithMetricsRecorder(metricsRecorder),
					core.WithTracer(tracer),
				)

				chair, _, err := svc.CreateProduct(ctx, core.ProductInput{Code: "PRD-1", Name: "Chair", UnitPrice: decimalPtr("40")})
				if err != nil {
					t.Fatalf("create product: %v", err)
				}
				board, _, err := svc.CreateRawMaterial(ctx, core.RawMaterialInput{Code: "RM-1", Description: "Oak board", AvailableStock: int64Ptr(12)})
				if err != nil {
					t.Fatalf("create raw material: %v", err)
				}
				if _, _, err := svc.CreateUsage(ctx, core.UsageInput{ProductID: chair.ID, RawMaterialID: board.ID, ConsumptionPerUnit: 4}); err != nil {
					t.Fatalf("create usage: %v", err)
				}

				run, _, err := svc.Produce(ctx, chair.ID, 2)
				if err != nil {
					t.Fatalf("produce: %v", err)
				}
				if run.QuantityProduced != 2 || len(run.Consumed) != 1 || run.Consumed[0].Remaining != 4 {
					t.Fatalf("unexpected production result %+v", run)
				}
				more, err := svc.ComputeMaxProducible(ctx, chair.ID)
				if err != nil || more != 1 {
					t.Fatalf("expected 1 more chair to be producible, got %d (%v)", more, err)
				}

				exporter := reports.NewExporter(svc, bv.open(t))
				for _, format := range []reports.Format{reports.FormatCSV, reports.FormatXLSX} {
					if _, err := exporter.Export(ctx, reports.KindProductionPriority, format); err != nil {
						t.Fatalf("export %s: %v", format, err)
					}
				}
				stored, err := exporter.List(ctx)
				if err != nil || len(stored) != 2 {
					t.Fatalf("expected two stored reports, got %d (%v)", len(stored), err)
				}
				for _, info := range stored {
					if !strings.HasSuffix(info.Key, ".csv") {
						continue
					}
					_, rc, err := exporter.Open(ctx, info.Key)
					if err != nil {
						t.Fatalf("open report: %v", err)
					}
					body, _ := io.ReadAll(rc)
					_ = rc.Close()
					if !strings.Contains(string(body), "Chair,40,1,40") {
						t.Fatalf("unexpected priority report:\n%s", body)
					}
				}

				if calls, _ := metricsRecorder.Calls("produce"); calls != 1 {
					t.Fatalf("expected one produce call recorded, got %d", calls)
				}
				var traced bool
				for _, span := range tracer.Spans() {
					if span.Operation == "produce" && span.Err == nil {
						traced = true
					}
				}
				if !traced {
					t.Fatalf("expected a produce span, got %+v", tracer.Spans())
				}
			})
		}
	}
}
