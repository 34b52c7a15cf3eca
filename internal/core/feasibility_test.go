package core

import (
	"context"
	"errors"
	"math"
	"testing"

	"inventorycore/pkg/domain"
)

func TestComputeMaxProducibleScarcestInput(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	p := mustProduct(t, svc, "P1", "Chair", "10")
	rm1 := mustMaterial(t, svc, "RM1", "Oak", 10)
	rm2 := mustMaterial(t, svc, "RM2", "Screw", 7)
	mustUsage(t, svc, p.ID, rm1.ID, 2)
	mustUsage(t, svc, p.ID, rm2.ID, 3)

	got, err := svc.ComputeMaxProducible(ctx, p.ID)
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	if got != 2 {
		t.Fatalf("expected min(10/2, 7/3)=2, got %d", got)
	}
}

func TestComputeMaxProducibleEdgeCases(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	noRecipe := mustProduct(t, svc, "P1", "Chair", "10")
	empty := mustProduct(t, svc, "P2", "Table", "10")
	rm := mustMaterial(t, svc, "RM1", "Oak", 0)
	mustUsage(t, svc, empty.ID, rm.ID, 1)

	for _, id := range []int64{noRecipe.ID, empty.ID} {
		got, err := svc.ComputeMaxProducible(ctx, id)
		if err != nil || got != 0 {
			t.Fatalf("product %d: expected 0, got %d %v", id, got, err)
		}
	}

	_, err := svc.ComputeMaxProducible(ctx, 404)
	var nf domain.ErrNotFound
	if !errors.As(err, &nf) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestComputeMaxProducibleLargeStock(t *testing.T) {
	svc := newTestService(t)
	p := mustProduct(t, svc, "P1", "Chair", "10")
	rm := mustMaterial(t, svc, "RM1", "Oak", math.MaxInt64)
	mustUsage(t, svc, p.ID, rm.ID, 1)
	got, err := svc.ComputeMaxProducible(context.Background(), p.ID)
	if err != nil || got != math.MaxInt64 {
		t.Fatalf("expected max int64, got %d %v", got, err)
	}
}

func TestComputeAllFeasibilityIncludesEveryProduct(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	p1 := mustProduct(t, svc, "P1", "Chair", "10")
	p2 := mustProduct(t, svc, "P2", "Table", "20")
	rm := mustMaterial(t, svc, "RM1", "Oak", 10)
	mustUsage(t, svc, p1.ID, rm.ID, 2)

	rows, err := svc.ComputeAllFeasibility(ctx)
	if err != nil {
		t.Fatalf("feasibility: %v", err)
	}
	want := []Feasibility{
		{ProductID: p1.ID, ProductName: "Chair", MaxCanProduce: 5},
		{ProductID: p2.ID, ProductName: "Table", MaxCanProduce: 0},
	}
	if len(rows) != len(want) {
		t.Fatalf("expected %d rows, got %+v", len(want), rows)
	}
	for i := range want {
		if rows[i] != want[i] {
			t.Fatalf("row %d: expected %+v, got %+v", i, want[i], rows[i])
		}
	}
}

func TestComputeAllFeasibilityEmptyCatalog(t *testing.T) {
	svc := newTestService(t)
	rows, err := svc.ComputeAllFeasibility(context.Background())
	if err != nil {
		t.Fatalf("feasibility: %v", err)
	}
	if rows == nil || len(rows) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v", rows)
	}
}
