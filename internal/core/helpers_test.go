package core

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
)

func newTestService(t *testing.T, opts ...Option) *Service {
	t.Helper()
	return NewInMemoryService(NewDefaultRulesEngine(), opts...)
}

func price(v string) *decimal.Decimal {
	d := decimal.RequireFromString(v)
	return &d
}

func stock(v int64) *int64 { return &v }

func mustProduct(t *testing.T, svc *Service, code, name, unitPrice string) Product {
	t.Helper()
	p, _, err := svc.CreateProduct(context.Background(), ProductInput{Code: code, Name: name, UnitPrice: price(unitPrice)})
	if err != nil {
		t.Fatalf("create product %s: %v", code, err)
	}
	return p
}

func mustMaterial(t *testing.T, svc *Service, code, description string, available int64) RawMaterial {
	t.Helper()
	m, _, err := svc.CreateRawMaterial(context.Background(), RawMaterialInput{Code: code, Description: description, AvailableStock: stock(available)})
	if err != nil {
		t.Fatalf("create raw material %s: %v", code, err)
	}
	return m
}

func mustUsage(t *testing.T, svc *Service, productID, rawMaterialID, consumption int64) MaterialUsage {
	t.Helper()
	u, _, err := svc.CreateUsage(context.Background(), UsageInput{ProductID: productID, RawMaterialID: rawMaterialID, ConsumptionPerUnit: consumption})
	if err != nil {
		t.Fatalf("create usage %d/%d: %v", productID, rawMaterialID, err)
	}
	return u
}
