package core

import (
	"context"
	"math"

	"inventorycore/pkg/domain"
)

// Feasibility is one row of the production check view.
type Feasibility struct {
	ProductID     int64  `json:"productId"`
	ProductName   string `json:"productName"`
	MaxCanProduce int64  `json:"maxCanProduce"`
}

// maxProducible is the scarcest-input bound: min over BOM edges of
// floor(stock / consumption). A product without edges yields 0.
func maxProducible(view domain.RuleView, productID int64) int64 {
	usages := view.MaterialUsagesForProduct(productID)
	if len(usages) == 0 {
		return 0
	}
	limit := int64(math.MaxInt64)
	for _, u := range usages {
		material, ok := view.FindRawMaterial(u.RawMaterialID)
		if !ok || material.AvailableStock <= 0 || u.ConsumptionPerUnit <= 0 {
			return 0
		}
		limit = min(limit, material.AvailableStock/u.ConsumptionPerUnit)
	}
	return limit
}

func feasibilityOf(view domain.RuleView) []Feasibility {
	products := view.ListProducts()
	out := make([]Feasibility, 0, len(products))
	for _, p := range products {
		out = append(out, Feasibility{ProductID: p.ID, ProductName: p.Name, MaxCanProduce: maxProducible(view, p.ID)})
	}
	return out
}

// ComputeMaxProducible returns how many units of a product current stock can build.
func (s *Service) ComputeMaxProducible(ctx context.Context, productID int64) (int64, error) {
	var result int64
	err := s.observe(ctx, opInfo{name: "compute_max_producible", entity: EntityProduct}, func(ctx context.Context) (int64, Result, error) {
		return productID, Result{}, s.store.View(ctx, func(v TransactionView) error {
			if _, ok := v.FindProduct(productID); !ok {
				return domain.ErrNotFound{Entity: EntityProduct, ID: productID}
			}
			result = maxProducible(v, productID)
			return nil
		})
	})
	return result, err
}

// ComputeAllFeasibility returns the production check for every product from
// one consistent snapshot, in creation order, including unproducible ones.
func (s *Service) ComputeAllFeasibility(ctx context.Context) ([]Feasibility, error) {
	var out []Feasibility
	err := s.observe(ctx, opInfo{name: "compute_all_feasibility"}, func(ctx context.Context) (int64, Result, error) {
		return 0, Result{}, s.store.View(ctx, func(v TransactionView) error {
			out = feasibilityOf(v)
			return nil
		})
	})
	return out, err
}
