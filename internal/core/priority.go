package core

import (
	"context"
	"sort"

	"inventorycore/pkg/domain"

	"github.com/shopspring/decimal"
)

// PriorityEntry is one row of the production priority view.
type PriorityEntry struct {
	ProductID   int64           `json:"productId"`
	Name        string          `json:"name"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
	MaxQuantity int64           `json:"maxQuantity"`
}

// SuggestedValue is unitPrice × maxQuantity.
func (e PriorityEntry) SuggestedValue() decimal.Decimal {
	return e.UnitPrice.Mul(decimal.NewFromInt(e.MaxQuantity))
}

// rankPriority drops unproducible products and orders the rest by unit price,
// highest first. Equal prices keep creation order.
func rankPriority(view domain.RuleView) []PriorityEntry {
	out := make([]PriorityEntry, 0)
	for _, p := range view.ListProducts() {
		qty := maxProducible(view, p.ID)
		if qty == 0 {
			continue
		}
		out = append(out, PriorityEntry{ProductID: p.ID, Name: p.Name, UnitPrice: p.UnitPrice, MaxQuantity: qty})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].UnitPrice.GreaterThan(out[j].UnitPrice)
	})
	return out
}

// ComputePriority returns the producible products ranked for planning.
func (s *Service) ComputePriority(ctx context.Context) ([]PriorityEntry, error) {
	var out []PriorityEntry
	err := s.observe(ctx, opInfo{name: "compute_priority"}, func(ctx context.Context) (int64, Result, error) {
		return 0, Result{}, s.store.View(ctx, func(v TransactionView) error {
			out = rankPriority(v)
			return nil
		})
	})
	return out, err
}
