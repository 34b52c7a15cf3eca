package core

import (
	"context"
	"math"
	"sort"

	"inventorycore/pkg/domain"
)

// Consumption reports the stock drawn from one raw material by a production run.
type Consumption struct {
	RawMaterialID int64  `json:"rawMaterialId"`
	Code          string `json:"code"`
	Quantity      int64  `json:"quantity"`
	Remaining     int64  `json:"remaining"`
}

// ProductionResult describes a committed production run.
type ProductionResult struct {
	ProductID        int64         `json:"productId"`
	ProductName      string        `json:"product"`
	QuantityProduced int64         `json:"quantityProduced"`
	Consumed         []Consumption `json:"consumed"`
}

type requirement struct {
	usage    MaterialUsage
	material RawMaterial
	required int64
	// saturated marks a requirement whose true value exceeds math.MaxInt64.
	saturated bool
}

func (r requirement) short() bool {
	return r.saturated || r.material.AvailableStock < r.required
}

// Produce builds quantity units of a product, consuming every BOM input in one
// transaction. The first input that cannot cover the run, in raw material code
// order, aborts it with an InsufficientStockError and nothing changes.
func (s *Service) Produce(ctx context.Context, productID, quantity int64) (ProductionResult, Result, error) {
	var out ProductionResult
	var res Result
	err := s.observe(ctx, opInfo{name: "produce", entity: EntityProduct, mutating: true}, func(ctx context.Context) (int64, Result, error) {
		if quantity <= 0 {
			return productID, Result{}, domain.InvalidQuantityError{Field: "Quantity", Value: quantity, Minimum: 1}
		}
		var err error
		res, err = s.store.RunInTransaction(ctx, func(tx Transaction) error {
			var err error
			out, err = produceIn(tx, productID, quantity)
			return err
		})
		return productID, res, err
	})
	return out, res, err
}

func produceIn(tx Transaction, productID, quantity int64) (ProductionResult, error) {
	view := tx.Snapshot()
	product, ok := view.FindProduct(productID)
	if !ok {
		return ProductionResult{}, domain.ErrNotFound{Entity: EntityProduct, ID: productID}
	}
	reqs, err := requirementsFor(view, product, quantity)
	if err != nil {
		return ProductionResult{}, err
	}
	for _, r := range reqs {
		if r.short() {
			missing := r.required - r.material.AvailableStock
			if r.saturated {
				missing = max(missing, 1)
			}
			return ProductionResult{}, domain.InsufficientStockError{
				ProductID:       product.ID,
				ProductName:     product.Name,
				RawMaterialID:   r.material.ID,
				RawMaterialCode: r.material.Code,
				RawMaterial:     r.material.Description,
				Available:       r.material.AvailableStock,
				Required:        r.required,
				Missing:         missing,
			}
		}
	}

	result := ProductionResult{ProductID: product.ID, ProductName: product.Name, QuantityProduced: quantity}
	for _, r := range reqs {
		updated, err := tx.UpdateRawMaterial(r.material.ID, func(m *RawMaterial) error {
			m.AvailableStock -= r.required
			return nil
		})
		if err != nil {
			return ProductionResult{}, err
		}
		result.Consumed = append(result.Consumed, Consumption{
			RawMaterialID: updated.ID,
			Code:          updated.Code,
			Quantity:      r.required,
			Remaining:     updated.AvailableStock,
		})
	}
	return result, nil
}

// requirementsFor resolves the BOM of product for quantity units, sorted by
// normalized raw material code then id. Requirements past math.MaxInt64 are
// clamped there and always count as short, since no stock can cover them.
func requirementsFor(view TransactionView, product Product, quantity int64) ([]requirement, error) {
	usages := view.MaterialUsagesForProduct(product.ID)
	if len(usages) == 0 {
		return nil, domain.InsufficientStockError{ProductID: product.ID, ProductName: product.Name, NoRecipe: true}
	}
	reqs := make([]requirement, 0, len(usages))
	for _, u := range usages {
		material, ok := view.FindRawMaterial(u.RawMaterialID)
		if !ok {
			return nil, domain.ErrNotFound{Entity: EntityRawMaterial, ID: u.RawMaterialID}
		}
		if quantity > math.MaxInt64/u.ConsumptionPerUnit {
			reqs = append(reqs, requirement{usage: u, material: material, required: math.MaxInt64, saturated: true})
			continue
		}
		reqs = append(reqs, requirement{usage: u, material: material, required: u.ConsumptionPerUnit * quantity})
	}
	sort.Slice(reqs, func(i, j int) bool {
		ki, kj := reqs[i].material.CodeKey(), reqs[j].material.CodeKey()
		if ki != kj {
			return ki < kj
		}
		return reqs[i].material.ID < reqs[j].material.ID
	})
	return reqs, nil
}
