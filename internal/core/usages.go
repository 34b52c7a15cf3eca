package core

import (
	"context"

	"inventorycore/pkg/domain"
)

// UsageInput links a product to a raw material with a per-unit consumption.
type UsageInput struct {
	ProductID          int64
	RawMaterialID      int64
	ConsumptionPerUnit int64
}

func validateConsumption(v int64) error {
	if v <= 0 {
		return domain.InvalidQuantityError{Field: "Consumption per unit", Value: v, Minimum: 1}
	}
	return nil
}

// CreateUsage adds a BOM edge. Both endpoints must exist and the pair must be new.
func (s *Service) CreateUsage(ctx context.Context, in UsageInput) (MaterialUsage, Result, error) {
	var created MaterialUsage
	var res Result
	err := s.observe(ctx, opInfo{name: "create_usage", entity: EntityMaterialUsage, mutating: true}, func(ctx context.Context) (int64, Result, error) {
		if err := validateConsumption(in.ConsumptionPerUnit); err != nil {
			return 0, Result{}, err
		}
		var err error
		res, err = s.store.RunInTransaction(ctx, func(tx Transaction) error {
			var err error
			created, err = tx.CreateMaterialUsage(MaterialUsage{
				ProductID:          in.ProductID,
				RawMaterialID:      in.RawMaterialID,
				ConsumptionPerUnit: in.ConsumptionPerUnit,
			})
			return err
		})
		return created.ID, res, err
	})
	return created, res, err
}

// UpdateUsage changes the consumption per unit of an existing edge. Endpoints never change.
func (s *Service) UpdateUsage(ctx context.Context, id int64, consumptionPerUnit int64) (MaterialUsage, Result, error) {
	var updated MaterialUsage
	var res Result
	err := s.observe(ctx, opInfo{name: "update_usage", entity: EntityMaterialUsage, mutating: true}, func(ctx context.Context) (int64, Result, error) {
		if err := validateConsumption(consumptionPerUnit); err != nil {
			return id, Result{}, err
		}
		var err error
		res, err = s.store.RunInTransaction(ctx, func(tx Transaction) error {
			var err error
			updated, err = tx.UpdateMaterialUsage(id, func(u *MaterialUsage) error {
				u.ConsumptionPerUnit = consumptionPerUnit
				return nil
			})
			return err
		})
		return id, res, err
	})
	return updated, res, err
}

// GetUsage returns a BOM edge by id.
func (s *Service) GetUsage(ctx context.Context, id int64) (MaterialUsage, error) {
	return findOne(ctx, s, "get_usage", EntityMaterialUsage, id, func(v TransactionView) (MaterialUsage, bool) { return v.FindMaterialUsage(id) })
}

// ListUsages returns every BOM edge in creation order.
func (s *Service) ListUsages(ctx context.Context) ([]MaterialUsage, error) {
	return listAll(ctx, s, "list_usages", TransactionView.ListMaterialUsages)
}

// ListUsagesForProduct returns the BOM of one product; unknown products are NotFound.
func (s *Service) ListUsagesForProduct(ctx context.Context, productID int64) ([]MaterialUsage, error) {
	var out []MaterialUsage
	err := s.observe(ctx, opInfo{name: "list_product_usages", entity: EntityProduct}, func(ctx context.Context) (int64, Result, error) {
		return productID, Result{}, s.store.View(ctx, func(v TransactionView) error {
			if _, ok := v.FindProduct(productID); !ok {
				return domain.ErrNotFound{Entity: EntityProduct, ID: productID}
			}
			out = v.MaterialUsagesForProduct(productID)
			return nil
		})
	})
	return out, err
}

// UsageDetail is a BOM edge with both endpoints resolved from the same snapshot.
type UsageDetail struct {
	MaterialUsage
	Product     Product     `json:"product"`
	RawMaterial RawMaterial `json:"rawMaterial"`
}

// ListUsageDetails returns every BOM edge with its endpoints resolved.
func (s *Service) ListUsageDetails(ctx context.Context) ([]UsageDetail, error) {
	var out []UsageDetail
	err := s.observe(ctx, opInfo{name: "list_usage_details"}, func(ctx context.Context) (int64, Result, error) {
		return 0, Result{}, s.store.View(ctx, func(v TransactionView) error {
			usages := v.ListMaterialUsages()
			out = make([]UsageDetail, 0, len(usages))
			for _, u := range usages {
				out = append(out, resolveUsage(v, u))
			}
			return nil
		})
	})
	return out, err
}

// GetUsageDetail returns one BOM edge with its endpoints resolved.
func (s *Service) GetUsageDetail(ctx context.Context, id int64) (UsageDetail, error) {
	var out UsageDetail
	err := s.observe(ctx, opInfo{name: "get_usage_detail", entity: EntityMaterialUsage}, func(ctx context.Context) (int64, Result, error) {
		return id, Result{}, s.store.View(ctx, func(v TransactionView) error {
			u, ok := v.FindMaterialUsage(id)
			if !ok {
				return domain.ErrNotFound{Entity: EntityMaterialUsage, ID: id}
			}
			out = resolveUsage(v, u)
			return nil
		})
	})
	return out, err
}

// ListUsageDetailsForProduct is ListUsagesForProduct with endpoints resolved.
func (s *Service) ListUsageDetailsForProduct(ctx context.Context, productID int64) ([]UsageDetail, error) {
	var out []UsageDetail
	err := s.observe(ctx, opInfo{name: "list_product_usage_details", entity: EntityProduct}, func(ctx context.Context) (int64, Result, error) {
		return productID, Result{}, s.store.View(ctx, func(v TransactionView) error {
			if _, ok := v.FindProduct(productID); !ok {
				return domain.ErrNotFound{Entity: EntityProduct, ID: productID}
			}
			usages := v.MaterialUsagesForProduct(productID)
			out = make([]UsageDetail, 0, len(usages))
			for _, u := range usages {
				out = append(out, resolveUsage(v, u))
			}
			return nil
		})
	})
	return out, err
}

func resolveUsage(v TransactionView, u MaterialUsage) UsageDetail {
	p, _ := v.FindProduct(u.ProductID)
	m, _ := v.FindRawMaterial(u.RawMaterialID)
	return UsageDetail{MaterialUsage: u, Product: p, RawMaterial: m}
}
