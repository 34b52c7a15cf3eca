package core

import (
	"context"
)

// DeleteProduct removes a product together with every BOM edge that
// references it, in one transaction.
func (s *Service) DeleteProduct(ctx context.Context, id int64) (Result, error) {
	var res Result
	err := s.observe(ctx, opInfo{name: "delete_product", entity: EntityProduct, mutating: true}, func(ctx context.Context) (int64, Result, error) {
		var err error
		res, err = s.store.RunInTransaction(ctx, func(tx Transaction) error {
			for _, u := range tx.Snapshot().MaterialUsagesForProduct(id) {
				if err := tx.DeleteMaterialUsage(u.ID); err != nil {
					return err
				}
			}
			return tx.DeleteProduct(id)
		})
		return id, res, err
	})
	return res, err
}

// DeleteRawMaterial removes a raw material. It fails with LinkedInBomError
// while any BOM edge references it.
func (s *Service) DeleteRawMaterial(ctx context.Context, id int64) (Result, error) {
	var res Result
	err := s.observe(ctx, opInfo{name: "delete_raw_material", entity: EntityRawMaterial, mutating: true}, func(ctx context.Context) (int64, Result, error) {
		var err error
		res, err = s.store.RunInTransaction(ctx, func(tx Transaction) error {
			return tx.DeleteRawMaterial(id)
		})
		return id, res, err
	})
	return res, err
}

// DeleteUsage removes one BOM edge; its product and raw material are untouched.
func (s *Service) DeleteUsage(ctx context.Context, id int64) (Result, error) {
	var res Result
	err := s.observe(ctx, opInfo{name: "delete_usage", entity: EntityMaterialUsage, mutating: true}, func(ctx context.Context) (int64, Result, error) {
		var err error
		res, err = s.store.RunInTransaction(ctx, func(tx Transaction) error {
			return tx.DeleteMaterialUsage(id)
		})
		return id, res, err
	})
	return res, err
}
