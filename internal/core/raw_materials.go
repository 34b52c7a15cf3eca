package core

import (
	"context"
	"strings"

	"inventorycore/pkg/domain"
)

// RawMaterialInput carries the fields for a new raw material. AvailableStock is required.
type RawMaterialInput struct {
	Code           string
	Description    string
	AvailableStock *int64
}

// RawMaterialPatch carries optional raw material changes; nil fields are left untouched.
type RawMaterialPatch struct {
	Code           *string
	Description    *string
	AvailableStock *int64
}

func (in RawMaterialInput) validate() error {
	switch {
	case strings.TrimSpace(in.Code) == "":
		return requiredField(EntityRawMaterial, "code", "Raw material code is required.")
	case strings.TrimSpace(in.Description) == "":
		return requiredField(EntityRawMaterial, "description", "Raw material description is required.")
	case in.AvailableStock == nil:
		return requiredField(EntityRawMaterial, "availableStock", "Available stock is required.")
	}
	return validateStock(*in.AvailableStock)
}

func (p RawMaterialPatch) validate() error {
	if p.Code != nil && strings.TrimSpace(*p.Code) == "" {
		return requiredField(EntityRawMaterial, "code", "Raw material code cannot be empty.")
	}
	if p.Description != nil && strings.TrimSpace(*p.Description) == "" {
		return requiredField(EntityRawMaterial, "description", "Raw material description cannot be empty.")
	}
	if p.AvailableStock != nil {
		return validateStock(*p.AvailableStock)
	}
	return nil
}

func validateStock(stock int64) error {
	if stock < 0 {
		return domain.InvalidQuantityError{Field: "Available stock", Value: stock}
	}
	return nil
}

// CreateRawMaterial validates and persists a new raw material.
func (s *Service) CreateRawMaterial(ctx context.Context, in RawMaterialInput) (RawMaterial, Result, error) {
	var created RawMaterial
	var res Result
	err := s.observe(ctx, opInfo{name: "create_raw_material", entity: EntityRawMaterial, mutating: true}, func(ctx context.Context) (int64, Result, error) {
		if err := in.validate(); err != nil {
			return 0, Result{}, err
		}
		var err error
		res, err = s.store.RunInTransaction(ctx, func(tx Transaction) error {
			var err error
			created, err = tx.CreateRawMaterial(RawMaterial{Code: in.Code, Description: in.Description, AvailableStock: *in.AvailableStock})
			return err
		})
		return created.ID, res, err
	})
	return created, res, err
}

// UpdateRawMaterial applies a partial update to a raw material.
func (s *Service) UpdateRawMaterial(ctx context.Context, id int64, patch RawMaterialPatch) (RawMaterial, Result, error) {
	var updated RawMaterial
	var res Result
	err := s.observe(ctx, opInfo{name: "update_raw_material", entity: EntityRawMaterial, mutating: true}, func(ctx context.Context) (int64, Result, error) {
		if err := patch.validate(); err != nil {
			return id, Result{}, err
		}
		var err error
		res, err = s.store.RunInTransaction(ctx, func(tx Transaction) error {
			var err error
			updated, err = tx.UpdateRawMaterial(id, func(m *RawMaterial) error {
				if patch.Code != nil {
					m.Code = *patch.Code
				}
				if patch.Description != nil {
					m.Description = *patch.Description
				}
				if patch.AvailableStock != nil {
					m.AvailableStock = *patch.AvailableStock
				}
				return nil
			})
			return err
		})
		return id, res, err
	})
	return updated, res, err
}

// GetRawMaterial returns a raw material by id.
func (s *Service) GetRawMaterial(ctx context.Context, id int64) (RawMaterial, error) {
	return findOne(ctx, s, "get_raw_material", EntityRawMaterial, id, func(v TransactionView) (RawMaterial, bool) { return v.FindRawMaterial(id) })
}

// FindRawMaterialByCode looks a raw material up by its normalized code.
func (s *Service) FindRawMaterialByCode(ctx context.Context, code string) (RawMaterial, bool, error) {
	return findByKey(ctx, s, "find_raw_material_by_code", func(v TransactionView) (RawMaterial, bool) { return v.FindRawMaterialByCode(code) })
}

// FindRawMaterialByDescription looks a raw material up by its normalized description.
func (s *Service) FindRawMaterialByDescription(ctx context.Context, description string) (RawMaterial, bool, error) {
	return findByKey(ctx, s, "find_raw_material_by_description", func(v TransactionView) (RawMaterial, bool) {
		return v.FindRawMaterialByDescription(description)
	})
}

// ListRawMaterials returns every raw material in creation order.
func (s *Service) ListRawMaterials(ctx context.Context) ([]RawMaterial, error) {
	return listAll(ctx, s, "list_raw_materials", TransactionView.ListRawMaterials)
}
