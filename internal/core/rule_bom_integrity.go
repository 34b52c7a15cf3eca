package core

import (
	"context"
	"fmt"

	"inventorycore/pkg/domain"
)

// NewBomIntegrityRule blocks commits that leave a BOM edge pointing at a
// missing product or raw material, or with a non-positive consumption.
func NewBomIntegrityRule() domain.Rule {
	return bomIntegrityRule{}
}

type bomIntegrityRule struct{}

func (bomIntegrityRule) Name() string { return "bom_reference_integrity" }

func (bomIntegrityRule) Evaluate(_ context.Context, view domain.RuleView, _ []domain.Change) (domain.Result, error) {
	res := domain.Result{}
	for _, u := range view.ListMaterialUsages() {
		var msg string
		switch {
		case u.ConsumptionPerUnit <= 0:
			msg = fmt.Sprintf("material usage %d has consumption %d", u.ID, u.ConsumptionPerUnit)
		default:
			if _, ok := view.FindProduct(u.ProductID); !ok {
				msg = fmt.Sprintf("material usage %d references missing product %d", u.ID, u.ProductID)
			} else if _, ok := view.FindRawMaterial(u.RawMaterialID); !ok {
				msg = fmt.Sprintf("material usage %d references missing raw material %d", u.ID, u.RawMaterialID)
			}
		}
		if msg == "" {
			continue
		}
		res.Violations = append(res.Violations, domain.Violation{
			Rule:     "bom_reference_integrity",
			Severity: domain.SeverityBlock,
			Message:  msg,
			Entity:   domain.EntityMaterialUsage,
			EntityID: u.ID,
		})
	}
	return res, nil
}
