package core

import (
	"context"
	"fmt"

	"inventorycore/pkg/domain"
)

// NewMissingRecipeRule notes products touched by a transaction that have no
// BOM edges. It never blocks.
func NewMissingRecipeRule() domain.Rule {
	return missingRecipeRule{}
}

type missingRecipeRule struct{}

func (missingRecipeRule) Name() string { return "bom_missing_recipe" }

func (missingRecipeRule) Evaluate(_ context.Context, view domain.RuleView, changes []domain.Change) (domain.Result, error) {
	touched := make(map[int64]struct{})
	var order []int64
	mark := func(id int64) {
		if _, ok := touched[id]; ok {
			return
		}
		touched[id] = struct{}{}
		order = append(order, id)
	}
	for _, change := range changes {
		switch change.Entity {
		case domain.EntityProduct:
			if p, ok := change.After.(domain.Product); ok {
				mark(p.ID)
			}
		case domain.EntityMaterialUsage:
			if u, ok := change.Before.(domain.MaterialUsage); ok {
				mark(u.ProductID)
			}
		}
	}

	res := domain.Result{}
	for _, id := range order {
		p, ok := view.FindProduct(id)
		if !ok || len(view.MaterialUsagesForProduct(id)) > 0 {
			continue
		}
		res.Violations = append(res.Violations, domain.Violation{
			Rule:     "bom_missing_recipe",
			Severity: domain.SeverityLog,
			Message:  fmt.Sprintf("product %s has no material usage defined", p.Code),
			Entity:   domain.EntityProduct,
			EntityID: p.ID,
		})
	}
	return res, nil
}
