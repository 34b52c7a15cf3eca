package core

import (
	"context"
	"fmt"

	"inventorycore/pkg/domain"
)

// NewStockNonNegativeRule blocks any commit that leaves a raw material with negative stock.
func NewStockNonNegativeRule() domain.Rule {
	return stockNonNegativeRule{}
}

type stockNonNegativeRule struct{}

func (stockNonNegativeRule) Name() string { return "stock_non_negative" }

func (stockNonNegativeRule) Evaluate(_ context.Context, view domain.RuleView, changes []domain.Change) (domain.Result, error) {
	res := domain.Result{}
	for _, change := range changes {
		if change.Entity != domain.EntityRawMaterial || change.Action == domain.ActionDelete {
			continue
		}
		after, ok := change.After.(domain.RawMaterial)
		if !ok {
			continue
		}
		current, ok := view.FindRawMaterial(after.ID)
		if !ok || current.AvailableStock >= 0 {
			continue
		}
		res.Violations = append(res.Violations, domain.Violation{
			Rule:     "stock_non_negative",
			Severity: domain.SeverityBlock,
			Message:  fmt.Sprintf("raw material %s stock would become %d", current.Code, current.AvailableStock),
			Entity:   domain.EntityRawMaterial,
			EntityID: current.ID,
		})
	}
	return dedupe(res), nil
}

// dedupe drops repeated violations for the same rule and entity; a raw
// material touched twice in one transaction reports once.
func dedupe(res domain.Result) domain.Result {
	if len(res.Violations) < 2 {
		return res
	}
	type key struct {
		rule   string
		entity domain.EntityType
		id     int64
	}
	seen := make(map[key]struct{}, len(res.Violations))
	out := domain.Result{}
	for _, v := range res.Violations {
		k := key{v.Rule, v.Entity, v.EntityID}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out.Violations = append(out.Violations, v)
	}
	return out
}
