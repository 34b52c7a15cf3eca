// Package domain defines the inventory entities, value types, and rule
// evaluation primitives used by inventorycore.
package domain

import (
	"strings"

	"github.com/shopspring/decimal"
)

func init() {
	// unit prices travel as JSON numbers, matching existing API callers
	decimal.MarshalJSONWithoutQuotes = true
}

// EntityType identifies the type of record stored in the core domain.
type EntityType string

// Supported entity type identifiers used in Change records and persistence buckets.
const (
	// EntityProduct identifies a finished product record.
	EntityProduct EntityType = "product"
	// EntityRawMaterial identifies a raw material record.
	EntityRawMaterial EntityType = "raw_material"
	// EntityMaterialUsage identifies a BOM edge between a product and a raw material.
	EntityMaterialUsage EntityType = "material_usage"
)

// Label returns the human readable name used in API messages.
func (e EntityType) Label() string {
	switch e {
	case EntityProduct:
		return "Product"
	case EntityRawMaterial:
		return "Raw material"
	case EntityMaterialUsage:
		return "Material usage"
	default:
		return string(e)
	}
}

// Severity captures rule outcomes.
type Severity string

// Rule evaluation severities determine commit behavior and logging.
const (
	// SeverityBlock blocks transaction commit.
	SeverityBlock Severity = "block"
	// SeverityWarn logs a warning but allows commit.
	SeverityWarn Severity = "warn"
	SeverityLog  Severity = "log"
)

// Product is a finished good that can be produced from raw materials.
type Product struct {
	ID        int64           `json:"id"`
	Code      string          `json:"code"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
}

// RawMaterial is a stocked input consumed by production.
type RawMaterial struct {
	ID             int64  `json:"id"`
	Code           string `json:"code"`
	Description    string `json:"description"`
	AvailableStock int64  `json:"availableStock"`
}

// MaterialUsage is a BOM edge: producing one unit of ProductID consumes
// ConsumptionPerUnit units of RawMaterialID.
type MaterialUsage struct {
	ID                 int64 `json:"id"`
	ProductID          int64 `json:"productId"`
	RawMaterialID      int64 `json:"rawMaterialId"`
	ConsumptionPerUnit int64 `json:"consumptionPerUnit"`
}

// NormalizeKey folds a unique field for comparison: trimmed and lower-cased.
func NormalizeKey(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}

// CodeKey returns the normalized product code.
func (p Product) CodeKey() string { return NormalizeKey(p.Code) }

// NameKey returns the normalized product name.
func (p Product) NameKey() string { return NormalizeKey(p.Name) }

// CodeKey returns the normalized raw material code.
func (m RawMaterial) CodeKey() string { return NormalizeKey(m.Code) }

// DescriptionKey returns the normalized raw material description.
func (m RawMaterial) DescriptionKey() string { return NormalizeKey(m.Description) }

// Change describes a mutation applied within a transaction.
type Change struct {
	Entity EntityType
	Action Action
	Before any
	After  any
}

// Action indicates the type of modification performed.
type Action string

// Change actions enumerate supported CRUD operations captured in audit trail.
const (
	// ActionCreate indicates an entity was created.
	ActionCreate Action = "create"
	// ActionUpdate indicates an entity was updated.
	ActionUpdate Action = "update"
	// ActionDelete indicates an entity was deleted.
	ActionDelete Action = "delete"
)

// Violation reports a rule failure or warning.
type Violation struct {
	Rule     string
	Severity Severity
	Message  string
	Entity   EntityType
	EntityID int64
}

// Result aggregates violations from the rules engine.
type Result struct {
	Violations []Violation
}

// Merge appends violations from another result.
func (r *Result) Merge(other Result) {
	if len(other.Violations) == 0 {
		return
	}
	r.Violations = append(r.Violations, other.Violations...)
}

// HasBlocking returns true if the result contains blocking violations.
func (r Result) HasBlocking() bool {
	for _, v := range r.Violations {
		if v.Severity == SeverityBlock {
			return true
		}
	}
	return false
}

// Warnings returns the non-blocking violations.
func (r Result) Warnings() []Violation {
	var out []Violation
	for _, v := range r.Violations {
		if v.Severity != SeverityBlock {
			out = append(out, v)
		}
	}
	return out
}

// RuleViolationError is returned when blocking violations are present.
type RuleViolationError struct {
	Result Result
}

func (e RuleViolationError) Error() string {
	for _, v := range e.Result.Violations {
		if v.Severity == SeverityBlock && v.Message != "" {
			return "transaction blocked by rules: " + v.Message
		}
	}
	return "transaction blocked by rules"
}
