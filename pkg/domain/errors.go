package domain

import "fmt"

// ErrNotFound is returned when a referenced record does not exist.
type ErrNotFound struct {
	Entity EntityType
	ID     int64
}

func (e ErrNotFound) Error() string {
	return fmt.Sprintf("%s %d not found", e.Entity, e.ID)
}

// DuplicateKeyError reports a collision on a normalized unique field.
type DuplicateKeyError struct {
	Entity EntityType
	Field  string
	Value  string
}

func (e DuplicateKeyError) Error() string {
	return fmt.Sprintf("%s %s already exists.", e.Entity.Label(), e.Field)
}

// DuplicateLinkError reports a second BOM edge for the same product and raw material.
type DuplicateLinkError struct {
	ProductID     int64
	RawMaterialID int64
}

func (e DuplicateLinkError) Error() string {
	return fmt.Sprintf("Raw material %d is already linked to product %d.", e.RawMaterialID, e.ProductID)
}

// InvalidQuantityError reports a quantity outside its allowed range.
type InvalidQuantityError struct {
	Field   string
	Value   int64
	Minimum int64
}

func (e InvalidQuantityError) Error() string {
	if e.Minimum > 0 {
		return fmt.Sprintf("%s must be greater than zero", e.Field)
	}
	return fmt.Sprintf("%s cannot be negative", e.Field)
}

// ValidationError reports a missing or malformed input field.
type ValidationError struct {
	Entity  EntityType
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("%s %s is invalid.", e.Entity.Label(), e.Field)
}

// LinkedInBomError blocks deletion of a raw material that BOM edges still reference.
type LinkedInBomError struct {
	RawMaterialID int64
	References    int
}

func (e LinkedInBomError) Error() string {
	noun := "entries"
	if e.References == 1 {
		noun = "entry"
	}
	return fmt.Sprintf("Raw material is linked to %d BOM %s. Remove the links first.", e.References, noun)
}

// InsufficientStockError is the production diagnostic for the first raw
// material that cannot cover the requested quantity. NoRecipe marks a product
// with no BOM edges; the material fields are zero in that case.
type InsufficientStockError struct {
	ProductID       int64
	ProductName     string
	RawMaterialID   int64
	RawMaterialCode string
	RawMaterial     string
	Available       int64
	Required        int64
	Missing         int64
	NoRecipe        bool
}

func (e InsufficientStockError) Error() string {
	if e.NoRecipe {
		return "This product has no BOM (no material usage defined)"
	}
	return fmt.Sprintf("insufficient stock of %s for %s: available %d, required %d, missing %d",
		e.RawMaterialCode, e.ProductName, e.Available, e.Required, e.Missing)
}
