package domain

import "context"

// Transaction exposes the domain operations that a persistence implementation
// must support within an atomic scope. Create and update enforce normalized
// uniqueness, BOM link uniqueness, and reference existence; delete of a record
// that is still referenced fails.
type Transaction interface {
	Snapshot() TransactionView
	CreateProduct(Product) (Product, error)
	UpdateProduct(id int64, mutator func(*Product) error) (Product, error)
	DeleteProduct(id int64) error
	CreateRawMaterial(RawMaterial) (RawMaterial, error)
	UpdateRawMaterial(id int64, mutator func(*RawMaterial) error) (RawMaterial, error)
	DeleteRawMaterial(id int64) error
	CreateMaterialUsage(MaterialUsage) (MaterialUsage, error)
	UpdateMaterialUsage(id int64, mutator func(*MaterialUsage) error) (MaterialUsage, error)
	DeleteMaterialUsage(id int64) error
}

// TransactionView provides read-only access to snapshot data. Lists are
// ordered by ascending id, which is creation order.
type TransactionView interface {
	RuleView
	FindMaterialUsage(id int64) (MaterialUsage, bool)
	FindProductByCode(code string) (Product, bool)
	FindProductByName(name string) (Product, bool)
	FindRawMaterialByCode(code string) (RawMaterial, bool)
	FindRawMaterialByDescription(description string) (RawMaterial, bool)
	MaterialUsagesForRawMaterial(rawMaterialID int64) []MaterialUsage
}

// PersistentStore is a minimal abstraction over durable backends. It mirrors
// the subset of store capabilities used directly by higher layers.
type PersistentStore interface {
	RunInTransaction(ctx context.Context, fn func(Transaction) error) (Result, error)
	View(ctx context.Context, fn func(TransactionView) error) error
	RulesEngine() *RulesEngine
}
