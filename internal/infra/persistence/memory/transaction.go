package memory

import (
	"fmt"

	"inventorycore/pkg/domain"
)

// transaction is a mutation set applied to a private copy of the store state.
type transaction struct {
	state   memoryState
	changes []Change
}

func (tx *transaction) recordChange(change Change) {
	tx.changes = append(tx.changes, change)
}

// Snapshot returns a read-only view over the in-flight state.
func (tx *transaction) Snapshot() TransactionView {
	return newTransactionView(&tx.state)
}

func (tx *transaction) checkProductKeys(p Product) error {
	if owner, ok := tx.state.productCodes[p.CodeKey()]; ok && owner != p.ID {
		return domain.DuplicateKeyError{Entity: domain.EntityProduct, Field: "code", Value: p.Code}
	}
	if owner, ok := tx.state.productNames[p.NameKey()]; ok && owner != p.ID {
		return domain.DuplicateKeyError{Entity: domain.EntityProduct, Field: "name", Value: p.Name}
	}
	return nil
}

func (tx *transaction) checkRawMaterialKeys(m RawMaterial) error {
	if owner, ok := tx.state.materialCodes[m.CodeKey()]; ok && owner != m.ID {
		return domain.DuplicateKeyError{Entity: domain.EntityRawMaterial, Field: "code", Value: m.Code}
	}
	if owner, ok := tx.state.materialDescriptions[m.DescriptionKey()]; ok && owner != m.ID {
		return domain.DuplicateKeyError{Entity: domain.EntityRawMaterial, Field: "description", Value: m.Description}
	}
	return nil
}

func (tx *transaction) checkUsage(u MaterialUsage) error {
	if u.ConsumptionPerUnit <= 0 {
		return domain.InvalidQuantityError{Field: "Consumption per unit", Value: u.ConsumptionPerUnit, Minimum: 1}
	}
	if _, ok := tx.state.products[u.ProductID]; !ok {
		return domain.ErrNotFound{Entity: domain.EntityProduct, ID: u.ProductID}
	}
	if _, ok := tx.state.materials[u.RawMaterialID]; !ok {
		return domain.ErrNotFound{Entity: domain.EntityRawMaterial, ID: u.RawMaterialID}
	}
	pair := usagePair{productID: u.ProductID, rawMaterialID: u.RawMaterialID}
	if owner, ok := tx.state.usagePairs[pair]; ok && owner != u.ID {
		return domain.DuplicateLinkError{ProductID: u.ProductID, RawMaterialID: u.RawMaterialID}
	}
	return nil
}

// CreateProduct stores a new product under the next product id.
func (tx *transaction) CreateProduct(p Product) (Product, error) {
	trimProduct(&p)
	p.ID = 0
	if err := tx.checkProductKeys(p); err != nil {
		return Product{}, err
	}
	tx.state.seq.Product++
	p.ID = tx.state.seq.Product
	tx.state.products[p.ID] = p
	tx.state.indexProduct(p)
	tx.recordChange(Change{Entity: domain.EntityProduct, Action: domain.ActionCreate, After: p})
	return p, nil
}

// UpdateProduct mutates a product, re-checking uniqueness against every other product.
func (tx *transaction) UpdateProduct(id int64, mutator func(*Product) error) (Product, error) {
	current, ok := tx.state.products[id]
	if !ok {
		return Product{}, domain.ErrNotFound{Entity: domain.EntityProduct, ID: id}
	}
	before := current
	if err := mutator(&current); err != nil {
		return Product{}, err
	}
	current.ID = id
	trimProduct(&current)
	if err := tx.checkProductKeys(current); err != nil {
		return Product{}, err
	}
	tx.state.unindexProduct(before)
	tx.state.products[id] = current
	tx.state.indexProduct(current)
	tx.recordChange(Change{Entity: domain.EntityProduct, Action: domain.ActionUpdate, Before: before, After: current})
	return current, nil
}

// DeleteProduct removes a product that no BOM edge references.
func (tx *transaction) DeleteProduct(id int64) error {
	current, ok := tx.state.products[id]
	if !ok {
		return domain.ErrNotFound{Entity: domain.EntityProduct, ID: id}
	}
	if refs := tx.Snapshot().MaterialUsagesForProduct(id); len(refs) > 0 {
		return fmt.Errorf("product %d still referenced by material usage %d", id, refs[0].ID)
	}
	tx.state.unindexProduct(current)
	delete(tx.state.products, id)
	tx.recordChange(Change{Entity: domain.EntityProduct, Action: domain.ActionDelete, Before: current})
	return nil
}

// CreateRawMaterial stores a new raw material under the next raw material id.
func (tx *transaction) CreateRawMaterial(m RawMaterial) (RawMaterial, error) {
	trimRawMaterial(&m)
	m.ID = 0
	if err := tx.checkRawMaterialKeys(m); err != nil {
		return RawMaterial{}, err
	}
	tx.state.seq.RawMaterial++
	m.ID = tx.state.seq.RawMaterial
	tx.state.materials[m.ID] = m
	tx.state.indexRawMaterial(m)
	tx.recordChange(Change{Entity: domain.EntityRawMaterial, Action: domain.ActionCreate, After: m})
	return m, nil
}

// UpdateRawMaterial mutates a raw material, re-checking uniqueness against every other raw material.
func (tx *transaction) UpdateRawMaterial(id int64, mutator func(*RawMaterial) error) (RawMaterial, error) {
	current, ok := tx.state.materials[id]
	if !ok {
		return RawMaterial{}, domain.ErrNotFound{Entity: domain.EntityRawMaterial, ID: id}
	}
	before := current
	if err := mutator(&current); err != nil {
		return RawMaterial{}, err
	}
	current.ID = id
	trimRawMaterial(&current)
	if err := tx.checkRawMaterialKeys(current); err != nil {
		return RawMaterial{}, err
	}
	tx.state.unindexRawMaterial(before)
	tx.state.materials[id] = current
	tx.state.indexRawMaterial(current)
	tx.recordChange(Change{Entity: domain.EntityRawMaterial, Action: domain.ActionUpdate, Before: before, After: current})
	return current, nil
}

// DeleteRawMaterial removes a raw material; any referencing BOM edge blocks the delete.
func (tx *transaction) DeleteRawMaterial(id int64) error {
	current, ok := tx.state.materials[id]
	if !ok {
		return domain.ErrNotFound{Entity: domain.EntityRawMaterial, ID: id}
	}
	if refs := len(tx.Snapshot().MaterialUsagesForRawMaterial(id)); refs > 0 {
		return domain.LinkedInBomError{RawMaterialID: id, References: refs}
	}
	tx.state.unindexRawMaterial(current)
	delete(tx.state.materials, id)
	tx.recordChange(Change{Entity: domain.EntityRawMaterial, Action: domain.ActionDelete, Before: current})
	return nil
}

// CreateMaterialUsage links a product to a raw material.
func (tx *transaction) CreateMaterialUsage(u MaterialUsage) (MaterialUsage, error) {
	u.ID = 0
	if err := tx.checkUsage(u); err != nil {
		return MaterialUsage{}, err
	}
	tx.state.seq.MaterialUsage++
	u.ID = tx.state.seq.MaterialUsage
	tx.state.usages[u.ID] = u
	tx.state.usagePairs[usagePair{productID: u.ProductID, rawMaterialID: u.RawMaterialID}] = u.ID
	tx.recordChange(Change{Entity: domain.EntityMaterialUsage, Action: domain.ActionCreate, After: u})
	return u, nil
}

// UpdateMaterialUsage mutates a BOM edge and re-validates its references and pair uniqueness.
func (tx *transaction) UpdateMaterialUsage(id int64, mutator func(*MaterialUsage) error) (MaterialUsage, error) {
	current, ok := tx.state.usages[id]
	if !ok {
		return MaterialUsage{}, domain.ErrNotFound{Entity: domain.EntityMaterialUsage, ID: id}
	}
	before := current
	if err := mutator(&current); err != nil {
		return MaterialUsage{}, err
	}
	current.ID = id
	if err := tx.checkUsage(current); err != nil {
		return MaterialUsage{}, err
	}
	delete(tx.state.usagePairs, usagePair{productID: before.ProductID, rawMaterialID: before.RawMaterialID})
	tx.state.usages[id] = current
	tx.state.usagePairs[usagePair{productID: current.ProductID, rawMaterialID: current.RawMaterialID}] = id
	tx.recordChange(Change{Entity: domain.EntityMaterialUsage, Action: domain.ActionUpdate, Before: before, After: current})
	return current, nil
}

// DeleteMaterialUsage removes a single BOM edge. Neither endpoint is touched.
func (tx *transaction) DeleteMaterialUsage(id int64) error {
	current, ok := tx.state.usages[id]
	if !ok {
		return domain.ErrNotFound{Entity: domain.EntityMaterialUsage, ID: id}
	}
	delete(tx.state.usagePairs, usagePair{productID: current.ProductID, rawMaterialID: current.RawMaterialID})
	delete(tx.state.usages, id)
	tx.recordChange(Change{Entity: domain.EntityMaterialUsage, Action: domain.ActionDelete, Before: current})
	return nil
}
