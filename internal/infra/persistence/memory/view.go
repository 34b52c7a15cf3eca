package memory

import "inventorycore/pkg/domain"

// transactionView exposes a read-only snapshot of the transactional state.
type transactionView struct {
	state *memoryState
}

func newTransactionView(state *memoryState) TransactionView {
	return transactionView{state: state}
}

func (v transactionView) ListProducts() []Product {
	return sortedValues(v.state.products, func(p Product) int64 { return p.ID })
}

func (v transactionView) ListRawMaterials() []RawMaterial {
	return sortedValues(v.state.materials, func(m RawMaterial) int64 { return m.ID })
}

func (v transactionView) ListMaterialUsages() []MaterialUsage {
	return sortedValues(v.state.usages, func(u MaterialUsage) int64 { return u.ID })
}

func (v transactionView) FindProduct(id int64) (Product, bool) {
	p, ok := v.state.products[id]
	return p, ok
}

func (v transactionView) FindRawMaterial(id int64) (RawMaterial, bool) {
	m, ok := v.state.materials[id]
	return m, ok
}

func (v transactionView) FindMaterialUsage(id int64) (MaterialUsage, bool) {
	u, ok := v.state.usages[id]
	return u, ok
}

func (v transactionView) FindProductByCode(code string) (Product, bool) {
	id, ok := v.state.productCodes[domain.NormalizeKey(code)]
	if !ok {
		return Product{}, false
	}
	return v.FindProduct(id)
}

func (v transactionView) FindProductByName(name string) (Product, bool) {
	id, ok := v.state.productNames[domain.NormalizeKey(name)]
	if !ok {
		return Product{}, false
	}
	return v.FindProduct(id)
}

func (v transactionView) FindRawMaterialByCode(code string) (RawMaterial, bool) {
	id, ok := v.state.materialCodes[domain.NormalizeKey(code)]
	if !ok {
		return RawMaterial{}, false
	}
	return v.FindRawMaterial(id)
}

func (v transactionView) FindRawMaterialByDescription(description string) (RawMaterial, bool) {
	id, ok := v.state.materialDescriptions[domain.NormalizeKey(description)]
	if !ok {
		return RawMaterial{}, false
	}
	return v.FindRawMaterial(id)
}

func (v transactionView) MaterialUsagesForProduct(productID int64) []MaterialUsage {
	return v.filterUsages(func(u MaterialUsage) bool { return u.ProductID == productID })
}

func (v transactionView) MaterialUsagesForRawMaterial(rawMaterialID int64) []MaterialUsage {
	return v.filterUsages(func(u MaterialUsage) bool { return u.RawMaterialID == rawMaterialID })
}

func (v transactionView) filterUsages(keep func(MaterialUsage) bool) []MaterialUsage {
	out := make([]MaterialUsage, 0)
	for _, u := range v.ListMaterialUsages() {
		if keep(u) {
			out = append(out, u)
		}
	}
	return out
}
