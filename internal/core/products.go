package core

import (
	"context"
	"strings"

	"inventorycore/pkg/domain"

	"github.com/shopspring/decimal"
)

// ProductInput carries the fields for a new product. UnitPrice is required.
type ProductInput struct {
	Code      string
	Name      string
	UnitPrice *decimal.Decimal
}

// ProductPatch carries optional product changes; nil fields are left untouched.
type ProductPatch struct {
	Code      *string
	Name      *string
	UnitPrice *decimal.Decimal
}

func (in ProductInput) validate() error {
	switch {
	case strings.TrimSpace(in.Code) == "":
		return requiredField(EntityProduct, "code", "Product code is required.")
	case strings.TrimSpace(in.Name) == "":
		return requiredField(EntityProduct, "name", "Product name is required.")
	case in.UnitPrice == nil:
		return requiredField(EntityProduct, "unitPrice", "Unit price is required.")
	}
	return validatePrice(*in.UnitPrice)
}

func (p ProductPatch) validate() error {
	if p.Code != nil && strings.TrimSpace(*p.Code) == "" {
		return requiredField(EntityProduct, "code", "Product code cannot be empty.")
	}
	if p.Name != nil && strings.TrimSpace(*p.Name) == "" {
		return requiredField(EntityProduct, "name", "Product name cannot be empty.")
	}
	if p.UnitPrice != nil {
		return validatePrice(*p.UnitPrice)
	}
	return nil
}

func validatePrice(price decimal.Decimal) error {
	if price.IsNegative() {
		return requiredField(EntityProduct, "unitPrice", "Unit price cannot be negative.")
	}
	return nil
}

func requiredField(entity EntityType, field, message string) error {
	return domain.ValidationError{Entity: entity, Field: field, Message: message}
}

// CreateProduct validates and persists a new product.
func (s *Service) CreateProduct(ctx context.Context, in ProductInput) (Product, Result, error) {
	var created Product
	var res Result
	err := s.observe(ctx, opInfo{name: "create_product", entity: EntityProduct, mutating: true}, func(ctx context.Context) (int64, Result, error) {
		if err := in.validate(); err != nil {
			return 0, Result{}, err
		}
		var err error
		res, err = s.store.RunInTransaction(ctx, func(tx Transaction) error {
			var err error
			created, err = tx.CreateProduct(Product{Code: in.Code, Name: in.Name, UnitPrice: *in.UnitPrice})
			return err
		})
		return created.ID, res, err
	})
	return created, res, err
}

// UpdateProduct applies a partial update to a product.
func (s *Service) UpdateProduct(ctx context.Context, id int64, patch ProductPatch) (Product, Result, error) {
	var updated Product
	var res Result
	err := s.observe(ctx, opInfo{name: "update_product", entity: EntityProduct, mutating: true}, func(ctx context.Context) (int64, Result, error) {
		if err := patch.validate(); err != nil {
			return id, Result{}, err
		}
		var err error
		res, err = s.store.RunInTransaction(ctx, func(tx Transaction) error {
			var err error
			updated, err = tx.UpdateProduct(id, func(p *Product) error {
				if patch.Code != nil {
					p.Code = *patch.Code
				}
				if patch.Name != nil {
					p.Name = *patch.Name
				}
				if patch.UnitPrice != nil {
					p.UnitPrice = *patch.UnitPrice
				}
				return nil
			})
			return err
		})
		return id, res, err
	})
	return updated, res, err
}

// GetProduct returns a product by id.
func (s *Service) GetProduct(ctx context.Context, id int64) (Product, error) {
	return findOne(ctx, s, "get_product", EntityProduct, id, func(v TransactionView) (Product, bool) { return v.FindProduct(id) })
}

// FindProductByCode looks a product up by its normalized code.
func (s *Service) FindProductByCode(ctx context.Context, code string) (Product, bool, error) {
	return findByKey(ctx, s, "find_product_by_code", func(v TransactionView) (Product, bool) { return v.FindProductByCode(code) })
}

// FindProductByName looks a product up by its normalized name.
func (s *Service) FindProductByName(ctx context.Context, name string) (Product, bool, error) {
	return findByKey(ctx, s, "find_product_by_name", func(v TransactionView) (Product, bool) { return v.FindProductByName(name) })
}

// ListProducts returns every product in creation order.
func (s *Service) ListProducts(ctx context.Context) ([]Product, error) {
	return listAll(ctx, s, "list_products", TransactionView.ListProducts)
}

func findOne[T any](ctx context.Context, s *Service, op string, entity EntityType, id int64, find func(TransactionView) (T, bool)) (T, error) {
	var out T
	err := s.observe(ctx, opInfo{name: op, entity: entity}, func(ctx context.Context) (int64, Result, error) {
		return id, Result{}, s.store.View(ctx, func(v TransactionView) error {
			found, ok := find(v)
			if !ok {
				return domain.ErrNotFound{Entity: entity, ID: id}
			}
			out = found
			return nil
		})
	})
	return out, err
}

func findByKey[T any](ctx context.Context, s *Service, op string, find func(TransactionView) (T, bool)) (T, bool, error) {
	var out T
	var ok bool
	err := s.observe(ctx, opInfo{name: op}, func(ctx context.Context) (int64, Result, error) {
		return 0, Result{}, s.store.View(ctx, func(v TransactionView) error {
			out, ok = find(v)
			return nil
		})
	})
	return out, ok, err
}

func listAll[T any](ctx context.Context, s *Service, op string, list func(TransactionView) []T) ([]T, error) {
	var out []T
	err := s.observe(ctx, opInfo{name: op}, func(ctx context.Context) (int64, Result, error) {
		return 0, Result{}, s.store.View(ctx, func(v TransactionView) error {
			out = list(v)
			return nil
		})
	})
	return out, err
}
