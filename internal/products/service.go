package products

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mraihanfauzii/marketplace-backend/internal/authz"
	"github.com/mraihanfauzii/marketplace-backend/pkg/db/models"
	"github.com/mraihanfauzii/marketplace-backend/pkg/enums"
	pkgerrors "github.com/mraihanfauzii/marketplace-backend/pkg/errors"
	"github.com/mraihanfauzii/marketplace-backend/pkg/pagination"
)

// CreateInput carries the seller-supplied fields for a new product.
type CreateInput struct {
	Name        string
	Description *string
	Price       int64
	ImageURL    *string
}

// UpdateInput carries optional field updates. Nil pointers leave the
// current value untouched.
type UpdateInput struct {
	Name        *string
	Description *string
	Price       *int64
	ImageURL    *string
}

// Service owns the product catalog. Reads are public; writes are
// restricted to the owning seller or an admin.
type Service struct {
	repo Repository
}

func NewService(repo Repository) (*Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("products: repository is required")
	}
	return &Service{repo: repo}, nil
}

func (s *Service) Create(ctx context.Context, actor authz.Actor, input CreateInput) (*models.Product, error) {
	if actor.Role != enums.RoleSeller || actor.StoreID == nil {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only sellers with a store can create products")
	}
	if err := validateProductFields(input.Name, input.Price); err != nil {
		return nil, err
	}

	product := &models.Product{
		StoreID:     *actor.StoreID,
		Name:        strings.TrimSpace(input.Name),
		Description: input.Description,
		Price:       input.Price,
		ImageURL:    input.ImageURL,
	}
	created, err := s.repo.Create(ctx, product)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create product")
	}
	return created, nil
}

func (s *Service) Get(ctx context.Context, productID uuid.UUID) (*models.Product, error) {
	if productID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	product, err := s.repo.FindByID(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "find product")
	}
	return product, nil
}

func (s *Service) List(ctx context.Context, params pagination.Params) (*ProductList, error) {
	list, err := s.repo.List(ctx, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list products")
	}
	return list, nil
}

func (s *Service) ListByStore(ctx context.Context, storeID uuid.UUID, params pagination.Params) (*ProductList, error) {
	if storeID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "store id is required")
	}
	list, err := s.repo.ListByStore(ctx, storeID, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list store products")
	}
	return list, nil
}

func (s *Service) Update(ctx context.Context, actor authz.Actor, productID uuid.UUID, input UpdateInput) (*models.Product, error) {
	product, err := s.Get(ctx, productID)
	if err != nil {
		return nil, err
	}
	if !authz.CanMutateProduct(actor, product.StoreID) {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "not allowed to modify this product")
	}

	updates := map[string]any{}
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "product name cannot be empty")
		}
		updates["name"] = name
	}
	if input.Description != nil {
		updates["description"] = *input.Description
	}
	if input.Price != nil {
		if *input.Price <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "price must be positive")
		}
		updates["price"] = *input.Price
	}
	if input.ImageURL != nil {
		updates["image_url"] = *input.ImageURL
	}
	if len(updates) == 0 {
		return product, nil
	}

	if err := s.repo.Update(ctx, productID, updates); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update product")
	}
	return s.Get(ctx, productID)
}

func (s *Service) Delete(ctx context.Context, actor authz.Actor, productID uuid.UUID) error {
	product, err := s.Get(ctx, productID)
	if err != nil {
		return err
	}
	if !authz.CanMutateProduct(actor, product.StoreID) {
		return pkgerrors.New(pkgerrors.CodeForbidden, "not allowed to delete this product")
	}
	if err := s.repo.Delete(ctx, productID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete product")
	}
	return nil
}

func validateProductFields(name string, price int64) error {
	if strings.TrimSpace(name) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "product name is required")
	}
	if price <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "price must be positive")
	}
	return nil
}
