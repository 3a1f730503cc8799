package cart

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mraihanfauzii/marketplace-backend/pkg/db/models"
)

// Repository defines persistence operations for cart items.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.CartItem, error)
	FindByUserAndProduct(ctx context.Context, userID, productID uuid.UUID) (*models.CartItem, error)
	FindByID(ctx context.Context, itemID uuid.UUID) (*models.CartItem, error)
	Create(ctx context.Context, item *models.CartItem) (*models.CartItem, error)
	UpdateQuantity(ctx context.Context, itemID uuid.UUID, quantity int) error
	Delete(ctx context.Context, itemID uuid.UUID) error
	DeleteAllForUser(ctx context.Context, userID uuid.UUID) error
}
