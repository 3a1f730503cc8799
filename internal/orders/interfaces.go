package orders

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mraihanfauzii/marketplace-backend/pkg/db/models"
	"github.com/mraihanfauzii/marketplace-backend/pkg/enums"
	"github.com/mraihanfauzii/marketplace-backend/pkg/pagination"
)

// Repository defines persistence operations for orders and their items.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, order *models.Order) (*models.Order, error)
	CreateItems(ctx context.Context, items []models.OrderItem) error
	FindByID(ctx context.Context, orderID uuid.UUID) (*models.Order, error)
	ListByBuyer(ctx context.Context, userID uuid.UUID, params pagination.Params) (*OrderList, error)
	ListByStore(ctx context.Context, storeID uuid.UUID, params pagination.Params) (*OrderList, error)
	ListAll(ctx context.Context, params pagination.Params) (*OrderList, error)
	UpdateStatus(ctx context.Context, orderID uuid.UUID, status enums.OrderStatus) error
	CountActiveByUser(ctx context.Context, userID uuid.UUID) (int64, error)
	CancelActiveByUser(ctx context.Context, userID uuid.UUID) (int64, error)
}

// OrderList is a cursor page of orders.
type OrderList struct {
	Orders     []models.Order
	NextCursor string
}
