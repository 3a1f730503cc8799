package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/mraihanfauzii/marketplace-backend/pkg/enums"
)

// Order is the per-store result of a checkout. TotalAmount is the sum of its
// item line totals plus the order's own shipping cost (shipping is charged
// once per store order, not once per checkout).
type Order struct {
	ID             uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID         uuid.UUID         `gorm:"column:user_id;type:uuid;not null;index"`
	StoreID        uuid.UUID         `gorm:"column:store_id;type:uuid;not null;index"`
	Status         enums.OrderStatus `gorm:"column:status;type:text;not null;default:'WAITING_FOR_PAYMENT'"`
	TotalAmount    int64             `gorm:"column:total_amount;not null"`
	ShippingMethod string            `gorm:"column:shipping_method;not null"`
	ShippingCost   int64             `gorm:"column:shipping_cost;not null"`
	Items          []OrderItem       `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	Store          *Store            `gorm:"foreignKey:StoreID"`
	CreatedAt      time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}
