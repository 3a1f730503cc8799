package models

import (
	"time"

	"github.com/google/uuid"
)

// Review is the buyer's rating for a product on a delivered order. Creating a
// review finalizes its order; the unique order_id index bounds one finalizing
// review per order.
type Review struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID   uuid.UUID `gorm:"column:order_id;type:uuid;not null;uniqueIndex"`
	ProductID uuid.UUID `gorm:"column:product_id;type:uuid;not null;index"`
	UserID    uuid.UUID `gorm:"column:user_id;type:uuid;not null"`
	Rating    int       `gorm:"column:rating;not null"`
	Comment   *string   `gorm:"column:comment"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}
