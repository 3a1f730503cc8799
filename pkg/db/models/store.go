package models

import (
	"time"

	"github.com/google/uuid"
)

// Store is a seller's storefront, 1:1 with its owning SELLER user. It is
// created in the same transaction as the user at registration.
type Store struct {
	ID          uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name        string    `gorm:"column:name;type:text;not null;uniqueIndex"`
	Description *string   `gorm:"column:description"`
	UserID      uuid.UUID `gorm:"column:user_id;type:uuid;not null;uniqueIndex"`
	Products    []Product `gorm:"foreignKey:StoreID;constraint:OnDelete:CASCADE"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
