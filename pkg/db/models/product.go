package models

import (
	"time"

	"github.com/google/uuid"
)

// Product is a store listing. Price is a minor-unit-free integer amount and
// must be positive.
type Product struct {
	ID          uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	StoreID     uuid.UUID `gorm:"column:store_id;type:uuid;not null;index"`
	Name        string    `gorm:"column:name;not null"`
	Description *string   `gorm:"column:description"`
	Price       int64     `gorm:"column:price;not null"`
	ImageURL    *string   `gorm:"column:image_url"`
	Store       *Store    `gorm:"foreignKey:StoreID"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
