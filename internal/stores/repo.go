package stores

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mraihanfauzii/marketplace-backend/pkg/db/models"
)

// Repository defines persistence operations for seller stores. A user
// owns at most one store, created together with seller registration.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, store *models.Store) (*models.Store, error)
	FindByID(ctx context.Context, storeID uuid.UUID) (*models.Store, error)
	FindByUserID(ctx context.Context, userID uuid.UUID) (*models.Store, error)
	FindByName(ctx context.Context, name string) (*models.Store, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, store *models.Store) (*models.Store, error) {
	if store.ID == uuid.Nil {
		store.ID = uuid.New()
	}
	if err := r.db.WithContext(ctx).Create(store).Error; err != nil {
		return nil, err
	}
	return store, nil
}

func (r *repository) FindByID(ctx context.Context, storeID uuid.UUID) (*models.Store, error) {
	var store models.Store
	if err := r.db.WithContext(ctx).Where("id = ?", storeID).First(&store).Error; err != nil {
		return nil, err
	}
	return &store, nil
}

func (r *repository) FindByUserID(ctx context.Context, userID uuid.UUID) (*models.Store, error) {
	var store models.Store
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&store).Error; err != nil {
		return nil, err
	}
	return &store, nil
}

func (r *repository) FindByName(ctx context.Context, name string) (*models.Store, error) {
	var store models.Store
	if err := r.db.WithContext(ctx).Where("name = ?", name).First(&store).Error; err != nil {
		return nil, err
	}
	return &store, nil
}
