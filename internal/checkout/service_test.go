package checkout

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/mraihanfauzii/marketplace-backend/internal/cart"
	"github.com/mraihanfauzii/marketplace-backend/internal/orders"
	"github.com/mraihanfauzii/marketplace-backend/pkg/db/models"
	"github.com/mraihanfauzii/marketplace-backend/pkg/enums"
	pkgerrors "github.com/mraihanfauzii/marketplace-backend/pkg/errors"
)

func setupCheckoutTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	statements := []string{
		`CREATE TABLE IF NOT EXISTS stores (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL UNIQUE,
  description TEXT,
  user_id TEXT NOT NULL UNIQUE,
  created_at DATETIME,
  updated_at DATETIME
);`,
		`CREATE TABLE IF NOT EXISTS products (
  id TEXT PRIMARY KEY,
  store_id TEXT NOT NULL,
  name TEXT NOT NULL,
  description TEXT,
  price INTEGER NOT NULL,
  image_url TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`,
		`CREATE TABLE IF NOT EXISTS cart_items (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL,
  product_id TEXT NOT NULL,
  quantity INTEGER NOT NULL,
  created_at DATETIME,
  updated_at DATETIME,
  UNIQUE (user_id, product_id)
);`,
		`CREATE TABLE IF NOT EXISTS orders (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL,
  store_id TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT 'WAITING_FOR_PAYMENT',
  total_amount INTEGER NOT NULL,
  shipping_method TEXT NOT NULL DEFAULT '',
  shipping_cost INTEGER NOT NULL DEFAULT 0,
  created_at DATETIME,
  updated_at DATETIME
);`,
		`CREATE TABLE IF NOT EXISTS order_items (
  id TEXT PRIMARY KEY,
  order_id TEXT NOT NULL,
  product_id TEXT NOT NULL,
  quantity INTEGER NOT NULL,
  price INTEGER NOT NULL,
  created_at DATETIME
);`,
	}
	for _, stmt := range statements {
		require.NoError(t, db.Exec(stmt).Error)
	}

	t.Cleanup(func() {
		for _, table := range []string{"order_items", "orders", "cart_items", "products", "stores"} {
			db.Exec("DELETE FROM " + table)
		}
	})

	return db
}

type gormTxRunner struct {
	db *gorm.DB
}

func (r gormTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	tx := r.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return tx.Error
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit().Error
}

func seedCheckoutProduct(t *testing.T, db *gorm.DB, storeID uuid.UUID, price int64) *models.Product {
	t.Helper()
	product := &models.Product{
		ID:      uuid.New(),
		StoreID: storeID,
		Name:    "Product " + uuid.NewString(),
		Price:   price,
	}
	require.NoError(t, db.Create(product).Error)
	return product
}

func seedCartItem(t *testing.T, db *gorm.DB, userID uuid.UUID, product *models.Product, qty int) {
	t.Helper()
	require.NoError(t, db.Create(&models.CartItem{
		ID:        uuid.New(),
		UserID:    userID,
		ProductID: product.ID,
		Quantity:  qty,
	}).Error)
}

func newCheckoutService(t *testing.T, db *gorm.DB, ordersRepo orders.Repository) Service {
	t.Helper()
	if ordersRepo == nil {
		ordersRepo = orders.NewRepository(db)
	}
	svc, err := NewService(cart.NewRepository(db), ordersRepo, gormTxRunner{db: db}, nil)
	require.NoError(t, err)
	return svc
}

func TestExecuteSplitsCartPerStore(t *testing.T) {
	db := setupCheckoutTestDB(t)
	svc := newCheckoutService(t, db, nil)
	ctx := context.Background()

	userID := uuid.New()
	storeA := uuid.New()
	storeB := uuid.New()

	// Store A: 2 x 100000 = 200000, Store B: 1 x 50000.
	pa := seedCheckoutProduct(t, db, storeA, 100000)
	pb := seedCheckoutProduct(t, db, storeB, 50000)
	seedCartItem(t, db, userID, pa, 2)
	seedCartItem(t, db, userID, pb, 1)

	created, err := svc.Execute(ctx, userID, Input{ShippingMethod: "REGULAR", ShippingCost: 15000})
	require.NoError(t, err)
	require.Len(t, created, 2)

	totals := map[uuid.UUID]int64{}
	for _, order := range created {
		totals[order.StoreID] = order.TotalAmount
		assert.Equal(t, enums.OrderStatusWaitingForPayment, order.Status)
		assert.Equal(t, int64(15000), order.ShippingCost)
		assert.Equal(t, "REGULAR", order.ShippingMethod)
	}
	// Shipping is charged once per order: 200000+15000 and 50000+15000.
	assert.Equal(t, int64(215000), totals[storeA])
	assert.Equal(t, int64(65000), totals[storeB])

	// Cart must be empty afterwards.
	var remaining int64
	require.NoError(t, db.Model(&models.CartItem{}).Where("user_id = ?", userID).Count(&remaining).Error)
	assert.Zero(t, remaining)
}

func TestExecuteSnapshotsPrices(t *testing.T) {
	db := setupCheckoutTestDB(t)
	svc := newCheckoutService(t, db, nil)
	ctx := context.Background()

	userID := uuid.New()
	storeID := uuid.New()
	product := seedCheckoutProduct(t, db, storeID, 80000)
	seedCartItem(t, db, userID, product, 1)

	created, err := svc.Execute(ctx, userID, Input{ShippingMethod: "EXPRESS", ShippingCost: 30000})
	require.NoError(t, err)
	require.Len(t, created, 1)

	// A later price change must not affect the recorded order.
	require.NoError(t, db.Model(&models.Product{}).Where("id = ?", product.ID).Update("price", 999999).Error)

	var items []models.OrderItem
	require.NoError(t, db.Where("order_id = ?", created[0].ID).Find(&items).Error)
	require.Len(t, items, 1)
	assert.Equal(t, int64(80000), items[0].Price)
	assert.Equal(t, int64(110000), created[0].TotalAmount)
}

func TestExecuteEmptyCart(t *testing.T) {
	db := setupCheckoutTestDB(t)
	svc := newCheckoutService(t, db, nil)

	_, err := svc.Execute(context.Background(), uuid.New(), Input{ShippingMethod: "REGULAR", ShippingCost: 15000})
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
}

type failingOrdersRepo struct {
	orders.Repository
	failAfter int
	calls     int
}

func (f *failingOrdersRepo) WithTx(tx *gorm.DB) orders.Repository {
	return &failingOrdersRepo{Repository: f.Repository.WithTx(tx), failAfter: f.failAfter, calls: f.calls}
}

func (f *failingOrdersRepo) CreateItems(ctx context.Context, items []models.OrderItem) error {
	f.calls++
	if f.calls > f.failAfter {
		return errors.New("storage failure")
	}
	return f.Repository.CreateItems(ctx, items)
}

func TestExecuteRollsBackOnMidwayFailure(t *testing.T) {
	db := setupCheckoutTestDB(t)
	ctx := context.Background()

	userID := uuid.New()
	pa := seedCheckoutProduct(t, db, uuid.New(), 10000)
	pb := seedCheckoutProduct(t, db, uuid.New(), 20000)
	seedCartItem(t, db, userID, pa, 1)
	seedCartItem(t, db, userID, pb, 1)

	// First order's items persist, second order's fail: nothing may survive.
	repo := &failingOrdersRepo{Repository: orders.NewRepository(db), failAfter: 1}
	svc := newCheckoutService(t, db, repo)

	_, err := svc.Execute(ctx, userID, Input{ShippingMethod: "REGULAR", ShippingCost: 5000})
	require.Error(t, err)

	var orderCount, itemCount, cartCount int64
	require.NoError(t, db.Model(&models.Order{}).Count(&orderCount).Error)
	require.NoError(t, db.Model(&models.OrderItem{}).Count(&itemCount).Error)
	require.NoError(t, db.Model(&models.CartItem{}).Where("user_id = ?", userID).Count(&cartCount).Error)
	assert.Zero(t, orderCount, "orders must roll back")
	assert.Zero(t, itemCount, "order items must roll back")
	assert.Equal(t, int64(2), cartCount, "cart must stay intact")
}
