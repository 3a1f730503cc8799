package auth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/mraihanfauzii/marketplace-backend/pkg/config"
	"github.com/mraihanfauzii/marketplace-backend/pkg/db"
	"github.com/mraihanfauzii/marketplace-backend/pkg/db/models"
	"github.com/mraihanfauzii/marketplace-backend/pkg/enums"
	pkgerrors "github.com/mraihanfauzii/marketplace-backend/pkg/errors"
)

func setupRegisterTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	conn, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	statements := []string{
		`CREATE TABLE IF NOT EXISTS users (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  email TEXT NOT NULL UNIQUE,
  password_hash TEXT NOT NULL,
  role TEXT NOT NULL DEFAULT 'BUYER',
  created_at DATETIME,
  updated_at DATETIME
);`,
		`CREATE TABLE IF NOT EXISTS stores (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL UNIQUE,
  description TEXT,
  user_id TEXT NOT NULL UNIQUE,
  created_at DATETIME,
  updated_at DATETIME
);`,
	}
	for _, stmt := range statements {
		require.NoError(t, conn.Exec(stmt).Error)
	}

	t.Cleanup(func() {
		for _, table := range []string{"stores", "users"} {
			conn.Exec("DELETE FROM " + table)
		}
	})

	return conn
}

func newRegisterService(t *testing.T, conn *gorm.DB) RegisterService {
	t.Helper()

	client, err := db.NewWithConn(conn)
	require.NoError(t, err)

	svc, err := NewRegisterService(RegisterServiceParams{
		DB:             client,
		PasswordConfig: config.PasswordConfig{},
	})
	require.NoError(t, err)
	return svc
}

func strPtr(s string) *string { return &s }

func TestRegisterBuyer(t *testing.T) {
	conn := setupRegisterTestDB(t)
	svc := newRegisterService(t, conn)
	ctx := context.Background()

	user, err := svc.Register(ctx, RegisterRequest{
		Name:     "Budi",
		Email:    "Budi@Example.com",
		Password: "correct horse battery",
		Role:     enums.RoleBuyer,
	})
	require.NoError(t, err)
	assert.Equal(t, "budi@example.com", user.Email)
	assert.Equal(t, enums.RoleBuyer, user.Role)
	assert.Nil(t, user.Store)

	var persisted models.User
	require.NoError(t, conn.Where("email = ?", "budi@example.com").First(&persisted).Error)
	assert.NotEqual(t, "correct horse battery", persisted.PasswordHash)
}

func TestRegisterSellerCreatesStore(t *testing.T) {
	conn := setupRegisterTestDB(t)
	svc := newRegisterService(t, conn)
	ctx := context.Background()

	user, err := svc.Register(ctx, RegisterRequest{
		Name:      "Sari",
		Email:     "sari@example.com",
		Password:  "correct horse battery",
		Role:      enums.RoleSeller,
		StoreName: strPtr("Toko Sari"),
	})
	require.NoError(t, err)
	require.NotNil(t, user.Store)
	assert.Equal(t, "Toko Sari", user.Store.Name)

	var store models.Store
	require.NoError(t, conn.Where("name = ?", "Toko Sari").First(&store).Error)
	assert.Equal(t, user.ID, store.UserID)
}

func TestRegisterSellerRequiresStoreName(t *testing.T) {
	conn := setupRegisterTestDB(t)
	svc := newRegisterService(t, conn)
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterRequest{
		Name:     "Sari",
		Email:    "sari@example.com",
		Password: "correct horse battery",
		Role:     enums.RoleSeller,
	})
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
}

func TestRegisterRejectsAdminRole(t *testing.T) {
	conn := setupRegisterTestDB(t)
	svc := newRegisterService(t, conn)
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterRequest{
		Name:     "Eve",
		Email:    "eve@example.com",
		Password: "correct horse battery",
		Role:     enums.RoleAdmin,
	})
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
}

func TestRegisterDuplicateEmail(t *testing.T) {
	conn := setupRegisterTestDB(t)
	svc := newRegisterService(t, conn)
	ctx := context.Background()

	req := RegisterRequest{
		Name:     "Budi",
		Email:    "budi@example.com",
		Password: "correct horse battery",
		Role:     enums.RoleBuyer,
	}
	_, err := svc.Register(ctx, req)
	require.NoError(t, err)

	_, err = svc.Register(ctx, req)
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeConflict, typed.Code())
}

func TestRegisterDuplicateStoreNameRollsBackUser(t *testing.T) {
	conn := setupRegisterTestDB(t)
	svc := newRegisterService(t, conn)
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterRequest{
		Name:      "Sari",
		Email:     "sari@example.com",
		Password:  "correct horse battery",
		Role:      enums.RoleSeller,
		StoreName: strPtr("Toko Sari"),
	})
	require.NoError(t, err)

	_, err = svc.Register(ctx, RegisterRequest{
		Name:      "Dewi",
		Email:     "dewi@example.com",
		Password:  "correct horse battery",
		Role:      enums.RoleSeller,
		StoreName: strPtr("Toko Sari"),
	})
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeConflict, typed.Code())

	// The second seller's user row must not survive the failed transaction.
	var count int64
	require.NoError(t, conn.Model(&models.User{}).Where("email = ?", "dewi@example.com").Count(&count).Error)
	assert.Zero(t, count)
}
