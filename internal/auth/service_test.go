package auth

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	pkgAuth "github.com/mraihanfauzii/marketplace-backend/pkg/auth"
	"github.com/mraihanfauzii/marketplace-backend/pkg/config"
	"github.com/mraihanfauzii/marketplace-backend/pkg/db/models"
	"github.com/mraihanfauzii/marketplace-backend/pkg/enums"
	pkgerrors "github.com/mraihanfauzii/marketplace-backend/pkg/errors"
	"github.com/mraihanfauzii/marketplace-backend/pkg/security"
)

var testJWTConfig = config.JWTConfig{
	Secret:            "auth-service-test-secret",
	Issuer:            "marketplace",
	ExpirationMinutes: 15,
}

type stubUserRepo struct {
	users   map[string]*models.User
	updates []map[string]any
}

func (s *stubUserRepo) FindByEmail(_ context.Context, email string) (*models.User, error) {
	if user, ok := s.users[email]; ok {
		return user, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubUserRepo) FindByID(_ context.Context, userID uuid.UUID) (*models.User, error) {
	for _, user := range s.users {
		if user.ID == userID {
			return user, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubUserRepo) Update(_ context.Context, userID uuid.UUID, updates map[string]any) error {
	s.updates = append(s.updates, updates)
	for _, user := range s.users {
		if user.ID != userID {
			continue
		}
		if name, ok := updates["name"].(string); ok {
			user.Name = name
		}
		if email, ok := updates["email"].(string); ok {
			delete(s.users, user.Email)
			user.Email = email
			s.users[email] = user
		}
		if hash, ok := updates["password_hash"].(string); ok {
			user.PasswordHash = hash
		}
		return nil
	}
	return gorm.ErrRecordNotFound
}

type stubSessionManager struct {
	generated []string
	revoked   []string
	rotateErr error
}

func (s *stubSessionManager) Generate(_ context.Context, accessID string) (string, error) {
	s.generated = append(s.generated, accessID)
	return "refresh-" + accessID, nil
}

func (s *stubSessionManager) Rotate(_ context.Context, oldAccessID, provided string) (string, string, error) {
	if s.rotateErr != nil {
		return "", "", s.rotateErr
	}
	newID := "rotated-" + oldAccessID
	return newID, "refresh-" + newID, nil
}

func (s *stubSessionManager) Revoke(_ context.Context, accessID string) error {
	s.revoked = append(s.revoked, accessID)
	return nil
}

func seedAuthUser(t *testing.T, role enums.Role, withStore bool) *models.User {
	t.Helper()

	hash, err := security.HashPassword("correct horse battery", config.PasswordConfig{})
	require.NoError(t, err)

	user := &models.User{
		ID:           uuid.New(),
		Name:         "Budi",
		Email:        "budi@example.com",
		PasswordHash: hash,
		Role:         role,
	}
	if withStore {
		user.Store = &models.Store{ID: uuid.New(), Name: "Toko Budi", UserID: user.ID}
	}
	return user
}

func newAuthService(t *testing.T, user *models.User, sessions *stubSessionManager) Service {
	t.Helper()

	repo := &stubUserRepo{users: map[string]*models.User{}}
	if user != nil {
		repo.users[user.Email] = user
	}
	svc, err := NewService(ServiceParams{
		UserRepo:       repo,
		SessionManager: sessions,
		JWTConfig:      testJWTConfig,
	})
	require.NoError(t, err)
	return svc
}

func TestLoginMintsSessionToken(t *testing.T) {
	sessions := &stubSessionManager{}
	user := seedAuthUser(t, enums.RoleSeller, true)
	svc := newAuthService(t, user, sessions)

	resp, err := svc.Login(context.Background(), LoginRequest{
		Email:    "Budi@Example.com",
		Password: "correct horse battery",
	})
	require.NoError(t, err)
	require.NotEmpty(t, resp.AccessToken)
	require.Len(t, sessions.generated, 1)
	assert.Equal(t, "refresh-"+sessions.generated[0], resp.RefreshToken)

	claims, err := pkgAuth.ParseAccessToken(testJWTConfig, resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, enums.RoleSeller, claims.Role)
	require.NotNil(t, claims.ActiveStoreID)
	assert.Equal(t, user.Store.ID, *claims.ActiveStoreID)
	assert.Equal(t, sessions.generated[0], claims.ID)

	require.NotNil(t, resp.User.Store)
	assert.Equal(t, "Toko Budi", resp.User.Store.Name)
}

func TestLoginBuyerHasNoStoreClaim(t *testing.T) {
	sessions := &stubSessionManager{}
	user := seedAuthUser(t, enums.RoleBuyer, false)
	svc := newAuthService(t, user, sessions)

	resp, err := svc.Login(context.Background(), LoginRequest{
		Email:    user.Email,
		Password: "correct horse battery",
	})
	require.NoError(t, err)

	claims, err := pkgAuth.ParseAccessToken(testJWTConfig, resp.AccessToken)
	require.NoError(t, err)
	assert.Nil(t, claims.ActiveStoreID)
	assert.Equal(t, enums.RoleBuyer, claims.Role)
}

func TestLoginWrongPassword(t *testing.T) {
	sessions := &stubSessionManager{}
	user := seedAuthUser(t, enums.RoleBuyer, false)
	svc := newAuthService(t, user, sessions)

	_, err := svc.Login(context.Background(), LoginRequest{
		Email:    user.Email,
		Password: "wrong",
	})
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeUnauthorized, typed.Code())
	assert.Empty(t, sessions.generated)
}

func TestLoginUnknownEmail(t *testing.T) {
	svc := newAuthService(t, nil, &stubSessionManager{})

	_, err := svc.Login(context.Background(), LoginRequest{
		Email:    "nobody@example.com",
		Password: "whatever",
	})
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeUnauthorized, typed.Code())
}

func TestRefreshRotatesSession(t *testing.T) {
	sessions := &stubSessionManager{}
	user := seedAuthUser(t, enums.RoleBuyer, false)
	svc := newAuthService(t, user, sessions)

	login, err := svc.Login(context.Background(), LoginRequest{
		Email:    user.Email,
		Password: "correct horse battery",
	})
	require.NoError(t, err)

	refreshed, err := svc.Refresh(context.Background(), RefreshRequest{
		AccessToken:  login.AccessToken,
		RefreshToken: login.RefreshToken,
	})
	require.NoError(t, err)
	require.NotEmpty(t, refreshed.AccessToken)
	assert.NotEqual(t, login.RefreshToken, refreshed.RefreshToken)

	claims, err := pkgAuth.ParseAccessToken(testJWTConfig, refreshed.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "rotated-"+sessions.generated[0], claims.ID)
}

func TestRefreshInvalidToken(t *testing.T) {
	sessions := &stubSessionManager{}
	user := seedAuthUser(t, enums.RoleBuyer, false)
	svc := newAuthService(t, user, sessions)

	_, err := svc.Refresh(context.Background(), RefreshRequest{
		AccessToken:  "not-a-jwt",
		RefreshToken: "whatever",
	})
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeUnauthorized, typed.Code())
}

func TestLogoutRevokesSession(t *testing.T) {
	sessions := &stubSessionManager{}
	svc := newAuthService(t, nil, sessions)

	require.NoError(t, svc.Logout(context.Background(), "session-1"))
	assert.Equal(t, []string{"session-1"}, sessions.revoked)

	err := svc.Logout(context.Background(), "")
	require.Error(t, err)
}

func TestProfileReturnsUser(t *testing.T) {
	user := seedAuthUser(t, enums.RoleSeller, true)
	svc := newAuthService(t, user, &stubSessionManager{})

	profile, err := svc.Profile(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, user.Email, profile.Email)
	require.NotNil(t, profile.Store)

	_, err = svc.Profile(context.Background(), uuid.New())
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeNotFound, typed.Code())
}

func TestUpdateProfileChangesNameAndPassword(t *testing.T) {
	user := seedAuthUser(t, enums.RoleBuyer, false)
	repo := &stubUserRepo{users: map[string]*models.User{user.Email: user}}
	svc, err := NewService(ServiceParams{
		UserRepo:       repo,
		SessionManager: &stubSessionManager{},
		JWTConfig:      testJWTConfig,
	})
	require.NoError(t, err)

	name := "Budi Santoso"
	password := "a brand new secret"
	profile, err := svc.UpdateProfile(context.Background(), user.ID, UpdateProfileRequest{
		Name:     &name,
		Password: &password,
	})
	require.NoError(t, err)
	assert.Equal(t, "Budi Santoso", profile.Name)

	valid, err := security.VerifyPassword(password, user.PasswordHash)
	require.NoError(t, err)
	assert.True(t, valid)
}

func TestUpdateProfileNormalizesEmail(t *testing.T) {
	user := seedAuthUser(t, enums.RoleBuyer, false)
	repo := &stubUserRepo{users: map[string]*models.User{user.Email: user}}
	svc, err := NewService(ServiceParams{
		UserRepo:       repo,
		SessionManager: &stubSessionManager{},
		JWTConfig:      testJWTConfig,
	})
	require.NoError(t, err)

	email := " Budi.New@Example.com "
	profile, err := svc.UpdateProfile(context.Background(), user.ID, UpdateProfileRequest{Email: &email})
	require.NoError(t, err)
	assert.Equal(t, "budi.new@example.com", profile.Email)
}

func TestUpdateProfileRejectsTakenEmail(t *testing.T) {
	user := seedAuthUser(t, enums.RoleBuyer, false)
	other := &models.User{ID: uuid.New(), Name: "Dewi", Email: "dewi@example.com", Role: enums.RoleBuyer}
	repo := &stubUserRepo{users: map[string]*models.User{
		user.Email:  user,
		other.Email: other,
	}}
	svc, err := NewService(ServiceParams{
		UserRepo:       repo,
		SessionManager: &stubSessionManager{},
		JWTConfig:      testJWTConfig,
	})
	require.NoError(t, err)

	email := "dewi@example.com"
	_, err = svc.UpdateProfile(context.Background(), user.ID, UpdateProfileRequest{Email: &email})
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeConflict, typed.Code())
	assert.Empty(t, repo.updates)
}

func TestUpdateProfileRejectsBlankName(t *testing.T) {
	user := seedAuthUser(t, enums.RoleBuyer, false)
	svc := newAuthService(t, user, &stubSessionManager{})

	name := "   "
	_, err := svc.UpdateProfile(context.Background(), user.ID, UpdateProfileRequest{Name: &name})
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
}
