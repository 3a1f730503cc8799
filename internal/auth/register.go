package auth

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/mraihanfauzii/marketplace-backend/internal/stores"
	"github.com/mraihanfauzii/marketplace-backend/internal/users"
	"github.com/mraihanfauzii/marketplace-backend/pkg/config"
	"github.com/mraihanfauzii/marketplace-backend/pkg/db"
	"github.com/mraihanfauzii/marketplace-backend/pkg/db/models"
	"github.com/mraihanfauzii/marketplace-backend/pkg/enums"
	pkgerrors "github.com/mraihanfauzii/marketplace-backend/pkg/errors"
	"github.com/mraihanfauzii/marketplace-backend/pkg/security"
)

// RegisterRequest creates a BUYER, or a SELLER together with its store.
type RegisterRequest struct {
	Name             string     `json:"name" validate:"required"`
	Email            string     `json:"email" validate:"required,email"`
	Password         string     `json:"password" validate:"required,min=8"`
	Role             enums.Role `json:"role" validate:"required"`
	StoreName        *string    `json:"store_name,omitempty"`
	StoreDescription *string    `json:"store_description,omitempty"`
}

// RegisterService handles the account creation transaction.
type RegisterService interface {
	Register(ctx context.Context, req RegisterRequest) (*UserSummary, error)
}

// RegisterServiceParams packages the dependencies for the registration flow.
type RegisterServiceParams struct {
	DB             *db.Client
	PasswordConfig config.PasswordConfig
}

type registerService struct {
	db          *db.Client
	passwordCfg config.PasswordConfig
}

// NewRegisterService builds a registration service with the provided dependencies.
func NewRegisterService(params RegisterServiceParams) (RegisterService, error) {
	if params.DB == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "database client required")
	}
	return &registerService{
		db:          params.DB,
		passwordCfg: params.PasswordConfig,
	}, nil
}

func (s *registerService) Register(ctx context.Context, req RegisterRequest) (*UserSummary, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email is required")
	}
	if strings.TrimSpace(req.Name) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}

	// ADMIN accounts are provisioned out of band, never via this endpoint.
	if req.Role != enums.RoleBuyer && req.Role != enums.RoleSeller {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "role must be BUYER or SELLER")
	}

	var storeName string
	if req.Role == enums.RoleSeller {
		if req.StoreName == nil || strings.TrimSpace(*req.StoreName) == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "store_name is required for sellers")
		}
		storeName = strings.TrimSpace(*req.StoreName)
	}

	passwordHash, err := security.HashPassword(req.Password, s.passwordCfg)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}

	var created *models.User
	err = s.db.WithTx(ctx, func(tx *gorm.DB) error {
		userRepo := users.NewRepository(tx)
		storeRepo := stores.NewRepository(tx)

		if _, err := userRepo.FindByEmail(ctx, email); err == nil {
			return pkgerrors.New(pkgerrors.CodeConflict, "email already registered")
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check user email")
		}

		user, err := userRepo.Create(ctx, &models.User{
			Name:         strings.TrimSpace(req.Name),
			Email:        email,
			PasswordHash: passwordHash,
			Role:         req.Role,
		})
		if err != nil {
			if pkgerrors.IsUniqueViolation(err, "users_email_key") {
				return pkgerrors.New(pkgerrors.CodeConflict, "email already registered")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create user")
		}

		if req.Role == enums.RoleSeller {
			if _, err := storeRepo.FindByName(ctx, storeName); err == nil {
				return pkgerrors.New(pkgerrors.CodeConflict, "store name already taken")
			} else if !errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check store name")
			}

			store, err := storeRepo.Create(ctx, &models.Store{
				Name:        storeName,
				Description: req.StoreDescription,
				UserID:      user.ID,
			})
			if err != nil {
				if pkgerrors.IsUniqueViolation(err, "stores_name_key") {
					return pkgerrors.New(pkgerrors.CodeConflict, "store name already taken")
				}
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create store")
			}
			user.Store = store
		}

		created = user
		return nil
	})
	if err != nil {
		return nil, err
	}
	return UserSummaryFromModel(created), nil
}
