package users

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mraihanfauzii/marketplace-backend/internal/authz"
	"github.com/mraihanfauzii/marketplace-backend/internal/orders"
	"github.com/mraihanfauzii/marketplace-backend/pkg/db/models"
	"github.com/mraihanfauzii/marketplace-backend/pkg/enums"
	pkgerrors "github.com/mraihanfauzii/marketplace-backend/pkg/errors"
	"github.com/mraihanfauzii/marketplace-backend/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service owns account management. Listing, deleting, and bulk order
// cancellation are admin operations; deletion is refused while the user
// is on either side of a live order.
type Service struct {
	repo       Repository
	ordersRepo orders.Repository
	tx         txRunner
}

func NewService(repo Repository, ordersRepo orders.Repository, tx txRunner) (*Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("users: repository is required")
	}
	if ordersRepo == nil {
		return nil, fmt.Errorf("users: orders repository is required")
	}
	if tx == nil {
		return nil, fmt.Errorf("users: tx runner is required")
	}
	return &Service{repo: repo, ordersRepo: ordersRepo, tx: tx}, nil
}

// Get returns a user visible to the actor: themselves, or anyone for admins.
func (s *Service) Get(ctx context.Context, actor authz.Actor, userID uuid.UUID) (*models.User, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	if actor.Role != enums.RoleAdmin && actor.UserID != userID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
	}
	return s.find(ctx, userID)
}

func (s *Service) find(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "find user")
	}
	return user, nil
}

// List returns a cursor page of all accounts. Admin only.
func (s *Service) List(ctx context.Context, actor authz.Actor, params pagination.Params) (*UserList, error) {
	if actor.Role != enums.RoleAdmin {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "admin role required")
	}
	list, err := s.repo.List(ctx, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list users")
	}
	return list, nil
}

// Delete removes an account. Admin only. Refused while the user is the
// buyer or the store owner of any non-terminal order; CancelAllOrders
// is the unblock path.
func (s *Service) Delete(ctx context.Context, actor authz.Actor, userID uuid.UUID) error {
	if actor.Role != enums.RoleAdmin {
		return pkgerrors.New(pkgerrors.CodeForbidden, "admin role required")
	}
	if userID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}

	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		userRepo := s.repo.WithTx(tx)
		orderRepo := s.ordersRepo.WithTx(tx)

		if _, err := userRepo.FindByID(ctx, userID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "find user")
		}

		active, err := orderRepo.CountActiveByUser(ctx, userID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "count active orders")
		}
		if active > 0 {
			return pkgerrors.New(pkgerrors.CodeConflict,
				"user has active orders; cancel them before deletion")
		}

		if err := userRepo.Delete(ctx, userID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete user")
		}
		return nil
	})
}

// CancelAllOrders sets every non-terminal order on either side of the
// user to CANCELLED. Admin only. Returns the number of orders affected.
func (s *Service) CancelAllOrders(ctx context.Context, actor authz.Actor, userID uuid.UUID) (int64, error) {
	if actor.Role != enums.RoleAdmin {
		return 0, pkgerrors.New(pkgerrors.CodeForbidden, "admin role required")
	}
	if userID == uuid.Nil {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}

	var affected int64
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		userRepo := s.repo.WithTx(tx)
		orderRepo := s.ordersRepo.WithTx(tx)

		if _, err := userRepo.FindByID(ctx, userID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "find user")
		}

		count, err := orderRepo.CancelActiveByUser(ctx, userID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "cancel orders")
		}
		affected = count
		return nil
	})
	if err != nil {
		return 0, err
	}
	return affected, nil
}
