package orders

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mraihanfauzii/marketplace-backend/internal/authz"
	"github.com/mraihanfauzii/marketplace-backend/pkg/db/models"
	"github.com/mraihanfauzii/marketplace-backend/pkg/enums"
	pkgerrors "github.com/mraihanfauzii/marketplace-backend/pkg/errors"
	"github.com/mraihanfauzii/marketplace-backend/pkg/metrics"
	"github.com/mraihanfauzii/marketplace-backend/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// TransitionInput carries an order action request.
type TransitionInput struct {
	OrderID      uuid.UUID
	Action       enums.OrderAction
	TargetStatus *enums.OrderStatus
	Actor        authz.Actor
}

// Service exposes order reads and the status transition machine.
type Service interface {
	Transition(ctx context.Context, input TransitionInput) (*models.Order, error)
	Get(ctx context.Context, actor authz.Actor, orderID uuid.UUID) (*models.Order, error)
	ListForBuyer(ctx context.Context, actor authz.Actor, params pagination.Params) (*OrderList, error)
	ListForStore(ctx context.Context, actor authz.Actor, params pagination.Params) (*OrderList, error)
	ListAll(ctx context.Context, actor authz.Actor, params pagination.Params) (*OrderList, error)
}

type service struct {
	repo    Repository
	tx      txRunner
	metrics *metrics.OrderMetrics
}

// NewService builds an orders service with the required dependencies.
func NewService(repo Repository, tx txRunner, collector *metrics.OrderMetrics) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repo, tx: tx, metrics: collector}, nil
}

// Transition re-reads the order inside the transaction so concurrent actions
// observe each other's committed status before the decision is evaluated.
func (s *service) Transition(ctx context.Context, input TransitionInput) (*models.Order, error) {
	if input.OrderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if input.Actor.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if !input.Action.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "unknown order action")
	}

	var updated *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		order, err := repo.FindByID(ctx, input.OrderID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
		}

		target, err := authz.DecideTransition(input.Actor, order, input.Action, input.TargetStatus)
		if err != nil {
			s.metrics.IncRejection(input.Action.String())
			return err
		}

		if order.Status != target {
			if err := repo.UpdateStatus(ctx, order.ID, target); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order status")
			}
		}
		order.Status = target
		updated = order

		s.metrics.IncTransition(input.Action.String(), target.String())
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *service) Get(ctx context.Context, actor authz.Actor, orderID uuid.UUID) (*models.Order, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	if !authz.CanViewOrder(actor, order) {
		// Hide existence from actors with no relationship to the order.
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	return order, nil
}

func (s *service) ListForBuyer(ctx context.Context, actor authz.Actor, params pagination.Params) (*OrderList, error) {
	if actor.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	list, err := s.repo.ListByBuyer(ctx, actor.UserID, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list buyer orders")
	}
	return list, nil
}

func (s *service) ListForStore(ctx context.Context, actor authz.Actor, params pagination.Params) (*OrderList, error) {
	if actor.Role != enums.RoleSeller || actor.StoreID == nil {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "store context missing")
	}
	list, err := s.repo.ListByStore(ctx, *actor.StoreID, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list store orders")
	}
	return list, nil
}

func (s *service) ListAll(ctx context.Context, actor authz.Actor, params pagination.Params) (*OrderList, error) {
	if actor.Role != enums.RoleAdmin {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "admin role required")
	}
	list, err := s.repo.ListAll(ctx, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	return list, nil
}
