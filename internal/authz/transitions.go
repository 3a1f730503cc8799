package authz

import (
	"github.com/google/uuid"

	"github.com/mraihanfauzii/marketplace-backend/pkg/db/models"
	"github.com/mraihanfauzii/marketplace-backend/pkg/enums"
	pkgerrors "github.com/mraihanfauzii/marketplace-backend/pkg/errors"
)

// Actor identifies the authenticated principal evaluating an order action.
type Actor struct {
	UserID  uuid.UUID
	Role    enums.Role
	StoreID *uuid.UUID
}

// OwnsStore reports whether the actor controls the given store.
func (a Actor) OwnsStore(storeID uuid.UUID) bool {
	return a.StoreID != nil && *a.StoreID == storeID
}

// DecideTransition resolves the status an order moves to when the actor applies
// the action, or rejects the combination. AdminTarget is only consulted for
// ADMIN_UPDATE_STATUS. Every rejection carries the same public message so
// callers cannot probe which check failed.
func DecideTransition(actor Actor, order *models.Order, action enums.OrderAction, adminTarget *enums.OrderStatus) (enums.OrderStatus, error) {
	if order == nil {
		return "", pkgerrors.New(pkgerrors.CodeInternal, "order required")
	}

	switch action {
	case enums.OrderActionConfirmPayment:
		return buyerStep(actor, order, enums.OrderStatusWaitingForPayment, enums.OrderStatusWaitingForStoreConfirmation)

	case enums.OrderActionAcceptOrder:
		return storeStep(actor, order, enums.OrderStatusWaitingForStoreConfirmation, enums.OrderStatusProcessing)

	case enums.OrderActionShipOrder:
		return storeStep(actor, order, enums.OrderStatusProcessing, enums.OrderStatusShipped)

	case enums.OrderActionArriveOrder:
		return storeStep(actor, order, enums.OrderStatusShipped, enums.OrderStatusArrived)

	case enums.OrderActionReceiveOrder:
		return buyerStep(actor, order, enums.OrderStatusArrived, enums.OrderStatusWaitingForReview)

	case enums.OrderActionAdminUpdateStatus:
		if actor.Role != enums.RoleAdmin {
			return "", reject("admin action requires admin role")
		}
		if order.Status.IsTerminal() {
			return "", reject("order already in terminal status")
		}
		if adminTarget == nil || !adminTarget.IsValid() {
			return "", reject("unknown target status")
		}
		return *adminTarget, nil

	case enums.OrderActionAdminCancelOrder:
		if actor.Role != enums.RoleAdmin {
			return "", reject("admin action requires admin role")
		}
		if order.Status.IsTerminal() {
			return "", reject("order already in terminal status")
		}
		return enums.OrderStatusCancelled, nil

	default:
		return "", reject("unknown order action")
	}
}

func buyerStep(actor Actor, order *models.Order, from, to enums.OrderStatus) (enums.OrderStatus, error) {
	if order.UserID != actor.UserID {
		return "", reject("order does not belong to buyer")
	}
	if order.Status != from {
		return "", reject("order not in expected status")
	}
	return to, nil
}

func storeStep(actor Actor, order *models.Order, from, to enums.OrderStatus) (enums.OrderStatus, error) {
	if actor.Role != enums.RoleSeller || !actor.OwnsStore(order.StoreID) {
		return "", reject("order does not belong to store")
	}
	if order.Status != from {
		return "", reject("order not in expected status")
	}
	return to, nil
}

func reject(internal string) error {
	return pkgerrors.New(pkgerrors.CodeStateConflict, internal)
}
