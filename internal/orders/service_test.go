package orders

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mraihanfauzii/marketplace-backend/internal/authz"
	"github.com/mraihanfauzii/marketplace-backend/pkg/db/models"
	"github.com/mraihanfauzii/marketplace-backend/pkg/enums"
	pkgerrors "github.com/mraihanfauzii/marketplace-backend/pkg/errors"
	"github.com/mraihanfauzii/marketplace-backend/pkg/pagination"
)

type stubOrdersRepo struct {
	order         *models.Order
	updatedStatus enums.OrderStatus
	updateCalls   int
	findErr       error
}

func (s *stubOrdersRepo) WithTx(tx *gorm.DB) Repository {
	return s
}

func (s *stubOrdersRepo) Create(ctx context.Context, order *models.Order) (*models.Order, error) {
	panic("not implemented")
}

func (s *stubOrdersRepo) CreateItems(ctx context.Context, items []models.OrderItem) error {
	panic("not implemented")
}

func (s *stubOrdersRepo) FindByID(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	if s.findErr != nil {
		return nil, s.findErr
	}
	if s.order == nil || s.order.ID != orderID {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *s.order
	return &copied, nil
}

func (s *stubOrdersRepo) ListByBuyer(ctx context.Context, userID uuid.UUID, params pagination.Params) (*OrderList, error) {
	return &OrderList{}, nil
}

func (s *stubOrdersRepo) ListByStore(ctx context.Context, storeID uuid.UUID, params pagination.Params) (*OrderList, error) {
	return &OrderList{}, nil
}

func (s *stubOrdersRepo) ListAll(ctx context.Context, params pagination.Params) (*OrderList, error) {
	return &OrderList{}, nil
}

func (s *stubOrdersRepo) UpdateStatus(ctx context.Context, orderID uuid.UUID, status enums.OrderStatus) error {
	s.updatedStatus = status
	s.updateCalls++
	s.order.Status = status
	return nil
}

func (s *stubOrdersRepo) CountActiveByUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	return 0, nil
}

func (s *stubOrdersRepo) CancelActiveByUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	return 0, nil
}

type stubTxRunner struct{}

func (stubTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

func newTestOrder(status enums.OrderStatus) (*models.Order, authz.Actor, authz.Actor) {
	buyerID := uuid.New()
	sellerStoreID := uuid.New()
	order := &models.Order{
		ID:      uuid.New(),
		UserID:  buyerID,
		StoreID: sellerStoreID,
		Status:  status,
	}
	buyer := authz.Actor{UserID: buyerID, Role: enums.RoleBuyer}
	seller := authz.Actor{UserID: uuid.New(), Role: enums.RoleSeller, StoreID: &sellerStoreID}
	return order, buyer, seller
}

func TestTransitionConfirmPayment(t *testing.T) {
	order, buyer, _ := newTestOrder(enums.OrderStatusWaitingForPayment)
	repo := &stubOrdersRepo{order: order}
	svc, err := NewService(repo, stubTxRunner{}, nil)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	updated, err := svc.Transition(context.Background(), TransitionInput{
		OrderID: order.ID,
		Action:  enums.OrderActionConfirmPayment,
		Actor:   buyer,
	})
	if err != nil {
		t.Fatalf("transition: %v", err)
	}
	if updated.Status != enums.OrderStatusWaitingForStoreConfirmation {
		t.Fatalf("expected WAITING_FOR_STORE_CONFIRMATION got %s", updated.Status)
	}
	if repo.updatedStatus != enums.OrderStatusWaitingForStoreConfirmation {
		t.Fatalf("status not persisted, got %s", repo.updatedStatus)
	}
}

func TestTransitionRejectsWrongActor(t *testing.T) {
	order, _, seller := newTestOrder(enums.OrderStatusWaitingForPayment)
	repo := &stubOrdersRepo{order: order}
	svc, _ := NewService(repo, stubTxRunner{}, nil)

	// CONFIRM_PAYMENT belongs to the buyer, not the fulfilling store.
	_, err := svc.Transition(context.Background(), TransitionInput{
		OrderID: order.ID,
		Action:  enums.OrderActionConfirmPayment,
		Actor:   seller,
	})
	if err == nil {
		t.Fatal("expected rejection")
	}
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict, got %v", err)
	}
	if repo.updateCalls != 0 {
		t.Fatal("status must not change on rejection")
	}
}

func TestTransitionRejectsSkippedStep(t *testing.T) {
	order, _, seller := newTestOrder(enums.OrderStatusWaitingForStoreConfirmation)
	repo := &stubOrdersRepo{order: order}
	svc, _ := NewService(repo, stubTxRunner{}, nil)

	// SHIP_ORDER requires PROCESSING; the store has not accepted yet.
	_, err := svc.Transition(context.Background(), TransitionInput{
		OrderID: order.ID,
		Action:  enums.OrderActionShipOrder,
		Actor:   seller,
	})
	if err == nil {
		t.Fatal("expected rejection")
	}
	if repo.updateCalls != 0 {
		t.Fatal("status must not change on rejection")
	}
}

func TestTransitionFullLifecycle(t *testing.T) {
	order, buyer, seller := newTestOrder(enums.OrderStatusWaitingForPayment)
	repo := &stubOrdersRepo{order: order}
	svc, _ := NewService(repo, stubTxRunner{}, nil)

	steps := []struct {
		action enums.OrderAction
		actor  authz.Actor
		want   enums.OrderStatus
	}{
		{enums.OrderActionConfirmPayment, buyer, enums.OrderStatusWaitingForStoreConfirmation},
		{enums.OrderActionAcceptOrder, seller, enums.OrderStatusProcessing},
		{enums.OrderActionShipOrder, seller, enums.OrderStatusShipped},
		{enums.OrderActionArriveOrder, seller, enums.OrderStatusArrived},
		{enums.OrderActionReceiveOrder, buyer, enums.OrderStatusWaitingForReview},
	}

	for _, step := range steps {
		updated, err := svc.Transition(context.Background(), TransitionInput{
			OrderID: order.ID,
			Action:  step.action,
			Actor:   step.actor,
		})
		if err != nil {
			t.Fatalf("%s: %v", step.action, err)
		}
		if updated.Status != step.want {
			t.Fatalf("%s: expected %s got %s", step.action, step.want, updated.Status)
		}
	}
}

func TestTransitionAdminCancel(t *testing.T) {
	order, _, _ := newTestOrder(enums.OrderStatusProcessing)
	repo := &stubOrdersRepo{order: order}
	svc, _ := NewService(repo, stubTxRunner{}, nil)
	admin := authz.Actor{UserID: uuid.New(), Role: enums.RoleAdmin}

	updated, err := svc.Transition(context.Background(), TransitionInput{
		OrderID: order.ID,
		Action:  enums.OrderActionAdminCancelOrder,
		Actor:   admin,
	})
	if err != nil {
		t.Fatalf("transition: %v", err)
	}
	if updated.Status != enums.OrderStatusCancelled {
		t.Fatalf("expected CANCELLED got %s", updated.Status)
	}

	// Terminal orders stay put, even for admins.
	_, err = svc.Transition(context.Background(), TransitionInput{
		OrderID: order.ID,
		Action:  enums.OrderActionAdminCancelOrder,
		Actor:   admin,
	})
	if err == nil {
		t.Fatal("expected rejection on terminal order")
	}
}

func TestTransitionUnknownAction(t *testing.T) {
	order, buyer, _ := newTestOrder(enums.OrderStatusWaitingForPayment)
	repo := &stubOrdersRepo{order: order}
	svc, _ := NewService(repo, stubTxRunner{}, nil)

	_, err := svc.Transition(context.Background(), TransitionInput{
		OrderID: order.ID,
		Action:  enums.OrderAction("DO_SOMETHING"),
		Actor:   buyer,
	})
	if err == nil {
		t.Fatal("expected rejection for unknown action")
	}
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict, got %v", err)
	}
}

func TestTransitionMissingOrder(t *testing.T) {
	repo := &stubOrdersRepo{}
	svc, _ := NewService(repo, stubTxRunner{}, nil)

	_, err := svc.Transition(context.Background(), TransitionInput{
		OrderID: uuid.New(),
		Action:  enums.OrderActionConfirmPayment,
		Actor:   authz.Actor{UserID: uuid.New(), Role: enums.RoleBuyer},
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestGetHidesUnrelatedOrders(t *testing.T) {
	order, buyer, _ := newTestOrder(enums.OrderStatusProcessing)
	repo := &stubOrdersRepo{order: order}
	svc, _ := NewService(repo, stubTxRunner{}, nil)

	got, err := svc.Get(context.Background(), buyer, order.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.ID != order.ID {
		t.Fatalf("unexpected order %s", got.ID)
	}

	stranger := authz.Actor{UserID: uuid.New(), Role: enums.RoleBuyer}
	_, err = svc.Get(context.Background(), stranger, order.ID)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found for stranger, got %v", err)
	}
}

func TestListForStoreRequiresStoreContext(t *testing.T) {
	repo := &stubOrdersRepo{}
	svc, _ := NewService(repo, stubTxRunner{}, nil)

	buyer := authz.Actor{UserID: uuid.New(), Role: enums.RoleBuyer}
	_, err := svc.ListForStore(context.Background(), buyer, pagination.Params{})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeForbidden {
		t.Fatalf("expected forbidden, got %v", err)
	}
}
