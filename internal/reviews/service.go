package reviews

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
	"github.com/mraihanfauzii/marketplace-backend/pkg/metrics"
	"github.com/mraihanfauzii/marketplace-backend/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// SubmitInput carries a buyer's review for one line of a delivered order.
type SubmitInput struct {
	OrderID   uuid.UUID
	ProductID uuid.UUID
	Rating    int
	Comment   *string
}

// Service owns review submission. Creating a review and completing its
// order happen in one transaction: a review never exists against an
// order that is not COMPLETED.
type Service struct {
	repo       Repository
	ordersRepo orders.Repository
	tx         txRunner
	metrics    *metrics.OrderMetrics
}

func NewService(repo Repository, ordersRepo orders.Repository, tx txRunner, m *metrics.OrderMetrics) (*Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("reviews: repository is required")
	}
	if ordersRepo == nil {
		return nil, fmt.Errorf("reviews: orders repository is required")
	}
	if tx == nil {
		return nil, fmt.Errorf("reviews: tx runner is required")
	}
	return &Service{repo: repo, ordersRepo: ordersRepo, tx: tx, metrics: m}, nil
}

// Submit creates the review and flips the order to COMPLETED atomically.
func (s *Service) Submit(ctx context.Context, actor authz.Actor, input SubmitInput) (*models.Review, error) {
	if input.OrderID == uuid.Nil || input.ProductID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id and product id are required")
	}
	if input.Rating < 1 || input.Rating > 5 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "rating must be between 1 and 5")
	}

	var created *models.Review
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		reviewRepo := s.repo.WithTx(tx)
		orderRepo := s.ordersRepo.WithTx(tx)

		order, err := orderRepo.FindByID(ctx, input.OrderID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "find order")
		}

		if order.UserID != actor.UserID || actor.Role != enums.RoleBuyer {
			return rejectSubmission("actor is not the order's buyer")
		}
		if order.Status != enums.OrderStatusWaitingForReview {
			return rejectSubmission(fmt.Sprintf("order is %s, not awaiting review", order.Status))
		}
		if !orderContainsProduct(order, input.ProductID) {
			return rejectSubmission("product is not part of the order")
		}

		review := &models.Review{
			OrderID:   order.ID,
			ProductID: input.ProductID,
			UserID:    actor.UserID,
			Rating:    input.Rating,
			Comment:   input.Comment,
		}
		created, err = reviewRepo.Create(ctx, review)
		if err != nil {
			if pkgerrors.IsUniqueViolation(err, "reviews_order_id_key") {
				return pkgerrors.New(pkgerrors.CodeConflict, "order already reviewed")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create review")
		}

		if err := orderRepo.UpdateStatus(ctx, order.ID, enums.OrderStatusCompleted); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "complete order")
		}
		return nil
	})
	if err != nil {
		if typed := pkgerrors.As(err); typed != nil && typed.Code() == pkgerrors.CodeStateConflict {
			s.metrics.IncRejection("SUBMIT_REVIEW")
		}
		return nil, err
	}

	s.metrics.IncTransition("SUBMIT_REVIEW", string(enums.OrderStatusCompleted))
	return created, nil
}

// ListByProduct returns a cursor page of a product's reviews. Public read.
func (s *Service) ListByProduct(ctx context.Context, productID uuid.UUID, params pagination.Params) (*ReviewList, error) {
	if productID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	list, err := s.repo.ListByProduct(ctx, productID, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list reviews")
	}
	return list, nil
}

func orderContainsProduct(order *models.Order, productID uuid.UUID) bool {
	for _, item := range order.Items {
		if item.ProductID == productID {
			return true
		}
	}
	return false
}

// rejectSubmission mirrors the order-flow rejection: callers see one
// generic message whether the status or the actor was wrong.
func rejectSubmission(internal string) error {
	return pkgerrors.New(pkgerrors.CodeStateConflict, internal)
}
