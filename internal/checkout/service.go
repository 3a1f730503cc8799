package checkout

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mraihanfauzii/marketplace-backend/internal/cart"
	"github.com/mraihanfauzii/marketplace-backend/internal/orders"
	"github.com/mraihanfauzii/marketplace-backend/pkg/db/models"
	"github.com/mraihanfauzii/marketplace-backend/pkg/enums"
	pkgerrors "github.com/mraihanfauzii/marketplace-backend/pkg/errors"
	"github.com/mraihanfauzii/marketplace-backend/pkg/metrics"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Input carries the buyer's shipping selection. The cost is client-supplied
// and applied once per created order, not once per checkout.
type Input struct {
	ShippingMethod string
	ShippingCost   int64
}

// Service converts a buyer's cart into per-store orders.
type Service interface {
	Execute(ctx context.Context, userID uuid.UUID, input Input) ([]models.Order, error)
}

type service struct {
	cartRepo   cart.Repository
	ordersRepo orders.Repository
	tx         txRunner
	metrics    *metrics.OrderMetrics
}

// NewService builds a checkout service with the required dependencies.
func NewService(cartRepo cart.Repository, ordersRepo orders.Repository, tx txRunner, collector *metrics.OrderMetrics) (Service, error) {
	if cartRepo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if ordersRepo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{
		cartRepo:   cartRepo,
		ordersRepo: ordersRepo,
		tx:         tx,
		metrics:    collector,
	}, nil
}

// Execute partitions the cart by store, creates one order per store with
// price-snapshotted items, and empties the cart. All of it commits or none
// of it does.
func (s *service) Execute(ctx context.Context, userID uuid.UUID, input Input) ([]models.Order, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if input.ShippingCost < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "shipping cost cannot be negative")
	}

	var created []models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		cartRepo := s.cartRepo.WithTx(tx)
		ordersRepo := s.ordersRepo.WithTx(tx)

		items, err := cartRepo.ListByUser(ctx, userID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
		}
		if len(items) == 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
		}

		grouped, storeOrder, err := groupByStore(items)
		if err != nil {
			return err
		}

		for _, storeID := range storeOrder {
			storeItems := grouped[storeID]

			subtotal := int64(0)
			for _, item := range storeItems {
				subtotal += item.Product.Price * int64(item.Quantity)
			}

			order, err := ordersRepo.Create(ctx, &models.Order{
				UserID:         userID,
				StoreID:        storeID,
				Status:         enums.OrderStatusWaitingForPayment,
				TotalAmount:    subtotal + input.ShippingCost,
				ShippingMethod: input.ShippingMethod,
				ShippingCost:   input.ShippingCost,
			})
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order")
			}

			lines := make([]models.OrderItem, 0, len(storeItems))
			for _, item := range storeItems {
				lines = append(lines, models.OrderItem{
					OrderID:   order.ID,
					ProductID: item.ProductID,
					Quantity:  item.Quantity,
					Price:     item.Product.Price,
				})
			}
			if err := ordersRepo.CreateItems(ctx, lines); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order items")
			}

			order.Items = lines
			created = append(created, *order)
		}

		if err := cartRepo.DeleteAllForUser(ctx, userID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear cart")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.ObserveCheckout(len(created))
	return created, nil
}

// groupByStore partitions cart items by their product's store, preserving a
// stable store ordering for deterministic output.
func groupByStore(items []models.CartItem) (map[uuid.UUID][]models.CartItem, []uuid.UUID, error) {
	grouped := make(map[uuid.UUID][]models.CartItem)
	for _, item := range items {
		if item.Product == nil {
			return nil, nil, pkgerrors.New(pkgerrors.CodeInternal, "cart item missing product")
		}
		grouped[item.Product.StoreID] = append(grouped[item.Product.StoreID], item)
	}

	order := make([]uuid.UUID, 0, len(grouped))
	for storeID := range grouped {
		order = append(order, storeID)
	}
	sort.Slice(order, func(i, j int) bool {
		return order[i].String() < order[j].String()
	})
	return grouped, order, nil
}
