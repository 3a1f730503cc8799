package enums

import "fmt"

// OrderStatus tracks the lifecycle of an order. The sequence is strictly
// linear; COMPLETED and CANCELLED are terminal.
type OrderStatus string

const (
	OrderStatusWaitingForPayment           OrderStatus = "WAITING_FOR_PAYMENT"
	OrderStatusWaitingForStoreConfirmation OrderStatus = "WAITING_FOR_STORE_CONFIRMATION"
	OrderStatusProcessing                  OrderStatus = "PROCESSING"
	OrderStatusShipped                     OrderStatus = "SHIPPED"
	OrderStatusArrived                     OrderStatus = "ARRIVED"
	OrderStatusWaitingForReview            OrderStatus = "WAITING_FOR_REVIEW"
	OrderStatusCompleted                   OrderStatus = "COMPLETED"
	OrderStatusCancelled                   OrderStatus = "CANCELLED"
)

var validOrderStatuses = []OrderStatus{
	OrderStatusWaitingForPayment,
	OrderStatusWaitingForStoreConfirmation,
	OrderStatusProcessing,
	OrderStatusShipped,
	OrderStatusArrived,
	OrderStatusWaitingForReview,
	OrderStatusCompleted,
	OrderStatusCancelled,
}

// String implements fmt.Stringer.
func (o OrderStatus) String() string {
	return string(o)
}

// IsValid reports whether the value is a known OrderStatus.
func (o OrderStatus) IsValid() bool {
	for _, candidate := range validOrderStatuses {
		if candidate == o {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transitions are permitted.
func (o OrderStatus) IsTerminal() bool {
	return o == OrderStatusCompleted || o == OrderStatusCancelled
}

// ParseOrderStatus converts raw input into an OrderStatus.
func ParseOrderStatus(value string) (OrderStatus, error) {
	for _, candidate := range validOrderStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid order status %q", value)
}

// TerminalOrderStatuses returns the statuses that end an order's lifecycle.
func TerminalOrderStatuses() []OrderStatus {
	return []OrderStatus{OrderStatusCompleted, OrderStatusCancelled}
}
