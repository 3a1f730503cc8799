package enums

import "fmt"

// OrderAction identifies a requested order status transition.
type OrderAction string

const (
	OrderActionConfirmPayment    OrderAction = "CONFIRM_PAYMENT"
	OrderActionAcceptOrder       OrderAction = "ACCEPT_ORDER"
	OrderActionShipOrder         OrderAction = "SHIP_ORDER"
	OrderActionArriveOrder       OrderAction = "ARRIVE_ORDER"
	OrderActionReceiveOrder      OrderAction = "RECEIVE_ORDER"
	OrderActionAdminUpdateStatus OrderAction = "ADMIN_UPDATE_STATUS"
	OrderActionAdminCancelOrder  OrderAction = "ADMIN_CANCEL_ORDER"
)

var validOrderActions = []OrderAction{
	OrderActionConfirmPayment,
	OrderActionAcceptOrder,
	OrderActionShipOrder,
	OrderActionArriveOrder,
	OrderActionReceiveOrder,
	OrderActionAdminUpdateStatus,
	OrderActionAdminCancelOrder,
}

// String implements fmt.Stringer.
func (o OrderAction) String() string {
	return string(o)
}

// IsValid reports whether the value is a known OrderAction.
func (o OrderAction) IsValid() bool {
	for _, candidate := range validOrderActions {
		if candidate == o {
			return true
		}
	}
	return false
}

// ParseOrderAction converts raw input into an OrderAction.
func ParseOrderAction(value string) (OrderAction, error) {
	for _, candidate := range validOrderActions {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid order action %q", value)
}
