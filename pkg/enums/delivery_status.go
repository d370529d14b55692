package enums

import "fmt"

// DeliveryStatus tracks where an order sits in the kitchen-to-door pipeline.
// transaction_failed is reserved for orders whose payment selection failed
// and is never a valid operator-entered state.
type DeliveryStatus string

const (
	DeliveryStatusReceived          DeliveryStatus = "received"
	DeliveryStatusReady             DeliveryStatus = "ready"
	DeliveryStatusDelivered         DeliveryStatus = "delivered"
	DeliveryStatusTransactionFailed DeliveryStatus = "transaction_failed"
)

var validDeliveryStatuses = []DeliveryStatus{
	DeliveryStatusReceived,
	DeliveryStatusReady,
	DeliveryStatusDelivered,
	DeliveryStatusTransactionFailed,
}

// operatorDeliveryStatuses are the states an operator may set by hand.
var operatorDeliveryStatuses = []DeliveryStatus{
	DeliveryStatusReceived,
	DeliveryStatusReady,
	DeliveryStatusDelivered,
}

// String implements fmt.Stringer.
func (d DeliveryStatus) String() string {
	return string(d)
}

// IsValid reports whether the value is a known DeliveryStatus.
func (d DeliveryStatus) IsValid() bool {
	for _, candidate := range validDeliveryStatuses {
		if candidate == d {
			return true
		}
	}
	return false
}

// IsOperatorSettable reports whether an operator may assign the value directly.
func (d DeliveryStatus) IsOperatorSettable() bool {
	for _, candidate := range operatorDeliveryStatuses {
		if candidate == d {
			return true
		}
	}
	return false
}

// ParseDeliveryStatus converts raw input into a DeliveryStatus.
func ParseDeliveryStatus(value string) (DeliveryStatus, error) {
	for _, candidate := range validDeliveryStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid delivery status %q", value)
}
