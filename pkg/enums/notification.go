package enums

import "fmt"

// NotificationType classifies the lifecycle events that notify customers.
type NotificationType string

const (
	NotificationTypeOrderConfirmed  NotificationType = "order_confirmed"
	NotificationTypeOrderCanceled   NotificationType = "order_canceled"
	NotificationTypeDeliveryUpdated NotificationType = "delivery_updated"
	NotificationTypeLoginOTP        NotificationType = "login_otp"
)

var validNotificationTypes = []NotificationType{
	NotificationTypeOrderConfirmed,
	NotificationTypeOrderCanceled,
	NotificationTypeDeliveryUpdated,
	NotificationTypeLoginOTP,
}

// String implements fmt.Stringer.
func (n NotificationType) String() string {
	return string(n)
}

// IsValid reports whether the value is a known NotificationType.
func (n NotificationType) IsValid() bool {
	for _, candidate := range validNotificationTypes {
		if candidate == n {
			return true
		}
	}
	return false
}

// ParseNotificationType converts raw input into a NotificationType.
func ParseNotificationType(value string) (NotificationType, error) {
	for _, candidate := range validNotificationTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid notification type %q", value)
}
