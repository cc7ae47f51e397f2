package enums

import "fmt"

// NotificationType maps to the notification_type enum in Postgres.
type NotificationType string

const (
	NotificationTypeSystemAnnouncement NotificationType = "system_announcement"
	NotificationTypeOrderAlert         NotificationType = "order_alert"
	NotificationTypeStockAlert         NotificationType = "stock_alert"
	NotificationTypePromotion          NotificationType = "promotion"
)

var validNotificationTypes = []NotificationType{
	NotificationTypeSystemAnnouncement,
	NotificationTypeOrderAlert,
	NotificationTypeStockAlert,
	NotificationTypePromotion,
}

// IsValid checks whether the given type matches the canonical enum.
func (n NotificationType) IsValid() bool {
	for _, candidate := range validNotificationTypes {
		if candidate == n {
			return true
		}
	}
	return false
}

// ParseNotificationType converts raw strings into NotificationType.
func ParseNotificationType(value string) (NotificationType, error) {
	for _, candidate := range validNotificationTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid notification type %q", value)
}

// NotificationState is the notification lifecycle. Deleted rows stay in the
// table; the state flips instead of a hard delete.
type NotificationState string

const (
	NotificationStateActive  NotificationState = "active"
	NotificationStateDeleted NotificationState = "deleted"
)

var validNotificationStates = []NotificationState{
	NotificationStateActive,
	NotificationStateDeleted,
}

// IsValid checks whether the given state matches the canonical enum.
func (s NotificationState) IsValid() bool {
	for _, candidate := range validNotificationStates {
		if candidate == s {
			return true
		}
	}
	return false
}
