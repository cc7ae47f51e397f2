package notifications

import (
	"time"

	"github.com/google/uuid"

	"github.com/stockroomhq/stockroom-backend/pkg/db/models"
	"github.com/stockroomhq/stockroom-backend/pkg/enums"
)

// Event is the delivery payload pushed to live streams and device gateways.
// It is the wire format on the Redis bridge channel, so field names are part
// of the cross-instance contract.
type Event struct {
	ID        uuid.UUID              `json:"id"`
	Receiver  string                 `json:"receiver"`
	Sender    string                 `json:"sender"`
	Subject   string                 `json:"subject"`
	Message   string                 `json:"message"`
	Link      *string                `json:"link,omitempty"`
	Type      enums.NotificationType `json:"type"`
	CreatedAt time.Time              `json:"created_at"`
}

// EventFromModel projects a stored notification into its delivery payload.
func EventFromModel(n *models.Notification) Event {
	return Event{
		ID:        n.ID,
		Receiver:  n.Receiver,
		Sender:    n.Sender,
		Subject:   n.Subject,
		Message:   n.Message,
		Link:      n.Link,
		Type:      n.Type,
		CreatedAt: n.CreatedAt,
	}
}

// Broadcast reports whether the event addresses every user.
func (e Event) Broadcast() bool {
	return e.Receiver == BroadcastReceiver
}
