// Package events delivers real-time notifications about orders, reservations
// and complaints to the staff dashboard and, optionally, to Kafka.
package events

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Event names understood by the dashboard.
const (
	NameNewNotification     = "new_notification"
	NameStatusUpdate        = "notification_status_update"
	NamePaymentSuccess      = "payment_success"
	EntityTypeOrder         = "order"
	EntityTypeReservation   = "reservation"
	EntityTypeComplaint     = "complaint"
	NotificationOrder       = "pedido"
	NotificationReservation = "reserva"
	NotificationComplaint   = "reclamo"
)

// Event is one named message. Key groups related events (the entity id).
type Event struct {
	Name    string
	Key     string
	Payload any
}

// NewNotification announces a newly created entity.
type NewNotification struct {
	ID           string           `json:"id"`
	EntityID     int64            `json:"entityId"`
	EntityType   string           `json:"entityType"`
	Type         string           `json:"type"`
	Title        string           `json:"title"`
	Message      string           `json:"message"`
	CustomerName string           `json:"customer_name"`
	IsRead       bool             `json:"isRead"`
	CreatedAt    time.Time        `json:"createdAt"`
	Status       string           `json:"status"`
	TotalAmount  *decimal.Decimal `json:"total_amount,omitempty"`
}

// StatusUpdate announces a status change of an existing entity.
type StatusUpdate struct {
	EntityID   int64  `json:"entityId"`
	EntityType string `json:"entityType"`
	Status     string `json:"status"`
}

// PaymentSuccess announces that an online order was paid.
type PaymentSuccess struct {
	OrderID int64 `json:"orderId"`
}

// Publisher delivers events. Delivery is best effort: callers log a
// returned error and carry on.
type Publisher interface {
	Publish(ctx context.Context, ev Event) error
}

// NewNotificationEvent builds a new_notification event with a fresh id.
func NewNotificationEvent(n NewNotification) Event {
	if n.ID == "" {
		n.ID = n.EntityType + "-" + strconv.FormatInt(n.EntityID, 10) + "-" + uuid.NewString()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	}
	n.IsRead = false
	return Event{Name: NameNewNotification, Key: entityKey(n.EntityType, n.EntityID), Payload: n}
}

// StatusUpdateEvent builds a notification_status_update event.
func StatusUpdateEvent(entityType string, entityID int64, status string) Event {
	return Event{
		Name:    NameStatusUpdate,
		Key:     entityKey(entityType, entityID),
		Payload: StatusUpdate{EntityID: entityID, EntityType: entityType, Status: status},
	}
}

// PaymentSuccessEvent builds a payment_success event.
func PaymentSuccessEvent(orderID int64) Event {
	return Event{
		Name:    NamePaymentSuccess,
		Key:     entityKey(EntityTypeOrder, orderID),
		Payload: PaymentSuccess{OrderID: orderID},
	}
}

func entityKey(entityType string, id int64) string {
	return entityType + ":" + strconv.FormatInt(id, 10)
}

// Nop discards every event.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }

// Multi publishes to every publisher and joins their errors.
type Multi []Publisher

func (m Multi) Publish(ctx context.Context, ev Event) error {
	var errs []error
	for _, p := range m {
		if err := p.Publish(ctx, ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
