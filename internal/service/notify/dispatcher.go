package notify

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/DummAir/DummAirApp-sub001/internal/domain"
	"github.com/DummAir/DummAirApp-sub001/internal/kafka"
	"github.com/DummAir/DummAirApp-sub001/internal/repository"
)

// Event is one lifecycle occurrence to fan out: at most one email and, when
// the order belongs to a registered user, one in-app notification.
type Event struct {
	Type          domain.NotificationType
	Order         *domain.Order
	Recipient     string
	RecipientName string
	OwnerID       string
	ActionURL     string
}

type Cache interface {
	AcquireDispatchLock(ctx context.Context, orderID, eventType string, ttl time.Duration) (bool, error)
}

type Producer interface {
	Publish(ctx context.Context, topic, key string, value interface{}) error
}

type Dispatcher struct {
	notifications repository.NotificationRepository
	cache         Cache
	producer      Producer
	topic         string
	dedupeTTL     time.Duration
}

type DispatcherOption func(*Dispatcher)

func WithDedupeTTL(ttl time.Duration) DispatcherOption {
	return func(d *Dispatcher) { d.dedupeTTL = ttl }
}

func NewDispatcher(notifications repository.NotificationRepository, cache Cache, producer Producer, topic string, opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{
		notifications: notifications,
		cache:         cache,
		producer:      producer,
		topic:         topic,
		dedupeTTL:     24 * time.Hour,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Dispatch performs the side effects for one event. Every effect is
// best-effort: failures are logged and never surfaced, so a broken email
// pipeline cannot roll back the status transition that triggered it.
func (d *Dispatcher) Dispatch(ctx context.Context, event Event) {
	if event.Order != nil && d.cache != nil {
		ok, err := d.cache.AcquireDispatchLock(ctx, event.Order.ID, string(event.Type), d.dedupeTTL)
		if err != nil {
			// Fail open: a missing dedupe lock risks a duplicate email,
			// dropping the event risks sending none at all.
			log.Printf("dispatch lock %s/%s: %v", event.Order.ID, event.Type, err)
		} else if !ok {
			log.Printf("dispatch %s for order %s already performed, skipping", event.Type, event.Order.ID)
			return
		}
	}

	if event.OwnerID != "" {
		n := d.inAppNotification(event)
		if err := d.notifications.Create(ctx, n); err != nil {
			log.Printf("create notification %s for user %s: %v", event.Type, event.OwnerID, err)
		}
	}

	if d.producer != nil && d.topic != "" && event.Recipient != "" {
		msg := kafka.NotificationEvent{
			Type:      string(event.Type),
			Email:     event.Recipient,
			Name:      event.RecipientName,
			ActionURL: event.ActionURL,
		}
		key := event.Recipient
		if event.Order != nil {
			msg.OrderID = event.Order.ID
			msg.OrderNumber = event.Order.OrderNumber
			msg.AmountCents = event.Order.AmountCents
			msg.Currency = event.Order.Currency
			if event.Order.TicketURL != nil {
				msg.TicketURL = *event.Order.TicketURL
			}
			key = event.Order.ID
		}
		if err := d.producer.Publish(ctx, d.topic, key, msg); err != nil {
			log.Printf("publish %s event: %v", event.Type, err)
		}
	}
}

func (d *Dispatcher) inAppNotification(event Event) *domain.Notification {
	n := &domain.Notification{
		UserID:    event.OwnerID,
		Type:      event.Type,
		ActionURL: event.ActionURL,
	}

	var number string
	if event.Order != nil {
		n.OrderID = &event.Order.ID
		number = event.Order.OrderNumber
		if n.ActionURL == "" {
			n.ActionURL = "/orders/" + event.Order.ID
		}
	}

	switch event.Type {
	case domain.NotificationOrderCreated:
		n.Title = "Order received"
		n.Message = fmt.Sprintf("Your order %s was created and is awaiting payment.", number)
	case domain.NotificationPaymentConfirmed:
		n.Title = "Payment confirmed"
		n.Message = fmt.Sprintf("We received your payment for order %s.", number)
	case domain.NotificationTicketReady, domain.NotificationTicketUploaded:
		n.Title = "Ticket ready"
		n.Message = fmt.Sprintf("Your ticket for order %s is ready to download.", number)
	case domain.NotificationOrderCompleted:
		n.Title = "Order completed"
		n.Message = fmt.Sprintf("Your order %s is complete.", number)
	case domain.NotificationPaymentReminder:
		n.Title = "Payment pending"
		n.Message = fmt.Sprintf("Order %s is still awaiting payment.", number)
	default:
		n.Title = "Account update"
		n.Message = "There is an update on your account."
	}
	return n
}
