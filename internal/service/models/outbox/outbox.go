package outbox

import (
	"time"
)

// Queue and routing keys for order lifecycle events.
const (
	QueueOrderEvents = "oms.order.events"

	RoutingKeyOrderCreated   = "order.created"
	RoutingKeyOrderPaid      = "order.paid"
	RoutingKeyOrderDelivered = "order.delivered"
)

// Message is a pending event written in the same transaction as the state
// change it announces. A background worker publishes and deletes it.
type Message struct {
	ID           int64
	QueueName    string
	ExchangeName string
	RoutingKey   string
	Payload      []byte
	ContentType  string
	RetryCount   int
	MaxRetries   int
	LastError    string
	CreatedAt    time.Time
	UpdatedAt    time.Time
	NextRetryAt  time.Time
}

// NewOrderEvent builds a lifecycle event message bound to the order events
// queue with a JSON payload.
func NewOrderEvent(routingKey string, payload []byte, now time.Time) Message {
	return Message{
		QueueName:   QueueOrderEvents,
		RoutingKey:  routingKey,
		Payload:     payload,
		ContentType: "application/json",
		MaxRetries:  10,
		CreatedAt:   now,
		UpdatedAt:   now,
		NextRetryAt: now,
	}
}
