package domain

import "time"

// Event is one row of the order audit trail. TraceID and SpanID point at
// the request that caused the transition.
type Event struct {
	OrderID   string
	Status    OrderStatus
	TraceID   string
	SpanID    string
	CreatedAt time.Time
}

const (
	TopicOrderCreated         = "order-created"
	TopicOrderPaymentAccepted = "order-payment-accepted"
	TopicOrderCancelled       = "order-cancelled"
)
