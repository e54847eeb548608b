package app

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/jcmexdev/storefront/internal/order-service/domain"
)

// NewEvent builds an audit event stamped with the active span, if any.
func NewEvent(ctx context.Context, orderID string, status domain.OrderStatus, at time.Time) domain.Event {
	e := domain.Event{
		OrderID:   orderID,
		Status:    status,
		CreatedAt: at.UTC(),
	}

	sc := trace.SpanFromContext(ctx).SpanContext()
	if sc.IsValid() {
		e.TraceID = sc.TraceID().String()
		e.SpanID = sc.SpanID().String()
	}
	return e
}

// OrderMessage is the JSON payload published for order events.
type OrderMessage struct {
	OrderID       string        `json:"orderId"`
	Total         float64       `json:"total"`
	Email         string        `json:"email"`
	PaymentStatus string        `json:"paymentStatus"`
	OrderStatus   string        `json:"orderStatus"`
	Items         []MessageItem `json:"items"`
	CreatedAt     time.Time     `json:"createdAt"`
}

type MessageItem struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

func NewOrderMessage(o *domain.Order) OrderMessage {
	items := make([]MessageItem, len(o.Items))
	for i, it := range o.Items {
		items[i] = MessageItem{ProductID: it.ProductID, Quantity: it.Quantity}
	}
	return OrderMessage{
		OrderID:       o.ID,
		Total:         o.Total,
		Email:         o.Email,
		PaymentStatus: string(o.PaymentStatus),
		OrderStatus:   string(o.OrderStatus),
		Items:         items,
		CreatedAt:     o.CreatedAt,
	}
}

// NoopPublisher drops events. Used when no broker is configured.
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, string, string, any) error { return nil }
