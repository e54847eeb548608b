package coordinator

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/jcmexdev/storefront/internal/coordinator/sagalog"
	"github.com/jcmexdev/storefront/internal/order-service/domain"
	"github.com/jcmexdev/storefront/internal/pkg/apperr"
	"github.com/jcmexdev/storefront/internal/storefront/checkout"
)

// Submitter places the order for a session that reached the payment stage.
type Submitter struct {
	orders   OrderService
	sessions SessionStore
	log      sagalog.Repository
}

func NewSubmitter(orders OrderService, sessions SessionStore, log sagalog.Repository) *Submitter {
	return &Submitter{orders: orders, sessions: sessions, log: log}
}

// Submit creates an order from the session cart and checkout, then clears
// both. The order total is cart total plus tax plus shipping. sagaID names
// the saga log entries once the saga has started, also on failure.
func (s *Submitter) Submit(ctx context.Context, sid, idempotencyKey string) (order *domain.Order, sagaID string, err error) {
	c, err := s.sessions.LoadCart(ctx, sid)
	if err != nil {
		return nil, "", fmt.Errorf("load cart: %w", err)
	}
	co, err := s.sessions.LoadCheckout(ctx, sid)
	if err != nil {
		return nil, "", fmt.Errorf("load checkout: %w", err)
	}

	if co.Stage() != checkout.StagePayment {
		return nil, "", apperr.Conflict(fmt.Errorf("%w: checkout is at %q, submit needs %q",
			checkout.ErrInvalidTransition, co.Stage(), checkout.StagePayment))
	}
	if c.IsEmpty() {
		return nil, "", apperr.Validation("cart is empty")
	}
	info := co.Info()
	if missing := info.Missing(); len(missing) > 0 {
		return nil, "", apperr.Validation("missing checkout fields: %s", strings.Join(missing, ", "))
	}
	if co.ShippingMethod() == "" {
		return nil, "", apperr.Validation("shipping method is required")
	}

	input := domain.CreateOrderInput{
		TotalPrice:     c.GrandTotal().Round(2).InexactFloat64(),
		FullName:       info.FullName(),
		Email:          info.Email,
		Address:        info.DeliveryAddress(),
		ShippingMethod: co.ShippingMethod(),
		PhoneNumber:    info.Phone,
	}
	for _, it := range c.Items() {
		input.Items = append(input.Items, domain.ItemInput{ProductID: it.ID, Quantity: it.Quantity})
	}

	create := NewCreateOrderStep(s.orders, idempotencyKey, input)
	sagaID = uuid.NewString()
	saga := NewOrchestrator(sagaID, s.log,
		create,
		NewClearCartStep(s.sessions, sid, c),
		NewClearCheckoutStep(s.sessions, sid, co),
	)

	payload, err := json.Marshal(input)
	if err != nil {
		return nil, "", fmt.Errorf("encode saga payload: %w", err)
	}
	if err := saga.Start(ctx, string(payload)); err != nil {
		return nil, sagaID, err
	}
	return create.Order(), sagaID, nil
}
