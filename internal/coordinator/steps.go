package coordinator

import (
	"context"
	"fmt"

	"github.com/jcmexdev/storefront/internal/order-service/domain"
	"github.com/jcmexdev/storefront/internal/storefront/cart"
	"github.com/jcmexdev/storefront/internal/storefront/checkout"
)

type OrderService interface {
	CreateOrder(ctx context.Context, idempotencyKey string, in domain.CreateOrderInput) (*domain.Order, error)
	CancelOrder(ctx context.Context, id string) error
}

type SessionStore interface {
	LoadCart(ctx context.Context, sid string) (*cart.Cart, error)
	SaveCart(ctx context.Context, sid string, c *cart.Cart) error
	LoadCheckout(ctx context.Context, sid string) (*checkout.Checkout, error)
	SaveCheckout(ctx context.Context, sid string, c *checkout.Checkout) error
}

// --- CreateOrderStep ---

type CreateOrderStep struct {
	orders         OrderService
	idempotencyKey string
	input          domain.CreateOrderInput
	order          *domain.Order
}

func NewCreateOrderStep(orders OrderService, idempotencyKey string, input domain.CreateOrderInput) *CreateOrderStep {
	return &CreateOrderStep{orders: orders, idempotencyKey: idempotencyKey, input: input}
}

func (s *CreateOrderStep) Name() string { return "create_order" }

func (s *CreateOrderStep) Execute(ctx context.Context) error {
	order, err := s.orders.CreateOrder(ctx, s.idempotencyKey, s.input)
	if err != nil {
		return err
	}
	s.order = order
	return nil
}

func (s *CreateOrderStep) Compensate(ctx context.Context) error {
	if s.order == nil {
		return nil
	}
	return s.orders.CancelOrder(ctx, s.order.ID)
}

// Order is the order created by Execute, nil before it succeeds.
func (s *CreateOrderStep) Order() *domain.Order { return s.order }

// --- ClearCartStep ---

type ClearCartStep struct {
	sessions SessionStore
	sid      string
	previous *cart.Cart
}

// NewClearCartStep empties the session cart; previous is written back on
// compensation.
func NewClearCartStep(sessions SessionStore, sid string, previous *cart.Cart) *ClearCartStep {
	return &ClearCartStep{sessions: sessions, sid: sid, previous: previous}
}

func (s *ClearCartStep) Name() string { return "clear_cart" }

func (s *ClearCartStep) Execute(ctx context.Context) error {
	if err := s.sessions.SaveCart(ctx, s.sid, cart.New()); err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}
	return nil
}

func (s *ClearCartStep) Compensate(ctx context.Context) error {
	return s.sessions.SaveCart(ctx, s.sid, s.previous)
}

// --- ClearCheckoutStep ---

type ClearCheckoutStep struct {
	sessions SessionStore
	sid      string
	previous *checkout.Checkout
}

func NewClearCheckoutStep(sessions SessionStore, sid string, previous *checkout.Checkout) *ClearCheckoutStep {
	return &ClearCheckoutStep{sessions: sessions, sid: sid, previous: previous}
}

func (s *ClearCheckoutStep) Name() string { return "clear_checkout" }

func (s *ClearCheckoutStep) Execute(ctx context.Context) error {
	cleared := checkout.New()
	cleared.Clear()
	if err := s.sessions.SaveCheckout(ctx, s.sid, cleared); err != nil {
		return fmt.Errorf("clear checkout: %w", err)
	}
	return nil
}

func (s *ClearCheckoutStep) Compensate(ctx context.Context) error {
	return s.sessions.SaveCheckout(ctx, s.sid, s.previous)
}
