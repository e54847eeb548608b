// Package ports declares what the HTTP gateway needs from the services
// behind it.
package ports

import (
	"context"
	"io"

	catalog "github.com/jcmexdev/storefront/internal/catalog-service/domain"
	"github.com/jcmexdev/storefront/internal/coordinator/sagalog"
	order "github.com/jcmexdev/storefront/internal/order-service/domain"
	"github.com/jcmexdev/storefront/internal/pkg/auth"
	"github.com/jcmexdev/storefront/internal/storefront/cart"
	"github.com/jcmexdev/storefront/internal/storefront/checkout"
	"github.com/jcmexdev/storefront/internal/storefront/session"
	userapp "github.com/jcmexdev/storefront/internal/user-service/app"
	user "github.com/jcmexdev/storefront/internal/user-service/domain"
)

type CatalogService interface {
	AddProduct(ctx context.Context, in catalog.NewProduct, image io.Reader) (*catalog.Product, error)
	AllProducts(ctx context.Context) ([]catalog.Product, error)
	AdminViewAllProducts(ctx context.Context) ([]catalog.Product, error)
	GetProduct(ctx context.Context, id string) (*catalog.Product, error)
	UpdateProduct(ctx context.Context, id string, patch catalog.ProductPatch, image io.Reader) (*catalog.Product, error)
	DeleteProduct(ctx context.Context, id string) error
}

type OrderService interface {
	CreateOrder(ctx context.Context, idempotencyKey string, in order.CreateOrderInput) (*order.Order, error)
	GetAllOrders(ctx context.Context) ([]order.Order, error)
	GetSpecificOrder(ctx context.Context, id string) (*order.Order, error)
	OrderEvents(ctx context.Context, id string) ([]order.Event, error)
	AcceptPayment(ctx context.Context, id string) (*order.Order, error)
}

type UserService interface {
	Register(ctx context.Context, in user.Registration) (*user.User, error)
	Login(ctx context.Context, in user.Credentials) (*userapp.Session, error)
	Me(ctx context.Context, userID string) (*user.User, error)
}

// SessionStore keeps per-shopper state between requests.
type SessionStore interface {
	LoadCart(ctx context.Context, sid string) (*cart.Cart, error)
	SaveCart(ctx context.Context, sid string, c *cart.Cart) error
	LoadCheckout(ctx context.Context, sid string) (*checkout.Checkout, error)
	SaveCheckout(ctx context.Context, sid string, c *checkout.Checkout) error
	LoadProfile(ctx context.Context, sid string) (*session.Profile, error)
	SaveProfile(ctx context.Context, sid string, p session.Profile) error
	ClearProfile(ctx context.Context, sid string) error
}

type CheckoutSubmitter interface {
	Submit(ctx context.Context, sid, idempotencyKey string) (*order.Order, string, error)
}

// SagaLog reads back checkout submission state.
type SagaLog interface {
	Latest(ctx context.Context, sagaID string) (*sagalog.Entry, error)
}

type TokenVerifier interface {
	Parse(token string) (*auth.Claims, error)
}

// HealthCheck reports whether one dependency is reachable.
type HealthCheck func(ctx context.Context) error
