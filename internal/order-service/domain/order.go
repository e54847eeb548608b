package domain

import (
	"errors"
	"time"
)

var (
	ErrOrderNotFound = errors.New("order not found")
	// ErrCreateInProgress means another request holding the same
	// idempotency key has not finished yet.
	ErrCreateInProgress = errors.New("an order with this idempotency key is still being created")
)

type Order struct {
	ID             string
	Total          float64
	Name           string
	Email          string
	Address        string
	ShippingMethod string
	PhoneNumber    string
	PaymentStatus  PaymentStatus
	OrderStatus    OrderStatus
	CreatedAt      time.Time
	Items          []OrderItem
}

type OrderItem struct {
	ID        string
	ProductID string
	Quantity  int
	// Product is nil when the product was removed from the catalog after
	// the order was placed.
	Product *Product
}

// Product is the catalog data joined onto an order line.
type Product struct {
	ID          string
	Name        string
	Description string
	ImageURL    string
	Price       float64
}

func (i OrderItem) Subtotal() float64 {
	if i.Product == nil {
		return 0
	}
	return float64(i.Quantity) * i.Product.Price
}

type OrderStatus string

const (
	StatusPending   OrderStatus = "PENDING"
	StatusAccepted  OrderStatus = "ACCEPTED"
	StatusCancelled OrderStatus = "CANCELLED"
)

type PaymentStatus string

const (
	PaymentPending PaymentStatus = "PENDING"
	PaymentPaid    PaymentStatus = "PAID"
)

// CreateOrderInput is the checkout payload submitted by a customer.
type CreateOrderInput struct {
	TotalPrice     float64
	FullName       string
	Email          string
	Address        string
	ShippingMethod string
	PhoneNumber    string
	Items          []ItemInput
}

type ItemInput struct {
	ProductID string
	Quantity  int
}

// MissingFields lists the required fields that are absent, in payload order.
func (in CreateOrderInput) MissingFields() []string {
	var missing []string
	if in.TotalPrice <= 0 {
		missing = append(missing, "totalPrice")
	}
	for _, f := range []struct{ name, value string }{
		{"fullName", in.FullName},
		{"email", in.Email},
		{"address", in.Address},
		{"shippingMethod", in.ShippingMethod},
		{"phoneNumber", in.PhoneNumber},
	} {
		if f.value == "" {
			missing = append(missing, f.name)
		}
	}
	if len(in.Items) == 0 {
		missing = append(missing, "items")
	}
	return missing
}

// ProductIDs returns the distinct product ids referenced by the items.
func (in CreateOrderInput) ProductIDs() []string {
	seen := make(map[string]struct{}, len(in.Items))
	ids := make([]string, 0, len(in.Items))
	for _, it := range in.Items {
		if _, ok := seen[it.ProductID]; ok {
			continue
		}
		seen[it.ProductID] = struct{}{}
		ids = append(ids, it.ProductID)
	}
	return ids
}
