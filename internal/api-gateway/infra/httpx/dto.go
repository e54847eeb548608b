package httpx

import (
	"encoding/json"
	"time"

	catalog "github.com/jcmexdev/storefront/internal/catalog-service/domain"
	"github.com/jcmexdev/storefront/internal/coordinator/sagalog"
	order "github.com/jcmexdev/storefront/internal/order-service/domain"
	"github.com/jcmexdev/storefront/internal/pkg/database"
	user "github.com/jcmexdev/storefront/internal/user-service/domain"
)

// ---- products ----

type ProductResponse struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	ImageURL    string  `json:"imageUrl"`
	Price       float64 `json:"price"`
	CreatedAt   string  `json:"createdAt"`
	UpdatedAt   string  `json:"updatedAt"`
}

type UpdateProductRequest struct {
	Name        *string  `json:"name"`
	Description *string  `json:"description"`
	Price       *float64 `json:"price"`
	ImageURL    *string  `json:"imageUrl"`
}

// ---- orders ----

type CreateOrderRequest struct {
	TotalPrice     float64            `json:"totalPrice"`
	FullName       string             `json:"fullName"`
	Items          []OrderItemRequest `json:"items"`
	Email          string             `json:"email"`
	Address        string             `json:"address"`
	ShippingMethod string             `json:"shippingMethod"`
	PhoneNumber    string             `json:"phoneNumber"`
}

// OrderItemRequest accepts the product id as either "productId" or, as
// cart clients send it, "id".
type OrderItemRequest struct {
	ID        string `json:"id"`
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

func (r OrderItemRequest) productID() string {
	if r.ProductID != "" {
		return r.ProductID
	}
	return r.ID
}

type OrderResponse struct {
	ID             string              `json:"id"`
	Total          float64             `json:"total"`
	Name           string              `json:"name"`
	Email          string              `json:"email"`
	Address        string              `json:"address"`
	ShippingMethod string              `json:"shippingMethod"`
	PhoneNumber    string              `json:"phoneNumber"`
	PaymentStatus  string              `json:"paymentStatus"`
	OrderStatus    string              `json:"orderStatus"`
	CreatedAt      string              `json:"createdAt"`
	Items          []OrderItemResponse `json:"items"`
}

type OrderItemResponse struct {
	ID        string          `json:"id"`
	OrderID   string          `json:"orderId"`
	ProductID string          `json:"productId"`
	Quantity  int             `json:"quantity"`
	Product   *ProductSummary `json:"product"`
}

type ProductSummary struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	ImageURL    string  `json:"imageUrl"`
	Price       float64 `json:"price"`
}

type OrderEventResponse struct {
	Status    string `json:"status"`
	TraceID   string `json:"traceId,omitempty"`
	SpanID    string `json:"spanId,omitempty"`
	CreatedAt string `json:"createdAt"`
}

// ---- users ----

type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UserResponse never carries the password hash.
type UserResponse struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	Role      string `json:"role"`
	Photo     string `json:"photo"`
	CreatedAt string `json:"createdAt"`
}

// ---- cart & checkout ----

type AddCartItemRequest struct {
	ProductID string `json:"productId"`
}

type ShippingPriceRequest struct {
	ShippingPrice *float64 `json:"shippingPrice"`
}

type StageRequest struct {
	Stage string `json:"stage"`
}

type ShippingMethodRequest struct {
	ShippingMethod string `json:"shippingMethod"`
}

type FinalAmountRequest struct {
	FinalAmount *float64 `json:"finalAmount"`
}

type SagaResponse struct {
	ID          string          `json:"id"`
	Status      string          `json:"status"`
	CurrentStep string          `json:"currentStep"`
	Errors      json.RawMessage `json:"errors"`
	TraceID     string          `json:"traceId,omitempty"`
	UpdatedAt   string          `json:"updatedAt"`
}

// ---- mappers ----

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return database.FormatTime(t)
}

func mapProduct(p *catalog.Product) ProductResponse {
	return ProductResponse{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		ImageURL:    p.ImageURL,
		Price:       p.Price,
		CreatedAt:   formatTime(p.CreatedAt),
		UpdatedAt:   formatTime(p.UpdatedAt),
	}
}

func mapProducts(ps []catalog.Product) []ProductResponse {
	out := make([]ProductResponse, len(ps))
	for i := range ps {
		out[i] = mapProduct(&ps[i])
	}
	return out
}

func mapOrder(o *order.Order) OrderResponse {
	items := make([]OrderItemResponse, len(o.Items))
	for i, it := range o.Items {
		items[i] = OrderItemResponse{
			ID:        it.ID,
			OrderID:   o.ID,
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
		}
		if it.Product != nil {
			items[i].Product = &ProductSummary{
				ID:          it.Product.ID,
				Name:        it.Product.Name,
				Description: it.Product.Description,
				ImageURL:    it.Product.ImageURL,
				Price:       it.Product.Price,
			}
		}
	}
	return OrderResponse{
		ID:             o.ID,
		Total:          o.Total,
		Name:           o.Name,
		Email:          o.Email,
		Address:        o.Address,
		ShippingMethod: o.ShippingMethod,
		PhoneNumber:    o.PhoneNumber,
		PaymentStatus:  string(o.PaymentStatus),
		OrderStatus:    string(o.OrderStatus),
		CreatedAt:      formatTime(o.CreatedAt),
		Items:          items,
	}
}

func mapOrders(orders []order.Order) []OrderResponse {
	out := make([]OrderResponse, len(orders))
	for i := range orders {
		out[i] = mapOrder(&orders[i])
	}
	return out
}

func mapEvents(es []order.Event) []OrderEventResponse {
	out := make([]OrderEventResponse, len(es))
	for i, e := range es {
		out[i] = OrderEventResponse{
			Status:    string(e.Status),
			TraceID:   e.TraceID,
			SpanID:    e.SpanID,
			CreatedAt: formatTime(e.CreatedAt),
		}
	}
	return out
}

func mapUser(u *user.User) UserResponse {
	return UserResponse{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		Role:      string(u.Role),
		Photo:     u.Photo,
		CreatedAt: formatTime(u.CreatedAt),
	}
}

func mapSaga(e *sagalog.Entry) SagaResponse {
	errs := json.RawMessage(e.Errors)
	if !json.Valid(errs) {
		errs = json.RawMessage("[]")
	}
	return SagaResponse{
		ID:          e.SagaID,
		Status:      string(e.Status),
		CurrentStep: e.CurrentStep,
		Errors:      errs,
		TraceID:     e.TraceID,
		UpdatedAt:   formatTime(e.UpdatedAt),
	}
}
