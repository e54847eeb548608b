package httpx

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/jcmexdev/storefront/internal/api-gateway/infra/httpx/middlewares"
	order "github.com/jcmexdev/storefront/internal/order-service/domain"
)

// CreateOrder places an order from an explicit payload. Clients may send
// X-Idempotency-Key to make retries safe.
func (h *Handler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var req CreateOrderRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	in := order.CreateOrderInput{
		TotalPrice:     req.TotalPrice,
		FullName:       req.FullName,
		Email:          req.Email,
		Address:        req.Address,
		ShippingMethod: req.ShippingMethod,
		PhoneNumber:    req.PhoneNumber,
		Items:          make([]order.ItemInput, 0, len(req.Items)),
	}
	for _, it := range req.Items {
		in.Items = append(in.Items, order.ItemInput{ProductID: it.productID(), Quantity: it.Quantity})
	}

	ctx := r.Context()
	slog.InfoContext(ctx, "creating order", "request_id", middlewares.RequestID(ctx), "items", len(in.Items))

	o, err := h.orders.CreateOrder(ctx, middlewares.IdempotencyKey(ctx), in)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"success": true,
		"message": "Order is created successfully",
		"order":   mapOrder(o),
	})
}

func (h *Handler) GetAllOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.orders.GetAllOrders(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "orders": mapOrders(orders)})
}

func (h *Handler) GetOrderByID(w http.ResponseWriter, r *http.Request) {
	o, err := h.orders.GetSpecificOrder(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "order": mapOrder(o)})
}

func (h *Handler) GetOrderEvents(w http.ResponseWriter, r *http.Request) {
	events, err := h.orders.OrderEvents(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "events": mapEvents(events)})
}

func (h *Handler) AcceptPayment(w http.ResponseWriter, r *http.Request) {
	o, err := h.orders.AcceptPayment(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Payment accepted",
		"order":   mapOrder(o),
	})
}
