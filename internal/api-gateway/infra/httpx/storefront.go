package httpx

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/jcmexdev/storefront/internal/api-gateway/infra/httpx/middlewares"
	"github.com/jcmexdev/storefront/internal/coordinator/sagalog"
	"github.com/jcmexdev/storefront/internal/pkg/apperr"
	"github.com/jcmexdev/storefront/internal/storefront/cart"
	"github.com/jcmexdev/storefront/internal/storefront/checkout"
)

// ---- cart ----

func (h *Handler) GetCart(w http.ResponseWriter, r *http.Request) {
	c, err := h.sessions.LoadCart(r.Context(), middlewares.SessionID(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.writeCart(w, c)
}

// AddCartItem adds one unit of a catalog product. The price is taken from
// the catalog, never from the client.
func (h *Handler) AddCartItem(w http.ResponseWriter, r *http.Request) {
	var req AddCartItemRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if req.ProductID == "" {
		writeError(w, r, apperr.Validation("productId is required"))
		return
	}

	p, err := h.catalog.GetProduct(r.Context(), req.ProductID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	h.updateCart(w, r, func(c *cart.Cart) error {
		c.AddProduct(cart.Product{
			ID:          p.ID,
			Name:        p.Name,
			Description: p.Description,
			ImageURL:    p.ImageURL,
			Price:       decimal.NewFromFloat(p.Price),
		})
		return nil
	})
}

func (h *Handler) RemoveCartItem(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "productId")
	h.updateCart(w, r, func(c *cart.Cart) error {
		c.RemoveProduct(id)
		return nil
	})
}

func (h *Handler) IncrementCartItem(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "productId")
	h.updateCart(w, r, func(c *cart.Cart) error {
		c.AddQuantity(id)
		return nil
	})
}

func (h *Handler) DecrementCartItem(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "productId")
	h.updateCart(w, r, func(c *cart.Cart) error {
		c.DecrementQuantity(id)
		return nil
	})
}

func (h *Handler) ClearCart(w http.ResponseWriter, r *http.Request) {
	h.updateCart(w, r, func(c *cart.Cart) error {
		c.RemoveAllProducts()
		return nil
	})
}

func (h *Handler) SetShippingPrice(w http.ResponseWriter, r *http.Request) {
	var req ShippingPriceRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if req.ShippingPrice == nil || *req.ShippingPrice < 0 {
		writeError(w, r, apperr.Validation("shippingPrice must be a non-negative number"))
		return
	}

	h.updateCart(w, r, func(c *cart.Cart) error {
		c.SetShippingPrice(decimal.NewFromFloat(*req.ShippingPrice))
		return nil
	})
}

func (h *Handler) updateCart(w http.ResponseWriter, r *http.Request, mutate func(*cart.Cart) error) {
	ctx := r.Context()
	sid := middlewares.SessionID(ctx)

	c, err := h.sessions.LoadCart(ctx, sid)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := mutate(c); err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.sessions.SaveCart(ctx, sid, c); err != nil {
		writeError(w, r, err)
		return
	}
	h.writeCart(w, c)
}

func (h *Handler) writeCart(w http.ResponseWriter, c *cart.Cart) {
	writeJSON(w, http.StatusOK, map[string]any{
		"success":    true,
		"cart":       c.Snapshot(),
		"grandTotal": c.GrandTotal().InexactFloat64(),
	})
}

// ---- checkout ----

func (h *Handler) GetCheckout(w http.ResponseWriter, r *http.Request) {
	co, err := h.sessions.LoadCheckout(r.Context(), middlewares.SessionID(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "checkout": co.Snapshot()})
}

func (h *Handler) SetCheckoutStage(w http.ResponseWriter, r *http.Request) {
	var req StageRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	h.updateCheckout(w, r, func(co *checkout.Checkout) error {
		err := co.MoveTo(checkout.Stage(req.Stage))
		if errors.Is(err, checkout.ErrInvalidTransition) {
			return apperr.Conflict(err)
		}
		return err
	})
}

func (h *Handler) SetCheckoutInfo(w http.ResponseWriter, r *http.Request) {
	var info checkout.Info
	if err := decodeJSON(w, r, &info); err != nil {
		writeError(w, r, err)
		return
	}

	h.updateCheckout(w, r, func(co *checkout.Checkout) error {
		co.SetCheckoutInfo(info)
		return nil
	})
}

func (h *Handler) SetShippingMethod(w http.ResponseWriter, r *http.Request) {
	var req ShippingMethodRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	h.updateCheckout(w, r, func(co *checkout.Checkout) error {
		co.SetShippingMethod(req.ShippingMethod)
		return nil
	})
}

func (h *Handler) UpdateFinalAmount(w http.ResponseWriter, r *http.Request) {
	var req FinalAmountRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if req.FinalAmount == nil || *req.FinalAmount < 0 {
		writeError(w, r, apperr.Validation("finalAmount must be a non-negative number"))
		return
	}

	h.updateCheckout(w, r, func(co *checkout.Checkout) error {
		co.UpdateFinalAmount(decimal.NewFromFloat(*req.FinalAmount))
		return nil
	})
}

func (h *Handler) ClearCheckout(w http.ResponseWriter, r *http.Request) {
	h.updateCheckout(w, r, func(co *checkout.Checkout) error {
		co.Clear()
		return nil
	})
}

// HeaderXSagaID names the submission saga so a failed checkout can be
// looked up by an admin.
const HeaderXSagaID = "X-Saga-Id"

// SubmitCheckout turns the session into an order.
func (h *Handler) SubmitCheckout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	o, sagaID, err := h.submitter.Submit(ctx, middlewares.SessionID(ctx), middlewares.IdempotencyKey(ctx))
	if sagaID != "" {
		w.Header().Set(HeaderXSagaID, sagaID)
	}
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"success": true,
		"message": "Order is created successfully",
		"order":   mapOrder(o),
		"sagaId":  sagaID,
	})
}

// SagaStatus returns the latest state of a checkout submission.
func (h *Handler) SagaStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	e, err := h.sagas.Latest(r.Context(), id)
	if errors.Is(err, sagalog.ErrSagaNotFound) {
		err = apperr.NotFound("saga %s not found", id)
	}
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "saga": mapSaga(e)})
}

func (h *Handler) updateCheckout(w http.ResponseWriter, r *http.Request, mutate func(*checkout.Checkout) error) {
	ctx := r.Context()
	sid := middlewares.SessionID(ctx)

	co, err := h.sessions.LoadCheckout(ctx, sid)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := mutate(co); err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.sessions.SaveCheckout(ctx, sid, co); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "checkout": co.Snapshot()})
}
