package httpx

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/jcmexdev/storefront/internal/api-gateway/core/ports"
	"github.com/jcmexdev/storefront/internal/api-gateway/infra/httpx/middlewares"
)

type RouterConfig struct {
	Tokens ports.TokenVerifier
	// Uploads serves stored product images under /uploads/. Optional.
	Uploads    http.Handler
	SessionTTL time.Duration
}

func NewRouter(handler *Handler, cfg RouterConfig) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middlewares.AttachRequestMetadata)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middlewares.Authenticate(cfg.Tokens))

	r.Get("/healthz", handler.Healthz)
	if cfg.Uploads != nil {
		r.Handle("/uploads/*", http.StripPrefix("/uploads/", cfg.Uploads))
	}

	session := middlewares.Session(handler.cookies.Secure, cfg.SessionTTL)

	r.Route("/api", func(r chi.Router) {
		r.Route("/user", func(r chi.Router) {
			r.Post("/", handler.Register)
			r.With(session).Post("/login", handler.Login)
			r.With(session).Post("/logout", handler.Logout)
			r.With(session).Get("/session", handler.SessionUser)
			r.With(middlewares.RequireUser).Get("/me", handler.Me)
		})

		r.Route("/orders", func(r chi.Router) {
			r.Post("/", handler.CreateOrder)
			r.With(middlewares.RequireAdmin).Get("/all-orders", handler.GetAllOrders)
			r.With(middlewares.RequireAdmin).Put("/accept-payment/{id}", handler.AcceptPayment)
			r.With(middlewares.RequireAdmin).Get("/{id}/events", handler.GetOrderEvents)
			r.Get("/{id}", handler.GetOrderByID)
		})

		r.Route("/products", func(r chi.Router) {
			r.Get("/allProducts", handler.AllProducts)
			r.Group(func(r chi.Router) {
				r.Use(middlewares.RequireAdmin)
				r.Post("/add", handler.AddProduct)
				r.Get("/adminViewAllProducts", handler.AdminViewAllProducts)
				r.Delete("/deleteProduct/{id}", handler.DeleteProduct)
				r.Put("/update-product/{id}", handler.UpdateProduct)
			})
			r.With(middlewares.RequireUser).Get("/{id}", handler.GetProduct)
		})

		r.Route("/cart", func(r chi.Router) {
			r.Use(session)
			r.Get("/", handler.GetCart)
			r.Delete("/", handler.ClearCart)
			r.Post("/items", handler.AddCartItem)
			r.Delete("/items/{productId}", handler.RemoveCartItem)
			r.Post("/items/{productId}/increment", handler.IncrementCartItem)
			r.Post("/items/{productId}/decrement", handler.DecrementCartItem)
			r.Put("/shipping", handler.SetShippingPrice)
		})

		r.Route("/checkout", func(r chi.Router) {
			r.Use(session)
			r.Get("/", handler.GetCheckout)
			r.Delete("/", handler.ClearCheckout)
			r.Put("/stage", handler.SetCheckoutStage)
			r.Put("/info", handler.SetCheckoutInfo)
			r.Put("/shipping-method", handler.SetShippingMethod)
			r.Put("/final-amount", handler.UpdateFinalAmount)
			r.Post("/submit", handler.SubmitCheckout)
			r.With(middlewares.RequireAdmin).Get("/sagas/{id}", handler.SagaStatus)
		})
	})

	return r
}
