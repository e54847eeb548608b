package httpx

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/jcmexdev/storefront/internal/api-gateway/core/ports"
	"github.com/jcmexdev/storefront/internal/api-gateway/infra/httpx/respond"
	"github.com/jcmexdev/storefront/internal/pkg/apperr"
)

const maxBodyBytes = 1 << 20

// Handler serves the storefront REST API.
type Handler struct {
	catalog   ports.CatalogService
	orders    ports.OrderService
	users     ports.UserService
	sessions  ports.SessionStore
	submitter ports.CheckoutSubmitter
	sagas     ports.SagaLog
	health    map[string]ports.HealthCheck
	cookies   CookieConfig
}

type CookieConfig struct {
	// Secure marks the token cookie HTTPS-only.
	Secure bool
}

type Deps struct {
	Catalog   ports.CatalogService
	Orders    ports.OrderService
	Users     ports.UserService
	Sessions  ports.SessionStore
	Submitter ports.CheckoutSubmitter
	Sagas     ports.SagaLog
	// Health maps a dependency name to its check for /healthz.
	Health  map[string]ports.HealthCheck
	Cookies CookieConfig
}

func NewHandler(d Deps) *Handler {
	return &Handler{
		catalog:   d.Catalog,
		orders:    d.Orders,
		users:     d.Users,
		sessions:  d.Sessions,
		submitter: d.Submitter,
		sagas:     d.Sagas,
		health:    d.Health,
		cookies:   d.Cookies,
	}
}

// decodeJSON reads a JSON body into v. Unknown fields are ignored.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return apperr.Validation("request body is required")
		}
		return apperr.Validation("invalid JSON body")
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	respond.JSON(w, status, v)
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	respond.Error(w, r, err)
}
