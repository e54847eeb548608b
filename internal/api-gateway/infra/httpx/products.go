package httpx

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	catalog "github.com/jcmexdev/storefront/internal/catalog-service/domain"
	"github.com/jcmexdev/storefront/internal/pkg/apperr"
)

const maxUploadBytes = 10 << 20

// AddProduct accepts multipart/form-data with name, description, price and
// an image file.
func (h *Handler) AddProduct(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, r, apperr.Validation("invalid multipart form"))
		return
	}

	price, err := strconv.ParseFloat(strings.TrimSpace(r.FormValue("price")), 64)
	if err != nil {
		writeError(w, r, apperr.Validation("price must be a number"))
		return
	}

	in := catalog.NewProduct{
		Name:        r.FormValue("name"),
		Description: r.FormValue("description"),
		Price:       price,
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		writeError(w, r, apperr.Validation("image is required"))
		return
	}
	defer file.Close()
	in.ImageName = header.Filename

	p, err := h.catalog.AddProduct(r.Context(), in, file)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"success": true,
		"message": "Product added successfully",
		"product": mapProduct(p),
	})
}

func (h *Handler) AllProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.catalog.AllProducts(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "allProducts": mapProducts(products)})
}

func (h *Handler) AdminViewAllProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.catalog.AdminViewAllProducts(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "allProducts": mapProducts(products)})
}

func (h *Handler) GetProduct(w http.ResponseWriter, r *http.Request) {
	p, err := h.catalog.GetProduct(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "product": mapProduct(p)})
}

// UpdateProduct accepts either a JSON patch or multipart/form-data with
// optional name, description, price and image parts.
func (h *Handler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	var (
		patch catalog.ProductPatch
		image io.Reader
	)

	if isMultipart(r) {
		r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
		if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
			writeError(w, r, apperr.Validation("invalid multipart form"))
			return
		}
		if v, ok := formValue(r, "name"); ok {
			patch.Name = &v
		}
		if v, ok := formValue(r, "description"); ok {
			patch.Description = &v
		}
		if v, ok := formValue(r, "price"); ok {
			price, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
			if err != nil {
				writeError(w, r, apperr.Validation("price must be a number"))
				return
			}
			patch.Price = &price
		}

		file, header, err := r.FormFile("image")
		switch {
		case err == nil:
			defer file.Close()
			image = file
			patch.ImageName = header.Filename
		case !errors.Is(err, http.ErrMissingFile):
			writeError(w, r, apperr.Validation("invalid image upload"))
			return
		}
	} else {
		var req UpdateProductRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, err)
			return
		}
		patch = catalog.ProductPatch{
			Name:        req.Name,
			Description: req.Description,
			Price:       req.Price,
			ImageURL:    req.ImageURL,
		}
	}

	p, err := h.catalog.UpdateProduct(r.Context(), chi.URLParam(r, "id"), patch, image)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Product updated successfully",
		"product": mapProduct(p),
	})
}

func isMultipart(r *http.Request) bool {
	return strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data")
}

// formValue reports whether the form carried the field at all, so an
// absent field leaves the product unchanged.
func formValue(r *http.Request, key string) (string, bool) {
	vs, ok := r.MultipartForm.Value[key]
	if !ok || len(vs) == 0 {
		return "", false
	}
	return vs[0], true
}

func (h *Handler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	if err := h.catalog.DeleteProduct(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "Product deleted successfully"})
}
