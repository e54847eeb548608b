package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jcmexdev/storefront/internal/catalog-service/domain"
	"github.com/jcmexdev/storefront/internal/pkg/apperr"
	"github.com/jcmexdev/storefront/internal/pkg/cache"
)

// listingCacheOperation namespaces the cached public product listing.
const listingCacheOperation = "product-storage"

const listingTTL = 5 * time.Minute

type Repository interface {
	Create(ctx context.Context, p *domain.Product) error
	List(ctx context.Context) ([]domain.Product, error)
	Get(ctx context.Context, id string) (*domain.Product, error)
	Update(ctx context.Context, p *domain.Product) error
	Delete(ctx context.Context, id string) error
}

// ImageStore persists uploaded product images and returns their public URL.
type ImageStore interface {
	Save(ctx context.Context, name string, r io.Reader) (string, error)
	Delete(ctx context.Context, url string) error
}

type Service struct {
	repo   Repository
	images ImageStore
	cache  cache.Cache // nil-safe: listing is read from the repository every time
	now    func() time.Time
}

func NewService(repo Repository, images ImageStore, c cache.Cache) *Service {
	return &Service{
		repo:   repo,
		images: images,
		cache:  c,
		now:    time.Now,
	}
}

// AddProduct validates the input, stores the image and persists the product.
func (s *Service) AddProduct(ctx context.Context, in domain.NewProduct, image io.Reader) (*domain.Product, error) {
	if strings.TrimSpace(in.Name) == "" {
		return nil, apperr.Validation("name is required")
	}
	if in.Price <= 0 {
		return nil, apperr.Validation("price must be greater than zero")
	}
	if image == nil {
		return nil, apperr.Validation("image is required")
	}

	id := uuid.NewString()
	url, err := s.images.Save(ctx, id+"-"+in.ImageName, image)
	if err != nil {
		return nil, fmt.Errorf("save product image: %w", err)
	}

	now := s.now().UTC()
	p := &domain.Product{
		ID:          id,
		Name:        strings.TrimSpace(in.Name),
		Description: in.Description,
		ImageURL:    url,
		Price:       in.Price,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.repo.Create(ctx, p); err != nil {
		if delErr := s.images.Delete(ctx, url); delErr != nil {
			slog.WarnContext(ctx, "failed to remove orphan product image", "url", url, "error", delErr)
		}
		return nil, fmt.Errorf("create product: %w", err)
	}

	s.invalidateListing(ctx)
	slog.InfoContext(ctx, "product added", "product_id", p.ID)
	return p, nil
}

// AllProducts returns the public listing, served from the cache when warm.
func (s *Service) AllProducts(ctx context.Context) ([]domain.Product, error) {
	if cached, ok := s.cachedListing(ctx); ok {
		return cached, nil
	}

	products, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}

	s.storeListing(ctx, products)
	return products, nil
}

// AdminViewAllProducts always reads through to the repository.
func (s *Service) AdminViewAllProducts(ctx context.Context) ([]domain.Product, error) {
	products, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return products, nil
}

func (s *Service) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	p, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, mapRepoError(err, id)
	}
	return p, nil
}

// UpdateProduct applies patch. A non-nil image replaces the stored image;
// the previous file is removed once the update is persisted.
func (s *Service) UpdateProduct(ctx context.Context, id string, patch domain.ProductPatch, image io.Reader) (*domain.Product, error) {
	if patch.Name != nil && strings.TrimSpace(*patch.Name) == "" {
		return nil, apperr.Validation("name cannot be empty")
	}
	if patch.Price != nil && *patch.Price <= 0 {
		return nil, apperr.Validation("price must be greater than zero")
	}

	p, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, mapRepoError(err, id)
	}
	oldURL := p.ImageURL

	patch.Apply(p)
	now := s.now().UTC()
	p.UpdatedAt = now

	var newURL string
	if image != nil {
		// the timestamp keeps the new file from overwriting the old one
		newURL, err = s.images.Save(ctx, fmt.Sprintf("%s-%d-%s", id, now.UnixNano(), patch.ImageName), image)
		if err != nil {
			return nil, fmt.Errorf("save product image: %w", err)
		}
		p.ImageURL = newURL
	}

	if err := s.repo.Update(ctx, p); err != nil {
		if newURL != "" {
			if delErr := s.images.Delete(ctx, newURL); delErr != nil {
				slog.WarnContext(ctx, "failed to remove orphan product image", "url", newURL, "error", delErr)
			}
		}
		return nil, mapRepoError(err, id)
	}

	if newURL != "" && oldURL != "" && oldURL != newURL {
		if err := s.images.Delete(ctx, oldURL); err != nil {
			slog.WarnContext(ctx, "failed to remove replaced product image", "product_id", id, "error", err)
		}
	}

	s.invalidateListing(ctx)
	return p, nil
}

func (s *Service) DeleteProduct(ctx context.Context, id string) error {
	p, err := s.repo.Get(ctx, id)
	if err != nil {
		return mapRepoError(err, id)
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return mapRepoError(err, id)
	}

	if p.ImageURL != "" {
		if err := s.images.Delete(ctx, p.ImageURL); err != nil {
			slog.WarnContext(ctx, "failed to remove product image", "product_id", id, "error", err)
		}
	}

	s.invalidateListing(ctx)
	slog.InfoContext(ctx, "product deleted", "product_id", id)
	return nil
}

func mapRepoError(err error, id string) error {
	if errors.Is(err, domain.ErrProductNotFound) {
		return apperr.NotFound("product %s not found", id)
	}
	return err
}

func (s *Service) listingKey() string {
	return s.cache.GenerateKey(listingCacheOperation, "all")
}

func (s *Service) cachedListing(ctx context.Context) ([]domain.Product, bool) {
	if s.cache == nil {
		return nil, false
	}

	raw, err := s.cache.Get(ctx, s.listingKey())
	if err != nil {
		slog.WarnContext(ctx, "product listing cache read failed", "error", err)
		return nil, false
	}
	if raw == "" {
		return nil, false
	}

	var products []domain.Product
	if err := json.Unmarshal([]byte(raw), &products); err != nil {
		slog.WarnContext(ctx, "discarding corrupt product listing cache entry", "error", err)
		return nil, false
	}
	return products, true
}

func (s *Service) storeListing(ctx context.Context, products []domain.Product) {
	if s.cache == nil {
		return
	}

	b, err := json.Marshal(products)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, s.listingKey(), b, listingTTL); err != nil {
		slog.WarnContext(ctx, "product listing cache write failed", "error", err)
	}
}

func (s *Service) invalidateListing(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, s.listingKey()); err != nil {
		slog.WarnContext(ctx, "product listing cache invalidation failed", "error", err)
	}
}
