package app

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jcmexdev/storefront/internal/catalog-service/domain"
	"github.com/jcmexdev/storefront/internal/pkg/apperr"
	"github.com/jcmexdev/storefront/internal/pkg/cache"
)

// ---- fakes ----

type fakeRepo struct {
	mu        sync.Mutex
	products  map[string]domain.Product
	listCalls int
	createErr error
	updateErr error
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{products: map[string]domain.Product{}}
}

func (f *fakeRepo) Create(ctx context.Context, p *domain.Product) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	f.products[p.ID] = *p
	return nil
}

func (f *fakeRepo) List(ctx context.Context) ([]domain.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls++
	out := []domain.Product{}
	for _, p := range f.products {
		out = append(out, p)
	}
	return out, nil
}

func (f *fakeRepo) Get(ctx context.Context, id string) (*domain.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.products[id]
	if !ok {
		return nil, domain.ErrProductNotFound
	}
	return &p, nil
}

func (f *fakeRepo) Update(ctx context.Context, p *domain.Product) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updateErr != nil {
		return f.updateErr
	}
	if _, ok := f.products[p.ID]; !ok {
		return domain.ErrProductNotFound
	}
	f.products[p.ID] = *p
	return nil
}

func (f *fakeRepo) Delete(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.products[id]; !ok {
		return domain.ErrProductNotFound
	}
	delete(f.products, id)
	return nil
}

type fakeImages struct {
	saved   map[string]string
	deleted []string
}

func newFakeImages() *fakeImages { return &fakeImages{saved: map[string]string{}} }

func (f *fakeImages) Save(ctx context.Context, name string, r io.Reader) (string, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	url := "/uploads/" + name
	f.saved[url] = string(b)
	return url, nil
}

func (f *fakeImages) Delete(ctx context.Context, url string) error {
	f.deleted = append(f.deleted, url)
	return nil
}

func newTestCache(t *testing.T) cache.Cache {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return cache.NewRedisCacheFromClient(client, "storefront")
}

func addMug(t *testing.T, svc *Service) *domain.Product {
	t.Helper()
	p, err := svc.AddProduct(context.Background(),
		domain.NewProduct{Name: "Mug", Description: "ceramic", Price: 12.5, ImageName: "mug.png"},
		strings.NewReader("img"))
	require.NoError(t, err)
	return p
}

// ---- tests ----

func TestAddProductValidation(t *testing.T) {
	svc := NewService(newFakeRepo(), newFakeImages(), nil)
	ctx := context.Background()

	cases := []struct {
		name  string
		in    domain.NewProduct
		image io.Reader
	}{
		{"missing name", domain.NewProduct{Price: 1}, strings.NewReader("x")},
		{"zero price", domain.NewProduct{Name: "a"}, strings.NewReader("x")},
		{"negative price", domain.NewProduct{Name: "a", Price: -3}, strings.NewReader("x")},
		{"missing image", domain.NewProduct{Name: "a", Price: 1}, nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.AddProduct(ctx, tc.in, tc.image)
			assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
		})
	}
}

func TestAddProductStoresImage(t *testing.T) {
	repo, images := newFakeRepo(), newFakeImages()
	svc := NewService(repo, images, nil)
	fixed := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return fixed }

	p := addMug(t, svc)

	assert.NotEmpty(t, p.ID)
	assert.Equal(t, "/uploads/"+p.ID+"-mug.png", p.ImageURL)
	assert.Equal(t, "img", images.saved[p.ImageURL])
	assert.Equal(t, fixed, p.CreatedAt)
	assert.Contains(t, repo.products, p.ID)
}

func TestAddProductRemovesImageWhenPersistFails(t *testing.T) {
	repo, images := newFakeRepo(), newFakeImages()
	repo.createErr = errors.New("db down")
	svc := NewService(repo, images, nil)

	_, err := svc.AddProduct(context.Background(),
		domain.NewProduct{Name: "Mug", Price: 1, ImageName: "mug.png"}, strings.NewReader("img"))

	require.Error(t, err)
	assert.Equal(t, apperr.KindInternal, apperr.KindOf(err))
	assert.Len(t, images.deleted, 1)
}

func TestAllProductsUsesCacheUntilInvalidated(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, newFakeImages(), newTestCache(t))
	ctx := context.Background()
	addMug(t, svc)

	first, err := svc.AllProducts(ctx)
	require.NoError(t, err)
	second, err := svc.AllProducts(ctx)
	require.NoError(t, err)

	assert.Len(t, first, 1)
	assert.Equal(t, first[0].ID, second[0].ID)
	assert.Equal(t, 1, repo.listCalls, "second read served from cache")

	addMug(t, svc)
	third, err := svc.AllProducts(ctx)
	require.NoError(t, err)
	assert.Len(t, third, 2)
	assert.Equal(t, 2, repo.listCalls)
}

func TestAdminViewBypassesCache(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, newFakeImages(), newTestCache(t))
	ctx := context.Background()

	_, err := svc.AdminViewAllProducts(ctx)
	require.NoError(t, err)
	_, err = svc.AdminViewAllProducts(ctx)
	require.NoError(t, err)

	assert.Equal(t, 2, repo.listCalls)
}

func TestGetProductNotFound(t *testing.T) {
	svc := NewService(newFakeRepo(), newFakeImages(), nil)

	_, err := svc.GetProduct(context.Background(), "missing")
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestUpdateProduct(t *testing.T) {
	svc := NewService(newFakeRepo(), newFakeImages(), nil)
	ctx := context.Background()
	p := addMug(t, svc)

	name, price := "Large Mug", 14.0
	updated, err := svc.UpdateProduct(ctx, p.ID, domain.ProductPatch{Name: &name, Price: &price}, nil)
	require.NoError(t, err)
	assert.Equal(t, "Large Mug", updated.Name)
	assert.Equal(t, 14.0, updated.Price)
	assert.Equal(t, "ceramic", updated.Description)

	empty := " "
	_, err = svc.UpdateProduct(ctx, p.ID, domain.ProductPatch{Name: &empty}, nil)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	_, err = svc.UpdateProduct(ctx, "missing", domain.ProductPatch{Name: &name}, nil)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestUpdateProductReplacesImage(t *testing.T) {
	repo, images := newFakeRepo(), newFakeImages()
	svc := NewService(repo, images, nil)
	fixed := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return fixed }
	ctx := context.Background()
	p := addMug(t, svc)
	oldURL := p.ImageURL

	updated, err := svc.UpdateProduct(ctx, p.ID, domain.ProductPatch{ImageName: "mug-v2.png"}, strings.NewReader("new-img"))
	require.NoError(t, err)

	assert.NotEqual(t, oldURL, updated.ImageURL)
	assert.Equal(t, "new-img", images.saved[updated.ImageURL])
	assert.Equal(t, []string{oldURL}, images.deleted)
	assert.Equal(t, updated.ImageURL, repo.products[p.ID].ImageURL)
	assert.Equal(t, "Mug", updated.Name)
}

func TestUpdateProductKeepsOldImageWhenPersistFails(t *testing.T) {
	repo, images := newFakeRepo(), newFakeImages()
	svc := NewService(repo, images, nil)
	ctx := context.Background()
	p := addMug(t, svc)
	repo.updateErr = errors.New("db down")

	_, err := svc.UpdateProduct(ctx, p.ID, domain.ProductPatch{ImageName: "mug-v2.png"}, strings.NewReader("new-img"))
	require.Error(t, err)

	require.Len(t, images.deleted, 1)
	assert.NotEqual(t, p.ImageURL, images.deleted[0], "only the new upload is removed")
	assert.Equal(t, p.ImageURL, repo.products[p.ID].ImageURL)
}

func TestDeleteProduct(t *testing.T) {
	repo, images := newFakeRepo(), newFakeImages()
	svc := NewService(repo, images, nil)
	ctx := context.Background()
	p := addMug(t, svc)

	require.NoError(t, svc.DeleteProduct(ctx, p.ID))
	assert.NotContains(t, repo.products, p.ID)
	assert.Equal(t, []string{p.ImageURL}, images.deleted)

	err := svc.DeleteProduct(ctx, p.ID)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}
