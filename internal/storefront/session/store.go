// Package session persists per-shopper state (cart, checkout, signed-in
// profile) in the cache, keyed by session id.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jcmexdev/storefront/internal/pkg/cache"
	"github.com/jcmexdev/storefront/internal/storefront/cart"
	"github.com/jcmexdev/storefront/internal/storefront/checkout"
)

// Storage keys, one per kind of session state.
const (
	CartKey     = "cart-storage"
	CheckoutKey = "checkout-storage"
	UserKey     = "user-storage"
)

const DefaultTTL = 7 * 24 * time.Hour

var ErrNoSession = errors.New("session: missing session id")

// Profile is the public view of the signed-in user kept for the session.
type Profile struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Photo    string `json:"photo"`
	Role     string `json:"role"`
}

type Store struct {
	cache cache.Cache
	ttl   time.Duration
}

// NewStore returns a store whose entries expire ttl after the last save.
func NewStore(c cache.Cache, ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Store{cache: c, ttl: ttl}
}

// LoadCart returns the session cart, or an empty cart when none is stored.
// A blob that no longer decodes is logged and replaced by an empty cart.
func (s *Store) LoadCart(ctx context.Context, sid string) (*cart.Cart, error) {
	var snap cart.Snapshot
	found, err := s.load(ctx, CartKey, sid, &snap)
	if err != nil || !found {
		return cart.New(), err
	}

	c, err := cart.Restore(snap)
	if err != nil {
		slog.WarnContext(ctx, "discarding unreadable cart", "session_id", sid, "error", err)
		return cart.New(), nil
	}
	return c, nil
}

func (s *Store) SaveCart(ctx context.Context, sid string, c *cart.Cart) error {
	return s.save(ctx, CartKey, sid, c.Snapshot())
}

// LoadCheckout mirrors LoadCart for the checkout state.
func (s *Store) LoadCheckout(ctx context.Context, sid string) (*checkout.Checkout, error) {
	var snap checkout.Snapshot
	found, err := s.load(ctx, CheckoutKey, sid, &snap)
	if err != nil || !found {
		return checkout.New(), err
	}

	c, err := checkout.Restore(snap)
	if err != nil {
		slog.WarnContext(ctx, "discarding unreadable checkout", "session_id", sid, "error", err)
		return checkout.New(), nil
	}
	return c, nil
}

func (s *Store) SaveCheckout(ctx context.Context, sid string, c *checkout.Checkout) error {
	return s.save(ctx, CheckoutKey, sid, c.Snapshot())
}

// LoadProfile returns nil when nobody is signed in on this session.
func (s *Store) LoadProfile(ctx context.Context, sid string) (*Profile, error) {
	var p Profile
	found, err := s.load(ctx, UserKey, sid, &p)
	if err != nil || !found {
		return nil, err
	}
	return &p, nil
}

func (s *Store) SaveProfile(ctx context.Context, sid string, p Profile) error {
	return s.save(ctx, UserKey, sid, p)
}

func (s *Store) ClearProfile(ctx context.Context, sid string) error {
	if sid == "" {
		return ErrNoSession
	}
	return s.cache.Delete(ctx, s.cache.GenerateKey(UserKey, sid))
}

func (s *Store) load(ctx context.Context, storage, sid string, dst any) (bool, error) {
	if sid == "" {
		return false, ErrNoSession
	}

	raw, err := s.cache.Get(ctx, s.cache.GenerateKey(storage, sid))
	if err != nil {
		return false, fmt.Errorf("session: load %s: %w", storage, err)
	}
	if raw == "" {
		return false, nil
	}

	if err := json.Unmarshal([]byte(raw), dst); err != nil {
		slog.WarnContext(ctx, "discarding corrupt session entry", "storage", storage, "session_id", sid, "error", err)
		return false, nil
	}
	return true, nil
}

func (s *Store) save(ctx context.Context, storage, sid string, v any) error {
	if sid == "" {
		return ErrNoSession
	}

	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("session: encode %s: %w", storage, err)
	}
	if err := s.cache.Set(ctx, s.cache.GenerateKey(storage, sid), raw, s.ttl); err != nil {
		return fmt.Errorf("session: save %s: %w", storage, err)
	}
	return nil
}
