package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jcmexdev/storefront/internal/order-service/domain"
	"github.com/jcmexdev/storefront/internal/pkg/apperr"
	"github.com/jcmexdev/storefront/internal/pkg/cache"
)

const (
	idempotencyTTL = 24 * time.Hour
	// reservationTTL bounds how long a crashed request can block its key.
	reservationTTL = time.Minute
	// pendingMarker is stored under a key while its order is being created.
	pendingMarker = "pending"
)

type Repository interface {
	// Create persists the order and its items atomically.
	Create(ctx context.Context, o *domain.Order) error
	List(ctx context.Context) ([]domain.Order, error)
	Get(ctx context.Context, id string) (*domain.Order, error)
	UpdateStatus(ctx context.Context, id string, payment domain.PaymentStatus, status domain.OrderStatus) error
	// MissingProducts returns the ids that do not exist in the catalog.
	MissingProducts(ctx context.Context, ids []string) ([]string, error)
	AppendEvent(ctx context.Context, e domain.Event) error
	Events(ctx context.Context, orderID string) ([]domain.Event, error)
}

type Publisher interface {
	Publish(ctx context.Context, topic, key string, payload any) error
}

type Service struct {
	repo      Repository
	publisher Publisher
	cache     cache.Cache // nil-safe: idempotency keys are ignored
	now       func() time.Time
}

// NewService wires the order service. A nil publisher disables events.
func NewService(repo Repository, publisher Publisher, c cache.Cache) *Service {
	if publisher == nil {
		publisher = NoopPublisher{}
	}
	return &Service{
		repo:      repo,
		publisher: publisher,
		cache:     c,
		now:       time.Now,
	}
}

// CreateOrder validates the payload, checks the referenced products and
// persists the order. A repeated idempotencyKey returns the order created
// by the first call.
func (s *Service) CreateOrder(ctx context.Context, idempotencyKey string, in domain.CreateOrderInput) (*domain.Order, error) {
	if missing := in.MissingFields(); len(missing) > 0 {
		return nil, apperr.Validation("missing required fields: %s", strings.Join(missing, ", "))
	}
	for _, it := range in.Items {
		if it.ProductID == "" || it.Quantity <= 0 {
			return nil, apperr.Validation("each item needs a productId and a positive quantity")
		}
	}

	existing, reserved, err := s.reserve(ctx, idempotencyKey)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	created, err := s.create(ctx, in)
	if err != nil {
		if reserved {
			s.release(ctx, idempotencyKey)
		}
		return nil, err
	}

	if reserved {
		s.remember(ctx, idempotencyKey, created.ID)
	}
	s.record(ctx, created, domain.TopicOrderCreated)

	slog.InfoContext(ctx, "order created", "order_id", created.ID, "items", len(created.Items), "total", created.Total)
	return created, nil
}

func (s *Service) create(ctx context.Context, in domain.CreateOrderInput) (*domain.Order, error) {
	missing, err := s.repo.MissingProducts(ctx, in.ProductIDs())
	if err != nil {
		return nil, fmt.Errorf("look up products: %w", err)
	}
	if len(missing) > 0 {
		return nil, apperr.NotFound("products not found: %s", strings.Join(missing, ", "))
	}

	order := &domain.Order{
		ID:             uuid.NewString(),
		Total:          in.TotalPrice,
		Name:           in.FullName,
		Email:          in.Email,
		Address:        in.Address,
		ShippingMethod: in.ShippingMethod,
		PhoneNumber:    in.PhoneNumber,
		PaymentStatus:  domain.PaymentPending,
		OrderStatus:    domain.StatusPending,
		CreatedAt:      s.now().UTC(),
		Items:          make([]domain.OrderItem, 0, len(in.Items)),
	}
	for _, it := range in.Items {
		order.Items = append(order.Items, domain.OrderItem{
			ID:        uuid.NewString(),
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
		})
	}

	if err := s.repo.Create(ctx, order); err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}

	created, err := s.repo.Get(ctx, order.ID)
	if err != nil {
		return nil, fmt.Errorf("reload order %s: %w", order.ID, err)
	}
	return created, nil
}

func (s *Service) GetAllOrders(ctx context.Context) ([]domain.Order, error) {
	orders, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return orders, nil
}

func (s *Service) GetSpecificOrder(ctx context.Context, id string) (*domain.Order, error) {
	order, err := s.repo.Get(ctx, id)
	if errors.Is(err, domain.ErrOrderNotFound) {
		return nil, apperr.NotFound("order %s not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("get order %s: %w", id, err)
	}
	return order, nil
}

// OrderEvents returns the status history of an order, oldest first.
func (s *Service) OrderEvents(ctx context.Context, id string) ([]domain.Event, error) {
	if _, err := s.GetSpecificOrder(ctx, id); err != nil {
		return nil, err
	}
	events, err := s.repo.Events(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("order %s events: %w", id, err)
	}
	if events == nil {
		events = []domain.Event{}
	}
	return events, nil
}

// AcceptPayment marks the order as paid and accepted.
func (s *Service) AcceptPayment(ctx context.Context, id string) (*domain.Order, error) {
	order, err := s.transition(ctx, id, domain.PaymentPaid, domain.StatusAccepted)
	if err != nil {
		return nil, err
	}
	s.record(ctx, order, domain.TopicOrderPaymentAccepted)
	return order, nil
}

// CancelOrder marks the order cancelled, keeping its payment status.
func (s *Service) CancelOrder(ctx context.Context, id string) error {
	current, err := s.GetSpecificOrder(ctx, id)
	if err != nil {
		return err
	}
	order, err := s.transition(ctx, id, current.PaymentStatus, domain.StatusCancelled)
	if err != nil {
		return err
	}
	s.record(ctx, order, domain.TopicOrderCancelled)
	return nil
}

func (s *Service) transition(ctx context.Context, id string, payment domain.PaymentStatus, status domain.OrderStatus) (*domain.Order, error) {
	err := s.repo.UpdateStatus(ctx, id, payment, status)
	if errors.Is(err, domain.ErrOrderNotFound) {
		return nil, apperr.NotFound("order %s not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("update order %s: %w", id, err)
	}
	return s.GetSpecificOrder(ctx, id)
}

// record appends the audit event and publishes the domain event. Neither
// failure is surfaced: the order change is already committed.
func (s *Service) record(ctx context.Context, order *domain.Order, topic string) {
	if err := s.repo.AppendEvent(ctx, NewEvent(ctx, order.ID, order.OrderStatus, s.now())); err != nil {
		slog.ErrorContext(ctx, "failed to append order event", "order_id", order.ID, "error", err)
	}
	if err := s.publisher.Publish(ctx, topic, order.ID, NewOrderMessage(order)); err != nil {
		slog.ErrorContext(ctx, "failed to publish order event", "order_id", order.ID, "topic", topic, "error", err)
	}
}

func (s *Service) idempotencyKey(key string) string {
	return s.cache.GenerateKey("create-order", key)
}

// reserve claims key for a new order. It returns the order a previous call
// already created for the key, or reserved=true when this call owns the key
// and must either remember or release it. Cancelled orders are not
// replayed: their key is freed so a retry can place a new order.
func (s *Service) reserve(ctx context.Context, key string) (existing *domain.Order, reserved bool, err error) {
	if s.cache == nil || key == "" {
		return nil, false, nil
	}
	cacheKey := s.idempotencyKey(key)

	for attempt := 0; attempt < 2; attempt++ {
		ok, err := s.cache.SetNX(ctx, cacheKey, pendingMarker, reservationTTL)
		if err != nil {
			slog.WarnContext(ctx, "idempotency reservation failed", "error", err)
			return nil, false, nil
		}
		if ok {
			return nil, true, nil
		}

		orderID, err := s.cache.Get(ctx, cacheKey)
		if err != nil {
			slog.WarnContext(ctx, "idempotency lookup failed", "error", err)
			return nil, false, nil
		}
		switch orderID {
		case "":
			// expired between SetNX and Get
			continue
		case pendingMarker:
			return nil, false, apperr.Conflict(domain.ErrCreateInProgress)
		}

		order, err := s.repo.Get(ctx, orderID)
		switch {
		case err != nil:
			slog.WarnContext(ctx, "idempotency key points at unreadable order", "order_id", orderID, "error", err)
		case order.OrderStatus == domain.StatusCancelled:
			slog.InfoContext(ctx, "idempotency key points at cancelled order, creating a new one", "order_id", orderID)
		default:
			slog.InfoContext(ctx, "replaying idempotent order creation", "order_id", orderID)
			return order, false, nil
		}
		s.release(ctx, key)
	}

	return nil, false, apperr.Conflict(domain.ErrCreateInProgress)
}

func (s *Service) remember(ctx context.Context, key, orderID string) {
	if err := s.cache.Set(ctx, s.idempotencyKey(key), orderID, idempotencyTTL); err != nil {
		slog.WarnContext(ctx, "failed to store idempotency key", "order_id", orderID, "error", err)
	}
}

func (s *Service) release(ctx context.Context, key string) {
	if err := s.cache.Delete(ctx, s.idempotencyKey(key)); err != nil {
		slog.WarnContext(ctx, "failed to release idempotency key", "error", err)
	}
}
