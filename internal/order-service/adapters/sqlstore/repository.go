// Package sqlstore persists orders, their line items and the order audit
// trail in the shared relational store.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jcmexdev/storefront/internal/order-service/domain"
	"github.com/jcmexdev/storefront/internal/pkg/database"
)

type Repository struct {
	db *database.DB
}

func NewRepository(db *database.DB) *Repository {
	return &Repository{db: db}
}

const orderColumns = `id, total, name, email, address, shipping_method, phone_number, payment_status, order_status, created_at`

// Create inserts the order row and one row per item in a single transaction.
func (r *Repository) Create(ctx context.Context, o *domain.Order) error {
	insertOrder := r.db.Rebind(`INSERT INTO orders (` + orderColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	insertItem := r.db.Rebind(`INSERT INTO order_items (id, order_id, product_id, quantity, position) VALUES (?, ?, ?, ?, ?)`)

	return r.db.WithTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, insertOrder,
			o.ID, o.Total, o.Name, o.Email, o.Address, o.ShippingMethod, o.PhoneNumber,
			string(o.PaymentStatus), string(o.OrderStatus), database.FormatTime(o.CreatedAt),
		); err != nil {
			return fmt.Errorf("sqlstore: insert order %q: %w", o.ID, err)
		}

		for pos, it := range o.Items {
			if _, err := tx.ExecContext(ctx, insertItem, it.ID, o.ID, it.ProductID, it.Quantity, pos); err != nil {
				return fmt.Errorf("sqlstore: insert item for order %q: %w", o.ID, err)
			}
		}
		return nil
	})
}

// List returns every order, newest first, with items and products.
func (r *Repository) List(ctx context.Context) ([]domain.Order, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+orderColumns+` FROM orders ORDER BY created_at DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: list orders: %w", err)
	}
	defer rows.Close()

	orders := []domain.Order{}
	index := map[string]int{}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		index[o.ID] = len(orders)
		orders = append(orders, *o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlstore: list orders: %w", err)
	}
	if len(orders) == 0 {
		return orders, nil
	}

	items, err := r.items(ctx, "")
	if err != nil {
		return nil, err
	}
	for _, it := range items {
		if i, ok := index[it.orderID]; ok {
			orders[i].Items = append(orders[i].Items, it.OrderItem)
		}
	}
	return orders, nil
}

func (r *Repository) Get(ctx context.Context, id string) (*domain.Order, error) {
	row := r.db.QueryRowContext(ctx, r.db.Rebind(`SELECT `+orderColumns+` FROM orders WHERE id = ?`), id)

	o, err := scanOrder(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}

	items, err := r.items(ctx, id)
	if err != nil {
		return nil, err
	}
	for _, it := range items {
		o.Items = append(o.Items, it.OrderItem)
	}
	return o, nil
}

func (r *Repository) UpdateStatus(ctx context.Context, id string, payment domain.PaymentStatus, status domain.OrderStatus) error {
	q := r.db.Rebind(`UPDATE orders SET payment_status = ?, order_status = ? WHERE id = ?`)

	res, err := r.db.ExecContext(ctx, q, string(payment), string(status), id)
	if err != nil {
		return fmt.Errorf("sqlstore: update order %q: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlstore: rows affected for order %q: %w", id, err)
	}
	if n == 0 {
		return domain.ErrOrderNotFound
	}
	return nil
}

func (r *Repository) MissingProducts(ctx context.Context, ids []string) ([]string, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(ids)), ", ")
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	rows, err := r.db.QueryContext(ctx, r.db.Rebind(`SELECT id FROM products WHERE id IN (`+placeholders+`)`), args...)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: look up products: %w", err)
	}
	defer rows.Close()

	found := make(map[string]struct{}, len(ids))
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("sqlstore: scan product id: %w", err)
		}
		found[id] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlstore: look up products: %w", err)
	}

	var missing []string
	for _, id := range ids {
		if _, ok := found[id]; !ok {
			missing = append(missing, id)
		}
	}
	return missing, nil
}

func (r *Repository) AppendEvent(ctx context.Context, e domain.Event) error {
	q := r.db.Rebind(`INSERT INTO order_events (order_id, status, trace_id, span_id, created_at) VALUES (?, ?, ?, ?, ?)`)

	if _, err := r.db.ExecContext(ctx, q, e.OrderID, string(e.Status), e.TraceID, e.SpanID, database.FormatTime(e.CreatedAt)); err != nil {
		return fmt.Errorf("sqlstore: append event for order %q: %w", e.OrderID, err)
	}
	return nil
}

// Events returns the audit trail of one order, oldest first.
func (r *Repository) Events(ctx context.Context, orderID string) ([]domain.Event, error) {
	q := r.db.Rebind(`
		SELECT order_id, status, trace_id, span_id, created_at
		FROM   order_events
		WHERE  order_id = ?
		ORDER  BY created_at, id`)

	rows, err := r.db.QueryContext(ctx, q, orderID)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: events for order %q: %w", orderID, err)
	}
	defer rows.Close()

	var events []domain.Event
	for rows.Next() {
		var (
			e         domain.Event
			createdAt string
		)
		if err := rows.Scan(&e.OrderID, &e.Status, &e.TraceID, &e.SpanID, &createdAt); err != nil {
			return nil, fmt.Errorf("sqlstore: scan event: %w", err)
		}
		if e.CreatedAt, err = database.ParseTime(createdAt); err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

type itemRow struct {
	domain.OrderItem
	orderID string
}

// items loads order lines joined with their products. An empty orderID
// loads the lines of every order.
func (r *Repository) items(ctx context.Context, orderID string) ([]itemRow, error) {
	q := `
		SELECT i.id, i.order_id, i.product_id, i.quantity,
		       p.id, p.name, p.description, p.image_url, p.price
		FROM   order_items i
		LEFT   JOIN products p ON p.id = i.product_id`
	var args []any
	if orderID != "" {
		q += ` WHERE i.order_id = ?`
		args = append(args, orderID)
	}
	q += ` ORDER BY i.order_id, i.position`

	rows, err := r.db.QueryContext(ctx, r.db.Rebind(q), args...)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: load order items: %w", err)
	}
	defer rows.Close()

	var out []itemRow
	for rows.Next() {
		var (
			it                      itemRow
			pID, pName, pDesc, pImg sql.NullString
			pPrice                  sql.NullFloat64
		)
		if err := rows.Scan(&it.ID, &it.orderID, &it.ProductID, &it.Quantity,
			&pID, &pName, &pDesc, &pImg, &pPrice); err != nil {
			return nil, fmt.Errorf("sqlstore: scan order item: %w", err)
		}
		if pID.Valid {
			it.Product = &domain.Product{
				ID:          pID.String,
				Name:        pName.String,
				Description: pDesc.String,
				ImageURL:    pImg.String,
				Price:       pPrice.Float64,
			}
		}
		out = append(out, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlstore: load order items: %w", err)
	}
	return out, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanOrder(s scanner) (*domain.Order, error) {
	var (
		o         domain.Order
		createdAt string
	)
	err := s.Scan(&o.ID, &o.Total, &o.Name, &o.Email, &o.Address, &o.ShippingMethod,
		&o.PhoneNumber, &o.PaymentStatus, &o.OrderStatus, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("sqlstore: scan order: %w", err)
	}

	if o.CreatedAt, err = database.ParseTime(createdAt); err != nil {
		return nil, err
	}
	o.Items = []domain.OrderItem{}
	return &o, nil
}
