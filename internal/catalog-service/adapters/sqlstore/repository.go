// Package sqlstore persists catalog products in the shared relational store.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jcmexdev/storefront/internal/catalog-service/domain"
	"github.com/jcmexdev/storefront/internal/pkg/database"
)

type Repository struct {
	db *database.DB
}

func NewRepository(db *database.DB) *Repository {
	return &Repository{db: db}
}

const productColumns = `id, name, description, image_url, price, created_at, updated_at`

func (r *Repository) Create(ctx context.Context, p *domain.Product) error {
	q := r.db.Rebind(`INSERT INTO products (` + productColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?)`)

	_, err := r.db.ExecContext(ctx, q,
		p.ID, p.Name, p.Description, p.ImageURL, p.Price,
		database.FormatTime(p.CreatedAt), database.FormatTime(p.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("sql: insert product %q: %w", p.ID, err)
	}
	return nil
}

func (r *Repository) List(ctx context.Context) ([]domain.Product, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+productColumns+` FROM products ORDER BY created_at DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("sql: list products: %w", err)
	}
	defer rows.Close()

	out := []domain.Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sql: list products: %w", err)
	}
	return out, nil
}

func (r *Repository) Get(ctx context.Context, id string) (*domain.Product, error) {
	row := r.db.QueryRowContext(ctx, r.db.Rebind(`SELECT `+productColumns+` FROM products WHERE id = ?`), id)

	p, err := scanProduct(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrProductNotFound
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (r *Repository) Update(ctx context.Context, p *domain.Product) error {
	q := r.db.Rebind(`
		UPDATE products
		SET    name = ?, description = ?, image_url = ?, price = ?, updated_at = ?
		WHERE  id = ?`)

	res, err := r.db.ExecContext(ctx, q,
		p.Name, p.Description, p.ImageURL, p.Price, database.FormatTime(p.UpdatedAt), p.ID,
	)
	if err != nil {
		return fmt.Errorf("sql: update product %q: %w", p.ID, err)
	}
	return requireAffected(res, p.ID)
}

func (r *Repository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, r.db.Rebind(`DELETE FROM products WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("sql: delete product %q: %w", id, err)
	}
	return requireAffected(res, id)
}

func requireAffected(res sql.Result, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sql: rows affected for product %q: %w", id, err)
	}
	if n == 0 {
		return domain.ErrProductNotFound
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanProduct(s scanner) (*domain.Product, error) {
	var (
		p                    domain.Product
		createdAt, updatedAt string
	)
	if err := s.Scan(&p.ID, &p.Name, &p.Description, &p.ImageURL, &p.Price, &createdAt, &updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("sql: scan product: %w", err)
	}

	var err error
	if p.CreatedAt, err = database.ParseTime(createdAt); err != nil {
		return nil, err
	}
	if p.UpdatedAt, err = database.ParseTime(updatedAt); err != nil {
		return nil, err
	}
	return &p, nil
}
