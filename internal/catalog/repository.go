package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/gofrs/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/vasiliy-maslov/ecommerce-orders/internal/apperr"
	"github.com/vasiliy-maslov/ecommerce-orders/internal/clock"
	"github.com/vasiliy-maslov/ecommerce-orders/internal/db"
	"github.com/vasiliy-maslov/ecommerce-orders/internal/money"
)

var ErrProductNotFound = apperr.New(apperr.ErrNotFound, "product not found")

type Repository interface {
	Create(ctx context.Context, product *Product) error
	GetByID(ctx context.Context, id uuid.UUID) (*Product, error)
	List(ctx context.Context, filter Filter) ([]Product, error)
	Update(ctx context.Context, product *Product) error
}

type postgresRepository struct {
	tm *db.TxManager
}

func NewRepository(tm *db.TxManager) Repository {
	return &postgresRepository{tm: tm}
}

const productColumns = `id, name, category, price_cents, active, created_at, updated_at`

func (r *postgresRepository) Create(ctx context.Context, product *Product) error {
	id, err := uuid.NewV4()
	if err != nil {
		return fmt.Errorf("repository: failed to generate product ID: %w", err)
	}
	now := clock.Now()

	_, err = r.tm.Querier(ctx).Exec(ctx, `
		INSERT INTO products (id, name, category, price_cents, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		id, product.Name, string(product.Category), int64(product.PriceCents), product.Active, now, now,
	)
	if err != nil {
		return fmt.Errorf("repository: failed to insert product: %w", err)
	}

	product.ID = id
	product.CreatedAt = now
	product.UpdatedAt = now
	return nil
}

func (r *postgresRepository) GetByID(ctx context.Context, id uuid.UUID) (*Product, error) {
	row := r.tm.Querier(ctx).QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id)

	product, err := scanProduct(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("repository: failed to select product by id %s: %w", id, err)
	}
	return product, nil
}

func (r *postgresRepository) List(ctx context.Context, filter Filter) ([]Product, error) {
	var (
		conditions []string
		args       []any
	)
	add := func(cond string, arg any) {
		args = append(args, arg)
		conditions = append(conditions, fmt.Sprintf(cond, len(args)))
	}

	if filter.Category != nil {
		add("category = $%d", string(*filter.Category))
	}
	if filter.Active != nil {
		add("active = $%d", *filter.Active)
	}
	if filter.MinPriceCents != nil {
		add("price_cents >= $%d", int64(*filter.MinPriceCents))
	}
	if filter.MaxPriceCents != nil {
		add("price_cents <= $%d", int64(*filter.MaxPriceCents))
	}

	query := `SELECT ` + productColumns + ` FROM products`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY name"

	rows, err := r.tm.Querier(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query products: %w", err)
	}
	defer rows.Close()

	products := make([]Product, 0)
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("repository: failed to scan product: %w", err)
		}
		products = append(products, *product)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: error iterating products: %w", err)
	}

	return products, nil
}

func (r *postgresRepository) Update(ctx context.Context, product *Product) error {
	now := clock.Now()
	cmdTag, err := r.tm.Querier(ctx).Exec(ctx, `
		UPDATE products
		SET name = $1, category = $2, price_cents = $3, active = $4, updated_at = $5
		WHERE id = $6`,
		product.Name, string(product.Category), int64(product.PriceCents), product.Active, now, product.ID,
	)
	if err != nil {
		return fmt.Errorf("repository: failed to update product %s: %w", product.ID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return ErrProductNotFound
	}

	product.UpdatedAt = now
	return nil
}

func scanProduct(row pgx.Row) (*Product, error) {
	var (
		p        Product
		category string
		price    int64
	)
	if err := row.Scan(&p.ID, &p.Name, &category, &price, &p.Active, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	p.Category = Category(category)
	p.PriceCents = money.Cents(price)
	return &p, nil
}
