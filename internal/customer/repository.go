package customer

import (
	"context"
	"errors"
	"fmt"

	"github.com/gofrs/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/vasiliy-maslov/ecommerce-orders/internal/apperr"
	"github.com/vasiliy-maslov/ecommerce-orders/internal/clock"
	"github.com/vasiliy-maslov/ecommerce-orders/internal/db"
)

var (
	ErrNotFound    = apperr.New(apperr.ErrNotFound, "customer not found")
	ErrEmailExists = apperr.New(apperr.ErrInvalidState, "email is already registered")
)

type Repository interface {
	Create(ctx context.Context, customer *Customer) error
	GetByID(ctx context.Context, id uuid.UUID) (*Customer, error)
	GetByEmail(ctx context.Context, email string) (*Customer, error)
	List(ctx context.Context) ([]Customer, error)
}

type postgresRepository struct {
	tm *db.TxManager
}

func NewRepository(tm *db.TxManager) Repository {
	return &postgresRepository{tm: tm}
}

func (r *postgresRepository) Create(ctx context.Context, customer *Customer) error {
	id, err := uuid.NewV4()
	if err != nil {
		return fmt.Errorf("repository: failed to generate customer ID: %w", err)
	}
	now := clock.Now()

	_, err = r.tm.Querier(ctx).Exec(ctx, `
		INSERT INTO customers (id, name, email, created_at)
		VALUES ($1, $2, $3, $4)`,
		id, customer.Name, customer.Email, now,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return ErrEmailExists
		}
		return fmt.Errorf("repository: failed to insert customer: %w", err)
	}

	customer.ID = id
	customer.CreatedAt = now
	return nil
}

func (r *postgresRepository) GetByID(ctx context.Context, id uuid.UUID) (*Customer, error) {
	return r.getOne(ctx, `SELECT id, name, email, created_at FROM customers WHERE id = $1`, id)
}

func (r *postgresRepository) GetByEmail(ctx context.Context, email string) (*Customer, error) {
	return r.getOne(ctx, `SELECT id, name, email, created_at FROM customers WHERE email = $1`, email)
}

func (r *postgresRepository) getOne(ctx context.Context, query string, arg any) (*Customer, error) {
	var c Customer
	err := r.tm.Querier(ctx).QueryRow(ctx, query, arg).Scan(&c.ID, &c.Name, &c.Email, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("repository: failed to select customer by %v: %w", arg, err)
	}
	return &c, nil
}

func (r *postgresRepository) List(ctx context.Context) ([]Customer, error) {
	rows, err := r.tm.Querier(ctx).Query(ctx, `
		SELECT id, name, email, created_at
		FROM customers
		ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query customers: %w", err)
	}
	defer rows.Close()

	customers := make([]Customer, 0)
	for rows.Next() {
		var c Customer
		if err := rows.Scan(&c.ID, &c.Name, &c.Email, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("repository: failed to scan customer: %w", err)
		}
		customers = append(customers, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: error iterating customers: %w", err)
	}
	return customers, nil
}
