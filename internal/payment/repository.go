package payment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofrs/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/vasiliy-maslov/ecommerce-orders/internal/apperr"
	"github.com/vasiliy-maslov/ecommerce-orders/internal/clock"
	"github.com/vasiliy-maslov/ecommerce-orders/internal/db"
	"github.com/vasiliy-maslov/ecommerce-orders/internal/money"
	"github.com/vasiliy-maslov/ecommerce-orders/internal/order"
)

var ErrPaymentNotFound = apperr.New(apperr.ErrNotFound, "payment not found")

type Repository interface {
	Create(ctx context.Context, payment *Payment) error
	FindByID(ctx context.Context, id uuid.UUID) (*Payment, error)
	SumByOrder(ctx context.Context, orderID uuid.UUID) (money.Cents, error)
	MarkAsPaid(ctx context.Context, id uuid.UUID, paidAt time.Time) error
	ListByOrder(ctx context.Context, orderID uuid.UUID) ([]Payment, error)
	// WithOrderLock runs fn while no other WithOrderLock for the same order is running.
	// It returns order.ErrOrderNotFound when the order does not exist.
	WithOrderLock(ctx context.Context, orderID uuid.UUID, fn func(ctx context.Context) error) error
}

type postgresRepository struct {
	tm *db.TxManager
}

func NewRepository(tm *db.TxManager) Repository {
	return &postgresRepository{tm: tm}
}

const paymentColumns = `id, order_id, method, amount_cents, paid_at, created_at`

func (r *postgresRepository) Create(ctx context.Context, payment *Payment) error {
	id, err := uuid.NewV4()
	if err != nil {
		return fmt.Errorf("repository: failed to generate payment ID: %w", err)
	}
	now := clock.Now()

	_, err = r.tm.Querier(ctx).Exec(ctx, `
		INSERT INTO payments (id, order_id, method, amount_cents, paid_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		id, payment.OrderID, string(payment.Method), int64(payment.AmountCents), payment.PaidAt, now,
	)
	if err != nil {
		return fmt.Errorf("repository: failed to insert payment: %w", err)
	}

	payment.ID = id
	payment.CreatedAt = now
	return nil
}

func (r *postgresRepository) FindByID(ctx context.Context, id uuid.UUID) (*Payment, error) {
	row := r.tm.Querier(ctx).QueryRow(ctx, `SELECT `+paymentColumns+` FROM payments WHERE id = $1`, id)
	payment, err := scanPayment(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPaymentNotFound
		}
		return nil, fmt.Errorf("repository: failed to select payment by id %s: %w", id, err)
	}
	return payment, nil
}

func (r *postgresRepository) SumByOrder(ctx context.Context, orderID uuid.UUID) (money.Cents, error) {
	var total int64
	err := r.tm.Querier(ctx).QueryRow(ctx, `
		SELECT COALESCE(SUM(amount_cents), 0)::BIGINT FROM payments WHERE order_id = $1`, orderID,
	).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("repository: failed to sum payments for order %s: %w", orderID, err)
	}
	return money.Cents(total), nil
}

func (r *postgresRepository) MarkAsPaid(ctx context.Context, id uuid.UUID, paidAt time.Time) error {
	cmdTag, err := r.tm.Querier(ctx).Exec(ctx, `UPDATE payments SET paid_at = $1 WHERE id = $2`, paidAt, id)
	if err != nil {
		return fmt.Errorf("repository: failed to mark payment %s as paid: %w", id, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return ErrPaymentNotFound
	}
	return nil
}

func (r *postgresRepository) ListByOrder(ctx context.Context, orderID uuid.UUID) ([]Payment, error) {
	rows, err := r.tm.Querier(ctx).Query(ctx, `
		SELECT `+paymentColumns+`
		FROM payments
		WHERE order_id = $1
		ORDER BY created_at, id`, orderID)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query payments for order %s: %w", orderID, err)
	}
	defer rows.Close()

	payments := make([]Payment, 0)
	for rows.Next() {
		payment, err := scanPayment(rows)
		if err != nil {
			return nil, fmt.Errorf("repository: failed to scan payment: %w", err)
		}
		payments = append(payments, *payment)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: error iterating payments: %w", err)
	}
	return payments, nil
}

// WithOrderLock holds a row lock on the order for the duration of a transaction. Every
// repository sharing the TxManager joins that transaction through the context.
func (r *postgresRepository) WithOrderLock(ctx context.Context, orderID uuid.UUID, fn func(ctx context.Context) error) error {
	return r.tm.WithTx(ctx, func(ctx context.Context) error {
		var one int
		err := r.tm.Querier(ctx).QueryRow(ctx, `SELECT 1 FROM orders WHERE id = $1 FOR UPDATE`, orderID).Scan(&one)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return order.ErrOrderNotFound
			}
			return fmt.Errorf("repository: failed to lock order %s: %w", orderID, err)
		}
		return fn(ctx)
	})
}

func scanPayment(row pgx.Row) (*Payment, error) {
	var (
		p      Payment
		method string
		amount int64
	)
	if err := row.Scan(&p.ID, &p.OrderID, &method, &amount, &p.PaidAt, &p.CreatedAt); err != nil {
		return nil, err
	}
	p.Method = Method(method)
	p.AmountCents = money.Cents(amount)
	return &p, nil
}
