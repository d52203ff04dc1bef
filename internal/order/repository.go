package order

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/gofrs/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog/log"
	"github.com/vasiliy-maslov/ecommerce-orders/internal/apperr"
	"github.com/vasiliy-maslov/ecommerce-orders/internal/clock"
	"github.com/vasiliy-maslov/ecommerce-orders/internal/db"
	"github.com/vasiliy-maslov/ecommerce-orders/internal/money"
)

var ErrOrderNotFound = apperr.New(apperr.ErrNotFound, "order not found")

// Repository persists orders together with their items.
type Repository interface {
	// Create stores the order and all of its items atomically and assigns ids.
	Create(ctx context.Context, order *Order) error
	FindByID(ctx context.Context, id uuid.UUID) (*Order, error)
	FindItems(ctx context.Context, orderID uuid.UUID) ([]OrderItem, error)
	SumItemsTotal(ctx context.Context, orderID uuid.UUID) (money.Cents, error)
	UpdateStatus(ctx context.Context, orderID uuid.UUID, status Status) error
	FindAllSummary(ctx context.Context, filter SummaryFilter) ([]Summary, error)
}

type postgresRepository struct {
	tm *db.TxManager
}

func NewRepository(tm *db.TxManager) Repository {
	return &postgresRepository{tm: tm}
}

func (r *postgresRepository) Create(ctx context.Context, order *Order) error {
	orderID, err := uuid.NewV4()
	if err != nil {
		return fmt.Errorf("repository: failed to generate order ID: %w", err)
	}
	now := clock.Now()

	items := make([]OrderItem, len(order.Items))
	copy(items, order.Items)

	err = r.tm.WithTx(ctx, func(ctx context.Context) error {
		q := r.tm.Querier(ctx)

		_, err := q.Exec(ctx, `
			INSERT INTO orders (id, customer_id, status, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5)`,
			orderID, order.CustomerID, string(order.Status), now, now,
		)
		if err != nil {
			return fmt.Errorf("repository: failed to insert order: %w", err)
		}

		for i := range items {
			item := &items[i]
			itemID, err := uuid.NewV4()
			if err != nil {
				return fmt.Errorf("repository: failed to generate order item ID: %w", err)
			}

			_, err = q.Exec(ctx, `
				INSERT INTO order_items (id, order_id, product_id, position, quantity, unit_price_cents)
				VALUES ($1, $2, $3, $4, $5, $6)`,
				itemID, orderID, item.ProductID, i, item.Quantity, int64(item.UnitPriceCents),
			)
			if err != nil {
				var pgErr *pgconn.PgError
				if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.ForeignKeyViolation {
					return fmt.Errorf("repository: order item references unknown product %s: %w", item.ProductID, err)
				}
				return fmt.Errorf("repository: failed to insert order item for product %s: %w", item.ProductID, err)
			}

			item.ID = itemID
			item.OrderID = orderID
			item.Position = i
		}
		return nil
	})
	if err != nil {
		log.Warn().Err(err).Stringer("order_id_attempted", orderID).Msg("repository: order creation rolled back")
		return err
	}

	order.ID = orderID
	order.Items = items
	order.CreatedAt = now
	order.UpdatedAt = now
	return nil
}

func (r *postgresRepository) FindByID(ctx context.Context, id uuid.UUID) (*Order, error) {
	var (
		o      Order
		status string
	)
	err := r.tm.Querier(ctx).QueryRow(ctx, `
		SELECT id, customer_id, status, created_at, updated_at
		FROM orders
		WHERE id = $1`, id,
	).Scan(&o.ID, &o.CustomerID, &status, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("repository: failed to select order by id %s: %w", id, err)
	}
	o.Status = Status(status)
	return &o, nil
}

func (r *postgresRepository) FindItems(ctx context.Context, orderID uuid.UUID) ([]OrderItem, error) {
	rows, err := r.tm.Querier(ctx).Query(ctx, `
		SELECT id, order_id, product_id, position, quantity, unit_price_cents
		FROM order_items
		WHERE order_id = $1
		ORDER BY position`, orderID)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query items for order %s: %w", orderID, err)
	}
	defer rows.Close()

	items := make([]OrderItem, 0)
	for rows.Next() {
		var (
			item  OrderItem
			price int64
		)
		if err := rows.Scan(&item.ID, &item.OrderID, &item.ProductID, &item.Position, &item.Quantity, &price); err != nil {
			return nil, fmt.Errorf("repository: failed to scan order item: %w", err)
		}
		item.UnitPriceCents = money.Cents(price)
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: error iterating order items: %w", err)
	}
	return items, nil
}

func (r *postgresRepository) SumItemsTotal(ctx context.Context, orderID uuid.UUID) (money.Cents, error) {
	var total int64
	err := r.tm.Querier(ctx).QueryRow(ctx, `
		SELECT COALESCE(SUM(quantity * unit_price_cents), 0)::BIGINT
		FROM order_items
		WHERE order_id = $1`, orderID,
	).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("repository: failed to sum items for order %s: %w", orderID, err)
	}
	return money.Cents(total), nil
}

func (r *postgresRepository) UpdateStatus(ctx context.Context, orderID uuid.UUID, status Status) error {
	cmdTag, err := r.tm.Querier(ctx).Exec(ctx, `
		UPDATE orders SET status = $1, updated_at = $2 WHERE id = $3`,
		string(status), clock.Now(), orderID,
	)
	if err != nil {
		return fmt.Errorf("repository: failed to update status of order %s: %w", orderID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return ErrOrderNotFound
	}
	return nil
}

func (r *postgresRepository) FindAllSummary(ctx context.Context, filter SummaryFilter) ([]Summary, error) {
	var (
		conditions []string
		args       []any
	)
	if filter.Status != nil {
		args = append(args, string(*filter.Status))
		conditions = append(conditions, fmt.Sprintf("o.status = $%d", len(args)))
	}
	if filter.CustomerID != nil {
		args = append(args, *filter.CustomerID)
		conditions = append(conditions, fmt.Sprintf("o.customer_id = $%d", len(args)))
	}

	query := `
		SELECT o.id, o.customer_id, o.status, o.created_at,
			COALESCE((SELECT SUM(i.quantity * i.unit_price_cents) FROM order_items i WHERE i.order_id = o.id), 0)::BIGINT,
			COALESCE((SELECT SUM(p.amount_cents) FROM payments p WHERE p.order_id = o.id), 0)::BIGINT
		FROM orders o`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY o.created_at DESC, o.id"
	if filter.Limit != nil {
		args = append(args, *filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := r.tm.Querier(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query order summaries: %w", err)
	}
	defer rows.Close()

	summaries := make([]Summary, 0)
	for rows.Next() {
		var (
			s           Summary
			status      string
			total, paid int64
		)
		if err := rows.Scan(&s.ID, &s.CustomerID, &status, &s.CreatedAt, &total, &paid); err != nil {
			return nil, fmt.Errorf("repository: failed to scan order summary: %w", err)
		}
		s.Status = Status(status)
		s.TotalCents = money.Cents(total)
		s.TotalPaidCents = money.Cents(paid)
		summaries = append(summaries, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: error iterating order summaries: %w", err)
	}
	return summaries, nil
}
