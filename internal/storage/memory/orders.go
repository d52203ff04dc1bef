package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/gofrs/uuid"
	"github.com/vasiliy-maslov/ecommerce-orders/internal/clock"
	"github.com/vasiliy-maslov/ecommerce-orders/internal/money"
	"github.com/vasiliy-maslov/ecommerce-orders/internal/order"
	"github.com/vasiliy-maslov/ecommerce-orders/internal/payment"
)

type orderRepository struct {
	s *Store
}

// Create writes the order and its items under one lock, so readers never see one without
// the other.
func (r *orderRepository) Create(_ context.Context, o *order.Order) error {
	orderID, err := uuid.NewV4()
	if err != nil {
		return fmt.Errorf("memory: failed to generate order ID: %w", err)
	}
	items := make([]order.OrderItem, len(o.Items))
	for i, item := range o.Items {
		itemID, err := uuid.NewV4()
		if err != nil {
			return fmt.Errorf("memory: failed to generate order item ID: %w", err)
		}
		item.ID = itemID
		item.OrderID = orderID
		item.Position = i
		items[i] = item
	}
	now := clock.Now()

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	o.ID = orderID
	o.CreatedAt = now
	o.UpdatedAt = now
	o.Items = items

	header := *o
	header.Items = nil
	r.s.orders[orderID] = orderRow{order: header, seq: r.s.nextSeq()}
	r.s.items[orderID] = append([]order.OrderItem(nil), items...)
	return nil
}

func (r *orderRepository) FindByID(_ context.Context, id uuid.UUID) (*order.Order, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	row, ok := r.s.orders[id]
	if !ok {
		return nil, order.ErrOrderNotFound
	}
	o := row.order
	return &o, nil
}

func (r *orderRepository) FindItems(_ context.Context, orderID uuid.UUID) ([]order.OrderItem, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	return append(make([]order.OrderItem, 0, len(r.s.items[orderID])), r.s.items[orderID]...), nil
}

func (r *orderRepository) SumItemsTotal(_ context.Context, orderID uuid.UUID) (money.Cents, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	return r.s.itemsTotal(orderID), nil
}

func (r *orderRepository) UpdateStatus(_ context.Context, orderID uuid.UUID, status order.Status) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	row, ok := r.s.orders[orderID]
	if !ok {
		return order.ErrOrderNotFound
	}
	row.order.Status = status
	row.order.UpdatedAt = clock.Now()
	r.s.orders[orderID] = row
	return nil
}

func (r *orderRepository) FindAllSummary(_ context.Context, filter order.SummaryFilter) ([]order.Summary, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	rows := make([]orderRow, 0, len(r.s.orders))
	for _, row := range r.s.orders {
		if filter.Status != nil && row.order.Status != *filter.Status {
			continue
		}
		if filter.CustomerID != nil && row.order.CustomerID != *filter.CustomerID {
			continue
		}
		rows = append(rows, row)
	}
	sort.Slice(rows, func(i, j int) bool {
		return newerFirst(rows[i].order.CreatedAt, rows[i].seq, rows[j].order.CreatedAt, rows[j].seq)
	})
	if filter.Limit != nil && len(rows) > *filter.Limit {
		rows = rows[:*filter.Limit]
	}

	summaries := make([]order.Summary, 0, len(rows))
	for _, row := range rows {
		summaries = append(summaries, order.Summary{
			ID:             row.order.ID,
			CustomerID:     row.order.CustomerID,
			Status:         row.order.Status,
			CreatedAt:      row.order.CreatedAt,
			TotalCents:     r.s.itemsTotal(row.order.ID),
			TotalPaidCents: r.s.paidTotal(row.order.ID),
		})
	}
	return summaries, nil
}

// newerFirst breaks creation-time ties by insertion order.
func newerFirst(a time.Time, aSeq uint64, b time.Time, bSeq uint64) bool {
	if !a.Equal(b) {
		return a.After(b)
	}
	return aSeq > bSeq
}

// itemsTotal and paidTotal must be called with mu held.
func (s *Store) itemsTotal(orderID uuid.UUID) money.Cents {
	var total money.Cents
	for _, item := range s.items[orderID] {
		total += item.SubtotalCents()
	}
	return total
}

func (s *Store) paidTotal(orderID uuid.UUID) money.Cents {
	var total money.Cents
	for _, row := range s.payments {
		if row.payment.OrderID == orderID {
			total += row.payment.AmountCents
		}
	}
	return total
}

type paymentRepository struct {
	s *Store
}

func (r *paymentRepository) Create(_ context.Context, p *payment.Payment) error {
	id, err := uuid.NewV4()
	if err != nil {
		return fmt.Errorf("memory: failed to generate payment ID: %w", err)
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.orders[p.OrderID]; !ok {
		return fmt.Errorf("memory: payment references unknown order %s", p.OrderID)
	}
	p.ID = id
	p.CreatedAt = clock.Now()
	r.s.payments[id] = paymentRow{payment: *p, seq: r.s.nextSeq()}
	return nil
}

func (r *paymentRepository) FindByID(_ context.Context, id uuid.UUID) (*payment.Payment, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	row, ok := r.s.payments[id]
	if !ok {
		return nil, payment.ErrPaymentNotFound
	}
	p := row.payment
	return &p, nil
}

func (r *paymentRepository) SumByOrder(_ context.Context, orderID uuid.UUID) (money.Cents, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	return r.s.paidTotal(orderID), nil
}

func (r *paymentRepository) MarkAsPaid(_ context.Context, id uuid.UUID, paidAt time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	row, ok := r.s.payments[id]
	if !ok {
		return payment.ErrPaymentNotFound
	}
	row.payment.PaidAt = &paidAt
	r.s.payments[id] = row
	return nil
}

func (r *paymentRepository) ListByOrder(_ context.Context, orderID uuid.UUID) ([]payment.Payment, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	rows := make([]paymentRow, 0)
	for _, row := range r.s.payments {
		if row.payment.OrderID == orderID {
			rows = append(rows, row)
		}
	}
	sort.Slice(rows, func(i, j int) bool {
		return rows[i].seq < rows[j].seq
	})

	payments := make([]payment.Payment, 0, len(rows))
	for _, row := range rows {
		payments = append(payments, row.payment)
	}
	return payments, nil
}

func (r *paymentRepository) WithOrderLock(ctx context.Context, orderID uuid.UUID, fn func(ctx context.Context) error) error {
	r.s.mu.RLock()
	_, ok := r.s.orders[orderID]
	r.s.mu.RUnlock()
	if !ok {
		return order.ErrOrderNotFound
	}

	lock := r.s.orderLock(orderID)
	lock.Lock()
	defer lock.Unlock()

	snap := r.s.snapshotOrder(orderID)
	if err := fn(ctx); err != nil {
		r.s.restoreOrder(snap)
		return err
	}
	return nil
}

// orderSnapshot is the payment-related state of one order. Restoring it undoes whatever a
// failed WithOrderLock callback wrote, like the rolled back transaction in Postgres.
type orderSnapshot struct {
	orderID uuid.UUID
	row     orderRow
	paidAt  map[uuid.UUID]*time.Time
}

func (s *Store) snapshotOrder(orderID uuid.UUID) orderSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := orderSnapshot{
		orderID: orderID,
		row:     s.orders[orderID],
		paidAt:  make(map[uuid.UUID]*time.Time),
	}
	for id, p := range s.payments {
		if p.payment.OrderID == orderID {
			snap.paidAt[id] = p.payment.PaidAt
		}
	}
	return snap
}

func (s *Store) restoreOrder(snap orderSnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.orders[snap.orderID] = snap.row
	for id, p := range s.payments {
		if p.payment.OrderID != snap.orderID {
			continue
		}
		paidAt, existed := snap.paidAt[id]
		if !existed {
			delete(s.payments, id)
			continue
		}
		p.payment.PaidAt = paidAt
		s.payments[id] = p
	}
}
