package payment

import (
	"context"
	"errors"
	"fmt"

	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"
	"github.com/vasiliy-maslov/ecommerce-orders/internal/apperr"
	"github.com/vasiliy-maslov/ecommerce-orders/internal/clock"
	"github.com/vasiliy-maslov/ecommerce-orders/internal/metrics"
	"github.com/vasiliy-maslov/ecommerce-orders/internal/money"
	"github.com/vasiliy-maslov/ecommerce-orders/internal/order"
)

var ErrAlreadyPaid = apperr.New(apperr.ErrInvalidState, "order already fully paid")

// OrderLedger is the part of order.Service the payment flow relies on.
type OrderLedger interface {
	GetOrder(ctx context.Context, id uuid.UUID) (*order.Order, error)
	CalculateTotalCents(ctx context.Context, id uuid.UUID) (money.Cents, error)
	MarkAsPaid(ctx context.Context, id uuid.UUID) error
}

type Service interface {
	CreatePayment(ctx context.Context, input CreateInput) (*Result, error)
	GetPayment(ctx context.Context, id uuid.UUID) (*Payment, error)
	ListPaymentsByOrder(ctx context.Context, orderID uuid.UUID) ([]Payment, error)
}

type service struct {
	repo    Repository
	orders  OrderLedger
	metrics *metrics.Metrics
}

func NewService(repo Repository, orders OrderLedger, m *metrics.Metrics) Service {
	return &service{repo: repo, orders: orders, metrics: m}
}

// CreatePayment applies a payment against the outstanding balance of an order. The check
// and the insert run under the order lock, so concurrent payments cannot overshoot the total.
func (s *service) CreatePayment(ctx context.Context, input CreateInput) (*Result, error) {
	if input.AmountCents <= 0 {
		s.metrics.PaymentRejected("invalid_amount")
		return nil, apperr.InvalidInput("amount_cents must be greater than zero")
	}
	if !input.Method.Valid() {
		s.metrics.PaymentRejected("invalid_method")
		return nil, apperr.InvalidInput("invalid payment method %q", input.Method)
	}

	var result *Result
	err := s.repo.WithOrderLock(ctx, input.OrderID, func(ctx context.Context) error {
		var err error
		result, err = s.applyPayment(ctx, input)
		return err
	})
	if err != nil {
		if errors.Is(err, order.ErrOrderNotFound) {
			s.metrics.PaymentRejected("order_not_found")
			return nil, order.ErrOrderNotFound
		}
		return nil, err
	}

	s.metrics.PaymentRecorded(input.Method.String())
	return result, nil
}

func (s *service) applyPayment(ctx context.Context, input CreateInput) (*Result, error) {
	ord, err := s.orders.GetOrder(ctx, input.OrderID)
	if err != nil {
		return nil, err
	}
	if ord.Status == order.StatusCancelled {
		s.metrics.PaymentRejected("cancelled_order")
		return nil, order.ErrCancelledPayment
	}

	total, err := s.orders.CalculateTotalCents(ctx, input.OrderID)
	if err != nil {
		return nil, err
	}
	paidBefore, err := s.repo.SumByOrder(ctx, input.OrderID)
	if err != nil {
		log.Error().Err(err).Stringer("order_id", input.OrderID).Msg("service: failed to sum payments")
		return nil, fmt.Errorf("service: failed to sum payments: %w", err)
	}

	remaining := total - paidBefore
	if remaining <= 0 {
		s.metrics.PaymentRejected("already_paid")
		log.Warn().Stringer("order_id", input.OrderID).Msg("service: payment for a settled order")
		return nil, ErrAlreadyPaid
	}
	if input.AmountCents > remaining {
		s.metrics.PaymentRejected("exceeds_remaining")
		log.Warn().
			Stringer("order_id", input.OrderID).
			Int64("amount_cents", int64(input.AmountCents)).
			Int64("remaining_cents", int64(remaining)).
			Msg("service: payment exceeds remaining balance")
		return nil, apperr.InvalidState("payment exceeds remaining balance of %d cents", remaining)
	}

	payment := &Payment{
		OrderID:     input.OrderID,
		Method:      input.Method,
		AmountCents: input.AmountCents,
	}
	if err := s.repo.Create(ctx, payment); err != nil {
		log.Error().Err(err).Stringer("order_id", input.OrderID).Msg("service: failed to create payment in repository")
		return nil, fmt.Errorf("service: failed to create payment: %w", err)
	}

	paidAfter := paidBefore + input.AmountCents
	if paidAfter < total {
		missing := total - paidAfter
		log.Info().
			Stringer("payment_id", payment.ID).
			Stringer("order_id", input.OrderID).
			Int64("still_missing_cents", int64(missing)).
			Msg("service: partial payment recorded")
		return &Result{Payment: payment, StillMissingCents: &missing}, nil
	}

	paidAt := clock.Now()
	if err := s.repo.MarkAsPaid(ctx, payment.ID, paidAt); err != nil {
		log.Error().Err(err).Stringer("payment_id", payment.ID).Msg("service: failed to stamp settling payment")
		return nil, fmt.Errorf("service: failed to mark payment as paid: %w", err)
	}
	payment.PaidAt = &paidAt

	if err := s.orders.MarkAsPaid(ctx, input.OrderID); err != nil {
		return nil, err
	}

	log.Info().
		Stringer("payment_id", payment.ID).
		Stringer("order_id", input.OrderID).
		Msg("service: order settled")
	return &Result{Payment: payment}, nil
}

func (s *service) GetPayment(ctx context.Context, id uuid.UUID) (*Payment, error) {
	payment, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrPaymentNotFound) {
			log.Warn().Stringer("payment_id", id).Msg("service: payment not found by id")
			return nil, ErrPaymentNotFound
		}
		log.Error().Err(err).Stringer("payment_id", id).Msg("service: failed to fetch payment")
		return nil, fmt.Errorf("service: failed to fetch payment by id: %w", err)
	}
	return payment, nil
}

func (s *service) ListPaymentsByOrder(ctx context.Context, orderID uuid.UUID) ([]Payment, error) {
	if _, err := s.orders.GetOrder(ctx, orderID); err != nil {
		return nil, err
	}

	payments, err := s.repo.ListByOrder(ctx, orderID)
	if err != nil {
		log.Error().Err(err).Stringer("order_id", orderID).Msg("service: failed to list payments")
		return nil, fmt.Errorf("service: failed to list payments: %w", err)
	}
	return payments, nil
}
