package order

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"
	"github.com/vasiliy-maslov/ecommerce-orders/internal/apperr"
	"github.com/vasiliy-maslov/ecommerce-orders/internal/catalog"
	"github.com/vasiliy-maslov/ecommerce-orders/internal/customer"
	"github.com/vasiliy-maslov/ecommerce-orders/internal/metrics"
	"github.com/vasiliy-maslov/ecommerce-orders/internal/money"
)

// MaxQuantity matches the INT column that stores item quantities.
const MaxQuantity = math.MaxInt32

var (
	ErrOrderHasNoItems  = apperr.New(apperr.ErrInvalidState, "order has no items")
	ErrCancelledPayment = apperr.New(apperr.ErrInvalidState, "cannot pay a cancelled order")
)

// ProductCatalog resolves products for pricing. Satisfied by catalog.Service.
type ProductCatalog interface {
	GetProductByID(ctx context.Context, id uuid.UUID) (*catalog.Product, error)
}

// CustomerDirectory confirms customers exist. Satisfied by customer.Service.
type CustomerDirectory interface {
	GetCustomerByID(ctx context.Context, id uuid.UUID) (*customer.Customer, error)
}

type Service interface {
	CreateOrder(ctx context.Context, input CreateInput) (*Order, error)
	GetOrder(ctx context.Context, id uuid.UUID) (*Order, error)
	GetOrderDetails(ctx context.Context, id uuid.UUID) (*Details, error)
	CalculateTotalCents(ctx context.Context, id uuid.UUID) (money.Cents, error)
	ListSummaries(ctx context.Context, filter SummaryFilter) ([]Summary, error)
	// MarkAsPaid moves NEW to PAID. Repeating it on a PAID order does nothing.
	MarkAsPaid(ctx context.Context, id uuid.UUID) error
}

type service struct {
	repo      Repository
	products  ProductCatalog
	customers CustomerDirectory
	metrics   *metrics.Metrics
}

func NewService(repo Repository, products ProductCatalog, customers CustomerDirectory, m *metrics.Metrics) Service {
	return &service{
		repo:      repo,
		products:  products,
		customers: customers,
		metrics:   m,
	}
}

func (s *service) CreateOrder(ctx context.Context, input CreateInput) (*Order, error) {
	if len(input.Items) == 0 {
		log.Warn().Stringer("customer_id", input.CustomerID).Msg("service: attempt to create order with no items")
		return nil, apperr.InvalidInput("order must contain at least one item")
	}
	for _, item := range input.Items {
		if item.Quantity <= 0 {
			return nil, apperr.InvalidInput("quantity for product %s must be greater than zero", item.ProductID)
		}
		if item.Quantity > MaxQuantity {
			return nil, apperr.InvalidInput("quantity for product %s must not exceed %d", item.ProductID, MaxQuantity)
		}
	}

	items := make([]OrderItem, 0, len(input.Items))
	subtotals := make([]money.Cents, 0, len(input.Items))
	for _, in := range input.Items {
		product, err := s.products.GetProductByID(ctx, in.ProductID)
		if err != nil {
			if errors.Is(err, apperr.ErrNotFound) {
				log.Warn().Stringer("product_id", in.ProductID).Msg("service: order references unknown product")
				return nil, err
			}
			return nil, fmt.Errorf("service: failed to resolve product %s: %w", in.ProductID, err)
		}
		if !product.Active {
			return nil, apperr.InvalidState("product not active: %s", product.Name)
		}

		subtotal, err := product.PriceCents.CheckedTimes(in.Quantity)
		if err != nil {
			return nil, apperr.InvalidInput("subtotal for product %s is out of range", product.ID)
		}
		subtotals = append(subtotals, subtotal)
		items = append(items, OrderItem{
			ProductID:      product.ID,
			Quantity:       in.Quantity,
			UnitPriceCents: product.PriceCents,
		})
	}
	if _, err := money.Sum(subtotals...); err != nil {
		return nil, apperr.InvalidInput("order total is out of range")
	}

	if _, err := s.customers.GetCustomerByID(ctx, input.CustomerID); err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			log.Warn().Stringer("customer_id", input.CustomerID).Msg("service: order for unknown customer")
			return nil, err
		}
		return nil, fmt.Errorf("service: failed to resolve customer %s: %w", input.CustomerID, err)
	}

	order := &Order{
		CustomerID: input.CustomerID,
		Status:     StatusNew,
		Items:      items,
	}
	if err := s.repo.Create(ctx, order); err != nil {
		log.Error().Err(err).Stringer("customer_id", input.CustomerID).Msg("service: failed to create order in repository")
		return nil, apperr.Internal("failed to create order")
	}

	s.metrics.OrderCreated()
	log.Info().
		Stringer("order_id", order.ID).
		Stringer("customer_id", order.CustomerID).
		Int64("total_cents", int64(order.TotalCents())).
		Msg("service: order created")

	return order, nil
}

func (s *service) GetOrder(ctx context.Context, id uuid.UUID) (*Order, error) {
	order, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrOrderNotFound) {
			log.Warn().Stringer("order_id", id).Msg("service: order not found by id")
			return nil, ErrOrderNotFound
		}
		log.Error().Err(err).Stringer("order_id", id).Msg("service: failed to fetch order by id in repository")
		return nil, fmt.Errorf("service: failed to fetch order by id: %w", err)
	}

	items, err := s.repo.FindItems(ctx, id)
	if err != nil {
		log.Error().Err(err).Stringer("order_id", id).Msg("service: failed to fetch order items in repository")
		return nil, fmt.Errorf("service: failed to fetch order items: %w", err)
	}
	order.Items = items

	return order, nil
}

func (s *service) GetOrderDetails(ctx context.Context, id uuid.UUID) (*Details, error) {
	order, err := s.GetOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	if len(order.Items) == 0 {
		log.Error().Stringer("order_id", id).Msg("service: persisted order has no items")
		return nil, ErrOrderHasNoItems
	}

	details := &Details{
		ID:         order.ID,
		CustomerID: order.CustomerID,
		Status:     order.Status,
		CreatedAt:  order.CreatedAt,
		Items:      make([]ItemDetails, 0, len(order.Items)),
		TotalCents: order.TotalCents(),
	}
	for _, item := range order.Items {
		product, err := s.products.GetProductByID(ctx, item.ProductID)
		if err != nil {
			return nil, fmt.Errorf("service: failed to resolve product %s for order %s: %w", item.ProductID, id, err)
		}
		details.Items = append(details.Items, ItemDetails{
			ProductID:      item.ProductID,
			ProductName:    product.Name,
			Quantity:       item.Quantity,
			UnitPriceCents: item.UnitPriceCents,
			SubtotalCents:  item.SubtotalCents(),
		})
	}

	return details, nil
}

func (s *service) CalculateTotalCents(ctx context.Context, id uuid.UUID) (money.Cents, error) {
	total, err := s.repo.SumItemsTotal(ctx, id)
	if err != nil {
		log.Error().Err(err).Stringer("order_id", id).Msg("service: failed to sum order items")
		return 0, fmt.Errorf("service: failed to calculate order total: %w", err)
	}
	return total, nil
}

func (s *service) ListSummaries(ctx context.Context, filter SummaryFilter) ([]Summary, error) {
	if filter.Status != nil && !filter.Status.Valid() {
		return nil, apperr.InvalidInput("invalid order status %q", *filter.Status)
	}
	if filter.Limit != nil && *filter.Limit <= 0 {
		return nil, apperr.InvalidInput("limit must be greater than zero")
	}

	summaries, err := s.repo.FindAllSummary(ctx, filter)
	if err != nil {
		log.Error().Err(err).Msg("service: failed to list order summaries")
		return nil, fmt.Errorf("service: failed to list order summaries: %w", err)
	}
	return summaries, nil
}

func (s *service) MarkAsPaid(ctx context.Context, id uuid.UUID) error {
	order, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrOrderNotFound) {
			return ErrOrderNotFound
		}
		log.Error().Err(err).Stringer("order_id", id).Msg("service: failed to get order for status update")
		return fmt.Errorf("service: failed to get order for status update: %w", err)
	}

	switch order.Status {
	case StatusPaid:
		log.Debug().Stringer("order_id", id).Msg("service: order already paid, nothing to do")
		return nil
	case StatusCancelled:
		log.Warn().Stringer("order_id", id).Msg("service: attempt to pay a cancelled order")
		return ErrCancelledPayment
	}

	if err := s.repo.UpdateStatus(ctx, id, StatusPaid); err != nil {
		if errors.Is(err, ErrOrderNotFound) {
			return ErrOrderNotFound
		}
		log.Error().Err(err).Stringer("order_id", id).Msg("service: failed to update order status in repository")
		return fmt.Errorf("service: failed to update order status: %w", err)
	}

	s.metrics.OrderSettled()
	log.Info().
		Stringer("order_id", id).
		Stringer("old_status", order.Status).
		Stringer("new_status", StatusPaid).
		Msg("service: order status updated")
	return nil
}
