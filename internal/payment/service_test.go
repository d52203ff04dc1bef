package payment_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/gofrs/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vasiliy-maslov/ecommerce-orders/internal/apperr"
	"github.com/vasiliy-maslov/ecommerce-orders/internal/catalog"
	"github.com/vasiliy-maslov/ecommerce-orders/internal/customer"
	"github.com/vasiliy-maslov/ecommerce-orders/internal/metrics"
	"github.com/vasiliy-maslov/ecommerce-orders/internal/money"
	"github.com/vasiliy-maslov/ecommerce-orders/internal/order"
	"github.com/vasiliy-maslov/ecommerce-orders/internal/payment"
	"github.com/vasiliy-maslov/ecommerce-orders/internal/storage/memory"
)

type fixture struct {
	store    *memory.Store
	orders   order.Service
	payments payment.Service
	buyer    *customer.Customer
	catalog  catalog.Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	store := memory.New()
	m := metrics.New(prometheus.NewRegistry())
	catalogSvc := catalog.NewService(store.Products())
	customerSvc := customer.NewService(store.Customers())
	orderSvc := order.NewService(store.Orders(), catalogSvc, customerSvc, m)

	buyer, err := customerSvc.CreateCustomer(context.Background(), &customer.Customer{Name: "Carla", Email: "carla@example.com"})
	require.NoError(t, err)

	return &fixture{
		store:    store,
		orders:   orderSvc,
		payments: payment.NewService(store.Payments(), orderSvc, m),
		buyer:    buyer,
		catalog:  catalogSvc,
	}
}

// newOrder places an order for one product priced at total.
func (f *fixture) newOrder(t *testing.T, total money.Cents) uuid.UUID {
	t.Helper()
	ctx := context.Background()

	product, err := f.catalog.CreateProduct(ctx, &catalog.Product{
		Name:       "Blender",
		Category:   catalog.CategoryKitchen,
		PriceCents: total,
		Active:     true,
	})
	require.NoError(t, err)

	created, err := f.orders.CreateOrder(ctx, order.CreateInput{
		CustomerID: f.buyer.ID,
		Items:      []order.ItemInput{{ProductID: product.ID, Quantity: 1}},
	})
	require.NoError(t, err)
	return created.ID
}

func (f *fixture) status(t *testing.T, orderID uuid.UUID) order.Status {
	t.Helper()
	o, err := f.orders.GetOrder(context.Background(), orderID)
	require.NoError(t, err)
	return o.Status
}

func TestPaymentService_PartialThenFinalPayment(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	orderID := f.newOrder(t, 1000)

	first, err := f.payments.CreatePayment(ctx, payment.CreateInput{OrderID: orderID, Method: payment.MethodPix, AmountCents: 400})
	require.NoError(t, err)
	require.NotNil(t, first.StillMissingCents)
	assert.Equal(t, money.Cents(600), *first.StillMissingCents)
	assert.Nil(t, first.Payment.PaidAt)
	assert.Equal(t, order.StatusNew, f.status(t, orderID))

	second, err := f.payments.CreatePayment(ctx, payment.CreateInput{OrderID: orderID, Method: payment.MethodCard, AmountCents: 600})
	require.NoError(t, err)
	assert.Nil(t, second.StillMissingCents)
	assert.NotNil(t, second.Payment.PaidAt)
	assert.Equal(t, order.StatusPaid, f.status(t, orderID))

	stored, err := f.payments.GetPayment(ctx, second.Payment.ID)
	require.NoError(t, err)
	assert.NotNil(t, stored.PaidAt)

	list, err := f.payments.ListPaymentsByOrder(ctx, orderID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, first.Payment.ID, list[0].ID)
	assert.Equal(t, second.Payment.ID, list[1].ID)
}

func TestPaymentService_AlreadyPaid(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	orderID := f.newOrder(t, 1000)

	_, err := f.payments.CreatePayment(ctx, payment.CreateInput{OrderID: orderID, Method: payment.MethodBoleto, AmountCents: 1000})
	require.NoError(t, err)

	_, err = f.payments.CreatePayment(ctx, payment.CreateInput{OrderID: orderID, Method: payment.MethodPix, AmountCents: 1})
	require.Error(t, err)
	assert.ErrorIs(t, err, payment.ErrAlreadyPaid)
	assert.ErrorIs(t, err, apperr.ErrInvalidState)
	assert.Equal(t, "order already fully paid", err.Error())
}

func TestPaymentService_Boundary(t *testing.T) {
	t.Run("remaining plus one is rejected", func(t *testing.T) {
		f := newFixture(t)
		ctx := context.Background()
		orderID := f.newOrder(t, 1000)

		_, err := f.payments.CreatePayment(ctx, payment.CreateInput{OrderID: orderID, Method: payment.MethodPix, AmountCents: 300})
		require.NoError(t, err)

		_, err = f.payments.CreatePayment(ctx, payment.CreateInput{OrderID: orderID, Method: payment.MethodPix, AmountCents: 701})
		require.Error(t, err)
		assert.ErrorIs(t, err, apperr.ErrInvalidState)
		assert.Equal(t, "payment exceeds remaining balance of 700 cents", err.Error())

		paid, err := f.store.Payments().SumByOrder(ctx, orderID)
		require.NoError(t, err)
		assert.Equal(t, money.Cents(300), paid)
		assert.Equal(t, order.StatusNew, f.status(t, orderID))
	})

	t.Run("exact remaining settles", func(t *testing.T) {
		f := newFixture(t)
		ctx := context.Background()
		orderID := f.newOrder(t, 1000)

		_, err := f.payments.CreatePayment(ctx, payment.CreateInput{OrderID: orderID, Method: payment.MethodPix, AmountCents: 300})
		require.NoError(t, err)

		result, err := f.payments.CreatePayment(ctx, payment.CreateInput{OrderID: orderID, Method: payment.MethodPix, AmountCents: 700})
		require.NoError(t, err)
		assert.Nil(t, result.StillMissingCents)
		assert.Equal(t, order.StatusPaid, f.status(t, orderID))
	})
}

func TestPaymentService_Validation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	orderID := f.newOrder(t, 1000)

	tests := []struct {
		name  string
		input payment.CreateInput
		kind  error
	}{
		{"zero amount", payment.CreateInput{OrderID: orderID, Method: payment.MethodPix, AmountCents: 0}, apperr.ErrInvalidInput},
		{"negative amount", payment.CreateInput{OrderID: orderID, Method: payment.MethodPix, AmountCents: -5}, apperr.ErrInvalidInput},
		{"unknown method", payment.CreateInput{OrderID: orderID, Method: payment.ParseMethod("cash"), AmountCents: 100}, apperr.ErrInvalidInput},
		{"missing order", payment.CreateInput{OrderID: uuid.Must(uuid.NewV4()), Method: payment.MethodCard, AmountCents: 100}, apperr.ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.payments.CreatePayment(ctx, tt.input)
			assert.ErrorIs(t, err, tt.kind)
		})
	}

	list, err := f.payments.ListPaymentsByOrder(ctx, orderID)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestPaymentService_CancelledOrder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	orderID := f.newOrder(t, 1000)
	require.NoError(t, f.store.Orders().UpdateStatus(ctx, orderID, order.StatusCancelled))

	_, err := f.payments.CreatePayment(ctx, payment.CreateInput{OrderID: orderID, Method: payment.MethodPix, AmountCents: 100})
	assert.ErrorIs(t, err, order.ErrCancelledPayment)

	paid, err := f.store.Payments().SumByOrder(ctx, orderID)
	require.NoError(t, err)
	assert.Zero(t, paid)
}

func TestPaymentService_ConcurrentPaymentsNeverOverpay(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	orderID := f.newOrder(t, 1000)

	const attempts = 25
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		rejected  int
	)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.payments.CreatePayment(ctx, payment.CreateInput{OrderID: orderID, Method: payment.MethodCard, AmountCents: 100})

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				succeeded++
			case errors.Is(err, apperr.ErrInvalidState):
				rejected++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 10, succeeded)
	assert.Equal(t, attempts-10, rejected)

	paid, err := f.store.Payments().SumByOrder(ctx, orderID)
	require.NoError(t, err)
	assert.Equal(t, money.Cents(1000), paid)
	assert.Equal(t, order.StatusPaid, f.status(t, orderID))
}

func TestPaymentService_GetPayment_NotFound(t *testing.T) {
	f := newFixture(t)

	_, err := f.payments.GetPayment(context.Background(), uuid.Must(uuid.NewV4()))
	assert.ErrorIs(t, err, payment.ErrPaymentNotFound)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestParseMethod(t *testing.T) {
	assert.Equal(t, payment.MethodPix, payment.ParseMethod("pix"))
	assert.Equal(t, payment.MethodBoleto, payment.ParseMethod(" BOLETO "))
	assert.Equal(t, payment.MethodUnknown, payment.ParseMethod("UNKNOWN"))
	assert.False(t, payment.MethodUnknown.Valid())
}
