package memory_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gofrs/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vasiliy-maslov/ecommerce-orders/internal/catalog"
	"github.com/vasiliy-maslov/ecommerce-orders/internal/customer"
	"github.com/vasiliy-maslov/ecommerce-orders/internal/money"
	"github.com/vasiliy-maslov/ecommerce-orders/internal/order"
	"github.com/vasiliy-maslov/ecommerce-orders/internal/payment"
	"github.com/vasiliy-maslov/ecommerce-orders/internal/storage/memory"
)

func seedOrder(t *testing.T, s *memory.Store, customerID uuid.UUID, prices ...money.Cents) *order.Order {
	t.Helper()
	o := &order.Order{CustomerID: customerID, Status: order.StatusNew}
	for _, p := range prices {
		o.Items = append(o.Items, order.OrderItem{ProductID: uuid.Must(uuid.NewV4()), Quantity: 2, UnitPriceCents: p})
	}
	require.NoError(t, s.Orders().Create(context.Background(), o))
	return o
}

func TestOrders_CreateAndRead(t *testing.T) {
	ctx := context.Background()
	s := memory.New()
	o := seedOrder(t, s, uuid.Must(uuid.NewV4()), 100, 250)

	require.NotEqual(t, uuid.Nil, o.ID)
	require.Len(t, o.Items, 2)
	for i, item := range o.Items {
		assert.Equal(t, o.ID, item.OrderID)
		assert.Equal(t, i, item.Position)
		assert.NotEqual(t, uuid.Nil, item.ID)
	}

	found, err := s.Orders().FindByID(ctx, o.ID)
	require.NoError(t, err)
	assert.Empty(t, found.Items)
	assert.Equal(t, order.StatusNew, found.Status)

	items, err := s.Orders().FindItems(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, o.Items, items)

	total, err := s.Orders().SumItemsTotal(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, money.Cents(700), total)

	_, err = s.Orders().FindByID(ctx, uuid.Must(uuid.NewV4()))
	assert.ErrorIs(t, err, order.ErrOrderNotFound)
	assert.ErrorIs(t, s.Orders().UpdateStatus(ctx, uuid.Must(uuid.NewV4()), order.StatusPaid), order.ErrOrderNotFound)
}

func TestOrders_FindAllSummary(t *testing.T) {
	ctx := context.Background()
	s := memory.New()
	alice := uuid.Must(uuid.NewV4())
	bob := uuid.Must(uuid.NewV4())

	first := seedOrder(t, s, alice, 100)
	second := seedOrder(t, s, bob, 200)
	third := seedOrder(t, s, alice, 300)
	require.NoError(t, s.Orders().UpdateStatus(ctx, third.ID, order.StatusPaid))
	require.NoError(t, s.Payments().Create(ctx, &payment.Payment{OrderID: third.ID, Method: payment.MethodPix, AmountCents: 600}))

	all, err := s.Orders().FindAllSummary(ctx, order.SummaryFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []uuid.UUID{third.ID, second.ID, first.ID}, []uuid.UUID{all[0].ID, all[1].ID, all[2].ID})
	assert.Equal(t, money.Cents(600), all[0].TotalCents)
	assert.Equal(t, money.Cents(600), all[0].TotalPaidCents)
	assert.Zero(t, all[1].TotalPaidCents)

	paid := order.StatusPaid
	filtered, err := s.Orders().FindAllSummary(ctx, order.SummaryFilter{Status: &paid, CustomerID: &alice})
	require.NoError(t, err)
	require.Len(t, filtered, 1)
	assert.Equal(t, third.ID, filtered[0].ID)

	limit := 2
	limited, err := s.Orders().FindAllSummary(ctx, order.SummaryFilter{CustomerID: &alice, Limit: &limit})
	require.NoError(t, err)
	assert.Len(t, limited, 2)

	limit = 1
	limited, err = s.Orders().FindAllSummary(ctx, order.SummaryFilter{Limit: &limit})
	require.NoError(t, err)
	require.Len(t, limited, 1)
	assert.Equal(t, third.ID, limited[0].ID)
}

func TestPayments_SumMarkList(t *testing.T) {
	ctx := context.Background()
	s := memory.New()
	o := seedOrder(t, s, uuid.Must(uuid.NewV4()), 500)

	p1 := &payment.Payment{OrderID: o.ID, Method: payment.MethodCard, AmountCents: 300}
	p2 := &payment.Payment{OrderID: o.ID, Method: payment.MethodPix, AmountCents: 700}
	require.NoError(t, s.Payments().Create(ctx, p1))
	require.NoError(t, s.Payments().Create(ctx, p2))

	sum, err := s.Payments().SumByOrder(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, money.Cents(1000), sum)

	paidAt := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	require.NoError(t, s.Payments().MarkAsPaid(ctx, p2.ID, paidAt))

	found, err := s.Payments().FindByID(ctx, p2.ID)
	require.NoError(t, err)
	require.NotNil(t, found.PaidAt)
	assert.True(t, paidAt.Equal(*found.PaidAt))

	list, err := s.Payments().ListByOrder(ctx, o.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, p1.ID, list[0].ID)
	assert.Equal(t, p2.ID, list[1].ID)

	assert.ErrorIs(t, s.Payments().MarkAsPaid(ctx, uuid.Must(uuid.NewV4()), paidAt), payment.ErrPaymentNotFound)
	assert.Error(t, s.Payments().Create(ctx, &payment.Payment{OrderID: uuid.Must(uuid.NewV4()), Method: payment.MethodPix, AmountCents: 1}))
}

func TestPayments_WithOrderLock(t *testing.T) {
	ctx := context.Background()
	s := memory.New()
	o := seedOrder(t, s, uuid.Must(uuid.NewV4()), 100)

	err := s.Payments().WithOrderLock(ctx, uuid.Must(uuid.NewV4()), func(context.Context) error {
		t.Fatal("callback must not run for a missing order")
		return nil
	})
	assert.ErrorIs(t, err, order.ErrOrderNotFound)

	var (
		wg      sync.WaitGroup
		inside  int32
		maxSeen int32
	)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = s.Payments().WithOrderLock(ctx, o.ID, func(context.Context) error {
				n := atomic.AddInt32(&inside, 1)
				for {
					seen := atomic.LoadInt32(&maxSeen)
					if n <= seen || atomic.CompareAndSwapInt32(&maxSeen, seen, n) {
						break
					}
				}
				time.Sleep(time.Millisecond)
				atomic.AddInt32(&inside, -1)
				return nil
			})
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), maxSeen)
}

func TestProductsAndCustomers(t *testing.T) {
	ctx := context.Background()
	s := memory.New()

	kettle := &catalog.Product{Name: "Kettle", Category: catalog.CategoryKitchen, PriceCents: 5000, Active: true}
	apple := &catalog.Product{Name: "Apple", Category: catalog.CategoryFood, PriceCents: 150, Active: false}
	require.NoError(t, s.Products().Create(ctx, kettle))
	require.NoError(t, s.Products().Create(ctx, apple))

	all, err := s.Products().List(ctx, catalog.Filter{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "Apple", all[0].Name)

	active := true
	onlyActive, err := s.Products().List(ctx, catalog.Filter{Active: &active})
	require.NoError(t, err)
	require.Len(t, onlyActive, 1)
	assert.Equal(t, kettle.ID, onlyActive[0].ID)

	missing := &catalog.Product{ID: uuid.Must(uuid.NewV4()), Name: "Ghost", Category: catalog.CategoryOther}
	assert.ErrorIs(t, s.Products().Update(ctx, missing), catalog.ErrProductNotFound)

	c := &customer.Customer{Name: "Dora", Email: "dora@example.com"}
	require.NoError(t, s.Customers().Create(ctx, c))
	assert.ErrorIs(t, s.Customers().Create(ctx, &customer.Customer{Name: "Dup", Email: "dora@example.com"}), customer.ErrEmailExists)

	byEmail, err := s.Customers().GetByEmail(ctx, "dora@example.com")
	require.NoError(t, err)
	assert.Equal(t, c.ID, byEmail.ID)

	_, err = s.Customers().GetByID(ctx, uuid.Must(uuid.NewV4()))
	assert.ErrorIs(t, err, customer.ErrNotFound)
}

func TestPayments_WithOrderLock_UndoesFailedCallback(t *testing.T) {
	ctx := context.Background()
	s := memory.New()
	o := seedOrder(t, s, uuid.Must(uuid.NewV4()), 500)

	first := &payment.Payment{OrderID: o.ID, Method: payment.MethodPix, AmountCents: 400}
	require.NoError(t, s.Payments().Create(ctx, first))
	paidAt := time.Date(2024, 5, 2, 8, 0, 0, 0, time.UTC)

	errSettle := errors.New("settle failed")
	err := s.Payments().WithOrderLock(ctx, o.ID, func(ctx context.Context) error {
		second := &payment.Payment{OrderID: o.ID, Method: payment.MethodCard, AmountCents: 600}
		require.NoError(t, s.Payments().Create(ctx, second))
		require.NoError(t, s.Payments().MarkAsPaid(ctx, first.ID, paidAt))
		require.NoError(t, s.Orders().UpdateStatus(ctx, o.ID, order.StatusPaid))
		return errSettle
	})
	require.ErrorIs(t, err, errSettle)

	list, err := s.Payments().ListByOrder(ctx, o.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, first.ID, list[0].ID)
	assert.Nil(t, list[0].PaidAt)

	stored, err := s.Orders().FindByID(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, order.StatusNew, stored.Status)

	err = s.Payments().WithOrderLock(ctx, o.ID, func(ctx context.Context) error {
		return s.Payments().Create(ctx, &payment.Payment{OrderID: o.ID, Method: payment.MethodCard, AmountCents: 600})
	})
	require.NoError(t, err)
	sum, err := s.Payments().SumByOrder(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, money.Cents(1000), sum)
}
