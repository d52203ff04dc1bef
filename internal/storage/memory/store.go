// Package memory keeps every table in process memory. It backs STORAGE=memory and the
// service tests.
package memory

import (
	"sync"

	"github.com/gofrs/uuid"
	"github.com/vasiliy-maslov/ecommerce-orders/internal/catalog"
	"github.com/vasiliy-maslov/ecommerce-orders/internal/customer"
	"github.com/vasiliy-maslov/ecommerce-orders/internal/order"
	"github.com/vasiliy-maslov/ecommerce-orders/internal/payment"
)

type orderRow struct {
	order order.Order
	seq   uint64
}

type paymentRow struct {
	payment payment.Payment
	seq     uint64
}

type Store struct {
	mu        sync.RWMutex
	seq       uint64
	products  map[uuid.UUID]catalog.Product
	customers map[uuid.UUID]customer.Customer
	orders    map[uuid.UUID]orderRow
	items     map[uuid.UUID][]order.OrderItem
	payments  map[uuid.UUID]paymentRow

	locksMu sync.Mutex
	locks   map[uuid.UUID]*sync.Mutex
}

func New() *Store {
	return &Store{
		products:  make(map[uuid.UUID]catalog.Product),
		customers: make(map[uuid.UUID]customer.Customer),
		orders:    make(map[uuid.UUID]orderRow),
		items:     make(map[uuid.UUID][]order.OrderItem),
		payments:  make(map[uuid.UUID]paymentRow),
		locks:     make(map[uuid.UUID]*sync.Mutex),
	}
}

func (s *Store) Products() catalog.Repository {
	return &productRepository{s: s}
}

func (s *Store) Customers() customer.Repository {
	return &customerRepository{s: s}
}

func (s *Store) Orders() order.Repository {
	return &orderRepository{s: s}
}

func (s *Store) Payments() payment.Repository {
	return &paymentRepository{s: s}
}

// nextSeq must be called with mu held for writing.
func (s *Store) nextSeq() uint64 {
	s.seq++
	return s.seq
}

func (s *Store) orderLock(id uuid.UUID) *sync.Mutex {
	s.locksMu.Lock()
	defer s.locksMu.Unlock()

	l, ok := s.locks[id]
	if !ok {
		l = &sync.Mutex{}
		s.locks[id] = l
	}
	return l
}
