package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/gofrs/uuid"
	"github.com/vasiliy-maslov/ecommerce-orders/internal/catalog"
	"github.com/vasiliy-maslov/ecommerce-orders/internal/clock"
	"github.com/vasiliy-maslov/ecommerce-orders/internal/customer"
)

type productRepository struct {
	s *Store
}

func (r *productRepository) Create(_ context.Context, product *catalog.Product) error {
	id, err := uuid.NewV4()
	if err != nil {
		return fmt.Errorf("memory: failed to generate product ID: %w", err)
	}
	now := clock.Now()

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	product.ID = id
	product.CreatedAt = now
	product.UpdatedAt = now
	r.s.products[id] = *product
	return nil
}

func (r *productRepository) GetByID(_ context.Context, id uuid.UUID) (*catalog.Product, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	p, ok := r.s.products[id]
	if !ok {
		return nil, catalog.ErrProductNotFound
	}
	return &p, nil
}

func (r *productRepository) List(_ context.Context, filter catalog.Filter) ([]catalog.Product, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	products := make([]catalog.Product, 0, len(r.s.products))
	for _, p := range r.s.products {
		if filter.Matches(p) {
			products = append(products, p)
		}
	}
	sort.Slice(products, func(i, j int) bool {
		return products[i].Name < products[j].Name
	})
	return products, nil
}

func (r *productRepository) Update(_ context.Context, product *catalog.Product) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	current, ok := r.s.products[product.ID]
	if !ok {
		return catalog.ErrProductNotFound
	}
	product.CreatedAt = current.CreatedAt
	product.UpdatedAt = clock.Now()
	r.s.products[product.ID] = *product
	return nil
}

type customerRepository struct {
	s *Store
}

func (r *customerRepository) Create(_ context.Context, c *customer.Customer) error {
	id, err := uuid.NewV4()
	if err != nil {
		return fmt.Errorf("memory: failed to generate customer ID: %w", err)
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, existing := range r.s.customers {
		if existing.Email == c.Email {
			return customer.ErrEmailExists
		}
	}
	c.ID = id
	c.CreatedAt = clock.Now()
	r.s.customers[id] = *c
	return nil
}

func (r *customerRepository) GetByID(_ context.Context, id uuid.UUID) (*customer.Customer, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	c, ok := r.s.customers[id]
	if !ok {
		return nil, customer.ErrNotFound
	}
	return &c, nil
}

func (r *customerRepository) GetByEmail(_ context.Context, email string) (*customer.Customer, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, c := range r.s.customers {
		if c.Email == email {
			return &c, nil
		}
	}
	return nil, customer.ErrNotFound
}

func (r *customerRepository) List(_ context.Context) ([]customer.Customer, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	customers := make([]customer.Customer, 0, len(r.s.customers))
	for _, c := range r.s.customers {
		customers = append(customers, c)
	}
	sort.Slice(customers, func(i, j int) bool {
		return customers[i].CreatedAt.After(customers[j].CreatedAt)
	})
	return customers, nil
}
