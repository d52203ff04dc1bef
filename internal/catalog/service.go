package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"
	"github.com/vasiliy-maslov/ecommerce-orders/internal/apperr"
)

type Service interface {
	CreateProduct(ctx context.Context, product *Product) (*Product, error)
	GetProductByID(ctx context.Context, id uuid.UUID) (*Product, error)
	ListProducts(ctx context.Context, filter Filter) ([]Product, error)
	UpdateProduct(ctx context.Context, product *Product) (*Product, error)
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func validateProduct(product *Product) error {
	product.Name = strings.TrimSpace(product.Name)
	if product.Name == "" {
		return apperr.InvalidInput("product name cannot be empty")
	}
	if product.PriceCents < 0 {
		return apperr.InvalidInput("product price cannot be negative")
	}
	if !product.Category.Valid() {
		return apperr.InvalidInput("invalid product category %q", product.Category)
	}
	return nil
}

func (s *service) CreateProduct(ctx context.Context, product *Product) (*Product, error) {
	if err := validateProduct(product); err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, product); err != nil {
		log.Error().Err(err).Str("name", product.Name).Msg("service: failed to create product in repository")
		return nil, fmt.Errorf("service: failed to create product: %w", err)
	}

	log.Info().Stringer("product_id", product.ID).Msg("service: product created")
	return product, nil
}

func (s *service) GetProductByID(ctx context.Context, id uuid.UUID) (*Product, error) {
	product, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrProductNotFound) {
			return nil, ErrProductNotFound
		}
		log.Error().Err(err).Stringer("product_id", id).Msg("service: failed to fetch product")
		return nil, fmt.Errorf("service: failed to fetch product by id: %w", err)
	}
	return product, nil
}

func (s *service) ListProducts(ctx context.Context, filter Filter) ([]Product, error) {
	if filter.Category != nil && !filter.Category.Valid() {
		return nil, apperr.InvalidInput("invalid product category %q", *filter.Category)
	}

	products, err := s.repo.List(ctx, filter)
	if err != nil {
		log.Error().Err(err).Msg("service: failed to list products")
		return nil, fmt.Errorf("service: failed to list products: %w", err)
	}
	return products, nil
}

// UpdateProduct replaces the mutable fields of an existing product. Orders already placed
// keep the price they captured at creation.
func (s *service) UpdateProduct(ctx context.Context, product *Product) (*Product, error) {
	if err := validateProduct(product); err != nil {
		return nil, err
	}

	current, err := s.GetProductByID(ctx, product.ID)
	if err != nil {
		return nil, err
	}
	product.CreatedAt = current.CreatedAt

	if err := s.repo.Update(ctx, product); err != nil {
		if errors.Is(err, ErrProductNotFound) {
			return nil, ErrProductNotFound
		}
		log.Error().Err(err).Stringer("product_id", product.ID).Msg("service: failed to update product")
		return nil, fmt.Errorf("service: failed to update product: %w", err)
	}

	return product, nil
}
