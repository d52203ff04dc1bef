package customer

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"
	"github.com/vasiliy-maslov/ecommerce-orders/internal/apperr"
)

type Service interface {
	CreateCustomer(ctx context.Context, customer *Customer) (*Customer, error)
	GetCustomerByID(ctx context.Context, id uuid.UUID) (*Customer, error)
	ListCustomers(ctx context.Context) ([]Customer, error)
}

type service struct {
	repo     Repository
	validate *validator.Validate
}

func NewService(repo Repository) Service {
	return &service{repo: repo, validate: validator.New()}
}

func (s *service) CreateCustomer(ctx context.Context, customer *Customer) (*Customer, error) {
	customer.Name = strings.TrimSpace(customer.Name)
	customer.Email = strings.ToLower(strings.TrimSpace(customer.Email))

	if customer.Name == "" {
		return nil, apperr.InvalidInput("customer name cannot be empty")
	}
	if customer.Email == "" {
		return nil, apperr.InvalidInput("customer email cannot be empty")
	}
	if err := s.validate.Var(customer.Email, "email"); err != nil {
		log.Warn().Str("email", customer.Email).Msg("service: invalid customer email")
		return nil, apperr.InvalidInput("customer email is invalid")
	}

	_, err := s.repo.GetByEmail(ctx, customer.Email)
	switch {
	case err == nil:
		return nil, ErrEmailExists
	case !errors.Is(err, ErrNotFound):
		log.Error().Err(err).Msg("service: failed to check customer email")
		return nil, fmt.Errorf("service: failed to check customer email: %w", err)
	}

	if err := s.repo.Create(ctx, customer); err != nil {
		if errors.Is(err, ErrEmailExists) {
			return nil, ErrEmailExists
		}
		log.Error().Err(err).Msg("service: failed to create customer in repository")
		return nil, fmt.Errorf("service: failed to save customer: %w", err)
	}

	log.Info().Stringer("customer_id", customer.ID).Msg("service: customer created")
	return customer, nil
}

func (s *service) GetCustomerByID(ctx context.Context, id uuid.UUID) (*Customer, error) {
	customer, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		log.Error().Err(err).Stringer("customer_id", id).Msg("service: failed to get customer by id")
		return nil, fmt.Errorf("service: failed to get customer by id '%s': %w", id, err)
	}
	return customer, nil
}

func (s *service) ListCustomers(ctx context.Context) ([]Customer, error) {
	customers, err := s.repo.List(ctx)
	if err != nil {
		log.Error().Err(err).Msg("service: failed to list customers")
		return nil, fmt.Errorf("service: failed to list customers: %w", err)
	}
	return customers, nil
}
