package customer_test

import (
	"context"
	"testing"

	"github.com/gofrs/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/vasiliy-maslov/ecommerce-orders/internal/apperr"
	"github.com/vasiliy-maslov/ecommerce-orders/internal/customer"
	"github.com/vasiliy-maslov/ecommerce-orders/internal/storage/memory"
)

type MockCustomerRepository struct {
	mock.Mock
}

func (m *MockCustomerRepository) Create(ctx context.Context, c *customer.Customer) error {
	args := m.Called(ctx, c)
	return args.Error(0)
}

func (m *MockCustomerRepository) GetByID(ctx context.Context, id uuid.UUID) (*customer.Customer, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*customer.Customer), args.Error(1)
}

func (m *MockCustomerRepository) GetByEmail(ctx context.Context, email string) (*customer.Customer, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*customer.Customer), args.Error(1)
}

func (m *MockCustomerRepository) List(ctx context.Context) ([]customer.Customer, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]customer.Customer), args.Error(1)
}

func TestCustomerService_CreateCustomer_Success(t *testing.T) {
	mockRepo := new(MockCustomerRepository)
	svc := customer.NewService(mockRepo)
	expectedID := uuid.Must(uuid.NewV4())

	mockRepo.On("GetByEmail", mock.Anything, "eva@example.com").Return(nil, customer.ErrNotFound).Once()
	mockRepo.On("Create", mock.Anything, mock.AnythingOfType("*customer.Customer")).
		Run(func(args mock.Arguments) {
			args.Get(1).(*customer.Customer).ID = expectedID
		}).
		Return(nil).
		Once()

	created, err := svc.CreateCustomer(context.Background(), &customer.Customer{Name: "Eva", Email: " Eva@Example.com "})

	require.NoError(t, err)
	assert.Equal(t, expectedID, created.ID)
	assert.Equal(t, "eva@example.com", created.Email)
	mockRepo.AssertExpectations(t)
}

func TestCustomerService_CreateCustomer_EmailExists(t *testing.T) {
	mockRepo := new(MockCustomerRepository)
	svc := customer.NewService(mockRepo)

	mockRepo.On("GetByEmail", mock.Anything, "eva@example.com").
		Return(&customer.Customer{ID: uuid.Must(uuid.NewV4()), Email: "eva@example.com"}, nil).
		Once()

	_, err := svc.CreateCustomer(context.Background(), &customer.Customer{Name: "Eva", Email: "eva@example.com"})

	assert.ErrorIs(t, err, customer.ErrEmailExists)
	assert.ErrorIs(t, err, apperr.ErrInvalidState)
	assert.Equal(t, "email is already registered", err.Error())
	mockRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestCustomerService_CreateCustomer_Validation(t *testing.T) {
	for name, c := range map[string]customer.Customer{
		"empty name":    {Name: "", Email: "a@example.com"},
		"empty email":   {Name: "Ana", Email: "  "},
		"invalid email": {Name: "Ana", Email: "not-an-email"},
		"display name":  {Name: "Carla", Email: "Carla <carla@example.com>"},
		"bare address":  {Name: "Carla", Email: "<carla@example.com>"},
	} {
		t.Run(name, func(t *testing.T) {
			mockRepo := new(MockCustomerRepository)
			svc := customer.NewService(mockRepo)

			_, err := svc.CreateCustomer(context.Background(), &c)
			assert.ErrorIs(t, err, apperr.ErrInvalidInput)
			mockRepo.AssertNotCalled(t, "GetByEmail", mock.Anything, mock.Anything)
		})
	}
}

func TestCustomerService_GetCustomerByID_NotFound(t *testing.T) {
	mockRepo := new(MockCustomerRepository)
	svc := customer.NewService(mockRepo)
	id := uuid.Must(uuid.NewV4())

	mockRepo.On("GetByID", mock.Anything, id).Return(nil, customer.ErrNotFound).Once()

	_, err := svc.GetCustomerByID(context.Background(), id)
	assert.ErrorIs(t, err, customer.ErrNotFound)
	mockRepo.AssertExpectations(t)
}

func TestCustomerService_CreateCustomer_DisplayNameNotStored(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	svc := customer.NewService(store.Customers())

	_, err := svc.CreateCustomer(ctx, &customer.Customer{Name: "Carla", Email: "Carla <carla@example.com>"})
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)

	list, err := svc.ListCustomers(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)

	created, err := svc.CreateCustomer(ctx, &customer.Customer{Name: "Carla", Email: "Carla@Example.com"})
	require.NoError(t, err)
	assert.Equal(t, "carla@example.com", created.Email)
}
