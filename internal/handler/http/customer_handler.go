package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/gofrs/uuid"
	"github.com/vasiliy-maslov/ecommerce-orders/internal/clock"
	"github.com/vasiliy-maslov/ecommerce-orders/internal/customer"
)

type CreateCustomerRequest struct {
	Name  string `json:"name" validate:"required,min=2"`
	Email string `json:"email" validate:"required,email"`
}

type CustomerResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt string    `json:"created_at"`
}

func newCustomerResponse(c *customer.Customer) CustomerResponse {
	return CustomerResponse{
		ID:        c.ID,
		Name:      c.Name,
		Email:     c.Email,
		CreatedAt: clock.Format(c.CreatedAt),
	}
}

type CustomerHandler struct {
	service  customer.Service
	validate *validator.Validate
}

func NewCustomerHandler(service customer.Service) *CustomerHandler {
	return &CustomerHandler{service: service, validate: newValidator()}
}

func (h *CustomerHandler) RegisterRoutes(router chi.Router) {
	router.Post("/customers", h.handleCreateCustomer)
	router.Get("/customers", h.handleListCustomers)
	router.Get("/customers/{id}", h.handleGetCustomer)
}

func (h *CustomerHandler) handleCreateCustomer(w http.ResponseWriter, r *http.Request) {
	var requestPayload CreateCustomerRequest
	if !decodeAndValidate(w, r, h.validate, &requestPayload) {
		return
	}

	created, err := h.service.CreateCustomer(r.Context(), &customer.Customer{
		Name:  requestPayload.Name,
		Email: requestPayload.Email,
	})
	if err != nil {
		respondWithServiceError(w, err, "Failed to create customer via service")
		return
	}
	respondWithJSON(w, http.StatusCreated, newCustomerResponse(created))
}

func (h *CustomerHandler) handleGetCustomer(w http.ResponseWriter, r *http.Request) {
	customerID, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}

	found, err := h.service.GetCustomerByID(r.Context(), customerID)
	if err != nil {
		respondWithServiceError(w, err, "Failed to get customer via service")
		return
	}
	respondWithJSON(w, http.StatusOK, newCustomerResponse(found))
}

func (h *CustomerHandler) handleListCustomers(w http.ResponseWriter, r *http.Request) {
	customers, err := h.service.ListCustomers(r.Context())
	if err != nil {
		respondWithServiceError(w, err, "Failed to list customers via service")
		return
	}

	responsePayload := make([]CustomerResponse, 0, len(customers))
	for i := range customers {
		responsePayload = append(responsePayload, newCustomerResponse(&customers[i]))
	}
	respondWithJSON(w, http.StatusOK, responsePayload)
}
