package http

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"
	"github.com/vasiliy-maslov/ecommerce-orders/internal/clock"
	"github.com/vasiliy-maslov/ecommerce-orders/internal/idempotency"
	"github.com/vasiliy-maslov/ecommerce-orders/internal/money"
	"github.com/vasiliy-maslov/ecommerce-orders/internal/order"
	"github.com/vasiliy-maslov/ecommerce-orders/internal/payment"
)

type OrderItemRequest struct {
	ProductID string `json:"product_id" validate:"required,uuid"`
	Quantity  int    `json:"quantity"`
}

type CreateOrderRequest struct {
	CustomerID string             `json:"customer_id" validate:"required,uuid"`
	Items      []OrderItemRequest `json:"items" validate:"dive"`
}

type CreateOrderResponse struct {
	OrderID    uuid.UUID   `json:"order_id"`
	TotalCents money.Cents `json:"total_cents"`
	Total      string      `json:"total"`
}

type OrderItemResponse struct {
	ProductID      uuid.UUID   `json:"product_id"`
	ProductName    string      `json:"product_name"`
	Quantity       int         `json:"quantity"`
	UnitPriceCents money.Cents `json:"unit_price_cents"`
	SubtotalCents  money.Cents `json:"subtotal_cents"`
}

type OrderDetailsResponse struct {
	ID         uuid.UUID           `json:"id"`
	CustomerID uuid.UUID           `json:"customer_id"`
	Status     order.Status        `json:"status"`
	CreatedAt  string              `json:"created_at"`
	Items      []OrderItemResponse `json:"items"`
	TotalCents money.Cents         `json:"total_cents"`
	Total      string              `json:"total"`
}

type OrderSummaryResponse struct {
	ID             uuid.UUID    `json:"id"`
	CustomerID     uuid.UUID    `json:"customer_id"`
	Status         order.Status `json:"status"`
	CreatedAt      string       `json:"created_at"`
	TotalCents     money.Cents  `json:"total_cents"`
	TotalPaidCents money.Cents  `json:"total_paid_cents"`
}

const ordersScope = "orders"

type OrderHandler struct {
	orders   order.Service
	payments payment.Service
	idem     idempotency.Store
	validate *validator.Validate
}

func NewOrderHandler(orders order.Service, payments payment.Service, idem idempotency.Store) *OrderHandler {
	return &OrderHandler{
		orders:   orders,
		payments: payments,
		idem:     idem,
		validate: newValidator(),
	}
}

func (h *OrderHandler) RegisterRoutes(router chi.Router) {
	router.Post("/orders", h.handleCreateOrder)
	router.Get("/orders/summary", h.handleListSummaries)
	router.Get("/orders/{id}", h.handleGetOrderDetails)
	router.Get("/orders/{id}/payments", h.handleListOrderPayments)
}

func (h *OrderHandler) handleCreateOrder(w http.ResponseWriter, r *http.Request) {
	var requestPayload CreateOrderRequest
	if !decodeAndValidate(w, r, h.validate, &requestPayload) {
		return
	}

	input := order.CreateInput{
		CustomerID: uuid.FromStringOrNil(requestPayload.CustomerID),
		Items:      make([]order.ItemInput, 0, len(requestPayload.Items)),
	}
	for _, item := range requestPayload.Items {
		input.Items = append(input.Items, order.ItemInput{
			ProductID: uuid.FromStringOrNil(item.ProductID),
			Quantity:  item.Quantity,
		})
	}

	runIdempotent(w, r, h.idem, ordersScope,
		func(id string) { h.replayOrder(w, r, id) },
		func() string {
			created, err := h.orders.CreateOrder(r.Context(), input)
			if err != nil {
				respondWithServiceError(w, err, "Failed to create order via service")
				return ""
			}

			total := created.TotalCents()
			respondWithJSON(w, http.StatusCreated, CreateOrderResponse{
				OrderID:    created.ID,
				TotalCents: total,
				Total:      total.String(),
			})
			return created.ID.String()
		},
	)
}

func (h *OrderHandler) replayOrder(w http.ResponseWriter, r *http.Request, rawID string) {
	id, err := uuid.FromString(rawID)
	if err != nil {
		log.Error().Err(err).Str("order_id", rawID).Msg("Corrupt idempotency record")
		respondWithError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	total, err := h.orders.CalculateTotalCents(r.Context(), id)
	if err != nil {
		respondWithServiceError(w, err, "Failed to replay order creation")
		return
	}
	respondWithJSON(w, http.StatusOK, CreateOrderResponse{
		OrderID:    id,
		TotalCents: total,
		Total:      total.String(),
	})
}

func (h *OrderHandler) handleGetOrderDetails(w http.ResponseWriter, r *http.Request) {
	orderID, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}

	details, err := h.orders.GetOrderDetails(r.Context(), orderID)
	if err != nil {
		respondWithServiceError(w, err, "Failed to get order details via service")
		return
	}

	responsePayload := OrderDetailsResponse{
		ID:         details.ID,
		CustomerID: details.CustomerID,
		Status:     details.Status,
		CreatedAt:  clock.Format(details.CreatedAt),
		Items:      make([]OrderItemResponse, 0, len(details.Items)),
		TotalCents: details.TotalCents,
		Total:      details.TotalCents.String(),
	}
	for _, item := range details.Items {
		responsePayload.Items = append(responsePayload.Items, OrderItemResponse{
			ProductID:      item.ProductID,
			ProductName:    item.ProductName,
			Quantity:       item.Quantity,
			UnitPriceCents: item.UnitPriceCents,
			SubtotalCents:  item.SubtotalCents,
		})
	}

	respondWithJSON(w, http.StatusOK, responsePayload)
}

func (h *OrderHandler) handleListSummaries(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	var filter order.SummaryFilter

	if raw := query.Get("status"); raw != "" {
		status, err := order.ParseStatus(raw)
		if err != nil {
			respondWithServiceError(w, err, "Invalid status filter")
			return
		}
		filter.Status = &status
	}
	if raw := query.Get("customer_id"); raw != "" {
		customerID, err := uuid.FromString(raw)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "Invalid customer_id parameter")
			return
		}
		filter.CustomerID = &customerID
	}
	if raw := query.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "Invalid limit parameter")
			return
		}
		filter.Limit = &limit
	}

	summaries, err := h.orders.ListSummaries(r.Context(), filter)
	if err != nil {
		respondWithServiceError(w, err, "Failed to list orders via service")
		return
	}

	responsePayload := make([]OrderSummaryResponse, 0, len(summaries))
	for _, s := range summaries {
		responsePayload = append(responsePayload, OrderSummaryResponse{
			ID:             s.ID,
			CustomerID:     s.CustomerID,
			Status:         s.Status,
			CreatedAt:      clock.Format(s.CreatedAt),
			TotalCents:     s.TotalCents,
			TotalPaidCents: s.TotalPaidCents,
		})
	}
	respondWithJSON(w, http.StatusOK, responsePayload)
}

func (h *OrderHandler) handleListOrderPayments(w http.ResponseWriter, r *http.Request) {
	orderID, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}

	payments, err := h.payments.ListPaymentsByOrder(r.Context(), orderID)
	if err != nil {
		respondWithServiceError(w, err, "Failed to list order payments via service")
		return
	}

	responsePayload := make([]PaymentResponse, 0, len(payments))
	for i := range payments {
		responsePayload = append(responsePayload, newPaymentResponse(&payments[i]))
	}
	respondWithJSON(w, http.StatusOK, responsePayload)
}
