package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"
	"github.com/vasiliy-maslov/ecommerce-orders/internal/clock"
	"github.com/vasiliy-maslov/ecommerce-orders/internal/idempotency"
	"github.com/vasiliy-maslov/ecommerce-orders/internal/money"
	"github.com/vasiliy-maslov/ecommerce-orders/internal/payment"
)

type CreatePaymentRequest struct {
	OrderID     string `json:"order_id" validate:"required,uuid"`
	Method      string `json:"method" validate:"required"`
	AmountCents int64  `json:"amount_cents"`
}

type PaymentResponse struct {
	ID                uuid.UUID      `json:"id"`
	OrderID           uuid.UUID      `json:"order_id"`
	Method            payment.Method `json:"method"`
	AmountCents       money.Cents    `json:"amount_cents"`
	Amount            string         `json:"amount"`
	PaidAt            *string        `json:"paid_at,omitempty"`
	CreatedAt         string         `json:"created_at"`
	StillMissingCents *money.Cents   `json:"still_missing_cents,omitempty"`
}

func newPaymentResponse(p *payment.Payment) PaymentResponse {
	return PaymentResponse{
		ID:          p.ID,
		OrderID:     p.OrderID,
		Method:      p.Method,
		AmountCents: p.AmountCents,
		Amount:      p.AmountCents.String(),
		PaidAt:      clock.FormatPtr(p.PaidAt),
		CreatedAt:   clock.Format(p.CreatedAt),
	}
}

const paymentsScope = "payments"

type PaymentHandler struct {
	service  payment.Service
	idem     idempotency.Store
	validate *validator.Validate
}

func NewPaymentHandler(service payment.Service, idem idempotency.Store) *PaymentHandler {
	return &PaymentHandler{
		service:  service,
		idem:     idem,
		validate: newValidator(),
	}
}

func (h *PaymentHandler) RegisterRoutes(router chi.Router) {
	router.Post("/payments", h.handleCreatePayment)
	router.Get("/payments/{id}", h.handleGetPayment)
}

func (h *PaymentHandler) handleCreatePayment(w http.ResponseWriter, r *http.Request) {
	var requestPayload CreatePaymentRequest
	if !decodeAndValidate(w, r, h.validate, &requestPayload) {
		return
	}

	input := payment.CreateInput{
		OrderID:     uuid.FromStringOrNil(requestPayload.OrderID),
		Method:      payment.ParseMethod(requestPayload.Method),
		AmountCents: money.Cents(requestPayload.AmountCents),
	}

	runIdempotent(w, r, h.idem, paymentsScope,
		func(id string) { h.replayPayment(w, r, id) },
		func() string {
			result, err := h.service.CreatePayment(r.Context(), input)
			if err != nil {
				respondWithServiceError(w, err, "Failed to create payment via service")
				return ""
			}

			responsePayload := newPaymentResponse(result.Payment)
			responsePayload.StillMissingCents = result.StillMissingCents
			respondWithJSON(w, http.StatusCreated, responsePayload)
			return result.Payment.ID.String()
		},
	)
}

func (h *PaymentHandler) replayPayment(w http.ResponseWriter, r *http.Request, rawID string) {
	id, err := uuid.FromString(rawID)
	if err != nil {
		log.Error().Err(err).Str("payment_id", rawID).Msg("Corrupt idempotency record")
		respondWithError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	p, err := h.service.GetPayment(r.Context(), id)
	if err != nil {
		respondWithServiceError(w, err, "Failed to replay payment creation")
		return
	}
	respondWithJSON(w, http.StatusOK, newPaymentResponse(p))
}

func (h *PaymentHandler) handleGetPayment(w http.ResponseWriter, r *http.Request) {
	paymentID, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}

	p, err := h.service.GetPayment(r.Context(), paymentID)
	if err != nil {
		respondWithServiceError(w, err, "Failed to get payment via service")
		return
	}
	respondWithJSON(w, http.StatusOK, newPaymentResponse(p))
}
