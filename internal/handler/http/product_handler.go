package http

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/gofrs/uuid"
	"github.com/vasiliy-maslov/ecommerce-orders/internal/catalog"
	"github.com/vasiliy-maslov/ecommerce-orders/internal/clock"
	"github.com/vasiliy-maslov/ecommerce-orders/internal/money"
)

type ProductRequest struct {
	Name       string `json:"name" validate:"required"`
	Category   string `json:"category" validate:"required"`
	PriceCents *int64 `json:"price_cents" validate:"required,gte=0"`
	Active     *bool  `json:"active,omitempty"`
}

type ProductResponse struct {
	ID         uuid.UUID        `json:"id"`
	Name       string           `json:"name"`
	Category   catalog.Category `json:"category"`
	PriceCents money.Cents      `json:"price_cents"`
	Price      string           `json:"price"`
	Active     bool             `json:"active"`
	CreatedAt  string           `json:"created_at"`
	UpdatedAt  string           `json:"updated_at"`
}

func newProductResponse(p *catalog.Product) ProductResponse {
	return ProductResponse{
		ID:         p.ID,
		Name:       p.Name,
		Category:   p.Category,
		PriceCents: p.PriceCents,
		Price:      p.PriceCents.String(),
		Active:     p.Active,
		CreatedAt:  clock.Format(p.CreatedAt),
		UpdatedAt:  clock.Format(p.UpdatedAt),
	}
}

// toProduct defaults Active to true when the client omits it.
func (req ProductRequest) toProduct() *catalog.Product {
	active := true
	if req.Active != nil {
		active = *req.Active
	}
	return &catalog.Product{
		Name:       req.Name,
		Category:   catalog.Category(strings.ToUpper(strings.TrimSpace(req.Category))),
		PriceCents: money.Cents(*req.PriceCents),
		Active:     active,
	}
}

type ProductHandler struct {
	service  catalog.Service
	validate *validator.Validate
}

func NewProductHandler(service catalog.Service) *ProductHandler {
	return &ProductHandler{service: service, validate: newValidator()}
}

func (h *ProductHandler) RegisterRoutes(router chi.Router) {
	router.Post("/products", h.handleCreateProduct)
	router.Get("/products", h.handleListProducts)
	router.Get("/products/{id}", h.handleGetProduct)
	router.Put("/products/{id}", h.handleUpdateProduct)
}

func (h *ProductHandler) handleCreateProduct(w http.ResponseWriter, r *http.Request) {
	var requestPayload ProductRequest
	if !decodeAndValidate(w, r, h.validate, &requestPayload) {
		return
	}

	created, err := h.service.CreateProduct(r.Context(), requestPayload.toProduct())
	if err != nil {
		respondWithServiceError(w, err, "Failed to create product via service")
		return
	}
	respondWithJSON(w, http.StatusCreated, newProductResponse(created))
}

func (h *ProductHandler) handleGetProduct(w http.ResponseWriter, r *http.Request) {
	productID, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}

	product, err := h.service.GetProductByID(r.Context(), productID)
	if err != nil {
		respondWithServiceError(w, err, "Failed to get product via service")
		return
	}
	respondWithJSON(w, http.StatusOK, newProductResponse(product))
}

func (h *ProductHandler) handleListProducts(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	var filter catalog.Filter

	if raw := query.Get("category"); raw != "" {
		category := catalog.Category(strings.ToUpper(raw))
		filter.Category = &category
	}
	if raw := query.Get("active"); raw != "" {
		active, err := strconv.ParseBool(raw)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "Invalid active parameter")
			return
		}
		filter.Active = &active
	}
	for param, dst := range map[string]**money.Cents{
		"min_price_cents": &filter.MinPriceCents,
		"max_price_cents": &filter.MaxPriceCents,
	} {
		raw := query.Get(param)
		if raw == "" {
			continue
		}
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "Invalid "+param+" parameter")
			return
		}
		cents := money.Cents(v)
		*dst = &cents
	}

	products, err := h.service.ListProducts(r.Context(), filter)
	if err != nil {
		respondWithServiceError(w, err, "Failed to list products via service")
		return
	}

	responsePayload := make([]ProductResponse, 0, len(products))
	for i := range products {
		responsePayload = append(responsePayload, newProductResponse(&products[i]))
	}
	respondWithJSON(w, http.StatusOK, responsePayload)
}

func (h *ProductHandler) handleUpdateProduct(w http.ResponseWriter, r *http.Request) {
	productID, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}

	var requestPayload ProductRequest
	if !decodeAndValidate(w, r, h.validate, &requestPayload) {
		return
	}

	product := requestPayload.toProduct()
	product.ID = productID

	updated, err := h.service.UpdateProduct(r.Context(), product)
	if err != nil {
		respondWithServiceError(w, err, "Failed to update product via service")
		return
	}
	respondWithJSON(w, http.StatusOK, newProductResponse(updated))
}
