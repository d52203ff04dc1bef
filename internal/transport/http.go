package transport

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/vasiliy-maslov/ecommerce-orders/internal/catalog"
	"github.com/vasiliy-maslov/ecommerce-orders/internal/customer"
	httphandler "github.com/vasiliy-maslov/ecommerce-orders/internal/handler/http"
	"github.com/vasiliy-maslov/ecommerce-orders/internal/idempotency"
	"github.com/vasiliy-maslov/ecommerce-orders/internal/metrics"
	"github.com/vasiliy-maslov/ecommerce-orders/internal/order"
	"github.com/vasiliy-maslov/ecommerce-orders/internal/payment"
)

type Services struct {
	Orders    order.Service
	Payments  payment.Service
	Catalog   catalog.Service
	Customers customer.Service
}

// NewRouter wires every handler. db may be nil when running on in-memory storage.
func NewRouter(svc Services, idem idempotency.Store, m *metrics.Metrics, db httphandler.Pinger) *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(httphandler.RequestLogger)
	r.Use(middleware.Recoverer)
	r.Use(httphandler.Metrics(m))

	r.Get("/health", httphandler.HealthHandler(db))
	r.Handle("/metrics", m.Handler())

	httphandler.NewOrderHandler(svc.Orders, svc.Payments, idem).RegisterRoutes(r)
	httphandler.NewPaymentHandler(svc.Payments, idem).RegisterRoutes(r)
	httphandler.NewProductHandler(svc.Catalog).RegisterRoutes(r)
	httphandler.NewCustomerHandler(svc.Customers).RegisterRoutes(r)

	return r
}
