package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/jwtauth/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/xavierca1/quote-payments/internal/infra/http/handlers"
	"github.com/xavierca1/quote-payments/internal/infra/http/middleware"
)

type Router struct {
	AllowedOrigins []string
	TokenAuth      *jwtauth.JWTAuth

	Quotes   *handlers.QuoteHandler
	Checkout *handlers.CheckoutHandler
	Webhooks *handlers.WebhookHandler
	Admin    *handlers.AdminHandler
	Cart     *handlers.CartHandler
	Orders   *handlers.OrderHandler
	Health   *handlers.HealthHandler
}

func (rt *Router) HandleRouter() chi.Router {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(middleware.LogHandle)
	r.Use(middleware.Metrics)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   rt.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Run-Secret"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/health", rt.Health.Handle)
	r.Handle("/metrics", promhttp.Handler())

	r.Post("/webhooks/stripe", rt.Webhooks.Handle)
	r.Post("/admin/backfill-order-amounts", rt.Admin.BackfillOrderAmounts)

	r.Get("/quotes/{id}", rt.Quotes.Get)
	r.Post("/quotes/{id}/payment-intent", rt.Checkout.Handle)
	r.Post("/cart/reminders", rt.Cart.SendReminder)

	r.Group(func(r chi.Router) {
		r.Use(jwtauth.Verifier(rt.TokenAuth))
		r.Use(middleware.RequireStaff)
		r.Post("/quotes", rt.Quotes.Create)
		r.Post("/quotes/{id}/payment-link", rt.Quotes.SendPaymentLink)
		r.Get("/orders/{id}", rt.Orders.Get)
		r.Post("/orders/{id}/documents", rt.Orders.AttachDocument)
		r.Put("/orders/{id}/services", rt.Orders.ReplaceServices)
		r.Put("/orders/{id}/urgency", rt.Orders.UpdateUrgency)
	})

	return r
}
