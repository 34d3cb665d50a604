package http

import (
	"net/http"
	"time"

	"github.com/fjod/fischer-storefront/internal/session"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
)

type RouterConfig struct {
	Checkout *CheckoutHandler
	Bundles  *BundleHandler
	Users    UserSource
	Sessions session.Store
	Log      *zap.Logger

	RequestTimeout     time.Duration
	MaxRequestBodySize int64
	SessionTTL         time.Duration
	SecureCookies      bool
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(RequestIDMiddleware)
	r.Use(RequestLogger(cfg.Log))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(cfg.RequestTimeout))
	r.Use(middleware.Compress(5))
	if cfg.MaxRequestBodySize > 0 {
		r.Use(middleware.RequestSize(cfg.MaxRequestBodySize))
	}

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	// API routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(AuthMiddleware(cfg.Users, cfg.Log))
		r.Use(SessionMiddleware(cfg.Sessions, cfg.SessionTTL, cfg.SecureCookies))

		r.Route("/checkout", func(r chi.Router) {
			r.Get("/", cfg.Checkout.GetCheckout)
			r.Patch("/form", cfg.Checkout.UpdateForm)
			r.Put("/city", cfg.Checkout.SetCity)
			r.Post("/addresses/load", cfg.Checkout.LoadAddresses)
			r.Post("/addresses/{address_id}/select", cfg.Checkout.SelectAddress)
			r.Post("/shipping-methods/{method_id}/select", cfg.Checkout.SelectShippingMethod)
			r.Post("/next", cfg.Checkout.NextStep)
			r.Post("/step", cfg.Checkout.SetStep)
			r.Post("/submit", cfg.Checkout.Submit)
		})
		r.Route("/bundles/{slug}", func(r chi.Router) {
			r.Get("/", cfg.Bundles.GetBundle)
			r.Post("/selections", cfg.Bundles.SelectSlotProduct)
			r.Post("/cart", cfg.Bundles.AddToCart)
		})
	})

	return otelhttp.NewHandler(r, "storefront")
}
