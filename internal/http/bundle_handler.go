package http

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/fjod/fischer-storefront/internal/bundle"
	"github.com/fjod/fischer-storefront/internal/catalog"
	"github.com/fjod/fischer-storefront/internal/domain"
	"github.com/fjod/fischer-storefront/internal/events"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type BundleCatalog interface {
	GetBundle(ctx context.Context, slug string) (*domain.Bundle, error)
	GetBundleDetail(ctx context.Context, slug string) (*catalog.BundleDetail, error)
}

type BundleBackend interface {
	bundle.PriceCalculator
	bundle.CartAdder
}

type BundleHandler struct {
	catalog BundleCatalog
	backend BundleBackend
	events  events.Publisher
	log     *zap.Logger
	timeout time.Duration
}

func NewBundleHandler(c BundleCatalog, b BundleBackend, pub events.Publisher, log *zap.Logger, timeout time.Duration) *BundleHandler {
	return &BundleHandler{
		catalog: c,
		backend: b,
		events:  pub,
		log:     log,
		timeout: timeout,
	}
}

type SlotSelectionRequestDTO struct {
	SlotID    int64 `json:"slot_id"`
	ProductID int64 `json:"product_id"`
}

type AddBundleToCartRequestDTO struct {
	Quantity int32 `json:"quantity"`
}

type BundleResponseDTO struct {
	Bundle        domain.Bundle   `json:"bundle"`
	Related       []domain.Bundle `json:"related,omitempty"`
	Configuration bundle.State    `json:"configuration"`
}

type ConfigurationResponseDTO struct {
	Configuration bundle.State `json:"configuration"`
	Warning       string       `json:"warning,omitempty"`
}

func (h *BundleHandler) configurator(ctx context.Context, r *http.Request, slug string, preload *domain.Bundle) (*bundle.Configurator, error) {
	s := getSessionFromContext(r.Context())
	if s == nil {
		return nil, errNoSession
	}
	return s.Configurator(slug, func() (*bundle.Configurator, error) {
		b := preload
		if b == nil {
			var err error
			if b, err = h.catalog.GetBundle(ctx, slug); err != nil {
				return nil, err
			}
		}
		return bundle.NewConfigurator(*b, bundle.Dependencies{
			Prices: h.backend,
			Cart:   h.backend,
			Events: h.events,
			Log:    h.log.With(zap.String("session", s.ID)),
		}), nil
	})
}

// GET /api/v1/bundles/{slug}
func (h *BundleHandler) GetBundle(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	slug := chi.URLParam(r, "slug")
	detail, err := h.catalog.GetBundleDetail(ctx, slug)
	if err != nil {
		handleError(w, h.log, err)
		return
	}

	c, err := h.configurator(ctx, r, slug, &detail.Bundle)
	if err != nil {
		handleError(w, h.log, err)
		return
	}

	respondJSON(w, http.StatusOK, BundleResponseDTO{
		Bundle:        detail.Bundle,
		Related:       detail.Related,
		Configuration: c.State(),
	})
}

// POST /api/v1/bundles/{slug}/selections
// A failed price calculation keeps the selection; the previous price stays on display.
func (h *BundleHandler) SelectSlotProduct(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req SlotSelectionRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.SlotID <= 0 || req.ProductID <= 0 {
		respondError(w, http.StatusBadRequest, "invalid_selection", "slot_id and product_id must be positive")
		return
	}

	c, err := h.configurator(ctx, r, chi.URLParam(r, "slug"), nil)
	if err != nil {
		handleError(w, h.log, err)
		return
	}
	if err := c.Select(req.SlotID, req.ProductID); err != nil {
		handleError(w, h.log, err)
		return
	}

	resp := ConfigurationResponseDTO{}
	if err := c.Recalculate(ctx); err != nil {
		h.log.Warn("bundle price calculation failed", zap.Error(err))
		resp.Warning = "Price could not be updated. Please try again."
	}
	resp.Configuration = c.State()
	respondJSON(w, http.StatusOK, resp)
}

// POST /api/v1/bundles/{slug}/cart
func (h *BundleHandler) AddToCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	req := AddBundleToCartRequestDTO{Quantity: 1}
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
			return
		}
	}
	if req.Quantity <= 0 || req.Quantity > 99 {
		respondError(w, http.StatusBadRequest, "invalid_quantity", "quantity must be between 1 and 99")
		return
	}

	c, err := h.configurator(ctx, r, chi.URLParam(r, "slug"), nil)
	if err != nil {
		handleError(w, h.log, err)
		return
	}
	if err := c.AddToCart(ctx, req.Quantity); err != nil {
		handleError(w, h.log, err)
		return
	}

	respondJSON(w, http.StatusCreated, ConfigurationResponseDTO{Configuration: c.State()})
}
