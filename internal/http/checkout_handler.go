package http

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/fjod/fischer-storefront/internal/checkout"
	"github.com/fjod/fischer-storefront/internal/domain"
	"github.com/fjod/fischer-storefront/internal/events"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// CheckoutBackend is the part of the commerce backend the checkout talks to directly.
type CheckoutBackend interface {
	checkout.AddressSource
	checkout.CartReader
	checkout.OrderPlacer
}

type CheckoutHandler struct {
	backend          CheckoutBackend
	shipping         checkout.ShippingMethodSource
	events           events.Publisher
	log              *zap.Logger
	timeout          time.Duration
	confirmationPath string
}

func NewCheckoutHandler(b CheckoutBackend, shipping checkout.ShippingMethodSource, pub events.Publisher,
	log *zap.Logger, timeout time.Duration, confirmationPath string) *CheckoutHandler {
	return &CheckoutHandler{
		backend:          b,
		shipping:         shipping,
		events:           pub,
		log:              log,
		timeout:          timeout,
		confirmationPath: confirmationPath,
	}
}

type SetCityRequestDTO struct {
	City string `json:"city"`
}

type SetStepRequestDTO struct {
	Step domain.CheckoutStep `json:"step"`
}

type CheckoutResponseDTO struct {
	checkout.State
	Warning string `json:"warning,omitempty"`
}

// wizard returns the session's checkout for the current visitor.
func (h *CheckoutHandler) wizard(r *http.Request) (*checkout.Wizard, bool) {
	s := getSessionFromContext(r.Context())
	if s == nil {
		return nil, false
	}
	user := getUserFromContext(r.Context())
	var userID int64
	if user != nil {
		userID = user.ID
	}
	return s.Wizard(userID, func() *checkout.Wizard {
		opts := checkout.Options{ConfirmationPath: h.confirmationPath}
		if user != nil {
			opts.Authenticated = true
			opts.UserEmail = user.Email
		}
		return checkout.NewWizard(checkout.Dependencies{
			Addresses: h.backend,
			Shipping:  h.shipping,
			Cart:      h.backend,
			Orders:    h.backend,
			Events:    h.events,
			Log:       h.log.With(zap.String("session", s.ID)),
		}, opts)
	}), true
}

// withWizard runs fn against the visitor's wizard and answers with its state.
func (h *CheckoutHandler) withWizard(w http.ResponseWriter, r *http.Request, fn func(ctx context.Context, wz *checkout.Wizard) error) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	wz, ok := h.wizard(r)
	if !ok {
		handleError(w, h.log, errNoSession)
		return
	}
	if err := fn(ctx, wz); err != nil {
		handleError(w, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, CheckoutResponseDTO{State: wz.State()})
}

// GET /api/v1/checkout
func (h *CheckoutHandler) GetCheckout(w http.ResponseWriter, r *http.Request) {
	h.withWizard(w, r, func(context.Context, *checkout.Wizard) error { return nil })
}

// PATCH /api/v1/checkout/form
func (h *CheckoutHandler) UpdateForm(w http.ResponseWriter, r *http.Request) {
	var patch domain.CheckoutFormPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	h.withWizard(w, r, func(_ context.Context, wz *checkout.Wizard) error {
		return wz.UpdateForm(patch)
	})
}

// PUT /api/v1/checkout/city
// A failed method lookup still stores the city; the customer sees a warning and an empty list.
func (h *CheckoutHandler) SetCity(w http.ResponseWriter, r *http.Request) {
	var req SetCityRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	wz, ok := h.wizard(r)
	if !ok {
		handleError(w, h.log, errNoSession)
		return
	}

	resp := CheckoutResponseDTO{}
	if err := wz.ChangeCity(ctx, req.City); err != nil {
		h.log.Warn("shipping methods unavailable", zap.String("city", req.City), zap.Error(err))
		resp.Warning = "Shipping methods could not be loaded. Please try again."
	}
	resp.State = wz.State()
	respondJSON(w, http.StatusOK, resp)
}

// POST /api/v1/checkout/addresses/load
func (h *CheckoutHandler) LoadAddresses(w http.ResponseWriter, r *http.Request) {
	h.withWizard(w, r, func(ctx context.Context, wz *checkout.Wizard) error {
		return wz.LoadAddresses(ctx)
	})
}

// POST /api/v1/checkout/addresses/{address_id}/select
func (h *CheckoutHandler) SelectAddress(w http.ResponseWriter, r *http.Request) {
	addressID, err := strconv.ParseInt(chi.URLParam(r, "address_id"), 10, 64)
	if err != nil || addressID <= 0 {
		respondError(w, http.StatusBadRequest, "invalid_address_id", "address_id must be a positive integer")
		return
	}
	h.withWizard(w, r, func(ctx context.Context, wz *checkout.Wizard) error {
		return wz.SelectAddress(ctx, addressID)
	})
}

// POST /api/v1/checkout/shipping-methods/{method_id}/select
func (h *CheckoutHandler) SelectShippingMethod(w http.ResponseWriter, r *http.Request) {
	methodID, err := strconv.ParseInt(chi.URLParam(r, "method_id"), 10, 64)
	if err != nil || methodID <= 0 {
		respondError(w, http.StatusBadRequest, "invalid_method_id", "method_id must be a positive integer")
		return
	}
	h.withWizard(w, r, func(_ context.Context, wz *checkout.Wizard) error {
		return wz.SelectShippingMethod(methodID)
	})
}

// POST /api/v1/checkout/next
func (h *CheckoutHandler) NextStep(w http.ResponseWriter, r *http.Request) {
	h.withWizard(w, r, func(_ context.Context, wz *checkout.Wizard) error {
		return wz.NextStep()
	})
}

// POST /api/v1/checkout/step
func (h *CheckoutHandler) SetStep(w http.ResponseWriter, r *http.Request) {
	var req SetStepRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if !req.Step.IsValid() {
		respondError(w, http.StatusBadRequest, "invalid_step", "step must be 1, 2 or 3")
		return
	}
	h.withWizard(w, r, func(_ context.Context, wz *checkout.Wizard) error {
		return wz.SetStep(req.Step)
	})
}

// POST /api/v1/checkout/submit
func (h *CheckoutHandler) Submit(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	wz, ok := h.wizard(r)
	if !ok {
		handleError(w, h.log, errNoSession)
		return
	}

	outcome, err := wz.Submit(ctx)
	if err != nil {
		handleError(w, h.log, err)
		return
	}

	// The order exists now; the next visit starts a fresh checkout.
	getSessionFromContext(r.Context()).ResetWizard()
	respondJSON(w, http.StatusCreated, outcome)
}
