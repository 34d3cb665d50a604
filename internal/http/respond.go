package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/fjod/fischer-storefront/internal/backend"
	"github.com/fjod/fischer-storefront/internal/bundle"
	"github.com/fjod/fischer-storefront/internal/checkout"
	"go.uber.org/zap"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		zap.L().Warn("failed to encode response", zap.Error(err))
	}
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, ErrorResponse{
		Error: message,
		Code:  code,
	})
}

// handleError converts workflow and backend errors to HTTP responses.
func handleError(w http.ResponseWriter, log *zap.Logger, err error) {
	var verr *checkout.ValidationError
	if errors.As(err, &verr) {
		respondJSON(w, http.StatusUnprocessableEntity, ErrorResponse{
			Error:   verr.Message,
			Code:    "validation_failed",
			Details: verr.Field,
		})
		return
	}

	var orderErr *checkout.OrderError
	if errors.As(err, &orderErr) {
		respondError(w, backendStatus(orderErr.Err), "order_failed", orderErr.Message)
		return
	}

	switch {
	case errors.Is(err, errNoSession):
		respondError(w, http.StatusInternalServerError, "no_session", err.Error())
	case errors.Is(err, checkout.ErrIllegalTransition),
		errors.Is(err, checkout.ErrNoNextStep),
		errors.Is(err, checkout.ErrNotOnPaymentStep):
		respondError(w, http.StatusConflict, "invalid_step", err.Error())
	case errors.Is(err, checkout.ErrSubmissionInProgress):
		respondError(w, http.StatusConflict, "submission_in_progress", err.Error())
	case errors.Is(err, checkout.ErrEmptyCart):
		respondError(w, http.StatusUnprocessableEntity, "empty_cart", "Your cart is empty")
	case errors.Is(err, checkout.ErrUnknownPaymentMethod):
		respondError(w, http.StatusBadRequest, "invalid_payment_method", err.Error())
	case errors.Is(err, checkout.ErrAddressNotFound),
		errors.Is(err, checkout.ErrShippingMethodNotFound),
		errors.Is(err, bundle.ErrUnknownSlot),
		errors.Is(err, bundle.ErrUnknownProduct):
		respondError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, bundle.ErrMaxSelections):
		respondError(w, http.StatusConflict, "max_selections", err.Error())
	case errors.Is(err, bundle.ErrSlotsIncomplete):
		respondError(w, http.StatusUnprocessableEntity, "slots_incomplete", err.Error())
	case errors.Is(err, bundle.ErrInvalidQuantity):
		respondError(w, http.StatusBadRequest, "invalid_quantity", err.Error())
	case errors.Is(err, backend.ErrNotFound):
		respondError(w, http.StatusNotFound, "not_found", "resource not found")
	case errors.Is(err, backend.ErrUnauthenticated):
		respondError(w, http.StatusUnauthorized, "unauthenticated", "please sign in again")
	default:
		status := backendStatus(err)
		if status >= http.StatusInternalServerError {
			log.Error("request failed", zap.Error(err))
		}
		respondError(w, status, codeFor(status), backend.MessageOr(err, http.StatusText(status)))
	}
}

// backendStatus picks the status to answer with for a failed backend call.
func backendStatus(err error) int {
	var apiErr *backend.APIError
	switch {
	case errors.Is(err, backend.ErrBackendUnavailable):
		return http.StatusServiceUnavailable
	case errors.As(err, &apiErr) && apiErr.Status >= 400 && apiErr.Status < 500:
		return apiErr.Status
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusBadGateway
	}
}

func codeFor(status int) string {
	switch status {
	case http.StatusServiceUnavailable:
		return "service_unavailable"
	case http.StatusBadGateway:
		return "backend_error"
	case http.StatusGatewayTimeout:
		return "timeout"
	case http.StatusNotFound:
		return "not_found"
	case http.StatusUnprocessableEntity:
		return "rejected"
	default:
		return "request_failed"
	}
}
