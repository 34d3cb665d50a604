package checkout

import (
	"errors"

	"github.com/fjod/fischer-storefront/internal/domain"
)

var (
	ErrIllegalTransition       = errors.New("illegal transition of checkout step")
	ErrNoNextStep              = errors.New("already on the last checkout step")
	ErrNotOnPaymentStep        = errors.New("order can only be placed from the payment step")
	ErrSubmissionInProgress    = errors.New("order submission already in progress")
	ErrEmptyCart               = errors.New("cart is empty, nothing to checkout")
	ErrUnknownPaymentMethod    = errors.New("unknown payment method")
	ErrAddressNotFound         = errors.New("saved address not found")
	ErrShippingMethodNotFound  = errors.New("shipping method not available for this city")
	ErrUnexpectedOrderResponse = errors.New("order response carried neither a payment redirect nor an order number")
)

const DefaultOrderErrorMessage = "Failed to place order. Please try again."

// ValidationError is a single user-facing reason a step cannot be left.
type ValidationError struct {
	Step    domain.CheckoutStep
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// OrderError is a failed submission. Message is what the customer sees.
type OrderError struct {
	Message string
	Err     error
}

func (e *OrderError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return e.Message + ": " + e.Err.Error()
}

func (e *OrderError) Unwrap() error {
	return e.Err
}
