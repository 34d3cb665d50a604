package checkout

import (
	"regexp"
	"strings"

	"github.com/fjod/fischer-storefront/internal/domain"
)

var (
	emailPattern         = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	phonePattern         = regexp.MustCompile(`^\+?[0-9]{10,15}$`)
	transactionIDPattern = regexp.MustCompile(`^[A-Za-z0-9]{8,30}$`)
	phoneSeparators      = strings.NewReplacer("-", "", " ", "")
)

// NormalizePhone strips the hyphens and spaces customers type into phone numbers.
func NormalizePhone(phone string) string {
	return phoneSeparators.Replace(strings.TrimSpace(phone))
}

func invalid(step domain.CheckoutStep, field, message string) *ValidationError {
	return &ValidationError{Step: step, Field: field, Message: message}
}

func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}

// ValidateStep reports the first reason the given step cannot be completed, or nil.
// Guests must also provide a contact email on the shipping step.
func ValidateStep(step domain.CheckoutStep, form domain.CheckoutForm, authenticated bool) error {
	switch step {
	case domain.StepShipping:
		return validateShipping(form, authenticated)
	case domain.StepDelivery:
		if form.ShippingMethodID == nil {
			return invalid(step, "shipping_method_id", "Please select a shipping method")
		}
		return nil
	case domain.StepPayment:
		return validatePayment(form)
	default:
		return ErrIllegalTransition
	}
}

// ValidateAll checks every step in order; form edits made on the payment step
// can invalidate an earlier step.
func ValidateAll(form domain.CheckoutForm, authenticated bool) error {
	for step := domain.StepShipping; step <= domain.StepPayment; step++ {
		if err := ValidateStep(step, form, authenticated); err != nil {
			return err
		}
	}
	return nil
}

func validateShipping(form domain.CheckoutForm, authenticated bool) error {
	step := domain.StepShipping
	switch {
	case blank(form.ShippingName):
		return invalid(step, "shipping_name", "Please enter your full name")
	case blank(form.ShippingPhone):
		return invalid(step, "shipping_phone", "Please enter your phone number")
	case blank(form.ShippingAddressLine1):
		return invalid(step, "shipping_address_line_1", "Please enter your address")
	case blank(form.ShippingCity):
		return invalid(step, "shipping_city", "Please enter your city")
	}

	if !authenticated {
		email := strings.TrimSpace(form.Email)
		if email == "" {
			return invalid(step, "email", "Please enter your email address")
		}
		if !emailPattern.MatchString(email) {
			return invalid(step, "email", "Please enter a valid email address")
		}
	}

	if !phonePattern.MatchString(NormalizePhone(form.ShippingPhone)) {
		return invalid(step, "shipping_phone", "Please enter a valid phone number")
	}
	return nil
}

func validatePayment(form domain.CheckoutForm) error {
	step := domain.StepPayment
	if form.PaymentMethod != domain.PaymentBankTransfer {
		return nil
	}

	txn := strings.TrimSpace(form.TransactionID)
	if txn == "" {
		return invalid(step, "transaction_id", "Please enter the transaction ID of your bank transfer")
	}
	if !transactionIDPattern.MatchString(txn) {
		return invalid(step, "transaction_id", "Transaction ID must be 8 to 30 letters or digits")
	}
	return nil
}
