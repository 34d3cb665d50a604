package domain

import "fmt"

// CheckoutStep is the position of the checkout wizard.
type CheckoutStep int

const (
	StepShipping CheckoutStep = 1
	StepDelivery CheckoutStep = 2
	StepPayment  CheckoutStep = 3
)

func (s CheckoutStep) IsValid() bool {
	return s >= StepShipping && s <= StepPayment
}

func (s CheckoutStep) IsTerminal() bool {
	return s == StepPayment
}

// String representation (for logging)
func (s CheckoutStep) String() string {
	switch s {
	case StepShipping:
		return "SHIPPING"
	case StepDelivery:
		return "DELIVERY"
	case StepPayment:
		return "PAYMENT"
	default:
		return fmt.Sprintf("STEP(%d)", int(s))
	}
}

// CanTransitionTo reports whether the wizard may move from one step to another.
// Forward moves advance exactly one step; backward moves may jump to any earlier step.
func CanTransitionTo(from, to CheckoutStep) bool {
	if !from.IsValid() || !to.IsValid() {
		return false
	}
	if to < from {
		return true
	}
	return to == from+1
}
