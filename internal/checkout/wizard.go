package checkout

import (
	"context"
	"sync"

	"github.com/fjod/fischer-storefront/internal/domain"
	"github.com/fjod/fischer-storefront/internal/events"
	"go.uber.org/zap"
)

// Consumers define these interfaces; internal/backend and internal/catalog implement them.

type AddressSource interface {
	ListAddresses(ctx context.Context) ([]domain.Address, error)
}

type ShippingMethodSource interface {
	ShippingMethods(ctx context.Context, city string) ([]domain.ShippingMethod, error)
}

type CartReader interface {
	GetCart(ctx context.Context) (*domain.Cart, error)
}

type OrderPlacer interface {
	PlaceOrder(ctx context.Context, req *domain.PlaceOrderRequest, idempotencyKey string) (*domain.PlaceOrderResult, error)
}

type Dependencies struct {
	Addresses AddressSource
	Shipping  ShippingMethodSource
	Cart      CartReader
	Orders    OrderPlacer
	Events    events.Publisher
	Log       *zap.Logger
}

type Options struct {
	Authenticated bool
	// UserEmail prefills the contact email of a signed-in customer.
	UserEmail string
	// ConfirmationPath is the route prefix of the order confirmation view.
	ConfirmationPath string
}

// Wizard is one visitor's checkout: the draft form, the current step and the
// data loaded for it. Network calls run outside the lock; responses that arrive
// after a newer request was issued are discarded.
type Wizard struct {
	mu   sync.Mutex
	deps Dependencies

	authenticated    bool
	confirmationPath string

	form domain.CheckoutForm
	step domain.CheckoutStep

	addresses         []domain.Address
	selectedAddressID *int64

	methods     []domain.ShippingMethod
	methodsCity string
	cityTicket  uint64

	submitting bool
}

func NewWizard(deps Dependencies, opts Options) *Wizard {
	if deps.Log == nil {
		deps.Log = zap.NewNop()
	}
	if deps.Events == nil {
		deps.Events = events.NopPublisher{}
	}
	if opts.ConfirmationPath == "" {
		opts.ConfirmationPath = "/order-success"
	}

	form := domain.NewCheckoutForm()
	if opts.Authenticated {
		form.Email = opts.UserEmail
	}

	return &Wizard{
		deps:             deps,
		authenticated:    opts.Authenticated,
		confirmationPath: opts.ConfirmationPath,
		form:             form,
		step:             domain.StepShipping,
	}
}

// State is a point-in-time copy of the wizard for rendering.
type State struct {
	Step              domain.CheckoutStep     `json:"step"`
	StepName          string                  `json:"step_name"`
	Authenticated     bool                    `json:"authenticated"`
	Form              domain.CheckoutForm     `json:"form"`
	Addresses         []domain.Address        `json:"addresses"`
	SelectedAddressID *int64                  `json:"selected_address_id"`
	ShippingMethods   []domain.ShippingMethod `json:"shipping_methods"`
	// MethodsCity is the city the method list was loaded for; it lags the form while a fetch is pending.
	MethodsCity  string `json:"shipping_methods_city"`
	ShippingCost int64  `json:"shipping_cost"`
	Submitting   bool   `json:"submitting"`
}

func (w *Wizard) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()

	return State{
		Step:              w.step,
		StepName:          w.step.String(),
		Authenticated:     w.authenticated,
		Form:              w.formLocked(),
		Addresses:         append([]domain.Address{}, w.addresses...),
		SelectedAddressID: copyID(w.selectedAddressID),
		ShippingMethods:   append([]domain.ShippingMethod{}, w.methods...),
		MethodsCity:       w.methodsCity,
		ShippingCost:      w.shippingCostLocked(),
		Submitting:        w.submitting,
	}
}

func (w *Wizard) Form() domain.CheckoutForm {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.formLocked()
}

func (w *Wizard) formLocked() domain.CheckoutForm {
	f := w.form
	f.ShippingMethodID = copyID(w.form.ShippingMethodID)
	return f
}

func (w *Wizard) Step() domain.CheckoutStep {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.step
}

func (w *Wizard) Authenticated() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.authenticated
}

// UpdateForm applies manual edits. Edits do not touch the selected saved address;
// they survive until another address is applied.
func (w *Wizard) UpdateForm(patch domain.CheckoutFormPatch) error {
	if patch.PaymentMethod != nil && !patch.PaymentMethod.IsValid() {
		return ErrUnknownPaymentMethod
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	patch.Apply(&w.form)
	return nil
}

// NextStep advances one step if the current step validates. On failure the step is unchanged.
func (w *Wizard) NextStep() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.step.IsTerminal() {
		return ErrNoNextStep
	}
	if err := ValidateStep(w.step, w.form, w.authenticated); err != nil {
		return err
	}
	if w.step == domain.StepDelivery {
		if err := w.checkMethodOfferedLocked(); err != nil {
			return err
		}
	}
	w.step++
	return nil
}

// SetStep moves back to an earlier step without validating the step being left.
// Moving forward is only possible through NextStep.
func (w *Wizard) SetStep(step domain.CheckoutStep) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if step == w.step {
		return nil
	}
	if step > w.step || !domain.CanTransitionTo(w.step, step) {
		return ErrIllegalTransition
	}
	w.step = step
	return nil
}

func copyID(id *int64) *int64 {
	if id == nil {
		return nil
	}
	v := *id
	return &v
}
