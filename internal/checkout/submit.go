package checkout

import (
	"context"
	"errors"
	"strings"

	"github.com/fjod/fischer-storefront/internal/backend"
	"github.com/fjod/fischer-storefront/internal/domain"
	"github.com/fjod/fischer-storefront/internal/events"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type OutcomeKind string

const (
	OutcomeRedirect     OutcomeKind = "redirect"
	OutcomeConfirmation OutcomeKind = "confirmation"
)

// Outcome tells the caller where to send the customer after a placed order.
type Outcome struct {
	Kind             OutcomeKind `json:"kind"`
	RedirectURL      string      `json:"redirect_url,omitempty"`
	OrderNumber      string      `json:"order_number,omitempty"`
	ConfirmationPath string      `json:"confirmation_path,omitempty"`
}

// Submit places the order from the payment step. Only one submission runs at a
// time; a failed submission leaves the wizard on the payment step for another try.
func (w *Wizard) Submit(ctx context.Context) (*Outcome, error) {
	w.mu.Lock()
	if w.step != domain.StepPayment {
		w.mu.Unlock()
		return nil, ErrNotOnPaymentStep
	}
	if w.submitting {
		w.mu.Unlock()
		return nil, ErrSubmissionInProgress
	}
	if err := ValidateAll(w.form, w.authenticated); err != nil {
		w.mu.Unlock()
		return nil, err
	}
	if err := w.checkMethodOfferedLocked(); err != nil {
		w.mu.Unlock()
		return nil, err
	}
	w.submitting = true
	form := w.formLocked()
	guest := !w.authenticated
	confirmationPath := w.confirmationPath
	w.mu.Unlock()

	defer func() {
		w.mu.Lock()
		w.submitting = false
		w.mu.Unlock()
	}()

	log := w.deps.Log.With(zap.String("payment_method", string(form.PaymentMethod)), zap.Bool("guest", guest))

	cart, err := w.deps.Cart.GetCart(ctx)
	if err != nil {
		log.Warn("failed to read cart for order", zap.Error(err))
		return nil, &OrderError{Message: backend.MessageOr(err, DefaultOrderErrorMessage), Err: err}
	}
	if cart.IsEmpty() {
		return nil, ErrEmptyCart
	}

	req := BuildOrderRequest(form, cart)
	idempotencyKey := uuid.NewString()

	result, err := w.deps.Orders.PlaceOrder(ctx, req, idempotencyKey)
	if err != nil {
		log.Error("failed to place order", zap.String("idempotency_key", idempotencyKey), zap.Error(err))
		return nil, &OrderError{Message: backend.MessageOr(err, DefaultOrderErrorMessage), Err: err}
	}

	outcome, err := outcomeOf(result, confirmationPath)
	if err != nil {
		log.Error("unusable order response", zap.String("idempotency_key", idempotencyKey))
		return nil, &OrderError{Message: DefaultOrderErrorMessage, Err: err}
	}

	w.publishOrderEvent(ctx, outcome, form, cart, guest)
	log.Info("order placed",
		zap.String("outcome", string(outcome.Kind)),
		zap.String("order_number", outcome.OrderNumber))
	return outcome, nil
}

func outcomeOf(result *domain.PlaceOrderResult, confirmationPath string) (*Outcome, error) {
	if url := result.RedirectURL(); url != "" {
		return &Outcome{Kind: OutcomeRedirect, RedirectURL: url}, nil
	}
	if number := result.OrderNumber(); number != "" {
		return &Outcome{
			Kind:             OutcomeConfirmation,
			OrderNumber:      number,
			ConfirmationPath: strings.TrimSuffix(confirmationPath, "/") + "/" + number,
		}, nil
	}
	return nil, ErrUnexpectedOrderResponse
}

// BuildOrderRequest maps the form and the cart to the order-creation payload.
// Phone numbers are normalized and billing is copied from shipping when the
// customer asked for it.
func BuildOrderRequest(form domain.CheckoutForm, cart *domain.Cart) *domain.PlaceOrderRequest {
	req := &domain.PlaceOrderRequest{
		Email:                 strings.TrimSpace(form.Email),
		ShippingName:          strings.TrimSpace(form.ShippingName),
		ShippingPhone:         NormalizePhone(form.ShippingPhone),
		ShippingAddressLine1:  strings.TrimSpace(form.ShippingAddressLine1),
		ShippingAddressLine2:  strings.TrimSpace(form.ShippingAddressLine2),
		ShippingCity:          strings.TrimSpace(form.ShippingCity),
		ShippingState:         strings.TrimSpace(form.ShippingState),
		ShippingPostalCode:    strings.TrimSpace(form.ShippingPostalCode),
		BillingSameAsShipping: form.BillingSameAsShipping,
		PaymentMethod:         form.PaymentMethod,
		Notes:                 strings.TrimSpace(form.Notes),
		CouponCode:            cart.CouponCode,
	}
	if form.ShippingMethodID != nil {
		req.ShippingMethodID = *form.ShippingMethodID
	}
	if form.PaymentMethod == domain.PaymentBankTransfer {
		req.TransactionID = strings.TrimSpace(form.TransactionID)
	}

	if form.BillingSameAsShipping {
		req.BillingName = req.ShippingName
		req.BillingPhone = req.ShippingPhone
		req.BillingAddressLine1 = req.ShippingAddressLine1
		req.BillingAddressLine2 = req.ShippingAddressLine2
		req.BillingCity = req.ShippingCity
		req.BillingState = req.ShippingState
		req.BillingPostalCode = req.ShippingPostalCode
	} else {
		req.BillingName = strings.TrimSpace(form.BillingName)
		req.BillingPhone = NormalizePhone(form.BillingPhone)
		req.BillingAddressLine1 = strings.TrimSpace(form.BillingAddressLine1)
		req.BillingAddressLine2 = strings.TrimSpace(form.BillingAddressLine2)
		req.BillingCity = strings.TrimSpace(form.BillingCity)
		req.BillingState = strings.TrimSpace(form.BillingState)
		req.BillingPostalCode = strings.TrimSpace(form.BillingPostalCode)
	}

	req.Items = make([]domain.OrderItem, 0, len(cart.Items))
	for _, item := range cart.Items {
		req.Items = append(req.Items, orderItem(item))
	}
	return req
}

func orderItem(item domain.CartItem) domain.OrderItem {
	if item.Kind() == domain.CartLineBundle {
		price := item.UnitPrice
		return domain.OrderItem{
			BundleID: copyID(item.BundleID),
			Quantity: item.Quantity,
			Price:    &price,
		}
	}
	return domain.OrderItem{
		ProductID: copyID(item.ProductID),
		VariantID: copyID(item.VariantID),
		Quantity:  item.Quantity,
	}
}

func (w *Wizard) publishOrderEvent(ctx context.Context, outcome *Outcome, form domain.CheckoutForm, cart *domain.Cart, guest bool) {
	t := events.EventOrderPlaced
	if outcome.Kind == OutcomeRedirect {
		t = events.EventPaymentRedirected
	}
	event := events.NewEvent(t)
	event.OrderNumber = outcome.OrderNumber
	event.PaymentMethod = string(form.PaymentMethod)
	event.ItemCount = len(cart.Items)
	event.CartTotal = cart.Total
	event.Guest = guest

	// The order is already placed; a lost event must not fail the checkout.
	if err := w.deps.Events.Publish(ctx, event); err != nil {
		w.deps.Log.Warn("failed to publish checkout event", zap.String("type", string(t)), zap.Error(err))
	}
}

// IsOrderError reports whether err came from the backend rejecting or failing the order.
func IsOrderError(err error) bool {
	var orderErr *OrderError
	return errors.As(err, &orderErr)
}
