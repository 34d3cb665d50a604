package checkout

import (
	"context"
	"fmt"
	"strings"

	"github.com/fjod/fischer-storefront/internal/domain"
	"go.uber.org/zap"
)

// SetCity updates the shipping city and returns the ticket of the shipping method
// request that the change calls for. The chosen shipping method is kept until a
// method list for the new city arrives.
func (w *Wizard) SetCity(city string) uint64 {
	w.mu.Lock()
	defer w.mu.Unlock()

	previous := w.form.ShippingCity
	w.form.ShippingCity = city
	w.cityChangedLocked(previous)
	return w.cityTicket
}

// ChangeCity sets the city and loads its shipping methods.
func (w *Wizard) ChangeCity(ctx context.Context, city string) error {
	w.SetCity(city)
	return w.LoadShippingMethods(ctx)
}

func (w *Wizard) cityChangedLocked(previous string) bool {
	if strings.TrimSpace(previous) == strings.TrimSpace(w.form.ShippingCity) {
		return false
	}
	w.cityTicket++
	return true
}

// LoadShippingMethods fetches the methods for the current city and replaces the list.
// A response is dropped when the city changed while it was in flight.
func (w *Wizard) LoadShippingMethods(ctx context.Context) error {
	w.mu.Lock()
	ticket := w.cityTicket
	city := strings.TrimSpace(w.form.ShippingCity)
	if city == "" {
		w.applyMethodsLocked("", nil)
		w.mu.Unlock()
		return nil
	}
	w.mu.Unlock()

	methods, err := w.deps.Shipping.ShippingMethods(ctx, city)

	w.mu.Lock()
	defer w.mu.Unlock()

	if ticket != w.cityTicket {
		w.deps.Log.Debug("discarding stale shipping methods",
			zap.String("city", city), zap.Uint64("ticket", ticket), zap.Uint64("current", w.cityTicket))
		return nil
	}
	if err != nil {
		// Methods of the previous city no longer apply.
		if w.methodsCity != city {
			w.applyMethodsLocked("", nil)
		}
		return fmt.Errorf("failed to load shipping methods for %s: %w", city, err)
	}
	w.applyMethodsLocked(city, methods)
	return nil
}

// applyMethodsLocked replaces the method list. An unset choice becomes the first
// method; a choice missing from the new list is replaced the same way, or cleared
// when the city has no methods.
func (w *Wizard) applyMethodsLocked(city string, methods []domain.ShippingMethod) {
	w.methods = methods
	w.methodsCity = city

	if w.form.ShippingMethodID != nil && w.hasMethodLocked(*w.form.ShippingMethodID) {
		return
	}
	if len(methods) == 0 {
		w.form.ShippingMethodID = nil
		return
	}
	first := methods[0].ID
	w.form.ShippingMethodID = &first
}

func (w *Wizard) hasMethodLocked(id int64) bool {
	for _, m := range w.methods {
		if m.ID == id {
			return true
		}
	}
	return false
}

// checkMethodOfferedLocked rejects a chosen method that was not returned for the
// current city, e.g. while the city's methods are still loading or failed to load.
// A missing choice is left to ValidateStep.
func (w *Wizard) checkMethodOfferedLocked() error {
	id := w.form.ShippingMethodID
	if id == nil {
		return nil
	}
	if w.methodsCity != strings.TrimSpace(w.form.ShippingCity) || !w.hasMethodLocked(*id) {
		return invalid(domain.StepDelivery, "shipping_method_id", "Please select a shipping method available for your city")
	}
	return nil
}

// SelectShippingMethod picks one of the methods offered for the current city.
func (w *Wizard) SelectShippingMethod(methodID int64) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.hasMethodLocked(methodID) {
		return ErrShippingMethodNotFound
	}
	id := methodID
	w.form.ShippingMethodID = &id
	return nil
}

func (w *Wizard) ShippingMethods() []domain.ShippingMethod {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]domain.ShippingMethod{}, w.methods...)
}

// ShippingCost is the cost of the chosen method, 0 when none is chosen.
func (w *Wizard) ShippingCost() int64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.shippingCostLocked()
}

func (w *Wizard) shippingCostLocked() int64 {
	if w.form.ShippingMethodID == nil {
		return 0
	}
	for _, m := range w.methods {
		if m.ID == *w.form.ShippingMethodID {
			return m.Cost
		}
	}
	return 0
}
