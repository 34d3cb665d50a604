package checkout

import (
	"context"
	"fmt"

	"github.com/fjod/fischer-storefront/internal/domain"
	"go.uber.org/zap"
)

// LoadAddresses fetches the customer's saved addresses and applies the default one
// (or the first when none is flagged). Guests have no saved addresses and nothing is fetched.
// When applying the address changes the city, shipping methods are reloaded.
func (w *Wizard) LoadAddresses(ctx context.Context) error {
	if !w.Authenticated() {
		return nil
	}

	addresses, err := w.deps.Addresses.ListAddresses(ctx)
	if err != nil {
		return fmt.Errorf("failed to load saved addresses: %w", err)
	}

	w.mu.Lock()
	w.addresses = addresses
	chosen, ok := defaultAddress(addresses)
	cityChanged := false
	if ok {
		cityChanged = w.applyAddressLocked(chosen)
	}
	w.mu.Unlock()

	w.deps.Log.Debug("saved addresses loaded", zap.Int("count", len(addresses)), zap.Bool("applied", ok))
	if cityChanged {
		return w.LoadShippingMethods(ctx)
	}
	return nil
}

// SelectAddress applies a saved address chosen by the customer.
func (w *Wizard) SelectAddress(ctx context.Context, addressID int64) error {
	w.mu.Lock()
	var chosen *domain.Address
	for i := range w.addresses {
		if w.addresses[i].ID == addressID {
			chosen = &w.addresses[i]
			break
		}
	}
	if chosen == nil {
		w.mu.Unlock()
		return ErrAddressNotFound
	}
	cityChanged := w.applyAddressLocked(*chosen)
	w.mu.Unlock()

	if cityChanged {
		return w.LoadShippingMethods(ctx)
	}
	return nil
}

func defaultAddress(addresses []domain.Address) (domain.Address, bool) {
	if len(addresses) == 0 {
		return domain.Address{}, false
	}
	for _, a := range addresses {
		if a.IsDefault {
			return a, true
		}
	}
	return addresses[0], true
}

// applyAddressLocked overwrites every shipping field with the address snapshot.
// It reports whether the shipping city changed.
func (w *Wizard) applyAddressLocked(a domain.Address) bool {
	previousCity := w.form.ShippingCity
	a.ApplyTo(&w.form)
	id := a.ID
	w.selectedAddressID = &id
	return w.cityChangedLocked(previousCity)
}
