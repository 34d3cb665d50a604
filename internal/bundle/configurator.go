package bundle

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/fjod/fischer-storefront/internal/domain"
	"github.com/fjod/fischer-storefront/internal/events"
	"go.uber.org/zap"
)

var (
	ErrUnknownSlot     = errors.New("slot does not belong to this bundle")
	ErrUnknownProduct  = errors.New("product is not offered in this slot")
	ErrMaxSelections   = errors.New("slot already holds its maximum number of products")
	ErrSlotsIncomplete = errors.New("required slots are not filled")
	ErrInvalidQuantity = errors.New("quantity must be at least 1")
)

type PriceCalculator interface {
	CalculateBundlePrice(ctx context.Context, slug string, selection domain.SlotSelection) (*domain.PriceBreakdown, error)
}

type CartAdder interface {
	AddBundleToCart(ctx context.Context, slug string, quantity int32, selection domain.SlotSelection) error
}

type Dependencies struct {
	Prices PriceCalculator
	Cart   CartAdder
	Events events.Publisher
	Log    *zap.Logger
}

// Configurator holds one visitor's slot selections for a bundle and the price
// computed for them.
type Configurator struct {
	mu   sync.Mutex
	deps Dependencies

	bundle    domain.Bundle
	selection domain.SlotSelection

	// computed is nil while the static price applies.
	computed *domain.PriceBreakdown
	ticket   uint64
}

func NewConfigurator(b domain.Bundle, deps Dependencies) *Configurator {
	if deps.Log == nil {
		deps.Log = zap.NewNop()
	}
	if deps.Events == nil {
		deps.Events = events.NopPublisher{}
	}
	return &Configurator{
		deps:      deps,
		bundle:    b,
		selection: domain.SlotSelection{},
	}
}

func (c *Configurator) Bundle() domain.Bundle {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.bundle
}

// HandleSlotSelection updates one slot. A multiple slot toggles the product in or
// out; any other slot is replaced by the single product.
func (c *Configurator) HandleSlotSelection(slotID, productID int64, allowsMultiple bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	slot, ok := c.bundle.Slot(slotID)
	if !ok {
		return ErrUnknownSlot
	}
	if !slot.HasProduct(productID) {
		return ErrUnknownProduct
	}

	current := c.selection[slotID]
	if !allowsMultiple {
		c.selection[slotID] = []int64{productID}
		c.ticket++
		return nil
	}

	for i, id := range current {
		if id == productID {
			next := append(append([]int64{}, current[:i]...), current[i+1:]...)
			if len(next) == 0 {
				delete(c.selection, slotID)
			} else {
				c.selection[slotID] = next
			}
			c.ticket++
			return nil
		}
	}

	if slot.MaxSelections > 0 && len(current) >= slot.MaxSelections {
		return ErrMaxSelections
	}
	c.selection[slotID] = append(append([]int64{}, current...), productID)
	c.ticket++
	return nil
}

// Select applies a selection using the slot's own multiplicity.
func (c *Configurator) Select(slotID, productID int64) error {
	c.mu.Lock()
	slot, ok := c.bundle.Slot(slotID)
	c.mu.Unlock()
	if !ok {
		return ErrUnknownSlot
	}
	return c.HandleSlotSelection(slotID, productID, slot.AllowsMultiple)
}

func (c *Configurator) Selection() domain.SlotSelection {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.selection.Clone()
}

// Recalculate prices the current selection on the backend. With nothing selected
// the static price applies again and no call is made. A response is dropped when
// the selection changed while it was in flight.
func (c *Configurator) Recalculate(ctx context.Context) error {
	c.mu.Lock()
	if !c.bundle.IsConfigurable() {
		c.mu.Unlock()
		return nil
	}
	selection := c.selection.NonEmpty()
	ticket := c.ticket
	slug := c.bundle.Slug
	if len(selection) == 0 {
		c.computed = nil
		c.mu.Unlock()
		return nil
	}
	c.mu.Unlock()

	price, err := c.deps.Prices.CalculateBundlePrice(ctx, slug, selection)

	c.mu.Lock()
	defer c.mu.Unlock()
	if ticket != c.ticket {
		c.deps.Log.Debug("discarding stale bundle price", zap.String("slug", slug), zap.Uint64("ticket", ticket))
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to calculate price for bundle %s: %w", slug, err)
	}
	c.computed = price
	return nil
}

// DisplayPrice is the calculated price while any slot has a selection, else the bundle's static price.
func (c *Configurator) DisplayPrice() domain.PriceBreakdown {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.displayPriceLocked()
}

func (c *Configurator) displayPriceLocked() domain.PriceBreakdown {
	if c.computed != nil && len(c.selection.NonEmpty()) > 0 {
		return *c.computed
	}
	return c.bundle.StaticPrice()
}

// MissingSlots lists the required slots holding fewer products than their minimum.
func (c *Configurator) MissingSlots() []domain.BundleSlot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.missingSlotsLocked()
}

func (c *Configurator) missingSlotsLocked() []domain.BundleSlot {
	if !c.bundle.IsConfigurable() {
		return nil
	}
	var missing []domain.BundleSlot
	for _, slot := range c.bundle.Slots {
		if !slot.IsRequired {
			continue
		}
		if len(c.selection[slot.ID]) < slot.MinSelections {
			missing = append(missing, slot)
		}
	}
	return missing
}

func (c *Configurator) CanAddToCart() bool {
	return len(c.MissingSlots()) == 0
}

// AddToCart puts the bundle in the cart with the current selections. Nothing is
// sent while a required slot is incomplete.
func (c *Configurator) AddToCart(ctx context.Context, quantity int32) error {
	if quantity < 1 {
		return ErrInvalidQuantity
	}

	c.mu.Lock()
	if missing := c.missingSlotsLocked(); len(missing) > 0 {
		c.mu.Unlock()
		names := make([]string, 0, len(missing))
		for _, s := range missing {
			names = append(names, s.Name)
		}
		return fmt.Errorf("%w: %s", ErrSlotsIncomplete, strings.Join(names, ", "))
	}
	slug := c.bundle.Slug
	var selection domain.SlotSelection
	if c.bundle.IsConfigurable() {
		selection = c.selection.NonEmpty()
	}
	c.mu.Unlock()

	if err := c.deps.Cart.AddBundleToCart(ctx, slug, quantity, selection); err != nil {
		return fmt.Errorf("failed to add bundle %s to cart: %w", slug, err)
	}

	event := events.NewEvent(events.EventBundleAddedToCart)
	event.BundleSlug = slug
	event.Quantity = quantity
	if err := c.deps.Events.Publish(ctx, event); err != nil {
		c.deps.Log.Warn("failed to publish bundle event", zap.String("slug", slug), zap.Error(err))
	}
	c.deps.Log.Info("bundle added to cart", zap.String("slug", slug), zap.Int32("quantity", quantity))
	return nil
}

// State is a point-in-time copy for rendering.
type State struct {
	Slug         string                `json:"slug"`
	Selections   domain.SlotSelection  `json:"selections"`
	Price        domain.PriceBreakdown `json:"price"`
	Calculated   bool                  `json:"price_calculated"`
	CanAddToCart bool                  `json:"can_add_to_cart"`
	MissingSlots []int64               `json:"missing_slot_ids"`
}

func (c *Configurator) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()

	missing := c.missingSlotsLocked()
	ids := make([]int64, 0, len(missing))
	for _, s := range missing {
		ids = append(ids, s.ID)
	}
	return State{
		Slug:         c.bundle.Slug,
		Selections:   c.selection.Clone(),
		Price:        c.displayPriceLocked(),
		Calculated:   c.computed != nil && len(c.selection.NonEmpty()) > 0,
		CanAddToCart: len(missing) == 0,
		MissingSlots: ids,
	}
}
