package domain

import "github.com/shopspring/decimal"

type BundleType string

const (
	BundleFixed        BundleType = "fixed"
	BundleConfigurable BundleType = "configurable"
)

type Bundle struct {
	ID                int64           `json:"id"`
	Slug              string          `json:"slug"`
	Name              string          `json:"name"`
	Description       string          `json:"description"`
	BundleType        BundleType      `json:"bundle_type"`
	DiscountedPrice   decimal.Decimal `json:"discounted_price"`
	OriginalPrice     decimal.Decimal `json:"original_price"`
	Savings           decimal.Decimal `json:"savings"`
	SavingsPercentage decimal.Decimal `json:"savings_percentage"`
	Items             []BundleItem    `json:"items"`
	Slots             []BundleSlot    `json:"slots"`
	IsActive          bool            `json:"is_active"`
}

func (b *Bundle) IsConfigurable() bool {
	return b.BundleType == BundleConfigurable
}

// StaticPrice is the price shown before any slot selection is made.
func (b *Bundle) StaticPrice() PriceBreakdown {
	return PriceBreakdown{
		DiscountedPrice:   b.DiscountedPrice,
		OriginalPrice:     b.OriginalPrice,
		Savings:           b.Savings,
		SavingsPercentage: b.SavingsPercentage,
	}
}

func (b *Bundle) Slot(id int64) (*BundleSlot, bool) {
	for i := range b.Slots {
		if b.Slots[i].ID == id {
			return &b.Slots[i], true
		}
	}
	return nil, false
}

// BundleItem is one member of a fixed bundle.
type BundleItem struct {
	ProductID int64           `json:"product_id"`
	Name      string          `json:"name"`
	Quantity  int32           `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
}

type BundleSlot struct {
	ID             int64         `json:"id"`
	Name           string        `json:"name"`
	Description    string        `json:"description"`
	MinSelections  int           `json:"min_selections"`
	MaxSelections  int           `json:"max_selections"`
	AllowsMultiple bool          `json:"allows_multiple"`
	IsRequired     bool          `json:"is_required"`
	Products       []SlotProduct `json:"products"`
}

func (s *BundleSlot) HasProduct(productID int64) bool {
	for _, p := range s.Products {
		if p.ProductID == productID {
			return true
		}
	}
	return false
}

// SlotProduct is a product eligible for a slot, with the slot's effective price.
type SlotProduct struct {
	ProductID      int64           `json:"product_id"`
	Name           string          `json:"name"`
	Slug           string          `json:"slug"`
	EffectivePrice decimal.Decimal `json:"effective_price"`
}

// SlotSelection maps a slot id to the chosen product ids, in selection order.
type SlotSelection map[int64][]int64

// NonEmpty returns a copy holding only slots with at least one product.
func (s SlotSelection) NonEmpty() SlotSelection {
	out := make(SlotSelection, len(s))
	for slotID, products := range s {
		if len(products) == 0 {
			continue
		}
		out[slotID] = append([]int64(nil), products...)
	}
	return out
}

func (s SlotSelection) Clone() SlotSelection {
	out := make(SlotSelection, len(s))
	for slotID, products := range s {
		out[slotID] = append([]int64(nil), products...)
	}
	return out
}

type PriceBreakdown struct {
	DiscountedPrice   decimal.Decimal `json:"discounted_price"`
	OriginalPrice     decimal.Decimal `json:"original_price"`
	Savings           decimal.Decimal `json:"savings"`
	SavingsPercentage decimal.Decimal `json:"savings_percentage"`
}
