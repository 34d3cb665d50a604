package domain

type CartLineKind string

const (
	CartLineProduct CartLineKind = "product"
	CartLineVariant CartLineKind = "variant"
	CartLineBundle  CartLineKind = "bundle"
)

// CartItem is one line of the visitor's cart. A line refers to a product, a
// product variant, or a bundle; the cart backend owns it and checkout only reads it.
type CartItem struct {
	ID        int64  `json:"id"`
	ProductID *int64 `json:"product_id,omitempty"`
	VariantID *int64 `json:"variant_id,omitempty"`
	BundleID  *int64 `json:"bundle_id,omitempty"`
	Name      string `json:"name"`
	Quantity  int32  `json:"quantity"`
	UnitPrice int64  `json:"unit_price"`
}

func (c CartItem) Kind() CartLineKind {
	switch {
	case c.BundleID != nil:
		return CartLineBundle
	case c.VariantID != nil:
		return CartLineVariant
	default:
		return CartLineProduct
	}
}

func (c CartItem) Subtotal() int64 {
	return c.UnitPrice * int64(c.Quantity)
}

// Cart represents the cart state as read at checkout time
type Cart struct {
	Items      []CartItem `json:"items"`
	CouponCode string     `json:"coupon_code,omitempty"`
	Subtotal   int64      `json:"subtotal"`
	Discount   int64      `json:"discount"`
	Total      int64      `json:"total"`
}

func (c *Cart) IsEmpty() bool {
	return c == nil || len(c.Items) == 0
}
