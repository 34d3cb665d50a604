package domain

// OrderItem is the minimal line shape accepted by the order-creation endpoint.
// Bundle lines carry bundle_id and price; product lines carry product_id and an optional variant_id.
type OrderItem struct {
	BundleID  *int64 `json:"bundle_id,omitempty"`
	ProductID *int64 `json:"product_id,omitempty"`
	VariantID *int64 `json:"variant_id,omitempty"`
	Quantity  int32  `json:"quantity"`
	Price     *int64 `json:"price,omitempty"`
}

type PlaceOrderRequest struct {
	Email string `json:"email,omitempty"`

	ShippingName         string `json:"shipping_name"`
	ShippingPhone        string `json:"shipping_phone"`
	ShippingAddressLine1 string `json:"shipping_address_line_1"`
	ShippingAddressLine2 string `json:"shipping_address_line_2,omitempty"`
	ShippingCity         string `json:"shipping_city"`
	ShippingState        string `json:"shipping_state,omitempty"`
	ShippingPostalCode   string `json:"shipping_postal_code,omitempty"`

	BillingSameAsShipping bool   `json:"billing_same_as_shipping"`
	BillingName           string `json:"billing_name,omitempty"`
	BillingPhone          string `json:"billing_phone,omitempty"`
	BillingAddressLine1   string `json:"billing_address_line_1,omitempty"`
	BillingAddressLine2   string `json:"billing_address_line_2,omitempty"`
	BillingCity           string `json:"billing_city,omitempty"`
	BillingState          string `json:"billing_state,omitempty"`
	BillingPostalCode     string `json:"billing_postal_code,omitempty"`

	ShippingMethodID int64         `json:"shipping_method_id"`
	PaymentMethod    PaymentMethod `json:"payment_method"`
	TransactionID    string        `json:"transaction_id,omitempty"`
	Notes            string        `json:"notes,omitempty"`
	CouponCode       string        `json:"coupon_code,omitempty"`
	Items            []OrderItem   `json:"items"`
}

type PlacedOrder struct {
	ID          int64  `json:"id"`
	OrderNumber string `json:"order_number"`
	Total       int64  `json:"total"`
}

type PaymentHandoff struct {
	RedirectURL string `json:"redirect_url"`
}

// PlaceOrderResult is the data section of a successful place-order response.
// Exactly one of Payment.RedirectURL or Order.OrderNumber is expected.
type PlaceOrderResult struct {
	Order   *PlacedOrder    `json:"order,omitempty"`
	Payment *PaymentHandoff `json:"payment,omitempty"`
}

func (r *PlaceOrderResult) RedirectURL() string {
	if r == nil || r.Payment == nil {
		return ""
	}
	return r.Payment.RedirectURL
}

func (r *PlaceOrderResult) OrderNumber() string {
	if r == nil || r.Order == nil {
		return ""
	}
	return r.Order.OrderNumber
}
