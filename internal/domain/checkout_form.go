package domain

type PaymentMethod string

const (
	PaymentCOD          PaymentMethod = "cod"
	PaymentJazzCash     PaymentMethod = "jazzcash"
	PaymentEasyPaisa    PaymentMethod = "easypaisa"
	PaymentCard         PaymentMethod = "card"
	PaymentBankTransfer PaymentMethod = "bank_transfer"
)

func (p PaymentMethod) IsValid() bool {
	switch p {
	case PaymentCOD, PaymentJazzCash, PaymentEasyPaisa, PaymentCard, PaymentBankTransfer:
		return true
	}
	return false
}

// CheckoutForm is the mutable draft of one future order.
type CheckoutForm struct {
	Email string `json:"email"`

	ShippingName         string `json:"shipping_name"`
	ShippingPhone        string `json:"shipping_phone"`
	ShippingAddressLine1 string `json:"shipping_address_line_1"`
	ShippingAddressLine2 string `json:"shipping_address_line_2"`
	ShippingCity         string `json:"shipping_city"`
	ShippingState        string `json:"shipping_state"`
	ShippingPostalCode   string `json:"shipping_postal_code"`

	BillingSameAsShipping bool   `json:"billing_same_as_shipping"`
	BillingName           string `json:"billing_name"`
	BillingPhone          string `json:"billing_phone"`
	BillingAddressLine1   string `json:"billing_address_line_1"`
	BillingAddressLine2   string `json:"billing_address_line_2"`
	BillingCity           string `json:"billing_city"`
	BillingState          string `json:"billing_state"`
	BillingPostalCode     string `json:"billing_postal_code"`

	ShippingMethodID *int64        `json:"shipping_method_id"`
	PaymentMethod    PaymentMethod `json:"payment_method"`
	TransactionID    string        `json:"transaction_id"`
	Notes            string        `json:"notes"`
}

// NewCheckoutForm returns an empty draft with cash on delivery preselected.
func NewCheckoutForm() CheckoutForm {
	return CheckoutForm{
		BillingSameAsShipping: true,
		PaymentMethod:         PaymentCOD,
	}
}

// CheckoutFormPatch carries manual edits; nil fields are left untouched.
type CheckoutFormPatch struct {
	Email *string `json:"email,omitempty"`

	ShippingName         *string `json:"shipping_name,omitempty"`
	ShippingPhone        *string `json:"shipping_phone,omitempty"`
	ShippingAddressLine1 *string `json:"shipping_address_line_1,omitempty"`
	ShippingAddressLine2 *string `json:"shipping_address_line_2,omitempty"`
	ShippingState        *string `json:"shipping_state,omitempty"`
	ShippingPostalCode   *string `json:"shipping_postal_code,omitempty"`

	BillingSameAsShipping *bool   `json:"billing_same_as_shipping,omitempty"`
	BillingName           *string `json:"billing_name,omitempty"`
	BillingPhone          *string `json:"billing_phone,omitempty"`
	BillingAddressLine1   *string `json:"billing_address_line_1,omitempty"`
	BillingAddressLine2   *string `json:"billing_address_line_2,omitempty"`
	BillingCity           *string `json:"billing_city,omitempty"`
	BillingState          *string `json:"billing_state,omitempty"`
	BillingPostalCode     *string `json:"billing_postal_code,omitempty"`

	PaymentMethod *PaymentMethod `json:"payment_method,omitempty"`
	TransactionID *string        `json:"transaction_id,omitempty"`
	Notes         *string        `json:"notes,omitempty"`
}

// Apply copies every non-nil field of the patch into the form.
// The shipping city and method are not patchable here because they drive
// shipping method resolution.
func (p CheckoutFormPatch) Apply(f *CheckoutForm) {
	set := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	set(&f.Email, p.Email)
	set(&f.ShippingName, p.ShippingName)
	set(&f.ShippingPhone, p.ShippingPhone)
	set(&f.ShippingAddressLine1, p.ShippingAddressLine1)
	set(&f.ShippingAddressLine2, p.ShippingAddressLine2)
	set(&f.ShippingState, p.ShippingState)
	set(&f.ShippingPostalCode, p.ShippingPostalCode)
	if p.BillingSameAsShipping != nil {
		f.BillingSameAsShipping = *p.BillingSameAsShipping
	}
	set(&f.BillingName, p.BillingName)
	set(&f.BillingPhone, p.BillingPhone)
	set(&f.BillingAddressLine1, p.BillingAddressLine1)
	set(&f.BillingAddressLine2, p.BillingAddressLine2)
	set(&f.BillingCity, p.BillingCity)
	set(&f.BillingState, p.BillingState)
	set(&f.BillingPostalCode, p.BillingPostalCode)
	if p.PaymentMethod != nil {
		f.PaymentMethod = *p.PaymentMethod
	}
	set(&f.TransactionID, p.TransactionID)
	set(&f.Notes, p.Notes)
}

// Address is a saved, server-owned address record.
type Address struct {
	ID           int64  `json:"id"`
	Label        string `json:"label"`
	Name         string `json:"name"`
	Phone        string `json:"phone"`
	AddressLine1 string `json:"address_line_1"`
	AddressLine2 string `json:"address_line_2"`
	City         string `json:"city"`
	State        string `json:"state"`
	PostalCode   string `json:"postal_code"`
	IsDefault    bool   `json:"is_default"`
}

// ApplyTo overwrites every shipping field of the form with the address values.
func (a Address) ApplyTo(f *CheckoutForm) {
	f.ShippingName = a.Name
	f.ShippingPhone = a.Phone
	f.ShippingAddressLine1 = a.AddressLine1
	f.ShippingAddressLine2 = a.AddressLine2
	f.ShippingCity = a.City
	f.ShippingState = a.State
	f.ShippingPostalCode = a.PostalCode
}

type ShippingMethod struct {
	ID                int64  `json:"id"`
	Code              string `json:"code"`
	Name              string `json:"name"`
	Description       string `json:"description"`
	Cost              int64  `json:"cost"`
	EstimatedDelivery string `json:"estimated_delivery"`
}
