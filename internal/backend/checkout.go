package backend

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/fjod/fischer-storefront/internal/domain"
)

// GET /api/addresses
func (c *Client) ListAddresses(ctx context.Context) ([]domain.Address, error) {
	var addresses []domain.Address
	if err := c.get(ctx, "/api/addresses", nil, &addresses); err != nil {
		return nil, err
	}
	return addresses, nil
}

// GET /api/shipping/methods?city=
func (c *Client) ShippingMethods(ctx context.Context, city string) ([]domain.ShippingMethod, error) {
	var methods []domain.ShippingMethod
	if err := c.get(ctx, "/api/shipping/methods", url.Values{"city": {city}}, &methods); err != nil {
		return nil, err
	}
	return methods, nil
}

// GET /api/cart
func (c *Client) GetCart(ctx context.Context) (*domain.Cart, error) {
	var cart domain.Cart
	if err := c.get(ctx, "/api/cart", nil, &cart); err != nil {
		return nil, err
	}
	return &cart, nil
}

// POST /api/checkout/place-order
func (c *Client) PlaceOrder(ctx context.Context, req *domain.PlaceOrderRequest, idempotencyKey string) (*domain.PlaceOrderResult, error) {
	header := http.Header{}
	if idempotencyKey != "" {
		header.Set("Idempotency-Key", idempotencyKey)
	}
	var result domain.PlaceOrderResult
	if err := c.post(ctx, "/api/checkout/place-order", req, header, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// GET /api/auth/user
func (c *Client) CurrentUser(ctx context.Context) (*domain.User, error) {
	if TokenFromContext(ctx) == "" {
		return nil, ErrUnauthenticated
	}
	var user domain.User
	if err := c.get(ctx, "/api/auth/user", nil, &user); err != nil {
		return nil, err
	}
	if user.ID == 0 {
		return nil, fmt.Errorf("auth user response without id: %w", ErrUnauthenticated)
	}
	return &user, nil
}
