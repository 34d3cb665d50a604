package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/fjod/fischer-storefront/internal/backend"
	"github.com/fjod/fischer-storefront/internal/catalog"
	"github.com/fjod/fischer-storefront/internal/domain"
	"github.com/fjod/fischer-storefront/internal/events"
	"github.com/fjod/fischer-storefront/internal/session"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// BackendMock implements CheckoutBackend, BundleBackend and UserSource for testing
type BackendMock struct {
	mu sync.Mutex

	Users     map[string]*domain.User // token -> user
	AuthErr   error
	Addresses []domain.Address
	Cart      *domain.Cart
	Result    *domain.PlaceOrderResult
	OrderErr  error
	Orders    []*domain.PlaceOrderRequest
	Price     *domain.PriceBreakdown
	PriceErr  error
	CartAdds  int
}

func (m *BackendMock) CurrentUser(ctx context.Context) (*domain.User, error) {
	if m.AuthErr != nil {
		return nil, m.AuthErr
	}
	if user, ok := m.Users[backend.TokenFromContext(ctx)]; ok {
		return user, nil
	}
	return nil, backend.ErrUnauthenticated
}

func (m *BackendMock) ListAddresses(_ context.Context) ([]domain.Address, error) {
	return m.Addresses, nil
}

func (m *BackendMock) GetCart(_ context.Context) (*domain.Cart, error) {
	return m.Cart, nil
}

func (m *BackendMock) PlaceOrder(_ context.Context, req *domain.PlaceOrderRequest, _ string) (*domain.PlaceOrderResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Orders = append(m.Orders, req)
	return m.Result, m.OrderErr
}

func (m *BackendMock) CalculateBundlePrice(_ context.Context, _ string, _ domain.SlotSelection) (*domain.PriceBreakdown, error) {
	return m.Price, m.PriceErr
}

func (m *BackendMock) AddBundleToCart(_ context.Context, _ string, _ int32, _ domain.SlotSelection) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CartAdds++
	return nil
}

// ShippingMock implements checkout.ShippingMethodSource for testing
type ShippingMock struct {
	ByCity map[string][]domain.ShippingMethod
	Err    error
}

func (m *ShippingMock) ShippingMethods(_ context.Context, city string) ([]domain.ShippingMethod, error) {
	return m.ByCity[city], m.Err
}

// CatalogMock implements BundleCatalog for testing
type CatalogMock struct {
	Bundles map[string]domain.Bundle
}

func (m *CatalogMock) GetBundle(_ context.Context, slug string) (*domain.Bundle, error) {
	b, ok := m.Bundles[slug]
	if !ok {
		return nil, backend.ErrNotFound
	}
	return &b, nil
}

func (m *CatalogMock) GetBundleDetail(ctx context.Context, slug string) (*catalog.BundleDetail, error) {
	b, err := m.GetBundle(ctx, slug)
	if err != nil {
		return nil, err
	}
	return &catalog.BundleDetail{Bundle: *b}, nil
}

type testServer struct {
	backend  *BackendMock
	shipping *ShippingMock
	catalog  *CatalogMock
	router   http.Handler
	cookie   *http.Cookie
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	ts := &testServer{
		backend: &BackendMock{
			Users: map[string]*domain.User{"valid-token": {ID: 5, Name: "Bilal", Email: "bilal@example.com"}},
			Cart: &domain.Cart{Items: []domain.CartItem{
				{ID: 1, ProductID: ptr(int64(10)), Quantity: 1, UnitPrice: 85000},
			}, Total: 85000},
			Result: &domain.PlaceOrderResult{Order: &domain.PlacedOrder{ID: 1, OrderNumber: "ORD-77"}},
			Price:  &domain.PriceBreakdown{DiscountedPrice: decimal.RequireFromString("99000")},
		},
		shipping: &ShippingMock{ByCity: map[string][]domain.ShippingMethod{
			"Lahore": {{ID: 1, Code: "std", Name: "Standard", Cost: 250}, {ID: 2, Code: "exp", Name: "Express", Cost: 600}},
		}},
		catalog: &CatalogMock{Bundles: map[string]domain.Bundle{
			"kitchen-combo": {
				ID: 9, Slug: "kitchen-combo", Name: "Kitchen Combo", BundleType: domain.BundleConfigurable,
				DiscountedPrice: decimal.RequireFromString("150000"),
				Slots: []domain.BundleSlot{
					{ID: 1, Name: "Cooking Range", MinSelections: 1, MaxSelections: 1, IsRequired: true,
						Products: []domain.SlotProduct{{ProductID: 100}, {ProductID: 101}}},
				},
			},
		}},
	}

	log := zap.NewNop()
	sessions := session.NewMemoryStore(time.Hour)
	t.Cleanup(func() { sessions.Close() })

	pub := events.NopPublisher{}
	ts.router = NewRouter(RouterConfig{
		Checkout:       NewCheckoutHandler(ts.backend, ts.shipping, pub, log, 5*time.Second, "/order-success"),
		Bundles:        NewBundleHandler(ts.catalog, ts.backend, pub, log, 5*time.Second),
		Users:          ts.backend,
		Sessions:       sessions,
		Log:            log,
		RequestTimeout: 5 * time.Second,
		SessionTTL:     time.Hour,
	})
	return ts
}

// do sends a request and keeps the session cookie between calls.
func (ts *testServer) do(method, path, body string, headers ...string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	if ts.cookie != nil {
		req.AddCookie(ts.cookie)
	}

	recorder := httptest.NewRecorder()
	ts.router.ServeHTTP(recorder, req)

	for _, c := range recorder.Result().Cookies() {
		if c.Name == SessionCookieName {
			ts.cookie = c
		}
	}
	return recorder
}

func ptr[T any](v T) *T {
	return &v
}
