package checkout

import (
	"context"
	"sync"

	"github.com/fjod/fischer-storefront/internal/domain"
	"github.com/fjod/fischer-storefront/internal/events"
)

// MockAddressSource implements AddressSource for testing
type MockAddressSource struct {
	Addresses []domain.Address
	Err       error
	Calls     int
}

func (m *MockAddressSource) ListAddresses(_ context.Context) ([]domain.Address, error) {
	m.Calls++
	return m.Addresses, m.Err
}

// MockShippingSource implements ShippingMethodSource for testing.
// A city listed in Gates blocks until its channel is closed.
type MockShippingSource struct {
	mu      sync.Mutex
	ByCity  map[string][]domain.ShippingMethod
	Err     error
	Gates   map[string]chan struct{}
	Started chan string
	Cities  []string
}

func (m *MockShippingSource) ShippingMethods(ctx context.Context, city string) ([]domain.ShippingMethod, error) {
	m.mu.Lock()
	m.Cities = append(m.Cities, city)
	gate := m.Gates[city]
	m.mu.Unlock()

	if m.Started != nil {
		m.Started <- city
	}
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if m.Err != nil {
		return nil, m.Err
	}
	return m.ByCity[city], nil
}

func (m *MockShippingSource) RequestedCities() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string{}, m.Cities...)
}

// MockCartReader implements CartReader for testing
type MockCartReader struct {
	Cart *domain.Cart
	Err  error
}

func (m *MockCartReader) GetCart(_ context.Context) (*domain.Cart, error) {
	return m.Cart, m.Err
}

// MockOrderPlacer implements OrderPlacer for testing
type MockOrderPlacer struct {
	mu              sync.Mutex
	Result          *domain.PlaceOrderResult
	Err             error
	Requests        []*domain.PlaceOrderRequest
	IdempotencyKeys []string
	// Gate, when set, holds PlaceOrder until closed.
	Gate    chan struct{}
	Started chan struct{}
}

func (m *MockOrderPlacer) PlaceOrder(_ context.Context, req *domain.PlaceOrderRequest, key string) (*domain.PlaceOrderResult, error) {
	m.mu.Lock()
	m.Requests = append(m.Requests, req)
	m.IdempotencyKeys = append(m.IdempotencyKeys, key)
	m.mu.Unlock()

	if m.Started != nil {
		close(m.Started)
	}
	if m.Gate != nil {
		<-m.Gate
	}
	return m.Result, m.Err
}

func (m *MockOrderPlacer) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Requests)
}

// MockPublisher implements events.Publisher for testing
type MockPublisher struct {
	mu     sync.Mutex
	Events []events.Event
	Err    error
}

func (m *MockPublisher) Publish(_ context.Context, event events.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Events = append(m.Events, event)
	return m.Err
}

func (m *MockPublisher) Close() error {
	return nil
}

type testDeps struct {
	addresses *MockAddressSource
	shipping  *MockShippingSource
	cart      *MockCartReader
	orders    *MockOrderPlacer
	events    *MockPublisher
}

func newTestDeps() *testDeps {
	return &testDeps{
		addresses: &MockAddressSource{},
		shipping: &MockShippingSource{ByCity: map[string][]domain.ShippingMethod{
			"Lahore":  {{ID: 1, Code: "std", Name: "Standard", Cost: 250}, {ID: 2, Code: "exp", Name: "Express", Cost: 600}},
			"Karachi": {{ID: 3, Code: "std-khi", Name: "Standard", Cost: 400}},
			"Quetta":  {},
		}},
		cart: &MockCartReader{Cart: &domain.Cart{
			Items: []domain.CartItem{
				{ID: 1, ProductID: ptr(int64(10)), Name: "Cooking Range", Quantity: 1, UnitPrice: 85000},
			},
			Total: 85000,
		}},
		orders: &MockOrderPlacer{Result: &domain.PlaceOrderResult{
			Order: &domain.PlacedOrder{ID: 7, OrderNumber: "ORD-1001", Total: 85250},
		}},
		events: &MockPublisher{},
	}
}

func (d *testDeps) wizard(opts Options) *Wizard {
	return NewWizard(Dependencies{
		Addresses: d.addresses,
		Shipping:  d.shipping,
		Cart:      d.cart,
		Orders:    d.orders,
		Events:    d.events,
	}, opts)
}

func ptr[T any](v T) *T {
	return &v
}

// validShippingPatch fills every step 1 field a guest needs.
func validShippingPatch() domain.CheckoutFormPatch {
	return domain.CheckoutFormPatch{
		Email:                ptr("ayesha@example.com"),
		ShippingName:         ptr("Ayesha Khan"),
		ShippingPhone:        ptr("0300-1234567"),
		ShippingAddressLine1: ptr("12 Mall Road"),
	}
}
