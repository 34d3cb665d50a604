package bundle

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/fjod/fischer-storefront/internal/domain"
	"github.com/fjod/fischer-storefront/internal/events"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	slotRange = int64(1)
	slotHood  = int64(2)
	slotExtra = int64(3)
)

// MockPriceCalculator implements PriceCalculator for testing
type MockPriceCalculator struct {
	mu         sync.Mutex
	Price      *domain.PriceBreakdown
	Err        error
	Selections []domain.SlotSelection
	// Gate, when set, holds the first call until closed.
	Gate    chan struct{}
	Started chan struct{}
}

func (m *MockPriceCalculator) CalculateBundlePrice(_ context.Context, _ string, selection domain.SlotSelection) (*domain.PriceBreakdown, error) {
	m.mu.Lock()
	m.Selections = append(m.Selections, selection)
	first := len(m.Selections) == 1
	price := m.Price
	m.mu.Unlock()

	if first && m.Gate != nil {
		close(m.Started)
		<-m.Gate
	}
	return price, m.Err
}

func (m *MockPriceCalculator) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Selections)
}

// MockCartAdder implements CartAdder for testing
type MockCartAdder struct {
	Calls      int
	Quantity   int32
	Selections domain.SlotSelection
	Err        error
}

func (m *MockCartAdder) AddBundleToCart(_ context.Context, _ string, quantity int32, selection domain.SlotSelection) error {
	m.Calls++
	m.Quantity = quantity
	m.Selections = selection
	return m.Err
}

// MockPublisher implements events.Publisher for testing
type MockPublisher struct {
	Events []events.Event
}

func (m *MockPublisher) Publish(_ context.Context, event events.Event) error {
	m.Events = append(m.Events, event)
	return nil
}

func (m *MockPublisher) Close() error {
	return nil
}

func kitchenBundle() domain.Bundle {
	return domain.Bundle{
		ID:                9,
		Slug:              "kitchen-combo",
		Name:              "Kitchen Combo",
		BundleType:        domain.BundleConfigurable,
		DiscountedPrice:   decimal.RequireFromString("150000"),
		OriginalPrice:     decimal.RequireFromString("170000"),
		Savings:           decimal.RequireFromString("20000"),
		SavingsPercentage: decimal.RequireFromString("11.76"),
		Slots: []domain.BundleSlot{
			{ID: slotRange, Name: "Cooking Range", MinSelections: 1, MaxSelections: 1, IsRequired: true,
				Products: []domain.SlotProduct{{ProductID: 100}, {ProductID: 101}}},
			{ID: slotHood, Name: "Kitchen Hood", MinSelections: 1, MaxSelections: 1, IsRequired: true,
				Products: []domain.SlotProduct{{ProductID: 200}}},
			{ID: slotExtra, Name: "Accessories", MinSelections: 0, MaxSelections: 2, AllowsMultiple: true,
				Products: []domain.SlotProduct{{ProductID: 300}, {ProductID: 301}, {ProductID: 302}}},
		},
	}
}

type fixture struct {
	prices *MockPriceCalculator
	cart   *MockCartAdder
	events *MockPublisher
	c      *Configurator
}

func newFixture(b domain.Bundle) *fixture {
	f := &fixture{
		prices: &MockPriceCalculator{Price: &domain.PriceBreakdown{
			DiscountedPrice:   decimal.RequireFromString("142000"),
			OriginalPrice:     decimal.RequireFromString("165000"),
			Savings:           decimal.RequireFromString("23000"),
			SavingsPercentage: decimal.RequireFromString("13.94"),
		}},
		cart:   &MockCartAdder{},
		events: &MockPublisher{},
	}
	f.c = NewConfigurator(b, Dependencies{Prices: f.prices, Cart: f.cart, Events: f.events})
	return f
}

func TestHandleSlotSelection_SingleSlotReplaces(t *testing.T) {
	f := newFixture(kitchenBundle())

	require.NoError(t, f.c.HandleSlotSelection(slotRange, 100, false))
	require.NoError(t, f.c.HandleSlotSelection(slotRange, 101, false))

	assert.Equal(t, []int64{101}, f.c.Selection()[slotRange])
}

func TestHandleSlotSelection_SingleSlotReselectKeepsProduct(t *testing.T) {
	f := newFixture(kitchenBundle())

	require.NoError(t, f.c.HandleSlotSelection(slotRange, 100, false))
	require.NoError(t, f.c.HandleSlotSelection(slotRange, 100, false))

	assert.Equal(t, []int64{100}, f.c.Selection()[slotRange])
}

func TestHandleSlotSelection_MultipleSlotToggles(t *testing.T) {
	f := newFixture(kitchenBundle())

	require.NoError(t, f.c.HandleSlotSelection(slotExtra, 300, true))
	require.NoError(t, f.c.HandleSlotSelection(slotExtra, 301, true))
	assert.Equal(t, []int64{300, 301}, f.c.Selection()[slotExtra])

	require.NoError(t, f.c.HandleSlotSelection(slotExtra, 300, true))
	assert.Equal(t, []int64{301}, f.c.Selection()[slotExtra])

	require.NoError(t, f.c.HandleSlotSelection(slotExtra, 301, true))
	_, present := f.c.Selection()[slotExtra]
	assert.False(t, present)
}

func TestHandleSlotSelection_MaxSelections(t *testing.T) {
	f := newFixture(kitchenBundle())
	require.NoError(t, f.c.HandleSlotSelection(slotExtra, 300, true))
	require.NoError(t, f.c.HandleSlotSelection(slotExtra, 301, true))

	err := f.c.HandleSlotSelection(slotExtra, 302, true)

	assert.ErrorIs(t, err, ErrMaxSelections)
	assert.Equal(t, []int64{300, 301}, f.c.Selection()[slotExtra])
}

func TestHandleSlotSelection_UnknownSlotOrProduct(t *testing.T) {
	f := newFixture(kitchenBundle())

	assert.ErrorIs(t, f.c.HandleSlotSelection(42, 100, false), ErrUnknownSlot)
	assert.ErrorIs(t, f.c.HandleSlotSelection(slotHood, 100, false), ErrUnknownProduct)
	assert.ErrorIs(t, f.c.Select(42, 100), ErrUnknownSlot)
	assert.Empty(t, f.c.Selection())
}

func TestSelect_UsesSlotMultiplicity(t *testing.T) {
	f := newFixture(kitchenBundle())

	require.NoError(t, f.c.Select(slotExtra, 300))
	require.NoError(t, f.c.Select(slotExtra, 302))
	require.NoError(t, f.c.Select(slotRange, 100))
	require.NoError(t, f.c.Select(slotRange, 101))

	selection := f.c.Selection()
	assert.Equal(t, []int64{300, 302}, selection[slotExtra])
	assert.Equal(t, []int64{101}, selection[slotRange])
}

func TestRecalculate_CalculatedPriceSupersedesStatic(t *testing.T) {
	f := newFixture(kitchenBundle())
	assert.True(t, f.c.DisplayPrice().DiscountedPrice.Equal(decimal.RequireFromString("150000")))

	require.NoError(t, f.c.Select(slotRange, 100))
	require.NoError(t, f.c.Recalculate(context.Background()))

	assert.True(t, f.c.DisplayPrice().DiscountedPrice.Equal(decimal.RequireFromString("142000")))
	assert.True(t, f.c.State().Calculated)
	require.Equal(t, 1, f.prices.Calls())
	assert.Equal(t, domain.SlotSelection{slotRange: {100}}, f.prices.Selections[0])
}

func TestRecalculate_EmptySelectionRevertsWithoutCall(t *testing.T) {
	f := newFixture(kitchenBundle())
	require.NoError(t, f.c.Select(slotExtra, 300))
	require.NoError(t, f.c.Recalculate(context.Background()))
	require.NoError(t, f.c.Select(slotExtra, 300))

	require.NoError(t, f.c.Recalculate(context.Background()))

	assert.Equal(t, 1, f.prices.Calls())
	assert.True(t, f.c.DisplayPrice().DiscountedPrice.Equal(decimal.RequireFromString("150000")))
	assert.False(t, f.c.State().Calculated)
}

func TestRecalculate_FixedBundleNeverCalls(t *testing.T) {
	b := kitchenBundle()
	b.BundleType = domain.BundleFixed
	f := newFixture(b)

	require.NoError(t, f.c.Recalculate(context.Background()))

	assert.Zero(t, f.prices.Calls())
}

func TestRecalculate_ErrorKeepsPreviousPrice(t *testing.T) {
	f := newFixture(kitchenBundle())
	f.prices.Err = errors.New("backend unavailable")
	require.NoError(t, f.c.Select(slotRange, 100))

	err := f.c.Recalculate(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "kitchen-combo")
	assert.True(t, f.c.DisplayPrice().DiscountedPrice.Equal(decimal.RequireFromString("150000")))
}

func TestRecalculate_DiscardsStaleResponse(t *testing.T) {
	f := newFixture(kitchenBundle())
	f.prices.Gate = make(chan struct{})
	f.prices.Started = make(chan struct{})
	require.NoError(t, f.c.Select(slotRange, 100))

	done := make(chan error, 1)
	go func() { done <- f.c.Recalculate(context.Background()) }()
	<-f.prices.Started

	require.NoError(t, f.c.Select(slotRange, 101))
	fresh := domain.PriceBreakdown{DiscountedPrice: decimal.RequireFromString("139000")}
	f.prices.mu.Lock()
	stale := f.prices.Price
	f.prices.Price = &fresh
	f.prices.mu.Unlock()
	require.NoError(t, f.c.Recalculate(context.Background()))

	close(f.prices.Gate)
	require.NoError(t, <-done)

	assert.NotEqual(t, stale.DiscountedPrice.String(), f.c.DisplayPrice().DiscountedPrice.String())
	assert.True(t, f.c.DisplayPrice().DiscountedPrice.Equal(decimal.RequireFromString("139000")))
}

func TestMissingSlots(t *testing.T) {
	f := newFixture(kitchenBundle())

	missing := f.c.MissingSlots()
	require.Len(t, missing, 2)
	assert.Equal(t, "Cooking Range", missing[0].Name)
	assert.False(t, f.c.CanAddToCart())

	require.NoError(t, f.c.Select(slotRange, 100))
	require.NoError(t, f.c.Select(slotHood, 200))

	assert.Empty(t, f.c.MissingSlots())
	assert.True(t, f.c.CanAddToCart())
	assert.Empty(t, f.c.State().MissingSlots)
}

func TestAddToCart_BlockedWithoutNetworkCall(t *testing.T) {
	f := newFixture(kitchenBundle())
	require.NoError(t, f.c.Select(slotRange, 100))

	err := f.c.AddToCart(context.Background(), 1)

	assert.ErrorIs(t, err, ErrSlotsIncomplete)
	assert.Contains(t, err.Error(), "Kitchen Hood")
	assert.Zero(t, f.cart.Calls)
	assert.Empty(t, f.events.Events)
}

func TestAddToCart_SendsNonEmptySelections(t *testing.T) {
	f := newFixture(kitchenBundle())
	require.NoError(t, f.c.Select(slotRange, 100))
	require.NoError(t, f.c.Select(slotHood, 200))
	require.NoError(t, f.c.Select(slotExtra, 301))

	require.NoError(t, f.c.AddToCart(context.Background(), 2))

	assert.Equal(t, 1, f.cart.Calls)
	assert.Equal(t, int32(2), f.cart.Quantity)
	assert.Equal(t, domain.SlotSelection{slotRange: {100}, slotHood: {200}, slotExtra: {301}}, f.cart.Selections)
	require.Len(t, f.events.Events, 1)
	assert.Equal(t, events.EventBundleAddedToCart, f.events.Events[0].Type)
	assert.Equal(t, "kitchen-combo", f.events.Events[0].BundleSlug)
}

func TestAddToCart_FixedBundleHasNoSelections(t *testing.T) {
	b := kitchenBundle()
	b.BundleType = domain.BundleFixed
	f := newFixture(b)

	require.NoError(t, f.c.AddToCart(context.Background(), 1))

	assert.Equal(t, 1, f.cart.Calls)
	assert.Nil(t, f.cart.Selections)
}

func TestAddToCart_InvalidQuantity(t *testing.T) {
	f := newFixture(kitchenBundle())

	assert.ErrorIs(t, f.c.AddToCart(context.Background(), 0), ErrInvalidQuantity)
	assert.Zero(t, f.cart.Calls)
}

func TestAddToCart_BackendError(t *testing.T) {
	b := kitchenBundle()
	b.BundleType = domain.BundleFixed
	f := newFixture(b)
	f.cart.Err = errors.New("out of stock")

	err := f.c.AddToCart(context.Background(), 1)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to add bundle kitchen-combo to cart")
	assert.Empty(t, f.events.Events)
}
