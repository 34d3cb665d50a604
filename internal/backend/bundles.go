package backend

import (
	"context"
	"net/url"
	"sort"

	"github.com/fjod/fischer-storefront/internal/domain"
)

type slotSelectionDTO struct {
	SlotID     int64   `json:"slot_id"`
	ProductIDs []int64 `json:"product_ids"`
}

type calculatePriceRequestDTO struct {
	Selections []slotSelectionDTO `json:"selections"`
}

type addBundleToCartRequestDTO struct {
	Quantity   int32              `json:"quantity"`
	Selections []slotSelectionDTO `json:"selections,omitempty"`
}

// mapSelections flattens the selection map in slot id order so request bodies are deterministic.
func mapSelections(selection domain.SlotSelection) []slotSelectionDTO {
	out := make([]slotSelectionDTO, 0, len(selection))
	for slotID, products := range selection {
		if len(products) == 0 {
			continue
		}
		out = append(out, slotSelectionDTO{SlotID: slotID, ProductIDs: products})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SlotID < out[j].SlotID })
	return out
}

// GET /api/bundles/{slug}
func (c *Client) GetBundle(ctx context.Context, slug string) (*domain.Bundle, error) {
	var bundle domain.Bundle
	if err := c.get(ctx, "/api/bundles/"+url.PathEscape(slug), nil, &bundle); err != nil {
		return nil, err
	}
	return &bundle, nil
}

// GET /api/bundles/{slug}/related
func (c *Client) RelatedBundles(ctx context.Context, slug string) ([]domain.Bundle, error) {
	var bundles []domain.Bundle
	if err := c.get(ctx, "/api/bundles/"+url.PathEscape(slug)+"/related", nil, &bundles); err != nil {
		return nil, err
	}
	return bundles, nil
}

// POST /api/bundles/{slug}/calculate-price
func (c *Client) CalculateBundlePrice(ctx context.Context, slug string, selection domain.SlotSelection) (*domain.PriceBreakdown, error) {
	var price domain.PriceBreakdown
	body := calculatePriceRequestDTO{Selections: mapSelections(selection)}
	if err := c.post(ctx, "/api/bundles/"+url.PathEscape(slug)+"/calculate-price", body, nil, &price); err != nil {
		return nil, err
	}
	return &price, nil
}

// POST /api/bundles/{slug}/add-to-cart
func (c *Client) AddBundleToCart(ctx context.Context, slug string, quantity int32, selection domain.SlotSelection) error {
	body := addBundleToCartRequestDTO{Quantity: quantity, Selections: mapSelections(selection)}
	return c.post(ctx, "/api/bundles/"+url.PathEscape(slug)+"/add-to-cart", body, nil, nil)
}
