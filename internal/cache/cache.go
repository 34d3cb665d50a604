package cache

import (
	"context"
	"errors"

	"github.com/fjod/fischer-storefront/internal/domain"
)

type ShippingMethodCache interface {
	Get(ctx context.Context, city string) ([]domain.ShippingMethod, error)
	Set(ctx context.Context, city string, methods []domain.ShippingMethod) error
	Delete(ctx context.Context, city string) error
}

type BundleCache interface {
	GetBundle(ctx context.Context, slug string) (*domain.Bundle, error)
	SetBundle(ctx context.Context, slug string, bundle *domain.Bundle) error
	DeleteBundle(ctx context.Context, slug string) error
}

var ErrCacheMiss = errors.New("cache miss")
