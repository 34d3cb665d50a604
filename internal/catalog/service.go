package catalog

import (
	"context"
	"errors"
	"time"

	"github.com/fjod/fischer-storefront/internal/cache"
	"github.com/fjod/fischer-storefront/internal/domain"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

type ShippingBackend interface {
	ShippingMethods(ctx context.Context, city string) ([]domain.ShippingMethod, error)
}

type BundleBackend interface {
	GetBundle(ctx context.Context, slug string) (*domain.Bundle, error)
	RelatedBundles(ctx context.Context, slug string) ([]domain.Bundle, error)
}

// ShippingService reads shipping methods through a per-city cache.
type ShippingService struct {
	backend ShippingBackend
	cache   cache.ShippingMethodCache
	sfg     singleflight.Group // Prevents cache stampede
	log     *zap.Logger
}

// NewShippingService builds the service; a nil cache disables caching.
func NewShippingService(backend ShippingBackend, c cache.ShippingMethodCache, log *zap.Logger) *ShippingService {
	return &ShippingService{backend: backend, cache: c, log: log}
}

func (s *ShippingService) ShippingMethods(ctx context.Context, city string) ([]domain.ShippingMethod, error) {
	// Use singleflight to prevent multiple concurrent cache misses for same city
	v, err, _ := s.sfg.Do(city, func() (interface{}, error) {
		if s.cache != nil {
			methods, err := s.cache.Get(ctx, city)
			if err == nil {
				return methods, nil
			}
			if !errors.Is(err, cache.ErrCacheMiss) {
				s.log.Warn("shipping cache get error", zap.String("city", city), zap.Error(err))
			}
		}

		methods, err := s.backend.ShippingMethods(ctx, city)
		if err != nil {
			return nil, err
		}

		if s.cache != nil && len(methods) > 0 {
			go func() {
				setCtx, cancel := context.WithTimeout(context.Background(), time.Second)
				defer cancel()
				if errSet := s.cache.Set(setCtx, city, methods); errSet != nil {
					s.log.Warn("shipping cache set error", zap.String("city", city), zap.Error(errSet))
				}
			}()
		}
		return methods, nil
	})
	if err != nil {
		return nil, err
	}

	// callers own their copy; the shared result may be handed to several waiters
	shared := v.([]domain.ShippingMethod)
	return append([]domain.ShippingMethod(nil), shared...), nil
}

// BundleService reads bundle details through the cache and fetches related bundles alongside.
type BundleService struct {
	backend BundleBackend
	cache   cache.BundleCache
	sfg     singleflight.Group
	log     *zap.Logger
}

func NewBundleService(backend BundleBackend, c cache.BundleCache, log *zap.Logger) *BundleService {
	return &BundleService{backend: backend, cache: c, log: log}
}

func (s *BundleService) GetBundle(ctx context.Context, slug string) (*domain.Bundle, error) {
	v, err, _ := s.sfg.Do(slug, func() (interface{}, error) {
		if s.cache != nil {
			bundle, err := s.cache.GetBundle(ctx, slug)
			if err == nil {
				return bundle, nil
			}
			if !errors.Is(err, cache.ErrCacheMiss) {
				s.log.Warn("bundle cache get error", zap.String("slug", slug), zap.Error(err))
			}
		}

		bundle, err := s.backend.GetBundle(ctx, slug)
		if err != nil {
			return nil, err
		}

		if s.cache != nil {
			go func() {
				setCtx, cancel := context.WithTimeout(context.Background(), time.Second)
				defer cancel()
				if errSet := s.cache.SetBundle(setCtx, slug, bundle); errSet != nil {
					s.log.Warn("bundle cache set error", zap.String("slug", slug), zap.Error(errSet))
				}
			}()
		}
		return bundle, nil
	})
	if err != nil {
		return nil, err
	}

	bundle := *v.(*domain.Bundle)
	return &bundle, nil
}

// BundleDetail is a bundle with the bundles shown next to it.
type BundleDetail struct {
	Bundle  domain.Bundle   `json:"bundle"`
	Related []domain.Bundle `json:"related"`
}

// GetBundleDetail loads the bundle and its related bundles concurrently. A failure to load
// related bundles is logged and yields an empty list; the bundle itself is required.
func (s *BundleService) GetBundleDetail(ctx context.Context, slug string) (*BundleDetail, error) {
	detail := &BundleDetail{Related: []domain.Bundle{}}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		bundle, err := s.GetBundle(gctx, slug)
		if err != nil {
			return err
		}
		detail.Bundle = *bundle
		return nil
	})
	g.Go(func() error {
		related, err := s.backend.RelatedBundles(gctx, slug)
		if err != nil {
			s.log.Warn("related bundles unavailable", zap.String("slug", slug), zap.Error(err))
			return nil
		}
		if related != nil {
			detail.Related = related
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return detail, nil
}
