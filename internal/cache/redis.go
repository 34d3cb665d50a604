package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/fjod/fischer-storefront/internal/domain"
	"github.com/redis/go-redis/v9"
)

func NewRedisCache(client *redis.Client) *RedisCache {
	return &RedisCache{
		client:  client,
		baseTTL: 15 * time.Minute,
	}
}

// RedisCache keeps shipping method lists per city and bundle details per slug.
type RedisCache struct {
	client  *redis.Client
	baseTTL time.Duration
}

func (r RedisCache) Get(ctx context.Context, city string) ([]domain.ShippingMethod, error) {
	var methods []domain.ShippingMethod
	if err := r.getJSON(ctx, shippingKey(city), &methods); err != nil {
		return nil, err
	}
	return methods, nil
}

func (r RedisCache) Set(ctx context.Context, city string, methods []domain.ShippingMethod) error {
	return r.setJSON(ctx, shippingKey(city), methods)
}

func (r RedisCache) Delete(ctx context.Context, city string) error {
	if err := r.client.Del(ctx, shippingKey(city)).Err(); err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}
	return nil
}

func (r RedisCache) GetBundle(ctx context.Context, slug string) (*domain.Bundle, error) {
	var bundle domain.Bundle
	if err := r.getJSON(ctx, bundleKey(slug), &bundle); err != nil {
		return nil, err
	}
	return &bundle, nil
}

func (r RedisCache) SetBundle(ctx context.Context, slug string, bundle *domain.Bundle) error {
	return r.setJSON(ctx, bundleKey(slug), bundle)
}

func (r RedisCache) DeleteBundle(ctx context.Context, slug string) error {
	if err := r.client.Del(ctx, bundleKey(slug)).Err(); err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}
	return nil
}

func (r RedisCache) getJSON(ctx context.Context, key string, out any) error {
	data, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return ErrCacheMiss
	}
	if err != nil {
		return fmt.Errorf("redis get failed: %w", err)
	}

	if err2 := json.Unmarshal(data, out); err2 != nil {
		return fmt.Errorf("unmarshal %s failed: %w", key, err2)
	}
	return nil
}

func (r RedisCache) setJSON(ctx context.Context, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal %s failed: %w", key, err)
	}

	jitter := time.Duration(rand.Intn(5)) * time.Minute
	ttl := r.baseTTL + jitter
	if err := r.client.Set(ctx, key, string(data), ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

// shippingKey normalizes the city so "Lahore" and " lahore" share an entry.
func shippingKey(city string) string {
	return fmt.Sprintf("shipping:methods:%s", strings.ToLower(strings.TrimSpace(city)))
}

func bundleKey(slug string) string {
	return fmt.Sprintf("bundle:%s", slug)
}
