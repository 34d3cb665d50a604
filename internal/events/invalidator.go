package events

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/fjod/fischer-storefront/internal/cache"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// Catalog change types announced by the commerce backend.
const (
	ShippingMethodsUpdated = "shipping_methods.updated"
	BundleUpdated          = "bundle.updated"
)

// CatalogChange is a backend notice that cached catalog data went stale.
// readRetryDelay spaces out reads after a reader error.
const readRetryDelay = time.Second

type CatalogChange struct {
	Type string `json:"type"`
	City string `json:"city,omitempty"`
	Slug string `json:"slug,omitempty"`
}

type messageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Close() error
}

// Invalidator drops cached shipping methods and bundles when the backend reports a change.
type Invalidator struct {
	reader   messageReader
	shipping cache.ShippingMethodCache
	bundles  cache.BundleCache
	log      *zap.Logger

	retryDelay time.Duration
}

func NewInvalidator(shipping cache.ShippingMethodCache, bundles cache.BundleCache, log *zap.Logger,
	topic, groupID string, brokers ...string) *Invalidator {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    topic,
		GroupID:  groupID,
		MaxBytes: 10e6, // 10MB
	})
	return &Invalidator{
		reader:     reader,
		shipping:   shipping,
		bundles:    bundles,
		log:        log,
		retryDelay: readRetryDelay,
	}
}

// Run consumes changes until ctx is done. After a read error it waits before reading again.
func (i *Invalidator) Run(ctx context.Context) {
	for ctx.Err() == nil {
		if err := i.handleNext(ctx); err != nil {
			select {
			case <-ctx.Done():
				return
			case <-time.After(i.retryDelay):
			}
		}
	}
}

func (i *Invalidator) Close() {
	if err := i.reader.Close(); err != nil {
		i.log.Warn("error closing reader", zap.Error(err))
	}
}

// handleNext applies one change. Only a read error is returned; bad messages are logged and skipped.
func (i *Invalidator) handleNext(ctx context.Context) error {
	m, err := i.reader.ReadMessage(ctx)
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			i.log.Warn("error reading catalog change", zap.Error(err))
		}
		return err
	}

	var change CatalogChange
	if errUnmarshal := json.Unmarshal(m.Value, &change); errUnmarshal != nil {
		i.log.Warn("error parsing catalog change", zap.Int64("offset", m.Offset), zap.Error(errUnmarshal))
		return nil
	}

	switch change.Type {
	case ShippingMethodsUpdated:
		if change.City == "" {
			i.log.Warn("shipping change without city", zap.Int64("offset", m.Offset))
			return nil
		}
		if err := i.shipping.Delete(ctx, change.City); err != nil {
			i.log.Warn("failed to drop cached shipping methods", zap.String("city", change.City), zap.Error(err))
			return nil
		}
		i.log.Debug("shipping methods invalidated", zap.String("city", change.City))
	case BundleUpdated:
		if change.Slug == "" {
			i.log.Warn("bundle change without slug", zap.Int64("offset", m.Offset))
			return nil
		}
		if err := i.bundles.DeleteBundle(ctx, change.Slug); err != nil {
			i.log.Warn("failed to drop cached bundle", zap.String("slug", change.Slug), zap.Error(err))
			return nil
		}
		i.log.Debug("bundle invalidated", zap.String("slug", change.Slug))
	default:
		i.log.Debug("ignoring catalog change", zap.String("type", change.Type))
	}
	return nil
}
