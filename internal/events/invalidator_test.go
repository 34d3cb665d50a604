package events

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/fjod/fischer-storefront/internal/cache"
	"github.com/fjod/fischer-storefront/internal/domain"
	"github.com/redis/go-redis/v9"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gotest.tools/v3/assert"
)

// fakeReader replays queued messages, then blocks until the context ends.
// brokenErr, when set, fails every read.
type fakeReader struct {
	msgs      []kafka.Message
	err       error
	brokenErr error
	reads     int
	closed    bool
}

func (f *fakeReader) ReadMessage(ctx context.Context) (kafka.Message, error) {
	f.reads++
	if f.brokenErr != nil {
		return kafka.Message{}, f.brokenErr
	}
	if f.err != nil {
		err := f.err
		f.err = nil
		return kafka.Message{}, err
	}
	if len(f.msgs) == 0 {
		<-ctx.Done()
		return kafka.Message{}, ctx.Err()
	}
	m := f.msgs[0]
	f.msgs = f.msgs[1:]
	return m, nil
}

func (f *fakeReader) Close() error {
	f.closed = true
	return nil
}

func setupInvalidator(t *testing.T, msgs ...string) (*Invalidator, *cache.RedisCache, *fakeReader) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	c := cache.NewRedisCache(client)

	reader := &fakeReader{}
	for _, m := range msgs {
		reader.msgs = append(reader.msgs, kafka.Message{Value: []byte(m)})
	}
	inv := &Invalidator{reader: reader, shipping: c, bundles: c, log: zap.NewNop(), retryDelay: 10 * time.Millisecond}
	return inv, c, reader
}

func TestInvalidator_DropsShippingMethods(t *testing.T) {
	inv, c, _ := setupInvalidator(t, `{"type":"shipping_methods.updated","city":"Lahore"}`)
	ctx := context.Background()
	require.NoError(t, c.Set(ctx, "Lahore", []domain.ShippingMethod{{ID: 1}}))
	require.NoError(t, c.Set(ctx, "Karachi", []domain.ShippingMethod{{ID: 2}}))

	assert.NilError(t, inv.handleNext(ctx))

	_, err := c.Get(ctx, "Lahore")
	assert.ErrorIs(t, err, cache.ErrCacheMiss)
	kept, err := c.Get(ctx, "Karachi")
	assert.NilError(t, err)
	assert.Equal(t, len(kept), 1)
}

func TestInvalidator_DropsBundle(t *testing.T) {
	inv, c, _ := setupInvalidator(t, `{"type":"bundle.updated","slug":"kitchen-combo"}`)
	ctx := context.Background()
	require.NoError(t, c.SetBundle(ctx, "kitchen-combo", &domain.Bundle{Slug: "kitchen-combo"}))

	assert.NilError(t, inv.handleNext(ctx))

	_, err := c.GetBundle(ctx, "kitchen-combo")
	assert.ErrorIs(t, err, cache.ErrCacheMiss)
}

func TestInvalidator_SkipsMalformedAndUnknown(t *testing.T) {
	inv, c, _ := setupInvalidator(t, `not json`, `{"type":"price.updated"}`, `{"type":"bundle.updated"}`)
	ctx := context.Background()
	require.NoError(t, c.SetBundle(ctx, "kitchen-combo", &domain.Bundle{Slug: "kitchen-combo"}))

	assert.NilError(t, inv.handleNext(ctx))
	assert.NilError(t, inv.handleNext(ctx))
	assert.NilError(t, inv.handleNext(ctx))

	_, err := c.GetBundle(ctx, "kitchen-combo")
	assert.NilError(t, err)
}

func TestInvalidator_RunStopsWithContext(t *testing.T) {
	inv, c, reader := setupInvalidator(t, `{"type":"shipping_methods.updated","city":"Multan"}`)
	reader.err = errors.New("broker not ready")
	require.NoError(t, c.Set(context.Background(), "Multan", []domain.ShippingMethod{{ID: 3}}))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		inv.Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool {
		_, err := c.Get(context.Background(), "Multan")
		return errors.Is(err, cache.ErrCacheMiss)
	}, time.Second, 10*time.Millisecond)
	cancel()
	<-done

	inv.Close()
	assert.Assert(t, reader.closed)
}

func TestInvalidator_BacksOffAfterReadError(t *testing.T) {
	inv, _, reader := setupInvalidator(t)
	reader.brokenErr = errors.New("broker unreachable")
	inv.retryDelay = 50 * time.Millisecond

	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Millisecond)
	defer cancel()
	inv.Run(ctx)

	assert.Assert(t, reader.reads >= 1)
	assert.Assert(t, reader.reads <= 4, "reads=%d", reader.reads)
}
