package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fjod/fischer-storefront/internal/backend"
	c "github.com/fjod/fischer-storefront/internal/cache"
	"github.com/fjod/fischer-storefront/internal/catalog"
	"github.com/fjod/fischer-storefront/internal/config"
	"github.com/fjod/fischer-storefront/internal/events"
	h "github.com/fjod/fischer-storefront/internal/http"
	"github.com/fjod/fischer-storefront/internal/session"
	"github.com/fjod/fischer-storefront/pkg/logger"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	cfg := config.Load()

	zlog, err := logger.New(logger.Options{Service: "storefront", Env: cfg.AppEnv, Level: cfg.LogLevel})
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer zlog.Sync()
	zap.ReplaceGlobals(zlog)

	backendClient := backend.NewClient(cfg.BackendBaseURL, cfg.BackendTimeout, zlog.Named("backend"))
	zlog.Info("commerce backend configured", zap.String("base_url", cfg.BackendBaseURL))

	// Redis is optional: without it catalog reads go straight to the backend.
	var redisCache *c.RedisCache
	var shippingCache c.ShippingMethodCache
	var bundleCache c.BundleCache
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	defer redisClient.Close()
	pingCtx, cancelPing := context.WithTimeout(context.Background(), 2*time.Second)
	if err := redisClient.Ping(pingCtx).Err(); err != nil {
		zlog.Warn("redis unavailable, catalog caching disabled", zap.String("addr", cfg.RedisAddr), zap.Error(err))
	} else {
		redisCache = c.NewRedisCache(redisClient)
		shippingCache, bundleCache = redisCache, redisCache
		zlog.Info("redis ping succeeded", zap.String("addr", cfg.RedisAddr))
	}
	cancelPing()

	var publisher events.Publisher = events.NopPublisher{}
	if len(cfg.KafkaBrokers) > 0 {
		publisher = events.NewKafkaPublisher(cfg.KafkaTopic, cfg.KafkaBrokers...)
		zlog.Info("publishing storefront events", zap.Strings("brokers", cfg.KafkaBrokers), zap.String("topic", cfg.KafkaTopic))
	}
	defer publisher.Close()

	invalidatorCtx, stopInvalidator := context.WithCancel(context.Background())
	defer stopInvalidator()
	if len(cfg.KafkaBrokers) > 0 && redisCache != nil {
		invalidator := events.NewInvalidator(redisCache, redisCache, zlog.Named("invalidator"),
			cfg.KafkaInvalidationTopic, cfg.KafkaGroupID, cfg.KafkaBrokers...)
		defer invalidator.Close()
		go invalidator.Run(invalidatorCtx)
		zlog.Info("consuming catalog changes", zap.String("topic", cfg.KafkaInvalidationTopic))
	}

	shippingService := catalog.NewShippingService(backendClient, shippingCache, zlog.Named("shipping"))
	bundleService := catalog.NewBundleService(backendClient, bundleCache, zlog.Named("bundles"))

	sessions := session.NewMemoryStore(cfg.SessionTTL)
	defer sessions.Close()

	router := h.NewRouter(h.RouterConfig{
		Checkout: h.NewCheckoutHandler(backendClient, shippingService, publisher, zlog.Named("checkout"),
			cfg.RequestTimeout, cfg.OrderConfirmationPath),
		Bundles:            h.NewBundleHandler(bundleService, backendClient, publisher, zlog.Named("bundle"), cfg.RequestTimeout),
		Users:              backendClient,
		Sessions:           sessions,
		Log:                zlog.Named("http"),
		RequestTimeout:     cfg.RequestTimeout,
		MaxRequestBodySize: cfg.MaxRequestBodySize,
		SessionTTL:         cfg.SessionTTL,
		SecureCookies:      cfg.AppEnv != "dev",
	})

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: cfg.RequestTimeout + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		zlog.Info("storefront starting", zap.String("port", cfg.HTTPPort))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zlog.Fatal("server error", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zlog.Info("shutting down server...")
	stopInvalidator()
	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		zlog.Error("server forced to shutdown", zap.Error(err))
	}

	zlog.Info("server exited")
}
