package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"storefront-backend/config"
	"storefront-backend/internal/delivery/http/middleware"
	v1 "storefront-backend/internal/delivery/http/v1"
	"storefront-backend/internal/domain"
	"storefront-backend/internal/infrastructure/cache"
	"storefront-backend/internal/infrastructure/metrics"
	"storefront-backend/internal/infrastructure/notification"
	"storefront-backend/internal/infrastructure/payment"
	pgrepo "storefront-backend/internal/repository/postgres"
	"storefront-backend/internal/usecase"
	"storefront-backend/pkg/logger"
	"storefront-backend/pkg/utils"

	"github.com/NYTimes/gziphandler"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"
)

const serviceName = "storefront-api"

var version = "dev"

type closingNotifier interface {
	domain.OrderNotifier
	io.Closer
}

func main() {
	cfg := config.LoadConfig()
	utils.SetSecret(cfg.JWTSecret)

	// Initialize Logger
	logger.Init(cfg.Env, cfg.LogLevel)

	// Initialize Database
	pgxPool, err := pgrepo.NewPgxPool(context.Background(), cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer pgxPool.Close()
	logger.Info().Msg("Successfully connected to PostgreSQL via pgx")

	// Initialize Repositories
	inventoryRepo := pgrepo.NewInventoryRepository(pgxPool)
	cartRepo := pgrepo.NewCartRepository(pgxPool)
	orderRepo := pgrepo.NewOrderRepository(pgxPool)
	promoRepo := pgrepo.NewPromoRepository(pgxPool)
	addressRepo := pgrepo.NewAddressRepository(pgxPool)
	statsRepo := pgrepo.NewStatsRepository(pgxPool)
	txManager := pgrepo.NewTransactionManager(pgxPool)

	// Default expiration 30m, cleanup every 60m
	memCache := cache.NewMemoryCache(30*time.Minute, 60*time.Minute)

	metricsRegistry := metrics.New(prometheus.DefaultRegisterer)

	// --- Integrations ---

	gateway := payment.NewGateway(payment.Config{
		BaseURL:  cfg.PaymentGatewayURL,
		APIKey:   cfg.PaymentGatewayKey,
		Currency: cfg.PaymentCurrency,
		Timeout:  cfg.PaymentTimeout,
	})

	var notifier closingNotifier
	if len(cfg.KafkaBrokers) > 0 {
		notifier = notification.NewKafkaNotifier(cfg.KafkaBrokers, cfg.KafkaOrderTopic)
		logger.Info().Strs("brokers", cfg.KafkaBrokers).Str("topic", cfg.KafkaOrderTopic).Msg("Publishing order events to Kafka")
	} else {
		notifier = notification.NewLogNotifier()
	}

	// Set up Router
	mux := http.NewServeMux()

	adminMiddleware := func(h http.HandlerFunc) http.Handler {
		return middleware.AuthMiddleware(middleware.AdminMiddleware(h))
	}

	// --- Modules Initialization ---

	// Cart Module
	cartUC := usecase.NewCartUsecase(cartRepo, inventoryRepo, txManager, cfg.MaxCartQuantity)
	cartHandler := v1.NewCartHandler(cartUC)

	mux.Handle("GET /api/v1/cart", middleware.OptionalAuth(http.HandlerFunc(cartHandler.GetCart)))
	mux.Handle("POST /api/v1/cart/items", middleware.OptionalAuth(http.HandlerFunc(cartHandler.AddItem)))
	mux.Handle("PATCH /api/v1/cart/items/{itemId}", middleware.OptionalAuth(http.HandlerFunc(cartHandler.UpdateItem)))
	mux.Handle("DELETE /api/v1/cart/items/{itemId}", middleware.OptionalAuth(http.HandlerFunc(cartHandler.RemoveItem)))
	mux.Handle("POST /api/v1/cart/merge", middleware.AuthMiddleware(http.HandlerFunc(cartHandler.MergeCart)))

	// Promo Module
	promoUC := usecase.NewPromoUsecase(promoRepo)
	promoHandler := v1.NewPromoHandler(promoUC)
	adminPromoHandler := v1.NewAdminPromoHandler(promoUC)

	mux.Handle("POST /api/v1/promo-codes/validate", middleware.OptionalAuth(http.HandlerFunc(promoHandler.Validate)))

	mux.Handle("GET /api/v1/admin/promo-codes", adminMiddleware(adminPromoHandler.ListPromoCodes))
	mux.Handle("POST /api/v1/admin/promo-codes", adminMiddleware(adminPromoHandler.CreatePromoCode))
	mux.Handle("GET /api/v1/admin/promo-codes/{id}", adminMiddleware(adminPromoHandler.GetPromoCode))
	mux.Handle("PUT /api/v1/admin/promo-codes/{id}", adminMiddleware(adminPromoHandler.UpdatePromoCode))
	mux.Handle("DELETE /api/v1/admin/promo-codes/{id}", adminMiddleware(adminPromoHandler.DeletePromoCode))
	mux.Handle("GET /api/v1/admin/promo-codes/{id}/usages", adminMiddleware(adminPromoHandler.ListUsages))

	// Order Module
	orderNumbers := usecase.NewOrderNumberGenerator(orderRepo, cfg.OrderNumberMaxAttempts)
	orderUC := usecase.NewOrderUsecase(
		orderRepo,
		cartRepo,
		addressRepo,
		promoRepo,
		inventoryRepo,
		promoUC,
		orderNumbers,
		gateway,
		notifier,
		metricsRegistry,
		txManager,
		usecase.CheckoutOptions{
			OfflinePaymentMethods: cfg.OfflinePaymentMethods,
			StrictPromoCodes:      cfg.StrictPromoCodes,
		},
	)
	orderHandler := v1.NewOrderHandler(orderUC)
	adminOrderHandler := v1.NewAdminOrderHandler(orderUC)

	mux.Handle("POST /api/v1/orders", middleware.AuthMiddleware(http.HandlerFunc(orderHandler.Checkout)))
	mux.Handle("GET /api/v1/orders", middleware.AuthMiddleware(http.HandlerFunc(orderHandler.GetMyOrders)))
	mux.Handle("GET /api/v1/orders/{id}", middleware.AuthMiddleware(http.HandlerFunc(orderHandler.GetMyOrder)))

	mux.Handle("GET /api/v1/admin/orders", adminMiddleware(adminOrderHandler.ListOrders))
	mux.Handle("GET /api/v1/admin/orders/{id}", adminMiddleware(adminOrderHandler.GetOrder))
	mux.Handle("GET /api/v1/admin/orders/{id}/history", adminMiddleware(adminOrderHandler.GetOrderHistory))
	mux.Handle("PATCH /api/v1/admin/orders/{id}/status", adminMiddleware(adminOrderHandler.UpdateStatus))
	mux.Handle("DELETE /api/v1/admin/orders/{id}", adminMiddleware(adminOrderHandler.DeleteOrder))

	// Stats Module
	statsUC := usecase.NewStatsUsecase(statsRepo, memCache, cfg.CacheStatsTTL)
	adminStatsHandler := v1.NewAdminStatsHandler(statsUC)

	mux.Handle("GET /api/v1/admin/stats/kpis", adminMiddleware(adminStatsHandler.GetRevenueKPIs))
	mux.Handle("GET /api/v1/admin/stats/promo-codes", adminMiddleware(adminStatsHandler.GetPromoSummary))
	mux.Handle("GET /api/v1/admin/stats/inventory/low-stock", adminMiddleware(adminStatsHandler.GetLowStockVariants))

	// Metrics
	mux.Handle("GET /metrics", promhttp.Handler())

	// Health Check
	healthHandler := func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := pgxPool.Ping(ctx); err != nil {
			utils.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded", "db": "unreachable"})
			return
		}
		utils.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok", "db": "connected"})
	}
	mux.HandleFunc("GET /api/v1/health", healthHandler)
	mux.HandleFunc("GET /health", healthHandler) // Support root health check for Load Balancers

	addr := fmt.Sprintf(":%s", cfg.Port)

	// Cleanup every minute, TTL 3 minutes
	rateLimiter := middleware.NewRateLimiter(
		context.Background(),
		rate.Limit(cfg.RateLimitRPS),
		cfg.RateLimitBurst,
		time.Minute,
		3*time.Minute,
	)

	// Apply CORS, Request Logger, Rate Limit, and Gzip
	handler := middleware.NewCORSMiddleware(cfg)(mux)
	handler = middleware.RequestLogger(metricsRegistry)(handler)
	handler = rateLimiter.Middleware()(handler)
	handler = gziphandler.GzipHandler(handler)

	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Graceful Shutdown
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("Server failed to start")
		}
	}()

	logger.ServiceStart(serviceName, version, cfg.Port)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("Server shutting down...")

	rateLimiter.Shutdown()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("Server forced to shutdown")
	}

	// Flushes pending async Kafka writes.
	if err := notifier.Close(); err != nil {
		logger.Error().Err(err).Msg("Failed to close order notifier")
	}

	logger.ServiceStop(serviceName)
}
