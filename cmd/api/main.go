package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"polleria/internal/config"
	"polleria/internal/database"
	"polleria/internal/events"
	"polleria/internal/handler"
	"polleria/internal/idempotency"
	"polleria/internal/middleware"
	"polleria/internal/payment"
	"polleria/internal/repository"
	"polleria/internal/router"
	"polleria/internal/service"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Initialize logger
	logger := config.NewLogger(cfg.Logger, "polleria-api")
	logger.Info().Msg("starting polleria API server")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize database connection pool
	pool, err := database.NewPool(ctx, cfg.Database, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer pool.Close()

	if err := database.Migrate(ctx, pool, logger); err != nil {
		return err
	}
	gateway := database.NewGateway(pool, logger)

	// Initialize repositories
	productRepo := repository.NewProductRepository(pool, logger)
	orderRepo := repository.NewOrderRepository(pool, logger)
	reservationRepo := repository.NewReservationRepository(pool, logger)
	complaintRepo := repository.NewComplaintRepository(pool, logger)
	testimonialRepo := repository.NewTestimonialRepository(pool, logger)

	// Notifications: websocket hub, mirrored to Kafka when enabled
	hub := events.NewHub(cfg.CORS.AllowedOrigins, logger)
	publisher := events.Multi{hub}
	if cfg.Events.KafkaEnabled {
		kp := events.NewKafkaPublisher(cfg.Events, logger)
		defer func() {
			if err := kp.Close(); err != nil {
				logger.Error().Err(err).Msg("failed to close Kafka publisher")
			}
		}()
		publisher = append(publisher, kp)
		logger.Info().Strs("brokers", cfg.Events.KafkaBrokers).Msg("mirroring notifications to Kafka")
	}

	seen, closeSeen := newWebhookDedup(ctx, cfg.Redis, logger)
	defer closeSeen()

	provider := payment.NewClient(cfg.Payment, logger)

	// Initialize services
	productService := service.NewProductService(productRepo, logger)
	orderService := service.NewOrderService(service.OrderDeps{
		Tx:         gateway,
		Orders:     orderRepo,
		Products:   productRepo,
		Provider:   provider,
		Publisher:  publisher,
		OrderCfg:   cfg.Order,
		PaymentCfg: cfg.Payment,
		Logger:     logger,
	})
	paymentService := service.NewPaymentService(gateway, orderRepo, provider, publisher, seen, logger)
	reservationService, err := service.NewReservationService(reservationRepo, publisher, cfg.Reservation, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize reservation service: %w", err)
	}
	complaintService := service.NewComplaintService(complaintRepo, publisher, logger)
	testimonialService := service.NewTestimonialService(testimonialRepo, logger)

	// Initialize HTTP handlers and router
	mux := router.New(router.Handlers{
		Health:       handler.NewHealthHandler(gateway, logger),
		Product:      handler.NewProductHandler(productService, logger),
		Order:        handler.NewOrderHandler(orderService, logger),
		Payment:      handler.NewPaymentHandler(orderService, paymentService, logger),
		Reservation:  handler.NewReservationHandler(reservationService, logger),
		Complaint:    handler.NewComplaintHandler(complaintService, logger),
		Testimonial:  handler.NewTestimonialHandler(testimonialService, logger),
		Notification: hub,
	}, middleware.NewAuthenticator(cfg.Auth.JWTSecret, logger), cfg.CORS.AllowedOrigins, logger)

	server := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info().Str("address", cfg.Server.Address()).Msg("HTTP server started")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		return hub.Run(gctx)
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info().Msg("shutdown signal received, starting graceful shutdown")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("failed to shutdown server gracefully")
			if closeErr := server.Close(); closeErr != nil {
				logger.Error().Err(closeErr).Msg("failed to close server")
			}
			return fmt.Errorf("server shutdown failed: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}

	logger.Info().Msg("server shutdown completed")
	return nil
}

// newWebhookDedup connects the Redis de-duplication store when enabled.
// An unreachable Redis is not fatal: notifications are then published on
// every redelivery.
func newWebhookDedup(ctx context.Context, cfg config.RedisConfig, logger zerolog.Logger) (idempotency.Checker, func()) {
	if !cfg.Enabled {
		logger.Info().Msg("webhook de-duplication disabled")
		return idempotency.Nop{}, func() {}
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		logger.Warn().Err(err).Str("addr", cfg.Addr).Msg("Redis unreachable, de-duplication will fail open")
	}

	return idempotency.NewStore(rdb, cfg.DedupTTL), func() {
		if err := rdb.Close(); err != nil {
			logger.Error().Err(err).Msg("failed to close Redis client")
		}
	}
}
