package service

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"polleria/internal/database"
	"polleria/internal/events"
	"polleria/internal/idempotency"
	"polleria/internal/model"
	"polleria/internal/payment"
	"polleria/internal/repository"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// NotificationTypePayment is the provider topic for payment notifications.
const NotificationTypePayment = "payment"

// paymentService implements PaymentService.
type paymentService struct {
	tx        database.TxRunner
	orderRepo repository.OrderRepository
	provider  PaymentProvider
	publisher events.Publisher
	seen      idempotency.Checker
	tracer    trace.Tracer
	logger    zerolog.Logger
}

// NewPaymentService creates the webhook reconciler. seen may be nil when no
// de-duplication store is configured.
func NewPaymentService(
	tx database.TxRunner,
	orderRepo repository.OrderRepository,
	provider PaymentProvider,
	publisher events.Publisher,
	seen idempotency.Checker,
	logger zerolog.Logger,
) PaymentService {
	if publisher == nil {
		publisher = events.Nop{}
	}
	if seen == nil {
		seen = idempotency.Nop{}
	}
	return &paymentService{
		tx:        tx,
		orderRepo: orderRepo,
		provider:  provider,
		publisher: publisher,
		seen:      seen,
		tracer:    otel.Tracer("polleria/service/payment"),
		logger:    logger.With().Str("service", "payment").Logger(),
	}
}

// HandleWebhook asks the provider for the payment's real status and marks
// the referenced order paid when it was approved. Redeliveries are safe.
func (s *paymentService) HandleWebhook(ctx context.Context, notificationType, paymentID string) (res *WebhookResult, err error) {
	ctx, span := s.tracer.Start(ctx, "PaymentService.HandleWebhook",
		trace.WithAttributes(attribute.String("webhook.type", notificationType), attribute.String("payment.id", paymentID)))
	defer func() { endSpan(span, err) }()

	if notificationType != NotificationTypePayment {
		s.logger.Debug().Str("type", notificationType).Msg("ignoring non-payment notification")
		return &WebhookResult{Handled: false}, nil
	}

	paymentID = strings.TrimSpace(paymentID)
	if paymentID == "" {
		return nil, model.InvalidInput("payment id is required")
	}

	p, err := s.provider.FetchPayment(ctx, paymentID)
	if err != nil {
		s.logger.Error().Err(err).Str("payment_id", paymentID).Msg("failed to fetch payment")
		return nil, err
	}

	log := s.logger.With().
		Str("payment_id", paymentID).
		Str("payment_status", p.Status).
		Str("external_reference", p.ExternalReference).
		Logger()

	if p.Status != payment.StatusApproved {
		log.Info().Msg("payment not approved, nothing to do")
		return &WebhookResult{Handled: false, Status: p.Status}, nil
	}

	orderID, convErr := strconv.ParseInt(strings.TrimSpace(p.ExternalReference), 10, 64)
	if convErr != nil || orderID <= 0 {
		log.Warn().Msg("approved payment has no usable order reference")
		return &WebhookResult{Handled: false, Status: p.Status}, nil
	}

	err = s.tx.InTx(ctx, func(ctx context.Context, tx pgx.Tx) error {
		current, err := s.orderRepo.LockStatus(ctx, tx, orderID)
		if err != nil {
			return err
		}
		if current == model.OrderStatusCancelled {
			log.Warn().Int64("order_id", orderID).Msg("approved payment for a cancelled order, marking paid")
		}
		return s.orderRepo.UpdateStatus(ctx, tx, orderID, model.OrderStatusPaid)
	})
	if err != nil {
		if errors.Is(err, model.ErrOrderNotFound) {
			log.Warn().Int64("order_id", orderID).Msg("approved payment references an unknown order")
			return &WebhookResult{Handled: false, OrderID: orderID, Status: p.Status}, nil
		}
		log.Error().Err(err).Int64("order_id", orderID).Msg("failed to mark order paid")
		return nil, err
	}

	log.Info().Int64("order_id", orderID).Msg("order marked paid")

	dup, err := s.seen.Seen(ctx, idempotency.PaymentKey(paymentID))
	if err != nil {
		log.Warn().Err(err).Msg("idempotency store unavailable, publishing anyway")
	}
	if !dup {
		publish(ctx, s.publisher, s.logger, events.PaymentSuccessEvent(orderID))
	}

	return &WebhookResult{Handled: true, OrderID: orderID, Status: p.Status}, nil
}
