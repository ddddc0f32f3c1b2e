package handler

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"polleria/internal/middleware"
	"polleria/internal/model"
	"polleria/internal/service"

	"github.com/rs/zerolog"
)

// PaymentHandler serves the hosted checkout and provider notifications.
type PaymentHandler struct {
	orders   service.OrderService
	payments service.PaymentService
	logger   zerolog.Logger
}

// NewPaymentHandler creates a new payment handler.
func NewPaymentHandler(orders service.OrderService, payments service.PaymentService, logger zerolog.Logger) *PaymentHandler {
	return &PaymentHandler{
		orders:   orders,
		payments: payments,
		logger:   logger.With().Str("handler", "payment").Logger(),
	}
}

// createPreferenceResponse is the body of a successful checkout.
type createPreferenceResponse struct {
	InitPoint string `json:"init_point"`
	OrderID   int64  `json:"orderId"`
}

// CreatePreference handles POST /api/payment/create-preference requests.
func (h *PaymentHandler) CreatePreference(w http.ResponseWriter, r *http.Request) {
	var req model.PreferenceRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	resp, err := h.orders.PlaceOnlineOrder(r.Context(), &req, middleware.UserFromContext(r.Context()))
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, createPreferenceResponse{InitPoint: resp.InitPoint, OrderID: resp.OrderID})
}

// webhookBody is the JSON form of a provider notification.
type webhookBody struct {
	Type  string `json:"type"`
	Topic string `json:"topic"`
	Data  struct {
		ID json.RawMessage `json:"id"`
	} `json:"data"`
}

// Webhook handles POST /api/payment/webhook. The provider retries anything
// that is not a 2xx, so only failures worth retrying answer 500.
func (h *PaymentHandler) Webhook(w http.ResponseWriter, r *http.Request) {
	notificationType, paymentID := webhookParams(r)
	if paymentID == "" && (notificationType == "" || notificationType == service.NotificationTypePayment) {
		writeError(w, http.StatusBadRequest, model.ErrCodeInvalidInput, "payment id is required", h.logger)
		return
	}

	res, err := h.payments.HandleWebhook(r.Context(), notificationType, paymentID)
	if err != nil {
		if model.CodeOf(err) == model.ErrCodeInvalidInput {
			writeDomainError(w, err, h.logger)
			return
		}
		h.logger.Error().Err(err).Str("payment_id", paymentID).Msg("webhook processing failed")
		writeError(w, http.StatusInternalServerError, model.CodeOf(err), "webhook processing failed", h.logger)
		return
	}

	writeJSON(w, http.StatusOK, res)
}

// webhookParams reads the notification type and payment id from the query
// string, falling back to the JSON body.
func webhookParams(r *http.Request) (string, string) {
	q := r.URL.Query()
	notificationType := firstNonEmpty(q.Get("type"), q.Get("topic"))
	paymentID := firstNonEmpty(q.Get("data.id"), q.Get("id"))

	if notificationType != "" && paymentID != "" {
		return notificationType, paymentID
	}

	var body webhookBody
	if r.Body != nil {
		raw, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
		if err == nil && len(raw) > 0 && json.Unmarshal(raw, &body) == nil {
			notificationType = firstNonEmpty(notificationType, body.Type, body.Topic)
			paymentID = firstNonEmpty(paymentID, strings.Trim(string(body.Data.ID), `" `))
		}
	}
	return notificationType, paymentID
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" && v != "null" {
			return v
		}
	}
	return ""
}
