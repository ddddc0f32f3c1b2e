package handler

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"polleria/internal/model"
	"polleria/internal/service"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestPaymentHandler_CreatePreference(t *testing.T) {
	body := `{
		"cart": [{"id": 1, "name": "1/2 Pollo a la brasa", "quantity": 1, "price": 45.80}],
		"deliveryFee": 7.5,
		"deliveryInfo": {"address": "Av. Arequipa 123", "name": "Ana", "email": "ana@example.com", "phone": "999888777"}
	}`

	tests := []struct {
		name           string
		body           string
		mockReturn     *model.PreferenceResponse
		mockError      error
		expectedStatus int
		expectedBody   string
		expectService  bool
	}{
		{
			name:           "Success",
			body:           body,
			mockReturn:     &model.PreferenceResponse{InitPoint: "https://mp.example/checkout?pref=abc", OrderID: 31, PreferenceID: "abc"},
			expectedStatus: http.StatusOK,
			expectedBody:   `{"init_point":"https://mp.example/checkout?pref=abc","orderId":31}`,
			expectService:  true,
		},
		{
			name:           "Empty cart",
			body:           `{"cart": []}`,
			mockError:      model.InvalidInput("cart is required"),
			expectedStatus: http.StatusBadRequest,
			expectService:  true,
		},
		{
			name:           "Provider unavailable",
			body:           body,
			mockError:      model.ProviderUnavailable("payment provider unavailable", errors.New("timeout")),
			expectedStatus: http.StatusInternalServerError,
			expectedBody:   `{"error":"PROVIDER_UNAVAILABLE","message":"internal server error"}`,
			expectService:  true,
		},
		{
			name:           "Invalid JSON",
			body:           `[`,
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			orders := new(MockOrderService)
			h := NewPaymentHandler(orders, new(MockPaymentService), zerolog.Nop())

			if tt.expectService {
				orders.On("PlaceOnlineOrder", mock.Anything, mock.AnythingOfType("*model.PreferenceRequest"), testCustomer).
					Return(tt.mockReturn, tt.mockError)
			}

			w := httptest.NewRecorder()
			h.CreatePreference(w, newRequest(http.MethodPost, "/api/payment/create-preference", tt.body, "", testCustomer))

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedBody != "" {
				assert.JSONEq(t, tt.expectedBody, w.Body.String())
			}
			orders.AssertExpectations(t)
		})
	}
}

func TestPaymentHandler_Webhook(t *testing.T) {
	tests := []struct {
		name           string
		target         string
		body           string
		expectType     string
		expectID       string
		mockReturn     *service.WebhookResult
		mockError      error
		expectedStatus int
		expectService  bool
	}{
		{
			name:           "Query type and data.id",
			target:         "/api/payment/webhook?type=payment&data.id=123",
			expectType:     "payment",
			expectID:       "123",
			mockReturn:     &service.WebhookResult{Handled: true, OrderID: 42, Status: "approved"},
			expectedStatus: http.StatusOK,
			expectService:  true,
		},
		{
			name:           "Legacy topic and id",
			target:         "/api/payment/webhook?topic=payment&id=456",
			expectType:     "payment",
			expectID:       "456",
			mockReturn:     &service.WebhookResult{Handled: false, Status: "rejected"},
			expectedStatus: http.StatusOK,
			expectService:  true,
		},
		{
			name:           "JSON body",
			target:         "/api/payment/webhook",
			body:           `{"type":"payment","data":{"id":"789"}}`,
			expectType:     "payment",
			expectID:       "789",
			mockReturn:     &service.WebhookResult{Handled: true, OrderID: 1, Status: "approved"},
			expectedStatus: http.StatusOK,
			expectService:  true,
		},
		{
			name:           "JSON body with numeric id",
			target:         "/api/payment/webhook",
			body:           `{"type":"payment","data":{"id":789}}`,
			expectType:     "payment",
			expectID:       "789",
			mockReturn:     &service.WebhookResult{Handled: true, OrderID: 1, Status: "approved"},
			expectedStatus: http.StatusOK,
			expectService:  true,
		},
		{
			name:           "Other topic acknowledged",
			target:         "/api/payment/webhook?topic=merchant_order&id=55",
			expectType:     "merchant_order",
			expectID:       "55",
			mockReturn:     &service.WebhookResult{Handled: false},
			expectedStatus: http.StatusOK,
			expectService:  true,
		},
		{
			name:           "Missing id",
			target:         "/api/payment/webhook?type=payment",
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "Missing type and id",
			target:         "/api/payment/webhook",
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "Test ping without id acknowledged",
			target:         "/api/payment/webhook?type=test",
			expectType:     "test",
			mockReturn:     &service.WebhookResult{Handled: false},
			expectedStatus: http.StatusOK,
			expectService:  true,
		},
		{
			name:           "Subscription topic with empty data acknowledged",
			target:         "/api/payment/webhook",
			body:           `{"type":"subscription_preapproval","data":{}}`,
			expectType:     "subscription_preapproval",
			mockReturn:     &service.WebhookResult{Handled: false},
			expectedStatus: http.StatusOK,
			expectService:  true,
		},
		{
			name:           "Provider failure asks for retry",
			target:         "/api/payment/webhook?type=payment&data.id=123",
			expectType:     "payment",
			expectID:       "123",
			mockError:      model.ProviderUnavailable("payment provider unavailable", errors.New("timeout")),
			expectedStatus: http.StatusInternalServerError,
			expectService:  true,
		},
		{
			name:           "Unknown payment asks for retry",
			target:         "/api/payment/webhook?type=payment&data.id=404",
			expectType:     "payment",
			expectID:       "404",
			mockError:      model.ErrPaymentNotFound,
			expectedStatus: http.StatusInternalServerError,
			expectService:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			payments := new(MockPaymentService)
			h := NewPaymentHandler(new(MockOrderService), payments, zerolog.Nop())

			if tt.expectService {
				payments.On("HandleWebhook", mock.Anything, tt.expectType, tt.expectID).Return(tt.mockReturn, tt.mockError)
			}

			w := httptest.NewRecorder()
			h.Webhook(w, newRequest(http.MethodPost, tt.target, tt.body, "", nil))

			assert.Equal(t, tt.expectedStatus, w.Code)
			payments.AssertExpectations(t)
		})
	}
}
