// Package integration drives the HTTP API end to end against a real
// PostgreSQL container and a fake payment provider.
package integration

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"polleria/internal/config"
	"polleria/internal/database"
	"polleria/internal/events"
	"polleria/internal/handler"
	"polleria/internal/idempotency"
	"polleria/internal/middleware"
	"polleria/internal/model"
	"polleria/internal/payment"
	"polleria/internal/repository"
	"polleria/internal/router"
	"polleria/internal/service"
	"polleria/internal/testutil"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

const jwtSecret = "integration-secret"

// TestDB represents a test database instance.
type TestDB struct {
	Pool *pgxpool.Pool
}

// SetupTestDB starts PostgreSQL with the application schema applied.
func SetupTestDB(t *testing.T) *TestDB {
	t.Helper()
	return &TestDB{Pool: testutil.StartPostgres(t)}
}

// CleanupDB cleans all data from test tables.
func CleanupDB(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()

	_, err := pool.Exec(context.Background(),
		"TRUNCATE order_items, orders, reservations, complaints, testimonials, products RESTART IDENTITY CASCADE")
	require.NoError(t, err)
}

// FakeProvider imitates the two payment provider endpoints the API uses.
type FakeProvider struct {
	*httptest.Server

	mu          sync.Mutex
	preferences []map[string]any
	payments    map[string]payment.Payment
	fail        bool
}

func newFakeProvider(t *testing.T) *FakeProvider {
	t.Helper()

	fp := &FakeProvider{payments: make(map[string]payment.Payment)}
	mux := http.NewServeMux()

	mux.HandleFunc("POST /checkout/preferences", func(w http.ResponseWriter, r *http.Request) {
		fp.mu.Lock()
		defer fp.mu.Unlock()

		if fp.fail {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"message":"service unavailable","status":503}`))
			return
		}

		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		fp.preferences = append(fp.preferences, body)

		id := fmt.Sprintf("pref-%d", len(fp.preferences))
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{
			"id":         id,
			"init_point": "https://checkout.example/" + id,
		})
	})

	mux.HandleFunc("GET /v1/payments/{id}", func(w http.ResponseWriter, r *http.Request) {
		fp.mu.Lock()
		defer fp.mu.Unlock()

		p, ok := fp.payments[r.PathValue("id")]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"message":"Payment not found","status":404}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(p)
	})

	fp.Server = httptest.NewServer(mux)
	t.Cleanup(fp.Close)
	return fp
}

// SetPayment registers what GET /v1/payments/{id} answers.
func (fp *FakeProvider) SetPayment(p payment.Payment) {
	fp.mu.Lock()
	defer fp.mu.Unlock()
	fp.payments[fmt.Sprint(p.ID)] = p
}

// SetFailing makes preference creation fail.
func (fp *FakeProvider) SetFailing(fail bool) {
	fp.mu.Lock()
	defer fp.mu.Unlock()
	fp.fail = fail
}

// Preferences returns the preference bodies received so far.
func (fp *FakeProvider) Preferences() []map[string]any {
	fp.mu.Lock()
	defer fp.mu.Unlock()
	return append([]map[string]any(nil), fp.preferences...)
}

// Recorder captures published events.
type Recorder struct {
	mu     sync.Mutex
	events []events.Event
}

func (r *Recorder) Publish(_ context.Context, ev events.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return nil
}

// Named returns the recorded events called name.
func (r *Recorder) Named(name string) []events.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []events.Event
	for _, ev := range r.events {
		if ev.Name == name {
			out = append(out, ev)
		}
	}
	return out
}

// Reset forgets every recorded event.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
}

// memorySeen is an in-process idempotency.Checker.
type memorySeen struct {
	mu   sync.Mutex
	keys map[string]bool
}

func (m *memorySeen) Seen(_ context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.keys[key] {
		return true, nil
	}
	m.keys[key] = true
	return false, nil
}

var _ idempotency.Checker = (*memorySeen)(nil)

// TestServer is the assembled API with its fakes.
type TestServer struct {
	Handler  http.Handler
	Provider *FakeProvider
	Events   *Recorder
	Hub      *events.Hub
	auth     *middleware.Authenticator
}

func setupTestServer(t *testing.T, testDB *TestDB) *TestServer {
	t.Helper()

	logger := zerolog.Nop()
	provider := newFakeProvider(t)

	paymentCfg := config.PaymentConfig{
		AccessToken:          "TEST-token",
		BaseURL:              provider.URL,
		Timeout:              2 * time.Second,
		Currency:             "PEN",
		ExcludedPaymentTypes: []string{"credit_card", "debit_card", "ticket"},
		ProviderLabel:        "Mercado Pago",
		FrontendURL:          "http://localhost:5173",
		APIBaseURL:           "https://api.polleria.example",
	}

	gateway := database.NewGateway(testDB.Pool, logger)
	productRepo := repository.NewProductRepository(testDB.Pool, logger)
	orderRepo := repository.NewOrderRepository(testDB.Pool, logger)
	reservationRepo := repository.NewReservationRepository(testDB.Pool, logger)
	complaintRepo := repository.NewComplaintRepository(testDB.Pool, logger)
	testimonialRepo := repository.NewTestimonialRepository(testDB.Pool, logger)

	hub := events.NewHub(nil, logger)
	recorder := &Recorder{}
	publisher := events.Multi{hub, recorder}

	client := payment.NewClient(paymentCfg, logger)

	orderService := service.NewOrderService(service.OrderDeps{
		Tx:         gateway,
		Orders:     orderRepo,
		Products:   productRepo,
		Provider:   client,
		Publisher:  publisher,
		OrderCfg:   config.OrderConfig{CashTokens: []string{"efectivo", "cash"}},
		PaymentCfg: paymentCfg,
		Logger:     logger,
	})
	paymentService := service.NewPaymentService(gateway, orderRepo, client, publisher,
		&memorySeen{keys: make(map[string]bool)}, logger)
	reservationService, err := service.NewReservationService(reservationRepo, publisher,
		config.ReservationConfig{Timezone: "America/Lima"}, logger)
	require.NoError(t, err)

	auth := middleware.NewAuthenticator(jwtSecret, logger)
	h := router.New(router.Handlers{
		Health:       handler.NewHealthHandler(gateway, logger),
		Product:      handler.NewProductHandler(service.NewProductService(productRepo, logger), logger),
		Order:        handler.NewOrderHandler(orderService, logger),
		Payment:      handler.NewPaymentHandler(orderService, paymentService, logger),
		Reservation:  handler.NewReservationHandler(reservationService, logger),
		Complaint:    handler.NewComplaintHandler(service.NewComplaintService(complaintRepo, publisher, logger), logger),
		Testimonial:  handler.NewTestimonialHandler(service.NewTestimonialService(testimonialRepo, logger), logger),
		Notification: hub,
	}, auth, []string{"http://localhost:5173"}, logger)

	t.Cleanup(hub.Close)

	return &TestServer{Handler: h, Provider: provider, Events: recorder, Hub: hub, auth: auth}
}

// Token returns a bearer header value for u.
func (s *TestServer) Token(t *testing.T, u model.User) string {
	t.Helper()
	token, err := s.auth.Issue(u, time.Hour)
	require.NoError(t, err)
	return "Bearer " + token
}

// Do sends a request through the router.
func (s *TestServer) Do(method, target, body, authorization string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	w := httptest.NewRecorder()
	s.Handler.ServeHTTP(w, req)
	return w
}
