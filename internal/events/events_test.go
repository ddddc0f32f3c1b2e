package events

import (
	"context"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockPublisher is a mock implementation of Publisher.
type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, ev Event) error {
	args := m.Called(ctx, ev)
	return args.Error(0)
}

func TestNewNotificationEvent(t *testing.T) {
	total := decimal.RequireFromString("47.80")
	ev := NewNotificationEvent(NewNotification{
		EntityID:     12,
		EntityType:   EntityTypeOrder,
		Type:         NotificationOrder,
		Title:        "Nuevo Pedido #12",
		CustomerName: "Rosa",
		Status:       "pending_cash",
		TotalAmount:  &total,
		IsRead:       true,
	})

	assert.Equal(t, NameNewNotification, ev.Name)
	assert.Equal(t, "order:12", ev.Key)

	n := ev.Payload.(NewNotification)
	assert.True(t, strings.HasPrefix(n.ID, "order-12-"))
	assert.False(t, n.IsRead)
	assert.False(t, n.CreatedAt.IsZero())

	other := NewNotificationEvent(NewNotification{EntityID: 12, EntityType: EntityTypeOrder})
	assert.NotEqual(t, n.ID, other.Payload.(NewNotification).ID)
}

func TestStatusAndPaymentEvents(t *testing.T) {
	ev := StatusUpdateEvent(EntityTypeReservation, 5, "confirmed")
	assert.Equal(t, NameStatusUpdate, ev.Name)
	assert.Equal(t, StatusUpdate{EntityID: 5, EntityType: "reservation", Status: "confirmed"}, ev.Payload)

	ev = PaymentSuccessEvent(9)
	assert.Equal(t, NamePaymentSuccess, ev.Name)
	assert.Equal(t, PaymentSuccess{OrderID: 9}, ev.Payload)
}

func TestMulti_Publish(t *testing.T) {
	ctx := context.Background()
	ev := PaymentSuccessEvent(1)

	ok := new(MockPublisher)
	ok.On("Publish", ctx, ev).Return(nil)
	failing := new(MockPublisher)
	failing.On("Publish", ctx, ev).Return(errors.New("broker down"))

	err := Multi{failing, ok, Nop{}}.Publish(ctx, ev)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "broker down")
	ok.AssertExpectations(t)
	failing.AssertExpectations(t)

	assert.NoError(t, Multi{ok}.Publish(ctx, ev))
}

func TestHub_DeliversToConnectedClients(t *testing.T) {
	hub := NewHub(nil, zerolog.Nop())
	server := httptest.NewServer(hub)
	defer server.Close()
	defer hub.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 10*time.Millisecond)

	require.NoError(t, hub.Publish(context.Background(), PaymentSuccessEvent(42)))

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)

	var got struct {
		Event string          `json:"event"`
		Data  json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(msg, &got))
	assert.Equal(t, NamePaymentSuccess, got.Event)
	assert.JSONEq(t, `{"orderId":42}`, string(got.Data))

	conn.Close()
	require.Eventually(t, func() bool { return hub.ClientCount() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestHub_RejectsUnknownOrigin(t *testing.T) {
	hub := NewHub([]string{"http://allowed.example"}, zerolog.Nop())
	server := httptest.NewServer(hub)
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http")
	header := map[string][]string{"Origin": {"http://evil.example"}}
	_, _, err := websocket.DefaultDialer.Dial(wsURL, header)

	require.Error(t, err)
	assert.Equal(t, 0, hub.ClientCount())
}

func TestHub_DropsForSlowClient(t *testing.T) {
	hub := NewHub(nil, zerolog.Nop())

	// A client nobody drains: its buffer fills up and further messages are dropped.
	slow := &client{send: make(chan []byte, 2)}
	hub.register(slow)

	done := make(chan struct{})
	go func() {
		for i := 0; i < 10; i++ {
			_ = hub.Publish(context.Background(), PaymentSuccessEvent(int64(i)))
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish blocked on a slow client")
	}

	assert.Len(t, slow.send, 2)

	hub.Close()
	assert.Equal(t, 0, hub.ClientCount())
	_, open := <-slow.send
	assert.True(t, open, "buffered messages remain readable after close")
}

type fakeWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func (f *fakeWriter) Close() error {
	f.closed = true
	return nil
}

func TestKafkaPublisher_Publish(t *testing.T) {
	w := &fakeWriter{}
	p := newKafkaPublisher(w, zerolog.Nop())

	require.NoError(t, p.Publish(context.Background(), StatusUpdateEvent(EntityTypeOrder, 3, "paid")))

	require.Len(t, w.msgs, 1)
	msg := w.msgs[0]
	assert.Equal(t, "order:3", string(msg.Key))
	assert.JSONEq(t, `{"entityId":3,"entityType":"order","status":"paid"}`, string(msg.Value))
	require.NotEmpty(t, msg.Headers)
	assert.Equal(t, "event", msg.Headers[0].Key)
	assert.Equal(t, NameStatusUpdate, string(msg.Headers[0].Value))

	require.NoError(t, p.Close())
	assert.True(t, w.closed)
}

func TestKafkaPublisher_PublishError(t *testing.T) {
	w := &fakeWriter{err: errors.New("queue full")}
	p := newKafkaPublisher(w, zerolog.Nop())

	err := p.Publish(context.Background(), PaymentSuccessEvent(1))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "queue full")
}
