package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"polleria/internal/config"
	"polleria/internal/database"
	"polleria/internal/events"
	"polleria/internal/model"
	"polleria/internal/payment"
	"polleria/internal/repository"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const orderCreatedMessage = "Pedido creado exitosamente"

// OrderDeps groups the collaborators of the order workflow.
type OrderDeps struct {
	Tx         database.TxRunner
	Orders     repository.OrderRepository
	Products   repository.ProductRepository
	Provider   PaymentProvider
	Publisher  events.Publisher
	OrderCfg   config.OrderConfig
	PaymentCfg config.PaymentConfig
	Logger     zerolog.Logger
}

// orderService implements OrderService.
type orderService struct {
	tx          database.TxRunner
	orderRepo   repository.OrderRepository
	productRepo repository.ProductRepository
	provider    PaymentProvider
	publisher   events.Publisher
	cashTokens  []string
	paymentCfg  config.PaymentConfig
	tracer      trace.Tracer
	logger      zerolog.Logger
}

// NewOrderService creates a new order service.
func NewOrderService(deps OrderDeps) OrderService {
	tokens := make([]string, 0, len(deps.OrderCfg.CashTokens))
	for _, t := range deps.OrderCfg.CashTokens {
		if t = strings.ToLower(strings.TrimSpace(t)); t != "" {
			tokens = append(tokens, t)
		}
	}

	publisher := deps.Publisher
	if publisher == nil {
		publisher = events.Nop{}
	}

	return &orderService{
		tx:          deps.Tx,
		orderRepo:   deps.Orders,
		productRepo: deps.Products,
		provider:    deps.Provider,
		publisher:   publisher,
		cashTokens:  tokens,
		paymentCfg:  deps.PaymentCfg,
		tracer:      otel.Tracer("polleria/service/order"),
		logger:      deps.Logger.With().Str("service", "order").Logger(),
	}
}

// PlaceOrder records a direct order and its items atomically.
func (s *orderService) PlaceOrder(ctx context.Context, req *model.OrderRequest, user *model.User) (resp *model.OrderResponse, err error) {
	ctx, span := s.tracer.Start(ctx, "OrderService.PlaceOrder")
	defer func() { endSpan(span, err) }()

	if err := s.validateOrderRequest(req); err != nil {
		return nil, err
	}

	if err := s.productRepo.ValidateProductsExist(ctx, cartProductIDs(req.Items)); err != nil {
		s.logger.Warn().
			Int("product_count", len(req.Items)).
			Err(err).
			Msg("product validation failed")
		return nil, err
	}

	status := s.classify(req.PaymentMethod)
	order := newOrder(user, req.DeliveryInfo, req.Total.Round(2), strings.TrimSpace(req.PaymentMethod), status)
	items := orderItems(req.Items)

	err = s.tx.InTx(ctx, func(ctx context.Context, tx pgx.Tx) error {
		if err := s.orderRepo.CreateOrder(ctx, tx, order); err != nil {
			return err
		}
		return s.orderRepo.CreateOrderItems(ctx, tx, order.ID, items)
	})
	if err != nil {
		s.logger.Error().Err(err).Int("item_count", len(items)).Msg("failed to place order")
		return nil, asPersistenceFailure("failed to create order", err)
	}

	span.SetAttributes(attribute.Int64("order.id", order.ID), attribute.String("order.status", string(status)))

	s.logger.Info().
		Int64("order_id", order.ID).
		Str("status", string(status)).
		Int("item_count", len(items)).
		Msg("order created successfully")

	s.publishNewOrder(ctx, order, req.Items)

	return &model.OrderResponse{
		Message: orderCreatedMessage,
		OrderID: order.ID,
		Status:  status,
	}, nil
}

// PlaceOnlineOrder records an order, creates its hosted checkout and stores
// the preference id. A provider failure rolls the order back.
func (s *orderService) PlaceOnlineOrder(ctx context.Context, req *model.PreferenceRequest, user *model.User) (resp *model.PreferenceResponse, err error) {
	ctx, span := s.tracer.Start(ctx, "OrderService.PlaceOnlineOrder")
	defer func() { endSpan(span, err) }()

	if err := validatePreferenceRequest(req); err != nil {
		return nil, err
	}

	catalog, err := s.productRepo.GetByIDs(ctx, cartProductIDs(req.Cart))
	if err != nil {
		s.logger.Warn().Err(err).Msg("product validation failed")
		return nil, err
	}
	cart := priceCart(req.Cart, catalog)

	fee := decimal.Zero
	if req.DeliveryFee != nil {
		fee = *req.DeliveryFee
	}
	total := model.Subtotal(cart).Add(fee).Round(2)

	order := newOrder(user, req.DeliveryInfo, total, s.paymentCfg.ProviderLabel, model.OrderStatusPendingPayment)
	items := orderItems(cart)

	var pref *payment.Preference
	err = s.tx.InTx(ctx, func(ctx context.Context, tx pgx.Tx) error {
		if err := s.orderRepo.CreateOrder(ctx, tx, order); err != nil {
			return err
		}
		if err := s.orderRepo.CreateOrderItems(ctx, tx, order.ID, items); err != nil {
			return err
		}

		var err error
		pref, err = s.provider.CreatePreference(ctx, s.preferenceFor(order, cart, req.DeliveryInfo, fee, user))
		if err != nil {
			return err
		}

		return s.orderRepo.SetPreferenceID(ctx, tx, order.ID, pref.ID)
	})
	if err != nil {
		s.logger.Error().Err(err).Str("code", model.CodeOf(err)).Msg("failed to place online order")
		if model.CodeOf(err) == model.ErrCodeProviderUnavailable {
			return nil, err
		}
		return nil, asPersistenceFailure("failed to create order", err)
	}

	span.SetAttributes(attribute.Int64("order.id", order.ID), attribute.String("preference.id", pref.ID))

	s.logger.Info().
		Int64("order_id", order.ID).
		Str("preference_id", pref.ID).
		Str("total", total.StringFixed(2)).
		Msg("online order created")

	s.publishNewOrder(ctx, order, cart)

	return &model.PreferenceResponse{
		InitPoint:    pref.InitPoint,
		OrderID:      order.ID,
		PreferenceID: pref.ID,
	}, nil
}

// UpdateStatus locks the order row, checks the transition and applies it.
func (s *orderService) UpdateStatus(ctx context.Context, orderID int64, status model.OrderStatus) (err error) {
	ctx, span := s.tracer.Start(ctx, "OrderService.UpdateStatus",
		trace.WithAttributes(attribute.Int64("order.id", orderID), attribute.String("order.status", string(status))))
	defer func() { endSpan(span, err) }()

	if !status.Valid() {
		return model.ErrInvalidStatus
	}

	err = s.tx.InTx(ctx, func(ctx context.Context, tx pgx.Tx) error {
		current, err := s.orderRepo.LockStatus(ctx, tx, orderID)
		if err != nil {
			return err
		}
		if !current.CanTransitionTo(status) {
			s.logger.Warn().
				Int64("order_id", orderID).
				Str("from", string(current)).
				Str("to", string(status)).
				Msg("rejected status transition")
			return model.ErrInvalidTransition
		}
		return s.orderRepo.UpdateStatus(ctx, tx, orderID, status)
	})
	if err != nil {
		return err
	}

	s.logger.Info().Int64("order_id", orderID).Str("status", string(status)).Msg("order status updated")
	publish(ctx, s.publisher, s.logger, events.StatusUpdateEvent(events.EntityTypeOrder, orderID, string(status)))

	return nil
}

// GetByID returns an order with its items for its owner or staff.
func (s *orderService) GetByID(ctx context.Context, orderID int64, user *model.User) (*model.OrderDetails, error) {
	order, items, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		if !errors.Is(err, model.ErrOrderNotFound) {
			s.logger.Error().Err(err).Int64("order_id", orderID).Msg("failed to get order")
		}
		return nil, err
	}

	if !canRead(user, order.UserID) {
		return nil, model.ErrForbidden
	}

	return &model.OrderDetails{Order: *order, Items: items}, nil
}

// ListForUser lists the orders of one customer.
func (s *orderService) ListForUser(ctx context.Context, userID int64) ([]model.OrderSummary, error) {
	orders, err := s.orderRepo.ListByUser(ctx, userID)
	if err != nil {
		s.logger.Error().Err(err).Int64("user_id", userID).Msg("failed to list user orders")
		return nil, err
	}
	return orders, nil
}

// ListAll lists every order.
func (s *orderService) ListAll(ctx context.Context, limit, offset int) ([]model.OrderSummary, error) {
	limit, offset = normalisePage(limit, offset)
	orders, err := s.orderRepo.ListAll(ctx, limit, offset)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to list orders")
		return nil, err
	}
	return orders, nil
}

// classify reports pending_cash when the payment method names a cash token.
func (s *orderService) classify(method string) model.OrderStatus {
	m := strings.ToLower(method)
	for _, token := range s.cashTokens {
		if strings.Contains(m, token) {
			return model.OrderStatusPendingCash
		}
	}
	return model.OrderStatusPendingPayment
}

func (s *orderService) preferenceFor(order *model.Order, cart []model.CartItem, info *model.DeliveryInfo, fee decimal.Decimal, user *model.User) payment.PreferenceRequest {
	ref := strconv.FormatInt(order.ID, 10)
	back := s.paymentCfg.FrontendURL + "/checkout/%s?order_id=" + ref

	items := make([]payment.Item, len(cart))
	for i, it := range cart {
		items[i] = payment.Item{
			ID:        strconv.FormatInt(it.ID, 10),
			Title:     it.Name,
			Quantity:  it.Quantity,
			UnitPrice: it.Price,
		}
	}

	payer := payment.Payer{Name: info.Name, Email: info.Email}
	if user != nil && user.Email != "" {
		payer = payment.Payer{Name: user.Name, Email: user.Email}
	}

	return payment.PreferenceRequest{
		Items:        items,
		ShippingCost: fee,
		Payer:        payer,
		BackURLs: payment.BackURLs{
			Success: fmt.Sprintf(back, "success"),
			Failure: fmt.Sprintf(back, "failure"),
			Pending: fmt.Sprintf(back, "pending"),
		},
		NotificationURL:   s.paymentCfg.APIBaseURL + "/api/payment/webhook",
		ExternalReference: ref,
	}
}

func (s *orderService) publishNewOrder(ctx context.Context, order *model.Order, cart []model.CartItem) {
	lines := make([]string, len(cart))
	for i, item := range cart {
		lines[i] = fmt.Sprintf("%dx %s", item.Quantity, item.Name)
	}
	total := order.TotalAmount

	publish(ctx, s.publisher, s.logger, events.NewNotificationEvent(events.NewNotification{
		EntityID:     order.ID,
		EntityType:   events.EntityTypeOrder,
		Type:         events.NotificationOrder,
		Title:        fmt.Sprintf("Nuevo Pedido #%d", order.ID),
		Message:      strings.Join(lines, ", "),
		CustomerName: order.CustomerName,
		Status:       string(order.Status),
		TotalAmount:  &total,
	}))
}

// validateOrderRequest validates the order request.
func (s *orderService) validateOrderRequest(req *model.OrderRequest) error {
	if req == nil {
		return model.InvalidInput("order request is required")
	}

	if err := validateCart(req.Items); err != nil {
		return err
	}

	if req.Total == nil || !req.Total.IsPositive() {
		return model.InvalidInput("total must be greater than zero")
	}

	// Anything above the item sum is the delivery charge.
	if req.Total.Round(2).LessThan(model.Subtotal(req.Items).Round(2)) {
		return model.ErrInvalidTotal
	}

	if strings.TrimSpace(req.PaymentMethod) == "" {
		return model.InvalidInput("payment method is required")
	}

	if !req.DeliveryInfo.Complete() {
		return model.InvalidInput("delivery information is incomplete")
	}

	return nil
}

func validatePreferenceRequest(req *model.PreferenceRequest) error {
	if req == nil {
		return model.InvalidInput("checkout request is required")
	}

	if err := validateCart(req.Cart); err != nil {
		return err
	}

	if req.DeliveryFee != nil && req.DeliveryFee.IsNegative() {
		return model.InvalidInput("delivery fee cannot be negative")
	}

	if !req.DeliveryInfo.Complete() {
		return model.InvalidInput("delivery information is incomplete")
	}

	return nil
}

func validateCart(items []model.CartItem) error {
	if len(items) == 0 {
		return model.InvalidInput("order must contain at least one item")
	}

	for i, item := range items {
		if item.ID <= 0 {
			return model.InvalidInput(fmt.Sprintf("item %d: product ID is required", i))
		}
		if item.Quantity <= 0 {
			return model.ErrInvalidQuantity
		}
		if item.Price.IsNegative() {
			return model.InvalidInput(fmt.Sprintf("item %d: price cannot be negative", i))
		}
	}

	return nil
}

func newOrder(user *model.User, info *model.DeliveryInfo, total decimal.Decimal, method string, status model.OrderStatus) *model.Order {
	order := &model.Order{
		TotalAmount:     total,
		PaymentMethod:   method,
		DeliveryAddress: strings.TrimSpace(info.Address),
		CustomerName:    strings.TrimSpace(info.Name),
		CustomerEmail:   strings.TrimSpace(info.Email),
		CustomerPhone:   strings.TrimSpace(info.Phone),
		Status:          status,
	}
	if user != nil {
		id := user.ID
		order.UserID = &id
	}
	return order
}

func orderItems(cart []model.CartItem) []model.OrderItem {
	items := make([]model.OrderItem, len(cart))
	for i, c := range cart {
		items[i] = model.OrderItem{
			ProductID: c.ID,
			Name:      c.Name,
			Quantity:  c.Quantity,
			Price:     c.Price,
		}
	}
	return items
}

// priceCart returns a copy of cart with unit prices, and missing names,
// taken from the catalog.
func priceCart(cart []model.CartItem, catalog map[int64]model.Product) []model.CartItem {
	out := make([]model.CartItem, len(cart))
	for i, item := range cart {
		p := catalog[item.ID]
		item.Price = p.Price
		if strings.TrimSpace(item.Name) == "" {
			item.Name = p.Name
		}
		out[i] = item
	}
	return out
}

func cartProductIDs(cart []model.CartItem) []int64 {
	ids := make([]int64, len(cart))
	for i, c := range cart {
		ids[i] = c.ID
	}
	return ids
}

func canRead(user *model.User, owner *int64) bool {
	if user == nil {
		return false
	}
	if user.IsStaff() {
		return true
	}
	return owner != nil && *owner == user.ID
}

// asPersistenceFailure keeps classified errors and wraps anything else.
func asPersistenceFailure(msg string, err error) error {
	var de *model.DomainError
	if errors.As(err, &de) {
		return err
	}
	return model.PersistenceFailure(msg, err)
}

// publish delivers ev and only logs a failure.
func publish(ctx context.Context, p events.Publisher, logger zerolog.Logger, ev events.Event) {
	if err := p.Publish(ctx, ev); err != nil {
		logger.Warn().Err(err).Str("event", ev.Name).Msg("failed to publish event")
	}
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, model.CodeOf(err))
	}
	span.End()
}
