package model

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

func init() {
	// Totals travel as JSON numbers, matching what the storefront sends.
	decimal.MarshalJSONWithoutQuotes = true
}

// OrderStatus is the lifecycle state of an order.
type OrderStatus string

const (
	OrderStatusPendingCash    OrderStatus = "pending_cash"
	OrderStatusPendingPayment OrderStatus = "pending_payment"
	OrderStatusPaid           OrderStatus = "paid"
	OrderStatusCancelled      OrderStatus = "cancelled"
)

// Valid reports whether s is a known order status.
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPendingCash, OrderStatusPendingPayment, OrderStatusPaid, OrderStatusCancelled:
		return true
	}
	return false
}

// CanTransitionTo reports whether an order in status s may move to next.
// Re-applying the current status is always allowed so that repeated
// confirmations are no-ops.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	if !next.Valid() {
		return false
	}
	if s == next {
		return true
	}
	switch s {
	case OrderStatusPendingCash, OrderStatusPendingPayment:
		return next == OrderStatusPaid || next == OrderStatusCancelled
	}
	return false
}

// Order represents a customer order.
type Order struct {
	ID              int64           `json:"id" db:"id"`
	UserID          *int64          `json:"userId,omitempty" db:"user_id"`
	TotalAmount     decimal.Decimal `json:"totalAmount" db:"total_amount"`
	PaymentMethod   string          `json:"paymentMethod" db:"payment_method"`
	DeliveryAddress string          `json:"deliveryAddress" db:"delivery_address"`
	CustomerName    string          `json:"customerName" db:"customer_name"`
	CustomerEmail   string          `json:"customerEmail" db:"customer_email"`
	CustomerPhone   string          `json:"customerPhone" db:"customer_phone"`
	Status          OrderStatus     `json:"status" db:"status"`
	PreferenceID    *string         `json:"preferenceId,omitempty" db:"mp_preference_id"`
	CreatedAt       time.Time       `json:"createdAt" db:"created_at"`
	UpdatedAt       time.Time       `json:"updatedAt" db:"updated_at"`
}

// OrderItem represents a line item in an order. Price is the unit price
// captured when the order was placed.
type OrderItem struct {
	ID        int64           `json:"-" db:"id"`
	OrderID   int64           `json:"-" db:"order_id"`
	ProductID int64           `json:"productId" db:"product_id"`
	Name      string          `json:"name,omitempty"`
	Quantity  int             `json:"quantity" db:"quantity"`
	Price     decimal.Decimal `json:"price" db:"price"`
}

// OrderSummary is a row of an order listing.
type OrderSummary struct {
	ID           int64           `json:"id"`
	TotalAmount  decimal.Decimal `json:"totalAmount"`
	Status       OrderStatus     `json:"status"`
	CustomerName string          `json:"customerName,omitempty"`
	ItemsCount   int             `json:"itemsCount"`
	ItemsSummary string          `json:"itemsSummary,omitempty"`
	CreatedAt    time.Time       `json:"createdAt"`
}

// OrderDetails is an order together with its line items.
type OrderDetails struct {
	Order
	Items []OrderItem `json:"items"`
}

// DeliveryInfo is where and to whom an order is delivered.
type DeliveryInfo struct {
	Address string `json:"address"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
}

// Complete reports whether every delivery field is present.
func (d *DeliveryInfo) Complete() bool {
	return d != nil &&
		strings.TrimSpace(d.Address) != "" &&
		strings.TrimSpace(d.Name) != "" &&
		strings.TrimSpace(d.Email) != "" &&
		strings.TrimSpace(d.Phone) != ""
}

// CartItem is one line of a checkout request.
type CartItem struct {
	ID       int64           `json:"id"`
	Name     string          `json:"name"`
	Quantity int             `json:"quantity"`
	Price    decimal.Decimal `json:"price"`
}

// OrderRequest represents the request payload for a direct (cash) order.
type OrderRequest struct {
	Items         []CartItem       `json:"items"`
	Total         *decimal.Decimal `json:"total"`
	PaymentMethod string           `json:"paymentMethod"`
	DeliveryInfo  *DeliveryInfo    `json:"deliveryInfo"`
}

// OrderResponse is returned after a direct order is placed.
type OrderResponse struct {
	Message string      `json:"message"`
	OrderID int64       `json:"orderId"`
	Status  OrderStatus `json:"status"`
}

// PreferenceRequest represents the request payload for an online checkout.
type PreferenceRequest struct {
	Cart         []CartItem       `json:"cart"`
	DeliveryFee  *decimal.Decimal `json:"deliveryFee"`
	DeliveryInfo *DeliveryInfo    `json:"deliveryInfo"`
}

// PreferenceResponse carries the hosted checkout URL for the payer.
type PreferenceResponse struct {
	InitPoint    string `json:"init_point"`
	OrderID      int64  `json:"orderId"`
	PreferenceID string `json:"preferenceId"`
}

// StatusUpdateRequest is the body of a staff status change.
type StatusUpdateRequest struct {
	Status string `json:"status"`
}

// Subtotal returns Σ price × quantity.
func Subtotal(items []CartItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	return total
}
