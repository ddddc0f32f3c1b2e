package service

import (
	"context"

	"polleria/internal/model"
	"polleria/internal/payment"
)

// ProductService defines operations for the menu.
type ProductService interface {
	// GetAll retrieves all products with pagination.
	GetAll(ctx context.Context, limit, offset int) ([]model.Product, error)

	// GetByID retrieves a single product by ID.
	GetByID(ctx context.Context, id int64) (*model.Product, error)

	// ListAvailable retrieves the products currently on the menu.
	ListAvailable(ctx context.Context, limit, offset int) ([]model.Product, error)

	// Categories lists the distinct menu categories.
	Categories(ctx context.Context) ([]string, error)

	Create(ctx context.Context, req *model.ProductRequest) (*model.Product, error)
	Update(ctx context.Context, id int64, req *model.ProductRequest) (*model.Product, error)
	Delete(ctx context.Context, id int64) error
}

// OrderService defines the order workflow.
type OrderService interface {
	// PlaceOrder records a direct order. Cash orders start as pending_cash,
	// anything else as pending_payment. user may be nil.
	PlaceOrder(ctx context.Context, req *model.OrderRequest, user *model.User) (*model.OrderResponse, error)

	// PlaceOnlineOrder records an order and creates a hosted checkout for it
	// in one transaction.
	PlaceOnlineOrder(ctx context.Context, req *model.PreferenceRequest, user *model.User) (*model.PreferenceResponse, error)

	// UpdateStatus moves an order to status if the transition is allowed.
	UpdateStatus(ctx context.Context, orderID int64, status model.OrderStatus) error

	// GetByID returns an order with its items. Only the owner or staff may read it.
	GetByID(ctx context.Context, orderID int64, user *model.User) (*model.OrderDetails, error)

	// ListForUser lists the orders of one customer.
	ListForUser(ctx context.Context, userID int64) ([]model.OrderSummary, error)

	// ListAll lists every order.
	ListAll(ctx context.Context, limit, offset int) ([]model.OrderSummary, error)
}

// WebhookResult describes what a provider notification caused.
type WebhookResult struct {
	Handled bool   `json:"handled"`
	OrderID int64  `json:"orderId,omitempty"`
	Status  string `json:"status,omitempty"`
}

// PaymentService reconciles order state with provider notifications.
type PaymentService interface {
	HandleWebhook(ctx context.Context, notificationType, paymentID string) (*WebhookResult, error)
}

// ReservationService defines table booking operations.
type ReservationService interface {
	Create(ctx context.Context, req *model.ReservationRequest, user *model.User) (*model.Reservation, error)
	// GetByID returns a reservation to its owner or to staff.
	GetByID(ctx context.Context, id int64, user *model.User) (*model.Reservation, error)
	ListForUser(ctx context.Context, userID int64) ([]model.Reservation, error)
	ListAll(ctx context.Context, limit, offset int) ([]model.Reservation, error)
	UpdateStatus(ctx context.Context, id int64, status model.ReservationStatus) error
}

// ComplaintService defines complaints book operations.
type ComplaintService interface {
	Create(ctx context.Context, req *model.ComplaintRequest) (*model.Complaint, error)
	GetByID(ctx context.Context, id int64) (*model.Complaint, error)
	ListAll(ctx context.Context, limit, offset int) ([]model.Complaint, error)
	UpdateStatus(ctx context.Context, id int64, status model.ComplaintStatus) error
}

// TestimonialService defines customer review operations.
type TestimonialService interface {
	// Create stores a review. user may be nil.
	Create(ctx context.Context, req *model.TestimonialRequest, user *model.User) (*model.Testimonial, error)

	// ListFeatured returns the newest well-rated reviews for the landing page.
	ListFeatured(ctx context.Context) ([]model.Testimonial, error)
}

// PaymentProvider is the hosted checkout the order workflow relies on.
type PaymentProvider interface {
	CreatePreference(ctx context.Context, req payment.PreferenceRequest) (*payment.Preference, error)
	FetchPayment(ctx context.Context, paymentID string) (*payment.Payment, error)
}
