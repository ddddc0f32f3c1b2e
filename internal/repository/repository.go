package repository

import (
	"context"

	"polleria/internal/database"
	"polleria/internal/model"
)

// ProductRepository defines the interface for product data access operations.
type ProductRepository interface {
	// GetAll retrieves all products with pagination support.
	GetAll(ctx context.Context, limit, offset int) ([]model.Product, error)

	// GetByID retrieves a single product by its ID.
	GetByID(ctx context.Context, id int64) (*model.Product, error)

	// ValidateProductsExist checks if all provided product IDs exist in the database.
	// Returns model.ErrProductNotFound if any product ID does not exist.
	ValidateProductsExist(ctx context.Context, ids []int64) error

	// GetByIDs loads the listed products keyed by id. Returns
	// model.ErrProductNotFound if any of them does not exist.
	GetByIDs(ctx context.Context, ids []int64) (map[int64]model.Product, error)

	// ListAvailable retrieves the products currently on the menu.
	ListAvailable(ctx context.Context, limit, offset int) ([]model.Product, error)

	// Categories lists the distinct product categories.
	Categories(ctx context.Context) ([]string, error)

	Create(ctx context.Context, p *model.Product) error
	Update(ctx context.Context, p *model.Product) error
	Delete(ctx context.Context, id int64) error
}

// OrderRepository defines the interface for order data access operations.
// Write methods take the Querier they run on, normally a transaction
// obtained from database.Gateway.InTx.
type OrderRepository interface {
	// CreateOrder inserts the order header and sets order.ID.
	CreateOrder(ctx context.Context, q database.Querier, order *model.Order) error

	// CreateOrderItems inserts all line items of one order in a single batch.
	CreateOrderItems(ctx context.Context, q database.Querier, orderID int64, items []model.OrderItem) error

	// SetPreferenceID records the payment provider preference on the order.
	SetPreferenceID(ctx context.Context, q database.Querier, orderID int64, preferenceID string) error

	// LockStatus reads the current status and locks the row until the transaction ends.
	LockStatus(ctx context.Context, q database.Querier, orderID int64) (model.OrderStatus, error)

	// UpdateStatus sets the status. It returns model.ErrOrderNotFound when no row matched.
	UpdateStatus(ctx context.Context, q database.Querier, orderID int64, status model.OrderStatus) error

	// GetByID retrieves an order by its ID along with its items.
	GetByID(ctx context.Context, id int64) (*model.Order, []model.OrderItem, error)

	// ListByUser lists the orders of one customer, newest first.
	ListByUser(ctx context.Context, userID int64) ([]model.OrderSummary, error)

	// ListAll lists every order, newest first.
	ListAll(ctx context.Context, limit, offset int) ([]model.OrderSummary, error)
}

// ReservationRepository defines reservation data access.
type ReservationRepository interface {
	Create(ctx context.Context, reservation *model.Reservation) error
	GetByID(ctx context.Context, id int64) (*model.Reservation, error)
	ListByUser(ctx context.Context, userID int64) ([]model.Reservation, error)
	ListAll(ctx context.Context, limit, offset int) ([]model.Reservation, error)
	UpdateStatus(ctx context.Context, id int64, status model.ReservationStatus) error
}

// ComplaintRepository defines complaint data access.
type ComplaintRepository interface {
	Create(ctx context.Context, complaint *model.Complaint) error
	GetByID(ctx context.Context, id int64) (*model.Complaint, error)
	ListAll(ctx context.Context, limit, offset int) ([]model.Complaint, error)
	UpdateStatus(ctx context.Context, id int64, status model.ComplaintStatus) error
}

// TestimonialRepository stores customer reviews.
type TestimonialRepository interface {
	Create(ctx context.Context, t *model.Testimonial) error

	// ListRecent returns the newest testimonials rated at least minRating.
	ListRecent(ctx context.Context, minRating, limit int) ([]model.Testimonial, error)
}
