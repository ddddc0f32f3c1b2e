package repository

import (
	"context"

	"polleria/internal/database"
	"polleria/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// orderRepository implements the OrderRepository interface using PostgreSQL.
type orderRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewOrderRepository creates a new PostgreSQL-backed order repository.
func NewOrderRepository(pool *pgxpool.Pool, logger zerolog.Logger) OrderRepository {
	return &orderRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "order").Logger(),
	}
}

// CreateOrder inserts a new order on q and stores the generated id on order.
func (r *orderRepository) CreateOrder(ctx context.Context, q database.Querier, order *model.Order) error {
	query := `
		INSERT INTO orders (
			user_id, total_amount, payment_method, delivery_address,
			customer_name, customer_email, customer_phone, status
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at
	`

	err := q.QueryRow(ctx, query,
		order.UserID,
		order.TotalAmount,
		order.PaymentMethod,
		order.DeliveryAddress,
		order.CustomerName,
		order.CustomerEmail,
		order.CustomerPhone,
		order.Status,
	).Scan(&order.ID, &order.CreatedAt, &order.UpdatedAt)
	if err != nil {
		r.logger.Error().
			Err(err).
			Str("status", string(order.Status)).
			Msg("failed to create order")
		return model.PersistenceFailure("failed to create order", err)
	}

	r.logger.Debug().
		Int64("order_id", order.ID).
		Msg("order created successfully")

	return nil
}

// CreateOrderItems inserts all items of an order on q in one batch.
func (r *orderRepository) CreateOrderItems(ctx context.Context, q database.Querier, orderID int64, items []model.OrderItem) error {
	if len(items) == 0 {
		return nil
	}

	query := `
		INSERT INTO order_items (order_id, product_id, quantity, price)
		VALUES ($1, $2, $3, $4)
	`

	batch := &pgx.Batch{}
	for _, item := range items {
		batch.Queue(query, orderID, item.ProductID, item.Quantity, item.Price)
	}

	results := q.SendBatch(ctx, batch)
	defer results.Close()

	for i := 0; i < len(items); i++ {
		if _, err := results.Exec(); err != nil {
			r.logger.Error().
				Err(err).
				Int64("order_id", orderID).
				Int64("product_id", items[i].ProductID).
				Msg("failed to create order item")
			return model.PersistenceFailure("failed to create order item", err)
		}
	}

	r.logger.Debug().
		Int64("order_id", orderID).
		Int("count", len(items)).
		Msg("order items created successfully")

	return nil
}

// SetPreferenceID stores the checkout preference created for an online order.
func (r *orderRepository) SetPreferenceID(ctx context.Context, q database.Querier, orderID int64, preferenceID string) error {
	query := `UPDATE orders SET mp_preference_id = $1, updated_at = NOW() WHERE id = $2`

	tag, err := q.Exec(ctx, query, preferenceID, orderID)
	if err != nil {
		r.logger.Error().Err(err).Int64("order_id", orderID).Msg("failed to store preference id")
		return model.PersistenceFailure("failed to store preference id", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrOrderNotFound
	}
	return nil
}

// LockStatus reads the status with SELECT ... FOR UPDATE. q must be a transaction.
func (r *orderRepository) LockStatus(ctx context.Context, q database.Querier, orderID int64) (model.OrderStatus, error) {
	var status model.OrderStatus
	err := q.QueryRow(ctx, `SELECT status FROM orders WHERE id = $1 FOR UPDATE`, orderID).Scan(&status)
	if err != nil {
		if database.IsNoRows(err) {
			return "", model.ErrOrderNotFound
		}
		r.logger.Error().Err(err).Int64("order_id", orderID).Msg("failed to lock order")
		return "", model.PersistenceFailure("failed to lock order", err)
	}
	return status, nil
}

// UpdateStatus sets the order status. Setting the status an order already
// has still matches the row, so repeated confirmations succeed.
func (r *orderRepository) UpdateStatus(ctx context.Context, q database.Querier, orderID int64, status model.OrderStatus) error {
	query := `UPDATE orders SET status = $1, updated_at = NOW() WHERE id = $2`

	tag, err := q.Exec(ctx, query, status, orderID)
	if err != nil {
		r.logger.Error().
			Err(err).
			Int64("order_id", orderID).
			Str("status", string(status)).
			Msg("failed to update order status")
		return model.PersistenceFailure("failed to update order status", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrOrderNotFound
	}

	r.logger.Debug().
		Int64("order_id", orderID).
		Str("status", string(status)).
		Msg("order status updated")

	return nil
}

// GetByID retrieves an order by its ID along with its items.
func (r *orderRepository) GetByID(ctx context.Context, id int64) (*model.Order, []model.OrderItem, error) {
	orderQuery := `
		SELECT id, user_id, total_amount, payment_method, delivery_address,
		       customer_name, customer_email, customer_phone, status,
		       mp_preference_id, created_at, updated_at
		FROM orders
		WHERE id = $1
	`

	var order model.Order
	err := r.pool.QueryRow(ctx, orderQuery, id).Scan(
		&order.ID,
		&order.UserID,
		&order.TotalAmount,
		&order.PaymentMethod,
		&order.DeliveryAddress,
		&order.CustomerName,
		&order.CustomerEmail,
		&order.CustomerPhone,
		&order.Status,
		&order.PreferenceID,
		&order.CreatedAt,
		&order.UpdatedAt,
	)
	if err != nil {
		if database.IsNoRows(err) {
			r.logger.Debug().Int64("order_id", id).Msg("order not found")
			return nil, nil, model.ErrOrderNotFound
		}
		r.logger.Error().Err(err).Int64("order_id", id).Msg("failed to query order")
		return nil, nil, model.PersistenceFailure("failed to query order", err)
	}

	itemsQuery := `
		SELECT oi.id, oi.order_id, oi.product_id, p.name, oi.quantity, oi.price
		FROM order_items oi
		JOIN products p ON p.id = oi.product_id
		WHERE oi.order_id = $1
		ORDER BY oi.id
	`

	rows, err := r.pool.Query(ctx, itemsQuery, id)
	if err != nil {
		r.logger.Error().
			Err(err).
			Int64("order_id", id).
			Msg("failed to query order items")
		return nil, nil, model.PersistenceFailure("failed to query order items", err)
	}
	defer rows.Close()

	items := []model.OrderItem{}
	for rows.Next() {
		var item model.OrderItem
		if err := rows.Scan(&item.ID, &item.OrderID, &item.ProductID, &item.Name, &item.Quantity, &item.Price); err != nil {
			r.logger.Error().Err(err).Msg("failed to scan order item row")
			return nil, nil, model.PersistenceFailure("failed to scan order item", err)
		}
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating order item rows")
		return nil, nil, model.PersistenceFailure("error iterating order items", err)
	}

	return &order, items, nil
}

const summaryQuery = `
	SELECT o.id, o.total_amount, o.status, o.customer_name, o.created_at,
	       COUNT(oi.id),
	       COALESCE(string_agg(p.name || ' x' || oi.quantity, ', ' ORDER BY oi.id), '')
	FROM orders o
	LEFT JOIN order_items oi ON oi.order_id = o.id
	LEFT JOIN products p ON p.id = oi.product_id
`

// ListByUser lists the orders placed by one customer, newest first.
func (r *orderRepository) ListByUser(ctx context.Context, userID int64) ([]model.OrderSummary, error) {
	query := summaryQuery + `
		WHERE o.user_id = $1
		GROUP BY o.id
		ORDER BY o.created_at DESC, o.id DESC
	`
	return r.listSummaries(ctx, query, userID)
}

// ListAll lists every order, newest first.
func (r *orderRepository) ListAll(ctx context.Context, limit, offset int) ([]model.OrderSummary, error) {
	query := summaryQuery + `
		GROUP BY o.id
		ORDER BY o.created_at DESC, o.id DESC
		LIMIT $1 OFFSET $2
	`
	return r.listSummaries(ctx, query, limit, offset)
}

func (r *orderRepository) listSummaries(ctx context.Context, query string, args ...any) ([]model.OrderSummary, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to list orders")
		return nil, model.PersistenceFailure("failed to list orders", err)
	}
	defer rows.Close()

	orders := []model.OrderSummary{}
	for rows.Next() {
		var s model.OrderSummary
		if err := rows.Scan(&s.ID, &s.TotalAmount, &s.Status, &s.CustomerName, &s.CreatedAt, &s.ItemsCount, &s.ItemsSummary); err != nil {
			r.logger.Error().Err(err).Msg("failed to scan order summary row")
			return nil, model.PersistenceFailure("failed to scan order summary", err)
		}
		orders = append(orders, s)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating order rows")
		return nil, model.PersistenceFailure("error iterating orders", err)
	}

	return orders, nil
}
