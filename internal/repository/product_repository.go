package repository

import (
	"context"
	"errors"

	"polleria/internal/database"
	"polleria/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

const productColumns = `id, name, description, price, category, image, available, created_at`

// productRepository implements the ProductRepository interface using PostgreSQL.
type productRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewProductRepository creates a new PostgreSQL-backed product repository.
func NewProductRepository(pool *pgxpool.Pool, logger zerolog.Logger) ProductRepository {
	return &productRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "product").Logger(),
	}
}

func scanProduct(row pgx.Row, p *model.Product) error {
	return row.Scan(&p.ID, &p.Name, &p.Description, &p.Price, &p.Category, &p.Image, &p.Available, &p.CreatedAt)
}

// GetAll retrieves all products with pagination support.
func (r *productRepository) GetAll(ctx context.Context, limit, offset int) ([]model.Product, error) {
	query := `
		SELECT ` + productColumns + `
		FROM products
		ORDER BY category, name
		LIMIT $1 OFFSET $2
	`
	return r.list(ctx, query, limit, offset)
}

// ListAvailable retrieves the products currently offered on the menu.
func (r *productRepository) ListAvailable(ctx context.Context, limit, offset int) ([]model.Product, error) {
	query := `
		SELECT ` + productColumns + `
		FROM products
		WHERE available
		ORDER BY category, name
		LIMIT $1 OFFSET $2
	`
	return r.list(ctx, query, limit, offset)
}

func (r *productRepository) list(ctx context.Context, query string, limit, offset int) ([]model.Product, error) {
	rows, err := r.pool.Query(ctx, query, limit, offset)
	if err != nil {
		r.logger.Error().Err(err).
			Int("limit", limit).
			Int("offset", offset).
			Msg("failed to query products")
		return nil, model.PersistenceFailure("failed to query products", err)
	}
	defer rows.Close()

	products := []model.Product{}
	for rows.Next() {
		var p model.Product
		if err := scanProduct(rows, &p); err != nil {
			r.logger.Error().Err(err).Msg("failed to scan product row")
			return nil, model.PersistenceFailure("failed to scan product", err)
		}
		products = append(products, p)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating product rows")
		return nil, model.PersistenceFailure("error iterating products", err)
	}

	return products, nil
}

// GetByID retrieves a single product by its ID.
func (r *productRepository) GetByID(ctx context.Context, id int64) (*model.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1`

	var p model.Product
	if err := scanProduct(r.pool.QueryRow(ctx, query, id), &p); err != nil {
		if database.IsNoRows(err) {
			r.logger.Debug().Int64("product_id", id).Msg("product not found")
			return nil, model.ErrProductNotFound
		}
		r.logger.Error().Err(err).Int64("product_id", id).Msg("failed to query product")
		return nil, model.PersistenceFailure("failed to query product", err)
	}

	return &p, nil
}

// ValidateProductsExist checks if all provided product IDs exist in the database.
func (r *productRepository) ValidateProductsExist(ctx context.Context, ids []int64) error {
	unique := dedupe(ids)
	if len(unique) == 0 {
		return nil
	}

	query := `
		SELECT COUNT(DISTINCT id)
		FROM products
		WHERE id = ANY($1)
	`

	var count int
	if err := r.pool.QueryRow(ctx, query, unique).Scan(&count); err != nil {
		r.logger.Error().Err(err).Int("count", len(unique)).Msg("failed to validate products exist")
		return model.PersistenceFailure("failed to validate products exist", err)
	}

	if count != len(unique) {
		r.logger.Warn().
			Int("expected", len(unique)).
			Int("found", count).
			Msg("not all product IDs exist")
		return model.ErrProductNotFound
	}

	return nil
}

// GetByIDs loads the listed products keyed by id.
func (r *productRepository) GetByIDs(ctx context.Context, ids []int64) (map[int64]model.Product, error) {
	unique := dedupe(ids)
	out := make(map[int64]model.Product, len(unique))
	if len(unique) == 0 {
		return out, nil
	}

	rows, err := r.pool.Query(ctx, `SELECT `+productColumns+` FROM products WHERE id = ANY($1)`, unique)
	if err != nil {
		r.logger.Error().Err(err).Int("count", len(unique)).Msg("failed to query products by id")
		return nil, model.PersistenceFailure("failed to query products", err)
	}
	defer rows.Close()

	for rows.Next() {
		var p model.Product
		if err := scanProduct(rows, &p); err != nil {
			return nil, model.PersistenceFailure("failed to scan product", err)
		}
		out[p.ID] = p
	}
	if err := rows.Err(); err != nil {
		return nil, model.PersistenceFailure("error iterating products", err)
	}

	if len(out) != len(unique) {
		r.logger.Warn().
			Int("expected", len(unique)).
			Int("found", len(out)).
			Msg("not all product IDs exist")
		return nil, model.ErrProductNotFound
	}

	return out, nil
}

// Categories lists the distinct non-empty categories in name order.
func (r *productRepository) Categories(ctx context.Context) ([]string, error) {
	rows, err := r.pool.Query(ctx, `SELECT DISTINCT category FROM products WHERE category <> '' ORDER BY category`)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to query categories")
		return nil, model.PersistenceFailure("failed to query categories", err)
	}

	categories, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, model.PersistenceFailure("failed to scan categories", err)
	}
	return categories, nil
}

// Create inserts p and fills its id and creation time.
func (r *productRepository) Create(ctx context.Context, p *model.Product) error {
	query := `
		INSERT INTO products (name, description, price, category, image, available)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`

	err := r.pool.QueryRow(ctx, query, p.Name, p.Description, p.Price, p.Category, p.Image, p.Available).
		Scan(&p.ID, &p.CreatedAt)
	if err != nil {
		r.logger.Error().Err(err).Str("name", p.Name).Msg("failed to create product")
		return model.PersistenceFailure("failed to create product", err)
	}

	return nil
}

// Update overwrites the editable fields of p.
func (r *productRepository) Update(ctx context.Context, p *model.Product) error {
	query := `
		UPDATE products
		SET name = $1, description = $2, price = $3, category = $4, image = $5, available = $6
		WHERE id = $7
		RETURNING created_at
	`

	err := r.pool.QueryRow(ctx, query, p.Name, p.Description, p.Price, p.Category, p.Image, p.Available, p.ID).
		Scan(&p.CreatedAt)
	if err != nil {
		if database.IsNoRows(err) {
			return model.ErrProductNotFound
		}
		r.logger.Error().Err(err).Int64("product_id", p.ID).Msg("failed to update product")
		return model.PersistenceFailure("failed to update product", err)
	}

	return nil
}

// Delete removes a product. Products already referenced by an order are kept.
func (r *productRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == foreignKeyViolation {
			r.logger.Warn().Int64("product_id", id).Msg("product is referenced by orders")
			return model.ErrProductInUse
		}
		r.logger.Error().Err(err).Int64("product_id", id).Msg("failed to delete product")
		return model.PersistenceFailure("failed to delete product", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrProductNotFound
	}
	return nil
}

const foreignKeyViolation = "23503"

func dedupe(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
