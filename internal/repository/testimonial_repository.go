package repository

import (
	"context"

	"polleria/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

type testimonialRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewTestimonialRepository creates a new PostgreSQL-backed testimonial repository.
func NewTestimonialRepository(pool *pgxpool.Pool, logger zerolog.Logger) TestimonialRepository {
	return &testimonialRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "testimonial").Logger(),
	}
}

func (r *testimonialRepository) Create(ctx context.Context, t *model.Testimonial) error {
	query := `
		INSERT INTO testimonials (user_id, name, email, rating, comment, location)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`

	err := r.pool.QueryRow(ctx, query, t.UserID, t.Name, t.Email, t.Rating, t.Comment, t.Location).
		Scan(&t.ID, &t.CreatedAt)
	if err != nil {
		r.logger.Error().Err(err).Int("rating", t.Rating).Msg("failed to create testimonial")
		return model.PersistenceFailure("failed to create testimonial", err)
	}

	return nil
}

func (r *testimonialRepository) ListRecent(ctx context.Context, minRating, limit int) ([]model.Testimonial, error) {
	query := `
		SELECT id, user_id, name, email, rating, comment, location, created_at
		FROM testimonials
		WHERE rating >= $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`

	rows, err := r.pool.Query(ctx, query, minRating, limit)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to list testimonials")
		return nil, model.PersistenceFailure("failed to list testimonials", err)
	}

	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.Testimonial, error) {
		var t model.Testimonial
		err := row.Scan(&t.ID, &t.UserID, &t.Name, &t.Email, &t.Rating, &t.Comment, &t.Location, &t.CreatedAt)
		return t, err
	})
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to scan testimonial rows")
		return nil, model.PersistenceFailure("failed to scan testimonials", err)
	}

	return out, nil
}
