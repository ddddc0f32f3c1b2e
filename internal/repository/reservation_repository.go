package repository

import (
	"context"

	"polleria/internal/database"
	"polleria/internal/model"

	"github.com/jackc/pgx/v5"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

const reservationColumns = `id, user_id, customer_name, customer_email, customer_phone, people,
	to_char(date, 'YYYY-MM-DD'), time, status, advance_paid, created_at`

type reservationRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewReservationRepository creates a new PostgreSQL-backed reservation repository.
func NewReservationRepository(pool *pgxpool.Pool, logger zerolog.Logger) ReservationRepository {
	return &reservationRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "reservation").Logger(),
	}
}

func (r *reservationRepository) Create(ctx context.Context, res *model.Reservation) error {
	query := `
		INSERT INTO reservations (user_id, customer_name, customer_email, customer_phone, people, date, time, status, advance_paid)
		VALUES ($1, $2, $3, $4, $5, $6::text::date, $7, $8, $9)
		RETURNING id, created_at
	`

	err := r.pool.QueryRow(ctx, query,
		res.UserID,
		res.CustomerName,
		res.CustomerEmail,
		res.CustomerPhone,
		res.People,
		res.Date,
		res.Time,
		res.Status,
		res.AdvancePaid,
	).Scan(&res.ID, &res.CreatedAt)
	if err != nil {
		r.logger.Error().Err(err).Str("date", res.Date).Msg("failed to create reservation")
		return model.PersistenceFailure("failed to create reservation", err)
	}

	return nil
}

func (r *reservationRepository) GetByID(ctx context.Context, id int64) (*model.Reservation, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+reservationColumns+` FROM reservations WHERE id = $1`, id)

	res, err := scanReservation(row)
	if err != nil {
		if database.IsNoRows(err) {
			return nil, model.ErrReservationNotFound
		}
		r.logger.Error().Err(err).Int64("reservation_id", id).Msg("failed to query reservation")
		return nil, model.PersistenceFailure("failed to query reservation", err)
	}
	return res, nil
}

func (r *reservationRepository) ListByUser(ctx context.Context, userID int64) ([]model.Reservation, error) {
	query := `SELECT ` + reservationColumns + `
		FROM reservations
		WHERE user_id = $1
		ORDER BY date DESC, time DESC`
	return r.list(ctx, query, userID)
}

func (r *reservationRepository) ListAll(ctx context.Context, limit, offset int) ([]model.Reservation, error) {
	query := `SELECT ` + reservationColumns + `
		FROM reservations
		ORDER BY date DESC, time DESC
		LIMIT $1 OFFSET $2`
	return r.list(ctx, query, limit, offset)
}

func (r *reservationRepository) UpdateStatus(ctx context.Context, id int64, status model.ReservationStatus) error {
	tag, err := r.pool.Exec(ctx, `UPDATE reservations SET status = $1 WHERE id = $2`, status, id)
	if err != nil {
		r.logger.Error().Err(err).Int64("reservation_id", id).Msg("failed to update reservation status")
		return model.PersistenceFailure("failed to update reservation status", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrReservationNotFound
	}
	return nil
}

func (r *reservationRepository) list(ctx context.Context, query string, args ...any) ([]model.Reservation, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to list reservations")
		return nil, model.PersistenceFailure("failed to list reservations", err)
	}
	defer rows.Close()

	out := []model.Reservation{}
	for rows.Next() {
		res, err := scanReservation(rows)
		if err != nil {
			r.logger.Error().Err(err).Msg("failed to scan reservation row")
			return nil, model.PersistenceFailure("failed to scan reservation", err)
		}
		out = append(out, *res)
	}

	if err := rows.Err(); err != nil {
		return nil, model.PersistenceFailure("error iterating reservations", err)
	}

	return out, nil
}

func scanReservation(row pgx.Row) (*model.Reservation, error) {
	var res model.Reservation
	err := row.Scan(
		&res.ID, &res.UserID, &res.CustomerName, &res.CustomerEmail, &res.CustomerPhone,
		&res.People, &res.Date, &res.Time, &res.Status, &res.AdvancePaid, &res.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &res, nil
}
