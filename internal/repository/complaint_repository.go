package repository

import (
	"context"

	"polleria/internal/database"
	"polleria/internal/model"

	"github.com/jackc/pgx/v5"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

const complaintColumns = `id, consumer_name, consumer_lastname, consumer_document_type, consumer_document_number,
	consumer_phone, consumer_email, consumer_address, consumer_is_minor,
	item_type, item_amount, item_description, complaint_type,
	complaint_details, consumer_request, status, created_at`

type complaintRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewComplaintRepository creates a new PostgreSQL-backed complaints book.
func NewComplaintRepository(pool *pgxpool.Pool, logger zerolog.Logger) ComplaintRepository {
	return &complaintRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "complaint").Logger(),
	}
}

func (r *complaintRepository) Create(ctx context.Context, c *model.Complaint) error {
	query := `
		INSERT INTO complaints (
			consumer_name, consumer_lastname, consumer_document_type, consumer_document_number,
			consumer_phone, consumer_email, consumer_address, consumer_is_minor,
			item_type, item_amount, item_description, complaint_type,
			complaint_details, consumer_request, status
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		RETURNING id, created_at
	`

	amount := decimal.NullDecimal{}
	if c.ItemAmount != nil {
		amount = decimal.NewNullDecimal(*c.ItemAmount)
	}

	err := r.pool.QueryRow(ctx, query,
		c.ConsumerName, c.ConsumerLastname, c.ConsumerDocumentType, c.ConsumerDocumentNumber,
		c.ConsumerPhone, c.ConsumerEmail, c.ConsumerAddress, c.ConsumerIsMinor,
		c.ItemType, amount, c.ItemDescription, c.ComplaintType,
		c.ComplaintDetails, c.ConsumerRequest, c.Status,
	).Scan(&c.ID, &c.CreatedAt)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to create complaint")
		return model.PersistenceFailure("failed to create complaint", err)
	}

	return nil
}

func (r *complaintRepository) GetByID(ctx context.Context, id int64) (*model.Complaint, error) {
	c, err := scanComplaint(r.pool.QueryRow(ctx, `SELECT `+complaintColumns+` FROM complaints WHERE id = $1`, id))
	if err != nil {
		if database.IsNoRows(err) {
			return nil, model.ErrComplaintNotFound
		}
		r.logger.Error().Err(err).Int64("complaint_id", id).Msg("failed to query complaint")
		return nil, model.PersistenceFailure("failed to query complaint", err)
	}
	return c, nil
}

func (r *complaintRepository) ListAll(ctx context.Context, limit, offset int) ([]model.Complaint, error) {
	query := `
		SELECT ` + complaintColumns + `
		FROM complaints
		ORDER BY created_at DESC, id DESC
		LIMIT $1 OFFSET $2
	`

	rows, err := r.pool.Query(ctx, query, limit, offset)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to list complaints")
		return nil, model.PersistenceFailure("failed to list complaints", err)
	}
	defer rows.Close()

	out := []model.Complaint{}
	for rows.Next() {
		c, err := scanComplaint(rows)
		if err != nil {
			r.logger.Error().Err(err).Msg("failed to scan complaint row")
			return nil, model.PersistenceFailure("failed to scan complaint", err)
		}
		out = append(out, *c)
	}

	if err := rows.Err(); err != nil {
		return nil, model.PersistenceFailure("error iterating complaints", err)
	}

	return out, nil
}

func (r *complaintRepository) UpdateStatus(ctx context.Context, id int64, status model.ComplaintStatus) error {
	tag, err := r.pool.Exec(ctx, `UPDATE complaints SET status = $1 WHERE id = $2`, status, id)
	if err != nil {
		r.logger.Error().Err(err).Int64("complaint_id", id).Msg("failed to update complaint status")
		return model.PersistenceFailure("failed to update complaint status", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrComplaintNotFound
	}
	return nil
}

func scanComplaint(row pgx.Row) (*model.Complaint, error) {
	var (
		c      model.Complaint
		amount decimal.NullDecimal
	)
	err := row.Scan(
		&c.ID, &c.ConsumerName, &c.ConsumerLastname, &c.ConsumerDocumentType, &c.ConsumerDocumentNumber,
		&c.ConsumerPhone, &c.ConsumerEmail, &c.ConsumerAddress, &c.ConsumerIsMinor,
		&c.ItemType, &amount, &c.ItemDescription, &c.ComplaintType,
		&c.ComplaintDetails, &c.ConsumerRequest, &c.Status, &c.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if amount.Valid {
		c.ItemAmount = &amount.Decimal
	}
	return &c, nil
}
