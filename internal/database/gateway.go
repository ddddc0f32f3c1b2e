package database

import (
	"context"
	"errors"

	"polleria/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// Querier is the statement surface shared by the pool and a transaction.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
}

// TxFunc runs inside a transaction. Returning an error rolls it back.
type TxFunc func(ctx context.Context, tx pgx.Tx) error

// TxRunner runs a function inside a transaction on a scoped connection.
type TxRunner interface {
	InTx(ctx context.Context, fn TxFunc) error
}

// Result is the outcome of a write statement.
type Result struct {
	RowsAffected int64
	LastInsertID int64
}

// Gateway is the single entry point to the relational store. Connections are
// only ever held for the duration of one call, so none can leak.
type Gateway struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewGateway wraps a connection pool.
func NewGateway(pool *pgxpool.Pool, logger zerolog.Logger) *Gateway {
	return &Gateway{
		pool:   pool,
		logger: logger.With().Str("component", "db-gateway").Logger(),
	}
}

// Pool exposes the underlying pool for read-only repositories.
func (g *Gateway) Pool() *pgxpool.Pool {
	return g.pool
}

// InTx acquires a connection, begins a transaction and runs fn. The
// transaction is committed when fn returns nil and rolled back otherwise,
// including when fn panics. The connection goes back to the pool on every
// exit path.
func (g *Gateway) InTx(ctx context.Context, fn TxFunc) (err error) {
	conn, err := g.pool.Acquire(ctx)
	if err != nil {
		g.logger.Error().Err(err).Msg("failed to acquire connection")
		return model.PersistenceFailure("failed to acquire connection", err)
	}
	defer conn.Release()

	tx, err := conn.Begin(ctx)
	if err != nil {
		g.logger.Error().Err(err).Msg("failed to begin transaction")
		return model.PersistenceFailure("failed to begin transaction", err)
	}

	committed := false
	defer func() {
		if committed {
			return
		}
		// Rollback must not depend on the caller's context: a cancelled
		// request still has to return a clean connection.
		if rbErr := tx.Rollback(context.WithoutCancel(ctx)); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
			g.logger.Error().Err(rbErr).Msg("failed to rollback transaction")
		}
	}()

	if err = fn(ctx, tx); err != nil {
		return err
	}

	if err = tx.Commit(ctx); err != nil {
		g.logger.Error().Err(err).Msg("failed to commit transaction")
		return model.PersistenceFailure("failed to commit transaction", err)
	}
	committed = true

	return nil
}

// Exec runs a parameterised statement. When the statement ends in
// "RETURNING id" use ExecReturningID instead.
func (g *Gateway) Exec(ctx context.Context, sql string, args ...any) (Result, error) {
	tag, err := g.pool.Exec(ctx, sql, args...)
	if err != nil {
		return Result{}, model.PersistenceFailure("failed to execute statement", err)
	}
	return Result{RowsAffected: tag.RowsAffected()}, nil
}

// ExecReturningID runs an INSERT ... RETURNING id and reports the new id.
func (g *Gateway) ExecReturningID(ctx context.Context, sql string, args ...any) (Result, error) {
	return ExecReturningID(ctx, g.pool, sql, args...)
}

// Query runs a parameterised query. Callers must close the rows.
func (g *Gateway) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	rows, err := g.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, model.PersistenceFailure("failed to run query", err)
	}
	return rows, nil
}

// Ping checks that the database answers.
func (g *Gateway) Ping(ctx context.Context) error {
	if err := g.pool.Ping(ctx); err != nil {
		return model.PersistenceFailure("database unreachable", err)
	}
	return nil
}

// ExecReturningID runs an INSERT ... RETURNING id on q.
func ExecReturningID(ctx context.Context, q Querier, sql string, args ...any) (Result, error) {
	var id int64
	if err := q.QueryRow(ctx, sql, args...).Scan(&id); err != nil {
		return Result{}, model.PersistenceFailure("failed to insert row", err)
	}
	return Result{RowsAffected: 1, LastInsertID: id}, nil
}

// IsNoRows reports whether err means the query matched nothing.
func IsNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}
