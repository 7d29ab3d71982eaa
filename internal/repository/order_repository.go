package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"order-composer/internal/model"

	"github.com/google/uuid"
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

// BeginTx starts a new database transaction.
func (r *orderRepository) BeginTx(ctx context.Context) (pgx.Tx, error) {
	return beginTx(ctx, r.pool, r.logger)
}

// CreateOrder inserts a new order within the provided transaction.
func (r *orderRepository) CreateOrder(ctx context.Context, tx pgx.Tx, order *model.Order) error {
	query := `
		INSERT INTO orders (id, status, price_book_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := tx.Exec(ctx, query, order.ID, string(order.Status), order.PriceBookID, order.CreatedAt, order.UpdatedAt)
	if err != nil {
		r.logger.Error().
			Err(err).
			Str("order_id", order.ID.String()).
			Msg("failed to create order")
		return fmt.Errorf("failed to create order: %w", err)
	}

	r.logger.Debug().
		Str("order_id", order.ID.String()).
		Str("price_book_id", order.PriceBookID).
		Msg("order created successfully")

	return nil
}

const selectOrder = `
	SELECT id, status, price_book_id, created_at, updated_at, activated_at
	FROM orders
	WHERE id = $1
`

// GetByID retrieves an order by its ID.
func (r *orderRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	return r.scanOrder(r.pool.QueryRow(ctx, selectOrder, id), id)
}

// GetForUpdate retrieves and row-locks an order inside the transaction.
func (r *orderRepository) GetForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*model.Order, error) {
	return r.scanOrder(tx.QueryRow(ctx, selectOrder+" FOR UPDATE", id), id)
}

func (r *orderRepository) scanOrder(row pgx.Row, id uuid.UUID) (*model.Order, error) {
	var order model.Order
	err := row.Scan(
		&order.ID,
		&order.Status,
		&order.PriceBookID,
		&order.CreatedAt,
		&order.UpdatedAt,
		&order.ActivatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Debug().Str("order_id", id.String()).Msg("order not found")
			return nil, nil
		}
		r.logger.Error().Err(err).Str("order_id", id.String()).Msg("failed to query order")
		return nil, fmt.Errorf("failed to query order: %w", err)
	}

	return &order, nil
}

// UpdateStatus sets the order status within the provided transaction.
func (r *orderRepository) UpdateStatus(ctx context.Context, tx pgx.Tx, id uuid.UUID, status model.OrderStatus, at time.Time) error {
	query := `
		UPDATE orders
		SET status = $2,
		    updated_at = $3,
		    activated_at = CASE WHEN $2 = 'Activated' THEN $3 ELSE activated_at END
		WHERE id = $1
	`

	tag, err := tx.Exec(ctx, query, id, string(status), at)
	if err != nil {
		r.logger.Error().
			Err(err).
			Str("order_id", id.String()).
			Str("status", string(status)).
			Msg("failed to update order status")
		return fmt.Errorf("failed to update order status: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return model.ErrOrderNotFound
	}

	return nil
}

// beginTx is shared by the repositories that expose TxBeginner.
func beginTx(ctx context.Context, pool *pgxpool.Pool, logger zerolog.Logger) (pgx.Tx, error) {
	tx, err := pool.Begin(ctx)
	if err != nil {
		logger.Error().Err(err).Msg("failed to begin transaction")
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	return tx, nil
}
