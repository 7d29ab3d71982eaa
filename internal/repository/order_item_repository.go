package repository

import (
	"context"
	"fmt"
	"sort"

	"order-composer/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// orderItemRepository implements the OrderItemRepository interface using PostgreSQL.
type orderItemRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewOrderItemRepository creates a new PostgreSQL-backed order item repository.
func NewOrderItemRepository(pool *pgxpool.Pool, logger zerolog.Logger) OrderItemRepository {
	return &orderItemRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "order_item").Logger(),
	}
}

const selectLineItems = `
	SELECT oi.id, oi.order_id, oi.product_id, c.name, COALESCE(p.name, ''),
	       oi.unit_price, oi.quantity, oi.total_price, oi.line_number,
	       oi.created_at, oi.updated_at
	FROM order_items oi
	JOIN products c ON c.id = oi.product_id
	LEFT JOIN products p ON p.id = c.parent_id
`

// UpsertItems creates or re-quantifies lines within the provided transaction.
func (r *orderItemRepository) UpsertItems(ctx context.Context, tx pgx.Tx, items []model.LineUpsert) error {
	if len(items) == 0 {
		return nil
	}

	query := `
		INSERT INTO order_items (id, order_id, product_id, unit_price, quantity)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (order_id, product_id) DO UPDATE
		SET quantity = EXCLUDED.quantity, updated_at = NOW()
	`

	batch := &pgx.Batch{}
	for _, item := range items {
		batch.Queue(query, item.ID, item.OrderID, item.ProductID, item.UnitPrice, item.Quantity)
	}

	results := tx.SendBatch(ctx, batch)
	defer results.Close()

	for i := 0; i < len(items); i++ {
		_, err := results.Exec()
		if err != nil {
			r.logger.Error().
				Err(err).
				Str("order_id", items[i].OrderID.String()).
				Str("product_id", items[i].ProductID).
				Msg("failed to upsert order item")
			return fmt.Errorf("failed to upsert order item: %w", err)
		}
	}

	r.logger.Debug().
		Int("count", len(items)).
		Msg("order items upserted successfully")

	return nil
}

// GetByIDs retrieves the existing items among ids within the transaction.
func (r *orderItemRepository) GetByIDs(ctx context.Context, tx pgx.Tx, ids []uuid.UUID) ([]model.OrderLineItem, error) {
	if len(ids) == 0 {
		return []model.OrderLineItem{}, nil
	}

	rows, err := tx.Query(ctx, selectLineItems+" WHERE oi.id = ANY($1) ORDER BY oi.line_number", ids)
	if err != nil {
		r.logger.Error().Err(err).Int("count", len(ids)).Msg("failed to query order items by IDs")
		return nil, fmt.Errorf("failed to query order items by IDs: %w", err)
	}

	return r.collect(rows)
}

// UpdateQuantities sets the quantity of each item in sorted ID order.
func (r *orderItemRepository) UpdateQuantities(ctx context.Context, tx pgx.Tx, quantities map[uuid.UUID]int) (int, error) {
	if len(quantities) == 0 {
		return 0, nil
	}

	ids := make([]uuid.UUID, 0, len(quantities))
	for id := range quantities {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })

	query := `UPDATE order_items SET quantity = $2, updated_at = NOW() WHERE id = $1`

	batch := &pgx.Batch{}
	for _, id := range ids {
		batch.Queue(query, id, quantities[id])
	}

	results := tx.SendBatch(ctx, batch)
	defer results.Close()

	updated := 0
	for _, id := range ids {
		tag, err := results.Exec()
		if err != nil {
			r.logger.Error().
				Err(err).
				Str("order_item_id", id.String()).
				Msg("failed to update order item quantity")
			return 0, fmt.Errorf("failed to update order item quantity: %w", err)
		}
		updated += int(tag.RowsAffected())
	}

	return updated, nil
}

// DeleteByIDs removes the items and returns how many rows were deleted.
func (r *orderItemRepository) DeleteByIDs(ctx context.Context, tx pgx.Tx, ids []uuid.UUID) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	tag, err := tx.Exec(ctx, `DELETE FROM order_items WHERE id = ANY($1)`, ids)
	if err != nil {
		r.logger.Error().Err(err).Int("count", len(ids)).Msg("failed to delete order items")
		return 0, fmt.Errorf("failed to delete order items: %w", err)
	}

	return int(tag.RowsAffected()), nil
}

// ListByOrder returns an order's items ordered by line number.
func (r *orderItemRepository) ListByOrder(ctx context.Context, orderID uuid.UUID, limit, offset int) ([]model.OrderLineItem, error) {
	query := selectLineItems + `
		WHERE oi.order_id = $1
		ORDER BY oi.line_number
		LIMIT $2 OFFSET $3
	`

	rows, err := r.pool.Query(ctx, query, orderID, limit, offset)
	if err != nil {
		r.logger.Error().Err(err).
			Str("order_id", orderID.String()).
			Int("limit", limit).
			Int("offset", offset).
			Msg("failed to query order items")
		return nil, fmt.Errorf("failed to query order items: %w", err)
	}

	return r.collect(rows)
}

// Summarize aggregates an order's lines.
func (r *orderItemRepository) Summarize(ctx context.Context, orderID uuid.UUID) (int, int, decimal.Decimal, error) {
	query := `
		SELECT COUNT(*), COALESCE(SUM(quantity), 0), COALESCE(SUM(total_price), 0)
		FROM order_items
		WHERE order_id = $1
	`

	var lines, quantity int
	var amount decimal.Decimal
	if err := r.pool.QueryRow(ctx, query, orderID).Scan(&lines, &quantity, &amount); err != nil {
		r.logger.Error().Err(err).Str("order_id", orderID.String()).Msg("failed to summarise order items")
		return 0, 0, decimal.Zero, fmt.Errorf("failed to summarise order items: %w", err)
	}

	return lines, quantity, amount, nil
}

// CountActivationFacts counts lines and lines without an active price book entry.
func (r *orderItemRepository) CountActivationFacts(ctx context.Context, tx pgx.Tx, orderID uuid.UUID, priceBookID string) (int, int, error) {
	query := `
		SELECT COUNT(*), COUNT(*) FILTER (WHERE e.product_id IS NULL)
		FROM order_items oi
		LEFT JOIN (price_book_entries e JOIN price_books b ON b.id = e.price_book_id AND b.is_active)
		  ON e.product_id = oi.product_id AND e.price_book_id = $2 AND e.is_active
		WHERE oi.order_id = $1
	`

	var lines, unpriced int
	if err := tx.QueryRow(ctx, query, orderID, priceBookID).Scan(&lines, &unpriced); err != nil {
		r.logger.Error().Err(err).Str("order_id", orderID.String()).Msg("failed to count activation facts")
		return 0, 0, fmt.Errorf("failed to count activation facts: %w", err)
	}

	return lines, unpriced, nil
}

func (r *orderItemRepository) collect(rows pgx.Rows) ([]model.OrderLineItem, error) {
	defer rows.Close()

	items := []model.OrderLineItem{}
	for rows.Next() {
		var item model.OrderLineItem
		err := rows.Scan(
			&item.ID,
			&item.OrderID,
			&item.ProductID,
			&item.ProductName,
			&item.ParentProductName,
			&item.UnitPrice,
			&item.Quantity,
			&item.TotalPrice,
			&item.LineNumber,
			&item.CreatedAt,
			&item.UpdatedAt,
		)
		if err != nil {
			r.logger.Error().Err(err).Msg("failed to scan order item row")
			return nil, fmt.Errorf("failed to scan order item: %w", err)
		}
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating order item rows")
		return nil, fmt.Errorf("error iterating order items: %w", err)
	}

	return items, nil
}
