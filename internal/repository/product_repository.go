package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"order-composer/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

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

// BeginTx starts a new database transaction.
func (r *productRepository) BeginTx(ctx context.Context) (pgx.Tx, error) {
	return beginTx(ctx, r.pool, r.logger)
}

// SearchCatalog returns the priced children of the price book with their parents.
// A deactivated price book prices nothing.
func (r *productRepository) SearchCatalog(ctx context.Context, priceBookID string, orderID uuid.UUID, parentNameTerm string) ([]model.CatalogRow, error) {
	query := `
		SELECT p.id, p.name, p.product_code, p.description, p.created_at,
		       c.id, c.name, c.product_code, c.description, c.parent_id, c.created_at,
		       e.unit_price, COALESCE(oi.quantity, 0)
		FROM products c
		JOIN products p ON p.id = c.parent_id
		JOIN price_book_entries e
		  ON e.product_id = c.id AND e.price_book_id = $1 AND e.is_active
		JOIN price_books b ON b.id = e.price_book_id AND b.is_active
		LEFT JOIN order_items oi
		  ON oi.product_id = c.id AND oi.order_id = $2
		WHERE p.parent_id IS NULL
		  AND ($3::text = '' OR p.name ILIKE '%' || $3::text || '%' ESCAPE '\')
		ORDER BY p.name, p.id, c.name, c.id
	`

	rows, err := r.pool.Query(ctx, query, priceBookID, orderID, escapeLike(parentNameTerm))
	if err != nil {
		r.logger.Error().Err(err).
			Str("price_book_id", priceBookID).
			Str("order_id", orderID.String()).
			Msg("failed to query catalog")
		return nil, fmt.Errorf("failed to query catalog: %w", err)
	}
	defer rows.Close()

	var catalog []model.CatalogRow
	for rows.Next() {
		var row model.CatalogRow
		err := rows.Scan(
			&row.Parent.ID, &row.Parent.Name, &row.Parent.ProductCode, &row.Parent.Description, &row.Parent.CreatedAt,
			&row.Child.ID, &row.Child.Name, &row.Child.ProductCode, &row.Child.Description, &row.Child.ParentID, &row.Child.CreatedAt,
			&row.ListPrice, &row.QuantityInOrder,
		)
		if err != nil {
			r.logger.Error().Err(err).Msg("failed to scan catalog row")
			return nil, fmt.Errorf("failed to scan catalog row: %w", err)
		}
		catalog = append(catalog, row)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating catalog rows")
		return nil, fmt.Errorf("error iterating catalog rows: %w", err)
	}

	return catalog, nil
}

// GetPricedProducts resolves orderable children with an active entry in an
// active price book.
func (r *productRepository) GetPricedProducts(ctx context.Context, tx pgx.Tx, priceBookID string, productIDs []string) (map[string]model.PricedProduct, error) {
	priced := make(map[string]model.PricedProduct, len(productIDs))
	if len(productIDs) == 0 {
		return priced, nil
	}

	query := `
		SELECT c.id, c.name, p.name, e.unit_price
		FROM products c
		JOIN products p ON p.id = c.parent_id
		JOIN price_book_entries e
		  ON e.product_id = c.id AND e.price_book_id = $1 AND e.is_active
		JOIN price_books b ON b.id = e.price_book_id AND b.is_active
		WHERE c.id = ANY($2)
	`

	rows, err := tx.Query(ctx, query, priceBookID, productIDs)
	if err != nil {
		r.logger.Error().Err(err).
			Str("price_book_id", priceBookID).
			Int("count", len(productIDs)).
			Msg("failed to query priced products")
		return nil, fmt.Errorf("failed to query priced products: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var p model.PricedProduct
		if err := rows.Scan(&p.ProductID, &p.ProductName, &p.ParentProductName, &p.UnitPrice); err != nil {
			r.logger.Error().Err(err).Msg("failed to scan priced product row")
			return nil, fmt.Errorf("failed to scan priced product: %w", err)
		}
		priced[p.ProductID] = p
	}

	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating priced product rows")
		return nil, fmt.Errorf("error iterating priced products: %w", err)
	}

	return priced, nil
}

// IsPriceBookActive reports whether the price book exists and is active.
func (r *productRepository) IsPriceBookActive(ctx context.Context, tx pgx.Tx, priceBookID string) (bool, error) {
	var active bool
	err := tx.QueryRow(ctx, `SELECT is_active FROM price_books WHERE id = $1`, priceBookID).Scan(&active)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		r.logger.Error().Err(err).Str("price_book_id", priceBookID).Msg("failed to query price book")
		return false, fmt.Errorf("failed to query price book: %w", err)
	}
	return active, nil
}

// UpsertPriceBook inserts or updates a price book.
func (r *productRepository) UpsertPriceBook(ctx context.Context, tx pgx.Tx, book model.PriceBook) error {
	query := `
		INSERT INTO price_books (id, name, is_active)
		VALUES ($1, $2, $3)
		ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, is_active = EXCLUDED.is_active
	`

	if _, err := tx.Exec(ctx, query, book.ID, book.Name, book.IsActive); err != nil {
		r.logger.Error().Err(err).Str("price_book_id", book.ID).Msg("failed to upsert price book")
		return fmt.Errorf("failed to upsert price book: %w", err)
	}
	return nil
}

// UpsertProducts inserts or updates products in the given order.
func (r *productRepository) UpsertProducts(ctx context.Context, tx pgx.Tx, products []model.Product) error {
	if len(products) == 0 {
		return nil
	}

	query := `
		INSERT INTO products (id, name, product_code, description, parent_id)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE
		SET name = EXCLUDED.name,
		    product_code = EXCLUDED.product_code,
		    description = EXCLUDED.description,
		    parent_id = EXCLUDED.parent_id
	`

	batch := &pgx.Batch{}
	for _, p := range products {
		batch.Queue(query, p.ID, p.Name, p.ProductCode, p.Description, p.ParentID)
	}

	return r.execBatch(ctx, tx, batch, len(products), "product", func(i int) string { return products[i].ID })
}

// UpsertPriceBookEntries inserts or updates price book entries.
func (r *productRepository) UpsertPriceBookEntries(ctx context.Context, tx pgx.Tx, entries []model.PriceBookEntry) error {
	if len(entries) == 0 {
		return nil
	}

	query := `
		INSERT INTO price_book_entries (price_book_id, product_id, unit_price, is_active)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (price_book_id, product_id) DO UPDATE
		SET unit_price = EXCLUDED.unit_price, is_active = EXCLUDED.is_active
	`

	batch := &pgx.Batch{}
	for _, e := range entries {
		batch.Queue(query, e.PriceBookID, e.ProductID, e.UnitPrice, e.IsActive)
	}

	return r.execBatch(ctx, tx, batch, len(entries), "price book entry", func(i int) string { return entries[i].ProductID })
}

func (r *productRepository) execBatch(ctx context.Context, tx pgx.Tx, batch *pgx.Batch, n int, what string, idOf func(int) string) error {
	results := tx.SendBatch(ctx, batch)
	defer results.Close()

	for i := 0; i < n; i++ {
		if _, err := results.Exec(); err != nil {
			r.logger.Error().
				Err(err).
				Str("product_id", idOf(i)).
				Msgf("failed to upsert %s", what)
			return fmt.Errorf("failed to upsert %s %s: %w", what, idOf(i), err)
		}
	}

	r.logger.Debug().Int("count", n).Msgf("%s rows upserted", what)
	return nil
}

// escapeLike escapes LIKE wildcards so the term matches literally.
func escapeLike(term string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(term)
}
