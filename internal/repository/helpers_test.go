package repository

import (
	"context"
	"testing"
	"time"

	"order-composer/internal/database"
	"order-composer/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// setupTestDB starts a PostgreSQL container and applies the schema.
func setupTestDB(t *testing.T) (*pgxpool.Pool, func()) {
	if testing.Short() {
		t.Skip("skipping database test in short mode")
	}

	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("postgres"),
		postgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err)

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	pool, err := pgxpool.New(ctx, connStr)
	require.NoError(t, err)

	require.NoError(t, database.Migrate(ctx, pool, zerolog.Nop()))

	cleanup := func() {
		pool.Close()
		_ = pgContainer.Terminate(ctx)
	}

	return pool, cleanup
}

const testPriceBook = "PB-STD"

func strPtr(s string) *string { return &s }

// seedCatalog loads two parents with priced, unpriced and inactive children:
//
//	Laptops  (P1): C1 10.00, C2 15.00, C5 inactive entry
//	Monitors (P2): C3 200.00, C4 no entry
//	Cables_% (P3): C6 3.50
func seedCatalog(t *testing.T, pool *pgxpool.Pool) {
	ctx := context.Background()

	_, err := pool.Exec(ctx, `
		INSERT INTO price_books (id, name, is_active) VALUES ('PB-STD', 'Standard', TRUE), ('PB-OLD', 'Retired', FALSE);

		INSERT INTO products (id, name, parent_id) VALUES
			('P1', 'Laptops', NULL),
			('P2', 'Monitors', NULL),
			('P3', 'Cables_%', NULL),
			('C1', 'Laptop 13', 'P1'),
			('C2', 'Laptop 15', 'P1'),
			('C5', 'Laptop 17', 'P1'),
			('C3', 'Monitor 27', 'P2'),
			('C4', 'Monitor 32', 'P2'),
			('C6', 'USB-C Cable', 'P3');

		INSERT INTO price_book_entries (price_book_id, product_id, unit_price, is_active) VALUES
			('PB-STD', 'C1', 10.00, TRUE),
			('PB-STD', 'C2', 15.00, TRUE),
			('PB-STD', 'C5', 20.00, FALSE),
			('PB-STD', 'C3', 200.00, TRUE),
			('PB-STD', 'C6', 3.50, TRUE),
			('PB-STD', 'P1', 1.00, TRUE);
	`)
	require.NoError(t, err)
}

// insertOrder creates a Draft order on the standard price book.
func insertOrder(t *testing.T, pool *pgxpool.Pool) uuid.UUID {
	ctx := context.Background()
	repo := NewOrderRepository(pool, zerolog.Nop())

	now := time.Now().UTC()
	order := &model.Order{
		ID:          uuid.New(),
		Status:      model.OrderStatusDraft,
		PriceBookID: testPriceBook,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	tx, err := repo.BeginTx(ctx)
	require.NoError(t, err)
	require.NoError(t, repo.CreateOrder(ctx, tx, order))
	require.NoError(t, tx.Commit(ctx))

	return order.ID
}

// insertLines adds lines to an order and returns their IDs in the given order.
func insertLines(t *testing.T, pool *pgxpool.Pool, orderID uuid.UUID, lines ...model.LineUpsert) []uuid.UUID {
	ctx := context.Background()
	repo := NewOrderItemRepository(pool, zerolog.Nop())

	ids := make([]uuid.UUID, len(lines))
	for i := range lines {
		if lines[i].ID == uuid.Nil {
			lines[i].ID = uuid.New()
		}
		lines[i].OrderID = orderID
		ids[i] = lines[i].ID
	}

	tx, err := pool.Begin(ctx)
	require.NoError(t, err)
	require.NoError(t, repo.UpsertItems(ctx, tx, lines))
	require.NoError(t, tx.Commit(ctx))

	return ids
}

func line(productID, price string, qty int) model.LineUpsert {
	return model.LineUpsert{ProductID: productID, UnitPrice: decimal.RequireFromString(price), Quantity: qty}
}
