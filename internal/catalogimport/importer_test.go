package catalogimport

import (
	"context"
	"testing"
	"time"

	"order-composer/internal/database"
	"order-composer/internal/repository"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

func setupTestDB(t *testing.T) *pgxpool.Pool {
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
	t.Cleanup(func() { _ = pgContainer.Terminate(ctx) })

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	pool, err := pgxpool.New(ctx, connStr)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	require.NoError(t, database.Migrate(ctx, pool, zerolog.Nop()))
	return pool
}

func TestImporter_Import(t *testing.T) {
	pool := setupTestDB(t)
	ctx := context.Background()

	products := repository.NewProductRepository(pool, zerolog.Nop())
	importer := NewImporter(products, zerolog.Nop())

	cat, err := Build(sampleDocs())
	require.NoError(t, err)

	stats, err := importer.Import(ctx, cat)
	require.NoError(t, err)
	assert.Equal(t, Stats{PriceBooks: 2, Products: 7, Entries: 6}, stats)

	// Only priced, active children of PB-STD are searchable.
	rows, err := products.SearchCatalog(ctx, "PB-STD", uuid.New(), "")
	require.NoError(t, err)
	ids := make([]string, len(rows))
	for i, r := range rows {
		ids[i] = r.Child.ID
	}
	assert.ElementsMatch(t, []string{"C1", "C2", "C3"}, ids)

	// Importing again is an upsert.
	docs := sampleDocs()
	docs[0].Products[0].Children[1].Price = "16.00"
	cat, err = Build(docs)
	require.NoError(t, err)
	_, err = importer.Import(ctx, cat)
	require.NoError(t, err)

	var price decimal.Decimal
	require.NoError(t, pool.QueryRow(ctx,
		`SELECT unit_price FROM price_book_entries WHERE price_book_id = 'PB-STD' AND product_id = 'C2'`).Scan(&price))
	assert.True(t, decimal.RequireFromString("16").Equal(price))

	var count int
	require.NoError(t, pool.QueryRow(ctx, `SELECT COUNT(*) FROM products`).Scan(&count))
	assert.Equal(t, 7, count)
}

func TestImporter_LoadAndImport(t *testing.T) {
	pool := setupTestDB(t)
	ctx := context.Background()

	importer := NewImporter(repository.NewProductRepository(pool, zerolog.Nop()), zerolog.Nop())
	path := writeGzip(t, "catalog.yaml.gz", handWritten)

	stats, err := importer.LoadAndImport(ctx, NewFileLoader(zerolog.Nop()), path)

	require.NoError(t, err)
	assert.Equal(t, Stats{PriceBooks: 2, Products: 3, Entries: 2}, stats)
}

func TestImporter_LoadAndImport_InvalidCatalog(t *testing.T) {
	importer := NewImporter(nil, zerolog.Nop())
	loader := &mockLoader{
		loadFunc: func(ctx context.Context, filePath string) ([]Document, error) {
			return []Document{{Products: []ParentDoc{{ID: "P1", Name: "Laptops"}}}}, nil
		},
	}

	_, err := importer.LoadAndImport(context.Background(), loader, "bad.yaml.gz")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to build catalog")
}
