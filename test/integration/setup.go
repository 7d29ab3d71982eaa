package integration

import (
	"context"
	"fmt"
	"testing"
	"time"

	"order-composer/internal/catalogimport"
	"order-composer/internal/config"
	"order-composer/internal/database"
	"order-composer/internal/repository"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// TestDB represents a test database instance.
type TestDB struct {
	Container *postgres.PostgresContainer
	Pool      *pgxpool.Pool
	ConnStr   string
}

// SetupTestDB creates a PostgreSQL test container, a connection pool and the schema.
func SetupTestDB(t *testing.T) *TestDB {
	t.Helper()

	ctx := context.Background()

	// Create PostgreSQL container
	postgresContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}

	// Get connection string
	connStr, err := postgresContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("failed to get connection string: %v", err)
	}

	// Create connection pool
	dbConfig := config.DatabaseConfig{
		MaxConnections:  10,
		MinConnections:  2,
		MaxConnLifetime: 300,
	}

	logger := zerolog.Nop()
	pool, err := database.NewPoolFromConnString(ctx, connStr, dbConfig, logger)
	if err != nil {
		t.Fatalf("failed to create connection pool: %v", err)
	}

	t.Cleanup(func() {
		pool.Close()
		if err := postgresContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	// Create schema
	if err := database.Migrate(ctx, pool, logger); err != nil {
		t.Fatalf("failed to create schema: %v", err)
	}

	return &TestDB{
		Container: postgresContainer,
		Pool:      pool,
		ConnStr:   connStr,
	}
}

// SeedCatalog imports the test catalog:
//
//	PB-STD  P1 Laptops  {C1 $10, C2 $15}
//	        P2 Monitors {C3 $200}
//	PB-OLD  inactive, P1 {C1 $9}
func SeedCatalog(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()

	inactive := false
	docs := []catalogimport.Document{
		{
			PriceBook: catalogimport.PriceBookDoc{ID: "PB-STD", Name: "Standard"},
			Products: []catalogimport.ParentDoc{
				{
					ID: "P1", Name: "Laptops",
					Children: []catalogimport.ChildDoc{
						{ID: "C1", Name: "Laptop 13", Price: "10.00"},
						{ID: "C2", Name: "Laptop 15", Price: "15.00"},
					},
				},
				{
					ID: "P2", Name: "Monitors",
					Children: []catalogimport.ChildDoc{{ID: "C3", Name: "Monitor 27", Price: "200.00"}},
				},
			},
		},
		{
			PriceBook: catalogimport.PriceBookDoc{ID: "PB-OLD", Name: "Retired", Active: &inactive},
			Products: []catalogimport.ParentDoc{
				{ID: "P1", Name: "Laptops", Children: []catalogimport.ChildDoc{{ID: "C1", Name: "Laptop 13", Price: "9.00"}}},
			},
		},
	}

	cat, err := catalogimport.Build(docs)
	if err != nil {
		t.Fatalf("failed to build catalog: %v", err)
	}

	importer := catalogimport.NewImporter(repository.NewProductRepository(pool, zerolog.Nop()), zerolog.Nop())
	if _, err := importer.Import(context.Background(), cat); err != nil {
		t.Fatalf("failed to seed catalog: %v", err)
	}
}

// CleanupDB cleans all data from test tables.
func CleanupDB(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()

	ctx := context.Background()

	tables := []string{"order_items", "orders", "price_book_entries", "products", "price_books"}
	for _, table := range tables {
		_, err := pool.Exec(ctx, fmt.Sprintf("DELETE FROM %s", table))
		if err != nil {
			t.Logf("failed to clean table %s: %v", table, err)
		}
	}
}
