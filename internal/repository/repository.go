package repository

import (
	"context"
	"time"

	"order-composer/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// TxBeginner starts transactions that repository writes run inside.
type TxBeginner interface {
	// BeginTx starts a new database transaction.
	BeginTx(ctx context.Context) (pgx.Tx, error)
}

// ProductRepository defines the interface for catalog and price book access.
type ProductRepository interface {
	TxBeginner

	// SearchCatalog returns every child product with an active entry in the
	// price book, joined with its parent and annotated with the quantity already
	// on the order. A non-empty parentNameTerm keeps only parents whose name
	// contains it, case-insensitively. Rows are ordered by parent, then child.
	SearchCatalog(ctx context.Context, priceBookID string, orderID uuid.UUID, parentNameTerm string) ([]model.CatalogRow, error)

	// GetPricedProducts resolves the orderable children among productIDs that
	// hold an active entry in the price book, keyed by product ID.
	GetPricedProducts(ctx context.Context, tx pgx.Tx, priceBookID string, productIDs []string) (map[string]model.PricedProduct, error)

	// IsPriceBookActive reports whether the price book exists and is active.
	IsPriceBookActive(ctx context.Context, tx pgx.Tx, priceBookID string) (bool, error)

	// UpsertPriceBook inserts or updates a price book.
	UpsertPriceBook(ctx context.Context, tx pgx.Tx, book model.PriceBook) error

	// UpsertProducts inserts or updates products in the given order.
	UpsertProducts(ctx context.Context, tx pgx.Tx, products []model.Product) error

	// UpsertPriceBookEntries inserts or updates price book entries.
	UpsertPriceBookEntries(ctx context.Context, tx pgx.Tx, entries []model.PriceBookEntry) error
}

// OrderRepository defines the interface for order data access operations.
type OrderRepository interface {
	TxBeginner

	// CreateOrder inserts a new order within the provided transaction.
	CreateOrder(ctx context.Context, tx pgx.Tx, order *model.Order) error

	// GetByID retrieves an order by its ID. Returns nil when absent.
	GetByID(ctx context.Context, id uuid.UUID) (*model.Order, error)

	// GetForUpdate retrieves and row-locks an order inside the transaction.
	// Returns nil when absent.
	GetForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*model.Order, error)

	// UpdateStatus sets the order status within the provided transaction.
	UpdateStatus(ctx context.Context, tx pgx.Tx, id uuid.UUID, status model.OrderStatus, at time.Time) error
}

// OrderItemRepository defines the interface for order line item access.
type OrderItemRepository interface {
	// UpsertItems creates lines or, for an existing (order, product) pair,
	// replaces the quantity and keeps the original unit price.
	UpsertItems(ctx context.Context, tx pgx.Tx, items []model.LineUpsert) error

	// GetByIDs retrieves the existing items among ids within the transaction.
	GetByIDs(ctx context.Context, tx pgx.Tx, ids []uuid.UUID) ([]model.OrderLineItem, error)

	// UpdateQuantities sets the quantity of each item. Returns the number of
	// rows changed.
	UpdateQuantities(ctx context.Context, tx pgx.Tx, quantities map[uuid.UUID]int) (int, error)

	// DeleteByIDs removes the items and returns how many rows were deleted.
	DeleteByIDs(ctx context.Context, tx pgx.Tx, ids []uuid.UUID) (int, error)

	// ListByOrder returns an order's items ordered by line number.
	ListByOrder(ctx context.Context, orderID uuid.UUID, limit, offset int) ([]model.OrderLineItem, error)

	// Summarize aggregates an order's lines.
	Summarize(ctx context.Context, orderID uuid.UUID) (lines int, quantity int, amount decimal.Decimal, err error)

	// CountActivationFacts counts the order's lines and those whose product has
	// no active entry in the price book, within the transaction.
	CountActivationFacts(ctx context.Context, tx pgx.Tx, orderID uuid.UUID, priceBookID string) (lines int, unpriced int, err error)
}
