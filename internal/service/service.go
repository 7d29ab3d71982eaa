package service

import (
	"context"

	"order-composer/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// CatalogService answers product searches against an order's price book.
type CatalogService interface {
	// ListAvailableProducts returns the parents that have at least one child
	// priced in the order's price book, each with those children. A non-blank
	// searchTerm keeps parents whose name contains it, ignoring case.
	ListAvailableProducts(ctx context.Context, orderID uuid.UUID, searchTerm string) ([]model.ParentNode, error)
}

// OrderItemService defines operations on an order's line items.
type OrderItemService interface {
	// AddOrUpdateQuantities creates a line per product or replaces the quantity
	// of the existing one. Returns the number of lines affected.
	AddOrUpdateQuantities(ctx context.Context, orderID uuid.UUID, productIDToQuantity map[string]int) (int, error)

	// UpdateQuantities sets the quantity of existing lines, possibly spanning orders.
	UpdateQuantities(ctx context.Context, orderItemIDToQuantity map[uuid.UUID]int) (int, error)

	// DeleteItems removes lines. Unknown IDs are ignored and not counted.
	DeleteItems(ctx context.Context, orderItemIDs []uuid.UUID) (int, error)

	// Provision adds products to an existing order, or to a new Draft order
	// when the request carries no order ID.
	Provision(ctx context.Context, req *model.ProvisionRequest) (*model.ProvisionResult, error)

	// ListOrderItems returns one page of an order's lines in line-number order.
	ListOrderItems(ctx context.Context, orderID uuid.UUID, offset, pageSize int) (*model.Page, error)

	// Summary aggregates an order's lines.
	Summary(ctx context.Context, orderID uuid.UUID) (*model.OrderSummary, error)
}

// ActivationService owns the Draft to Activated transition.
type ActivationService interface {
	// CanActivate evaluates the activation rule against current data.
	CanActivate(ctx context.Context, orderID uuid.UUID) (bool, error)

	// Activate moves a Draft order to Activated.
	Activate(ctx context.Context, orderID uuid.UUID) (*model.Order, error)

	// EnsureDraft locks the order row in tx and fails unless it is a Draft.
	EnsureDraft(ctx context.Context, tx pgx.Tx, orderID uuid.UUID) (*model.Order, error)

	// GetOrder retrieves an order.
	GetOrder(ctx context.Context, orderID uuid.UUID) (*model.Order, error)
}
