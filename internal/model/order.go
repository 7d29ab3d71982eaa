package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderStatus is the activation state of an order.
type OrderStatus string

const (
	OrderStatusDraft     OrderStatus = "Draft"
	OrderStatusActivated OrderStatus = "Activated"
)

// Order is the aggregate root for line items.
type Order struct {
	ID          uuid.UUID   `json:"id" db:"id"`
	Status      OrderStatus `json:"status" db:"status"`
	PriceBookID string      `json:"priceBookId" db:"price_book_id"`
	CreatedAt   time.Time   `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time   `json:"updatedAt" db:"updated_at"`
	ActivatedAt *time.Time  `json:"activatedAt,omitempty" db:"activated_at"`
}

// IsActivated reports whether the order reached its terminal state.
func (o *Order) IsActivated() bool {
	return o.Status == OrderStatusActivated
}

// OrderLineItem links one order to one child product with a quantity.
type OrderLineItem struct {
	ID                uuid.UUID       `json:"id" db:"id"`
	OrderID           uuid.UUID       `json:"orderId" db:"order_id"`
	ProductID         string          `json:"productId" db:"product_id"`
	ProductName       string          `json:"productName" db:"product_name"`
	ParentProductName string          `json:"parentProductName" db:"parent_product_name"`
	UnitPrice         decimal.Decimal `json:"unitPrice" db:"unit_price"`
	Quantity          int             `json:"quantity" db:"quantity"`
	TotalPrice        decimal.Decimal `json:"totalPrice" db:"total_price"`
	LineNumber        int64           `json:"lineNumber" db:"line_number"`
	CreatedAt         time.Time       `json:"createdAt" db:"created_at"`
	UpdatedAt         time.Time       `json:"updatedAt" db:"updated_at"`
}

// LineTotal returns unitPrice × quantity.
func LineTotal(unitPrice decimal.Decimal, quantity int) decimal.Decimal {
	return unitPrice.Mul(decimal.NewFromInt(int64(quantity)))
}

// LineUpsert is a single (order, product) write inside an add batch.
type LineUpsert struct {
	ID        uuid.UUID
	OrderID   uuid.UUID
	ProductID string
	UnitPrice decimal.Decimal
	Quantity  int
}

// Page is one slice of an order's line items.
type Page struct {
	Items    []OrderLineItem `json:"items"`
	Offset   int             `json:"offset"`
	PageSize int             `json:"pageSize"`
	HasMore  bool            `json:"hasMore"`
}

// OrderSummary aggregates an order's line items.
type OrderSummary struct {
	Order         Order           `json:"order"`
	LineCount     int             `json:"lineCount"`
	TotalQuantity int             `json:"totalQuantity"`
	TotalAmount   decimal.Decimal `json:"totalAmount"`
}

// ActivationFacts are the inputs of the activation rule, read in the same
// transaction that performs the transition.
type ActivationFacts struct {
	Status            OrderStatus
	LineCount         int
	UnpricedLineCount int
}

// CanActivate is the activation rule: a Draft order with at least one line,
// every line's product still holding an active entry in the order's price book.
func CanActivate(f ActivationFacts) bool {
	return f.Status == OrderStatusDraft && f.LineCount > 0 && f.UnpricedLineCount == 0
}

// ProvisionRequest represents the request payload for the provisioning endpoint.
// When OrderID is nil a Draft order is created for PriceBookID.
type ProvisionRequest struct {
	OrderID             *uuid.UUID     `json:"orderId,omitempty"`
	PriceBookID         string         `json:"priceBookId,omitempty"`
	ProductIDToQuantity map[string]int `json:"productIdToQuantity"`
}

// ProvisionResult represents the response payload of the provisioning endpoint.
type ProvisionResult struct {
	Affected int           `json:"affected"`
	Order    *OrderSummary `json:"order"`
}

// AddItemsRequest represents the request payload for adding products to an order.
type AddItemsRequest struct {
	ProductIDToQuantity map[string]int `json:"productIdToQuantity"`
}

// UpdateItemsRequest represents the request payload for editing line quantities.
type UpdateItemsRequest struct {
	OrderItemIDToQuantity map[uuid.UUID]int `json:"orderItemIdToQuantity"`
}

// DeleteItemsRequest represents the request payload for removing line items.
type DeleteItemsRequest struct {
	OrderItemIDs []uuid.UUID `json:"orderItemIds"`
}

// AffectedResponse reports how many line items a mutation touched.
type AffectedResponse struct {
	Affected int `json:"affected"`
}

// ActivationResponse reports whether an order may be activated.
type ActivationResponse struct {
	OrderID     uuid.UUID `json:"orderId"`
	CanActivate bool      `json:"canActivate"`
}
