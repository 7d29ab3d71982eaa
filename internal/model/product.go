package model

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Product is a catalog entry. Products with a ParentID are orderable children;
// products without one are parents that only group children.
type Product struct {
	ID          string    `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	ProductCode string    `json:"productCode" db:"product_code"`
	Description string    `json:"description" db:"description"`
	ParentID    *string   `json:"parentId,omitempty" db:"parent_id"`
	CreatedAt   time.Time `json:"createdAt" db:"created_at"`
}

// NodeType tags the catalog node variants on the wire.
type NodeType string

const (
	NodeTypeParent NodeType = "parent"
	NodeTypeChild  NodeType = "child"
)

// CatalogNode is implemented by ParentNode and ChildNode only.
type CatalogNode interface {
	NodeType() NodeType
	catalogNode()
}

// ParentNode is a grouping product with its orderable children.
type ParentNode struct {
	Product  Product     `json:"product"`
	Children []ChildNode `json:"children"`
}

// ChildNode is an orderable product priced against the order's price book.
type ChildNode struct {
	Product         Product         `json:"product"`
	ParentID        string          `json:"parentId"`
	ListPrice       decimal.Decimal `json:"listPrice"`
	QuantityInOrder int             `json:"quantityInOrder"`
}

func (ParentNode) NodeType() NodeType { return NodeTypeParent }
func (ParentNode) catalogNode()       {}
func (ChildNode) NodeType() NodeType  { return NodeTypeChild }
func (ChildNode) catalogNode()        {}

// MarshalJSON adds the variant tag.
func (p ParentNode) MarshalJSON() ([]byte, error) {
	type alias ParentNode
	children := p.Children
	if children == nil {
		children = []ChildNode{}
	}
	a := alias(p)
	a.Children = children
	return json.Marshal(struct {
		Type NodeType `json:"type"`
		alias
	}{NodeTypeParent, a})
}

// MarshalJSON adds the variant tag.
func (c ChildNode) MarshalJSON() ([]byte, error) {
	type alias ChildNode
	return json.Marshal(struct {
		Type NodeType `json:"type"`
		alias
	}{NodeTypeChild, alias(c)})
}

// CatalogRow is one priced child joined with its parent, as read from storage.
type CatalogRow struct {
	Parent          Product
	Child           Product
	ListPrice       decimal.Decimal
	QuantityInOrder int
}

// BuildCatalog groups rows, already ordered by parent then child, into parent
// nodes. Rows that break the hierarchy or carry a negative price are rejected.
func BuildCatalog(rows []CatalogRow) ([]ParentNode, error) {
	groups := make([]ParentNode, 0)
	index := make(map[string]int)

	for i, row := range rows {
		if row.Parent.ID == "" || row.Child.ID == "" {
			return nil, fmt.Errorf("catalog row %d: parent and child IDs are required", i)
		}
		if row.Child.ParentID == nil || *row.Child.ParentID != row.Parent.ID {
			return nil, fmt.Errorf("catalog row %d: product %s is not a child of %s", i, row.Child.ID, row.Parent.ID)
		}
		if row.Parent.ParentID != nil {
			return nil, fmt.Errorf("catalog row %d: parent %s is itself a child", i, row.Parent.ID)
		}
		if row.ListPrice.IsNegative() {
			return nil, fmt.Errorf("catalog row %d: product %s has a negative list price", i, row.Child.ID)
		}
		if row.QuantityInOrder < 0 {
			return nil, fmt.Errorf("catalog row %d: product %s has a negative order quantity", i, row.Child.ID)
		}

		pos, ok := index[row.Parent.ID]
		if !ok {
			pos = len(groups)
			index[row.Parent.ID] = pos
			groups = append(groups, ParentNode{Product: row.Parent})
		}

		groups[pos].Children = append(groups[pos].Children, ChildNode{
			Product:         row.Child,
			ParentID:        row.Parent.ID,
			ListPrice:       row.ListPrice,
			QuantityInOrder: row.QuantityInOrder,
		})
	}

	return groups, nil
}

// PriceBook is a named set of price assignments.
type PriceBook struct {
	ID       string `json:"id" db:"id"`
	Name     string `json:"name" db:"name"`
	IsActive bool   `json:"isActive" db:"is_active"`
}

// PriceBookEntry assigns a unit price to a product within a price book.
type PriceBookEntry struct {
	PriceBookID string          `json:"priceBookId" db:"price_book_id"`
	ProductID   string          `json:"productId" db:"product_id"`
	UnitPrice   decimal.Decimal `json:"unitPrice" db:"unit_price"`
	IsActive    bool            `json:"isActive" db:"is_active"`
}

// PricedProduct is an orderable child resolved against an active entry.
type PricedProduct struct {
	ProductID         string
	ProductName       string
	ParentProductName string
	UnitPrice         decimal.Decimal
}
