// Package catalogimport loads product catalogs and price books from gzipped
// multi-document YAML files and writes them to the database.
package catalogimport

import (
	"context"
	"fmt"

	"order-composer/internal/model"

	"github.com/shopspring/decimal"
)

// Document is one YAML document of a catalog file: a price book and the
// products it prices.
type Document struct {
	PriceBook PriceBookDoc `yaml:"priceBook"`
	Products  []ParentDoc  `yaml:"products"`
}

// PriceBookDoc describes a price book. Active defaults to true.
type PriceBookDoc struct {
	ID     string `yaml:"id"`
	Name   string `yaml:"name"`
	Active *bool  `yaml:"active,omitempty"`
}

// ParentDoc is a grouping product. A parent may carry its own price, but it
// never becomes orderable.
type ParentDoc struct {
	ID          string     `yaml:"id"`
	Name        string     `yaml:"name"`
	Code        string     `yaml:"code,omitempty"`
	Description string     `yaml:"description,omitempty"`
	Price       string     `yaml:"price,omitempty"`
	Children    []ChildDoc `yaml:"children"`
}

// ChildDoc is an orderable product. An empty Price leaves the product
// unpriced in the document's price book.
type ChildDoc struct {
	ID          string `yaml:"id"`
	Name        string `yaml:"name"`
	Code        string `yaml:"code,omitempty"`
	Description string `yaml:"description,omitempty"`
	Price       string `yaml:"price,omitempty"`
	Active      *bool  `yaml:"active,omitempty"`
}

// Catalog is the validated, flattened content of one or more documents.
// Products lists every parent before any child.
type Catalog struct {
	PriceBooks []model.PriceBook
	Products   []model.Product
	Entries    []model.PriceBookEntry
}

// Loader reads a catalog file.
type Loader interface {
	// Load reads a gzipped YAML catalog file and returns its documents.
	Load(ctx context.Context, path string) ([]Document, error)
}

// builder accumulates products and entries, letting later definitions
// replace earlier ones in place.
type builder struct {
	books    []model.PriceBook
	bookSeen map[string]bool

	parents, children []model.Product
	productAt         map[string]int
	parentOf          map[string]string // "" for parents

	entries []model.PriceBookEntry
	entryAt map[[2]string]int
}

func (b *builder) addBook(pb PriceBookDoc) {
	if b.bookSeen[pb.ID] {
		return
	}
	b.bookSeen[pb.ID] = true
	name := pb.Name
	if name == "" {
		name = pb.ID
	}
	b.books = append(b.books, model.PriceBook{ID: pb.ID, Name: name, IsActive: boolOr(pb.Active, true)})
}

func (b *builder) setProduct(list *[]model.Product, p model.Product) {
	if i, ok := b.productAt[p.ID]; ok {
		(*list)[i] = p
		return
	}
	b.productAt[p.ID] = len(*list)
	*list = append(*list, p)
}

func (b *builder) addEntry(e model.PriceBookEntry) {
	key := [2]string{e.PriceBookID, e.ProductID}
	if i, ok := b.entryAt[key]; ok {
		b.entries[i] = e
		return
	}
	b.entryAt[key] = len(b.entries)
	b.entries = append(b.entries, e)
}

// Build validates docs and flattens them. A product may appear in several
// documents as long as its parent does not change; the last definition wins.
func Build(docs []Document) (*Catalog, error) {
	b := &builder{
		bookSeen:  make(map[string]bool),
		productAt: make(map[string]int),
		parentOf:  make(map[string]string),
		entryAt:   make(map[[2]string]int),
	}

	for d, doc := range docs {
		pb := doc.PriceBook
		if pb.ID == "" {
			return nil, fmt.Errorf("document %d: price book id is required", d)
		}
		b.addBook(pb)

		for _, p := range doc.Products {
			if p.ID == "" || p.Name == "" {
				return nil, fmt.Errorf("document %d: parent products need an id and a name", d)
			}
			if prev, ok := b.parentOf[p.ID]; ok && prev != "" {
				return nil, fmt.Errorf("document %d: %s is a child of %s and cannot be a parent", d, p.ID, prev)
			}
			b.parentOf[p.ID] = ""
			b.setProduct(&b.parents, model.Product{ID: p.ID, Name: p.Name, ProductCode: p.Code, Description: p.Description})

			if p.Price != "" {
				price, err := parsePrice(p.ID, p.Price)
				if err != nil {
					return nil, fmt.Errorf("document %d: %w", d, err)
				}
				b.addEntry(model.PriceBookEntry{PriceBookID: pb.ID, ProductID: p.ID, UnitPrice: price, IsActive: true})
			}

			for _, c := range p.Children {
				if c.ID == "" || c.Name == "" {
					return nil, fmt.Errorf("document %d: children of %s need an id and a name", d, p.ID)
				}
				if prev, ok := b.parentOf[c.ID]; ok && prev != p.ID {
					if prev == "" {
						return nil, fmt.Errorf("document %d: %s is a parent and cannot be a child of %s", d, c.ID, p.ID)
					}
					return nil, fmt.Errorf("document %d: %s is listed under both %s and %s", d, c.ID, prev, p.ID)
				}
				b.parentOf[c.ID] = p.ID

				parentID := p.ID
				b.setProduct(&b.children, model.Product{ID: c.ID, Name: c.Name, ProductCode: c.Code, Description: c.Description, ParentID: &parentID})

				if c.Price == "" {
					continue
				}
				price, err := parsePrice(c.ID, c.Price)
				if err != nil {
					return nil, fmt.Errorf("document %d: %w", d, err)
				}
				b.addEntry(model.PriceBookEntry{PriceBookID: pb.ID, ProductID: c.ID, UnitPrice: price, IsActive: boolOr(c.Active, true)})
			}
		}
	}

	return &Catalog{
		PriceBooks: b.books,
		Products:   append(b.parents, b.children...),
		Entries:    b.entries,
	}, nil
}

func parsePrice(productID, raw string) (decimal.Decimal, error) {
	price, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("product %s: invalid price %q: %w", productID, raw, err)
	}
	if price.IsNegative() {
		return decimal.Zero, fmt.Errorf("product %s: price %s is negative", productID, raw)
	}
	return price, nil
}

func boolOr(v *bool, def bool) bool {
	if v == nil {
		return def
	}
	return *v
}
