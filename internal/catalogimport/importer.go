package catalogimport

import (
	"context"
	"fmt"

	"order-composer/internal/repository"

	"github.com/rs/zerolog"
)

// Stats reports what an import wrote.
type Stats struct {
	PriceBooks int
	Products   int
	Entries    int
}

// Importer writes catalogs through the product repository.
type Importer struct {
	repo   repository.ProductRepository
	logger zerolog.Logger
}

// NewImporter creates a new catalog importer.
func NewImporter(repo repository.ProductRepository, logger zerolog.Logger) *Importer {
	return &Importer{
		repo:   repo,
		logger: logger.With().Str("component", "catalog-importer").Logger(),
	}
}

// Import upserts the catalog in one transaction: price books, then products
// with parents ahead of children, then price book entries.
func (i *Importer) Import(ctx context.Context, cat *Catalog) (stats Stats, err error) {
	tx, err := i.repo.BeginTx(ctx)
	if err != nil {
		return Stats{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				i.logger.Error().Err(rbErr).Msg("failed to rollback catalog import")
			}
		}
	}()

	for _, book := range cat.PriceBooks {
		if err = i.repo.UpsertPriceBook(ctx, tx, book); err != nil {
			return Stats{}, err
		}
	}
	if err = i.repo.UpsertProducts(ctx, tx, cat.Products); err != nil {
		return Stats{}, err
	}
	if err = i.repo.UpsertPriceBookEntries(ctx, tx, cat.Entries); err != nil {
		return Stats{}, err
	}

	if err = tx.Commit(ctx); err != nil {
		return Stats{}, fmt.Errorf("failed to commit transaction: %w", err)
	}

	stats = Stats{PriceBooks: len(cat.PriceBooks), Products: len(cat.Products), Entries: len(cat.Entries)}
	i.logger.Info().
		Int("price_books", stats.PriceBooks).
		Int("products", stats.Products).
		Int("entries", stats.Entries).
		Msg("catalog imported")
	return stats, nil
}

// LoadAndImport reads every path with loader, builds one catalog from all
// documents and imports it.
func (i *Importer) LoadAndImport(ctx context.Context, loader Loader, paths ...string) (Stats, error) {
	var docs []Document
	for _, p := range paths {
		d, err := loader.Load(ctx, p)
		if err != nil {
			return Stats{}, err
		}
		docs = append(docs, d...)
	}

	cat, err := Build(docs)
	if err != nil {
		return Stats{}, fmt.Errorf("failed to build catalog: %w", err)
	}
	return i.Import(ctx, cat)
}
