// Command catalog-import loads gzipped YAML catalog files into the product,
// price book and price book entry tables.
//
// Usage:
//
//	catalog-import standard.yaml.gz [more.yaml.gz ...]
//
// Files are read from S3 (under S3_PREFIX) when S3_ENABLED is set, falling
// back to the local path. All files are merged into one catalog and written
// in a single transaction.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"order-composer/internal/catalogimport"
	"order-composer/internal/config"
	"order-composer/internal/database"
	"order-composer/internal/repository"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(paths []string) error {
	if len(paths) == 0 {
		return errors.New("usage: catalog-import <file.yaml.gz> [file.yaml.gz ...]")
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger := config.NewLogger(cfg.Logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := database.NewPool(ctx, cfg.Database, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer pool.Close()

	if cfg.Database.AutoMigrate {
		if err := database.Migrate(ctx, pool, logger); err != nil {
			return fmt.Errorf("failed to migrate database: %w", err)
		}
	}

	var s3Loader catalogimport.Loader
	if cfg.S3.Enabled {
		s3Loader, err = catalogimport.NewS3Loader(ctx, cfg.S3.Bucket, cfg.S3.Region, logger)
		if err != nil {
			// The local file system still works without S3.
			logger.Warn().Err(err).Msg("S3 loader unavailable, using local files only")
		}
	}
	loader := catalogimport.NewFallbackLoader(s3Loader, catalogimport.NewFileLoader(logger), cfg.S3.Prefix, cfg.S3.Enabled, logger)

	importer := catalogimport.NewImporter(repository.NewProductRepository(pool, logger), logger)
	stats, err := importer.LoadAndImport(ctx, loader, paths...)
	if err != nil {
		return fmt.Errorf("failed to import catalog: %w", err)
	}

	fmt.Printf("Imported %d price books, %d products, %d price book entries\n",
		stats.PriceBooks, stats.Products, stats.Entries)
	return nil
}
