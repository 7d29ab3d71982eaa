package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"order-composer/internal/catalogimport"
)

// generateSampleCatalogs writes sample catalog files for local testing.
// standard.yaml.gz: Laptops (C1 $10, C2 $15, C5 inactive), Monitors (C3, C4 unpriced)
// accessories.yaml.gz: Cables and Docks in the standard book, plus a retired book
// Importing both yields one parent-child catalog under price book PB-STD.
func main() {
	dataDir := "data/catalogs"

	// Create directory if it doesn't exist
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		log.Fatalf("Failed to create directory: %v", err)
	}

	inactive := false
	catalogs := map[string][]catalogimport.Document{
		"standard.yaml.gz": {
			{
				PriceBook: catalogimport.PriceBookDoc{ID: "PB-STD", Name: "Standard"},
				Products: []catalogimport.ParentDoc{
					{
						ID: "P1", Name: "Laptops", Code: "LAP", Description: "Portable computers",
						Children: []catalogimport.ChildDoc{
							{ID: "C1", Name: "Laptop 13", Code: "LAP-13", Price: "10.00"},
							{ID: "C2", Name: "Laptop 15", Code: "LAP-15", Price: "15.00"},
							{ID: "C5", Name: "Laptop 17", Code: "LAP-17", Price: "20.00", Active: &inactive},
						},
					},
					{
						ID: "P2", Name: "Monitors", Code: "MON",
						Children: []catalogimport.ChildDoc{
							{ID: "C3", Name: "Monitor 27", Code: "MON-27", Price: "200.00"},
							{ID: "C4", Name: "Monitor 32", Code: "MON-32"}, // unpriced, never searchable
						},
					},
				},
			},
		},
		"accessories.yaml.gz": {
			{
				PriceBook: catalogimport.PriceBookDoc{ID: "PB-STD", Name: "Standard"},
				Products: []catalogimport.ParentDoc{
					{
						ID: "P3", Name: "Cables", Code: "CAB",
						Children: []catalogimport.ChildDoc{
							{ID: "C6", Name: "USB-C Cable 1m", Code: "CAB-USBC-1", Price: "4.99"},
							{ID: "C7", Name: "HDMI Cable 2m", Code: "CAB-HDMI-2", Price: "7.49"},
						},
					},
					{
						ID: "P4", Name: "Docks", Code: "DOC",
						Children: []catalogimport.ChildDoc{
							{ID: "C8", Name: "USB-C Dock", Code: "DOC-USBC", Price: "89.00"},
						},
					},
				},
			},
			{
				PriceBook: catalogimport.PriceBookDoc{ID: "PB-2023", Name: "Retired 2023", Active: &inactive},
				Products: []catalogimport.ParentDoc{
					{
						ID: "P3", Name: "Cables", Code: "CAB",
						Children: []catalogimport.ChildDoc{
							{ID: "C6", Name: "USB-C Cable 1m", Code: "CAB-USBC-1", Price: "5.99"},
						},
					},
				},
			},
		},
	}

	for filename, docs := range catalogs {
		filePath := filepath.Join(dataDir, filename)

		if err := createCatalogFile(filePath, docs); err != nil {
			log.Fatalf("Failed to create %s: %v", filename, err)
		}

		fmt.Printf("Created %s with %d documents\n", filePath, len(docs))
	}

	fmt.Println("\nSample catalog files created successfully!")
	fmt.Println("\nImport them with:")
	fmt.Println("  go run ./cmd/catalog-import data/catalogs/standard.yaml.gz data/catalogs/accessories.yaml.gz")
}

func createCatalogFile(filePath string, docs []catalogimport.Document) error {
	file, err := os.Create(filePath)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	return catalogimport.Encode(file, docs)
}
