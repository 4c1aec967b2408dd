package main

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/mpatel/shopline-backend/config"
	"github.com/mpatel/shopline-backend/internal/app/model"
	"github.com/mpatel/shopline-backend/internal/app/repository"
	"github.com/mpatel/shopline-backend/internal/db"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

// Expected columns, in order:
// sku | name | description | brand | category | price | quantity | low_stock_threshold | image_url
const columnCount = 9

func main() {
	if len(os.Args) < 2 {
		log.Fatal("Usage: go run cmd/seed/main.go <xlsx_file_path>")
	}

	filePath := os.Args[1]

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	if err := db.Initialize(&cfg.Database); err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	defer db.Close()

	productRepo := repository.NewProductRepository(db.GetDB())
	categoryRepo := repository.NewCategoryRepository(db.GetDB())

	fmt.Printf("Reading XLSX file: %s\n", filePath)
	products, err := readProductsFromXLSX(filePath, categoryRepo)
	if err != nil {
		log.Fatal("Failed to read XLSX:", err)
	}

	fmt.Printf("Total products to import: %d\n", len(products))

	fmt.Print("Do you want to proceed with the import? (yes/no): ")
	var confirm string
	fmt.Scanln(&confirm)
	if confirm != "yes" && confirm != "y" {
		fmt.Println("Import cancelled.")
		return
	}

	batchSize := 1000
	fmt.Printf("Starting bulk import with batch size: %d\n", batchSize)
	if err := productRepo.BulkCreate(products, batchSize); err != nil {
		log.Fatal("Failed to bulk create products:", err)
	}

	fmt.Println("Import completed successfully!")
	fmt.Printf("Total products imported: %d\n", len(products))
}

func readProductsFromXLSX(filePath string, categoryRepo repository.CategoryRepository) ([]model.Product, error) {
	f, err := excelize.OpenFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open XLSX file: %w", err)
	}
	defer f.Close()

	sheetName := f.GetSheetName(0)
	if sheetName == "" {
		return nil, fmt.Errorf("no sheets found in XLSX file")
	}

	fmt.Printf("Reading sheet: %s\n", sheetName)

	rows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to read rows: %w", err)
	}

	if len(rows) == 0 {
		return nil, fmt.Errorf("no data found in XLSX file")
	}

	var products []model.Product
	seenSKUs := make(map[string]bool)
	categoryIDs := make(map[string]uint)
	skippedCount := 0
	invalidPriceCount := 0

	for i, row := range rows {
		if i == 0 {
			fmt.Printf("Headers: %v\n", row)
			continue
		}

		if len(row) < columnCount {
			skippedCount++
			continue
		}

		sku := strings.TrimSpace(row[0])
		name := strings.TrimSpace(row[1])
		description := strings.TrimSpace(row[2])
		brand := strings.TrimSpace(row[3])
		categoryName := strings.TrimSpace(row[4])
		priceStr := strings.TrimSpace(row[5])
		quantityStr := strings.TrimSpace(row[6])
		thresholdStr := strings.TrimSpace(row[7])
		imageURL := strings.TrimSpace(row[8])

		if sku == "" || name == "" {
			skippedCount++
			continue
		}

		price, err := strconv.ParseFloat(priceStr, 64)
		if err != nil || price <= 0 {
			invalidPriceCount++
			skippedCount++
			continue
		}

		quantity, err := strconv.Atoi(quantityStr)
		if err != nil || quantity < 0 {
			skippedCount++
			continue
		}

		threshold, err := strconv.Atoi(thresholdStr)
		if err != nil || threshold < 0 {
			threshold = 5
		}

		// SKUs are unique; keep the first occurrence
		if seenSKUs[sku] {
			skippedCount++
			continue
		}
		seenSKUs[sku] = true

		var categoryID *uint
		if categoryName != "" {
			id, err := resolveCategory(categoryRepo, categoryIDs, categoryName)
			if err != nil {
				return nil, err
			}
			categoryID = &id
		}

		products = append(products, model.Product{
			SKU:               sku,
			Name:              name,
			Description:       description,
			Brand:             brand,
			CategoryID:        categoryID,
			Price:             model.MoneyFromFloat(price),
			Quantity:          quantity,
			LowStockThreshold: threshold,
			ImageURL:          imageURL,
			Active:            true,
		})

		if len(products)%1000 == 0 {
			fmt.Printf("Processed %d products...\n", len(products))
		}
	}

	fmt.Printf("\nSummary:\n")
	fmt.Printf("  Total rows: %d\n", len(rows)-1)
	fmt.Printf("  Valid products: %d\n", len(products))
	fmt.Printf("  Skipped rows: %d\n", skippedCount)
	fmt.Printf("  Rows with invalid prices: %d\n", invalidPriceCount)

	return products, nil
}

// resolveCategory finds the category by name, creating it on first
// sight. Lookups are cached for the run.
func resolveCategory(categoryRepo repository.CategoryRepository, cache map[string]uint, name string) (uint, error) {
	if id, ok := cache[name]; ok {
		return id, nil
	}

	category, err := categoryRepo.FindByName(name)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, fmt.Errorf("failed to look up category %q: %w", name, err)
		}
		category = &model.Category{Name: name}
		if err := categoryRepo.Create(category); err != nil {
			return 0, fmt.Errorf("failed to create category %q: %w", name, err)
		}
	}

	cache[name] = category.ID
	return category.ID, nil
}
