package service

import (
	"errors"

	"github.com/mpatel/shopline-backend/internal/app/model"
	"github.com/mpatel/shopline-backend/internal/app/repository"
	"github.com/mpatel/shopline-backend/pkg/logger"
	"gorm.io/gorm"
)

var (
	ErrProductNotFound    = errors.New("product not found")
	ErrProductUnavailable = errors.New("product is not available")
	ErrCategoryNotFound   = errors.New("category not found")
	ErrInvalidPrice       = errors.New("price must be greater than zero")
)

// ProductListOptions controls pagination and ordering of catalog reads.
type ProductListOptions struct {
	Page          int
	PageSize      int
	SortBy        repository.ProductSort
	SortAscending bool
}

func (o ProductListOptions) limitOffset() (int, int) {
	page := o.Page
	if page < 1 {
		page = 1
	}
	size := o.PageSize
	if size < 1 || size > 100 {
		size = 20
	}
	return size, (page - 1) * size
}

// SearchCriteria are the optional search filters, AND-composed.
type SearchCriteria struct {
	Name       string
	Brand      string
	CategoryID *uint
	MinPrice   *float64
	MaxPrice   *float64
	Available  *bool
	MinRating  *float64
	ProductListOptions
}

// ProductPatch is the explicit set of fields a partial update may
// touch. Nil pointers leave the field unchanged.
type ProductPatch struct {
	Name              *string
	Description       *string
	Brand             *string
	Price             *float64
	ImageURL          *string
	CategoryID        *uint
	Quantity          *int
	ReservedQuantity  *int
	LowStockThreshold *int
	Rating            *float64
	Active            *bool
}

// InventoryPatch adjusts stock bookkeeping fields.
type InventoryPatch struct {
	Quantity          *int
	ReservedQuantity  *int
	LowStockThreshold *int
}

// Availability is the stock snapshot for a product.
type Availability struct {
	ProductID uint `json:"product_id"`
	Quantity  int  `json:"quantity"`
	Reserved  int  `json:"reserved"`
	Available int  `json:"available"`
	LowStock  bool `json:"low_stock"`
	InStock   bool `json:"in_stock"`
}

type ProductService interface {
	ListProducts(opts ProductListOptions) ([]model.Product, int64, error)
	SearchProducts(criteria SearchCriteria) ([]model.Product, int64, error)
	GetProductsByCategory(categoryID uint, opts ProductListOptions) ([]model.Product, int64, error)
	GetProductByID(id uint) (*model.Product, error)
	GetAvailability(id uint) (*Availability, error)
	CreateProduct(product *model.Product) error
	UpdateProduct(id uint, updated *model.Product) (*model.Product, error)
	PatchProduct(id uint, patch ProductPatch, unknownFields []string) (*model.Product, error)
	UpdateInventory(id uint, patch InventoryPatch) (*model.Product, error)
	DeleteProduct(id uint) error
	AddProductImages(id uint, urls []string) (*model.Product, error)
	ListCategories() ([]model.Category, error)
	CreateCategory(category *model.Category) error
}

type productService struct {
	productRepo  repository.ProductRepository
	categoryRepo repository.CategoryRepository
}

func NewProductService(productRepo repository.ProductRepository, categoryRepo repository.CategoryRepository) ProductService {
	return &productService{
		productRepo:  productRepo,
		categoryRepo: categoryRepo,
	}
}

func (s *productService) listWithFilter(filter repository.ProductFilter) ([]model.Product, int64, error) {
	total, err := s.productRepo.CountWithFilter(filter)
	if err != nil {
		return nil, 0, err
	}
	products, err := s.productRepo.FindWithFilter(filter)
	if err != nil {
		return nil, 0, err
	}
	return products, total, nil
}

func (s *productService) ListProducts(opts ProductListOptions) ([]model.Product, int64, error) {
	logger.Debug("Listing products", map[string]interface{}{
		"page":      opts.Page,
		"page_size": opts.PageSize,
		"sort_by":   opts.SortBy,
	})

	limit, offset := opts.limitOffset()
	return s.listWithFilter(repository.ProductFilter{
		SortBy:        opts.SortBy,
		SortAscending: opts.SortAscending,
		Limit:         limit,
		Offset:        offset,
	})
}

func (s *productService) SearchProducts(criteria SearchCriteria) ([]model.Product, int64, error) {
	logger.Debug("Searching products", map[string]interface{}{
		"name":        criteria.Name,
		"brand":       criteria.Brand,
		"category_id": criteria.CategoryID,
		"min_price":   criteria.MinPrice,
		"max_price":   criteria.MaxPrice,
		"available":   criteria.Available,
		"min_rating":  criteria.MinRating,
	})

	limit, offset := criteria.limitOffset()
	return s.listWithFilter(repository.ProductFilter{
		Name:          criteria.Name,
		Brand:         criteria.Brand,
		CategoryID:    criteria.CategoryID,
		MinPrice:      criteria.MinPrice,
		MaxPrice:      criteria.MaxPrice,
		Available:     criteria.Available,
		MinRating:     criteria.MinRating,
		SortBy:        criteria.SortBy,
		SortAscending: criteria.SortAscending,
		Limit:         limit,
		Offset:        offset,
	})
}

func (s *productService) GetProductsByCategory(categoryID uint, opts ProductListOptions) ([]model.Product, int64, error) {
	logger.Debug("Listing products by category", map[string]interface{}{
		"category_id": categoryID,
	})

	if _, err := s.categoryRepo.FindByID(categoryID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Warn("Category not found", map[string]interface{}{
				"category_id": categoryID,
			})
			return nil, 0, ErrCategoryNotFound
		}
		return nil, 0, err
	}

	limit, offset := opts.limitOffset()
	return s.listWithFilter(repository.ProductFilter{
		CategoryID:    &categoryID,
		SortBy:        opts.SortBy,
		SortAscending: opts.SortAscending,
		Limit:         limit,
		Offset:        offset,
	})
}

func (s *productService) GetProductByID(id uint) (*model.Product, error) {
	logger.Debug("Fetching product by ID", map[string]interface{}{
		"product_id": id,
	})

	product, err := s.productRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Warn("Product not found", map[string]interface{}{
				"product_id": id,
			})
			return nil, ErrProductNotFound
		}
		logger.Error("Failed to fetch product", err, map[string]interface{}{
			"product_id": id,
		})
		return nil, err
	}

	return product, nil
}

func (s *productService) GetAvailability(id uint) (*Availability, error) {
	product, err := s.GetProductByID(id)
	if err != nil {
		return nil, err
	}

	return &Availability{
		ProductID: product.ID,
		Quantity:  product.Quantity,
		Reserved:  product.ReservedQuantity,
		Available: product.AvailableQuantity(),
		LowStock:  product.LowStock(),
		InStock:   product.Active && product.AvailableQuantity() > 0,
	}, nil
}

func (s *productService) CreateProduct(product *model.Product) error {
	logger.Info("Creating product", map[string]interface{}{
		"name":        product.Name,
		"sku":         product.SKU,
		"category_id": product.CategoryID,
	})

	if !product.Price.IsPositive() {
		logger.Warn("Product creation rejected: invalid price", map[string]interface{}{
			"name":  product.Name,
			"price": product.Price.String(),
		})
		return ErrInvalidPrice
	}

	if product.CategoryID != nil {
		if _, err := s.categoryRepo.FindByID(*product.CategoryID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrCategoryNotFound
			}
			return err
		}
	}

	if product.LowStockThreshold == 0 {
		product.LowStockThreshold = 5
	}
	product.Active = true

	if err := s.productRepo.Create(product); err != nil {
		logger.Error("Failed to create product", err, map[string]interface{}{
			"name": product.Name,
			"sku":  product.SKU,
		})
		return err
	}

	logger.Info("Product created successfully", map[string]interface{}{
		"product_id": product.ID,
		"name":       product.Name,
	})
	return nil
}

func (s *productService) UpdateProduct(id uint, updated *model.Product) (*model.Product, error) {
	logger.Info("Updating product", map[string]interface{}{
		"product_id": id,
	})

	product, err := s.GetProductByID(id)
	if err != nil {
		return nil, err
	}

	if !updated.Price.IsPositive() {
		return nil, ErrInvalidPrice
	}
	if updated.CategoryID != nil {
		if _, err := s.categoryRepo.FindByID(*updated.CategoryID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrCategoryNotFound
			}
			return nil, err
		}
	}

	product.Name = updated.Name
	product.Description = updated.Description
	product.Brand = updated.Brand
	product.SKU = updated.SKU
	product.Price = updated.Price
	product.ImageURL = updated.ImageURL
	product.ImageURLs = updated.ImageURLs
	product.CategoryID = updated.CategoryID
	product.Category = nil
	product.Quantity = updated.Quantity
	product.ReservedQuantity = updated.ReservedQuantity
	product.LowStockThreshold = updated.LowStockThreshold
	product.Rating = updated.Rating
	product.Active = updated.Active

	if err := s.productRepo.Update(product); err != nil {
		logger.Error("Failed to update product", err, map[string]interface{}{
			"product_id": id,
		})
		return nil, err
	}

	logger.Info("Product updated successfully", map[string]interface{}{
		"product_id": id,
	})
	return product, nil
}

// PatchProduct applies a partial update. Field names the request
// carried that have no counterpart here are reported, logged and
// skipped rather than failing the call.
func (s *productService) PatchProduct(id uint, patch ProductPatch, unknownFields []string) (*model.Product, error) {
	logger.Info("Patching product", map[string]interface{}{
		"product_id": id,
	})

	if len(unknownFields) > 0 {
		logger.Warn("Ignoring unknown fields in product patch", map[string]interface{}{
			"product_id": id,
			"fields":     unknownFields,
		})
	}

	product, err := s.GetProductByID(id)
	if err != nil {
		return nil, err
	}

	if patch.Name != nil {
		product.Name = *patch.Name
	}
	if patch.Description != nil {
		product.Description = *patch.Description
	}
	if patch.Brand != nil {
		product.Brand = *patch.Brand
	}
	if patch.Price != nil {
		price := model.MoneyFromFloat(*patch.Price)
		if !price.IsPositive() {
			return nil, ErrInvalidPrice
		}
		product.Price = price
	}
	if patch.ImageURL != nil {
		product.ImageURL = *patch.ImageURL
	}
	if patch.CategoryID != nil {
		if _, err := s.categoryRepo.FindByID(*patch.CategoryID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrCategoryNotFound
			}
			return nil, err
		}
		product.CategoryID = patch.CategoryID
		product.Category = nil
	}
	if patch.Quantity != nil {
		product.Quantity = *patch.Quantity
	}
	if patch.ReservedQuantity != nil {
		product.ReservedQuantity = *patch.ReservedQuantity
	}
	if patch.LowStockThreshold != nil {
		product.LowStockThreshold = *patch.LowStockThreshold
	}
	if patch.Rating != nil {
		product.Rating = *patch.Rating
	}
	if patch.Active != nil {
		product.Active = *patch.Active
	}

	if err := s.productRepo.Update(product); err != nil {
		logger.Error("Failed to patch product", err, map[string]interface{}{
			"product_id": id,
		})
		return nil, err
	}

	logger.Info("Product patched successfully", map[string]interface{}{
		"product_id": id,
	})
	return product, nil
}

func (s *productService) UpdateInventory(id uint, patch InventoryPatch) (*model.Product, error) {
	logger.Info("Updating product inventory", map[string]interface{}{
		"product_id": id,
	})

	product, err := s.GetProductByID(id)
	if err != nil {
		return nil, err
	}

	if patch.Quantity != nil {
		product.Quantity = *patch.Quantity
	}
	if patch.ReservedQuantity != nil {
		product.ReservedQuantity = *patch.ReservedQuantity
	}
	if patch.LowStockThreshold != nil {
		product.LowStockThreshold = *patch.LowStockThreshold
	}

	if err := s.productRepo.Update(product); err != nil {
		logger.Error("Failed to update product inventory", err, map[string]interface{}{
			"product_id": id,
		})
		return nil, err
	}

	logger.Info("Product inventory updated successfully", map[string]interface{}{
		"product_id": id,
		"quantity":   product.Quantity,
		"reserved":   product.ReservedQuantity,
	})
	return product, nil
}

func (s *productService) DeleteProduct(id uint) error {
	logger.Info("Deleting product", map[string]interface{}{
		"product_id": id,
	})

	if err := s.productRepo.SoftDelete(id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Warn("Product not found for deletion", map[string]interface{}{
				"product_id": id,
			})
			return ErrProductNotFound
		}
		logger.Error("Failed to delete product", err, map[string]interface{}{
			"product_id": id,
		})
		return err
	}

	logger.Info("Product deleted successfully", map[string]interface{}{
		"product_id": id,
	})
	return nil
}

// AddProductImages appends uploaded image URLs. The first image ever
// added becomes the primary image.
func (s *productService) AddProductImages(id uint, urls []string) (*model.Product, error) {
	logger.Info("Adding product images", map[string]interface{}{
		"product_id": id,
		"count":      len(urls),
	})

	product, err := s.GetProductByID(id)
	if err != nil {
		return nil, err
	}

	product.ImageURLs = append(product.ImageURLs, urls...)
	if product.ImageURL == "" && len(product.ImageURLs) > 0 {
		product.ImageURL = product.ImageURLs[0]
	}

	if err := s.productRepo.Update(product); err != nil {
		logger.Error("Failed to add product images", err, map[string]interface{}{
			"product_id": id,
		})
		return nil, err
	}

	return product, nil
}

func (s *productService) ListCategories() ([]model.Category, error) {
	return s.categoryRepo.FindAll()
}

func (s *productService) CreateCategory(category *model.Category) error {
	logger.Info("Creating category", map[string]interface{}{
		"name":      category.Name,
		"parent_id": category.ParentID,
	})

	if category.ParentID != nil {
		if _, err := s.categoryRepo.FindByID(*category.ParentID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrCategoryNotFound
			}
			return err
		}
	}

	if err := s.categoryRepo.Create(category); err != nil {
		logger.Error("Failed to create category", err, map[string]interface{}{
			"name": category.Name,
		})
		return err
	}

	logger.Info("Category created successfully", map[string]interface{}{
		"category_id": category.ID,
		"name":        category.Name,
	})
	return nil
}
