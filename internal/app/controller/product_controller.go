package controller

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	apperrors "github.com/mpatel/shopline-backend/internal/errors"
	"github.com/mpatel/shopline-backend/internal/app/model"
	"github.com/mpatel/shopline-backend/internal/app/repository"
	"github.com/mpatel/shopline-backend/internal/app/service"
	"github.com/mpatel/shopline-backend/internal/middleware"
	"github.com/mpatel/shopline-backend/internal/storage"
)

type ProductController struct {
	productService service.ProductService
	storage        *storage.S3Storage
}

func NewProductController(productService service.ProductService, storage *storage.S3Storage) *ProductController {
	return &ProductController{
		productService: productService,
		storage:        storage,
	}
}

type CreateProductRequest struct {
	Name              string   `json:"name" binding:"required"`
	Description       string   `json:"description"`
	Brand             string   `json:"brand"`
	SKU               string   `json:"sku"`
	Price             float64  `json:"price" binding:"required,gt=0"`
	ImageURL          string   `json:"image_url"`
	ImageURLs         []string `json:"image_urls"`
	CategoryID        *uint    `json:"category_id"`
	Quantity          int      `json:"quantity" binding:"gte=0"`
	ReservedQuantity  int      `json:"reserved_quantity" binding:"gte=0"`
	LowStockThreshold int      `json:"low_stock_threshold" binding:"gte=0"`
	Rating            float64  `json:"rating" binding:"gte=0,lte=5"`
	Active            bool     `json:"active"`
}

func (req *CreateProductRequest) toModel() *model.Product {
	return &model.Product{
		Name:              req.Name,
		Description:       req.Description,
		Brand:             req.Brand,
		SKU:               req.SKU,
		Price:             model.MoneyFromFloat(req.Price),
		ImageURL:          req.ImageURL,
		ImageURLs:         req.ImageURLs,
		CategoryID:        req.CategoryID,
		Quantity:          req.Quantity,
		ReservedQuantity:  req.ReservedQuantity,
		LowStockThreshold: req.LowStockThreshold,
		Rating:            req.Rating,
		Active:            req.Active,
	}
}

// parseIDParam reads a numeric path parameter. On failure it writes
// the 400 response itself and reports false.
func parseIDParam(c *gin.Context, name string) (uint, bool) {
	idStr := c.Param(name)
	id, err := strconv.ParseUint(idStr, 10, 32)
	if err != nil {
		log := middleware.GetLoggerFromContext(c)
		log.Warn("Invalid ID parameter", map[string]interface{}{
			"param": name,
			"value": idStr,
		})
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid " + name,
		})
		return 0, false
	}
	return uint(id), true
}

// listOptionsFromQuery reads the shared pagination and sorting query
// parameters: page, page_size, sort_by, order.
func listOptionsFromQuery(c *gin.Context) service.ProductListOptions {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	return service.ProductListOptions{
		Page:          page,
		PageSize:      pageSize,
		SortBy:        repository.ProductSort(c.Query("sort_by")),
		SortAscending: c.DefaultQuery("order", "desc") == "asc",
	}
}

func productListResponse(products []model.Product, total int64, opts service.ProductListOptions) gin.H {
	page := opts.Page
	if page < 1 {
		page = 1
	}
	return gin.H{
		"products": products,
		"total":    total,
		"page":     page,
	}
}

// ListProducts returns a page of the catalog
// GET /api/v1/products
func (ctrl *ProductController) ListProducts(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	opts := listOptionsFromQuery(c)
	products, total, err := ctrl.productService.ListProducts(opts)
	if err != nil {
		log.Error("Failed to fetch products", err, nil)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to fetch products",
		})
		return
	}

	log.Info("Products fetched successfully", map[string]interface{}{
		"count": len(products),
		"total": total,
	})

	c.JSON(http.StatusOK, productListResponse(products, total, opts))
}

// SearchProducts returns products matching the query filters
// GET /api/v1/products/search
func (ctrl *ProductController) SearchProducts(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	criteria := service.SearchCriteria{
		Name:               c.Query("name"),
		Brand:              c.Query("brand"),
		ProductListOptions: listOptionsFromQuery(c),
	}
	if v := c.Query("category_id"); v != "" {
		id, err := strconv.ParseUint(v, 10, 32)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid category_id"})
			return
		}
		categoryID := uint(id)
		criteria.CategoryID = &categoryID
	}
	if v := c.Query("min_price"); v != "" {
		price, err := strconv.ParseFloat(v, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid min_price"})
			return
		}
		criteria.MinPrice = &price
	}
	if v := c.Query("max_price"); v != "" {
		price, err := strconv.ParseFloat(v, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid max_price"})
			return
		}
		criteria.MaxPrice = &price
	}
	if v := c.Query("available"); v != "" {
		available, err := strconv.ParseBool(v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid available"})
			return
		}
		criteria.Available = &available
	}
	if v := c.Query("min_rating"); v != "" {
		rating, err := strconv.ParseFloat(v, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid min_rating"})
			return
		}
		criteria.MinRating = &rating
	}

	products, total, err := ctrl.productService.SearchProducts(criteria)
	if err != nil {
		log.Error("Failed to search products", err, nil)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to search products",
		})
		return
	}

	log.Info("Product search completed", map[string]interface{}{
		"count": len(products),
		"total": total,
	})

	c.JSON(http.StatusOK, productListResponse(products, total, criteria.ProductListOptions))
}

// GetProductsByCategory returns the products of one category
// GET /api/v1/products/category/:id
func (ctrl *ProductController) GetProductsByCategory(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	categoryID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	opts := listOptionsFromQuery(c)
	products, total, err := ctrl.productService.GetProductsByCategory(categoryID, opts)
	if err != nil {
		if errors.Is(err, service.ErrCategoryNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Category not found",
			})
			return
		}
		log.Error("Failed to fetch products by category", err, map[string]interface{}{
			"category_id": categoryID,
		})
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to fetch products",
		})
		return
	}

	c.JSON(http.StatusOK, productListResponse(products, total, opts))
}

// GetProductByID returns a product by ID
// GET /api/v1/products/:id
func (ctrl *ProductController) GetProductByID(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	product, err := ctrl.productService.GetProductByID(id)
	if err != nil {
		if errors.Is(err, service.ErrProductNotFound) {
			log.Warn("Product not found", map[string]interface{}{
				"product_id": id,
			})
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Product not found",
			})
			return
		}
		log.Error("Failed to fetch product", err, map[string]interface{}{
			"product_id": id,
		})
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to fetch product",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"product": product,
	})
}

// GetAvailability returns the stock snapshot of a product
// GET /api/v1/products/:id/availability
func (ctrl *ProductController) GetAvailability(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	availability, err := ctrl.productService.GetAvailability(id)
	if err != nil {
		if errors.Is(err, service.ErrProductNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Product not found",
			})
			return
		}
		log.Error("Failed to fetch product availability", err, map[string]interface{}{
			"product_id": id,
		})
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to fetch availability",
		})
		return
	}

	c.JSON(http.StatusOK, availability)
}

// CreateProduct creates a new product (Admin only)
// POST /api/v1/products
func (ctrl *ProductController) CreateProduct(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var req CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("Invalid product creation request", map[string]interface{}{
			"error": err.Error(),
		})
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"details": err.Error(),
		})
		return
	}

	product := req.toModel()
	if err := ctrl.productService.CreateProduct(product); err != nil {
		if errors.Is(err, service.ErrInvalidPrice) {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "Price must be greater than zero",
			})
			return
		}
		if errors.Is(err, service.ErrCategoryNotFound) {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "Category not found",
			})
			return
		}
		log.Error("Failed to create product", err, map[string]interface{}{
			"name": req.Name,
			"sku":  req.SKU,
		})
		apperrors.ParseAndRespond(c, err, "product")
		return
	}

	log.Info("Product created successfully", map[string]interface{}{
		"product_id": product.ID,
		"name":       product.Name,
	})

	c.JSON(http.StatusCreated, gin.H{
		"message": "Product created successfully",
		"product": product,
	})
}

// UpdateProduct replaces a product (Admin only)
// PUT /api/v1/products/:id
func (ctrl *ProductController) UpdateProduct(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("Invalid product update request", map[string]interface{}{
			"product_id": id,
			"error":      err.Error(),
		})
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"details": err.Error(),
		})
		return
	}

	product, err := ctrl.productService.UpdateProduct(id, req.toModel())
	if err != nil {
		switch {
		case errors.Is(err, service.ErrProductNotFound):
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Product not found",
			})
		case errors.Is(err, service.ErrInvalidPrice):
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "Price must be greater than zero",
			})
		case errors.Is(err, service.ErrCategoryNotFound):
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "Category not found",
			})
		default:
			log.Error("Failed to update product", err, map[string]interface{}{
				"product_id": id,
			})
			apperrors.ParseAndRespond(c, err, "product")
		}
		return
	}

	log.Info("Product updated successfully", map[string]interface{}{
		"product_id": product.ID,
	})

	c.JSON(http.StatusOK, gin.H{
		"message": "Product updated successfully",
		"product": product,
	})
}

// patchableFields are the JSON keys a partial product update accepts.
var patchableFields = map[string]struct{}{
	"name":                {},
	"description":         {},
	"brand":               {},
	"price":               {},
	"image_url":           {},
	"category_id":         {},
	"quantity":            {},
	"reserved_quantity":   {},
	"low_stock_threshold": {},
	"rating":              {},
	"active":              {},
}

type patchProductRequest struct {
	Name              *string  `json:"name"`
	Description       *string  `json:"description"`
	Brand             *string  `json:"brand"`
	Price             *float64 `json:"price"`
	ImageURL          *string  `json:"image_url"`
	CategoryID        *uint    `json:"category_id"`
	Quantity          *int     `json:"quantity"`
	ReservedQuantity  *int     `json:"reserved_quantity"`
	LowStockThreshold *int     `json:"low_stock_threshold"`
	Rating            *float64 `json:"rating"`
	Active            *bool    `json:"active"`
}

// PatchProduct partially updates a product (Admin only). Unknown
// fields in the body are ignored, not rejected.
// PATCH /api/v1/products/:id
func (ctrl *ProductController) PatchProduct(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request data",
		})
		return
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		log.Warn("Invalid product patch request", map[string]interface{}{
			"product_id": id,
			"error":      err.Error(),
		})
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"details": err.Error(),
		})
		return
	}

	var unknownFields []string
	for key := range raw {
		if _, known := patchableFields[key]; !known {
			unknownFields = append(unknownFields, key)
		}
	}

	var req patchProductRequest
	if err := json.Unmarshal(body, &req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"details": err.Error(),
		})
		return
	}

	patch := service.ProductPatch{
		Name:              req.Name,
		Description:       req.Description,
		Brand:             req.Brand,
		Price:             req.Price,
		ImageURL:          req.ImageURL,
		CategoryID:        req.CategoryID,
		Quantity:          req.Quantity,
		ReservedQuantity:  req.ReservedQuantity,
		LowStockThreshold: req.LowStockThreshold,
		Rating:            req.Rating,
		Active:            req.Active,
	}

	product, err := ctrl.productService.PatchProduct(id, patch, unknownFields)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrProductNotFound):
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Product not found",
			})
		case errors.Is(err, service.ErrInvalidPrice):
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "Price must be greater than zero",
			})
		case errors.Is(err, service.ErrCategoryNotFound):
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "Category not found",
			})
		default:
			log.Error("Failed to patch product", err, map[string]interface{}{
				"product_id": id,
			})
			apperrors.ParseAndRespond(c, err, "product")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Product updated successfully",
		"product": product,
	})
}

type updateInventoryRequest struct {
	Quantity          *int `json:"quantity"`
	ReservedQuantity  *int `json:"reserved_quantity"`
	LowStockThreshold *int `json:"low_stock_threshold"`
}

// UpdateInventory adjusts stock fields of a product (Admin only)
// PATCH /api/v1/products/:id/inventory
func (ctrl *ProductController) UpdateInventory(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req updateInventoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"details": err.Error(),
		})
		return
	}

	product, err := ctrl.productService.UpdateInventory(id, service.InventoryPatch{
		Quantity:          req.Quantity,
		ReservedQuantity:  req.ReservedQuantity,
		LowStockThreshold: req.LowStockThreshold,
	})
	if err != nil {
		if errors.Is(err, service.ErrProductNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Product not found",
			})
			return
		}
		log.Error("Failed to update inventory", err, map[string]interface{}{
			"product_id": id,
		})
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to update inventory",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Inventory updated successfully",
		"product": product,
	})
}

// DeleteProduct soft deletes a product (Admin only)
// DELETE /api/v1/products/:id
func (ctrl *ProductController) DeleteProduct(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := ctrl.productService.DeleteProduct(id); err != nil {
		if errors.Is(err, service.ErrProductNotFound) {
			log.Warn("Product not found for deletion", map[string]interface{}{
				"product_id": id,
			})
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Product not found",
			})
			return
		}
		log.Error("Failed to delete product", err, map[string]interface{}{
			"product_id": id,
		})
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to delete product",
		})
		return
	}

	log.Info("Product deleted successfully", map[string]interface{}{
		"product_id": id,
	})

	c.Status(http.StatusNoContent)
}

type presignImageRequest struct {
	Filename    string `json:"filename" binding:"required"`
	ContentType string `json:"content_type" binding:"required"`
	FileSize    int64  `json:"file_size" binding:"required,gt=0"`
}

const maxImageSize = 10 * 1024 * 1024

var allowedImageTypes = []string{"image/jpeg", "image/png", "image/webp"}

// PresignProductImage issues a pre-signed upload URL for a product
// image (Admin only)
// POST /api/v1/products/:id/images/presign
func (ctrl *ProductController) PresignProductImage(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if _, err := ctrl.productService.GetProductByID(id); err != nil {
		if errors.Is(err, service.ErrProductNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Product not found",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to fetch product",
		})
		return
	}

	var req presignImageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"details": err.Error(),
		})
		return
	}

	if err := ctrl.storage.ValidateFileSize(req.FileSize, maxImageSize); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := ctrl.storage.ValidateContentType(req.ContentType, allowedImageTypes); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	upload, err := ctrl.storage.GeneratePresignedUpload(req.Filename, req.ContentType, "products")
	if err != nil {
		log.Error("Failed to generate presigned upload", err, map[string]interface{}{
			"product_id": id,
		})
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to generate upload URL",
		})
		return
	}

	c.JSON(http.StatusOK, upload)
}

type addImagesRequest struct {
	URLs []string `json:"urls" binding:"required,min=1"`
}

// AddProductImages registers uploaded image URLs on a product
// (Admin only)
// POST /api/v1/products/:id/images
func (ctrl *ProductController) AddProductImages(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req addImagesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"details": err.Error(),
		})
		return
	}

	product, err := ctrl.productService.AddProductImages(id, req.URLs)
	if err != nil {
		if errors.Is(err, service.ErrProductNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Product not found",
			})
			return
		}
		log.Error("Failed to add product images", err, map[string]interface{}{
			"product_id": id,
		})
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to add images",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Images added successfully",
		"product": product,
	})
}

// ListCategories returns every category
// GET /api/v1/categories
func (ctrl *ProductController) ListCategories(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	categories, err := ctrl.productService.ListCategories()
	if err != nil {
		log.Error("Failed to fetch categories", err, nil)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to fetch categories",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"categories": categories,
		"count":      len(categories),
	})
}

type createCategoryRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
	ParentID    *uint  `json:"parent_id"`
}

// CreateCategory creates a category (Admin only)
// POST /api/v1/categories
func (ctrl *ProductController) CreateCategory(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var req createCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"details": err.Error(),
		})
		return
	}

	category := &model.Category{
		Name:        req.Name,
		Description: req.Description,
		ParentID:    req.ParentID,
	}
	if err := ctrl.productService.CreateCategory(category); err != nil {
		if errors.Is(err, service.ErrCategoryNotFound) {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "Parent category not found",
			})
			return
		}
		log.Error("Failed to create category", err, map[string]interface{}{
			"name": req.Name,
		})
		apperrors.ParseAndRespond(c, err, "category")
		return
	}

	log.Info("Category created successfully", map[string]interface{}{
		"category_id": category.ID,
	})

	c.JSON(http.StatusCreated, gin.H{
		"message":  "Category created successfully",
		"category": category,
	})
}
