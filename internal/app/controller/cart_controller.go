package controller

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mpatel/shopline-backend/internal/app/service"
	"github.com/mpatel/shopline-backend/internal/middleware"
)

type CartController struct {
	cartService service.CartService
	taxRate     float64
}

func NewCartController(cartService service.CartService, taxRate float64) *CartController {
	return &CartController{
		cartService: cartService,
		taxRate:     taxRate,
	}
}

// respondCartError maps the cart domain errors onto HTTP statuses.
// Unmatched errors fall through to a 500 with the given message.
func respondCartError(c *gin.Context, err error, fallback string) {
	log := middleware.GetLoggerFromContext(c)

	switch {
	case errors.Is(err, service.ErrProductNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
	case errors.Is(err, service.ErrCartItemNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Cart item not found"})
	case errors.Is(err, service.ErrWishlistItemNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Wishlist item not found"})
	case errors.Is(err, service.ErrProductUnavailable):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Product is not available"})
	case errors.Is(err, service.ErrInsufficientStock):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Insufficient stock"})
	case errors.Is(err, service.ErrInvalidCoupon):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid coupon code"})
	default:
		log.Error(fallback, err, nil)
		c.JSON(http.StatusInternalServerError, gin.H{"error": fallback})
	}
}

// GetCart returns the user's cart, creating it on first access
// GET /api/v1/cart
func (ctrl *CartController) GetCart(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	cart, err := ctrl.cartService.GetCart(userID)
	if err != nil {
		respondCartError(c, err, "Failed to fetch cart")
		return
	}

	c.JSON(http.StatusOK, gin.H{"cart": cart})
}

type addCartItemRequest struct {
	ProductID uint `json:"product_id" binding:"required"`
	Quantity  int  `json:"quantity" binding:"required,gt=0"`
}

// AddCartItem adds a product to the cart
// POST /api/v1/cart/items
func (ctrl *CartController) AddCartItem(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)
	userID, _ := middleware.GetUserID(c)

	var req addCartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("Invalid add to cart request", map[string]interface{}{
			"error": err.Error(),
		})
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"details": err.Error(),
		})
		return
	}

	cart, err := ctrl.cartService.AddToCart(userID, req.ProductID, req.Quantity)
	if err != nil {
		respondCartError(c, err, "Failed to add item to cart")
		return
	}

	log.Info("Item added to cart", map[string]interface{}{
		"user_id":    userID,
		"product_id": req.ProductID,
	})

	c.JSON(http.StatusCreated, gin.H{
		"message": "Item added to cart",
		"cart":    cart,
	})
}

type updateCartItemRequest struct {
	Quantity int `json:"quantity" binding:"required,gt=0"`
}

// UpdateCartItem changes the quantity of a cart line
// PUT /api/v1/cart/items/:id
func (ctrl *CartController) UpdateCartItem(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	itemID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req updateCartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"details": err.Error(),
		})
		return
	}

	cart, err := ctrl.cartService.UpdateCartItem(userID, itemID, req.Quantity)
	if err != nil {
		respondCartError(c, err, "Failed to update cart item")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Cart item updated",
		"cart":    cart,
	})
}

// RemoveCartItem deletes one cart line
// DELETE /api/v1/cart/items/:id
func (ctrl *CartController) RemoveCartItem(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	itemID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	cart, err := ctrl.cartService.RemoveCartItem(userID, itemID)
	if err != nil {
		respondCartError(c, err, "Failed to remove cart item")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Cart item removed",
		"cart":    cart,
	})
}

// ClearCart removes every line from the cart
// DELETE /api/v1/cart
func (ctrl *CartController) ClearCart(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	if err := ctrl.cartService.ClearCart(userID); err != nil {
		respondCartError(c, err, "Failed to clear cart")
		return
	}

	c.Status(http.StatusNoContent)
}

type bulkAddRequest struct {
	Items []service.BulkAddItem `json:"items" binding:"required,min=1,dive"`
}

// BulkAddItems adds several products in one call
// POST /api/v1/cart/items/bulk
func (ctrl *CartController) BulkAddItems(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	var req bulkAddRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"details": err.Error(),
		})
		return
	}

	cart, err := ctrl.cartService.BulkAdd(userID, req.Items)
	if err != nil {
		respondCartError(c, err, "Failed to add items to cart")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Items added to cart",
		"cart":    cart,
	})
}

type bulkUpdateRequest struct {
	Items []service.BulkUpdateItem `json:"items" binding:"required,min=1,dive"`
}

// BulkUpdateItems changes several line quantities in one call
// PUT /api/v1/cart/items/bulk
func (ctrl *CartController) BulkUpdateItems(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	var req bulkUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"details": err.Error(),
		})
		return
	}

	cart, err := ctrl.cartService.BulkUpdate(userID, req.Items)
	if err != nil {
		respondCartError(c, err, "Failed to update cart items")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Cart items updated",
		"cart":    cart,
	})
}

type bulkRemoveRequest struct {
	ItemIDs []uint `json:"item_ids" binding:"required,min=1"`
}

// BulkRemoveItems deletes several lines in one call
// POST /api/v1/cart/items/bulk-remove
func (ctrl *CartController) BulkRemoveItems(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	var req bulkRemoveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"details": err.Error(),
		})
		return
	}

	cart, err := ctrl.cartService.BulkRemove(userID, req.ItemIDs)
	if err != nil {
		respondCartError(c, err, "Failed to remove cart items")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Cart items removed",
		"cart":    cart,
	})
}

type applyCouponRequest struct {
	Code string `json:"code" binding:"required"`
}

// ApplyCoupon records a coupon on the cart
// POST /api/v1/cart/coupon
func (ctrl *CartController) ApplyCoupon(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	var req applyCouponRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"details": err.Error(),
		})
		return
	}

	cart, err := ctrl.cartService.ApplyCoupon(userID, req.Code)
	if err != nil {
		respondCartError(c, err, "Failed to apply coupon")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Coupon applied",
		"cart":    cart,
	})
}

// RemoveCoupon clears the coupon from the cart
// DELETE /api/v1/cart/coupon
func (ctrl *CartController) RemoveCoupon(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	cart, err := ctrl.cartService.RemoveCoupon(userID)
	if err != nil {
		respondCartError(c, err, "Failed to remove coupon")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Coupon removed",
		"cart":    cart,
	})
}

// CalculateTotal prices the cart without creating an order
// GET /api/v1/cart/calculate
func (ctrl *CartController) CalculateTotal(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	total, err := ctrl.cartService.CalculateTotal(userID, ctrl.taxRate, c.Query("shipping_method"))
	if err != nil {
		respondCartError(c, err, "Failed to calculate cart total")
		return
	}

	c.JSON(http.StatusOK, total)
}

// ValidateCart reports lines that can no longer be fulfilled
// GET /api/v1/cart/validate
func (ctrl *CartController) ValidateCart(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	validation, err := ctrl.cartService.ValidateCart(userID)
	if err != nil {
		respondCartError(c, err, "Failed to validate cart")
		return
	}

	c.JSON(http.StatusOK, validation)
}

// MoveToWishlist moves a cart line into the wishlist
// POST /api/v1/cart/items/:id/move-to-wishlist
func (ctrl *CartController) MoveToWishlist(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	itemID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := ctrl.cartService.MoveToWishlist(userID, itemID); err != nil {
		respondCartError(c, err, "Failed to move item to wishlist")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Item moved to wishlist",
	})
}

type moveFromWishlistRequest struct {
	ProductID uint `json:"product_id" binding:"required"`
	Quantity  int  `json:"quantity"`
}

// MoveFromWishlist moves a wishlist entry into the cart
// POST /api/v1/cart/move-from-wishlist
func (ctrl *CartController) MoveFromWishlist(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	var req moveFromWishlistRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"details": err.Error(),
		})
		return
	}

	cart, err := ctrl.cartService.MoveFromWishlist(userID, req.ProductID, req.Quantity)
	if err != nil {
		respondCartError(c, err, "Failed to move item to cart")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Item moved to cart",
		"cart":    cart,
	})
}

// ShareCart publishes a read-only snapshot of the cart
// POST /api/v1/cart/share
func (ctrl *CartController) ShareCart(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)
	userID, _ := middleware.GetUserID(c)

	snapshot, err := ctrl.cartService.ShareCart(c.Request.Context(), userID)
	if err != nil {
		respondCartError(c, err, "Failed to share cart")
		return
	}

	log.Info("Cart shared", map[string]interface{}{
		"user_id":  userID,
		"share_id": snapshot.ShareID,
	})

	c.JSON(http.StatusCreated, gin.H{
		"share_id": snapshot.ShareID,
		"cart":     snapshot,
	})
}

// GetSharedCart resolves a shared cart snapshot. No authentication is
// required; the share ID is the capability.
// GET /api/v1/cart/shared/:share_id
func (ctrl *CartController) GetSharedCart(c *gin.Context) {
	shareID := c.Param("share_id")

	snapshot, err := ctrl.cartService.GetSharedCart(c.Request.Context(), shareID)
	if err != nil {
		if errors.Is(err, service.ErrSharedCartNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Shared cart not found",
			})
			return
		}
		respondCartError(c, err, "Failed to fetch shared cart")
		return
	}

	c.JSON(http.StatusOK, gin.H{"cart": snapshot})
}
