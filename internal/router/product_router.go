package router

import (
	"github.com/gin-gonic/gin"
	"github.com/mpatel/shopline-backend/config"
	"github.com/mpatel/shopline-backend/internal/app/controller"
	"github.com/mpatel/shopline-backend/internal/middleware"
)

// ProductRouter wires the catalog, cart, order and wishlist routes of
// the product service.
type ProductRouter struct {
	productController  *controller.ProductController
	cartController     *controller.CartController
	orderController    *controller.OrderController
	wishlistController *controller.WishlistController
	authMiddleware     *middleware.AuthMiddleware
	config             *config.Config
}

func NewProductRouter(
	productController *controller.ProductController,
	cartController *controller.CartController,
	orderController *controller.OrderController,
	wishlistController *controller.WishlistController,
	authMiddleware *middleware.AuthMiddleware,
	cfg *config.Config,
) *ProductRouter {
	return &ProductRouter{
		productController:  productController,
		cartController:     cartController,
		orderController:    orderController,
		wishlistController: wishlistController,
		authMiddleware:     authMiddleware,
		config:             cfg,
	}
}

func (r *ProductRouter) Setup() *gin.Engine {
	gin.SetMode(r.config.Server.GinMode)

	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(middleware.LoggingMiddleware())
	router.Use(corsMiddleware(r.config.CORS.AllowedOrigins))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "healthy",
			"message": "SHOPLINE product API is running",
		})
	})

	v1 := router.Group("/api/v1")
	{
		products := v1.Group("/products")
		{
			products.GET("", r.productController.ListProducts)
			products.GET("/search", r.productController.SearchProducts)
			products.GET("/category/:id", r.productController.GetProductsByCategory)
			products.GET("/:id", r.productController.GetProductByID)
			products.GET("/:id/availability", r.productController.GetAvailability)

			products.POST("",
				r.authMiddleware.Authenticate(),
				r.authMiddleware.RequireRole("admin"),
				r.productController.CreateProduct,
			)
			products.PUT("/:id",
				r.authMiddleware.Authenticate(),
				r.authMiddleware.RequireRole("admin"),
				r.productController.UpdateProduct,
			)
			products.PATCH("/:id",
				r.authMiddleware.Authenticate(),
				r.authMiddleware.RequireRole("admin"),
				r.productController.PatchProduct,
			)
			products.PATCH("/:id/inventory",
				r.authMiddleware.Authenticate(),
				r.authMiddleware.RequireRole("admin"),
				r.productController.UpdateInventory,
			)
			products.DELETE("/:id",
				r.authMiddleware.Authenticate(),
				r.authMiddleware.RequireRole("admin"),
				r.productController.DeleteProduct,
			)
			products.POST("/:id/images/presign",
				r.authMiddleware.Authenticate(),
				r.authMiddleware.RequireRole("admin"),
				r.productController.PresignProductImage,
			)
			products.POST("/:id/images",
				r.authMiddleware.Authenticate(),
				r.authMiddleware.RequireRole("admin"),
				r.productController.AddProductImages,
			)
		}

		categories := v1.Group("/categories")
		{
			categories.GET("", r.productController.ListCategories)
			categories.POST("",
				r.authMiddleware.Authenticate(),
				r.authMiddleware.RequireRole("admin"),
				r.productController.CreateCategory,
			)
		}

		// Shared cart snapshots are public; the share ID is the capability.
		v1.GET("/cart/shared/:share_id", r.cartController.GetSharedCart)

		cart := v1.Group("/cart")
		cart.Use(r.authMiddleware.Authenticate())
		{
			cart.GET("", r.cartController.GetCart)
			cart.DELETE("", r.cartController.ClearCart)
			cart.POST("/items", r.cartController.AddCartItem)
			cart.PUT("/items/:id", r.cartController.UpdateCartItem)
			cart.DELETE("/items/:id", r.cartController.RemoveCartItem)
			cart.POST("/items/bulk", r.cartController.BulkAddItems)
			cart.PUT("/items/bulk", r.cartController.BulkUpdateItems)
			cart.POST("/items/bulk-remove", r.cartController.BulkRemoveItems)
			cart.POST("/items/:id/move-to-wishlist", r.cartController.MoveToWishlist)
			cart.POST("/move-from-wishlist", r.cartController.MoveFromWishlist)
			cart.POST("/coupon", r.cartController.ApplyCoupon)
			cart.DELETE("/coupon", r.cartController.RemoveCoupon)
			cart.GET("/calculate", r.cartController.CalculateTotal)
			cart.GET("/validate", r.cartController.ValidateCart)
			cart.POST("/share", r.cartController.ShareCart)
		}

		orders := v1.Group("/orders")
		orders.Use(r.authMiddleware.Authenticate())
		{
			orders.GET("", r.orderController.GetUserOrders)
			orders.POST("/checkout", r.orderController.Checkout)
			// Legacy alias kept for clients still posting to /from-cart
			orders.POST("/from-cart", r.orderController.Checkout)
			orders.POST("/direct", r.orderController.DirectOrder)
			orders.GET("/:id", r.orderController.GetOrderByID)
			orders.GET("/:id/tracking", r.orderController.GetOrderTracking)

			orders.PATCH("/:id/status",
				r.authMiddleware.RequireRole("admin"),
				r.orderController.UpdateOrderStatus,
			)
		}

		wishlist := v1.Group("/wishlist")
		wishlist.Use(r.authMiddleware.Authenticate())
		{
			wishlist.GET("", r.wishlistController.GetWishlist)
			wishlist.POST("", r.wishlistController.AddWishlistItem)
			wishlist.DELETE("/:product_id", r.wishlistController.RemoveWishlistItem)
		}
	}

	return router
}
