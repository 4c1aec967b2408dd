package router

import (
	"github.com/gin-gonic/gin"
	"github.com/mpatel/shopline-backend/config"
	"github.com/mpatel/shopline-backend/internal/app/controller"
	"github.com/mpatel/shopline-backend/internal/middleware"
)

// UserRouter wires the authentication routes of the user service.
type UserRouter struct {
	authController *controller.AuthController
	config         *config.Config
}

func NewUserRouter(authController *controller.AuthController, cfg *config.Config) *UserRouter {
	return &UserRouter{
		authController: authController,
		config:         cfg,
	}
}

func (r *UserRouter) Setup() *gin.Engine {
	gin.SetMode(r.config.Server.GinMode)

	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(middleware.LoggingMiddleware())
	router.Use(corsMiddleware(r.config.CORS.AllowedOrigins))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "healthy",
			"message": "SHOPLINE user API is running",
		})
	})

	v1 := router.Group("/api/v1")
	{
		users := v1.Group("/users")
		{
			users.POST("/signup", r.authController.Signup)
			users.POST("/login", r.authController.Login)
			users.POST("/logout", r.authController.Logout)
			users.POST("/validate/:token", r.authController.ValidateToken)
		}
	}

	return router
}
