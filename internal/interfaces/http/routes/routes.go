// internal/interfaces/http/routes/routes.go
package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/your-org/storefront/internal/config"
	"github.com/your-org/storefront/internal/domain/catalog"
	"github.com/your-org/storefront/internal/domain/storefront"
	"github.com/your-org/storefront/internal/interfaces/http/handlers"
	"github.com/your-org/storefront/internal/interfaces/http/middleware"
)

// Dependencies are the services the API routes are built on
type Dependencies struct {
	Registry *storefront.Registry
	Catalog  *catalog.Service
	Accounts handlers.AccountConfirmer
	PDF      handlers.ConfirmationRenderer
	Config   *config.Config
	Logger   logrus.FieldLogger
}

// SetupRoutes sets up all API routes. Every route runs inside the visitor's
// workspace.
func SetupRoutes(rg *gin.RouterGroup, deps Dependencies) {
	rg.Use(middleware.Workspace(deps.Registry, deps.Config, deps.Logger))

	SetupAuthRoutes(rg, deps)
	SetupCatalogRoutes(rg, deps)
	SetupCartRoutes(rg)
	SetupWishlistRoutes(rg)
	SetupCheckoutRoutes(rg)
	SetupOrderRoutes(rg, deps)
}

// SetupAuthRoutes sets up authentication related routes
func SetupAuthRoutes(rg *gin.RouterGroup, deps Dependencies) {
	authHandler := handlers.NewAuthHandler(deps.Accounts, deps.Logger)

	auth := rg.Group("/auth")
	{
		auth.GET("/session", authHandler.Session)
		auth.POST("/sign-in", authHandler.SignIn)
		auth.POST("/sign-up", authHandler.SignUp)
		auth.POST("/sign-out", authHandler.SignOut)
		auth.POST("/reset-password", authHandler.ResetPassword)
		auth.POST("/reset-password/confirm", authHandler.ConfirmPasswordReset)
		auth.GET("/confirm", authHandler.ConfirmEmail)
	}
}

// SetupCatalogRoutes sets up product and category routes
func SetupCatalogRoutes(rg *gin.RouterGroup, deps Dependencies) {
	catalogHandler := handlers.NewCatalogHandler(deps.Catalog)

	products := rg.Group("/products")
	{
		products.GET("", catalogHandler.GetProducts)
		products.GET("/search", catalogHandler.SearchProducts)
		products.GET("/:slug", catalogHandler.GetProduct)
		products.GET("/:slug/reviews", catalogHandler.GetProductReviews)
		products.POST("/:slug/reviews", middleware.RequireAuthenticated(), catalogHandler.AddProductReview)
	}

	rg.GET("/categories", catalogHandler.GetCategories)
}

// SetupCartRoutes sets up cart related routes
func SetupCartRoutes(rg *gin.RouterGroup) {
	cartHandler := handlers.NewCartHandler()

	cart := rg.Group("/cart")
	cart.Use(middleware.RequireAuthenticated())
	{
		cart.GET("", cartHandler.GetCart)
		cart.POST("/items", cartHandler.AddToCart)
		cart.PUT("/items/:id", cartHandler.UpdateCartItem)
		cart.DELETE("/items/:id", cartHandler.RemoveFromCart)
	}
}

// SetupWishlistRoutes sets up wishlist related routes
func SetupWishlistRoutes(rg *gin.RouterGroup) {
	wishlistHandler := handlers.NewWishlistHandler()

	wishlist := rg.Group("/wishlist")
	wishlist.Use(middleware.RequireAuthenticated())
	{
		wishlist.GET("", wishlistHandler.GetWishlist)
		wishlist.POST("/items", wishlistHandler.AddToWishlist)
		wishlist.GET("/items/:productId", wishlistHandler.CheckWishlist)
		wishlist.DELETE("/items/:productId", wishlistHandler.RemoveFromWishlist)
	}
}

// SetupCheckoutRoutes sets up checkout routes
func SetupCheckoutRoutes(rg *gin.RouterGroup) {
	checkoutHandler := handlers.NewCheckoutHandler()

	checkout := rg.Group("/checkout")
	checkout.Use(middleware.RequireAuthenticated())
	{
		checkout.GET("/summary", checkoutHandler.GetSummary)
		checkout.POST("", checkoutHandler.PlaceOrder)
	}
}

// SetupOrderRoutes sets up order history routes
func SetupOrderRoutes(rg *gin.RouterGroup, deps Dependencies) {
	orderHandler := handlers.NewOrderHandler()
	invoiceHandler := handlers.NewInvoiceHandler(deps.PDF, deps.Logger)

	orders := rg.Group("/orders")
	orders.Use(middleware.RequireAuthenticated())
	{
		orders.GET("", orderHandler.GetOrders)
		orders.GET("/:id", orderHandler.GetOrder)
		orders.GET("/:id/confirmation.pdf", invoiceHandler.GetConfirmation)
	}
}
