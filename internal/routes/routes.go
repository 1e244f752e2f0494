package routes

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"electrocart_back_end/internal/account"
	"electrocart_back_end/internal/catalog"
	"electrocart_back_end/internal/handlers/admin"
	"electrocart_back_end/internal/handlers/order"
	"electrocart_back_end/internal/handlers/product"
	"electrocart_back_end/internal/handlers/user"
	"electrocart_back_end/internal/middleware"
	"electrocart_back_end/internal/orders"
	"electrocart_back_end/internal/services"
	"electrocart_back_end/internal/utils"
)

// Deps services montés par RegisterRoutes. Limiter et Metrics peuvent être nil.
type Deps struct {
	Accounts  *account.Service
	Catalog   *catalog.Service
	Orders    *orders.Service
	Images    services.ImageStore
	UploadDir string
	Auditor   *utils.Auditor
	Limiter   *middleware.RateLimiter
	Metrics   *middleware.Metrics
	StoreName string

	ClientURL  string
	Production bool
}

// CORSConfig: en production seule l'URL du client est autorisée, en dev tout localhost.
func CORSConfig(clientURL string, production bool) cors.Config {
	cfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if production {
		cfg.AllowOrigins = []string{strings.TrimRight(clientURL, "/")}
		return cfg
	}
	cfg.AllowOriginFunc = func(origin string) bool {
		return strings.HasPrefix(origin, "http://localhost") ||
			strings.HasPrefix(origin, "http://127.0.0.1") ||
			origin == strings.TrimRight(clientURL, "/")
	}
	return cfg
}

func RegisterRoutes(r *gin.Engine, d Deps) {
	r.Use(cors.New(CORSConfig(d.ClientURL, d.Production)))
	if d.Metrics != nil {
		r.Use(d.Metrics.Instrument())
		r.GET("/metrics", gin.WrapH(d.Metrics.Handler()))
	}

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "store": d.StoreName})
	})
	if d.UploadDir != "" {
		r.Static("/uploads", d.UploadDir)
	}

	auth := middleware.AuthRequired(d.Accounts)
	rl := d.Limiter

	api := r.Group("/api")
	api.Use(rl.APIRateLimit())

	// Auth
	authHandler := user.NewAuthHandler(d.Accounts)
	authGroup := api.Group("/auth")
	{
		authGroup.POST("/register", rl.RegisterRateLimit(), authHandler.Register)
		authGroup.POST("/login", rl.LoginRateLimit(), authHandler.Login)
		authGroup.POST("/forgot-password", rl.ForgotPasswordRateLimit(), authHandler.ForgotPassword)
		authGroup.POST("/reset-password", authHandler.ResetPassword)
		authGroup.GET("/me", auth, authHandler.Me)
	}

	// Produits
	productHandler := product.NewProductHandler(d.Catalog, d.Images)
	products := api.Group("/products")
	{
		products.GET("", productHandler.List)
		products.GET("/search", rl.SearchRateLimit(), productHandler.Search)
		products.GET("/by-id/:id", productHandler.GetByID)
		products.GET("/:slug", productHandler.GetBySlug)

		products.POST("", auth, middleware.RequireAdmin,
			middleware.AuditCriticalActions(d.Auditor, utils.ACTION_PRODUCT_CREATE, utils.RESOURCE_PRODUCT),
			productHandler.Create)
		products.PUT("/:id", auth, middleware.RequireAdmin,
			middleware.AuditCriticalActions(d.Auditor, utils.ACTION_PRODUCT_UPDATE, utils.RESOURCE_PRODUCT),
			productHandler.Update)
		products.DELETE("/:id", auth, middleware.RequireAdmin,
			middleware.AuditCriticalActions(d.Auditor, utils.ACTION_PRODUCT_DELETE, utils.RESOURCE_PRODUCT),
			productHandler.Delete)
	}

	// Commandes
	orderHandler := order.NewOrderHandler(d.Orders, d.Metrics)
	ordersGroup := api.Group("/orders", auth)
	{
		ordersGroup.POST("", orderHandler.Create)
		ordersGroup.GET("/my", orderHandler.Mine)
		ordersGroup.GET("/track/:id", orderHandler.Track)
		ordersGroup.GET("", middleware.RequireAdmin, orderHandler.All)
		ordersGroup.PATCH("/:id", middleware.RequireAdmin, orderHandler.Update)
	}

	// Admin
	api.GET("/analytics", auth, middleware.RequireAdmin, admin.GetSalesStats(d.Orders))
	auditHandler := admin.NewAuditHandler(d.Auditor)
	adminGroup := api.Group("/admin", auth, middleware.RequireAdmin)
	{
		adminGroup.GET("/audit", auditHandler.GetAuditLogs)
		adminGroup.GET("/audit/stats", auditHandler.GetAuditStats)
	}

	api.GET("/uploads/list", product.ListUploads(d.Images))
}
