// Package v1 provides HTTP API version 1.
package v1

import (
	"github.com/gin-gonic/gin"

	"kitchenledger/internal/core/numerator"
	"kitchenledger/internal/domain/costing"
	"kitchenledger/internal/domain/inventory"
	"kitchenledger/internal/domain/orders"
	"kitchenledger/internal/domain/procurement"
	"kitchenledger/internal/domain/recipe"
	"kitchenledger/internal/domain/reports"
	"kitchenledger/internal/infrastructure/http/v1/handlers"
	"kitchenledger/internal/infrastructure/http/v1/middleware"
	"kitchenledger/pkg/logger"
)

// RouterConfig holds the services the API exposes.
type RouterConfig struct {
	// Logger for request logging
	Logger *logger.Logger

	// DB is pinged by the readiness probe; nil on the in-memory store
	DB handlers.Pinger

	Version string

	Inventory   *inventory.Service
	Recipes     *recipe.Service
	Orders      orders.Repository
	Numbers     numerator.Generator
	Costing     *costing.Service
	Procurement *procurement.Service
	Reports     *reports.Service
}

// NewRouter creates and configures the Gin router.
func NewRouter(cfg RouterConfig) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	// ErrorHandler wraps Recovery so a recovered panic still gets a JSON body.
	router.Use(middleware.Trace())
	router.Use(middleware.Logger(cfg.Logger))
	router.Use(middleware.ErrorHandler())
	router.Use(middleware.Recovery())

	healthHandler := handlers.NewHealthHandler(cfg.DB, cfg.Version)
	health := router.Group("/health")
	{
		health.GET("/live", healthHandler.Live)
		health.GET("/ready", healthHandler.Ready)
	}

	api := router.Group("/api/v1")
	api.Use(middleware.Tenant())
	api.Use(middleware.Actor())

	base := handlers.NewBaseHandler()
	registerOrderRoutes(api, handlers.NewOrdersHandler(base, cfg.Costing, cfg.Orders, cfg.Numbers))
	registerInventoryRoutes(api, handlers.NewInventoryHandler(base, cfg.Inventory))
	registerProductRoutes(api, handlers.NewProductsHandler(base, cfg.Recipes))
	registerProcurementRoutes(api, handlers.NewProcurementHandler(base, cfg.Procurement))
	registerReportRoutes(api, handlers.NewReportsHandler(base, cfg.Reports))

	return router
}

func registerOrderRoutes(rg *gin.RouterGroup, h *handlers.OrdersHandler) {
	g := rg.Group("/orders")
	g.POST("", h.Create)
	g.GET("/:id", h.Get)
	g.POST("/:id/checkout", h.Checkout)
	g.POST("/:id/costing", h.ProcessStock)
}

func registerInventoryRoutes(rg *gin.RouterGroup, h *handlers.InventoryHandler) {
	g := rg.Group("/inventory")
	g.POST("/raw-materials", h.CreateRawMaterial)
	g.POST("/raw-materials/:id/reconcile", h.Reconcile)
	g.POST("/lots", h.ReceiveLot)
	g.GET("/audit", h.Audit)
}

func registerProductRoutes(rg *gin.RouterGroup, h *handlers.ProductsHandler) {
	g := rg.Group("/products")
	g.POST("", h.Create)
	g.PUT("/:id/recipe", h.SetRecipe)
	g.GET("/:id/recipe", h.GetRecipe)
}

func registerProcurementRoutes(rg *gin.RouterGroup, h *handlers.ProcurementHandler) {
	rg.GET("/procurement/suggestions", h.Suggestions)
}

func registerReportRoutes(rg *gin.RouterGroup, h *handlers.ReportsHandler) {
	g := rg.Group("/reports")
	g.GET("/profit-loss", h.ProfitLoss)
	g.GET("/profit-loss.xlsx", h.ProfitLossXLSX)
}
