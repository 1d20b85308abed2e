package handlers

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/mativs/mattilda/internal/core/ports/platform"
	portssvc "github.com/mativs/mattilda/internal/core/ports/services"
	"github.com/mativs/mattilda/internal/middleware"
	"github.com/mativs/mattilda/internal/platform/config"
)

// RegisterRoutes sets up all application routes, injecting dependencies using interfaces
func RegisterRoutes(
	r *gin.Engine,
	cfg *config.Config,
	services *portssvc.ServiceContainer,
	dispatcher platform.TaskDispatcher,
) {

	// Add health check route
	r.GET("/health", func(c *gin.Context) {
		c.String(200, "OK")
	})

	// Setup API v1 routes with tenant scoping, passing service interfaces
	setupAPIV1Routes(r, services, dispatcher)

	// Swagger routes (conditionally available)
	setupSwaggerRoutes(r, cfg)
}

// setupAPIV1Routes configures the /api/v1 group and delegates to specific entity route registrations
func setupAPIV1Routes(
	r *gin.Engine,
	service *portssvc.ServiceContainer,
	dispatcher platform.TaskDispatcher,
) {
	// Every v1 route operates within a school scope
	v1 := r.Group("/api/v1", middleware.TenantContextMiddleware())

	// Delegate route registration to specific handlers, passing required services
	registerChargeRoutes(v1, service.Charge)
	registerInvoiceRoutes(v1, service.Invoice, dispatcher)
	registerPaymentRoutes(v1, service.Payment)
	registerReconciliationRoutes(v1, service.Reconciliation)
}

// setupSwaggerRoutes configures the swagger documentation routes
func setupSwaggerRoutes(r *gin.Engine, cfg *config.Config) {
	// Swagger setup
	if cfg.IsProduction {
		//no swagger in prod
		return
	}
	swagger := r.Group("/swagger")
	swagger.GET("/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
}
