package routes

import (
	"log"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"bridge-local-platform/internal/api/handlers"
	"bridge-local-platform/internal/api/middleware"
	"bridge-local-platform/internal/app"
)

// RegisterRoutes sets up the API routes by calling resource-specific registration functions
func RegisterRoutes(router *gin.Engine, app *app.Application) {

	// --- Base API Group ---
	apiV1 := router.Group("/api/v1")

	// Create handlers
	authHandler := handlers.NewAuthHandler(app.UserService, app.Validator)
	metaHandler := handlers.NewMetaHandler(app.Repos.Cities, app.Repos.ServiceCategories)
	jobHandler := handlers.NewJobHandler(app.JobService, app.QuoteService, app.PaymentService, app.Validator)
	contractorHandler := handlers.NewContractorHandler(app.ContractorService, app.Validator)
	operatorHandler := handlers.NewOperatorHandler(app.JobService, app.QuoteService, app.PaymentService, app.Validator)
	adminHandler := handlers.NewAdminHandler(app.JobService, app.Validator)
	webhookHandler := handlers.NewWebhookHandler(app.PaymentService)

	// --- Middleware ---
	authMiddleware := middleware.JWTAuthMiddleware(app.Config.JWT.Secret)

	// --- Register Resource Routes ---
	RegisterAuthRoutes(apiV1, authHandler)
	RegisterMetaRoutes(apiV1, metaHandler)
	RegisterJobRoutes(apiV1, jobHandler)
	RegisterContractorRoutes(apiV1, contractorHandler, authMiddleware)
	RegisterOperatorRoutes(apiV1, operatorHandler, adminHandler, authMiddleware)

	// --- Webhooks (signature-verified, no JWT) ---
	apiV1.POST("/webhooks/stripe", webhookHandler.StripeWebhook)

	// --- Health Check ---
	router.GET("/health", handlers.HealthCheck)

	log.Println("Configuring Swagger UI handler")
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
}
