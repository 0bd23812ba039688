package routes

import (
	"github.com/gin-gonic/gin"

	"bridge-local-platform/internal/api/handlers"
	"bridge-local-platform/internal/api/middleware"
)

// RegisterOperatorRoutes registers the operator back office and the
// admin-only simulation endpoint
func RegisterOperatorRoutes(rg *gin.RouterGroup, operatorHandler *handlers.OperatorHandler, adminHandler *handlers.AdminHandler, authMiddleware gin.HandlerFunc) {
	operator := rg.Group("/operator")
	operator.Use(authMiddleware, middleware.RequireRole("operator", "admin"))
	{
		operator.GET("/jobs", operatorHandler.ListJobs)
		operator.GET("/jobs/:id", operatorHandler.GetJobDetail)
		operator.POST("/jobs/:id/quotes", operatorHandler.CreateQuote)
		operator.POST("/jobs/:id/send-quote", operatorHandler.SendQuote)
		operator.POST("/jobs/:id/cancel", operatorHandler.CancelJob)
		operator.POST("/jobs/:id/retrigger-matching", operatorHandler.RetriggerMatching)
		operator.POST("/payments/:id/mark-paid", operatorHandler.MarkPaymentPaid)
		operator.GET("/payouts", operatorHandler.ListPayouts)
		operator.POST("/payouts/:id/mark-paid", operatorHandler.MarkPayoutPaid)
	}

	admin := rg.Group("/admin")
	admin.Use(authMiddleware, middleware.RequireRole("admin"))
	{
		admin.POST("/simulations", adminHandler.RunSimulation)
	}
}
