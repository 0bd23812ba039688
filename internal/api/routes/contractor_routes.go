package routes

import (
	"github.com/gin-gonic/gin"

	"bridge-local-platform/internal/api/handlers"
	"bridge-local-platform/internal/api/middleware"
)

// RegisterContractorRoutes registers contractor signup and the authenticated
// offer workflow
func RegisterContractorRoutes(rg *gin.RouterGroup, contractorHandler *handlers.ContractorHandler, authMiddleware gin.HandlerFunc) {
	contractors := rg.Group("/contractors")
	{
		contractors.POST("/signup", contractorHandler.Signup)
	}

	me := contractors.Group("/me")
	me.Use(authMiddleware, middleware.RequireRole("contractor"))
	{
		me.GET("/profile", contractorHandler.GetProfile)
		me.GET("/offers", contractorHandler.ListOffers)
		me.POST("/offers/:job_id/accept", contractorHandler.AcceptOffer)
		me.POST("/jobs/:job_id/complete", contractorHandler.MarkComplete)
	}
}
