package routes

import (
	"github.com/gin-gonic/gin"

	"bridge-local-platform/internal/api/handlers"
)

// RegisterJobRoutes registers the public client-facing job routes. These are
// unauthenticated: intake is open, and everything after relies on the
// per-job view token.
func RegisterJobRoutes(rg *gin.RouterGroup, jobHandler *handlers.JobHandler) {
	jobs := rg.Group("/jobs")
	{
		jobs.POST("", jobHandler.CreateJob)
		jobs.GET("/:id/status", jobHandler.GetStatus)
		jobs.POST("/:id/approve-quote", jobHandler.ApproveQuote)
		jobs.POST("/:id/payment-sent", jobHandler.MarkPaymentSent)
	}
}
