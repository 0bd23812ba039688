package routes

import (
	"github.com/gin-gonic/gin"

	"bridge-local-platform/internal/api/handlers"
)

// RegisterMetaRoutes registers the public catalog routes
func RegisterMetaRoutes(rg *gin.RouterGroup, metaHandler *handlers.MetaHandler) {
	meta := rg.Group("/meta")
	{
		meta.GET("/cities", metaHandler.ListCities)
		meta.GET("/service-categories", metaHandler.ListServiceCategories)
	}
}
