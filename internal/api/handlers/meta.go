package handlers

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"bridge-local-platform/internal/storage"
	"bridge-local-platform/internal/transport/dto"
)

// MetaHandler serves the public lookup tables.
type MetaHandler struct {
	cities     storage.CityRepository
	categories storage.ServiceCategoryRepository
}

// NewMetaHandler creates a new MetaHandler.
func NewMetaHandler(cities storage.CityRepository, categories storage.ServiceCategoryRepository) *MetaHandler {
	return &MetaHandler{cities: cities, categories: categories}
}

// ListCities godoc
// @Summary      List serviceable cities
// @Tags         meta
// @Produce      json
// @Success      200 {array} dto.CityResponse "Active cities"
// @Failure      500 {object} map[string]string "Internal Server Error"
// @Router       /meta/cities [get]
func (h *MetaHandler) ListCities(c *gin.Context) {
	cities, err := h.cities.ListActive(c.Request.Context())
	if err != nil {
		log.Printf("Error listing cities: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list cities"})
		return
	}
	out := make([]dto.CityResponse, 0, len(cities))
	for _, city := range cities {
		out = append(out, dto.CityResponse{
			ID:    city.ID.String(),
			Slug:  city.Slug,
			Name:  city.Name,
			State: city.State,
		})
	}
	c.JSON(http.StatusOK, out)
}

// ListServiceCategories godoc
// @Summary      List service categories
// @Tags         meta
// @Produce      json
// @Success      200 {array} dto.ServiceCategoryResponse "Offered trades"
// @Failure      500 {object} map[string]string "Internal Server Error"
// @Router       /meta/service-categories [get]
func (h *MetaHandler) ListServiceCategories(c *gin.Context) {
	categories, err := h.categories.List(c.Request.Context())
	if err != nil {
		log.Printf("Error listing service categories: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list service categories"})
		return
	}
	out := make([]dto.ServiceCategoryResponse, 0, len(categories))
	for _, cat := range categories {
		out = append(out, dto.ServiceCategoryResponse{
			ID:          cat.ID.String(),
			Slug:        cat.Slug,
			DisplayName: cat.DisplayName,
			Description: cat.Description,
		})
	}
	c.JSON(http.StatusOK, out)
}
