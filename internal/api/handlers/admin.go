package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"bridge-local-platform/internal/services"
	"bridge-local-platform/internal/transport/dto"
)

// AdminHandler exposes maintenance endpoints gated to the admin role.
type AdminHandler struct {
	jobs      *services.JobService
	validator *validator.Validate
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(jobs *services.JobService, validate *validator.Validate) *AdminHandler {
	return &AdminHandler{jobs: jobs, validator: validate}
}

// RunSimulation godoc
// @Summary      Seed a simulated job
// @Description  Creates a test-flagged job with a synthetic client and runs it through matching. Useful as an end-to-end smoke check in sandbox environments.
// @Tags         admin
// @Accept       json
// @Produce      json
// @Param        body body dto.RunSimulationRequest true "City and service to simulate"
// @Success      201 {object} dto.JobResponse "Simulated job"
// @Failure      400 {object} map[string]string "Unknown city or service"
// @Router       /admin/simulations [post]
// @Security     BearerAuth
func (h *AdminHandler) RunSimulation(c *gin.Context) {
	var req dto.RunSimulationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}
	if err := h.validator.Struct(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Validation failed", "details": FormatValidationErrors(err)})
		return
	}

	job, err := h.jobs.RunSimulation(c.Request.Context(), req.CitySlug, req.ServiceCategorySlug)
	if err != nil {
		respondServiceError(c, err, "Failed to run simulation")
		return
	}
	c.JSON(http.StatusCreated, MapJobToResponse(job))
}
