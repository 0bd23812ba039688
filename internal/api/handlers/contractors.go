package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"bridge-local-platform/internal/api/middleware"
	"bridge-local-platform/internal/services"
	"bridge-local-platform/internal/transport/dto"
)

// ContractorHandler serves contractor signup and the offer workflow.
type ContractorHandler struct {
	service   *services.ContractorService
	validator *validator.Validate
}

// NewContractorHandler creates a new ContractorHandler.
func NewContractorHandler(service *services.ContractorService, validate *validator.Validate) *ContractorHandler {
	return &ContractorHandler{service: service, validator: validate}
}

// Signup godoc
// @Summary      Register as a contractor
// @Description  Creates a contractor account and profile in pending_review.
// @Tags         contractors
// @Accept       json
// @Produce      json
// @Param        signup body dto.ContractorSignupRequest true "Signup details"
// @Success      201 {object} dto.ContractorProfileResponse "Profile created"
// @Failure      400 {object} map[string]string "Bad Request - Invalid input"
// @Failure      409 {object} map[string]string "Email already registered"
// @Failure      500 {object} map[string]string "Internal Server Error"
// @Router       /contractors/signup [post]
func (h *ContractorHandler) Signup(c *gin.Context) {
	var req dto.ContractorSignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}
	if err := h.validator.Struct(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Validation failed", "details": FormatValidationErrors(err)})
		return
	}

	profile, err := h.service.Signup(c.Request.Context(), &req)
	if err != nil {
		respondServiceError(c, err, "Failed to sign up contractor")
		return
	}
	c.JSON(http.StatusCreated, MapProfileToResponse(profile))
}

// GetProfile godoc
// @Summary      Get own contractor profile
// @Tags         contractors
// @Produce      json
// @Success      200 {object} dto.ContractorProfileResponse "Profile"
// @Failure      401 {object} map[string]string "Unauthorized"
// @Failure      404 {object} map[string]string "No profile for this account"
// @Router       /contractors/me [get]
// @Security     BearerAuth
func (h *ContractorHandler) GetProfile(c *gin.Context) {
	userID, err := middleware.GetUserIDFromContext(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}
	profile, err := h.service.GetProfileByUser(c.Request.Context(), userID)
	if err != nil {
		respondServiceError(c, err, "Failed to load profile")
		return
	}
	c.JSON(http.StatusOK, MapProfileToResponse(profile))
}

// ListOffers godoc
// @Summary      List open offers
// @Description  Open jobs in the contractor's city matching their services.
// @Tags         contractors
// @Produce      json
// @Success      200 {array} dto.OfferResponse "Open offers"
// @Failure      401 {object} map[string]string "Unauthorized"
// @Failure      404 {object} map[string]string "No profile for this account"
// @Router       /contractors/me/offers [get]
// @Security     BearerAuth
func (h *ContractorHandler) ListOffers(c *gin.Context) {
	userID, err := middleware.GetUserIDFromContext(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}
	jobs, err := h.service.ListOffers(c.Request.Context(), userID)
	if err != nil {
		respondServiceError(c, err, "Failed to list offers")
		return
	}
	offers := make([]dto.OfferResponse, 0, len(jobs))
	for i := range jobs {
		offers = append(offers, MapJobToOffer(&jobs[i]))
	}
	c.JSON(http.StatusOK, offers)
}

// AcceptOffer godoc
// @Summary      Claim an offered job
// @Description  First contractor to claim wins; a lost race returns 409.
// @Tags         contractors
// @Produce      json
// @Param        job_id path string true "Job ID" Format(uuid)
// @Success      200 {object} dto.AcceptOfferResponse "Claim won"
// @Failure      400 {object} map[string]string "Job not open for offers"
// @Failure      401 {object} map[string]string "Unauthorized"
// @Failure      403 {object} map[string]string "Profile does not cover this job"
// @Failure      404 {object} map[string]string "Job or profile not found"
// @Failure      409 {object} map[string]string "Already claimed"
// @Router       /contractors/offers/{job_id}/accept [post]
// @Security     BearerAuth
func (h *ContractorHandler) AcceptOffer(c *gin.Context) {
	userID, err := middleware.GetUserIDFromContext(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}
	jobID, err := uuid.Parse(c.Param("job_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid job ID format"})
		return
	}

	job, err := h.service.AcceptOffer(c.Request.Context(), jobID, userID)
	if err != nil {
		respondServiceError(c, err, "Failed to accept offer")
		return
	}
	resp := dto.AcceptOfferResponse{
		JobID:  job.ID.String(),
		Status: string(job.Status),
	}
	if job.AcceptedAt != nil {
		resp.AcceptedAt = *job.AcceptedAt
	}
	c.JSON(http.StatusOK, resp)
}

// MarkComplete godoc
// @Summary      Mark an assigned job complete
// @Description  Drives the job to completed, which generates the payout.
// @Tags         contractors
// @Produce      json
// @Param        job_id path string true "Job ID" Format(uuid)
// @Success      200 {object} dto.JobResponse "Job completed"
// @Failure      400 {object} map[string]string "Invalid transition"
// @Failure      401 {object} map[string]string "Unauthorized"
// @Failure      403 {object} map[string]string "Job not assigned to this contractor"
// @Failure      404 {object} map[string]string "Job or profile not found"
// @Router       /contractors/jobs/{job_id}/mark-complete [post]
// @Security     BearerAuth
func (h *ContractorHandler) MarkComplete(c *gin.Context) {
	userID, err := middleware.GetUserIDFromContext(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}
	jobID, err := uuid.Parse(c.Param("job_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid job ID format"})
		return
	}

	job, err := h.service.MarkComplete(c.Request.Context(), jobID, userID)
	if err != nil {
		respondServiceError(c, err, "Failed to mark job complete")
		return
	}
	c.JSON(http.StatusOK, MapJobToResponse(job))
}
