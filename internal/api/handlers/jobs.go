package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"bridge-local-platform/internal/services"
	"bridge-local-platform/internal/transport/dto"
)

// JobHandler serves the public (client-facing) job endpoints. All access
// after creation is authorized by the job's view token, not a login.
type JobHandler struct {
	jobs      *services.JobService
	quotes    *services.QuoteService
	payments  *services.PaymentService
	validator *validator.Validate
}

// NewJobHandler creates a new JobHandler.
func NewJobHandler(jobs *services.JobService, quotes *services.QuoteService, payments *services.PaymentService, validate *validator.Validate) *JobHandler {
	return &JobHandler{jobs: jobs, quotes: quotes, payments: payments, validator: validate}
}

// CreateJob godoc
// @Summary      Submit a new job
// @Description  Creates a job and starts contractor matching. The response carries the client view token, shown exactly once.
// @Tags         jobs
// @Accept       json
// @Produce      json
// @Param        job body dto.CreateJobRequest true "Job details"
// @Success      201 {object} dto.CreateJobResponse "Job created"
// @Failure      400 {object} map[string]string "Bad Request - Invalid input"
// @Failure      500 {object} map[string]string "Internal Server Error"
// @Router       /jobs [post]
func (h *JobHandler) CreateJob(c *gin.Context) {
	var req dto.CreateJobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}
	if err := h.validator.Struct(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Validation failed", "details": FormatValidationErrors(err)})
		return
	}

	job, err := h.jobs.CreateJob(c.Request.Context(), &req)
	if err != nil {
		respondServiceError(c, err, "Failed to create job")
		return
	}

	resp := dto.CreateJobResponse{
		JobID:           job.ID.String(),
		Status:          string(job.Status),
		ClientViewToken: job.ClientViewToken,
	}
	if job.PricingSuggestion != nil {
		resp.PricingSuggestion = &dto.PricingSuggestionResponse{
			TotalCents:         job.PricingSuggestion.TotalCents,
			PlatformCutCents:   job.PricingSuggestion.PlatformCutCents,
			ContractorCutCents: job.PricingSuggestion.ContractorCutCents,
			Source:             job.PricingSuggestion.Source,
		}
	}
	c.JSON(http.StatusCreated, resp)
}

// GetStatus godoc
// @Summary      Get job status (tokenized)
// @Description  Client status view authorized by the job view token.
// @Tags         jobs
// @Produce      json
// @Param        id path string true "Job ID" Format(uuid)
// @Param        token query string true "Client view token"
// @Success      200 {object} dto.JobStatusResponse "Job status"
// @Failure      400 {object} map[string]string "Invalid ID format"
// @Failure      403 {object} map[string]string "Token mismatch"
// @Failure      404 {object} map[string]string "Job Not Found"
// @Router       /jobs/{id}/status [get]
func (h *JobHandler) GetStatus(c *gin.Context) {
	jobID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid job ID format"})
		return
	}
	token := c.Query("token")

	view, err := h.jobs.GetStatus(c.Request.Context(), jobID, token)
	if err != nil {
		respondServiceError(c, err, "Failed to retrieve job status")
		return
	}

	resp := dto.JobStatusResponse{
		JobID:       view.Job.ID.String(),
		Status:      string(view.Job.Status),
		CreatedAt:   view.Job.CreatedAt,
		UpdatedAt:   view.Job.UpdatedAt,
		AcceptedAt:  view.Job.AcceptedAt,
		CompletedAt: view.Job.CompletedAt,
		CancelledAt: view.Job.CancelledAt,
	}
	if view.LatestQuote != nil {
		summary := MapQuoteToSummary(view.LatestQuote)
		resp.LatestQuote = &summary
	}
	if view.LatestPayment != nil {
		summary := MapPaymentToSummary(view.LatestPayment)
		resp.LatestPayment = &summary
	}
	c.JSON(http.StatusOK, resp)
}

// ApproveQuote godoc
// @Summary      Approve the latest quote (tokenized)
// @Description  Approves the sent quote and starts payment. In stripe mode the response carries a checkout URL.
// @Tags         jobs
// @Accept       json
// @Produce      json
// @Param        id path string true "Job ID" Format(uuid)
// @Param        approval body dto.ApproveQuoteRequest true "Client view token"
// @Success      200 {object} dto.ApproveQuoteResponse "Quote approved"
// @Failure      400 {object} map[string]string "Invalid input or state"
// @Failure      403 {object} map[string]string "Token mismatch"
// @Failure      404 {object} map[string]string "Job Not Found"
// @Failure      502 {object} map[string]string "Payment gateway failure"
// @Router       /jobs/{id}/approve-quote [post]
func (h *JobHandler) ApproveQuote(c *gin.Context) {
	jobID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid job ID format"})
		return
	}
	var req dto.ApproveQuoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}
	if err := h.validator.Struct(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Validation failed", "details": FormatValidationErrors(err)})
		return
	}

	job, checkoutURL, err := h.quotes.ApproveQuote(c.Request.Context(), jobID, req.Token)
	if err != nil {
		respondServiceError(c, err, "Failed to approve quote")
		return
	}
	c.JSON(http.StatusOK, dto.ApproveQuoteResponse{
		JobID:       job.ID.String(),
		Status:      string(job.Status),
		CheckoutURL: checkoutURL,
	})
}

// MarkPaymentSent godoc
// @Summary      Mark an offline payment as sent (tokenized)
// @Description  Advisory client signal in offline mode. Job status is unchanged; the operator is notified.
// @Tags         jobs
// @Accept       json
// @Produce      json
// @Param        id path string true "Job ID" Format(uuid)
// @Param        body body dto.PaymentSentRequest true "Client view token"
// @Success      200 {object} dto.PaymentSummary "Payment marked sent"
// @Failure      400 {object} map[string]string "Invalid input or state"
// @Failure      403 {object} map[string]string "Token mismatch"
// @Failure      404 {object} map[string]string "Job Not Found"
// @Router       /jobs/{id}/payment-sent [post]
func (h *JobHandler) MarkPaymentSent(c *gin.Context) {
	jobID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid job ID format"})
		return
	}
	var req dto.PaymentSentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}
	if err := h.validator.Struct(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Validation failed", "details": FormatValidationErrors(err)})
		return
	}

	payment, err := h.payments.MarkPaymentSent(c.Request.Context(), jobID, req.Token)
	if err != nil {
		respondServiceError(c, err, "Failed to mark payment sent")
		return
	}
	c.JSON(http.StatusOK, MapPaymentToSummary(payment))
}
