package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"bridge-local-platform/internal/api/middleware"
	"bridge-local-platform/internal/models"
	"bridge-local-platform/internal/services"
	"bridge-local-platform/internal/storage"
	"bridge-local-platform/internal/transport/dto"
)

// OperatorHandler serves the operator/admin back office: the job board,
// quoting, cancellation, payment and payout settlement.
type OperatorHandler struct {
	jobs      *services.JobService
	quotes    *services.QuoteService
	payments  *services.PaymentService
	validator *validator.Validate
}

// NewOperatorHandler creates a new OperatorHandler.
func NewOperatorHandler(jobs *services.JobService, quotes *services.QuoteService, payments *services.PaymentService, validate *validator.Validate) *OperatorHandler {
	return &OperatorHandler{jobs: jobs, quotes: quotes, payments: payments, validator: validate}
}

// ListJobs godoc
// @Summary      List jobs
// @Description  Operator job board with optional city/status/service filters.
// @Tags         operator
// @Produce      json
// @Param        city_id query string false "City ID" Format(uuid)
// @Param        service_category_id query string false "Service category ID" Format(uuid)
// @Param        status query string false "Job status"
// @Success      200 {array} dto.JobResponse "Jobs"
// @Failure      400 {object} map[string]string "Invalid filter"
// @Failure      401 {object} map[string]string "Unauthorized"
// @Failure      403 {object} map[string]string "Insufficient role"
// @Router       /operator/jobs [get]
// @Security     BearerAuth
func (h *OperatorHandler) ListJobs(c *gin.Context) {
	var filter storage.JobListFilter
	if v := c.Query("city_id"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid city_id format"})
			return
		}
		filter.CityID = &id
	}
	if v := c.Query("service_category_id"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid service_category_id format"})
			return
		}
		filter.ServiceCategoryID = &id
	}
	if v := c.Query("status"); v != "" {
		status := models.JobStatus(v)
		valid := false
		for _, s := range models.AllJobStatuses {
			if s == status {
				valid = true
				break
			}
		}
		if !valid {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid status filter"})
			return
		}
		filter.Status = &status
	}
	if v := c.Query("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil || limit < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid limit"})
			return
		}
		filter.Limit = limit
	}

	jobs, err := h.jobs.List(c.Request.Context(), filter)
	if err != nil {
		respondServiceError(c, err, "Failed to list jobs")
		return
	}
	out := make([]dto.JobResponse, 0, len(jobs))
	for i := range jobs {
		out = append(out, MapJobToResponse(&jobs[i]))
	}
	c.JSON(http.StatusOK, out)
}

// GetJobDetail godoc
// @Summary      Get a job with its full history
// @Description  Job plus audit events, quote ledger, payments, and payout.
// @Tags         operator
// @Produce      json
// @Param        id path string true "Job ID" Format(uuid)
// @Success      200 {object} dto.JobDetailResponse "Job detail"
// @Failure      400 {object} map[string]string "Invalid ID format"
// @Failure      404 {object} map[string]string "Job Not Found"
// @Router       /operator/jobs/{id} [get]
// @Security     BearerAuth
func (h *OperatorHandler) GetJobDetail(c *gin.Context) {
	jobID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid job ID format"})
		return
	}

	detail, err := h.jobs.GetDetail(c.Request.Context(), jobID)
	if err != nil {
		respondServiceError(c, err, "Failed to load job detail")
		return
	}

	resp := dto.JobDetailResponse{
		Job:      MapJobToResponse(detail.Job),
		Events:   make([]dto.JobEventResponse, 0, len(detail.Events)),
		Quotes:   make([]dto.QuoteResponse, 0, len(detail.Quotes)),
		Payments: make([]dto.PaymentSummary, 0, len(detail.Payments)),
	}
	for i := range detail.Events {
		resp.Events = append(resp.Events, MapEventToResponse(&detail.Events[i]))
	}
	for i := range detail.Quotes {
		q := &detail.Quotes[i]
		resp.Quotes = append(resp.Quotes, MapQuoteToResponse(q, detail.Items[q.ID]))
	}
	for i := range detail.Payments {
		resp.Payments = append(resp.Payments, MapPaymentToSummary(&detail.Payments[i]))
	}
	if detail.Payout != nil {
		payout := MapPayoutToResponse(detail.Payout)
		resp.Payout = &payout
	}
	c.JSON(http.StatusOK, resp)
}

// CreateQuote godoc
// @Summary      Create the next quote version
// @Description  Persists a draft quote; the job status is untouched until send-quote.
// @Tags         operator
// @Accept       json
// @Produce      json
// @Param        id path string true "Job ID" Format(uuid)
// @Param        quote body dto.CreateQuoteRequest true "Line items"
// @Success      201 {object} dto.QuoteResponse "Quote created"
// @Failure      400 {object} map[string]string "Bad Request - Invalid input"
// @Failure      404 {object} map[string]string "Job Not Found"
// @Router       /operator/jobs/{id}/quotes [post]
// @Security     BearerAuth
func (h *OperatorHandler) CreateQuote(c *gin.Context) {
	operatorID, err := middleware.GetUserIDFromContext(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}
	jobID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid job ID format"})
		return
	}
	var req dto.CreateQuoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}
	if err := h.validator.Struct(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Validation failed", "details": FormatValidationErrors(err)})
		return
	}

	quote, items, err := h.quotes.CreateQuote(c.Request.Context(), jobID, &req, operatorID)
	if err != nil {
		respondServiceError(c, err, "Failed to create quote")
		return
	}
	c.JSON(http.StatusCreated, MapQuoteToResponse(quote, items))
}

// SendQuote godoc
// @Summary      Send the latest quote to the client
// @Description  Marks the latest quote sent_to_client and moves the job to quote_sent.
// @Tags         operator
// @Produce      json
// @Param        id path string true "Job ID" Format(uuid)
// @Success      200 {object} dto.QuoteResponse "Quote sent"
// @Failure      400 {object} map[string]string "No quote or invalid state"
// @Failure      404 {object} map[string]string "Job Not Found"
// @Router       /operator/jobs/{id}/send-quote [post]
// @Security     BearerAuth
func (h *OperatorHandler) SendQuote(c *gin.Context) {
	operatorID, err := middleware.GetUserIDFromContext(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}
	jobID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid job ID format"})
		return
	}

	_, quote, err := h.quotes.SendQuote(c.Request.Context(), jobID, operatorID)
	if err != nil {
		respondServiceError(c, err, "Failed to send quote")
		return
	}
	c.JSON(http.StatusOK, MapQuoteToResponse(quote, nil))
}

// CancelJob godoc
// @Summary      Cancel a job
// @Description  Cancels on behalf of the platform (cancelled_internal) or the client (cancelled_by_client).
// @Tags         operator
// @Accept       json
// @Produce      json
// @Param        id path string true "Job ID" Format(uuid)
// @Param        body body dto.CancelJobRequest true "Cancellation"
// @Success      200 {object} dto.JobResponse "Job cancelled"
// @Failure      400 {object} map[string]string "Invalid transition"
// @Failure      404 {object} map[string]string "Job Not Found"
// @Router       /operator/jobs/{id}/cancel [post]
// @Security     BearerAuth
func (h *OperatorHandler) CancelJob(c *gin.Context) {
	operatorID, err := middleware.GetUserIDFromContext(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}
	jobID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid job ID format"})
		return
	}
	var req dto.CancelJobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}
	if err := h.validator.Struct(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Validation failed", "details": FormatValidationErrors(err)})
		return
	}

	job, err := h.jobs.Cancel(c.Request.Context(), jobID, req.CancelledBy, req.Reason, operatorID)
	if err != nil {
		respondServiceError(c, err, "Failed to cancel job")
		return
	}
	c.JSON(http.StatusOK, MapJobToResponse(job))
}

// RetriggerMatching godoc
// @Summary      Re-run contractor matching
// @Description  Operator override for jobs stuck without a contractor.
// @Tags         operator
// @Produce      json
// @Param        id path string true "Job ID" Format(uuid)
// @Success      200 {object} dto.JobResponse "Matching re-run"
// @Failure      400 {object} map[string]string "Job not eligible for re-matching"
// @Failure      404 {object} map[string]string "Job Not Found"
// @Router       /operator/jobs/{id}/retrigger-matching [post]
// @Security     BearerAuth
func (h *OperatorHandler) RetriggerMatching(c *gin.Context) {
	operatorID, err := middleware.GetUserIDFromContext(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}
	jobID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid job ID format"})
		return
	}

	job, err := h.jobs.RetriggerMatching(c.Request.Context(), jobID, operatorID)
	if err != nil {
		respondServiceError(c, err, "Failed to re-trigger matching")
		return
	}
	c.JSON(http.StatusOK, MapJobToResponse(job))
}

// MarkPaymentPaid godoc
// @Summary      Settle an offline payment
// @Description  Flips the payment to succeeded and confirms the job. A second call returns 409.
// @Tags         operator
// @Produce      json
// @Param        id path string true "Payment ID" Format(uuid)
// @Success      200 {object} dto.PaymentSummary "Payment settled"
// @Failure      404 {object} map[string]string "Payment Not Found"
// @Failure      409 {object} map[string]string "Already settled"
// @Router       /operator/payments/{id}/mark-paid [post]
// @Security     BearerAuth
func (h *OperatorHandler) MarkPaymentPaid(c *gin.Context) {
	operatorID, err := middleware.GetUserIDFromContext(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}
	paymentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid payment ID format"})
		return
	}

	payment, err := h.payments.MarkPaymentPaid(c.Request.Context(), paymentID, operatorID)
	if err != nil {
		respondServiceError(c, err, "Failed to settle payment")
		return
	}
	c.JSON(http.StatusOK, MapPaymentToSummary(payment))
}

// ListPayouts godoc
// @Summary      List contractor payouts
// @Tags         operator
// @Produce      json
// @Param        status query string false "Payout status (pending|paid)"
// @Success      200 {array} dto.PayoutResponse "Payouts"
// @Failure      400 {object} map[string]string "Invalid status filter"
// @Router       /operator/payouts [get]
// @Security     BearerAuth
func (h *OperatorHandler) ListPayouts(c *gin.Context) {
	var status *models.PayoutStatus
	if v := c.Query("status"); v != "" {
		s := models.PayoutStatus(v)
		if s != models.PayoutStatusPending && s != models.PayoutStatusPaid {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid status filter"})
			return
		}
		status = &s
	}

	payouts, err := h.payments.ListPayouts(c.Request.Context(), status)
	if err != nil {
		respondServiceError(c, err, "Failed to list payouts")
		return
	}
	out := make([]dto.PayoutResponse, 0, len(payouts))
	for i := range payouts {
		out = append(out, MapPayoutToResponse(&payouts[i]))
	}
	c.JSON(http.StatusOK, out)
}

// MarkPayoutPaid godoc
// @Summary      Settle a contractor payout
// @Description  Marks the payout paid and rolls it into contractor stats. A second call returns 409.
// @Tags         operator
// @Produce      json
// @Param        id path string true "Payout ID" Format(uuid)
// @Success      200 {object} dto.PayoutResponse "Payout settled"
// @Failure      404 {object} map[string]string "Payout Not Found"
// @Failure      409 {object} map[string]string "Already settled"
// @Router       /operator/payouts/{id}/mark-paid [post]
// @Security     BearerAuth
func (h *OperatorHandler) MarkPayoutPaid(c *gin.Context) {
	operatorID, err := middleware.GetUserIDFromContext(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}
	payoutID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid payout ID format"})
		return
	}

	payout, err := h.payments.MarkPayoutPaid(c.Request.Context(), payoutID, operatorID)
	if err != nil {
		respondServiceError(c, err, "Failed to settle payout")
		return
	}
	c.JSON(http.StatusOK, MapPayoutToResponse(payout))
}
