package handlers

import (
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"bridge-local-platform/internal/models"
	"bridge-local-platform/internal/transport/dto"
)

func FormatValidationErrors(err error) map[string]string {
	errorsMap := make(map[string]string)
	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		errorsMap["error"] = "Invalid validation error type"
		return errorsMap
	}
	for _, fieldError := range validationErrors {
		fieldName := fieldError.Field()
		errorsMap[fieldName] = fmt.Sprintf("Field validation for '%s' failed on the '%s' tag", fieldName, fieldError.Tag())
		switch fieldError.Tag() {
		case "required":
			errorsMap[fieldName] = fmt.Sprintf("Field '%s' is required", fieldName)
		case "email":
			errorsMap[fieldName] = fmt.Sprintf("Field '%s' must be a valid email address", fieldName)
		case "min":
			errorsMap[fieldName] = fmt.Sprintf("Field '%s' must be at least %s", fieldName, fieldError.Param())
		case "max":
			errorsMap[fieldName] = fmt.Sprintf("Field '%s' must be at most %s", fieldName, fieldError.Param())
		case "oneof":
			errorsMap[fieldName] = fmt.Sprintf("Field '%s' must be one of: %s", fieldName, fieldError.Param())
		}
	}
	return errorsMap
}

func uuidPtrToStr(id *uuid.UUID) *string {
	if id == nil {
		return nil
	}
	s := id.String()
	return &s
}

// MapUserToResponse converts a models.User to a dto.UserResponse
func MapUserToResponse(user *models.User) dto.UserResponse {
	return dto.UserResponse{
		ID:    user.ID.String(),
		Name:  user.Name,
		Email: user.Email,
		Role:  string(user.Role),
	}
}

// MapJobToResponse converts a models.Job to a dto.JobResponse
func MapJobToResponse(job *models.Job) dto.JobResponse {
	resp := dto.JobResponse{
		ID:                   job.ID.String(),
		ClientID:             job.ClientID.String(),
		CityID:               job.CityID.String(),
		ServiceCategoryID:    job.ServiceCategoryID.String(),
		Title:                job.Title,
		Description:          job.Description,
		Zip:                  job.Zip,
		PreferredTiming:      job.PreferredTiming,
		Status:               string(job.Status),
		AssignedContractorID: uuidPtrToStr(job.AssignedContractorID),
		OriginChannel:        job.OriginChannel,
		IsTest:               job.IsTest,
		CreatedAt:            job.CreatedAt,
		UpdatedAt:            job.UpdatedAt,
		AcceptedAt:           job.AcceptedAt,
		CompletedAt:          job.CompletedAt,
		CancelledAt:          job.CancelledAt,
	}
	if job.PricingSuggestion != nil {
		resp.PricingSuggestion = &dto.PricingSuggestionResponse{
			TotalCents:         job.PricingSuggestion.TotalCents,
			PlatformCutCents:   job.PricingSuggestion.PlatformCutCents,
			ContractorCutCents: job.PricingSuggestion.ContractorCutCents,
			Source:             job.PricingSuggestion.Source,
		}
	}
	return resp
}

// MapQuoteToResponse converts a models.Quote plus its lines to a dto.QuoteResponse
func MapQuoteToResponse(quote *models.Quote, items []models.LineItem) dto.QuoteResponse {
	resp := dto.QuoteResponse{
		ID:              quote.ID.String(),
		JobID:           quote.JobID.String(),
		Version:         quote.Version,
		Status:          string(quote.Status),
		TotalPriceCents: quote.TotalPriceCents,
		CreatedAt:       quote.CreatedAt,
		ApprovedAt:      quote.ApprovedAt,
	}
	for _, item := range items {
		resp.Items = append(resp.Items, dto.LineItemResponse{
			ID:              item.ID.String(),
			Type:            item.Type,
			Label:           item.Label,
			Quantity:        item.Quantity,
			UnitPriceCents:  item.UnitPriceCents,
			TotalPriceCents: item.TotalPriceCents,
		})
	}
	return resp
}

// MapQuoteToSummary converts a models.Quote to the client-facing summary
func MapQuoteToSummary(quote *models.Quote) dto.QuoteSummary {
	return dto.QuoteSummary{
		ID:              quote.ID.String(),
		Version:         quote.Version,
		Status:          string(quote.Status),
		TotalPriceCents: quote.TotalPriceCents,
		CreatedAt:       quote.CreatedAt,
		ApprovedAt:      quote.ApprovedAt,
	}
}

// MapPaymentToSummary converts a models.Payment to a dto.PaymentSummary
func MapPaymentToSummary(payment *models.Payment) dto.PaymentSummary {
	return dto.PaymentSummary{
		ID:          payment.ID.String(),
		Mode:        string(payment.Mode),
		Status:      string(payment.Status),
		AmountCents: payment.AmountCents,
		Currency:    payment.Currency,
		PaidAt:      payment.PaidAt,
	}
}

// MapPayoutToResponse converts a models.Payout to a dto.PayoutResponse
func MapPayoutToResponse(payout *models.Payout) dto.PayoutResponse {
	return dto.PayoutResponse{
		ID:           payout.ID.String(),
		JobID:        payout.JobID.String(),
		ContractorID: payout.ContractorID.String(),
		AmountCents:  payout.AmountCents,
		Status:       string(payout.Status),
		Method:       payout.Method,
		CreatedAt:    payout.CreatedAt,
		PaidAt:       payout.PaidAt,
	}
}

// MapEventToResponse converts a models.JobEvent to a dto.JobEventResponse
func MapEventToResponse(event *models.JobEvent) dto.JobEventResponse {
	return dto.JobEventResponse{
		ID:        event.ID.String(),
		EventType: event.EventType,
		ActorType: string(event.ActorType),
		ActorID:   uuidPtrToStr(event.ActorID),
		Data:      event.Data,
		CreatedAt: event.CreatedAt,
	}
}

// MapProfileToResponse converts a models.ContractorProfile to its dto
func MapProfileToResponse(profile *models.ContractorProfile) dto.ContractorProfileResponse {
	services := make([]string, 0, len(profile.Services))
	for _, id := range profile.Services {
		services = append(services, id.String())
	}
	return dto.ContractorProfileResponse{
		ID:                 profile.ID.String(),
		PublicName:         profile.PublicName,
		Status:             string(profile.Status),
		CityID:             profile.CityID.String(),
		BaseZip:            profile.BaseZip,
		RadiusMiles:        profile.RadiusMiles,
		Services:           services,
		CompletedJobsCount: profile.CompletedJobsCount,
		TotalEarningsCents: profile.TotalEarningsCents,
		CreatedAt:          profile.CreatedAt,
	}
}

// MapJobToOffer converts a models.Job to the contractor offer view
func MapJobToOffer(job *models.Job) dto.OfferResponse {
	return dto.OfferResponse{
		JobID:             job.ID.String(),
		ServiceCategoryID: job.ServiceCategoryID.String(),
		Title:             job.Title,
		Description:       job.Description,
		Zip:               job.Zip,
		PreferredTiming:   job.PreferredTiming,
		CreatedAt:         job.CreatedAt,
	}
}
