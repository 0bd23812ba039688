package dto

import "time"

// LineItemInput is one quote line. Unit prices are integer minor units; the
// line total is computed server-side as quantity × unit price.
type LineItemInput struct {
	Type           string `json:"type" validate:"required,oneof=base upsell discount fee"`
	Label          string `json:"label" validate:"required"`
	Quantity       int    `json:"quantity" validate:"required,min=1"`
	UnitPriceCents int64  `json:"unit_price_cents" validate:"required"`
}

// CreateQuoteRequest creates the next quote version for a job.
type CreateQuoteRequest struct {
	Items []LineItemInput `json:"items" validate:"required,min=1,dive"`
}

// LineItemResponse is one persisted quote line.
type LineItemResponse struct {
	ID              string `json:"id"`
	Type            string `json:"type"`
	Label           string `json:"label"`
	Quantity        int    `json:"quantity"`
	UnitPriceCents  int64  `json:"unit_price_cents"`
	TotalPriceCents int64  `json:"total_price_cents"`
}

// QuoteResponse is the operator view of one quote version with its lines.
type QuoteResponse struct {
	ID              string             `json:"id"`
	JobID           string             `json:"job_id"`
	Version         int                `json:"version"`
	Status          string             `json:"status"`
	TotalPriceCents int64              `json:"total_price_cents"`
	CreatedAt       time.Time          `json:"created_at"`
	ApprovedAt      *time.Time         `json:"approved_at,omitempty"`
	Items           []LineItemResponse `json:"items,omitempty"`
}

// CancelJobRequest cancels a job on behalf of the platform or the client.
type CancelJobRequest struct {
	CancelledBy string `json:"cancelled_by" validate:"required,oneof=client internal"`
	Reason      string `json:"reason,omitempty"`
}

// JobEventResponse is one audit-trail entry.
type JobEventResponse struct {
	ID        string         `json:"id"`
	EventType string         `json:"event_type"`
	ActorType string         `json:"actor_type"`
	ActorID   *string        `json:"actor_id,omitempty"`
	Data      map[string]any `json:"data"`
	CreatedAt time.Time      `json:"created_at"`
}

// JobResponse is the operator view of a job.
type JobResponse struct {
	ID                   string                     `json:"id"`
	ClientID             string                     `json:"client_id"`
	CityID               string                     `json:"city_id"`
	ServiceCategoryID    string                     `json:"service_category_id"`
	Title                *string                    `json:"title,omitempty"`
	Description          string                     `json:"description"`
	Zip                  string                     `json:"zip"`
	PreferredTiming      string                     `json:"preferred_timing"`
	Status               string                     `json:"status"`
	AssignedContractorID *string                    `json:"assigned_contractor_id,omitempty"`
	OriginChannel        string                     `json:"origin_channel"`
	IsTest               bool                       `json:"is_test"`
	PricingSuggestion    *PricingSuggestionResponse `json:"pricing_suggestion,omitempty"`
	CreatedAt            time.Time                  `json:"created_at"`
	UpdatedAt            time.Time                  `json:"updated_at"`
	AcceptedAt           *time.Time                 `json:"accepted_at,omitempty"`
	CompletedAt          *time.Time                 `json:"completed_at,omitempty"`
	CancelledAt          *time.Time                 `json:"cancelled_at,omitempty"`
}

// JobDetailResponse is the full operator drill-down: job plus its audit
// trail, quote ledger, and payment history.
type JobDetailResponse struct {
	Job      JobResponse        `json:"job"`
	Events   []JobEventResponse `json:"events"`
	Quotes   []QuoteResponse    `json:"quotes"`
	Payments []PaymentSummary   `json:"payments"`
	Payout   *PayoutResponse    `json:"payout,omitempty"`
}

// PayoutResponse is one contractor payout.
type PayoutResponse struct {
	ID           string     `json:"id"`
	JobID        string     `json:"job_id"`
	ContractorID string     `json:"contractor_id"`
	AmountCents  int64      `json:"amount_cents"`
	Status       string     `json:"status"`
	Method       string     `json:"method"`
	CreatedAt    time.Time  `json:"created_at"`
	PaidAt       *time.Time `json:"paid_at,omitempty"`
}

// RunSimulationRequest seeds one end-to-end smoke job.
type RunSimulationRequest struct {
	CitySlug            string `json:"city_slug" validate:"required"`
	ServiceCategorySlug string `json:"service_category_slug" validate:"required"`
}
