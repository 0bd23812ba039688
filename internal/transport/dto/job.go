package dto

import "time"

// CreateJobRequest is the public job-submission payload. The client user is
// found or created from the contact fields.
type CreateJobRequest struct {
	CitySlug            string  `json:"city_slug" validate:"required"`
	ServiceCategorySlug string  `json:"service_category_slug" validate:"required"`
	Title               *string `json:"title,omitempty"`
	Description         string  `json:"description" validate:"required"`
	Zip                 string  `json:"zip" validate:"required"`
	PreferredTiming     string  `json:"preferred_timing" validate:"required,oneof=asap today this_week flexible"`
	ClientName          string  `json:"client_name" validate:"required"`
	ClientEmail         string  `json:"client_email" validate:"required,email"`
	ClientPhone         *string `json:"client_phone,omitempty"`
	OriginChannel       string  `json:"origin_channel,omitempty"`
}

// PricingSuggestionResponse mirrors the estimate attached at creation time.
type PricingSuggestionResponse struct {
	TotalCents         int64  `json:"total_cents"`
	PlatformCutCents   int64  `json:"platform_cut_cents"`
	ContractorCutCents int64  `json:"contractor_cut_cents"`
	Source             string `json:"source"`
}

// CreateJobResponse returns the new job id and the client's bearer token for
// the tokenized status/approval endpoints. The token is shown exactly once.
type CreateJobResponse struct {
	JobID             string                     `json:"job_id"`
	Status            string                     `json:"status"`
	ClientViewToken   string                     `json:"client_view_token"`
	PricingSuggestion *PricingSuggestionResponse `json:"pricing_suggestion,omitempty"`
}

// QuoteSummary is the client-facing view of one quote version.
type QuoteSummary struct {
	ID              string     `json:"id"`
	Version         int        `json:"version"`
	Status          string     `json:"status"`
	TotalPriceCents int64      `json:"total_price_cents"`
	CreatedAt       time.Time  `json:"created_at"`
	ApprovedAt      *time.Time `json:"approved_at,omitempty"`
}

// PaymentSummary is the client-facing view of the latest payment attempt.
type PaymentSummary struct {
	ID          string     `json:"id"`
	Mode        string     `json:"mode"`
	Status      string     `json:"status"`
	AmountCents int64      `json:"amount_cents"`
	Currency    string     `json:"currency"`
	PaidAt      *time.Time `json:"paid_at,omitempty"`
}

// JobStatusResponse is the tokenized status view for clients.
type JobStatusResponse struct {
	JobID         string          `json:"job_id"`
	Status        string          `json:"status"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
	AcceptedAt    *time.Time      `json:"accepted_at,omitempty"`
	CompletedAt   *time.Time      `json:"completed_at,omitempty"`
	CancelledAt   *time.Time      `json:"cancelled_at,omitempty"`
	LatestQuote   *QuoteSummary   `json:"latest_quote,omitempty"`
	LatestPayment *PaymentSummary `json:"latest_payment,omitempty"`
}

// ApproveQuoteRequest authorizes quote approval with the job's view token.
type ApproveQuoteRequest struct {
	Token string `json:"token" validate:"required"`
}

// ApproveQuoteResponse reports the post-approval job status and, in stripe
// mode, the hosted checkout URL the client must visit.
type ApproveQuoteResponse struct {
	JobID       string `json:"job_id"`
	Status      string `json:"status"`
	CheckoutURL string `json:"checkout_url,omitempty"`
}

// PaymentSentRequest is the advisory offline-mode "I sent the money" signal.
type PaymentSentRequest struct {
	Token string `json:"token" validate:"required"`
}
