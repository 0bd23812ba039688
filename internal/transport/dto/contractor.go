package dto

import "time"

// ExpansionSuggestion is an optional signup extra: a city or zip the platform
// does not cover yet but the contractor wants to serve.
type ExpansionSuggestion struct {
	CityName string `json:"city_name" validate:"required"`
	Zip      string `json:"zip,omitempty"`
}

// ContractorSignupRequest registers a contractor account and profile. The
// profile starts in pending_review and never receives offers until an
// operator activates it.
type ContractorSignupRequest struct {
	Name         string               `json:"name" validate:"required"`
	Email        string               `json:"email" validate:"required,email"`
	Password     string               `json:"password" validate:"required,min=8"`
	Phone        *string              `json:"phone,omitempty"`
	PublicName   string               `json:"public_name" validate:"required"`
	CitySlug     string               `json:"city_slug" validate:"required"`
	BaseZip      string               `json:"base_zip" validate:"required"`
	RadiusMiles  int                  `json:"radius_miles" validate:"required,min=1,max=200"`
	ServiceSlugs []string             `json:"service_slugs" validate:"required,min=1"`
	Bio          string               `json:"bio,omitempty"`
	Expansion    *ExpansionSuggestion `json:"expansion,omitempty"`
}

// ContractorProfileResponse is the contractor's own profile view.
type ContractorProfileResponse struct {
	ID                 string    `json:"id"`
	PublicName         string    `json:"public_name"`
	Status             string    `json:"status"`
	CityID             string    `json:"city_id"`
	BaseZip            string    `json:"base_zip"`
	RadiusMiles        int       `json:"radius_miles"`
	Services           []string  `json:"services"`
	CompletedJobsCount int       `json:"completed_jobs_count"`
	TotalEarningsCents int64     `json:"total_earnings_cents"`
	CreatedAt          time.Time `json:"created_at"`
}

// OfferResponse is one open job a contractor may claim.
type OfferResponse struct {
	JobID             string    `json:"job_id"`
	ServiceCategoryID string    `json:"service_category_id"`
	Title             *string   `json:"title,omitempty"`
	Description       string    `json:"description"`
	Zip               string    `json:"zip"`
	PreferredTiming   string    `json:"preferred_timing"`
	CreatedAt         time.Time `json:"created_at"`
}

// AcceptOfferResponse confirms a won claim.
type AcceptOfferResponse struct {
	JobID      string    `json:"job_id"`
	Status     string    `json:"status"`
	AcceptedAt time.Time `json:"accepted_at"`
}
