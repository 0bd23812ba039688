package models

import (
	"database/sql/driver"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// --- Role Enum ---
type Role string

const (
	RoleClient     Role = "client"
	RoleContractor Role = "contractor"
	RoleOperator   Role = "operator"
	RoleAdmin      Role = "admin"
)

// Scan implements the sql.Scanner interface for Role
func (r *Role) Scan(value interface{}) error {
	strVal, err := scanString(value, "Role")
	if err != nil {
		return err
	}
	v := Role(strVal)
	switch v {
	case RoleClient, RoleContractor, RoleOperator, RoleAdmin:
		*r = v
		return nil
	default:
		return fmt.Errorf("invalid Role value: %s", strVal)
	}
}

// Value implements the driver.Valuer interface for Role
func (r Role) Value() (driver.Value, error) {
	return string(r), nil
}

// --- Job Status Enum ---
type JobStatus string

const (
	JobStatusNew                 JobStatus = "new"
	JobStatusOfferingContractors JobStatus = "offering_contractors"
	JobStatusAwaitingQuote       JobStatus = "awaiting_quote"
	JobStatusQuoteSent           JobStatus = "quote_sent"
	JobStatusAwaitingPayment     JobStatus = "awaiting_payment"
	JobStatusConfirmed           JobStatus = "confirmed"
	JobStatusInProgress          JobStatus = "in_progress"
	JobStatusCompleted           JobStatus = "completed"
	JobStatusCancelledByClient   JobStatus = "cancelled_by_client"
	JobStatusCancelledInternal   JobStatus = "cancelled_internal"
	JobStatusNoContractorFound   JobStatus = "no_contractor_found"
)

// AllJobStatuses lists every member of the enum, terminal states included.
var AllJobStatuses = []JobStatus{
	JobStatusNew,
	JobStatusOfferingContractors,
	JobStatusAwaitingQuote,
	JobStatusQuoteSent,
	JobStatusAwaitingPayment,
	JobStatusConfirmed,
	JobStatusInProgress,
	JobStatusCompleted,
	JobStatusCancelledByClient,
	JobStatusCancelledInternal,
	JobStatusNoContractorFound,
}

// Scan implements the sql.Scanner interface for JobStatus
func (js *JobStatus) Scan(value interface{}) error {
	strVal, err := scanString(value, "JobStatus")
	if err != nil {
		return err
	}
	v := JobStatus(strVal)
	for _, s := range AllJobStatuses {
		if v == s {
			*js = v
			return nil
		}
	}
	return fmt.Errorf("invalid JobStatus value: %s", strVal)
}

// Value implements the driver.Valuer interface for JobStatus
func (js JobStatus) Value() (driver.Value, error) {
	return string(js), nil
}

// --- Quote Status Enum ---
type QuoteStatus string

const (
	QuoteStatusDraft        QuoteStatus = "draft"
	QuoteStatusSentToClient QuoteStatus = "sent_to_client"
	QuoteStatusApproved     QuoteStatus = "approved"
	QuoteStatusRejected     QuoteStatus = "rejected"
)

// Scan implements the sql.Scanner interface for QuoteStatus
func (qs *QuoteStatus) Scan(value interface{}) error {
	strVal, err := scanString(value, "QuoteStatus")
	if err != nil {
		return err
	}
	v := QuoteStatus(strVal)
	switch v {
	case QuoteStatusDraft, QuoteStatusSentToClient, QuoteStatusApproved, QuoteStatusRejected:
		*qs = v
		return nil
	default:
		return fmt.Errorf("invalid QuoteStatus value: %s", strVal)
	}
}

// Value implements the driver.Valuer interface for QuoteStatus
func (qs QuoteStatus) Value() (driver.Value, error) {
	return string(qs), nil
}

// --- Payment Status Enum ---
type PaymentStatus string

const (
	PaymentStatusPending          PaymentStatus = "pending"
	PaymentStatusClientMarkedSent PaymentStatus = "client_marked_sent"
	PaymentStatusSucceeded        PaymentStatus = "succeeded"
	PaymentStatusFailed           PaymentStatus = "failed"
)

// Scan implements the sql.Scanner interface for PaymentStatus
func (ps *PaymentStatus) Scan(value interface{}) error {
	strVal, err := scanString(value, "PaymentStatus")
	if err != nil {
		return err
	}
	v := PaymentStatus(strVal)
	switch v {
	case PaymentStatusPending, PaymentStatusClientMarkedSent, PaymentStatusSucceeded, PaymentStatusFailed:
		*ps = v
		return nil
	default:
		return fmt.Errorf("invalid PaymentStatus value: %s", strVal)
	}
}

// Value implements the driver.Valuer interface for PaymentStatus
func (ps PaymentStatus) Value() (driver.Value, error) {
	return string(ps), nil
}

// --- Payment Mode Enum ---
type PaymentMode string

const (
	PaymentModeStripe  PaymentMode = "stripe"
	PaymentModeOffline PaymentMode = "offline"
)

// Scan implements the sql.Scanner interface for PaymentMode
func (pm *PaymentMode) Scan(value interface{}) error {
	strVal, err := scanString(value, "PaymentMode")
	if err != nil {
		return err
	}
	v := PaymentMode(strVal)
	switch v {
	case PaymentModeStripe, PaymentModeOffline:
		*pm = v
		return nil
	default:
		return fmt.Errorf("invalid PaymentMode value: %s", strVal)
	}
}

// Value implements the driver.Valuer interface for PaymentMode
func (pm PaymentMode) Value() (driver.Value, error) {
	return string(pm), nil
}

// --- Payout Status Enum ---
type PayoutStatus string

const (
	PayoutStatusPending PayoutStatus = "pending"
	PayoutStatusPaid    PayoutStatus = "paid"
)

// Scan implements the sql.Scanner interface for PayoutStatus
func (ps *PayoutStatus) Scan(value interface{}) error {
	strVal, err := scanString(value, "PayoutStatus")
	if err != nil {
		return err
	}
	v := PayoutStatus(strVal)
	switch v {
	case PayoutStatusPending, PayoutStatusPaid:
		*ps = v
		return nil
	default:
		return fmt.Errorf("invalid PayoutStatus value: %s", strVal)
	}
}

// Value implements the driver.Valuer interface for PayoutStatus
func (ps PayoutStatus) Value() (driver.Value, error) {
	return string(ps), nil
}

// --- Contractor Status Enum ---
type ContractorStatus string

const (
	ContractorStatusPendingReview ContractorStatus = "pending_review"
	ContractorStatusActive        ContractorStatus = "active"
	ContractorStatusSuspended     ContractorStatus = "suspended"
)

// Scan implements the sql.Scanner interface for ContractorStatus
func (cs *ContractorStatus) Scan(value interface{}) error {
	strVal, err := scanString(value, "ContractorStatus")
	if err != nil {
		return err
	}
	v := ContractorStatus(strVal)
	switch v {
	case ContractorStatusPendingReview, ContractorStatusActive, ContractorStatusSuspended:
		*cs = v
		return nil
	default:
		return fmt.Errorf("invalid ContractorStatus value: %s", strVal)
	}
}

// Value implements the driver.Valuer interface for ContractorStatus
func (cs ContractorStatus) Value() (driver.Value, error) {
	return string(cs), nil
}

// --- Actor Type (job event attribution) ---
type ActorType string

const (
	ActorSystem     ActorType = "system"
	ActorClient     ActorType = "client"
	ActorContractor ActorType = "contractor"
	ActorOperator   ActorType = "operator"
)

// Preferred timing values accepted on job creation.
const (
	TimingASAP     = "asap"
	TimingToday    = "today"
	TimingThisWeek = "this_week"
	TimingFlexible = "flexible"
)

func scanString(value interface{}, typeName string) (string, error) {
	strVal, ok := value.(string)
	if !ok {
		byteVal, ok := value.([]byte)
		if !ok {
			return "", fmt.Errorf("failed to scan %s: value is not string or []byte", typeName)
		}
		strVal = string(byteVal)
	}
	return strVal, nil
}

// User represents an identity record in the system.
type User struct {
	ID           uuid.UUID  `json:"id" db:"id"`
	Name         string     `json:"name" db:"name"`
	Email        string     `json:"email" db:"email"`
	Phone        *string    `json:"phone,omitempty" db:"phone"`
	Role         Role       `json:"role" db:"role"`
	PasswordHash string     `json:"-" db:"password_hash"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
	LastLoginAt  *time.Time `json:"last_login_at,omitempty" db:"last_login_at"`
}

// City is a serviceable metro area.
type City struct {
	ID      uuid.UUID `json:"id" db:"id"`
	Slug    string    `json:"slug" db:"slug"`
	Name    string    `json:"name" db:"name"`
	Country string    `json:"country" db:"country"`
	State   string    `json:"state" db:"state"`
	Active  bool      `json:"active" db:"active"`
}

// ServiceCategory is an offered trade (handyman, cleaning, ...).
type ServiceCategory struct {
	ID          uuid.UUID `json:"id" db:"id"`
	Slug        string    `json:"slug" db:"slug"`
	DisplayName string    `json:"display_name" db:"display_name"`
	Description string    `json:"description" db:"description"`
}

// PricingSuggestion is the estimate attached to a job at creation time when a
// pricing rule matches its city and service category.
type PricingSuggestion struct {
	TotalCents         int64  `json:"total_cents"`
	PlatformCutCents   int64  `json:"platform_cut_cents"`
	ContractorCutCents int64  `json:"contractor_cut_cents"`
	Source             string `json:"source"`
}

// Job is the central entity, tracked through its lifecycle by the state
// machine. Terminal statuses are permanent; jobs are never deleted.
type Job struct {
	ID                   uuid.UUID          `json:"id" db:"id"`
	ClientID             uuid.UUID          `json:"client_id" db:"client_id"`
	CityID               uuid.UUID          `json:"city_id" db:"city_id"`
	ServiceCategoryID    uuid.UUID          `json:"service_category_id" db:"service_category_id"`
	Title                *string            `json:"title,omitempty" db:"title"`
	Description          string             `json:"description" db:"description"`
	Zip                  string             `json:"zip" db:"zip"`
	PreferredTiming      string             `json:"preferred_timing" db:"preferred_timing"`
	Status               JobStatus          `json:"status" db:"status"`
	CreatedAt            time.Time          `json:"created_at" db:"created_at"`
	UpdatedAt            time.Time          `json:"updated_at" db:"updated_at"`
	AssignedContractorID *uuid.UUID         `json:"assigned_contractor_id,omitempty" db:"assigned_contractor_id"`
	AcceptedAt           *time.Time         `json:"accepted_at,omitempty" db:"accepted_at"`
	CompletedAt          *time.Time         `json:"completed_at,omitempty" db:"completed_at"`
	CancelledAt          *time.Time         `json:"cancelled_at,omitempty" db:"cancelled_at"`
	OriginChannel        string             `json:"origin_channel" db:"origin_channel"`
	IsTest               bool               `json:"is_test" db:"is_test"`
	ClientViewToken      string             `json:"-" db:"client_view_token"`
	PricingSuggestion    *PricingSuggestion `json:"pricing_suggestion,omitempty" db:"pricing_suggestion"`
}

// JobEvent is an append-only audit trail entry. Write-once; never updated.
type JobEvent struct {
	ID        uuid.UUID      `json:"id" db:"id"`
	JobID     uuid.UUID      `json:"job_id" db:"job_id"`
	EventType string         `json:"event_type" db:"event_type"`
	ActorType ActorType      `json:"actor_type" db:"actor_type"`
	ActorID   *uuid.UUID     `json:"actor_id,omitempty" db:"actor_id"`
	Data      map[string]any `json:"data" db:"data"`
	CreatedAt time.Time      `json:"created_at" db:"created_at"`
}

// Quote is a versioned, itemized price proposal for a job. The effective
// price of a job is always its highest-version quote's total.
type Quote struct {
	ID              uuid.UUID   `json:"id" db:"id"`
	JobID           uuid.UUID   `json:"job_id" db:"job_id"`
	Version         int         `json:"version" db:"version"`
	Status          QuoteStatus `json:"status" db:"status"`
	TotalPriceCents int64       `json:"total_price_cents" db:"total_price_cents"`
	CreatedAt       time.Time   `json:"created_at" db:"created_at"`
	ApprovedAt      *time.Time  `json:"approved_at,omitempty" db:"approved_at"`
	RejectedReason  *string     `json:"rejected_reason,omitempty" db:"rejected_reason"`
}

// LineItem belongs to exactly one quote. Totals are integer minor units;
// no floating point anywhere in money math.
type LineItem struct {
	ID              uuid.UUID `json:"id" db:"id"`
	QuoteID         uuid.UUID `json:"quote_id" db:"quote_id"`
	JobID           uuid.UUID `json:"job_id" db:"job_id"`
	Type            string    `json:"type" db:"type"`
	Label           string    `json:"label" db:"label"`
	Quantity        int       `json:"quantity" db:"quantity"`
	UnitPriceCents  int64     `json:"unit_price_cents" db:"unit_price_cents"`
	TotalPriceCents int64     `json:"total_price_cents" db:"total_price_cents"`
}

// Payment is one payment attempt on a job/quote pair. At most one payment per
// job is ever in a non-terminal state.
type Payment struct {
	ID                      uuid.UUID     `json:"id" db:"id"`
	JobID                   uuid.UUID     `json:"job_id" db:"job_id"`
	QuoteID                 uuid.UUID     `json:"quote_id" db:"quote_id"`
	Mode                    PaymentMode   `json:"mode" db:"mode"`
	StripeCheckoutSessionID *string       `json:"stripe_checkout_session_id,omitempty" db:"stripe_checkout_session_id"`
	StripePaymentIntentID   *string       `json:"stripe_payment_intent_id,omitempty" db:"stripe_payment_intent_id"`
	Status                  PaymentStatus `json:"status" db:"status"`
	AmountCents             int64         `json:"amount_cents" db:"amount_cents"`
	Currency                string        `json:"currency" db:"currency"`
	CreatedAt               time.Time     `json:"created_at" db:"created_at"`
	PaidAt                  *time.Time    `json:"paid_at,omitempty" db:"paid_at"`
	FailureReason           *string       `json:"failure_reason,omitempty" db:"failure_reason"`
}

// Payout is the amount owed to the assigned contractor for a completed job.
// At most one payout exists per job.
type Payout struct {
	ID           uuid.UUID    `json:"id" db:"id"`
	JobID        uuid.UUID    `json:"job_id" db:"job_id"`
	ContractorID uuid.UUID    `json:"contractor_id" db:"contractor_id"`
	AmountCents  int64        `json:"amount_cents" db:"amount_cents"`
	Status       PayoutStatus `json:"status" db:"status"`
	Method       string       `json:"method" db:"method"`
	CreatedAt    time.Time    `json:"created_at" db:"created_at"`
	PaidAt       *time.Time   `json:"paid_at,omitempty" db:"paid_at"`
	Notes        *string      `json:"notes,omitempty" db:"notes"`
}

// ContractorProfile is the service configuration and aggregate stats of a
// contractor user.
type ContractorProfile struct {
	ID                 uuid.UUID        `json:"id" db:"id"`
	UserID             uuid.UUID        `json:"user_id" db:"user_id"`
	CityID             uuid.UUID        `json:"city_id" db:"city_id"`
	BaseZip            string           `json:"base_zip" db:"base_zip"`
	RadiusMiles        int              `json:"radius_miles" db:"radius_miles"`
	Services           []uuid.UUID      `json:"services" db:"services"`
	Bio                string           `json:"bio" db:"bio"`
	Status             ContractorStatus `json:"status" db:"status"`
	PublicName         string           `json:"public_name" db:"public_name"`
	AvgRating          float64          `json:"avg_rating" db:"avg_rating"`
	CompletedJobsCount int              `json:"completed_jobs_count" db:"completed_jobs_count"`
	TotalEarningsCents int64            `json:"total_earnings_cents" db:"total_earnings_cents"`
	CreatedAt          time.Time        `json:"created_at" db:"created_at"`
}

// OffersService reports whether the profile covers the given service category.
func (p *ContractorProfile) OffersService(serviceCategoryID uuid.UUID) bool {
	for _, s := range p.Services {
		if s == serviceCategoryID {
			return true
		}
	}
	return false
}

// Notification is an in-app notification row written by the notifier sink.
type Notification struct {
	ID            uuid.UUID      `json:"id" db:"id"`
	RecipientType string         `json:"recipient_type" db:"recipient_type"`
	RecipientID   *uuid.UUID     `json:"recipient_id,omitempty" db:"recipient_id"`
	TemplateID    string         `json:"template_id" db:"template_id"`
	Payload       map[string]any `json:"payload" db:"payload"`
	CreatedAt     time.Time      `json:"created_at" db:"created_at"`
	ReadAt        *time.Time     `json:"read_at,omitempty" db:"read_at"`
}

// ExpansionRequest records a contractor's suggestion for a city or service
// category the platform does not cover yet.
type ExpansionRequest struct {
	ID                uuid.UUID  `json:"id" db:"id"`
	RequestedByUserID uuid.UUID  `json:"requested_by_user_id" db:"requested_by_user_id"`
	CityNameText      string     `json:"city_name_text" db:"city_name_text"`
	Zip               string     `json:"zip" db:"zip"`
	ServiceCategoryID *uuid.UUID `json:"service_category_id,omitempty" db:"service_category_id"`
	CreatedAt         time.Time  `json:"created_at" db:"created_at"`
}
