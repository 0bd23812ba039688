package storage

import (
	"context"
	"time"

	"github.com/google/uuid"

	"bridge-local-platform/internal/models"
)

// UserRepository defines the interface for user data operations.
type UserRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByPhoneAndRole(ctx context.Context, phone string, role models.Role) (*models.User, error)
	Create(ctx context.Context, user *models.User) (*models.User, error)
	UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error
}

// CityRepository defines the interface for serviceable-city lookups.
type CityRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.City, error)
	GetBySlug(ctx context.Context, slug string) (*models.City, error)
	ListActive(ctx context.Context) ([]models.City, error)
	Create(ctx context.Context, city *models.City) error
}

// ServiceCategoryRepository defines the interface for service-category lookups.
type ServiceCategoryRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.ServiceCategory, error)
	GetBySlug(ctx context.Context, slug string) (*models.ServiceCategory, error)
	List(ctx context.Context) ([]models.ServiceCategory, error)
	Create(ctx context.Context, cat *models.ServiceCategory) error
}

// UpdateJobStatusParams is the conditional status write issued by the state
// machine: the update applies only while the job is still in From.
type UpdateJobStatusParams struct {
	ID          uuid.UUID
	From        models.JobStatus
	To          models.JobStatus
	UpdatedAt   time.Time
	AcceptedAt  *time.Time
	CompletedAt *time.Time
	CancelledAt *time.Time
}

// JobListFilter narrows operator job listings.
type JobListFilter struct {
	CityID            *uuid.UUID
	ServiceCategoryID *uuid.UUID
	Status            *models.JobStatus
	Limit             int
}

// JobRepository defines the interface for job data operations.
type JobRepository interface {
	Create(ctx context.Context, job *models.Job) (*models.Job, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Job, error)
	// UpdateStatus performs the guarded status write. It returns ErrNotFound
	// if the job does not exist and ErrConflict if the job has already left
	// the From status.
	UpdateStatus(ctx context.Context, params UpdateJobStatusParams) (*models.Job, error)
	// Claim atomically assigns the contractor and moves the job from
	// offering_contractors to awaiting_quote. The write applies only while
	// assigned_contractor_id is null; a lost race surfaces as ErrConflict.
	Claim(ctx context.Context, jobID, contractorID uuid.UUID, at time.Time) (*models.Job, error)
	List(ctx context.Context, filter JobListFilter) ([]models.Job, error)
	// ListOpenOffers returns jobs in offering_contractors for the given city
	// restricted to the given service categories.
	ListOpenOffers(ctx context.Context, cityID uuid.UUID, serviceCategoryIDs []uuid.UUID) ([]models.Job, error)
}

// JobEventRepository is the append-only audit trail.
type JobEventRepository interface {
	Append(ctx context.Context, event *models.JobEvent) error
	ListByJob(ctx context.Context, jobID uuid.UUID) ([]models.JobEvent, error)
}

// ContractorRepository defines the interface for contractor profile operations.
type ContractorRepository interface {
	Create(ctx context.Context, profile *models.ContractorProfile) (*models.ContractorProfile, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.ContractorProfile, error)
	GetByUserID(ctx context.Context, userID uuid.UUID) (*models.ContractorProfile, error)
	// FindEligible returns active profiles in the city offering the category,
	// in no particular order.
	FindEligible(ctx context.Context, cityID, serviceCategoryID uuid.UUID) ([]models.ContractorProfile, error)
	// AddCompletedJob increments the aggregate earnings and completed-job
	// counters when a payout is marked paid.
	AddCompletedJob(ctx context.Context, id uuid.UUID, earningsCents int64) error
	CreateExpansionRequest(ctx context.Context, req *models.ExpansionRequest) error
}

// QuoteRepository defines the interface for the versioned quote ledger.
type QuoteRepository interface {
	// CreateVersioned persists the quote with version = max(job versions)+1
	// and its line items. Concurrent calls for the same job must both end up
	// with distinct versions.
	CreateVersioned(ctx context.Context, quote *models.Quote, items []models.LineItem) (*models.Quote, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Quote, error)
	GetLatestByJob(ctx context.Context, jobID uuid.UUID) (*models.Quote, error)
	ListByJob(ctx context.Context, jobID uuid.UUID) ([]models.Quote, error)
	ListItemsByQuote(ctx context.Context, quoteID uuid.UUID) ([]models.LineItem, error)
	// UpdateStatus is a guarded write: the update applies only while the
	// quote is still in From; a stale From surfaces as ErrConflict.
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to models.QuoteStatus, approvedAt *time.Time) (*models.Quote, error)
}

// PaymentRepository defines the interface for payment attempts.
type PaymentRepository interface {
	Create(ctx context.Context, payment *models.Payment) (*models.Payment, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Payment, error)
	GetByCheckoutSessionID(ctx context.Context, sessionID string) (*models.Payment, error)
	GetLatestByJob(ctx context.Context, jobID uuid.UUID) (*models.Payment, error)
	// UpdateStatus is a guarded write keyed on the current status set; a
	// payment no longer in any of From surfaces as ErrConflict.
	UpdateStatus(ctx context.Context, id uuid.UUID, from []models.PaymentStatus, to models.PaymentStatus, paidAt *time.Time) (*models.Payment, error)
}

// PayoutRepository defines the interface for contractor payouts.
type PayoutRepository interface {
	// CreateIfAbsent inserts the payout unless one already exists for the
	// job; it reports whether a row was created.
	CreateIfAbsent(ctx context.Context, payout *models.Payout) (bool, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Payout, error)
	GetByJob(ctx context.Context, jobID uuid.UUID) (*models.Payout, error)
	List(ctx context.Context, status *models.PayoutStatus) ([]models.Payout, error)
	MarkPaid(ctx context.Context, id uuid.UUID, at time.Time) (*models.Payout, error)
}

// NotificationRepository persists in-app notifications (fire-and-forget sink).
type NotificationRepository interface {
	Create(ctx context.Context, n *models.Notification) error
	ListByRecipient(ctx context.Context, recipientType string, recipientID *uuid.UUID) ([]models.Notification, error)
}
