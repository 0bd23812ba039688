package services

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"bridge-local-platform/internal/models"
	"bridge-local-platform/internal/pricing"
	"bridge-local-platform/internal/storage"
	"bridge-local-platform/internal/transport/dto"
)

// JobStatusView is the tokenized client status bundle.
type JobStatusView struct {
	Job           *models.Job
	LatestQuote   *models.Quote
	LatestPayment *models.Payment
}

// JobDetail is the operator drill-down bundle.
type JobDetail struct {
	Job      *models.Job
	Events   []models.JobEvent
	Quotes   []models.Quote
	Items    map[uuid.UUID][]models.LineItem
	Payments []models.Payment
	Payout   *models.Payout
}

// JobService owns job intake and the client/operator job surfaces.
type JobService struct {
	repos    *Repos
	sm       *StateMachine
	pricing  pricing.Source
	notifier *Notifier
	flags    PlatformFlags
}

// NewJobService creates a new JobService.
func NewJobService(repos *Repos, sm *StateMachine, pricingSource pricing.Source, notifier *Notifier, flags PlatformFlags) *JobService {
	return &JobService{repos: repos, sm: sm, pricing: pricingSource, notifier: notifier, flags: flags}
}

// CreateJob handles public job submission: find-or-create the client user,
// attach a pricing suggestion when a rule matches, persist the job in `new`,
// then immediately drive it to offering_contractors so matching fans out.
func (s *JobService) CreateJob(ctx context.Context, req *dto.CreateJobRequest) (*models.Job, error) {
	return s.createJob(ctx, req, s.flags.SandboxMode)
}

// RunSimulation seeds one smoke-test job through the real intake path. The
// job is flagged is_test so operator boards can filter it out.
func (s *JobService) RunSimulation(ctx context.Context, citySlug, serviceSlug string) (*models.Job, error) {
	return s.createJob(ctx, &dto.CreateJobRequest{
		CitySlug:            citySlug,
		ServiceCategorySlug: serviceSlug,
		Description:         "Simulated end-to-end smoke job",
		Zip:                 "00000",
		PreferredTiming:     models.TimingFlexible,
		ClientName:          "Simulation Client",
		ClientEmail:         fmt.Sprintf("simulation+%s@bridgelocal.test", uuid.NewString()[:8]),
		OriginChannel:       "simulation",
	}, true)
}

func (s *JobService) createJob(ctx context.Context, req *dto.CreateJobRequest, isTest bool) (*models.Job, error) {
	city, err := s.repos.Cities.GetBySlug(ctx, req.CitySlug)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("%w: unknown city %q", ErrValidation, req.CitySlug)
		}
		return nil, MapRepoError(err, "lookup city")
	}
	category, err := s.repos.ServiceCategories.GetBySlug(ctx, req.ServiceCategorySlug)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("%w: unknown service category %q", ErrValidation, req.ServiceCategorySlug)
		}
		return nil, MapRepoError(err, "lookup service category")
	}

	client, err := s.findOrCreateClient(ctx, req)
	if err != nil {
		return nil, err
	}

	token, err := newViewToken()
	if err != nil {
		return nil, fmt.Errorf("failed to generate view token: %w", err)
	}

	origin := req.OriginChannel
	if origin == "" {
		origin = "web"
	}

	job := &models.Job{
		ID:                uuid.New(),
		ClientID:          client.ID,
		CityID:            city.ID,
		ServiceCategoryID: category.ID,
		Title:             req.Title,
		Description:       req.Description,
		Zip:               req.Zip,
		PreferredTiming:   req.PreferredTiming,
		Status:            models.JobStatusNew,
		OriginChannel:     origin,
		IsTest:            isTest,
		ClientViewToken:   token,
	}
	if rule, ok := s.pricing.Lookup(req.CitySlug, req.ServiceCategorySlug); ok {
		total, platformCut, contractorCut := rule.Split()
		job.PricingSuggestion = &models.PricingSuggestion{
			TotalCents:         total,
			PlatformCutCents:   platformCut,
			ContractorCutCents: contractorCut,
			Source:             "city_pricing_table",
		}
	}

	created, err := s.repos.Jobs.Create(ctx, job)
	if err != nil {
		return nil, MapRepoError(err, "create job")
	}
	s.appendEvent(ctx, created.ID, "job_created", models.ActorClient, &client.ID, map[string]any{
		"city_slug":    req.CitySlug,
		"service_slug": req.ServiceCategorySlug,
	})

	updated, err := s.sm.Transition(ctx, created.ID, models.JobStatusOfferingContractors, models.ActorSystem, nil, nil)
	if err != nil {
		// The job row exists; intake succeeded even if the fan-out did not.
		log.Printf("JobService: failed to start matching for job %s: %v", created.ID, err)
		return created, nil
	}
	return updated, nil
}

// GetStatus returns the tokenized client view of a job. The token is the
// sole credential; any mismatch is Forbidden.
func (s *JobService) GetStatus(ctx context.Context, jobID uuid.UUID, token string) (*JobStatusView, error) {
	job, err := s.getJob(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if !tokenMatches(job.ClientViewToken, token) {
		return nil, fmt.Errorf("%w: view token mismatch", ErrForbidden)
	}

	view := &JobStatusView{Job: job}
	if quote, err := s.repos.Quotes.GetLatestByJob(ctx, jobID); err == nil {
		view.LatestQuote = quote
	} else if !errors.Is(err, storage.ErrNotFound) {
		return nil, MapRepoError(err, "load latest quote")
	}
	if payment, err := s.repos.Payments.GetLatestByJob(ctx, jobID); err == nil {
		view.LatestPayment = payment
	} else if !errors.Is(err, storage.ErrNotFound) {
		return nil, MapRepoError(err, "load latest payment")
	}
	return view, nil
}

// List returns jobs for the operator board.
func (s *JobService) List(ctx context.Context, filter storage.JobListFilter) ([]models.Job, error) {
	jobs, err := s.repos.Jobs.List(ctx, filter)
	if err != nil {
		return nil, MapRepoError(err, "list jobs")
	}
	return jobs, nil
}

// GetDetail returns a job with its audit trail, quote ledger, and payments.
func (s *JobService) GetDetail(ctx context.Context, jobID uuid.UUID) (*JobDetail, error) {
	job, err := s.getJob(ctx, jobID)
	if err != nil {
		return nil, err
	}
	events, err := s.repos.JobEvents.ListByJob(ctx, jobID)
	if err != nil {
		return nil, MapRepoError(err, "list job events")
	}
	quotes, err := s.repos.Quotes.ListByJob(ctx, jobID)
	if err != nil {
		return nil, MapRepoError(err, "list quotes")
	}
	items := map[uuid.UUID][]models.LineItem{}
	for _, q := range quotes {
		li, err := s.repos.Quotes.ListItemsByQuote(ctx, q.ID)
		if err != nil {
			return nil, MapRepoError(err, "list line items")
		}
		items[q.ID] = li
	}

	detail := &JobDetail{Job: job, Events: events, Quotes: quotes, Items: items, Payments: []models.Payment{}}
	if payment, err := s.repos.Payments.GetLatestByJob(ctx, jobID); err == nil {
		detail.Payments = append(detail.Payments, *payment)
	} else if !errors.Is(err, storage.ErrNotFound) {
		return nil, MapRepoError(err, "load latest payment")
	}
	if payout, err := s.repos.Payouts.GetByJob(ctx, jobID); err == nil {
		detail.Payout = payout
	} else if !errors.Is(err, storage.ErrNotFound) {
		return nil, MapRepoError(err, "load payout")
	}
	return detail, nil
}

// Cancel moves a job to one of the cancelled statuses on the operator's
// authority.
func (s *JobService) Cancel(ctx context.Context, jobID uuid.UUID, cancelledBy string, reason string, operatorID uuid.UUID) (*models.Job, error) {
	target := models.JobStatusCancelledInternal
	if cancelledBy == "client" {
		target = models.JobStatusCancelledByClient
	}
	metadata := map[string]any{"cancelled_by": cancelledBy}
	if reason != "" {
		metadata["reason"] = reason
	}
	return s.sm.Transition(ctx, jobID, target, models.ActorOperator, &operatorID, metadata)
}

// RetriggerMatching re-runs the contractor fan-out. For a job stuck in
// no_contractor_found this is the documented operator override: the status is
// reset to offering_contractors outside the lifecycle table (which keeps
// no_contractor_found terminal for every other caller), then matching runs
// again.
func (s *JobService) RetriggerMatching(ctx context.Context, jobID uuid.UUID, operatorID uuid.UUID) (*models.Job, error) {
	job, err := s.getJob(ctx, jobID)
	if err != nil {
		return nil, err
	}

	switch job.Status {
	case models.JobStatusOfferingContractors:
		// Already offering; just fan out again.
	case models.JobStatusNoContractorFound:
		now := time.Now().UTC()
		job, err = s.repos.Jobs.UpdateStatus(ctx, storage.UpdateJobStatusParams{
			ID:        jobID,
			From:      models.JobStatusNoContractorFound,
			To:        models.JobStatusOfferingContractors,
			UpdatedAt: now,
		})
		if err != nil {
			return nil, MapRepoError(err, "reset job for re-matching")
		}
	default:
		return nil, fmt.Errorf("%w: cannot re-trigger matching from %s", ErrInvalidState, job.Status)
	}

	s.appendEvent(ctx, jobID, "matching_retriggered", models.ActorOperator, &operatorID, nil)
	if next := s.sm.dispatch(ctx, job); next != nil {
		return s.sm.Transition(ctx, jobID, next.to, models.ActorSystem, nil, next.metadata)
	}
	return s.getJob(ctx, jobID)
}

func (s *JobService) getJob(ctx context.Context, jobID uuid.UUID) (*models.Job, error) {
	job, err := s.repos.Jobs.GetByID(ctx, jobID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("%w: job %s", ErrNotFound, jobID)
		}
		return nil, MapRepoError(err, "load job")
	}
	return job, nil
}

// findOrCreateClient resolves the submitting client: by email first, then by
// phone, else a fresh client user with an unguessable placeholder password.
func (s *JobService) findOrCreateClient(ctx context.Context, req *dto.CreateJobRequest) (*models.User, error) {
	user, err := s.repos.Users.GetByEmail(ctx, req.ClientEmail)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return nil, MapRepoError(err, "lookup client by email")
	}

	if req.ClientPhone != nil && *req.ClientPhone != "" {
		user, err = s.repos.Users.GetByPhoneAndRole(ctx, *req.ClientPhone, models.RoleClient)
		if err == nil {
			return user, nil
		}
		if !errors.Is(err, storage.ErrNotFound) {
			return nil, MapRepoError(err, "lookup client by phone")
		}
	}

	// Auto-created clients have no usable password; they authenticate with
	// the job's view token only.
	placeholder, err := newViewToken()
	if err != nil {
		return nil, fmt.Errorf("failed to generate client credentials: %w", err)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(placeholder), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash client credentials: %w", err)
	}

	user, err = s.repos.Users.Create(ctx, &models.User{
		ID:           uuid.New(),
		Name:         req.ClientName,
		Email:        req.ClientEmail,
		Phone:        req.ClientPhone,
		Role:         models.RoleClient,
		PasswordHash: string(hash),
	})
	if err != nil {
		return nil, MapRepoError(err, "create client user")
	}
	return user, nil
}

func (s *JobService) appendEvent(ctx context.Context, jobID uuid.UUID, eventType string, actor models.ActorType, actorID *uuid.UUID, data map[string]any) {
	if data == nil {
		data = map[string]any{}
	}
	err := s.repos.JobEvents.Append(ctx, &models.JobEvent{
		ID:        uuid.New(),
		JobID:     jobID,
		EventType: eventType,
		ActorType: actor,
		ActorID:   actorID,
		Data:      data,
	})
	if err != nil {
		log.Printf("JobService: failed to append %s event for job %s: %v", eventType, jobID, err)
	}
}

// newViewToken returns a 128-bit random hex token. It is the bearer secret
// for all tokenized client endpoints.
func newViewToken() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

// tokenMatches compares the presented token against the job's view token in
// constant time.
func tokenMatches(expected, presented string) bool {
	if expected == "" || len(expected) != len(presented) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(expected), []byte(presented)) == 1
}
