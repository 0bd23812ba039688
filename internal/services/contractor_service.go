package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"bridge-local-platform/internal/models"
	"bridge-local-platform/internal/storage"
	"bridge-local-platform/internal/transport/dto"
)

// ContractorService owns contractor signup, the offer inbox, and the claim.
type ContractorService struct {
	repos    *Repos
	sm       *StateMachine
	notifier *Notifier
}

// NewContractorService creates a new ContractorService.
func NewContractorService(repos *Repos, sm *StateMachine, notifier *Notifier) *ContractorService {
	return &ContractorService{repos: repos, sm: sm, notifier: notifier}
}

// Signup registers a contractor user and profile. Profiles start in
// pending_review and receive no offers until an operator activates them. An
// optional expansion suggestion (a city we don't cover) is recorded as-is.
func (s *ContractorService) Signup(ctx context.Context, req *dto.ContractorSignupRequest) (*models.ContractorProfile, error) {
	city, err := s.repos.Cities.GetBySlug(ctx, req.CitySlug)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("%w: unknown city %q", ErrValidation, req.CitySlug)
		}
		return nil, MapRepoError(err, "lookup city")
	}

	services := make([]uuid.UUID, 0, len(req.ServiceSlugs))
	for _, slug := range req.ServiceSlugs {
		cat, err := s.repos.ServiceCategories.GetBySlug(ctx, slug)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return nil, fmt.Errorf("%w: unknown service category %q", ErrValidation, slug)
			}
			return nil, MapRepoError(err, "lookup service category")
		}
		services = append(services, cat.ID)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	user, err := s.repos.Users.Create(ctx, &models.User{
		ID:           uuid.New(),
		Name:         req.Name,
		Email:        req.Email,
		Phone:        req.Phone,
		Role:         models.RoleContractor,
		PasswordHash: string(hash),
	})
	if err != nil {
		return nil, MapRepoError(err, "create contractor user")
	}

	profile, err := s.repos.Contractors.Create(ctx, &models.ContractorProfile{
		ID:          uuid.New(),
		UserID:      user.ID,
		CityID:      city.ID,
		BaseZip:     req.BaseZip,
		RadiusMiles: req.RadiusMiles,
		Services:    services,
		Bio:         req.Bio,
		Status:      models.ContractorStatusPendingReview,
		PublicName:  req.PublicName,
	})
	if err != nil {
		return nil, MapRepoError(err, "create contractor profile")
	}

	if req.Expansion != nil {
		err := s.repos.Contractors.CreateExpansionRequest(ctx, &models.ExpansionRequest{
			ID:                uuid.New(),
			RequestedByUserID: user.ID,
			CityNameText:      req.Expansion.CityName,
			Zip:               req.Expansion.Zip,
		})
		if err != nil {
			// Advisory record only; signup already succeeded.
			log.Printf("ContractorService: failed to record expansion request: %v", err)
		}
	}

	s.notifier.NotifyOperator(ctx, "contractor_signup", map[string]any{
		"contractor_id": profile.ID.String(),
		"public_name":   profile.PublicName,
	})
	return profile, nil
}

// GetProfileByUser resolves the contractor profile owned by a user account.
func (s *ContractorService) GetProfileByUser(ctx context.Context, userID uuid.UUID) (*models.ContractorProfile, error) {
	profile, err := s.repos.Contractors.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("%w: contractor profile for user %s", ErrNotFound, userID)
		}
		return nil, MapRepoError(err, "load contractor profile")
	}
	return profile, nil
}

// ListOffers returns the open jobs in the contractor's city matching any of
// the contractor's service categories.
func (s *ContractorService) ListOffers(ctx context.Context, userID uuid.UUID) ([]models.Job, error) {
	profile, err := s.GetProfileByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	jobs, err := s.repos.Jobs.ListOpenOffers(ctx, profile.CityID, profile.Services)
	if err != nil {
		return nil, MapRepoError(err, "list open offers")
	}
	return jobs, nil
}

// AcceptOffer is the claim: the first contractor to win the conditional
// update gets the job; everyone else is rejected. Guard order follows the
// claim contract: missing entities, already claimed (Conflict, loser
// notified), wrong status (InvalidState), profile mismatch (Forbidden).
func (s *ContractorService) AcceptOffer(ctx context.Context, jobID, userID uuid.UUID) (*models.Job, error) {
	profile, err := s.GetProfileByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	job, err := s.repos.Jobs.GetByID(ctx, jobID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("%w: job %s", ErrNotFound, jobID)
		}
		return nil, MapRepoError(err, "load job for claim")
	}

	if err := s.claimGuards(ctx, job, profile); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	claimed, err := s.repos.Jobs.Claim(ctx, jobID, profile.ID, now)
	if err != nil {
		if errors.Is(err, storage.ErrConflict) {
			// Lost the race between the guard read and the write. Re-read so
			// the caller gets the same error a slower guard check would give.
			fresh, readErr := s.repos.Jobs.GetByID(ctx, jobID)
			if readErr == nil {
				if guardErr := s.claimGuards(ctx, fresh, profile); guardErr != nil {
					return nil, guardErr
				}
			}
			return nil, fmt.Errorf("%w: job %s already claimed", ErrConflict, jobID)
		}
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("%w: job %s", ErrNotFound, jobID)
		}
		return nil, MapRepoError(err, "claim job")
	}

	s.appendEvent(ctx, jobID, "offer_accepted", models.ActorContractor, &userID, map[string]any{
		"contractor_id": profile.ID.String(),
	})
	s.appendEvent(ctx, jobID, "status_"+string(models.JobStatusAwaitingQuote), models.ActorContractor, &userID, nil)
	s.notifier.NotifyOperator(ctx, "offer_accepted", map[string]any{
		"job_id":        jobID.String(),
		"contractor_id": profile.ID.String(),
	})
	return claimed, nil
}

// claimGuards rejects a claim before the write is attempted. A job claimed by
// someone else notifies the losing contractor.
func (s *ContractorService) claimGuards(ctx context.Context, job *models.Job, profile *models.ContractorProfile) error {
	if job.AssignedContractorID != nil && *job.AssignedContractorID != profile.ID {
		uid := profile.UserID
		s.notifier.Notify(ctx, RecipientContractor, &uid, "offer_already_claimed", map[string]any{
			"job_id": job.ID.String(),
		})
		return fmt.Errorf("%w: job %s already claimed", ErrConflict, job.ID)
	}
	if job.Status != models.JobStatusOfferingContractors {
		return fmt.Errorf("%w: job %s is %s", ErrInvalidState, job.ID, job.Status)
	}
	if job.CityID != profile.CityID || !profile.OffersService(job.ServiceCategoryID) {
		return fmt.Errorf("%w: profile does not cover this job", ErrForbidden)
	}
	return nil
}

// MarkComplete is the assigned contractor reporting the work done; it drives
// the job to completed, which creates the payout.
func (s *ContractorService) MarkComplete(ctx context.Context, jobID, userID uuid.UUID) (*models.Job, error) {
	profile, err := s.GetProfileByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	job, err := s.repos.Jobs.GetByID(ctx, jobID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("%w: job %s", ErrNotFound, jobID)
		}
		return nil, MapRepoError(err, "load job")
	}
	if job.AssignedContractorID == nil || *job.AssignedContractorID != profile.ID {
		return nil, fmt.Errorf("%w: job is not assigned to this contractor", ErrForbidden)
	}
	return s.sm.Transition(ctx, jobID, models.JobStatusCompleted, models.ActorContractor, &userID, nil)
}

func (s *ContractorService) appendEvent(ctx context.Context, jobID uuid.UUID, eventType string, actor models.ActorType, actorID *uuid.UUID, data map[string]any) {
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
		log.Printf("ContractorService: failed to append %s event for job %s: %v", eventType, jobID, err)
	}
}
