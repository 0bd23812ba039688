package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"time"

	"github.com/google/uuid"

	"bridge-local-platform/internal/models"
	"bridge-local-platform/internal/storage"
)

// followUp is a handler-requested next transition. Handlers return one
// instead of calling Transition recursively; the engine applies follow-ups in
// a loop until none remains, so a chain of transitions cannot recurse.
type followUp struct {
	to       models.JobStatus
	metadata map[string]any
}

// StateMachine owns the authoritative job status. Every status change in the
// system funnels through Transition (the contractor claim, which fuses the
// assignment and the status write into one conditional update, is the single
// exception).
type StateMachine struct {
	repos    *Repos
	notifier *Notifier
	flags    PlatformFlags
}

// NewStateMachine creates a new StateMachine.
func NewStateMachine(repos *Repos, notifier *Notifier, flags PlatformFlags) *StateMachine {
	return &StateMachine{repos: repos, notifier: notifier, flags: flags}
}

// Transition moves a job to newStatus. It fails with ErrNotFound if the job
// does not exist and ErrInvalidTransition if the lifecycle table forbids the
// move from the job's current status. On success the status write, the
// first-entry timestamps, and one status_<new> audit event are persisted,
// then the side-effect handler for the new status runs. Handler failures are
// logged, never propagated: the persisted status is already correct.
func (sm *StateMachine) Transition(ctx context.Context, jobID uuid.UUID, newStatus models.JobStatus, actor models.ActorType, actorID *uuid.UUID, metadata map[string]any) (*models.Job, error) {
	var job *models.Job

	for {
		current, err := sm.repos.Jobs.GetByID(ctx, jobID)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return nil, fmt.Errorf("%w: job %s", ErrNotFound, jobID)
			}
			return nil, MapRepoError(err, "load job for transition")
		}

		if !IsValidJobTransition(current.Status, newStatus) {
			return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, current.Status, newStatus)
		}

		now := time.Now().UTC()
		params := storage.UpdateJobStatusParams{
			ID:        jobID,
			From:      current.Status,
			To:        newStatus,
			UpdatedAt: now,
		}
		switch newStatus {
		case models.JobStatusAwaitingQuote:
			params.AcceptedAt = &now
		case models.JobStatusCompleted:
			params.CompletedAt = &now
		case models.JobStatusCancelledByClient, models.JobStatusCancelledInternal:
			params.CancelledAt = &now
		}

		job, err = sm.repos.Jobs.UpdateStatus(ctx, params)
		if err != nil {
			if errors.Is(err, storage.ErrConflict) {
				return nil, fmt.Errorf("%w: job %s left status %s concurrently", ErrConflict, jobID, current.Status)
			}
			return nil, MapRepoError(err, "update job status")
		}

		sm.appendEvent(ctx, job, "status_"+string(newStatus), actor, actorID, metadata)

		next := sm.dispatch(ctx, job)
		if next == nil {
			break
		}
		newStatus = next.to
		metadata = next.metadata
		actor = models.ActorSystem
		actorID = nil
	}

	return job, nil
}

// dispatch runs the side-effect handler keyed by the job's new status and
// returns the follow-up transition, if the handler requests one.
func (sm *StateMachine) dispatch(ctx context.Context, job *models.Job) *followUp {
	switch job.Status {
	case models.JobStatusOfferingContractors:
		return sm.onOfferingContractors(ctx, job)
	case models.JobStatusQuoteSent:
		sm.onQuoteSent(ctx, job)
	case models.JobStatusNoContractorFound:
		sm.onNoContractorFound(ctx, job)
	case models.JobStatusConfirmed:
		sm.onConfirmed(ctx, job)
	case models.JobStatusCompleted:
		sm.onCompleted(ctx, job)
	}
	return nil
}

// onOfferingContractors fans the job out to eligible contractors. With no
// eligible contractor the job falls through to no_contractor_found; there is
// no retry schedule, the operator re-triggers matching manually.
func (sm *StateMachine) onOfferingContractors(ctx context.Context, job *models.Job) *followUp {
	eligible, err := sm.repos.Contractors.FindEligible(ctx, job.CityID, job.ServiceCategoryID)
	if err != nil {
		log.Printf("StateMachine: matching query failed for job %s: %v", job.ID, err)
		return nil
	}

	if len(eligible) == 0 {
		return &followUp{
			to:       models.JobStatusNoContractorFound,
			metadata: map[string]any{"reason": "no_eligible_contractors"},
		}
	}

	offered := eligible
	if sm.flags.MaxContractorOffers > 0 && len(offered) > sm.flags.MaxContractorOffers {
		offered = offered[:sm.flags.MaxContractorOffers]
	}
	for _, profile := range offered {
		uid := profile.UserID
		sm.notifier.Notify(ctx, RecipientContractor, &uid, "new_offer", map[string]any{
			"job_id":              job.ID.String(),
			"service_category_id": job.ServiceCategoryID.String(),
			"zip":                 job.Zip,
		})
	}
	sm.appendEvent(ctx, job, "contractor_offers_prepared", models.ActorSystem, nil, map[string]any{
		"eligible_count": len(eligible),
		"offered_count":  len(offered),
	})
	return nil
}

func (sm *StateMachine) onQuoteSent(ctx context.Context, job *models.Job) {
	clientID := job.ClientID
	sm.notifier.Notify(ctx, RecipientClient, &clientID, "quote_sent", map[string]any{
		"job_id": job.ID.String(),
	})
}

func (sm *StateMachine) onNoContractorFound(ctx context.Context, job *models.Job) {
	sm.notifier.NotifyOperator(ctx, "no_contractor_found", map[string]any{
		"job_id": job.ID.String(),
	})
}

// onConfirmed is the on-payment-succeeded hook: the assigned contractor and
// the operator both learn the job is funded.
func (sm *StateMachine) onConfirmed(ctx context.Context, job *models.Job) {
	if job.AssignedContractorID != nil {
		profile, err := sm.repos.Contractors.GetByID(ctx, *job.AssignedContractorID)
		if err != nil {
			log.Printf("StateMachine: assigned contractor %s missing on confirm: %v", *job.AssignedContractorID, err)
		} else {
			uid := profile.UserID
			sm.notifier.Notify(ctx, RecipientContractor, &uid, "job_confirmed", map[string]any{
				"job_id": job.ID.String(),
			})
		}
	}
	sm.notifier.NotifyOperator(ctx, "job_confirmed", map[string]any{
		"job_id": job.ID.String(),
	})
}

// onCompleted creates the contractor payout. A completed job without a quote
// is a data-integrity edge case: it is skipped, never an error. The unique
// guard on job_id makes a double invocation create at most one payout.
func (sm *StateMachine) onCompleted(ctx context.Context, job *models.Job) {
	defer func() {
		clientID := job.ClientID
		sm.notifier.Notify(ctx, RecipientClient, &clientID, "job_completed", map[string]any{
			"job_id": job.ID.String(),
		})
		sm.notifier.NotifyOperator(ctx, "job_completed", map[string]any{
			"job_id": job.ID.String(),
		})
	}()

	if job.AssignedContractorID == nil {
		log.Printf("StateMachine: job %s completed without an assigned contractor, skipping payout", job.ID)
		return
	}
	quote, err := sm.repos.Quotes.GetLatestByJob(ctx, job.ID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			log.Printf("StateMachine: job %s completed without a quote, skipping payout", job.ID)
			return
		}
		log.Printf("StateMachine: failed loading quote for payout on job %s: %v", job.ID, err)
		return
	}

	amount := PayoutAmount(quote.TotalPriceCents, sm.flags.PayoutRate)
	created, err := sm.repos.Payouts.CreateIfAbsent(ctx, &models.Payout{
		ID:           uuid.New(),
		JobID:        job.ID,
		ContractorID: *job.AssignedContractorID,
		AmountCents:  amount,
		Status:       models.PayoutStatusPending,
		Method:       "manual",
	})
	if err != nil {
		log.Printf("StateMachine: payout creation failed for job %s: %v", job.ID, err)
		return
	}
	if created {
		sm.appendEvent(ctx, job, "payout_created", models.ActorSystem, nil, map[string]any{
			"amount_cents": amount,
			"quote_id":     quote.ID.String(),
		})
	}
}

// appendEvent writes one audit entry. Audit failures are logged and
// swallowed; the status write is already durable.
func (sm *StateMachine) appendEvent(ctx context.Context, job *models.Job, eventType string, actor models.ActorType, actorID *uuid.UUID, data map[string]any) {
	if data == nil {
		data = map[string]any{}
	}
	err := sm.repos.JobEvents.Append(ctx, &models.JobEvent{
		ID:        uuid.New(),
		JobID:     job.ID,
		EventType: eventType,
		ActorType: actor,
		ActorID:   actorID,
		Data:      data,
	})
	if err != nil {
		log.Printf("StateMachine: failed to append %s event for job %s: %v", eventType, job.ID, err)
	}
}

// PayoutAmount is the contractor's share of a quote total, floored to whole
// minor units.
func PayoutAmount(totalCents int64, rate float64) int64 {
	return int64(math.Floor(float64(totalCents) * rate))
}
