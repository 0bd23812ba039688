package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"bridge-local-platform/internal/models"
	"bridge-local-platform/internal/storage"
	"bridge-local-platform/internal/transport/dto"
)

// QuoteService owns the versioned quote ledger and the approval handshake.
type QuoteService struct {
	repos    *Repos
	sm       *StateMachine
	payments *PaymentService
	notifier *Notifier
}

// NewQuoteService creates a new QuoteService.
func NewQuoteService(repos *Repos, sm *StateMachine, payments *PaymentService, notifier *Notifier) *QuoteService {
	return &QuoteService{repos: repos, sm: sm, payments: payments, notifier: notifier}
}

// CreateQuote persists the next quote version for a job. Line totals are
// quantity × unit price in integer minor units and the grand total is their
// sum; no floating point touches money. Job status is untouched: the quote
// only becomes visible to the client on SendQuote.
func (s *QuoteService) CreateQuote(ctx context.Context, jobID uuid.UUID, req *dto.CreateQuoteRequest, operatorID uuid.UUID) (*models.Quote, []models.LineItem, error) {
	if _, err := s.repos.Jobs.GetByID(ctx, jobID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, nil, fmt.Errorf("%w: job %s", ErrNotFound, jobID)
		}
		return nil, nil, MapRepoError(err, "load job for quote")
	}
	if len(req.Items) == 0 {
		return nil, nil, fmt.Errorf("%w: a quote needs at least one line item", ErrValidation)
	}

	var total int64
	items := make([]models.LineItem, 0, len(req.Items))
	for _, in := range req.Items {
		if in.Quantity <= 0 {
			return nil, nil, fmt.Errorf("%w: line quantity must be positive", ErrValidation)
		}
		lineTotal := int64(in.Quantity) * in.UnitPriceCents
		total += lineTotal
		items = append(items, models.LineItem{
			ID:              uuid.New(),
			JobID:           jobID,
			Type:            in.Type,
			Label:           in.Label,
			Quantity:        in.Quantity,
			UnitPriceCents:  in.UnitPriceCents,
			TotalPriceCents: lineTotal,
		})
	}

	quote, err := s.repos.Quotes.CreateVersioned(ctx, &models.Quote{
		ID:              uuid.New(),
		JobID:           jobID,
		Status:          models.QuoteStatusDraft,
		TotalPriceCents: total,
	}, items)
	if err != nil {
		return nil, nil, MapRepoError(err, "create quote")
	}

	s.appendEvent(ctx, jobID, "quote_created", models.ActorOperator, &operatorID, map[string]any{
		"quote_id":          quote.ID.String(),
		"version":           quote.Version,
		"total_price_cents": quote.TotalPriceCents,
	})

	persisted, err := s.repos.Quotes.ListItemsByQuote(ctx, quote.ID)
	if err != nil {
		return nil, nil, MapRepoError(err, "list line items")
	}
	return quote, persisted, nil
}

// SendQuote marks the latest quote sent_to_client and drives the job to
// quote_sent, whose handler notifies the client.
func (s *QuoteService) SendQuote(ctx context.Context, jobID uuid.UUID, operatorID uuid.UUID) (*models.Job, *models.Quote, error) {
	if _, err := s.repos.Jobs.GetByID(ctx, jobID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, nil, fmt.Errorf("%w: job %s", ErrNotFound, jobID)
		}
		return nil, nil, MapRepoError(err, "load job")
	}
	latest, err := s.repos.Quotes.GetLatestByJob(ctx, jobID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, nil, fmt.Errorf("%w: no quote exists for job %s", ErrInvalidState, jobID)
		}
		return nil, nil, MapRepoError(err, "load latest quote")
	}

	sent, err := s.repos.Quotes.UpdateStatus(ctx, latest.ID, models.QuoteStatusDraft, models.QuoteStatusSentToClient, nil)
	if err != nil {
		if errors.Is(err, storage.ErrConflict) {
			return nil, nil, fmt.Errorf("%w: latest quote is %s, not draft", ErrInvalidState, latest.Status)
		}
		return nil, nil, MapRepoError(err, "mark quote sent")
	}

	job, err := s.sm.Transition(ctx, jobID, models.JobStatusQuoteSent, models.ActorOperator, &operatorID, map[string]any{
		"quote_id": sent.ID.String(),
		"version":  sent.Version,
	})
	if err != nil {
		return nil, nil, err
	}
	return job, sent, nil
}

// ApproveQuote is the client's tokenized approval. The token must match the
// job's view token exactly (constant-time compare); the job must be
// quote_sent with its latest quote sent_to_client. Approval hands off to the
// payment orchestrator, which decides the next job status and may return a
// checkout URL.
func (s *QuoteService) ApproveQuote(ctx context.Context, jobID uuid.UUID, token string) (*models.Job, string, error) {
	job, err := s.repos.Jobs.GetByID(ctx, jobID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, "", fmt.Errorf("%w: job %s", ErrNotFound, jobID)
		}
		return nil, "", MapRepoError(err, "load job")
	}
	if !tokenMatches(job.ClientViewToken, token) {
		return nil, "", fmt.Errorf("%w: view token mismatch", ErrForbidden)
	}
	if job.Status != models.JobStatusQuoteSent {
		return nil, "", fmt.Errorf("%w: job is %s, not %s", ErrInvalidState, job.Status, models.JobStatusQuoteSent)
	}

	latest, err := s.repos.Quotes.GetLatestByJob(ctx, jobID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, "", fmt.Errorf("%w: no quote exists for job %s", ErrInvalidState, jobID)
		}
		return nil, "", MapRepoError(err, "load latest quote")
	}
	if latest.Status != models.QuoteStatusSentToClient {
		return nil, "", fmt.Errorf("%w: latest quote is %s, not %s", ErrInvalidState, latest.Status, models.QuoteStatusSentToClient)
	}

	now := time.Now().UTC()
	approved, err := s.repos.Quotes.UpdateStatus(ctx, latest.ID, models.QuoteStatusSentToClient, models.QuoteStatusApproved, &now)
	if err != nil {
		if errors.Is(err, storage.ErrConflict) {
			return nil, "", fmt.Errorf("%w: quote already moved past %s", ErrInvalidState, models.QuoteStatusSentToClient)
		}
		return nil, "", MapRepoError(err, "approve quote")
	}

	s.appendEvent(ctx, jobID, "quote_approved", models.ActorClient, &job.ClientID, map[string]any{
		"quote_id": approved.ID.String(),
		"version":  approved.Version,
	})

	return s.payments.StartPayment(ctx, job, approved)
}

func (s *QuoteService) appendEvent(ctx context.Context, jobID uuid.UUID, eventType string, actor models.ActorType, actorID *uuid.UUID, data map[string]any) {
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
		log.Printf("QuoteService: failed to append %s event for job %s: %v", eventType, jobID, err)
	}
}
