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
)

// PaymentService orchestrates how awaiting_payment gets resolved: stripe
// checkout plus webhook, or offline settlement by the operator. It also owns
// the payout settlement surface.
type PaymentService struct {
	repos    *Repos
	sm       *StateMachine
	gateway  PaymentGateway
	notifier *Notifier
	flags    PlatformFlags
}

// NewPaymentService creates a new PaymentService. The gateway may be nil when
// the platform runs in offline mode.
func NewPaymentService(repos *Repos, sm *StateMachine, gateway PaymentGateway, notifier *Notifier, flags PlatformFlags) *PaymentService {
	return &PaymentService{repos: repos, sm: sm, gateway: gateway, notifier: notifier, flags: flags}
}

// StartPayment runs after quote approval and decides the job's next status.
// With the payment gate disabled the job confirms immediately. In stripe mode
// a checkout session is opened and its URL returned; gateway failures
// propagate, the client must see that payment setup failed. In offline mode a
// pending payment row is created and the operator is told to collect.
func (s *PaymentService) StartPayment(ctx context.Context, job *models.Job, quote *models.Quote) (*models.Job, string, error) {
	if !s.flags.RequirePaymentBeforeConfirm {
		updated, err := s.sm.Transition(ctx, job.ID, models.JobStatusConfirmed, models.ActorSystem, nil, map[string]any{
			"payment_gate": "disabled",
		})
		if err != nil {
			return nil, "", err
		}
		return updated, "", nil
	}

	payment := &models.Payment{
		ID:          uuid.New(),
		JobID:       job.ID,
		QuoteID:     quote.ID,
		Mode:        s.flags.PaymentMode,
		Status:      models.PaymentStatusPending,
		AmountCents: quote.TotalPriceCents,
		Currency:    s.flags.Currency,
	}

	var checkoutURL string
	if s.flags.PaymentMode == models.PaymentModeStripe {
		if s.gateway == nil {
			return nil, "", fmt.Errorf("%w: no payment gateway configured", ErrUpstreamFailure)
		}
		session, err := s.gateway.CreateCheckoutSession(ctx, quote.TotalPriceCents, s.flags.Currency, map[string]string{
			"job_id":   job.ID.String(),
			"quote_id": quote.ID.String(),
		})
		if err != nil {
			return nil, "", fmt.Errorf("%w: checkout session creation failed: %v", ErrUpstreamFailure, err)
		}
		payment.StripeCheckoutSessionID = &session.ID
		if session.PaymentIntentID != "" {
			payment.StripePaymentIntentID = &session.PaymentIntentID
		}
		checkoutURL = session.URL
	}

	if _, err := s.repos.Payments.Create(ctx, payment); err != nil {
		return nil, "", MapRepoError(err, "create payment")
	}

	updated, err := s.sm.Transition(ctx, job.ID, models.JobStatusAwaitingPayment, models.ActorSystem, nil, map[string]any{
		"payment_id": payment.ID.String(),
		"mode":       string(payment.Mode),
	})
	if err != nil {
		return nil, "", err
	}

	if s.flags.PaymentMode == models.PaymentModeOffline {
		s.notifier.NotifyOperator(ctx, "offline_payment_pending", map[string]any{
			"job_id":       job.ID.String(),
			"payment_id":   payment.ID.String(),
			"amount_cents": payment.AmountCents,
		})
	}
	return updated, checkoutURL, nil
}

// HandleStripeWebhook authenticates and applies one gateway callback. A bad
// signature rejects the whole delivery (the handler maps it to 400); an event
// for an unknown session or one we already settled is acknowledged without
// effect so gateway retries stay idempotent.
func (s *PaymentService) HandleStripeWebhook(ctx context.Context, payload []byte, signature string) error {
	if s.gateway == nil {
		return fmt.Errorf("%w: no payment gateway configured", ErrUpstreamFailure)
	}
	event, err := s.gateway.VerifyWebhook(payload, signature)
	if err != nil {
		return fmt.Errorf("%w: webhook signature verification failed: %v", ErrValidation, err)
	}
	if event.Type != "checkout.session.completed" {
		return nil
	}

	payment, err := s.repos.Payments.GetByCheckoutSessionID(ctx, event.CheckoutSessionID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			log.Printf("PaymentService: webhook for unknown checkout session %s", event.CheckoutSessionID)
			return nil
		}
		return MapRepoError(err, "load payment for webhook")
	}
	if payment.Status == models.PaymentStatusSucceeded {
		return nil
	}

	now := time.Now().UTC()
	settled, err := s.repos.Payments.UpdateStatus(ctx, payment.ID,
		[]models.PaymentStatus{models.PaymentStatusPending, models.PaymentStatusClientMarkedSent},
		models.PaymentStatusSucceeded, &now)
	if err != nil {
		if errors.Is(err, storage.ErrConflict) {
			return nil
		}
		return MapRepoError(err, "settle payment")
	}

	if _, err := s.sm.Transition(ctx, settled.JobID, models.JobStatusConfirmed, models.ActorSystem, nil, map[string]any{
		"payment_id": settled.ID.String(),
		"via":        "stripe_webhook",
	}); err != nil && !errors.Is(err, ErrInvalidTransition) {
		return err
	}
	return nil
}

// MarkPaymentSent is the offline-mode advisory "client says the money is on
// the way": payment status only, job status unchanged, operator notified.
func (s *PaymentService) MarkPaymentSent(ctx context.Context, jobID uuid.UUID, token string) (*models.Payment, error) {
	job, err := s.repos.Jobs.GetByID(ctx, jobID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("%w: job %s", ErrNotFound, jobID)
		}
		return nil, MapRepoError(err, "load job")
	}
	if !tokenMatches(job.ClientViewToken, token) {
		return nil, fmt.Errorf("%w: view token mismatch", ErrForbidden)
	}

	payment, err := s.repos.Payments.GetLatestByJob(ctx, jobID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("%w: no payment pending on job %s", ErrInvalidState, jobID)
		}
		return nil, MapRepoError(err, "load latest payment")
	}

	marked, err := s.repos.Payments.UpdateStatus(ctx, payment.ID,
		[]models.PaymentStatus{models.PaymentStatusPending},
		models.PaymentStatusClientMarkedSent, nil)
	if err != nil {
		if errors.Is(err, storage.ErrConflict) {
			return nil, fmt.Errorf("%w: payment is %s, not pending", ErrInvalidState, payment.Status)
		}
		return nil, MapRepoError(err, "mark payment sent")
	}

	s.appendEvent(ctx, jobID, "client_marked_payment_sent", models.ActorClient, &job.ClientID, map[string]any{
		"payment_id": marked.ID.String(),
	})
	s.notifier.NotifyOperator(ctx, "client_marked_payment_sent", map[string]any{
		"job_id":     jobID.String(),
		"payment_id": marked.ID.String(),
	})
	return marked, nil
}

// MarkPaymentPaid is the operator settling an offline payment: the sole
// authority that flips it to succeeded and confirms the job. A second call
// fails AlreadySettled.
func (s *PaymentService) MarkPaymentPaid(ctx context.Context, paymentID uuid.UUID, operatorID uuid.UUID) (*models.Payment, error) {
	payment, err := s.repos.Payments.GetByID(ctx, paymentID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("%w: payment %s", ErrNotFound, paymentID)
		}
		return nil, MapRepoError(err, "load payment")
	}
	if payment.Status == models.PaymentStatusSucceeded {
		return nil, fmt.Errorf("%w: payment %s already succeeded", ErrAlreadySettled, paymentID)
	}

	now := time.Now().UTC()
	settled, err := s.repos.Payments.UpdateStatus(ctx, paymentID,
		[]models.PaymentStatus{models.PaymentStatusPending, models.PaymentStatusClientMarkedSent},
		models.PaymentStatusSucceeded, &now)
	if err != nil {
		if errors.Is(err, storage.ErrConflict) {
			return nil, fmt.Errorf("%w: payment %s", ErrAlreadySettled, paymentID)
		}
		return nil, MapRepoError(err, "settle payment")
	}

	if _, err := s.sm.Transition(ctx, settled.JobID, models.JobStatusConfirmed, models.ActorOperator, &operatorID, map[string]any{
		"payment_id": settled.ID.String(),
		"via":        "operator_mark_paid",
	}); err != nil && !errors.Is(err, ErrInvalidTransition) {
		return nil, err
	}
	return settled, nil
}

// ListPayouts returns payouts for the operator board, optionally by status.
func (s *PaymentService) ListPayouts(ctx context.Context, status *models.PayoutStatus) ([]models.Payout, error) {
	payouts, err := s.repos.Payouts.List(ctx, status)
	if err != nil {
		return nil, MapRepoError(err, "list payouts")
	}
	return payouts, nil
}

// MarkPayoutPaid settles a contractor payout and rolls the amount into the
// contractor's aggregate earnings and completed-job count. A second call
// fails AlreadySettled.
func (s *PaymentService) MarkPayoutPaid(ctx context.Context, payoutID uuid.UUID, operatorID uuid.UUID) (*models.Payout, error) {
	now := time.Now().UTC()
	payout, err := s.repos.Payouts.MarkPaid(ctx, payoutID, now)
	if err != nil {
		if errors.Is(err, storage.ErrConflict) {
			return nil, fmt.Errorf("%w: payout %s already paid", ErrAlreadySettled, payoutID)
		}
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("%w: payout %s", ErrNotFound, payoutID)
		}
		return nil, MapRepoError(err, "mark payout paid")
	}

	if err := s.repos.Contractors.AddCompletedJob(ctx, payout.ContractorID, payout.AmountCents); err != nil {
		log.Printf("PaymentService: failed to roll up contractor stats for payout %s: %v", payoutID, err)
	}

	profile, err := s.repos.Contractors.GetByID(ctx, payout.ContractorID)
	if err == nil {
		uid := profile.UserID
		s.notifier.Notify(ctx, RecipientContractor, &uid, "payout_paid", map[string]any{
			"payout_id":    payout.ID.String(),
			"amount_cents": payout.AmountCents,
		})
	}
	s.appendEvent(ctx, payout.JobID, "payout_paid", models.ActorOperator, &operatorID, map[string]any{
		"payout_id":    payout.ID.String(),
		"amount_cents": payout.AmountCents,
	})
	return payout, nil
}

func (s *PaymentService) appendEvent(ctx context.Context, jobID uuid.UUID, eventType string, actor models.ActorType, actorID *uuid.UUID, data map[string]any) {
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
		log.Printf("PaymentService: failed to append %s event for job %s: %v", eventType, jobID, err)
	}
}
