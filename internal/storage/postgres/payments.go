package postgres

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"bridge-local-platform/internal/models"
	"bridge-local-platform/internal/storage"
)

// PaymentRepo implements storage.PaymentRepository using PostgreSQL.
type PaymentRepo struct {
	db Querier
}

// NewPaymentRepo creates a new PaymentRepo.
func NewPaymentRepo(db *pgxpool.Pool) *PaymentRepo {
	return &PaymentRepo{db: db}
}

// WithTx creates a new PaymentRepo bound to the transaction.
func (r *PaymentRepo) WithTx(tx pgx.Tx) storage.PaymentRepository {
	return &PaymentRepo{db: tx}
}

var _ storage.PaymentRepository = (*PaymentRepo)(nil)

const paymentColumns = `id, job_id, quote_id, mode, stripe_checkout_session_id, stripe_payment_intent_id,
	status, amount_cents, currency, created_at, paid_at, failure_reason`

func scanPayment(row pgx.Row) (*models.Payment, error) {
	var p models.Payment
	err := row.Scan(&p.ID, &p.JobID, &p.QuoteID, &p.Mode, &p.StripeCheckoutSessionID,
		&p.StripePaymentIntentID, &p.Status, &p.AmountCents, &p.Currency,
		&p.CreatedAt, &p.PaidAt, &p.FailureReason)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Create saves a new payment attempt.
func (r *PaymentRepo) Create(ctx context.Context, payment *models.Payment) (*models.Payment, error) {
	row := r.db.QueryRow(ctx, `
		INSERT INTO payments (id, job_id, quote_id, mode, stripe_checkout_session_id,
			stripe_payment_intent_id, status, amount_cents, currency, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW())
		RETURNING `+paymentColumns,
		payment.ID, payment.JobID, payment.QuoteID, payment.Mode,
		payment.StripeCheckoutSessionID, payment.StripePaymentIntentID,
		payment.Status, payment.AmountCents, payment.Currency)
	created, err := scanPayment(row)
	if err != nil {
		log.Printf("Error creating payment for job %s: %v\n", payment.JobID, err)
		return nil, fmt.Errorf("failed to create payment for job %s: %w", payment.JobID, err)
	}
	return created, nil
}

// GetByID retrieves a payment by its ID.
func (r *PaymentRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Payment, error) {
	row := r.db.QueryRow(ctx, `SELECT `+paymentColumns+` FROM payments WHERE id = $1`, id)
	payment, err := scanPayment(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		log.Printf("Error scanning payment %s: %v\n", id, err)
		return nil, fmt.Errorf("failed to get payment %s: %w", id, err)
	}
	return payment, nil
}

// GetByCheckoutSessionID retrieves the payment created for a gateway checkout
// session. Used by the webhook handler to correlate gateway events.
func (r *PaymentRepo) GetByCheckoutSessionID(ctx context.Context, sessionID string) (*models.Payment, error) {
	row := r.db.QueryRow(ctx, `SELECT `+paymentColumns+` FROM payments WHERE stripe_checkout_session_id = $1`, sessionID)
	payment, err := scanPayment(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		log.Printf("Error scanning payment for session %s: %v\n", sessionID, err)
		return nil, fmt.Errorf("failed to get payment for session %s: %w", sessionID, err)
	}
	return payment, nil
}

// GetLatestByJob retrieves the most recent payment attempt on a job.
func (r *PaymentRepo) GetLatestByJob(ctx context.Context, jobID uuid.UUID) (*models.Payment, error) {
	row := r.db.QueryRow(ctx, `
		SELECT `+paymentColumns+` FROM payments
		WHERE job_id = $1
		ORDER BY created_at DESC
		LIMIT 1`, jobID)
	payment, err := scanPayment(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		log.Printf("Error scanning latest payment for job %s: %v\n", jobID, err)
		return nil, fmt.Errorf("failed to get latest payment for job %s: %w", jobID, err)
	}
	return payment, nil
}

// UpdateStatus performs the guarded payment status write: the update applies
// only while the payment is still in one of the From statuses.
func (r *PaymentRepo) UpdateStatus(ctx context.Context, id uuid.UUID, from []models.PaymentStatus, to models.PaymentStatus, paidAt *time.Time) (*models.Payment, error) {
	fromStrs := make([]string, len(from))
	for i, s := range from {
		fromStrs[i] = string(s)
	}

	row := r.db.QueryRow(ctx, `
		UPDATE payments
		SET status = $3, paid_at = COALESCE($4, paid_at)
		WHERE id = $1 AND status = ANY($2)
		RETURNING `+paymentColumns,
		id, fromStrs, to, paidAt)
	payment, err := scanPayment(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			if _, getErr := r.GetByID(ctx, id); getErr != nil {
				return nil, getErr
			}
			return nil, storage.ErrConflict
		}
		log.Printf("Error updating payment %s status: %v\n", id, err)
		return nil, fmt.Errorf("failed to update payment %s status: %w", id, err)
	}
	return payment, nil
}
