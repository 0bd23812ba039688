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

// PayoutRepo implements storage.PayoutRepository using PostgreSQL.
type PayoutRepo struct {
	db Querier
}

// NewPayoutRepo creates a new PayoutRepo.
func NewPayoutRepo(db *pgxpool.Pool) *PayoutRepo {
	return &PayoutRepo{db: db}
}

var _ storage.PayoutRepository = (*PayoutRepo)(nil)

const payoutColumns = `id, job_id, contractor_id, amount_cents, status, method, created_at, paid_at, notes`

func scanPayout(row pgx.Row) (*models.Payout, error) {
	var p models.Payout
	err := row.Scan(&p.ID, &p.JobID, &p.ContractorID, &p.AmountCents, &p.Status,
		&p.Method, &p.CreatedAt, &p.PaidAt, &p.Notes)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// CreateIfAbsent inserts the payout unless the job already has one. The
// UNIQUE constraint on job_id makes this safe under concurrent completion
// events; a duplicate insert is silently skipped.
func (r *PayoutRepo) CreateIfAbsent(ctx context.Context, payout *models.Payout) (bool, error) {
	cmdTag, err := r.db.Exec(ctx, `
		INSERT INTO payouts (id, job_id, contractor_id, amount_cents, status, method, created_at, notes)
		VALUES ($1, $2, $3, $4, $5, $6, NOW(), $7)
		ON CONFLICT (job_id) DO NOTHING`,
		payout.ID, payout.JobID, payout.ContractorID, payout.AmountCents,
		payout.Status, payout.Method, payout.Notes)
	if err != nil {
		log.Printf("Error creating payout for job %s: %v\n", payout.JobID, err)
		return false, fmt.Errorf("failed to create payout for job %s: %w", payout.JobID, err)
	}
	return cmdTag.RowsAffected() > 0, nil
}

// GetByID retrieves a payout by its ID.
func (r *PayoutRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Payout, error) {
	row := r.db.QueryRow(ctx, `SELECT `+payoutColumns+` FROM payouts WHERE id = $1`, id)
	payout, err := scanPayout(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		log.Printf("Error scanning payout %s: %v\n", id, err)
		return nil, fmt.Errorf("failed to get payout %s: %w", id, err)
	}
	return payout, nil
}

// GetByJob retrieves the single payout for a job.
func (r *PayoutRepo) GetByJob(ctx context.Context, jobID uuid.UUID) (*models.Payout, error) {
	row := r.db.QueryRow(ctx, `SELECT `+payoutColumns+` FROM payouts WHERE job_id = $1`, jobID)
	payout, err := scanPayout(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		log.Printf("Error scanning payout for job %s: %v\n", jobID, err)
		return nil, fmt.Errorf("failed to get payout for job %s: %w", jobID, err)
	}
	return payout, nil
}

// List returns payouts, optionally filtered by status, newest first.
func (r *PayoutRepo) List(ctx context.Context, status *models.PayoutStatus) ([]models.Payout, error) {
	query := `SELECT ` + payoutColumns + ` FROM payouts`
	args := []any{}
	if status != nil {
		query += ` WHERE status = $1`
		args = append(args, *status)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		log.Printf("Error querying payouts: %v\n", err)
		return nil, fmt.Errorf("failed to query payouts: %w", err)
	}
	defer rows.Close()

	payouts := []models.Payout{}
	for rows.Next() {
		p, err := scanPayout(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan payout: %w", err)
		}
		payouts = append(payouts, *p)
	}
	return payouts, rows.Err()
}

// MarkPaid settles a pending payout. A payout already settled surfaces as
// ErrConflict.
func (r *PayoutRepo) MarkPaid(ctx context.Context, id uuid.UUID, at time.Time) (*models.Payout, error) {
	row := r.db.QueryRow(ctx, `
		UPDATE payouts
		SET status = $2, paid_at = $3
		WHERE id = $1 AND status = $4
		RETURNING `+payoutColumns,
		id, models.PayoutStatusPaid, at, models.PayoutStatusPending)
	payout, err := scanPayout(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			if _, getErr := r.GetByID(ctx, id); getErr != nil {
				return nil, getErr
			}
			return nil, storage.ErrConflict
		}
		log.Printf("Error marking payout %s paid: %v\n", id, err)
		return nil, fmt.Errorf("failed to mark payout %s paid: %w", id, err)
	}
	return payout, nil
}
