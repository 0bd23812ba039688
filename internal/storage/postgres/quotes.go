package postgres

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"bridge-local-platform/internal/models"
	"bridge-local-platform/internal/storage"
)

// QuoteRepo implements storage.QuoteRepository using PostgreSQL.
type QuoteRepo struct {
	pool *pgxpool.Pool
	db   Querier
}

// NewQuoteRepo creates a new QuoteRepo.
func NewQuoteRepo(db *pgxpool.Pool) *QuoteRepo {
	return &QuoteRepo{pool: db, db: db}
}

var _ storage.QuoteRepository = (*QuoteRepo)(nil)

const quoteColumns = `id, job_id, version, status, total_price_cents, created_at, approved_at, rejected_reason`

func scanQuote(row pgx.Row) (*models.Quote, error) {
	var q models.Quote
	err := row.Scan(&q.ID, &q.JobID, &q.Version, &q.Status, &q.TotalPriceCents,
		&q.CreatedAt, &q.ApprovedAt, &q.RejectedReason)
	if err != nil {
		return nil, err
	}
	return &q, nil
}

// CreateVersioned persists the quote under the next version for its job,
// together with its line items, in one transaction. The version is assigned
// by an INSERT ... SELECT over the job's current max; a concurrent writer
// that grabs the same version trips the UNIQUE(job_id, version) constraint,
// and we retry.
func (r *QuoteRepo) CreateVersioned(ctx context.Context, quote *models.Quote, items []models.LineItem) (*models.Quote, error) {
	const maxAttempts = 3
	var created *models.Quote
	var lastErr error

	for attempt := 0; attempt < maxAttempts; attempt++ {
		created, lastErr = r.createVersionedOnce(ctx, quote, items)
		if lastErr == nil {
			return created, nil
		}
		var pgErr *pgconn.PgError
		if errors.As(lastErr, &pgErr) && pgErr.Code == "23505" {
			continue
		}
		return nil, lastErr
	}
	log.Printf("Error creating quote for job %s after retries: %v\n", quote.JobID, lastErr)
	return nil, fmt.Errorf("failed to create quote for job %s: %w", quote.JobID, lastErr)
}

func (r *QuoteRepo) createVersionedOnce(ctx context.Context, quote *models.Quote, items []models.LineItem) (*models.Quote, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	row := tx.QueryRow(ctx, `
		INSERT INTO quotes (id, job_id, version, status, total_price_cents, created_at)
		SELECT $1, $2, COALESCE(MAX(version), 0) + 1, $3, $4, NOW()
		FROM quotes WHERE job_id = $2
		RETURNING `+quoteColumns,
		quote.ID, quote.JobID, quote.Status, quote.TotalPriceCents)
	created, err := scanQuote(row)
	if err != nil {
		return nil, err
	}

	for i := range items {
		item := &items[i]
		_, err = tx.Exec(ctx, `
			INSERT INTO job_line_items (id, quote_id, job_id, type, label, quantity, unit_price_cents, total_price_cents)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			item.ID, created.ID, created.JobID, item.Type, item.Label,
			item.Quantity, item.UnitPriceCents, item.TotalPriceCents)
		if err != nil {
			return nil, fmt.Errorf("failed to insert line item: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit quote: %w", err)
	}
	return created, nil
}

// GetByID retrieves a quote by its ID.
func (r *QuoteRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Quote, error) {
	row := r.db.QueryRow(ctx, `SELECT `+quoteColumns+` FROM quotes WHERE id = $1`, id)
	quote, err := scanQuote(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		log.Printf("Error scanning quote %s: %v\n", id, err)
		return nil, fmt.Errorf("failed to get quote %s: %w", id, err)
	}
	return quote, nil
}

// GetLatestByJob retrieves the highest-version quote for a job.
func (r *QuoteRepo) GetLatestByJob(ctx context.Context, jobID uuid.UUID) (*models.Quote, error) {
	row := r.db.QueryRow(ctx, `
		SELECT `+quoteColumns+` FROM quotes
		WHERE job_id = $1
		ORDER BY version DESC
		LIMIT 1`, jobID)
	quote, err := scanQuote(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		log.Printf("Error scanning latest quote for job %s: %v\n", jobID, err)
		return nil, fmt.Errorf("failed to get latest quote for job %s: %w", jobID, err)
	}
	return quote, nil
}

// ListByJob returns all quote versions for a job, oldest first.
func (r *QuoteRepo) ListByJob(ctx context.Context, jobID uuid.UUID) ([]models.Quote, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+quoteColumns+` FROM quotes
		WHERE job_id = $1
		ORDER BY version ASC`, jobID)
	if err != nil {
		log.Printf("Error querying quotes for job %s: %v\n", jobID, err)
		return nil, fmt.Errorf("failed to query quotes for job %s: %w", jobID, err)
	}
	defer rows.Close()

	quotes := []models.Quote{}
	for rows.Next() {
		q, err := scanQuote(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan quote: %w", err)
		}
		quotes = append(quotes, *q)
	}
	return quotes, rows.Err()
}

// ListItemsByQuote returns the line items of one quote version.
func (r *QuoteRepo) ListItemsByQuote(ctx context.Context, quoteID uuid.UUID) ([]models.LineItem, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, quote_id, job_id, type, label, quantity, unit_price_cents, total_price_cents
		FROM job_line_items
		WHERE quote_id = $1`, quoteID)
	if err != nil {
		log.Printf("Error querying line items for quote %s: %v\n", quoteID, err)
		return nil, fmt.Errorf("failed to query line items for quote %s: %w", quoteID, err)
	}
	defer rows.Close()

	items := []models.LineItem{}
	for rows.Next() {
		var it models.LineItem
		err := rows.Scan(&it.ID, &it.QuoteID, &it.JobID, &it.Type, &it.Label,
			&it.Quantity, &it.UnitPriceCents, &it.TotalPriceCents)
		if err != nil {
			return nil, fmt.Errorf("failed to scan line item: %w", err)
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

// UpdateStatus performs the guarded quote status write.
func (r *QuoteRepo) UpdateStatus(ctx context.Context, id uuid.UUID, from, to models.QuoteStatus, approvedAt *time.Time) (*models.Quote, error) {
	row := r.db.QueryRow(ctx, `
		UPDATE quotes
		SET status = $3, approved_at = COALESCE($4, approved_at)
		WHERE id = $1 AND status = $2
		RETURNING `+quoteColumns,
		id, from, to, approvedAt)
	quote, err := scanQuote(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Distinguish a missing quote from a stale guard.
			if _, getErr := r.GetByID(ctx, id); getErr != nil {
				return nil, getErr
			}
			return nil, storage.ErrConflict
		}
		log.Printf("Error updating quote %s status: %v\n", id, err)
		return nil, fmt.Errorf("failed to update quote %s status: %w", id, err)
	}
	return quote, nil
}
