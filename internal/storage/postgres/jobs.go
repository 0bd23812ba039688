package postgres

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"bridge-local-platform/internal/models"
	"bridge-local-platform/internal/storage"
)

// JobRepo implements the storage.JobRepository interface using PostgreSQL.
type JobRepo struct {
	db Querier
}

// NewJobRepo creates a new JobRepo.
func NewJobRepo(db *pgxpool.Pool) *JobRepo {
	return &JobRepo{db: db}
}

// WithTx creates a new JobRepo bound to the transaction.
func (r *JobRepo) WithTx(tx pgx.Tx) storage.JobRepository {
	return &JobRepo{db: tx}
}

// Compile-time check to ensure JobRepo implements JobRepository
var _ storage.JobRepository = (*JobRepo)(nil)

const jobColumns = `id, client_id, city_id, service_category_id, title, description, zip,
	preferred_timing, status, created_at, updated_at, assigned_contractor_id,
	accepted_at, completed_at, cancelled_at, origin_channel, is_test,
	client_view_token, pricing_suggestion`

func scanJob(row pgx.Row) (*models.Job, error) {
	var j models.Job
	err := row.Scan(
		&j.ID, &j.ClientID, &j.CityID, &j.ServiceCategoryID, &j.Title, &j.Description, &j.Zip,
		&j.PreferredTiming, &j.Status, &j.CreatedAt, &j.UpdatedAt, &j.AssignedContractorID,
		&j.AcceptedAt, &j.CompletedAt, &j.CancelledAt, &j.OriginChannel, &j.IsTest,
		&j.ClientViewToken, &j.PricingSuggestion,
	)
	if err != nil {
		return nil, err
	}
	return &j, nil
}

// Create saves a new job in status new.
func (r *JobRepo) Create(ctx context.Context, job *models.Job) (*models.Job, error) {
	query := `
		INSERT INTO jobs (id, client_id, city_id, service_category_id, title, description, zip,
			preferred_timing, status, created_at, updated_at, origin_channel, is_test,
			client_view_token, pricing_suggestion)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW(), NOW(), $10, $11, $12, $13)
		RETURNING ` + jobColumns

	row := r.db.QueryRow(ctx, query,
		job.ID, job.ClientID, job.CityID, job.ServiceCategoryID, job.Title, job.Description,
		job.Zip, job.PreferredTiming, job.Status, job.OriginChannel, job.IsTest,
		job.ClientViewToken, job.PricingSuggestion,
	)

	created, err := scanJob(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" { // foreign_key_violation
			log.Printf("Error creating job: foreign key violation: %v\n", err)
			return nil, fmt.Errorf("failed to create job: invalid reference: %w", storage.ErrConflict)
		}
		log.Printf("Error creating job: %v\n", err)
		return nil, fmt.Errorf("failed to create job: %w", err)
	}
	return created, nil
}

// GetByID retrieves a specific job by its ID.
func (r *JobRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Job, error) {
	row := r.db.QueryRow(ctx, `SELECT `+jobColumns+` FROM jobs WHERE id = $1`, id)
	job, err := scanJob(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		log.Printf("Error scanning job by ID %s: %v\n", id, err)
		return nil, fmt.Errorf("failed to get job by ID %s: %w", id, err)
	}
	return job, nil
}

// UpdateStatus performs the guarded status write for the state machine. The
// WHERE clause carries the expected current status so a concurrent transition
// loses cleanly instead of overwriting.
func (r *JobRepo) UpdateStatus(ctx context.Context, params storage.UpdateJobStatusParams) (*models.Job, error) {
	setClauses := []string{"status = $3", "updated_at = $4"}
	args := []any{params.ID, params.From, params.To, params.UpdatedAt}

	if params.AcceptedAt != nil {
		args = append(args, *params.AcceptedAt)
		setClauses = append(setClauses, fmt.Sprintf("accepted_at = $%d", len(args)))
	}
	if params.CompletedAt != nil {
		args = append(args, *params.CompletedAt)
		setClauses = append(setClauses, fmt.Sprintf("completed_at = $%d", len(args)))
	}
	if params.CancelledAt != nil {
		args = append(args, *params.CancelledAt)
		setClauses = append(setClauses, fmt.Sprintf("cancelled_at = $%d", len(args)))
	}

	query := fmt.Sprintf(`
		UPDATE jobs
		SET %s
		WHERE id = $1 AND status = $2
		RETURNING `+jobColumns, strings.Join(setClauses, ", "))

	row := r.db.QueryRow(ctx, query, args...)
	job, err := scanJob(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Disambiguate: missing job vs. stale expected status.
			if _, getErr := r.GetByID(ctx, params.ID); errors.Is(getErr, storage.ErrNotFound) {
				return nil, storage.ErrNotFound
			}
			return nil, storage.ErrConflict
		}
		log.Printf("Error updating job status %s: %v\n", params.ID, err)
		return nil, fmt.Errorf("failed to update job status %s: %w", params.ID, err)
	}
	return job, nil
}

// Claim is the single conditional update backing offer acceptance: the first
// writer wins, every later writer matches zero rows.
func (r *JobRepo) Claim(ctx context.Context, jobID, contractorID uuid.UUID, at time.Time) (*models.Job, error) {
	query := `
		UPDATE jobs
		SET assigned_contractor_id = $2, accepted_at = $3, status = $4, updated_at = $3
		WHERE id = $1 AND assigned_contractor_id IS NULL AND status = $5
		RETURNING ` + jobColumns

	row := r.db.QueryRow(ctx, query, jobID, contractorID, at,
		models.JobStatusAwaitingQuote, models.JobStatusOfferingContractors)
	job, err := scanJob(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			if _, getErr := r.GetByID(ctx, jobID); errors.Is(getErr, storage.ErrNotFound) {
				return nil, storage.ErrNotFound
			}
			return nil, storage.ErrConflict
		}
		log.Printf("Error claiming job %s for contractor %s: %v\n", jobID, contractorID, err)
		return nil, fmt.Errorf("failed to claim job %s: %w", jobID, err)
	}
	return job, nil
}

// List retrieves jobs matching the operator filter, newest first.
func (r *JobRepo) List(ctx context.Context, filter storage.JobListFilter) ([]models.Job, error) {
	var conditions []string
	var args []any

	if filter.CityID != nil {
		args = append(args, *filter.CityID)
		conditions = append(conditions, fmt.Sprintf("city_id = $%d", len(args)))
	}
	if filter.ServiceCategoryID != nil {
		args = append(args, *filter.ServiceCategoryID)
		conditions = append(conditions, fmt.Sprintf("service_category_id = $%d", len(args)))
	}
	if filter.Status != nil {
		args = append(args, *filter.Status)
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)))
	}

	var queryBuilder strings.Builder
	queryBuilder.WriteString(`SELECT ` + jobColumns + ` FROM jobs`)
	if len(conditions) > 0 {
		queryBuilder.WriteString(" WHERE ")
		queryBuilder.WriteString(strings.Join(conditions, " AND "))
	}
	queryBuilder.WriteString(" ORDER BY created_at DESC")
	limit := filter.Limit
	if limit <= 0 {
		limit = 200
	}
	args = append(args, limit)
	queryBuilder.WriteString(fmt.Sprintf(" LIMIT $%d", len(args)))

	rows, err := r.db.Query(ctx, queryBuilder.String(), args...)
	if err != nil {
		log.Printf("Error querying jobs: %v\n", err)
		return nil, fmt.Errorf("failed to query jobs: %w", err)
	}
	defer rows.Close()

	return collectJobs(rows)
}

// ListOpenOffers retrieves jobs still offered to contractors in the given
// city, restricted to the given service categories.
func (r *JobRepo) ListOpenOffers(ctx context.Context, cityID uuid.UUID, serviceCategoryIDs []uuid.UUID) ([]models.Job, error) {
	if len(serviceCategoryIDs) == 0 {
		return []models.Job{}, nil
	}
	query := `
		SELECT ` + jobColumns + `
		FROM jobs
		WHERE status = $1 AND city_id = $2 AND service_category_id = ANY($3)
		ORDER BY created_at DESC`

	rows, err := r.db.Query(ctx, query, models.JobStatusOfferingContractors, cityID, serviceCategoryIDs)
	if err != nil {
		log.Printf("Error querying open offers for city %s: %v\n", cityID, err)
		return nil, fmt.Errorf("failed to query open offers: %w", err)
	}
	defer rows.Close()

	return collectJobs(rows)
}

func collectJobs(rows pgx.Rows) ([]models.Job, error) {
	jobs := []models.Job{}
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			log.Printf("Error scanning job row: %v\n", err)
			return nil, fmt.Errorf("failed to scan job: %w", err)
		}
		jobs = append(jobs, *job)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read job rows: %w", err)
	}
	return jobs, nil
}
