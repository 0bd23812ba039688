package postgres

import (
	"context"
	"fmt"
	"log"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"bridge-local-platform/internal/models"
	"bridge-local-platform/internal/storage"
)

// JobEventRepo implements storage.JobEventRepository using PostgreSQL.
// Events are append-only; there is no update or delete path.
type JobEventRepo struct {
	db Querier
}

// NewJobEventRepo creates a new JobEventRepo.
func NewJobEventRepo(db *pgxpool.Pool) *JobEventRepo {
	return &JobEventRepo{db: db}
}

var _ storage.JobEventRepository = (*JobEventRepo)(nil)

// Append records one audit event for a job.
func (r *JobEventRepo) Append(ctx context.Context, event *models.JobEvent) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO job_events (id, job_id, event_type, actor_type, actor_id, data, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())`,
		event.ID, event.JobID, event.EventType, event.ActorType, event.ActorID, event.Data)
	if err != nil {
		log.Printf("Error appending job event %s for job %s: %v\n", event.EventType, event.JobID, err)
		return fmt.Errorf("failed to append job event: %w", err)
	}
	return nil
}

// ListByJob returns all events for a job in insertion order.
func (r *JobEventRepo) ListByJob(ctx context.Context, jobID uuid.UUID) ([]models.JobEvent, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, job_id, event_type, actor_type, actor_id, data, created_at
		FROM job_events
		WHERE job_id = $1
		ORDER BY created_at ASC, id ASC`, jobID)
	if err != nil {
		log.Printf("Error querying job events for job %s: %v\n", jobID, err)
		return nil, fmt.Errorf("failed to query job events for job %s: %w", jobID, err)
	}
	defer rows.Close()

	events := []models.JobEvent{}
	for rows.Next() {
		var e models.JobEvent
		err := rows.Scan(&e.ID, &e.JobID, &e.EventType, &e.ActorType, &e.ActorID, &e.Data, &e.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan job event: %w", err)
		}
		events = append(events, e)
	}
	return events, rows.Err()
}
