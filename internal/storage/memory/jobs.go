package memory

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"bridge-local-platform/internal/models"
	"bridge-local-platform/internal/storage"
)

// JobRepo implements storage.JobRepository in memory. The store mutex makes
// UpdateStatus and Claim atomic, matching the conditional-UPDATE semantics of
// the SQL layer.
type JobRepo struct {
	s *Store
}

var _ storage.JobRepository = (*JobRepo)(nil)

func (r *JobRepo) Create(ctx context.Context, job *models.Job) (*models.Job, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c := cloneJob(job)
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}
	if c.UpdatedAt.IsZero() {
		c.UpdatedAt = c.CreatedAt
	}
	r.s.jobs[c.ID] = c
	return cloneJob(c), nil
}

func (r *JobRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Job, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	j, ok := r.s.jobs[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return cloneJob(j), nil
}

func (r *JobRepo) UpdateStatus(ctx context.Context, params storage.UpdateJobStatusParams) (*models.Job, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	j, ok := r.s.jobs[params.ID]
	if !ok {
		return nil, storage.ErrNotFound
	}
	if j.Status != params.From {
		return nil, storage.ErrConflict
	}
	j.Status = params.To
	j.UpdatedAt = params.UpdatedAt
	if params.AcceptedAt != nil && j.AcceptedAt == nil {
		at := *params.AcceptedAt
		j.AcceptedAt = &at
	}
	if params.CompletedAt != nil && j.CompletedAt == nil {
		at := *params.CompletedAt
		j.CompletedAt = &at
	}
	if params.CancelledAt != nil && j.CancelledAt == nil {
		at := *params.CancelledAt
		j.CancelledAt = &at
	}
	return cloneJob(j), nil
}

func (r *JobRepo) Claim(ctx context.Context, jobID, contractorID uuid.UUID, at time.Time) (*models.Job, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	j, ok := r.s.jobs[jobID]
	if !ok {
		return nil, storage.ErrNotFound
	}
	if j.AssignedContractorID != nil || j.Status != models.JobStatusOfferingContractors {
		return nil, storage.ErrConflict
	}
	cid := contractorID
	j.AssignedContractorID = &cid
	j.AcceptedAt = &at
	j.Status = models.JobStatusAwaitingQuote
	j.UpdatedAt = at
	return cloneJob(j), nil
}

func (r *JobRepo) List(ctx context.Context, filter storage.JobListFilter) ([]models.Job, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	jobs := []models.Job{}
	for _, j := range r.s.jobs {
		if filter.CityID != nil && j.CityID != *filter.CityID {
			continue
		}
		if filter.ServiceCategoryID != nil && j.ServiceCategoryID != *filter.ServiceCategoryID {
			continue
		}
		if filter.Status != nil && j.Status != *filter.Status {
			continue
		}
		jobs = append(jobs, *cloneJob(j))
	}
	sort.Slice(jobs, func(i, k int) bool { return jobs[i].CreatedAt.After(jobs[k].CreatedAt) })
	if filter.Limit > 0 && len(jobs) > filter.Limit {
		jobs = jobs[:filter.Limit]
	}
	return jobs, nil
}

func (r *JobRepo) ListOpenOffers(ctx context.Context, cityID uuid.UUID, serviceCategoryIDs []uuid.UUID) ([]models.Job, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	categories := map[uuid.UUID]bool{}
	for _, id := range serviceCategoryIDs {
		categories[id] = true
	}
	jobs := []models.Job{}
	for _, j := range r.s.jobs {
		if j.Status != models.JobStatusOfferingContractors || j.CityID != cityID {
			continue
		}
		if !categories[j.ServiceCategoryID] {
			continue
		}
		jobs = append(jobs, *cloneJob(j))
	}
	sort.Slice(jobs, func(i, k int) bool { return jobs[i].CreatedAt.Before(jobs[k].CreatedAt) })
	return jobs, nil
}

// JobEventRepo implements storage.JobEventRepository in memory.
type JobEventRepo struct {
	s *Store
}

var _ storage.JobEventRepository = (*JobEventRepo)(nil)

func (r *JobEventRepo) Append(ctx context.Context, event *models.JobEvent) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	e := *event
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	r.s.jobEvents[e.JobID] = append(r.s.jobEvents[e.JobID], e)
	return nil
}

func (r *JobEventRepo) ListByJob(ctx context.Context, jobID uuid.UUID) ([]models.JobEvent, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	events := append([]models.JobEvent{}, r.s.jobEvents[jobID]...)
	return events, nil
}
