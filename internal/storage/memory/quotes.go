package memory

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"bridge-local-platform/internal/models"
	"bridge-local-platform/internal/storage"
)

// QuoteRepo implements storage.QuoteRepository in memory. Version assignment
// happens under the store mutex, so concurrent CreateVersioned calls for the
// same job always get distinct versions.
type QuoteRepo struct {
	s *Store
}

var _ storage.QuoteRepository = (*QuoteRepo)(nil)

func (r *QuoteRepo) CreateVersioned(ctx context.Context, quote *models.Quote, items []models.LineItem) (*models.Quote, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	maxVersion := 0
	for _, q := range r.s.quotes {
		if q.JobID == quote.JobID && q.Version > maxVersion {
			maxVersion = q.Version
		}
	}
	c := *quote
	c.Version = maxVersion + 1
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}
	r.s.quotes[c.ID] = &c

	stored := make([]models.LineItem, len(items))
	for i, item := range items {
		item.QuoteID = c.ID
		item.JobID = c.JobID
		stored[i] = item
	}
	r.s.lineItems[c.ID] = stored

	out := c
	return &out, nil
}

func (r *QuoteRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Quote, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	q, ok := r.s.quotes[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	out := *q
	return &out, nil
}

func (r *QuoteRepo) GetLatestByJob(ctx context.Context, jobID uuid.UUID) (*models.Quote, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var latest *models.Quote
	for _, q := range r.s.quotes {
		if q.JobID != jobID {
			continue
		}
		if latest == nil || q.Version > latest.Version {
			latest = q
		}
	}
	if latest == nil {
		return nil, storage.ErrNotFound
	}
	out := *latest
	return &out, nil
}

func (r *QuoteRepo) ListByJob(ctx context.Context, jobID uuid.UUID) ([]models.Quote, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	quotes := []models.Quote{}
	for _, q := range r.s.quotes {
		if q.JobID == jobID {
			quotes = append(quotes, *q)
		}
	}
	sort.Slice(quotes, func(i, k int) bool { return quotes[i].Version < quotes[k].Version })
	return quotes, nil
}

func (r *QuoteRepo) ListItemsByQuote(ctx context.Context, quoteID uuid.UUID) ([]models.LineItem, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return append([]models.LineItem{}, r.s.lineItems[quoteID]...), nil
}

func (r *QuoteRepo) UpdateStatus(ctx context.Context, id uuid.UUID, from, to models.QuoteStatus, approvedAt *time.Time) (*models.Quote, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	q, ok := r.s.quotes[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	if q.Status != from {
		return nil, storage.ErrConflict
	}
	q.Status = to
	if approvedAt != nil {
		at := *approvedAt
		q.ApprovedAt = &at
	}
	out := *q
	return &out, nil
}
