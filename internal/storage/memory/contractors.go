package memory

import (
	"context"
	"time"

	"github.com/google/uuid"

	"bridge-local-platform/internal/models"
	"bridge-local-platform/internal/storage"
)

// ContractorRepo implements storage.ContractorRepository in memory.
type ContractorRepo struct {
	s *Store
}

var _ storage.ContractorRepository = (*ContractorRepo)(nil)

func (r *ContractorRepo) Create(ctx context.Context, profile *models.ContractorProfile) (*models.ContractorProfile, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c := cloneContractor(profile)
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}
	r.s.contractors[c.ID] = c
	return cloneContractor(c), nil
}

func (r *ContractorRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.ContractorProfile, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.contractors[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return cloneContractor(p), nil
}

func (r *ContractorRepo) GetByUserID(ctx context.Context, userID uuid.UUID) (*models.ContractorProfile, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, p := range r.s.contractors {
		if p.UserID == userID {
			return cloneContractor(p), nil
		}
	}
	return nil, storage.ErrNotFound
}

func (r *ContractorRepo) FindEligible(ctx context.Context, cityID, serviceCategoryID uuid.UUID) ([]models.ContractorProfile, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	profiles := []models.ContractorProfile{}
	for _, p := range r.s.contractors {
		if p.Status != models.ContractorStatusActive || p.CityID != cityID {
			continue
		}
		if !p.OffersService(serviceCategoryID) {
			continue
		}
		profiles = append(profiles, *cloneContractor(p))
	}
	return profiles, nil
}

func (r *ContractorRepo) AddCompletedJob(ctx context.Context, id uuid.UUID, earningsCents int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.contractors[id]
	if !ok {
		return storage.ErrNotFound
	}
	p.CompletedJobsCount++
	p.TotalEarningsCents += earningsCents
	return nil
}

func (r *ContractorRepo) CreateExpansionRequest(ctx context.Context, req *models.ExpansionRequest) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	e := *req
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	r.s.expansions = append(r.s.expansions, e)
	return nil
}
