package memory

import (
	"context"
	"time"

	"github.com/google/uuid"

	"bridge-local-platform/internal/models"
	"bridge-local-platform/internal/storage"
)

// UserRepo implements storage.UserRepository in memory.
type UserRepo struct {
	s *Store
}

var _ storage.UserRepository = (*UserRepo)(nil)

func (r *UserRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	c := *u
	return &c, nil
}

func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if u.Email == email {
			c := *u
			return &c, nil
		}
	}
	return nil, storage.ErrNotFound
}

func (r *UserRepo) GetByPhoneAndRole(ctx context.Context, phone string, role models.Role) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if u.Role == role && u.Phone != nil && *u.Phone == phone {
			c := *u
			return &c, nil
		}
	}
	return nil, storage.ErrNotFound
}

func (r *UserRepo) Create(ctx context.Context, user *models.User) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if u.Email == user.Email {
			return nil, storage.ErrDuplicateEmail
		}
	}
	c := *user
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}
	r.s.users[c.ID] = &c
	out := c
	return &out, nil
}

func (r *UserRepo) UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return storage.ErrNotFound
	}
	u.LastLoginAt = &at
	return nil
}

// CityRepo implements storage.CityRepository in memory.
type CityRepo struct {
	s *Store
}

var _ storage.CityRepository = (*CityRepo)(nil)

func (r *CityRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.City, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.cities[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	out := *c
	return &out, nil
}

func (r *CityRepo) GetBySlug(ctx context.Context, slug string) (*models.City, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, c := range r.s.cities {
		if c.Slug == slug {
			out := *c
			return &out, nil
		}
	}
	return nil, storage.ErrNotFound
}

func (r *CityRepo) ListActive(ctx context.Context) ([]models.City, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cities := []models.City{}
	for _, c := range r.s.cities {
		if c.Active {
			cities = append(cities, *c)
		}
	}
	return cities, nil
}

func (r *CityRepo) Create(ctx context.Context, city *models.City) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, c := range r.s.cities {
		if c.Slug == city.Slug {
			return storage.ErrConflict
		}
	}
	c := *city
	r.s.cities[c.ID] = &c
	return nil
}

// ServiceCategoryRepo implements storage.ServiceCategoryRepository in memory.
type ServiceCategoryRepo struct {
	s *Store
}

var _ storage.ServiceCategoryRepository = (*ServiceCategoryRepo)(nil)

func (r *ServiceCategoryRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.ServiceCategory, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cat, ok := r.s.categories[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	out := *cat
	return &out, nil
}

func (r *ServiceCategoryRepo) GetBySlug(ctx context.Context, slug string) (*models.ServiceCategory, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, cat := range r.s.categories {
		if cat.Slug == slug {
			out := *cat
			return &out, nil
		}
	}
	return nil, storage.ErrNotFound
}

func (r *ServiceCategoryRepo) List(ctx context.Context) ([]models.ServiceCategory, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cats := []models.ServiceCategory{}
	for _, cat := range r.s.categories {
		cats = append(cats, *cat)
	}
	return cats, nil
}

func (r *ServiceCategoryRepo) Create(ctx context.Context, cat *models.ServiceCategory) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.categories {
		if existing.Slug == cat.Slug {
			return storage.ErrConflict
		}
	}
	c := *cat
	r.s.categories[c.ID] = &c
	return nil
}
