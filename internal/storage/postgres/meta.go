package postgres

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"bridge-local-platform/internal/models"
	"bridge-local-platform/internal/storage"
)

// CityRepo implements the storage.CityRepository interface using PostgreSQL.
type CityRepo struct {
	db Querier
}

// NewCityRepo creates a new CityRepo.
func NewCityRepo(db *pgxpool.Pool) *CityRepo {
	return &CityRepo{db: db}
}

var _ storage.CityRepository = (*CityRepo)(nil)

const cityColumns = "id, slug, name, country, state, active"

func scanCity(row pgx.Row) (*models.City, error) {
	var c models.City
	if err := row.Scan(&c.ID, &c.Slug, &c.Name, &c.Country, &c.State, &c.Active); err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *CityRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.City, error) {
	row := r.db.QueryRow(ctx, `SELECT `+cityColumns+` FROM cities WHERE id = $1`, id)
	city, err := scanCity(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get city by ID %s: %w", id, err)
	}
	return city, nil
}

func (r *CityRepo) GetBySlug(ctx context.Context, slug string) (*models.City, error) {
	row := r.db.QueryRow(ctx, `SELECT `+cityColumns+` FROM cities WHERE slug = $1`, slug)
	city, err := scanCity(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get city by slug %s: %w", slug, err)
	}
	return city, nil
}

func (r *CityRepo) ListActive(ctx context.Context) ([]models.City, error) {
	rows, err := r.db.Query(ctx, `SELECT `+cityColumns+` FROM cities WHERE active ORDER BY slug`)
	if err != nil {
		log.Printf("Error querying active cities: %v\n", err)
		return nil, fmt.Errorf("failed to query cities: %w", err)
	}
	defer rows.Close()

	cities := []models.City{}
	for rows.Next() {
		city, err := scanCity(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan city: %w", err)
		}
		cities = append(cities, *city)
	}
	return cities, rows.Err()
}

func (r *CityRepo) Create(ctx context.Context, city *models.City) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO cities (id, slug, name, country, state, active) VALUES ($1, $2, $3, $4, $5, $6)`,
		city.ID, city.Slug, city.Name, city.Country, city.State, city.Active)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return storage.ErrConflict
		}
		log.Printf("Error creating city %s: %v\n", city.Slug, err)
		return fmt.Errorf("failed to create city: %w", err)
	}
	return nil
}

// ServiceCategoryRepo implements storage.ServiceCategoryRepository using PostgreSQL.
type ServiceCategoryRepo struct {
	db Querier
}

// NewServiceCategoryRepo creates a new ServiceCategoryRepo.
func NewServiceCategoryRepo(db *pgxpool.Pool) *ServiceCategoryRepo {
	return &ServiceCategoryRepo{db: db}
}

var _ storage.ServiceCategoryRepository = (*ServiceCategoryRepo)(nil)

const categoryColumns = "id, slug, display_name, description"

func scanCategory(row pgx.Row) (*models.ServiceCategory, error) {
	var c models.ServiceCategory
	if err := row.Scan(&c.ID, &c.Slug, &c.DisplayName, &c.Description); err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *ServiceCategoryRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.ServiceCategory, error) {
	row := r.db.QueryRow(ctx, `SELECT `+categoryColumns+` FROM service_categories WHERE id = $1`, id)
	cat, err := scanCategory(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get service category by ID %s: %w", id, err)
	}
	return cat, nil
}

func (r *ServiceCategoryRepo) GetBySlug(ctx context.Context, slug string) (*models.ServiceCategory, error) {
	row := r.db.QueryRow(ctx, `SELECT `+categoryColumns+` FROM service_categories WHERE slug = $1`, slug)
	cat, err := scanCategory(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get service category by slug %s: %w", slug, err)
	}
	return cat, nil
}

func (r *ServiceCategoryRepo) List(ctx context.Context) ([]models.ServiceCategory, error) {
	rows, err := r.db.Query(ctx, `SELECT `+categoryColumns+` FROM service_categories ORDER BY slug`)
	if err != nil {
		log.Printf("Error querying service categories: %v\n", err)
		return nil, fmt.Errorf("failed to query service categories: %w", err)
	}
	defer rows.Close()

	cats := []models.ServiceCategory{}
	for rows.Next() {
		cat, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan service category: %w", err)
		}
		cats = append(cats, *cat)
	}
	return cats, rows.Err()
}

func (r *ServiceCategoryRepo) Create(ctx context.Context, cat *models.ServiceCategory) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO service_categories (id, slug, display_name, description) VALUES ($1, $2, $3, $4)`,
		cat.ID, cat.Slug, cat.DisplayName, cat.Description)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return storage.ErrConflict
		}
		log.Printf("Error creating service category %s: %v\n", cat.Slug, err)
		return fmt.Errorf("failed to create service category: %w", err)
	}
	return nil
}
