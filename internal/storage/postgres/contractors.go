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

// ContractorRepo implements storage.ContractorRepository using PostgreSQL.
type ContractorRepo struct {
	db Querier
}

// NewContractorRepo creates a new ContractorRepo.
func NewContractorRepo(db *pgxpool.Pool) *ContractorRepo {
	return &ContractorRepo{db: db}
}

// WithTx creates a new ContractorRepo bound to the transaction.
func (r *ContractorRepo) WithTx(tx pgx.Tx) storage.ContractorRepository {
	return &ContractorRepo{db: tx}
}

var _ storage.ContractorRepository = (*ContractorRepo)(nil)

const contractorColumns = `id, user_id, city_id, base_zip, radius_miles, services, bio, status,
	public_name, avg_rating, completed_jobs_count, total_earnings_cents, created_at`

func scanContractor(row pgx.Row) (*models.ContractorProfile, error) {
	var p models.ContractorProfile
	err := row.Scan(
		&p.ID, &p.UserID, &p.CityID, &p.BaseZip, &p.RadiusMiles, &p.Services, &p.Bio, &p.Status,
		&p.PublicName, &p.AvgRating, &p.CompletedJobsCount, &p.TotalEarningsCents, &p.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Create saves a new contractor profile.
func (r *ContractorRepo) Create(ctx context.Context, profile *models.ContractorProfile) (*models.ContractorProfile, error) {
	query := `
		INSERT INTO contractor_profiles (id, user_id, city_id, base_zip, radius_miles, services,
			bio, status, public_name, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW())
		RETURNING ` + contractorColumns

	row := r.db.QueryRow(ctx, query,
		profile.ID, profile.UserID, profile.CityID, profile.BaseZip, profile.RadiusMiles,
		profile.Services, profile.Bio, profile.Status, profile.PublicName,
	)
	created, err := scanContractor(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return nil, fmt.Errorf("failed to create contractor profile: invalid reference: %w", storage.ErrConflict)
		}
		log.Printf("Error creating contractor profile: %v\n", err)
		return nil, fmt.Errorf("failed to create contractor profile: %w", err)
	}
	return created, nil
}

// GetByID retrieves a contractor profile by its ID.
func (r *ContractorRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.ContractorProfile, error) {
	row := r.db.QueryRow(ctx, `SELECT `+contractorColumns+` FROM contractor_profiles WHERE id = $1`, id)
	profile, err := scanContractor(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		log.Printf("Error scanning contractor profile %s: %v\n", id, err)
		return nil, fmt.Errorf("failed to get contractor profile %s: %w", id, err)
	}
	return profile, nil
}

// GetByUserID retrieves the profile owned by a user account.
func (r *ContractorRepo) GetByUserID(ctx context.Context, userID uuid.UUID) (*models.ContractorProfile, error) {
	row := r.db.QueryRow(ctx, `SELECT `+contractorColumns+` FROM contractor_profiles WHERE user_id = $1`, userID)
	profile, err := scanContractor(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		log.Printf("Error scanning contractor profile for user %s: %v\n", userID, err)
		return nil, fmt.Errorf("failed to get contractor profile for user %s: %w", userID, err)
	}
	return profile, nil
}

// FindEligible returns active profiles in the city offering the category.
// No ordering is applied; matching is deliberately unranked.
func (r *ContractorRepo) FindEligible(ctx context.Context, cityID, serviceCategoryID uuid.UUID) ([]models.ContractorProfile, error) {
	query := `
		SELECT ` + contractorColumns + `
		FROM contractor_profiles
		WHERE city_id = $1 AND status = $2 AND $3 = ANY(services)`

	rows, err := r.db.Query(ctx, query, cityID, models.ContractorStatusActive, serviceCategoryID)
	if err != nil {
		log.Printf("Error querying eligible contractors for city %s: %v\n", cityID, err)
		return nil, fmt.Errorf("failed to query eligible contractors: %w", err)
	}
	defer rows.Close()

	profiles := []models.ContractorProfile{}
	for rows.Next() {
		p, err := scanContractor(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan contractor profile: %w", err)
		}
		profiles = append(profiles, *p)
	}
	return profiles, rows.Err()
}

// AddCompletedJob increments aggregate earnings and job counters.
func (r *ContractorRepo) AddCompletedJob(ctx context.Context, id uuid.UUID, earningsCents int64) error {
	cmdTag, err := r.db.Exec(ctx, `
		UPDATE contractor_profiles
		SET completed_jobs_count = completed_jobs_count + 1,
		    total_earnings_cents = total_earnings_cents + $2
		WHERE id = $1`, id, earningsCents)
	if err != nil {
		log.Printf("Error updating contractor stats %s: %v\n", id, err)
		return fmt.Errorf("failed to update contractor stats %s: %w", id, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// CreateExpansionRequest records a coverage suggestion made at signup.
func (r *ContractorRepo) CreateExpansionRequest(ctx context.Context, req *models.ExpansionRequest) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO expansion_requests (id, requested_by_user_id, city_name_text, zip, service_category_id, created_at)
		VALUES ($1, $2, $3, $4, $5, NOW())`,
		req.ID, req.RequestedByUserID, req.CityNameText, req.Zip, req.ServiceCategoryID)
	if err != nil {
		log.Printf("Error creating expansion request: %v\n", err)
		return fmt.Errorf("failed to create expansion request: %w", err)
	}
	return nil
}
