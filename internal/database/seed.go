package database

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/crypto/bcrypt"
)

type seedCategory struct {
	slug        string
	displayName string
	description string
}

var seedCategories = []seedCategory{
	{"handyman", "Handyman", "General repairs"},
	{"cleaning", "Cleaning", "Home & office cleaning"},
	{"assembly", "Assembly", "Furniture & equipment assembly"},
	{"plumbing", "Plumbing", "Basic plumbing"},
}

// Seed inserts the launch city, service catalog, and a bootstrap operator
// account. Every statement is ON CONFLICT DO NOTHING so restarts are safe.
func Seed(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, `
		INSERT INTO cities (id, slug, name, country, state, active)
		VALUES ($1, 'abq', 'Albuquerque', 'US', 'NM', TRUE)
		ON CONFLICT (slug) DO NOTHING`, uuid.New())
	if err != nil {
		return fmt.Errorf("failed to seed city: %w", err)
	}

	for _, cat := range seedCategories {
		_, err := pool.Exec(ctx, `
			INSERT INTO service_categories (id, slug, display_name, description)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (slug) DO NOTHING`, uuid.New(), cat.slug, cat.displayName, cat.description)
		if err != nil {
			return fmt.Errorf("failed to seed service category %s: %w", cat.slug, err)
		}
	}

	operatorPassword := os.Getenv("SEED_OPERATOR_PASSWORD")
	if operatorPassword == "" {
		operatorPassword = "operator-dev-password"
		log.Println("SEED_OPERATOR_PASSWORD not set, using development default")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(operatorPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash operator password: %w", err)
	}
	_, err = pool.Exec(ctx, `
		INSERT INTO users (id, name, email, role, password_hash)
		VALUES ($1, 'Operations', 'ops@bridgelocal.test', 'operator', $2)
		ON CONFLICT (email) DO NOTHING`, uuid.New(), string(hash))
	if err != nil {
		return fmt.Errorf("failed to seed operator user: %w", err)
	}

	log.Println("Seed data ensured")
	return nil
}
