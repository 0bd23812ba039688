package services_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"bridge-local-platform/internal/models"
	"bridge-local-platform/internal/pricing"
	"bridge-local-platform/internal/services"
	"bridge-local-platform/internal/storage/memory"
	"bridge-local-platform/internal/transport/dto"
)

// fixture wires the full service graph onto the in-memory store. The store's
// conditional updates match the SQL semantics, so claim races and settlement
// guards behave the same as against postgres.
type fixture struct {
	ctx   context.Context
	store *memory.Store
	repos *services.Repos
	sm    *services.StateMachine
	flags services.PlatformFlags

	jobs        *services.JobService
	contractors *services.ContractorService
	quotes      *services.QuoteService
	payments    *services.PaymentService
	notifier    *services.Notifier

	city       models.City
	category   models.ServiceCategory
	operatorID uuid.UUID
}

func newFixture(t *testing.T, flags services.PlatformFlags, gateway services.PaymentGateway) *fixture {
	t.Helper()
	ctx := context.Background()
	store := memory.NewStore()
	repos := &services.Repos{
		Users:             store.Users(),
		Cities:            store.Cities(),
		ServiceCategories: store.ServiceCategories(),
		Jobs:              store.Jobs(),
		JobEvents:         store.JobEvents(),
		Contractors:       store.Contractors(),
		Quotes:            store.Quotes(),
		Payments:          store.Payments(),
		Payouts:           store.Payouts(),
		Notifications:     store.Notifications(),
	}

	notifier := services.NewNotifier(repos.Notifications, repos.Users, nil)
	sm := services.NewStateMachine(repos, notifier, flags)
	paymentService := services.NewPaymentService(repos, sm, gateway, notifier, flags)
	pricingSource := &pricing.StaticSource{
		Rules: map[string]map[string]pricing.Rule{
			"abq": {
				"handyman": {BasePriceCents: 15000, PlatformFeePct: 30},
			},
		},
	}

	f := &fixture{
		ctx:         ctx,
		store:       store,
		repos:       repos,
		sm:          sm,
		flags:       flags,
		jobs:        services.NewJobService(repos, sm, pricingSource, notifier, flags),
		contractors: services.NewContractorService(repos, sm, notifier),
		quotes:      services.NewQuoteService(repos, sm, paymentService, notifier),
		payments:    paymentService,
		notifier:    notifier,
	}

	f.city = models.City{ID: uuid.New(), Slug: "abq", Name: "Albuquerque", State: "NM", Country: "US", Active: true}
	require.NoError(t, repos.Cities.Create(ctx, &f.city))
	f.category = models.ServiceCategory{ID: uuid.New(), Slug: "handyman", DisplayName: "Handyman"}
	require.NoError(t, repos.ServiceCategories.Create(ctx, &f.category))

	operator, err := repos.Users.Create(ctx, &models.User{
		ID:           uuid.New(),
		Name:         "Operations",
		Email:        "ops@bridgelocal.test",
		Role:         models.RoleOperator,
		PasswordHash: "x",
	})
	require.NoError(t, err)
	f.operatorID = operator.ID

	return f
}

// addActiveContractor seeds a user plus an active profile covering the
// fixture's city and category, so FindEligible picks it up.
func (f *fixture) addActiveContractor(t *testing.T, name string) *models.ContractorProfile {
	t.Helper()
	user, err := f.repos.Users.Create(f.ctx, &models.User{
		ID:           uuid.New(),
		Name:         name,
		Email:        name + "@bridgelocal.test",
		Role:         models.RoleContractor,
		PasswordHash: "x",
	})
	require.NoError(t, err)

	profile, err := f.repos.Contractors.Create(f.ctx, &models.ContractorProfile{
		ID:          uuid.New(),
		UserID:      user.ID,
		CityID:      f.city.ID,
		BaseZip:     "87102",
		RadiusMiles: 20,
		Services:    []uuid.UUID{f.category.ID},
		Status:      models.ContractorStatusActive,
		PublicName:  name,
	})
	require.NoError(t, err)
	return profile
}

// jobRequest is a valid public intake payload for the fixture's city and
// category.
func jobRequest(email string) *dto.CreateJobRequest {
	return &dto.CreateJobRequest{
		CitySlug:            "abq",
		ServiceCategorySlug: "handyman",
		Description:         "Fix a leaking faucet",
		Zip:                 "87102",
		PreferredTiming:     models.TimingThisWeek,
		ClientName:          "Pat Client",
		ClientEmail:         email,
	}
}

// submitJob runs the real public intake path and returns the persisted job.
func (f *fixture) submitJob(t *testing.T, email string) *models.Job {
	t.Helper()
	job, err := f.jobs.CreateJob(f.ctx, jobRequest(email))
	require.NoError(t, err)
	return job
}

// eventsOf returns the audit trail event types for a job in order.
func (f *fixture) eventsOf(t *testing.T, jobID uuid.UUID) []string {
	t.Helper()
	events, err := f.repos.JobEvents.ListByJob(f.ctx, jobID)
	require.NoError(t, err)
	types := make([]string, 0, len(events))
	for _, e := range events {
		types = append(types, e.EventType)
	}
	return types
}
