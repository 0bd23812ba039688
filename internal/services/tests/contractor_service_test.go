package services_test

import (
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bridge-local-platform/internal/models"
	"bridge-local-platform/internal/services"
	"bridge-local-platform/internal/transport/dto"
)

func TestContractorSignupStartsPendingReview(t *testing.T) {
	f := newFixture(t, services.DefaultPlatformFlags(), nil)

	profile, err := f.contractors.Signup(f.ctx, &dto.ContractorSignupRequest{
		Name:         "Alex Doe",
		Email:        "alex@example.com",
		Password:     "s3cret-pass",
		PublicName:   "Alex Handyworks",
		CitySlug:     "abq",
		BaseZip:      "87102",
		RadiusMiles:  25,
		ServiceSlugs: []string{"handyman"},
	})
	require.NoError(t, err)
	assert.Equal(t, models.ContractorStatusPendingReview, profile.Status)
	assert.Equal(t, f.city.ID, profile.CityID)
	require.Len(t, profile.Services, 1)
	assert.Equal(t, f.category.ID, profile.Services[0])

	// Pending profiles are invisible to matching.
	job := f.submitJob(t, "client@example.com")
	assert.Equal(t, models.JobStatusNoContractorFound, job.Status)
}

func TestContractorSignupUnknownCity(t *testing.T) {
	f := newFixture(t, services.DefaultPlatformFlags(), nil)
	_, err := f.contractors.Signup(f.ctx, &dto.ContractorSignupRequest{
		Name:         "Alex Doe",
		Email:        "alex@example.com",
		Password:     "s3cret-pass",
		PublicName:   "Alex Handyworks",
		CitySlug:     "atlantis",
		BaseZip:      "00001",
		RadiusMiles:  25,
		ServiceSlugs: []string{"handyman"},
	})
	assert.ErrorIs(t, err, services.ErrValidation)
}

func TestAcceptOfferClaimsJob(t *testing.T) {
	f := newFixture(t, services.DefaultPlatformFlags(), nil)
	contractor := f.addActiveContractor(t, "alex")
	job := f.submitJob(t, "client@example.com")

	claimed, err := f.contractors.AcceptOffer(f.ctx, job.ID, contractor.UserID)
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusAwaitingQuote, claimed.Status)
	require.NotNil(t, claimed.AssignedContractorID)
	assert.Equal(t, contractor.ID, *claimed.AssignedContractorID)
	assert.NotNil(t, claimed.AcceptedAt)

	types := f.eventsOf(t, job.ID)
	assert.Contains(t, types, "offer_accepted")
	assert.Contains(t, types, "status_awaiting_quote")
}

func TestAcceptOfferSecondContractorConflicts(t *testing.T) {
	f := newFixture(t, services.DefaultPlatformFlags(), nil)
	winner := f.addActiveContractor(t, "winner")
	loser := f.addActiveContractor(t, "loser")
	job := f.submitJob(t, "client@example.com")

	_, err := f.contractors.AcceptOffer(f.ctx, job.ID, winner.UserID)
	require.NoError(t, err)

	_, err = f.contractors.AcceptOffer(f.ctx, job.ID, loser.UserID)
	assert.ErrorIs(t, err, services.ErrConflict)

	// The loser gets told the job is gone.
	uid := loser.UserID
	notes, err := f.repos.Notifications.ListByRecipient(f.ctx, "contractor", &uid)
	require.NoError(t, err)
	found := false
	for _, n := range notes {
		if n.TemplateID == "offer_already_claimed" {
			found = true
		}
	}
	assert.True(t, found)
}

func TestAcceptOfferRace(t *testing.T) {
	f := newFixture(t, services.DefaultPlatformFlags(), nil)
	contractors := make([]*models.ContractorProfile, 8)
	for i := range contractors {
		contractors[i] = f.addActiveContractor(t, "racer"+string(rune('a'+i)))
	}
	job := f.submitJob(t, "client@example.com")
	require.Equal(t, models.JobStatusOfferingContractors, job.Status)

	var wg sync.WaitGroup
	errs := make([]error, len(contractors))
	for i, c := range contractors {
		wg.Add(1)
		go func(i int, userID uuid.UUID) {
			defer wg.Done()
			_, errs[i] = f.contractors.AcceptOffer(f.ctx, job.ID, userID)
		}(i, c.UserID)
	}
	wg.Wait()

	winners := 0
	for _, err := range errs {
		if err == nil {
			winners++
		} else {
			assert.ErrorIs(t, err, services.ErrConflict)
		}
	}
	assert.Equal(t, 1, winners, "exactly one contractor wins the claim")

	final, err := f.repos.Jobs.GetByID(f.ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusAwaitingQuote, final.Status)
	assert.NotNil(t, final.AssignedContractorID)
}

func TestAcceptOfferWrongCityForbidden(t *testing.T) {
	f := newFixture(t, services.DefaultPlatformFlags(), nil)
	f.addActiveContractor(t, "local")
	job := f.submitJob(t, "client@example.com")

	// A contractor from another city covering the same service.
	otherCity := models.City{ID: uuid.New(), Slug: "santa-fe", Name: "Santa Fe", State: "NM", Country: "US", Active: true}
	require.NoError(t, f.repos.Cities.Create(f.ctx, &otherCity))
	user, err := f.repos.Users.Create(f.ctx, &models.User{
		ID: uuid.New(), Name: "Remote", Email: "remote@example.com",
		Role: models.RoleContractor, PasswordHash: "x",
	})
	require.NoError(t, err)
	remote, err := f.repos.Contractors.Create(f.ctx, &models.ContractorProfile{
		ID: uuid.New(), UserID: user.ID, CityID: otherCity.ID, BaseZip: "87501",
		RadiusMiles: 20, Services: []uuid.UUID{f.category.ID},
		Status: models.ContractorStatusActive, PublicName: "Remote",
	})
	require.NoError(t, err)

	_, err = f.contractors.AcceptOffer(f.ctx, job.ID, remote.UserID)
	assert.ErrorIs(t, err, services.ErrForbidden)
}

func TestAcceptOfferWrongStatusInvalidState(t *testing.T) {
	f := newFixture(t, services.DefaultPlatformFlags(), nil)
	contractor := f.addActiveContractor(t, "alex")
	job := f.submitJob(t, "client@example.com")

	_, err := f.sm.Transition(f.ctx, job.ID, models.JobStatusCancelledInternal, models.ActorOperator, &f.operatorID, nil)
	require.NoError(t, err)

	_, err = f.contractors.AcceptOffer(f.ctx, job.ID, contractor.UserID)
	assert.ErrorIs(t, err, services.ErrInvalidState)
}

func TestListOffersMatchesCityAndService(t *testing.T) {
	f := newFixture(t, services.DefaultPlatformFlags(), nil)
	contractor := f.addActiveContractor(t, "alex")
	job := f.submitJob(t, "client@example.com")

	offers, err := f.contractors.ListOffers(f.ctx, contractor.UserID)
	require.NoError(t, err)
	require.Len(t, offers, 1)
	assert.Equal(t, job.ID, offers[0].ID)

	// Claimed jobs leave the board.
	_, err = f.contractors.AcceptOffer(f.ctx, job.ID, contractor.UserID)
	require.NoError(t, err)
	offers, err = f.contractors.ListOffers(f.ctx, contractor.UserID)
	require.NoError(t, err)
	assert.Empty(t, offers)
}

func TestMarkCompleteRequiresAssignment(t *testing.T) {
	f := newFixture(t, services.DefaultPlatformFlags(), nil)
	assigned := f.addActiveContractor(t, "assigned")
	other := f.addActiveContractor(t, "other")
	job := f.submitJob(t, "client@example.com")

	_, err := f.contractors.AcceptOffer(f.ctx, job.ID, assigned.UserID)
	require.NoError(t, err)

	_, err = f.contractors.MarkComplete(f.ctx, job.ID, other.UserID)
	assert.ErrorIs(t, err, services.ErrForbidden)
}
