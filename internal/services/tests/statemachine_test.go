package services_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bridge-local-platform/internal/models"
	"bridge-local-platform/internal/services"
)

// The lifecycle table, pinned pair by pair. Anything not listed here must be
// rejected by Transition.
var allowedPairs = map[models.JobStatus][]models.JobStatus{
	models.JobStatusNew: {
		models.JobStatusOfferingContractors,
		models.JobStatusCancelledByClient,
		models.JobStatusCancelledInternal,
		models.JobStatusNoContractorFound,
	},
	models.JobStatusOfferingContractors: {
		models.JobStatusAwaitingQuote,
		models.JobStatusCancelledByClient,
		models.JobStatusCancelledInternal,
		models.JobStatusNoContractorFound,
	},
	models.JobStatusAwaitingQuote: {
		models.JobStatusQuoteSent,
		models.JobStatusCancelledByClient,
		models.JobStatusCancelledInternal,
	},
	models.JobStatusQuoteSent: {
		models.JobStatusAwaitingPayment,
		models.JobStatusConfirmed,
		models.JobStatusCancelledByClient,
		models.JobStatusCancelledInternal,
	},
	models.JobStatusAwaitingPayment: {
		models.JobStatusConfirmed,
		models.JobStatusCancelledByClient,
		models.JobStatusCancelledInternal,
	},
	models.JobStatusConfirmed: {
		models.JobStatusInProgress,
		models.JobStatusCompleted,
		models.JobStatusCancelledByClient,
		models.JobStatusCancelledInternal,
	},
	models.JobStatusInProgress: {
		models.JobStatusCompleted,
		models.JobStatusCancelledByClient,
		models.JobStatusCancelledInternal,
	},
}

func isAllowed(from, to models.JobStatus) bool {
	for _, t := range allowedPairs[from] {
		if t == to {
			return true
		}
	}
	return false
}

func TestJobTransitionTable(t *testing.T) {
	for _, from := range models.AllJobStatuses {
		for _, to := range models.AllJobStatuses {
			got := services.IsValidJobTransition(from, to)
			assert.Equalf(t, isAllowed(from, to), got, "%s -> %s", from, to)
		}
	}
}

func TestTerminalStatusesHaveNoExits(t *testing.T) {
	terminal := []models.JobStatus{
		models.JobStatusCompleted,
		models.JobStatusCancelledByClient,
		models.JobStatusCancelledInternal,
		models.JobStatusNoContractorFound,
	}
	for _, s := range terminal {
		assert.Truef(t, services.IsTerminalStatus(s), "%s should be terminal", s)
		for _, to := range models.AllJobStatuses {
			assert.Falsef(t, services.IsValidJobTransition(s, to), "%s -> %s must be forbidden", s, to)
		}
	}
	assert.False(t, services.IsTerminalStatus(models.JobStatusNew))
	assert.False(t, services.IsTerminalStatus(models.JobStatusConfirmed))
}

func TestTransitionRejectsForbiddenMove(t *testing.T) {
	f := newFixture(t, services.DefaultPlatformFlags(), nil)
	f.addActiveContractor(t, "alex")
	job := f.submitJob(t, "client@example.com")
	require.Equal(t, models.JobStatusOfferingContractors, job.Status)

	_, err := f.sm.Transition(f.ctx, job.ID, models.JobStatusCompleted, models.ActorSystem, nil, nil)
	assert.ErrorIs(t, err, services.ErrInvalidTransition)

	fresh, err := f.repos.Jobs.GetByID(f.ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusOfferingContractors, fresh.Status)
}

func TestTransitionAppendsOneEventPerMove(t *testing.T) {
	f := newFixture(t, services.DefaultPlatformFlags(), nil)
	contractor := f.addActiveContractor(t, "alex")
	job := f.submitJob(t, "client@example.com")

	// job_created + status_offering_contractors + contractor_offers_prepared
	before := f.eventsOf(t, job.ID)
	assert.Contains(t, before, "job_created")
	assert.Contains(t, before, "status_offering_contractors")
	assert.Contains(t, before, "contractor_offers_prepared")

	_, err := f.contractors.AcceptOffer(f.ctx, job.ID, contractor.UserID)
	require.NoError(t, err)
	_, err = f.sm.Transition(f.ctx, job.ID, models.JobStatusCancelledInternal, models.ActorOperator, &f.operatorID, nil)
	require.NoError(t, err)

	after := f.eventsOf(t, job.ID)
	assert.Equal(t, len(before)+3, len(after))
	assert.Equal(t, "status_cancelled_internal", after[len(after)-1])
}

func TestTransitionSetsFirstEntryTimestamps(t *testing.T) {
	f := newFixture(t, services.DefaultPlatformFlags(), nil)
	contractor := f.addActiveContractor(t, "alex")
	job := f.submitJob(t, "client@example.com")
	require.Nil(t, job.AcceptedAt)

	claimed, err := f.contractors.AcceptOffer(f.ctx, job.ID, contractor.UserID)
	require.NoError(t, err)
	require.NotNil(t, claimed.AcceptedAt)

	cancelled, err := f.sm.Transition(f.ctx, job.ID, models.JobStatusCancelledByClient, models.ActorOperator, &f.operatorID, nil)
	require.NoError(t, err)
	assert.NotNil(t, cancelled.CancelledAt)
	assert.NotNil(t, cancelled.AcceptedAt, "accepted_at must survive later transitions")
}

func TestNoEligibleContractorFallsThrough(t *testing.T) {
	f := newFixture(t, services.DefaultPlatformFlags(), nil)
	// No contractors seeded at all.
	job := f.submitJob(t, "client@example.com")
	assert.Equal(t, models.JobStatusNoContractorFound, job.Status)
	assert.True(t, services.IsTerminalStatus(job.Status))

	types := f.eventsOf(t, job.ID)
	assert.Contains(t, types, "status_no_contractor_found")
	assert.NotContains(t, types, "contractor_offers_prepared")

	// Role-wide operator notification, not addressed to a user.
	notes, err := f.repos.Notifications.ListByRecipient(f.ctx, "operator", nil)
	require.NoError(t, err)
	found := false
	for _, n := range notes {
		if n.TemplateID == "no_contractor_found" {
			found = true
		}
	}
	assert.True(t, found, "operator must be notified of the dead end")
}

func TestMatchingCapsOfferFanOut(t *testing.T) {
	flags := services.DefaultPlatformFlags()
	flags.MaxContractorOffers = 2
	f := newFixture(t, flags, nil)
	for _, name := range []string{"a", "b", "c", "d"} {
		f.addActiveContractor(t, name)
	}

	job := f.submitJob(t, "client@example.com")
	require.Equal(t, models.JobStatusOfferingContractors, job.Status)

	// Count addressed contractor notifications across all recipients.
	offered := 0
	for _, profile := range []string{"a", "b", "c", "d"} {
		user, err := f.repos.Users.GetByEmail(f.ctx, profile+"@bridgelocal.test")
		require.NoError(t, err)
		uid := user.ID
		notes, err := f.repos.Notifications.ListByRecipient(f.ctx, "contractor", &uid)
		require.NoError(t, err)
		for _, n := range notes {
			if n.TemplateID == "new_offer" {
				offered++
			}
		}
	}
	assert.Equal(t, 2, offered)
}

func TestPayoutAmountFloors(t *testing.T) {
	assert.Equal(t, int64(1750), services.PayoutAmount(2500, 0.70))
	assert.Equal(t, int64(10500), services.PayoutAmount(15000, 0.70))
	assert.Equal(t, int64(69), services.PayoutAmount(99, 0.70))
	assert.Equal(t, int64(0), services.PayoutAmount(0, 0.70))
}

func TestTransitionUnknownJob(t *testing.T) {
	f := newFixture(t, services.DefaultPlatformFlags(), nil)
	_, err := f.sm.Transition(f.ctx, uuid.New(), models.JobStatusConfirmed, models.ActorSystem, nil, nil)
	assert.ErrorIs(t, err, services.ErrNotFound)
}
