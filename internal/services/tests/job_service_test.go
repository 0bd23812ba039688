package services_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bridge-local-platform/internal/models"
	"bridge-local-platform/internal/services"
	"bridge-local-platform/internal/storage"
	"bridge-local-platform/internal/transport/dto"
)

func TestCreateJobAttachesPricingSuggestion(t *testing.T) {
	f := newFixture(t, services.DefaultPlatformFlags(), nil)
	f.addActiveContractor(t, "alex")
	job := f.submitJob(t, "client@example.com")

	require.NotNil(t, job.PricingSuggestion)
	assert.Equal(t, int64(15000), job.PricingSuggestion.TotalCents)
	assert.Equal(t, int64(4500), job.PricingSuggestion.PlatformCutCents)
	assert.Equal(t, int64(10500), job.PricingSuggestion.ContractorCutCents)
	assert.Equal(t, "city_pricing_table", job.PricingSuggestion.Source)
	assert.Len(t, job.ClientViewToken, 32)
}

func TestCreateJobUnknownCityOrService(t *testing.T) {
	f := newFixture(t, services.DefaultPlatformFlags(), nil)

	req := jobRequest("client@example.com")
	req.CitySlug = "atlantis"
	_, err := f.jobs.CreateJob(f.ctx, req)
	assert.ErrorIs(t, err, services.ErrValidation)

	req = jobRequest("client@example.com")
	req.ServiceCategorySlug = "alchemy"
	_, err = f.jobs.CreateJob(f.ctx, req)
	assert.ErrorIs(t, err, services.ErrValidation)
}

func TestCreateJobReusesExistingClient(t *testing.T) {
	f := newFixture(t, services.DefaultPlatformFlags(), nil)
	f.addActiveContractor(t, "alex")

	first := f.submitJob(t, "repeat@example.com")
	second := f.submitJob(t, "repeat@example.com")
	assert.Equal(t, first.ClientID, second.ClientID)
	assert.NotEqual(t, first.ClientViewToken, second.ClientViewToken, "tokens are per-job")
}

func TestGetStatusRequiresToken(t *testing.T) {
	f := newFixture(t, services.DefaultPlatformFlags(), nil)
	f.addActiveContractor(t, "alex")
	job := f.submitJob(t, "client@example.com")

	view, err := f.jobs.GetStatus(f.ctx, job.ID, job.ClientViewToken)
	require.NoError(t, err)
	assert.Equal(t, job.ID, view.Job.ID)
	assert.Nil(t, view.LatestQuote)

	_, err = f.jobs.GetStatus(f.ctx, job.ID, "wrong")
	assert.ErrorIs(t, err, services.ErrForbidden)
	_, err = f.jobs.GetStatus(f.ctx, job.ID, "")
	assert.ErrorIs(t, err, services.ErrForbidden)
}

func TestGetStatusIncludesLatestQuoteAndPayment(t *testing.T) {
	f := newFixture(t, services.DefaultPlatformFlags(), nil)
	job, _ := driveToAwaitingPayment(t, f)

	stored, err := f.repos.Jobs.GetByID(f.ctx, job.ID)
	require.NoError(t, err)
	view, err := f.jobs.GetStatus(f.ctx, job.ID, stored.ClientViewToken)
	require.NoError(t, err)
	require.NotNil(t, view.LatestQuote)
	assert.Equal(t, int64(2500), view.LatestQuote.TotalPriceCents)
	require.NotNil(t, view.LatestPayment)
	assert.Equal(t, models.PaymentStatusPending, view.LatestPayment.Status)
}

func TestListFilters(t *testing.T) {
	f := newFixture(t, services.DefaultPlatformFlags(), nil)
	f.addActiveContractor(t, "alex")
	f.submitJob(t, "a@example.com")
	f.submitJob(t, "b@example.com")

	all, err := f.jobs.List(f.ctx, storage.JobListFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	status := models.JobStatusOfferingContractors
	open, err := f.jobs.List(f.ctx, storage.JobListFilter{Status: &status, CityID: &f.city.ID})
	require.NoError(t, err)
	assert.Len(t, open, 2)

	limited, err := f.jobs.List(f.ctx, storage.JobListFilter{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestCancelJob(t *testing.T) {
	f := newFixture(t, services.DefaultPlatformFlags(), nil)
	f.addActiveContractor(t, "alex")
	job := f.submitJob(t, "client@example.com")

	cancelled, err := f.jobs.Cancel(f.ctx, job.ID, "client", "changed my mind", f.operatorID)
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusCancelledByClient, cancelled.Status)
	assert.NotNil(t, cancelled.CancelledAt)

	// Terminal: a second cancel is rejected.
	_, err = f.jobs.Cancel(f.ctx, job.ID, "internal", "", f.operatorID)
	assert.ErrorIs(t, err, services.ErrInvalidTransition)
}

func TestRetriggerMatchingFromNoContractorFound(t *testing.T) {
	f := newFixture(t, services.DefaultPlatformFlags(), nil)
	job := f.submitJob(t, "client@example.com")
	require.Equal(t, models.JobStatusNoContractorFound, job.Status)

	// Still nobody: the job lands back in no_contractor_found.
	again, err := f.jobs.RetriggerMatching(f.ctx, job.ID, f.operatorID)
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusNoContractorFound, again.Status)

	// Now a contractor exists; the override re-opens the job.
	f.addActiveContractor(t, "latecomer")
	reopened, err := f.jobs.RetriggerMatching(f.ctx, job.ID, f.operatorID)
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusOfferingContractors, reopened.Status)

	types := f.eventsOf(t, job.ID)
	count := 0
	for _, typ := range types {
		if typ == "matching_retriggered" {
			count++
		}
	}
	assert.Equal(t, 2, count)
}

func TestRetriggerMatchingInvalidFromOtherStatus(t *testing.T) {
	f := newFixture(t, services.DefaultPlatformFlags(), nil)
	contractor := f.addActiveContractor(t, "alex")
	job := f.submitJob(t, "client@example.com")
	_, err := f.contractors.AcceptOffer(f.ctx, job.ID, contractor.UserID)
	require.NoError(t, err)

	_, err = f.jobs.RetriggerMatching(f.ctx, job.ID, f.operatorID)
	assert.ErrorIs(t, err, services.ErrInvalidState)
}

func TestRunSimulationFlagsJobAsTest(t *testing.T) {
	f := newFixture(t, services.DefaultPlatformFlags(), nil)
	f.addActiveContractor(t, "alex")

	job, err := f.jobs.RunSimulation(f.ctx, "abq", "handyman")
	require.NoError(t, err)
	assert.True(t, job.IsTest)
	assert.Equal(t, "simulation", job.OriginChannel)
	assert.Equal(t, models.JobStatusOfferingContractors, job.Status)
}

// TestOfflineLifecycleEndToEnd drives one job through the full happy path:
// intake → claim → quote → send → approve → offline settle → complete →
// payout → payout paid.
func TestOfflineLifecycleEndToEnd(t *testing.T) {
	f := newFixture(t, services.DefaultPlatformFlags(), nil)
	contractor := f.addActiveContractor(t, "alex")

	job := f.submitJob(t, "client@example.com")
	require.Equal(t, models.JobStatusOfferingContractors, job.Status)

	claimed, err := f.contractors.AcceptOffer(f.ctx, job.ID, contractor.UserID)
	require.NoError(t, err)
	require.Equal(t, models.JobStatusAwaitingQuote, claimed.Status)

	quote, _, err := f.quotes.CreateQuote(f.ctx, job.ID, quoteItems(), f.operatorID)
	require.NoError(t, err)
	require.Equal(t, int64(2500), quote.TotalPriceCents)

	// Operator revises before sending; version 2 becomes the effective quote.
	revision := &dto.CreateQuoteRequest{
		Items: []dto.LineItemInput{
			{Type: "base", Label: "Full repair", Quantity: 1, UnitPriceCents: 15000},
		},
	}
	revised, _, err := f.quotes.CreateQuote(f.ctx, job.ID, revision, f.operatorID)
	require.NoError(t, err)
	require.Equal(t, 2, revised.Version)

	sentJob, _, err := f.quotes.SendQuote(f.ctx, job.ID, f.operatorID)
	require.NoError(t, err)
	require.Equal(t, models.JobStatusQuoteSent, sentJob.Status)

	stored, err := f.repos.Jobs.GetByID(f.ctx, job.ID)
	require.NoError(t, err)
	approved, _, err := f.quotes.ApproveQuote(f.ctx, job.ID, stored.ClientViewToken)
	require.NoError(t, err)
	require.Equal(t, models.JobStatusAwaitingPayment, approved.Status)

	payment, err := f.repos.Payments.GetLatestByJob(f.ctx, job.ID)
	require.NoError(t, err)
	require.Equal(t, int64(15000), payment.AmountCents)

	_, err = f.payments.MarkPaymentPaid(f.ctx, payment.ID, f.operatorID)
	require.NoError(t, err)

	completed, err := f.contractors.MarkComplete(f.ctx, job.ID, contractor.UserID)
	require.NoError(t, err)
	require.Equal(t, models.JobStatusCompleted, completed.Status)
	require.NotNil(t, completed.CompletedAt)

	// Payout: 70% of the latest quote total, floored.
	payout, err := f.repos.Payouts.GetByJob(f.ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(10500), payout.AmountCents)
	assert.Equal(t, models.PayoutStatusPending, payout.Status)
	assert.Equal(t, contractor.ID, payout.ContractorID)

	// Completing is terminal; nothing moves the job again.
	_, err = f.sm.Transition(f.ctx, job.ID, models.JobStatusInProgress, models.ActorSystem, nil, nil)
	assert.ErrorIs(t, err, services.ErrInvalidTransition)

	detail, err := f.jobs.GetDetail(f.ctx, job.ID)
	require.NoError(t, err)
	assert.Len(t, detail.Quotes, 2)
	assert.NotNil(t, detail.Payout)
	assert.NotEmpty(t, detail.Events)
}
