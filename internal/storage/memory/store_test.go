package memory

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bridge-local-platform/internal/models"
	"bridge-local-platform/internal/storage"
)

func seedJob(t *testing.T, s *Store, status models.JobStatus) *models.Job {
	t.Helper()
	job, err := s.Jobs().Create(context.Background(), &models.Job{
		ID:                uuid.New(),
		ClientID:          uuid.New(),
		CityID:            uuid.New(),
		ServiceCategoryID: uuid.New(),
		Description:       "test",
		Zip:               "87102",
		PreferredTiming:   models.TimingASAP,
		Status:            status,
		ClientViewToken:   "token",
	})
	require.NoError(t, err)
	return job
}

func TestJobUpdateStatusGuardsOnFromStatus(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	job := seedJob(t, s, models.JobStatusNew)

	updated, err := s.Jobs().UpdateStatus(ctx, storage.UpdateJobStatusParams{
		ID:        job.ID,
		From:      models.JobStatusNew,
		To:        models.JobStatusOfferingContractors,
		UpdatedAt: time.Now().UTC(),
	})
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusOfferingContractors, updated.Status)

	// Stale writer loses.
	_, err = s.Jobs().UpdateStatus(ctx, storage.UpdateJobStatusParams{
		ID:        job.ID,
		From:      models.JobStatusNew,
		To:        models.JobStatusCancelledInternal,
		UpdatedAt: time.Now().UTC(),
	})
	assert.ErrorIs(t, err, storage.ErrConflict)

	_, err = s.Jobs().UpdateStatus(ctx, storage.UpdateJobStatusParams{
		ID:   uuid.New(),
		From: models.JobStatusNew,
		To:   models.JobStatusOfferingContractors,
	})
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestJobClaimIsSingleWinner(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	job := seedJob(t, s, models.JobStatusOfferingContractors)

	first, err := s.Jobs().Claim(ctx, job.ID, uuid.New(), time.Now().UTC())
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusAwaitingQuote, first.Status)
	assert.NotNil(t, first.AssignedContractorID)
	assert.NotNil(t, first.AcceptedAt)

	_, err = s.Jobs().Claim(ctx, job.ID, uuid.New(), time.Now().UTC())
	assert.ErrorIs(t, err, storage.ErrConflict)
}

func TestQuoteVersionsAssignedSequentially(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	jobID := uuid.New()

	for want := 1; want <= 3; want++ {
		q, err := s.Quotes().CreateVersioned(ctx, &models.Quote{
			ID:              uuid.New(),
			JobID:           jobID,
			Status:          models.QuoteStatusDraft,
			TotalPriceCents: int64(want) * 100,
		}, []models.LineItem{{ID: uuid.New(), Type: "base", Label: "l", Quantity: 1, UnitPriceCents: int64(want) * 100, TotalPriceCents: int64(want) * 100}})
		require.NoError(t, err)
		assert.Equal(t, want, q.Version)
	}

	latest, err := s.Quotes().GetLatestByJob(ctx, jobID)
	require.NoError(t, err)
	assert.Equal(t, 3, latest.Version)
	assert.Equal(t, int64(300), latest.TotalPriceCents)

	items, err := s.Quotes().ListItemsByQuote(ctx, latest.ID)
	require.NoError(t, err)
	assert.Len(t, items, 1)
}

func TestPayoutCreateIfAbsentIsIdempotent(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	jobID := uuid.New()

	created, err := s.Payouts().CreateIfAbsent(ctx, &models.Payout{
		ID: uuid.New(), JobID: jobID, ContractorID: uuid.New(),
		AmountCents: 1000, Status: models.PayoutStatusPending, Method: "manual",
	})
	require.NoError(t, err)
	assert.True(t, created)

	again, err := s.Payouts().CreateIfAbsent(ctx, &models.Payout{
		ID: uuid.New(), JobID: jobID, ContractorID: uuid.New(),
		AmountCents: 9999, Status: models.PayoutStatusPending, Method: "manual",
	})
	require.NoError(t, err)
	assert.False(t, again, "second payout for the same job must be a no-op")

	payout, err := s.Payouts().GetByJob(ctx, jobID)
	require.NoError(t, err)
	assert.Equal(t, int64(1000), payout.AmountCents)
}

func TestPaymentUpdateStatusGuard(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	payment, err := s.Payments().Create(ctx, &models.Payment{
		ID: uuid.New(), JobID: uuid.New(), QuoteID: uuid.New(),
		Mode: models.PaymentModeOffline, Status: models.PaymentStatusPending,
		AmountCents: 500, Currency: "usd",
	})
	require.NoError(t, err)

	now := time.Now().UTC()
	settled, err := s.Payments().UpdateStatus(ctx, payment.ID,
		[]models.PaymentStatus{models.PaymentStatusPending, models.PaymentStatusClientMarkedSent},
		models.PaymentStatusSucceeded, &now)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusSucceeded, settled.Status)
	assert.NotNil(t, settled.PaidAt)

	_, err = s.Payments().UpdateStatus(ctx, payment.ID,
		[]models.PaymentStatus{models.PaymentStatusPending},
		models.PaymentStatusSucceeded, &now)
	assert.ErrorIs(t, err, storage.ErrConflict)
}

func TestNotificationListByRecipient(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	uid := uuid.New()
	require.NoError(t, s.Notifications().Create(ctx, &models.Notification{
		ID: uuid.New(), RecipientType: "contractor", RecipientID: &uid, TemplateID: "new_offer",
	}))
	require.NoError(t, s.Notifications().Create(ctx, &models.Notification{
		ID: uuid.New(), RecipientType: "operator", TemplateID: "no_contractor_found",
	}))

	mine, err := s.Notifications().ListByRecipient(ctx, "contractor", &uid)
	require.NoError(t, err)
	assert.Len(t, mine, 1)

	ops, err := s.Notifications().ListByRecipient(ctx, "operator", nil)
	require.NoError(t, err)
	assert.Len(t, ops, 1)
}
