package services_test

import (
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bridge-local-platform/internal/mocks"
	"bridge-local-platform/internal/models"
	"bridge-local-platform/internal/services"
)

// driveToAwaitingPayment runs claim → quote → send → approve and returns the
// job in awaiting_payment with its pending payment.
func driveToAwaitingPayment(t *testing.T, f *fixture) (*models.Job, *models.Payment) {
	t.Helper()
	job, _ := claimJob(t, f)
	_, _, err := f.quotes.CreateQuote(f.ctx, job.ID, quoteItems(), f.operatorID)
	require.NoError(t, err)
	_, _, err = f.quotes.SendQuote(f.ctx, job.ID, f.operatorID)
	require.NoError(t, err)

	stored, err := f.repos.Jobs.GetByID(f.ctx, job.ID)
	require.NoError(t, err)
	approved, _, err := f.quotes.ApproveQuote(f.ctx, job.ID, stored.ClientViewToken)
	require.NoError(t, err)
	require.Equal(t, models.JobStatusAwaitingPayment, approved.Status)

	payment, err := f.repos.Payments.GetLatestByJob(f.ctx, job.ID)
	require.NoError(t, err)
	return approved, payment
}

func TestMarkPaymentSentIsAdvisory(t *testing.T) {
	f := newFixture(t, services.DefaultPlatformFlags(), nil)
	job, payment := driveToAwaitingPayment(t, f)

	stored, err := f.repos.Jobs.GetByID(f.ctx, job.ID)
	require.NoError(t, err)
	marked, err := f.payments.MarkPaymentSent(f.ctx, job.ID, stored.ClientViewToken)
	require.NoError(t, err)
	assert.Equal(t, payment.ID, marked.ID)
	assert.Equal(t, models.PaymentStatusClientMarkedSent, marked.Status)

	// Job status untouched; only the operator decides money arrived.
	fresh, err := f.repos.Jobs.GetByID(f.ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusAwaitingPayment, fresh.Status)
}

func TestMarkPaymentSentBadToken(t *testing.T) {
	f := newFixture(t, services.DefaultPlatformFlags(), nil)
	job, _ := driveToAwaitingPayment(t, f)
	_, err := f.payments.MarkPaymentSent(f.ctx, job.ID, "not-the-token")
	assert.ErrorIs(t, err, services.ErrForbidden)
}

func TestMarkPaymentPaidConfirmsJob(t *testing.T) {
	f := newFixture(t, services.DefaultPlatformFlags(), nil)
	job, payment := driveToAwaitingPayment(t, f)

	settled, err := f.payments.MarkPaymentPaid(f.ctx, payment.ID, f.operatorID)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusSucceeded, settled.Status)
	assert.NotNil(t, settled.PaidAt)

	fresh, err := f.repos.Jobs.GetByID(f.ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusConfirmed, fresh.Status)
}

func TestMarkPaymentPaidTwice(t *testing.T) {
	f := newFixture(t, services.DefaultPlatformFlags(), nil)
	_, payment := driveToAwaitingPayment(t, f)

	_, err := f.payments.MarkPaymentPaid(f.ctx, payment.ID, f.operatorID)
	require.NoError(t, err)

	_, err = f.payments.MarkPaymentPaid(f.ctx, payment.ID, f.operatorID)
	assert.ErrorIs(t, err, services.ErrAlreadySettled)
}

func TestMarkPaymentPaidUnknownPayment(t *testing.T) {
	f := newFixture(t, services.DefaultPlatformFlags(), nil)
	_, err := f.payments.MarkPaymentPaid(f.ctx, uuid.New(), f.operatorID)
	assert.ErrorIs(t, err, services.ErrNotFound)
}

func stripeFlags() services.PlatformFlags {
	flags := services.DefaultPlatformFlags()
	flags.PaymentMode = models.PaymentModeStripe
	return flags
}

func TestStripeApprovalReturnsCheckoutURL(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	gateway := mocks.NewMockPaymentGateway(ctrl)
	gateway.EXPECT().
		CreateCheckoutSession(gomock.Any(), int64(2500), "usd", gomock.Any()).
		Return(&services.CheckoutSession{ID: "cs_test_123", URL: "https://checkout.test/cs_test_123"}, nil)

	f := newFixture(t, stripeFlags(), gateway)
	job, _ := claimJob(t, f)
	_, _, err := f.quotes.CreateQuote(f.ctx, job.ID, quoteItems(), f.operatorID)
	require.NoError(t, err)
	_, _, err = f.quotes.SendQuote(f.ctx, job.ID, f.operatorID)
	require.NoError(t, err)

	stored, err := f.repos.Jobs.GetByID(f.ctx, job.ID)
	require.NoError(t, err)
	approved, checkoutURL, err := f.quotes.ApproveQuote(f.ctx, job.ID, stored.ClientViewToken)
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusAwaitingPayment, approved.Status)
	assert.Equal(t, "https://checkout.test/cs_test_123", checkoutURL)

	payment, err := f.repos.Payments.GetLatestByJob(f.ctx, job.ID)
	require.NoError(t, err)
	require.NotNil(t, payment.StripeCheckoutSessionID)
	assert.Equal(t, "cs_test_123", *payment.StripeCheckoutSessionID)
}

func TestStripeGatewayFailurePropagates(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	gateway := mocks.NewMockPaymentGateway(ctrl)
	gateway.EXPECT().
		CreateCheckoutSession(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(nil, assert.AnError)

	f := newFixture(t, stripeFlags(), gateway)
	job, _ := claimJob(t, f)
	_, _, err := f.quotes.CreateQuote(f.ctx, job.ID, quoteItems(), f.operatorID)
	require.NoError(t, err)
	_, _, err = f.quotes.SendQuote(f.ctx, job.ID, f.operatorID)
	require.NoError(t, err)

	stored, err := f.repos.Jobs.GetByID(f.ctx, job.ID)
	require.NoError(t, err)
	_, _, err = f.quotes.ApproveQuote(f.ctx, job.ID, stored.ClientViewToken)
	assert.ErrorIs(t, err, services.ErrUpstreamFailure)
}

func TestStripeWebhookSettlesPayment(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	gateway := mocks.NewMockPaymentGateway(ctrl)
	gateway.EXPECT().
		CreateCheckoutSession(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(&services.CheckoutSession{ID: "cs_test_123", URL: "https://checkout.test/x"}, nil)
	gateway.EXPECT().
		VerifyWebhook(gomock.Any(), "sig").
		Return(&services.WebhookEvent{Type: "checkout.session.completed", CheckoutSessionID: "cs_test_123"}, nil).
		Times(2)

	f := newFixture(t, stripeFlags(), gateway)
	job, _ := claimJob(t, f)
	_, _, err := f.quotes.CreateQuote(f.ctx, job.ID, quoteItems(), f.operatorID)
	require.NoError(t, err)
	_, _, err = f.quotes.SendQuote(f.ctx, job.ID, f.operatorID)
	require.NoError(t, err)
	stored, err := f.repos.Jobs.GetByID(f.ctx, job.ID)
	require.NoError(t, err)
	_, _, err = f.quotes.ApproveQuote(f.ctx, job.ID, stored.ClientViewToken)
	require.NoError(t, err)

	require.NoError(t, f.payments.HandleStripeWebhook(f.ctx, []byte(`{}`), "sig"))

	fresh, err := f.repos.Jobs.GetByID(f.ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusConfirmed, fresh.Status)
	payment, err := f.repos.Payments.GetLatestByJob(f.ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusSucceeded, payment.Status)

	// A gateway retry is acknowledged without side effects.
	require.NoError(t, f.payments.HandleStripeWebhook(f.ctx, []byte(`{}`), "sig"))
	again, err := f.repos.Jobs.GetByID(f.ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusConfirmed, again.Status)
}

func TestStripeWebhookBadSignature(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	gateway := mocks.NewMockPaymentGateway(ctrl)
	gateway.EXPECT().VerifyWebhook(gomock.Any(), "bad").Return(nil, assert.AnError)

	f := newFixture(t, stripeFlags(), gateway)
	err := f.payments.HandleStripeWebhook(f.ctx, []byte(`{}`), "bad")
	assert.ErrorIs(t, err, services.ErrValidation)
}

func TestStripeWebhookUnknownSessionIgnored(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	gateway := mocks.NewMockPaymentGateway(ctrl)
	gateway.EXPECT().
		VerifyWebhook(gomock.Any(), "sig").
		Return(&services.WebhookEvent{Type: "checkout.session.completed", CheckoutSessionID: "cs_unknown"}, nil)

	f := newFixture(t, stripeFlags(), gateway)
	assert.NoError(t, f.payments.HandleStripeWebhook(f.ctx, []byte(`{}`), "sig"))
}

func TestMarkPayoutPaidRollsUpContractorStats(t *testing.T) {
	f := newFixture(t, services.DefaultPlatformFlags(), nil)
	job, payment := driveToAwaitingPayment(t, f)
	_, err := f.payments.MarkPaymentPaid(f.ctx, payment.ID, f.operatorID)
	require.NoError(t, err)

	fresh, err := f.repos.Jobs.GetByID(f.ctx, job.ID)
	require.NoError(t, err)
	contractorID := *fresh.AssignedContractorID
	profile, err := f.repos.Contractors.GetByID(f.ctx, contractorID)
	require.NoError(t, err)
	userID := profile.UserID

	_, err = f.contractors.MarkComplete(f.ctx, job.ID, userID)
	require.NoError(t, err)

	payout, err := f.repos.Payouts.GetByJob(f.ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PayoutStatusPending, payout.Status)
	assert.Equal(t, int64(1750), payout.AmountCents)

	paid, err := f.payments.MarkPayoutPaid(f.ctx, payout.ID, f.operatorID)
	require.NoError(t, err)
	assert.Equal(t, models.PayoutStatusPaid, paid.Status)
	assert.NotNil(t, paid.PaidAt)

	after, err := f.repos.Contractors.GetByID(f.ctx, contractorID)
	require.NoError(t, err)
	assert.Equal(t, 1, after.CompletedJobsCount)
	assert.Equal(t, int64(1750), after.TotalEarningsCents)

	_, err = f.payments.MarkPayoutPaid(f.ctx, payout.ID, f.operatorID)
	assert.ErrorIs(t, err, services.ErrAlreadySettled)
}

func TestListPayoutsFiltersByStatus(t *testing.T) {
	f := newFixture(t, services.DefaultPlatformFlags(), nil)
	job, payment := driveToAwaitingPayment(t, f)
	_, err := f.payments.MarkPaymentPaid(f.ctx, payment.ID, f.operatorID)
	require.NoError(t, err)
	fresh, err := f.repos.Jobs.GetByID(f.ctx, job.ID)
	require.NoError(t, err)
	profile, err := f.repos.Contractors.GetByID(f.ctx, *fresh.AssignedContractorID)
	require.NoError(t, err)
	_, err = f.contractors.MarkComplete(f.ctx, job.ID, profile.UserID)
	require.NoError(t, err)

	pending := models.PayoutStatusPending
	payouts, err := f.payments.ListPayouts(f.ctx, &pending)
	require.NoError(t, err)
	require.Len(t, payouts, 1)

	_, err = f.payments.MarkPayoutPaid(f.ctx, payouts[0].ID, f.operatorID)
	require.NoError(t, err)

	payouts, err = f.payments.ListPayouts(f.ctx, &pending)
	require.NoError(t, err)
	assert.Empty(t, payouts)

	paid := models.PayoutStatusPaid
	payouts, err = f.payments.ListPayouts(f.ctx, &paid)
	require.NoError(t, err)
	assert.Len(t, payouts, 1)
}
