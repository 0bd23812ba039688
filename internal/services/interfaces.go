package services

import (
	"context"

	"bridge-local-platform/internal/storage"
)

// Repos bundles every repository the services need. Wiring one struct keeps
// the constructors readable; tests fill it from the in-memory store.
type Repos struct {
	Users             storage.UserRepository
	Cities            storage.CityRepository
	ServiceCategories storage.ServiceCategoryRepository
	Jobs              storage.JobRepository
	JobEvents         storage.JobEventRepository
	Contractors       storage.ContractorRepository
	Quotes            storage.QuoteRepository
	Payments          storage.PaymentRepository
	Payouts           storage.PayoutRepository
	Notifications     storage.NotificationRepository
}

// CheckoutSession is the gateway's handle on a hosted payment page.
type CheckoutSession struct {
	ID              string
	PaymentIntentID string
	URL             string
}

// WebhookEvent is a verified gateway callback.
type WebhookEvent struct {
	Type              string
	CheckoutSessionID string
	PaymentIntentID   string
}

// PaymentGateway abstracts the hosted-checkout provider. Only the stripe
// payment mode touches it.
type PaymentGateway interface {
	// CreateCheckoutSession opens a hosted checkout for the given amount in
	// minor units. Metadata is echoed back on the webhook for correlation.
	CreateCheckoutSession(ctx context.Context, amountCents int64, currency string, metadata map[string]string) (*CheckoutSession, error)
	// VerifyWebhook authenticates a raw webhook delivery against the signing
	// secret. Verification failure must reject the event, never process it.
	VerifyWebhook(payload []byte, signature string) (*WebhookEvent, error)
}

// Mailer delivers best-effort email. Failures are always swallowed by the
// caller; delivery is advisory, never load-bearing.
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}
