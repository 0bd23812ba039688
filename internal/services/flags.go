package services

import "bridge-local-platform/internal/models"

// PlatformFlags is the resolved snapshot of platform behavior switches. It is
// built once from config at startup and injected; services never read config
// directly.
type PlatformFlags struct {
	// PaymentMode selects stripe checkout or offline settlement for the whole
	// platform. It is not a per-job setting.
	PaymentMode models.PaymentMode
	// RequirePaymentBeforeConfirm gates the awaiting_payment status. When off,
	// quote approval drives the job straight to confirmed.
	RequirePaymentBeforeConfirm bool
	// MaxContractorOffers caps how many eligible contractors are notified of
	// a new job.
	MaxContractorOffers int
	// PayoutRate is the contractor's share of the latest quote total.
	PayoutRate float64
	// SandboxMode marks jobs created by the simulation endpoint as test data.
	SandboxMode bool
	Currency    string
}

// DefaultPlatformFlags returns the documented defaults.
func DefaultPlatformFlags() PlatformFlags {
	return PlatformFlags{
		PaymentMode:                 models.PaymentModeOffline,
		RequirePaymentBeforeConfirm: true,
		MaxContractorOffers:         3,
		PayoutRate:                  0.70,
		Currency:                    "usd",
	}
}
