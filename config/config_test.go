package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bridge-local-platform/internal/models"
	"bridge-local-platform/internal/services"
)

func validPlatform() PlatformConfig {
	return PlatformConfig{
		PaymentMode:                 "offline",
		RequirePaymentBeforeConfirm: true,
		MaxContractorOffers:         3,
		PayoutRate:                  0.70,
		Currency:                    "usd",
	}
}

func TestPlatformConfigValidate(t *testing.T) {
	require.NoError(t, validPlatform().Validate())

	stripe := validPlatform()
	stripe.PaymentMode = "stripe"
	require.NoError(t, stripe.Validate())

	badMode := validPlatform()
	badMode.PaymentMode = "paypal"
	err := badMode.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "payment_mode")

	empty := validPlatform()
	empty.PaymentMode = ""
	assert.Error(t, empty.Validate())

	badRate := validPlatform()
	badRate.PayoutRate = 1.5
	assert.Error(t, badRate.Validate())

	zeroRate := validPlatform()
	zeroRate.PayoutRate = 0
	assert.Error(t, zeroRate.Validate())

	noOffers := validPlatform()
	noOffers.MaxContractorOffers = 0
	assert.Error(t, noOffers.Validate())
}

// A validated config mode must convert cleanly into the typed flag the
// services consume.
func TestPlatformConfigModeMatchesServiceFlag(t *testing.T) {
	for _, mode := range []string{"stripe", "offline"} {
		p := validPlatform()
		p.PaymentMode = mode
		require.NoError(t, p.Validate())

		flags := services.PlatformFlags{PaymentMode: models.PaymentMode(p.PaymentMode)}
		assert.Equal(t, mode, string(flags.PaymentMode))
	}
}
