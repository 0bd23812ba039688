package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bridge-local-platform/internal/pricing"
)

// The launch catalog mirrors the categories the platform went live with.
func TestSeedCatalogSlugs(t *testing.T) {
	want := []string{"handyman", "cleaning", "assembly", "plumbing"}

	require.Len(t, seedCategories, len(want))
	for i, cat := range seedCategories {
		assert.Equal(t, want[i], cat.slug)
		assert.NotEmpty(t, cat.displayName)
		assert.NotEmpty(t, cat.description)
	}
}

// Every seeded category must have a pricing rule in the shipped abq table so
// jobs created against the launch catalog always get a suggestion.
func TestShippedPricingCoversSeedCatalog(t *testing.T) {
	src := pricing.NewFileSource("../../config/pricing")

	for _, cat := range seedCategories {
		rule, ok := src.Lookup("abq", cat.slug)
		require.True(t, ok, "no abq pricing rule for %s", cat.slug)
		assert.Positive(t, rule.BasePriceCents)

		total, platformCut, contractorCut := rule.Split()
		assert.Equal(t, total, platformCut+contractorCut)
	}
}
