package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseSubscriptionStatusUnifiesSpellings(t *testing.T) {
	assert.Equal(t, SubscriptionStatusCancelled, ParseSubscriptionStatus("canceled"))
	assert.Equal(t, SubscriptionStatusCancelled, ParseSubscriptionStatus("cancelled"))
	assert.Equal(t, SubscriptionStatusActive, ParseSubscriptionStatus(" Active "))
}

func TestCanonicalMergesActiveAndAuthorized(t *testing.T) {
	assert.Equal(t, CanonicalStatusActive, SubscriptionStatusActive.Canonical())
	assert.Equal(t, CanonicalStatusActive, SubscriptionStatusAuthorized.Canonical())
	assert.Equal(t, CanonicalStatusCancelled, SubscriptionStatus("canceled").Canonical())
	assert.Equal(t, CanonicalStatusUnknown, SubscriptionStatus("weird").Canonical())
}

func TestDimensionFilterTriState(t *testing.T) {
	excluded := NoFilter()
	assert.False(t, excluded.Included())
	assert.True(t, excluded.Matches("anything"))

	all := All()
	assert.True(t, all.Included())
	assert.True(t, all.Matches("anything"))

	restricted := In("a", "b")
	assert.True(t, restricted.Included())
	assert.True(t, restricted.Matches("a"))
	assert.False(t, restricted.Matches("c"))
}
