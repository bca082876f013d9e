package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sublytics/sublytics/internal/country"
	"github.com/sublytics/sublytics/internal/domain/subscription"
	"github.com/sublytics/sublytics/internal/logger"
)

func TestFillDefaultProvider(t *testing.T) {
	batch := &subscription.Batch{
		Records: []*subscription.Record{
			{Provider: ""},
			{Provider: "stripe"},
			{Provider: ""},
		},
		Columns: map[string]bool{"provider": true},
	}

	require.NoError(t, FillDefaultProvider(batch))
	assert.Equal(t, "mp", batch.Records[0].Provider)
	assert.Equal(t, "stripe", batch.Records[1].Provider)
	assert.Equal(t, "mp", batch.Records[2].Provider)
}

func TestFillDefaultProviderMissingColumn(t *testing.T) {
	batch := &subscription.Batch{
		Records: []*subscription.Record{{Provider: ""}},
		Columns: map[string]bool{"status": true},
	}
	assert.Error(t, FillDefaultProvider(batch))
}

func TestAssignCountries(t *testing.T) {
	batch := &subscription.Batch{
		Records: []*subscription.Record{
			{AccountID: "12345", Source: "t"},
			{AccountID: "5491155551234", Source: "w"},
			{AccountID: "garbage", Source: "w"},
		},
		Columns: map[string]bool{},
	}

	AssignCountries(batch, country.NewResolver(logger.GetLogger()))

	assert.Equal(t, country.Telegram, batch.Records[0].Country)
	assert.Equal(t, "Argentina", batch.Records[1].Country)
	assert.Equal(t, country.InvalidNumber, batch.Records[2].Country)
	assert.True(t, batch.HasColumn("country"))
}

func TestClassifyPlanFirstMatchWins(t *testing.T) {
	// gift source outranks everything, including a discount reason
	giftAndDiscount := &subscription.Record{Source: "gift", Reason: "discount", Provider: "mp_discount"}
	assert.Equal(t, PlanTypeFree, ClassifyPlan(giftAndDiscount))

	// reason outranks provider
	discountReasonFreeProvider := &subscription.Record{Reason: "20% off promo", Provider: "free"}
	assert.Equal(t, PlanTypeDiscount, ClassifyPlan(discountReasonFreeProvider))
}

func TestClassifyPlanRules(t *testing.T) {
	cases := []struct {
		record *subscription.Record
		want   string
	}{
		{&subscription.Record{Source: "gift"}, PlanTypeFree},
		{&subscription.Record{Reason: "ScribeMe Plus discount"}, PlanTypeDiscount},
		{&subscription.Record{Reason: "ScribeMe Plus 10d"}, PlanTypeDiscount},
		{&subscription.Record{Reason: "free"}, PlanTypeFree},
		{&subscription.Record{Provider: "free"}, PlanTypeFree},
		{&subscription.Record{Provider: "manual"}, PlanTypeManual},
		{&subscription.Record{Provider: "mp_discount"}, PlanTypeDiscount},
		{&subscription.Record{Provider: "mp", Reason: "ScribeMe Plus"}, PlanTypeOther},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, ClassifyPlan(tc.record))
	}
}

func TestClassifyPlanIsTotal(t *testing.T) {
	assert.Equal(t, PlanTypeOther, ClassifyPlan(&subscription.Record{}))
}
