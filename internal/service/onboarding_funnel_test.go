package service

import (
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/sublytics/sublytics/internal/country"
	ierr "github.com/sublytics/sublytics/internal/errors"
	"github.com/sublytics/sublytics/internal/integration/airtable"
	"github.com/sublytics/sublytics/internal/testutil"
)

type OnboardingFunnelServiceSuite struct {
	testutil.BaseServiceTestSuite
	service      OnboardingFunnelService
	airtable     *testutil.FakeAirtable
	cardProvider *testutil.FakeCardProvider
}

func TestOnboardingFunnelService(t *testing.T) {
	suite.Run(t, new(OnboardingFunnelServiceSuite))
}

func (s *OnboardingFunnelServiceSuite) SetupTest() {
	s.BaseServiceTestSuite.SetupTest()
	s.airtable = &testutil.FakeAirtable{}
	s.cardProvider = testutil.NewFakeCardProvider()

	s.service = NewOnboardingFunnelService(ServiceParams{
		Logger:       s.GetLogger(),
		Config:       s.GetConfig(),
		Airtable:     s.airtable,
		CardProvider: s.cardProvider,
		Resolver:     country.NewResolver(s.GetLogger()),
	})
}

func (s *OnboardingFunnelServiceSuite) TestOnboardingFunnelStages() {
	s.airtable.Records = []*airtable.OnboardingRecord{
		// no email yet, stays expired
		{ID: "r1", ClientReferenceID: "w" + argPhone, Status: airtable.StatusExpired, CreatedAt: "2025-01-05T10:00:00.000Z"},
		// emailed but never converted
		{ID: "r2", ClientReferenceID: "w" + spainPhone, CustomerEmail: "a@b.com", Status: airtable.StatusEmailed, CreatedAt: "2025-01-05T11:00:00.000Z"},
		// second product line users get no email, so the stage caps at expired
		{ID: "r3", ClientReferenceID: "u12345", CustomerEmail: "c@d.com", Status: airtable.StatusExpired, CreatedAt: "2025-01-06T09:00:00.000Z"},
		// stored status short circuits the live lookup
		{ID: "r4", ClientReferenceID: "w" + argPhone, Status: airtable.StatusSubscribed, CreatedAt: "2025-01-06T10:00:00.000Z"},
		// converted per the card provider's live API
		{ID: "r5", ClientReferenceID: "w" + spainPhone, CustomerEmail: "e@f.com", CustomerID: "cus_1", Status: airtable.StatusEmailed, CreatedAt: "2025-01-07T10:00:00.000Z"},
	}
	s.cardProvider.Subscribed["cus_1"] = true

	resp, err := s.service.OnboardingFunnel(s.GetContext())
	s.NoError(err)

	s.Equal(5, resp.Funnel.Entered)
	s.Require().Len(resp.Funnel.Stages, 3)
	s.Equal(airtable.StatusExpired, resp.Funnel.Stages[0].Name)
	s.Equal(2, resp.Funnel.Stages[0].Count)
	s.Equal(airtable.StatusEmailed, resp.Funnel.Stages[1].Name)
	s.Equal(1, resp.Funnel.Stages[1].Count)
	s.Equal(airtable.StatusSubscribed, resp.Funnel.Stages[2].Name)
	s.Equal(2, resp.Funnel.Stages[2].Count)

	byCountry := make(map[string]int)
	for _, point := range resp.ByCountry {
		byCountry[point.Country] = point.Count
	}
	s.Equal(2, byCountry["Argentina"])
	s.Equal(2, byCountry["Spain"])
	s.Equal(1, byCountry[country.ProductLineGo])

	s.Equal([]string{"2025-01-05", "2025-01-06", "2025-01-07"}, resp.ExpiredPerDay.Labels)
}

func (s *OnboardingFunnelServiceSuite) TestOnboardingFunnelDegradesOnProviderFailure() {
	s.airtable.Records = []*airtable.OnboardingRecord{
		{ID: "r1", ClientReferenceID: "w" + argPhone, CustomerEmail: "a@b.com", CustomerID: "cus_1", Status: airtable.StatusEmailed, CreatedAt: "2025-01-05T10:00:00.000Z"},
	}
	s.cardProvider.Err = ierr.NewError("card provider unreachable").Mark(ierr.ErrHTTPClient)

	resp, err := s.service.OnboardingFunnel(s.GetContext())
	s.NoError(err)

	// the lookup failure degrades the record to its last known stage
	s.Equal(1, resp.Funnel.Stages[1].Count)
	s.Equal(0, resp.Funnel.Stages[2].Count)
}

func (s *OnboardingFunnelServiceSuite) TestOnboardingFunnelSkipsBadDatesFromDayChart() {
	s.airtable.Records = []*airtable.OnboardingRecord{
		{ID: "r1", ClientReferenceID: "w" + argPhone, Status: airtable.StatusExpired, CreatedAt: "not a date"},
		{ID: "r2", ClientReferenceID: "w" + argPhone, Status: airtable.StatusExpired, CreatedAt: "2025-01-05T10:00:00.000Z"},
	}

	resp, err := s.service.OnboardingFunnel(s.GetContext())
	s.NoError(err)

	// the bad row still counts in the funnel, just not in the day chart
	s.Equal(2, resp.Funnel.Entered)
	s.Equal([]string{"2025-01-05"}, resp.ExpiredPerDay.Labels)
}

func (s *OnboardingFunnelServiceSuite) TestOnboardingFunnelTableFailure() {
	s.airtable.Err = ierr.NewError("onboarding table unreachable").Mark(ierr.ErrHTTPClient)
	_, err := s.service.OnboardingFunnel(s.GetContext())
	s.Error(err)
}
