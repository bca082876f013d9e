package service

import (
	"context"

	"github.com/sublytics/sublytics/internal/aggregate"
	"github.com/sublytics/sublytics/internal/api/dto"
	"github.com/sublytics/sublytics/internal/country"
	"github.com/sublytics/sublytics/internal/integration/airtable"
	"github.com/sublytics/sublytics/internal/metrics"
	"github.com/sublytics/sublytics/internal/types"
)

// funnelStageOrder fixes the onboarding funnel stages from first touch to
// conversion.
var funnelStageOrder = []string{
	airtable.StatusExpired,
	airtable.StatusEmailed,
	airtable.StatusSubscribed,
}

// OnboardingFunnelService serves the expired-checkout followup funnel.
type OnboardingFunnelService interface {
	OnboardingFunnel(ctx context.Context) (*dto.FunnelResponse, error)
}

type onboardingFunnelService struct {
	ServiceParams
}

func NewOnboardingFunnelService(params ServiceParams) OnboardingFunnelService {
	return &onboardingFunnelService{
		ServiceParams: params,
	}
}

// OnboardingFunnel reads the onboarding table and buckets every expired
// checkout session by its furthest followup stage, by country, and by day.
func (s *onboardingFunnelService) OnboardingFunnel(ctx context.Context) (*dto.FunnelResponse, error) {
	records, err := s.Airtable.ListOnboardingRecords(ctx)
	if err != nil {
		return nil, err
	}

	statuses := make([]string, 0, len(records))
	byCountry := make(map[string]int)
	var dayRows []aggregate.Row

	for _, record := range records {
		resolved := s.Resolver.ResolveReference(record.ClientReferenceID)
		byCountry[resolved]++
		statuses = append(statuses, s.furthestStage(ctx, record, resolved))

		ts, err := types.ParseTimestamp(record.CreatedAt)
		if err != nil {
			s.Logger.Warnw("onboarding record has an unparseable creation date",
				"record_id", record.ID, "created_at", record.CreatedAt)
			continue
		}
		dayRows = append(dayRows, aggregate.Row{
			Bucket:  types.GroupByDay.Bucket(ts),
			Country: resolved,
			Count:   1,
		})
	}

	funnel := metrics.Funnel(statuses, funnelStageOrder)
	perDay := &aggregate.Table{
		GroupBy: types.GroupByDay,
		Dims:    aggregate.DimSet{Country: true},
		Rows:    dayRows,
	}

	return &dto.FunnelResponse{
		Funnel: dto.FunnelChart{
			Title:   "Onboarding funnel",
			Entered: funnel.Entered,
			Stages:  funnel.Stages,
		},
		ByCountry:     dto.NewCountryCounts(byCountry),
		ExpiredPerDay: dto.NewStackedBarChart(perDay, "Expired sessions per day", "Day", countryOf),
	}, nil
}

// furthestStage walks a session's followup progress. Emails are not sent to
// the second product line's users, so those sessions cannot pass the emailed
// stage. Whether the customer eventually subscribed is answered by the card
// provider's live API; an API failure degrades that record to its last known
// stage rather than failing the tab.
func (s *onboardingFunnelService) furthestStage(ctx context.Context, record *airtable.OnboardingRecord, resolved string) string {
	if record.Status == airtable.StatusSubscribed {
		return airtable.StatusSubscribed
	}

	stage := airtable.StatusExpired
	if record.CustomerEmail != "" && resolved != country.ProductLineGo {
		stage = airtable.StatusEmailed
	}

	if record.CustomerID == "" {
		return stage
	}
	since, err := types.ParseTimestamp(record.CreatedAt)
	if err != nil {
		return stage
	}
	subscribed, err := s.CardProvider.HasActiveSubscriptionSince(ctx, record.CustomerID, since)
	if err != nil {
		s.Logger.Warnw("card provider lookup failed for onboarding record",
			"record_id", record.ID, "error", err)
		return stage
	}
	if subscribed {
		return airtable.StatusSubscribed
	}
	return stage
}
