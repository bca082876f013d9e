package service

import (
	"context"

	"github.com/sublytics/sublytics/internal/api/dto"
	"github.com/sublytics/sublytics/internal/domain/activity"
	"github.com/sublytics/sublytics/internal/metrics"
)

// UserAnalyticsService serves the product usage dashboard: daily and monthly
// active users plus new user arrival series.
type UserAnalyticsService interface {
	UserMetrics(ctx context.Context, req *dto.AnalyticsRequest) (*dto.UserMetricsResponse, error)
}

type userAnalyticsService struct {
	ServiceParams
}

func NewUserAnalyticsService(params ServiceParams) UserAnalyticsService {
	return &userAnalyticsService{
		ServiceParams: params,
	}
}

func (s *userAnalyticsService) UserMetrics(ctx context.Context, req *dto.AnalyticsRequest) (*dto.UserMetricsResponse, error) {
	window, err := req.Window()
	if err != nil {
		return nil, err
	}

	daily, err := s.ActivityRepo.DailyActiveUsers(ctx, window.Start, window.End)
	if err != nil {
		return nil, err
	}
	monthly, err := s.ActivityRepo.MonthlyActiveUsers(ctx, window.Start, window.End)
	if err != nil {
		return nil, err
	}
	total, err := s.ActivityRepo.TotalUsers(ctx, window.End)
	if err != nil {
		return nil, err
	}
	newByDay, err := s.ActivityRepo.NewUsersByDay(ctx, window.Start, window.End)
	if err != nil {
		return nil, err
	}
	newByMonth, err := s.ActivityRepo.NewUsersByMonth(ctx, window.Start, window.End)
	if err != nil {
		return nil, err
	}

	return &dto.UserMetricsResponse{
		TotalUsers:      total,
		Daily:           daily,
		Monthly:         monthly,
		NewUsersByDay:   newByDay,
		NewUsersByMonth: newByMonth,
		AverageDaily:    metrics.AverageOrZero(pointCounts(daily)),
	}, nil
}

func pointCounts(points []activity.Point) map[string]int {
	counts := make(map[string]int, len(points))
	for _, point := range points {
		counts[point.Period] = point.Users
	}
	return counts
}
