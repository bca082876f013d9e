package activity

import "context"

// Point is one (period, distinct user count) pair.
type Point struct {
	Period string `bson:"period" json:"period"`
	Users  int    `bson:"users" json:"users"`
}

// Repository reads the per-day user activity collection.
type Repository interface {
	// DailyActiveUsers counts distinct users per day inside the window.
	DailyActiveUsers(ctx context.Context, start, end string) ([]Point, error)
	// MonthlyActiveUsers counts distinct users per month inside the window.
	MonthlyActiveUsers(ctx context.Context, start, end string) ([]Point, error)
	// TotalUsers counts distinct users seen up to the end date.
	TotalUsers(ctx context.Context, end string) (int, error)
	// NewUsersByDay counts users whose first activity falls on each day.
	NewUsersByDay(ctx context.Context, start, end string) ([]Point, error)
	// NewUsersByMonth counts users whose first activity falls in each month.
	NewUsersByMonth(ctx context.Context, start, end string) ([]Point, error)
}
