package types

import (
	"strings"
	"time"

	ierr "github.com/sublytics/sublytics/internal/errors"
)

// GroupBy selects the time bucket granularity for aggregations.
type GroupBy string

const (
	GroupByDay   GroupBy = "day"
	GroupByMonth GroupBy = "month"
)

// ParseGroupBy validates a user supplied grouping keyword.
func ParseGroupBy(raw string) (GroupBy, error) {
	switch GroupBy(strings.ToLower(strings.TrimSpace(raw))) {
	case GroupByDay:
		return GroupByDay, nil
	case GroupByMonth:
		return GroupByMonth, nil
	default:
		return "", ierr.NewErrorf("invalid group_by %q", raw).
			WithHint("group_by must be 'day' or 'month'").
			Mark(ierr.ErrValidation)
	}
}

const (
	BucketLayoutDay   = "2006-01-02"
	BucketLayoutMonth = "2006-01"
)

// Bucket truncates a timestamp to its calendar bucket key. Day buckets are
// formatted YYYY-MM-DD, month buckets YYYY-MM.
func (g GroupBy) Bucket(t time.Time) string {
	if g == GroupByMonth {
		return t.Format(BucketLayoutMonth)
	}
	return t.Format(BucketLayoutDay)
}

// timestampLayouts are the date spellings observed in stored records and
// uploaded files, tried in order.
var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	BucketLayoutDay,
	BucketLayoutMonth,
}

// ParseTimestamp parses a stored timestamp string. All timestamps are
// interpreted in UTC; offset-less values are assumed UTC.
func ParseTimestamp(raw string) (time.Time, error) {
	s := strings.TrimSpace(raw)
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, ierr.NewErrorf("unparseable timestamp %q", raw).
		WithHint("timestamps must be ISO dates or datetimes").
		Mark(ierr.ErrValidation)
}

// DateWindow is a half-open [Start, End+1d) date range expressed as
// YYYY-MM-DD strings, the format the UI date picker emits.
type DateWindow struct {
	Start string
	End   string
}

// Bounds returns the UTC instants covered by the window. The end date is
// inclusive, so the upper bound is the midnight after it.
func (w DateWindow) Bounds() (time.Time, time.Time, error) {
	start, err := time.Parse(BucketLayoutDay, w.Start)
	if err != nil {
		return time.Time{}, time.Time{}, ierr.NewErrorf("invalid start date %q", w.Start).
			WithHint("dates must be YYYY-MM-DD").
			Mark(ierr.ErrValidation)
	}
	end, err := time.Parse(BucketLayoutDay, w.End)
	if err != nil {
		return time.Time{}, time.Time{}, ierr.NewErrorf("invalid end date %q", w.End).
			WithHint("dates must be YYYY-MM-DD").
			Mark(ierr.ErrValidation)
	}
	if end.Before(start) {
		return time.Time{}, time.Time{}, ierr.NewError("end date before start date").
			WithHint("the date range is inverted").
			Mark(ierr.ErrValidation)
	}
	return start.UTC(), end.AddDate(0, 0, 1).UTC(), nil
}

// Validate checks the window without returning the bounds.
func (w DateWindow) Validate() error {
	_, _, err := w.Bounds()
	return err
}

// BoundLiteral formats a window bound the way timestamps are stored: an ISO
// instant with a Z offset. All stored window comparisons use UTC.
func BoundLiteral(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000Z")
}

// LastMonthWindow returns the previous calendar month as an inclusive date
// window, from its first day to its last.
func LastMonthWindow(now time.Time) DateWindow {
	firstOfThisMonth := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	firstOfLastMonth := firstOfThisMonth.AddDate(0, -1, 0)
	return DateWindow{
		Start: firstOfLastMonth.Format(BucketLayoutDay),
		End:   firstOfThisMonth.AddDate(0, 0, -1).Format(BucketLayoutDay),
	}
}
