package scheduler

import (
	"fmt"
	"time"
)

// IntervalSchedule schedules a job to run at a fixed interval.
type IntervalSchedule struct {
	Interval time.Duration
}

// NewIntervalSchedule creates a new IntervalSchedule.
func NewIntervalSchedule(interval time.Duration) *IntervalSchedule {
	return &IntervalSchedule{Interval: interval}
}

// Next returns the next scheduled time.
func (s *IntervalSchedule) Next(t time.Time) time.Time {
	return t.Add(s.Interval)
}

func (s *IntervalSchedule) String() string {
	return fmt.Sprintf("@every %s", s.Interval)
}

// DailySchedule fires once a day at a wall-clock time in the location of
// the time passed to Next.
type DailySchedule struct {
	Hour   int
	Minute int
}

// ParseDaily parses "HH:MM".
func ParseDaily(value string) (*DailySchedule, error) {
	t, err := time.Parse("15:04", value)
	if err != nil {
		return nil, fmt.Errorf("daily schedule %q: %w", value, err)
	}
	return &DailySchedule{Hour: t.Hour(), Minute: t.Minute()}, nil
}

// Next returns the first matching time strictly after t.
func (s *DailySchedule) Next(t time.Time) time.Time {
	next := time.Date(t.Year(), t.Month(), t.Day(), s.Hour, s.Minute, 0, 0, t.Location())
	if !next.After(t) {
		next = time.Date(t.Year(), t.Month(), t.Day()+1, s.Hour, s.Minute, 0, 0, t.Location())
	}
	return next
}

func (s *DailySchedule) String() string {
	return fmt.Sprintf("@daily %02d:%02d", s.Hour, s.Minute)
}
