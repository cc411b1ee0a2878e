package jobs

import (
	"context"
	"fmt"
	"time"
)

// TimeOfDay is a local wall-clock time.
type TimeOfDay struct {
	Hour, Minute int
}

// ParseTimeOfDay accepts "HH:MM".
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return TimeOfDay{}, fmt.Errorf("time of day %q: %w", s, err)
	}
	return TimeOfDay{Hour: t.Hour(), Minute: t.Minute()}, nil
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

// reached reports whether local is at or past t on its own day.
func (t TimeOfDay) reached(local time.Time) bool {
	return local.Hour() > t.Hour || (local.Hour() == t.Hour && local.Minute() >= t.Minute)
}

// Period maps a tick to the period a job should cover: the watermark key of
// that period and the time handed to Run. ok is false when nothing is due.
// Keys of one job must sort in time order.
type Period func(local time.Time, at TimeOfDay) (key string, ref time.Time, ok bool)

// DailyJob runs at most once per period, by default once per local calendar
// day on the first tick at or after At. The key of the period it last ran for
// is kept in the watermark store.
type DailyJob struct {
	Name   string
	At     TimeOfDay
	Period Period
	Run    func(ctx context.Context, ref time.Time) error
}

func (j DailyJob) period(local time.Time) (string, time.Time, bool) {
	if j.Period == nil {
		return EveryDay(local, j.At)
	}
	return j.Period(local, j.At)
}

// EveryDay is the default Period.
func EveryDay(local time.Time, at TimeOfDay) (string, time.Time, bool) {
	if !at.reached(local) {
		return "", time.Time{}, false
	}
	return local.Format(time.DateOnly), local, true
}

// EveryMonth covers calendar months. A month is due on its last day once At is
// reached; until then the previous month is, so a month-end that passed while
// the process was down is caught up on the next tick.
func EveryMonth(local time.Time, at TimeOfDay) (string, time.Time, bool) {
	if LastDayOfMonth(local) && at.reached(local) {
		return local.Format(monthKey), local, true
	}
	prev := time.Date(local.Year(), local.Month(), 1, 12, 0, 0, 0, local.Location()).AddDate(0, -1, 0)
	return prev.Format(monthKey), prev, true
}

const monthKey = "2006-01"

// LastDayOfMonth reports whether local falls on the last day of its month.
func LastDayOfMonth(local time.Time) bool {
	return local.AddDate(0, 0, 1).Day() == 1
}
