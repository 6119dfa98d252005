package calendar

import (
	"fmt"
	"time"
)

// TimeOfDay: время суток как смещение от полуночи, без даты.
type TimeOfDay time.Duration

// NewTimeOfDay собирает время суток из часов и минут.
func NewTimeOfDay(hour, minute int) TimeOfDay {
	return TimeOfDay(time.Duration(hour)*time.Hour + time.Duration(minute)*time.Minute)
}

// ParseTimeOfDay разбирает "15:04" или "15:04:05". "24:00": конец суток.
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	if s == "24:00" || s == "24:00:00" {
		return TimeOfDay(24 * time.Hour), nil
	}
	for _, layout := range []string{"15:04", "15:04:05"} {
		t, err := time.Parse(layout, s)
		if err == nil {
			return NewTimeOfDay(t.Hour(), t.Minute()) + TimeOfDay(time.Duration(t.Second())*time.Second), nil
		}
	}
	return 0, fmt.Errorf("parse time of day %q: %w", s, ErrInvalidTimeRange)
}

func (t TimeOfDay) String() string {
	d := time.Duration(t)
	h := d / time.Hour
	m := (d % time.Hour) / time.Minute
	s := (d % time.Minute) / time.Second
	if s != 0 {
		return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%02d:%02d", h, m)
}

// On возвращает момент времени для даты day в часовом поясе loc.
func (t TimeOfDay) On(day time.Time, loc *time.Location) time.Time {
	y, m, d := day.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc).Add(time.Duration(t))
}

// TimeRange представляет интервал времени суток [Start, End).
type TimeRange struct {
	Start TimeOfDay
	End   TimeOfDay
}

// NewTimeRange создаёт интервал; начало должно быть строго раньше конца.
func NewTimeRange(start, end TimeOfDay) (TimeRange, error) {
	if start < 0 || end > TimeOfDay(24*time.Hour) || start >= end {
		return TimeRange{}, ErrInvalidTimeRange
	}
	return TimeRange{Start: start, End: end}, nil
}

// Overlaps: полуоткрытые интервалы пересекаются, если a.Start < b.End && b.Start < a.End.
// Касание концами пересечением не считается.
func (a TimeRange) Overlaps(b TimeRange) bool {
	return a.Start < b.End && b.Start < a.End
}
