package calsync

import (
	"time"

	"github.com/Leganyst/booking-calendar/internal/calendar"
)

// allDayEnd: событие на весь день занимает 00:00-23:59.
var allDayEnd = calendar.NewTimeOfDay(23, 59)

// BusyTime: занятое время хоста из внешнего календаря, в тех же единицах,
// что и слоты: дата, интервал времени суток и день недели.
type BusyTime struct {
	EventID  string
	When     time.Time
	Range    calendar.TimeRange
	Weekdays calendar.WeekdaySet
}

// Busy переводит событие в занятое время в часовом поясе loc.
// Событие, переходящее через полночь, обрезается концом первых суток.
// ok == false для событий нулевой длины.
func (ev Event) Busy(loc *time.Location) (BusyTime, bool) {
	var (
		when       time.Time
		start, end calendar.TimeOfDay
	)
	if ev.AllDay {
		when = calendar.DateOf(ev.Start)
		end = allDayEnd
	} else {
		s, e := ev.Start.In(loc), ev.End.In(loc)
		when = calendar.DateOf(s)
		start = sinceMidnight(s)
		if calendar.DateOf(e).After(when) {
			end = calendar.TimeOfDay(24 * time.Hour)
		} else {
			end = sinceMidnight(e)
		}
	}
	r, err := calendar.NewTimeRange(start, end)
	if err != nil {
		return BusyTime{}, false
	}
	return BusyTime{
		EventID:  ev.ID,
		When:     when,
		Range:    r,
		Weekdays: calendar.WeekdaySet{calendar.WeekdayOf(when)},
	}, true
}

func sinceMidnight(t time.Time) calendar.TimeOfDay {
	return calendar.NewTimeOfDay(t.Hour(), t.Minute()) + calendar.TimeOfDay(time.Duration(t.Second())*time.Second)
}
