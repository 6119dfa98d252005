package calendar

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/teambition/rrule-go"
)

// ValidateYearMonth проверяет год и месяц запроса помесячного календаря.
func ValidateYearMonth(year, month int) error {
	if year < 1 || year > 9999 || month < 1 || month > 12 {
		return ErrInvalidYearMonth
	}
	return nil
}

// MonthRange возвращает первый и последний день месяца.
func MonthRange(year, month int) (time.Time, time.Time, error) {
	if err := ValidateYearMonth(year, month); err != nil {
		return time.Time{}, time.Time{}, err
	}
	first := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	return first, first.AddDate(0, 1, -1), nil
}

// MonthGrid раскладывает месяц по неделям, начиная с воскресенья:
// дни до первого числа заполняются нулями, дальше идут числа месяца.
func MonthGrid(year, month int) ([]int, error) {
	first, last, err := MonthRange(year, month)
	if err != nil {
		return nil, err
	}
	lead := int(first.Weekday())
	grid := make([]int, lead, lead+last.Day())
	for d := 1; d <= last.Day(); d++ {
		grid = append(grid, d)
	}
	return grid, nil
}

var rruleWeekdays = [7]rrule.Weekday{rrule.MO, rrule.TU, rrule.WE, rrule.TH, rrule.FR, rrule.SA, rrule.SU}

// BookableDate: дата, на которую можно забронировать слот.
type BookableDate struct {
	Date   time.Time
	SlotID uuid.UUID
	Range  TimeRange
}

// BookableDates разворачивает еженедельные слоты в конкретные даты месяца.
// Даты раньше today отбрасываются.
func BookableDates(slots []TimeSlot, year, month int, today time.Time) ([]BookableDate, error) {
	first, last, err := MonthRange(year, month)
	if err != nil {
		return nil, err
	}
	today = DateOf(today)
	if today.After(first) {
		first = today
	}
	if first.After(last) {
		return []BookableDate{}, nil
	}

	out := make([]BookableDate, 0)
	for _, slot := range slots {
		if len(slot.Weekdays) == 0 {
			continue
		}
		days := make([]rrule.Weekday, 0, len(slot.Weekdays))
		for _, d := range slot.Weekdays {
			days = append(days, rruleWeekdays[d])
		}
		rule, err := rrule.NewRRule(rrule.ROption{
			Freq:      rrule.WEEKLY,
			Dtstart:   first,
			Until:     last,
			Byweekday: days,
		})
		if err != nil {
			return nil, err
		}
		for _, occ := range rule.All() {
			out = append(out, BookableDate{Date: DateOf(occ), SlotID: slot.ID, Range: slot.Range})
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].Range.Start < out[j].Range.Start
	})
	return out, nil
}
