package calendar

import (
	"fmt"
	"slices"
	"time"
)

// Weekday: день недели в нумерации ядра: 0 = понедельник … 6 = воскресенье.
type Weekday int

const (
	Monday Weekday = iota
	Tuesday
	Wednesday
	Thursday
	Friday
	Saturday
	Sunday
)

// WeekdayOf переводит time.Weekday (воскресенье = 0) в нумерацию с понедельника.
func WeekdayOf(t time.Time) Weekday {
	return Weekday((int(t.Weekday()) + 6) % 7)
}

// Weekday возвращает соответствующий time.Weekday.
func (d Weekday) Weekday() time.Weekday {
	return time.Weekday((int(d) + 1) % 7)
}

// WeekdaySet: отсортированный набор дней недели без повторов.
type WeekdaySet []Weekday

// NormalizeWeekdays проверяет диапазон и схлопывает дубликаты.
func NormalizeWeekdays(raw []int) (WeekdaySet, error) {
	set := make(WeekdaySet, 0, len(raw))
	for _, v := range raw {
		if v < 0 || v > 6 {
			return nil, fmt.Errorf("%w: got %d", ErrInvalidWeekday, v)
		}
		set = append(set, Weekday(v))
	}
	slices.Sort(set)
	return slices.Compact(set), nil
}

// Contains сообщает, входит ли день в набор.
func (s WeekdaySet) Contains(d Weekday) bool {
	for _, v := range s {
		if v == d {
			return true
		}
	}
	return false
}

// Intersects: true, если у наборов есть хотя бы один общий день.
func Intersects(a, b WeekdaySet) bool {
	var mask uint8
	for _, d := range a {
		mask |= 1 << uint(d)
	}
	for _, d := range b {
		if mask&(1<<uint(d)) != 0 {
			return true
		}
	}
	return false
}

// Ints возвращает набор как []int (для хранения в JSON-колонке).
func (s WeekdaySet) Ints() []int {
	out := make([]int, len(s))
	for i, d := range s {
		out[i] = int(d)
	}
	return out
}
