package calendar

import (
	"context"

	"github.com/google/uuid"
)

// TimeSlot: повторяющееся еженедельное окно доступности хоста.
type TimeSlot struct {
	ID         uuid.UUID
	CalendarID uuid.UUID
	Range      TimeRange
	Weekdays   WeekdaySet
}

// Offers сообщает, доступен ли слот в указанный день недели.
func (s TimeSlot) Offers(d Weekday) bool {
	return s.Weekdays.Contains(d)
}

// SlotsOverlap: окна конфликтуют, если делят день недели и пересекаются по времени.
func SlotsOverlap(a, b TimeSlot) bool {
	return Intersects(a.Weekdays, b.Weekdays) && a.Range.Overlaps(b.Range)
}

// HasOverlap проверяет предлагаемое окно против существующих слотов календаря.
func HasOverlap(proposed TimeSlot, existing []TimeSlot) bool {
	for _, slot := range existing {
		if SlotsOverlap(proposed, slot) {
			return true
		}
	}
	return false
}

// OverlapChecker решает, конфликтует ли новое окно с окнами календаря.
// Реализации: MemoryOverlapChecker (линейный проход в процессе) и
// запрос к БД в пакете repository; результаты обязаны совпадать.
type OverlapChecker interface {
	Overlaps(ctx context.Context, calendarID uuid.UUID, r TimeRange, days WeekdaySet) (bool, error)
}

// SlotLister: источник слотов календаря.
type SlotLister interface {
	ListTimeSlots(ctx context.Context, calendarID uuid.UUID) ([]TimeSlot, error)
}

// MemoryOverlapChecker загружает слоты календаря и сравнивает их в памяти.
type MemoryOverlapChecker struct {
	Slots SlotLister
}

func (c MemoryOverlapChecker) Overlaps(ctx context.Context, calendarID uuid.UUID, r TimeRange, days WeekdaySet) (bool, error) {
	existing, err := c.Slots.ListTimeSlots(ctx, calendarID)
	if err != nil {
		return false, err
	}
	return HasOverlap(TimeSlot{Range: r, Weekdays: days}, existing), nil
}
