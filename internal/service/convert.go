package service

import (
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/datatypes"

	"github.com/Leganyst/booking-calendar/internal/calendar"
	"github.com/Leganyst/booking-calendar/internal/model"
)

func slotFromModel(m *model.TimeSlot) (calendar.TimeSlot, error) {
	var raw []int
	if len(m.Weekdays) > 0 {
		if err := json.Unmarshal(m.Weekdays, &raw); err != nil {
			return calendar.TimeSlot{}, fmt.Errorf("decode weekdays of slot %s: %w", m.ID, err)
		}
	}
	days, err := calendar.NormalizeWeekdays(raw)
	if err != nil {
		return calendar.TimeSlot{}, fmt.Errorf("slot %s: %w", m.ID, err)
	}
	return calendar.TimeSlot{
		ID:         m.ID,
		CalendarID: m.CalendarID,
		Range: calendar.TimeRange{
			Start: calendar.TimeOfDay(m.StartTime),
			End:   calendar.TimeOfDay(m.EndTime),
		},
		Weekdays: days,
	}, nil
}

func slotsFromModels(ms []model.TimeSlot) ([]calendar.TimeSlot, error) {
	out := make([]calendar.TimeSlot, 0, len(ms))
	for i := range ms {
		s, err := slotFromModel(&ms[i])
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

func weekdaysJSON(days calendar.WeekdaySet) (datatypes.JSON, error) {
	b, err := json.Marshal(days.Ints())
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(b), nil
}

func bookingFromModel(m *model.Booking) calendar.Booking {
	b := calendar.Booking{
		ID:          m.ID,
		GuestID:     m.GuestID,
		TimeSlotID:  m.TimeSlotID,
		When:        calendar.DateOf(time.Time(m.WhenDate)),
		Topic:       m.Topic,
		Description: m.Description,
		Status:      calendar.AttendanceStatus(m.AttendanceStatus),
	}
	if m.TimeSlot != nil {
		b.CalendarID = m.TimeSlot.CalendarID
	}
	if m.ExternalEventID != nil {
		b.ExternalEventID = *m.ExternalEventID
	}
	return b
}

func bookingToModel(b *calendar.Booking) *model.Booking {
	m := &model.Booking{
		ID:               b.ID,
		GuestID:          b.GuestID,
		WhenDate:         datatypes.Date(calendar.DateOf(b.When)),
		TimeSlotID:       b.TimeSlotID,
		Topic:            b.Topic,
		Description:      b.Description,
		AttendanceStatus: model.AttendanceStatus(b.Status),
	}
	if b.ExternalEventID != "" {
		id := b.ExternalEventID
		m.ExternalEventID = &id
	}
	return m
}
