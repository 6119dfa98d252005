package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/Leganyst/booking-calendar/internal/calendar"
	"github.com/Leganyst/booking-calendar/internal/logging"
	"github.com/Leganyst/booking-calendar/internal/model"
	"github.com/Leganyst/booking-calendar/internal/repository"
)

const minDescriptionLen = 10

// CalendarInput: данные для создания календаря.
type CalendarInput struct {
	Topics             []string
	Description        string
	ExternalCalendarID string
}

// CalendarPatch: частичное изменение календаря; nil-поля не меняются.
type CalendarPatch struct {
	Topics             []string
	Description        *string
	ExternalCalendarID *string
}

// CalendarView: календарь хоста. Для чужих глаз заполнены только темы и описание.
type CalendarView struct {
	ID           uuid.UUID
	HostID       uuid.UUID
	HostUsername string
	Topics       []string
	Description  string
	Owner        bool

	ExternalCalendarID string
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

type CalendarService struct {
	db   *gorm.DB
	opts Options
}

func NewCalendarService(db *gorm.DB, opts Options) *CalendarService {
	return &CalendarService{db: db, opts: opts}
}

// CreateCalendar создаёт единственный календарь хоста.
func (s *CalendarService) CreateCalendar(ctx context.Context, requesterID uuid.UUID, in CalendarInput) (*CalendarView, error) {
	topics, err := normalizeTopics(in.Topics)
	if err != nil {
		return nil, err
	}
	if err := validateDescription(in.Description); err != nil {
		return nil, err
	}

	var out *CalendarView
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		host, err := requireHost(ctx, tx, requesterID)
		if err != nil {
			return err
		}
		calendars := repository.NewGormCalendarRepository(tx)
		if _, err := calendars.GetByHostID(ctx, host.ID); err == nil {
			return calendar.ErrCalendarExists
		} else if !notFound(err) {
			return err
		}

		cal := &model.Calendar{
			HostID:             host.ID,
			Topics:             datatypes.JSONSlice[string](topics),
			Description:        strings.TrimSpace(in.Description),
			ExternalCalendarID: in.ExternalCalendarID,
		}
		if err := calendars.Create(ctx, cal); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return calendar.ErrCalendarExists
			}
			return err
		}
		out = calendarView(cal, host, true)
		return nil
	})
	if err != nil {
		return nil, err
	}
	logging.FromContext(ctx).Info("calendar created", "calendar_id", out.ID, "host_id", out.HostID)
	return out, nil
}

// GetHostCalendar возвращает календарь хоста. Владелец видит все поля.
func (s *CalendarService) GetHostCalendar(ctx context.Context, hostUsername string, viewerID uuid.UUID) (*CalendarView, error) {
	host, err := repository.NewGormUserRepository(s.db).FindByUsername(ctx, hostUsername)
	if notFound(err) {
		return nil, calendar.ErrHostNotFound
	}
	if err != nil {
		return nil, err
	}
	if !host.IsHost || !host.IsActive() {
		return nil, calendar.ErrHostNotFound
	}

	cal, err := repository.NewGormCalendarRepository(s.db).GetByHostID(ctx, host.ID)
	if notFound(err) {
		return nil, calendar.ErrCalendarNotFound
	}
	if err != nil {
		return nil, err
	}
	return calendarView(cal, host, host.ID == viewerID), nil
}

// UpdateCalendar меняет календарь его владельцем.
func (s *CalendarService) UpdateCalendar(ctx context.Context, requesterID uuid.UUID, patch CalendarPatch) (*CalendarView, error) {
	var out *CalendarView
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		host, err := requireHost(ctx, tx, requesterID)
		if err != nil {
			return err
		}
		calendars := repository.NewGormCalendarRepository(tx)
		cal, err := calendars.GetByHostID(ctx, host.ID)
		if notFound(err) {
			return calendar.ErrCalendarNotFound
		}
		if err != nil {
			return err
		}

		if patch.Topics != nil {
			topics, err := normalizeTopics(patch.Topics)
			if err != nil {
				return err
			}
			cal.Topics = datatypes.JSONSlice[string](topics)
		}
		if patch.Description != nil {
			if err := validateDescription(*patch.Description); err != nil {
				return err
			}
			cal.Description = strings.TrimSpace(*patch.Description)
		}
		if patch.ExternalCalendarID != nil {
			cal.ExternalCalendarID = *patch.ExternalCalendarID
		}
		if err := calendars.Update(ctx, cal); err != nil {
			return err
		}
		out = calendarView(cal, host, true)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// CreateTimeSlot добавляет еженедельный слот в календарь хоста.
func (s *CalendarService) CreateTimeSlot(
	ctx context.Context,
	requesterID uuid.UUID,
	start, end calendar.TimeOfDay,
	weekdays []int,
) (*calendar.TimeSlot, error) {
	var out *calendar.TimeSlot
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		host, err := requireHost(ctx, tx, requesterID)
		if err != nil {
			return err
		}
		cal, err := repository.NewGormCalendarRepository(tx).GetByHostID(ctx, host.ID)
		if notFound(err) {
			return calendar.ErrCalendarNotFound
		}
		if err != nil {
			return err
		}

		r, err := calendar.NewTimeRange(start, end)
		if err != nil {
			return err
		}
		days, err := calendar.NormalizeWeekdays(weekdays)
		if err != nil {
			return err
		}
		if len(days) == 0 {
			return calendar.ErrEmptyWeekdays
		}

		overlaps, err := overlapChecker(s.opts.OverlapMode, tx).Overlaps(ctx, cal.ID, r, days)
		if err != nil {
			return err
		}
		if overlaps {
			return calendar.ErrTimeSlotOverlap
		}

		raw, err := weekdaysJSON(days)
		if err != nil {
			return err
		}
		m := &model.TimeSlot{
			CalendarID: cal.ID,
			StartTime:  datatypes.Time(r.Start),
			EndTime:    datatypes.Time(r.End),
			Weekdays:   raw,
		}
		if err := repository.NewGormSlotRepository(tx).Create(ctx, m); err != nil {
			return err
		}
		out = &calendar.TimeSlot{ID: m.ID, CalendarID: cal.ID, Range: r, Weekdays: days}
		return nil
	})
	if err != nil {
		return nil, err
	}
	logging.FromContext(ctx).Info("time slot created",
		"time_slot_id", out.ID, "calendar_id", out.CalendarID,
		"start", out.Range.Start.String(), "end", out.Range.End.String(), "weekdays", out.Weekdays.Ints())
	return out, nil
}

// ListTimeSlots: слоты календаря хоста по времени начала.
func (s *CalendarService) ListTimeSlots(ctx context.Context, hostUsername string) ([]calendar.TimeSlot, error) {
	st := newStore(s.db)
	host, err := findCalendarHost(ctx, st, hostUsername)
	if err != nil {
		return nil, err
	}
	return st.ListTimeSlots(ctx, *host.CalendarID)
}

// BookableDates: даты месяца, на которые хост принимает бронирования.
func (s *CalendarService) BookableDates(ctx context.Context, hostUsername string, year, month int) ([]calendar.BookableDate, error) {
	if err := calendar.ValidateYearMonth(year, month); err != nil {
		return nil, err
	}
	slots, err := s.ListTimeSlots(ctx, hostUsername)
	if err != nil {
		return nil, err
	}
	today := calendar.DateOf(s.opts.now().In(s.opts.location()))
	return calendar.BookableDates(slots, year, month, today)
}

// requireHost загружает пользователя и проверяет, что он активный хост.
func requireHost(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*model.User, error) {
	u, err := repository.NewGormUserRepository(tx).GetByID(ctx, userID)
	if notFound(err) {
		return nil, calendar.ErrHostNotFound
	}
	if err != nil {
		return nil, err
	}
	if !u.IsActive() {
		return nil, calendar.ErrHostNotFound
	}
	if !u.IsHost {
		return nil, calendar.ErrGuestPermission
	}
	return u, nil
}

func normalizeTopics(raw []string) ([]string, error) {
	topics := make([]string, 0, len(raw))
	for _, t := range raw {
		if t = strings.TrimSpace(t); t != "" {
			topics = append(topics, t)
		}
	}
	slices.Sort(topics)
	topics = slices.Compact(topics)
	if len(topics) == 0 {
		return nil, fmt.Errorf("%w: at least one topic is required", calendar.ErrInvalidCalendar)
	}
	return topics, nil
}

func validateDescription(d string) error {
	if utf8.RuneCountInString(strings.TrimSpace(d)) < minDescriptionLen {
		return fmt.Errorf("%w: description must be at least %d characters", calendar.ErrInvalidCalendar, minDescriptionLen)
	}
	return nil
}

func calendarView(cal *model.Calendar, host *model.User, owner bool) *CalendarView {
	v := &CalendarView{
		ID:           cal.ID,
		HostID:       cal.HostID,
		HostUsername: host.Username,
		Topics:       slices.Clone([]string(cal.Topics)),
		Description:  cal.Description,
		Owner:        owner,
	}
	if owner {
		v.ExternalCalendarID = cal.ExternalCalendarID
		v.CreatedAt = cal.CreatedAt
		v.UpdatedAt = cal.UpdatedAt
	}
	return v
}
