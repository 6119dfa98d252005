package calsync

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Event: событие во внешнем календаре. Для событий на весь день AllDay == true,
// Start и End содержат только даты (End не включается).
type Event struct {
	ID          string
	Summary     string
	Description string
	Start       time.Time
	End         time.Time
	TimeZone    string
	AllDay      bool
}

// ExternalCalendar: внешний календарь хоста (Google Calendar и т. п.).
type ExternalCalendar interface {
	// CreateEvent возвращает идентификатор созданного события.
	CreateEvent(ctx context.Context, calendarID string, ev Event) (string, error)
	UpdateEvent(ctx context.Context, calendarID, eventID string, ev Event) error
	DeleteEvent(ctx context.Context, calendarID, eventID string) error
	// ListEvents возвращает события, пересекающие интервал [from, to).
	ListEvents(ctx context.Context, calendarID string, from, to time.Time) ([]Event, error)
}

// LogCalendar только пишет операции в лог и выдаёт синтетические идентификаторы.
// Используется, пока реальный провайдер не подключён.
type LogCalendar struct {
	Logger *slog.Logger
}

func (c LogCalendar) logger() *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return slog.Default()
}

func (c LogCalendar) CreateEvent(ctx context.Context, calendarID string, ev Event) (string, error) {
	id := "log-" + uuid.NewString()
	c.logger().InfoContext(ctx, "external event created",
		"calendar_id", calendarID, "event_id", id, "summary", ev.Summary,
		"start", ev.Start.Format(time.RFC3339), "end", ev.End.Format(time.RFC3339))
	return id, nil
}

func (c LogCalendar) UpdateEvent(ctx context.Context, calendarID, eventID string, ev Event) error {
	c.logger().InfoContext(ctx, "external event updated",
		"calendar_id", calendarID, "event_id", eventID, "summary", ev.Summary,
		"start", ev.Start.Format(time.RFC3339), "end", ev.End.Format(time.RFC3339))
	return nil
}

func (c LogCalendar) DeleteEvent(ctx context.Context, calendarID, eventID string) error {
	c.logger().InfoContext(ctx, "external event deleted", "calendar_id", calendarID, "event_id", eventID)
	return nil
}

// ListEvents: у журнального календаря своих событий нет.
func (c LogCalendar) ListEvents(ctx context.Context, calendarID string, from, to time.Time) ([]Event, error) {
	c.logger().DebugContext(ctx, "external events listed",
		"calendar_id", calendarID, "from", from.Format(time.RFC3339), "to", to.Format(time.RFC3339))
	return nil, nil
}
