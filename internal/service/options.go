package service

import (
	"time"

	"github.com/Leganyst/booking-calendar/internal/calsync"
	"github.com/Leganyst/booking-calendar/internal/config"
)

// Options: общие настройки сервисов.
type Options struct {
	// Now подменяется в тестах.
	Now func() time.Time
	// Опорный часовой пояс для "сегодня".
	Location    *time.Location
	OverlapMode string
	Notifier    SyncNotifier

	// Внешний календарь хоста для занятого времени в помесячном виде.
	// nil: внешние события не подмешиваются.
	External calsync.ExternalCalendar
	// Календарь по умолчанию, если хост не указал свой.
	ExternalCalendarID string
}

func OptionsFromConfig(cfg *config.AppConfig, notifier SyncNotifier, external calsync.ExternalCalendar) (Options, error) {
	loc, err := cfg.Location()
	if err != nil {
		return Options{}, err
	}
	return Options{
		Now:                time.Now,
		Location:           loc,
		OverlapMode:        cfg.OverlapMode,
		Notifier:           notifier,
		External:           external,
		ExternalCalendarID: cfg.Sync.ExternalCalendarID,
	}, nil
}

func (o Options) now() time.Time {
	if o.Now != nil {
		return o.Now()
	}
	return time.Now()
}

func (o Options) location() *time.Location {
	if o.Location != nil {
		return o.Location
	}
	return time.UTC
}
