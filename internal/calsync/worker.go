package calsync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/gorm"

	"github.com/Leganyst/booking-calendar/internal/calendar"
	"github.com/Leganyst/booking-calendar/internal/config"
	"github.com/Leganyst/booking-calendar/internal/model"
	"github.com/Leganyst/booking-calendar/internal/repository"
)

var errBookingGone = errors.New("booking no longer exists")

// Worker разбирает outbox sync_tasks и применяет операции к внешнему календарю.
// Каждая задача перечитывает бронирование, поэтому событие получает актуальные данные.
type Worker struct {
	tasks    repository.SyncTaskRepository
	bookings repository.BookingRepository
	cals     repository.CalendarRepository
	external ExternalCalendar
	cfg      config.SyncConfig
	loc      *time.Location
	logger   *slog.Logger

	// Now подменяется в тестах.
	Now func() time.Time

	wake chan struct{}
}

func NewWorker(
	db *gorm.DB,
	external ExternalCalendar,
	cfg config.SyncConfig,
	loc *time.Location,
	logger *slog.Logger,
) *Worker {
	if loc == nil {
		loc = time.UTC
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Worker{
		tasks:    repository.NewGormSyncTaskRepository(db),
		bookings: repository.NewGormBookingRepository(db),
		cals:     repository.NewGormCalendarRepository(db),
		external: external,
		cfg:      cfg,
		loc:      loc,
		logger:   logger.With("component", "calsync"),
		Now:      time.Now,
		wake:     make(chan struct{}, 1),
	}
}

// Notify будит воркер, не дожидаясь следующего опроса. Не блокирует.
func (w *Worker) Notify() {
	select {
	case w.wake <- struct{}{}:
	default:
	}
}

// Run опрашивает outbox до отмены ctx.
func (w *Worker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.cfg.PollInterval)
	defer ticker.Stop()

	w.logger.Info("sync worker started", "poll_interval", w.cfg.PollInterval.String())
	for {
		if _, err := w.RunOnce(ctx); err != nil && ctx.Err() == nil {
			w.logger.Error("sync batch failed", "error", err)
		}
		select {
		case <-ctx.Done():
			w.logger.Info("sync worker stopped")
			return nil
		case <-ticker.C:
		case <-w.wake:
		}
	}
}

// RunOnce обрабатывает одну пачку готовых задач и возвращает их число.
func (w *Worker) RunOnce(ctx context.Context) (int, error) {
	due, err := w.tasks.ListDue(ctx, w.Now(), w.cfg.BatchSize)
	if err != nil {
		return 0, fmt.Errorf("list due sync tasks: %w", err)
	}
	for i := range due {
		if err := w.handle(ctx, &due[i]); err != nil {
			return i, err
		}
	}
	return len(due), nil
}

// handle выполняет задачу и фиксирует результат. Ошибка возвращается только
// если не удалось записать состояние задачи.
func (w *Worker) handle(ctx context.Context, task *model.SyncTask) error {
	log := w.logger.With("task_id", task.ID, "booking_id", task.BookingID, "op", string(task.Op))

	err := w.apply(ctx, task)
	if err == nil {
		log.Debug("sync task done")
		return w.tasks.MarkDone(ctx, task.ID)
	}

	attempts := task.Attempts + 1
	if errors.Is(err, errBookingGone) || attempts >= w.cfg.MaxAttempts {
		log.Error("sync task dropped", "attempts", attempts, "error", err)
		return w.tasks.MarkDropped(ctx, task.ID, attempts, err.Error())
	}
	next := w.Now().Add(Backoff(w.cfg.BaseBackoff, w.cfg.MaxBackoff, attempts))
	log.Warn("sync task retry scheduled", "attempts", attempts, "next_attempt_at", next, "error", err)
	return w.tasks.MarkRetry(ctx, task.ID, attempts, next, err.Error())
}

func (w *Worker) apply(ctx context.Context, task *model.SyncTask) error {
	b, err := w.bookings.GetByID(ctx, task.BookingID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return errBookingGone
	}
	if err != nil {
		return fmt.Errorf("load booking: %w", err)
	}
	if b.TimeSlot == nil {
		return errBookingGone
	}

	calendarID, err := w.externalCalendarID(ctx, b)
	if err != nil {
		return err
	}
	if calendarID == "" {
		// Хост не подключал внешний календарь.
		return nil
	}

	eventID := ""
	if b.ExternalEventID != nil {
		eventID = *b.ExternalEventID
	}
	cancelled := b.AttendanceStatus == model.AttendanceCancelled

	switch task.Op {
	case model.SyncOpCreate:
		// Отменили раньше, чем успели создать.
		if cancelled {
			return nil
		}
		// Событие уже есть: повторный create только обновляет его.
		if eventID != "" {
			if err := w.external.UpdateEvent(ctx, calendarID, eventID, w.event(b)); err != nil {
				return fmt.Errorf("update event: %w", err)
			}
			return nil
		}
		id, err := w.external.CreateEvent(ctx, calendarID, w.event(b))
		if err != nil {
			return fmt.Errorf("create event: %w", err)
		}
		return w.bookings.SetExternalEventID(ctx, b.ID, id)
	case model.SyncOpUpdate:
		if cancelled || eventID == "" {
			return nil
		}
		if err := w.external.UpdateEvent(ctx, calendarID, eventID, w.event(b)); err != nil {
			return fmt.Errorf("update event: %w", err)
		}
		return nil
	case model.SyncOpDelete:
		// Бронирование успели вернуть из отмены: событие остаётся.
		if !cancelled || eventID == "" {
			return nil
		}
		if err := w.external.DeleteEvent(ctx, calendarID, eventID); err != nil {
			return fmt.Errorf("delete event: %w", err)
		}
		return w.bookings.SetExternalEventID(ctx, b.ID, "")
	default:
		return fmt.Errorf("%w: unknown op %q", errBookingGone, task.Op)
	}
}

func (w *Worker) externalCalendarID(ctx context.Context, b *model.Booking) (string, error) {
	cal, err := w.cals.GetByID(ctx, b.TimeSlot.CalendarID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", errBookingGone
	}
	if err != nil {
		return "", fmt.Errorf("load calendar: %w", err)
	}
	if cal.ExternalCalendarID != "" {
		return cal.ExternalCalendarID, nil
	}
	return w.cfg.ExternalCalendarID, nil
}

// event строит событие: начало и конец слота в опорном часовом поясе.
func (w *Worker) event(b *model.Booking) Event {
	date := time.Time(b.WhenDate)
	return Event{
		Summary:     b.Topic,
		Description: b.Description,
		Start:       calendar.TimeOfDay(b.TimeSlot.StartTime).On(date, w.loc),
		End:         calendar.TimeOfDay(b.TimeSlot.EndTime).On(date, w.loc),
		TimeZone:    w.loc.String(),
	}
}

// Backoff: экспоненциальная задержка перед попыткой номер attempts (с 1),
// ограниченная сверху ceiling.
func Backoff(base, ceiling time.Duration, attempts int) time.Duration {
	if attempts < 1 {
		attempts = 1
	}
	d := base
	for i := 1; i < attempts; i++ {
		d *= 2
		if d >= ceiling || d <= 0 {
			return ceiling
		}
	}
	return min(d, ceiling)
}
