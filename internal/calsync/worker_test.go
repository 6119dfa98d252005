package calsync

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/Leganyst/booking-calendar/internal/config"
	"github.com/Leganyst/booking-calendar/internal/db"
	"github.com/Leganyst/booking-calendar/internal/model"
	"github.com/Leganyst/booking-calendar/internal/repository"
)

var testNow = time.Date(2025, 1, 15, 9, 0, 0, 0, time.UTC)

type call struct {
	op         string
	calendarID string
	eventID    string
	ev         Event
}

type fakeCalendar struct {
	calls []call
	// failures: сколько первых вызовов вернут ошибку.
	failures int
}

func (f *fakeCalendar) fail() error {
	if f.failures > 0 {
		f.failures--
		return errors.New("provider unavailable")
	}
	return nil
}

func (f *fakeCalendar) CreateEvent(_ context.Context, calendarID string, ev Event) (string, error) {
	if err := f.fail(); err != nil {
		return "", err
	}
	f.calls = append(f.calls, call{op: "create", calendarID: calendarID, ev: ev})
	return "evt-" + uuid.NewString()[:8], nil
}

func (f *fakeCalendar) UpdateEvent(_ context.Context, calendarID, eventID string, ev Event) error {
	if err := f.fail(); err != nil {
		return err
	}
	f.calls = append(f.calls, call{op: "update", calendarID: calendarID, eventID: eventID, ev: ev})
	return nil
}

func (f *fakeCalendar) DeleteEvent(_ context.Context, calendarID, eventID string) error {
	if err := f.fail(); err != nil {
		return err
	}
	f.calls = append(f.calls, call{op: "delete", calendarID: calendarID, eventID: eventID})
	return nil
}

func (f *fakeCalendar) ListEvents(context.Context, string, time.Time, time.Time) ([]Event, error) {
	return nil, nil
}

var testSyncConfig = config.SyncConfig{
	PollInterval:       time.Second,
	BatchSize:          10,
	MaxAttempts:        3,
	BaseBackoff:        time.Second,
	MaxBackoff:         10 * time.Second,
	ExternalCalendarID: "default-calendar",
}

type fixture struct {
	db       *gorm.DB
	worker   *Worker
	external *fakeCalendar
	tasks    *repository.GormSyncTaskRepository
	booking  *model.Booking
	calendar *model.Calendar
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	gdb, err := db.NewGormDB(&config.DBConfig{Driver: config.DriverSQLite, SQLiteDSN: ":memory:"}, slog.Default())
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := model.AutoMigrate(gdb); err != nil {
		t.Fatalf("auto migrate: %v", err)
	}

	host := &model.User{Username: "alice", Email: "alice@example.com", DisplayName: "alice", IsHost: true}
	guest := &model.User{Username: "bob", Email: "bob@example.com", DisplayName: "bob"}
	cal := &model.Calendar{Topics: datatypes.JSONSlice[string]{"go"}, Description: "weekly consultations"}
	slot := &model.TimeSlot{
		StartTime: datatypes.NewTime(10, 0, 0, 0),
		EndTime:   datatypes.NewTime(11, 30, 0, 0),
		Weekdays:  datatypes.JSON("[0]"),
	}
	booking := &model.Booking{
		WhenDate:         datatypes.Date(time.Date(2025, 1, 20, 0, 0, 0, 0, time.UTC)),
		Topic:            "go",
		Description:      "code review",
		AttendanceStatus: model.AttendanceScheduled,
	}
	err = gdb.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(host).Error; err != nil {
			return err
		}
		if err := tx.Create(guest).Error; err != nil {
			return err
		}
		cal.HostID = host.ID
		if err := tx.Create(cal).Error; err != nil {
			return err
		}
		slot.CalendarID = cal.ID
		if err := tx.Create(slot).Error; err != nil {
			return err
		}
		booking.GuestID = guest.ID
		booking.TimeSlotID = slot.ID
		return tx.Create(booking).Error
	})
	if err != nil {
		t.Fatalf("seed: %v", err)
	}

	loc, err := time.LoadLocation("Asia/Seoul")
	if err != nil {
		t.Fatalf("load location: %v", err)
	}
	ext := &fakeCalendar{}
	w := NewWorker(gdb, ext, testSyncConfig, loc, slog.Default())
	w.Now = func() time.Time { return testNow }
	return &fixture{
		db:       gdb,
		worker:   w,
		external: ext,
		tasks:    repository.NewGormSyncTaskRepository(gdb),
		booking:  booking,
		calendar: cal,
	}
}

func (f *fixture) enqueue(t *testing.T, op model.SyncOp) *model.SyncTask {
	t.Helper()
	task, err := f.tasks.Enqueue(context.Background(), f.booking.ID, op, testNow)
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	return task
}

func (f *fixture) task(t *testing.T, id uuid.UUID) *model.SyncTask {
	t.Helper()
	var task model.SyncTask
	if err := f.db.First(&task, "id = ?", id).Error; err != nil {
		t.Fatalf("load task: %v", err)
	}
	return &task
}

func (f *fixture) reloadBooking(t *testing.T) *model.Booking {
	t.Helper()
	b, err := repository.NewGormBookingRepository(f.db).GetByID(context.Background(), f.booking.ID)
	if err != nil {
		t.Fatalf("load booking: %v", err)
	}
	return b
}

func TestWorker_CreateUpdateDelete(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	created := f.enqueue(t, model.SyncOpCreate)
	n, err := f.worker.RunOnce(ctx)
	if err != nil || n != 1 {
		t.Fatalf("run once: n=%d err=%v", n, err)
	}
	if got := f.task(t, created.ID).Status; got != model.SyncTaskDone {
		t.Fatalf("expected done, got %s", got)
	}
	b := f.reloadBooking(t)
	if b.ExternalEventID == nil || *b.ExternalEventID == "" {
		t.Fatal("external event id must be stored after create")
	}

	c := f.external.calls[0]
	if c.calendarID != "default-calendar" {
		t.Fatalf("expected default calendar, got %q", c.calendarID)
	}
	wantStart := time.Date(2025, 1, 20, 10, 0, 0, 0, f.worker.loc)
	wantEnd := time.Date(2025, 1, 20, 11, 30, 0, 0, f.worker.loc)
	if !c.ev.Start.Equal(wantStart) || !c.ev.End.Equal(wantEnd) || c.ev.TimeZone != "Asia/Seoul" {
		t.Fatalf("unexpected event times: %+v", c.ev)
	}
	if c.ev.Summary != "go" || c.ev.Description != "code review" {
		t.Fatalf("unexpected event text: %+v", c.ev)
	}

	// Повтор create для уже синхронизированного бронирования не создаёт второе событие.
	f.enqueue(t, model.SyncOpCreate)
	if _, err := f.worker.RunOnce(ctx); err != nil {
		t.Fatalf("run once: %v", err)
	}
	if len(f.external.calls) != 2 || f.external.calls[1].op != "update" || f.external.calls[1].eventID != *b.ExternalEventID {
		t.Fatalf("duplicate create must refresh the event: %+v", f.external.calls)
	}
	f.external.calls = f.external.calls[:1]

	// Календарь хоста приоритетнее значения из конфигурации.
	if err := f.db.Model(f.calendar).Update("external_calendar_id", "alice-calendar").Error; err != nil {
		t.Fatalf("set calendar id: %v", err)
	}
	if err := f.db.Model(&model.Booking{}).Where("id = ?", f.booking.ID).Update("topic", "sql").Error; err != nil {
		t.Fatalf("update topic: %v", err)
	}
	f.enqueue(t, model.SyncOpUpdate)
	if _, err := f.worker.RunOnce(ctx); err != nil {
		t.Fatalf("run once: %v", err)
	}
	up := f.external.calls[1]
	if up.op != "update" || up.calendarID != "alice-calendar" || up.eventID != *b.ExternalEventID || up.ev.Summary != "sql" {
		t.Fatalf("unexpected update call: %+v", up)
	}

	if err := f.db.Model(&model.Booking{}).Where("id = ?", f.booking.ID).
		Update("attendance_status", model.AttendanceCancelled).Error; err != nil {
		t.Fatalf("cancel: %v", err)
	}
	f.enqueue(t, model.SyncOpDelete)
	if _, err := f.worker.RunOnce(ctx); err != nil {
		t.Fatalf("run once: %v", err)
	}
	del := f.external.calls[2]
	if del.op != "delete" || del.eventID != *b.ExternalEventID {
		t.Fatalf("unexpected delete call: %+v", del)
	}
	if got := f.reloadBooking(t); got.ExternalEventID != nil {
		t.Fatalf("external event id must be cleared after delete, got %q", *got.ExternalEventID)
	}
}

func (f *fixture) setStatus(t *testing.T, st model.AttendanceStatus) {
	t.Helper()
	if err := f.db.Model(&model.Booking{}).Where("id = ?", f.booking.ID).
		Update("attendance_status", st).Error; err != nil {
		t.Fatalf("set status: %v", err)
	}
}

func TestWorker_RestoreAfterCancel(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	f.enqueue(t, model.SyncOpCreate)
	if _, err := f.worker.RunOnce(ctx); err != nil {
		t.Fatalf("run once: %v", err)
	}
	first := *f.reloadBooking(t).ExternalEventID

	f.setStatus(t, model.AttendanceCancelled)
	f.enqueue(t, model.SyncOpDelete)
	if _, err := f.worker.RunOnce(ctx); err != nil {
		t.Fatalf("run once: %v", err)
	}

	f.setStatus(t, model.AttendanceScheduled)
	f.enqueue(t, model.SyncOpCreate)
	if _, err := f.worker.RunOnce(ctx); err != nil {
		t.Fatalf("run once: %v", err)
	}
	ops := []string{}
	for _, c := range f.external.calls {
		ops = append(ops, c.op)
	}
	if len(ops) != 3 || ops[0] != "create" || ops[1] != "delete" || ops[2] != "create" {
		t.Fatalf("expected create, delete, create; got %v", ops)
	}
	restored := f.reloadBooking(t).ExternalEventID
	if restored == nil || *restored == "" || *restored == first {
		t.Fatalf("restored booking must get a new event, got %v", restored)
	}
}

func TestWorker_RestoredBeforeDelete(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	f.enqueue(t, model.SyncOpCreate)
	if _, err := f.worker.RunOnce(ctx); err != nil {
		t.Fatalf("run once: %v", err)
	}
	eventID := *f.reloadBooking(t).ExternalEventID

	// Отмена и возврат до того, как воркер разобрал удаление.
	f.enqueue(t, model.SyncOpDelete)
	f.enqueue(t, model.SyncOpCreate)
	if _, err := f.worker.RunOnce(ctx); err != nil {
		t.Fatalf("run once: %v", err)
	}
	for _, c := range f.external.calls {
		if c.op == "delete" {
			t.Fatalf("event of an active booking must not be deleted: %+v", f.external.calls)
		}
	}
	if got := f.reloadBooking(t).ExternalEventID; got == nil || *got != eventID {
		t.Fatalf("event id must be kept, got %v", got)
	}
}

func TestWorker_CancelledBeforeCreate(t *testing.T) {
	f := newFixture(t)
	if err := f.db.Model(&model.Booking{}).Where("id = ?", f.booking.ID).
		Update("attendance_status", model.AttendanceCancelled).Error; err != nil {
		t.Fatalf("cancel: %v", err)
	}
	task := f.enqueue(t, model.SyncOpCreate)
	if _, err := f.worker.RunOnce(context.Background()); err != nil {
		t.Fatalf("run once: %v", err)
	}
	if len(f.external.calls) != 0 {
		t.Fatalf("cancelled booking must not be created, calls=%d", len(f.external.calls))
	}
	if got := f.task(t, task.ID).Status; got != model.SyncTaskDone {
		t.Fatalf("expected done, got %s", got)
	}
}

func TestWorker_RetryThenDrop(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.external.failures = 10
	task := f.enqueue(t, model.SyncOpCreate)

	if _, err := f.worker.RunOnce(ctx); err != nil {
		t.Fatalf("run once: %v", err)
	}
	got := f.task(t, task.ID)
	if got.Status != model.SyncTaskPending || got.Attempts != 1 || got.LastError == "" {
		t.Fatalf("expected pending retry, got %+v", got)
	}
	if !got.NextAttemptAt.Equal(testNow.Add(time.Second)) {
		t.Fatalf("expected next attempt after base backoff, got %s", got.NextAttemptAt)
	}

	// Задача ещё не готова к повтору.
	if n, err := f.worker.RunOnce(ctx); err != nil || n != 0 {
		t.Fatalf("task must wait for backoff: n=%d err=%v", n, err)
	}

	for i := 0; i < 2; i++ {
		f.worker.Now = func() time.Time { return testNow.Add(time.Hour * time.Duration(i+1)) }
		if _, err := f.worker.RunOnce(ctx); err != nil {
			t.Fatalf("run once: %v", err)
		}
	}
	got = f.task(t, task.ID)
	if got.Status != model.SyncTaskDropped || got.Attempts != 3 {
		t.Fatalf("expected dropped after max attempts, got %+v", got)
	}
}

func TestWorker_NoExternalCalendar(t *testing.T) {
	f := newFixture(t)
	f.worker.cfg.ExternalCalendarID = ""
	task := f.enqueue(t, model.SyncOpCreate)
	if _, err := f.worker.RunOnce(context.Background()); err != nil {
		t.Fatalf("run once: %v", err)
	}
	if len(f.external.calls) != 0 {
		t.Fatalf("no calendar configured, calls=%d", len(f.external.calls))
	}
	if got := f.task(t, task.ID).Status; got != model.SyncTaskDone {
		t.Fatalf("expected done, got %s", got)
	}
}

func TestWorker_RunStopsOnCancel(t *testing.T) {
	f := newFixture(t)
	f.enqueue(t, model.SyncOpCreate)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- f.worker.Run(ctx) }()

	f.worker.Notify()
	f.worker.Notify() // второй сигнал не блокирует
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("run: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("worker did not stop")
	}
}

func TestBackoff(t *testing.T) {
	cases := []struct {
		attempts int
		want     time.Duration
	}{
		{0, time.Second},
		{1, time.Second},
		{2, 2 * time.Second},
		{3, 4 * time.Second},
		{4, 8 * time.Second},
		{5, 10 * time.Second},
		{60, 10 * time.Second},
	}
	for _, tc := range cases {
		if got := Backoff(time.Second, 10*time.Second, tc.attempts); got != tc.want {
			t.Fatalf("attempts %d: expected %s, got %s", tc.attempts, tc.want, got)
		}
	}
}

func TestLogCalendar(t *testing.T) {
	var c LogCalendar
	id, err := c.CreateEvent(context.Background(), "cal", Event{Summary: "go"})
	if err != nil || id == "" {
		t.Fatalf("create: id=%q err=%v", id, err)
	}
	if err := c.UpdateEvent(context.Background(), "cal", id, Event{}); err != nil {
		t.Fatalf("update: %v", err)
	}
	if err := c.DeleteEvent(context.Background(), "cal", id); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if evs, err := c.ListEvents(context.Background(), "cal", testNow, testNow.AddDate(0, 1, 0)); err != nil || len(evs) != 0 {
		t.Fatalf("list: %v %v", evs, err)
	}
}
