package calendar

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
)

// 2025-01-15: среда.
var testNow = time.Date(2025, 1, 15, 9, 0, 0, 0, time.UTC)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

type fixture struct {
	store   *fakeStore
	sync    *fakeSync
	r       *Resolver
	host    Host
	guest   uuid.UUID
	monday  TimeSlot
	weekday TimeSlot
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	calID := uuid.New()
	host := Host{ID: uuid.New(), Username: "host", IsHost: true, CalendarID: &calID}

	monday := slot(t, 10, 0, 11, 0, Monday)
	monday.CalendarID = calID
	weekday := slot(t, 14, 0, 15, 0, Monday, Tuesday, Wednesday, Thursday, Friday)
	weekday.CalendarID = calID

	store := &fakeStore{
		hosts: []Host{host, {ID: uuid.New(), Username: "not_host", IsHost: false}},
		slots: []TimeSlot{monday, weekday},
	}
	sync := &fakeSync{}
	return &fixture{
		store:   store,
		sync:    sync,
		r:       &Resolver{Store: store, Sync: sync, Now: func() time.Time { return testNow }, Location: time.UTC},
		host:    host,
		guest:   uuid.New(),
		monday:  monday,
		weekday: weekday,
	}
}

func (f *fixture) create(t *testing.T, guest uuid.UUID, when time.Time, slotID uuid.UUID) (*Booking, error) {
	t.Helper()
	return f.r.CreateBooking(context.Background(), CreateRequest{
		RequesterID:  guest,
		HostUsername: f.host.Username,
		When:         when,
		TimeSlotID:   slotID,
		Topic:        "topic",
		Description:  "description",
	})
}

func TestCreateBooking_OK(t *testing.T) {
	f := newFixture(t)
	b, err := f.create(t, f.guest, day(2025, 1, 20), f.monday.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if b.Status != StatusScheduled || b.CalendarID != f.monday.CalendarID {
		t.Fatalf("unexpected booking: %+v", b)
	}
	if len(f.sync.ops) != 1 || f.sync.ops[0].op != SyncCreate {
		t.Fatalf("expected a create sync op, got %+v", f.sync.ops)
	}
}

func TestCreateBooking_Errors(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(f *fixture, req *CreateRequest)
		wantErr error
	}{
		{"unknown host", func(f *fixture, req *CreateRequest) { req.HostUsername = "nobody" }, ErrHostNotFound},
		{"not a host", func(f *fixture, req *CreateRequest) { req.HostUsername = "not_host" }, ErrHostNotFound},
		{"self booking", func(f *fixture, req *CreateRequest) { req.RequesterID = f.host.ID }, ErrSelfBooking},
		{"yesterday", func(f *fixture, req *CreateRequest) { req.When = day(2025, 1, 14) }, ErrPastBooking},
		{"unknown slot", func(f *fixture, req *CreateRequest) { req.TimeSlotID = uuid.New() }, ErrTimeSlotNotFound},
		{"weekday mismatch", func(f *fixture, req *CreateRequest) { req.When = day(2025, 1, 23) }, ErrTimeSlotNotFound},
		// Порядок важен: прошедшая дата проверяется раньше слота.
		{"past and unknown slot", func(f *fixture, req *CreateRequest) {
			req.When = day(2025, 1, 1)
			req.TimeSlotID = uuid.New()
		}, ErrPastBooking},
		{"self booking before past date", func(f *fixture, req *CreateRequest) {
			req.RequesterID = f.host.ID
			req.When = day(2025, 1, 1)
		}, ErrSelfBooking},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)
			req := CreateRequest{
				RequesterID:  f.guest,
				HostUsername: f.host.Username,
				When:         day(2025, 1, 20),
				TimeSlotID:   f.monday.ID,
			}
			tc.mutate(f, &req)

			_, err := f.r.CreateBooking(context.Background(), req)
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("expected %v, got %v", tc.wantErr, err)
			}
			if f.store.persists != 0 {
				t.Fatalf("store must not be written on failure")
			}
			if len(f.sync.ops) != 0 {
				t.Fatalf("sync must not be scheduled on failure")
			}
		})
	}
}

func TestCreateBooking_OtherSlotOwner(t *testing.T) {
	f := newFixture(t)
	foreign := slot(t, 10, 0, 11, 0, Monday)
	foreign.CalendarID = uuid.New()
	f.store.slots = append(f.store.slots, foreign)

	if _, err := f.create(t, f.guest, day(2025, 1, 20), foreign.ID); !errors.Is(err, ErrTimeSlotNotFound) {
		t.Fatalf("expected ErrTimeSlotNotFound, got %v", err)
	}
}

func TestCreateBooking_Today(t *testing.T) {
	f := newFixture(t)
	if _, err := f.create(t, f.guest, day(2025, 1, 15), f.weekday.ID); err != nil {
		t.Fatalf("booking for today must be accepted, got %v", err)
	}
}

func TestCreateBooking_Duplicate(t *testing.T) {
	f := newFixture(t)
	when := day(2025, 1, 20)
	if _, err := f.create(t, f.guest, when, f.monday.ID); err != nil {
		t.Fatalf("first booking: %v", err)
	}
	if _, err := f.create(t, f.guest, when, f.monday.ID); !errors.Is(err, ErrBookingAlreadyExists) {
		t.Fatalf("expected ErrBookingAlreadyExists, got %v", err)
	}
	if _, err := f.create(t, uuid.New(), when, f.monday.ID); err != nil {
		t.Fatalf("another guest must be able to book the same slot: %v", err)
	}
}

func TestCreateBooking_ReferenceTimezone(t *testing.T) {
	f := newFixture(t)
	seoul := time.FixedZone("KST", 9*3600)
	// 2025-01-15 20:00 UTC: уже 16 января в Сеуле.
	f.r.Now = func() time.Time { return time.Date(2025, 1, 15, 20, 0, 0, 0, time.UTC) }
	f.r.Location = seoul

	if _, err := f.create(t, f.guest, day(2025, 1, 15), f.weekday.ID); !errors.Is(err, ErrPastBooking) {
		t.Fatalf("expected ErrPastBooking in reference timezone, got %v", err)
	}
}

func seedBooking(f *fixture, when time.Time, slot TimeSlot) Booking {
	b := Booking{
		ID:              uuid.New(),
		GuestID:         f.guest,
		CalendarID:      slot.CalendarID,
		TimeSlotID:      slot.ID,
		When:            when,
		Topic:           "topic",
		Description:     "description",
		Status:          StatusScheduled,
		ExternalEventID: "evt-1",
	}
	f.store.bookings = append(f.store.bookings, b)
	return b
}

func ptr[T any](v T) *T { return &v }

func TestGuestUpdate_AllowedFields(t *testing.T) {
	f := newFixture(t)
	b := seedBooking(f, day(2025, 1, 20), f.monday)

	got, err := f.r.UpdateBooking(context.Background(), RoleGuest, f.guest, b.ID, Mutation{
		Topic:       ptr("new topic"),
		Description: ptr("new description"),
		When:        ptr(day(2025, 1, 21)),
		TimeSlotID:  ptr(f.weekday.ID),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Topic != "new topic" || got.Description != "new description" ||
		!got.When.Equal(day(2025, 1, 21)) || got.TimeSlotID != f.weekday.ID {
		t.Fatalf("unexpected booking after update: %+v", got)
	}
	if len(f.sync.ops) != 1 || f.sync.ops[0].op != SyncUpdate {
		t.Fatalf("expected update sync op, got %+v", f.sync.ops)
	}
}

func TestGuestUpdate_TodayRejected(t *testing.T) {
	f := newFixture(t)
	// Создать на сегодня можно, а изменить гостю уже нельзя.
	b, err := f.create(t, f.guest, day(2025, 1, 15), f.weekday.ID)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	_, err = f.r.UpdateBooking(context.Background(), RoleGuest, f.guest, b.ID, Mutation{Topic: ptr("x")})
	if !errors.Is(err, ErrPastBooking) {
		t.Fatalf("expected ErrPastBooking, got %v", err)
	}

	// Хосту изменение в тот же день разрешено.
	_, err = f.r.UpdateBooking(context.Background(), RoleHost, f.host.ID, b.ID, Mutation{Status: ptr(StatusAttended)})
	if err != nil {
		t.Fatalf("host same-day update: %v", err)
	}
}

func TestHostUpdate_PastRejected(t *testing.T) {
	f := newFixture(t)
	b := seedBooking(f, day(2025, 1, 13), f.monday)
	_, err := f.r.UpdateBooking(context.Background(), RoleHost, f.host.ID, b.ID, Mutation{Status: ptr(StatusNoShow)})
	if !errors.Is(err, ErrPastBooking) {
		t.Fatalf("expected ErrPastBooking, got %v", err)
	}
}

func TestGuestUpdate_StatusOnlyCancel(t *testing.T) {
	f := newFixture(t)
	b := seedBooking(f, day(2025, 1, 20), f.monday)

	for _, st := range []AttendanceStatus{StatusAttended, StatusNoShow, StatusLate, StatusSameDayCancel, StatusScheduled} {
		_, err := f.r.UpdateBooking(context.Background(), RoleGuest, f.guest, b.ID, Mutation{Status: ptr(st)})
		if !errors.Is(err, ErrGuestPermission) {
			t.Fatalf("status %s: expected ErrGuestPermission, got %v", st, err)
		}
	}

	got, err := f.r.UpdateBooking(context.Background(), RoleGuest, f.guest, b.ID, Mutation{Status: ptr(StatusCancelled)})
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if got.Status != StatusCancelled {
		t.Fatalf("expected cancelled status, got %s", got.Status)
	}
	if len(f.sync.ops) != 1 || f.sync.ops[0].op != SyncDelete {
		t.Fatalf("expected delete sync op, got %+v", f.sync.ops)
	}
}

func TestHostUpdate_Scope(t *testing.T) {
	f := newFixture(t)
	b := seedBooking(f, day(2025, 1, 20), f.monday)

	_, err := f.r.UpdateBooking(context.Background(), RoleHost, f.host.ID, b.ID, Mutation{Topic: ptr("x")})
	if !errors.Is(err, ErrHostPermission) {
		t.Fatalf("expected ErrHostPermission, got %v", err)
	}

	got, err := f.r.UpdateBooking(context.Background(), RoleHost, f.host.ID, b.ID, Mutation{
		When:       ptr(day(2025, 1, 22)),
		TimeSlotID: ptr(f.weekday.ID),
		Status:     ptr(StatusLate),
	})
	if err != nil {
		t.Fatalf("host update: %v", err)
	}
	if got.Status != StatusLate || got.TimeSlotID != f.weekday.ID {
		t.Fatalf("unexpected booking: %+v", got)
	}
}

func TestUpdate_Ownership(t *testing.T) {
	f := newFixture(t)
	b := seedBooking(f, day(2025, 1, 20), f.monday)

	if _, err := f.r.UpdateBooking(context.Background(), RoleGuest, uuid.New(), b.ID, Mutation{Topic: ptr("x")}); !errors.Is(err, ErrBookingNotFound) {
		t.Fatalf("foreign guest: expected ErrBookingNotFound, got %v", err)
	}
	if _, err := f.r.UpdateBooking(context.Background(), RoleHost, uuid.New(), b.ID, Mutation{Status: ptr(StatusLate)}); !errors.Is(err, ErrBookingNotFound) {
		t.Fatalf("foreign host: expected ErrBookingNotFound, got %v", err)
	}
	if _, err := f.r.UpdateBooking(context.Background(), RoleGuest, f.guest, uuid.New(), Mutation{}); !errors.Is(err, ErrBookingNotFound) {
		t.Fatalf("unknown booking: expected ErrBookingNotFound, got %v", err)
	}
}

func TestUpdate_ReassignmentChecksSlot(t *testing.T) {
	f := newFixture(t)
	b := seedBooking(f, day(2025, 1, 20), f.monday)

	// Вторник не входит в дни понедельничного слота.
	_, err := f.r.UpdateBooking(context.Background(), RoleGuest, f.guest, b.ID, Mutation{When: ptr(day(2025, 1, 21))})
	if !errors.Is(err, ErrTimeSlotNotFound) {
		t.Fatalf("expected ErrTimeSlotNotFound, got %v", err)
	}

	foreign := slot(t, 10, 0, 11, 0, Monday)
	foreign.CalendarID = uuid.New()
	f.store.slots = append(f.store.slots, foreign)
	_, err = f.r.UpdateBooking(context.Background(), RoleHost, f.host.ID, b.ID, Mutation{TimeSlotID: ptr(foreign.ID)})
	if !errors.Is(err, ErrTimeSlotNotFound) {
		t.Fatalf("expected ErrTimeSlotNotFound for foreign slot, got %v", err)
	}

	_, err = f.r.UpdateBooking(context.Background(), RoleHost, f.host.ID, b.ID, Mutation{When: ptr(day(2025, 1, 13))})
	if !errors.Is(err, ErrPastBooking) {
		t.Fatalf("expected ErrPastBooking for move into the past, got %v", err)
	}
	if f.store.persists != 0 {
		t.Fatalf("store must not be written on failure")
	}
}
