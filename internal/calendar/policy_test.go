package calendar

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestCheckMutation_Table(t *testing.T) {
	topic := "topic"
	when := time.Now()
	slotID := uuid.New()
	cancelled := StatusCancelled
	attended := StatusAttended

	cases := []struct {
		name string
		role Role
		m    Mutation
		want error
	}{
		{"guest topic", RoleGuest, Mutation{Topic: &topic, Description: &topic}, nil},
		{"guest reschedule", RoleGuest, Mutation{When: &when, TimeSlotID: &slotID}, nil},
		{"guest cancel", RoleGuest, Mutation{Status: &cancelled}, nil},
		{"guest attended", RoleGuest, Mutation{Status: &attended}, ErrGuestPermission},
		{"host reschedule", RoleHost, Mutation{When: &when, TimeSlotID: &slotID}, nil},
		{"host status", RoleHost, Mutation{Status: &attended}, nil},
		{"host cancel", RoleHost, Mutation{Status: &cancelled}, nil},
		{"host topic", RoleHost, Mutation{Topic: &topic}, ErrHostPermission},
		{"host description", RoleHost, Mutation{Description: &topic, Status: &attended}, ErrHostPermission},
		{"empty", RoleGuest, Mutation{}, nil},
	}

	for _, tc := range cases {
		if got := CheckMutation(tc.role, tc.m); got != tc.want {
			t.Fatalf("%s: expected %v, got %v", tc.name, tc.want, got)
		}
	}
}

func TestParseAttendanceStatus(t *testing.T) {
	if st, ok := ParseAttendanceStatus("no_show"); !ok || st != StatusNoShow {
		t.Fatalf("expected no_show, got %q %v", st, ok)
	}
	if _, ok := ParseAttendanceStatus("confirmed"); ok {
		t.Fatalf("unexpected status accepted")
	}
}
