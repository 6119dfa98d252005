package calendar

import (
	"time"

	"github.com/google/uuid"
)

// Role: сторона, изменяющая бронирование.
type Role int

const (
	RoleGuest Role = iota
	RoleHost
)

func (r Role) String() string {
	if r == RoleHost {
		return "host"
	}
	return "guest"
}

// Field: изменяемое поле бронирования.
type Field string

const (
	FieldTopic       Field = "topic"
	FieldDescription Field = "description"
	FieldWhen        Field = "when"
	FieldTimeSlot    Field = "time_slot"
	FieldStatus      Field = "attendance_status"
)

// Mutation: частичное изменение бронирования; nil-поля не меняются.
type Mutation struct {
	Topic       *string
	Description *string
	When        *time.Time
	TimeSlotID  *uuid.UUID
	Status      *AttendanceStatus
}

// Fields перечисляет поля, которые затрагивает изменение.
func (m Mutation) Fields() []Field {
	var fields []Field
	if m.Topic != nil {
		fields = append(fields, FieldTopic)
	}
	if m.Description != nil {
		fields = append(fields, FieldDescription)
	}
	if m.When != nil {
		fields = append(fields, FieldWhen)
	}
	if m.TimeSlotID != nil {
		fields = append(fields, FieldTimeSlot)
	}
	if m.Status != nil {
		fields = append(fields, FieldStatus)
	}
	return fields
}

type mutationRule struct {
	fields map[Field]bool
	// nil: разрешён любой статус.
	statuses map[AttendanceStatus]bool
	denied   error
}

// mutationPolicy: таблица допустимых изменений по ролям.
var mutationPolicy = map[Role]mutationRule{
	RoleGuest: {
		fields: map[Field]bool{
			FieldTopic:       true,
			FieldDescription: true,
			FieldWhen:        true,
			FieldTimeSlot:    true,
			FieldStatus:      true,
		},
		statuses: map[AttendanceStatus]bool{StatusCancelled: true},
		denied:   ErrGuestPermission,
	},
	RoleHost: {
		fields: map[Field]bool{
			FieldWhen:     true,
			FieldTimeSlot: true,
			FieldStatus:   true,
		},
		denied: ErrHostPermission,
	},
}

// CheckMutation проверяет изменение по таблице разрешений роли.
func CheckMutation(role Role, m Mutation) error {
	rule, ok := mutationPolicy[role]
	if !ok {
		return ErrGuestPermission
	}
	for _, f := range m.Fields() {
		if !rule.fields[f] {
			return rule.denied
		}
	}
	if m.Status != nil && rule.statuses != nil && !rule.statuses[*m.Status] {
		return rule.denied
	}
	return nil
}
