package calendar

import "context"

// SyncOp: операция над событием во внешнем календаре.
type SyncOp string

const (
	SyncCreate SyncOp = "create"
	SyncUpdate SyncOp = "update"
	SyncDelete SyncOp = "delete"
)

// SyncScheduler ставит синхронизацию во внешний календарь в очередь.
// Вызов не блокирует решение по бронированию и не возвращает ошибок.
type SyncScheduler interface {
	ScheduleSync(ctx context.Context, op SyncOp, booking *Booking)
}

// DeriveSyncOp определяет операцию для внешнего календаря по состоянию
// бронирования до и после изменения. before == nil: бронирование создано.
func DeriveSyncOp(before, after *Booking) (SyncOp, bool) {
	if after == nil {
		return "", false
	}
	if before == nil {
		return SyncCreate, true
	}
	// Отменённое бронирование вернули: прежнее событие удалено или будет удалено.
	if before.Status == StatusCancelled && after.Status != StatusCancelled {
		return SyncCreate, true
	}
	if before.ExternalEventID == "" {
		return "", false
	}
	if after.Status == StatusCancelled && before.Status != StatusCancelled {
		return SyncDelete, true
	}
	if after.Status == StatusCancelled {
		return "", false
	}
	if !before.When.Equal(after.When) ||
		before.TimeSlotID != after.TimeSlotID ||
		before.Topic != after.Topic ||
		before.Description != after.Description {
		return SyncUpdate, true
	}
	return "", false
}
