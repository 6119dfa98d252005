package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Leganyst/booking-calendar/internal/calendar"
	"github.com/Leganyst/booking-calendar/internal/logging"
	"github.com/Leganyst/booking-calendar/internal/model"
	"github.com/Leganyst/booking-calendar/internal/repository"
)

// SyncNotifier будит воркер синхронизации после коммита.
type SyncNotifier interface {
	Notify()
}

type pendingOp struct {
	bookingID uuid.UUID
	op        calendar.SyncOp
}

// outbox копит операции синхронизации, решённые ядром внутри транзакции.
// В sync_tasks они попадают только после коммита бронирования.
type outbox struct {
	ops []pendingOp
}

func (o *outbox) ScheduleSync(_ context.Context, op calendar.SyncOp, b *calendar.Booking) {
	o.ops = append(o.ops, pendingOp{bookingID: b.ID, op: op})
}

// flush ставит накопленные операции в очередь. Ошибки только логируются:
// синхронизация не должна влиять на уже принятое решение по бронированию.
func (o *outbox) flush(ctx context.Context, db *gorm.DB, at time.Time) int {
	tasks := repository.NewGormSyncTaskRepository(db)
	queued := 0
	for _, p := range o.ops {
		if _, err := tasks.Enqueue(ctx, p.bookingID, model.SyncOp(p.op), at); err != nil {
			logging.FromContext(ctx).Error("enqueue calendar sync failed",
				"booking_id", p.bookingID, "op", string(p.op), "error", err)
			continue
		}
		queued++
	}
	o.ops = nil
	return queued
}
