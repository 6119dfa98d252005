package grpcapi

import (
	"context"
	"errors"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/Leganyst/booking-calendar/internal/calendar"
	"github.com/Leganyst/booking-calendar/internal/logging"
)

var errorCodes = []struct {
	err  error
	code codes.Code
}{
	{calendar.ErrHostNotFound, codes.NotFound},
	{calendar.ErrCalendarNotFound, codes.NotFound},
	{calendar.ErrTimeSlotNotFound, codes.NotFound},
	{calendar.ErrBookingNotFound, codes.NotFound},
	{calendar.ErrSelfBooking, codes.FailedPrecondition},
	{calendar.ErrPastBooking, codes.FailedPrecondition},
	{calendar.ErrBookingAlreadyExists, codes.FailedPrecondition},
	{calendar.ErrCalendarExists, codes.FailedPrecondition},
	{calendar.ErrTimeSlotOverlap, codes.FailedPrecondition},
	{calendar.ErrGuestPermission, codes.PermissionDenied},
	{calendar.ErrHostPermission, codes.PermissionDenied},
	{calendar.ErrInvalidWeekday, codes.InvalidArgument},
	{calendar.ErrEmptyWeekdays, codes.InvalidArgument},
	{calendar.ErrInvalidTimeRange, codes.InvalidArgument},
	{calendar.ErrInvalidYearMonth, codes.InvalidArgument},
	{calendar.ErrInvalidCalendar, codes.InvalidArgument},
}

// toStatus переводит ошибку сервиса в gRPC-статус. Неизвестные ошибки
// логируются и наружу уходят как Internal без подробностей.
func toStatus(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}
	for _, ec := range errorCodes {
		if errors.Is(err, ec.err) {
			return status.Error(ec.code, err.Error())
		}
	}
	if errors.Is(err, context.Canceled) {
		return status.Error(codes.Canceled, err.Error())
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return status.Error(codes.DeadlineExceeded, err.Error())
	}
	logging.FromContext(ctx).Error("internal error", "error", err)
	return status.Error(codes.Internal, "internal error")
}
