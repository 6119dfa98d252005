package grpcapi

import (
	"context"
	"log/slog"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/Leganyst/booking-calendar/internal/service"
)

const ServiceName = "booking.v1.BookingService"

// bookingService: тип обработчика для ServiceDesc.
type bookingService interface {
	bookingService()
}

// Server реализует booking.v1.BookingService. Сообщения: google.protobuf.Struct.
type Server struct {
	calendars *service.CalendarService
	bookings  *service.BookingService
}

func NewServer(calendars *service.CalendarService, bookings *service.BookingService) *Server {
	return &Server{calendars: calendars, bookings: bookings}
}

func (*Server) bookingService() {}

// Register регистрирует сервис на gRPC-сервере.
func Register(gs grpc.ServiceRegistrar, s *Server) {
	gs.RegisterService(&ServiceDesc, s)
}

type handler func(s *Server, ctx context.Context, in *structpb.Struct) (*structpb.Struct, error)

func method(name string, h handler) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(structpb.Struct)
			if err := dec(in); err != nil {
				return nil, err
			}
			s := srv.(*Server)
			if interceptor == nil {
				return h(s, ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + ServiceName + "/" + name}
			return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
				return h(s, ctx, req.(*structpb.Struct))
			})
		},
	}
}

var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*bookingService)(nil),
	Methods: []grpc.MethodDesc{
		method("CreateCalendar", (*Server).createCalendar),
		method("GetHostCalendar", (*Server).getHostCalendar),
		method("UpdateCalendar", (*Server).updateCalendar),
		method("CreateTimeSlot", (*Server).createTimeSlot),
		method("ListTimeSlots", (*Server).listTimeSlots),
		method("CreateBooking", (*Server).createBooking),
		method("UpdateBookingAsGuest", (*Server).updateBookingAsGuest),
		method("UpdateBookingAsHost", (*Server).updateBookingAsHost),
		method("SetAttendanceStatus", (*Server).setAttendanceStatus),
		method("CancelBooking", (*Server).cancelBooking),
		method("GetBooking", (*Server).getBooking),
		method("ListHostBookings", (*Server).listHostBookings),
		method("ListGuestBookings", (*Server).listGuestBookings),
		method("ListCalendarBookings", (*Server).listCalendarBookings),
		method("BookableDates", (*Server).bookableDates),
		method("MonthGrid", (*Server).monthGrid),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "booking/v1/booking.proto",
}

// NewGRPCServer собирает gRPC-сервер с сервисом бронирования, health и reflection.
func NewGRPCServer(s *Server, logger *slog.Logger, opts ...grpc.ServerOption) *grpc.Server {
	opts = append([]grpc.ServerOption{grpc.ChainUnaryInterceptor(LoggingInterceptor(logger))}, opts...)
	gs := grpc.NewServer(opts...)
	Register(gs, s)

	hs := health.NewServer()
	hs.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	hs.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(gs, hs)

	reflection.Register(gs)
	return gs
}
