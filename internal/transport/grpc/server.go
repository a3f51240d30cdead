package grpcx

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/samber/lo"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/cwrk-planet/interview-room-service/internal/domain"
	"github.com/cwrk-planet/interview-room-service/internal/service"
)

const (
	mdAuthorization = "authorization"
	mdUserID        = "x-user-id"
)

type RoomSvc interface {
	CreateRoom(ctx context.Context, in service.CreateRoomInput) (*domain.Room, error)
	GetRoom(ctx context.Context, id string) (*domain.Room, error)
	ListRooms(ctx context.Context, in service.ListRoomsInput) ([]domain.Room, error)
	DeleteRoom(ctx context.Context, id string) error
}

type MemberSvc interface {
	JoinRoom(ctx context.Context, roomID string, userID int64) (*domain.Room, error)
	LeaveRoom(ctx context.Context, roomID string, userID int64) (*domain.Room, error)
}

type LifecycleSvc interface {
	StartInterview(ctx context.Context, roomID string) (*domain.Room, error)
	FinishInterview(ctx context.Context, roomID string) (*domain.Room, error)
}

type Server struct {
	roomSvc      RoomSvc
	memberSvc    MemberSvc
	lifecycleSvc LifecycleSvc
}

var _ RoomServiceServer = (*Server)(nil)

func NewServer(roomSvc RoomSvc, memberSvc MemberSvc, lifecycleSvc LifecycleSvc) *Server {
	return &Server{
		roomSvc:      roomSvc,
		memberSvc:    memberSvc,
		lifecycleSvc: lifecycleSvc,
	}
}

// Register вешает RoomService и стандартный health-сервис.
func Register(grpcServer *grpc.Server, s *Server) *health.Server {
	grpcServer.RegisterService(&roomServiceDesc, s)

	hs := health.NewServer()
	hs.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(grpcServer, hs)
	return hs
}

// -------- helpers --------

func userFromMD(ctx context.Context) (int64, error) {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return 0, status.Error(codes.Unauthenticated, "missing metadata")
	}
	// Authorization: Bearer <access_token>
	auth := first(md.Get(mdAuthorization))
	if auth == "" {
		return 0, status.Error(codes.Unauthenticated, "missing authorization")
	}
	if !strings.HasPrefix(strings.ToLower(auth), "bearer ") || len(auth) <= 7 {
		return 0, status.Error(codes.Unauthenticated, "invalid authorization")
	}

	uid, err := strconv.ParseInt(first(md.Get(mdUserID)), 10, 64)
	if err != nil || uid <= 0 {
		return 0, status.Error(codes.Unauthenticated, "invalid x-user-id")
	}
	return uid, nil
}

func first(ss []string) string {
	if len(ss) == 0 {
		return ""
	}

	return ss[0]
}

func stringField(in *structpb.Struct, name string) string {
	return in.GetFields()[name].GetStringValue()
}

// intField: отсутствующее поле даёт (0, false), дробное число InvalidArgument.
func intField(in *structpb.Struct, name string) (int, bool, error) {
	v, ok := in.GetFields()[name]
	if !ok {
		return 0, false, nil
	}
	n, isNum := v.GetKind().(*structpb.Value_NumberValue)
	if !isNum || n.NumberValue != math.Trunc(n.NumberValue) {
		return 0, false, status.Errorf(codes.InvalidArgument, "%s must be an integer", name)
	}
	// дальше 2^53 double теряет точность, а перевод в int не определён
	if math.Abs(n.NumberValue) > 1<<53 {
		return 0, false, status.Errorf(codes.InvalidArgument, "%s is out of range", name)
	}
	return int(n.NumberValue), true, nil
}

func mapRoom(r *domain.Room) (*structpb.Struct, error) {
	return structpb.NewStruct(map[string]any{
		"id":          r.ID,
		"title":       r.Title,
		"description": r.Description,
		"type":        string(r.Type),
		"status":      string(r.Status),
		"capacity":    r.Capacity,
		"participants": lo.Map(r.Participants, func(id int64, _ int) any {
			return strconv.FormatInt(id, 10)
		}),
		"created_at": r.CreatedAt.Format(time.RFC3339Nano),
	})
}

func roomReply(r *domain.Room, err error) (*structpb.Struct, error) {
	if err != nil {
		return nil, mapErr(err)
	}
	out, err := mapRoom(r)
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return out, nil
}

func mapErr(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, domain.ErrRoomNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, domain.ErrRoomFull),
		errors.Is(err, domain.ErrRoomClosed),
		errors.Is(err, domain.ErrInvalidTransition):
		return status.Error(codes.FailedPrecondition, err.Error())
	case errors.Is(err, domain.ErrConcurrentModification):
		return status.Error(codes.Aborted, err.Error())
	case errors.Is(err, domain.ErrStoreUnavailable):
		return status.Error(codes.Unavailable, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	default:
		return status.Error(codes.Internal, err.Error())
	}
}

// -------- methods --------

func (s *Server) CreateRoom(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	if _, err := userFromMD(ctx); err != nil {
		return nil, err
	}
	typ, err := domain.ParseRoomType(stringField(in, "type"))
	if err != nil {
		return nil, mapErr(err)
	}
	capacity, _, err := intField(in, "capacity")
	if err != nil {
		return nil, err
	}

	room, err := s.roomSvc.CreateRoom(ctx, service.CreateRoomInput{
		Title:       stringField(in, "title"),
		Description: stringField(in, "description"),
		Type:        typ,
		Capacity:    capacity,
	})
	if err != nil {
		return nil, mapErr(err)
	}

	return structpb.NewStruct(map[string]any{"room_id": room.ID})
}

func (s *Server) GetRoom(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	if _, err := userFromMD(ctx); err != nil {
		return nil, err
	}
	return roomReply(s.roomSvc.GetRoom(ctx, stringField(in, "id")))
}

func (s *Server) ListRooms(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	if _, err := userFromMD(ctx); err != nil {
		return nil, err
	}
	q, err := listInput(in)
	if err != nil {
		return nil, err
	}
	rooms, err := s.roomSvc.ListRooms(ctx, q)
	if err != nil {
		return nil, mapErr(err)
	}

	items := make([]any, 0, len(rooms))
	for i := range rooms {
		st, err := mapRoom(&rooms[i])
		if err != nil {
			return nil, status.Error(codes.Internal, err.Error())
		}
		items = append(items, st.AsMap())
	}
	return structpb.NewStruct(map[string]any{"rooms": items})
}

func listInput(in *structpb.Struct) (service.ListRoomsInput, error) {
	var q service.ListRoomsInput
	if s := stringField(in, "type"); s != "" {
		typ, err := domain.ParseRoomType(s)
		if err != nil {
			return q, mapErr(err)
		}
		q.Type = &typ
	}
	if s := stringField(in, "status"); s != "" {
		st, err := domain.ParseRoomStatus(s)
		if err != nil {
			return q, mapErr(err)
		}
		q.Status = &st
	}
	capacity, ok, err := intField(in, "capacity")
	if err != nil {
		return q, err
	}
	if ok {
		q.Capacity = &capacity
	}
	if q.Page, _, err = intField(in, "page"); err != nil {
		return q, err
	}
	if q.Size, _, err = intField(in, "size"); err != nil {
		return q, err
	}
	return q, nil
}

func (s *Server) EnterRoom(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	uid, err := userFromMD(ctx)
	if err != nil {
		return nil, err
	}
	return roomReply(s.memberSvc.JoinRoom(ctx, stringField(in, "id"), uid))
}

func (s *Server) ExitRoom(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	uid, err := userFromMD(ctx)
	if err != nil {
		return nil, err
	}
	return roomReply(s.memberSvc.LeaveRoom(ctx, stringField(in, "id"), uid))
}

func (s *Server) StartInterview(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	if _, err := userFromMD(ctx); err != nil {
		return nil, err
	}
	return roomReply(s.lifecycleSvc.StartInterview(ctx, stringField(in, "id")))
}

func (s *Server) FinishInterview(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	if _, err := userFromMD(ctx); err != nil {
		return nil, err
	}
	return roomReply(s.lifecycleSvc.FinishInterview(ctx, stringField(in, "id")))
}

func (s *Server) DeleteRoom(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	if _, err := userFromMD(ctx); err != nil {
		return nil, err
	}
	id := stringField(in, "id")
	if err := s.roomSvc.DeleteRoom(ctx, id); err != nil {
		return nil, mapErr(fmt.Errorf("delete %s: %w", id, err))
	}
	return &structpb.Struct{Fields: map[string]*structpb.Value{}}, nil
}
