package grpcx

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName — полное имя gRPC-сервиса. Сообщения передаются как google.protobuf.Struct,
// поэтому кодогенерация не нужна.
const ServiceName = "room.v1.RoomService"

const (
	MethodCreateRoom      = "CreateRoom"
	MethodGetRoom         = "GetRoom"
	MethodListRooms       = "ListRooms"
	MethodEnterRoom       = "EnterRoom"
	MethodExitRoom        = "ExitRoom"
	MethodStartInterview  = "StartInterview"
	MethodFinishInterview = "FinishInterview"
	MethodDeleteRoom      = "DeleteRoom"
)

type RoomServiceServer interface {
	CreateRoom(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetRoom(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListRooms(context.Context, *structpb.Struct) (*structpb.Struct, error)
	EnterRoom(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ExitRoom(context.Context, *structpb.Struct) (*structpb.Struct, error)
	StartInterview(context.Context, *structpb.Struct) (*structpb.Struct, error)
	FinishInterview(context.Context, *structpb.Struct) (*structpb.Struct, error)
	DeleteRoom(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

type unaryCall func(RoomServiceServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func unaryMethod(name string, call unaryCall) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(structpb.Struct)
			if err := dec(in); err != nil {
				return nil, err
			}
			s := srv.(RoomServiceServer)
			if interceptor == nil {
				return call(s, ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: FullMethod(name)}
			return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
				return call(s, ctx, req.(*structpb.Struct))
			})
		},
	}
}

var roomServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*RoomServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		unaryMethod(MethodCreateRoom, RoomServiceServer.CreateRoom),
		unaryMethod(MethodGetRoom, RoomServiceServer.GetRoom),
		unaryMethod(MethodListRooms, RoomServiceServer.ListRooms),
		unaryMethod(MethodEnterRoom, RoomServiceServer.EnterRoom),
		unaryMethod(MethodExitRoom, RoomServiceServer.ExitRoom),
		unaryMethod(MethodStartInterview, RoomServiceServer.StartInterview),
		unaryMethod(MethodFinishInterview, RoomServiceServer.FinishInterview),
		unaryMethod(MethodDeleteRoom, RoomServiceServer.DeleteRoom),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "room/v1/room.proto",
}

func FullMethod(name string) string { return "/" + ServiceName + "/" + name }

// Client — тонкая обёртка над grpc.ClientConnInterface для вызова методов по имени.
type Client struct {
	cc grpc.ClientConnInterface
}

func NewClient(cc grpc.ClientConnInterface) *Client { return &Client{cc: cc} }

func (c *Client) Call(ctx context.Context, method string, in map[string]any, opts ...grpc.CallOption) (map[string]any, error) {
	req, err := structpb.NewStruct(in)
	if err != nil {
		return nil, err
	}
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, FullMethod(method), req, out, opts...); err != nil {
		return nil, err
	}
	return out.AsMap(), nil
}
