package grpcx

import (
	"context"
	"math"
	"net"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	"github.com/cwrk-planet/interview-room-service/internal/redis"
	"github.com/cwrk-planet/interview-room-service/internal/service"
)

func newTestClient(t *testing.T) (*Client, *grpc.ClientConn) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	store := redis.NewRoomRepository(rdb, redis.Options{})
	srv := NewServer(
		service.NewRoomService(store, nil, service.Limits{MaxCapacity: 10}),
		service.NewMemberService(store, nil),
		service.NewLifecycleService(store, nil, nil),
	)

	lis := bufconn.Listen(1 << 20)
	gs := grpc.NewServer(
		grpc.ChainUnaryInterceptor(UnaryServerInterceptor(time.Second)),
		grpc.ChainStreamInterceptor(StreamServerInterceptor()),
	)
	Register(gs, srv)
	go func() { _ = gs.Serve(lis) }()
	t.Cleanup(gs.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return NewClient(conn), conn
}

func authCtx(userID string) context.Context {
	return metadata.AppendToOutgoingContext(context.Background(),
		"authorization", "Bearer token", "x-user-id", userID)
}

func TestRoomService_FullFlow(t *testing.T) {
	c, _ := newTestClient(t)
	ctx := authCtx("7")

	out, err := c.Call(ctx, MethodCreateRoom, map[string]any{
		"title": "system design", "type": "INTERVIEW", "capacity": 2,
	})
	require.NoError(t, err)
	id, _ := out["room_id"].(string)
	require.NotEmpty(t, id)

	room, err := c.Call(ctx, MethodEnterRoom, map[string]any{"id": id})
	require.NoError(t, err)
	assert.Equal(t, []any{"7"}, room["participants"])

	room, err = c.Call(ctx, MethodStartInterview, map[string]any{"id": id})
	require.NoError(t, err)
	assert.Equal(t, "ING", room["status"])

	_, err = c.Call(authCtx("8"), MethodEnterRoom, map[string]any{"id": id})
	assert.Equal(t, codes.FailedPrecondition, status.Code(err))

	list, err := c.Call(ctx, MethodListRooms, map[string]any{"status": "ING"})
	require.NoError(t, err)
	rooms, _ := list["rooms"].([]any)
	require.Len(t, rooms, 1)
	assert.Equal(t, id, rooms[0].(map[string]any)["id"])

	room, err = c.Call(ctx, MethodFinishInterview, map[string]any{"id": id})
	require.NoError(t, err)
	assert.Equal(t, "END", room["status"])

	_, err = c.Call(ctx, MethodFinishInterview, map[string]any{"id": id})
	assert.Equal(t, codes.FailedPrecondition, status.Code(err))

	room, err = c.Call(ctx, MethodExitRoom, map[string]any{"id": id})
	require.NoError(t, err)
	assert.Empty(t, room["participants"])

	_, err = c.Call(ctx, MethodDeleteRoom, map[string]any{"id": id})
	require.NoError(t, err)
	_, err = c.Call(ctx, MethodGetRoom, map[string]any{"id": id})
	assert.Equal(t, codes.NotFound, status.Code(err))
}

func TestRoomService_Errors(t *testing.T) {
	c, _ := newTestClient(t)

	_, err := c.Call(context.Background(), MethodGetRoom, map[string]any{"id": "x"})
	assert.Equal(t, codes.Unauthenticated, status.Code(err))

	_, err = c.Call(authCtx("abc"), MethodGetRoom, map[string]any{"id": "x"})
	assert.Equal(t, codes.Unauthenticated, status.Code(err))

	ctx := authCtx("1")
	_, err = c.Call(ctx, MethodCreateRoom, map[string]any{"title": "t", "type": "NOPE", "capacity": 2})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	_, err = c.Call(ctx, MethodCreateRoom, map[string]any{"title": "t", "type": "INTERVIEW", "capacity": 1.5})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	_, err = c.Call(ctx, MethodListRooms, map[string]any{"page": -1})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	_, err = c.Call(ctx, MethodListRooms, map[string]any{"page": float64(math.MaxInt64)})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	out, err := c.Call(ctx, MethodListRooms, map[string]any{"page": 1 << 52, "size": 10})
	require.NoError(t, err)
	assert.Empty(t, out["rooms"])

	_, err = c.Call(ctx, MethodStartInterview, map[string]any{"id": "missing"})
	assert.Equal(t, codes.NotFound, status.Code(err))
}

func TestHealth(t *testing.T) {
	_, conn := newTestClient(t)

	resp, err := healthpb.NewHealthClient(conn).Check(context.Background(),
		&healthpb.HealthCheckRequest{Service: ServiceName})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, resp.GetStatus())
}
