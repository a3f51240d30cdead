package ws

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cwrk-planet/interview-room-service/internal/domain"
)

type fakeConn struct {
	mu     sync.Mutex
	room   string
	user   string
	sent   []Message
	closed bool
}

func (c *fakeConn) Send(msg Message) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sent = append(c.sent, msg)
	return nil
}

func (c *fakeConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *fakeConn) UserID() string { return c.user }
func (c *fakeConn) RoomID() string { return c.room }

func TestHub_PublishRoutesByRoom(t *testing.T) {
	hub := NewHub()
	a := &fakeConn{room: "r1", user: "1"}
	b := &fakeConn{room: "r1", user: "2"}
	other := &fakeConn{room: "r2", user: "3"}
	hub.Add(a)
	hub.Add(b)
	hub.Add(other)

	hub.Publish(domain.RoomEvent{Type: domain.EventParticipantJoined, RoomID: "r1", UserID: 42, At: time.Unix(100, 0)})

	require.Len(t, a.sent, 1)
	require.Len(t, b.sent, 1)
	assert.Empty(t, other.sent)
	assert.Equal(t, TypePeerJoined, a.sent[0].Type)
	assert.Equal(t, PeerEventPayload{RoomID: "r1", UserID: "42", TSUnix: 100}, a.sent[0].Payload)

	hub.Publish(domain.RoomEvent{Type: domain.EventStatusChanged, RoomID: "r1", Status: domain.StatusIng})
	assert.Equal(t, TypeStatusChanged, a.sent[1].Type)
}

func TestHub_RemoveAndUnknownEvent(t *testing.T) {
	hub := NewHub()
	a := &fakeConn{room: "r1", user: "1"}
	hub.Add(a)
	assert.Equal(t, 1, hub.Subscribers("r1"))

	hub.Publish(domain.RoomEvent{Type: "something_else", RoomID: "r1"})
	assert.Empty(t, a.sent)

	hub.Remove(a)
	assert.Equal(t, 0, hub.Subscribers("r1"))
	hub.Publish(domain.RoomEvent{Type: domain.EventParticipantLeft, RoomID: "r1", UserID: 1})
	assert.Empty(t, a.sent)
}

func TestHub_RoomDeletedClosesSubscribers(t *testing.T) {
	hub := NewHub()
	a := &fakeConn{room: "r1", user: "1"}
	other := &fakeConn{room: "r2", user: "2"}
	hub.Add(a)
	hub.Add(other)

	hub.Publish(domain.RoomEvent{Type: domain.EventRoomDeleted, RoomID: "r1"})

	require.Len(t, a.sent, 1)
	assert.Equal(t, TypeRoomDeleted, a.sent[0].Type)
	assert.True(t, a.closed)
	assert.False(t, other.closed)
	assert.Equal(t, 0, hub.Subscribers("r1"))

	hub.CloseAll()
	assert.True(t, other.closed)
}

type stubRooms map[string]*domain.Room

func (s stubRooms) GetRoom(_ context.Context, id string) (*domain.Room, error) {
	if r, ok := s[id]; ok {
		return r, nil
	}
	return nil, domain.ErrRoomNotFound
}

func TestServer_StateThenEvents(t *testing.T) {
	room := domain.NewRoom("r1", "mock", "", domain.RoomTypeInterview, 2, time.Now().UTC())
	require.NoError(t, room.AddParticipant(5))

	hub := NewHub()
	srv := NewServer(hub, stubRooms{"r1": room}, time.Second)
	r := chi.NewRouter()
	r.Get("/ws/rooms/{id}", srv.HandleWS)
	ts := httptest.NewServer(r)
	defer ts.Close()

	base := "ws" + strings.TrimPrefix(ts.URL, "http")

	_, resp, err := websocket.DefaultDialer.Dial(base+"/ws/rooms/missing?access_token=t&user_id=1", nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	conn, _, err := websocket.DefaultDialer.Dial(base+"/ws/rooms/r1?access_token=t&user_id=1", nil)
	require.NoError(t, err)
	defer conn.Close()

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var state struct {
		Type    string       `json:"type"`
		Payload StatePayload `json:"payload"`
	}
	require.NoError(t, conn.ReadJSON(&state))
	assert.Equal(t, TypeState, state.Type)
	assert.Equal(t, "WAIT", state.Payload.Status)
	assert.Equal(t, []string{"5"}, state.Payload.Participants)

	require.Eventually(t, func() bool { return hub.Subscribers("r1") == 1 }, time.Second, 10*time.Millisecond)
	hub.Publish(domain.RoomEvent{Type: domain.EventStatusChanged, RoomID: "r1", Status: domain.StatusIng, At: time.Now()})

	var ev struct {
		Type    string        `json:"type"`
		Payload StatusPayload `json:"payload"`
	}
	require.NoError(t, conn.ReadJSON(&ev))
	assert.Equal(t, TypeStatusChanged, ev.Type)
	assert.Equal(t, "ING", ev.Payload.Status)
}

func TestServer_RejectsMissingAuth(t *testing.T) {
	srv := NewServer(NewHub(), stubRooms{}, time.Second)
	r := chi.NewRouter()
	r.Get("/ws/rooms/{id}", srv.HandleWS)

	for _, q := range []string{"?user_id=1", "?access_token=t", "?access_token=t&user_id=-3"} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ws/rooms/r1"+q, nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code, q)
	}
}

// serverSideConn поднимает ws-соединение и возвращает серверный конец.
func serverSideConn(t *testing.T) *websocket.Conn {
	t.Helper()
	conns := make(chan *websocket.Conn, 1)
	up := websocket.Upgrader{}
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := up.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		conns <- c
	}))
	t.Cleanup(ts.Close)

	client, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	select {
	case c := <-conns:
		t.Cleanup(func() { _ = c.Close() })
		return c
	case <-time.After(2 * time.Second):
		t.Fatal("server side of ws connection not accepted")
		return nil
	}
}

func TestWsConn_SendDoesNotBlockOnStalledWriter(t *testing.T) {
	// writeLoop не запущен: очередь никто не разбирает
	c := newWsConn(serverSideConn(t), "r1", 1)
	hub := NewHub()
	hub.Add(c)

	start := time.Now()
	for i := 0; i < sendQueueSize; i++ {
		require.NoError(t, c.Send(Message{Type: TypePeerJoined}))
	}
	hub.Publish(domain.RoomEvent{Type: domain.EventParticipantJoined, RoomID: "r1", UserID: 2})
	assert.Less(t, time.Since(start), time.Second)

	select {
	case <-c.closed:
	default:
		t.Fatal("overflowing connection must be closed")
	}
	assert.ErrorIs(t, c.Send(Message{Type: TypePeerLeft}), errConnClosed)
}

func TestServer_RoomDeletedIsDeliveredBeforeClose(t *testing.T) {
	room := domain.NewRoom("r1", "mock", "", domain.RoomTypeInterview, 2, time.Now().UTC())
	hub := NewHub()
	srv := NewServer(hub, stubRooms{"r1": room}, time.Second)
	r := chi.NewRouter()
	r.Get("/ws/rooms/{id}", srv.HandleWS)
	ts := httptest.NewServer(r)
	defer ts.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http")+"/ws/rooms/r1?access_token=t&user_id=1", nil)
	require.NoError(t, err)
	defer conn.Close()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))

	var msg Message
	require.NoError(t, conn.ReadJSON(&msg))
	require.Equal(t, TypeState, msg.Type)

	require.Eventually(t, func() bool { return hub.Subscribers("r1") == 1 }, time.Second, 10*time.Millisecond)
	hub.Publish(domain.RoomEvent{Type: domain.EventRoomDeleted, RoomID: "r1", At: time.Now()})

	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, TypeRoomDeleted, msg.Type)

	_, _, err = conn.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.CloseNormalClosure), "got %v", err)
}
