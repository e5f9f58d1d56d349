package broker

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hackmate/client/internal/realtime"
	"github.com/hackmate/client/internal/shared/types"
)

func newTestBroker(t *testing.T) (*Server, *httptest.Server) {
	t.Helper()
	s := NewServer(Options{
		Tokens: map[string]Identity{
			"tok-alex": {UserID: "u1", Username: "alex"},
			"tok-sam":  {UserID: "u2", Username: "sam"},
		},
	})
	srv := httptest.NewServer(s.Handler())
	t.Cleanup(srv.Close)
	return s, srv
}

func dialWS(t *testing.T, srv *httptest.Server, token string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	header := http.Header{"Authorization": []string{"Bearer " + token}}
	conn, resp, err := websocket.DefaultDialer.Dial(url, header)
	require.NoError(t, err)
	if resp != nil {
		resp.Body.Close()
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readFrame(t *testing.T, conn *websocket.Conn) *realtime.Frame {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	f, err := realtime.DecodeFrame(data)
	require.NoError(t, err)
	return f
}

func writeFrame(t *testing.T, conn *websocket.Conn, f *realtime.Frame) {
	t.Helper()
	data, err := realtime.EncodeFrame(f)
	require.NoError(t, err)
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, data))
}

func TestHandshakeRejectsBadToken(t *testing.T) {
	_, srv := newTestBroker(t)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	header := http.Header{"Authorization": []string{"Bearer wrong"}}
	_, resp, err := websocket.DefaultDialer.Dial(url, header)

	require.Error(t, err)
	require.NotNil(t, resp)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestHandshakeRejectsMissingToken(t *testing.T) {
	_, srv := newTestBroker(t)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)

	require.Error(t, err)
	require.NotNil(t, resp)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestSubscribeAndSend(t *testing.T) {
	_, srv := newTestBroker(t)
	conn := dialWS(t, srv, "tok-alex")

	channel := realtime.TeamChannel("t1")
	writeFrame(t, conn, &realtime.Frame{Type: realtime.FrameSubscribe, Channel: channel})

	ack := readFrame(t, conn)
	assert.Equal(t, realtime.FrameSubscribed, ack.Type)
	assert.Equal(t, channel, ack.Channel)

	writeFrame(t, conn, &realtime.Frame{Type: realtime.FrameSend, Channel: channel, Content: "hello"})

	msg := readFrame(t, conn)
	require.Equal(t, realtime.FrameMessage, msg.Type)
	require.NotNil(t, msg.Message)
	assert.Equal(t, "hello", msg.Message.Content)
	assert.Equal(t, "u1", msg.Message.SenderID)
	assert.Equal(t, "alex", msg.Message.SenderName)
	assert.True(t, strings.HasPrefix(msg.Message.ID, "msg_"))
	assert.False(t, msg.Message.Timestamp.IsZero())
}

func TestFanOutToAllSubscribers(t *testing.T) {
	_, srv := newTestBroker(t)
	alex := dialWS(t, srv, "tok-alex")
	sam := dialWS(t, srv, "tok-sam")

	channel := realtime.TeamChannel("t1")
	writeFrame(t, alex, &realtime.Frame{Type: realtime.FrameSubscribe, Channel: channel})
	writeFrame(t, sam, &realtime.Frame{Type: realtime.FrameSubscribe, Channel: channel})
	readFrame(t, alex)
	readFrame(t, sam)

	writeFrame(t, alex, &realtime.Frame{Type: realtime.FrameSend, Channel: channel, Content: "hi both"})

	for _, conn := range []*websocket.Conn{alex, sam} {
		msg := readFrame(t, conn)
		require.Equal(t, realtime.FrameMessage, msg.Type)
		assert.Equal(t, "hi both", msg.Message.Content)
	}
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	s, srv := newTestBroker(t)
	alex := dialWS(t, srv, "tok-alex")
	sam := dialWS(t, srv, "tok-sam")

	channel := realtime.TeamChannel("t1")
	writeFrame(t, alex, &realtime.Frame{Type: realtime.FrameSubscribe, Channel: channel})
	writeFrame(t, sam, &realtime.Frame{Type: realtime.FrameSubscribe, Channel: channel})
	readFrame(t, alex)
	readFrame(t, sam)

	writeFrame(t, sam, &realtime.Frame{Type: realtime.FrameUnsubscribe, Channel: channel})
	require.Eventually(t, func() bool {
		return s.Hub().subscriberCount(channel) == 1
	}, 2*time.Second, 5*time.Millisecond)

	writeFrame(t, alex, &realtime.Frame{Type: realtime.FrameSend, Channel: channel, Content: "just alex"})
	msg := readFrame(t, alex)
	assert.Equal(t, "just alex", msg.Message.Content)

	sam.SetReadDeadline(time.Now().Add(100 * time.Millisecond))
	_, _, err := sam.ReadMessage()
	assert.Error(t, err)
}

func TestPersonalQueuePrivacy(t *testing.T) {
	_, srv := newTestBroker(t)
	conn := dialWS(t, srv, "tok-alex")

	// Own queue subscribes cleanly.
	writeFrame(t, conn, &realtime.Frame{Type: realtime.FrameSubscribe, Channel: realtime.UserChannel("u1")})
	ack := readFrame(t, conn)
	assert.Equal(t, realtime.FrameSubscribed, ack.Type)

	// Someone else's queue is rejected.
	writeFrame(t, conn, &realtime.Frame{Type: realtime.FrameSubscribe, Channel: realtime.UserChannel("u2")})
	errFrame := readFrame(t, conn)
	assert.Equal(t, realtime.FrameError, errFrame.Type)
}

func TestJoinAnnouncement(t *testing.T) {
	_, srv := newTestBroker(t)
	alex := dialWS(t, srv, "tok-alex")
	sam := dialWS(t, srv, "tok-sam")

	channel := realtime.TeamChannel("t1")
	writeFrame(t, alex, &realtime.Frame{Type: realtime.FrameSubscribe, Channel: channel})
	readFrame(t, alex)

	writeFrame(t, sam, &realtime.Frame{Type: realtime.FrameSubscribe, Channel: channel})
	readFrame(t, sam)
	writeFrame(t, sam, &realtime.Frame{Type: realtime.FrameJoin, Channel: channel})

	n := readFrame(t, alex)
	require.Equal(t, realtime.FrameNotification, n.Type)
	require.NotNil(t, n.Notification)
	assert.Equal(t, string(types.NotificationTeamJoin), n.Notification.Type)
	assert.Contains(t, n.Notification.Message, "sam")
}

func TestSendRejectsEmptyContent(t *testing.T) {
	_, srv := newTestBroker(t)
	conn := dialWS(t, srv, "tok-alex")

	channel := realtime.TeamChannel("t1")
	writeFrame(t, conn, &realtime.Frame{Type: realtime.FrameSubscribe, Channel: channel})
	readFrame(t, conn)

	writeFrame(t, conn, &realtime.Frame{Type: realtime.FrameSend, Channel: channel, Content: "   "})
	errFrame := readFrame(t, conn)
	assert.Equal(t, realtime.FrameError, errFrame.Type)
}

func TestRecentHistory(t *testing.T) {
	_, srv := newTestBroker(t)
	conn := dialWS(t, srv, "tok-alex")

	channel := realtime.TeamChannel("t1")
	writeFrame(t, conn, &realtime.Frame{Type: realtime.FrameSubscribe, Channel: channel})
	readFrame(t, conn)
	writeFrame(t, conn, &realtime.Frame{Type: realtime.FrameSend, Channel: channel, Content: "first"})
	readFrame(t, conn)
	writeFrame(t, conn, &realtime.Frame{Type: realtime.FrameSend, Channel: channel, Content: "second"})
	readFrame(t, conn)

	req, _ := http.NewRequest(http.MethodGet, srv.URL+"/api/chat/teams/t1/messages/recent", nil)
	req.Header.Set("Authorization", "Bearer tok-alex")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var msgs []types.ChatMessage
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&msgs))
	require.Len(t, msgs, 2)
	assert.Equal(t, "first", msgs[0].Content)
	assert.Equal(t, "second", msgs[1].Content)
}

func TestRecentHistoryRequiresAuth(t *testing.T) {
	_, srv := newTestBroker(t)

	resp, err := http.Get(srv.URL + "/api/chat/teams/t1/messages/recent")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestHealthAndMetrics(t *testing.T) {
	_, srv := newTestBroker(t)

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
