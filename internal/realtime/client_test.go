package realtime

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hackmate/client/internal/infrastructure/config"
	"github.com/hackmate/client/internal/shared/types"
)

func newTestClient(t *testing.T) (*Client, *fakeDialer) {
	t.Helper()
	d := &fakeDialer{}
	return New(testSession(), testOptions(d)), d
}

func TestClientChatSession(t *testing.T) {
	c, d := newTestClient(t)

	require.NoError(t, c.Connect(context.Background()))
	defer c.Disconnect()
	require.NoError(t, c.JoinTeamChat("team-1"))
	assert.True(t, c.InTeamChat("team-1"))

	tr := d.transport(0)
	tr.deliver(&Frame{
		Type:    FrameMessage,
		Channel: TeamChannel("team-1"),
		Message: &types.ChatMessage{ID: "m1", SenderName: "sam", Content: "hey"},
	})
	tr.deliver(&Frame{
		Type:    FrameMessage,
		Channel: TeamChannel("team-1"),
		Message: &types.ChatMessage{ID: "m2", SenderName: "alex", Content: "hi"},
	})

	require.Eventually(t, func() bool {
		return len(c.TeamMessages("team-1")) == 2
	}, waitFor, time.Millisecond)

	msgs := c.TeamMessages("team-1")
	assert.Equal(t, "hey", msgs[0].Content)
	assert.Equal(t, "hi", msgs[1].Content)

	require.NoError(t, c.SendMessage("team-1", "hello back"))
	sends := tr.writes(FrameSend)
	require.Len(t, sends, 1)
	assert.Equal(t, "hello back", sends[0].Content)
}

func TestClientSendWhileDisconnected(t *testing.T) {
	c, d := newTestClient(t)

	assert.ErrorIs(t, c.SendMessage("team-1", "dropped"), ErrNotConnected)
	assert.Zero(t, d.dialCount())
}

func TestClientLeaveStopsHistory(t *testing.T) {
	c, d := newTestClient(t)

	require.NoError(t, c.Connect(context.Background()))
	defer c.Disconnect()
	require.NoError(t, c.JoinTeamChat("team-1"))

	tr := d.transport(0)
	tr.deliver(&Frame{
		Type:    FrameMessage,
		Channel: TeamChannel("team-1"),
		Message: &types.ChatMessage{ID: "m1", Content: "before leave"},
	})
	require.Eventually(t, func() bool {
		return len(c.TeamMessages("team-1")) == 1
	}, waitFor, time.Millisecond)

	c.LeaveTeamChat("team-1")
	tr.deliver(&Frame{
		Type:    FrameMessage,
		Channel: TeamChannel("team-1"),
		Message: &types.ChatMessage{ID: "m2", Content: "after leave"},
	})
	time.Sleep(30 * time.Millisecond)

	// History kept but no longer growing.
	msgs := c.TeamMessages("team-1")
	require.Len(t, msgs, 1)
	assert.Equal(t, "before leave", msgs[0].Content)

	c.ClearTeamMessages("team-1")
	assert.Empty(t, c.TeamMessages("team-1"))
}

func TestClientNotifications(t *testing.T) {
	c, d := newTestClient(t)

	var mu sync.Mutex
	var got []types.Notification
	c.OnNotification(func(n types.Notification) {
		mu.Lock()
		got = append(got, n)
		mu.Unlock()
	})

	require.NoError(t, c.Connect(context.Background()))
	defer c.Disconnect()

	d.transport(0).deliver(&Frame{
		Type:         FrameNotification,
		Channel:      UserChannel("u1"),
		Notification: &NotificationPayload{Type: "TEAM_INVITATION", Message: "join us"},
	})

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(got) == 1
	}, waitFor, time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, types.NotificationTeamInvitation, got[0].Type)
	assert.Equal(t, "join us", got[0].Message)
}

func TestClientResubscribeAcrossReconnect(t *testing.T) {
	c, d := newTestClient(t)

	require.NoError(t, c.Connect(context.Background()))
	defer c.Disconnect()
	require.NoError(t, c.JoinTeamChat("team-1"))

	d.transport(0).fail()
	require.Eventually(t, func() bool {
		return c.Status() == types.StatusConnected && d.dialCount() == 2
	}, waitFor, time.Millisecond)
	require.True(t, c.InTeamChat("team-1"))

	// Message on the new transport still lands in history.
	require.Eventually(t, func() bool {
		return d.transport(1) != nil
	}, waitFor, time.Millisecond)
	d.transport(1).deliver(&Frame{
		Type:    FrameMessage,
		Channel: TeamChannel("team-1"),
		Message: &types.ChatMessage{ID: "m1", Content: "still here"},
	})
	require.Eventually(t, func() bool {
		return len(c.TeamMessages("team-1")) == 1
	}, waitFor, time.Millisecond)
}

func TestClientJoinBeforeConnect(t *testing.T) {
	c, d := newTestClient(t)

	require.NoError(t, c.JoinTeamChat("team-1"))
	assert.False(t, c.InTeamChat("team-1"))

	require.NoError(t, c.Connect(context.Background()))
	defer c.Disconnect()
	assert.True(t, c.InTeamChat("team-1"))

	var found bool
	for _, f := range d.transport(0).writes(FrameSubscribe) {
		if f.Channel == TeamChannel("team-1") {
			found = true
		}
	}
	assert.True(t, found)
}

func TestClientSubscriptionErrorSurfaced(t *testing.T) {
	c, d := newTestClient(t)

	var mu sync.Mutex
	var gotTeam string
	c.OnSubscriptionError(func(teamID string, err error) {
		mu.Lock()
		gotTeam = teamID
		mu.Unlock()
	})

	require.NoError(t, c.Connect(context.Background()))
	defer c.Disconnect()
	require.NoError(t, c.JoinTeamChat("team-1"))

	d.transport(0).deliver(&Frame{
		Type:    FrameError,
		Channel: TeamChannel("team-1"),
		Error:   "not a member",
	})

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return gotTeam == "team-1"
	}, waitFor, time.Millisecond)
	assert.False(t, c.InTeamChat("team-1"))
}

func TestOptionsFromConfig(t *testing.T) {
	cfg := config.RealtimeConfig{
		Endpoint:             "ws://example/ws",
		ReconnectDelay:       2 * time.Second,
		HeartbeatInterval:    3 * time.Second,
		HeartbeatTimeout:     9 * time.Second,
		MaxReconnectAttempts: 7,
	}

	opts := OptionsFromConfig(cfg, nil, nil)

	assert.Equal(t, "ws://example/ws", opts.Endpoint)
	assert.Equal(t, 2*time.Second, opts.ReconnectDelay)
	assert.Equal(t, 3*time.Second, opts.HeartbeatInterval)
	assert.Equal(t, 9*time.Second, opts.HeartbeatTimeout)
	assert.Equal(t, 7, opts.MaxReconnectAttempts)
}
