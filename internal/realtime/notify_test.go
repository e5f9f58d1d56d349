package realtime

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hackmate/client/internal/shared/types"
)

func TestRouteClassification(t *testing.T) {
	tests := []struct {
		name string
		tag  string
		want types.NotificationType
	}{
		{"invitation", "TEAM_INVITATION", types.NotificationTeamInvitation},
		{"join", "TEAM_JOIN", types.NotificationTeamJoin},
		{"leave", "TEAM_LEAVE", types.NotificationTeamLeave},
		{"unknown tag", "SOMETHING_NEW", types.NotificationOther},
		{"empty tag", "", types.NotificationOther},
		{"case sensitive", "team_join", types.NotificationOther},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewNotificationRouter(nil, nil)
			var got types.Notification
			r.SetHandler(func(n types.Notification) { got = n })

			r.Route(&NotificationPayload{Type: tt.tag, Message: "hello"})

			assert.Equal(t, tt.want, got.Type)
			assert.Equal(t, "hello", got.Message)
		})
	}
}

func TestRouteNilPayload(t *testing.T) {
	r := NewNotificationRouter(nil, nil)
	var got types.Notification
	r.SetHandler(func(n types.Notification) { got = n })

	r.Route(nil)

	assert.Equal(t, types.NotificationOther, got.Type)
	assert.False(t, got.Timestamp.IsZero())
}

func TestRouteStampsMissingTimestamp(t *testing.T) {
	r := NewNotificationRouter(nil, nil)
	var got types.Notification
	r.SetHandler(func(n types.Notification) { got = n })

	before := time.Now()
	r.Route(&NotificationPayload{Type: "TEAM_JOIN"})

	require.False(t, got.Timestamp.IsZero())
	assert.False(t, got.Timestamp.Before(before))
}

func TestRoutePreservesTimestamp(t *testing.T) {
	r := NewNotificationRouter(nil, nil)
	var got types.Notification
	r.SetHandler(func(n types.Notification) { got = n })

	ts := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	r.Route(&NotificationPayload{Type: "TEAM_JOIN", Timestamp: ts})

	assert.True(t, got.Timestamp.Equal(ts))
}

func TestRouteWithoutHandler(t *testing.T) {
	r := NewNotificationRouter(nil, nil)

	assert.NotPanics(t, func() {
		r.Route(&NotificationPayload{Type: "TEAM_JOIN", Message: "dropped"})
	})
}

func TestRouteDetachHandler(t *testing.T) {
	r := NewNotificationRouter(nil, nil)
	var calls int
	r.SetHandler(func(types.Notification) { calls++ })

	r.Route(&NotificationPayload{Type: "TEAM_JOIN"})
	r.SetHandler(nil)
	r.Route(&NotificationPayload{Type: "TEAM_JOIN"})

	assert.Equal(t, 1, calls)
}
