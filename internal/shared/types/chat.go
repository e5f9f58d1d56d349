package types

import "time"

// ChatMessage is a single chat message delivered on a team channel.
// Messages are immutable once created; the client stores them in receipt
// order and never rewrites them.
type ChatMessage struct {
	ID         string    `json:"id"`
	ChannelID  string    `json:"channel_id"`
	SenderID   string    `json:"sender_id"`
	SenderName string    `json:"sender_name"`
	Content    string    `json:"content"`
	Timestamp  time.Time `json:"timestamp"`
}

// NotificationType tags a personal notification.
type NotificationType string

const (
	NotificationTeamInvitation NotificationType = "TEAM_INVITATION"
	NotificationTeamJoin       NotificationType = "TEAM_JOIN"
	NotificationTeamLeave      NotificationType = "TEAM_LEAVE"
	NotificationOther          NotificationType = "OTHER"
)

// Notification is a personal, out-of-band event (invitation, join/leave).
// Transient: consumed by the presentation layer, never persisted.
type Notification struct {
	Type      NotificationType `json:"type"`
	Message   string           `json:"message"`
	Timestamp time.Time        `json:"timestamp"`
}

// Classify maps a raw type tag onto a known NotificationType. Unknown or
// empty tags map to Other so unexpected server behavior stays visible.
func Classify(tag string) NotificationType {
	switch NotificationType(tag) {
	case NotificationTeamInvitation, NotificationTeamJoin, NotificationTeamLeave:
		return NotificationType(tag)
	default:
		return NotificationOther
	}
}
