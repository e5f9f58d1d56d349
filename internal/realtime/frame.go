package realtime

import (
	"fmt"
	"strings"
	"time"

	"github.com/bytedance/sonic"

	"github.com/hackmate/client/internal/shared/types"
)

// FrameType discriminates wire frames.
type FrameType string

// Client to server frame types.
const (
	FrameSubscribe   FrameType = "subscribe"
	FrameUnsubscribe FrameType = "unsubscribe"
	FrameSend        FrameType = "send"
	FrameJoin        FrameType = "join"
	FrameLeave       FrameType = "leave"
)

// Server to client frame types.
const (
	FrameMessage      FrameType = "message"
	FrameNotification FrameType = "notification"
	FrameSubscribed   FrameType = "subscribed"
	FrameError        FrameType = "error"
)

// NotificationPayload is the raw wire shape of a personal notification.
// The type tag stays a plain string so unknown tags survive decoding and can
// be classified (as Other) instead of dropped.
type NotificationPayload struct {
	Type      string    `json:"type"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp,omitempty"`
}

// Frame is a single wire frame on the realtime connection.
type Frame struct {
	Type         FrameType            `json:"type"`
	Channel      string               `json:"channel,omitempty"`
	Content      string               `json:"content,omitempty"`
	Message      *types.ChatMessage   `json:"message,omitempty"`
	Notification *NotificationPayload `json:"notification,omitempty"`
	Error        string               `json:"error,omitempty"`
}

// EncodeFrame serializes a frame for the wire.
func EncodeFrame(f *Frame) ([]byte, error) {
	data, err := sonic.Marshal(f)
	if err != nil {
		return nil, fmt.Errorf("encode frame: %w", err)
	}
	return data, nil
}

// DecodeFrame parses a wire frame. Frames without a type are rejected;
// unknown types are returned as-is so the caller decides how to surface them.
func DecodeFrame(data []byte) (*Frame, error) {
	var f Frame
	if err := sonic.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decode frame: %w", err)
	}
	if f.Type == "" {
		return nil, fmt.Errorf("decode frame: missing type")
	}
	return &f, nil
}

// TeamChannel returns the chat channel identifier for a team.
func TeamChannel(teamID string) string {
	return fmt.Sprintf("teams/%s/chat", teamID)
}

// UserChannel returns the personal notification channel for a user.
func UserChannel(userID string) string {
	return fmt.Sprintf("users/%s/notifications", userID)
}

// ParseTeamChannel extracts the team identifier from a chat channel name.
func ParseTeamChannel(channel string) (string, bool) {
	rest, ok := strings.CutPrefix(channel, "teams/")
	if !ok {
		return "", false
	}
	teamID, ok := strings.CutSuffix(rest, "/chat")
	if !ok || teamID == "" {
		return "", false
	}
	return teamID, true
}
