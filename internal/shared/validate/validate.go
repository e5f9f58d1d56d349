// Package validate enforces input limits on outbound chat payloads before
// they reach the transport.
package validate

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// Limits on outbound payloads.
const (
	// MaxContentLength is the maximum chat message length in runes.
	MaxContentLength = 2000
	// MaxChannelIDLength bounds channel identifiers.
	MaxChannelIDLength = 128
)

// Content trims an outbound message body and validates it.
// Returns the trimmed content, or an error for empty or oversized input.
func Content(content string) (string, error) {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return "", fmt.Errorf("message content is empty")
	}
	if utf8.RuneCountInString(trimmed) > MaxContentLength {
		return "", fmt.Errorf("message content exceeds %d characters", MaxContentLength)
	}
	return trimmed, nil
}

// ChannelID validates a team channel identifier.
func ChannelID(channelID string) error {
	if channelID == "" {
		return fmt.Errorf("channel id is empty")
	}
	if len(channelID) > MaxChannelIDLength {
		return fmt.Errorf("channel id exceeds %d bytes", MaxChannelIDLength)
	}
	return nil
}
