package realtime

import (
	"sync"

	"github.com/hackmate/client/internal/shared/types"
)

// Store holds the in-memory, per-channel ordered message history.
//
// Messages are appended in receipt order and never reordered or deduplicated:
// if the transport delivers a duplicate frame it is stored twice. History
// lives only as long as the Store; a fresh session re-fetches from the REST
// collaborator.
type Store struct {
	mu       sync.RWMutex
	messages map[string][]types.ChatMessage
}

// NewStore creates an empty message store.
func NewStore() *Store {
	return &Store{
		messages: make(map[string][]types.ChatMessage),
	}
}

// Append adds a message to the tail of a channel's sequence.
func (s *Store) Append(channelID string, msg types.ChatMessage) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.messages[channelID] = append(s.messages[channelID], msg)
}

// Get returns a copy of the channel's current sequence. Callers may re-read
// at any time; reading does not consume.
func (s *Store) Get(channelID string) []types.ChatMessage {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seq := s.messages[channelID]
	if len(seq) == 0 {
		return nil
	}
	out := make([]types.ChatMessage, len(seq))
	copy(out, seq)
	return out
}

// Len returns the number of messages buffered for a channel.
func (s *Store) Len(channelID string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.messages[channelID])
}

// Clear discards the in-memory history for a channel. Server-side history is
// unaffected.
func (s *Store) Clear(channelID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.messages, channelID)
}
