package broker

import (
	"sync"

	"github.com/hackmate/client/internal/realtime"
	"github.com/hackmate/client/internal/shared/types"
)

// recentLimit caps the history slice served by the recent-messages endpoint.
const recentLimit = 50

// Hub fans frames out to every connection subscribed to a channel and keeps
// the per-team message history the REST endpoints serve.
type Hub struct {
	mu      sync.RWMutex
	subs    map[string]map[*session]struct{}
	history map[string][]types.ChatMessage
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{
		subs:    make(map[string]map[*session]struct{}),
		history: make(map[string][]types.ChatMessage),
	}
}

// subscribe adds a connection to a channel's fan-out set.
func (h *Hub) subscribe(channel string, s *session) {
	h.mu.Lock()
	defer h.mu.Unlock()

	set, ok := h.subs[channel]
	if !ok {
		set = make(map[*session]struct{})
		h.subs[channel] = set
	}
	set[s] = struct{}{}
}

// unsubscribe removes a connection from a channel's fan-out set.
func (h *Hub) unsubscribe(channel string, s *session) {
	h.mu.Lock()
	defer h.mu.Unlock()

	set, ok := h.subs[channel]
	if !ok {
		return
	}
	delete(set, s)
	if len(set) == 0 {
		delete(h.subs, channel)
	}
}

// drop removes a connection from every channel, called when its socket dies.
func (h *Hub) drop(s *session) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for channel, set := range h.subs {
		delete(set, s)
		if len(set) == 0 {
			delete(h.subs, channel)
		}
	}
}

// publish delivers a frame to every subscriber of a channel. Connections
// with a full outbound buffer are skipped, not blocked on.
func (h *Hub) publish(channel string, f *realtime.Frame) {
	data, err := realtime.EncodeFrame(f)
	if err != nil {
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for s := range h.subs[channel] {
		s.enqueue(data)
	}
}

// record appends a chat message to the team's history.
func (h *Hub) record(teamID string, msg types.ChatMessage) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.history[teamID] = append(h.history[teamID], msg)
}

// Recent returns the newest messages for a team, oldest first.
func (h *Hub) Recent(teamID string) []types.ChatMessage {
	h.mu.RLock()
	defer h.mu.RUnlock()

	seq := h.history[teamID]
	if len(seq) > recentLimit {
		seq = seq[len(seq)-recentLimit:]
	}
	out := make([]types.ChatMessage, len(seq))
	copy(out, seq)
	return out
}

// subscriberCount reports the fan-out set size for a channel.
func (h *Hub) subscriberCount(channel string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[channel])
}
