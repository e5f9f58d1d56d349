package realtime

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/hackmate/client/internal/infrastructure/logging"
	"github.com/hackmate/client/internal/infrastructure/monitoring"
	"github.com/hackmate/client/internal/shared/id"
	"github.com/hackmate/client/internal/shared/types"
	"github.com/hackmate/client/internal/shared/validate"
)

// Subscription is the handle for one live channel registration.
type Subscription struct {
	ID       id.SubscriptionID
	TeamID   string
	JoinedAt time.Time
}

// SubscriptionErrorHandler observes server-rejected subscriptions.
type SubscriptionErrorHandler func(teamID string, err error)

// Registry maps team identifiers to live channel subscriptions.
//
// It enforces at most one subscription per channel, queues subscribe requests
// issued before the connection is up, and replays the active set after every
// reconnect. Subscription state is the authority, not the transport.
type Registry struct {
	manager *Manager
	store   *Store
	log     *logging.Logger
	metrics *monitoring.Metrics

	mu      sync.Mutex
	active  map[string]*Subscription
	pending map[string]struct{}

	onError SubscriptionErrorHandler
}

// NewRegistry creates a registry bound to a connection manager and message
// store. It hooks itself into the manager's connected/teardown lifecycle and
// inbound frame stream.
func NewRegistry(manager *Manager, store *Store) *Registry {
	r := &Registry{
		manager: manager,
		store:   store,
		log:     manager.log.Named("channels"),
		metrics: manager.metrics,
		active:  make(map[string]*Subscription),
		pending: make(map[string]struct{}),
	}
	manager.OnConnected(r.replay)
	manager.OnTeardown(r.releaseAll)
	manager.SetFrameHandler(r.handleFrame)
	return r
}

// SetErrorHandler installs the observer for rejected subscriptions.
func (r *Registry) SetErrorHandler(handler SubscriptionErrorHandler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onError = handler
}

// Subscribe registers interest in a team's chat channel. Idempotent: a
// second call without an intervening Unsubscribe is a no-op.
//
// When the connection is not yet Connected the request is queued and applied
// once the connected event fires. With no usable session at all it fails
// with ErrNotConnected. After an explicit Disconnect the registry is torn
// down and Subscribe also fails with ErrNotConnected: teardown wins.
func (r *Registry) Subscribe(teamID string) error {
	if err := validate.ChannelID(teamID); err != nil {
		return err
	}
	if !r.manager.Session().Valid() {
		return ErrNotConnected
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.active[teamID]; ok {
		return nil
	}
	if _, ok := r.pending[teamID]; ok {
		return nil
	}

	if r.manager.Status() == types.StatusConnected {
		r.activateLocked(teamID)
		return nil
	}
	if r.manager.TornDown() {
		return ErrNotConnected
	}
	r.pending[teamID] = struct{}{}
	r.log.Debug("subscribe queued until connected", zap.String("team_id", teamID))
	return nil
}

// Unsubscribe releases a team's channel subscription. No-op when not
// subscribed. The handle is released before return; any late inbound frames
// for the channel are dropped.
func (r *Registry) Unsubscribe(teamID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.pending[teamID]; ok {
		delete(r.pending, teamID)
		return
	}
	if _, ok := r.active[teamID]; !ok {
		return
	}

	delete(r.active, teamID)
	if r.metrics != nil {
		r.metrics.SubscriptionsActive.Dec()
	}

	// Best effort: the leave announcement is informational.
	r.manager.command(&Frame{Type: FrameUnsubscribe, Channel: TeamChannel(teamID)})
	r.manager.command(&Frame{Type: FrameLeave, Channel: TeamChannel(teamID)})
	r.log.Debug("unsubscribed", zap.String("team_id", teamID))
}

// Subscribed reports whether a team channel is currently active.
func (r *Registry) Subscribed(teamID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.active[teamID]
	return ok
}

// ActiveTeams returns the identifiers of all active channels.
func (r *Registry) ActiveTeams() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	teams := make([]string, 0, len(r.active))
	for teamID := range r.active {
		teams = append(teams, teamID)
	}
	return teams
}

// activateLocked creates the subscription and issues subscribe plus a
// best-effort join announcement. Caller holds r.mu.
func (r *Registry) activateLocked(teamID string) {
	r.active[teamID] = &Subscription{
		ID:       id.NewSubscriptionID(),
		TeamID:   teamID,
		JoinedAt: time.Now(),
	}
	if r.metrics != nil {
		r.metrics.SubscriptionsActive.Inc()
	}

	r.manager.command(&Frame{Type: FrameSubscribe, Channel: TeamChannel(teamID)})
	r.manager.command(&Frame{Type: FrameJoin, Channel: TeamChannel(teamID)})
	r.log.Debug("subscribed", zap.String("team_id", teamID))
}

// replay re-issues every subscription that was active or queued before the
// connection (re)established. Fired on the manager's connected event.
func (r *Registry) replay() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for teamID, sub := range r.active {
		// Keep the original handle and join time; only the transport-side
		// registration is re-established.
		r.manager.command(&Frame{Type: FrameSubscribe, Channel: TeamChannel(teamID)})
		r.manager.command(&Frame{Type: FrameJoin, Channel: TeamChannel(teamID)})
		r.log.Debug("subscription replayed",
			zap.String("team_id", teamID),
			zap.String("subscription_id", sub.ID.String()))
	}
	// A freshly promoted channel sends its frames from activateLocked, so
	// pending entries are activated after the active pass to avoid a second
	// subscribe for the same channel.
	for teamID := range r.pending {
		delete(r.pending, teamID)
		r.activateLocked(teamID)
	}
}

// releaseAll drops every subscription, queued or active. Fired on explicit
// Disconnect; this is the single normal cleanup path, so handles cannot leak.
func (r *Registry) releaseAll() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.metrics != nil {
		r.metrics.SubscriptionsActive.Sub(float64(len(r.active)))
	}
	r.active = make(map[string]*Subscription)
	r.pending = make(map[string]struct{})
}

// handleFrame routes inbound channel-scoped frames. Runs on the connection's
// read goroutine.
func (r *Registry) handleFrame(f *Frame) {
	teamID, ok := ParseTeamChannel(f.Channel)
	if !ok {
		r.log.Warn("frame for unrecognized channel", zap.String("channel", f.Channel))
		return
	}

	switch f.Type {
	case FrameMessage:
		if f.Message == nil {
			r.log.Warn("message frame without payload", zap.String("team_id", teamID))
			return
		}
		r.mu.Lock()
		_, subscribed := r.active[teamID]
		r.mu.Unlock()
		if !subscribed {
			// Late frame after unsubscribe: dropped silently.
			return
		}
		r.store.Append(teamID, *f.Message)

	case FrameError:
		r.mu.Lock()
		_, subscribed := r.active[teamID]
		if subscribed {
			delete(r.active, teamID)
			if r.metrics != nil {
				r.metrics.SubscriptionsActive.Dec()
			}
		}
		delete(r.pending, teamID)
		handler := r.onError
		r.mu.Unlock()

		if r.metrics != nil {
			r.metrics.SubscriptionFailures.Inc()
		}
		err := &SubscriptionError{ChannelID: teamID, Reason: f.Error}
		r.log.Warn("subscription rejected", zap.String("team_id", teamID), zap.String("reason", f.Error))
		if handler != nil {
			handler(teamID, err)
		}
	}
}
