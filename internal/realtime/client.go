package realtime

import (
	"context"

	"github.com/hackmate/client/internal/infrastructure/config"
	"github.com/hackmate/client/internal/infrastructure/logging"
	"github.com/hackmate/client/internal/infrastructure/monitoring"
	"github.com/hackmate/client/internal/shared/types"
)

// Client is the user-facing surface of the realtime layer. It bundles the
// connection manager, channel registry, and message store for one session.
//
// Typical lifecycle:
//
//	c := realtime.New(session, opts)
//	c.OnNotification(showToast)
//	if err := c.Connect(ctx); err != nil { ... }
//	c.JoinTeamChat(teamID)
//	c.SendMessage(teamID, "hello")
//	defer c.Disconnect()
type Client struct {
	manager  *Manager
	registry *Registry
	store    *Store
}

// New creates a realtime client for the given session. Handlers registered
// through the On* methods must be installed before Connect.
func New(session types.Session, opts Options) *Client {
	manager := NewManager(session, opts)
	store := NewStore()
	return &Client{
		manager:  manager,
		registry: NewRegistry(manager, store),
		store:    store,
	}
}

// OptionsFromConfig maps the realtime section of the application config onto
// connection options.
func OptionsFromConfig(cfg config.RealtimeConfig, log *logging.Logger, metrics *monitoring.Metrics) Options {
	return Options{
		Endpoint:             cfg.Endpoint,
		ReconnectDelay:       cfg.ReconnectDelay,
		MaxReconnectAttempts: cfg.MaxReconnectAttempts,
		HeartbeatInterval:    cfg.HeartbeatInterval,
		HeartbeatTimeout:     cfg.HeartbeatTimeout,
		Logger:               log,
		Metrics:              metrics,
	}
}

// Connect opens the realtime connection. See Manager.Connect for the error
// contract.
func (c *Client) Connect(ctx context.Context) error {
	return c.manager.Connect(ctx)
}

// Disconnect closes the connection and releases every subscription.
func (c *Client) Disconnect() {
	c.manager.Disconnect()
}

// Status returns the current connection status.
func (c *Client) Status() types.ConnectionStatus {
	return c.manager.Status()
}

// JoinTeamChat subscribes to a team's chat channel. Idempotent; queued when
// the connection is not yet up.
func (c *Client) JoinTeamChat(teamID string) error {
	return c.registry.Subscribe(teamID)
}

// LeaveTeamChat releases the team's chat subscription.
func (c *Client) LeaveTeamChat(teamID string) {
	c.registry.Unsubscribe(teamID)
}

// InTeamChat reports whether the team's chat channel is active.
func (c *Client) InTeamChat(teamID string) bool {
	return c.registry.Subscribed(teamID)
}

// SendMessage publishes a chat message to a team channel. Fire-and-forget:
// while not connected it fails with ErrNotConnected and the message is
// dropped.
func (c *Client) SendMessage(teamID, content string) error {
	return c.manager.Send(teamID, content)
}

// TeamMessages returns the messages received for a team this session, in
// arrival order.
func (c *Client) TeamMessages(teamID string) []types.ChatMessage {
	return c.store.Get(teamID)
}

// ClearTeamMessages drops the session-local history for a team.
func (c *Client) ClearTeamMessages(teamID string) {
	c.store.Clear(teamID)
}

// OnNotification installs the personal notification handler. Install before
// Connect.
func (c *Client) OnNotification(handler NotificationHandler) {
	c.manager.Router().SetHandler(handler)
}

// OnSubscriptionError installs the observer for server-rejected
// subscriptions. Install before Connect.
func (c *Client) OnSubscriptionError(handler SubscriptionErrorHandler) {
	c.registry.SetErrorHandler(handler)
}

// OnStatusChange installs a connection status observer. Install before
// Connect.
func (c *Client) OnStatusChange(handler StatusHandler) {
	c.manager.SetStatusHandler(handler)
}

// OnConnectionError installs an observer for connection-level errors (auth
// rejection during reconnect, retry exhaustion). Install before Connect.
func (c *Client) OnConnectionError(handler ErrorHandler) {
	c.manager.SetErrorHandler(handler)
}
