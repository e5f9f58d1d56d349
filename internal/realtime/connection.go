package realtime

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/hackmate/client/internal/infrastructure/logging"
	"github.com/hackmate/client/internal/infrastructure/monitoring"
	"github.com/hackmate/client/internal/shared/types"
	"github.com/hackmate/client/internal/shared/validate"
)

// Options configures a connection manager.
type Options struct {
	Endpoint string

	// ReconnectDelay is the fixed backoff between reconnect attempts.
	ReconnectDelay time.Duration
	// MaxReconnectAttempts bounds the retry loop; zero retries forever.
	MaxReconnectAttempts int

	HandshakeTimeout  time.Duration
	HeartbeatInterval time.Duration
	HeartbeatTimeout  time.Duration

	// Dialer overrides the websocket dialer, used by tests.
	Dialer  Dialer
	Logger  *logging.Logger
	Metrics *monitoring.Metrics
}

func (o Options) withDefaults() Options {
	if o.ReconnectDelay == 0 {
		o.ReconnectDelay = 5 * time.Second
	}
	if o.HandshakeTimeout == 0 {
		o.HandshakeTimeout = 10 * time.Second
	}
	if o.HeartbeatInterval == 0 {
		o.HeartbeatInterval = 4 * time.Second
	}
	if o.HeartbeatTimeout == 0 {
		o.HeartbeatTimeout = 10 * time.Second
	}
	if o.Dialer == nil {
		o.Dialer = &WebsocketDialer{
			HandshakeTimeout:  o.HandshakeTimeout,
			HeartbeatInterval: o.HeartbeatInterval,
			HeartbeatTimeout:  o.HeartbeatTimeout,
		}
	}
	if o.Logger == nil {
		o.Logger = logging.NewNop()
	}
	return o
}

// StatusHandler observes connection status transitions.
type StatusHandler func(types.ConnectionStatus)

// ErrorHandler observes connection-level errors surfaced to the UI
// (auth rejection during reconnect, retry exhaustion).
type ErrorHandler func(error)

// Manager owns the single realtime connection for an authenticated session.
//
// It serializes connect/disconnect transitions, reconnects with fixed backoff
// on unexpected transport loss, and fans inbound frames out to the channel
// registry and the notification router. Exactly one Manager exists per
// session; its lifetime is tied to the session's.
type Manager struct {
	opts    Options
	session types.Session
	log     *logging.Logger
	metrics *monitoring.Metrics
	router  *NotificationRouter

	mu        sync.Mutex
	status    types.ConnectionStatus
	transport Transport
	gen       uint64 // bumped per attach/teardown to invalidate stale read loops
	retryStop chan struct{}
	tornDown  bool

	// Hooks are registered before Connect and never mutated afterwards.
	onConnected []func()
	onTeardown  []func()
	onFrame     func(*Frame)
	onStatus    StatusHandler
	onError     ErrorHandler
}

// NewManager creates a manager for the given session. The session credential
// is presented at every handshake, including reconnects.
func NewManager(session types.Session, opts Options) *Manager {
	opts = opts.withDefaults()
	return &Manager{
		opts:    opts,
		session: session,
		log:     opts.Logger.Named("realtime"),
		metrics: opts.Metrics,
		router:  NewNotificationRouter(opts.Logger, opts.Metrics),
		status:  types.StatusDisconnected,
	}
}

// Router returns the personal notification router for this connection.
func (m *Manager) Router() *NotificationRouter {
	return m.router
}

// Session returns the session this manager operates under.
func (m *Manager) Session() types.Session {
	return m.session
}

// Status returns the current connection status.
func (m *Manager) Status() types.ConnectionStatus {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.status
}

// TornDown reports whether the manager was explicitly disconnected.
func (m *Manager) TornDown() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tornDown
}

// OnConnected registers a hook fired after every successful handshake,
// including reconnects. Register before Connect.
func (m *Manager) OnConnected(hook func()) {
	m.onConnected = append(m.onConnected, hook)
}

// OnTeardown registers a hook fired on explicit Disconnect. Register before
// Connect.
func (m *Manager) OnTeardown(hook func()) {
	m.onTeardown = append(m.onTeardown, hook)
}

// SetFrameHandler installs the inbound chat-frame handler. Register before
// Connect.
func (m *Manager) SetFrameHandler(handler func(*Frame)) {
	m.onFrame = handler
}

// SetStatusHandler installs a status transition observer.
func (m *Manager) SetStatusHandler(handler StatusHandler) {
	m.onStatus = handler
}

// SetErrorHandler installs a connection-error observer.
func (m *Manager) SetErrorHandler(handler ErrorHandler) {
	m.onError = handler
}

// Connect opens the realtime connection.
//
// Without a credential it fails with ErrAuthMissing. A handshake rejected for
// auth reasons fails with ErrAuthRejected and is not retried. Any other
// failure returns the dial error and leaves the manager in Reconnecting: the
// retry loop keeps going in the background until Disconnect or success.
func (m *Manager) Connect(ctx context.Context) error {
	if !m.session.Valid() {
		return ErrAuthMissing
	}

	m.mu.Lock()
	if m.status != types.StatusDisconnected {
		m.mu.Unlock()
		return ErrConnectInProgress
	}
	m.status = types.StatusConnecting
	m.tornDown = false
	stop := make(chan struct{})
	m.retryStop = stop
	m.mu.Unlock()
	m.notifyStatus(types.StatusConnecting)

	t, err := m.opts.Dialer.Dial(ctx, m.opts.Endpoint, m.session.Token)
	if err != nil {
		if errors.Is(err, ErrAuthRejected) {
			if m.metrics != nil {
				m.metrics.AuthFailures.Inc()
			}
			m.mu.Lock()
			m.status = types.StatusDisconnected
			m.retryStop = nil
			m.mu.Unlock()
			m.notifyStatus(types.StatusDisconnected)
			return err
		}

		m.mu.Lock()
		m.status = types.StatusReconnecting
		m.mu.Unlock()
		m.log.Warn("initial connect failed, retrying", zap.Error(err))
		m.notifyStatus(types.StatusReconnecting)
		go m.retryLoop(stop)
		return err
	}

	m.attach(t, stop)
	return nil
}

// Disconnect tears the connection down cleanly. Idempotent. This is the
// single place normal cleanup happens: the teardown hooks release every
// subscription held by the channel registry.
func (m *Manager) Disconnect() {
	m.mu.Lock()
	alreadyDown := m.status == types.StatusDisconnected && m.retryStop == nil && m.transport == nil
	if alreadyDown && (m.tornDown || m.gen == 0) {
		m.mu.Unlock()
		return
	}
	m.tornDown = true
	if m.retryStop != nil {
		close(m.retryStop)
		m.retryStop = nil
	}
	t := m.transport
	m.transport = nil
	wasConnected := m.status == types.StatusConnected
	m.status = types.StatusDisconnected
	m.gen++
	m.mu.Unlock()

	if t != nil {
		t.Close()
	}
	if wasConnected && m.metrics != nil {
		m.metrics.Connections.Dec()
	}
	for _, hook := range m.onTeardown {
		hook()
	}
	m.log.Info("disconnected")
	m.notifyStatus(types.StatusDisconnected)
}

// Send publishes a chat message to a team channel, fire-and-forget.
//
// The result is local: success means the connection was Connected at call
// time and the frame was handed to the transport. While not Connected the
// message is dropped, not queued, and ErrNotConnected is returned.
func (m *Manager) Send(teamID, content string) error {
	if err := validate.ChannelID(teamID); err != nil {
		return err
	}
	content, err := validate.Content(content)
	if err != nil {
		return err
	}

	m.mu.Lock()
	t := m.transport
	connected := m.status == types.StatusConnected
	m.mu.Unlock()

	if !connected || t == nil {
		if m.metrics != nil {
			m.metrics.SendsDropped.Inc()
		}
		return ErrNotConnected
	}

	return m.writeFrame(t, &Frame{
		Type:    FrameSend,
		Channel: TeamChannel(teamID),
		Content: content,
	})
}

// writeFrame writes on the given transport and records traffic metrics.
func (m *Manager) writeFrame(t Transport, f *Frame) error {
	if err := t.WriteFrame(f); err != nil {
		return err
	}
	if m.metrics != nil {
		m.metrics.RecordFrame("out", string(f.Type))
	}
	return nil
}

// command writes a control frame (subscribe, join, leave...) on the current
// transport, best effort. Used by the channel registry.
func (m *Manager) command(f *Frame) error {
	m.mu.Lock()
	t := m.transport
	connected := m.status == types.StatusConnected
	m.mu.Unlock()

	if !connected || t == nil {
		return ErrNotConnected
	}
	return m.writeFrame(t, f)
}

// attach installs a freshly dialed transport. Teardown racing the dial wins:
// if Disconnect fired while the handshake was in flight the transport is
// closed and discarded.
func (m *Manager) attach(t Transport, stop chan struct{}) bool {
	m.mu.Lock()
	select {
	case <-stop:
		m.mu.Unlock()
		t.Close()
		return false
	default:
	}
	m.transport = t
	m.status = types.StatusConnected
	m.gen++
	gen := m.gen
	m.mu.Unlock()

	if m.metrics != nil {
		m.metrics.Connections.Inc()
	}
	m.log.Info("connected", zap.String("user_id", m.session.UserID))
	m.notifyStatus(types.StatusConnected)

	// Personal notification subscription, scoped to this user.
	m.writeFrame(t, &Frame{Type: FrameSubscribe, Channel: UserChannel(m.session.UserID)})

	for _, hook := range m.onConnected {
		hook()
	}

	go m.readLoop(gen, t)
	return true
}

// readLoop pumps inbound frames until the transport fails. Handlers run to
// completion on this goroutine; there is no parallel handler execution for a
// connection.
func (m *Manager) readLoop(gen uint64, t Transport) {
	for {
		f, err := t.ReadFrame()
		if err != nil {
			m.handleReadFailure(gen, err)
			return
		}
		if m.metrics != nil {
			m.metrics.RecordFrame("in", string(f.Type))
		}
		m.dispatch(f)
	}
}

func (m *Manager) dispatch(f *Frame) {
	switch f.Type {
	case FrameMessage, FrameError:
		if m.onFrame != nil {
			m.onFrame(f)
		}
	case FrameNotification:
		m.router.Route(f.Notification)
	case FrameSubscribed:
		m.log.Debug("subscription acknowledged", zap.String("channel", f.Channel))
	default:
		m.log.Warn("unhandled frame", zap.String("type", string(f.Type)))
	}
}

// handleReadFailure enters the reconnect path after an unexpected transport
// loss. Stale read loops from a previous connection generation are ignored,
// as is the loop shut down by an explicit Disconnect.
func (m *Manager) handleReadFailure(gen uint64, err error) {
	m.mu.Lock()
	if gen != m.gen || m.tornDown || m.status != types.StatusConnected {
		m.mu.Unlock()
		return
	}
	t := m.transport
	m.transport = nil
	m.status = types.StatusReconnecting
	stop := m.retryStop
	m.mu.Unlock()

	if t != nil {
		t.Close()
	}
	if m.metrics != nil {
		m.metrics.Connections.Dec()
	}
	m.log.Warn("transport closed unexpectedly", zap.Error(err))
	m.notifyStatus(types.StatusReconnecting)

	go m.retryLoop(stop)
}

// retryLoop re-dials with fixed backoff until success, teardown, auth
// rejection, or the configured attempt cap.
func (m *Manager) retryLoop(stop chan struct{}) {
	attempts := 0
	for {
		select {
		case <-stop:
			return
		case <-time.After(m.opts.ReconnectDelay):
		}

		attempts++
		if m.metrics != nil {
			m.metrics.Reconnects.Inc()
		}

		t, err := m.opts.Dialer.Dial(context.Background(), m.opts.Endpoint, m.session.Token)
		if err == nil {
			m.attach(t, stop)
			return
		}

		if errors.Is(err, ErrAuthRejected) {
			// Credential went stale mid-session. Stop retrying and hand the
			// problem to the caller.
			if m.metrics != nil {
				m.metrics.AuthFailures.Inc()
			}
			m.giveUp(err)
			return
		}

		m.log.Warn("reconnect attempt failed",
			zap.Int("attempt", attempts),
			zap.Error(err))

		if m.opts.MaxReconnectAttempts > 0 && attempts >= m.opts.MaxReconnectAttempts {
			m.giveUp(err)
			return
		}
	}
}

func (m *Manager) giveUp(err error) {
	m.mu.Lock()
	if m.tornDown {
		m.mu.Unlock()
		return
	}
	m.status = types.StatusDisconnected
	m.retryStop = nil
	m.mu.Unlock()

	m.notifyStatus(types.StatusDisconnected)
	if m.onError != nil {
		m.onError(err)
	}
}

func (m *Manager) notifyStatus(status types.ConnectionStatus) {
	if m.onStatus != nil {
		m.onStatus(status)
	}
}
