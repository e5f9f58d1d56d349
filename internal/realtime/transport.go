package realtime

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Transport is the duplex frame stream under a connection. Implementations
// must support concurrent WriteFrame calls; ReadFrame is called from a single
// goroutine.
type Transport interface {
	ReadFrame() (*Frame, error)
	WriteFrame(f *Frame) error
	Close() error
}

// Dialer opens a Transport to the realtime endpoint, presenting the session
// credential at handshake time.
type Dialer interface {
	Dial(ctx context.Context, endpoint, token string) (Transport, error)
}

const writeWait = 10 * time.Second

// WebsocketDialer dials the realtime endpoint over a websocket, with
// ping/pong heartbeats at a fixed interval.
type WebsocketDialer struct {
	HandshakeTimeout  time.Duration
	HeartbeatInterval time.Duration
	HeartbeatTimeout  time.Duration
}

// Dial opens the websocket with a bearer credential. A handshake refused with
// 401 or 403 maps to ErrAuthRejected; other failures are transport errors.
func (d *WebsocketDialer) Dial(ctx context.Context, endpoint, token string) (Transport, error) {
	dialer := websocket.Dialer{
		HandshakeTimeout: d.HandshakeTimeout,
	}
	if dialer.HandshakeTimeout == 0 {
		dialer.HandshakeTimeout = 10 * time.Second
	}

	header := http.Header{}
	header.Set("Authorization", "Bearer "+token)

	conn, resp, err := dialer.DialContext(ctx, endpoint, header)
	if err != nil {
		if resp != nil && (resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden) {
			return nil, ErrAuthRejected
		}
		return nil, &TransportError{Op: "dial", Err: err}
	}

	t := &wsTransport{
		conn:     conn,
		interval: d.HeartbeatInterval,
		timeout:  d.HeartbeatTimeout,
		done:     make(chan struct{}),
	}
	if t.interval == 0 {
		t.interval = 4 * time.Second
	}
	if t.timeout == 0 {
		t.timeout = 10 * time.Second
	}

	t.conn.SetReadDeadline(time.Now().Add(t.timeout))
	t.conn.SetPongHandler(func(string) error {
		return t.conn.SetReadDeadline(time.Now().Add(t.timeout))
	})
	go t.pingLoop()

	return t, nil
}

// wsTransport wraps a gorilla connection with frame codec and heartbeat.
type wsTransport struct {
	conn     *websocket.Conn
	interval time.Duration
	timeout  time.Duration

	writeMu   sync.Mutex
	closeOnce sync.Once
	done      chan struct{}
}

func (t *wsTransport) ReadFrame() (*Frame, error) {
	_, data, err := t.conn.ReadMessage()
	if err != nil {
		return nil, &TransportError{Op: "read", Err: err}
	}
	return DecodeFrame(data)
}

func (t *wsTransport) WriteFrame(f *Frame) error {
	data, err := EncodeFrame(f)
	if err != nil {
		return err
	}

	t.writeMu.Lock()
	defer t.writeMu.Unlock()

	t.conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := t.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		return &TransportError{Op: "write", Err: err}
	}
	return nil
}

func (t *wsTransport) Close() error {
	var err error
	t.closeOnce.Do(func() {
		close(t.done)
		// Best effort close handshake; the peer may already be gone.
		t.writeMu.Lock()
		t.conn.WriteControl(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second),
		)
		t.writeMu.Unlock()
		err = t.conn.Close()
	})
	return err
}

// pingLoop emits keepalive pings. A peer that stops answering trips the read
// deadline, which surfaces as a read error and enters the reconnect path.
func (t *wsTransport) pingLoop() {
	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	for {
		select {
		case <-t.done:
			return
		case <-ticker.C:
			t.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait))
		}
	}
}
