package broker

import (
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/hackmate/client/internal/infrastructure/logging"
	"github.com/hackmate/client/internal/realtime"
	"github.com/hackmate/client/internal/shared/id"
	"github.com/hackmate/client/internal/shared/types"
	"github.com/hackmate/client/internal/shared/validate"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 10 * time.Second
	pingPeriod = 4 * time.Second

	outboundBuffer = 64
)

// Identity names the authenticated user behind a connection.
type Identity struct {
	UserID   string
	Username string
}

// session is one websocket connection on the broker side.
type session struct {
	srv      *Server
	conn     *websocket.Conn
	identity Identity
	log      *logging.Logger

	outbound chan []byte
	done     chan struct{}
}

func newSession(srv *Server, conn *websocket.Conn, identity Identity) *session {
	return &session{
		srv:      srv,
		conn:     conn,
		identity: identity,
		log:      srv.log.With(zap.String("user_id", identity.UserID)),
		outbound: make(chan []byte, outboundBuffer),
		done:     make(chan struct{}),
	}
}

// enqueue hands a serialized frame to the write pump. Slow consumers lose
// frames rather than stall the hub.
func (s *session) enqueue(data []byte) {
	select {
	case s.outbound <- data:
	default:
		s.log.Warn("outbound buffer full, frame dropped")
	}
}

func (s *session) sendFrame(f *realtime.Frame) {
	data, err := realtime.EncodeFrame(f)
	if err != nil {
		return
	}
	s.enqueue(data)
}

func (s *session) sendError(channel, reason string) {
	s.sendFrame(&realtime.Frame{Type: realtime.FrameError, Channel: channel, Error: reason})
}

// run drives both pumps and blocks until the connection dies.
func (s *session) run() {
	go s.writePump()
	s.readPump()
}

func (s *session) readPump() {
	defer func() {
		s.srv.hub.drop(s)
		close(s.done)
		s.conn.Close()
	}()

	s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.log.Debug("connection lost", zap.Error(err))
			}
			return
		}

		f, err := realtime.DecodeFrame(data)
		if err != nil {
			s.sendError("", "malformed frame")
			continue
		}
		s.handle(f)
	}
}

func (s *session) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		s.conn.Close()
	}()

	for {
		select {
		case data := <-s.outbound:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-s.done:
			return
		}
	}
}

func (s *session) handle(f *realtime.Frame) {
	switch f.Type {
	case realtime.FrameSubscribe:
		s.handleSubscribe(f.Channel)
	case realtime.FrameUnsubscribe:
		s.srv.hub.unsubscribe(f.Channel, s)
	case realtime.FrameSend:
		s.handleSend(f)
	case realtime.FrameJoin:
		s.announce(f.Channel, types.NotificationTeamJoin, s.identity.Username+" joined the team chat")
	case realtime.FrameLeave:
		s.announce(f.Channel, types.NotificationTeamLeave, s.identity.Username+" left the team chat")
	default:
		s.sendError(f.Channel, "unknown frame type")
	}
}

func (s *session) handleSubscribe(channel string) {
	if _, ok := realtime.ParseTeamChannel(channel); ok {
		s.srv.hub.subscribe(channel, s)
		s.sendFrame(&realtime.Frame{Type: realtime.FrameSubscribed, Channel: channel})
		return
	}
	// Personal queues are private: a connection may only subscribe its own.
	if channel == realtime.UserChannel(s.identity.UserID) {
		s.srv.hub.subscribe(channel, s)
		s.sendFrame(&realtime.Frame{Type: realtime.FrameSubscribed, Channel: channel})
		return
	}
	s.sendError(channel, "unknown channel")
}

func (s *session) handleSend(f *realtime.Frame) {
	teamID, ok := realtime.ParseTeamChannel(f.Channel)
	if !ok {
		s.sendError(f.Channel, "unknown channel")
		return
	}
	content, err := validate.Content(f.Content)
	if err != nil {
		s.sendError(f.Channel, err.Error())
		return
	}

	msg := types.ChatMessage{
		ID:         id.NewMessageID().String(),
		ChannelID:  f.Channel,
		SenderID:   s.identity.UserID,
		SenderName: s.identity.Username,
		Content:    content,
		Timestamp:  time.Now().UTC(),
	}
	s.srv.hub.record(teamID, msg)
	s.srv.hub.publish(f.Channel, &realtime.Frame{
		Type:    realtime.FrameMessage,
		Channel: f.Channel,
		Message: &msg,
	})
}

// announce fans a join/leave notification out to the channel's subscribers.
func (s *session) announce(channel string, kind types.NotificationType, message string) {
	if _, ok := realtime.ParseTeamChannel(channel); !ok {
		s.sendError(channel, "unknown channel")
		return
	}
	s.srv.hub.publish(channel, &realtime.Frame{
		Type:    realtime.FrameNotification,
		Channel: channel,
		Notification: &realtime.NotificationPayload{
			Type:      string(kind),
			Message:   message,
			Timestamp: time.Now().UTC(),
		},
	})
}
