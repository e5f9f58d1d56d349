package types

// Session is the authenticated context a connection operates under.
// It is owned by the external identity provider; the realtime layer holds a
// read-only copy for the duration of a connection.
type Session struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	Token    string `json:"-"`
}

// Valid reports whether the session carries a usable credential.
func (s Session) Valid() bool {
	return s.Token != ""
}

// ConnectionStatus is the lifecycle state of the realtime connection.
type ConnectionStatus string

const (
	StatusDisconnected ConnectionStatus = "disconnected"
	StatusConnecting   ConnectionStatus = "connecting"
	StatusConnected    ConnectionStatus = "connected"
	StatusReconnecting ConnectionStatus = "reconnecting"
)
