// Package testutil provides shared helpers for integration tests.
package testutil

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/hackmate/client/internal/broker"
	"github.com/hackmate/client/internal/realtime"
	"github.com/hackmate/client/internal/shared/types"
)

// Tokens used by the default broker fixture.
const (
	TokenAlex = "tok-alex"
	TokenSam  = "tok-sam"
)

// StartBroker spins up an in-process dev broker with two known users and
// returns its base URL. The server shuts down with the test.
func StartBroker(t *testing.T) (*broker.Server, string) {
	t.Helper()

	s := broker.NewServer(broker.Options{
		Tokens: map[string]broker.Identity{
			TokenAlex: {UserID: "u-alex", Username: "alex"},
			TokenSam:  {UserID: "u-sam", Username: "sam"},
		},
	})
	srv := httptest.NewServer(s.Handler())
	t.Cleanup(srv.Close)
	return s, srv.URL
}

// WSEndpoint converts an httptest base URL to the broker's websocket
// endpoint.
func WSEndpoint(baseURL string) string {
	return "ws" + strings.TrimPrefix(baseURL, "http") + "/ws"
}

// Session returns the session matching one of the fixture tokens.
func Session(token string) types.Session {
	switch token {
	case TokenSam:
		return types.Session{UserID: "u-sam", Username: "sam", Token: token}
	default:
		return types.Session{UserID: "u-alex", Username: "alex", Token: token}
	}
}

// ClientOptions returns realtime options pointed at the broker with fast
// reconnects for test use.
func ClientOptions(baseURL string) realtime.Options {
	return realtime.Options{
		Endpoint:          WSEndpoint(baseURL),
		ReconnectDelay:    20 * time.Millisecond,
		HeartbeatInterval: 50 * time.Millisecond,
		HeartbeatTimeout:  500 * time.Millisecond,
	}
}
