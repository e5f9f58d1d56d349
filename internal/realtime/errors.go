package realtime

import (
	"errors"
	"fmt"
)

var (
	// ErrAuthMissing indicates a connect attempt without a credential.
	// Not retried; the caller must authenticate first.
	ErrAuthMissing = errors.New("no auth token present")

	// ErrAuthRejected indicates the server refused the handshake credential.
	// Not retried; the caller must re-authenticate.
	ErrAuthRejected = errors.New("authentication rejected")

	// ErrNotConnected indicates an operation that requires a connection was
	// attempted with none available and nothing queued.
	ErrNotConnected = errors.New("not connected")

	// ErrConnectInProgress indicates a concurrent connect attempt.
	// Connection transitions are serialized.
	ErrConnectInProgress = errors.New("connection attempt already in progress")
)

// TransportError wraps a failure of the underlying transport. Transport
// errors are recoverable: the manager retries them via the reconnect loop.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// SubscriptionError reports a server-rejected channel subscription
// (for example, the user is not a member of the team). The channel is removed
// from the active set and not retried.
type SubscriptionError struct {
	ChannelID string
	Reason    string
}

func (e *SubscriptionError) Error() string {
	return fmt.Sprintf("subscription to %s rejected: %s", e.ChannelID, e.Reason)
}
