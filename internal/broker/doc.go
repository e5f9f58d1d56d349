// Package broker is the development message broker.
//
// It speaks the same frame protocol the client does, over a websocket at
// /ws with bearer authentication, and serves the recent-history REST
// endpoint. One process, in-memory state: enough to run the full client
// against locally and in integration tests, not a production backend.
package broker
