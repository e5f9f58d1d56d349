// Package realtime implements the team chat connection layer.
//
// One websocket connection per authenticated session carries every channel:
// team chat rooms and the user's personal notification queue are multiplexed
// as JSON frames over the same transport. The package is organized around
// four pieces:
//
//   - Manager owns the connection lifecycle: connect, heartbeats, fixed
//     backoff reconnects, explicit teardown.
//   - Registry tracks channel subscriptions and replays them after every
//     reconnect; subscription state is the authority, not the transport.
//   - Store keeps the session-local message history per team, append order,
//     no deduplication.
//   - NotificationRouter classifies and delivers personal notifications.
//
// Client bundles the four behind the surface the rest of the application
// uses.
package realtime
