// Package types provides shared data structures for the HackMate client core.
//
// This package defines the domain types exchanged between the realtime layer,
// the REST collaborator client, and whatever presentation layer composes them.
//
// Core Types:
//   - Session: Authenticated context (user identity + bearer credential)
//   - ChatMessage: Immutable team chat message
//   - Notification: Transient personal event (invitation, join/leave)
//   - Team, Invitation: REST collaborator representations
//
// State Management:
//   - ConnectionStatus: Realtime connection lifecycle enum
//   - NotificationType: Personal notification tags
package types
