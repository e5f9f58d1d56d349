// Package api is the REST collaborator of the client.
//
// It covers everything that is not realtime: team membership, invitations,
// persisted chat history, and discovery. All calls go through a shared
// retrying transport with outbound rate limiting and a circuit breaker; auth
// failures surface as ErrUnauthorized/ErrForbidden and are never retried.
package api
