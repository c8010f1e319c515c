// Package queue defines the auth event payloads exchanged over the
// message broker, the publisher used by the session orchestrator and the
// background consumer that writes the audit log.
package queue

// Event types published on the auth.events queue.
const (
	EventSessionEstablished = "session.established"
	EventSessionRevoked     = "session.revoked"
)

// AuthEvent is published when a session is established (signup, login,
// federated login, refresh) or revoked (logout). It carries enough for
// downstream consumers to audit or notify without querying the primary
// database.
type AuthEvent struct {
	Type       string `json:"type"`
	Username   string `json:"username"`
	Provider   string `json:"provider,omitempty"`
	OccurredAt string `json:"occurred_at"`
}
