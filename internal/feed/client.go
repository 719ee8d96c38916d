package feed

import "honestbox/backend/internal/models"

// Client is the interface for any connection receiving the moderation
// feed. It abstracts the underlying transport so the hub can manage
// different client types uniformly.
type Client interface {
	// GetID returns the unique identifier of this connection.
	GetID() string

	// GetSendChannel returns the channel the hub pushes events into for
	// this specific client. It is a send-only channel.
	GetSendChannel() chan<- models.ModerationEvent

	// Run starts the client's pumps, which deliver outgoing events and
	// watch the connection for closure.
	Run()
	// Close gracefully shuts down the client's connection and channels.
	Close()
}
