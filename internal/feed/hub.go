// Package feed fans moderation events out to connected dashboard clients.
// Events arrive over the storage layer's Redis Pub/Sub channel, so every
// instance of the service sees decisions committed anywhere.
package feed

import (
	"context"
	"encoding/json"
	"log"

	"honestbox/backend/internal/models"
	"honestbox/backend/internal/storage"
)

// Hub tracks connected feed clients and broadcasts events to them.
type Hub struct {
	Clients map[string]Client

	// Channels
	EventCh      chan models.ModerationEvent
	RegisterCh   chan Client
	UnregisterCh chan Client

	Storage *storage.Service
}

// NewHub creates a hub backed by the given storage service. Storage may be
// nil in tests; events are then injected straight into EventCh.
func NewHub(s *storage.Service) *Hub {
	return &Hub{
		Clients:      make(map[string]Client),
		EventCh:      make(chan models.ModerationEvent),
		RegisterCh:   make(chan Client),
		UnregisterCh: make(chan Client),
		Storage:      s,
	}
}

// StartPubSubListener subscribes to the moderation event channel and
// forwards payloads into EventCh.
func (h *Hub) StartPubSubListener() {
	if h.Storage == nil || h.Storage.Redis == nil {
		return
	}
	go func() {
		ctx := context.Background()
		pubsub := h.Storage.Redis.Subscribe(ctx, storage.EventChannel)
		defer pubsub.Close()

		for msg := range pubsub.Channel() {
			var event models.ModerationEvent
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				log.Printf("ERROR: Failed to unmarshal feed event: %v", err)
				continue
			}
			h.EventCh <- event
		}
	}()
}

// Run is the hub's dispatcher loop: registration, unregistration and
// event broadcast all funnel through here, so no locking is needed around
// the client map.
func (h *Hub) Run() {
	h.StartPubSubListener()

	for {
		select {
		case client := <-h.RegisterCh:
			h.Clients[client.GetID()] = client
			log.Printf("Feed client %s connected (%d total)", client.GetID(), len(h.Clients))

		case client := <-h.UnregisterCh:
			if _, ok := h.Clients[client.GetID()]; ok {
				delete(h.Clients, client.GetID())
				client.Close()
			}

		case event := <-h.EventCh:
			for id, client := range h.Clients {
				select {
				case client.GetSendChannel() <- event:
				default:
					// Slow consumer: drop it rather than stall the feed.
					log.Printf("WARN: Dropping slow feed client %s", id)
					delete(h.Clients, id)
					client.Close()
				}
			}
		}
	}
}
