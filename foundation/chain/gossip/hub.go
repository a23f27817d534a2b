package gossip

import (
	"sync"

	"github.com/ardanlabs/statechain/foundation/chain/peer"
)

// channel buffers; a slow receiver drops messages rather than blocking the
// sender, matching the best-effort transport contract.
const (
	messageBuffer   = 256
	peerEventBuffer = 32
)

// Hub connects in-process buses so multi-node behavior can be tested
// without a network.
type Hub struct {
	mu    sync.Mutex
	buses map[peer.ID]*hubBus
}

// NewHub constructs an empty hub.
func NewHub() *Hub {
	return &Hub{
		buses: make(map[peer.ID]*hubBus),
	}
}

// Join adds a node to the hub and returns its bus. Every current member
// receives a connected event for the new node and vice versa.
func (h *Hub) Join(id peer.ID) Bus {
	h.mu.Lock()
	defer h.mu.Unlock()

	bus := &hubBus{
		hub:    h,
		id:     id,
		msgs:   make(chan Message, messageBuffer),
		events: make(chan PeerEvent, peerEventBuffer),
	}

	for _, other := range h.buses {
		other.notify(PeerEvent{Kind: PeerConnected, ID: id})
		bus.notify(PeerEvent{Kind: PeerConnected, ID: other.id})
	}

	h.buses[id] = bus
	return bus
}

// Leave removes a node from the hub, delivering disconnected events to the
// remaining members.
func (h *Hub) Leave(id peer.ID) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, exists := h.buses[id]; !exists {
		return
	}
	delete(h.buses, id)

	for _, other := range h.buses {
		other.notify(PeerEvent{Kind: PeerDisconnected, ID: id})
	}
}

func (h *Hub) broadcast(from peer.ID, topic Topic, data []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for id, bus := range h.buses {
		if id == from {
			continue
		}

		select {
		case bus.msgs <- Message{From: from, Topic: topic, Data: data}:
		default:
		}
	}
}

// =============================================================================

// hubBus implements Bus for one hub member.
type hubBus struct {
	hub    *Hub
	id     peer.ID
	msgs   chan Message
	events chan PeerEvent
}

func (b *hubBus) SelfID() peer.ID {
	return b.id
}

func (b *hubBus) Publish(topic Topic, data []byte) error {
	b.hub.broadcast(b.id, topic, data)
	return nil
}

func (b *hubBus) Messages() <-chan Message {
	return b.msgs
}

func (b *hubBus) PeerEvents() <-chan PeerEvent {
	return b.events
}

func (b *hubBus) Close() error {
	b.hub.Leave(b.id)
	return nil
}

func (b *hubBus) notify(ev PeerEvent) {
	select {
	case b.events <- ev:
	default:
	}
}
