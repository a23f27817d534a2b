// Package gossip defines the bus contract the node consumes for peer to
// peer traffic: two topics of opaque payloads plus connection lifecycle
// events. The wsbus package provides the network implementation; the Hub in
// this package wires nodes together in process for tests.
package gossip

import "github.com/ardanlabs/statechain/foundation/chain/peer"

// Topic names a gossip channel.
type Topic string

// The two topics the chain uses.
const (
	TopicBlocks     Topic = "blocks"
	TopicExtrinsics Topic = "extrinsics"
)

// Message is an inbound payload from a peer.
type Message struct {
	From  peer.ID
	Topic Topic
	Data  []byte
}

// PeerEventKind distinguishes connection lifecycle events.
type PeerEventKind int

// The connection lifecycle events.
const (
	PeerConnected PeerEventKind = iota
	PeerDisconnected
)

// PeerEvent reports a peer connecting or disconnecting.
type PeerEvent struct {
	Kind PeerEventKind
	ID   peer.ID
}

// Bus is the transport contract. Publish is best effort: the design
// tolerates drops and duplicates.
type Bus interface {
	SelfID() peer.ID
	Publish(topic Topic, data []byte) error
	Messages() <-chan Message
	PeerEvents() <-chan PeerEvent
	Close() error
}
