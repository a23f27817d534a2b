// Package node glues the runtime, mempool, peer set, slot ticker, and
// gossip bus into the running chain node. All chain state mutations happen
// on the single event loop in Run; the only fan-out is the parallel
// signature verification inside block execution.
package node

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ardanlabs/statechain/foundation/chain/gossip"
	"github.com/ardanlabs/statechain/foundation/chain/mempool"
	"github.com/ardanlabs/statechain/foundation/chain/peer"
	"github.com/ardanlabs/statechain/foundation/chain/runtime"
	"github.com/ardanlabs/statechain/foundation/chain/slot"
)

// DefaultBlockLimit bounds how many extrinsics one block may carry.
const DefaultBlockLimit = 10

// EventHandler defines a function that is called when events occur in the
// processing of blocks and extrinsics.
type EventHandler func(v string, args ...any)

// Config represents the configuration required to construct a node.
type Config struct {
	Runtime    *runtime.Runtime
	Mempool    *mempool.Mempool
	Bus        gossip.Bus
	Peers      *peer.Set
	BlockLimit int
	EvHandler  EventHandler

	// Ticks overrides the slot ticker so tests can drive slots directly.
	// When nil, Run aligns a ticker to the wall-clock slot boundaries.
	Ticks <-chan time.Time
}

// Node manages the chain's event processing.
type Node struct {
	runtime    *runtime.Runtime
	mempool    *mempool.Mempool
	bus        gossip.Bus
	peers      *peer.Set
	blockLimit int
	ev         EventHandler
	ticks      <-chan time.Time
}

// New constructs a node for the given configuration.
func New(cfg Config) (*Node, error) {
	if cfg.Runtime == nil || cfg.Mempool == nil || cfg.Bus == nil || cfg.Peers == nil {
		return nil, errors.New("runtime, mempool, bus, and peers are required")
	}

	blockLimit := cfg.BlockLimit
	if blockLimit <= 0 {
		blockLimit = DefaultBlockLimit
	}

	ev := cfg.EvHandler
	if ev == nil {
		ev = func(v string, args ...any) {}
	}

	return &Node{
		runtime:    cfg.Runtime,
		mempool:    cfg.Mempool,
		bus:        cfg.Bus,
		peers:      cfg.Peers,
		blockLimit: blockLimit,
		ev:         ev,
		ticks:      cfg.Ticks,
	}, nil
}

// SubmitExtrinsic accepts a locally submitted extrinsic: it enters the
// mempool and is gossiped so the slot author can include it wherever it
// is. A duplicate is accepted silently; a full pool surfaces ErrMempoolFull
// to the submitter.
func (n *Node) SubmitExtrinsic(ext runtime.UncheckedExtrinsic) error {
	if err := n.mempool.Submit(ext); err != nil {
		if errors.Is(err, mempool.ErrAlreadyKnown) {
			return nil
		}
		return err
	}

	data, err := ext.Encode()
	if err != nil {
		return fmt.Errorf("encoding extrinsic: %w", err)
	}
	if err := n.bus.Publish(gossip.TopicExtrinsics, data); err != nil {
		n.ev("node: submit: gossip publish failed: %s", err)
	}

	n.ev("node: submit: accepted extrinsic signer %s nonce %d", ext.Signer, ext.Nonce)
	return nil
}

// Run processes events until the context is canceled or an infrastructure
// error makes continuing unsafe. Events are handled one at a time.
func (n *Node) Run(ctx context.Context) error {
	ticks := n.ticks
	if ticks == nil {
		ticker := slot.NewTicker()
		defer ticker.Stop()
		ticks = ticker.C
	}

	n.ev("node: run: started: self %s", n.peers.Self().Short())

	for {
		select {
		case <-ctx.Done():
			n.ev("node: run: shutdown")
			return nil

		case msg := <-n.bus.Messages():
			if err := n.handleMessage(msg); err != nil {
				return err
			}

		case pev := <-n.bus.PeerEvents():
			n.handlePeerEvent(pev)

		case <-ticks:
			if err := n.handleSlot(slot.Current()); err != nil {
				return err
			}
		}
	}
}

// =============================================================================

// handlePeerEvent keeps the peer set in sync with the transport's
// connection lifecycle.
func (n *Node) handlePeerEvent(pev gossip.PeerEvent) {
	switch pev.Kind {
	case gossip.PeerConnected:
		if n.peers.Add(pev.ID) {
			n.ev("node: peer %s connected, author order %v", pev.ID.Short(), shortIDs(n.peers.Ordered()))
		}
	case gossip.PeerDisconnected:
		n.peers.Remove(pev.ID)
		n.ev("node: peer %s disconnected, author order %v", pev.ID.Short(), shortIDs(n.peers.Ordered()))
	}
}

// handleSlot produces a block when this node is the slot's author. A node
// with no connected peers never produces: a lone node advancing the chain
// would create a fork its future peers reject on joining.
func (n *Node) handleSlot(s slot.Slot) error {
	if n.peers.ConnectedCount() == 0 {
		n.ev("node: slot %d: no connected peers, not producing", s)
		return nil
	}

	author := n.peers.AuthorAt(uint64(s))
	if author != n.peers.Self() {
		n.ev("node: slot %d: author is %s", s, author.Short())
		return nil
	}

	return n.produceBlock(s)
}

// produceBlock drains the mempool, executes the block locally, and
// gossips it.
func (n *Node) produceBlock(s slot.Slot) error {
	exts, err := n.mempool.DrainForBlock(n.blockLimit, n.runtime.System.Nonce)
	if err != nil {
		return err
	}

	number, err := n.runtime.System.BlockNumber()
	if err != nil {
		return err
	}

	block := runtime.Block{
		Header:     runtime.Header{BlockNumber: number + 1},
		Extrinsics: exts,
	}

	encoded, err := block.Encode()
	if err != nil {
		return fmt.Errorf("encoding block: %w", err)
	}

	if err := n.runtime.ExecuteBlock(block); err != nil {
		return fmt.Errorf("executing produced block: %w", err)
	}

	if err := n.bus.Publish(gossip.TopicBlocks, encoded); err != nil {
		n.ev("node: slot %d: block publish failed: %s", s, err)
	}

	n.ev("node: slot %d: produced block #%d with %d extrinsics", s, block.Header.BlockNumber, len(exts))
	return nil
}

// handleMessage processes one inbound gossip message. Malformed or stale
// payloads are dropped; only infrastructure errors propagate.
func (n *Node) handleMessage(msg gossip.Message) error {
	switch msg.Topic {
	case gossip.TopicExtrinsics:
		ext, err := runtime.DecodeExtrinsic(msg.Data)
		if err != nil {
			n.ev("node: gossip: bad extrinsic bytes from %s: %s", msg.From.Short(), err)
			return nil
		}
		if err := n.mempool.Submit(ext); err != nil {
			n.ev("node: gossip: extrinsic from %s dropped: %s", msg.From.Short(), err)
			return nil
		}
		n.ev("node: gossip: pooled extrinsic signer %s nonce %d", ext.Signer, ext.Nonce)

	case gossip.TopicBlocks:
		block, err := runtime.DecodeBlock(msg.Data)
		if err != nil {
			n.ev("node: gossip: bad block bytes from %s: %s", msg.From.Short(), err)
			return nil
		}
		return n.applyPeerBlock(block)
	}

	return nil
}

// applyPeerBlock executes a block produced by a peer and evicts its
// extrinsics from the mempool. Blocks that are not exactly the next block
// are dropped, not buffered.
func (n *Node) applyPeerBlock(block runtime.Block) error {
	current, err := n.runtime.System.BlockNumber()
	if err != nil {
		return err
	}
	if block.Header.BlockNumber != current+1 {
		n.ev("node: gossip: dropping block #%d, chain is at #%d", block.Header.BlockNumber, current)
		return nil
	}

	if err := n.runtime.ExecuteBlock(block); err != nil {
		return fmt.Errorf("executing peer block: %w", err)
	}

	included := make([]mempool.Key, 0, len(block.Extrinsics))
	for _, ext := range block.Extrinsics {
		included = append(included, mempool.Key{Signer: ext.Signer, Nonce: ext.Nonce})
	}
	n.mempool.Retain(included)

	n.ev("node: gossip: applied peer block #%d with %d extrinsics", block.Header.BlockNumber, len(block.Extrinsics))
	return nil
}

func shortIDs(ids []peer.ID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.Short()
	}
	return out
}
