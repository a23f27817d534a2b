// Package wsbus implements the gossip bus over websockets. The node
// listens for inbound peer connections and dials every configured peer
// with a reconnect loop. The first binary message on a connection is the
// 32 byte node identity; every later message is one frame: a topic byte
// followed by the payload.
package wsbus

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/ardanlabs/statechain/foundation/chain/gossip"
	"github.com/ardanlabs/statechain/foundation/chain/peer"
	"github.com/gorilla/websocket"
)

// Frame topic discriminants.
const (
	frameBlocks     byte = 0
	frameExtrinsics byte = 1
)

const (
	messageBuffer   = 256
	peerEventBuffer = 32
	reconnectDelay  = 3 * time.Second
	writeTimeout    = 5 * time.Second
	handshakeWait   = 10 * time.Second
)

// EventHandler defines a function that is called as connections come and
// go, for logging.
type EventHandler func(v string, args ...any)

// Config is the configuration for the websocket bus.
type Config struct {
	SelfID     peer.ID
	ListenAddr string
	Peers      []string
	EvHandler  EventHandler
}

// Bus implements the gossip.Bus contract over websockets.
type Bus struct {
	selfID peer.ID
	ev     EventHandler

	msgs   chan gossip.Message
	events chan gossip.PeerEvent

	mu    sync.Mutex
	conns map[peer.ID]*websocket.Conn

	server *http.Server
	shut   chan struct{}
	wg     sync.WaitGroup
}

// New constructs the bus, starts the listener, and begins dialing the
// configured peers.
func New(cfg Config) (*Bus, error) {
	ev := cfg.EvHandler
	if ev == nil {
		ev = func(v string, args ...any) {}
	}

	b := Bus{
		selfID: cfg.SelfID,
		ev:     ev,
		msgs:   make(chan gossip.Message, messageBuffer),
		events: make(chan gossip.PeerEvent, peerEventBuffer),
		conns:  make(map[peer.ID]*websocket.Conn),
		shut:   make(chan struct{}),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/gossip", b.handleInbound)
	b.server = &http.Server{Addr: cfg.ListenAddr, Handler: mux}

	ln, err := net.Listen("tcp", cfg.ListenAddr)
	if err != nil {
		return nil, fmt.Errorf("gossip listen on %q: %w", cfg.ListenAddr, err)
	}

	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		if err := b.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			b.ev("wsbus: listener stopped: %s", err)
		}
	}()

	for _, addr := range cfg.Peers {
		b.wg.Add(1)
		go b.dialPeer(addr)
	}

	return &b, nil
}

// SelfID returns the node's own identity.
func (b *Bus) SelfID() peer.ID {
	return b.selfID
}

// Messages returns the inbound message stream.
func (b *Bus) Messages() <-chan gossip.Message {
	return b.msgs
}

// PeerEvents returns the connection lifecycle stream.
func (b *Bus) PeerEvents() <-chan gossip.PeerEvent {
	return b.events
}

// Publish sends the payload to every connected peer. Delivery is best
// effort: a failed write closes that peer's connection and moves on.
func (b *Bus) Publish(topic gossip.Topic, data []byte) error {
	fb, ok := frameByte(topic)
	if !ok {
		return fmt.Errorf("unknown topic %q", topic)
	}

	frame := make([]byte, 0, 1+len(data))
	frame = append(frame, fb)
	frame = append(frame, data...)

	b.mu.Lock()
	defer b.mu.Unlock()

	for id, conn := range b.conns {
		conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := conn.WriteMessage(websocket.BinaryMessage, frame); err != nil {
			b.ev("wsbus: publish to %s failed: %s", id.Short(), err)
			conn.Close()
		}
	}

	return nil
}

// Close shuts the listener and every connection down.
func (b *Bus) Close() error {
	close(b.shut)
	b.server.Close()

	b.mu.Lock()
	for _, conn := range b.conns {
		conn.Close()
	}
	b.mu.Unlock()

	b.wg.Wait()
	return nil
}

// =============================================================================

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// handleInbound accepts a peer that dialed us.
func (b *Bus) handleInbound(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		b.ev("wsbus: upgrade failed: %s", err)
		return
	}

	id, err := b.handshake(conn)
	if err != nil {
		b.ev("wsbus: inbound handshake failed: %s", err)
		conn.Close()
		return
	}

	b.register(id, conn)
	b.readLoop(id, conn)
}

// dialPeer keeps one configured peer connected, redialing after drops
// until shutdown.
func (b *Bus) dialPeer(addr string) {
	defer b.wg.Done()

	url := fmt.Sprintf("ws://%s/gossip", addr)
	for {
		select {
		case <-b.shut:
			return
		default:
		}

		conn, _, err := websocket.DefaultDialer.Dial(url, nil)
		if err != nil {
			b.ev("wsbus: dial %s failed: %s", addr, err)
			b.sleep(reconnectDelay)
			continue
		}

		id, err := b.handshake(conn)
		if err != nil {
			b.ev("wsbus: handshake with %s failed: %s", addr, err)
			conn.Close()
			b.sleep(reconnectDelay)
			continue
		}

		b.register(id, conn)
		b.readLoop(id, conn)
		b.sleep(reconnectDelay)
	}
}

// handshake exchanges 32 byte identities, ours first.
func (b *Bus) handshake(conn *websocket.Conn) (peer.ID, error) {
	conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	if err := conn.WriteMessage(websocket.BinaryMessage, b.selfID[:]); err != nil {
		return peer.ID{}, fmt.Errorf("sending identity: %w", err)
	}

	conn.SetReadDeadline(time.Now().Add(handshakeWait))
	_, data, err := conn.ReadMessage()
	if err != nil {
		return peer.ID{}, fmt.Errorf("reading identity: %w", err)
	}
	conn.SetReadDeadline(time.Time{})

	id, ok := peer.ToID(data)
	if !ok {
		return peer.ID{}, fmt.Errorf("identity must be %d bytes, got %d", peer.IDSize, len(data))
	}
	return id, nil
}

// register records the connection, replacing any previous connection to
// the same peer, and emits a connected event.
func (b *Bus) register(id peer.ID, conn *websocket.Conn) {
	b.mu.Lock()
	if old, exists := b.conns[id]; exists {
		old.Close()
	}
	b.conns[id] = conn
	b.mu.Unlock()

	b.ev("wsbus: peer %s connected", id.Short())
	b.notify(gossip.PeerEvent{Kind: gossip.PeerConnected, ID: id})
}

// readLoop consumes frames until the connection drops, then unregisters.
func (b *Bus) readLoop(id peer.ID, conn *websocket.Conn) {
	for {
		_, frame, err := conn.ReadMessage()
		if err != nil {
			break
		}
		if len(frame) < 1 {
			continue
		}

		topic, ok := frameTopic(frame[0])
		if !ok {
			continue
		}

		select {
		case b.msgs <- gossip.Message{From: id, Topic: topic, Data: frame[1:]}:
		default:
			b.ev("wsbus: message buffer full, dropping %s frame from %s", topic, id.Short())
		}
	}

	b.mu.Lock()
	current := b.conns[id] == conn
	if current {
		delete(b.conns, id)
	}
	b.mu.Unlock()
	conn.Close()

	if current {
		b.ev("wsbus: peer %s disconnected", id.Short())
		b.notify(gossip.PeerEvent{Kind: gossip.PeerDisconnected, ID: id})
	}
}

func (b *Bus) notify(ev gossip.PeerEvent) {
	select {
	case b.events <- ev:
	default:
	}
}

func (b *Bus) sleep(d time.Duration) {
	select {
	case <-time.After(d):
	case <-b.shut:
	}
}

func frameByte(topic gossip.Topic) (byte, bool) {
	switch topic {
	case gossip.TopicBlocks:
		return frameBlocks, true
	case gossip.TopicExtrinsics:
		return frameExtrinsics, true
	}
	return 0, false
}

func frameTopic(fb byte) (gossip.Topic, bool) {
	switch fb {
	case frameBlocks:
		return gossip.TopicBlocks, true
	case frameExtrinsics:
		return gossip.TopicExtrinsics, true
	}
	return "", false
}
