// Package peer maintains the set of connected peers and derives the slot
// author from it. Every node sorts the same peer set the same way, so all
// nodes agree on the author without any coordination message.
package peer

import (
	"bytes"
	"sort"
	"sync"

	"github.com/ethereum/go-ethereum/common/hexutil"
)

// IDSize is the byte length of a node identity.
const IDSize = 32

// ID is a node's network identity: the public key of its gossip keypair.
// Ordering is byte-lexicographic.
type ID [IDSize]byte

// ToID constructs an ID from a raw 32 byte slice.
func ToID(b []byte) (ID, bool) {
	if len(b) != IDSize {
		return ID{}, false
	}

	var id ID
	copy(id[:], b)
	return id, true
}

// String returns the 0x prefixed hex form of the id.
func (id ID) String() string {
	return hexutil.Encode(id[:])
}

// Short returns an abbreviated form for logs.
func (id ID) Short() string {
	return hexutil.Encode(id[:4])
}

// =============================================================================

// Set represents the data to maintain the node's own identity and the set
// of currently connected peers.
type Set struct {
	self ID
	mu   sync.RWMutex
	set  map[ID]struct{}
}

// NewSet constructs a peer set for the node with the given identity.
func NewSet(self ID) *Set {
	return &Set{
		self: self,
		set:  make(map[ID]struct{}),
	}
}

// Self returns the node's own identity.
func (ps *Set) Self() ID {
	return ps.self
}

// Add adds a connected peer to the set, reporting whether it was new.
func (ps *Set) Add(id ID) bool {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	if _, exists := ps.set[id]; exists {
		return false
	}

	ps.set[id] = struct{}{}
	return true
}

// Remove removes a disconnected peer from the set.
func (ps *Set) Remove(id ID) {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	delete(ps.set, id)
}

// ConnectedCount returns the number of connected peers, not counting the
// node itself.
func (ps *Set) ConnectedCount() int {
	ps.mu.RLock()
	defer ps.mu.RUnlock()

	return len(ps.set)
}

// Ordered returns self plus every connected peer, sorted lexicographically
// on the raw id bytes. This is the authorship sequence.
func (ps *Set) Ordered() []ID {
	ps.mu.RLock()
	defer ps.mu.RUnlock()

	ids := make([]ID, 0, len(ps.set)+1)
	ids = append(ids, ps.self)
	for id := range ps.set {
		ids = append(ids, id)
	}

	sort.Slice(ids, func(i, j int) bool {
		return bytes.Compare(ids[i][:], ids[j][:]) < 0
	})

	return ids
}

// AuthorAt returns the identity allowed to produce a block in the given
// slot: the sorted peer set indexed by slot modulo its size.
func (ps *Set) AuthorAt(slot uint64) ID {
	ids := ps.Ordered()
	return ids[slot%uint64(len(ids))]
}
