// Package mempool maintains the pool of extrinsics waiting for inclusion in
// a block. Entries are keyed by (signer, nonce); draining returns them in
// dispatch-valid order so the sealed block replays cleanly on every peer.
package mempool

import (
	"bytes"
	"errors"
	"sort"
	"sync"

	"github.com/ardanlabs/statechain/foundation/chain/runtime"
	"github.com/ardanlabs/statechain/foundation/chain/types"
)

// DefaultCapacity bounds the pool when no explicit capacity is configured.
const DefaultCapacity = 128

var (
	// ErrMempoolFull is returned when the pool is at capacity.
	ErrMempoolFull = errors.New("mempool is full")

	// ErrAlreadyKnown is returned when the pool already holds an entry for
	// the same (signer, nonce). Duplicates from gossip are dropped silently
	// at the submission sites.
	ErrAlreadyKnown = errors.New("extrinsic already in mempool")
)

// Key identifies a pool entry by signer and nonce.
type Key struct {
	Signer types.AccountID
	Nonce  types.Nonce
}

// Mempool represents a bounded pool of pending extrinsics in insertion
// order.
type Mempool struct {
	mu       sync.Mutex
	pool     []runtime.UncheckedExtrinsic
	known    map[Key]struct{}
	capacity int
}

// New constructs a mempool with the given capacity. A capacity of zero or
// less falls back to DefaultCapacity.
func New(capacity int) *Mempool {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}

	return &Mempool{
		known:    make(map[Key]struct{}),
		capacity: capacity,
	}
}

// Submit appends an extrinsic to the pool.
func (mp *Mempool) Submit(ext runtime.UncheckedExtrinsic) error {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	key := Key{Signer: ext.Signer, Nonce: ext.Nonce}
	if _, exists := mp.known[key]; exists {
		return ErrAlreadyKnown
	}
	if len(mp.pool) >= mp.capacity {
		return ErrMempoolFull
	}

	mp.pool = append(mp.pool, ext)
	mp.known[key] = struct{}{}
	return nil
}

// Count returns the current number of extrinsics in the pool.
func (mp *Mempool) Count() int {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	return len(mp.pool)
}

// PendingCount returns the number of pool entries signed by the account.
// Added to the runtime nonce it yields the pending nonce a client should
// sign with next.
func (mp *Mempool) PendingCount(account types.AccountID) int {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	var count int
	for _, ext := range mp.pool {
		if ext.Signer == account {
			count++
		}
	}
	return count
}

// DrainForBlock selects up to max extrinsics in dispatch-valid order,
// removes them from the pool, and returns them. Entries are grouped by
// signer, sorted by nonce within the group, and only a contiguous nonce run
// starting at the signer's current runtime nonce is taken: a gap strands
// everything after it in the pool. Signer groups are visited in byte order
// so every peer drains an identical snapshot identically.
func (mp *Mempool) DrainForBlock(max int, nonceOf func(types.AccountID) (types.Nonce, error)) ([]runtime.UncheckedExtrinsic, error) {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	groups := make(map[types.AccountID][]runtime.UncheckedExtrinsic)
	var signers []types.AccountID
	for _, ext := range mp.pool {
		if _, exists := groups[ext.Signer]; !exists {
			signers = append(signers, ext.Signer)
		}
		groups[ext.Signer] = append(groups[ext.Signer], ext)
	}

	sort.Slice(signers, func(i, j int) bool {
		return bytes.Compare(signers[i][:], signers[j][:]) < 0
	})

	var selected []runtime.UncheckedExtrinsic
	for _, signer := range signers {
		if len(selected) >= max {
			break
		}

		group := groups[signer]
		sort.Slice(group, func(i, j int) bool {
			return group[i].Nonce < group[j].Nonce
		})

		expected, err := nonceOf(signer)
		if err != nil {
			return nil, err
		}

		for _, ext := range group {
			if len(selected) >= max {
				break
			}
			if ext.Nonce != expected {
				break
			}
			selected = append(selected, ext)
			expected++
		}
	}

	drop := make(map[Key]struct{}, len(selected))
	for _, ext := range selected {
		drop[Key{Signer: ext.Signer, Nonce: ext.Nonce}] = struct{}{}
	}
	mp.evictLocked(drop)

	return selected, nil
}

// Retain evicts every pool entry matching a (signer, nonce) pair included
// in a block executed from a peer.
func (mp *Mempool) Retain(included []Key) {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	drop := make(map[Key]struct{}, len(included))
	for _, key := range included {
		drop[key] = struct{}{}
	}
	mp.evictLocked(drop)
}

func (mp *Mempool) evictLocked(drop map[Key]struct{}) {
	if len(drop) == 0 {
		return
	}

	kept := mp.pool[:0]
	for _, ext := range mp.pool {
		key := Key{Signer: ext.Signer, Nonce: ext.Nonce}
		if _, evict := drop[key]; evict {
			delete(mp.known, key)
			continue
		}
		kept = append(kept, ext)
	}
	mp.pool = kept
}
