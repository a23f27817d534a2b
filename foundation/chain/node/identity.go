package node

import (
	"crypto/ed25519"
	"crypto/rand"
	"errors"
	"fmt"

	"github.com/ardanlabs/statechain/foundation/chain/peer"
	"github.com/ardanlabs/statechain/foundation/chain/storage"
)

var keyIdentity = []byte("node:key")

// Identity loads the node's gossip identity from the store, generating and
// persisting a fresh ed25519 keypair on first start. A stable identity
// keeps the node's position in the authorship order across restarts.
func Identity(store storage.Store) (peer.ID, error) {
	seed, err := store.Get(keyIdentity)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			return peer.ID{}, fmt.Errorf("reading node identity: %w", err)
		}

		seed = make([]byte, ed25519.SeedSize)
		if _, err := rand.Read(seed); err != nil {
			return peer.ID{}, fmt.Errorf("generating node identity: %w", err)
		}
		if err := store.Put(keyIdentity, seed); err != nil {
			return peer.ID{}, fmt.Errorf("persisting node identity: %w", err)
		}
	}

	if len(seed) != ed25519.SeedSize {
		return peer.ID{}, fmt.Errorf("node identity seed must be %d bytes, got %d", ed25519.SeedSize, len(seed))
	}

	priv := ed25519.NewKeyFromSeed(seed)
	id, _ := peer.ToID(priv.Public().(ed25519.PublicKey))
	return id, nil
}
