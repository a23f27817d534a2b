// Package keyring derives the well-known development accounts. The
// derivation is part of the public contract: the CLI, the RPC clients, and
// every node must agree on which 32 bytes mean alice.
package keyring

import (
	"crypto/ed25519"

	"github.com/ardanlabs/statechain/foundation/chain/signature"
	"github.com/ardanlabs/statechain/foundation/chain/types"
	"golang.org/x/crypto/blake2b"
)

// DevSeedDomain is the domain string prepended to a dev account name before
// hashing it into an ed25519 seed. Changing it changes every dev identity.
const DevSeedDomain = "statechain/dev-account/v1:"

// Names of the well-known development accounts.
const (
	Alice   = "alice"
	Bob     = "bob"
	Charlie = "charlie"
)

// Key is a named development keypair.
type Key struct {
	Name string
	priv ed25519.PrivateKey
}

// Dev derives the deterministic keypair for a dev account name. The seed is
// blake2b-256(DevSeedDomain + name).
func Dev(name string) Key {
	seed := blake2b.Sum256([]byte(DevSeedDomain + name))

	return Key{
		Name: name,
		priv: ed25519.NewKeyFromSeed(seed[:]),
	}
}

// DevAccounts returns the three well-known dev accounts in a fixed order.
func DevAccounts() []Key {
	return []Key{Dev(Alice), Dev(Bob), Dev(Charlie)}
}

// PrivateKey returns the signing key.
func (k Key) PrivateKey() ed25519.PrivateKey {
	return k.priv
}

// AccountID returns the account id, which is the ed25519 public key.
func (k Key) AccountID() types.AccountID {
	return signature.PublicKey(k.priv)
}
