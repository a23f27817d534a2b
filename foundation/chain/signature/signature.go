// Package signature provides the fixed signing scheme for the chain:
// ed25519 with 32 byte public keys and 64 byte signatures. Account ids are
// the verification keys, so no key recovery or registry is needed.
package signature

import (
	"crypto/ed25519"
	"errors"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/ardanlabs/statechain/foundation/chain/types"
	"github.com/hdevalence/ed25519consensus"
)

// Size is the byte length of a signature.
const Size = ed25519.SignatureSize

// ErrInvalidSignature is returned when a signature does not verify against
// the given public key and message.
var ErrInvalidSignature = errors.New("invalid signature")

// Signature is a 64 byte ed25519 signature.
type Signature [Size]byte

// ToSignature constructs a Signature from a raw 64 byte slice.
func ToSignature(b []byte) (Signature, error) {
	if len(b) != Size {
		return Signature{}, errors.New("signature must be 64 bytes")
	}

	var sig Signature
	copy(sig[:], b)
	return sig, nil
}

// =============================================================================

// Sign signs the message with the private key.
func Sign(priv ed25519.PrivateKey, message []byte) Signature {
	var sig Signature
	copy(sig[:], ed25519.Sign(priv, message))
	return sig
}

// PublicKey extracts the account id for a private key.
func PublicKey(priv ed25519.PrivateKey) types.AccountID {
	var id types.AccountID
	copy(id[:], priv.Public().(ed25519.PublicKey))
	return id
}

// Verify checks the signature over message against the account's public key.
// Verification goes through ed25519consensus so all nodes agree on exactly
// which signatures are valid.
func Verify(pub types.AccountID, message []byte, sig Signature) error {
	if !ed25519consensus.Verify(pub[:], message, sig[:]) {
		return ErrInvalidSignature
	}
	return nil
}

// =============================================================================

// BatchItem is one signature to check in a batch verification.
type BatchItem struct {
	Pub     types.AccountID
	Message []byte
	Sig     Signature
}

// VerifyBatch verifies every item across a pool of workers and returns one
// result per item, in input order. An invalid item never affects the result
// of any other item. Verification is CPU bound and touches no shared state,
// so the fan-out is bounded only by core count.
func VerifyBatch(items []BatchItem) []error {
	results := make([]error, len(items))
	if len(items) == 0 {
		return results
	}

	workers := runtime.NumCPU()
	if workers > len(items) {
		workers = len(items)
	}

	var next int64 = -1
	var wg sync.WaitGroup
	wg.Add(workers)

	for g := 0; g < workers; g++ {
		go func() {
			defer wg.Done()
			for {
				i := int(atomic.AddInt64(&next, 1))
				if i >= len(items) {
					return
				}
				results[i] = Verify(items[i].Pub, items[i].Message, items[i].Sig)
			}
		}()
	}

	wg.Wait()
	return results
}
