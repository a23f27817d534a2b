package runtime

import (
	"crypto/ed25519"
	"fmt"

	"github.com/ardanlabs/statechain/foundation/chain/codec"
	"github.com/ardanlabs/statechain/foundation/chain/signature"
	"github.com/ardanlabs/statechain/foundation/chain/types"
)

// SignedPayload forms the exact byte sequence that is signed and verified
// for an extrinsic: encode(signer || nonce || call). Changing any field
// invalidates the signature.
func SignedPayload(signer types.AccountID, nonce types.Nonce, call Call) ([]byte, error) {
	w := codec.NewWriter()
	w.Bytes32(signer)
	w.U32(uint32(nonce))
	if err := encodeCall(w, call); err != nil {
		return nil, err
	}
	return w.Bytes(), nil
}

// UncheckedExtrinsic is a signed instruction whose signature has not yet
// been verified. Check verifies it.
type UncheckedExtrinsic struct {
	Signer    types.AccountID
	Signature signature.Signature
	Nonce     types.Nonce
	Call      Call
}

// NewSigned constructs an extrinsic by signing the payload for the given
// nonce and call with the private key.
func NewSigned(priv ed25519.PrivateKey, nonce types.Nonce, call Call) (UncheckedExtrinsic, error) {
	signer := signature.PublicKey(priv)

	payload, err := SignedPayload(signer, nonce, call)
	if err != nil {
		return UncheckedExtrinsic{}, err
	}

	return UncheckedExtrinsic{
		Signer:    signer,
		Signature: signature.Sign(priv, payload),
		Nonce:     nonce,
		Call:      call,
	}, nil
}

// Check recomputes the signed payload and verifies the signature against
// it, returning the caller identity on success.
func (ext UncheckedExtrinsic) Check() (types.AccountID, error) {
	payload, err := SignedPayload(ext.Signer, ext.Nonce, ext.Call)
	if err != nil {
		return types.AccountID{}, err
	}

	if err := signature.Verify(ext.Signer, payload, ext.Signature); err != nil {
		return types.AccountID{}, err
	}
	return ext.Signer, nil
}

// Encode returns the canonical encoding of the extrinsic.
func (ext UncheckedExtrinsic) Encode() ([]byte, error) {
	w := codec.NewWriter()
	if err := encodeExtrinsic(w, ext); err != nil {
		return nil, err
	}
	return w.Bytes(), nil
}

// DecodeExtrinsic decodes an extrinsic and rejects trailing bytes.
func DecodeExtrinsic(data []byte) (UncheckedExtrinsic, error) {
	r := codec.NewReader(data)

	ext, err := decodeExtrinsic(r)
	if err != nil {
		return UncheckedExtrinsic{}, err
	}
	if err := r.Done(); err != nil {
		return UncheckedExtrinsic{}, err
	}
	return ext, nil
}

func encodeExtrinsic(w *codec.Writer, ext UncheckedExtrinsic) error {
	w.Bytes32(ext.Signer)
	w.Raw(ext.Signature[:])
	w.U32(uint32(ext.Nonce))
	return encodeCall(w, ext.Call)
}

func decodeExtrinsic(r *codec.Reader) (UncheckedExtrinsic, error) {
	signer, err := r.Bytes32()
	if err != nil {
		return UncheckedExtrinsic{}, err
	}

	sigBytes, err := r.Raw(signature.Size)
	if err != nil {
		return UncheckedExtrinsic{}, err
	}
	sig, err := signature.ToSignature(sigBytes)
	if err != nil {
		return UncheckedExtrinsic{}, err
	}

	nonce, err := r.U32()
	if err != nil {
		return UncheckedExtrinsic{}, err
	}

	call, err := decodeCall(r)
	if err != nil {
		return UncheckedExtrinsic{}, err
	}

	return UncheckedExtrinsic{
		Signer:    signer,
		Signature: sig,
		Nonce:     types.Nonce(nonce),
		Call:      call,
	}, nil
}

// =============================================================================

// Header declares the number a block claims for itself. The executor checks
// it against the incremented runtime block number.
type Header struct {
	BlockNumber types.BlockNumber
}

// Block is a header and an ordered sequence of extrinsics. The order is
// semantically significant: pass 2 dispatches in exactly this order.
type Block struct {
	Header     Header
	Extrinsics []UncheckedExtrinsic
}

// Encode returns the canonical encoding of the block.
func (b Block) Encode() ([]byte, error) {
	w := codec.NewWriter()
	w.U32(uint32(b.Header.BlockNumber))
	w.U32(uint32(len(b.Extrinsics)))
	for _, ext := range b.Extrinsics {
		if err := encodeExtrinsic(w, ext); err != nil {
			return nil, err
		}
	}
	return w.Bytes(), nil
}

// DecodeBlock decodes a block and rejects trailing bytes.
func DecodeBlock(data []byte) (Block, error) {
	r := codec.NewReader(data)

	number, err := r.U32()
	if err != nil {
		return Block{}, err
	}

	count, err := r.U32()
	if err != nil {
		return Block{}, err
	}

	var extrinsics []UncheckedExtrinsic
	for i := uint32(0); i < count; i++ {
		ext, err := decodeExtrinsic(r)
		if err != nil {
			return Block{}, fmt.Errorf("decoding extrinsic %d: %w", i, err)
		}
		extrinsics = append(extrinsics, ext)
	}

	if err := r.Done(); err != nil {
		return Block{}, err
	}

	return Block{
		Header:     Header{BlockNumber: types.BlockNumber(number)},
		Extrinsics: extrinsics,
	}, nil
}
