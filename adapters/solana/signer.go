package solana

import (
	"context"
	"crypto/ed25519"
	"encoding/base64"
	"fmt"

	"dockwatch/domain/core"
	"dockwatch/ports"
)

// KeypairSigner signs transaction messages with a local ed25519 keypair.
// It exists for single-operator deployments; hardware or remote signers
// plug in through the same ports.Signer interface.
type KeypairSigner struct {
	key ed25519.PrivateKey
	pub string
}

var _ ports.Signer = (*KeypairSigner)(nil)

// NewKeypairSigner builds a signer from a base64-encoded 32-byte seed.
func NewKeypairSigner(encodedSeed string) (*KeypairSigner, error) {
	seed, err := base64.StdEncoding.DecodeString(encodedSeed)
	if err != nil {
		return nil, core.NewValidationError("signer_seed", "must be base64")
	}
	if len(seed) != ed25519.SeedSize {
		return nil, core.NewValidationError("signer_seed", fmt.Sprintf("must decode to %d bytes", ed25519.SeedSize))
	}
	key := ed25519.NewKeyFromSeed(seed)
	pub := base64.StdEncoding.EncodeToString(key.Public().(ed25519.PublicKey))
	return &KeypairSigner{key: key, pub: pub}, nil
}

// PublicKey returns the encoded public key used as the fee payer address.
func (s *KeypairSigner) PublicKey() string { return s.pub }

// Sign signs the assembled transaction message.
func (s *KeypairSigner) Sign(ctx context.Context, message []byte) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return ed25519.Sign(s.key, message), nil
}
