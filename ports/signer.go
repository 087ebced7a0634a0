package ports

import "context"

// Signer signs an assembled transaction. The anchoring service never holds
// private keys; signing is always delegated through this port (a wallet
// extension in the original system, a keypair adapter in tests).
type Signer interface {
	// PublicKey returns the encoded fee-payer address.
	PublicKey() string
	// Sign returns the serialized signed transaction for the given message.
	Sign(ctx context.Context, message []byte) ([]byte, error)
}
