package solana

import (
	"fmt"

	"github.com/mr-tron/base58"
)

// PublicKey is a 32-byte ed25519 public key identifying an account.
type PublicKey [32]byte

// SystemProgramID is the native system program that executes lamport transfers.
var SystemProgramID = MustParsePublicKey("11111111111111111111111111111111")

// MemoProgramID is the SPL memo program used to tag payments.
var MemoProgramID = MustParsePublicKey("MemoSq4gqABAXKb96qnH8TysNcWxMyWCqXgDLGmfcHr")

// ParsePublicKey decodes a base58-encoded account address.
func ParsePublicKey(address string) (PublicKey, error) {
	var key PublicKey
	decoded, err := base58.Decode(address)
	if err != nil {
		return key, fmt.Errorf("decode address %q: %w", address, err)
	}
	if len(decoded) != len(key) {
		return key, fmt.Errorf("address %q decodes to %d bytes, want %d", address, len(decoded), len(key))
	}
	copy(key[:], decoded)
	return key, nil
}

// MustParsePublicKey parses a base58 address and panics on failure. Reserved
// for package-level program IDs.
func MustParsePublicKey(address string) PublicKey {
	key, err := ParsePublicKey(address)
	if err != nil {
		panic(err)
	}
	return key
}

// String renders the key as a base58 address.
func (k PublicKey) String() string {
	return base58.Encode(k[:])
}

// IsZero reports whether the key is the all-zero value.
func (k PublicKey) IsZero() bool {
	return k == PublicKey{}
}
