package solana

import (
	"bytes"
	"context"
	"crypto/ed25519"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
)

// DevSigner is the server-custodied wallet used when no browser wallet is
// in the loop: sessions are mock, so the signer derives a deterministic
// devnet keypair per connected wallet from a server seed. Never point this
// at mainnet funds.
type DevSigner struct {
	key    ed25519.PrivateKey
	client *Client
}

// NewDevSigner derives the keypair for the given wallet identity.
func NewDevSigner(serverSeed, wallet string, client *Client) (*DevSigner, error) {
	if serverSeed == "" {
		return nil, fmt.Errorf("dev wallet seed is required")
	}
	if wallet == "" {
		return nil, fmt.Errorf("wallet identity is required")
	}
	seed := sha256.Sum256([]byte(serverSeed + "|" + wallet))
	return &DevSigner{
		key:    ed25519.NewKeyFromSeed(seed[:]),
		client: client,
	}, nil
}

// Connected reports whether the signer can reach the ledger.
func (s *DevSigner) Connected() bool {
	return s != nil && s.client != nil
}

// PublicKey returns the derived payer address.
func (s *DevSigner) PublicKey() (PublicKey, error) {
	if s == nil || len(s.key) == 0 {
		return PublicKey{}, fmt.Errorf("signer has no key material")
	}
	var key PublicKey
	copy(key[:], s.key.Public().(ed25519.PublicKey))
	return key, nil
}

// SignAndSend compiles, signs, and broadcasts the transaction.
func (s *DevSigner) SignAndSend(ctx context.Context, tx *Transaction) (string, error) {
	if !s.Connected() {
		return "", fmt.Errorf("signer is not connected")
	}

	message, err := tx.CompileMessage()
	if err != nil {
		return "", err
	}
	signature := ed25519.Sign(s.key, message)

	var wire bytes.Buffer
	writeCompactU16(&wire, 1)
	wire.Write(signature)
	wire.Write(message)

	encoded := base64.StdEncoding.EncodeToString(wire.Bytes())
	return s.client.SendTransaction(ctx, encoded)
}
