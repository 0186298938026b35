// Package sodium implements the SecretSealer port with NaCl anonymous sealed
// boxes, which are byte-compatible with libsodium's crypto_box_seal.
package sodium

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"io"

	"golang.org/x/crypto/nacl/box"

	"github.com/ericfisherdev/envpush/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.SecretSealer = (*Sealer)(nil)

const publicKeySize = 32

// Sealer seals secrets against GitHub environment public keys.
type Sealer struct {
	rand io.Reader
}

// NewSealer creates a Sealer that draws ephemeral keys from crypto/rand.
func NewSealer() *Sealer {
	return &Sealer{rand: rand.Reader}
}

// Seal decodes the base64 X25519 public key, seals plaintext to it and returns
// the base64 ciphertext.
func (s *Sealer) Seal(publicKey, plaintext string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(publicKey)
	if err != nil {
		return "", fmt.Errorf("decode public key: %w", err)
	}
	if len(raw) != publicKeySize {
		return "", fmt.Errorf("unexpected public key length %d (want %d)", len(raw), publicKeySize)
	}

	var pk [publicKeySize]byte
	copy(pk[:], raw)

	sealed, err := box.SealAnonymous(nil, []byte(plaintext), &pk, s.rand)
	if err != nil {
		return "", fmt.Errorf("seal anonymous: %w", err)
	}

	return base64.StdEncoding.EncodeToString(sealed), nil
}
