package crypto

import (
	"crypto/ed25519"
	"crypto/sha256"
	"errors"
	"fmt"
	"strings"

	"filippo.io/edwards25519"
	"github.com/btcsuite/btcd/btcutil/base58"
)

// KeyPrefix is the ledger's textual prefix for Ed25519 keys.
const KeyPrefix = "ed25519:"

var (
	ErrInvalidPublicKey  = errors.New("invalid Ed25519 public key")
	ErrInvalidPrivateKey = errors.New("invalid Ed25519 private key")
	ErrWeakPublicKey     = errors.New("Ed25519 public key has small order")
)

// VerifyDigest checks a detached signature over the SHA-256 digest of message.
// It never panics: malformed keys or signatures simply fail verification.
func VerifyDigest(message, signature, publicKey []byte) bool {
	if len(publicKey) != ed25519.PublicKeySize || len(signature) != ed25519.SignatureSize {
		return false
	}
	if ValidatePublicKey(publicKey) != nil {
		return false
	}

	digest := Digest(message)
	return ed25519.Verify(ed25519.PublicKey(publicKey), digest, signature)
}

// ValidatePublicKey rejects encodings that are not curve points and points of
// small order. A small-order key verifies forged signatures over any message.
func ValidatePublicKey(publicKey []byte) error {
	if len(publicKey) != ed25519.PublicKeySize {
		return ErrInvalidPublicKey
	}
	p, err := new(edwards25519.Point).SetBytes(publicKey)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPublicKey, err)
	}
	if new(edwards25519.Point).MultByCofactor(p).Equal(edwards25519.NewIdentityPoint()) == 1 {
		return ErrWeakPublicKey
	}
	return nil
}

// SignDigest signs the SHA-256 digest of message. Used by tooling and tests.
func SignDigest(privateKey ed25519.PrivateKey, message []byte) []byte {
	return ed25519.Sign(privateKey, Digest(message))
}

// Digest returns the SHA-256 of data.
func Digest(data []byte) []byte {
	sum := sha256.Sum256(data)
	return sum[:]
}

// EncodePublicKey renders a public key the way the ledger lists access keys.
func EncodePublicKey(publicKey []byte) string {
	return KeyPrefix + base58.Encode(publicKey)
}

// ParsePublicKey parses "ed25519:<base58>" (prefix optional).
func ParsePublicKey(s string) (ed25519.PublicKey, error) {
	decoded := base58.Decode(strings.TrimPrefix(strings.TrimSpace(s), KeyPrefix))
	if len(decoded) != ed25519.PublicKeySize {
		return nil, fmt.Errorf("%w: must be %d bytes, got %d", ErrInvalidPublicKey, ed25519.PublicKeySize, len(decoded))
	}
	if err := ValidatePublicKey(decoded); err != nil {
		return nil, err
	}
	return ed25519.PublicKey(decoded), nil
}

// ParsePrivateKey parses "ed25519:<base58>" holding either the 64-byte secret
// key the ledger tooling exports or a bare 32-byte seed.
func ParsePrivateKey(s string) (ed25519.PrivateKey, error) {
	decoded := base58.Decode(strings.TrimPrefix(strings.TrimSpace(s), KeyPrefix))
	switch len(decoded) {
	case ed25519.PrivateKeySize:
		return ed25519.PrivateKey(decoded), nil
	case ed25519.SeedSize:
		return ed25519.NewKeyFromSeed(decoded), nil
	default:
		return nil, fmt.Errorf("%w: unexpected length %d", ErrInvalidPrivateKey, len(decoded))
	}
}

// EncodePrivateKey renders a private key in the same text form ParsePrivateKey reads.
func EncodePrivateKey(privateKey ed25519.PrivateKey) string {
	return KeyPrefix + base58.Encode(privateKey)
}
