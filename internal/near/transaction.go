package near

import (
	"crypto/ed25519"
	"crypto/sha256"
	"errors"
	"fmt"
	"math/big"

	"github.com/btcsuite/btcd/btcutil/base58"
)

const (
	keyTypeED25519        = 0
	actionFunctionCallTag = 2

	// DefaultGas is the gas attached to function calls (300 TGas).
	DefaultGas uint64 = 300_000_000_000_000
)

var ErrInvalidBlockHash = errors.New("invalid block hash")

// FunctionCall is the only action this service submits.
type FunctionCall struct {
	MethodName string
	Args       []byte
	Gas        uint64
	Deposit    *big.Int
}

// Transaction is an unsigned ledger transaction.
type Transaction struct {
	SignerID   string
	PublicKey  ed25519.PublicKey
	Nonce      uint64
	ReceiverID string
	BlockHash  [32]byte
	Actions    []FunctionCall
}

// DecodeBlockHash parses the base58 block hash returned by queries.
func DecodeBlockHash(s string) ([32]byte, error) {
	var out [32]byte
	decoded := base58.Decode(s)
	if len(decoded) != len(out) {
		return out, fmt.Errorf("%w: %q", ErrInvalidBlockHash, s)
	}
	copy(out[:], decoded)
	return out, nil
}

// Serialize returns the borsh encoding of the transaction.
func (tx *Transaction) Serialize() []byte {
	var w borshWriter
	tx.encode(&w)
	return w.Bytes()
}

func (tx *Transaction) encode(w *borshWriter) {
	w.string(tx.SignerID)
	w.u8(keyTypeED25519)
	w.fixed(tx.PublicKey)
	w.u64(tx.Nonce)
	w.string(tx.ReceiverID)
	w.fixed(tx.BlockHash[:])
	w.u32(uint32(len(tx.Actions)))
	for _, action := range tx.Actions {
		w.u8(actionFunctionCallTag)
		w.string(action.MethodName)
		w.bytes(action.Args)
		w.u64(action.Gas)
		w.u128(action.Deposit)
	}
}

// Hash returns the SHA-256 of the serialized transaction; this is what gets signed.
func (tx *Transaction) Hash() [32]byte {
	return sha256.Sum256(tx.Serialize())
}

// Sign returns the borsh-encoded signed transaction and its base58 hash.
func (tx *Transaction) Sign(key ed25519.PrivateKey) ([]byte, string) {
	var w borshWriter
	tx.encode(&w)
	hash := sha256.Sum256(w.Bytes())

	sig := ed25519.Sign(key, hash[:])
	w.u8(keyTypeED25519)
	w.fixed(sig)

	return w.Bytes(), base58.Encode(hash[:])
}
