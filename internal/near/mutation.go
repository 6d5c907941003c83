package near

import (
	"context"
	"crypto/ed25519"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"sync"

	"github.com/rs/zerolog"

	"github.com/eldtechnologies/haikunft/internal/crypto"
	"github.com/eldtechnologies/haikunft/internal/models"
)

// ErrTransactionFailed is returned when the ledger executed the call but reported a failure.
var ErrTransactionFailed = errors.New("transaction failed")

// HaikuRecord is what the ledger mutation writes against a token.
type HaikuRecord struct {
	TokenID  models.TokenID `json:"token_id"`
	Haiku    string         `json:"haiku"`
	MediaURL string         `json:"media"`
	Title    string         `json:"title"`
}

// Minter signs and submits the contract call that records a haiku.
type Minter struct {
	client     *Client
	signerID   string
	key        ed25519.PrivateKey
	contractID string
	method     string
	logger     zerolog.Logger

	// mu guards lastNonce and serializes submissions.
	mu        sync.Mutex
	lastNonce uint64
}

// MinterConfig holds the signer identity and target of the mutation.
type MinterConfig struct {
	SignerID   string
	PrivateKey ed25519.PrivateKey
	ContractID string
	Method     string
}

// NewMinter creates a Minter.
func NewMinter(client *Client, cfg MinterConfig, logger zerolog.Logger) (*Minter, error) {
	if len(cfg.PrivateKey) != ed25519.PrivateKeySize {
		return nil, crypto.ErrInvalidPrivateKey
	}
	if cfg.ContractID == "" {
		return nil, errors.New("contract id is required")
	}
	if cfg.SignerID == "" {
		cfg.SignerID = cfg.ContractID
	}
	if cfg.Method == "" {
		cfg.Method = "set_haiku"
	}
	return &Minter{
		client:     client,
		signerID:   cfg.SignerID,
		key:        cfg.PrivateKey,
		contractID: cfg.ContractID,
		method:     cfg.Method,
		logger:     logger,
	}, nil
}

type executionOutcome struct {
	Status      json.RawMessage `json:"status"`
	Transaction struct {
		Hash string `json:"hash"`
	} `json:"transaction"`
}

// SetHaiku records the haiku against its token and returns the execution outcome.
// There is a single attempt; failures are returned to the caller.
func (m *Minter) SetHaiku(ctx context.Context, record HaikuRecord) (models.Receipt, error) {
	args, err := json.Marshal(record)
	if err != nil {
		return models.Receipt{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	pub := m.key.Public().(ed25519.PublicKey)
	accessKey, err := m.client.viewAccessKey(ctx, FinalityOptimistic, m.signerID, crypto.EncodePublicKey(pub))
	if err != nil {
		return models.Receipt{}, fmt.Errorf("signer access key: %w", err)
	}

	blockHash, err := DecodeBlockHash(accessKey.BlockHash)
	if err != nil {
		return models.Receipt{}, err
	}

	// The node's view can trail our own last commit.
	nonce := max(accessKey.Nonce, m.lastNonce) + 1
	m.lastNonce = nonce

	tx := &Transaction{
		SignerID:   m.signerID,
		PublicKey:  pub,
		Nonce:      nonce,
		ReceiverID: m.contractID,
		BlockHash:  blockHash,
		Actions: []FunctionCall{{
			MethodName: m.method,
			Args:       args,
			Gas:        DefaultGas,
			Deposit:    big.NewInt(0),
		}},
	}
	signed, hash := tx.Sign(m.key)

	m.logger.Info().
		Str("token_id", record.TokenID.String()).
		Str("method", m.method).
		Str("tx_hash", hash).
		Msg("submitting haiku transaction")

	raw, err := m.client.call(ctx, "broadcast_tx_commit", []string{base64.StdEncoding.EncodeToString(signed)})
	if err != nil {
		return models.Receipt{}, fmt.Errorf("broadcast: %w", err)
	}

	var outcome executionOutcome
	if err := json.Unmarshal(raw, &outcome); err != nil {
		return models.Receipt{}, fmt.Errorf("decode outcome: %w", err)
	}
	var status map[string]json.RawMessage
	if err := json.Unmarshal(outcome.Status, &status); err == nil {
		if failure, ok := status["Failure"]; ok {
			return models.Receipt{TxHash: hash, Outcome: raw}, fmt.Errorf("%w: %s", ErrTransactionFailed, failure)
		}
	}
	if outcome.Transaction.Hash != "" {
		hash = outcome.Transaction.Hash
	}

	return models.Receipt{TxHash: hash, Outcome: raw}, nil
}
