package models

import (
	"encoding/json"
	"time"
)

// Mint records a haiku written to the ledger against a token.
type Mint struct {
	ID        string    `json:"id"` // ULID
	TokenID   TokenID   `json:"token_id"`
	AccountID string    `json:"account_id"`
	Title     string    `json:"title"`
	Haiku     string    `json:"haiku"`
	MediaURL  string    `json:"media"`
	TxHash    string    `json:"tx_hash,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Receipt is the ledger's execution outcome for a mutation, echoed verbatim to the caller.
type Receipt struct {
	TxHash  string
	Outcome json.RawMessage
}

// MarshalJSON emits the raw outcome so callers see exactly what the ledger returned.
func (r Receipt) MarshalJSON() ([]byte, error) {
	if len(r.Outcome) == 0 {
		return []byte("null"), nil
	}
	return r.Outcome, nil
}
