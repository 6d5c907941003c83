package near

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/eldtechnologies/haikunft/internal/models"
)

// ErrTokenNotFound is returned when the contract has no token with the given id.
var ErrTokenNotFound = errors.New("token not found")

// Token is the subset of the nft_token view the gate relies on.
type Token struct {
	TokenID  string          `json:"token_id"`
	OwnerID  string          `json:"owner_id"`
	Metadata json.RawMessage `json:"metadata,omitempty"`
}

// Ownership answers token ownership questions against an NFT contract.
type Ownership struct {
	client     *Client
	contractID string
	logger     zerolog.Logger
}

// NewOwnership creates an ownership checker for contractID.
func NewOwnership(client *Client, contractID string, logger zerolog.Logger) *Ownership {
	return &Ownership{client: client, contractID: contractID, logger: logger}
}

// Token fetches the token record via the contract's nft_token view.
func (o *Ownership) Token(ctx context.Context, id models.TokenID) (*Token, error) {
	raw, err := o.client.CallFunction(ctx, o.contractID, "nft_token", map[string]string{
		"token_id": id.String(),
	})
	if err != nil {
		return nil, err
	}

	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, ErrTokenNotFound
	}

	var token Token
	if err := json.Unmarshal(raw, &token); err != nil {
		return nil, fmt.Errorf("decode nft_token: %w", err)
	}
	if token.OwnerID == "" {
		return nil, fmt.Errorf("decode nft_token: %w", ErrTokenNotFound)
	}
	return &token, nil
}

// IsOwner reports whether accountID currently owns token id. The comparison is
// exact and case-sensitive; any lookup failure is reported as false.
func (o *Ownership) IsOwner(ctx context.Context, accountID string, id models.TokenID) bool {
	token, err := o.Token(ctx, id)
	if err != nil {
		o.logger.Debug().
			Err(err).
			Str("account_id", accountID).
			Str("token_id", id.String()).
			Msg("token lookup failed")
		return false
	}
	return token.OwnerID == accountID
}
