package near

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/eldtechnologies/haikunft/internal/crypto"
)

// KeyCustody confirms that a public key is an active access key of an account.
type KeyCustody struct {
	client *Client
	logger zerolog.Logger
}

// NewKeyCustody creates a custody checker backed by client.
func NewKeyCustody(client *Client, logger zerolog.Logger) *KeyCustody {
	return &KeyCustody{client: client, logger: logger}
}

// HasAccessKey reports whether accountID lists publicKey as an access key in
// final state. Any failure, including network errors, is reported as false.
func (k *KeyCustody) HasAccessKey(ctx context.Context, accountID string, publicKey []byte) bool {
	encoded := crypto.EncodePublicKey(publicKey)

	key, err := k.client.ViewAccessKey(ctx, accountID, encoded)
	if err != nil {
		k.logger.Debug().
			Err(err).
			Str("account_id", accountID).
			Str("public_key", encoded).
			Msg("access key lookup failed")
		return false
	}
	return key != nil
}
