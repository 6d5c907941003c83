// Package gate decides whether a signed request may reach its downstream effect.
package gate

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/eldtechnologies/haikunft/internal/crypto"
	"github.com/eldtechnologies/haikunft/internal/metrics"
	"github.com/eldtechnologies/haikunft/internal/models"
)

// KeyCustodian confirms a public key is an active access key of an account.
type KeyCustodian interface {
	HasAccessKey(ctx context.Context, accountID string, publicKey []byte) bool
}

// TokenOwnership confirms an account owns a token.
type TokenOwnership interface {
	IsOwner(ctx context.Context, accountID string, id models.TokenID) bool
}

// Admission is an admitted request: who signed it and what they asked for.
type Admission struct {
	Op        Operation
	AccountID string
	PublicKey []byte
	Payload   Payload
}

// Token returns the typed payload of token-scoped operations.
func (a *Admission) Token() TokenRequest {
	return TokenRequest{ID: a.Payload.ID, Adjective: a.Payload.Adjective, Topic: a.Payload.Topic}
}

// Set returns the typed payload of OpSet.
func (a *Admission) Set() SetRequest {
	return SetRequest{ID: a.Payload.ID, Title: a.Payload.Title, Haiku: models.Haiku(a.Payload.Haiku)}
}

// Media returns the typed payload of OpMedia.
func (a *Admission) Media() MediaRequest {
	return MediaRequest{Title: a.Payload.Title, Haiku: models.Haiku(a.Payload.Haiku)}
}

// Gate runs the admission checks in a fixed order, cheapest first, and stops
// at the first failure.
type Gate struct {
	custody   KeyCustodian
	ownership TokenOwnership
	verify    func(message, signature, publicKey []byte) bool
	logger    zerolog.Logger
}

// New creates a Gate.
func New(custody KeyCustodian, ownership TokenOwnership, logger zerolog.Logger) *Gate {
	return &Gate{
		custody:   custody,
		ownership: ownership,
		verify:    crypto.VerifyDigest,
		logger:    logger,
	}
}

// Admit validates req for op. It returns a *Denial when any check fails.
func (g *Gate) Admit(ctx context.Context, op Operation, req *models.SignedRequest) (*Admission, error) {
	if req == nil || !req.Complete() {
		return nil, g.denied(op, "", deny(ReasonMissingField, "Bad Request - message, signature and accountId are required."))
	}

	payload, err := DecodePayload(op, req.Message)
	if err != nil {
		d, _ := AsDenial(err)
		return nil, g.denied(op, req.AccountID, d)
	}

	pub := []byte(req.Signature.PublicKey)
	// Both failures answer with the same text; only the reason differs.
	failed := fmt.Sprintf("Bad Request - signature verification failed for %s.", req.AccountID)
	if !g.verify(req.Message, req.Signature.Bytes, pub) {
		return nil, g.denied(op, req.AccountID, deny(ReasonVerificationFailed, failed))
	}
	if !g.custody.HasAccessKey(ctx, req.AccountID, pub) {
		return nil, g.denied(op, req.AccountID, deny(ReasonKeyNotFound, failed))
	}

	if op.OwnershipGated() && !g.ownership.IsOwner(ctx, req.AccountID, payload.ID) {
		return nil, g.denied(op, req.AccountID, deny(ReasonNotOwner, NotOwnerMessage(payload.ID)))
	}

	return &Admission{
		Op:        op,
		AccountID: req.AccountID,
		PublicKey: pub,
		Payload:   payload,
	}, nil
}

func (g *Gate) denied(op Operation, accountID string, d *Denial) *Denial {
	metrics.GateDenials.WithLabelValues(string(d.Reason)).Inc()
	g.logger.Warn().
		Str("type", "security").
		Str("event", "request_denied").
		Str("operation", op.String()).
		Str("reason", string(d.Reason)).
		Str("account_id", accountID).
		Msg("admission denied")
	return d
}
