package gate

import (
	"errors"
	"fmt"

	"github.com/eldtechnologies/haikunft/internal/models"
)

// Reason classifies why a request was denied.
type Reason string

const (
	ReasonMissingField        Reason = "missing_field"
	ReasonMalformedMessage    Reason = "malformed_message"
	ReasonMissingPayloadField Reason = "missing_payload_field"
	ReasonVerificationFailed  Reason = "verification_failed"
	ReasonKeyNotFound         Reason = "key_not_found"
	ReasonNotOwner            Reason = "not_owner"
)

// Denial is a terminal, client-facing refusal.
type Denial struct {
	Reason  Reason
	Message string
}

func (d *Denial) Error() string {
	return d.Message
}

func deny(reason Reason, message string) *Denial {
	return &Denial{Reason: reason, Message: message}
}

// AsDenial extracts a *Denial from err.
func AsDenial(err error) (*Denial, bool) {
	var d *Denial
	if errors.As(err, &d) {
		return d, true
	}
	return nil, false
}

// NotOwnerMessage is the denial text for a caller that does not own id.
func NotOwnerMessage(id models.TokenID) string {
	return fmt.Sprintf("Bad Request - you don't own the haiku #%s.", id)
}
