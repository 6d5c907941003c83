package gate

import (
	"encoding/json"
	"strings"

	"github.com/eldtechnologies/haikunft/internal/models"
)

// Operation identifies a gated route and the payload it requires.
type Operation int

const (
	OpGenerate Operation = iota // generate and cache content for a token
	OpRead                      // read cached content for a token
	OpPreview                   // generate uncached content for a token
	OpSet                       // record a haiku on the ledger
	OpMedia                     // render and upload artwork
)

func (o Operation) String() string {
	switch o {
	case OpGenerate:
		return "generate"
	case OpRead:
		return "read"
	case OpPreview:
		return "preview"
	case OpSet:
		return "set"
	case OpMedia:
		return "media"
	default:
		return "unknown"
	}
}

// OwnershipGated reports whether the operation requires the caller to own payload.id.
func (o Operation) OwnershipGated() bool {
	return o != OpMedia
}

// Payload is the decoded signed message.
type Payload struct {
	ID        models.TokenID `json:"id"`
	Title     string         `json:"title"`
	Adjective string         `json:"adjective"`
	Topic     string         `json:"topic"`
	Haiku     string         `json:"haiku"`
}

// TokenRequest is the typed payload of OpGenerate, OpRead and OpPreview.
type TokenRequest struct {
	ID        models.TokenID
	Adjective string
	Topic     string
}

// SetRequest is the typed payload of OpSet.
type SetRequest struct {
	ID    models.TokenID
	Title string
	Haiku models.Haiku
}

// MediaRequest is the typed payload of OpMedia.
type MediaRequest struct {
	Title string
	Haiku models.Haiku
}

// DecodePayload parses message as JSON and checks the fields op requires.
// Failures are returned as *Denial.
func DecodePayload(op Operation, message []byte) (Payload, error) {
	var p Payload
	if err := json.Unmarshal(message, &p); err != nil {
		return Payload{}, deny(ReasonMalformedMessage, "Bad Request - the signed message is not valid JSON.")
	}

	var required []string
	switch op {
	case OpGenerate, OpRead, OpPreview:
		if p.ID.IsZero() {
			required = append(required, "id")
		}
	case OpSet:
		if strings.TrimSpace(p.Haiku) == "" {
			required = append(required, "haiku")
		}
		if p.ID.IsZero() {
			required = append(required, "id")
		}
		if strings.TrimSpace(p.Title) == "" {
			required = append(required, "title")
		}
	case OpMedia:
		if strings.TrimSpace(p.Haiku) == "" {
			required = append(required, "haiku")
		}
		if strings.TrimSpace(p.Title) == "" {
			required = append(required, "title")
		}
	default:
		return Payload{}, deny(ReasonMalformedMessage, "Bad Request - unknown operation.")
	}

	if len(required) > 0 {
		return Payload{}, deny(ReasonMissingPayloadField, `Bad Request - the signed message is missing "`+required[0]+`".`)
	}
	return p, nil
}
