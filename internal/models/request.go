package models

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/btcsuite/btcd/btcutil/base58"
)

// ErrInvalidBytes is returned when a byte sequence cannot be decoded.
var ErrInvalidBytes = errors.New("invalid byte sequence")

// ed25519KeyPrefix is the ledger's textual prefix for Ed25519 keys.
const ed25519KeyPrefix = "ed25519:"

// SignedRequest is the envelope every gated route receives.
type SignedRequest struct {
	Message   ByteSequence `json:"message"`
	Signature *Signature   `json:"signature"`
	AccountID string       `json:"accountId"`
}

// HasEnvelope reports whether any of the signed-request fields were supplied.
func (r *SignedRequest) HasEnvelope() bool {
	return r.Message != nil || r.Signature != nil || r.AccountID != ""
}

// Complete reports whether every signed-request field is present.
func (r *SignedRequest) Complete() bool {
	return len(r.Message) > 0 &&
		r.Signature != nil &&
		len(r.Signature.Bytes) > 0 &&
		len(r.Signature.PublicKey) > 0 &&
		strings.TrimSpace(r.AccountID) != ""
}

// Signature is a detached signature together with the key that produced it.
type Signature struct {
	Bytes     ByteSequence `json:"signature"`
	PublicKey KeyBytes     `json:"publicKey"`
}

// UnmarshalJSON accepts "bytes" as an alias of "signature".
func (s *Signature) UnmarshalJSON(data []byte) error {
	var raw struct {
		Signature ByteSequence `json:"signature"`
		Bytes     ByteSequence `json:"bytes"`
		PublicKey KeyBytes     `json:"publicKey"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	s.Bytes = raw.Signature
	if len(s.Bytes) == 0 {
		s.Bytes = raw.Bytes
	}
	s.PublicKey = raw.PublicKey
	return nil
}

// ByteSequence decodes the different shapes browsers and wallet SDKs use to
// serialize bytes: a JSON array of numbers, a Node Buffer object, a typed
// array serialized as an index-keyed object, or a base64 string. A string that
// is not valid base64 is taken as raw UTF-8 text.
type ByteSequence []byte

// UnmarshalJSON implements json.Unmarshaler.
func (b *ByteSequence) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*b = nil
		return nil
	}

	switch data[0] {
	case '[':
		var values []int
		if err := json.Unmarshal(data, &values); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidBytes, err)
		}
		out, err := fromInts(values)
		if err != nil {
			return err
		}
		*b = out
		return nil

	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidBytes, err)
		}
		if decoded, err := base64.StdEncoding.DecodeString(s); err == nil && s != "" {
			*b = decoded
			return nil
		}
		*b = []byte(s)
		return nil

	case '{':
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(data, &obj); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidBytes, err)
		}
		if inner, ok := obj["data"]; ok {
			return b.UnmarshalJSON(inner)
		}
		values := make([]int, len(obj))
		for key, raw := range obj {
			idx, err := strconv.Atoi(key)
			if err != nil || idx < 0 || idx >= len(obj) {
				return fmt.Errorf("%w: unexpected key %q", ErrInvalidBytes, key)
			}
			if err := json.Unmarshal(raw, &values[idx]); err != nil {
				return fmt.Errorf("%w: %v", ErrInvalidBytes, err)
			}
		}
		out, err := fromInts(values)
		if err != nil {
			return err
		}
		*b = out
		return nil
	}

	return fmt.Errorf("%w: unsupported JSON type", ErrInvalidBytes)
}

func fromInts(values []int) ([]byte, error) {
	out := make([]byte, len(values))
	for i, v := range values {
		if v < 0 || v > 255 {
			return nil, fmt.Errorf("%w: value %d out of range", ErrInvalidBytes, v)
		}
		out[i] = byte(v)
	}
	return out, nil
}

// KeyBytes is a raw public key. Besides every ByteSequence shape it accepts the
// ledger's "ed25519:<base58>" text form and {"keyType":0,"data":...} objects.
type KeyBytes []byte

// UnmarshalJSON implements json.Unmarshaler.
func (k *KeyBytes) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		if strings.HasPrefix(s, ed25519KeyPrefix) {
			decoded := base58.Decode(strings.TrimPrefix(s, ed25519KeyPrefix))
			if len(decoded) == 0 {
				return fmt.Errorf("%w: invalid base58 key", ErrInvalidBytes)
			}
			*k = decoded
			return nil
		}
	}

	var seq ByteSequence
	if err := seq.UnmarshalJSON(data); err != nil {
		return err
	}
	*k = KeyBytes(seq)
	return nil
}
