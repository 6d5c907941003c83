package models

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
)

// ErrInvalidTokenID is returned when a token id is neither a JSON string nor a number.
var ErrInvalidTokenID = errors.New("token id must be a string or a number")

// TokenID identifies an NFT on the target contract.
// It decodes from either a JSON string or a JSON number and is always carried as a string.
type TokenID string

// UnmarshalJSON accepts "42" and 42 alike.
func (t *TokenID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*t = ""
		return nil
	}

	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*t = TokenID(strings.TrimSpace(s))
		return nil
	}

	var n json.Number
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&n); err != nil {
		return ErrInvalidTokenID
	}
	*t = TokenID(n.String())
	return nil
}

// String returns the token id as sent to the contract.
func (t TokenID) String() string {
	return string(t)
}

// IsZero reports whether no id was supplied.
func (t TokenID) IsZero() bool {
	return t == ""
}
