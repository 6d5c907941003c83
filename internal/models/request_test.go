package models

import (
	"encoding/json"
	"testing"

	"github.com/btcsuite/btcd/btcutil/base58"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestByteSequenceShapes(t *testing.T) {
	want := []byte(`{"id":"42"}`)

	arr, err := json.Marshal(toInts(want))
	require.NoError(t, err)

	indexed := map[string]int{}
	for i, b := range want {
		indexed[itoa(i)] = int(b)
	}
	obj, err := json.Marshal(indexed)
	require.NoError(t, err)

	buffer, err := json.Marshal(map[string]any{"type": "Buffer", "data": toInts(want)})
	require.NoError(t, err)

	b64, err := json.Marshal(want) // []byte marshals as base64
	require.NoError(t, err)

	raw, err := json.Marshal(string(want))
	require.NoError(t, err)

	testCases := []struct {
		name  string
		input []byte
	}{
		{"array", arr},
		{"typed_array_object", obj},
		{"node_buffer", buffer},
		{"base64_string", b64},
		{"raw_json_text", raw},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var got ByteSequence
			require.NoError(t, json.Unmarshal(tc.input, &got))
			assert.Equal(t, want, []byte(got))
		})
	}
}

func TestByteSequenceRejectsOutOfRange(t *testing.T) {
	var got ByteSequence
	err := json.Unmarshal([]byte(`[1, 256]`), &got)
	assert.ErrorIs(t, err, ErrInvalidBytes)

	err = json.Unmarshal([]byte(`{"0": 1, "x": 2}`), &got)
	assert.ErrorIs(t, err, ErrInvalidBytes)

	err = json.Unmarshal([]byte(`true`), &got)
	assert.ErrorIs(t, err, ErrInvalidBytes)
}

func TestSignatureAcceptsAliasesAndKeyForms(t *testing.T) {
	key := make([]byte, 32)
	for i := range key {
		key[i] = byte(i + 1)
	}
	sig := []int{9, 8, 7}

	testCases := []struct {
		name string
		body string
	}{
		{"text_key", `{"signature":[9,8,7],"publicKey":"ed25519:` + base58.Encode(key) + `"}`},
		{"object_key", `{"bytes":[9,8,7],"publicKey":{"keyType":0,"data":` + mustJSON(toInts(key)) + `}}`},
		{"array_key", `{"signature":[9,8,7],"publicKey":` + mustJSON(toInts(key)) + `}`},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var s Signature
			require.NoError(t, json.Unmarshal([]byte(tc.body), &s))
			assert.Equal(t, key, []byte(s.PublicKey))
			assert.Equal(t, toBytes(sig), []byte(s.Bytes))
		})
	}
}

func TestSignedRequestCompleteness(t *testing.T) {
	var req SignedRequest
	require.NoError(t, json.Unmarshal([]byte(`{"adjective":"sad"}`), &req))
	assert.False(t, req.HasEnvelope())
	assert.False(t, req.Complete())

	require.NoError(t, json.Unmarshal([]byte(`{"message":[1],"accountId":"alice.testnet"}`), &req))
	assert.True(t, req.HasEnvelope())
	assert.False(t, req.Complete())

	body := `{"message":[1],"accountId":"alice.testnet","signature":{"signature":[2],"publicKey":[3]}}`
	require.NoError(t, json.Unmarshal([]byte(body), &req))
	assert.True(t, req.Complete())
}

func TestTokenIDAcceptsStringsAndNumbers(t *testing.T) {
	var payload struct {
		ID TokenID `json:"id"`
	}

	require.NoError(t, json.Unmarshal([]byte(`{"id":"42"}`), &payload))
	assert.Equal(t, TokenID("42"), payload.ID)

	require.NoError(t, json.Unmarshal([]byte(`{"id":42}`), &payload))
	assert.Equal(t, TokenID("42"), payload.ID)

	payload.ID = ""
	require.NoError(t, json.Unmarshal([]byte(`{"id":null}`), &payload))
	assert.True(t, payload.ID.IsZero())

	assert.Error(t, json.Unmarshal([]byte(`{"id":{}}`), &payload))
}

func TestHaikuValid(t *testing.T) {
	assert.True(t, NewHaiku([]string{"a", "b", "c"}).Valid())
	assert.False(t, NewHaiku([]string{"a", "b"}).Valid())
	assert.False(t, NewHaiku([]string{"a", " ", "c"}).Valid())
	assert.Equal(t, Haiku("a / b / c"), NewHaiku([]string{"a", "b", "c"}))
}

func toInts(b []byte) []int {
	out := make([]int, len(b))
	for i, v := range b {
		out[i] = int(v)
	}
	return out
}

func toBytes(v []int) []byte {
	out := make([]byte, len(v))
	for i, n := range v {
		out[i] = byte(n)
	}
	return out
}

func itoa(i int) string {
	b, _ := json.Marshal(i)
	return string(b)
}

func mustJSON(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return string(b)
}
