package near

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/btcsuite/btcd/btcutil/base58"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eldtechnologies/haikunft/internal/crypto"
	"github.com/eldtechnologies/haikunft/internal/models"
)

type rpcHandler func(method string, params json.RawMessage) (any, *RPCError)

// newFakeNode starts a JSON-RPC server that delegates to handle and counts calls.
func newFakeNode(t *testing.T, handle rpcHandler) (*Client, *atomic.Int32) {
	t.Helper()
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		var req struct {
			ID     string          `json:"id"`
			Method string          `json:"method"`
			Params json.RawMessage `json:"params"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		result, rpcErr := handle(req.Method, req.Params)
		resp := map[string]any{"jsonrpc": "2.0", "id": req.ID}
		if rpcErr != nil {
			resp["error"] = rpcErr
		} else {
			resp["result"] = result
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}))
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, srv.Client()), &calls
}

func queryParams(t *testing.T, raw json.RawMessage) map[string]string {
	t.Helper()
	var p map[string]string
	require.NoError(t, json.Unmarshal(raw, &p))
	return p
}

func bytesResult(v any) map[string]any {
	b, _ := json.Marshal(v)
	ints := make([]int, len(b))
	for i, c := range b {
		ints[i] = int(c)
	}
	return map[string]any{"result": ints, "logs": []string{}, "block_height": 1, "block_hash": "x"}
}

func TestKeyCustody(t *testing.T) {
	pub, _, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	encoded := crypto.EncodePublicKey(pub)

	client, _ := newFakeNode(t, func(method string, raw json.RawMessage) (any, *RPCError) {
		p := queryParams(t, raw)
		assert.Equal(t, "query", method)
		assert.Equal(t, "view_access_key", p["request_type"])
		assert.Equal(t, FinalityFinal, p["finality"])

		switch p["account_id"] {
		case "alice.testnet":
			if p["public_key"] == encoded {
				return map[string]any{"nonce": 7, "permission": "FullAccess", "block_height": 10, "block_hash": "abc"}, nil
			}
			return map[string]any{"error": "access key " + p["public_key"] + " does not exist while viewing", "logs": []string{}}, nil
		default:
			return nil, &RPCError{Code: -32000, Message: "Server error", Name: "HANDLER_ERROR"}
		}
	})

	custody := NewKeyCustody(client, zerolog.Nop())
	ctx := context.Background()

	assert.True(t, custody.HasAccessKey(ctx, "alice.testnet", pub))
	other, _, _ := ed25519.GenerateKey(rand.Reader)
	assert.False(t, custody.HasAccessKey(ctx, "alice.testnet", other), "unknown key")
	assert.False(t, custody.HasAccessKey(ctx, "ghost.testnet", pub), "unknown account")
}

func TestKeyCustodyNetworkFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	endpoint := srv.URL
	srv.Close()

	custody := NewKeyCustody(NewClient(endpoint, nil), zerolog.Nop())
	assert.False(t, custody.HasAccessKey(context.Background(), "alice.testnet", make([]byte, 32)))
}

func TestOwnership(t *testing.T) {
	client, _ := newFakeNode(t, func(method string, raw json.RawMessage) (any, *RPCError) {
		p := queryParams(t, raw)
		assert.Equal(t, "call_function", p["request_type"])
		assert.Equal(t, "nft_token", p["method_name"])
		assert.Equal(t, "haiku.testnet", p["account_id"])

		args, err := base64.StdEncoding.DecodeString(p["args_base64"])
		require.NoError(t, err)
		var a map[string]string
		require.NoError(t, json.Unmarshal(args, &a))

		switch a["token_id"] {
		case "42":
			return bytesResult(map[string]any{"token_id": "42", "owner_id": "alice.testnet"}), nil
		case "43":
			return bytesResult(nil), nil
		case "44":
			return map[string]any{"error": "wasm execution failed", "logs": []string{}}, nil
		}
		return bytesResult(map[string]any{"token_id": a["token_id"]}), nil
	})

	own := NewOwnership(client, "haiku.testnet", zerolog.Nop())
	ctx := context.Background()

	token, err := own.Token(ctx, "42")
	require.NoError(t, err)
	assert.Equal(t, "alice.testnet", token.OwnerID)

	assert.True(t, own.IsOwner(ctx, "alice.testnet", "42"))
	assert.False(t, own.IsOwner(ctx, "bob.testnet", "42"))
	assert.False(t, own.IsOwner(ctx, "Alice.testnet", "42"), "comparison is case-sensitive")

	_, err = own.Token(ctx, "43")
	assert.ErrorIs(t, err, ErrTokenNotFound)
	assert.False(t, own.IsOwner(ctx, "alice.testnet", "43"))

	_, err = own.Token(ctx, "44")
	assert.ErrorIs(t, err, ErrFunctionCall)
	assert.False(t, own.IsOwner(ctx, "alice.testnet", "44"))

	assert.False(t, own.IsOwner(ctx, "alice.testnet", "45"), "missing owner field")
}

func TestBorshU128(t *testing.T) {
	var w borshWriter
	w.u128(big.NewInt(1))
	w.u128(new(big.Int).Lsh(big.NewInt(1), 64))
	w.u128(nil)

	out := w.Bytes()
	require.Len(t, out, 48)
	assert.Equal(t, byte(1), out[0])
	assert.Equal(t, byte(1), out[16+8])
	assert.Equal(t, make([]byte, 16), out[32:])
}

func TestTransactionSerializeLayout(t *testing.T) {
	pub, _, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)

	tx := &Transaction{
		SignerID:   "a.testnet",
		PublicKey:  pub,
		Nonce:      9,
		ReceiverID: "b.testnet",
		Actions: []FunctionCall{{
			MethodName: "m",
			Args:       []byte("{}"),
			Gas:        DefaultGas,
			Deposit:    big.NewInt(0),
		}},
	}

	out := tx.Serialize()
	want := (4 + 9) + (1 + 32) + 8 + (4 + 9) + 32 + 4 + (1 + (4 + 1) + (4 + 2) + 8 + 16)
	require.Len(t, out, want)
	assert.Equal(t, uint32(9), binary.LittleEndian.Uint32(out[:4]))
	assert.Equal(t, "a.testnet", string(out[4:13]))
	assert.Equal(t, byte(keyTypeED25519), out[13])
	assert.Equal(t, uint64(9), binary.LittleEndian.Uint64(out[46:54]))
}

func TestMinterSetHaiku(t *testing.T) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	blockHash := make([]byte, 32)
	blockHash[0] = 1

	var signed []byte
	client, _ := newFakeNode(t, func(method string, raw json.RawMessage) (any, *RPCError) {
		switch method {
		case "query":
			p := queryParams(t, raw)
			assert.Equal(t, "haiku.testnet", p["account_id"])
			assert.Equal(t, crypto.EncodePublicKey(pub), p["public_key"])
			return map[string]any{"nonce": 41, "permission": "FullAccess", "block_height": 5, "block_hash": base58.Encode(blockHash)}, nil
		case "broadcast_tx_commit":
			var params []string
			require.NoError(t, json.Unmarshal(raw, &params))
			require.Len(t, params, 1)
			signed, err = base64.StdEncoding.DecodeString(params[0])
			require.NoError(t, err)
			return map[string]any{
				"status":      map[string]any{"SuccessValue": ""},
				"transaction": map[string]any{"hash": "TXHASH"},
			}, nil
		}
		return nil, &RPCError{Code: -32601, Message: "Method not found"}
	})

	minter, err := NewMinter(client, MinterConfig{PrivateKey: priv, ContractID: "haiku.testnet"}, zerolog.Nop())
	require.NoError(t, err)

	receipt, err := minter.SetHaiku(context.Background(), HaikuRecord{
		TokenID:  "42",
		Haiku:    "a / b / c",
		MediaURL: "https://example.test/ipfs/cid",
		Title:    "t",
	})
	require.NoError(t, err)
	assert.Equal(t, "TXHASH", receipt.TxHash)

	out, err := json.Marshal(receipt)
	require.NoError(t, err)
	assert.Contains(t, string(out), "SuccessValue")

	require.Greater(t, len(signed), 65)
	unsigned := signed[:len(signed)-65]
	sig := signed[len(signed)-64:]
	hash := sha256.Sum256(unsigned)
	assert.True(t, ed25519.Verify(pub, hash[:], sig))

	signerLen := int(binary.LittleEndian.Uint32(unsigned[:4]))
	nonceOffset := 4 + signerLen + 1 + 32
	assert.Equal(t, uint64(42), binary.LittleEndian.Uint64(unsigned[nonceOffset:nonceOffset+8]))
}

func TestMinterSetHaikuFailure(t *testing.T) {
	_, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)

	client, _ := newFakeNode(t, func(method string, raw json.RawMessage) (any, *RPCError) {
		if method == "query" {
			return map[string]any{"nonce": 1, "permission": "FullAccess", "block_hash": base58.Encode(make([]byte, 32))}, nil
		}
		return map[string]any{"status": map[string]any{"Failure": map[string]any{"ActionError": "boom"}}}, nil
	})

	minter, err := NewMinter(client, MinterConfig{PrivateKey: priv, ContractID: "haiku.testnet"}, zerolog.Nop())
	require.NoError(t, err)

	_, err = minter.SetHaiku(context.Background(), HaikuRecord{TokenID: models.TokenID("1")})
	assert.ErrorIs(t, err, ErrTransactionFailed)
}

func TestNewMinterValidation(t *testing.T) {
	_, err := NewMinter(NewClient("http://unused", nil), MinterConfig{ContractID: "x"}, zerolog.Nop())
	assert.ErrorIs(t, err, crypto.ErrInvalidPrivateKey)
}

// signedNonce extracts the nonce from a borsh-encoded signed transaction.
func signedNonce(t *testing.T, signed []byte) uint64 {
	t.Helper()
	require.Greater(t, len(signed), 65)
	signerLen := int(binary.LittleEndian.Uint32(signed[:4]))
	offset := 4 + signerLen + 1 + 32
	return binary.LittleEndian.Uint64(signed[offset : offset+8])
}

func TestMinterConsecutiveMintsAdvanceNonce(t *testing.T) {
	_, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)

	var nonces []uint64
	var finality []string
	client, _ := newFakeNode(t, func(method string, raw json.RawMessage) (any, *RPCError) {
		switch method {
		case "query":
			finality = append(finality, queryParams(t, raw)["finality"])
			// the node keeps reporting the pre-commit nonce
			return map[string]any{"nonce": 41, "permission": "FullAccess", "block_hash": base58.Encode(make([]byte, 32))}, nil
		case "broadcast_tx_commit":
			var params []string
			require.NoError(t, json.Unmarshal(raw, &params))
			signed, err := base64.StdEncoding.DecodeString(params[0])
			require.NoError(t, err)
			nonces = append(nonces, signedNonce(t, signed))
			return map[string]any{"status": map[string]any{"SuccessValue": ""}}, nil
		}
		return nil, &RPCError{Code: -32601, Message: "Method not found"}
	})

	minter, err := NewMinter(client, MinterConfig{PrivateKey: priv, ContractID: "haiku.testnet"}, zerolog.Nop())
	require.NoError(t, err)

	for _, id := range []string{"1", "2"} {
		_, err := minter.SetHaiku(context.Background(), HaikuRecord{TokenID: models.TokenID(id), Haiku: "a / b / c"})
		require.NoError(t, err)
	}

	assert.Equal(t, []uint64{42, 43}, nonces)
	assert.Equal(t, []string{FinalityOptimistic, FinalityOptimistic}, finality)
}

func TestMinterNonceFollowsNodeWhenAhead(t *testing.T) {
	_, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)

	reported := uint64(10)
	var nonces []uint64
	client, _ := newFakeNode(t, func(method string, raw json.RawMessage) (any, *RPCError) {
		if method == "query" {
			return map[string]any{"nonce": reported, "permission": "FullAccess", "block_hash": base58.Encode(make([]byte, 32))}, nil
		}
		var params []string
		require.NoError(t, json.Unmarshal(raw, &params))
		signed, err := base64.StdEncoding.DecodeString(params[0])
		require.NoError(t, err)
		nonces = append(nonces, signedNonce(t, signed))
		return map[string]any{"status": map[string]any{"SuccessValue": ""}}, nil
	})

	minter, err := NewMinter(client, MinterConfig{PrivateKey: priv, ContractID: "haiku.testnet"}, zerolog.Nop())
	require.NoError(t, err)

	_, err = minter.SetHaiku(context.Background(), HaikuRecord{TokenID: "1"})
	require.NoError(t, err)
	// another process used the key in between
	reported = 100
	_, err = minter.SetHaiku(context.Background(), HaikuRecord{TokenID: "2"})
	require.NoError(t, err)

	assert.Equal(t, []uint64{11, 101}, nonces)
}
