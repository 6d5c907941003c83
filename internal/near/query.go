package near

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
)

var (
	ErrAccessKeyNotFound = errors.New("access key not found")
	ErrFunctionCall      = errors.New("view function call failed")
)

// AccessKey is the record returned by view_access_key.
type AccessKey struct {
	Nonce       uint64          `json:"nonce"`
	Permission  json.RawMessage `json:"permission"`
	BlockHeight uint64          `json:"block_height"`
	BlockHash   string          `json:"block_hash"`
}

// queryError covers nodes that report query failures inside the result.
type queryError struct {
	Error string `json:"error"`
}

// ViewAccessKey returns the access key record publicKey holds on accountID,
// considering only final state. Unknown keys or accounts yield ErrAccessKeyNotFound.
func (c *Client) ViewAccessKey(ctx context.Context, accountID, publicKey string) (*AccessKey, error) {
	return c.viewAccessKey(ctx, FinalityFinal, accountID, publicKey)
}

func (c *Client) viewAccessKey(ctx context.Context, finality, accountID, publicKey string) (*AccessKey, error) {
	raw, err := c.view(ctx, "query", map[string]string{
		"request_type": "view_access_key",
		"finality":     finality,
		"account_id":   accountID,
		"public_key":   publicKey,
	})
	if err != nil {
		var rpcErr *RPCError
		if errors.As(err, &rpcErr) {
			return nil, fmt.Errorf("%w: %v", ErrAccessKeyNotFound, rpcErr)
		}
		return nil, err
	}

	var qe queryError
	if err := json.Unmarshal(raw, &qe); err == nil && qe.Error != "" {
		return nil, fmt.Errorf("%w: %s", ErrAccessKeyNotFound, qe.Error)
	}

	var key AccessKey
	if err := json.Unmarshal(raw, &key); err != nil {
		return nil, fmt.Errorf("decode access key: %w", err)
	}
	if len(key.Permission) == 0 {
		return nil, ErrAccessKeyNotFound
	}
	return &key, nil
}

// CallFunction invokes a view method on contractID with JSON args and returns
// the raw bytes the method produced.
func (c *Client) CallFunction(ctx context.Context, contractID, method string, args any) ([]byte, error) {
	argsJSON, err := json.Marshal(args)
	if err != nil {
		return nil, err
	}

	raw, err := c.view(ctx, "query", map[string]string{
		"request_type": "call_function",
		"finality":     FinalityFinal,
		"account_id":   contractID,
		"method_name":  method,
		"args_base64":  base64.StdEncoding.EncodeToString(argsJSON),
	})
	if err != nil {
		return nil, err
	}

	var out struct {
		Result []int  `json:"result"`
		Error  string `json:"error"`
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decode call result: %w", err)
	}
	if out.Error != "" {
		return nil, fmt.Errorf("%w: %s", ErrFunctionCall, out.Error)
	}

	result := make([]byte, len(out.Result))
	for i, b := range out.Result {
		result[i] = byte(b)
	}
	return result, nil
}
