// Package near talks to the ledger's JSON-RPC endpoint: read-only queries used
// by the admission gate and the signed function call that records a haiku.
package near

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/eldtechnologies/haikunft/internal/metrics"
)

// FinalityFinal restricts queries to irreversibly committed state.
const FinalityFinal = "final"

// FinalityOptimistic includes the latest executed blocks that are not yet final.
const FinalityOptimistic = "optimistic"

// ErrEmptyResult is returned when the node answers without result or error.
var ErrEmptyResult = errors.New("rpc response has neither result nor error")

// RPCError is the error object of a JSON-RPC response.
type RPCError struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Name    string          `json:"name"`
	Data    json.RawMessage `json:"data,omitempty"`
	Cause   struct {
		Name string          `json:"name"`
		Info json.RawMessage `json:"info,omitempty"`
	} `json:"cause"`
}

func (e *RPCError) Error() string {
	if e.Cause.Name != "" {
		return fmt.Sprintf("rpc error %d: %s (%s)", e.Code, e.Message, e.Cause.Name)
	}
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      string `json:"id"`
	Method  string `json:"method"`
	Params  any    `json:"params"`
}

type rpcResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *RPCError       `json:"error"`
}

// Client is a minimal JSON-RPC client for a ledger node.
type Client struct {
	endpoint   string
	httpClient *http.Client
	sf         singleflight.Group
}

// NewClient creates a client for the node at endpoint. A nil httpClient uses
// http.DefaultClient; remote calls carry no timeout of their own.
func NewClient(endpoint string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{endpoint: endpoint, httpClient: httpClient}
}

// Endpoint returns the node URL.
func (c *Client) Endpoint() string {
	return c.endpoint
}

// view performs a read-only call. Identical concurrent views share one round trip.
func (c *Client) view(ctx context.Context, method string, params any) (json.RawMessage, error) {
	key, err := json.Marshal(params)
	if err != nil {
		return nil, err
	}

	ch := c.sf.DoChan(method+":"+string(key), func() (any, error) {
		return c.call(context.WithoutCancel(ctx), method, params)
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		raw, ok := res.Val.(json.RawMessage)
		if !ok {
			return nil, fmt.Errorf("unexpected singleflight result type: %T", res.Val)
		}
		return raw, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// call performs a single JSON-RPC round trip and returns the raw result.
func (c *Client) call(ctx context.Context, method string, params any) (json.RawMessage, error) {
	start := time.Now()
	defer func() {
		metrics.RPCDuration.WithLabelValues(method).Observe(time.Since(start).Seconds())
	}()

	body, err := json.Marshal(rpcRequest{
		JSONRPC: "2.0",
		ID:      uuid.NewString(),
		Method:  method,
		Params:  params,
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", method, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%s: read response: %w", method, err)
	}

	var out rpcResponse
	if err := json.Unmarshal(respBody, &out); err != nil {
		return nil, fmt.Errorf("%s: decode response (status %d): %w", method, resp.StatusCode, err)
	}
	if out.Error != nil {
		return nil, out.Error
	}
	if len(out.Result) == 0 || bytes.Equal(out.Result, []byte("null")) {
		return nil, ErrEmptyResult
	}
	return out.Result, nil
}

// Status returns the node status document. Used by health checks.
func (c *Client) Status(ctx context.Context) (json.RawMessage, error) {
	return c.call(ctx, "status", []any{})
}
