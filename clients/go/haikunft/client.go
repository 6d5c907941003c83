// Package haikunft provides a client for the haikunft HTTP API.
package haikunft

import (
	"bytes"
	"context"
	"crypto/ed25519"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/btcsuite/btcd/btcutil/base58"
)

const keyPrefix = "ed25519:"

// Client is a haikunft API client. AccountID and PrivateKey are needed for
// every call except Haiku and Health.
type Client struct {
	BaseURL    string
	AccountID  string
	PrivateKey ed25519.PrivateKey
	HTTPClient *http.Client
}

// NewClient creates a new client. Credentials are read from HAIKUNFT_ACCOUNT
// and HAIKUNFT_KEY when set.
func NewClient(baseURL string) (*Client, error) {
	if baseURL == "" {
		baseURL = "http://localhost:3000"
	}

	c := &Client{
		BaseURL:    strings.TrimSuffix(baseURL, "/"),
		AccountID:  os.Getenv("HAIKUNFT_ACCOUNT"),
		HTTPClient: &http.Client{Timeout: 90 * time.Second},
	}

	if key := os.Getenv("HAIKUNFT_KEY"); key != "" {
		priv, err := ParsePrivateKey(key)
		if err != nil {
			return nil, err
		}
		c.PrivateKey = priv
	}
	return c, nil
}

// ParsePrivateKey decodes an "ed25519:<base58>" secret key, either the
// 64-byte key or its 32-byte seed.
func ParsePrivateKey(s string) (ed25519.PrivateKey, error) {
	raw := base58.Decode(strings.TrimPrefix(strings.TrimSpace(s), keyPrefix))
	switch len(raw) {
	case ed25519.PrivateKeySize:
		return ed25519.PrivateKey(raw), nil
	case ed25519.SeedSize:
		return ed25519.NewKeyFromSeed(raw), nil
	default:
		return nil, fmt.Errorf("private key must decode to %d or %d bytes, got %d",
			ed25519.PrivateKeySize, ed25519.SeedSize, len(raw))
	}
}

// Error is a non-2xx response.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("haikunft error %d: %s", e.Status, e.Message)
}

// SignedRequest is the body of every gated route. Bytes are sent as arrays
// of numbers.
type SignedRequest struct {
	Message   []int           `json:"message"`
	Signature SignatureFields `json:"signature"`
	AccountID string          `json:"accountId"`
}

// SignatureFields carries the detached signature and the signing key.
type SignatureFields struct {
	Signature []int  `json:"signature"`
	PublicKey string `json:"publicKey"`
}

// Sign builds a SignedRequest over payload. The signature covers the
// SHA-256 digest of payload.
func Sign(key ed25519.PrivateKey, accountID string, payload []byte) SignedRequest {
	digest := sha256.Sum256(payload)
	pub := key.Public().(ed25519.PublicKey)
	return SignedRequest{
		Message: toInts(payload),
		Signature: SignatureFields{
			Signature: toInts(ed25519.Sign(key, digest[:])),
			PublicKey: keyPrefix + base58.Encode(pub),
		},
		AccountID: accountID,
	}
}

func toInts(b []byte) []int {
	out := make([]int, len(b))
	for i, v := range b {
		out[i] = int(v)
	}
	return out
}

// Payload is the signed message of the gated routes.
type Payload struct {
	ID        string `json:"id,omitempty"`
	Title     string `json:"title,omitempty"`
	Adjective string `json:"adjective,omitempty"`
	Topic     string `json:"topic,omitempty"`
	Haiku     string `json:"haiku,omitempty"`
}

func (c *Client) signed(p Payload) ([]byte, error) {
	if c.PrivateKey == nil || c.AccountID == "" {
		return nil, fmt.Errorf("account id and private key are required")
	}
	msg, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Sign(c.PrivateKey, c.AccountID, msg))
}

// doRequest performs an HTTP request and returns the response body.
func (c *Client) doRequest(ctx context.Context, method, path string, body []byte) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, reader)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode >= 400 {
		var errResp struct {
			Message string `json:"message"`
			Error   string `json:"error"`
		}
		msg := strings.TrimSpace(string(respBody))
		if json.Unmarshal(respBody, &errResp) == nil {
			if errResp.Message != "" {
				msg = errResp.Message
			} else if errResp.Error != "" {
				msg = errResp.Error
			}
		}
		return nil, &Error{Status: resp.StatusCode, Message: msg}
	}

	return respBody, nil
}

func (c *Client) content(ctx context.Context, path string, body []byte) ([]string, error) {
	data, err := c.doRequest(ctx, http.MethodPost, path, body)
	if err != nil {
		return nil, err
	}
	var out []string
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Haiku requests three haiku without signing.
func (c *Client) Haiku(ctx context.Context, adjective, topic string) ([]string, error) {
	body, err := json.Marshal(Payload{Adjective: adjective, Topic: topic})
	if err != nil {
		return nil, err
	}
	return c.content(ctx, "/get-haiku", body)
}

// Preview requests three uncached haiku for a token the caller owns.
func (c *Client) Preview(ctx context.Context, tokenID, adjective, topic string) ([]string, error) {
	body, err := c.signed(Payload{ID: tokenID, Adjective: adjective, Topic: topic})
	if err != nil {
		return nil, err
	}
	return c.content(ctx, "/get-haiku", body)
}

// Generate creates the haiku of a token. It succeeds once per token.
func (c *Client) Generate(ctx context.Context, tokenID, adjective, topic string) ([]string, error) {
	body, err := c.signed(Payload{ID: tokenID, Adjective: adjective, Topic: topic})
	if err != nil {
		return nil, err
	}
	return c.content(ctx, "/generate-ai-prompt", body)
}

// Read returns the haiku generated for a token.
func (c *Client) Read(ctx context.Context, tokenID string) ([]string, error) {
	body, err := c.signed(Payload{ID: tokenID})
	if err != nil {
		return nil, err
	}
	return c.content(ctx, "/get-ai-prompt", body)
}

// SetHaiku records a haiku on the ledger and returns the transaction outcome.
func (c *Client) SetHaiku(ctx context.Context, tokenID, title, haiku string) (json.RawMessage, error) {
	body, err := c.signed(Payload{ID: tokenID, Title: title, Haiku: haiku})
	if err != nil {
		return nil, err
	}
	data, err := c.doRequest(ctx, http.MethodPost, "/set-haiku", body)
	if err != nil {
		return nil, err
	}
	return json.RawMessage(data), nil
}

// Media renders and uploads artwork and returns its URL.
func (c *Client) Media(ctx context.Context, title, haiku string) (string, error) {
	body, err := c.signed(Payload{Title: title, Haiku: haiku})
	if err != nil {
		return "", err
	}
	data, err := c.doRequest(ctx, http.MethodPost, "/generate-haiku-media", body)
	if err != nil {
		return "", err
	}
	var resp struct {
		Media string `json:"media"`
	}
	if err := json.Unmarshal(data, &resp); err != nil {
		return "", err
	}
	return resp.Media, nil
}

// Health returns the server health document.
func (c *Client) Health(ctx context.Context) (map[string]any, error) {
	data, err := c.doRequest(ctx, http.MethodGet, "/health", nil)
	if err != nil {
		return nil, err
	}
	var out map[string]any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}
