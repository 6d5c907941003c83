package media

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// ErrUploadFailed is returned when the storage service rejects an upload.
var ErrUploadFailed = errors.New("upload failed")

// Uploader stores files on a content-addressed storage service and returns
// their public gateway URL.
type Uploader struct {
	endpoint   string
	apiKey     string
	gateway    string
	httpClient *http.Client
}

// UploaderConfig configures an Uploader.
type UploaderConfig struct {
	Endpoint   string // e.g. https://api.nft.storage
	APIKey     string
	GatewayURL string // prefix joined with the returned CID
}

// NewUploader creates an Uploader. A nil httpClient uses http.DefaultClient.
func NewUploader(cfg UploaderConfig, httpClient *http.Client) *Uploader {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	gateway := cfg.GatewayURL
	if gateway != "" && !strings.HasSuffix(gateway, "/") {
		gateway += "/"
	}
	return &Uploader{
		endpoint:   strings.TrimSuffix(cfg.Endpoint, "/"),
		apiKey:     cfg.APIKey,
		gateway:    gateway,
		httpClient: httpClient,
	}
}

type uploadResponse struct {
	OK    bool `json:"ok"`
	Value struct {
		CID string `json:"cid"`
	} `json:"value"`
	Error struct {
		Name    string `json:"name"`
		Message string `json:"message"`
	} `json:"error"`
}

// Upload stores data and returns its public URL.
func (u *Uploader) Upload(ctx context.Context, data []byte, contentType string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.endpoint+"/upload", bytes.NewReader(data))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+u.apiKey)
	req.Header.Set("Content-Type", contentType)

	resp, err := u.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUploadFailed, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: read response: %v", ErrUploadFailed, err)
	}

	var out uploadResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return "", fmt.Errorf("%w: status %d: %v", ErrUploadFailed, resp.StatusCode, err)
	}
	if resp.StatusCode >= 300 || !out.OK || out.Value.CID == "" {
		return "", fmt.Errorf("%w: status %d: %s", ErrUploadFailed, resp.StatusCode, out.Error.Message)
	}

	return u.gateway + out.Value.CID, nil
}
