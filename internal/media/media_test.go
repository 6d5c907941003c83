package media

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eldtechnologies/haikunft/internal/models"
)

func TestComposeProducesSquarePNG(t *testing.T) {
	out, err := NewComposer(nil).Compose("Autumn", models.Haiku("An old silent pond / A frog jumps into the pond / Splash! Silence again"))
	require.NoError(t, err)

	img, err := png.Decode(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, canvasSize, canvasSize), img.Bounds())
}

func TestComposeScalesBackground(t *testing.T) {
	bg := image.NewRGBA(image.Rect(0, 0, 16, 16))
	for y := 0; y < 16; y++ {
		for x := 0; x < 16; x++ {
			bg.Set(x, y, color.RGBA{G: 200, A: 255})
		}
	}

	out, err := NewComposer(bg).Compose("t", models.Haiku("a / b / c"))
	require.NoError(t, err)

	img, err := png.Decode(bytes.NewReader(out))
	require.NoError(t, err)

	// Corners sit outside the text band and keep the background colour.
	_, g, _, _ := img.At(2, 2).RGBA()
	assert.Greater(t, g>>8, uint32(150))
}

func TestWrap(t *testing.T) {
	face, err := faceSized(bodySize)
	require.NoError(t, err)

	lines := wrap(face, "the quick brown fox jumps over the lazy dog again and again and again", 300)
	assert.Greater(t, len(lines), 1)
	assert.Nil(t, wrap(face, "   ", 300))
}

func TestUploadReturnsGatewayURL(t *testing.T) {
	var gotAuth, gotType string
	var gotBody []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/upload", r.URL.Path)
		gotAuth = r.Header.Get("Authorization")
		gotType = r.Header.Get("Content-Type")
		gotBody, _ = io.ReadAll(r.Body)
		_, _ = w.Write([]byte(`{"ok":true,"value":{"cid":"bafyhaiku"}}`))
	}))
	defer srv.Close()

	u := NewUploader(UploaderConfig{Endpoint: srv.URL, APIKey: "key", GatewayURL: "https://gw.test/ipfs"}, srv.Client())
	url, err := u.Upload(context.Background(), []byte("png"), "image/png")
	require.NoError(t, err)

	assert.Equal(t, "https://gw.test/ipfs/bafyhaiku", url)
	assert.Equal(t, "Bearer key", gotAuth)
	assert.Equal(t, "image/png", gotType)
	assert.Equal(t, []byte("png"), gotBody)
}

func TestUploadFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"ok":false,"error":{"name":"HTTPError","message":"invalid token"}}`))
	}))
	defer srv.Close()

	u := NewUploader(UploaderConfig{Endpoint: srv.URL, GatewayURL: "https://gw.test/ipfs/"}, srv.Client())
	_, err := u.Upload(context.Background(), []byte("png"), "image/png")
	assert.ErrorIs(t, err, ErrUploadFailed)
	assert.Contains(t, err.Error(), "invalid token")
}

func TestPipelinePublish(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		_, err := png.Decode(bytes.NewReader(body))
		assert.NoError(t, err, "uploaded body is a PNG")
		_, _ = w.Write([]byte(`{"ok":true,"value":{"cid":"bafy1"}}`))
	}))
	defer srv.Close()

	p := NewPipeline(NewComposer(nil), NewUploader(UploaderConfig{Endpoint: srv.URL, GatewayURL: "https://gw.test/"}, srv.Client()), zerolog.Nop())
	url, err := p.Publish(context.Background(), "Title", models.Haiku("a / b / c"))
	require.NoError(t, err)
	assert.Equal(t, "https://gw.test/bafy1", url)
}
