package poet

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eldtechnologies/haikunft/internal/models"
)

type fakeCompleter struct {
	mu      sync.Mutex
	prompts []string
	text    string
	err     error
}

func (f *fakeCompleter) Complete(_ context.Context, prompt string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prompts = append(f.prompts, prompt)
	return f.text, f.err
}

func TestTail(t *testing.T) {
	testCases := []struct {
		name    string
		text    string
		want    models.Haiku
		wantErr error
	}{
		{
			name: "exact_three_lines",
			text: "An old silent pond\nA frog jumps into the pond\nSplash! Silence again",
			want: "An old silent pond / A frog jumps into the pond / Splash! Silence again",
		},
		{
			name: "preamble_and_blank_lines",
			text: "\n\nHere is your haiku:\n\n  line one \nline two\n\nline three\n",
			want: "line one / line two / line three",
		},
		{
			name:    "too_short",
			text:    "only\ntwo",
			wantErr: ErrMalformedCompletion,
		},
		{
			name:    "empty",
			text:    "",
			wantErr: ErrMalformedCompletion,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Tail(tc.text)
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
			assert.True(t, got.Valid())
		})
	}
}

func TestBuildPrompt(t *testing.T) {
	p := BuildPrompt(17, Request{Adjective: "melancholic", Topic: "autumn rain"})
	assert.Contains(t, p, "in a melancholic style")
	assert.Contains(t, p, "about autumn rain")
	assert.Contains(t, p, "#17")

	bare := BuildPrompt(3, Request{Adjective: "  "})
	assert.NotContains(t, bare, "style")
	assert.NotContains(t, bare, "about")
}

func TestGenerateRequestsEachRepetition(t *testing.T) {
	fc := &fakeCompleter{text: "a\nb\nc"}
	g := NewGenerator(fc, zerolog.Nop())

	seed := 0
	var mu sync.Mutex
	g.seed = func() int {
		mu.Lock()
		defer mu.Unlock()
		seed++
		return seed
	}

	content, err := g.Generate(context.Background(), Request{Topic: "sea"}, 3)
	require.NoError(t, err)
	require.Len(t, content, 3)
	for _, h := range content {
		assert.Equal(t, models.Haiku("a / b / c"), h)
	}

	require.Len(t, fc.prompts, 3)
	seen := map[string]bool{}
	for _, p := range fc.prompts {
		seen[p] = true
	}
	assert.Len(t, seen, 3, "each completion gets a fresh seed")
}

func TestGenerateFailsWholeBatch(t *testing.T) {
	fc := &fakeCompleter{err: errors.New("upstream 500")}
	g := NewGenerator(fc, zerolog.Nop())

	content, err := g.Generate(context.Background(), Request{}, 3)
	assert.Error(t, err)
	assert.Nil(t, content)
}

func TestOpenAIComplete(t *testing.T) {
	var gotAuth, gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		buf := new(bytes.Buffer)
		_, _ = buf.ReadFrom(r.Body)
		gotBody = buf.String()

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "chatcmpl-1",
			"object": "chat.completion",
			"created": 1,
			"model": "gpt-4o-mini",
			"choices": [{
				"index": 0,
				"finish_reason": "stop",
				"message": {"role": "assistant", "content": "one\ntwo\nthree"}
			}]
		}`))
	}))
	defer srv.Close()

	client, err := NewOpenAI(OpenAIConfig{APIKey: "sk-test", BaseURL: srv.URL + "/"})
	require.NoError(t, err)

	text, err := client.Complete(context.Background(), "Write a haiku")
	require.NoError(t, err)
	assert.Equal(t, "one\ntwo\nthree", text)
	assert.Equal(t, "Bearer sk-test", gotAuth)
	assert.Contains(t, gotBody, "Write a haiku")
	assert.Contains(t, gotBody, DefaultModel)
}

func TestOpenAICompleteNonSuccess(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":{"message":"overloaded","type":"server_error"}}`))
	}))
	defer srv.Close()

	client, err := NewOpenAI(OpenAIConfig{APIKey: "sk-test", BaseURL: srv.URL + "/"})
	require.NoError(t, err)

	_, err = client.Complete(context.Background(), "Write a haiku")
	assert.Error(t, err)
	assert.Equal(t, 1, calls, "no retries")
}

func TestNewOpenAIRequiresKey(t *testing.T) {
	_, err := NewOpenAI(OpenAIConfig{})
	assert.ErrorIs(t, err, ErrMissingAPIKey)
}
