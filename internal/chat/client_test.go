package chat

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type requestBody struct {
	Contents []struct {
		Role  string `json:"role"`
		Parts []struct {
			Text string `json:"text"`
		} `json:"parts"`
	} `json:"contents"`
	GenerationConfig struct {
		ThinkingConfig struct {
			ThinkingBudget int `json:"thinkingBudget"`
		} `json:"thinkingConfig"`
	} `json:"generationConfig"`
}

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c := New("test-key")
	c.Endpoint = srv.URL
	return c
}

func TestAskSendsPrompt(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1beta/models/gemini-3-pro-preview:generateContent", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("x-goog-api-key"))

		var body requestBody
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Len(t, body.Contents, 1)
		assert.Equal(t, "user", body.Contents[0].Role)
		assert.Equal(t, "hello", body.Contents[0].Parts[0].Text)
		assert.Equal(t, DefaultThinkingBudget, body.GenerationConfig.ThinkingConfig.ThinkingBudget)

		_, _ = w.Write([]byte(`{"candidates":[{"content":{"role":"model","parts":[{"text":"Hi "},{"text":"there"}]}}]}`))
	})
	text, err := c.Ask(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, "Hi there", text)
}

func TestAskEmptyReply(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"candidates":[]}`))
	})
	text, err := c.Ask(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, EmptyReply, text)
}

func TestAskMissingKeySkipsRequest(t *testing.T) {
	called := false
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		called = true
	})
	c.APIKey = " "
	_, err := c.Ask(context.Background(), "hello")
	require.ErrorIs(t, err, ErrMissingCredential)
	assert.False(t, called)
}

func TestAskRejectedKey(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"code":400,"message":"API key not valid. Please pass a valid API key.","status":"INVALID_ARGUMENT"}}`))
	})
	_, err := c.Ask(context.Background(), "hello")
	require.ErrorIs(t, err, ErrMissingCredential)
	assert.Equal(t, "API Key missing or invalid. Please check your environment configuration.", UserMessage(err))
}

func TestAskForbidden(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"error":{"code":403,"message":"Permission denied","status":"PERMISSION_DENIED"}}`))
	})
	_, err := c.Ask(context.Background(), "hello")
	require.ErrorIs(t, err, ErrMissingCredential)
}

func TestAskServerError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"error":{"code":503,"message":"overloaded"}}`))
	})
	_, err := c.Ask(context.Background(), "hello")
	require.ErrorIs(t, err, ErrUnavailable)
	assert.Equal(t, "Sorry, I encountered an error connecting to the AI.", UserMessage(err))
}

func TestAskSkipsThoughtParts(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"role":"model","parts":[{"text":"thinking...","thought":true},{"text":"answer"}]}}]}`))
	})
	text, err := c.Ask(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, "answer", text)
}

func TestAskBadJSON(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`not json`))
	})
	_, err := c.Ask(context.Background(), "hello")
	require.ErrorIs(t, err, ErrUnavailable)
}

func TestAskTransportError(t *testing.T) {
	c := New("test-key")
	c.Endpoint = "http://127.0.0.1:1"
	_, err := c.Ask(context.Background(), "hello")
	require.ErrorIs(t, err, ErrUnavailable)
}
