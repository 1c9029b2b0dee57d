// Package chat talks to the hosted text-generation model behind the dashboard
// assistant. It is independent of the simulation.
package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"google.golang.org/genai"
)

var (
	// ErrMissingCredential means the API key is absent or was rejected.
	ErrMissingCredential = errors.New("chat: api key missing or invalid")
	// ErrUnavailable covers transport failures and unusable responses.
	ErrUnavailable = errors.New("chat: assistant unavailable")
)

const (
	DefaultEndpoint       = "https://generativelanguage.googleapis.com"
	DefaultModel          = "gemini-3-pro-preview"
	DefaultThinkingBudget = 32768
	DefaultTimeout        = 60 * time.Second

	// EmptyReply is returned when the model answers without any text.
	EmptyReply = "I processed that, but generated no text response."
)

// UserMessage returns the text shown to the user for an Ask error.
func UserMessage(err error) string {
	if errors.Is(err, ErrMissingCredential) {
		return "API Key missing or invalid. Please check your environment configuration."
	}
	return "Sorry, I encountered an error connecting to the AI."
}

// Client asks a Gemini model through the genai SDK. Endpoint overrides the
// SDK's base URL.
type Client struct {
	Endpoint       string
	Model          string
	APIKey         string
	ThinkingBudget int
	HTTPClient     *http.Client
	Timeout        time.Duration
	Logger         *slog.Logger
}

// New creates a client with sane defaults.
func New(apiKey string) *Client {
	return &Client{
		Endpoint:       DefaultEndpoint,
		Model:          DefaultModel,
		APIKey:         apiKey,
		ThinkingBudget: DefaultThinkingBudget,
		Timeout:        DefaultTimeout,
	}
}

// Ask sends one user prompt and returns the model's text.
func (c *Client) Ask(ctx context.Context, prompt string) (string, error) {
	if strings.TrimSpace(c.APIKey) == "" {
		return "", ErrMissingCredential
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:     c.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: c.httpClient(),
		HTTPOptions: genai.HTTPOptions{
			BaseURL: c.endpoint(),
		},
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	budget := int32(c.ThinkingBudget)
	resp, err := client.Models.GenerateContent(ctx, c.model(), genai.Text(prompt), &genai.GenerateContentConfig{
		ThinkingConfig: &genai.ThinkingConfig{ThinkingBudget: &budget},
	})
	if err != nil {
		return "", c.classify(err)
	}
	if text := replyText(resp); text != "" {
		return text, nil
	}
	return EmptyReply, nil
}

// replyText joins the text parts of the first candidate that has any,
// skipping thought summaries.
func replyText(resp *genai.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}
	var text strings.Builder
	for _, cand := range resp.Candidates {
		if cand == nil || cand.Content == nil {
			continue
		}
		for _, p := range cand.Content.Parts {
			if p == nil || p.Thought {
				continue
			}
			text.WriteString(p.Text)
		}
		if text.Len() > 0 {
			break
		}
	}
	return text.String()
}

func (c *Client) classify(err error) error {
	code, msg, ok := apiError(err)
	if !ok {
		c.logger().Warn("chat request failed", "error", err)
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	c.logger().Warn("chat request rejected", "status", code, "message", msg)
	if code == http.StatusUnauthorized || code == http.StatusForbidden || strings.Contains(msg, "API key") {
		return fmt.Errorf("%w: status=%d %s", ErrMissingCredential, code, msg)
	}
	return fmt.Errorf("%w: status=%d %s", ErrUnavailable, code, msg)
}

func apiError(err error) (int, string, bool) {
	var byValue genai.APIError
	if errors.As(err, &byValue) {
		return byValue.Code, byValue.Message, true
	}
	var byRef *genai.APIError
	if errors.As(err, &byRef) && byRef != nil {
		return byRef.Code, byRef.Message, true
	}
	return 0, "", false
}

func (c *Client) endpoint() string {
	if c.Endpoint == "" {
		return DefaultEndpoint
	}
	return strings.TrimRight(c.Endpoint, "/")
}

func (c *Client) model() string {
	if c.Model == "" {
		return DefaultModel
	}
	return c.Model
}

func (c *Client) httpClient() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	timeout := c.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &http.Client{Timeout: timeout}
}

func (c *Client) logger() *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return slog.Default()
}
