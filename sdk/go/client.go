package devteamsdk

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Client is a minimal dev-team simulator HTTP API client.
type Client struct {
	BaseURL     string
	BasePath    string
	APIKey      string
	BearerToken string
	HTTPClient  *http.Client
	Timeout     time.Duration
}

// New creates a client with sane defaults.
func New(baseURL string) *Client {
	return &Client{
		BaseURL:  baseURL,
		BasePath: "/v0",
		Timeout:  10 * time.Second,
	}
}

type LogEntry struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Agent     string    `json:"agent"`
	Message   string    `json:"message"`
	Level     string    `json:"level"`
}

type Candidate struct {
	ID                   string  `json:"id"`
	Name                 string  `json:"name"`
	Model                string  `json:"model"`
	Stack                string  `json:"stack"`
	Status               string  `json:"status"`
	UnitTestsPassed      int     `json:"unit_tests_passed"`
	TotalTests           int     `json:"total_tests"`
	Coverage             float64 `json:"coverage"`
	SecurityScore        int     `json:"security_score"`
	MaintainabilityIndex float64 `json:"maintainability_index"`
	Executability        float64 `json:"executability"`
	Selected             bool    `json:"selected"`
}

type Artifact struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Type     string `json:"type"`
	Language string `json:"language,omitempty"`
	Content  string `json:"content"`
}

// Project represents the API project model.
type Project struct {
	ID           string      `json:"id"`
	Name         string      `json:"name"`
	Description  string      `json:"description"`
	Status       string      `json:"status"`
	Progress     int         `json:"progress"`
	Running      bool        `json:"running"`
	ActiveAgents []string    `json:"active_agents"`
	Logs         []LogEntry  `json:"logs"`
	Candidates   []Candidate `json:"candidates"`
	Artifacts    []Artifact  `json:"artifacts"`
	WinnerID     string      `json:"winner_id,omitempty"`
	CreatedAt    time.Time   `json:"created_at"`
}

// Terminal reports whether the simulation has finished.
func (p Project) Terminal() bool {
	return p.Status == "COMPLETED" || p.Status == "FAILED"
}

// Event represents a journal entry.
type Event struct {
	ID         int64          `json:"id"`
	TS         string         `json:"ts"`
	Type       string         `json:"type"`
	ProjectID  string         `json:"project_id"`
	EntityKind string         `json:"entity_kind"`
	EntityID   string         `json:"entity_id"`
	ActorID    string         `json:"actor_id"`
	Tick       int            `json:"tick"`
	Payload    map[string]any `json:"payload"`
}

// PaginatedEvents wraps list responses with cursors.
type PaginatedEvents struct {
	Items      []Event `json:"items"`
	NextCursor string  `json:"next_cursor"`
}

// ChatReply is the assistant answer. Failure is "credential" or
// "unavailable" when Text is a user-facing error message.
type ChatReply struct {
	Text    string `json:"text"`
	Failure string `json:"failure,omitempty"`
}

// APIError wraps non-2xx responses.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error: status=%d body=%s", e.StatusCode, e.Body)
}

// IsNotFound reports whether err is a 404 from the API.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}

// CreateProject creates a project.
func (c *Client) CreateProject(ctx context.Context, name, description string) (Project, error) {
	body := map[string]any{
		"name":        name,
		"description": description,
	}
	var resp Project
	err := c.do(ctx, http.MethodPost, "projects", body, &resp)
	return resp, err
}

// ListProjects returns projects newest first.
func (c *Client) ListProjects(ctx context.Context) ([]Project, error) {
	var resp []Project
	err := c.do(ctx, http.MethodGet, "projects", nil, &resp)
	return resp, err
}

// GetProject fetches a project by id.
func (c *Client) GetProject(ctx context.Context, id string) (Project, error) {
	var resp Project
	err := c.do(ctx, http.MethodGet, projectPath(id, ""), nil, &resp)
	return resp, err
}

// StartSimulation starts a project's simulation and returns its state.
func (c *Client) StartSimulation(ctx context.Context, id string) (Project, error) {
	var resp Project
	err := c.do(ctx, http.MethodPost, projectPath(id, "start"), nil, &resp)
	return resp, err
}

// Artifacts lists formatted artifacts of a project.
func (c *Client) Artifacts(ctx context.Context, id string) ([]Artifact, error) {
	var resp []Artifact
	err := c.do(ctx, http.MethodGet, projectPath(id, "artifacts"), nil, &resp)
	return resp, err
}

// SourceCode returns the project's preferred source code artifact.
func (c *Client) SourceCode(ctx context.Context, id string) (Artifact, error) {
	var resp Artifact
	err := c.do(ctx, http.MethodGet, projectPath(id, "source"), nil, &resp)
	return resp, err
}

// Event fetches one journal event of a project.
func (c *Client) Event(ctx context.Context, id string, eventID int64) (Event, error) {
	var resp Event
	err := c.do(ctx, http.MethodGet, projectPath(id, fmt.Sprintf("events/%d", eventID)), nil, &resp)
	return resp, err
}

// Events returns recent journal events for a project.
func (c *Client) Events(ctx context.Context, id string, limit int, evtType string) ([]Event, error) {
	page, err := c.EventsPage(ctx, id, limit, evtType, "")
	return page.Items, err
}

// EventsPage returns a paginated event listing.
func (c *Client) EventsPage(ctx context.Context, id string, limit int, evtType, cursor string) (PaginatedEvents, error) {
	q := url.Values{}
	if limit > 0 {
		q.Set("limit", fmt.Sprintf("%d", limit))
	}
	if evtType != "" {
		q.Set("type", evtType)
	}
	if cursor != "" {
		q.Set("cursor", cursor)
	}
	endpoint := projectPath(id, "events")
	if len(q) > 0 {
		endpoint += "?" + q.Encode()
	}
	var resp PaginatedEvents
	err := c.do(ctx, http.MethodGet, endpoint, nil, &resp)
	return resp, err
}

// Chat asks the assistant.
func (c *Client) Chat(ctx context.Context, prompt string) (ChatReply, error) {
	var resp ChatReply
	err := c.do(ctx, http.MethodPost, "chat", map[string]any{"prompt": prompt}, &resp)
	return resp, err
}

// Stream calls fn with every snapshot pushed by the server until the project
// reaches a terminal status, fn returns an error, or ctx is done.
func (c *Client) Stream(ctx context.Context, id string, fn func(Project) error) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url(projectPath(id, "stream")), nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "text/event-stream")
	c.authorize(req)
	// Streams outlive the request timeout.
	client := &http.Client{}
	if c.HTTPClient != nil {
		client = &http.Client{Transport: c.HTTPClient.Transport}
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return &APIError{StatusCode: resp.StatusCode, Body: string(b)}
	}

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 8*1024*1024)
	var event string
	var data strings.Builder
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case line == "":
			if data.Len() == 0 {
				event = ""
				continue
			}
			payload := data.String()
			data.Reset()
			name := event
			event = ""
			if name == "error" {
				return &APIError{StatusCode: http.StatusNotFound, Body: payload}
			}
			var p Project
			if err := json.Unmarshal([]byte(payload), &p); err != nil {
				return fmt.Errorf("decode snapshot: %w", err)
			}
			if err := fn(p); err != nil {
				return err
			}
			if p.Terminal() {
				return nil
			}
		case strings.HasPrefix(line, "event:"):
			event = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
		case strings.HasPrefix(line, "data:"):
			if data.Len() > 0 {
				data.WriteByte('\n')
			}
			data.WriteString(strings.TrimPrefix(strings.TrimPrefix(line, "data:"), " "))
		}
	}
	if err := scanner.Err(); err != nil && ctx.Err() == nil {
		return err
	}
	return ctx.Err()
}

func (c *Client) do(ctx context.Context, method, endpoint string, body any, out any) error {
	if c.HTTPClient == nil {
		c.HTTPClient = &http.Client{Timeout: c.Timeout}
	}
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return err
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, c.url(endpoint), &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	c.authorize(req)
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return &APIError{StatusCode: resp.StatusCode, Body: string(b)}
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}

func (c *Client) authorize(req *http.Request) {
	switch {
	case c.BearerToken != "":
		req.Header.Set("Authorization", "Bearer "+c.BearerToken)
	case c.APIKey != "":
		req.Header.Set("X-Api-Key", c.APIKey)
	}
}

func projectPath(id, p string) string {
	out := "projects/" + url.PathEscape(id)
	if p != "" {
		out += "/" + strings.TrimLeft(p, "/")
	}
	return out
}

func (c *Client) url(endpoint string) string {
	basePath := strings.Trim(c.BasePath, "/")
	if basePath == "" {
		basePath = "v0"
	}
	return strings.TrimRight(c.BaseURL, "/") + "/" + basePath + "/" + strings.TrimLeft(endpoint, "/")
}
