package server

import (
	"encoding/json"
	"time"

	"devteam/internal/artifact"
	"devteam/internal/domain"
)

type CreateProjectRequest struct {
	Name        string `json:"name" example:"Checkout revamp"`
	Description string `json:"description,omitempty" example:"One-page checkout with saved cards"`
}

type ChatRequest struct {
	Prompt string `json:"prompt" example:"Summarize the deployment plan"`
}

type ChatResponse struct {
	Text    string `json:"text"`
	Failure string `json:"failure,omitempty" enum:"credential,unavailable"`
}

type ProjectResponse struct {
	ID           string             `json:"id"`
	Name         string             `json:"name"`
	Description  string             `json:"description"`
	Status       domain.Status      `json:"status" enum:"IDLE,PLANNING,ARCHITECTING,RACE_MODE,TESTING,DEPLOYING,COMPLETED,FAILED"`
	Progress     int                `json:"progress" minimum:"0" maximum:"100"`
	Running      bool               `json:"running"`
	ActiveAgents []domain.AgentRole `json:"active_agents"`
	Logs         []domain.LogEntry  `json:"logs"`
	Candidates   []domain.Candidate `json:"candidates"`
	Artifacts    []domain.Artifact  `json:"artifacts"`
	WinnerID     string             `json:"winner_id,omitempty"`
	CreatedAt    time.Time          `json:"created_at" format:"date-time"`
}

type ArtifactResponse struct {
	ID       string              `json:"id"`
	Name     string              `json:"name"`
	Type     domain.ArtifactType `json:"type" enum:"markdown,code,json,yaml"`
	Language string              `json:"language"`
	Content  string              `json:"content"`
}

type EventResponse struct {
	ID         int64          `json:"id"`
	TS         string         `json:"ts" format:"date-time"`
	Type       string         `json:"type"`
	ProjectID  string         `json:"project_id,omitempty"`
	EntityKind string         `json:"entity_kind"`
	EntityID   string         `json:"entity_id,omitempty"`
	ActorID    string         `json:"actor_id"`
	Tick       int            `json:"tick"`
	Payload    map[string]any `json:"payload"`
}

type paginatedEvents struct {
	Items      []EventResponse `json:"items"`
	NextCursor string          `json:"next_cursor,omitempty"`
}

// Conversion helpers

func projectResponse(p domain.Project, running bool) ProjectResponse {
	p = p.Clone()
	res := ProjectResponse{
		ID:           p.ID,
		Name:         p.Name,
		Description:  p.Description,
		Status:       p.Status,
		Progress:     p.Progress,
		Running:      running,
		ActiveAgents: domain.ActiveAgents(p.Status),
		Logs:         p.Logs,
		Candidates:   p.Candidates,
		Artifacts:    p.Artifacts,
		CreatedAt:    p.CreatedAt,
	}
	if res.ActiveAgents == nil {
		res.ActiveAgents = []domain.AgentRole{}
	}
	if w, ok := p.Winner(); ok {
		res.WinnerID = w.ID
	}
	return res
}

func artifactResponse(a domain.Artifact) ArtifactResponse {
	return ArtifactResponse{
		ID:       a.ID,
		Name:     a.Name,
		Type:     a.Type,
		Language: artifact.Language(a),
		Content:  artifact.Format(a),
	}
}

func eventResponse(e domain.Event) EventResponse {
	return EventResponse{
		ID:         e.ID,
		TS:         e.TS,
		Type:       e.Type,
		ProjectID:  e.ProjectID,
		EntityKind: e.EntityKind,
		EntityID:   e.EntityID,
		ActorID:    e.ActorID,
		Tick:       e.Tick,
		Payload:    decodeJSONMap(e.Payload),
	}
}

func decodeJSONMap(raw string) map[string]any {
	out := map[string]any{}
	if raw == "" {
		return out
	}
	_ = json.Unmarshal([]byte(raw), &out)
	return out
}
