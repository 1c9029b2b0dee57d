package domain

import "time"

// Status is the phase a project's simulation is in.
type Status string

const (
	StatusIdle         Status = "IDLE"
	StatusPlanning     Status = "PLANNING"
	StatusArchitecting Status = "ARCHITECTING"
	StatusRaceMode     Status = "RACE_MODE"
	StatusTesting      Status = "TESTING"
	StatusDeploying    Status = "DEPLOYING"
	StatusCompleted    Status = "COMPLETED"
	StatusFailed       Status = "FAILED"
)

// Terminal reports whether no further phase follows s.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

type AgentRole string

const (
	RoleITProjectManager AgentRole = "IT Project Manager"
	RoleProductManager   AgentRole = "Product Manager"
	RoleProductOwner     AgentRole = "Product Owner"
	RoleAIProductManager AgentRole = "AI Product Manager"
	RoleResearcher       AgentRole = "Researcher"
	RoleUIUXDesigner     AgentRole = "UI/UX Designer"
	RoleArchitect        AgentRole = "Architect"
	RoleFrontendDev      AgentRole = "Frontend Developer"
	RoleBackendDev       AgentRole = "Backend Developer"
	RoleEngineer         AgentRole = "Engineer"
	RoleQA               AgentRole = "QA"
	RoleGenAIEngineer    AgentRole = "Gen AI Engineer"
	RoleDevOps           AgentRole = "DevOps"
	RoleSecurity         AgentRole = "Security"
	RoleDocs             AgentRole = "Docs"
)

// Roles lists every agent role in display order.
var Roles = []AgentRole{
	RoleITProjectManager, RoleProductManager, RoleProductOwner, RoleAIProductManager,
	RoleResearcher, RoleUIUXDesigner, RoleArchitect, RoleFrontendDev, RoleBackendDev, RoleEngineer,
	RoleQA, RoleGenAIEngineer, RoleDevOps, RoleSecurity, RoleDocs,
}

// ActiveAgents returns the roles on duty while a project is in status s.
func ActiveAgents(s Status) []AgentRole {
	switch s {
	case StatusPlanning:
		return []AgentRole{RoleProductManager}
	case StatusArchitecting:
		return []AgentRole{RoleArchitect}
	case StatusRaceMode:
		return []AgentRole{RoleEngineer}
	case StatusTesting:
		return []AgentRole{RoleQA}
	case StatusDeploying:
		return []AgentRole{RoleDevOps, RoleSecurity}
	case StatusCompleted:
		return []AgentRole{RoleDocs}
	default:
		return nil
	}
}

type LogLevel string

const (
	LevelInfo    LogLevel = "info"
	LevelWarning LogLevel = "warning"
	LevelError   LogLevel = "error"
	LevelSuccess LogLevel = "success"
)

type LogEntry struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp" format:"date-time"`
	Agent     AgentRole `json:"agent"`
	Message   string    `json:"message"`
	Level     LogLevel  `json:"level" enum:"info,warning,error,success"`
}

type CandidateStatus string

const (
	CandidateGenerating CandidateStatus = "generating"
	CandidateCompiling  CandidateStatus = "compiling"
	CandidateTesting    CandidateStatus = "testing"
	CandidateComplete   CandidateStatus = "complete"
)

type Candidate struct {
	ID                   string          `json:"id"`
	Name                 string          `json:"name"`
	Model                string          `json:"model"`
	Stack                string          `json:"stack"`
	Status               CandidateStatus `json:"status" enum:"generating,compiling,testing,complete"`
	UnitTestsPassed      int             `json:"unit_tests_passed"`
	TotalTests           int             `json:"total_tests"`
	Coverage             float64         `json:"coverage"`
	SecurityScore        int             `json:"security_score"`
	MaintainabilityIndex float64         `json:"maintainability_index"`
	Executability        float64         `json:"executability"`
	Selected             bool            `json:"selected"`
}

type ArtifactType string

const (
	ArtifactMarkdown ArtifactType = "markdown"
	ArtifactCode     ArtifactType = "code"
	ArtifactJSON     ArtifactType = "json"
	ArtifactYAML     ArtifactType = "yaml"
)

type Artifact struct {
	ID      string       `json:"id"`
	Name    string       `json:"name"`
	Type    ArtifactType `json:"type" enum:"markdown,code,json,yaml"`
	Content string       `json:"content"`
}

type Project struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Status      Status      `json:"status" enum:"IDLE,PLANNING,ARCHITECTING,RACE_MODE,TESTING,DEPLOYING,COMPLETED,FAILED"`
	Progress    int         `json:"progress" minimum:"0" maximum:"100"`
	Logs        []LogEntry  `json:"logs"`
	Candidates  []Candidate `json:"candidates"`
	Artifacts   []Artifact  `json:"artifacts"`
	CreatedAt   time.Time   `json:"created_at" format:"date-time"`
}

// DefaultLogLimit bounds Project.Logs.
const DefaultLogLimit = 200

// AppendLog appends e and evicts the oldest entries beyond limit.
func (p *Project) AppendLog(e LogEntry, limit int) {
	if limit <= 0 {
		limit = DefaultLogLimit
	}
	p.Logs = append(p.Logs, e)
	if over := len(p.Logs) - limit; over > 0 {
		p.Logs = append(p.Logs[:0:0], p.Logs[over:]...)
	}
}

// Winner returns the selected candidate.
func (p Project) Winner() (Candidate, bool) {
	for _, c := range p.Candidates {
		if c.Selected {
			return c, true
		}
	}
	return Candidate{}, false
}

// Artifact looks up an artifact by id.
func (p Project) Artifact(id string) (Artifact, bool) {
	for _, a := range p.Artifacts {
		if a.ID == id {
			return a, true
		}
	}
	return Artifact{}, false
}

// Clone returns a copy whose slices do not alias p's.
func (p Project) Clone() Project {
	c := p
	c.Logs = append([]LogEntry(nil), p.Logs...)
	c.Candidates = append([]Candidate(nil), p.Candidates...)
	c.Artifacts = append([]Artifact(nil), p.Artifacts...)
	if c.Logs == nil {
		c.Logs = []LogEntry{}
	}
	if c.Candidates == nil {
		c.Candidates = []Candidate{}
	}
	if c.Artifacts == nil {
		c.Artifacts = []Artifact{}
	}
	return c
}

// Event is a journal record of one change made by the simulation.
type Event struct {
	ID         int64  `json:"id"`
	TS         string `json:"ts" format:"date-time"`
	Type       string `json:"type"`
	ProjectID  string `json:"project_id,omitempty"`
	EntityKind string `json:"entity_kind"`
	EntityID   string `json:"entity_id,omitempty"`
	ActorID    string `json:"actor_id"`
	Tick       int    `json:"tick"`
	Payload    string `json:"payload_json"`
}

const (
	EventSimulationStarted   = "simulation.started"
	EventLogAppended         = "log.appended"
	EventArtifactCreated     = "artifact.created"
	EventStatusChanged       = "project.status"
	EventCandidateSelected   = "candidate.selected"
	EventSimulationCompleted = "simulation.completed"
)
