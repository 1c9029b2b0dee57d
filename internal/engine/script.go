package engine

import (
	"fmt"

	"devteam/internal/domain"
)

type logLine struct {
	agent   domain.AgentRole
	message string
	level   domain.LogLevel
}

type artifactSpec struct {
	name    string
	typ     domain.ArtifactType
	content string
}

// checkpoint is the fixed mutation applied at one tick. Zero status and
// progress leave the project's values unchanged.
type checkpoint struct {
	race      func(p *domain.Project, c *changeSet)
	artifacts []artifactSpec
	logs      []logLine
	status    domain.Status
	progress  int
}

var startLog = logLine{domain.RoleITProjectManager, "Initializing project scope, timeline, and resource allocation.", domain.LevelInfo}

var script = map[int]checkpoint{
	2: {logs: []logLine{{domain.RoleResearcher, "Analyzing market trends and competitor solutions...", domain.LevelInfo}}},
	3: {
		artifacts: []artifactSpec{{"planning/feasibility_study.md", domain.ArtifactMarkdown, feasibilityStudy}},
		logs:      []logLine{{domain.RoleResearcher, "Feasibility study complete. Identified 3 key technical risks.", domain.LevelSuccess}},
	},
	4: {logs: []logLine{{domain.RoleProductManager, "Drafting initial Product Requirements Document (PRD) based on research...", domain.LevelInfo}}},
	5: {logs: []logLine{{domain.RoleProductOwner, "Refining backlog. Prioritizing user stories based on business value.", domain.LevelInfo}}},
	6: {logs: []logLine{{domain.RoleAIProductManager, "Evaluating AI feasibility and defining model capability requirements.", domain.LevelInfo}}},
	7: {
		artifacts: []artifactSpec{{"PRD.json", domain.ArtifactJSON, mockPRD}},
		logs:      []logLine{{domain.RoleProductManager, "PRD Published. Handing off to Architecture Team.", domain.LevelSuccess}},
		status:    domain.StatusArchitecting,
		progress:  15,
	},
	8: {logs: []logLine{{domain.RoleUIUXDesigner, "Creating high-fidelity mockups and design system tokens.", domain.LevelInfo}}},
	9: {logs: []logLine{{domain.RoleArchitect, "RAG: Querying Vector DB for similar system designs...", domain.LevelWarning}}},
	10: {
		artifacts: []artifactSpec{{"design/theme.css", domain.ArtifactCode, themeCSS}},
		logs:      []logLine{{domain.RoleUIUXDesigner, "Design System finalized. Exporting CSS variables.", domain.LevelSuccess}},
	},
	11: {logs: []logLine{{domain.RoleArchitect, "Retrieved 3 high-confidence patterns. Creating Microservices architecture.", domain.LevelInfo}}},
	raceStartTick: {
		race:      spawnCandidates,
		artifacts: []artifactSpec{{"architecture/system_design.json", domain.ArtifactJSON, systemDesign}},
		logs: []logLine{
			{domain.RoleArchitect, "Architecture finalized. Starting Race Mode.", domain.LevelSuccess},
			{domain.RoleEngineer, "RACE MODE STARTED: Spawning GPT-4, Claude-3.5, and Llama-70b agents.", domain.LevelWarning},
		},
		status:   domain.StatusRaceMode,
		progress: 30,
	},
	16: {logs: []logLine{{domain.RoleBackendDev, "Structuring database schema and API endpoints...", domain.LevelInfo}}},
	19: {logs: []logLine{{domain.RoleFrontendDev, "Scaffolding React components based on UI designs...", domain.LevelInfo}}},
	24: {logs: []logLine{{domain.RoleBackendDev, "Optimizing query performance and implementing caching layer.", domain.LevelInfo}}},
	28: {logs: []logLine{{domain.RoleFrontendDev, "Integrating API clients and state management.", domain.LevelInfo}}},
	raceFinalTick: {
		race:     func(p *domain.Project, _ *changeSet) { finalizeRace(p) },
		logs:     []logLine{{domain.RoleQA, "Race complete. Analyzing metrics...", domain.LevelInfo}},
		progress: 60,
	},
	selectionTick: {
		race: announceWinner,
		logs: []logLine{
			{domain.RoleQA, "Selected: Claude-3.5 (Best Maintainability & Security).", domain.LevelSuccess},
			{domain.RoleEngineer, "Merging winning codebase...", domain.LevelSuccess},
		},
		artifacts: []artifactSpec{
			{"backend/app/main.py", domain.ArtifactCode, mainPy},
			{"frontend/src/App.tsx", domain.ArtifactCode, appTSX},
			{"scripts/dev.sh", domain.ArtifactCode, devSh},
		},
		status:   domain.StatusDeploying,
		progress: 75,
	},
	36: {
		logs:      []logLine{{domain.RoleGenAIEngineer, "Optimizing system prompts and configuring embedding models...", domain.LevelInfo}},
		artifacts: []artifactSpec{{"ai/config/prompts.yaml", domain.ArtifactYAML, promptsYAML}},
	},
	38: {
		logs: []logLine{{domain.RoleDevOps, "Generating Helm Charts and Terraform IaC...", domain.LevelInfo}},
		artifacts: []artifactSpec{
			{"infrastructure/kubernetes/deployment.yaml", domain.ArtifactYAML, deploymentYAML},
			{"infrastructure/terraform/main.tf", domain.ArtifactCode, mainTF},
		},
	},
	40: {
		logs:     []logLine{{domain.RoleSecurity, "SAST Scan passed. Dependency check: Clean.", domain.LevelSuccess}},
		progress: 95,
	},
	42: {
		logs:      []logLine{{domain.RoleDocs, "Generating README.md and API.md...", domain.LevelInfo}},
		artifacts: []artifactSpec{{"README.md", domain.ArtifactMarkdown, readme}},
	},
	terminalTick: {
		logs:     []logLine{{domain.RoleITProjectManager, "Project deliverables accepted. Sprint complete.", domain.LevelSuccess}},
		status:   domain.StatusCompleted,
		progress: 100,
	},
}

func spawnCandidates(p *domain.Project, _ *changeSet) {
	p.Candidates = initialCandidates()
}

func announceWinner(p *domain.Project, c *changeSet) {
	if w, ok := selectWinner(p); ok {
		c.add(domain.EventCandidateSelected, "candidate", w.ID, string(domain.RoleQA), map[string]any{
			"name":  w.Name,
			"model": w.Model,
		})
	}
}

// raceChatter is the periodic engineer log emitted inside the race window.
func raceChatter(tick int) (logLine, bool) {
	if !inRaceWindow(tick) || tick%4 != 0 {
		return logLine{}, false
	}
	model := raceModels[tick%len(raceModels)]
	return logLine{domain.RoleEngineer, fmt.Sprintf("[%s] Generating core modules...", model), domain.LevelInfo}, true
}
