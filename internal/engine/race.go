package engine

import "devteam/internal/domain"

const (
	raceStartTick = 13
	raceFinalTick = 32
	selectionTick = 34
	terminalTick  = 45

	maxCoverage        = 98
	maxMaintainability = 95
	maxExecutability   = 100

	winnerIndex = 1
)

func initialCandidates() []domain.Candidate {
	return []domain.Candidate{
		{ID: "c1", Name: "Engineer Agent 1", Model: "gpt-4", Stack: "FastAPI + React + PostgreSQL", Status: domain.CandidateGenerating, TotalTests: 50},
		{ID: "c2", Name: "Engineer Agent 2", Model: "claude-3.5", Stack: "FastAPI + React + Redis", Status: domain.CandidateGenerating, TotalTests: 48},
		{ID: "c3", Name: "Engineer Agent 3", Model: "llama-70b", Stack: "FastAPI + HTMX + SQLite", Status: domain.CandidateGenerating, TotalTests: 45},
	}
}

// finalMetrics are the scripted race results, by candidate index.
var finalMetrics = []struct {
	coverage        float64
	security        int
	maintainability float64
	executability   float64
}{
	{coverage: 92.5, security: 9, maintainability: 88, executability: 98},
	{coverage: 95.2, security: 10, maintainability: 94, executability: 100},
	{coverage: 84.1, security: 7, maintainability: 76, executability: 91},
}

var raceModels = []string{"gpt-4", "claude-3.5", "llama-70b"}

func inRaceWindow(tick int) bool {
	return tick > raceStartTick && tick < raceFinalTick
}

// drift advances one generating candidate by a random step.
func drift(c *domain.Candidate, r Source) {
	if c.Status != domain.CandidateGenerating {
		return
	}
	if r.Float64() > 0.3 {
		c.UnitTestsPassed += r.IntN(5)
	}
	c.Coverage += r.Float64() * 2
	c.MaintainabilityIndex += r.Float64() * 1.5
	c.Executability += r.Float64() * 2

	if c.UnitTestsPassed >= c.TotalTests {
		c.Status = domain.CandidateTesting
		c.UnitTestsPassed = c.TotalTests
	}
	c.Coverage = min(c.Coverage, maxCoverage)
	c.MaintainabilityIndex = min(c.MaintainabilityIndex, maxMaintainability)
	c.Executability = min(c.Executability, maxExecutability)
}

func finalizeRace(p *domain.Project) {
	for i := range p.Candidates {
		if i >= len(finalMetrics) {
			break
		}
		c, m := &p.Candidates[i], finalMetrics[i]
		c.Status = domain.CandidateComplete
		c.Coverage = m.coverage
		c.SecurityScore = m.security
		c.MaintainabilityIndex = m.maintainability
		c.Executability = m.executability
	}
}

// selectWinner marks the scripted winner. It never moves an existing selection.
func selectWinner(p *domain.Project) (domain.Candidate, bool) {
	if _, ok := p.Winner(); ok || len(p.Candidates) <= winnerIndex {
		return domain.Candidate{}, false
	}
	p.Candidates[winnerIndex].Selected = true
	return p.Candidates[winnerIndex], true
}
