package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"devteam/internal/domain"
)

type maxSource struct{}

func (maxSource) Float64() float64 { return 0.999 }
func (maxSource) IntN(n int) int  { return n - 1 }

func TestDriftClampsMetrics(t *testing.T) {
	c := domain.Candidate{
		Status:               domain.CandidateGenerating,
		TotalTests:           10,
		UnitTestsPassed:      8,
		Coverage:             97.5,
		MaintainabilityIndex: 94.9,
		Executability:        99.9,
	}
	drift(&c, maxSource{})

	assert.Equal(t, 98.0, c.Coverage)
	assert.Equal(t, 95.0, c.MaintainabilityIndex)
	assert.Equal(t, 100.0, c.Executability)
	assert.Equal(t, 10, c.UnitTestsPassed)
	assert.Equal(t, domain.CandidateTesting, c.Status)
}

func TestDriftSkipsFinishedCandidates(t *testing.T) {
	for _, st := range []domain.CandidateStatus{domain.CandidateTesting, domain.CandidateCompiling, domain.CandidateComplete} {
		c := domain.Candidate{Status: st, TotalTests: 10, Coverage: 5}
		drift(&c, maxSource{})
		assert.Equal(t, 5.0, c.Coverage, st)
		assert.Zero(t, c.UnitTestsPassed, st)
	}
}

func TestRaceWindow(t *testing.T) {
	assert.False(t, inRaceWindow(13))
	assert.True(t, inRaceWindow(14))
	assert.True(t, inRaceWindow(31))
	assert.False(t, inRaceWindow(32))
}

func TestRaceChatter(t *testing.T) {
	l, ok := raceChatter(16)
	assert.True(t, ok)
	assert.Equal(t, "[claude-3.5] Generating core modules...", l.message)

	_, ok = raceChatter(12)
	assert.False(t, ok)
	_, ok = raceChatter(17)
	assert.False(t, ok)
	_, ok = raceChatter(32)
	assert.False(t, ok)
}

func TestSelectWinnerOnce(t *testing.T) {
	p := domain.Project{Candidates: initialCandidates()}
	w, ok := selectWinner(&p)
	assert.True(t, ok)
	assert.Equal(t, "c2", w.ID)

	_, ok = selectWinner(&p)
	assert.False(t, ok)

	_, ok = selectWinner(&domain.Project{})
	assert.False(t, ok)
}

func TestScriptProgressIsMonotonic(t *testing.T) {
	last := 0
	for tick := 1; tick <= terminalTick; tick++ {
		cp, ok := script[tick]
		if !ok || cp.progress == 0 {
			continue
		}
		assert.Greater(t, cp.progress, last, "tick %d", tick)
		last = cp.progress
	}
	assert.Equal(t, 100, last)
}
