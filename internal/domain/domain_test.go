package domain

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppendLogEvictsOldestFirst(t *testing.T) {
	var p Project
	for i := 0; i < 250; i++ {
		p.AppendLog(LogEntry{ID: fmt.Sprint(i), Message: fmt.Sprintf("entry %d", i)}, DefaultLogLimit)
	}
	require.Len(t, p.Logs, DefaultLogLimit)
	for i, e := range p.Logs {
		assert.Equal(t, fmt.Sprint(i+50), e.ID)
	}
}

func TestAppendLogDefaultsLimit(t *testing.T) {
	var p Project
	for i := 0; i < DefaultLogLimit+1; i++ {
		p.AppendLog(LogEntry{ID: fmt.Sprint(i)}, 0)
	}
	require.Len(t, p.Logs, DefaultLogLimit)
	assert.Equal(t, "1", p.Logs[0].ID)
}

func TestCloneDoesNotAlias(t *testing.T) {
	p := Project{
		Candidates: []Candidate{{ID: "c1", Coverage: 1}},
		Artifacts:  []Artifact{{ID: "a1"}},
	}
	snap := p.Clone()
	p.Candidates[0].Coverage = 50
	p.Artifacts[0].Name = "changed"

	assert.Equal(t, 1.0, snap.Candidates[0].Coverage)
	assert.Empty(t, snap.Artifacts[0].Name)
	assert.NotNil(t, snap.Logs)
}

func TestWinner(t *testing.T) {
	p := Project{Candidates: []Candidate{{ID: "c1"}, {ID: "c2", Selected: true}}}
	w, ok := p.Winner()
	require.True(t, ok)
	assert.Equal(t, "c2", w.ID)

	_, ok = Project{}.Winner()
	assert.False(t, ok)
}

func TestActiveAgents(t *testing.T) {
	assert.Equal(t, []AgentRole{RoleDevOps, RoleSecurity}, ActiveAgents(StatusDeploying))
	assert.Equal(t, []AgentRole{RoleQA}, ActiveAgents(StatusTesting))
	assert.Nil(t, ActiveAgents(StatusIdle))
	assert.Nil(t, ActiveAgents(StatusFailed))
}

func TestTerminal(t *testing.T) {
	assert.True(t, StatusCompleted.Terminal())
	assert.True(t, StatusFailed.Terminal())
	assert.False(t, StatusDeploying.Terminal())
}
