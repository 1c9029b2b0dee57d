package main

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"devteam/internal/domain"
	devteamsdk "devteam/sdk/go"
)

func TestToViewFormatsArtifactsAndWinner(t *testing.T) {
	p := domain.Project{
		ID:     "p1",
		Name:   "Todo",
		Status: domain.StatusDeploying,
		Candidates: []domain.Candidate{
			{ID: "c1", Name: "Engineer Agent 1"},
			{ID: "c2", Name: "Engineer Agent 2", Selected: true},
		},
		Artifacts: []domain.Artifact{
			{ID: "a1", Name: "PRD.json", Type: domain.ArtifactJSON, Content: `{"a":1}`},
		},
	}
	v := toView(p, true)
	assert.Equal(t, "DEPLOYING", v.Status)
	assert.Equal(t, "c2", v.WinnerID)
	assert.True(t, v.Running)
	assert.Equal(t, []string{"DevOps", "Security"}, v.ActiveAgents)
	require.Len(t, v.Artifacts, 1)
	assert.Equal(t, "json", v.Artifacts[0].Language)
	assert.Equal(t, "{\n  \"a\": 1\n}", v.Artifacts[0].Content)
}

func TestLogPrinterPrintsEachEntryOnce(t *testing.T) {
	var buf bytes.Buffer
	lp := newLogPrinter(&buf)
	ts := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	first := devteamsdk.Project{Status: "PLANNING", Logs: []devteamsdk.LogEntry{
		{ID: "l1", Timestamp: ts, Agent: "Product Manager", Message: "kickoff", Level: "info"},
	}}
	second := first
	second.Logs = append(append([]devteamsdk.LogEntry{}, first.Logs...),
		devteamsdk.LogEntry{ID: "l2", Timestamp: ts, Agent: "Architect", Message: "designing", Level: "info"})

	lp.print(first)
	lp.print(second)
	out := buf.String()
	assert.Equal(t, 1, strings.Count(out, "kickoff"))
	assert.Equal(t, 1, strings.Count(out, "designing"))
	assert.Equal(t, 1, strings.Count(out, "PLANNING"))
}

func TestAgentStyleFallback(t *testing.T) {
	assert.NotEmpty(t, agentStyle("Nobody").Render("x"))
	for _, r := range domain.Roles {
		_, ok := agentColors[string(r)]
		assert.True(t, ok, "no color for %s", r)
	}
}

func TestAgentRoster(t *testing.T) {
	roster := agentRoster()
	require.Len(t, roster, len(domain.Roles))
	byRole := map[string][]string{}
	for _, e := range roster {
		byRole[e.Role] = e.OnDuty
	}
	assert.Equal(t, []string{"DEPLOYING"}, byRole["DevOps"])
	assert.Equal(t, []string{"RACE_MODE"}, byRole["Engineer"])
	assert.Empty(t, byRole["Researcher"])

	var buf bytes.Buffer
	printRoster(&buf, roster)
	assert.Contains(t, buf.String(), "Gen AI Engineer")
}
