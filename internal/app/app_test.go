package app_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"devteam/internal/app"
	"devteam/internal/config"
	"devteam/internal/domain"
	"devteam/internal/repo"
	"devteam/internal/schedule"
)

func TestNewWithoutJournal(t *testing.T) {
	a, err := app.New(context.Background(), nil, app.Options{Scheduler: schedule.NewManual()})
	require.NoError(t, err)
	t.Cleanup(func() { a.Close() })

	assert.Nil(t, a.Repo)
	assert.Nil(t, a.Journal)
	assert.Nil(t, a.Webhooks())
	assert.Equal(t, "gemini-3-pro-preview", a.Chat.Model)

	_, _, err = app.OpenJournal(context.Background(), a.Config)
	require.ErrorIs(t, err, app.ErrJournalDisabled)
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Simulation.LogLimit = 0
	_, err := app.New(context.Background(), cfg, app.Options{})
	require.Error(t, err)
}

func TestJournalRecordsRun(t *testing.T) {
	ctx := context.Background()
	cfg := config.Default()
	cfg.Journal.Enabled = true
	cfg.Journal.Workspace = t.TempDir()
	cfg.Webhooks = []config.Webhook{{URL: "http://127.0.0.1:9/hook"}}
	clock := schedule.NewManual()

	a, err := app.New(ctx, cfg, app.Options{Scheduler: clock})
	require.NoError(t, err)
	require.NotNil(t, a.Webhooks())

	p := a.Store.Create("Journal", "records every tick")
	a.Engine.Start(p.ID)
	clock.Advance(50)
	require.NoError(t, a.Close())

	r, closeJournal, err := app.OpenJournal(ctx, cfg)
	require.NoError(t, err)
	defer closeJournal()
	counts, err := r.CountEventsByType(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, counts[domain.EventSimulationStarted])
	assert.Equal(t, 11, counts[domain.EventArtifactCreated])
	assert.Equal(t, 5, counts[domain.EventStatusChanged])
	assert.Equal(t, 1, counts[domain.EventCandidateSelected])
	assert.Equal(t, 1, counts[domain.EventSimulationCompleted])

	done, err := r.LatestEvents(ctx, repo.EventFilters{ProjectID: p.ID, Type: domain.EventSimulationCompleted})
	require.NoError(t, err)
	require.Len(t, done, 1)
	assert.Equal(t, 45, done[0].Tick)
}
