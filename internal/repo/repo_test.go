package repo_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"devteam/internal/db"
	"devteam/internal/domain"
	"devteam/internal/events"
	"devteam/internal/migrate"
	"devteam/internal/repo"
)

func newJournalDB(t *testing.T) (repo.Repo, events.Writer) {
	t.Helper()
	conn, err := db.Open(db.Config{Workspace: t.TempDir()})
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	require.NoError(t, migrate.Migrate(context.Background(), conn))
	now := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	return repo.Repo{DB: conn}, events.Writer{DB: conn, Now: func() time.Time { return now }}
}

func seed(t *testing.T, w events.Writer) {
	t.Helper()
	require.NoError(t, w.AppendAll(context.Background(), []domain.Event{
		{Type: domain.EventSimulationStarted, ProjectID: "p1", EntityKind: "project", EntityID: "p1", ActorID: "IT Project Manager"},
		{Type: domain.EventLogAppended, ProjectID: "p1", EntityKind: "log", EntityID: "l1", ActorID: "Product Manager", Tick: 2, Payload: `{"message":"hi"}`},
		{Type: domain.EventStatusChanged, ProjectID: "p2", EntityKind: "project", EntityID: "p2", ActorID: "engine", Tick: 1},
		{Type: domain.EventLogAppended, ProjectID: "p1", EntityKind: "log", EntityID: "l2", ActorID: "Researcher", Tick: 3},
	}))
}

func TestLatestEvents(t *testing.T) {
	r, w := newJournalDB(t)
	seed(t, w)
	ctx := context.Background()

	evts, err := r.LatestEvents(ctx, repo.EventFilters{ProjectID: "p1"})
	require.NoError(t, err)
	require.Len(t, evts, 3)
	assert.Equal(t, "l2", evts[0].EntityID)
	assert.Equal(t, "{}", evts[0].Payload)
	assert.Equal(t, "2025-01-02T03:04:05Z", evts[0].TS)

	evts, err = r.LatestEvents(ctx, repo.EventFilters{ProjectID: "p1", Type: domain.EventLogAppended, Limit: 1})
	require.NoError(t, err)
	require.Len(t, evts, 1)
	assert.Equal(t, 3, evts[0].Tick)

	evts, err = r.LatestEvents(ctx, repo.EventFilters{Before: evts[0].ID, EntityKind: "log"})
	require.NoError(t, err)
	require.Len(t, evts, 1)
	assert.Equal(t, `{"message":"hi"}`, evts[0].Payload)
}

func TestEventsAfterAndLatestID(t *testing.T) {
	r, w := newJournalDB(t)
	ctx := context.Background()

	id, err := r.LatestEventID(ctx, "")
	require.NoError(t, err)
	assert.Zero(t, id)

	seed(t, w)
	all, err := r.EventsAfter(ctx, 0, 0, "")
	require.NoError(t, err)
	require.Len(t, all, 4)
	assert.Less(t, all[0].ID, all[1].ID)

	after, err := r.EventsAfter(ctx, 10, all[1].ID, "p1")
	require.NoError(t, err)
	require.Len(t, after, 1)
	assert.Equal(t, "l2", after[0].EntityID)

	id, err = r.LatestEventID(ctx, "p2")
	require.NoError(t, err)
	assert.Equal(t, all[2].ID, id)

	counts, err := r.CountEventsByType(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, map[string]int{domain.EventSimulationStarted: 1, domain.EventLogAppended: 2}, counts)
}

func TestGetEvent(t *testing.T) {
	r, w := newJournalDB(t)
	seed(t, w)
	ctx := context.Background()
	_, err := r.GetEvent(ctx, 999)
	require.ErrorIs(t, err, repo.ErrNotFound)

	e, err := r.GetEvent(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, domain.EventSimulationStarted, e.Type)
}
