package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"devteam/internal/domain"
)

func TestCreateProject(t *testing.T) {
	s := New()
	p := s.Create("A", "B")

	assert.NotEmpty(t, p.ID)
	assert.Equal(t, "A", p.Name)
	assert.Equal(t, "B", p.Description)
	assert.Equal(t, domain.StatusIdle, p.Status)
	assert.Zero(t, p.Progress)
	assert.Empty(t, p.Logs)
	assert.Empty(t, p.Candidates)
	assert.Empty(t, p.Artifacts)
	assert.False(t, p.CreatedAt.IsZero())

	other := s.Create("A", "B")
	assert.NotEqual(t, p.ID, other.ID)
}

func TestCreateRetriesTakenID(t *testing.T) {
	s := New()
	s.NewID = func() string { return "fixed" }
	first := s.Create("one", "")
	second := s.Create("two", "")
	assert.Equal(t, "fixed", first.ID)
	assert.NotEqual(t, first.ID, second.ID)
}

func TestGetProjectMissing(t *testing.T) {
	s := New()
	_, ok := s.Get("nonexistent")
	assert.False(t, ok)
}

func TestListNewestFirst(t *testing.T) {
	s := New()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	var n int
	s.Now = func() time.Time {
		n++
		return base.Add(time.Duration(n) * time.Minute)
	}
	t1 := s.Create("t1", "")
	t2 := s.Create("t2", "")
	t3 := s.Create("t3", "")

	got := s.List()
	require.Len(t, got, 3)
	assert.Equal(t, []string{t3.ID, t2.ID, t1.ID}, []string{got[0].ID, got[1].ID, got[2].ID})
}

func TestListTiesAreStable(t *testing.T) {
	s := New()
	at := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	s.Now = func() time.Time { return at }
	a := s.Create("a", "")
	b := s.Create("b", "")

	for i := 0; i < 5; i++ {
		got := s.List()
		require.Len(t, got, 2)
		assert.Equal(t, b.ID, got[0].ID)
		assert.Equal(t, a.ID, got[1].ID)
	}
}

func TestUpdateMutatesLiveProject(t *testing.T) {
	s := New()
	p := s.Create("A", "B")

	ok := s.Update(p.ID, func(live *domain.Project) {
		live.Progress = 15
		live.Artifacts = append(live.Artifacts, domain.Artifact{ID: "a1"})
	})
	require.True(t, ok)

	got, ok := s.Get(p.ID)
	require.True(t, ok)
	assert.Equal(t, 15, got.Progress)
	assert.Len(t, got.Artifacts, 1)
	assert.Empty(t, p.Artifacts, "earlier snapshot must not change")
}

func TestUpdateMissing(t *testing.T) {
	s := New()
	called := false
	ok := s.Update("nonexistent", func(*domain.Project) { called = true })
	assert.False(t, ok)
	assert.False(t, called)
}
