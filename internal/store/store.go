// Package store owns project identity and storage. It is the single source of
// truth for projects; the simulation engine is its only writer.
package store

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"devteam/internal/domain"
)

type entry struct {
	mu  sync.Mutex
	seq uint64
	p   domain.Project
}

// Store is an in-memory ProjectStore. Build one per running application and
// share it by reference.
type Store struct {
	Now   func() time.Time
	NewID func() string

	mu       sync.RWMutex
	projects map[string]*entry
	seq      uint64
}

func New() *Store {
	return &Store{
		Now:      time.Now,
		NewID:    uuid.NewString,
		projects: make(map[string]*entry),
	}
}

func (s *Store) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *Store) newID() string {
	if s.NewID != nil {
		return s.NewID()
	}
	return uuid.NewString()
}

// Create stores a new IDLE project and returns a snapshot of it.
func (s *Store) Create(name, description string) domain.Project {
	p := domain.Project{
		Name:        name,
		Description: description,
		Status:      domain.StatusIdle,
		Logs:        []domain.LogEntry{},
		Candidates:  []domain.Candidate{},
		Artifacts:   []domain.Artifact{},
		CreatedAt:   s.now(),
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	p.ID = s.newID()
	for _, taken := s.projects[p.ID]; taken; _, taken = s.projects[p.ID] {
		p.ID = uuid.NewString()
	}
	s.seq++
	s.projects[p.ID] = &entry{seq: s.seq, p: p}
	return p.Clone()
}

// Get returns a snapshot of the project; ok is false when id is unknown.
func (s *Store) Get(id string) (domain.Project, bool) {
	e := s.lookup(id)
	if e == nil {
		return domain.Project{}, false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.p.Clone(), true
}

// List returns snapshots of all projects, newest first. Projects created at
// the same instant keep reverse insertion order.
func (s *Store) List() []domain.Project {
	s.mu.RLock()
	entries := make([]*entry, 0, len(s.projects))
	for _, e := range s.projects {
		entries = append(entries, e)
	}
	s.mu.RUnlock()

	type row struct {
		seq uint64
		p   domain.Project
	}
	rows := make([]row, 0, len(entries))
	for _, e := range entries {
		e.mu.Lock()
		rows = append(rows, row{seq: e.seq, p: e.p.Clone()})
		e.mu.Unlock()
	}
	sort.Slice(rows, func(i, j int) bool {
		if !rows[i].p.CreatedAt.Equal(rows[j].p.CreatedAt) {
			return rows[i].p.CreatedAt.After(rows[j].p.CreatedAt)
		}
		return rows[i].seq > rows[j].seq
	})
	out := make([]domain.Project, len(rows))
	for i, r := range rows {
		out[i] = r.p
	}
	return out
}

// Update runs fn against the live project while holding its lock. It reports
// false, without calling fn, when id is unknown.
func (s *Store) Update(id string, fn func(*domain.Project)) bool {
	e := s.lookup(id)
	if e == nil {
		return false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	fn(&e.p)
	return true
}

func (s *Store) lookup(id string) *entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.projects[id]
}
