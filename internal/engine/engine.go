// Package engine advances projects through the scripted dev-team timeline.
//
// Each started project owns one repeating timer. Every firing runs one tick of
// the script against the live project held by the store, then hands a
// snapshot to the project's single subscriber. Unknown project ids are
// ignored everywhere.
package engine

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"devteam/internal/domain"
	"devteam/internal/schedule"
	"devteam/internal/store"
)

// DefaultInterval is the time between two ticks.
const DefaultInterval = time.Second

// Recorder receives the journal events produced by one start or tick. Record
// must not block.
type Recorder interface {
	Record(events []domain.Event)
}

type Options struct {
	Scheduler schedule.Scheduler
	Rand      Source
	Interval  time.Duration
	LogLimit  int
	Now       func() time.Time
	Recorder  Recorder
	Logger    *slog.Logger
}

type subscriber struct {
	token uint64
	fn    func(domain.Project)
	mu    *sync.Mutex
}

type Engine struct {
	store *store.Store
	opts  Options

	mu      sync.Mutex
	timers  map[string]schedule.Cancel
	subs    map[string]subscriber
	nextSub uint64
}

func New(s *store.Store, opts Options) *Engine {
	if opts.Scheduler == nil {
		opts.Scheduler = schedule.Ticker{}
	}
	if opts.Rand == nil {
		opts.Rand = NewSource(0)
	}
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	if opts.LogLimit <= 0 {
		opts.LogLimit = domain.DefaultLogLimit
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Engine{
		store:  s,
		opts:   opts,
		timers: make(map[string]schedule.Cancel),
		subs:   make(map[string]subscriber),
	}
}

// Start moves an IDLE project to PLANNING and arms its timer. It does nothing
// when the project is unknown, already has a timer, or has left IDLE.
func (e *Engine) Start(projectID string) {
	changes := e.newChangeSet(projectID, 0)
	started := false

	e.mu.Lock()
	if _, running := e.timers[projectID]; !running {
		e.store.Update(projectID, func(p *domain.Project) {
			if p.Status != domain.StatusIdle {
				return
			}
			started = true
			changes.add(domain.EventSimulationStarted, "project", p.ID, string(startLog.agent), map[string]any{"name": p.Name})
			e.setStatus(p, domain.StatusPlanning, changes)
			e.appendLog(p, startLog, changes)
		})
		if started {
			tick := 0
			e.timers[projectID] = e.opts.Scheduler.Every(e.opts.Interval, func() {
				tick++
				e.Step(projectID, tick)
			})
		}
	}
	e.mu.Unlock()

	if !started {
		return
	}
	e.opts.Logger.Debug("simulation started", "project_id", projectID, "interval", e.opts.Interval)
	e.record(changes)
	e.notify(projectID)
}

// Step applies the script for tick to the project and notifies its
// subscriber. A project in a terminal status is left untouched.
func (e *Engine) Step(projectID string, tick int) {
	changes := e.newChangeSet(projectID, tick)
	applied, finished := false, false
	e.store.Update(projectID, func(p *domain.Project) {
		if p.Status.Terminal() {
			return
		}
		applied = true
		e.apply(p, tick, changes)
		finished = p.Status.Terminal()
	})
	if !applied {
		return
	}
	if finished {
		e.Stop(projectID)
		e.opts.Logger.Debug("simulation completed", "project_id", projectID, "tick", tick)
	}
	e.record(changes)
	e.notify(projectID)
}

// Stop cancels the project's timer. It reports whether a timer was running.
func (e *Engine) Stop(projectID string) bool {
	e.mu.Lock()
	cancel, ok := e.timers[projectID]
	delete(e.timers, projectID)
	e.mu.Unlock()
	if ok {
		cancel()
	}
	return ok
}

// Running reports whether the project has an active timer.
func (e *Engine) Running(projectID string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	_, ok := e.timers[projectID]
	return ok
}

// Subscribe makes fn the project's only observer, replacing any previous one,
// and immediately replays the current state to it. The returned func removes
// this subscription; it leaves a newer subscription in place.
func (e *Engine) Subscribe(projectID string, fn func(domain.Project)) (unsubscribe func()) {
	if fn == nil {
		return func() {}
	}
	if _, ok := e.store.Get(projectID); !ok {
		return func() {}
	}
	e.mu.Lock()
	e.nextSub++
	sub := subscriber{token: e.nextSub, fn: fn, mu: &sync.Mutex{}}
	e.subs[projectID] = sub
	e.mu.Unlock()

	e.deliver(projectID, sub)

	return func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		if cur, ok := e.subs[projectID]; ok && cur.token == sub.token {
			delete(e.subs, projectID)
		}
	}
}

func (e *Engine) notify(projectID string) {
	e.mu.Lock()
	sub, ok := e.subs[projectID]
	e.mu.Unlock()
	if ok {
		e.deliver(projectID, sub)
	}
}

// deliver snapshots under the subscriber's lock so one observer never sees
// an older state after a newer one.
func (e *Engine) deliver(projectID string, sub subscriber) {
	sub.mu.Lock()
	defer sub.mu.Unlock()
	snap, ok := e.store.Get(projectID)
	if !ok {
		return
	}
	sub.fn(snap)
}

func (e *Engine) apply(p *domain.Project, tick int, c *changeSet) {
	if inRaceWindow(tick) {
		for i := range p.Candidates {
			drift(&p.Candidates[i], e.opts.Rand)
		}
	}
	if cp, ok := script[tick]; ok {
		if cp.race != nil {
			cp.race(p, c)
		}
		for _, a := range cp.artifacts {
			e.addArtifact(p, a, c)
		}
		for _, l := range cp.logs {
			e.appendLog(p, l, c)
		}
		if cp.status != "" {
			e.setStatus(p, cp.status, c)
		}
		if cp.progress > p.Progress {
			p.Progress = cp.progress
		}
	}
	if l, ok := raceChatter(tick); ok {
		e.appendLog(p, l, c)
	}
}

func (e *Engine) appendLog(p *domain.Project, l logLine, c *changeSet) {
	entry := domain.LogEntry{
		ID:        uuid.NewString(),
		Timestamp: c.now,
		Agent:     l.agent,
		Message:   l.message,
		Level:     l.level,
	}
	p.AppendLog(entry, e.opts.LogLimit)
	c.add(domain.EventLogAppended, "log", entry.ID, string(l.agent), map[string]any{
		"message": l.message,
		"level":   l.level,
	})
}

func (e *Engine) addArtifact(p *domain.Project, spec artifactSpec, c *changeSet) {
	a := domain.Artifact{
		ID:      uuid.NewString(),
		Name:    spec.name,
		Type:    spec.typ,
		Content: spec.content,
	}
	p.Artifacts = append(p.Artifacts, a)
	c.add(domain.EventArtifactCreated, "artifact", a.ID, "engine", map[string]any{
		"name": a.Name,
		"type": a.Type,
	})
}

func (e *Engine) setStatus(p *domain.Project, s domain.Status, c *changeSet) {
	if p.Status == s {
		return
	}
	from := p.Status
	p.Status = s
	c.add(domain.EventStatusChanged, "project", p.ID, "engine", map[string]any{
		"from": from,
		"to":   s,
	})
	if s.Terminal() {
		c.add(domain.EventSimulationCompleted, "project", p.ID, "engine", map[string]any{
			"status":    s,
			"artifacts": len(p.Artifacts),
		})
	}
}

func (e *Engine) record(c *changeSet) {
	if e.opts.Recorder == nil || len(c.events) == 0 {
		return
	}
	e.opts.Recorder.Record(c.events)
}

// changeSet collects the journal events of one start or tick.
type changeSet struct {
	projectID string
	tick      int
	now       time.Time
	events    []domain.Event
}

func (e *Engine) newChangeSet(projectID string, tick int) *changeSet {
	return &changeSet{projectID: projectID, tick: tick, now: e.opts.Now()}
}

func (c *changeSet) add(evtType, entityKind, entityID, actorID string, payload map[string]any) {
	data, err := json.Marshal(payload)
	if err != nil {
		data = []byte("{}")
	}
	c.events = append(c.events, domain.Event{
		TS:         c.now.UTC().Format(time.RFC3339Nano),
		Type:       evtType,
		ProjectID:  c.projectID,
		EntityKind: entityKind,
		EntityID:   entityID,
		ActorID:    actorID,
		Tick:       c.tick,
		Payload:    string(data),
	})
}
