package server

import (
	"context"
	"net/http"
	"sync"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/sse"

	"devteam/internal/domain"
	"devteam/internal/engine"
)

// hub fans one engine subscription per project out to every open stream.
// The engine keeps a single observer per project; the hub is that observer.
type hub struct {
	engine *engine.Engine

	mu     sync.Mutex
	topics map[string]*topic
}

type topic struct {
	clients     map[chan domain.Project]struct{}
	latest      domain.Project
	hasLatest   bool
	unsubscribe func()
}

func newHub(e *engine.Engine) *hub {
	return &hub{engine: e, topics: make(map[string]*topic)}
}

// join returns a channel that always holds the newest snapshot. The first
// stream for a project subscribes to the engine, which replays the current
// state; later streams get the last snapshot seen.
func (h *hub) join(projectID string) (<-chan domain.Project, func()) {
	ch := make(chan domain.Project, 1)

	h.mu.Lock()
	t, ok := h.topics[projectID]
	if !ok {
		t = &topic{clients: make(map[chan domain.Project]struct{})}
		h.topics[projectID] = t
	}
	t.clients[ch] = struct{}{}
	if t.hasLatest {
		ch <- t.latest
	}
	h.mu.Unlock()

	if !ok {
		unsub := h.engine.Subscribe(projectID, func(p domain.Project) {
			h.broadcast(projectID, p)
		})
		h.mu.Lock()
		if cur, live := h.topics[projectID]; live && cur == t {
			t.unsubscribe = unsub
			unsub = nil
		}
		h.mu.Unlock()
		if unsub != nil {
			unsub()
		}
	}

	return ch, func() { h.leave(projectID, ch) }
}

func (h *hub) leave(projectID string, ch chan domain.Project) {
	var unsub func()
	h.mu.Lock()
	if t, ok := h.topics[projectID]; ok {
		delete(t.clients, ch)
		if len(t.clients) == 0 {
			delete(h.topics, projectID)
			unsub = t.unsubscribe
		}
	}
	h.mu.Unlock()
	if unsub != nil {
		unsub()
	}
}

func (h *hub) broadcast(projectID string, p domain.Project) {
	h.mu.Lock()
	defer h.mu.Unlock()
	t, ok := h.topics[projectID]
	if !ok {
		return
	}
	t.latest, t.hasLatest = p, true
	for ch := range t.clients {
		select {
		case ch <- p:
		default:
			// Slow reader: replace the pending snapshot with the newer one.
			select {
			case <-ch:
			default:
			}
			ch <- p
		}
	}
}

func registerStream(api huma.API, cfg Config, h *hub) {
	sse.Register(api, huma.Operation{
		OperationID: "stream-project",
		Method:      http.MethodGet,
		Path:        "/projects/{project_id}/stream",
		Summary:     "Stream project snapshots",
		Description: "Sends the current snapshot on connect and one snapshot per tick. The stream ends once the project reaches a terminal status.",
	}, map[string]any{
		"snapshot": ProjectResponse{},
		"error":    apiErrorBody{},
	}, func(ctx context.Context, input *struct {
		ProjectID string `path:"project_id"`
	}, send sse.Sender) {
		if _, ok := cfg.Store.Get(input.ProjectID); !ok {
			_ = send.Data(apiErrorBody{Code: "not_found", Message: "project not found"})
			return
		}
		updates, leave := h.join(input.ProjectID)
		defer leave()
		for {
			select {
			case <-ctx.Done():
				return
			case p := <-updates:
				if err := send.Data(projectResponse(p, cfg.Engine.Running(p.ID))); err != nil {
					return
				}
				if p.Status.Terminal() {
					return
				}
			}
		}
	})
}
