package events

import (
	"context"
	"log/slog"
	"sync"

	"devteam/internal/domain"
)

const defaultQueue = 256

// Journal persists engine events from a background goroutine. Record never
// blocks the simulation: batches are dropped when the queue is full.
type Journal struct {
	writer Writer
	logger *slog.Logger
	queue  chan []domain.Event

	closeOnce sync.Once
	mu        sync.RWMutex
	closed    bool
	done      chan struct{}
}

func NewJournal(w Writer, logger *slog.Logger) *Journal {
	if logger == nil {
		logger = slog.Default()
	}
	j := &Journal{
		writer: w,
		logger: logger,
		queue:  make(chan []domain.Event, defaultQueue),
		done:   make(chan struct{}),
	}
	go j.run()
	return j
}

// Record queues a batch for writing.
func (j *Journal) Record(evts []domain.Event) {
	if len(evts) == 0 {
		return
	}
	j.mu.RLock()
	defer j.mu.RUnlock()
	if j.closed {
		return
	}
	select {
	case j.queue <- evts:
	default:
		j.logger.Warn("journal queue full; dropping events", "count", len(evts), "project_id", evts[0].ProjectID)
	}
}

// Close flushes queued batches and stops the writer.
func (j *Journal) Close() {
	j.closeOnce.Do(func() {
		j.mu.Lock()
		j.closed = true
		close(j.queue)
		j.mu.Unlock()
	})
	<-j.done
}

func (j *Journal) run() {
	defer close(j.done)
	for evts := range j.queue {
		if err := j.writer.AppendAll(context.Background(), evts); err != nil {
			j.logger.Error("journal write failed", "error", err, "count", len(evts))
		}
	}
}
