package audit

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/apurv-2025/notes-api/internal/platform/actor"
)

// appendTimeout bounds how long the worker waits on the audit backend for a
// single entry. A slow backend must not back the queue up indefinitely.
const appendTimeout = 5 * time.Second

// Logger writes audit entries asynchronously and best-effort. Callers enqueue
// and move on: a full queue or a failing backend drops the entry and reports
// it on the operational log channel, never to the caller. The primary
// operation is never blocked, failed, or rolled back by audit trouble.
type Logger struct {
	recorder Recorder
	queue    chan *Entry
	log      zerolog.Logger

	worker  sync.WaitGroup
	pending sync.WaitGroup

	mu     sync.Mutex
	closed bool
}

// NewLogger starts a Logger with a bounded queue of the given size consumed
// by a single worker goroutine.
func NewLogger(recorder Recorder, queueSize int, log zerolog.Logger) *Logger {
	if queueSize <= 0 {
		queueSize = 1024
	}
	l := &Logger{
		recorder: recorder,
		queue:    make(chan *Entry, queueSize),
		log:      log,
	}
	l.worker.Add(1)
	go l.run()
	return l
}

func (l *Logger) run() {
	defer l.worker.Done()
	for e := range l.queue {
		ctx, cancel := context.WithTimeout(context.Background(), appendTimeout)
		if err := l.recorder.Append(ctx, e); err != nil {
			l.log.Error().
				Err(err).
				Str("resource_id", e.ResourceID).
				Str("action", string(e.Action)).
				Msg("audit append failed, entry lost")
		}
		cancel()
		l.pending.Done()
	}
}

// Log enqueues an entry without blocking. If the queue is full or the logger
// is closed the entry is dropped and a warning is emitted.
func (l *Logger) Log(e *Entry) {
	if e.RecordedAt.IsZero() {
		e.RecordedAt = time.Now().UTC()
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		l.log.Warn().
			Str("resource_id", e.ResourceID).
			Str("action", string(e.Action)).
			Msg("audit logger closed, entry dropped")
		return
	}

	l.pending.Add(1)
	select {
	case l.queue <- e:
	default:
		l.pending.Done()
		l.log.Warn().
			Str("resource_id", e.ResourceID).
			Str("action", string(e.Action)).
			Msg("audit queue full, entry dropped")
	}
}

// Flush blocks until every entry accepted so far has been handed to the
// backend. Intended for tests and shutdown paths.
func (l *Logger) Flush() {
	l.pending.Wait()
}

// Close stops accepting entries, drains the queue, and stops the worker.
func (l *Logger) Close() {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return
	}
	l.closed = true
	close(l.queue)
	l.mu.Unlock()
	l.worker.Wait()
}

// NewEntry builds an audit entry for a note, picking up the acting user and
// request origin from the context.
func NewEntry(ctx context.Context, resourceID string, action Action, oldValues, newValues map[string]interface{}) *Entry {
	return &Entry{
		ResourceID:   resourceID,
		ResourceType: ResourceTypeNote,
		Action:       action,
		OldValues:    oldValues,
		NewValues:    newValues,
		ActorID:      actor.IDFromContext(ctx),
		ActorIP:      actor.IPFromContext(ctx),
		RecordedAt:   time.Now().UTC(),
	}
}
