package audit

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"

	"github.com/rs/zerolog"

	"github.com/apurv-2025/notes-api/internal/platform/actor"
)

// mockRecorder records appended entries in memory.
type mockRecorder struct {
	mu      sync.Mutex
	entries []*Entry
	err     error
}

func (m *mockRecorder) Append(_ context.Context, e *Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.entries = append(m.entries, e)
	return nil
}

func (m *mockRecorder) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

func testLogger(rec Recorder, size int) *Logger {
	return NewLogger(rec, size, zerolog.New(os.Stderr))
}

func TestLogger_AppendsAsync(t *testing.T) {
	rec := &mockRecorder{}
	l := testLogger(rec, 16)
	defer l.Close()

	for i := 0; i < 5; i++ {
		l.Log(&Entry{ResourceID: fmt.Sprintf("note-%d", i), ResourceType: ResourceTypeNote, Action: ActionCreate})
	}
	l.Flush()

	if got := rec.count(); got != 5 {
		t.Errorf("expected 5 entries appended, got %d", got)
	}
}

func TestLogger_BackendFailureIsSwallowed(t *testing.T) {
	rec := &mockRecorder{err: fmt.Errorf("audit backend down")}
	l := testLogger(rec, 16)
	defer l.Close()

	// Must not panic, block, or surface the error.
	l.Log(&Entry{ResourceID: "note-1", ResourceType: ResourceTypeNote, Action: ActionUpdate})
	l.Flush()

	if got := rec.count(); got != 0 {
		t.Errorf("expected 0 entries on failing backend, got %d", got)
	}
}

func TestLogger_FullQueueDrops(t *testing.T) {
	// Recorder blocks until released so the queue can fill up.
	release := make(chan struct{})
	var mu sync.Mutex
	appended := 0
	blocking := recorderFunc(func(_ context.Context, _ *Entry) error {
		<-release
		mu.Lock()
		appended++
		mu.Unlock()
		return nil
	})

	l := testLogger(blocking, 1)

	// First entry occupies the worker, second fills the queue, the rest drop.
	for i := 0; i < 5; i++ {
		l.Log(&Entry{ResourceID: fmt.Sprintf("note-%d", i), Action: ActionRead})
	}
	close(release)
	l.Flush()
	l.Close()

	mu.Lock()
	defer mu.Unlock()
	if appended > 2 {
		t.Errorf("expected at most 2 entries through a size-1 queue, got %d", appended)
	}
	if appended == 0 {
		t.Error("expected at least the in-flight entry to be appended")
	}
}

func TestLogger_LogAfterClose(t *testing.T) {
	rec := &mockRecorder{}
	l := testLogger(rec, 4)
	l.Close()

	// Must not panic.
	l.Log(&Entry{ResourceID: "note-1", Action: ActionDelete})
	if got := rec.count(); got != 0 {
		t.Errorf("expected entry after close to be dropped, got %d", got)
	}
}

func TestLogger_CloseDrains(t *testing.T) {
	rec := &mockRecorder{}
	l := testLogger(rec, 16)
	for i := 0; i < 10; i++ {
		l.Log(&Entry{ResourceID: fmt.Sprintf("note-%d", i), Action: ActionArchive})
	}
	l.Close()

	if got := rec.count(); got != 10 {
		t.Errorf("expected Close to drain all 10 entries, got %d", got)
	}
}

func TestNewEntry_ActorAttribution(t *testing.T) {
	ctx := actor.WithActor(context.Background(), "clinician-7", "203.0.113.9")
	e := NewEntry(ctx, "note-1", ActionSign, nil, map[string]interface{}{"status": "signed"})

	if e.ActorID != "clinician-7" {
		t.Errorf("expected actor id clinician-7, got %q", e.ActorID)
	}
	if e.ActorIP != "203.0.113.9" {
		t.Errorf("expected actor ip 203.0.113.9, got %q", e.ActorIP)
	}
	if e.ResourceType != ResourceTypeNote {
		t.Errorf("expected resource type note, got %q", e.ResourceType)
	}
	if e.RecordedAt.IsZero() {
		t.Error("expected recorded_at to be set")
	}
}

func TestAction_Valid(t *testing.T) {
	for _, a := range []Action{ActionCreate, ActionRead, ActionUpdate, ActionSign, ActionUnlock, ActionDelete, ActionArchive, ActionExport} {
		if !a.Valid() {
			t.Errorf("expected %s to be valid", a)
		}
	}
	if Action("rewrite").Valid() {
		t.Error("expected unknown action to be invalid")
	}
}

// recorderFunc adapts a function to the Recorder interface.
type recorderFunc func(ctx context.Context, e *Entry) error

func (f recorderFunc) Append(ctx context.Context, e *Entry) error { return f(ctx, e) }
