package note

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/apurv-2025/notes-api/internal/platform/audit"
	"github.com/apurv-2025/notes-api/internal/platform/blobstore"
)

// BulkAction is an operation applied independently to each note in a set.
type BulkAction string

const (
	BulkArchive BulkAction = "archive"
	BulkExport  BulkAction = "export"
	BulkDelete  BulkAction = "delete"
)

// Valid reports whether a is a supported bulk action.
func (a BulkAction) Valid() bool {
	return a == BulkArchive || a == BulkExport || a == BulkDelete
}

// ItemError reports the failure of a single note within a bulk run.
type ItemError struct {
	ID    string `json:"id"`
	Error string `json:"error"`
}

// BulkResult aggregates per-item outcomes. Every input id lands in exactly
// one of Succeeded or Failed. ArtifactID is set only for export runs that
// produced an artifact.
type BulkResult struct {
	Succeeded  []string    `json:"succeeded"`
	Failed     []ItemError `json:"failed"`
	ArtifactID string      `json:"artifact_id,omitempty"`
}

// BulkCoordinator fans a bulk action out across a bounded worker pool.
// Items are independent: one failing note never rolls back or stops the
// others, and failures are folded into the result instead of aborting.
type BulkCoordinator struct {
	svc     *Service
	store   blobstore.ArtifactStore
	workers int
	log     zerolog.Logger
}

func NewBulkCoordinator(svc *Service, store blobstore.ArtifactStore, workers int, log zerolog.Logger) *BulkCoordinator {
	if workers <= 0 {
		workers = 4
	}
	return &BulkCoordinator{svc: svc, store: store, workers: workers, log: log}
}

type bulkItem struct {
	err  error
	note *Note // export only
}

// Run executes action against every id and aggregates the outcomes in input
// order. The returned result always satisfies
// len(Succeeded)+len(Failed) == len(ids). Once ctx is done no further items
// are dispatched; undispatched items fail with the context error.
func (c *BulkCoordinator) Run(ctx context.Context, action BulkAction, ids []string) (*BulkResult, error) {
	if !action.Valid() {
		return nil, fmt.Errorf("unsupported bulk action: %q", action)
	}

	items := make([]bulkItem, len(ids))
	jobs := make(chan int)

	var wg sync.WaitGroup
	for w := 0; w < c.workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				items[i] = c.runItem(ctx, action, ids[i])
			}
		}()
	}

dispatch:
	for i := range ids {
		if ctx.Err() != nil {
			for j := i; j < len(ids); j++ {
				items[j] = bulkItem{err: ctx.Err()}
			}
			break
		}
		select {
		case <-ctx.Done():
			for j := i; j < len(ids); j++ {
				items[j] = bulkItem{err: ctx.Err()}
			}
			break dispatch
		case jobs <- i:
		}
	}
	close(jobs)
	wg.Wait()

	res := &BulkResult{Succeeded: []string{}, Failed: []ItemError{}}
	var exported []*Note
	for i, id := range ids {
		if items[i].err != nil {
			res.Failed = append(res.Failed, ItemError{ID: id, Error: items[i].err.Error()})
			continue
		}
		res.Succeeded = append(res.Succeeded, id)
		if items[i].note != nil {
			exported = append(exported, items[i].note)
		}
	}

	if action == BulkExport && len(exported) > 0 {
		artifactID, err := c.writeExportArtifact(ctx, exported)
		if err != nil {
			// The per-note outcomes stand; only the artifact is missing.
			c.log.Error().Err(err).Int("notes", len(exported)).Msg("export artifact write failed")
			return res, fmt.Errorf("writing export artifact: %w", err)
		}
		res.ArtifactID = artifactID
	}
	return res, nil
}

func (c *BulkCoordinator) runItem(ctx context.Context, action BulkAction, rawID string) bulkItem {
	id, err := uuid.Parse(rawID)
	if err != nil {
		return bulkItem{err: fmt.Errorf("invalid note id: %w", err)}
	}
	switch action {
	case BulkArchive:
		_, err := c.svc.ArchiveNote(ctx, id)
		return bulkItem{err: err}
	case BulkDelete:
		return bulkItem{err: c.svc.DeleteNote(ctx, id)}
	case BulkExport:
		n, err := c.svc.repo.GetByID(ctx, id)
		if err != nil {
			return bulkItem{err: err}
		}
		c.svc.audit.Log(audit.NewEntry(ctx, n.ID.String(), audit.ActionExport, nil, nil))
		return bulkItem{note: n}
	default:
		return bulkItem{err: fmt.Errorf("unsupported bulk action: %q", action)}
	}
}
