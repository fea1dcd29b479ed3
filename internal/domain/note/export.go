package note

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/apurv-2025/notes-api/internal/platform/actor"
	"github.com/apurv-2025/notes-api/internal/platform/blobstore"
)

// exportContentType is the NDJSON media type used for export artifacts.
const exportContentType = "application/x-ndjson"

// writeExportArtifact serializes the exported notes as NDJSON, one note per
// line in input order, and stores the artifact. A partially failed batch
// still yields an artifact covering the notes that did export.
func (c *BulkCoordinator) writeExportArtifact(ctx context.Context, notes []*Note) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, n := range notes {
		if err := enc.Encode(n); err != nil {
			return "", fmt.Errorf("encoding note %s: %w", n.ID, err)
		}
	}

	meta := blobstore.ArtifactMetadata{
		FileName:    fmt.Sprintf("notes-export-%s.ndjson", time.Now().UTC().Format("20060102T150405Z")),
		ContentType: exportContentType,
		CreatedBy:   actor.IDFromContext(ctx),
	}
	stored, err := c.store.Put(ctx, meta, &buf)
	if err != nil {
		return "", err
	}
	return stored.ID, nil
}
