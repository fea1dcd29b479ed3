package audit

import (
	"context"

	"github.com/google/uuid"
)

// Recorder persists audit entries. Implementations must be append-only.
type Recorder interface {
	Append(ctx context.Context, e *Entry) error
}

// Repository is the read side used by the audit-log API.
type Repository interface {
	Recorder
	GetByID(ctx context.Context, id uuid.UUID) (*Entry, error)
	Search(ctx context.Context, params map[string]string, limit, offset int) ([]*Entry, int, error)
}
