package note

import (
	"context"

	"github.com/google/uuid"
)

// Repository is the note storage collaborator. Implementations must provide
// read-modify-write atomicity per note id; the lifecycle layer relies on the
// persisted status being current when a transition is checked.
type Repository interface {
	Create(ctx context.Context, n *Note) error
	GetByID(ctx context.Context, id uuid.UUID) (*Note, error)
	Update(ctx context.Context, n *Note) error
	Delete(ctx context.Context, id uuid.UUID) error
	SetArchived(ctx context.Context, id uuid.UUID, archived bool) error
	ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Note, int, error)
	Search(ctx context.Context, params map[string]string, limit, offset int) ([]*Note, int, error)
}
