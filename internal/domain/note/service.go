package note

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/apurv-2025/notes-api/internal/platform/audit"
)

// AuditSink accepts audit entries without ever failing the caller.
// *audit.Logger satisfies it.
type AuditSink interface {
	Log(e *audit.Entry)
}

// Service owns the note lifecycle. Every operation follows the same shape:
// check the lifecycle rules, validate, persist, then enqueue the audit entry.
// Audit is best-effort and never influences the outcome of the operation.
type Service struct {
	repo  Repository
	audit AuditSink
	now   func() time.Time
}

func NewService(repo Repository, sink AuditSink) *Service {
	return &Service{
		repo:  repo,
		audit: sink,
		now:   time.Now,
	}
}

// CreateNote stores a new draft note. Validation failures reject the note
// before storage is touched.
func (s *Service) CreateNote(ctx context.Context, n *Note) (*Note, error) {
	if n.ClinicianID == uuid.Nil {
		return nil, &ValidationError{Errors: []string{"clinician_id is required"}}
	}
	n.Status = StatusDraft
	n.UnlockReason = nil
	n.SignedAt = nil
	n.SignedBy = nil
	n.Archived = false

	if res := Validate(n); !res.IsValid {
		return nil, &ValidationError{Errors: res.Errors}
	}
	if err := s.repo.Create(ctx, n); err != nil {
		return nil, err
	}
	s.audit.Log(audit.NewEntry(ctx, n.ID.String(), audit.ActionCreate, nil, n.Snapshot()))
	return n, nil
}

// GetNote fetches a note and records the read in the audit trail.
func (s *Service) GetNote(ctx context.Context, id uuid.UUID) (*Note, error) {
	n, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	s.audit.Log(audit.NewEntry(ctx, n.ID.String(), audit.ActionRead, nil, nil))
	return n, nil
}

// UpdateNote applies a patch under the lifecycle rules. Editing a signed note
// requires an unlock reason and is refused with ErrNoteLocked before any
// other check runs. An authorised edit of a signed note moves it to
// signed-unlocked and records a separate unlock entry ahead of the update
// entry.
func (s *Service) UpdateNote(ctx context.Context, id uuid.UUID, p Patch) (*Note, error) {
	n, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := CheckUpdate(n, p); err != nil {
		return nil, err
	}

	oldSnap := n.Snapshot()
	updated := n.Clone()
	unlocked := ApplyUpdate(updated, p)

	if res := Validate(updated); !res.IsValid {
		return nil, &ValidationError{Errors: res.Errors}
	}
	if err := s.repo.Update(ctx, updated); err != nil {
		return nil, err
	}

	if unlocked {
		s.audit.Log(audit.NewEntry(ctx, updated.ID.String(), audit.ActionUnlock,
			map[string]interface{}{"status": string(StatusSigned)},
			map[string]interface{}{
				"status":        string(StatusSignedUnlocked),
				"unlock_reason": p.UnlockReason,
			}))
	}
	s.audit.Log(audit.NewEntry(ctx, updated.ID.String(), audit.ActionUpdate, oldSnap, updated.Snapshot()))
	return updated, nil
}

// SignNote finalizes a note. The note must pass full validation at signing
// time even if it was stored as an incomplete draft. Signing an
// already-signed note is ErrInvalidTransition.
func (s *Service) SignNote(ctx context.Context, id, clinicianID uuid.UUID) (*Note, error) {
	if clinicianID == uuid.Nil {
		return nil, fmt.Errorf("clinician_id is required")
	}
	n, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	oldSnap := n.Snapshot()
	signed := n.Clone()
	if err := Sign(signed, clinicianID, s.now().UTC()); err != nil {
		return nil, err
	}
	if res := Validate(signed); !res.IsValid {
		return nil, &ValidationError{Errors: res.Errors}
	}
	if err := s.repo.Update(ctx, signed); err != nil {
		return nil, err
	}
	s.audit.Log(audit.NewEntry(ctx, signed.ID.String(), audit.ActionSign, oldSnap, signed.Snapshot()))
	return signed, nil
}

// DeleteNote removes a note. The audit entry carries the final snapshot and
// is enqueued before the row disappears, so a deleted note still leaves a
// trace of what it contained.
func (s *Service) DeleteNote(ctx context.Context, id uuid.UUID) error {
	n, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	s.audit.Log(audit.NewEntry(ctx, n.ID.String(), audit.ActionDelete, n.Snapshot(), nil))
	return s.repo.Delete(ctx, id)
}

// ArchiveNote marks a note archived without changing its lifecycle state.
func (s *Service) ArchiveNote(ctx context.Context, id uuid.UUID) (*Note, error) {
	n, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if n.Archived {
		return n, nil
	}
	oldSnap := n.Snapshot()
	if err := s.repo.SetArchived(ctx, id, true); err != nil {
		return nil, err
	}
	n.Archived = true
	s.audit.Log(audit.NewEntry(ctx, n.ID.String(), audit.ActionArchive, oldSnap, n.Snapshot()))
	return n, nil
}

func (s *Service) ListNotesByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Note, int, error) {
	return s.repo.ListByPatient(ctx, patientID, limit, offset)
}

func (s *Service) SearchNotes(ctx context.Context, params map[string]string, limit, offset int) ([]*Note, int, error) {
	return s.repo.Search(ctx, params, limit, offset)
}
