package note

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Type is the clinical documentation format of a progress note.
type Type string

const (
	TypeSOAP Type = "SOAP"
	TypeDAP  Type = "DAP"
	TypeBIRP Type = "BIRP"
	TypePAIP Type = "PAIP"
)

var validTypes = map[Type]bool{
	TypeSOAP: true, TypeDAP: true, TypeBIRP: true, TypePAIP: true,
}

// Valid reports whether t is a known note type.
func (t Type) Valid() bool {
	return validTypes[t]
}

// requiredFields lists the content sections each note type must carry before
// it may leave draft state.
var requiredFields = map[Type][]string{
	TypeSOAP: {"subjective", "objective", "assessment", "plan"},
	TypeDAP:  {"data", "assessment", "plan"},
	TypeBIRP: {"behavior", "intervention", "response", "plan"},
	TypePAIP: {"problem", "assessment", "intervention", "plan"},
}

// RequiredFields returns the content sections required for t, or nil for an
// unknown type.
func (t Type) RequiredFields() []string {
	return requiredFields[t]
}

// Status is the lifecycle state of a note. It is the single source of truth:
// the is_draft/is_signed/is_locked booleans the UI reads are derived from it,
// so contradictory flag combinations cannot be stored.
type Status string

const (
	// StatusDraft is a note not yet signed; freely editable.
	StatusDraft Status = "draft"
	// StatusSigned is a finalized note; edits require an unlock reason.
	StatusSigned Status = "signed"
	// StatusSignedUnlocked is a signed note temporarily reopened for edit.
	// It still reports as signed and collapses back to StatusSigned on the
	// next signing.
	StatusSignedUnlocked Status = "signed_unlocked"
)

// Note maps to the progress_note table.
type Note struct {
	ID           uuid.UUID         `db:"id" json:"id"`
	PatientID    uuid.UUID         `db:"patient_id" json:"patient_id"`
	ClinicianID  uuid.UUID         `db:"clinician_id" json:"clinician_id"`
	Type         Type              `db:"note_type" json:"note_type"`
	SessionDate  time.Time         `db:"session_date" json:"session_date"`
	Content      map[string]string `db:"content" json:"content"`
	Status       Status            `db:"status" json:"status"`
	UnlockReason *string           `db:"unlock_reason" json:"unlock_reason,omitempty"`
	SignedAt     *time.Time        `db:"signed_at" json:"signed_at,omitempty"`
	SignedBy     *uuid.UUID        `db:"signed_by" json:"signed_by,omitempty"`
	Archived     bool              `db:"archived" json:"archived"`
	CreatedAt    time.Time         `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time         `db:"updated_at" json:"updated_at"`
}

// IsDraft reports whether the note is still a draft.
func (n *Note) IsDraft() bool {
	return n.Status == StatusDraft
}

// IsSigned reports whether the note has been signed. A note reopened for
// edit is still considered signed for display purposes.
func (n *Note) IsSigned() bool {
	return n.Status == StatusSigned || n.Status == StatusSignedUnlocked
}

// IsLocked reports whether the note rejects edits without an unlock reason.
// IsLocked implies IsSigned.
func (n *Note) IsLocked() bool {
	return n.Status == StatusSigned
}

// MarshalJSON emits the derived lifecycle booleans alongside the stored
// fields so UI clients keep their existing contract.
func (n *Note) MarshalJSON() ([]byte, error) {
	type alias Note
	return json.Marshal(&struct {
		*alias
		IsDraft  bool `json:"is_draft"`
		IsSigned bool `json:"is_signed"`
		IsLocked bool `json:"is_locked"`
	}{
		alias:    (*alias)(n),
		IsDraft:  n.IsDraft(),
		IsSigned: n.IsSigned(),
		IsLocked: n.IsLocked(),
	})
}

// Snapshot returns the audit-log representation of the note's current state.
func (n *Note) Snapshot() map[string]interface{} {
	snap := map[string]interface{}{
		"patient_id":   n.PatientID.String(),
		"clinician_id": n.ClinicianID.String(),
		"note_type":    string(n.Type),
		"status":       string(n.Status),
		"archived":     n.Archived,
	}
	if !n.SessionDate.IsZero() {
		snap["session_date"] = n.SessionDate.Format("2006-01-02")
	}
	if len(n.Content) > 0 {
		content := make(map[string]interface{}, len(n.Content))
		for k, v := range n.Content {
			content[k] = v
		}
		snap["content"] = content
	}
	if n.UnlockReason != nil {
		snap["unlock_reason"] = *n.UnlockReason
	}
	return snap
}

// Clone returns a deep copy, used to build old/new audit snapshots without
// aliasing the content map.
func (n *Note) Clone() *Note {
	c := *n
	if n.Content != nil {
		c.Content = make(map[string]string, len(n.Content))
		for k, v := range n.Content {
			c.Content[k] = v
		}
	}
	if n.UnlockReason != nil {
		reason := *n.UnlockReason
		c.UnlockReason = &reason
	}
	if n.SignedAt != nil {
		at := *n.SignedAt
		c.SignedAt = &at
	}
	if n.SignedBy != nil {
		by := *n.SignedBy
		c.SignedBy = &by
	}
	return &c
}
