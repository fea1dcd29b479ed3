package note

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Patch describes a requested change to a note. A non-empty UnlockReason is
// the caller's explicit authorisation to edit a signed note.
type Patch struct {
	Content      map[string]string `json:"content,omitempty"`
	SessionDate  *time.Time        `json:"session_date,omitempty"`
	UnlockReason string            `json:"unlock_reason,omitempty"`
}

// CheckUpdate decides whether the patch may be applied in the note's current
// state. It runs before validation and before storage is touched: editing a
// signed note without an unlock reason fails here with ErrNoteLocked and
// nothing else happens.
func CheckUpdate(n *Note, p Patch) error {
	switch n.Status {
	case StatusDraft, StatusSignedUnlocked:
		return nil
	case StatusSigned:
		if p.UnlockReason == "" {
			return ErrNoteLocked
		}
		return nil
	default:
		return fmt.Errorf("%w: cannot update note in state %q", ErrInvalidTransition, n.Status)
	}
}

// ApplyUpdate merges the patch into the note and performs the state
// transition CheckUpdate authorised. Returns true when the update unlocked a
// signed note.
func ApplyUpdate(n *Note, p Patch) (unlocked bool) {
	if n.Status == StatusSigned && p.UnlockReason != "" {
		n.Status = StatusSignedUnlocked
		reason := p.UnlockReason
		n.UnlockReason = &reason
		unlocked = true
	}

	if p.Content != nil {
		if n.Content == nil {
			n.Content = make(map[string]string, len(p.Content))
		}
		for k, v := range p.Content {
			n.Content[k] = v
		}
	}
	if p.SessionDate != nil {
		n.SessionDate = *p.SessionDate
	}
	return unlocked
}

// Sign finalizes a note. Allowed from draft and from a signed note reopened
// for edit; re-signing collapses the unlock and clears the reason. Signing a
// note that is already signed with no unlock in progress is an explicit
// error, never a silent no-op.
func Sign(n *Note, clinicianID uuid.UUID, now time.Time) error {
	switch n.Status {
	case StatusDraft, StatusSignedUnlocked:
		n.Status = StatusSigned
		n.UnlockReason = nil
		n.SignedAt = &now
		n.SignedBy = &clinicianID
		return nil
	case StatusSigned:
		return fmt.Errorf("%w: note is already signed", ErrInvalidTransition)
	default:
		return fmt.Errorf("%w: cannot sign note in state %q", ErrInvalidTransition, n.Status)
	}
}
