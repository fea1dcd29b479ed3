package audit

import (
	"time"

	"github.com/google/uuid"
)

// Action identifies what was done to a resource.
type Action string

const (
	ActionCreate  Action = "create"
	ActionRead    Action = "read"
	ActionUpdate  Action = "update"
	ActionSign    Action = "sign"
	ActionUnlock  Action = "unlock"
	ActionDelete  Action = "delete"
	ActionArchive Action = "archive"
	ActionExport  Action = "export"
)

var validActions = map[Action]bool{
	ActionCreate: true, ActionRead: true, ActionUpdate: true, ActionSign: true,
	ActionUnlock: true, ActionDelete: true, ActionArchive: true, ActionExport: true,
}

// Valid reports whether a is a known audit action.
func (a Action) Valid() bool {
	return validActions[a]
}

// Entry is a single immutable audit record. Entries are append-only: the
// subsystem never updates or deletes them.
type Entry struct {
	ID           uuid.UUID              `db:"id" json:"id"`
	ResourceID   string                 `db:"resource_id" json:"resource_id"`
	ResourceType string                 `db:"resource_type" json:"resource_type"`
	Action       Action                 `db:"action" json:"action"`
	OldValues    map[string]interface{} `db:"old_values" json:"old_values,omitempty"`
	NewValues    map[string]interface{} `db:"new_values" json:"new_values,omitempty"`
	ActorID      string                 `db:"actor_id" json:"actor_id,omitempty"`
	ActorIP      string                 `db:"actor_ip" json:"actor_ip,omitempty"`
	RecordedAt   time.Time              `db:"recorded_at" json:"recorded_at"`
}

// ResourceTypeNote is the resource type recorded for progress notes.
const ResourceTypeNote = "note"
