package note

import (
	"fmt"

	"github.com/google/uuid"
)

// ValidationResult reports the outcome of validating a note. Failures are a
// list of messages, not a terminal fault.
type ValidationResult struct {
	IsValid bool     `json:"is_valid"`
	Errors  []string `json:"errors,omitempty"`
}

// Validate enforces the per-note-type structural requirements a note must
// satisfy before persistence. It is a pure function: no side effects. Rules
// run in order and all failures are collected.
func Validate(n *Note) ValidationResult {
	var errs []string

	if n.PatientID == uuid.Nil {
		errs = append(errs, "patient reference is required")
	}
	if n.Type == "" {
		errs = append(errs, "note type is required")
	} else if !n.Type.Valid() {
		errs = append(errs, fmt.Sprintf("unknown note type: %s", n.Type))
	}
	if n.SessionDate.IsZero() {
		errs = append(errs, "session date is required")
	}
	if len(n.Content) == 0 {
		errs = append(errs, "note content is empty")
	}

	// Required sections only apply when the type is known and there is
	// content to inspect; missing sections are named individually.
	if n.Type.Valid() && len(n.Content) > 0 {
		for _, field := range n.Type.RequiredFields() {
			if v, ok := n.Content[field]; !ok || v == "" {
				errs = append(errs, fmt.Sprintf("%s note is missing required field: %s", n.Type, field))
			}
		}
	}

	return ValidationResult{IsValid: len(errs) == 0, Errors: errs}
}
