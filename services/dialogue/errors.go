package dialogue

import (
	"fmt"

	"meetbot/models"
)

// ValidationError is user input that was rejected. Message is shown to the user.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// IndexError is a slot choice outside the offered candidates.
type IndexError struct {
	Index string
	Size  int
}

func (e *IndexError) Error() string {
	return fmt.Sprintf("slot index %q out of range [0,%d)", e.Index, e.Size)
}

// SessionConsistencyError means the session lacks data its step requires.
type SessionConsistencyError struct {
	Step    models.Step
	Missing string
}

func (e *SessionConsistencyError) Error() string {
	return fmt.Sprintf("session at %s is missing %s", e.Step, e.Missing)
}
