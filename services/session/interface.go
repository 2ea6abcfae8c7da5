package session

import (
	"context"

	"meetbot/models"
)

// Store holds one dialogue session per identity.
type Store interface {
	// GetOrCreate returns the identity's session, installing a fresh main-menu
	// session on first contact. It never returns nil without an error.
	GetOrCreate(ctx context.Context, identity string) (*models.Session, error)
	// Replace overwrites the whole session.
	Replace(ctx context.Context, identity string, s *models.Session) error
	// Mutate applies fn to the stored session in place. The session is created
	// first when absent; an error from fn leaves the stored session untouched.
	// fn must not call back into the store for the same identity.
	Mutate(ctx context.Context, identity string, fn func(*models.Session) error) error
}
