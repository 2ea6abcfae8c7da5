// Package directory keeps the append-only set of participant emails that can be
// invited to a meeting.
package directory

import (
	"context"
	"slices"
	"sync"
)

// Directory is the participant directory port.
type Directory interface {
	// AddParticipant adds email and reports false when it was already present.
	AddParticipant(ctx context.Context, email string) (bool, error)
	// List returns participants in the order they were added.
	List(ctx context.Context) ([]string, error)
}

// MemoryDirectory is an in-process Directory.
type MemoryDirectory struct {
	mu      sync.RWMutex
	order   []string
	members map[string]struct{}
}

func NewMemoryDirectory(seed ...string) *MemoryDirectory {
	d := &MemoryDirectory{members: make(map[string]struct{})}
	for _, email := range seed {
		d.add(email)
	}
	return d
}

func (d *MemoryDirectory) AddParticipant(_ context.Context, email string) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.add(email), nil
}

func (d *MemoryDirectory) add(email string) bool {
	if _, ok := d.members[email]; ok {
		return false
	}
	d.members[email] = struct{}{}
	d.order = append(d.order, email)
	return true
}

func (d *MemoryDirectory) List(_ context.Context) ([]string, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return slices.Clone(d.order), nil
}
