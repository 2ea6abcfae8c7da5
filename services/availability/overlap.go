package availability

import (
	"context"
	"fmt"

	"meetbot/models"
)

// Store is the read side of the availability data.
type Store interface {
	// GetBusyIntervals returns the busy intervals of participant on date.
	// An unknown participant or a date without entries yields an empty list.
	GetBusyIntervals(ctx context.Context, participant, date string) ([]models.BusyInterval, error)
}

// Writer is implemented by stores that accept imported busy intervals.
type Writer interface {
	AddBusyIntervals(ctx context.Context, participant, date string, intervals []models.BusyInterval, source string) error
}

// Overlaps reports whether the window [start, end] touches iv. Boundaries are
// inclusive, so a window ending exactly when iv starts conflicts.
func Overlaps(start, end string, iv models.BusyInterval) bool {
	return start <= iv.End && end >= iv.Start
}

// Checker evaluates candidate windows against a Store.
type Checker struct {
	Store Store
}

func NewChecker(store Store) *Checker {
	return &Checker{Store: store}
}

// IsAvailable reports whether every participant is free for the whole window on
// date. It stops at the first conflict.
func (c *Checker) IsAvailable(ctx context.Context, date, start, end string, participants []string) (bool, error) {
	for _, p := range participants {
		intervals, err := c.Store.GetBusyIntervals(ctx, p, date)
		if err != nil {
			return false, fmt.Errorf("failed to load busy intervals for %s on %s: %w", p, date, err)
		}
		for _, iv := range intervals {
			if Overlaps(start, end, iv) {
				return false, nil
			}
		}
	}
	return true, nil
}
