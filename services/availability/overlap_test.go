package availability

import (
	"context"
	"errors"
	"testing"

	"meetbot/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const alice = "alice@example.com"

func busyNineToTen() *MockStore {
	return NewMockStore(models.Schedules{
		alice: {"2025-04-21": {{Start: "09:00", End: "10:00"}}},
	})
}

func TestIsAvailable_NoScheduleMeansFree(t *testing.T) {
	c := NewChecker(NewMockStore(nil))
	ok, err := c.IsAvailable(context.Background(), "2025-04-21", "00:00", "23:59", []string{"nobody@example.com"})
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestIsAvailable_NoEntryForDateMeansFree(t *testing.T) {
	c := NewChecker(busyNineToTen())
	ok, err := c.IsAvailable(context.Background(), "2025-04-22", "09:00", "10:00", []string{alice})
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestIsAvailable_Windows(t *testing.T) {
	tests := []struct {
		name       string
		start, end string
		want       bool
	}{
		{"contained", "09:30", "09:45", false},
		{"disjoint after", "10:01", "11:00", true},
		{"touching start boundary", "08:00", "09:00", false},
		{"touching end boundary", "10:00", "11:00", false},
		{"disjoint before", "07:00", "08:59", true},
		{"covering", "08:00", "11:00", false},
	}

	c := NewChecker(busyNineToTen())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, err := c.IsAvailable(context.Background(), "2025-04-21", tt.start, tt.end, []string{alice})
			require.NoError(t, err)
			assert.Equal(t, tt.want, ok)
		})
	}
}

func TestIsAvailable_AnyParticipantConflictFails(t *testing.T) {
	store := NewMockStore(models.Schedules{
		"bob@example.com": {"2025-04-21": {{Start: "13:00", End: "14:00"}}},
	})
	c := NewChecker(store)
	ok, err := c.IsAvailable(context.Background(), "2025-04-21", "13:30", "13:45", []string{alice, "bob@example.com"})
	require.NoError(t, err)
	assert.False(t, ok)
}

type failingStore struct{}

func (failingStore) GetBusyIntervals(context.Context, string, string) ([]models.BusyInterval, error) {
	return nil, errors.New("connection refused")
}

func TestIsAvailable_StoreError(t *testing.T) {
	_, err := NewChecker(failingStore{}).IsAvailable(context.Background(), "2025-04-21", "09:00", "10:00", []string{alice})
	assert.ErrorContains(t, err, "connection refused")
}

func TestOverlaps(t *testing.T) {
	iv := models.BusyInterval{Start: "09:00", End: "10:00"}
	assert.True(t, Overlaps("09:30", "09:45", iv))
	assert.True(t, Overlaps("08:00", "09:00", iv))
	assert.False(t, Overlaps("10:01", "11:00", iv))
}
