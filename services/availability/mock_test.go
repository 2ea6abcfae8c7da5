package availability

import (
	"context"
	"testing"

	"meetbot/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockStoreDeleteBySource(t *testing.T) {
	ctx := context.Background()
	s := NewMockStore(models.Schedules{
		"a@example.com": {"2025-04-21": {{Start: "08:00", End: "08:30"}}},
	})
	require.NoError(t, s.AddBusyIntervals(ctx, "a@example.com", "2025-04-21",
		[]models.BusyInterval{{Start: "09:00", End: "10:00"}}, "calendar:a"))
	require.NoError(t, s.AddBusyIntervals(ctx, "a@example.com", "2025-04-22",
		[]models.BusyInterval{{Start: "00:00", End: "23:59"}}, "calendar:a"))

	n, err := s.DeleteBySource(ctx, "a@example.com", "calendar:a")
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	got, err := s.GetBusyIntervals(ctx, "a@example.com", "2025-04-21")
	require.NoError(t, err)
	assert.Equal(t, []models.BusyInterval{{Start: "08:00", End: "08:30"}}, got)

	got, err = s.GetBusyIntervals(ctx, "a@example.com", "2025-04-22")
	require.NoError(t, err)
	assert.Empty(t, got)

	n, err = s.DeleteBySource(ctx, "nobody@example.com", "calendar:a")
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestMockStoreReimportReplaces(t *testing.T) {
	ctx := context.Background()
	s := NewMockStore(nil)
	ivs := []models.BusyInterval{{Start: "09:00", End: "10:00"}}
	for i := 0; i < 2; i++ {
		_, err := s.DeleteBySource(ctx, "a@example.com", "calendar:a")
		require.NoError(t, err)
		require.NoError(t, s.AddBusyIntervals(ctx, "a@example.com", "2025-04-21", ivs, "calendar:a"))
	}
	got, err := s.GetBusyIntervals(ctx, "a@example.com", "2025-04-21")
	require.NoError(t, err)
	assert.Equal(t, ivs, got)
}
