package availability

import (
	"context"
	"testing"

	"meetbot/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDateRange(t *testing.T) {
	dates, err := DateRange("2025-04-29", "2025-05-02")
	require.NoError(t, err)
	assert.Equal(t, []string{"2025-04-29", "2025-04-30", "2025-05-01", "2025-05-02"}, dates)

	single, err := DateRange("2025-04-21", "2025-04-21")
	require.NoError(t, err)
	assert.Equal(t, []string{"2025-04-21"}, single)
}

func TestDateRange_Rejects(t *testing.T) {
	var re *RangeError

	_, err := DateRange("2025-04-22", "2025-04-21")
	require.ErrorAs(t, err, &re)
	assert.Equal(t, "2025-04-22", re.Start)

	_, err = DateRange("21/04/2025", "2025-04-22")
	assert.ErrorAs(t, err, &re)

	_, err = DateRange("2025-04-21", "")
	assert.ErrorAs(t, err, &re)
}

func TestFindSlots_SkipsBusyDay(t *testing.T) {
	store := NewMockStore(models.Schedules{
		alice: {"2025-04-21": {{Start: "00:00", End: "23:59"}}},
	})
	dates, err := DateRange("2025-04-21", "2025-04-23")
	require.NoError(t, err)

	slots, err := NewChecker(store).FindSlots(context.Background(), dates, "13:00 - 14:00", []string{alice})
	require.NoError(t, err)
	assert.Equal(t, []models.FeasibleSlot{
		{Date: "2025-04-22", Start: "13:00", End: "14:00"},
		{Date: "2025-04-23", Start: "13:00", End: "14:00"},
	}, slots)
}

func TestFindSlots_NoneFeasible(t *testing.T) {
	slots, err := NewChecker(busyNineToTen()).FindSlots(context.Background(), []string{"2025-04-21"}, "09:00-10:00", []string{alice})
	require.NoError(t, err)
	assert.Empty(t, slots)
}

func TestFindSlots_BadTimeRange(t *testing.T) {
	_, err := NewChecker(NewMockStore(nil)).FindSlots(context.Background(), []string{"2025-04-21"}, "garbage", []string{alice})
	var fe *FormatError
	assert.ErrorAs(t, err, &fe)
}

func TestDemoSchedules(t *testing.T) {
	c := NewChecker(NewMockStore(DemoSchedules()))
	ok, err := c.IsAvailable(context.Background(), "2025-04-24", "12:00", "13:00", DemoParticipants())
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestParseCalendarEvents(t *testing.T) {
	got, err := ParseCalendarEvents([]models.CalendarEvent{
		{Start: "2025-04-21T09:00:00+07:00", End: "2025-04-21T10:30:00+07:00"},
		{Start: "2025-04-22", End: "2025-04-23"},
	})
	require.NoError(t, err)
	assert.Equal(t, []models.BusyInterval{{Start: "09:00", End: "10:30"}}, got["2025-04-21"])
	assert.Equal(t, []models.BusyInterval{{Start: "00:00", End: "23:59"}}, got["2025-04-22"])

	_, err = ParseCalendarEvents([]models.CalendarEvent{{Start: "tomorrow"}})
	var fe *FormatError
	assert.ErrorAs(t, err, &fe)
}

func TestParseCalendarEventsSplitsAtMidnight(t *testing.T) {
	got, err := ParseCalendarEvents([]models.CalendarEvent{
		{Start: "2025-04-21T22:00:00+07:00", End: "2025-04-23T01:30:00+07:00"},
	})
	require.NoError(t, err)
	assert.Equal(t, []models.BusyInterval{{Start: "22:00", End: "23:59"}}, got["2025-04-21"])
	assert.Equal(t, []models.BusyInterval{{Start: "00:00", End: "23:59"}}, got["2025-04-22"])
	assert.Equal(t, []models.BusyInterval{{Start: "00:00", End: "01:30"}}, got["2025-04-23"])

	got, err = ParseCalendarEvents([]models.CalendarEvent{
		{Start: "2025-04-21T23:00:00+07:00", End: "2025-04-22T00:00:00+07:00"},
	})
	require.NoError(t, err)
	assert.Equal(t, map[string][]models.BusyInterval{
		"2025-04-21": {{Start: "23:00", End: "23:59"}},
	}, got)
}

func TestParseCalendarEventsUsesStartOffset(t *testing.T) {
	got, err := ParseCalendarEvents([]models.CalendarEvent{
		{Start: "2025-04-21T09:00:00+07:00", End: "2025-04-21T03:00:00Z"},
	})
	require.NoError(t, err)
	assert.Equal(t, []models.BusyInterval{{Start: "09:00", End: "10:00"}}, got["2025-04-21"])
}

func TestParseCalendarEventsMultiDayAllDay(t *testing.T) {
	got, err := ParseCalendarEvents([]models.CalendarEvent{
		{Start: "2025-04-29", End: "2025-05-02"},
	})
	require.NoError(t, err)
	allDay := []models.BusyInterval{{Start: "00:00", End: "23:59"}}
	assert.Equal(t, map[string][]models.BusyInterval{
		"2025-04-29": allDay,
		"2025-04-30": allDay,
		"2025-05-01": allDay,
	}, got)
}

func TestParseCalendarEventsRejectsReversedEvent(t *testing.T) {
	_, err := ParseCalendarEvents([]models.CalendarEvent{
		{Start: "2025-04-21T10:00:00+07:00", End: "2025-04-21T09:00:00+07:00"},
	})
	var fe *FormatError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, "2025-04-21T09:00:00+07:00", fe.Input)
}
