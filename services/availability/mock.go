package availability

import (
	"context"
	"slices"
	"sync"
	"time"

	"meetbot/models"
)

// MockStore is an in-memory Store, used in development and tests. Each interval
// remembers the source it was imported from so a re-import can replace it.
type MockStore struct {
	mu        sync.RWMutex
	schedules map[string]map[string][]sourcedInterval
}

type sourcedInterval struct {
	interval models.BusyInterval
	source   string
}

// NewMockStore copies schedules into a new store. A nil map gives an empty store.
// Seeded intervals carry no source.
func NewMockStore(schedules models.Schedules) *MockStore {
	s := &MockStore{schedules: map[string]map[string][]sourcedInterval{}}
	for p, days := range schedules {
		for date, ivs := range days {
			s.put(p, date, ivs, "")
		}
	}
	return s
}

func (s *MockStore) GetBusyIntervals(_ context.Context, participant, date string) ([]models.BusyInterval, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	stored := s.schedules[participant][date]
	if len(stored) == 0 {
		return nil, nil
	}
	out := make([]models.BusyInterval, len(stored))
	for i, si := range stored {
		out[i] = si.interval
	}
	return out, nil
}

func (s *MockStore) AddBusyIntervals(_ context.Context, participant, date string, intervals []models.BusyInterval, source string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.put(participant, date, intervals, source)
	return nil
}

// DeleteBySource removes every interval of participant imported from source and
// reports how many were dropped.
func (s *MockStore) DeleteBySource(_ context.Context, participant, source string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var removed int64
	days := s.schedules[participant]
	for date, stored := range days {
		kept := slices.DeleteFunc(stored, func(si sourcedInterval) bool {
			return si.source == source
		})
		removed += int64(len(stored) - len(kept))
		if len(kept) == 0 {
			delete(days, date)
			continue
		}
		days[date] = kept
	}
	return removed, nil
}

func (s *MockStore) put(participant, date string, intervals []models.BusyInterval, source string) {
	days, ok := s.schedules[participant]
	if !ok {
		days = map[string][]sourcedInterval{}
		s.schedules[participant] = days
	}
	for _, iv := range intervals {
		days[date] = append(days[date], sourcedInterval{interval: iv, source: source})
	}
}

// DemoSchedules is the sample calendar the bot ships with.
func DemoSchedules() models.Schedules {
	return models.Schedules{
		"panupongpr3841@gmail.com": {
			"2025-04-21": {
				{Start: "09:00", End: "10:00"},
				{Start: "12:30", End: "13:30"},
				{Start: "18:00", End: "19:00"},
			},
			"2025-04-24": {
				{Start: "00:00", End: "23:59"},
			},
		},
		"panupongnu4@gmail.com": {
			"2025-04-21": {
				{Start: "10:15", End: "11:15"},
				{Start: "14:00", End: "15:00"},
				{Start: "17:00", End: "18:00"},
			},
		},
	}
}

// DemoParticipants lists the participants of DemoSchedules in a stable order.
func DemoParticipants() []string {
	return []string{"panupongpr3841@gmail.com", "panupongnu4@gmail.com"}
}

// ParseCalendarEvents converts exported calendar events into busy intervals keyed
// by date. Bare dates are all-day events and block 00:00-23:59 on every day from
// start up to the exclusive end date. Timed events that cross midnight are split
// into one interval per day, measured in the start's offset.
func ParseCalendarEvents(events []models.CalendarEvent) (map[string][]models.BusyInterval, error) {
	out := map[string][]models.BusyInterval{}
	for _, ev := range events {
		if day, err := time.Parse(dateLayout, ev.Start); err == nil {
			last := day
			if end, err := time.Parse(dateLayout, ev.End); err == nil && end.After(day) {
				last = end.AddDate(0, 0, -1)
			}
			for d := day; !d.After(last); d = d.AddDate(0, 0, 1) {
				date := d.Format(dateLayout)
				out[date] = append(out[date], models.BusyInterval{Start: "00:00", End: "23:59"})
			}
			continue
		}
		start, err := time.Parse(time.RFC3339, ev.Start)
		if err != nil {
			return nil, &FormatError{Input: ev.Start, Message: "event start is neither a date nor RFC 3339"}
		}
		end, err := time.Parse(time.RFC3339, ev.End)
		if err != nil {
			return nil, &FormatError{Input: ev.End, Message: "event end is not RFC 3339"}
		}
		if !end.After(start) {
			return nil, &FormatError{Input: ev.End, Message: "event ends before it starts"}
		}
		end = end.In(start.Location())
		for cur := start; cur.Before(end); {
			midnight := time.Date(cur.Year(), cur.Month(), cur.Day()+1, 0, 0, 0, 0, cur.Location())
			iv := models.BusyInterval{Start: cur.Format("15:04"), End: "23:59"}
			if end.Before(midnight) {
				iv.End = end.Format("15:04")
			}
			date := cur.Format(dateLayout)
			out[date] = append(out[date], iv)
			cur = midnight
		}
	}
	return out, nil
}
