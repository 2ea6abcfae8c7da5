package models

import "time"

// BusyInterval is a closed HH:MM range during which a participant is unavailable.
type BusyInterval struct {
	Start string `bson:"start" json:"start"`
	End   string `bson:"end" json:"end"`
}

// BusyIntervalRecord is the stored form of a busy interval.
type BusyIntervalRecord struct {
	ID          string    `bson:"id" json:"id"`
	Participant string    `bson:"participant" json:"participant"`
	Date        string    `bson:"date" json:"date"` // YYYY-MM-DD
	Start       string    `bson:"start" json:"start"`
	End         string    `bson:"end" json:"end"`
	Source      string    `bson:"source,omitempty" json:"source,omitempty"`
	CreatedAt   time.Time `bson:"createdAt" json:"createdAt"`
}

// FeasibleSlot is a date and window at which every selected participant is free.
type FeasibleSlot struct {
	Date  string `json:"date"`
	Start string `json:"start"`
	End   string `json:"end"`
}

// Schedules maps participant -> date -> busy intervals.
type Schedules map[string]map[string][]BusyInterval

// CalendarEvent is one event exported from a participant's calendar.
// Start and End are either RFC 3339 datetimes or bare dates for all-day events.
type CalendarEvent struct {
	ID          string `json:"id"`
	Summary     string `json:"summary"`
	Start       string `json:"start" binding:"required"`
	End         string `json:"end"`
	Status      string `json:"status"`
	Location    string `json:"location,omitempty"`
	Description string `json:"description,omitempty"`
}

// CalendarResult groups the calendar events exported for one email.
type CalendarResult struct {
	Email           string          `json:"email" binding:"required,email"`
	CalendarID      string          `json:"calendar_id"`
	Events          []CalendarEvent `json:"events" binding:"dive"`
	IsAuthenticated bool            `json:"is_authenticated"`
}

// CalendarInput is the request body of the calendar import endpoint.
type CalendarInput struct {
	Results []CalendarResult `json:"results" binding:"required,dive"`
}
