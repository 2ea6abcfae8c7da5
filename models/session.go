package models

import (
	"slices"
	"time"
)

// Step is the dialogue state of a session.
type Step string

const (
	StepMainMenu        Step = "main_menu"
	StepEnterEmail      Step = "enter_email"
	StepConfirmEmail    Step = "confirm_email"
	StepEnterName       Step = "enter_name"
	StepSelectDate      Step = "select_date"
	StepEnterTime       Step = "enter_time"
	StepSelectAttendees Step = "select_attendees"
	StepSelectSlot      Step = "select_slot"
	StepConfirmMeeting  Step = "confirm_meeting"
)

// Session is the per-identity dialogue state. Step decides which of the other
// fields are meaningful.
type Session struct {
	Step           Step           `json:"step"`
	Draft          *MeetingDraft  `json:"meetingDraft,omitempty"`
	CandidateSlots []FeasibleSlot `json:"candidateSlots,omitempty"`
	PendingEmail   string         `json:"pendingEmail,omitempty"`
	UpdatedAt      time.Time      `json:"updatedAt"`
}

// NewSession returns a session at the main menu.
func NewSession() *Session {
	return &Session{Step: StepMainMenu, UpdatedAt: time.Now()}
}

// NewDraftSession returns a session that has just started meeting creation.
func NewDraftSession() *Session {
	return &Session{Step: StepEnterName, Draft: &MeetingDraft{}, UpdatedAt: time.Now()}
}

// Clone returns a deep copy so callers never share slices with a store.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	out := *s
	if s.Draft != nil {
		d := s.Draft.Clone()
		out.Draft = &d
	}
	out.CandidateSlots = slices.Clone(s.CandidateSlots)
	return &out
}

// MeetingDraft is a meeting request under construction.
type MeetingDraft struct {
	Name                 string   `json:"name,omitempty"`
	StartDate            string   `json:"startDate,omitempty"` // YYYY-MM-DD
	EndDate              string   `json:"endDate,omitempty"`
	TimeStart            string   `json:"timeStart,omitempty"` // HH:MM
	TimeEnd              string   `json:"timeEnd,omitempty"`
	SelectedParticipants []string `json:"selectedParticipants,omitempty"`
	ChosenDate           string   `json:"chosenDate,omitempty"`
	ChosenStart          string   `json:"chosenStart,omitempty"`
	ChosenEnd            string   `json:"chosenEnd,omitempty"`
}

func (d MeetingDraft) Clone() MeetingDraft {
	d.SelectedParticipants = slices.Clone(d.SelectedParticipants)
	return d
}

// AddParticipant appends email unless already selected. It reports whether it was added.
func (d *MeetingDraft) AddParticipant(email string) bool {
	if slices.Contains(d.SelectedParticipants, email) {
		return false
	}
	d.SelectedParticipants = append(d.SelectedParticipants, email)
	return true
}

// IsComplete is true once name, date range, time range and at least one participant are set.
func (d *MeetingDraft) IsComplete() bool {
	return d != nil &&
		d.Name != "" &&
		d.StartDate != "" && d.EndDate != "" &&
		d.TimeStart != "" && d.TimeEnd != "" &&
		len(d.SelectedParticipants) > 0
}

func (d *MeetingDraft) HasChosenSlot() bool {
	return d != nil && d.ChosenDate != "" && d.ChosenStart != "" && d.ChosenEnd != ""
}

// Choose records slot as the meeting time.
func (d *MeetingDraft) Choose(slot FeasibleSlot) {
	d.ChosenDate = slot.Date
	d.ChosenStart = slot.Start
	d.ChosenEnd = slot.End
}
