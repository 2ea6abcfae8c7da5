package models

import "time"

// FinalizedMeeting is the record handed to the outbound sink once a meeting is confirmed.
type FinalizedMeeting struct {
	ID                string    `bson:"id" json:"id"`
	Organizer         string    `bson:"organizer" json:"organizer"`
	ParticipantEmails []string  `bson:"participantEmails" json:"user_emails"`
	Title             string    `bson:"title" json:"summary"`
	Description       string    `bson:"description,omitempty" json:"description"`
	Location          string    `bson:"location,omitempty" json:"location"`
	Start             string    `bson:"start" json:"start_time"` // ISO 8601 with offset
	End               string    `bson:"end" json:"end_time"`
	CreatedAt         time.Time `bson:"createdAt" json:"createdAt"`
}

// SubmitMeetingRequest is the payload accepted by the meeting intake endpoint.
type SubmitMeetingRequest struct {
	ParticipantEmails []string `json:"user_emails" binding:"required,min=1,dive,email"`
	Title             string   `json:"summary" binding:"required"`
	Description       string   `json:"description"`
	Location          string   `json:"location"`
	Start             string   `json:"start_time" binding:"required"`
	End               string   `json:"end_time" binding:"required"`
	Organizer         string   `json:"organizer"`
}

// MeetingTaskPayload is the asynq payload of meeting submission and reminder tasks.
type MeetingTaskPayload struct {
	Meeting FinalizedMeeting `json:"meeting"`
}
