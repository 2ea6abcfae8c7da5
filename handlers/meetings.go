package handlers

import (
	"net/http"
	"time"

	"meetbot/models"
	"meetbot/services/dialogue"
	"meetbot/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// MeetingHandler exposes finalized meetings over HTTP.
type MeetingHandler struct {
	Meetings  dialogue.MeetingLister
	Submitter dialogue.Submitter
	now       func() time.Time
	newID     func() string
}

func NewMeetingHandler(meetings dialogue.MeetingLister, submitter dialogue.Submitter) *MeetingHandler {
	return &MeetingHandler{
		Meetings:  meetings,
		Submitter: submitter,
		now:       time.Now,
		newID:     uuid.NewString,
	}
}

// ListMeetingsHandler returns the meetings organized by :identity.
func (h *MeetingHandler) ListMeetingsHandler(c *gin.Context) {
	identity := c.Param("identity")
	meetings := []models.FinalizedMeeting{}
	if h.Meetings != nil {
		found, err := h.Meetings.ListByOrganizer(c.Request.Context(), identity)
		if err != nil {
			getLogger(c).Error("Failed to list meetings", zap.String("identity", identity), zap.Error(err))
			utils.JSONError(c, http.StatusInternalServerError, "Failed to list meetings", err.Error())
			return
		}
		if found != nil {
			meetings = found
		}
	}
	c.JSON(http.StatusOK, gin.H{"user_id": identity, "meetings": meetings})
}

// SubmitMeetingHandler accepts a finalized meeting from an outside scheduler
// and hands it to the same submission path the chat flow uses.
func (h *MeetingHandler) SubmitMeetingHandler(c *gin.Context) {
	logger := getLogger(c)

	var req models.SubmitMeetingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "Invalid request payload", err.Error())
		return
	}
	start, err := time.Parse(time.RFC3339, req.Start)
	if err != nil {
		utils.JSONError(c, http.StatusBadRequest, "start_time must be RFC 3339", err.Error())
		return
	}
	end, err := time.Parse(time.RFC3339, req.End)
	if err != nil {
		utils.JSONError(c, http.StatusBadRequest, "end_time must be RFC 3339", err.Error())
		return
	}
	if !end.After(start) {
		utils.JSONError(c, http.StatusBadRequest, "end_time must be after start_time", "")
		return
	}

	meeting := models.FinalizedMeeting{
		ID:                h.newID(),
		Organizer:         req.Organizer,
		ParticipantEmails: uniqueEmails(req.ParticipantEmails),
		Title:             req.Title,
		Description:       req.Description,
		Location:          req.Location,
		Start:             req.Start,
		End:               req.End,
		CreatedAt:         h.now().UTC(),
	}
	if err := h.Submitter.Submit(c.Request.Context(), meeting); err != nil {
		logger.Error("Failed to submit meeting", zap.String("meetingID", meeting.ID), zap.Error(err))
		utils.JSONError(c, http.StatusInternalServerError, "Failed to submit meeting", err.Error())
		return
	}

	logger.Info("Meeting received", zap.String("meetingID", meeting.ID), zap.Int("participants", len(meeting.ParticipantEmails)))
	c.JSON(http.StatusOK, gin.H{
		"status": "received",
		"detail": "ได้รับข้อมูลและส่งอีเมลแล้ว",
		"id":     meeting.ID,
	})
}

func uniqueEmails(emails []string) []string {
	seen := make(map[string]struct{}, len(emails))
	out := make([]string, 0, len(emails))
	for _, e := range emails {
		if _, dup := seen[e]; dup {
			continue
		}
		seen[e] = struct{}{}
		out = append(out, e)
	}
	return out
}
