package tasks

import (
	"encoding/json"
	"fmt"
	"time"

	"meetbot/models"

	"github.com/hibiken/asynq"
)

const (
	TypeMeetingSubmit   = "meeting:submit"
	TypeMeetingReminder = "meeting:reminder"
)

// NewMeetingSubmitTask builds the task that persists a finalized meeting and
// emails its participants. It runs once; a failure is not retried.
func NewMeetingSubmitTask(meeting models.FinalizedMeeting, timeout time.Duration) (*asynq.Task, []asynq.Option, error) {
	b, err := json.Marshal(models.MeetingTaskPayload{Meeting: meeting})
	if err != nil {
		return nil, nil, err
	}
	task := asynq.NewTask(TypeMeetingSubmit, b)
	opts := []asynq.Option{asynq.MaxRetry(0)}
	if timeout > 0 {
		opts = append(opts, asynq.Timeout(timeout))
	}
	return task, opts, nil
}

// NewMeetingReminderTask builds a reminder delivered at fireAt. The task ID is
// derived from the meeting so the same meeting is never reminded twice.
func NewMeetingReminderTask(meeting models.FinalizedMeeting, fireAt time.Time) (*asynq.Task, []asynq.Option, error) {
	b, err := json.Marshal(models.MeetingTaskPayload{Meeting: meeting})
	if err != nil {
		return nil, nil, err
	}
	task := asynq.NewTask(TypeMeetingReminder, b)
	opts := []asynq.Option{
		asynq.ProcessAt(fireAt),
		asynq.TaskID("reminder:" + meeting.ID),
		asynq.MaxRetry(3),
	}
	return task, opts, nil
}

// ParseMeetingPayload decodes the payload of either meeting task type.
func ParseMeetingPayload(task *asynq.Task) (models.FinalizedMeeting, error) {
	var p models.MeetingTaskPayload
	if err := json.Unmarshal(task.Payload(), &p); err != nil {
		return models.FinalizedMeeting{}, fmt.Errorf("invalid %s payload: %w", task.Type(), err)
	}
	if len(p.Meeting.ParticipantEmails) == 0 {
		return models.FinalizedMeeting{}, fmt.Errorf("invalid %s payload: no participants", task.Type())
	}
	return p.Meeting, nil
}
