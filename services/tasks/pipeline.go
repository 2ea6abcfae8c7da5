package tasks

import (
	"context"
	"errors"
	"fmt"
	"time"

	"meetbot/models"
	"meetbot/services/notification"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// Enqueuer is the part of *asynq.Client used here.
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// MeetingStore persists finalized meetings.
type MeetingStore interface {
	Create(ctx context.Context, meeting models.FinalizedMeeting) (string, error)
}

// Pipeline is what happens to a finalized meeting: persist it, email the
// participants and, when configured, schedule a reminder.
type Pipeline struct {
	meetings     MeetingStore
	notifier     notification.NotificationService
	reminders    Enqueuer
	reminderLead time.Duration
	logger       *zap.Logger
	now          func() time.Time
}

func NewPipeline(meetings MeetingStore, notifier notification.NotificationService, logger *zap.Logger) (*Pipeline, error) {
	if notifier == nil {
		return nil, errors.New("meeting pipeline initialization error: notifier is nil")
	}
	if logger == nil {
		logger = zap.L()
	}
	return &Pipeline{meetings: meetings, notifier: notifier, logger: logger, now: time.Now}, nil
}

// WithReminders schedules a reminder lead before each meeting starts.
func (p *Pipeline) WithReminders(enq Enqueuer, lead time.Duration) *Pipeline {
	p.reminders = enq
	p.reminderLead = lead
	return p
}

// Process persists meeting and notifies its participants. A storage failure
// stops the pipeline before anyone is emailed.
func (p *Pipeline) Process(ctx context.Context, meeting models.FinalizedMeeting) error {
	if p.meetings != nil {
		if _, err := p.meetings.Create(ctx, meeting); err != nil {
			return fmt.Errorf("failed to store meeting %s: %w", meeting.ID, err)
		}
	}
	if err := p.notifier.NotifyMeeting(ctx, meeting); err != nil {
		return fmt.Errorf("failed to notify participants of %s: %w", meeting.ID, err)
	}
	p.scheduleReminder(ctx, meeting)
	return nil
}

// Remind emails the participants of an upcoming meeting.
func (p *Pipeline) Remind(ctx context.Context, meeting models.FinalizedMeeting) error {
	return p.notifier.RemindMeeting(ctx, meeting)
}

func (p *Pipeline) scheduleReminder(ctx context.Context, meeting models.FinalizedMeeting) {
	if p.reminders == nil || p.reminderLead <= 0 {
		return
	}
	start, err := time.Parse(time.RFC3339, meeting.Start)
	if err != nil {
		p.logger.Warn("Meeting start unparseable, no reminder", zap.String("meetingID", meeting.ID), zap.Error(err))
		return
	}
	fireAt := start.Add(-p.reminderLead)
	if !fireAt.After(p.now()) {
		return
	}

	task, opts, err := NewMeetingReminderTask(meeting, fireAt)
	if err != nil {
		p.logger.Error("Failed to build reminder task", zap.String("meetingID", meeting.ID), zap.Error(err))
		return
	}
	if _, err := p.reminders.EnqueueContext(ctx, task, opts...); err != nil && !errors.Is(err, asynq.ErrTaskIDConflict) {
		p.logger.Error("Failed to schedule reminder", zap.String("meetingID", meeting.ID), zap.Error(err))
		return
	}
	p.logger.Info("Reminder scheduled", zap.String("meetingID", meeting.ID), zap.Time("fireAt", fireAt))
}
