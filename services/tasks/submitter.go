package tasks

import (
	"context"
	"errors"
	"fmt"
	"time"

	"meetbot/models"
)

// QueueSubmitter hands finalized meetings to the asynq queue, where the meeting
// worker runs the Pipeline.
type QueueSubmitter struct {
	client  Enqueuer
	timeout time.Duration
}

func NewQueueSubmitter(client Enqueuer, timeout time.Duration) *QueueSubmitter {
	return &QueueSubmitter{client: client, timeout: timeout}
}

func (q *QueueSubmitter) Submit(ctx context.Context, meeting models.FinalizedMeeting) error {
	task, opts, err := NewMeetingSubmitTask(meeting, q.timeout)
	if err != nil {
		return fmt.Errorf("failed to build submit task: %w", err)
	}
	if _, err := q.client.EnqueueContext(ctx, task, opts...); err != nil {
		return fmt.Errorf("failed to enqueue meeting %s: %w", meeting.ID, err)
	}
	return nil
}

// DirectSubmitter runs the Pipeline in the calling goroutine.
type DirectSubmitter struct {
	pipeline *Pipeline
}

func NewDirectSubmitter(pipeline *Pipeline) (*DirectSubmitter, error) {
	if pipeline == nil {
		return nil, errors.New("direct submitter initialization error: pipeline is nil")
	}
	return &DirectSubmitter{pipeline: pipeline}, nil
}

func (d *DirectSubmitter) Submit(ctx context.Context, meeting models.FinalizedMeeting) error {
	return d.pipeline.Process(ctx, meeting)
}
