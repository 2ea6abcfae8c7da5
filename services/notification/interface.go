package notification

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"meetbot/models"

	"go.uber.org/zap"
	"gopkg.in/mail.v2"
)

// NotificationService tells participants about finalized meetings.
type NotificationService interface {
	NotifyMeeting(ctx context.Context, meeting models.FinalizedMeeting) error
	RemindMeeting(ctx context.Context, meeting models.FinalizedMeeting) error
}

// Sender delivers mail messages. *mail.Dialer satisfies it.
type Sender interface {
	DialAndSend(m ...*mail.Message) error
}

// EmailNotificationService mails every participant of a meeting.
type EmailNotificationService struct {
	sender   Sender
	from     string
	location *time.Location
	logger   *zap.Logger
}

func NewEmailNotificationService(sender Sender, from string, loc *time.Location, logger *zap.Logger) (*EmailNotificationService, error) {
	if sender == nil {
		return nil, errors.New("notification service initialization error: sender is nil")
	}
	if from == "" {
		return nil, errors.New("notification service initialization error: from address is empty")
	}
	if loc == nil {
		loc = time.UTC
	}
	if logger == nil {
		logger = zap.L()
	}
	return &EmailNotificationService{sender: sender, from: from, location: loc, logger: logger}, nil
}

// NewSMTPSender builds a dialer for the configured SMTP relay.
func NewSMTPSender(host string, port int, username, password string) *mail.Dialer {
	d := mail.NewDialer(host, port, username, password)
	d.Timeout = 10 * time.Second
	d.StartTLSPolicy = mail.OpportunisticStartTLS
	return d
}

// NotifyMeeting sends one message per participant. A failed recipient does not
// stop the others; all failures are returned together.
func (s *EmailNotificationService) NotifyMeeting(ctx context.Context, meeting models.FinalizedMeeting) error {
	subject, body := ComposeMeetingEmail(meeting, s.location)
	return s.sendAll(ctx, meeting, subject, body)
}

// RemindMeeting mails participants that the meeting is about to start.
func (s *EmailNotificationService) RemindMeeting(ctx context.Context, meeting models.FinalizedMeeting) error {
	subject, body := ComposeMeetingEmail(meeting, s.location)
	return s.sendAll(ctx, meeting, "แจ้งเตือน: "+subject, "⏰ การประชุมของคุณใกล้จะเริ่มแล้ว\n\n"+body)
}

func (s *EmailNotificationService) sendAll(ctx context.Context, meeting models.FinalizedMeeting, subject, body string) error {
	if len(meeting.ParticipantEmails) == 0 {
		return errors.New("notify: meeting has no participants")
	}

	var errs []error
	for _, to := range meeting.ParticipantEmails {
		if err := ctx.Err(); err != nil {
			errs = append(errs, fmt.Errorf("notify: stopped before %s: %w", to, err))
			break
		}

		m := mail.NewMessage()
		m.SetHeader("From", s.from)
		m.SetHeader("To", to)
		m.SetHeader("Subject", subject)
		m.SetBody("text/plain", body)

		if err := s.sender.DialAndSend(m); err != nil {
			s.logger.Error("Failed to email participant",
				zap.String("meetingID", meeting.ID),
				zap.String("to", to),
				zap.Error(err))
			errs = append(errs, fmt.Errorf("notify: send to %s: %w", to, err))
			continue
		}
		s.logger.Info("Meeting email sent",
			zap.String("meetingID", meeting.ID),
			zap.String("to", to),
			zap.String("subject", subject))
	}
	return errors.Join(errs...)
}

// ComposeMeetingEmail renders the subject and plain-text body of a meeting email.
func ComposeMeetingEmail(meeting models.FinalizedMeeting, loc *time.Location) (string, string) {
	date, startClock := splitISO(meeting.Start, loc)
	_, endClock := splitISO(meeting.End, loc)

	subject := fmt.Sprintf("นัดประชุม [ชื่อ : %s]", meeting.Title)

	var b strings.Builder
	b.WriteString("📝 ข้อมูลการประชุม:\n\n")
	fmt.Fprintf(&b, "📌 ชื่อ: %s\n", meeting.Title)
	fmt.Fprintf(&b, "📆 วันที่: %s\n", date)
	fmt.Fprintf(&b, "🕒 เวลา: %s - %s\n", startClock, endClock)
	if meeting.Location != "" {
		fmt.Fprintf(&b, "📍 สถานที่: %s\n", meeting.Location)
	}
	if meeting.Description != "" {
		fmt.Fprintf(&b, "🗒️ รายละเอียด: %s\n", meeting.Description)
	}
	b.WriteString("\n👥 ผู้เข้าร่วม:\n")
	for i, p := range meeting.ParticipantEmails {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString("- " + p)
	}
	return subject, b.String()
}

// splitISO returns the YYYY-MM-DD date and HH:MM clock of an RFC 3339 timestamp
// in loc. Unparseable input is split on 'T' as is.
func splitISO(ts string, loc *time.Location) (string, string) {
	if t, err := time.Parse(time.RFC3339, ts); err == nil {
		t = t.In(loc)
		return t.Format("2006-01-02"), t.Format("15:04")
	}
	date, clock, _ := strings.Cut(ts, "T")
	if len(clock) > 5 {
		clock = clock[:5]
	}
	return date, clock
}
