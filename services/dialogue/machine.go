// Package dialogue drives the per-identity scheduling conversation: it decodes
// inbound chat events, advances the session step and produces reply messages.
package dialogue

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"meetbot/models"
	"meetbot/services/availability"
	"meetbot/services/directory"
	"meetbot/services/session"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Submitter receives finalized meetings. It is called off the request path.
type Submitter interface {
	Submit(ctx context.Context, meeting models.FinalizedMeeting) error
}

// LinkBuilder produces the link a newly added participant opens to verify email.
type LinkBuilder interface {
	VerificationLink(email, identity string) (string, error)
}

// MeetingLister returns the meetings an identity has organized.
type MeetingLister interface {
	ListByOrganizer(ctx context.Context, organizer string) ([]models.FinalizedMeeting, error)
}

// EmailValidator reports whether email is acceptable.
type EmailValidator func(email string) bool

var validate = validator.New()

// DefaultEmailValidator accepts what the validator "email" tag accepts.
func DefaultEmailValidator(email string) bool {
	return validate.Var(email, "required,email") == nil
}

// Config wires a Machine. Sessions, Checker, Directory and Submitter are required.
type Config struct {
	Sessions      session.Store
	Checker       *availability.Checker
	Directory     directory.Directory
	Submitter     Submitter
	Links         LinkBuilder
	Meetings      MeetingLister
	ValidateEmail EmailValidator
	Logger        *zap.Logger
	SubmitTimeout time.Duration
	Location      *time.Location
}

type Machine struct {
	sessions      session.Store
	checker       *availability.Checker
	directory     directory.Directory
	submitter     Submitter
	links         LinkBuilder
	meetings      MeetingLister
	validEmail    EmailValidator
	logger        *zap.Logger
	submitTimeout time.Duration
	location      *time.Location

	locks    *session.KeyedMutex
	inflight sync.WaitGroup
	now      func() time.Time
	newID    func() string
}

func NewMachine(cfg Config) (*Machine, error) {
	if cfg.Sessions == nil || cfg.Checker == nil || cfg.Directory == nil || cfg.Submitter == nil {
		return nil, errors.New("dialogue machine initialization error: sessions, checker, directory and submitter are required")
	}
	m := &Machine{
		sessions:      cfg.Sessions,
		checker:       cfg.Checker,
		directory:     cfg.Directory,
		submitter:     cfg.Submitter,
		links:         cfg.Links,
		meetings:      cfg.Meetings,
		validEmail:    cfg.ValidateEmail,
		logger:        cfg.Logger,
		submitTimeout: cfg.SubmitTimeout,
		location:      cfg.Location,
		locks:         session.NewKeyedMutex(),
		now:           time.Now,
		newID:         uuid.NewString,
	}
	if m.validEmail == nil {
		m.validEmail = DefaultEmailValidator
	}
	if m.logger == nil {
		m.logger = zap.L()
	}
	if m.submitTimeout <= 0 {
		m.submitTimeout = 10 * time.Second
	}
	if m.location == nil {
		m.location = time.UTC
	}
	return m, nil
}

// Handle processes one inbound event for its identity and returns the replies.
// Events of the same identity are handled one at a time. User-correctable
// problems become replies; only infrastructure failures are returned as errors.
func (m *Machine) Handle(ctx context.Context, ev models.InboundEvent) ([]models.OutgoingMessage, error) {
	if ev.Identity == "" {
		return nil, errors.New("inbound event has no identity")
	}
	unlock := m.locks.Lock(ev.Identity)
	defer unlock()

	sess, err := m.sessions.GetOrCreate(ctx, ev.Identity)
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	act := Decode(ev)
	m.logger.Debug("Dialogue event",
		zap.String("identity", ev.Identity),
		zap.String("step", string(sess.Step)),
		zap.Stringer("action", act.Kind))

	msgs, err := m.dispatch(ctx, ev.Identity, sess, act)
	if err != nil {
		return m.recoverError(ctx, ev.Identity, sess, err)
	}
	return msgs, nil
}

// Wait blocks until every background submission has finished.
func (m *Machine) Wait() {
	m.inflight.Wait()
}

func (m *Machine) dispatch(ctx context.Context, id string, sess *models.Session, act Action) ([]models.OutgoingMessage, error) {
	// Global commands work from any step.
	switch act.Kind {
	case ActionCreateMeeting:
		return m.startMeeting(ctx, id, msgEnterName)
	case ActionAddEmail:
		if err := m.reset(ctx, id, &models.Session{Step: models.StepEnterEmail}); err != nil {
			return nil, err
		}
		return []models.OutgoingMessage{models.TextMessage(msgEnterEmail)}, nil
	case ActionCancel:
		if err := m.reset(ctx, id, models.NewSession()); err != nil {
			return nil, err
		}
		return []models.OutgoingMessage{models.TextMessage(msgCancelled), mainMenuMessage()}, nil
	}

	switch sess.Step {
	case models.StepMainMenu:
		switch act.Kind {
		case ActionViewMeetings:
			return m.viewMeetings(ctx, id)
		case ActionHelp:
			return []models.OutgoingMessage{models.TextMessage(msgHelp)}, nil
		}

	case models.StepEnterEmail:
		if isText(act) {
			return m.enterEmail(ctx, id, act.Text)
		}

	case models.StepConfirmEmail:
		switch act.Kind {
		case ActionConfirmEmail:
			return m.confirmEmail(ctx, id, sess)
		case ActionEditEmail:
			err := m.update(ctx, id, func(s *models.Session) error {
				s.PendingEmail = ""
				s.Step = models.StepEnterEmail
				return nil
			})
			if err != nil {
				return nil, err
			}
			return []models.OutgoingMessage{models.TextMessage(msgReenterEmail)}, nil
		case ActionCancelEmail:
			if err := m.reset(ctx, id, models.NewSession()); err != nil {
				return nil, err
			}
			return []models.OutgoingMessage{models.TextMessage(msgEmailCancelled), mainMenuMessage()}, nil
		}

	case models.StepEnterName:
		if isText(act) {
			return m.enterName(ctx, id, act.Text)
		}

	case models.StepSelectDate:
		switch act.Kind {
		case ActionStartDate:
			return m.selectStartDate(ctx, id, act.Date)
		case ActionEndDate:
			return m.selectEndDate(ctx, id, sess, act.Date)
		}

	case models.StepEnterTime:
		if isText(act) {
			return m.enterTime(ctx, id, act.Text)
		}

	case models.StepSelectAttendees:
		switch act.Kind {
		case ActionSelectParticipant:
			return m.selectParticipant(ctx, id, act.Arg)
		case ActionConfirmParticipants:
			return m.confirmParticipants(ctx, id, sess)
		}

	case models.StepSelectSlot:
		if act.Kind == ActionSelectSlot {
			return m.selectSlot(ctx, id, sess, act.Arg)
		}

	case models.StepConfirmMeeting:
		switch act.Kind {
		case ActionConfirmMeeting:
			return m.confirmMeeting(ctx, id, sess)
		case ActionEditMeeting:
			return m.startMeeting(ctx, id, msgRestartMeeting)
		case ActionCancelMeeting:
			if err := m.reset(ctx, id, models.NewSession()); err != nil {
				return nil, err
			}
			return []models.OutgoingMessage{models.TextMessage(msgMeetingCancelled), mainMenuMessage()}, nil
		}
	}

	// Anything the current step does not expect gets the menu; the step stays.
	return []models.OutgoingMessage{mainMenuMessage()}, nil
}

// isText is true for free text, including "view meetings" and "help" typed
// outside the main menu, which are then ordinary input such as a meeting name.
func isText(act Action) bool {
	return act.Kind == ActionText || act.Kind == ActionViewMeetings || act.Kind == ActionHelp
}

func (m *Machine) recoverError(ctx context.Context, id string, sess *models.Session, err error) ([]models.OutgoingMessage, error) {
	var (
		formatErr      *availability.FormatError
		rangeErr       *availability.RangeError
		validationErr  *ValidationError
		indexErr       *IndexError
		consistencyErr *SessionConsistencyError
	)
	switch {
	case errors.As(err, &formatErr):
		return []models.OutgoingMessage{models.TextMessage("ขออภัย: " + formatErr.Message + "\n" + msgTimeHint)}, nil

	case errors.As(err, &rangeErr):
		return []models.OutgoingMessage{models.TextMessage(msgBadDateRange), datePickerMessage()}, nil

	case errors.As(err, &validationErr):
		return []models.OutgoingMessage{models.TextMessage(validationErr.Message)}, nil

	case errors.As(err, &indexErr):
		msgs := []models.OutgoingMessage{models.TextMessage(msgBadSlot)}
		if len(sess.CandidateSlots) > 0 {
			msgs = append(msgs, slotsMessage(sess.CandidateSlots))
		}
		return msgs, nil

	case errors.As(err, &consistencyErr):
		m.logger.Warn("Session inconsistent, resetting to main menu",
			zap.String("identity", id),
			zap.String("step", string(consistencyErr.Step)),
			zap.String("missing", consistencyErr.Missing))
		if rerr := m.reset(ctx, id, models.NewSession()); rerr != nil {
			return nil, rerr
		}
		return []models.OutgoingMessage{models.TextMessage(msgSessionReset), mainMenuMessage()}, nil
	}
	return nil, err
}

func (m *Machine) reset(ctx context.Context, id string, s *models.Session) error {
	s.UpdatedAt = m.now()
	if err := m.sessions.Replace(ctx, id, s); err != nil {
		return fmt.Errorf("failed to replace session: %w", err)
	}
	return nil
}

// update mutates the stored session. Errors from fn are returned unwrapped so
// typed dialogue errors reach recoverError.
func (m *Machine) update(ctx context.Context, id string, fn func(*models.Session) error) error {
	var fnErr error
	err := m.sessions.Mutate(ctx, id, func(s *models.Session) error {
		if fnErr = fn(s); fnErr != nil {
			return fnErr
		}
		s.UpdatedAt = m.now()
		return nil
	})
	if fnErr != nil {
		return fnErr
	}
	if err != nil {
		return fmt.Errorf("failed to update session: %w", err)
	}
	return nil
}

// updateDraft is update for steps that need a meeting draft.
func (m *Machine) updateDraft(ctx context.Context, id string, fn func(*models.Session, *models.MeetingDraft) error) error {
	return m.update(ctx, id, func(s *models.Session) error {
		if s.Draft == nil {
			return &SessionConsistencyError{Step: s.Step, Missing: "meeting draft"}
		}
		return fn(s, s.Draft)
	})
}

func (m *Machine) startMeeting(ctx context.Context, id, prompt string) ([]models.OutgoingMessage, error) {
	if err := m.reset(ctx, id, models.NewDraftSession()); err != nil {
		return nil, err
	}
	return []models.OutgoingMessage{models.TextMessage(prompt)}, nil
}

func (m *Machine) viewMeetings(ctx context.Context, id string) ([]models.OutgoingMessage, error) {
	if m.meetings == nil {
		return []models.OutgoingMessage{models.TextMessage(msgNoMeetings)}, nil
	}
	meetings, err := m.meetings.ListByOrganizer(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to list meetings: %w", err)
	}
	if len(meetings) == 0 {
		return []models.OutgoingMessage{models.TextMessage(msgNoMeetings)}, nil
	}
	return []models.OutgoingMessage{meetingListMessage(meetings, m.location)}, nil
}

func (m *Machine) enterEmail(ctx context.Context, id, text string) ([]models.OutgoingMessage, error) {
	email := strings.TrimSpace(text)
	if !m.validEmail(email) {
		return nil, &ValidationError{Field: "email", Message: msgInvalidEmail}
	}

	added, err := m.directory.AddParticipant(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to add participant: %w", err)
	}
	m.logger.Info("Participant email entered",
		zap.String("identity", id),
		zap.String("email", email),
		zap.Bool("new", added))

	err = m.update(ctx, id, func(s *models.Session) error {
		s.PendingEmail = email
		s.Step = models.StepConfirmEmail
		return nil
	})
	if err != nil {
		return nil, err
	}
	return []models.OutgoingMessage{confirmEmailMessage(email)}, nil
}

func (m *Machine) confirmEmail(ctx context.Context, id string, sess *models.Session) ([]models.OutgoingMessage, error) {
	email := sess.PendingEmail
	if email == "" {
		return nil, &SessionConsistencyError{Step: sess.Step, Missing: "pending email"}
	}

	var link string
	if m.links != nil {
		var err error
		if link, err = m.links.VerificationLink(email, id); err != nil {
			return nil, fmt.Errorf("failed to build verification link: %w", err)
		}
	}
	if err := m.reset(ctx, id, models.NewSession()); err != nil {
		return nil, err
	}
	return []models.OutgoingMessage{emailAddedMessage(email, link)}, nil
}

func (m *Machine) enterName(ctx context.Context, id, text string) ([]models.OutgoingMessage, error) {
	name := strings.TrimSpace(text)
	if name == "" {
		return nil, &ValidationError{Field: "name", Message: msgEmptyName}
	}
	err := m.updateDraft(ctx, id, func(s *models.Session, d *models.MeetingDraft) error {
		d.Name = name
		s.Step = models.StepSelectDate
		return nil
	})
	if err != nil {
		return nil, err
	}
	return []models.OutgoingMessage{
		models.TextMessage("ชื่อการประชุม: " + name),
		datePickerMessage(),
	}, nil
}

func (m *Machine) selectStartDate(ctx context.Context, id, date string) ([]models.OutgoingMessage, error) {
	if err := checkDate(date); err != nil {
		return nil, err
	}
	err := m.updateDraft(ctx, id, func(_ *models.Session, d *models.MeetingDraft) error {
		d.StartDate = date
		return nil
	})
	if err != nil {
		return nil, err
	}
	return []models.OutgoingMessage{models.TextMessage("วันที่เริ่มต้น: " + displayDate(date))}, nil
}

// selectEndDate completes the date range. Without a start date the range is the
// single end date.
func (m *Machine) selectEndDate(ctx context.Context, id string, sess *models.Session, date string) ([]models.OutgoingMessage, error) {
	if err := checkDate(date); err != nil {
		return nil, err
	}
	if sess.Draft == nil {
		return nil, &SessionConsistencyError{Step: sess.Step, Missing: "meeting draft"}
	}
	start := sess.Draft.StartDate
	if start == "" {
		start = date
	}
	if _, err := availability.DateRange(start, date); err != nil {
		return nil, err
	}

	err := m.updateDraft(ctx, id, func(s *models.Session, d *models.MeetingDraft) error {
		d.StartDate = start
		d.EndDate = date
		s.Step = models.StepEnterTime
		return nil
	})
	if err != nil {
		return nil, err
	}
	return []models.OutgoingMessage{dateRangeMessage(start, date)}, nil
}

func checkDate(date string) error {
	if date == "" {
		return &ValidationError{Field: "date", Message: msgMissingDate}
	}
	if _, err := time.Parse(dateLayout, date); err != nil {
		return &ValidationError{Field: "date", Message: msgMissingDate}
	}
	return nil
}

func (m *Machine) enterTime(ctx context.Context, id, text string) ([]models.OutgoingMessage, error) {
	start, end, err := availability.ParseTimeRange(text)
	if err != nil {
		return nil, err
	}
	if err := availability.ValidateWindow(start, end); err != nil {
		return nil, err
	}

	participants, err := m.directory.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list participants: %w", err)
	}

	err = m.updateDraft(ctx, id, func(s *models.Session, d *models.MeetingDraft) error {
		d.TimeStart = start
		d.TimeEnd = end
		s.Step = models.StepSelectAttendees
		return nil
	})
	if err != nil {
		return nil, err
	}

	msgs := []models.OutgoingMessage{models.TextMessage(fmt.Sprintf("ช่วงเวลาที่ต้องการ: %s - %s", start, end))}
	if len(participants) == 0 {
		msgs = append(msgs, models.TextMessage(msgNoDirectory))
	}
	return append(msgs, participantsMessage(participants)), nil
}

func (m *Machine) selectParticipant(ctx context.Context, id, email string) ([]models.OutgoingMessage, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, &ValidationError{Field: "participant", Message: msgNeedParticipant}
	}
	var added bool
	err := m.updateDraft(ctx, id, func(_ *models.Session, d *models.MeetingDraft) error {
		added = d.AddParticipant(email)
		return nil
	})
	if err != nil {
		return nil, err
	}
	if !added {
		return []models.OutgoingMessage{models.TextMessage(fmt.Sprintf("%s ถูกเลือกไว้แล้ว", email))}, nil
	}
	return []models.OutgoingMessage{models.TextMessage(fmt.Sprintf("เลือก %s เรียบร้อยแล้ว", email))}, nil
}

func (m *Machine) confirmParticipants(ctx context.Context, id string, sess *models.Session) ([]models.OutgoingMessage, error) {
	d := sess.Draft
	if d == nil {
		return nil, &SessionConsistencyError{Step: sess.Step, Missing: "meeting draft"}
	}
	if len(d.SelectedParticipants) == 0 {
		return nil, &ValidationError{Field: "participants", Message: msgNeedParticipant}
	}
	if !d.IsComplete() {
		return nil, &SessionConsistencyError{Step: sess.Step, Missing: "date or time range"}
	}

	dates, err := availability.DateRange(d.StartDate, d.EndDate)
	if err != nil {
		// The range was validated when it was chosen.
		return nil, &SessionConsistencyError{Step: sess.Step, Missing: "valid date range"}
	}
	slots, err := m.checker.FindSlots(ctx, dates, d.TimeStart+" - "+d.TimeEnd, d.SelectedParticipants)
	if err != nil {
		var formatErr *availability.FormatError
		if errors.As(err, &formatErr) {
			return nil, &SessionConsistencyError{Step: sess.Step, Missing: "valid time range"}
		}
		return nil, fmt.Errorf("failed to find slots: %w", err)
	}

	m.logger.Info("Availability checked",
		zap.String("identity", id),
		zap.Int("dates", len(dates)),
		zap.Int("participants", len(d.SelectedParticipants)),
		zap.Int("slots", len(slots)))

	notice := models.TextMessage(msgChecking)
	switch len(slots) {
	case 0:
		if err := m.reset(ctx, id, models.NewSession()); err != nil {
			return nil, err
		}
		return []models.OutgoingMessage{notice, noSlotsMessage()}, nil

	case 1:
		var summary models.OutgoingMessage
		err := m.updateDraft(ctx, id, func(s *models.Session, d *models.MeetingDraft) error {
			d.Choose(slots[0])
			s.CandidateSlots = nil
			s.Step = models.StepConfirmMeeting
			summary = summaryMessage(d)
			return nil
		})
		if err != nil {
			return nil, err
		}
		return []models.OutgoingMessage{notice, summary}, nil

	default:
		err := m.update(ctx, id, func(s *models.Session) error {
			s.CandidateSlots = slots
			s.Step = models.StepSelectSlot
			return nil
		})
		if err != nil {
			return nil, err
		}
		return []models.OutgoingMessage{notice, slotsMessage(slots)}, nil
	}
}

func (m *Machine) selectSlot(ctx context.Context, id string, sess *models.Session, arg string) ([]models.OutgoingMessage, error) {
	idx, err := strconv.Atoi(arg)
	if err != nil || idx < 0 || idx >= len(sess.CandidateSlots) {
		return nil, &IndexError{Index: arg, Size: len(sess.CandidateSlots)}
	}
	slot := sess.CandidateSlots[idx]

	var summary models.OutgoingMessage
	err = m.updateDraft(ctx, id, func(s *models.Session, d *models.MeetingDraft) error {
		d.Choose(slot)
		s.CandidateSlots = nil
		s.Step = models.StepConfirmMeeting
		summary = summaryMessage(d)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return []models.OutgoingMessage{summary}, nil
}

func (m *Machine) confirmMeeting(ctx context.Context, id string, sess *models.Session) ([]models.OutgoingMessage, error) {
	d := sess.Draft
	if !d.IsComplete() || !d.HasChosenSlot() {
		return nil, &SessionConsistencyError{Step: sess.Step, Missing: "chosen slot"}
	}
	start, err := m.isoTime(d.ChosenDate, d.ChosenStart)
	if err != nil {
		return nil, &SessionConsistencyError{Step: sess.Step, Missing: "valid chosen start"}
	}
	end, err := m.isoTime(d.ChosenDate, d.ChosenEnd)
	if err != nil {
		return nil, &SessionConsistencyError{Step: sess.Step, Missing: "valid chosen end"}
	}

	meeting := models.FinalizedMeeting{
		ID:                m.newID(),
		Organizer:         id,
		ParticipantEmails: slices.Clone(d.SelectedParticipants),
		Title:             d.Name,
		Start:             start,
		End:               end,
		CreatedAt:         m.now(),
	}

	if err := m.reset(ctx, id, models.NewSession()); err != nil {
		return nil, err
	}
	m.submitAsync(meeting)

	return []models.OutgoingMessage{models.TextMessage(msgMeetingCreated)}, nil
}

// isoTime renders date and clock in the meeting zone, e.g. 2025-04-21T09:00:00+07:00.
func (m *Machine) isoTime(date, clock string) (string, error) {
	t, err := time.ParseInLocation(dateLayout+" 15:04", date+" "+clock, m.location)
	if err != nil {
		return "", err
	}
	return t.Format(time.RFC3339), nil
}

// submitAsync hands meeting to the submitter on its own goroutine and deadline.
// Failures are logged; nothing retries.
func (m *Machine) submitAsync(meeting models.FinalizedMeeting) {
	m.inflight.Add(1)
	go func() {
		defer m.inflight.Done()
		ctx, cancel := context.WithTimeout(context.Background(), m.submitTimeout)
		defer cancel()

		if err := m.submitter.Submit(ctx, meeting); err != nil {
			m.logger.Error("Failed to submit meeting",
				zap.String("meetingID", meeting.ID),
				zap.String("organizer", meeting.Organizer),
				zap.Error(err))
			return
		}
		m.logger.Info("Meeting submitted",
			zap.String("meetingID", meeting.ID),
			zap.Int("participants", len(meeting.ParticipantEmails)))
	}()
}
