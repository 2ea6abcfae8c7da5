package dialogue

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"meetbot/models"
	"meetbot/services/availability"
	"meetbot/services/directory"
	"meetbot/services/session"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	organizer = "U123"
	busyUser  = "busy@example.com"
	freeUser  = "free@example.com"
)

var bangkok = time.FixedZone("ICT", 7*3600)

type recordingSubmitter struct {
	mu       sync.Mutex
	meetings []models.FinalizedMeeting
	err      error
}

func (r *recordingSubmitter) Submit(_ context.Context, m models.FinalizedMeeting) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.meetings = append(r.meetings, m)
	return r.err
}

func (r *recordingSubmitter) submitted() []models.FinalizedMeeting {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]models.FinalizedMeeting(nil), r.meetings...)
}

type staticLinks struct{}

func (staticLinks) VerificationLink(email, identity string) (string, error) {
	return "https://bot.example.com/verify/" + identity + "/" + email, nil
}

type staticMeetings []models.FinalizedMeeting

func (s staticMeetings) ListByOrganizer(context.Context, string) ([]models.FinalizedMeeting, error) {
	return s, nil
}

type failingDirectory struct{ directory.Directory }

func (failingDirectory) AddParticipant(context.Context, string) (bool, error) {
	return false, errors.New("redis down")
}

type harness struct {
	t         *testing.T
	machine   *Machine
	sessions  *session.MemoryStore
	directory *directory.MemoryDirectory
	submitter *recordingSubmitter
}

func newHarness(t *testing.T, opts ...func(*Config)) *harness {
	t.Helper()
	store := availability.NewMockStore(models.Schedules{
		busyUser: {
			"2025-04-21": {{Start: "09:00", End: "10:00"}},
		},
	})
	h := &harness{
		t:         t,
		sessions:  session.NewMemoryStore(),
		directory: directory.NewMemoryDirectory(busyUser, freeUser),
		submitter: &recordingSubmitter{},
	}
	cfg := Config{
		Sessions:      h.sessions,
		Checker:       availability.NewChecker(store),
		Directory:     h.directory,
		Submitter:     h.submitter,
		Links:         staticLinks{},
		SubmitTimeout: time.Second,
		Location:      bangkok,
	}
	for _, o := range opts {
		o(&cfg)
	}
	m, err := NewMachine(cfg)
	require.NoError(t, err)
	m.newID = func() string { return "meeting-1" }
	h.machine = m
	return h
}

func (h *harness) text(text string) []models.OutgoingMessage {
	h.t.Helper()
	msgs, err := h.machine.Handle(context.Background(), models.InboundEvent{
		Identity: organizer, Kind: models.EventText, Text: text,
	})
	require.NoError(h.t, err)
	return msgs
}

func (h *harness) postback(data string, params map[string]string) []models.OutgoingMessage {
	h.t.Helper()
	msgs, err := h.machine.Handle(context.Background(), models.InboundEvent{
		Identity: organizer, Kind: models.EventPostback, Data: data, Params: params,
	})
	require.NoError(h.t, err)
	return msgs
}

func (h *harness) session() *models.Session {
	h.t.Helper()
	s, err := h.sessions.GetOrCreate(context.Background(), organizer)
	require.NoError(h.t, err)
	return s
}

// toAttendees walks the dialogue up to attendee selection.
func (h *harness) toAttendees(start, end, window string) {
	h.t.Helper()
	h.text("create meeting")
	h.text("Team sync")
	h.postback(PostbackStartDate, map[string]string{"date": start})
	h.postback(PostbackEndDate, map[string]string{"date": end})
	h.text(window)
	require.Equal(h.t, models.StepSelectAttendees, h.session().Step)
}

func texts(msgs []models.OutgoingMessage) string {
	var parts []string
	for _, m := range msgs {
		parts = append(parts, m.Title, m.Text)
	}
	return strings.Join(parts, "\n")
}

func TestMachine_FirstContactShowsMenu(t *testing.T) {
	h := newHarness(t)
	msgs := h.text("hello")
	require.Len(t, msgs, 1)
	assert.Equal(t, models.MessageMenu, msgs[0].Kind)
	assert.Equal(t, models.StepMainMenu, h.session().Step)
}

func TestMachine_CreateMeetingWalkthrough(t *testing.T) {
	h := newHarness(t)

	h.text("สร้างนัดประชุม")
	assert.Equal(t, models.StepEnterName, h.session().Step)

	msgs := h.text("Team sync")
	assert.Equal(t, models.StepSelectDate, h.session().Step)
	assert.Contains(t, texts(msgs), "Team sync")

	msgs = h.postback(PostbackStartDate, map[string]string{"date": "2025-04-21"})
	assert.Equal(t, models.StepSelectDate, h.session().Step)
	assert.Contains(t, texts(msgs), "21/04/2025")

	msgs = h.postback(PostbackEndDate, map[string]string{"date": "2025-04-23"})
	assert.Equal(t, models.StepEnterTime, h.session().Step)
	assert.Contains(t, texts(msgs), "21/04/2025 ถึง 23/04/2025")

	msgs = h.text("13:00 to 14:00")
	s := h.session()
	assert.Equal(t, models.StepSelectAttendees, s.Step)
	assert.Equal(t, "13:00", s.Draft.TimeStart)
	assert.Equal(t, "14:00", s.Draft.TimeEnd)
	require.Len(t, msgs, 2)
	assert.Len(t, msgs[1].Options, 3, "two participants plus confirm")
}

func TestMachine_ZeroSlotsReturnsToMenu(t *testing.T) {
	h := newHarness(t)
	h.toAttendees("2025-04-21", "2025-04-21", "09:00-10:00")

	h.postback(PostbackData(PostbackSelectParticipant, busyUser), nil)
	msgs := h.postback(PostbackConfirmParticipants, nil)

	s := h.session()
	assert.Equal(t, models.StepMainMenu, s.Step)
	assert.Nil(t, s.Draft)
	assert.False(t, s.Draft.HasChosenSlot())
	require.Len(t, msgs, 2)
	assert.Equal(t, msgChecking, msgs[0].Text)
	assert.Equal(t, msgNoSlots, msgs[1].Text)
	assert.Equal(t, CommandCreateMeeting, msgs[1].Options[0].Action)
}

func TestMachine_SingleSlotSkipsSelection(t *testing.T) {
	h := newHarness(t)
	h.toAttendees("2025-04-21", "2025-04-21", "13:00 - 14:00")

	h.postback(PostbackData(PostbackSelectParticipant, busyUser), nil)
	msgs := h.postback(PostbackConfirmParticipants, nil)

	s := h.session()
	assert.Equal(t, models.StepConfirmMeeting, s.Step)
	assert.Equal(t, "2025-04-21", s.Draft.ChosenDate)
	assert.Equal(t, "13:00", s.Draft.ChosenStart)
	assert.Equal(t, "14:00", s.Draft.ChosenEnd)
	assert.Empty(t, s.CandidateSlots)
	require.Len(t, msgs, 2)
	assert.Contains(t, msgs[1].Text, "21/04/2025")
}

func TestMachine_ManySlotsRequireSelection(t *testing.T) {
	h := newHarness(t)
	h.toAttendees("2025-04-21", "2025-04-23", "09:30 - 09:45")

	h.postback(PostbackData(PostbackSelectParticipant, busyUser), nil)
	msgs := h.postback(PostbackConfirmParticipants, nil)

	s := h.session()
	require.Equal(t, models.StepSelectSlot, s.Step)
	require.Len(t, s.CandidateSlots, 2)
	assert.Equal(t, "2025-04-22", s.CandidateSlots[0].Date)
	assert.Equal(t, "2025-04-23", s.CandidateSlots[1].Date)
	assert.Contains(t, msgs[1].Text, "22/04")

	msgs = h.postback(PostbackData(PostbackSelectSlot, "5"), nil)
	assert.Equal(t, models.StepSelectSlot, h.session().Step)
	assert.Equal(t, msgBadSlot, msgs[0].Text)

	h.postback(PostbackData(PostbackSelectSlot, "x"), nil)
	assert.Equal(t, models.StepSelectSlot, h.session().Step)

	h.postback(PostbackData(PostbackSelectSlot, "1"), nil)
	s = h.session()
	assert.Equal(t, models.StepConfirmMeeting, s.Step)
	assert.Equal(t, "2025-04-23", s.Draft.ChosenDate)
	assert.Empty(t, s.CandidateSlots)
}

func TestMachine_SelectParticipantIsIdempotent(t *testing.T) {
	h := newHarness(t)
	h.toAttendees("2025-04-22", "2025-04-22", "10:00-11:00")

	h.postback(PostbackData(PostbackSelectParticipant, freeUser), nil)
	msgs := h.postback(PostbackData(PostbackSelectParticipant, freeUser), nil)

	assert.Equal(t, []string{freeUser}, h.session().Draft.SelectedParticipants)
	assert.Contains(t, msgs[0].Text, "ถูกเลือกไว้แล้ว")
}

func TestMachine_ConfirmWithoutParticipantsReprompts(t *testing.T) {
	h := newHarness(t)
	h.toAttendees("2025-04-22", "2025-04-22", "10:00-11:00")

	msgs := h.postback(PostbackConfirmParticipants, nil)
	assert.Equal(t, models.StepSelectAttendees, h.session().Step)
	assert.Equal(t, msgNeedParticipant, msgs[0].Text)
}

func TestMachine_ConfirmMeetingSubmitsAndResets(t *testing.T) {
	h := newHarness(t)
	h.toAttendees("2025-04-22", "2025-04-22", "13:00 - 14:00")
	h.postback(PostbackData(PostbackSelectParticipant, busyUser), nil)
	h.postback(PostbackData(PostbackSelectParticipant, freeUser), nil)
	h.postback(PostbackConfirmParticipants, nil)
	require.Equal(t, models.StepConfirmMeeting, h.session().Step)

	msgs := h.postback(PostbackConfirmMeeting, nil)
	assert.Equal(t, msgMeetingCreated, msgs[0].Text)

	s := h.session()
	assert.Equal(t, models.StepMainMenu, s.Step)
	assert.Nil(t, s.Draft)
	assert.Empty(t, s.CandidateSlots)
	assert.Empty(t, s.PendingEmail)

	h.machine.Wait()
	got := h.submitter.submitted()
	require.Len(t, got, 1)
	assert.Equal(t, "meeting-1", got[0].ID)
	assert.Equal(t, organizer, got[0].Organizer)
	assert.Equal(t, "Team sync", got[0].Title)
	assert.Equal(t, []string{busyUser, freeUser}, got[0].ParticipantEmails)
	assert.Equal(t, "2025-04-22T13:00:00+07:00", got[0].Start)
	assert.Equal(t, "2025-04-22T14:00:00+07:00", got[0].End)
}

func TestMachine_SubmitFailureDoesNotAffectReply(t *testing.T) {
	h := newHarness(t)
	h.submitter.err = errors.New("sink unavailable")
	h.toAttendees("2025-04-22", "2025-04-22", "13:00 - 14:00")
	h.postback(PostbackData(PostbackSelectParticipant, freeUser), nil)
	h.postback(PostbackConfirmParticipants, nil)

	msgs := h.postback(PostbackConfirmMeeting, nil)
	h.machine.Wait()

	assert.Equal(t, msgMeetingCreated, msgs[0].Text)
	assert.Equal(t, models.StepMainMenu, h.session().Step)
	assert.Len(t, h.submitter.submitted(), 1)
}

func TestMachine_EditAndCancelMeeting(t *testing.T) {
	h := newHarness(t)
	h.toAttendees("2025-04-22", "2025-04-22", "13:00 - 14:00")
	h.postback(PostbackData(PostbackSelectParticipant, freeUser), nil)
	h.postback(PostbackConfirmParticipants, nil)

	msgs := h.postback(PostbackEditMeeting, nil)
	s := h.session()
	assert.Equal(t, models.StepEnterName, s.Step)
	require.NotNil(t, s.Draft)
	assert.Empty(t, s.Draft.Name)
	assert.Equal(t, msgRestartMeeting, msgs[0].Text)

	h.text("Retro")
	h.postback(PostbackEndDate, map[string]string{"date": "2025-04-22"})
	h.text("13:00 - 14:00")
	h.postback(PostbackData(PostbackSelectParticipant, freeUser), nil)
	h.postback(PostbackConfirmParticipants, nil)
	require.Equal(t, models.StepConfirmMeeting, h.session().Step)

	msgs = h.postback(PostbackCancelMeeting, nil)
	assert.Equal(t, models.StepMainMenu, h.session().Step)
	assert.Nil(t, h.session().Draft)
	assert.Equal(t, msgMeetingCancelled, msgs[0].Text)
	h.machine.Wait()
	assert.Empty(t, h.submitter.submitted())
}

func TestMachine_EndBeforeStartReprompts(t *testing.T) {
	h := newHarness(t)
	h.text("create meeting")
	h.text("Planning")
	h.postback(PostbackStartDate, map[string]string{"date": "2025-04-23"})

	msgs := h.postback(PostbackEndDate, map[string]string{"date": "2025-04-21"})
	s := h.session()
	assert.Equal(t, models.StepSelectDate, s.Step)
	assert.Empty(t, s.Draft.EndDate)
	assert.Equal(t, msgBadDateRange, msgs[0].Text)
	assert.Equal(t, models.MessageOptions, msgs[1].Kind)
}

func TestMachine_EndDateWithoutStartUsesSingleDay(t *testing.T) {
	h := newHarness(t)
	h.text("create meeting")
	h.text("Planning")

	msgs := h.postback(PostbackEndDate, map[string]string{"date": "2025-04-21"})
	s := h.session()
	assert.Equal(t, models.StepEnterTime, s.Step)
	assert.Equal(t, "2025-04-21", s.Draft.StartDate)
	assert.Contains(t, msgs[0].Text, "วันที่ประชุม: 21/04/2025")
}

func TestMachine_MissingDateParamReprompts(t *testing.T) {
	h := newHarness(t)
	h.text("create meeting")
	h.text("Planning")

	msgs := h.postback(PostbackStartDate, nil)
	assert.Equal(t, models.StepSelectDate, h.session().Step)
	assert.Equal(t, msgMissingDate, msgs[0].Text)
}

func TestMachine_BadTimeRangeReprompts(t *testing.T) {
	h := newHarness(t)
	h.text("create meeting")
	h.text("Planning")
	h.postback(PostbackEndDate, map[string]string{"date": "2025-04-21"})

	for _, input := range []string{"garbage", "25:00 - 26:00", "14:00 - 13:00"} {
		msgs := h.text(input)
		assert.Equal(t, models.StepEnterTime, h.session().Step, input)
		assert.Contains(t, msgs[0].Text, msgTimeHint, input)
	}
}

func TestMachine_AddEmailFlow(t *testing.T) {
	h := newHarness(t)

	h.text("เพิ่มอีเมล")
	assert.Equal(t, models.StepEnterEmail, h.session().Step)

	msgs := h.text("not-an-email")
	assert.Equal(t, models.StepEnterEmail, h.session().Step)
	assert.Equal(t, msgInvalidEmail, msgs[0].Text)

	msgs = h.text("  new@example.com ")
	s := h.session()
	assert.Equal(t, models.StepConfirmEmail, s.Step)
	assert.Equal(t, "new@example.com", s.PendingEmail)
	assert.Contains(t, msgs[0].Text, "new@example.com")

	list, err := h.directory.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{busyUser, freeUser, "new@example.com"}, list)

	h.postback(PostbackEditEmail, nil)
	s = h.session()
	assert.Equal(t, models.StepEnterEmail, s.Step)
	assert.Empty(t, s.PendingEmail)

	h.text("new@example.com")
	msgs = h.postback(PostbackConfirmEmail, nil)
	s = h.session()
	assert.Equal(t, models.StepMainMenu, s.Step)
	assert.Empty(t, s.PendingEmail)
	require.Len(t, msgs[0].Options, 1)
	assert.Equal(t, models.OptionURI, msgs[0].Options[0].Type)
	assert.Equal(t, "https://bot.example.com/verify/U123/new@example.com", msgs[0].Options[0].URI)
}

func TestMachine_CancelEmail(t *testing.T) {
	h := newHarness(t)
	h.text("add email")
	h.text("new@example.com")

	msgs := h.postback(PostbackCancelEmail, nil)
	assert.Equal(t, models.StepMainMenu, h.session().Step)
	assert.Equal(t, msgEmailCancelled, msgs[0].Text)
	assert.Equal(t, models.MessageMenu, msgs[1].Kind)
}

func TestMachine_GlobalCommandsReset(t *testing.T) {
	h := newHarness(t)
	h.toAttendees("2025-04-22", "2025-04-22", "10:00-11:00")

	h.text("create meeting")
	s := h.session()
	assert.Equal(t, models.StepEnterName, s.Step)
	assert.Empty(t, s.Draft.Name)

	h.text("cancel")
	assert.Equal(t, models.StepMainMenu, h.session().Step)
	assert.Nil(t, h.session().Draft)
}

func TestMachine_UnexpectedEventKeepsStep(t *testing.T) {
	h := newHarness(t)
	h.text("create meeting")
	h.text("Planning")

	msgs := h.text("some text while picking dates")
	assert.Equal(t, models.StepSelectDate, h.session().Step)
	assert.Equal(t, models.MessageMenu, msgs[0].Kind)

	h.postback("bogus_token", nil)
	assert.Equal(t, models.StepSelectDate, h.session().Step)

	h.postback(PostbackConfirmMeeting, nil)
	assert.Equal(t, models.StepSelectDate, h.session().Step)
}

func TestMachine_HelpTypedAsMeetingName(t *testing.T) {
	h := newHarness(t)
	h.text("create meeting")
	h.text("help")

	s := h.session()
	assert.Equal(t, models.StepSelectDate, s.Step)
	assert.Equal(t, "help", s.Draft.Name)
}

func TestMachine_ConsistencyErrorResets(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.sessions.Replace(context.Background(), organizer, &models.Session{Step: models.StepSelectAttendees}))

	msgs := h.postback(PostbackConfirmParticipants, nil)
	assert.Equal(t, models.StepMainMenu, h.session().Step)
	assert.Equal(t, msgSessionReset, msgs[0].Text)

	require.NoError(t, h.sessions.Replace(context.Background(), organizer, &models.Session{Step: models.StepConfirmMeeting}))
	msgs = h.postback(PostbackConfirmMeeting, nil)
	assert.Equal(t, models.StepMainMenu, h.session().Step)
	assert.Equal(t, msgSessionReset, msgs[0].Text)
	h.machine.Wait()
	assert.Empty(t, h.submitter.submitted())
}

func TestMachine_ViewMeetingsAndHelp(t *testing.T) {
	h := newHarness(t)
	msgs := h.text("ดูนัดประชุมที่มี")
	assert.Equal(t, msgNoMeetings, msgs[0].Text)

	msgs = h.text("วิธีใช้งาน")
	assert.Equal(t, msgHelp, msgs[0].Text)

	h = newHarness(t, func(c *Config) {
		c.Meetings = staticMeetings{{
			Title: "Team sync",
			Start: "2025-04-22T13:00:00+07:00",
			End:   "2025-04-22T14:00:00+07:00",
		}}
	})
	msgs = h.text("view meetings")
	assert.Contains(t, msgs[0].Text, "1. Team sync 22/04/2025 13:00 - 14:00")
}

func TestMachine_InfrastructureErrorIsReturned(t *testing.T) {
	h := newHarness(t, func(c *Config) {
		c.Directory = failingDirectory{directory.NewMemoryDirectory()}
	})
	h.text("add email")

	_, err := h.machine.Handle(context.Background(), models.InboundEvent{
		Identity: organizer, Kind: models.EventText, Text: "new@example.com",
	})
	assert.ErrorContains(t, err, "redis down")
	assert.Equal(t, models.StepEnterEmail, h.session().Step)
}

func TestMachine_IdentitiesAreIndependent(t *testing.T) {
	h := newHarness(t)
	h.text("create meeting")

	_, err := h.machine.Handle(context.Background(), models.InboundEvent{
		Identity: "U999", Kind: models.EventText, Text: "add email",
	})
	require.NoError(t, err)

	assert.Equal(t, models.StepEnterName, h.session().Step)
	other, err := h.sessions.GetOrCreate(context.Background(), "U999")
	require.NoError(t, err)
	assert.Equal(t, models.StepEnterEmail, other.Step)
}

func TestMachine_ConcurrentEventsSameIdentity(t *testing.T) {
	h := newHarness(t)
	h.toAttendees("2025-04-22", "2025-04-22", "10:00-11:00")

	emails := []string{"a@example.com", "b@example.com", "c@example.com", "d@example.com"}
	var wg sync.WaitGroup
	for _, e := range emails {
		wg.Add(1)
		go func(email string) {
			defer wg.Done()
			_, err := h.machine.Handle(context.Background(), models.InboundEvent{
				Identity: organizer,
				Kind:     models.EventPostback,
				Data:     PostbackData(PostbackSelectParticipant, email),
			})
			assert.NoError(t, err)
		}(e)
	}
	wg.Wait()

	assert.ElementsMatch(t, emails, h.session().Draft.SelectedParticipants)
}

func TestNewMachine_RequiresCollaborators(t *testing.T) {
	_, err := NewMachine(Config{})
	assert.Error(t, err)
}

func TestMachine_RejectsAnonymousEvent(t *testing.T) {
	h := newHarness(t)
	_, err := h.machine.Handle(context.Background(), models.InboundEvent{Kind: models.EventText, Text: "hi"})
	assert.Error(t, err)
}
