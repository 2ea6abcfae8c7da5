package dialogue

import (
	"strings"

	"meetbot/models"
)

// ActionKind is the closed set of things an inbound event can mean.
type ActionKind int

const (
	ActionUnknown ActionKind = iota
	ActionText
	ActionCreateMeeting
	ActionAddEmail
	ActionViewMeetings
	ActionHelp
	ActionCancel
	ActionConfirmEmail
	ActionEditEmail
	ActionCancelEmail
	ActionStartDate
	ActionEndDate
	ActionSelectParticipant
	ActionConfirmParticipants
	ActionSelectSlot
	ActionConfirmMeeting
	ActionEditMeeting
	ActionCancelMeeting
)

var actionNames = map[ActionKind]string{
	ActionUnknown:             "unknown",
	ActionText:                "text",
	ActionCreateMeeting:       "create_meeting",
	ActionAddEmail:            "add_email",
	ActionViewMeetings:        "view_meetings",
	ActionHelp:                "help",
	ActionCancel:              "cancel",
	ActionConfirmEmail:        "confirm_email",
	ActionEditEmail:           "edit_email",
	ActionCancelEmail:         "cancel_email",
	ActionStartDate:           "start_date",
	ActionEndDate:             "end_date",
	ActionSelectParticipant:   "select_participant",
	ActionConfirmParticipants: "confirm_participants",
	ActionSelectSlot:          "select_slot",
	ActionConfirmMeeting:      "confirm_meeting",
	ActionEditMeeting:         "edit_meeting",
	ActionCancelMeeting:       "cancel_meeting",
}

func (k ActionKind) String() string {
	if n, ok := actionNames[k]; ok {
		return n
	}
	return "unknown"
}

// Postback tokens carried in button data. Data is "<token>" or "<token>:<argument>".
const (
	PostbackConfirmEmail        = "confirm_add_email"
	PostbackEditEmail           = "edit_email"
	PostbackCancelEmail         = "cancel_add_email"
	PostbackStartDate           = "start_date"
	PostbackEndDate             = "end_date"
	PostbackSelectParticipant   = "select_participant"
	PostbackConfirmParticipants = "confirm_participants"
	PostbackSelectSlot          = "select_slot"
	PostbackConfirmMeeting      = "confirm_meeting"
	PostbackEditMeeting         = "edit_meeting"
	PostbackCancelMeeting       = "cancel_meeting"
)

var postbackActions = map[string]ActionKind{
	PostbackConfirmEmail:        ActionConfirmEmail,
	PostbackEditEmail:           ActionEditEmail,
	PostbackCancelEmail:         ActionCancelEmail,
	PostbackStartDate:           ActionStartDate,
	PostbackEndDate:             ActionEndDate,
	PostbackSelectParticipant:   ActionSelectParticipant,
	PostbackConfirmParticipants: ActionConfirmParticipants,
	PostbackSelectSlot:          ActionSelectSlot,
	PostbackConfirmMeeting:      ActionConfirmMeeting,
	PostbackEditMeeting:         ActionEditMeeting,
	PostbackCancelMeeting:       ActionCancelMeeting,
}

// Text commands, matched after trimming and lower-casing.
const (
	CommandCreateMeeting = "สร้างนัดประชุม"
	CommandAddEmail      = "เพิ่มอีเมล"
	CommandViewMeetings  = "ดูนัดประชุมที่มี"
	CommandHelp          = "วิธีใช้งาน"
	CommandCancel        = "ยกเลิก"
)

var commandActions = map[string]ActionKind{
	CommandCreateMeeting: ActionCreateMeeting,
	"นัดประชุม":          ActionCreateMeeting,
	"create meeting":     ActionCreateMeeting,
	CommandAddEmail:      ActionAddEmail,
	"add email":          ActionAddEmail,
	CommandViewMeetings:  ActionViewMeetings,
	"view meetings":      ActionViewMeetings,
	CommandHelp:          ActionHelp,
	"help":               ActionHelp,
	CommandCancel:        ActionCancel,
	"cancel":             ActionCancel,
}

// Action is a decoded inbound event.
type Action struct {
	Kind ActionKind
	Text string // trimmed free text
	Arg  string // postback argument
	Date string // date chosen in a date picker
}

// Decode turns an inbound event into an Action. It never fails; anything it does
// not understand becomes ActionUnknown.
func Decode(ev models.InboundEvent) Action {
	switch ev.Kind {
	case models.EventText:
		text := strings.TrimSpace(ev.Text)
		if kind, ok := commandActions[strings.ToLower(text)]; ok {
			return Action{Kind: kind, Text: text}
		}
		return Action{Kind: ActionText, Text: text}

	case models.EventPostback:
		token, arg, _ := strings.Cut(strings.TrimSpace(ev.Data), ":")
		kind, ok := postbackActions[token]
		if !ok {
			return Action{Kind: ActionUnknown}
		}
		return Action{Kind: kind, Arg: arg, Date: ev.Params["date"]}
	}
	return Action{Kind: ActionUnknown}
}

// PostbackData encodes a postback token and optional argument.
func PostbackData(token, arg string) string {
	if arg == "" {
		return token
	}
	return token + ":" + arg
}
