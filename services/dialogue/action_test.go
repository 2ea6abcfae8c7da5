package dialogue

import (
	"testing"

	"meetbot/models"

	"github.com/stretchr/testify/assert"
)

func TestDecode(t *testing.T) {
	tests := []struct {
		name string
		ev   models.InboundEvent
		want Action
	}{
		{
			name: "thai create alias",
			ev:   models.InboundEvent{Kind: models.EventText, Text: " นัดประชุม "},
			want: Action{Kind: ActionCreateMeeting, Text: "นัดประชุม"},
		},
		{
			name: "english command is case insensitive",
			ev:   models.InboundEvent{Kind: models.EventText, Text: "Add Email"},
			want: Action{Kind: ActionAddEmail, Text: "Add Email"},
		},
		{
			name: "free text",
			ev:   models.InboundEvent{Kind: models.EventText, Text: "13:00 - 14:00"},
			want: Action{Kind: ActionText, Text: "13:00 - 14:00"},
		},
		{
			name: "postback with argument",
			ev:   models.InboundEvent{Kind: models.EventPostback, Data: "select_participant:a@example.com"},
			want: Action{Kind: ActionSelectParticipant, Arg: "a@example.com"},
		},
		{
			name: "date picker",
			ev: models.InboundEvent{
				Kind:   models.EventPostback,
				Data:   "end_date",
				Params: map[string]string{"date": "2025-04-21"},
			},
			want: Action{Kind: ActionEndDate, Date: "2025-04-21"},
		},
		{
			name: "unknown postback",
			ev:   models.InboundEvent{Kind: models.EventPostback, Data: "confirm_users_U123"},
			want: Action{Kind: ActionUnknown},
		},
		{
			name: "unknown kind",
			ev:   models.InboundEvent{Kind: "sticker"},
			want: Action{Kind: ActionUnknown},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Decode(tt.ev))
		})
	}
}

func TestPostbackDataRoundTrip(t *testing.T) {
	ev := models.InboundEvent{Kind: models.EventPostback, Data: PostbackData(PostbackSelectSlot, "3")}
	assert.Equal(t, Action{Kind: ActionSelectSlot, Arg: "3"}, Decode(ev))
	assert.Equal(t, "confirm_meeting", PostbackData(PostbackConfirmMeeting, ""))
}

func TestDefaultEmailValidator(t *testing.T) {
	assert.True(t, DefaultEmailValidator("someone@example.com"))
	assert.False(t, DefaultEmailValidator("someone"))
	assert.False(t, DefaultEmailValidator(""))
}
