package models

import "time"

// EventKind distinguishes free text from button postbacks.
type EventKind string

const (
	EventText     EventKind = "text"
	EventPostback EventKind = "postback"
)

// InboundEvent is a transport-neutral inbound chat event.
type InboundEvent struct {
	Identity   string            `json:"identity"`
	ReplyToken string            `json:"replyToken,omitempty"`
	Kind       EventKind         `json:"kind"`
	Text       string            `json:"text,omitempty"`
	Data       string            `json:"data,omitempty"`
	Params     map[string]string `json:"params,omitempty"`
	ReceivedAt time.Time         `json:"receivedAt"`
}

// MessageKind says how an outgoing message should be presented.
type MessageKind string

const (
	MessageText    MessageKind = "text"
	MessageMenu    MessageKind = "menu"    // text with quick-reply options
	MessageOptions MessageKind = "options" // card with a list of buttons
)

// OptionType is what a selectable option does when tapped.
type OptionType string

const (
	OptionMessage    OptionType = "message"    // sends Action as text
	OptionPostback   OptionType = "postback"   // sends Action as postback data
	OptionDatePicker OptionType = "datepicker" // opens a date picker, posts back Action
	OptionURI        OptionType = "uri"        // opens URI
)

// Option is one selectable entry of a menu or options card.
type Option struct {
	Label  string     `json:"label"`
	Type   OptionType `json:"type"`
	Action string     `json:"action,omitempty"`
	URI    string     `json:"uri,omitempty"`
	// Text, when set, is shown in a row beside the button in option cards, so
	// the label can stay short.
	Text string `json:"text,omitempty"`
}

// OutgoingMessage is semantic reply content; rendering is up to the channel.
type OutgoingMessage struct {
	Kind    MessageKind `json:"kind"`
	Title   string      `json:"title,omitempty"`
	Text    string      `json:"text"`
	Options []Option    `json:"options,omitempty"`
}

// TextMessage builds a plain text reply.
func TextMessage(text string) OutgoingMessage {
	return OutgoingMessage{Kind: MessageText, Text: text}
}
