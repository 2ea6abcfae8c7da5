package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"unicode/utf8"

	"meetbot/models"

	"github.com/line/line-bot-sdk-go/v7/linebot"
	"go.uber.org/zap"
)

const (
	maxMessagesPerCall = 5
	maxQuickReplyItems = 13
	// LINE caps quick reply labels at 20 characters and Flex button labels at 40.
	maxQuickReplyLabelRunes = 20
	maxFlexLabelRunes       = 40
	maxDisplayTextRunes     = 300
	flexPrimaryColor   = "#00C16A"
)

// LineChannel talks to the LINE Messaging API.
type LineChannel struct {
	client *linebot.Client
	logger *zap.Logger
}

func NewLineChannel(secret, token string, logger *zap.Logger, opts ...linebot.ClientOption) (*LineChannel, error) {
	if secret == "" || token == "" {
		return nil, errors.New("line channel initialization error: channel secret and token are required")
	}
	client, err := linebot.New(secret, token, opts...)
	if err != nil {
		return nil, fmt.Errorf("line channel initialization error: %w", err)
	}
	if logger == nil {
		logger = zap.L()
	}
	return &LineChannel{client: client, logger: logger}, nil
}

func (c *LineChannel) ParseEvents(r *http.Request) ([]models.InboundEvent, error) {
	events, err := c.client.ParseRequest(r)
	if err != nil {
		if errors.Is(err, linebot.ErrInvalidSignature) {
			return nil, ErrInvalidSignature
		}
		return nil, fmt.Errorf("failed to parse line webhook: %w", err)
	}

	out := make([]models.InboundEvent, 0, len(events))
	for _, ev := range events {
		in, ok := convertEvent(ev)
		if !ok {
			c.logger.Debug("Ignoring LINE event", zap.String("type", string(ev.Type)))
			continue
		}
		out = append(out, in)
	}
	return out, nil
}

func convertEvent(ev *linebot.Event) (models.InboundEvent, bool) {
	identity := sourceID(ev.Source)
	if identity == "" {
		return models.InboundEvent{}, false
	}
	in := models.InboundEvent{
		Identity:   identity,
		ReplyToken: ev.ReplyToken,
		ReceivedAt: ev.Timestamp,
	}

	switch ev.Type {
	case linebot.EventTypeMessage:
		msg, ok := ev.Message.(*linebot.TextMessage)
		if !ok {
			return models.InboundEvent{}, false
		}
		in.Kind = models.EventText
		in.Text = msg.Text
		return in, true

	case linebot.EventTypePostback:
		if ev.Postback == nil {
			return models.InboundEvent{}, false
		}
		in.Kind = models.EventPostback
		in.Data = ev.Postback.Data
		if p := ev.Postback.Params; p != nil {
			in.Params = map[string]string{}
			if p.Date != "" {
				in.Params["date"] = p.Date
			}
			if p.Time != "" {
				in.Params["time"] = p.Time
			}
			if p.Datetime != "" {
				in.Params["datetime"] = p.Datetime
			}
		}
		return in, true
	}
	return models.InboundEvent{}, false
}

func sourceID(src *linebot.EventSource) string {
	if src == nil {
		return ""
	}
	switch {
	case src.UserID != "":
		return src.UserID
	case src.GroupID != "":
		return src.GroupID
	default:
		return src.RoomID
	}
}

func (c *LineChannel) Reply(ctx context.Context, replyToken string, msgs []models.OutgoingMessage) error {
	sending, err := c.renderAll(msgs)
	if err != nil || len(sending) == 0 {
		return err
	}
	if _, err := c.client.ReplyMessage(replyToken, sending...).WithContext(ctx).Do(); err != nil {
		return fmt.Errorf("failed to reply: %w", err)
	}
	return nil
}

func (c *LineChannel) Push(ctx context.Context, to string, msgs []models.OutgoingMessage) error {
	sending, err := c.renderAll(msgs)
	if err != nil || len(sending) == 0 {
		return err
	}
	if _, err := c.client.PushMessage(to, sending...).WithContext(ctx).Do(); err != nil {
		return fmt.Errorf("failed to push: %w", err)
	}
	return nil
}

func (c *LineChannel) renderAll(msgs []models.OutgoingMessage) ([]linebot.SendingMessage, error) {
	if len(msgs) > maxMessagesPerCall {
		c.logger.Warn("Too many messages for one LINE call, truncating",
			zap.Int("messages", len(msgs)),
			zap.Int("max", maxMessagesPerCall))
		msgs = msgs[:maxMessagesPerCall]
	}
	out := make([]linebot.SendingMessage, 0, len(msgs))
	for _, m := range msgs {
		s, err := Render(m)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

// Render converts an outgoing message to its LINE form: plain text, text with
// quick replies for menus, or a Flex bubble for option cards.
func Render(m models.OutgoingMessage) (linebot.SendingMessage, error) {
	switch m.Kind {
	case models.MessageMenu:
		text := linebot.NewTextMessage(m.Text)
		if len(m.Options) == 0 {
			return text, nil
		}
		items, err := quickReplies(m.Options)
		if err != nil {
			return nil, err
		}
		return text.WithQuickReplies(items), nil

	case models.MessageOptions:
		return flexBubble(m)

	default:
		return linebot.NewTextMessage(m.Text), nil
	}
}

func quickReplies(opts []models.Option) (*linebot.QuickReplyItems, error) {
	if len(opts) > maxQuickReplyItems {
		opts = opts[:maxQuickReplyItems]
	}
	buttons := make([]*linebot.QuickReplyButton, 0, len(opts))
	for _, o := range opts {
		var action linebot.QuickReplyAction
		label := truncate(o.Label, maxQuickReplyLabelRunes)
		switch o.Type {
		case models.OptionMessage:
			action = linebot.NewMessageAction(label, o.Action)
		case models.OptionPostback:
			action = &linebot.PostbackAction{Label: label, Data: o.Action, DisplayText: displayText(o)}
		case models.OptionDatePicker:
			action = linebot.NewDatetimePickerAction(label, o.Action, "date", "", "", "")
		case models.OptionURI:
			action = linebot.NewURIAction(label, o.URI)
		default:
			return nil, fmt.Errorf("unsupported option type %q", o.Type)
		}
		buttons = append(buttons, linebot.NewQuickReplyButton("", action))
	}
	return linebot.NewQuickReplyItems(buttons...), nil
}

func flexBubble(m models.OutgoingMessage) (linebot.SendingMessage, error) {
	body := []map[string]interface{}{}
	if m.Title != "" {
		body = append(body, map[string]interface{}{
			"type": "text", "text": m.Title, "weight": "bold", "size": "lg", "wrap": true,
		})
	}
	if m.Text != "" {
		body = append(body, map[string]interface{}{
			"type": "text", "text": m.Text, "margin": "md", "wrap": true,
		})
	}

	// Options with their own text become body rows; the rest go to the footer.
	buttons := make([]map[string]interface{}, 0, len(m.Options))
	for _, o := range m.Options {
		action, err := flexAction(o)
		if err != nil {
			return nil, err
		}
		style := "secondary"
		if (o.Text == "" && len(buttons) == 0) || o.Type == models.OptionDatePicker {
			style = "primary"
		}
		button := map[string]interface{}{
			"type": "button", "action": action, "style": style, "height": "sm",
		}
		if style == "primary" {
			button["color"] = flexPrimaryColor
		}

		if o.Text == "" {
			button["margin"] = "sm"
			buttons = append(buttons, button)
			continue
		}
		button["flex"] = 2
		body = append(body, map[string]interface{}{
			"type": "box", "layout": "horizontal", "margin": "md", "spacing": "sm",
			"contents": []map[string]interface{}{
				{"type": "text", "text": o.Text, "size": "sm", "wrap": true, "flex": 3, "gravity": "center"},
				button,
			},
		})
	}

	bubble := map[string]interface{}{
		"type": "bubble",
		"body": map[string]interface{}{"type": "box", "layout": "vertical", "contents": body},
	}
	if len(buttons) > 0 {
		bubble["footer"] = map[string]interface{}{
			"type": "box", "layout": "vertical", "spacing": "sm", "contents": buttons,
		}
	}

	raw, err := json.Marshal(bubble)
	if err != nil {
		return nil, fmt.Errorf("failed to encode flex bubble: %w", err)
	}
	container, err := linebot.UnmarshalFlexMessageJSON(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to build flex bubble: %w", err)
	}

	alt := m.Title
	if alt == "" {
		alt = m.Text
	}
	return linebot.NewFlexMessage(truncate(alt, 400), container), nil
}

func flexAction(o models.Option) (map[string]interface{}, error) {
	label := truncate(o.Label, maxFlexLabelRunes)
	switch o.Type {
	case models.OptionMessage:
		return map[string]interface{}{"type": "message", "label": label, "text": o.Action}, nil
	case models.OptionPostback:
		return map[string]interface{}{"type": "postback", "label": label, "data": o.Action, "displayText": displayText(o)}, nil
	case models.OptionDatePicker:
		return map[string]interface{}{"type": "datetimepicker", "label": label, "data": o.Action, "mode": "date"}, nil
	case models.OptionURI:
		return map[string]interface{}{"type": "uri", "label": label, "uri": o.URI}, nil
	}
	return nil, fmt.Errorf("unsupported option type %q", o.Type)
}

// displayText is what the chat shows as the user's message after a postback tap.
func displayText(o models.Option) string {
	if o.Text == "" {
		return truncate(o.Label, maxDisplayTextRunes)
	}
	return truncate(o.Label+" "+o.Text, maxDisplayTextRunes)
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n])
}
