// Package messaging adapts chat platforms to the transport-neutral inbound
// events and outgoing messages used by the dialogue machine.
package messaging

import (
	"context"
	"errors"
	"net/http"

	"meetbot/models"
)

var ErrInvalidSignature = errors.New("invalid webhook signature")

// Channel is a chat platform the bot talks through.
type Channel interface {
	// ParseEvents verifies and decodes a webhook request. Events the bot does not
	// handle are dropped. ErrInvalidSignature means the request is not authentic.
	ParseEvents(r *http.Request) ([]models.InboundEvent, error)
	Reply(ctx context.Context, replyToken string, msgs []models.OutgoingMessage) error
	Push(ctx context.Context, to string, msgs []models.OutgoingMessage) error
}
