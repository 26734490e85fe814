package sms

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

// MessageType tells the carrier how to route a message. SNS maps it onto its
// SMSType attribute; Twilio ignores it.
type MessageType string

const (
	MessageTransactional MessageType = "transactional"
	MessagePromotional   MessageType = "promotional"
)

// MaxMessageLength caps a body at three concatenated segments.
const MaxMessageLength = 459

var ErrInvalidRequest = errors.New("invalid sms request")

type SMSProvider interface {
	SendSMS(ctx context.Context, request *SMSRequest) (*SMSResponse, error)
}

type SMSRequest struct {
	To      string      `json:"to"` // E.164, e.g. +919876543210
	From    string      `json:"from,omitempty"`
	Message string      `json:"message"`
	Type    MessageType `json:"type"`
}

type SMSResponse struct {
	MessageID string `json:"message_id"`
	Status    string `json:"status"`
	Error     string `json:"error,omitempty"`
}

// normalized returns a copy ready to hand to a carrier: recipient checked,
// body trimmed and cut to MaxMessageLength, type defaulted to transactional.
func (r *SMSRequest) normalized() (*SMSRequest, error) {
	if !strings.HasPrefix(r.To, "+") || len(r.To) < 8 {
		return nil, fmt.Errorf("%w: recipient %q is not in E.164 form", ErrInvalidRequest, r.To)
	}

	message := strings.TrimSpace(r.Message)
	if message == "" {
		return nil, fmt.Errorf("%w: empty message", ErrInvalidRequest)
	}
	if utf8.RuneCountInString(message) > MaxMessageLength {
		message = string([]rune(message)[:MaxMessageLength])
	}

	out := *r
	out.Message = message
	if out.Type == "" {
		out.Type = MessageTransactional
	}
	return &out, nil
}
