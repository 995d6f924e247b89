// Package sms sends outbound SMS through the telephony provider.
package sms

import (
	"context"
	"errors"
	"log"
)

// Sender delivers an SMS to one or more recipients.
type Sender interface {
	Send(ctx context.Context, to []string, message string) error
}

// Disabled is the Sender used when telephony credentials are missing. Sends
// fail with an error that callers contain like any other delivery failure.
type Disabled struct{}

func (Disabled) Send(context.Context, []string, string) error {
	return errors.New("sms: sending disabled: telephony credentials not configured")
}

// New selects the Sender for the given credentials: the Africa's Talking
// client when both are present, otherwise Disabled.
func New(username, apiKey, senderID string, opts ...Option) Sender {
	if username == "" || apiKey == "" {
		log.Printf("sms: telephony credentials missing, outbound SMS disabled")
		return Disabled{}
	}
	return NewClient(username, apiKey, senderID, opts...)
}
