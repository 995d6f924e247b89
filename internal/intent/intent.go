// Package intent queries the conversational engine that maps free text plus a
// session key to candidate reply messages.
package intent

import (
	"context"
	"log"
)

// Result is a successful intent query: the engine's reply messages in order,
// and whether the matched interaction is over.
type Result struct {
	Messages       []string
	EndInteraction bool
}

// Querier sends user text to the intent engine. A nil Result with a nil error
// means the engine is unavailable; callers treat both a nil Result and an
// error as "no result" and fall back to their default responses.
type Querier interface {
	DetectIntent(ctx context.Context, sessionKey, text string) (*Result, error)
}

// Disabled is the Querier used when the engine is not configured. Every query
// returns no result, so handlers never branch on configuration.
type Disabled struct{}

func (Disabled) DetectIntent(context.Context, string, string) (*Result, error) {
	return nil, nil
}

// Config addresses a Dialogflow CX agent.
type Config struct {
	ProjectID       string
	Location        string
	AgentID         string
	LanguageCode    string
	CredentialsFile string
}

func (c Config) complete() bool {
	return c.ProjectID != "" && c.Location != "" && c.AgentID != "" && c.CredentialsFile != ""
}

// New selects the Querier for the given configuration: a Dialogflow CX client
// when fully configured, otherwise Disabled. Misconfiguration never stops the
// process; it only disables intent queries.
func New(ctx context.Context, cfg Config) Querier {
	if !cfg.complete() {
		log.Printf("intent: dialogflow config incomplete, intent queries disabled")
		return Disabled{}
	}
	q, err := NewDialogflow(ctx, cfg)
	if err != nil {
		log.Printf("intent: dialogflow client init failed, intent queries disabled: %v", err)
		return Disabled{}
	}
	return q
}
