package intent

import (
	"context"
	"fmt"
	"os"

	cx "cloud.google.com/go/dialogflow/cx/apiv3"
	"cloud.google.com/go/dialogflow/cx/apiv3/cxpb"
	"google.golang.org/api/option"
)

// Dialogflow queries a Dialogflow CX agent through the sessions API.
type Dialogflow struct {
	sessions *cx.SessionsClient
	cfg      Config
}

// NewDialogflow builds the CX sessions client. Agents outside the global
// location live on a regional endpoint.
func NewDialogflow(ctx context.Context, cfg Config) (*Dialogflow, error) {
	if _, err := os.Stat(cfg.CredentialsFile); err != nil {
		return nil, fmt.Errorf("credentials file: %w", err)
	}
	if cfg.LanguageCode == "" {
		cfg.LanguageCode = "en"
	}
	opts := []option.ClientOption{option.WithCredentialsFile(cfg.CredentialsFile)}
	if cfg.Location != "global" {
		opts = append(opts, option.WithEndpoint(cfg.Location+"-dialogflow.googleapis.com:443"))
	}
	sessions, err := cx.NewSessionsClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("new sessions client: %w", err)
	}
	return &Dialogflow{sessions: sessions, cfg: cfg}, nil
}

// DetectIntent sends the text to the agent under the given session key.
func (d *Dialogflow) DetectIntent(ctx context.Context, sessionKey, text string) (*Result, error) {
	req := &cxpb.DetectIntentRequest{
		Session: d.sessionPath(sessionKey),
		QueryInput: &cxpb.QueryInput{
			Input:        &cxpb.QueryInput_Text{Text: &cxpb.TextInput{Text: text}},
			LanguageCode: d.cfg.LanguageCode,
		},
	}
	resp, err := d.sessions.DetectIntent(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("detect intent: %w", err)
	}
	return resultFromResponse(resp), nil
}

// Close releases the underlying gRPC connection.
func (d *Dialogflow) Close() error {
	return d.sessions.Close()
}

func (d *Dialogflow) sessionPath(sessionKey string) string {
	return fmt.Sprintf("projects/%s/locations/%s/agents/%s/sessions/%s",
		d.cfg.ProjectID, d.cfg.Location, d.cfg.AgentID, sessionKey)
}

// resultFromResponse flattens the CX response: text messages in order, and the
// end-interaction signal, which CX v3 delivers as a response message rather
// than an intent field.
func resultFromResponse(resp *cxpb.DetectIntentResponse) *Result {
	res := &Result{}
	for _, msg := range resp.GetQueryResult().GetResponseMessages() {
		if msg.GetEndInteraction() != nil {
			res.EndInteraction = true
			continue
		}
		res.Messages = append(res.Messages, msg.GetText().GetText()...)
	}
	return res
}
