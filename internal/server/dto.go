package server

// fulfillmentRequest is the engine's webhook payload, reduced to the fields
// the dispatcher consumes.
type fulfillmentRequest struct {
	IntentInfo struct {
		DisplayName string `json:"displayName"`
	} `json:"intentInfo"`
	SessionInfo struct {
		Parameters map[string]any `json:"parameters"`
	} `json:"sessionInfo"`
	FulfillmentInfo struct {
		Tag string `json:"tag"`
	} `json:"fulfillmentInfo"`
}

// fulfillmentMessage is one relayed text message in the engine's format.
type fulfillmentMessage struct {
	Text struct {
		Text []string `json:"text"`
	} `json:"text"`
}

// fulfillmentResponse is the acknowledgment envelope the engine expects. The
// messages array is always present, empty on success.
type fulfillmentResponse struct {
	FulfillmentResponse struct {
		Messages []fulfillmentMessage `json:"messages"`
	} `json:"fulfillment_response"`
}

func newFulfillmentResponse(messages []string) fulfillmentResponse {
	var resp fulfillmentResponse
	resp.FulfillmentResponse.Messages = make([]fulfillmentMessage, 0, len(messages))
	for _, m := range messages {
		var msg fulfillmentMessage
		msg.Text.Text = []string{m}
		resp.FulfillmentResponse.Messages = append(resp.FulfillmentResponse.Messages, msg)
	}
	return resp
}
