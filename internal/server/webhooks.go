package server

import (
	"encoding/json"
	"io"
	"log"
	"net/http"

	"github.com/juicecola/construct-agent/internal/fulfillment"
	"github.com/juicecola/construct-agent/internal/intent"
	"github.com/juicecola/construct-agent/internal/session"
	"github.com/juicecola/construct-agent/internal/ussd"
)

// The telephony gateway expects 200 on every webhook, whatever went wrong;
// anything else makes the gateway surface errors to the end user. All
// handlers below therefore answer 200 with a defined fallback body.

// handleIncomingSMS acknowledges an inbound SMS and forwards the text to the
// intent engine. The query result is intentionally discarded: inbound SMS is
// pass-through logging, the engine replies out of band if at all.
func handleIncomingSMS(querier intent.Querier) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			plainText(w, "Missing required fields")
			return
		}
		from := r.PostForm.Get("from")
		if from == "" || !r.PostForm.Has("text") {
			plainText(w, "Missing required fields")
			return
		}
		text := r.PostForm.Get("text")

		key := session.SMSKey(from)
		if _, err := querier.DetectIntent(r.Context(), key, text); err != nil {
			log.Printf("webhook: intent query for %s failed: %v", key, err)
		}
		plainText(w, "SMS Received")
	}
}

// handleIncomingUSSD answers a USSD step with a CON/END reply composed from
// the intent result.
func handleIncomingUSSD(querier intent.Querier) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			plainText(w, ussd.Reply(ussd.End, "Service error. Please try again."))
			return
		}
		sessionID := r.PostForm.Get("sessionId")
		phone := r.PostForm.Get("phoneNumber")
		text := r.PostForm.Get("text")
		if sessionID == "" || phone == "" {
			plainText(w, ussd.Reply(ussd.End, "Service error. Please try again."))
			return
		}

		key := session.USSDKey(phone, sessionID)
		res, err := querier.DetectIntent(r.Context(), key, text)
		if err != nil {
			log.Printf("webhook: intent query for %s failed: %v", key, err)
			res = nil
		}
		prefix, reply := ussd.Compose(res)
		plainText(w, ussd.Reply(prefix, reply))
	}
}

// handleFulfillment runs the side effect for the engine's callback tag and
// acknowledges with the JSON envelope the engine requires. A body that does
// not decode dispatches an empty tag, which is the logged no-op arm.
func handleFulfillment(dispatcher *fulfillment.Dispatcher) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req fulfillmentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			log.Printf("webhook: fulfillment body did not decode: %v", err)
		}
		reply := dispatcher.Dispatch(r.Context(), req.FulfillmentInfo.Tag, req.SessionInfo.Parameters)

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		if err := json.NewEncoder(w).Encode(newFulfillmentResponse(reply.Messages)); err != nil {
			log.Printf("webhook: write fulfillment response: %v", err)
		}
	}
}

func plainText(w http.ResponseWriter, body string) {
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	io.WriteString(w, body)
}
