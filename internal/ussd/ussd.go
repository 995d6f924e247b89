// Package ussd turns intent results into the plain-text replies the USSD
// gateway understands. The gateway protocol is strict: the body must be the
// literal prefix CON or END, one space, then the reply text.
package ussd

import (
	"strings"

	"github.com/juicecola/construct-agent/internal/intent"
)

// Gateway continuation markers.
const (
	Continue = "CON"
	End      = "END"
)

const (
	errorText   = "Sorry, an error occurred."
	closingText = "Thank you."
)

// Compose converts an intent result into a gateway reply. A nil result (engine
// unreachable) ends the session with an error text. A result with no usable
// messages ends the session with a courtesy close regardless of the
// end-interaction flag.
func Compose(res *intent.Result) (prefix, text string) {
	if res == nil {
		return End, errorText
	}
	var messages []string
	for _, msg := range res.Messages {
		if msg != "" {
			messages = append(messages, msg)
		}
	}
	if len(messages) == 0 {
		return End, closingText
	}
	prefix = Continue
	if res.EndInteraction {
		prefix = End
	}
	return prefix, strings.Join(messages, "\n")
}

// Reply formats the final gateway body.
func Reply(prefix, text string) string {
	return prefix + " " + text
}
