// Package session derives the conversation keys passed to the intent engine.
// Keys are opaque correlation ids; the only guarantee is that the same caller
// (and USSD session) always maps to the same key and that channels never
// collide thanks to the prefix.
package session

import "strings"

// SMSKey returns the session key for an SMS caller: sms_<msisdn without '+'>.
func SMSKey(callerID string) string {
	return "sms_" + stripPlus(callerID)
}

// USSDKey returns the session key for a USSD interaction, unique per
// (caller, gateway session) pair: ussd_<msisdn without '+'>_<sessionID>.
func USSDKey(callerID, sessionID string) string {
	return "ussd_" + stripPlus(callerID) + "_" + sessionID
}

func stripPlus(callerID string) string {
	return strings.ReplaceAll(callerID, "+", "")
}
