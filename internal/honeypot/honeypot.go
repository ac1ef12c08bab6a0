// Package honeypot detects submissions that filled the hidden form field.
// It is a cosmetic abuse filter, not a security boundary.
package honeypot

import "strings"

// FieldName is the JSON key the hidden input is posted under.
const FieldName = "honeypot"

// IsBot reports whether the hidden field carried anything a human could
// not have typed into an invisible input.
func IsBot(value string) bool {
	return strings.TrimSpace(value) != ""
}
