package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFilterContent(t *testing.T) {
	cs := NewContentScreen()

	tests := []struct {
		name   string
		text   string
		ok     bool
		reason string
	}{
		{name: "empty", text: "", ok: true},
		{name: "clean bio", text: "Helping families plan for retirement since 2004.", ok: true},
		{name: "banned phrase", text: "Get rich quick with my plan", reason: "inappropriate_language"},
		{name: "banned word any case", text: "Not a SCAM", reason: "inappropriate_language"},
		{name: "word boundary", text: "Scampi lover and planner", ok: true},
		{name: "repeated chars", text: "Call me nowwwwww", reason: "spam_detected"},
		{name: "repeated punctuation", text: "Great rates!!!!!!", reason: "spam_detected"},
		{name: "five repeats allowed", text: "Hmmmmm", ok: true},
		{name: "caps", text: "BUYING SELLING TRADING ANNUITY POLICY", reason: "excessive_caps"},
		{name: "few caps", text: "CHARTERED FINANCIAL planner", ok: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, reason := cs.FilterContent(tt.text)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.reason, reason)
		})
	}
}

func TestRejectionMessage(t *testing.T) {
	cs := NewContentScreen()
	assert.Equal(t, "Your profile appears to be spam.", cs.RejectionMessage("spam_detected"))
	assert.Equal(t, "Your profile does not meet our content guidelines.", cs.RejectionMessage("other"))
}
