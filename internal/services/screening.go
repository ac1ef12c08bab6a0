package services

import (
	"regexp"
	"strings"
	"sync"
)

// BannedWords rejects self-registered advisor profiles outright.
var BannedWords = []string{
	"fuck", "fucking", "shit", "bullshit",
	"asshole", "bastard", "bitch", "cunt",
	"porn", "porno", "nude", "nudes",
	"scam", "scammer", "phishing", "malware",
	"guaranteed returns", "risk-free", "get rich quick",
}

// ContentScreen screens free text submitted by the public before it can be
// shown in the advisor directory.
type ContentScreen struct {
	bannedWordRegexps   []*regexp.Regexp
	repeatedCharPattern *regexp.Regexp
	allCapsPattern      *regexp.Regexp
	compiled            bool
	mu                  sync.RWMutex
}

func NewContentScreen() *ContentScreen {
	cs := &ContentScreen{}
	cs.compilePatterns()
	return cs
}

func (cs *ContentScreen) compilePatterns() {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	if cs.compiled {
		return
	}

	cs.bannedWordRegexps = make([]*regexp.Regexp, 0, len(BannedWords))
	for _, word := range BannedWords {
		pattern := `(?i)\b` + regexp.QuoteMeta(word) + `\b`
		re, err := regexp.Compile(pattern)
		if err == nil {
			cs.bannedWordRegexps = append(cs.bannedWordRegexps, re)
		}
	}

	runs := make([]string, 0, 29)
	for _, ch := range "abcdefghijklmnopqrstuvwxyz!?." {
		runs = append(runs, regexp.QuoteMeta(string(ch))+"{6,}")
	}
	cs.repeatedCharPattern = regexp.MustCompile(`(?i)(` + strings.Join(runs, "|") + `)`)
	cs.allCapsPattern = regexp.MustCompile(`\b[A-Z]{6,}\b`)
	cs.compiled = true
}

// FilterContent returns false and a reason code when text fails screening.
func (cs *ContentScreen) FilterContent(text string) (bool, string) {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	if text == "" {
		return true, ""
	}
	for _, re := range cs.bannedWordRegexps {
		if re.MatchString(text) {
			return false, "inappropriate_language"
		}
	}
	if cs.repeatedCharPattern.MatchString(text) {
		return false, "spam_detected"
	}
	if len(cs.allCapsPattern.FindAllString(text, -1)) > 3 {
		return false, "excessive_caps"
	}
	return true, ""
}

func (cs *ContentScreen) RejectionMessage(reason string) string {
	messages := map[string]string{
		"inappropriate_language": "Your profile contains language we cannot publish.",
		"spam_detected":          "Your profile appears to be spam.",
		"excessive_caps":         "Please avoid using excessive capital letters.",
	}
	if msg, ok := messages[reason]; ok {
		return msg
	}
	return "Your profile does not meet our content guidelines."
}
