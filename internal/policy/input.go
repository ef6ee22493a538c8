package policy

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// InputDecision is the verdict on a submitted transcript.
type InputDecision struct {
	Empty    bool
	Rejected bool
	// Reason is a short metric label, set when Rejected.
	Reason string
	// Message is shown to the caller when Rejected.
	Message     string
	ContainsPII bool
	// PIIKinds lists what DetectPII found.
	PIIKinds []string
}

const ReasonTooLong = "too_long"

// ReviewInput checks a transcript against the character limit. Length is
// counted in runes. PII is flagged, never rejected.
func ReviewInput(text string, maxChars int) InputDecision {
	if strings.TrimSpace(text) == "" {
		return InputDecision{Empty: true}
	}
	if maxChars > 0 && utf8.RuneCountInString(text) > maxChars {
		return InputDecision{
			Rejected: true,
			Reason:   ReasonTooLong,
			Message:  fmt.Sprintf("Trim input to %d characters.", maxChars),
		}
	}
	kinds := DetectPII(text)
	return InputDecision{ContainsPII: len(kinds) > 0, PIIKinds: kinds}
}
