package policy

import "regexp"

// PII kinds reported by DetectPII.
const (
	PIIEmail = "email"
	PIICard  = "card"
	PIIPhone = "phone"
)

type redactionRule struct {
	kind    string
	pattern *regexp.Regexp
	mask    string
}

// Cards run before phones so a card number is never masked as a phone.
var redactionRules = []redactionRule{
	{PIIEmail, regexp.MustCompile(`[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`), "[REDACTED_EMAIL]"},
	{PIICard, regexp.MustCompile(`\b(?:\d[ -]*?){13,19}\b`), "[REDACTED_CARD]"},
	{PIIPhone, regexp.MustCompile(`\+?[0-9][0-9\-() ]{7,}[0-9]`), "[REDACTED_PHONE]"},
}

// RedactPII masks emails, card numbers and phone numbers in transcript text.
func RedactPII(input string) (redacted string, changed bool) {
	out := input
	for _, rule := range redactionRules {
		next := rule.pattern.ReplaceAllString(out, rule.mask)
		changed = changed || next != out
		out = next
	}
	return out, changed
}

// DetectPII lists the kinds of PII found in input, in rule order. Text
// already masked by an earlier rule is not counted again.
func DetectPII(input string) []string {
	var kinds []string
	out := input
	for _, rule := range redactionRules {
		if rule.pattern.MatchString(out) {
			kinds = append(kinds, rule.kind)
			out = rule.pattern.ReplaceAllString(out, rule.mask)
		}
	}
	return kinds
}
