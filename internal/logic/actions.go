package logic

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// buildAction turns an action sentence into a raw action record. It returns
// the formatted due phrase separately so Extract can derive a check-in.
func buildAction(s sentence) (map[string]any, string, bool) {
	owner, ownerRaw := detectOwner(s.text, s.speaker)
	due, dueRaw := findDue(s.text)

	text := actionText(s.text, ownerRaw, dueRaw)
	if text == "" {
		return nil, "", false
	}
	return map[string]any{
		"action": text,
		"owner":  nilIfEmpty(owner),
		"due":    nilIfEmpty(due),
	}, due, true
}

// detectOwner returns the display owner and the raw text it was found as.
func detectOwner(text, speaker string) (string, string) {
	if m := ownerMarkerRe.FindStringSubmatch(text); m != nil {
		return titleCase(m[1]), m[1]
	}
	if m := handleRe.FindStringSubmatch(text); m != nil {
		return titleCase(m[1]), m[1]
	}
	if name, ok := assignedOwner(text); ok {
		return name, name
	}
	if speaker != "" && firstPersonRe.MatchString(text) {
		return speaker, ""
	}
	return "", ""
}

// assignedOwner finds "Name will|to <verb>" phrasing, skipping pronouns,
// sentence-initial verbs and acronyms such as "API".
func assignedOwner(text string) (string, bool) {
	for _, m := range assignRe.FindAllStringSubmatch(text, -1) {
		if !notOwners[m[1]] && !isAcronym(m[1]) {
			return m[1], true
		}
	}
	return "", false
}

func isAcronym(word string) bool {
	return len(word) > 1 && strings.ToUpper(word) == word
}

// findDue returns the formatted due phrase and the raw text it matched. An
// explicit "due: X" marker wins over date patterns and keeps X as written
// unless X is itself a date phrase.
func findDue(text string) (string, string) {
	if loc := dueMarkerRe.FindStringSubmatchIndex(text); loc != nil {
		value := strings.TrimRight(text[loc[2]:loc[3]], " .,;:)")
		if value != "" {
			return markedDue(value), text[loc[0]:loc[3]]
		}
	}
	return matchDate(text)
}

func markedDue(value string) string {
	if due, raw := matchDate(value); raw != "" && len(raw) == len(value) {
		return due
	}
	return value
}

func matchDate(text string) (string, string) {
	for _, re := range datePatterns {
		if m := re.FindStringSubmatch(text); m != nil {
			return formatDue(m[1]), m[1]
		}
	}
	return "", ""
}

func formatDue(phrase string) string {
	raw := spaceRe.ReplaceAllString(strings.TrimSpace(phrase), " ")
	lower := strings.ToLower(raw)
	switch {
	case lower == "today" || lower == "tomorrow" || lower == "tonight":
		return capitalize(lower)
	case strings.HasPrefix(lower, "next "):
		return "Next " + smartCapitalize(lower[len("next "):])
	case strings.HasPrefix(lower, "by "):
		return "By " + smartCapitalize(lower[len("by "):])
	default:
		return smartCapitalize(raw)
	}
}

func smartCapitalize(text string) string {
	words := strings.Fields(text)
	for i, w := range words {
		lower := strings.ToLower(w)
		switch {
		case w != "" && unicode.IsDigit(rune(w[0])):
		case lower == "am" || lower == "pm":
			words[i] = lower
		default:
			words[i] = capitalize(lower)
		}
	}
	return strings.Join(words, " ")
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	r, size := utf8.DecodeRuneInString(s)
	return string(unicode.ToUpper(r)) + s[size:]
}

// actionText strips labels, owner phrasing and the due phrase, keeping the
// remaining words in their original casing.
func actionText(text, ownerRaw, dueRaw string) string {
	out := listMarkerRe.ReplaceAllString(text, "")
	out = actionLabelRe.ReplaceAllString(out, "")

	if ownerRaw != "" {
		name := regexp.QuoteMeta(ownerRaw)
		out = regexp.MustCompile(`(?i)\(?\bowner\s*[:\-]\s*@?`+name+`\b\)?[,;]?`).ReplaceAllString(out, "")
		out = regexp.MustCompile(`(?i)@`+name+`\b[,:]?\s*`).ReplaceAllString(out, "")
		out = replaceFirst(out, regexp.MustCompile(`\b`+name+`\s+(?:will|to|is going to|is gonna|needs to|should)\s+`), "")
	}
	out = firstPersonLeadRe.ReplaceAllString(out, "")

	if dueRaw != "" {
		due := regexp.QuoteMeta(dueRaw)
		out = replaceFirst(out, regexp.MustCompile(`(?i)(?:\b(?:by|on|before|until|due)\s+)?`+due), "")
	}

	out = spaceRe.ReplaceAllString(out, " ")
	out = strings.Trim(out, " .,;:-")
	return strings.TrimSpace(out)
}

func replaceFirst(s string, re *regexp.Regexp, repl string) string {
	loc := re.FindStringIndex(s)
	if loc == nil {
		return s
	}
	return s[:loc[0]] + repl + s[loc[1]:]
}
