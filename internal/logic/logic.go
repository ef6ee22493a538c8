// Package logic is the rule-based transcript parser. It needs no network and
// no model, and it always returns the same candidate for the same text, which
// makes it the fallback target for every other provider.
//
// Heuristics, in order:
//
//   - Lines lose leading timestamps ("[10:02]", "(00:14)", "10:30 -") and have
//     their whitespace collapsed. "Name: text" sets the speaker unless Name is a
//     section label such as "Decision" or "Next check-in".
//   - Lines are split into sentences at '.', '!' or '?' followed by whitespace.
//   - A sentence lands in at most one bucket. A leading label ("Risk:",
//     "Action:", ...) decides it; otherwise question beats action, action beats
//     risk, and risk beats decision.
//   - Owners come from "owner: X", "@x", "X will|to ...", or the speaker for
//     "I'll ...". Due phrases come from "due: X" or else the first matching
//     date pattern.
//   - The next check-in is the first sentence with check-in vocabulary, else
//     the due phrase of the earliest dated action.
package logic

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

type bucket int

const (
	bucketNone bucket = iota
	bucketQuestion
	bucketAction
	bucketRisk
	bucketDecision
	bucketCheckin
)

type sentence struct {
	speaker string
	label   bucket
	text    string
}

// Extract derives a raw candidate snapshot from transcript text.
func Extract(text string) map[string]any {
	sentences := splitTranscript(text)

	var (
		decisions = newOrderedSet()
		questions = newOrderedSet()
		risks     = newOrderedSet()
		actions   []map[string]any
		checkin   string
		firstDue  string
	)

	for _, s := range sentences {
		if checkin == "" {
			checkin = detectCheckin(s)
		}

		switch classify(s) {
		case bucketQuestion:
			questions.add(sentenceCase(questionLabelRe.ReplaceAllString(s.text, "")))
		case bucketAction:
			a, due, ok := buildAction(s)
			if !ok {
				continue
			}
			actions = append(actions, a)
			if firstDue == "" && due != "" {
				firstDue = due
			}
		case bucketRisk:
			risks.add(normalizeRisk(s.text))
		case bucketDecision:
			decisions.add(normalizeDecision(s.text))
		}
	}

	if checkin == "" {
		checkin = firstDue
	}

	if actions == nil {
		actions = []map[string]any{}
	}
	return map[string]any{
		"decisions":    decisions.items,
		"actions":      actions,
		"questions":    questions.items,
		"risks":        risks.items,
		"next_checkin": nilIfEmpty(checkin),
	}
}

func splitTranscript(text string) []sentence {
	var (
		out         []sentence
		lastSpeaker string
	)
	for _, line := range parseLines(text) {
		speaker, content := splitSpeaker(line)
		if speaker != "" {
			lastSpeaker = speaker
		}
		label, content := splitLabel(content)
		if content == "" {
			continue
		}
		for _, text := range splitSentences(content) {
			out = append(out, sentence{speaker: lastSpeaker, label: label, text: text})
		}
	}
	return out
}

func parseLines(text string) []string {
	var lines []string
	for _, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}
		line = bracketStampRe.ReplaceAllString(line, "")
		line = parenStampRe.ReplaceAllString(line, "")
		line = clockStampRe.ReplaceAllString(line, "")
		line = strings.NewReplacer("–", "-", "—", "-").Replace(line)
		line = strings.TrimSpace(spaceRe.ReplaceAllString(line, " "))
		if line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

func splitSpeaker(line string) (string, string) {
	m := speakerRe.FindStringSubmatch(line)
	if m == nil {
		return "", line
	}
	if labelRe.MatchString(line) || isSectionLabel(m[1]) || len(strings.Fields(m[1])) > 3 {
		return "", line
	}
	return titleCase(m[1]), strings.TrimSpace(m[2])
}

func isSectionLabel(s string) bool {
	lower := strings.ToLower(s)
	for _, label := range []string{"decision", "action", "question", "risk", "blocker", "note", "summary", "agenda", "check-in", "checkin"} {
		if strings.Contains(lower, label) {
			return true
		}
	}
	return false
}

func splitLabel(content string) (bucket, string) {
	m := labelRe.FindStringSubmatch(content)
	if m == nil {
		return bucketNone, content
	}
	rest := strings.TrimSpace(m[2])
	switch label := strings.ToLower(m[1]); {
	case strings.HasPrefix(label, "decision"), label == "decided", label == "agreed":
		return bucketDecision, rest
	case strings.HasPrefix(label, "action"), label == "todo", label == "to-do", strings.HasPrefix(label, "next step"):
		return bucketAction, rest
	case strings.HasPrefix(label, "risk"), strings.HasPrefix(label, "blocker"), strings.HasPrefix(label, "concern"):
		return bucketRisk, rest
	case strings.Contains(label, "question"):
		return bucketQuestion, rest
	default:
		return bucketCheckin, rest
	}
}

func splitSentences(content string) []string {
	runes := []rune(content)
	var (
		out   []string
		start int
	)
	for i, r := range runes {
		if r != '.' && r != '!' && r != '?' {
			continue
		}
		if i+1 < len(runes) && !unicode.IsSpace(runes[i+1]) {
			continue
		}
		if s := strings.TrimSpace(string(runes[start : i+1])); s != "" {
			out = append(out, s)
		}
		start = i + 1
	}
	if start < len(runes) {
		if s := strings.TrimSpace(string(runes[start:])); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func classify(s sentence) bucket {
	if s.label != bucketNone {
		return s.label
	}
	switch {
	case isQuestion(s.text):
		return bucketQuestion
	case isAction(s.text):
		return bucketAction
	case containsAny(strings.ToLower(s.text), riskKeywords):
		return bucketRisk
	case containsAny(strings.ToLower(s.text), decisionSignals):
		return bucketDecision
	default:
		return bucketNone
	}
}

func isQuestion(text string) bool {
	return strings.HasSuffix(text, "?") || questionPrefixRe.MatchString(text)
}

func isAction(text string) bool {
	if containsAny(strings.ToLower(text), actionKeywords) || commitRe.MatchString(text) {
		return true
	}
	if handleRe.MatchString(text) {
		return true
	}
	if _, ok := assignedOwner(text); ok {
		return true
	}
	if m := starterRe.FindStringSubmatch(text); m != nil && imperativeStarters[strings.ToLower(m[1])] {
		return true
	}
	return false
}

func detectCheckin(s sentence) string {
	if s.label == bucketCheckin {
		phrase := strings.TrimRight(s.text, ". ")
		if phrase == "" {
			phrase, _ = findDue(s.text)
		}
		return sentenceCase(phrase)
	}
	if !containsAny(strings.ToLower(s.text), checkinKeywords) {
		return ""
	}
	if m := checkinPhraseRe.FindStringSubmatch(s.text); m != nil {
		if phrase := strings.TrimRight(strings.TrimSpace(m[1]), ". "); phrase != "" {
			return sentenceCase(phrase)
		}
	}
	due, _ := findDue(s.text)
	return due
}

func normalizeRisk(text string) string {
	return sentenceCase(strings.TrimSpace(riskLabelRe.ReplaceAllString(text, "")))
}

func normalizeDecision(text string) string {
	out := decisionLabelRe.ReplaceAllString(text, "")
	out = decisionLeadRe.ReplaceAllString(out, "")
	out = decisionWillRe.ReplaceAllString(out, "")
	out = decisionProceedRe.ReplaceAllString(out, "Proceed")
	out = decisionGoWithRe.ReplaceAllString(out, "Go with")
	out = strings.Trim(spaceRe.ReplaceAllString(out, " "), " -.")
	return sentenceCase(out)
}

type orderedSet struct {
	items []string
	seen  map[string]bool
}

func newOrderedSet() *orderedSet {
	return &orderedSet{items: []string{}, seen: make(map[string]bool)}
}

func (o *orderedSet) add(s string) {
	if s == "" || o.seen[s] {
		return
	}
	o.seen[s] = true
	o.items = append(o.items, s)
}

func containsAny(lower string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(lower, n) {
			return true
		}
	}
	return false
}

func sentenceCase(text string) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return ""
	}
	r, size := utf8.DecodeRuneInString(text)
	return string(unicode.ToUpper(r)) + text[size:]
}

func titleCase(text string) string {
	parts := strings.Fields(text)
	for i, p := range parts {
		r, size := utf8.DecodeRuneInString(p)
		parts[i] = string(unicode.ToUpper(r)) + strings.ToLower(p[size:])
	}
	return strings.Join(parts, " ")
}

func nilIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
