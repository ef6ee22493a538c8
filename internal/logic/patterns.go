package logic

import "regexp"

var decisionSignals = []string{
	"decided",
	"decision",
	"agree",
	"approved",
	"we will",
	"we'll",
	"let's proceed",
	"go with",
}

var actionKeywords = []string{
	"action item",
	"todo",
	"to-do",
	"next step",
	"follow up",
	"follow-up",
	"owner:",
}

var imperativeStarters = map[string]bool{
	"send":     true,
	"draft":    true,
	"book":     true,
	"schedule": true,
	"email":    true,
	"call":     true,
	"ping":     true,
	"update":   true,
	"prepare":  true,
	"create":   true,
	"finalize": true,
	"review":   true,
	"follow":   true,
	"share":    true,
	"complete": true,
	"submit":   true,
}

var riskKeywords = []string{
	"risk",
	"blocked",
	"blocker",
	"dependency",
	"concern",
	"legal",
	"security",
	"capacity",
	"delay",
	"outage",
}

var checkinKeywords = []string{
	"next meeting",
	"next check-in",
	"next checkin",
	"next sync",
	"next review",
	"sync",
	"check-in",
	"checkin",
	"standup",
	"reconvene",
}

// Capitalized words that look like a name in "X will ..." but never are.
var notOwners = map[string]bool{
	"I": true, "We": true, "They": true, "It": true, "This": true, "That": true,
	"He": true, "She": true, "You": true, "Someone": true, "Everyone": true,
	"Everybody": true, "Nobody": true, "Team": true, "Decided": true,
	"Agreed": true, "Need": true, "Needs": true, "Want": true, "Plan": true,
	"Going": true, "Have": true, "Has": true, "Who": true, "What": true,
	"When": true, "Where": true, "Why": true, "How": true, "Then": true,
	"Also": true, "And": true, "But": true, "So": true, "Let's": true,
	"Lets": true, "There": true, "Here": true, "Which": true,
}

const (
	weekdayFull = `(?:monday|tuesday|wednesday|thursday|friday|saturday|sunday)`
	weekdayAny  = `(?:monday|tuesday|wednesday|thursday|friday|saturday|sunday|tues|tue|thurs|thu|mon|wed|fri|sat|sun)`
	monthName   = `(?:january|february|march|april|may|june|july|august|september|october|november|december|jan|feb|mar|apr|jun|jul|aug|sept|sep|oct|nov|dec)`
)

// Ordered: the first pattern that matches wins.
var datePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\b(today|tonight)\b`),
	regexp.MustCompile(`(?i)\b(tomorrow)\b`),
	regexp.MustCompile(`(?i)\b(next\s+(?:week|month|` + weekdayAny + `))\b`),
	regexp.MustCompile(`(?i)\b(by\s+` + weekdayAny + `)\b`),
	regexp.MustCompile(`(?i)\b(` + weekdayFull + `\s+\d{1,2}(?::\d{2})?\s?(?:am|pm))\b`),
	regexp.MustCompile(`(?i)\b(by\s+\d{1,2}\s+` + monthName + `)\b`),
	regexp.MustCompile(`(?i)\b(by\s+` + monthName + `\s+\d{1,2})\b`),
	regexp.MustCompile(`(?i)\b(` + weekdayFull + `)\b`),
	regexp.MustCompile(`(?i)\b(\d{1,2}\s+` + monthName + `)\b`),
	regexp.MustCompile(`(?i)\b(` + monthName + `\s+\d{1,2})\b`),
	regexp.MustCompile(`\b(\d{4}-\d{2}-\d{2})\b`),
	regexp.MustCompile(`(?i)\b(\d{1,2}:\d{2}(?:\s?(?:am|pm))?)\b`),
	regexp.MustCompile(`(?i)\b(\d{1,2}\s?(?:am|pm))\b`),
}

var (
	bracketStampRe = regexp.MustCompile(`^\s*\[[^\]]+\]\s*`)
	parenStampRe   = regexp.MustCompile(`^\s*\([^)]+\)\s*`)
	clockStampRe   = regexp.MustCompile(`(?i)^\s*\d{1,2}:\d{2}(?::\d{2})?\s?(?:am|pm)?\s*-\s*`)
	spaceRe        = regexp.MustCompile(`\s+`)

	speakerRe = regexp.MustCompile(`^([A-Za-z][\w'\- ]{0,30}):\s*(.*)$`)
	labelRe   = regexp.MustCompile(`(?i)^(decisions?|decided|agreed|action items?|actions?|todo|to-do|next steps?|risks?|blockers?|concerns?|open questions?|questions?|next check-?in|next meeting)\s*[:\-]\s*(.*)$`)

	questionPrefixRe = regexp.MustCompile(`(?i)^(?:open question|open item|unknown|tbd)\b`)
	questionLabelRe  = regexp.MustCompile(`(?i)^(?:questions?|open questions?|two questions|one question)\s*[:\-]\s*`)

	ownerMarkerRe = regexp.MustCompile(`(?i)\bowner\s*[:\-]\s*@?([A-Za-z][\w'\-]*)`)
	dueMarkerRe   = regexp.MustCompile(`(?i)\bdue(?:\s*:|\s+-)\s*(.+?)\s*(?:\(?\bowner\s*[:\-].*)?$`)
	handleRe      = regexp.MustCompile(`@([A-Za-z0-9_]+)`)
	assignRe      = regexp.MustCompile(`\b([A-Z][a-zA-Z'\-]+)\s+(?:will|to|is going to|is gonna|needs to|should)\s+[a-z]`)
	firstPersonRe = regexp.MustCompile(`(?i)\bI(?:'ll|’ll| will| am going to| can)\b`)
	commitRe      = regexp.MustCompile(`(?i)\bI(?:'ll|’ll|\s+will)\b`)
	starterRe     = regexp.MustCompile(`^[*\-]?\s*([A-Za-z']+)`)

	actionLabelRe     = regexp.MustCompile(`(?i)^(?:action items?|actions?|todo|to-do|next steps?|follow[- ]?ups?)\s*[:\-]\s*`)
	firstPersonLeadRe = regexp.MustCompile(`(?i)\bI(?:'ll|’ll| will| am going to| can)\s+`)
	listMarkerRe      = regexp.MustCompile(`^[*\-]\s*`)

	decisionLabelRe   = regexp.MustCompile(`(?i)^(?:decision|decided|agreed|agreement)\s*[:\-]\s*`)
	decisionLeadRe    = regexp.MustCompile(`(?i)^(?:so\s+)?(?:we(?:'ve| have)?\s+)?(?:decided|agreed)\s+(?:to|that|on)\s+`)
	decisionWillRe    = regexp.MustCompile(`(?i)^(?:we\s+will|we'll)\s+`)
	decisionProceedRe = regexp.MustCompile(`(?i)^let's\s+proceed\b`)
	decisionGoWithRe  = regexp.MustCompile(`(?i)^we\s+go\s+with\b`)

	riskLabelRe = regexp.MustCompile(`(?i)^(?:risks?|blockers?|concerns?)\s*[:\-]\s*`)

	checkinPhraseRe = regexp.MustCompile(`(?i)next\s+(?:meeting|check[- ]?in|standup|sync|review)[^:]*[:\-]\s*(.*)`)
)
