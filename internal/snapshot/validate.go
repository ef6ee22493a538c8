// Package snapshot defines the canonical meeting snapshot and the only code
// allowed to coerce untrusted provider output into one.
package snapshot

import (
	"strings"
)

// Validate normalizes an arbitrary candidate into a Snapshot. It never fails:
// wrong types are treated as absent, strings are trimmed, empty entries are
// dropped, decisions are capped, and unknown keys are ignored.
func Validate(raw any) Snapshot {
	s, _ := ValidateWithReport(raw)
	return s
}

// ValidateWithReport is Validate plus a count of the repairs applied.
func ValidateWithReport(raw any) (Snapshot, Report) {
	var rep Report
	fields, ok := asMap(raw)
	if !ok {
		return Empty(), rep
	}

	out := Empty()
	out.Decisions = validateDecisions(fields["decisions"], &rep)
	out.Actions = validateActions(fields["actions"], &rep)
	out.Questions = validateStrings(fields["questions"], &rep)
	out.Risks = validateStrings(fields["risks"], &rep)
	out.NextCheckin = optionalString(fields["next_checkin"])
	return out, rep
}

func validateDecisions(v any, rep *Report) []string {
	items := validateStrings(v, rep)
	if len(items) > MaxDecisions {
		rep.DecisionsDropped += len(items) - MaxDecisions
		items = items[:MaxDecisions]
	}
	for i, d := range items {
		clamped := clampRunes(d, MaxDecisionRunes)
		if clamped != d {
			rep.DecisionsTruncated++
			items[i] = clamped
		}
	}
	return items
}

func validateStrings(v any, rep *Report) []string {
	list, _ := asList(v)
	out := make([]string, 0, len(list))
	for _, item := range list {
		s, ok := item.(string)
		if !ok {
			rep.EntriesDropped++
			continue
		}
		s = strings.TrimSpace(s)
		if s == "" {
			rep.EntriesDropped++
			continue
		}
		out = append(out, s)
	}
	return out
}

func validateActions(v any, rep *Report) []Action {
	list, _ := asList(v)
	out := make([]Action, 0, len(list))
	for _, item := range list {
		fields, ok := asMap(item)
		if !ok {
			rep.ActionsDropped++
			continue
		}
		text, ok := fields["action"].(string)
		if !ok {
			rep.ActionsDropped++
			continue
		}
		text = strings.TrimSpace(text)
		if text == "" {
			rep.ActionsDropped++
			continue
		}
		out = append(out, Action{
			Action: text,
			Owner:  optionalString(fields["owner"]),
			Due:    optionalString(fields["due"]),
		})
	}
	return out
}

func optionalString(v any) *string {
	var s string
	switch t := v.(type) {
	case string:
		s = t
	case *string:
		if t == nil {
			return nil
		}
		s = *t
	default:
		return nil
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

// clampRunes truncates to n runes and re-trims so that a second pass is a no-op.
func clampRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return strings.TrimRight(string(r[:n]), " \t\r\n\v\f")
}

func asMap(v any) (map[string]any, bool) {
	switch t := v.(type) {
	case map[string]any:
		return t, true
	case map[string]string:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = val
		}
		return out, true
	case map[string]*string:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = val
		}
		return out, true
	case Snapshot:
		return t.Raw(), true
	case *Snapshot:
		if t == nil {
			return nil, false
		}
		return t.Raw(), true
	default:
		return nil, false
	}
}

func asList(v any) ([]any, bool) {
	switch t := v.(type) {
	case []any:
		return t, true
	case []string:
		return stringsToAny(t), true
	case []map[string]any:
		out := make([]any, len(t))
		for i, m := range t {
			out[i] = m
		}
		return out, true
	case []map[string]string:
		out := make([]any, len(t))
		for i, m := range t {
			out[i] = m
		}
		return out, true
	case []Action:
		out := make([]any, len(t))
		for i, a := range t {
			out[i] = map[string]any{"action": a.Action, "owner": derefOrNil(a.Owner), "due": derefOrNil(a.Due)}
		}
		return out, true
	default:
		return nil, false
	}
}
