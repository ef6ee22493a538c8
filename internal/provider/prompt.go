package provider

import (
	"encoding/json"
	"errors"
	"regexp"
	"strings"
)

const promptTemplate = `You are Meeting Snap, an assistant that extracts meeting outcomes for busy
teams. Read the transcript and respond with a JSON object that matches the
following schema:
{
  "decisions": ["short summary", ... up to 10 items],
  "actions": [
    {"action": "task", "owner": "Name or null", "due": "Due date or null"}
  ],
  "questions": ["open question"],
  "risks": ["issue or blocker"],
  "next_checkin": "describe the next meeting or null"
}

Rules:
- Trim whitespace from every string you return and keep them concise.
- If a field has no content, use an empty list or null for "next_checkin".
- The JSON must be valid and parsable without additional commentary.

Transcript:
---
%TRANSCRIPT%
---
`

// BuildPrompt renders the extraction prompt for a transcript.
func BuildPrompt(transcript string) string {
	clean := strings.TrimSpace(transcript)
	if clean == "" {
		clean = "(No transcript content provided.)"
	}
	return strings.Replace(promptTemplate, "%TRANSCRIPT%", clean, 1)
}

var codeFenceRe = regexp.MustCompile("(?is)```(?:json)?\\s*(\\{.*?\\})\\s*```")

var errNoJSONObject = errors.New("no JSON object found in text")

// ParseJSONBlock returns the first JSON object in text. It tries the whole
// text, then fenced code blocks, then every '{' offset in order.
func ParseJSONBlock(text string) (map[string]any, error) {
	if obj, ok := decodeObject(strings.TrimSpace(text)); ok {
		return obj, nil
	}

	for _, m := range codeFenceRe.FindAllStringSubmatch(text, -1) {
		if obj, ok := decodeObject(strings.TrimSpace(m[1])); ok {
			return obj, nil
		}
	}

	for start := 0; start < len(text); {
		brace := strings.IndexByte(text[start:], '{')
		if brace < 0 {
			break
		}
		brace += start
		dec := json.NewDecoder(strings.NewReader(text[brace:]))
		var v any
		if err := dec.Decode(&v); err != nil {
			start = brace + 1
			continue
		}
		if obj, ok := v.(map[string]any); ok {
			return obj, nil
		}
		start = brace + int(dec.InputOffset())
	}
	return nil, errNoJSONObject
}

func decodeObject(s string) (map[string]any, bool) {
	if s == "" {
		return nil, false
	}
	var obj map[string]any
	if err := json.Unmarshal([]byte(s), &obj); err != nil || obj == nil {
		return nil, false
	}
	return obj, true
}
