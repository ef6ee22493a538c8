package snapshot

const (
	// MaxDecisions bounds the decisions list; extra entries are dropped.
	MaxDecisions = 10
	// MaxDecisionRunes bounds a single decision; longer text is truncated.
	MaxDecisionRunes = 120
)

// Action is a single follow-up item. Owner and Due are nil when unknown.
type Action struct {
	Action string  `json:"action"`
	Owner  *string `json:"owner"`
	Due    *string `json:"due"`
}

// Snapshot is the validated summary of one transcript.
type Snapshot struct {
	Decisions   []string `json:"decisions"`
	Actions     []Action `json:"actions"`
	Questions   []string `json:"questions"`
	Risks       []string `json:"risks"`
	NextCheckin *string  `json:"next_checkin"`
}

// Empty returns the snapshot used before any transcript has been processed.
// It is deep-equal to Validate of any empty input.
func Empty() Snapshot {
	return Snapshot{
		Decisions: []string{},
		Actions:   []Action{},
		Questions: []string{},
		Risks:     []string{},
	}
}

// IsEmpty reports whether every section is empty.
func (s Snapshot) IsEmpty() bool {
	return len(s.Decisions) == 0 &&
		len(s.Actions) == 0 &&
		len(s.Questions) == 0 &&
		len(s.Risks) == 0 &&
		s.NextCheckin == nil
}

// Raw converts a snapshot back into the loose map shape providers return.
func (s Snapshot) Raw() map[string]any {
	actions := make([]any, 0, len(s.Actions))
	for _, a := range s.Actions {
		actions = append(actions, map[string]any{
			"action": a.Action,
			"owner":  derefOrNil(a.Owner),
			"due":    derefOrNil(a.Due),
		})
	}
	return map[string]any{
		"decisions":    stringsToAny(s.Decisions),
		"actions":      actions,
		"questions":    stringsToAny(s.Questions),
		"risks":        stringsToAny(s.Risks),
		"next_checkin": derefOrNil(s.NextCheckin),
	}
}

// Report counts the repairs Validate had to make.
type Report struct {
	DecisionsDropped   int
	DecisionsTruncated int
	EntriesDropped     int
	ActionsDropped     int
}

// Repaired reports whether any repair happened.
func (r Report) Repaired() bool {
	return r.DecisionsDropped+r.DecisionsTruncated+r.EntriesDropped+r.ActionsDropped > 0
}

func derefOrNil(p *string) any {
	if p == nil {
		return nil
	}
	return *p
}

func stringsToAny(in []string) []any {
	out := make([]any, len(in))
	for i, s := range in {
		out[i] = s
	}
	return out
}
