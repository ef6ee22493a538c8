package provider

import "context"

// FakeProvider returns a fixed candidate regardless of input. It stands in for
// a model when exercising the model-assisted path.
type FakeProvider struct{}

func NewFakeProvider() *FakeProvider { return &FakeProvider{} }

func (FakeProvider) ID() string { return IDFake }

func (FakeProvider) Extract(ctx context.Context, _ string) (map[string]any, error) {
	if err := ctx.Err(); err != nil {
		return nil, AsError(IDFake, err)
	}
	return map[string]any{
		"decisions": []any{"Use the fake LLM output for validation"},
		"actions": []any{
			map[string]any{
				"action": "Share meeting notes with the wider team",
				"owner":  "Alex",
				"due":    "Next Monday",
			},
		},
		"questions":    []any{"Any blockers before launch?"},
		"risks":        []any{"Timeline depends on vendor availability."},
		"next_checkin": "Next Tuesday",
	}, nil
}
