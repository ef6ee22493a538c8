package provider

import (
	"context"

	"github.com/ent0n29/meetingsnap/internal/logic"
)

// LogicProvider wraps the rule-based parser. It never fails.
type LogicProvider struct{}

func NewLogicProvider() *LogicProvider { return &LogicProvider{} }

func (LogicProvider) ID() string { return IDLogic }

func (LogicProvider) Extract(_ context.Context, transcript string) (map[string]any, error) {
	return logic.Extract(transcript), nil
}
