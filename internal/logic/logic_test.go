package logic

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ent0n29/meetingsnap/internal/snapshot"
)

func TestExtract_SingleLineTranscript(t *testing.T) {
	raw := Extract("Alice will send the report by Friday. Is the budget approved? We risk missing the deadline.")
	snap := snapshot.Validate(raw)

	require.Len(t, snap.Actions, 1)
	a := snap.Actions[0]
	assert.Contains(t, a.Action, "send the report")
	require.NotNil(t, a.Owner)
	assert.Equal(t, "Alice", *a.Owner)
	require.NotNil(t, a.Due)
	assert.Contains(t, *a.Due, "Friday")

	assert.Equal(t, []string{"Is the budget approved?"}, snap.Questions)
	assert.Equal(t, []string{"We risk missing the deadline."}, snap.Risks)
	assert.Empty(t, snap.Decisions)
	require.NotNil(t, snap.NextCheckin)
	assert.Equal(t, "By Friday", *snap.NextCheckin)
}

func TestExtract_Reproducible(t *testing.T) {
	text := `[09:58] Dana: Decision: we go with vendor B.
Bob: I'll draft the FAQ tomorrow.
- Update the pricing page (owner: @sam) by Mar 3
Risks: vendor contract is still unsigned
Next check-in: Thursday 10am`

	first := Extract(text)
	second := Extract(text)
	assert.Equal(t, first, second)

	a, err := json.Marshal(first)
	require.NoError(t, err)
	b, err := json.Marshal(second)
	require.NoError(t, err)
	assert.Equal(t, string(a), string(b))
}

func TestExtract_LabeledTranscript(t *testing.T) {
	snap := snapshot.Validate(Extract(`[09:58] Dana: Decision: we go with vendor B.
Bob: I'll draft the FAQ tomorrow.
- Update the pricing page (owner: @sam) by Mar 3
Risks: vendor contract is still unsigned
Open question: who owns the rollout
Next check-in: Thursday 10am`))

	assert.Equal(t, []string{"Go with vendor B"}, snap.Decisions)
	assert.Equal(t, []string{"Vendor contract is still unsigned"}, snap.Risks)
	assert.Equal(t, []string{"Who owns the rollout"}, snap.Questions)
	require.NotNil(t, snap.NextCheckin)
	assert.Equal(t, "Thursday 10am", *snap.NextCheckin)

	require.Len(t, snap.Actions, 2)

	faq := snap.Actions[0]
	assert.Equal(t, "draft the FAQ", faq.Action)
	require.NotNil(t, faq.Owner)
	assert.Equal(t, "Bob", *faq.Owner)
	require.NotNil(t, faq.Due)
	assert.Equal(t, "Tomorrow", *faq.Due)

	pricing := snap.Actions[1]
	assert.Equal(t, "Update the pricing page", pricing.Action)
	require.NotNil(t, pricing.Owner)
	assert.Equal(t, "Sam", *pricing.Owner)
	require.NotNil(t, pricing.Due)
	assert.Equal(t, "By Mar 3", *pricing.Due)
}

func TestExtract_EmptyInput(t *testing.T) {
	for _, text := range []string{"", "   ", "\n\n"} {
		raw := Extract(text)
		assert.Nil(t, raw["next_checkin"])
		assert.Equal(t, snapshot.Empty(), snapshot.Validate(raw))
	}
}

func TestExtract_DeduplicatesEntries(t *testing.T) {
	snap := snapshot.Validate(Extract("We risk slipping. We risk slipping."))
	assert.Equal(t, []string{"We risk slipping."}, snap.Risks)
}

func TestExtract_DueMarker(t *testing.T) {
	cases := []struct {
		text, action, owner, due string
	}{
		{"Update the pricing page owner: Sam due: end of quarter", "Update the pricing page", "Sam", "end of quarter"},
		{"Action: migrate the database owner: Priya due: EOD", "migrate the database", "Priya", "EOD"},
		{"Refresh the onboarding deck due: next week (owner: @lee)", "Refresh the onboarding deck", "Lee", "Next Week"},
	}
	for _, tc := range cases {
		snap := snapshot.Validate(Extract(tc.text))
		require.Len(t, snap.Actions, 1, tc.text)
		a := snap.Actions[0]
		assert.Equal(t, tc.action, a.Action, tc.text)
		require.NotNil(t, a.Owner, tc.text)
		assert.Equal(t, tc.owner, *a.Owner, tc.text)
		require.NotNil(t, a.Due, tc.text)
		assert.Equal(t, tc.due, *a.Due, tc.text)
	}
}

func TestExtract_SyncSetsCheckin(t *testing.T) {
	raw := Extract("Let's sync again on Thursday.")
	assert.Equal(t, "Thursday", raw["next_checkin"])
}

func TestExtract_AcronymIsNotAnOwner(t *testing.T) {
	snap := snapshot.Validate(Extract("The API will be down, which is a security risk."))
	assert.Empty(t, snap.Actions)
	assert.Equal(t, []string{"The API will be down, which is a security risk."}, snap.Risks)

	snap = snapshot.Validate(Extract("Priya will update the API docs."))
	require.Len(t, snap.Actions, 1)
	require.NotNil(t, snap.Actions[0].Owner)
	assert.Equal(t, "Priya", *snap.Actions[0].Owner)
	assert.Equal(t, "update the API docs", snap.Actions[0].Action)
}

func TestFormatDue(t *testing.T) {
	cases := map[string]string{
		"tomorrow":       "Tomorrow",
		"next tuesday":   "Next Tuesday",
		"by fri":         "By Fri",
		"thursday 10 AM": "Thursday 10 am",
		"2025-01-31":     "2025-01-31",
	}
	for in, want := range cases {
		assert.Equal(t, want, formatDue(in), in)
	}
}
