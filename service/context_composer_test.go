package service

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/chali-ug/chali-be/types"
)

func TestComposePrefersSemanticChunks(t *testing.T) {
	chunks := []types.SemanticChunk{
		{Content: "MoMo Pay lets you pay merchants.", Metadata: map[string]string{"topic": "MoMo Pay", "category": "MoMo"}},
		{Content: "Daily bundles cost 2000 UGX.", Metadata: map[string]string{"topic": "Daily Bundle"}},
	}
	entries := []types.Entry{entryFromJSON(t, `{"product_name":"Ignored"}`)}

	out := NewContextComposer().Compose("MTN", chunks, entries)

	assert.Contains(t, out, "[Source 1] MoMo Pay (MoMo)")
	assert.Contains(t, out, "[Source 2] Daily Bundle")
	assert.Contains(t, out, "ranked evidence")
	assert.NotContains(t, out, "Ignored")
}

func TestComposeCapsChunksAtFive(t *testing.T) {
	chunks := make([]types.SemanticChunk, 8)
	for i := range chunks {
		chunks[i] = types.SemanticChunk{Content: "c", Metadata: map[string]string{"topic": "T"}}
	}

	out := NewContextComposer().Compose("MTN", chunks, nil)

	assert.Contains(t, out, "[Source 5]")
	assert.NotContains(t, out, "[Source 6]")
}

func TestComposeRendersOnlyPopulatedEntryFields(t *testing.T) {
	entry := entryFromJSON(t, `{
		"product_name": "Daily Bundle",
		"pricing": ["2000 UGX/day"],
		"activation": ["Dial *150*1#"],
		"faqs": [{"question":"Roll over?","answer":"No."},{"question":"Sharing?","answer":"Yes."},{"question":"Extra","answer":"Hidden"}],
		"features": ["f1","f2","f3","f4"]
	}`)

	out := NewContextComposer().Compose("MTN", nil, []types.Entry{entry})

	assert.Contains(t, out, "Product: Daily Bundle")
	assert.Contains(t, out, "Pricing: 2000 UGX/day")
	assert.Contains(t, out, "How to activate: Dial *150*1#")
	assert.Contains(t, out, "Q: Roll over? A: No.")
	// Truncation: at most 2 FAQs, 3 features.
	assert.NotContains(t, out, "Hidden")
	assert.NotContains(t, out, "f4")
	// Absent fields are omitted entirely.
	assert.NotContains(t, out, "Overview:")
	assert.NotContains(t, out, "Cost:")
	assert.NotContains(t, out, "Contact:")
}

func TestComposeNeutralWhenNoEvidence(t *testing.T) {
	out := NewContextComposer().Compose("Umeme", nil, nil)

	assert.Contains(t, out, "No specific match was found")
	assert.Contains(t, out, "general support")
}

func TestComposeAlwaysAppendsBehaviorInstructions(t *testing.T) {
	composer := NewContextComposer()
	variants := []string{
		composer.Compose("MTN", []types.SemanticChunk{{Content: "x"}}, nil),
		composer.Compose("MTN", nil, []types.Entry{entryFromJSON(t, `{"product_name":"P"}`)}),
		composer.Compose("MTN", nil, nil),
	}

	for _, out := range variants {
		assert.Contains(t, out, "quote them exactly")
		assert.Contains(t, out, "Pay screen")
		assert.True(t, strings.HasSuffix(out, "suggested next step for the customer."))
	}
}

func TestBoundHistory(t *testing.T) {
	history := make([]types.ConversationTurn, 8)
	for i := range history {
		history[i] = types.ConversationTurn{Role: types.RoleUser, Content: strings.Repeat("x", i+1)}
	}

	bounded := BoundHistory(history, 5)
	assert.Len(t, bounded, 5)
	// Keeps the most recent turns, oldest first.
	assert.Equal(t, history[3].Content, bounded[0].Content)
	assert.Equal(t, history[7].Content, bounded[4].Content)

	short := history[:2]
	assert.Equal(t, short, BoundHistory(short, 5))
}
