package types

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKnowledgeDocumentEntryAliases(t *testing.T) {
	tests := []struct {
		name    string
		doc     string
		entries int
	}{
		{
			name:    "products key",
			doc:     `{"company":"MTN","products":[{"product_name":"MoMo"}]}`,
			entries: 1,
		},
		{
			name:    "services key",
			doc:     `{"company":"NWSC","services":[{"service_name":"New Connection"},{"name":"Billing"}]}`,
			entries: 2,
		},
		{
			name:    "items key",
			doc:     `{"items":[{"title":"Motor Vehicle Registration"}]}`,
			entries: 1,
		},
		{
			name:    "no entry sequence",
			doc:     `{"company":"URA"}`,
			entries: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var doc KnowledgeDocument
			require.NoError(t, json.Unmarshal([]byte(tt.doc), &doc))
			assert.Len(t, doc.Entries, tt.entries)
			assert.NotNil(t, doc.Entries)
		})
	}
}

func TestEntryFieldNormalization(t *testing.T) {
	raw := `{
		"service_name": "WakaNet",
		"description": "Unlimited home internet.",
		"cost": ["159000 UGX/month"],
		"how_to_activate": "Visit a service centre",
		"ussd_codes": ["*150#"],
		"faqs": [
			"Is there a setup fee?",
			{"question": "Can I pause?", "answer": "Yes, for up to 30 days."}
		],
		"contact_info": {"phone": "0312 120 000", "email": "support@example.com"}
	}`

	var entry Entry
	require.NoError(t, json.Unmarshal([]byte(raw), &entry))

	assert.Equal(t, "WakaNet", entry.Name)
	assert.Equal(t, "Unlimited home internet.", entry.Overview)
	assert.Equal(t, []string{"159000 UGX/month"}, entry.Cost)
	assert.Equal(t, []string{"Visit a service centre"}, entry.Activation)
	assert.Equal(t, []string{"*150#"}, entry.ShortCodes)
	require.Len(t, entry.FAQs, 2)
	assert.Equal(t, "Is there a setup fee?", entry.FAQs[0].Question)
	assert.Equal(t, "Yes, for up to 30 days.", entry.FAQs[1].Answer)
	assert.Contains(t, entry.Contact, "0312 120 000")

	// Optional sequences default to empty, never nil.
	assert.NotNil(t, entry.Features)
	assert.NotNil(t, entry.Pricing)
	assert.Empty(t, entry.Features)
}

func TestEntrySearchableTextFlattensNestedStructures(t *testing.T) {
	raw := `{
		"product_name": "Bundle",
		"extras": [
			{"region": "Kampala", "speeds": ["10Mbps", "20Mbps"]},
			"roaming available"
		]
	}`

	var entry Entry
	require.NoError(t, json.Unmarshal([]byte(raw), &entry))

	text := entry.SearchableText()
	assert.Contains(t, text, "bundle")
	assert.Contains(t, text, "kampala")
	assert.Contains(t, text, "20mbps")
	assert.Contains(t, text, "roaming available")
}

func TestSemanticChunkMetadataCoercion(t *testing.T) {
	raw := `{"content":"MoMo Pay info","metadata":{"topic":"MoMo Pay","chunk_id":12,"category":null},"score":0.31}`

	var chunk SemanticChunk
	require.NoError(t, json.Unmarshal([]byte(raw), &chunk))

	assert.Equal(t, "MoMo Pay info", chunk.Content)
	assert.InDelta(t, 0.31, chunk.Score, 1e-9)
	assert.Equal(t, "MoMo Pay", chunk.Meta("topic"))
	assert.Equal(t, "12", chunk.Meta("chunk_id"))
	assert.Equal(t, "", chunk.Meta("category"))
}
