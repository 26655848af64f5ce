package types

import (
	"encoding/json"
	"fmt"
)

const (
	RoleUser  = "user"
	RoleAgent = "agent"

	SearchMethodSemantic = "vector_semantic"
	SearchMethodKeyword  = "keyword"

	SourceVectorRAG = "vector_rag"
	SourceOpenAI    = "openai"
	SourceFallback  = "fallback"
)

// ConversationTurn is one prior message in the conversation. The pipeline
// treats history as read-only input supplied by the chat frontend.
type ConversationTurn struct {
	Role      string `json:"role"`
	Content   string `json:"content"`
	Timestamp int64  `json:"timestamp,omitempty"`
}

type ChatRequest struct {
	Company     string             `json:"company"`
	Message     string             `json:"message"`
	ChatHistory []ConversationTurn `json:"chatHistory"`
}

// ChatResponse is the structured reply returned for every request,
// including terminal errors (the caller never sees a raw error string from
// a backend).
type ChatResponse struct {
	Response      string   `json:"response"`
	QuickReplies  []string `json:"quickReplies"`
	Source        string   `json:"source"`
	Provider      string   `json:"provider"`
	ProductsFound int      `json:"productsFound"`
	SearchMethod  string   `json:"searchMethod,omitempty"`
	Error         string   `json:"error,omitempty"`
}

// SemanticChunk is one result from the embedding-index backend. Produced
// fresh per request and never cached.
type SemanticChunk struct {
	Content  string            `json:"content"`
	Metadata map[string]string `json:"metadata"`
	Score    float64           `json:"score"`
}

// UnmarshalJSON coerces metadata scalars (the backend emits numbers for
// fields like chunk ids) into strings.
func (c *SemanticChunk) UnmarshalJSON(data []byte) error {
	var raw struct {
		Content  string         `json:"content"`
		Metadata map[string]any `json:"metadata"`
		Score    float64        `json:"score"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	c.Content = raw.Content
	c.Score = raw.Score
	c.Metadata = make(map[string]string, len(raw.Metadata))
	for k, v := range raw.Metadata {
		switch val := v.(type) {
		case string:
			c.Metadata[k] = val
		case nil:
			// skip
		default:
			c.Metadata[k] = fmt.Sprintf("%v", val)
		}
	}
	return nil
}

// Meta returns the named metadata value or an empty string.
func (c *SemanticChunk) Meta(key string) string {
	if c.Metadata == nil {
		return ""
	}
	return c.Metadata[key]
}
