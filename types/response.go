package types

type DataResponse struct {
	Status  string      `json:"status"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

type SemanticSearchRequest struct {
	Company string `json:"company"`
	Query   string `json:"query"`
	Limit   int    `json:"limit,omitempty"`
}

type SemanticSearchResponse struct {
	Company string          `json:"company"`
	Query   string          `json:"query"`
	Count   int             `json:"count"`
	Chunks  []SemanticChunk `json:"chunks"`
}

// CompanyInfo describes one configured support agent to the frontend.
type CompanyInfo struct {
	ID       string `json:"id"`
	Semantic bool   `json:"semantic"`
}

// KnowledgeSummary is the introspection view of a loaded knowledge base.
type KnowledgeSummary struct {
	Company     string   `json:"company"`
	LastUpdated string   `json:"last_updated,omitempty"`
	EntryCount  int      `json:"entry_count"`
	EntryNames  []string `json:"entry_names"`
}
