package database

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/weaviate/weaviate-go-client/v4/weaviate"
	"github.com/weaviate/weaviate-go-client/v4/weaviate/auth"
	"github.com/weaviate/weaviate-go-client/v4/weaviate/filters"
	"github.com/weaviate/weaviate-go-client/v4/weaviate/graphql"
	"github.com/weaviate/weaviate/entities/models"

	"github.com/chali-ug/chali-be/config"
	"github.com/chali-ug/chali-be/types"
)

const BATCH_SIZE = 200

var (
	CHUNK_CLASS        = "KnowledgeChunk"
	CHUNK_CLASS_OBJECT = &models.Class{
		Class: CHUNK_CLASS,
		Properties: []*models.Property{
			{Name: "content", DataType: []string{"text"}},
			{Name: "company", DataType: []string{"text"}},
			{Name: "topic", DataType: []string{"text"}},
			{Name: "category", DataType: []string{"text"}},
			{Name: "chunkType", DataType: []string{"text"}},
			{Name: "sourceUrl", DataType: []string{"text"}},
		},
		VectorIndexType: "hnsw",
	}
)

// WeaviateStore is the in-cluster semantic search backend: one
// KnowledgeChunk class shared by all companies, filtered by company on
// every query. It satisfies service.SemanticSearcher.
type WeaviateStore struct {
	client *weaviate.Client
}

func NewWeaviateStore(cfg config.WeaviateStoreConfig) (*WeaviateStore, error) {
	var scheme string
	if strings.Contains(cfg.Host, "https") {
		scheme = "https"
	} else {
		scheme = "http"
	}
	host := strings.TrimPrefix(cfg.Host, scheme+"://")
	wcfg := weaviate.Config{
		Host:   host,
		Scheme: scheme,
	}
	if cfg.APIKey != "" {
		wcfg.AuthConfig = auth.ApiKey{
			Value: cfg.APIKey,
		}
		wcfg.Headers = map[string]string{
			"X-Weaviate-Api-Key":     cfg.APIKey,
			"X-Weaviate-Cluster-Url": fmt.Sprintf("%s://%s", scheme, host),
		}
	}
	CHUNK_CLASS_OBJECT.Vectorizer = cfg.Text2Vec

	client, err := weaviate.NewClient(wcfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create weaviate client: %v", err)
	}

	schema, err := client.Schema().Getter().Do(context.Background())
	if err != nil {
		return nil, fmt.Errorf("failed to get schema: %v", err)
	}

	hasChunkClass := false
	for _, class := range schema.Classes {
		if class.Class == CHUNK_CLASS {
			hasChunkClass = true
			break
		}
	}
	if !hasChunkClass {
		err = client.Schema().ClassCreator().WithClass(CHUNK_CLASS_OBJECT).Do(context.Background())
		if err != nil {
			return nil, fmt.Errorf("failed to create KnowledgeChunk class: %v", err)
		}
	}
	return &WeaviateStore{
		client: client,
	}, nil
}

func (s *WeaviateStore) ReInit() error {
	err := s.client.Schema().ClassDeleter().WithClassName(CHUNK_CLASS).Do(context.Background())
	if err != nil {
		return fmt.Errorf("failed to delete KnowledgeChunk class: %v", err)
	}

	err = s.client.Schema().ClassCreator().WithClass(CHUNK_CLASS_OBJECT).Do(context.Background())
	if err != nil {
		return fmt.Errorf("failed to create KnowledgeChunk class: %v", err)
	}
	return nil
}

// Search runs a NearText query over the company's chunks, best match
// first. The normalized distance is reported as the chunk score (lower is
// more similar, matching the external backend's convention).
func (s *WeaviateStore) Search(ctx context.Context, company, query string, limit int) ([]types.SemanticChunk, error) {
	fields := []graphql.Field{
		{Name: "content"},
		{Name: "topic"},
		{Name: "category"},
		{Name: "chunkType"},
		{Name: "sourceUrl"},
		{Name: "_additional", Fields: []graphql.Field{{Name: "distance"}}},
	}
	nearText := s.client.GraphQL().NearTextArgBuilder().
		WithConcepts([]string{query})
	where := filters.Where().
		WithPath([]string{"company"}).
		WithOperator(filters.Equal).
		WithValueText(strings.ToLower(company))

	getBuilder := s.client.GraphQL().Get().
		WithClassName(CHUNK_CLASS).
		WithFields(fields...).
		WithNearText(nearText).
		WithWhere(where)
	if limit > 0 {
		getBuilder = getBuilder.WithLimit(limit)
	}

	result, err := getBuilder.Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("chunk search failed: %w", err)
	}
	if result.Errors != nil {
		return nil, fmt.Errorf("chunk search failed: %v", result.Errors[0].Message)
	}

	var chunks []types.SemanticChunk
	if data, ok := result.Data["Get"].(map[string]interface{})[CHUNK_CLASS].([]interface{}); ok {
		for _, item := range data {
			obj, ok := item.(map[string]interface{})
			if !ok {
				continue
			}
			chunk := types.SemanticChunk{
				Content:  stringProp(obj, "content"),
				Metadata: map[string]string{},
			}
			for prop, key := range map[string]string{
				"topic":     "topic",
				"category":  "category",
				"chunkType": "type",
				"sourceUrl": "source_url",
			} {
				if v := stringProp(obj, prop); v != "" {
					chunk.Metadata[key] = v
				}
			}
			if additional, ok := obj["_additional"].(map[string]interface{}); ok {
				if distance, ok := additional["distance"].(float64); ok {
					chunk.Score = distance
				}
			}
			chunks = append(chunks, chunk)
		}
	}
	return chunks, nil
}

// BatchInsertChunks uploads a company's chunk set, 200 objects per batch.
func (s *WeaviateStore) BatchInsertChunks(ctx context.Context, company string, chunks []types.SemanticChunk) error {
	total := len(chunks)
	for i := 0; i < total; i += BATCH_SIZE {
		end := i + BATCH_SIZE
		if end > total {
			end = total
		}

		batcher := s.client.Batch().ObjectsBatcher()
		for j := i; j < end; j++ {
			properties := map[string]interface{}{
				"content":   chunks[j].Content,
				"company":   strings.ToLower(company),
				"topic":     chunks[j].Meta("topic"),
				"category":  chunks[j].Meta("category"),
				"chunkType": chunks[j].Meta("type"),
				"sourceUrl": chunks[j].Meta("source_url"),
			}
			batcher = batcher.WithObjects(&models.Object{
				Class:      CHUNK_CLASS,
				Properties: properties,
			})
		}

		if _, err := batcher.Do(ctx); err != nil {
			return fmt.Errorf("failed to insert batch %d-%d: %v", i, end, err)
		}
		log.Printf("Inserted batch %d-%d of %d chunks", i, end, total)
	}
	return nil
}

// DeleteCompanyChunks removes every chunk for the company, used before a
// reindex.
func (s *WeaviateStore) DeleteCompanyChunks(ctx context.Context, company string) error {
	where := filters.Where().
		WithPath([]string{"company"}).
		WithOperator(filters.Equal).
		WithValueText(strings.ToLower(company))

	_, err := s.client.Batch().ObjectsBatchDeleter().
		WithClassName(CHUNK_CLASS).
		WithWhere(where).
		Do(ctx)
	if err != nil {
		return fmt.Errorf("failed to delete chunks for %s: %v", company, err)
	}
	return nil
}

func stringProp(obj map[string]interface{}, key string) string {
	if v, ok := obj[key].(string); ok {
		return v
	}
	return ""
}
