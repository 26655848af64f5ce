package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/chali-ug/chali-be/config"
	"github.com/chali-ug/chali-be/types"
)

// KnowledgeSource reads the raw knowledge document for a company.
type KnowledgeSource interface {
	Fetch(ctx context.Context, company string) ([]byte, error)
}

// FileSource reads knowledge documents from disk, one JSON file per
// company.
type FileSource struct {
	paths map[string]string
}

func NewFileSource(knowledgeDir string, companies map[string]config.CompanyConfig) *FileSource {
	paths := make(map[string]string, len(companies))
	for id, cc := range companies {
		path := cc.KnowledgePath
		if path == "" {
			path = filepath.Join(knowledgeDir, strings.ToLower(id), "knowledge.json")
		}
		paths[strings.ToLower(id)] = path
	}
	return &FileSource{paths: paths}
}

func (s *FileSource) Fetch(ctx context.Context, company string) ([]byte, error) {
	path, ok := s.paths[company]
	if !ok {
		return nil, fmt.Errorf("%q: %w", company, types.ErrCompanyNotConfigured)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return data, nil
}

// KnowledgeCache holds loaded documents for the process lifetime. Entries
// are written once per company and never evicted; a restart is the only
// reset path. Concurrent loads of the same company may race, which is fine
// because both load identical immutable source data.
type KnowledgeCache struct {
	mu   sync.RWMutex
	docs map[string]*types.KnowledgeDocument
}

func NewKnowledgeCache() *KnowledgeCache {
	return &KnowledgeCache{docs: make(map[string]*types.KnowledgeDocument)}
}

func (c *KnowledgeCache) Get(company string) (*types.KnowledgeDocument, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	doc, ok := c.docs[company]
	return doc, ok
}

func (c *KnowledgeCache) Put(company string, doc *types.KnowledgeDocument) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.docs[company] = doc
}

// KnowledgeService loads per-company knowledge documents lazily through an
// injected source and cache.
type KnowledgeService struct {
	source    KnowledgeSource
	cache     *KnowledgeCache
	companies map[string]config.CompanyConfig
}

func NewKnowledgeService(source KnowledgeSource, cache *KnowledgeCache, companies map[string]config.CompanyConfig) *KnowledgeService {
	normalized := make(map[string]config.CompanyConfig, len(companies))
	for id, cc := range companies {
		normalized[strings.ToLower(id)] = cc
	}
	return &KnowledgeService{
		source:    source,
		cache:     cache,
		companies: normalized,
	}
}

// Load returns the company's knowledge document, reading it at most once
// per process lifetime. An unconfigured company is a configuration error;
// a configured company whose document is missing or malformed reports
// ErrKnowledgeNotFound.
func (s *KnowledgeService) Load(ctx context.Context, company string) (*types.KnowledgeDocument, error) {
	key := strings.ToLower(strings.TrimSpace(company))
	if _, ok := s.companies[key]; !ok {
		return nil, fmt.Errorf("%q: %w", company, types.ErrCompanyNotConfigured)
	}

	if doc, ok := s.cache.Get(key); ok {
		return doc, nil
	}

	data, err := s.source.Fetch(ctx, key)
	if err != nil {
		log.Printf("knowledge: failed to read document for %s: %v", key, err)
		return nil, fmt.Errorf("%q: %w", company, types.ErrKnowledgeNotFound)
	}

	var doc types.KnowledgeDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		log.Printf("knowledge: malformed document for %s: %v", key, err)
		return nil, fmt.Errorf("%q: %w", company, types.ErrKnowledgeNotFound)
	}
	if doc.Company == "" {
		doc.Company = key
	}

	s.cache.Put(key, &doc)
	return &doc, nil
}

// Configured reports whether the company has a knowledge source at all.
func (s *KnowledgeService) Configured(company string) bool {
	_, ok := s.companies[strings.ToLower(strings.TrimSpace(company))]
	return ok
}

// Companies lists the configured support agents for the frontend picker.
func (s *KnowledgeService) Companies() []types.CompanyInfo {
	out := make([]types.CompanyInfo, 0, len(s.companies))
	for id, cc := range s.companies {
		out = append(out, types.CompanyInfo{ID: id, Semantic: cc.Semantic})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
