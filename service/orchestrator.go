package service

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/chali-ug/chali-be/types"
)

// Orchestrator runs the full response pipeline for one chat request:
// load knowledge, attempt semantic search, fall back to keyword search,
// compose context, generate, post-process. It owns all error translation;
// callers only ever see kind-tagged pipeline errors.
type Orchestrator struct {
	knowledge       *KnowledgeService
	semantic        SemanticSearcher
	keyword         *KeywordSearcher
	composer        *ContextComposer
	chain           *ProviderChain
	post            *PostProcessor
	semanticAllowed map[string]bool
	semanticTimeout time.Duration
}

func NewOrchestrator(
	knowledge *KnowledgeService,
	semantic SemanticSearcher,
	chain *ProviderChain,
	semanticAllowed map[string]bool,
	semanticTimeout time.Duration,
) *Orchestrator {
	return &Orchestrator{
		knowledge:       knowledge,
		semantic:        semantic,
		keyword:         NewKeywordSearcher(),
		composer:        NewContextComposer(),
		chain:           chain,
		post:            NewPostProcessor(),
		semanticAllowed: semanticAllowed,
		semanticTimeout: semanticTimeout,
	}
}

// Respond handles one chat request end to end. Semantic search failures
// degrade silently to the keyword path; only configuration gaps and
// generation failures terminate the request.
func (o *Orchestrator) Respond(ctx context.Context, req *types.ChatRequest) (*types.ChatResponse, error) {
	company := strings.TrimSpace(req.Company)
	message := strings.TrimSpace(req.Message)
	if company == "" || message == "" {
		return nil, types.NewPipelineError(types.ErrKindClientInput, "company and message are required", nil)
	}

	doc, err := o.knowledge.Load(ctx, company)
	if err != nil {
		if errors.Is(err, types.ErrCompanyNotConfigured) || errors.Is(err, types.ErrKnowledgeNotFound) {
			return nil, types.NewPipelineError(types.ErrKindConfiguration, "no knowledge base for company", err)
		}
		return nil, types.NewPipelineError(types.ErrKindConfiguration, "knowledge load failed", err)
	}

	chunks := o.semanticAttempt(ctx, company, message)

	var entries []types.Entry
	if len(chunks) == 0 {
		entries = o.keyword.Search(doc, message)
	}

	system := o.composer.Compose(doc.Company, chunks, entries)
	history := BoundHistory(req.ChatHistory, historyMaxTurns)

	text, provider, err := o.chain.Generate(ctx, system, history, message)
	if err != nil {
		var pe *types.PipelineError
		if errors.As(err, &pe) {
			return nil, err
		}
		return nil, types.NewPipelineError(types.ErrKindGeneration, "generation failed", err)
	}

	clean := o.post.Clean(text)
	quickReplies := o.post.QuickReplies(clean, chunks, entries)

	resp := &types.ChatResponse{
		Response:     clean,
		QuickReplies: quickReplies,
		Provider:     provider,
	}
	if len(chunks) > 0 {
		resp.Source = types.SourceVectorRAG
		resp.SearchMethod = types.SearchMethodSemantic
		resp.ProductsFound = len(chunks)
	} else {
		resp.Source = types.SourceOpenAI
		resp.SearchMethod = types.SearchMethodKeyword
		resp.ProductsFound = len(entries)
	}
	return resp, nil
}

// UserFacingMessage maps a pipeline error to copy safe to show the
// customer, without leaking backend detail.
func UserFacingMessage(err error) string {
	var pe *types.PipelineError
	if errors.As(err, &pe) {
		switch pe.Kind {
		case types.ErrKindClientInput:
			return "Please tell me which company you need help with and what your question is."
		case types.ErrKindConfiguration:
			return "I don't have a knowledge base for this company yet. Please contact their support line directly."
		}
		if pe.Transient() {
			return "I'm having trouble responding right now. Please try again shortly."
		}
	}
	return "Something went wrong on our side. Please contact support if this continues."
}

// semanticAttempt runs the bounded semantic search for allow-listed
// companies. Any failure or empty result degrades to the keyword path;
// this never surfaces an error to the caller.
func (o *Orchestrator) semanticAttempt(ctx context.Context, company, message string) []types.SemanticChunk {
	if o.semantic == nil || !o.semanticAllowed[strings.ToLower(company)] {
		return nil
	}

	sctx, cancel := context.WithTimeout(ctx, o.semanticTimeout)
	defer cancel()

	chunks, err := o.semantic.Search(sctx, company, message, composerMaxChunks)
	if err != nil {
		log.Printf("semantic search for %s degraded to keyword path: %v", company, err)
		return nil
	}
	if len(chunks) == 0 {
		log.Printf("semantic search for %s returned nothing, falling back to keyword path", company)
		return nil
	}
	return chunks
}
