package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chali-ug/chali-be/types"
)

// fakeGenerator records every call and answers from a script. A nil reply
// function echoes the system context so tests can inspect what generation
// was given.
type fakeGenerator struct {
	name    string
	calls   int
	systems []string
	reply   func(system, message string) (string, error)
}

func (g *fakeGenerator) Name() string { return g.name }

func (g *fakeGenerator) Generate(_ context.Context, system string, _ []types.ConversationTurn, message string) (string, error) {
	g.calls++
	g.systems = append(g.systems, system)
	if g.reply != nil {
		return g.reply(system, message)
	}
	return system, nil
}

// fakeSemantic is a scripted SemanticSearcher.
type fakeSemantic struct {
	calls  int
	chunks []types.SemanticChunk
	err    error
	delay  time.Duration
}

func (s *fakeSemantic) Search(ctx context.Context, _, _ string, _ int) ([]types.SemanticChunk, error) {
	s.calls++
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return nil, fmt.Errorf("search: %w", types.ErrSearchTimeout)
		}
	}
	return s.chunks, s.err
}

const mtnKnowledge = `{
	"company": "mtn",
	"products": [
		{
			"product_name": "Daily Data Bundle",
			"overview": "Short-lived data bundles for everyday browsing.",
			"pricing": ["2000 UGX/day for 300MB"],
			"activation": ["Dial *150*1# and choose Daily"],
			"faqs": [{"question": "Does unused data roll over?", "answer": "No, it expires at midnight."}]
		},
		{
			"product_name": "MoMo Pay",
			"overview": "Pay merchants straight from your mobile money wallet.",
			"features": ["No merchant fees", "Instant confirmation"]
		}
	]
}`

func testOrchestrator(t *testing.T, semantic SemanticSearcher, allowed map[string]bool, gens ...Generator) *Orchestrator {
	t.Helper()
	source := newCountingSource(map[string]string{"mtn": mtnKnowledge})
	knowledge := NewKnowledgeService(source, NewKnowledgeCache(), companySet("mtn"))
	return NewOrchestrator(knowledge, semantic, NewProviderChain(gens...), allowed, time.Second)
}

func TestRespondKeywordPath(t *testing.T) {
	gen := &fakeGenerator{name: "openai", reply: func(_, _ string) (string, error) {
		return "The Daily Data Bundle costs **2000 UGX/day for 300MB**.", nil
	}}
	orch := testOrchestrator(t, nil, nil, gen)

	resp, err := orch.Respond(context.Background(), &types.ChatRequest{
		Company: "MTN",
		Message: "How much is the daily data bundle?",
	})
	require.NoError(t, err)

	assert.Equal(t, "The Daily Data Bundle costs 2000 UGX/day for 300MB.", resp.Response)
	assert.Equal(t, types.SourceOpenAI, resp.Source)
	assert.Equal(t, types.SearchMethodKeyword, resp.SearchMethod)
	assert.Equal(t, "openai", resp.Provider)
	assert.Equal(t, 1, resp.ProductsFound)
	assert.Contains(t, resp.QuickReplies, "How to activate?")
	assert.LessOrEqual(t, len(resp.QuickReplies), 4)

	// The matched entry's facts were in the generation context.
	require.Len(t, gen.systems, 1)
	assert.Contains(t, gen.systems[0], "2000 UGX/day for 300MB")
	assert.Contains(t, gen.systems[0], "Dial *150*1#")
}

func TestRespondSemanticPath(t *testing.T) {
	semantic := &fakeSemantic{chunks: []types.SemanticChunk{
		{Content: "Daily bundles cost 2000 UGX.", Metadata: map[string]string{"topic": "Daily Data Bundle"}, Score: 0.9},
		{Content: "Bundles expire at midnight.", Metadata: map[string]string{"topic": "Daily Data Bundle"}, Score: 0.7},
	}}
	gen := &fakeGenerator{name: "openai", reply: func(_, _ string) (string, error) {
		return "Daily bundles cost 2000 UGX and expire at midnight.", nil
	}}
	orch := testOrchestrator(t, semantic, map[string]bool{"mtn": true}, gen)

	resp, err := orch.Respond(context.Background(), &types.ChatRequest{Company: "mtn", Message: "bundle price"})
	require.NoError(t, err)

	assert.Equal(t, types.SourceVectorRAG, resp.Source)
	assert.Equal(t, types.SearchMethodSemantic, resp.SearchMethod)
	assert.Equal(t, 2, resp.ProductsFound)
	assert.Equal(t, 1, semantic.calls)
	assert.Contains(t, gen.systems[0], "[Source 1] Daily Data Bundle")
}

func TestRespondDegradesWhenSemanticFails(t *testing.T) {
	for name, semantic := range map[string]*fakeSemantic{
		"backend error": {err: errors.New("connection refused")},
		"empty results": {chunks: nil},
		"slow backend":  {delay: 5 * time.Second},
	} {
		t.Run(name, func(t *testing.T) {
			gen := &fakeGenerator{name: "openai", reply: func(_, _ string) (string, error) {
				return "answer", nil
			}}
			orch := testOrchestrator(t, semantic, map[string]bool{"mtn": true}, gen)
			// Keep the slow-backend case fast.
			orch.semanticTimeout = 50 * time.Millisecond

			resp, err := orch.Respond(context.Background(), &types.ChatRequest{
				Company: "mtn",
				Message: "daily bundle",
			})
			require.NoError(t, err)
			assert.Equal(t, types.SearchMethodKeyword, resp.SearchMethod)
			assert.Equal(t, types.SourceOpenAI, resp.Source)
			assert.Equal(t, 1, gen.calls)
		})
	}
}

func TestRespondSkipsSemanticForNonAllowlistedCompany(t *testing.T) {
	semantic := &fakeSemantic{chunks: []types.SemanticChunk{{Content: "x"}}}
	gen := &fakeGenerator{name: "openai"}
	orch := testOrchestrator(t, semantic, map[string]bool{"ura": true}, gen)

	resp, err := orch.Respond(context.Background(), &types.ChatRequest{Company: "mtn", Message: "bundle"})
	require.NoError(t, err)
	assert.Equal(t, 0, semantic.calls)
	assert.Equal(t, types.SearchMethodKeyword, resp.SearchMethod)
}

func TestRespondUnknownCompanySkipsGeneration(t *testing.T) {
	gen := &fakeGenerator{name: "openai"}
	orch := testOrchestrator(t, nil, nil, gen)

	_, err := orch.Respond(context.Background(), &types.ChatRequest{Company: "safaricom", Message: "hello"})
	require.Error(t, err)
	assert.Equal(t, types.ErrKindConfiguration, types.KindOf(err))
	assert.Equal(t, 0, gen.calls)
}

func TestRespondValidatesInput(t *testing.T) {
	gen := &fakeGenerator{name: "openai"}
	orch := testOrchestrator(t, nil, nil, gen)

	for _, req := range []*types.ChatRequest{
		{Company: "", Message: "hello"},
		{Company: "mtn", Message: "   "},
	} {
		_, err := orch.Respond(context.Background(), req)
		require.Error(t, err)
		assert.Equal(t, types.ErrKindClientInput, types.KindOf(err))
	}
	assert.Equal(t, 0, gen.calls)
}

func TestRespondGeneratesWithoutEvidence(t *testing.T) {
	gen := &fakeGenerator{name: "openai", reply: func(system, _ string) (string, error) {
		assert.Contains(t, system, "No specific match was found")
		return "I could not find that, but here is what MTN offers.", nil
	}}
	orch := testOrchestrator(t, nil, nil, gen)

	resp, err := orch.Respond(context.Background(), &types.ChatRequest{
		Company: "mtn",
		Message: "zzqq xyzzy",
	})
	require.NoError(t, err)
	assert.Equal(t, 1, gen.calls)
	assert.Equal(t, 0, resp.ProductsFound)
	assert.Equal(t, types.SearchMethodKeyword, resp.SearchMethod)
}

func TestRespondProviderFallbackOrder(t *testing.T) {
	primary := &fakeGenerator{name: "openai", reply: func(_, _ string) (string, error) {
		return "", types.NewPipelineError(types.ErrKindGenerationRateLimit, "quota exceeded", nil)
	}}
	secondary := &fakeGenerator{name: "gemini", reply: func(_, _ string) (string, error) {
		return "answer from fallback", nil
	}}
	orch := testOrchestrator(t, nil, nil, primary, secondary)

	resp, err := orch.Respond(context.Background(), &types.ChatRequest{Company: "mtn", Message: "momo pay"})
	require.NoError(t, err)
	assert.Equal(t, 1, primary.calls)
	assert.Equal(t, 1, secondary.calls)
	assert.Equal(t, "gemini", resp.Provider)
	assert.Equal(t, "answer from fallback", resp.Response)
}

func TestRespondAllProvidersFail(t *testing.T) {
	failing := func(kind types.ErrorKind) *fakeGenerator {
		return &fakeGenerator{name: "g", reply: func(_, _ string) (string, error) {
			return "", types.NewPipelineError(kind, "provider down", nil)
		}}
	}
	orch := testOrchestrator(t, nil, nil,
		failing(types.ErrKindGenerationRateLimit),
		failing(types.ErrKindGenerationTimeout),
	)

	_, err := orch.Respond(context.Background(), &types.ChatRequest{Company: "mtn", Message: "bundle"})
	require.Error(t, err)
	// The last provider's kind survives translation.
	assert.Equal(t, types.ErrKindGenerationTimeout, types.KindOf(err))
}

func TestRespondBoundsHistoryGivenToProvider(t *testing.T) {
	var seen int
	chain := NewProviderChain(generatorFunc(func(_ context.Context, _ string, history []types.ConversationTurn, _ string) (string, error) {
		seen = len(history)
		return "ok", nil
	}))

	source := newCountingSource(map[string]string{"mtn": mtnKnowledge})
	knowledge := NewKnowledgeService(source, NewKnowledgeCache(), companySet("mtn"))
	orch := NewOrchestrator(knowledge, nil, chain, nil, time.Second)

	history := make([]types.ConversationTurn, 12)
	for i := range history {
		history[i] = types.ConversationTurn{Role: types.RoleUser, Content: "turn"}
	}
	_, err := orch.Respond(context.Background(), &types.ChatRequest{
		Company: "mtn", Message: "bundle", ChatHistory: history,
	})
	require.NoError(t, err)
	assert.Equal(t, historyMaxTurns, seen)
}

// generatorFunc adapts a bare function to the Generator interface.
type generatorFunc func(ctx context.Context, system string, history []types.ConversationTurn, message string) (string, error)

func (f generatorFunc) Name() string { return "func" }

func (f generatorFunc) Generate(ctx context.Context, system string, history []types.ConversationTurn, message string) (string, error) {
	return f(ctx, system, history, message)
}

func TestUserFacingMessage(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{
			name: "client input",
			err:  types.NewPipelineError(types.ErrKindClientInput, "missing fields", nil),
			want: "which company",
		},
		{
			name: "configuration",
			err:  types.NewPipelineError(types.ErrKindConfiguration, "no knowledge base", nil),
			want: "don't have a knowledge base",
		},
		{
			name: "timeout",
			err:  types.NewPipelineError(types.ErrKindGenerationTimeout, "deadline", nil),
			want: "try again shortly",
		},
		{
			name: "rate limit",
			err:  types.NewPipelineError(types.ErrKindGenerationRateLimit, "quota", nil),
			want: "try again shortly",
		},
		{
			name: "generic",
			err:  errors.New("boom"),
			want: "contact support",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := UserFacingMessage(tt.err)
			assert.True(t, strings.Contains(msg, tt.want), "message %q should contain %q", msg, tt.want)
		})
	}
}
