package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/chali-ug/chali-be/config"
	"github.com/chali-ug/chali-be/types"
)

// SemanticSearcher is the port to the embedding-index backend. The backend
// lives outside this service (a separate Python runtime, or a Weaviate
// cluster) and must be treated as slow or absent.
type SemanticSearcher interface {
	Search(ctx context.Context, company, query string, limit int) ([]types.SemanticChunk, error)
}

// ProcessBridge invokes a company's vector search script as a child
// process, one fire-and-collect round trip per call. The caller's context
// carries the wall-clock budget; on expiry the child is killed and the
// in-flight result discarded.
type ProcessBridge struct {
	pythonBin string
	scripts   map[string]string
}

func NewProcessBridge(pythonBin string, companies map[string]config.CompanyConfig) *ProcessBridge {
	scripts := make(map[string]string, len(companies))
	for id, cc := range companies {
		if cc.Semantic && cc.SemanticScript != "" {
			scripts[strings.ToLower(id)] = cc.SemanticScript
		}
	}
	return &ProcessBridge{
		pythonBin: pythonBin,
		scripts:   scripts,
	}
}

func (b *ProcessBridge) Search(ctx context.Context, company, query string, limit int) ([]types.SemanticChunk, error) {
	script, ok := b.scripts[strings.ToLower(strings.TrimSpace(company))]
	if !ok {
		return nil, fmt.Errorf("%q has no semantic index: %w", company, types.ErrBackendUnavailable)
	}
	if _, err := os.Stat(script); err != nil {
		return nil, fmt.Errorf("index script %s missing: %w", script, types.ErrBackendUnavailable)
	}
	if limit <= 0 {
		limit = keywordMaxResults
	}

	cmd := exec.CommandContext(ctx, b.pythonBin, script,
		"--query", query,
		"--limit", strconv.Itoa(limit),
	)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	// A killed script can leave a child holding the output pipe; don't let
	// that hold the request past its deadline.
	cmd.WaitDelay = time.Second

	err := cmd.Run()
	if ctx.Err() != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("search for %q: %w", company, types.ErrSearchTimeout)
		}
		return nil, ctx.Err()
	}
	if err != nil {
		return nil, fmt.Errorf("search process for %q failed: %v (stderr: %s)",
			company, err, strings.TrimSpace(stderr.String()))
	}

	return parseSearchOutput(stdout.Bytes(), company)
}

// backendError is the error object form the backend emits instead of a
// result array.
type backendError struct {
	Error string `json:"error"`
	Type  string `json:"type"`
}

func parseSearchOutput(out []byte, company string) ([]types.SemanticChunk, error) {
	trimmed := bytes.TrimSpace(out)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("empty output from search process for %q", company)
	}

	if trimmed[0] == '{' {
		var be backendError
		if err := json.Unmarshal(trimmed, &be); err == nil && be.Error != "" {
			if be.Type == "index_missing" {
				return nil, fmt.Errorf("%s: %w", be.Error, types.ErrBackendUnavailable)
			}
			return nil, fmt.Errorf("search backend error (%s): %s", be.Type, be.Error)
		}
		return nil, fmt.Errorf("malformed output from search process for %q", company)
	}

	var chunks []types.SemanticChunk
	if err := json.Unmarshal(trimmed, &chunks); err != nil {
		return nil, fmt.Errorf("malformed output from search process for %q: %w", company, err)
	}
	return chunks, nil
}
