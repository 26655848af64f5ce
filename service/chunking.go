package service

import (
	"fmt"
	"strings"

	"github.com/chali-ug/chali-be/types"
)

// Target chunk size in characters for the semantic index.
const chunkTargetSize = 500

// BuildChunks flattens a knowledge document into semantic chunks for
// indexing. Each entry becomes one or more chunks of labeled lines
// ("Product: ...", "Pricing: ..."), grouped up to the target size so a
// single chunk stays a coherent unit of meaning.
func BuildChunks(doc *types.KnowledgeDocument) []types.SemanticChunk {
	var chunks []types.SemanticChunk
	for _, entry := range doc.Entries {
		lines := entryLines(&entry)
		if len(lines) == 0 {
			continue
		}

		meta := map[string]string{
			"topic":    entry.Name,
			"category": doc.Company,
			"type":     "product_info",
		}
		if entry.SourceURL != "" {
			meta["source_url"] = entry.SourceURL
		}

		var current []string
		size := 0
		flush := func() {
			if len(current) == 0 {
				return
			}
			chunks = append(chunks, types.SemanticChunk{
				Content:  strings.Join(current, "\n"),
				Metadata: meta,
			})
			current = nil
			size = 0
		}
		for _, line := range lines {
			if size > 0 && size+len(line) > chunkTargetSize {
				flush()
			}
			current = append(current, line)
			size += len(line)
		}
		flush()
	}
	return chunks
}

func entryLines(e *types.Entry) []string {
	var lines []string
	push := func(label, value string) {
		if strings.TrimSpace(value) != "" {
			lines = append(lines, fmt.Sprintf("%s: %s", label, value))
		}
	}
	pushAll := func(label string, values []string) {
		for _, v := range values {
			push(label, v)
		}
	}

	push("Product", e.Name)
	push("Overview", e.Overview)
	pushAll("Feature", e.Features)
	pushAll("Pricing", e.Pricing)
	pushAll("Cost", e.Cost)
	pushAll("Activation", e.Activation)
	pushAll("Deactivation", e.Deactivation)
	pushAll("Code", e.ShortCodes)
	pushAll("Usage", e.HowToUse)
	for _, faq := range e.FAQs {
		push("FAQ", faq.String())
	}
	push("Terms", e.Terms)
	push("Validity", e.Validity)
	push("Contact", e.Contact)
	return lines
}
