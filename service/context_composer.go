package service

import (
	"fmt"
	"strings"

	"github.com/chali-ug/chali-be/types"
)

const (
	composerMaxChunks   = 5
	composerMaxEntries  = 3
	composerMaxFeatures = 3
	composerMaxFAQs     = 2
	historyMaxTurns     = 5
)

// behaviorInstructions is appended to every composed context regardless of
// which evidence path produced it.
const behaviorInstructions = `Guidelines:
- Keep a warm, conversational tone. Use emojis sparingly.
- When the information above includes exact prices, codes or steps, quote them exactly.
- If the customer wants to pay, direct them to the Pay screen in the app rather than taking payment details in chat.
- If you are not sure about something, say so honestly instead of guessing.
- End your reply with a suggested next step for the customer.`

// ContextComposer turns the selected evidence into the single bounded
// system-context block handed to the generation provider.
type ContextComposer struct{}

func NewContextComposer() *ContextComposer {
	return &ContextComposer{}
}

// Compose builds the system context. Semantic chunks take precedence over
// keyword entries; with neither, a neutral framing is used so generation
// can still offer general guidance.
func (c *ContextComposer) Compose(company string, chunks []types.SemanticChunk, entries []types.Entry) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "You are the customer support assistant for %s in Uganda.\n\n", company)

	switch {
	case len(chunks) > 0:
		c.writeChunks(&sb, chunks)
	case len(entries) > 0:
		c.writeEntries(&sb, entries)
	default:
		sb.WriteString("No specific match was found in the knowledge base for this question. ")
		sb.WriteString("Offer general support and suggest how the customer could rephrase or what related services exist.\n")
	}

	sb.WriteString("\n")
	sb.WriteString(behaviorInstructions)
	return sb.String()
}

func (c *ContextComposer) writeChunks(sb *strings.Builder, chunks []types.SemanticChunk) {
	sb.WriteString("Relevant knowledge base excerpts, ranked most relevant first:\n\n")
	n := len(chunks)
	if n > composerMaxChunks {
		n = composerMaxChunks
	}
	for i := 0; i < n; i++ {
		chunk := chunks[i]
		topic := chunk.Meta("topic")
		if topic == "" {
			topic = "General"
		}
		if category := chunk.Meta("category"); category != "" {
			fmt.Fprintf(sb, "[Source %d] %s (%s)\n%s\n\n", i+1, topic, category, strings.TrimSpace(chunk.Content))
		} else {
			fmt.Fprintf(sb, "[Source %d] %s\n%s\n\n", i+1, topic, strings.TrimSpace(chunk.Content))
		}
	}
	sb.WriteString("Prefer the ranked evidence above when answering; earlier sources are better matches.\n")
}

func (c *ContextComposer) writeEntries(sb *strings.Builder, entries []types.Entry) {
	sb.WriteString("Matching products and services from the knowledge base:\n\n")
	n := len(entries)
	if n > composerMaxEntries {
		n = composerMaxEntries
	}
	for i := 0; i < n; i++ {
		c.writeEntry(sb, &entries[i])
	}
}

// writeEntry renders only the fields the entry actually has; absent fields
// are omitted, never rendered as empty placeholders.
func (c *ContextComposer) writeEntry(sb *strings.Builder, e *types.Entry) {
	fmt.Fprintf(sb, "Product: %s\n", e.Name)
	if e.Overview != "" {
		fmt.Fprintf(sb, "Overview: %s\n", e.Overview)
	}
	if len(e.Pricing) > 0 {
		fmt.Fprintf(sb, "Pricing: %s\n", strings.Join(e.Pricing, "; "))
	}
	if len(e.Cost) > 0 {
		fmt.Fprintf(sb, "Cost: %s\n", strings.Join(e.Cost, "; "))
	}
	if len(e.Activation) > 0 {
		fmt.Fprintf(sb, "How to activate: %s\n", strings.Join(e.Activation, " | "))
	}
	if len(e.ShortCodes) > 0 {
		fmt.Fprintf(sb, "Short codes: %s\n", strings.Join(e.ShortCodes, ", "))
	}
	if len(e.Features) > 0 {
		features := e.Features
		if len(features) > composerMaxFeatures {
			features = features[:composerMaxFeatures]
		}
		fmt.Fprintf(sb, "Features: %s\n", strings.Join(features, "; "))
	}
	if len(e.FAQs) > 0 {
		faqs := e.FAQs
		if len(faqs) > composerMaxFAQs {
			faqs = faqs[:composerMaxFAQs]
		}
		for _, faq := range faqs {
			fmt.Fprintf(sb, "%s\n", faq.String())
		}
	}
	if e.Contact != "" {
		fmt.Fprintf(sb, "Contact: %s\n", e.Contact)
	}
	if e.SourceURL != "" {
		fmt.Fprintf(sb, "More info: %s\n", e.SourceURL)
	}
	sb.WriteString("\n")
}

// BoundHistory returns at most the last n turns, oldest to newest.
func BoundHistory(history []types.ConversationTurn, n int) []types.ConversationTurn {
	if len(history) <= n {
		return history
	}
	return history[len(history)-n:]
}
