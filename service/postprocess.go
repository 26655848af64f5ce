package service

import (
	"regexp"
	"strings"

	"github.com/chali-ug/chali-be/types"
)

const maxQuickReplies = 4

var (
	imagePattern = regexp.MustCompile(`!\[([^\]]*)\]\([^)]*\)`)
	linkPattern  = regexp.MustCompile(`\[([^\]]*)\]\([^)]*\)`)
	boldPattern  = regexp.MustCompile(`\*\*([^*]*)\*\*`)
	// Single-asterisk emphasis must start with a letter so USSD codes
	// like *150*1# survive cleanup.
	italicPattern     = regexp.MustCompile(`\*([A-Za-z][^*]*)\*`)
	boldUnderPattern  = regexp.MustCompile(`__([^_]*)__`)
	underPattern      = regexp.MustCompile(`_([^_]*)_`)
	inlineCodePattern = regexp.MustCompile("`([^`]*)`")
	headingPattern    = regexp.MustCompile(`^#{1,6}\s+`)
	numberedPattern   = regexp.MustCompile(`^\d+[.)]\s+`)
	bulletPattern     = regexp.MustCompile(`^[-*+]\s+`)
	hrPattern         = regexp.MustCompile(`^(-{3,}|\*{3,}|_{3,})\s*$`)
	fencePattern      = regexp.MustCompile("^```")
)

var genericQuickReplies = []string{"Other products", "Contact support", "Help me choose"}

// PostProcessor cleans model output for plain-text chat rendering and
// derives quick-reply suggestions from the evidence that grounded the
// reply.
type PostProcessor struct{}

func NewPostProcessor() *PostProcessor {
	return &PostProcessor{}
}

// Clean strips markdown artifacts from generated text. Cleaning is
// idempotent: running it on already-clean text returns the text unchanged.
func (p *PostProcessor) Clean(raw string) string {
	lines := strings.Split(raw, "\n")
	out := make([]string, 0, len(lines))
	blankRun := 0
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if fencePattern.MatchString(trimmed) || hrPattern.MatchString(trimmed) {
			continue
		}

		trimmed = headingPattern.ReplaceAllString(trimmed, "")
		trimmed = numberedPattern.ReplaceAllString(trimmed, "")
		if bulletPattern.MatchString(trimmed) {
			trimmed = bulletPattern.ReplaceAllString(trimmed, "• ")
		}

		trimmed = imagePattern.ReplaceAllString(trimmed, "$1")
		trimmed = linkPattern.ReplaceAllString(trimmed, "$1")
		trimmed = inlineCodePattern.ReplaceAllString(trimmed, "$1")
		trimmed = boldPattern.ReplaceAllString(trimmed, "$1")
		trimmed = italicPattern.ReplaceAllString(trimmed, "$1")
		trimmed = boldUnderPattern.ReplaceAllString(trimmed, "$1")
		trimmed = underPattern.ReplaceAllString(trimmed, "$1")
		trimmed = strings.TrimSpace(trimmed)

		if trimmed == "" {
			blankRun++
			if blankRun > 1 {
				continue
			}
			out = append(out, "")
			continue
		}
		blankRun = 0
		out = append(out, trimmed)
	}
	return strings.TrimSpace(strings.Join(out, "\n"))
}

// QuickReplies builds up to four follow-up suggestions from the evidence
// used for generation. Evidence-specific suggestions come first, generic
// prompts pad the rest; suggestions whose subject already appears in the
// reply are skipped as redundant.
func (p *PostProcessor) QuickReplies(cleanText string, chunks []types.SemanticChunk, entries []types.Entry) []string {
	lower := strings.ToLower(cleanText)
	replies := make([]string, 0, maxQuickReplies)
	seen := make(map[string]bool)

	add := func(reply string) {
		if len(replies) >= maxQuickReplies || reply == "" {
			return
		}
		key := strings.ToLower(reply)
		if seen[key] {
			return
		}
		seen[key] = true
		replies = append(replies, reply)
	}

	switch {
	case len(chunks) > 0:
		for _, chunk := range chunks {
			if topic := chunk.Meta("topic"); topic != "" && !strings.Contains(lower, strings.ToLower(topic)) {
				add("More about " + topic)
			}
			if category := chunk.Meta("category"); category != "" && !strings.Contains(lower, strings.ToLower(category)) {
				add("Other " + category + " info")
			}
			if len(replies) >= maxQuickReplies {
				break
			}
		}
	case len(entries) > 0:
		top := entries[0]
		if (len(top.Pricing) > 0 || len(top.Cost) > 0) && !strings.Contains(lower, "pricing") {
			add("Show pricing")
		}
		if len(top.Activation) > 0 && !strings.Contains(lower, "activat") {
			add("How to activate?")
		}
		if len(top.FAQs) > 0 && !strings.Contains(lower, "faq") {
			add("FAQs")
		}
		if len(top.Features) > 0 && !strings.Contains(lower, "feature") {
			add("Features")
		}
		if top.Contact != "" && !strings.Contains(lower, "contact") {
			add("Contact information")
		}
	}

	for _, generic := range genericQuickReplies {
		add(generic)
	}
	return replies
}
