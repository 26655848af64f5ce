package types

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// KnowledgeDocument is the per-company knowledge base. It is loaded once per
// process lifetime and never mutated afterwards.
type KnowledgeDocument struct {
	Company     string
	LastUpdated string
	Entries     []Entry
}

// Entry is one product or service record. Upstream documents use several
// naming conventions for the same concept ("product_name" vs "service_name"
// vs "title"); decoding maps every accepted alias onto these canonical
// fields so nothing downstream has to care.
type Entry struct {
	Name         string
	Overview     string
	Features     []string
	Pricing      []string
	Cost         []string
	Activation   []string
	Deactivation []string
	ShortCodes   []string
	HowToUse     []string
	FAQs         []FAQ
	Terms        string
	Validity     string
	Contact      string
	SourceURL    string

	// raw keeps the original decoded object so searchable-text extraction
	// can flatten fields this struct does not model.
	raw map[string]any
}

// FAQ is either a plain string or a question/answer pair upstream.
type FAQ struct {
	Question string
	Answer   string
}

func (f FAQ) String() string {
	if f.Answer == "" {
		return f.Question
	}
	return fmt.Sprintf("Q: %s A: %s", f.Question, f.Answer)
}

var (
	entrySequenceAliases = []string{"products", "services", "items"}

	nameAliases         = []string{"product_name", "service_name", "name", "title"}
	overviewAliases     = []string{"overview", "description", "summary"}
	featuresAliases     = []string{"features", "benefits"}
	pricingAliases      = []string{"pricing", "prices"}
	costAliases         = []string{"cost", "costs"}
	activationAliases   = []string{"activation", "activation_steps", "how_to_activate"}
	deactivationAliases = []string{"deactivation", "deactivation_steps", "how_to_deactivate"}
	shortCodeAliases    = []string{"ussd_codes", "short_codes", "shortcodes", "codes"}
	howToUseAliases     = []string{"how_to_use", "usage", "instructions"}
	faqAliases          = []string{"faqs", "faq"}
	termsAliases        = []string{"terms", "terms_and_conditions"}
	validityAliases     = []string{"validity", "valid_for"}
	contactAliases      = []string{"contact", "contact_info", "contacts"}
	sourceURLAliases    = []string{"source_url", "url", "link"}
)

// UnmarshalJSON accepts "products", "services" or "items" as the entry
// sequence and tolerates missing metadata.
func (d *KnowledgeDocument) UnmarshalJSON(data []byte) error {
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(data, &doc); err != nil {
		return err
	}

	if raw, ok := doc["company"]; ok {
		json.Unmarshal(raw, &d.Company)
	} else if raw, ok := doc["company_name"]; ok {
		json.Unmarshal(raw, &d.Company)
	}
	if raw, ok := doc["last_updated"]; ok {
		json.Unmarshal(raw, &d.LastUpdated)
	}

	d.Entries = []Entry{}
	for _, alias := range entrySequenceAliases {
		raw, ok := doc[alias]
		if !ok {
			continue
		}
		var entries []Entry
		if err := json.Unmarshal(raw, &entries); err != nil {
			return fmt.Errorf("decoding %q: %w", alias, err)
		}
		d.Entries = entries
		break
	}
	return nil
}

// UnmarshalJSON normalizes the flexible upstream schema into canonical
// fields. Every optional sequence decodes to an empty slice, never nil, so
// scoring and rendering code only ever checks length.
func (e *Entry) UnmarshalJSON(data []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	e.raw = raw

	e.Name = firstString(raw, nameAliases)
	e.Overview = firstString(raw, overviewAliases)
	e.Features = firstStrings(raw, featuresAliases)
	e.Pricing = firstStrings(raw, pricingAliases)
	e.Cost = firstStrings(raw, costAliases)
	e.Activation = firstStrings(raw, activationAliases)
	e.Deactivation = firstStrings(raw, deactivationAliases)
	e.ShortCodes = firstStrings(raw, shortCodeAliases)
	e.HowToUse = firstStrings(raw, howToUseAliases)
	e.FAQs = firstFAQs(raw, faqAliases)
	e.Terms = firstString(raw, termsAliases)
	e.Validity = firstString(raw, validityAliases)
	e.Contact = firstString(raw, contactAliases)
	e.SourceURL = firstString(raw, sourceURLAliases)
	return nil
}

// SearchableText flattens the entire entry, including fields the canonical
// struct does not model, into a single lowercase string.
func (e *Entry) SearchableText() string {
	var sb strings.Builder
	if e.raw != nil {
		flattenValue(&sb, e.raw)
	} else {
		// Entries built in code rather than decoded from JSON.
		flattenValue(&sb, []any{
			e.Name, e.Overview, joinAny(e.Features), joinAny(e.Pricing),
			joinAny(e.Cost), joinAny(e.Activation), joinAny(e.Deactivation),
			joinAny(e.ShortCodes), joinAny(e.HowToUse), e.Terms, e.Validity,
			e.Contact, e.SourceURL, faqText(e.FAQs),
		})
	}
	return strings.ToLower(strings.TrimSpace(sb.String()))
}

func joinAny(ss []string) string { return strings.Join(ss, " ") }

func faqText(faqs []FAQ) string {
	parts := make([]string, 0, len(faqs))
	for _, f := range faqs {
		parts = append(parts, f.String())
	}
	return strings.Join(parts, " ")
}

func flattenValue(sb *strings.Builder, v any) {
	switch val := v.(type) {
	case string:
		if val != "" {
			sb.WriteString(val)
			sb.WriteByte(' ')
		}
	case float64:
		fmt.Fprintf(sb, "%v ", val)
	case bool:
		fmt.Fprintf(sb, "%v ", val)
	case []any:
		for _, item := range val {
			flattenValue(sb, item)
		}
	case []string:
		for _, item := range val {
			flattenValue(sb, item)
		}
	case map[string]any:
		// Deterministic order so scoring is reproducible.
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			flattenValue(sb, val[k])
		}
	}
}

func firstString(raw map[string]any, aliases []string) string {
	for _, alias := range aliases {
		v, ok := raw[alias]
		if !ok {
			continue
		}
		switch val := v.(type) {
		case string:
			if val != "" {
				return val
			}
		case map[string]any:
			var sb strings.Builder
			flattenValue(&sb, val)
			if s := strings.TrimSpace(sb.String()); s != "" {
				return s
			}
		}
	}
	return ""
}

func firstStrings(raw map[string]any, aliases []string) []string {
	for _, alias := range aliases {
		v, ok := raw[alias]
		if !ok {
			continue
		}
		switch val := v.(type) {
		case string:
			if val != "" {
				return []string{val}
			}
		case []any:
			out := make([]string, 0, len(val))
			for _, item := range val {
				switch s := item.(type) {
				case string:
					if strings.TrimSpace(s) != "" {
						out = append(out, s)
					}
				default:
					var sb strings.Builder
					flattenValue(&sb, item)
					if t := strings.TrimSpace(sb.String()); t != "" {
						out = append(out, t)
					}
				}
			}
			if len(out) > 0 {
				return out
			}
		}
	}
	return []string{}
}

func firstFAQs(raw map[string]any, aliases []string) []FAQ {
	for _, alias := range aliases {
		v, ok := raw[alias]
		if !ok {
			continue
		}
		items, ok := v.([]any)
		if !ok {
			continue
		}
		out := make([]FAQ, 0, len(items))
		for _, item := range items {
			switch val := item.(type) {
			case string:
				if strings.TrimSpace(val) != "" {
					out = append(out, FAQ{Question: val})
				}
			case map[string]any:
				q := firstString(val, []string{"question", "q"})
				a := firstString(val, []string{"answer", "a"})
				if q != "" || a != "" {
					out = append(out, FAQ{Question: q, Answer: a})
				}
			}
		}
		if len(out) > 0 {
			return out
		}
	}
	return []FAQ{}
}
