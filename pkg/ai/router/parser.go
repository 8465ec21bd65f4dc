package router

import (
	"strings"

	"ai-chat-router-be/pkg/ai/classifier"
)

// Prefix constants - ORDER MATTERS for parsing (check longer prefix first)
const (
	PrefixHealthcare = "/healthcare"
	PrefixEducation  = "/education"
	PrefixEdu        = "/edu"
	PrefixGeneral    = "/general"
)

var prefixes = []struct {
	prefix   string
	category classifier.Category
}{
	{PrefixHealthcare, classifier.Healthcare},
	{PrefixEducation, classifier.Education},
	{PrefixEdu, classifier.Education},
	{PrefixGeneral, classifier.General},
}

// ParsedPrompt contains routing information extracted from prompt
type ParsedPrompt struct {
	OriginalPrompt string              // Full original prompt
	CleanPrompt    string              // Prompt without prefix
	Forced         classifier.Category // Empty unless a directive was present
}

// Parse extracts an endpoint directive from the prompt.
// Supports:
//   - /healthcare <prompt> → healthcare endpoint
//   - /education <prompt> or /edu <prompt> → education endpoint
//   - /general <prompt> → general endpoint
//   - <prompt> → no directive, classification decides
func Parse(prompt string) *ParsedPrompt {
	trimmed := strings.TrimSpace(prompt)
	lower := strings.ToLower(trimmed)

	for _, p := range prefixes {
		if !strings.HasPrefix(lower, p.prefix) {
			continue
		}
		rest := trimmed[len(p.prefix):]
		// "/educational" is not "/edu"
		if rest != "" && rest[0] != ' ' {
			continue
		}
		return &ParsedPrompt{
			OriginalPrompt: prompt,
			CleanPrompt:    strings.TrimSpace(rest),
			Forced:         p.category,
		}
	}

	return &ParsedPrompt{
		OriginalPrompt: prompt,
		CleanPrompt:    prompt,
	}
}

// IsEmpty returns true if the clean prompt is empty
func (p *ParsedPrompt) IsEmpty() bool {
	return strings.TrimSpace(p.CleanPrompt) == ""
}

// HasDirective reports whether the prompt carried an endpoint prefix
func (p *ParsedPrompt) HasDirective() bool {
	return p.Forced != ""
}
