package chat

import "strings"

// SearchableText builds the canonical text a chat is embedded from: title,
// summary, content, tags, key insights, action items, and category, joined
// by single spaces with empty parts filtered out. Title and summary lead so
// they survive provider-side truncation of long input. The same policy is
// used at save time and implicitly defines what relevance means for a chat.
func SearchableText(req SaveRequest) string {
	parts := make([]string, 0, 3+len(req.Tags)+len(req.KeyInsights)+len(req.ActionItems)+1)

	parts = append(parts, req.Title, req.Summary, req.Content)
	parts = append(parts, req.Tags...)
	parts = append(parts, req.KeyInsights...)
	parts = append(parts, req.ActionItems...)
	parts = append(parts, req.Category)

	kept := parts[:0]
	for _, part := range parts {
		if len(strings.TrimSpace(part)) == 0 {
			continue
		}
		kept = append(kept, part)
	}

	return strings.Join(kept, " ")
}
