package genai

import "strings"

// extractPayload pulls the useful payload out of a free-form model
// reply. Models routinely wrap structured answers in a markdown fence,
// with or without a language tag; the fenced body wins when present.
func extractPayload(reply string) string {
	i := strings.Index(reply, "```")
	if i < 0 {
		return strings.TrimSpace(reply)
	}

	rest := reply[i+3:]
	// Skip a language tag like "json" on the opening fence line.
	if nl := strings.IndexByte(rest, '\n'); nl >= 0 {
		first := strings.TrimSpace(rest[:nl])
		if first == "" || isLanguageTag(first) {
			rest = rest[nl+1:]
		}
	}
	if j := strings.Index(rest, "```"); j >= 0 {
		rest = rest[:j]
	}
	return strings.TrimSpace(rest)
}

func isLanguageTag(s string) bool {
	for _, r := range s {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') {
			return false
		}
	}
	return len(s) <= 16
}
