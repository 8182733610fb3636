package llm

import (
	"encoding/json"
	"regexp"
	"strings"
)

// maxDiagnosticTextBytes caps the response-text snippet carried by
// NoImageReturnedError.
const maxDiagnosticTextBytes = 100

var (
	markdownImageRe = regexp.MustCompile(`!\[[^\]]*\]\((https?://[^\s)]+|data:image/[^)\s]+)\)`)
	bareImageURLRe  = regexp.MustCompile(`https?://[^\s"'<>]+\.(?:png|jpe?g|gif|webp)(?:\?[^\s"'<>]*)?`)
)

// firstImageInTexts scans response texts for an image reference. All texts
// are checked for markdown image links first, then bare image URLs, then
// raw data URLs, so an unrelated URL fragment in an earlier text cannot
// shadow a real image reference later in the response.
func firstImageInTexts(texts []string) string {
	for _, t := range texts {
		if m := markdownImageRe.FindStringSubmatch(t); m != nil {
			return m[1]
		}
	}
	for _, t := range texts {
		if m := bareImageURLRe.FindString(t); m != "" {
			return m
		}
	}
	for _, t := range texts {
		if m := firstDataURL(t); m != "" {
			return m
		}
	}
	return ""
}

// firstDataURL returns the first data:image/... token in text, cut at the
// first whitespace or closing delimiter.
func firstDataURL(text string) string {
	idx := strings.Index(text, "data:image/")
	if idx < 0 {
		return ""
	}
	rest := text[idx:]
	end := strings.IndexFunc(rest, func(r rune) bool {
		switch r {
		case ' ', '\t', '\n', '\r', ')', '"', '\'', '<', '>':
			return true
		}
		return false
	})
	if end < 0 {
		return rest
	}
	return rest[:end]
}

// StripDataURLPrefix removes a data:*;base64, prefix, returning the bare
// base64 payload. Values without a prefix pass through unchanged.
func StripDataURLPrefix(value string) string {
	if !strings.HasPrefix(value, "data:") {
		return value
	}
	if idx := strings.IndexByte(value, ','); idx >= 0 {
		return value[idx+1:]
	}
	return value
}

// extractStringArray parses the first well-formed JSON array of strings
// found in raw, tolerating code fences and surrounding prose.
func extractStringArray(raw string) ([]string, bool) {
	cleaned := strings.ReplaceAll(raw, "```json", "")
	cleaned = strings.ReplaceAll(cleaned, "```", "")

	start := strings.Index(cleaned, "[")
	for start >= 0 {
		depth := 0
		for i := start; i < len(cleaned); i++ {
			switch cleaned[i] {
			case '[':
				depth++
			case ']':
				depth--
				if depth == 0 {
					var out []string
					if err := json.Unmarshal([]byte(cleaned[start:i+1]), &out); err == nil && len(out) > 0 {
						return out, true
					}
					i = len(cleaned)
				}
			}
		}
		next := strings.Index(cleaned[start+1:], "[")
		if next < 0 {
			break
		}
		start += 1 + next
	}
	return nil, false
}

// snippet truncates s for diagnostics.
func snippet(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
