package storefront

import (
	"regexp"
	"strconv"
	"strings"
)

// hydrationWindow bounds how far past the variant id a "value" field may appear.
// The window may not cross a brace, which keeps the match inside one JSON object.
const hydrationWindow = 600

// ExtractColorFromHydrationPayload scans inlined framework state for the
// variant id followed by a "value" field in the same object. Frameworks that
// embed JSON inside JSON strings escape the quotes, so the escaped form is
// tried first and the plain form second. Returns "" when nothing matches.
func ExtractColorFromHydrationPayload(html, variantID string) string {
	variantID = strings.TrimSpace(variantID)
	if html == "" || variantID == "" {
		return ""
	}

	for _, pattern := range hydrationPatterns(variantID) {
		if m := pattern.FindStringSubmatch(html); len(m) > 1 {
			value := strings.TrimSpace(unescapeJSONFragment(m[1]))
			if value != "" {
				return value
			}
		}
	}
	return ""
}

// hydrationPatterns builds the escaped-quote and plain-quote patterns for one id
func hydrationPatterns(variantID string) []*regexp.Regexp {
	id := regexp.QuoteMeta(variantID)
	window := "[^{}]{0," + strconv.Itoa(hydrationWindow) + "}?"
	// The id must end at a non-word character so 40001 never matches 400012.
	// Braces are excluded so the boundary cannot step into another object.
	end := `(?:[^0-9A-Za-z_{}]|$)`

	escaped := `(?:^|[^0-9A-Za-z_])` + id + `(?:\\+")?` + end + window +
		`\\+"value\\+"\s*:\s*\\+"((?:[^"\\]|\\+[^"\\])+?)\\+"`
	plain := `(?:^|[^0-9A-Za-z_])` + id + `"?` + end + window +
		`"value"\s*:\s*"((?:[^"\\]|\\.)+?)"`

	return []*regexp.Regexp{
		regexp.MustCompile(escaped),
		regexp.MustCompile(plain),
	}
}

// unescapeJSONFragment removes the backslash layers left on a captured value
func unescapeJSONFragment(s string) string {
	for strings.Contains(s, `\\`) {
		s = strings.ReplaceAll(s, `\\`, `\`)
	}
	replacer := strings.NewReplacer(`\/`, `/`, `\"`, `"`, `\u0026`, `&`, `\u003c`, `<`, `\u003e`, `>`)
	return replacer.Replace(s)
}
