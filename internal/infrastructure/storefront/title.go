package storefront

import (
	"html"
	"net/url"
	"regexp"
	"strings"
)

// Compiled patterns for title cleanup
var (
	// Trailing brand tags such as " | Bambu Lab US" or " – Bambu Lab EU Store"
	brandSuffixPattern = regexp.MustCompile(`(?i)\s*[|–—]\s*Bambu\s*Lab\b.*$`)

	multiSpacePattern = regexp.MustCompile(`\s+`)
)

// CleanTitle decodes entities, strips a trailing brand suffix and collapses whitespace
func CleanTitle(title string) string {
	if title == "" {
		return ""
	}

	cleaned := html.UnescapeString(title)
	cleaned = brandSuffixPattern.ReplaceAllString(cleaned, "")
	cleaned = multiSpacePattern.ReplaceAllString(cleaned, " ")
	return strings.TrimSpace(cleaned)
}

// NormalizeImageURL makes an image reference absolute against the page origin.
// "//cdn/x.png" gets an https scheme, "/x.png" gets the page origin, and other
// relative forms are resolved against the page URL.
func NormalizeImageURL(image string, base *url.URL) string {
	image = strings.TrimSpace(html.UnescapeString(image))
	if image == "" {
		return ""
	}

	switch {
	case strings.HasPrefix(image, "//"):
		return "https:" + image
	case strings.HasPrefix(image, "/"):
		if base == nil {
			return ""
		}
		return base.Scheme + "://" + base.Host + image
	}

	parsed, err := url.Parse(image)
	if err != nil {
		return ""
	}
	if parsed.IsAbs() {
		if parsed.Scheme != "http" && parsed.Scheme != "https" {
			return ""
		}
		return parsed.String()
	}
	if base == nil {
		return ""
	}
	return base.ResolveReference(parsed).String()
}
