package usecase

import (
	"encoding/base64"
	"encoding/json"
	"net/url"
	"strings"

	"github.com/baglabel/backend/internal/domain"
)

const (
	// DefaultProductPathMarker identifies product detail pages on the storefront
	DefaultProductPathMarker = "/products/"

	hintSelectVariant = "Open the product page, select a color, then copy the URL from the address bar."
	hintStorefront    = "Paste a product link from the official Bambu Lab store."
)

// DefaultAllowedHosts are the storefront hosts accepted for extraction.
// Subdomains of each host are accepted too.
var DefaultAllowedHosts = []string{"bambulab.com"}

// URLPolicy decides which product URLs the service will fetch.
type URLPolicy struct {
	AllowedHosts      []string
	ProductPathMarker string
}

// Validate parses raw and checks scheme, host and path. It never performs I/O.
func (p URLPolicy) Validate(raw string) (*url.URL, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, domain.NewInputError("url is required", hintStorefront)
	}

	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return nil, domain.NewInputError("url is not a valid absolute URL", hintStorefront)
	}
	if u.Scheme != "https" && u.Scheme != "http" {
		return nil, domain.NewInputError("url must use http or https", hintStorefront)
	}
	if !p.hostAllowed(u.Hostname()) {
		return nil, domain.NewInputError("url is not on a supported storefront", hintStorefront)
	}

	marker := p.ProductPathMarker
	if marker == "" {
		marker = DefaultProductPathMarker
	}
	if !strings.Contains(u.Path, marker) {
		return nil, domain.NewInputError("url is not a product page", hintStorefront)
	}
	return u, nil
}

func (p URLPolicy) hostAllowed(host string) bool {
	host = strings.ToLower(strings.TrimSuffix(host, "."))
	allowed := p.AllowedHosts
	if len(allowed) == 0 {
		allowed = DefaultAllowedHosts
	}
	for _, a := range allowed {
		a = strings.ToLower(strings.TrimSpace(a))
		if a == "" {
			continue
		}
		if host == a || strings.HasSuffix(host, "."+a) {
			return true
		}
	}
	return false
}

type variantProperty struct {
	PropertyKey   string `json:"propertyKey"`
	PropertyValue string `json:"propertyValue"`
}

// ParseVariantSelector reads the variant selection carried in a product URL.
// The encoded property blob in "p" wins; otherwise "variant" or "id" is used.
func ParseVariantSelector(u *url.URL) (domain.VariantSelector, error) {
	q := u.Query()

	if blob := q.Get("p"); blob != "" {
		if sel, ok := decodeProperties(blob); ok {
			return sel, nil
		}
	}

	for _, name := range []string{"variant", "id"} {
		if v := strings.TrimSpace(q.Get(name)); v != "" {
			return domain.VariantSelector{VariantID: v}, nil
		}
	}

	return domain.VariantSelector{}, domain.NewInputError("url does not identify a product variant", hintSelectVariant)
}

func decodeProperties(blob string) (domain.VariantSelector, bool) {
	raw, ok := decodeBase64(blob)
	if !ok {
		return domain.VariantSelector{}, false
	}

	var props []variantProperty
	if err := json.Unmarshal(raw, &props); err != nil {
		return domain.VariantSelector{}, false
	}

	var sel domain.VariantSelector
	for _, p := range props {
		value := strings.TrimSpace(p.PropertyValue)
		switch strings.ToLower(strings.TrimSpace(p.PropertyKey)) {
		case "color", "colour":
			sel.Color = value
		case "size", "weight":
			if sel.Size == "" {
				sel.Size = value
			}
		}
	}
	return sel, sel.FromProperties()
}

// decodeBase64 accepts standard and URL-safe alphabets, padded or not.
// Query decoding turns '+' into ' ', so spaces are restored first.
func decodeBase64(s string) ([]byte, bool) {
	s = strings.ReplaceAll(strings.TrimSpace(s), " ", "+")
	for _, enc := range []*base64.Encoding{
		base64.StdEncoding,
		base64.URLEncoding,
		base64.RawStdEncoding,
		base64.RawURLEncoding,
	} {
		if b, err := enc.DecodeString(s); err == nil {
			return b, true
		}
	}
	return nil, false
}
