package storefront

import (
	"encoding/json"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// variantNamePattern captures the segment after the last " - " that precedes the
// first "/" in names like "PLA Basic - Jade White (10100) / Filament with spool / 1 kg".
var variantNamePattern = regexp.MustCompile(`^[^/]*\s-\s+([^/]+?)\s*(?:/.*)?$`)

// structuredVariant is one purchasable variant recovered from JSON-LD
type structuredVariant struct {
	ID    string
	Name  string
	Color string
	Image string
}

// structuredData is the product-level view of all JSON-LD blocks on a page
type structuredData struct {
	Name     string
	Image    string
	Variants []structuredVariant
}

// parseStructuredData reads every ld+json script block. Blocks that fail to
// decode are skipped; the error count is returned for logging.
func parseStructuredData(doc *goquery.Document) (*structuredData, int) {
	data := &structuredData{}
	failures := 0

	doc.Find(`script[type="application/ld+json"]`).Each(func(_ int, s *goquery.Selection) {
		raw := strings.TrimSpace(s.Text())
		if raw == "" {
			return
		}

		// numbers stay json.Number so numeric skus keep their digits
		decoder := json.NewDecoder(strings.NewReader(raw))
		decoder.UseNumber()

		var decoded interface{}
		if err := decoder.Decode(&decoded); err != nil {
			failures++
			return
		}

		for _, node := range flattenNodes(decoded) {
			collectProduct(data, node)
		}
	})

	return data, failures
}

// flattenNodes expands top-level arrays and @graph containers
func flattenNodes(v interface{}) []map[string]interface{} {
	var nodes []map[string]interface{}

	switch t := v.(type) {
	case []interface{}:
		for _, item := range t {
			nodes = append(nodes, flattenNodes(item)...)
		}
	case map[string]interface{}:
		if graph, ok := t["@graph"]; ok {
			nodes = append(nodes, flattenNodes(graph)...)
		}
		nodes = append(nodes, t)
	}

	return nodes
}

func collectProduct(data *structuredData, node map[string]interface{}) {
	switch {
	case hasType(node, "ProductGroup"):
		if data.Name == "" {
			data.Name = stringValue(node["name"])
		}
		if data.Image == "" {
			data.Image = imageValue(node["image"])
		}
		for _, v := range asSlice(node["hasVariant"]) {
			if variant, ok := v.(map[string]interface{}); ok {
				data.Variants = append(data.Variants, toVariant(variant)...)
			}
		}

	case hasType(node, "Product"):
		if data.Name == "" {
			data.Name = stringValue(node["name"])
		}
		if data.Image == "" {
			data.Image = imageValue(node["image"])
		}
		data.Variants = append(data.Variants, toVariant(node)...)
	}
}

// toVariant yields one entry per identifier the node can be matched by:
// sku, productID, and any variant id carried in its @id, url or offers.
func toVariant(node map[string]interface{}) []structuredVariant {
	name := stringValue(node["name"])
	color := stringValue(node["color"])
	image := imageValue(node["image"])

	ids := []string{
		stringValue(node["sku"]),
		stringValue(node["productID"]),
		variantIDFromURL(stringValue(node["@id"])),
		variantIDFromURL(stringValue(node["url"])),
	}
	for _, o := range asSlice(node["offers"]) {
		if offer, ok := o.(map[string]interface{}); ok {
			ids = append(ids,
				stringValue(offer["sku"]),
				variantIDFromURL(stringValue(offer["url"])),
			)
		}
	}

	var variants []structuredVariant
	seen := make(map[string]bool)
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		variants = append(variants, structuredVariant{ID: id, Name: name, Color: color, Image: image})
	}
	return variants
}

// findVariant returns the variant whose identifier equals id
func (d *structuredData) findVariant(id string) (structuredVariant, bool) {
	for _, v := range d.Variants {
		if v.ID == id {
			return v, true
		}
	}
	return structuredVariant{}, false
}

// ColorFromVariantName extracts the color segment from a vendor variant name.
// Falls back to "" when the name does not follow the "<Product> - <Color> / ..." shape.
func ColorFromVariantName(name string) string {
	m := variantNamePattern.FindStringSubmatch(strings.TrimSpace(name))
	if len(m) < 2 {
		return ""
	}
	return strings.TrimSpace(m[1])
}

func variantIDFromURL(raw string) string {
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	q := u.Query()
	if v := q.Get("variant"); v != "" {
		return v
	}
	return q.Get("id")
}

func hasType(node map[string]interface{}, want string) bool {
	for _, t := range asSlice(node["@type"]) {
		s, _ := t.(string)
		if strings.EqualFold(strings.TrimPrefix(s, "http://schema.org/"), want) ||
			strings.EqualFold(strings.TrimPrefix(s, "https://schema.org/"), want) {
			return true
		}
	}
	return false
}

func asSlice(v interface{}) []interface{} {
	switch t := v.(type) {
	case nil:
		return nil
	case []interface{}:
		return t
	default:
		return []interface{}{t}
	}
}

func stringValue(v interface{}) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case json.Number:
		return t.String()
	default:
		return ""
	}
}

// imageValue accepts a URL string, an ImageObject, or a list of either
func imageValue(v interface{}) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case map[string]interface{}:
		if u := stringValue(t["url"]); u != "" {
			return u
		}
		return stringValue(t["contentUrl"])
	case []interface{}:
		for _, item := range t {
			if img := imageValue(item); img != "" {
				return img
			}
		}
	}
	return ""
}
