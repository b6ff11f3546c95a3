package storefront

import (
	"html"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var (
	titleTagPattern = regexp.MustCompile(`(?is)<title[^>]*>([^<]+)</title>`)

	// Shopify themes mark the main product photo with this class, either on
	// the img itself or on its wrapper
	productPhotoPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?is)<img[^>]+class=["'][^"']*product-single__photo[^"']*["'][^>]*?\ssrc=["']([^"']+)["']`),
		regexp.MustCompile(`(?is)class=["'][^"']*product-single__photo[^"']*["'][^>]*>\s*<img[^>]+?\ssrc=["']([^"']+)["']`),
	}
)

const productPhotoSelector = `.product-single__photo img, img.product-single__photo, .product__media img, [data-product-featured-media] img`

func metaProperty(property string) func(p *Page) string {
	return func(p *Page) string {
		if p.Doc == nil {
			return ""
		}
		sel := `meta[property="` + property + `"], meta[name="` + property + `"]`
		var value string
		p.Doc.Find(sel).EachWithBreak(func(_ int, s *goquery.Selection) bool {
			value = strings.TrimSpace(s.AttrOr("content", ""))
			return value == ""
		})
		return value
	}
}

// metaPropertyRegex matches the tag in either attribute order on raw markup
func metaPropertyRegex(property string) func(p *Page) string {
	prop := regexp.QuoteMeta(property)
	patterns := []*regexp.Regexp{
		regexp.MustCompile(`(?i)<meta[^>]+(?:property|name)=["']` + prop + `["'][^>]+content=["']([^"']+)["']`),
		regexp.MustCompile(`(?i)<meta[^>]+content=["']([^"']+)["'][^>]+(?:property|name)=["']` + prop + `["']`),
	}
	return func(p *Page) string {
		for _, re := range patterns {
			if m := re.FindStringSubmatch(p.HTML); len(m) > 1 {
				return html.UnescapeString(strings.TrimSpace(m[1]))
			}
		}
		return ""
	}
}

func titleTag(p *Page) string {
	if p.Doc == nil {
		return ""
	}
	return strings.TrimSpace(p.Doc.Find("head title").First().Text())
}

func titleTagRegex(p *Page) string {
	if m := titleTagPattern.FindStringSubmatch(p.HTML); len(m) > 1 {
		return html.UnescapeString(strings.TrimSpace(m[1]))
	}
	return ""
}

func productPhoto(p *Page) string {
	if p.Doc == nil {
		return ""
	}
	var src string
	p.Doc.Find(productPhotoSelector).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		for _, attr := range []string{"src", "data-src"} {
			if v := strings.TrimSpace(s.AttrOr(attr, "")); v != "" {
				src = v
				return false
			}
		}
		return true
	})
	return src
}

func productPhotoRegex(p *Page) string {
	for _, re := range productPhotoPatterns {
		if m := re.FindStringSubmatch(p.HTML); len(m) > 1 {
			return html.UnescapeString(m[1])
		}
	}
	return ""
}

func structuredName(p *Page) string {
	if data := p.StructuredData(); data != nil {
		return data.Name
	}
	return ""
}

func structuredImage(p *Page) string {
	if data := p.StructuredData(); data != nil {
		return data.Image
	}
	return ""
}
