package storefront

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/sirupsen/logrus"

	"github.com/baglabel/backend/internal/domain"
)

// Page is the parsed input shared by every strategy
type Page struct {
	HTML      string
	Doc       *goquery.Document // nil when the HTML could not be parsed
	Base      *url.URL          // nil when the source URL could not be parsed
	VariantID string

	structured       *structuredData
	structuredParsed bool
	structuredErrors int
}

// NewPage parses html once for all strategies
func NewPage(html, sourceURL, variantID string) *Page {
	p := &Page{HTML: html, VariantID: variantID}
	if doc, err := goquery.NewDocumentFromReader(strings.NewReader(html)); err == nil {
		p.Doc = doc
	}
	if base, err := url.Parse(sourceURL); err == nil && base.Host != "" {
		p.Base = base
	}
	return p
}

// StructuredData parses JSON-LD lazily and memoizes the result
func (p *Page) StructuredData() *structuredData {
	if !p.structuredParsed {
		p.structuredParsed = true
		if p.Doc != nil {
			p.structured, p.structuredErrors = parseStructuredData(p.Doc)
		}
	}
	return p.structured
}

// Strategy is one way of deriving a single field from a page
type Strategy struct {
	Name    string
	Extract func(p *Page) string
}

// DefaultTitleStrategies lists title sources from most to least structured
var DefaultTitleStrategies = []Strategy{
	{Name: "og:title", Extract: metaProperty("og:title")},
	{Name: "title-tag", Extract: titleTag},
	{Name: "json-ld-name", Extract: structuredName},
	{Name: "og:title-regex", Extract: metaPropertyRegex("og:title")},
	{Name: "title-tag-regex", Extract: titleTagRegex},
}

// DefaultImageStrategies lists image sources from most to least structured
var DefaultImageStrategies = []Strategy{
	{Name: "og:image", Extract: metaProperty("og:image")},
	{Name: "product-photo", Extract: productPhoto},
	{Name: "json-ld-image", Extract: structuredImage},
	{Name: "og:image-regex", Extract: metaPropertyRegex("og:image")},
	{Name: "product-photo-regex", Extract: productPhotoRegex},
}

// Extractor derives page fields by running ordered strategy chains
type Extractor struct {
	titleStrategies []Strategy
	imageStrategies []Strategy
	logger          logrus.FieldLogger
}

// NewExtractor creates an extractor with the default chains
func NewExtractor(logger logrus.FieldLogger) *Extractor {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Extractor{
		titleStrategies: DefaultTitleStrategies,
		imageStrategies: DefaultImageStrategies,
		logger:          logger.WithField("component", "storefront"),
	}
}

// WithStrategies returns a copy using custom chains. Nil keeps the current chain.
func (e *Extractor) WithStrategies(title, image []Strategy) *Extractor {
	clone := *e
	if title != nil {
		clone.titleStrategies = title
	}
	if image != nil {
		clone.imageStrategies = image
	}
	return &clone
}

// Extract runs the title and image chains, then resolves the selected variant's
// color and image from JSON-LD, falling back to the hydration payload for color.
func (e *Extractor) Extract(html, sourceURL string, selector domain.VariantSelector) *domain.PageData {
	page := NewPage(html, sourceURL, selector.VariantID)
	log := e.logger.WithField("url", sourceURL)

	title, titleSource := e.firstOf(page, e.titleStrategies, log)
	image, imageSource := e.firstOf(page, e.imageStrategies, log)

	data := &domain.PageData{
		Title: CleanTitle(title),
		Image: NormalizeImageURL(image, page.Base),
	}
	log.WithFields(logrus.Fields{
		"title_source": titleSource,
		"image_source": imageSource,
	}).Debug("page fields extracted")

	if selector.VariantID == "" {
		return data
	}

	if variant, ok := e.structuredVariant(page, log); ok {
		data.Color = variant.Color
		if img := NormalizeImageURL(variant.Image, page.Base); img != "" {
			data.Image = img
			data.ColorImage = img
		}
		if data.Color != "" {
			log.WithField("color", data.Color).Debug("color resolved from structured data")
		}
	}

	if data.Color == "" {
		if color := e.safely("hydration-payload", log, func() string {
			return ExtractColorFromHydrationPayload(page.HTML, selector.VariantID)
		}); color != "" {
			data.Color = color
			log.WithField("color", color).Debug("color resolved from hydration payload")
		}
	}

	return data
}

// structuredVariant finds the requested variant among the JSON-LD products
func (e *Extractor) structuredVariant(page *Page, log logrus.FieldLogger) (structuredVariant, bool) {
	var (
		variant structuredVariant
		found   bool
	)

	e.safely("json-ld-variant", log, func() string {
		data := page.StructuredData()
		if page.structuredErrors > 0 {
			log.WithField("blocks", page.structuredErrors).Warn("skipped malformed JSON-LD blocks")
		}
		if data == nil {
			return ""
		}
		variant, found = data.findVariant(page.VariantID)
		if found {
			if c := ColorFromVariantName(variant.Name); c != "" {
				variant.Color = c
			}
		}
		return variant.Color
	})

	return variant, found
}

// firstOf runs strategies in order and returns the first non-empty value
// together with the name of the strategy that produced it
func (e *Extractor) firstOf(page *Page, strategies []Strategy, log logrus.FieldLogger) (string, string) {
	for _, s := range strategies {
		if v := strings.TrimSpace(e.safely(s.Name, log, func() string { return s.Extract(page) })); v != "" {
			return v, s.Name
		}
	}
	return "", ""
}

// safely converts a panicking strategy into an empty result
func (e *Extractor) safely(name string, log logrus.FieldLogger, fn func() string) (value string) {
	defer func() {
		if r := recover(); r != nil {
			log.WithField("strategy", name).WithError(fmt.Errorf("%v", r)).Warn("extraction strategy failed")
			value = ""
		}
	}()
	return fn()
}
